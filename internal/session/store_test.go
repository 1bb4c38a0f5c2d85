// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2"

	"github.com/ituhouse/ituhouse-web/internal/cache"
	"github.com/ituhouse/ituhouse-web/internal/model"
)

type fakeAuth struct {
	loginResp *model.TokenResponse
	loginErr  error
	meResp    *model.User
	meErr     error

	loginCalls int
	meCalls    int
}

func (f *fakeAuth) Login(context.Context, string, string) (*model.TokenResponse, error) {
	f.loginCalls++
	return f.loginResp, f.loginErr
}

func (f *fakeAuth) Me(context.Context, string) (*model.User, error) {
	f.meCalls++
	return f.meResp, f.meErr
}

// withSession runs fn inside a request whose context carries a loaded scs
// session, the way every handler sees it behind LoadAndSave.
func withSession(t *testing.T, store *Store, fn func(ctx context.Context)) {
	t.Helper()
	h := store.Manager().LoadAndSave(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fn(r.Context())
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	h.ServeHTTP(httptest.NewRecorder(), req)
}

func newTestStore(auth AuthService) (*Store, func()) {
	sm := scs.New()
	backing := cache.NewMemoryCache(cache.MemoryCacheOptions{DefaultTTL: time.Minute})
	return NewStore(sm, auth, backing, time.Minute), func() { _ = backing.Close() }
}

func TestStore_AnonymousSession(t *testing.T) {
	auth := &fakeAuth{}
	store, cleanup := newTestStore(auth)
	defer cleanup()

	withSession(t, store, func(ctx context.Context) {
		user, err := store.CurrentUser(ctx)
		if err != nil {
			t.Fatalf("CurrentUser: %v", err)
		}
		if user != nil {
			t.Errorf("expected nil user for anonymous session, got %+v", user)
		}
		if auth.meCalls != 0 {
			t.Errorf("anonymous session must not call the backend, got %d calls", auth.meCalls)
		}
	})
}

func TestStore_LoginStoresTokenAndProfile(t *testing.T) {
	auth := &fakeAuth{
		loginResp: &model.TokenResponse{AccessToken: "tok-abc"},
		meResp:    &model.User{ID: "u1", Username: "mochi", Role: model.RoleUser},
	}
	store, cleanup := newTestStore(auth)
	defer cleanup()

	withSession(t, store, func(ctx context.Context) {
		if err := store.Login(ctx, "mochi", "secret"); err != nil {
			t.Fatalf("Login: %v", err)
		}
		if got := store.Token(ctx); got != "tok-abc" {
			t.Errorf("Token = %q, want tok-abc", got)
		}

		user, err := store.CurrentUser(ctx)
		if err != nil {
			t.Fatalf("CurrentUser: %v", err)
		}
		if user == nil || user.Username != "mochi" {
			t.Errorf("CurrentUser = %+v", user)
		}
		if auth.meCalls != 1 {
			t.Errorf("profile should come from cache after login, meCalls = %d", auth.meCalls)
		}
	})
}

func TestStore_LoginFailure(t *testing.T) {
	auth := &fakeAuth{loginErr: errors.New("invalid credentials")}
	store, cleanup := newTestStore(auth)
	defer cleanup()

	withSession(t, store, func(ctx context.Context) {
		if err := store.Login(ctx, "mochi", "wrong"); err == nil {
			t.Fatal("expected login error")
		}
		if store.Token(ctx) != "" {
			t.Error("failed login must not persist a token")
		}
	})
}

func TestStore_RejectedTokenClearsSession(t *testing.T) {
	auth := &fakeAuth{meErr: errors.New("401 unauthorized")}
	store, cleanup := newTestStore(auth)
	defer cleanup()

	withSession(t, store, func(ctx context.Context) {
		store.Manager().Put(ctx, KeyToken, "revoked-tok")

		if _, err := store.CurrentUser(ctx); err == nil {
			t.Fatal("expected error for rejected token")
		}
		if store.Token(ctx) != "" {
			t.Error("rejected token must be removed from the session")
		}

		// Second call is now anonymous, no further backend traffic
		calls := auth.meCalls
		user, err := store.CurrentUser(ctx)
		if err != nil || user != nil {
			t.Errorf("expected clean anonymous state, got user=%v err=%v", user, err)
		}
		if auth.meCalls != calls {
			t.Error("anonymous session after logout must not hit the backend")
		}
	})
}

func TestStore_LogoutIdempotent(t *testing.T) {
	auth := &fakeAuth{
		loginResp: &model.TokenResponse{AccessToken: "tok"},
		meResp:    &model.User{ID: "u1"},
	}
	store, cleanup := newTestStore(auth)
	defer cleanup()

	withSession(t, store, func(ctx context.Context) {
		if err := store.Login(ctx, "u", "p"); err != nil {
			t.Fatalf("Login: %v", err)
		}
		store.Logout(ctx)
		store.Logout(ctx)
		if store.Token(ctx) != "" {
			t.Error("token must be gone after logout")
		}
	})
}

func TestStore_SetSession(t *testing.T) {
	auth := &fakeAuth{}
	store, cleanup := newTestStore(auth)
	defer cleanup()

	withSession(t, store, func(ctx context.Context) {
		store.SetSession(ctx, "reg-tok", &model.User{ID: "u2", Username: "fresh"})

		if got := store.Token(ctx); got != "reg-tok" {
			t.Errorf("Token = %q, want reg-tok", got)
		}
		user, err := store.CurrentUser(ctx)
		if err != nil {
			t.Fatalf("CurrentUser: %v", err)
		}
		if user == nil || user.Username != "fresh" {
			t.Errorf("CurrentUser = %+v", user)
		}
		if auth.meCalls != 0 {
			t.Errorf("injected profile must serve without a backend call, meCalls = %d", auth.meCalls)
		}
	})
}

func TestStore_RefreshProfile(t *testing.T) {
	auth := &fakeAuth{
		loginResp: &model.TokenResponse{AccessToken: "tok"},
		meResp:    &model.User{ID: "u1", Role: model.RoleUser},
	}
	store, cleanup := newTestStore(auth)
	defer cleanup()

	withSession(t, store, func(ctx context.Context) {
		if err := store.Login(ctx, "u", "p"); err != nil {
			t.Fatalf("Login: %v", err)
		}

		auth.meResp = &model.User{ID: "u1", Role: model.RoleAdmin}
		user, err := store.RefreshProfile(ctx)
		if err != nil {
			t.Fatalf("RefreshProfile: %v", err)
		}
		if user.Role != model.RoleAdmin {
			t.Errorf("expected refreshed role admin, got %q", user.Role)
		}
	})
}

func TestStore_Preferences(t *testing.T) {
	store, cleanup := newTestStore(&fakeAuth{})
	defer cleanup()

	withSession(t, store, func(ctx context.Context) {
		if store.Locale(ctx) != "" || store.Theme(ctx) != "" {
			t.Error("preferences must start empty")
		}
		store.SetLocale(ctx, "en-US")
		store.SetTheme(ctx, "dark")
		if store.Locale(ctx) != "en-US" {
			t.Errorf("Locale = %q", store.Locale(ctx))
		}
		if store.Theme(ctx) != "dark" {
			t.Errorf("Theme = %q", store.Theme(ctx))
		}
	})
}
