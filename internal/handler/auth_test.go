// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"io"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2"

	"github.com/ituhouse/ituhouse-web/internal/api"
	"github.com/ituhouse/ituhouse-web/internal/cache"
	"github.com/ituhouse/ituhouse-web/internal/model"
	"github.com/ituhouse/ituhouse-web/internal/render"
	"github.com/ituhouse/ituhouse-web/internal/session"
	"github.com/ituhouse/ituhouse-web/web"
)

func newAuthTestHandler(t *testing.T, backendURL string) (*AuthHandler, *session.Store, *scs.SessionManager) {
	t.Helper()

	client := api.New(backendURL)
	sm := scs.New()
	backing := cache.NewMemoryCache(cache.MemoryCacheOptions{DefaultTTL: time.Minute})
	t.Cleanup(func() { _ = backing.Close() })
	sessions := session.NewStore(sm, client, backing, time.Minute)

	templatesFS, err := fs.Sub(web.Templates, "templates")
	if err != nil {
		t.Fatalf("templates fs: %v", err)
	}
	renderer, err := render.New(render.Config{
		TemplatesFS:    templatesFS,
		SessionManager: sm,
		IsDev:          true,
	})
	if err != nil {
		t.Fatalf("render.New: %v", err)
	}

	return NewAuthHandler(client, renderer, sessions, nil), sessions, sm
}

func TestRegister_InjectsSessionWithoutProfileFetch(t *testing.T) {
	meCalls := 0
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/register":
			_, _ = io.WriteString(w, `{"id":"u1","username":"mochi","email":"m@example.com","role":"user"}`)
		case "/auth/login":
			_, _ = io.WriteString(w, `{"access_token":"tok-reg"}`)
		case "/auth/me":
			meCalls++
			_, _ = io.WriteString(w, `{"id":"u1","username":"mochi","role":"user"}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer backend.Close()

	h, sessions, sm := newAuthTestHandler(t, backend.URL)

	form := url.Values{
		"email":             {"m@example.com"},
		"verification_code": {"123456"},
		"username":          {"mochi"},
		"password":          {"pw12345!"},
		"password_confirm":  {"pw12345!"},
		"terms":             {"on"},
	}
	req := httptest.NewRequest(http.MethodPost, "/register", strings.NewReader(form.Encode()))
	req.Header.Set(HeaderContentType, "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	sm.LoadAndSave(http.HandlerFunc(h.Register)).ServeHTTP(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", rec.Code)
	}
	if got := rec.Header().Get("Location"); got != redirectRoot {
		t.Errorf("Location = %q, want %q", got, redirectRoot)
	}
	if meCalls != 0 {
		t.Errorf("registration must inject the returned profile, not re-fetch it; /auth/me called %d times", meCalls)
	}

	// The session cookie from the registration response must resolve to the
	// injected token and profile on the next request, still without a fetch.
	var (
		token string
		user  *model.User
		uErr  error
	)
	req2 := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		req2.AddCookie(c)
	}
	sm.LoadAndSave(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token = sessions.Token(r.Context())
		user, uErr = sessions.CurrentUser(r.Context())
	})).ServeHTTP(httptest.NewRecorder(), req2)

	if uErr != nil {
		t.Fatalf("CurrentUser: %v", uErr)
	}
	if token != "tok-reg" {
		t.Errorf("token = %q, want tok-reg", token)
	}
	if user == nil || user.Username != "mochi" {
		t.Errorf("user = %+v", user)
	}
	if meCalls != 0 {
		t.Errorf("injected profile must serve from cache; /auth/me called %d times", meCalls)
	}
}

func TestRegister_LoginFailureFallsBackToLoginPage(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/register":
			_, _ = io.WriteString(w, `{"id":"u1","username":"mochi","role":"user"}`)
		case "/auth/login":
			w.WriteHeader(http.StatusServiceUnavailable)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer backend.Close()

	h, sessions, sm := newAuthTestHandler(t, backend.URL)

	form := url.Values{
		"email":             {"m@example.com"},
		"verification_code": {"123456"},
		"username":          {"mochi"},
		"password":          {"pw12345!"},
		"password_confirm":  {"pw12345!"},
		"terms":             {"on"},
	}
	req := httptest.NewRequest(http.MethodPost, "/register", strings.NewReader(form.Encode()))
	req.Header.Set(HeaderContentType, "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	sm.LoadAndSave(http.HandlerFunc(h.Register)).ServeHTTP(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", rec.Code)
	}
	if got := rec.Header().Get("Location"); got != redirectLogin {
		t.Errorf("Location = %q, want %q", got, redirectLogin)
	}

	// No half-authenticated session may survive the failed login.
	var token string
	req2 := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		req2.AddCookie(c)
	}
	sm.LoadAndSave(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token = sessions.Token(r.Context())
	})).ServeHTTP(httptest.NewRecorder(), req2)
	if token != "" {
		t.Errorf("token = %q, want empty after failed post-registration login", token)
	}
}

func TestRegister_LocalValidationBlocksRequest(t *testing.T) {
	backendHits := 0
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		backendHits++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer backend.Close()

	h, _, sm := newAuthTestHandler(t, backend.URL)

	form := url.Values{
		"email":             {"m@example.com"},
		"verification_code": {"123456"},
		"username":          {"mochi"},
		"password":          {"pw12345!"},
		"password_confirm":  {"different"},
		"terms":             {"on"},
	}
	req := httptest.NewRequest(http.MethodPost, "/register", strings.NewReader(form.Encode()))
	req.Header.Set(HeaderContentType, "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	sm.LoadAndSave(http.HandlerFunc(h.Register)).ServeHTTP(rec, req)

	if got := rec.Header().Get("Location"); got != redirectRegister {
		t.Errorf("Location = %q, want %q", got, redirectRegister)
	}
	if backendHits != 0 {
		t.Errorf("mismatched passwords must be caught locally; backend hit %d times", backendHits)
	}
}
