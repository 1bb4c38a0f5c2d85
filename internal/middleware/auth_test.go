// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ituhouse/ituhouse-web/internal/model"
)

func requestWithUser(user *model.User) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/profile", nil)
	if user == nil {
		return r
	}
	ctx := context.WithValue(r.Context(), ContextKeyUser, user)
	return r.WithContext(ctx)
}

func TestGetUser(t *testing.T) {
	if GetUser(requestWithUser(nil)) != nil {
		t.Error("expected nil user for anonymous request")
	}

	want := &model.User{ID: "u1", Role: model.RoleUser}
	if got := GetUser(requestWithUser(want)); got != want {
		t.Errorf("GetUser = %+v, want %+v", got, want)
	}
}

func TestRequireAuth_RedirectsGuests(t *testing.T) {
	called := false
	h := RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, requestWithUser(nil))

	if called {
		t.Error("handler must not run for guests")
	}
	if rec.Code != http.StatusSeeOther {
		t.Errorf("status = %d, want 303", rec.Code)
	}
	if got := rec.Header().Get("Location"); got != "/login" {
		t.Errorf("Location = %q, want /login", got)
	}
}

func TestRequireAuth_PassesUsers(t *testing.T) {
	called := false
	h := RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, requestWithUser(&model.User{ID: "u1", Role: model.RoleUser}))

	if !called {
		t.Error("handler must run for authenticated users")
	}
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name       string
		user       *model.User
		minRole    string
		wantStatus int
		wantPass   bool
	}{
		{"anonymous redirected", nil, model.RoleAdmin, http.StatusSeeOther, false},
		{"user below admin forbidden", &model.User{ID: "u1", Role: model.RoleUser}, model.RoleAdmin, http.StatusForbidden, false},
		{"admin passes admin", &model.User{ID: "u2", Role: model.RoleAdmin}, model.RoleAdmin, http.StatusOK, true},
		{"admin below super_admin forbidden", &model.User{ID: "u2", Role: model.RoleAdmin}, model.RoleSuperAdmin, http.StatusForbidden, false},
		{"super_admin passes admin", &model.User{ID: "u3", Role: model.RoleSuperAdmin}, model.RoleAdmin, http.StatusOK, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			h := RequireRole(tt.minRole)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
			}))

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, requestWithUser(tt.user))

			if called != tt.wantPass {
				t.Errorf("handler called = %v, want %v", called, tt.wantPass)
			}
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestRequestPath(t *testing.T) {
	var got string
	h := RequestPath(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = GetRequestPath(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/posts/abc", nil)
	h.ServeHTTP(httptest.NewRecorder(), req)

	if got != "/posts/abc" {
		t.Errorf("request path = %q", got)
	}
	if GetRequestPath(context.Background()) != "" {
		t.Error("empty context must yield empty path")
	}
}
