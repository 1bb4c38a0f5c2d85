// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"log/slog"
	"net"
	"net/http"

	"github.com/ituhouse/ituhouse-web/internal/api"
	"github.com/ituhouse/ituhouse-web/internal/middleware"
	"github.com/ituhouse/ituhouse-web/internal/render"
	"github.com/ituhouse/ituhouse-web/internal/session"
)

// AuthHandler handles authentication routes.
type AuthHandler struct {
	client          *api.Client
	renderer        *render.Renderer
	sessions        *session.Store
	loginProtection *middleware.LoginProtection
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(client *api.Client, renderer *render.Renderer, sessions *session.Store, lp *middleware.LoginProtection) *AuthHandler {
	return &AuthHandler{
		client:          client,
		renderer:        renderer,
		sessions:        sessions,
		loginProtection: lp,
	}
}

// LoginForm renders the login page. Already-authenticated users are sent home.
func (h *AuthHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	if middleware.GetUser(r) != nil {
		http.Redirect(w, r, redirectRoot, http.StatusSeeOther)
		return
	}

	if err := h.renderer.Render(w, r, "login", render.TemplateData{Title: "Log In"}); err != nil {
		logAndInternalError(w, "failed to render login page", "error", err)
	}
}

// Login handles the login form submission.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.renderer, redirectLogin) {
		return
	}

	identifier := r.FormValue("identifier")
	password := r.FormValue("password")

	// Validate before any remote call
	if identifier == "" || password == "" {
		flashError(w, r, h.renderer, redirectLogin, "Username/email and password are required.")
		return
	}

	if h.loginProtection != nil && !h.loginProtection.Allow(clientIP(r)) {
		slog.Warn("login rate limit exceeded", "category", "auth", "remote_addr", r.RemoteAddr)
		flashError(w, r, h.renderer, redirectLogin, "Too many login attempts. Please wait and try again.")
		return
	}

	if err := h.sessions.Login(r.Context(), identifier, password); err != nil {
		slog.Warn("login failed", "category", "auth", "identifier", identifier, "error", err)
		flashError(w, r, h.renderer, redirectLogin, apiErrorMessage(err))
		return
	}

	// Regenerate session ID to prevent session fixation
	if err := h.sessions.Manager().RenewToken(r.Context()); err != nil {
		logAndInternalError(w, "session renewal error", "error", err)
		return
	}

	slog.Info("user logged in", "category", "auth", "identifier", identifier)
	flashSuccess(w, r, h.renderer, redirectRoot, "Welcome back!")
}

// RegisterForm renders the registration page.
func (h *AuthHandler) RegisterForm(w http.ResponseWriter, r *http.Request) {
	if middleware.GetUser(r) != nil {
		http.Redirect(w, r, redirectRoot, http.StatusSeeOther)
		return
	}

	if err := h.renderer.Render(w, r, "register", render.TemplateData{Title: "Sign Up"}); err != nil {
		logAndInternalError(w, "failed to render registration page", "error", err)
	}
}

// RequestCode asks the backend to email a verification code.
func (h *AuthHandler) RequestCode(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.renderer, redirectRegister) {
		return
	}

	email := r.FormValue("email")
	if email == "" {
		flashError(w, r, h.renderer, redirectRegister, "Email is required.")
		return
	}

	resp, err := h.client.RequestCode(r.Context(), email)
	if err != nil {
		slog.Warn("verification code request failed", "category", "auth", "email", email, "error", err)
		flashError(w, r, h.renderer, redirectRegister, apiErrorMessage(err))
		return
	}

	message := "Verification code sent. Check your inbox."
	if resp.Code != "" {
		// Test deployments echo the code back instead of sending mail.
		message = "Verification code: " + resp.Code
	}
	flashAndRedirect(w, r, h.renderer, redirectRegister, message, "info")
}

// Register handles the registration form submission. Validation failures
// block the submission locally; on success the new account is logged in
// immediately.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.renderer, redirectRegister) {
		return
	}

	email := r.FormValue("email")
	code := r.FormValue("verification_code")
	username := r.FormValue("username")
	password := r.FormValue("password")
	passwordConfirm := r.FormValue("password_confirm")
	terms := r.FormValue("terms")

	if email == "" || code == "" || username == "" || password == "" {
		flashError(w, r, h.renderer, redirectRegister, "All fields are required.")
		return
	}
	if password != passwordConfirm {
		flashError(w, r, h.renderer, redirectRegister, "Passwords do not match.")
		return
	}
	if terms == "" {
		flashError(w, r, h.renderer, redirectRegister, "You must accept the terms to register.")
		return
	}

	user, err := h.client.Register(r.Context(), api.RegisterRequest{
		Email:            email,
		VerificationCode: code,
		Username:         username,
		Password:         password,
		PreferredLocale:  h.sessions.Locale(r.Context()),
		PreferredTheme:   h.sessions.Theme(r.Context()),
	})
	if err != nil {
		slog.Warn("registration failed", "category", "auth", "email", email, "error", err)
		flashError(w, r, h.renderer, redirectRegister, apiErrorMessage(err))
		return
	}

	// Log the fresh account in right away: exchange credentials for a token
	// and inject the profile Register already returned, skipping a second
	// profile fetch.
	resp, err := h.client.Login(r.Context(), username, password)
	if err != nil {
		slog.Error("post-registration login failed", "category", "auth", "user_id", user.ID, "error", err)
		flashAndRedirect(w, r, h.renderer, redirectLogin, "Account created. Please log in.", "info")
		return
	}
	h.sessions.SetSession(r.Context(), resp.AccessToken, user)

	if err := h.sessions.Manager().RenewToken(r.Context()); err != nil {
		logAndInternalError(w, "session renewal error", "error", err)
		return
	}

	slog.Info("user registered", "category", "auth", "user_id", user.ID, "username", user.Username)
	flashSuccess(w, r, h.renderer, redirectRoot, "Welcome to ituhouse, "+user.Username+"!")
}

// Logout clears the session token and cached profile together.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.sessions.Logout(r.Context())

	if err := h.sessions.Manager().Destroy(r.Context()); err != nil {
		slog.Error("session destroy error", "error", err)
	}

	slog.Info("user logged out", "category", "auth")
	flashAndRedirect(w, r, h.renderer, redirectRoot, "You have been logged out.", "info")
}

// clientIP extracts the remote IP without the port.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
