// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model defines the domain types exchanged with the remote ituhouse
// API: user profiles, posts, comments, about sections and pagination envelopes.
package model

import "time"

// User roles, ordered from least to most privileged.
const (
	RoleVisitor    = "visitor"
	RoleUser       = "user"
	RoleAdmin      = "admin"
	RoleSuperAdmin = "super_admin"
)

// User represents the authenticated user's profile as returned by GET /auth/me.
// It is immutable from this application's perspective; changes happen on the
// remote backend and become visible through a profile refresh.
type User struct {
	ID              string    `json:"id"`
	Username        string    `json:"username"`
	Email           string    `json:"email"`
	Role            string    `json:"role"`
	PreferredLocale string    `json:"preferred_locale"`
	PreferredTheme  string    `json:"preferred_theme"`
	EmailVerified   bool      `json:"email_verified"`
	IsActive        bool      `json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
}

// TokenResponse is the payload returned by POST /auth/login.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type,omitempty"`
}
