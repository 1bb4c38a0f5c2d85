// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"context"
	"net/http"

	"github.com/ituhouse/ituhouse-web/internal/model"
)

// LoginRequest is the payload for POST /auth/login. Identifier accepts a
// username or an email address.
type LoginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

// RegisterRequest is the payload for POST /auth/register.
type RegisterRequest struct {
	Email            string `json:"email"`
	VerificationCode string `json:"verification_code"`
	Username         string `json:"username"`
	Password         string `json:"password"`
	PreferredLocale  string `json:"preferred_locale"`
	PreferredTheme   string `json:"preferred_theme"`
}

// CodeResponse is the payload returned by POST /auth/request-code. In test
// deployments the backend echoes the generated code back.
type CodeResponse struct {
	Code string `json:"code,omitempty"`
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, identifier, password string) (*model.TokenResponse, error) {
	var token model.TokenResponse
	err := c.request(ctx, http.MethodPost, "/auth/login", nil, LoginRequest{
		Identifier: identifier,
		Password:   password,
	}, "", &token)
	if err != nil {
		return nil, err
	}
	return &token, nil
}

// RequestCode asks the backend to send a verification code to the given email.
func (c *Client) RequestCode(ctx context.Context, email string) (*CodeResponse, error) {
	var resp CodeResponse
	err := c.request(ctx, http.MethodPost, "/auth/request-code", nil, map[string]string{
		"email": email,
	}, "", &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// Register creates a new account and returns the created profile.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*model.User, error) {
	var user model.User
	if err := c.request(ctx, http.MethodPost, "/auth/register", nil, req, "", &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Me fetches the profile belonging to the given token.
func (c *Client) Me(ctx context.Context, token string) (*model.User, error) {
	var user model.User
	if err := c.request(ctx, http.MethodGet, "/auth/me", nil, nil, token, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateUserRole changes another user's role. Backend-enforced super_admin only.
func (c *Client) UpdateUserRole(ctx context.Context, token, userID, role string) (*model.User, error) {
	var user model.User
	err := c.request(ctx, http.MethodPatch, "/admin/users/"+userID+"/role", nil, map[string]string{
		"role": role,
	}, token, &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}
