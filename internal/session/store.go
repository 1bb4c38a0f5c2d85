// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package session

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/alexedwards/scs/v2"

	"github.com/ituhouse/ituhouse-web/internal/cache"
	"github.com/ituhouse/ituhouse-web/internal/model"
)

// Session keys. KeyToken is the single durable key holding the bearer token;
// the preference keys mirror the original client's durable language/theme
// storage.
const (
	KeyToken  = "api_token"
	KeyLocale = "preferred_locale"
	KeyTheme  = "preferred_theme"
)

// AuthService is the subset of the API client the session store needs.
type AuthService interface {
	Login(ctx context.Context, identifier, password string) (*model.TokenResponse, error)
	Me(ctx context.Context, token string) (*model.User, error)
}

// Store resolves and mutates the per-browser session. The invariant it
// enforces in one place: a user profile is only ever held together with the
// token the server accepted for it, and both are cleared together — a stale
// or revoked token must never keep stale user data visible.
type Store struct {
	sm       *scs.SessionManager
	auth     AuthService
	profiles *cache.TypedCache[model.User]
}

// NewStore creates a session store. The profile cache bounds how long a
// revoked backend session can stay visible, so its TTL should be short.
func NewStore(sm *scs.SessionManager, auth AuthService, backing cache.Cache, profileTTL time.Duration) *Store {
	return &Store{
		sm:       sm,
		auth:     auth,
		profiles: cache.NewTypedCache[model.User](backing, profileTTL),
	}
}

// Manager returns the underlying scs session manager.
func (s *Store) Manager() *scs.SessionManager {
	return s.sm
}

// Token returns the persisted bearer token, or "" for anonymous sessions.
func (s *Store) Token(ctx context.Context) string {
	return s.sm.GetString(ctx, KeyToken)
}

// CurrentUser resolves the profile for the session's token. An anonymous
// session yields (nil, nil). A token the backend rejects invalidates the
// whole session: the token is removed before the error is returned, so no
// later read can observe an orphaned token.
func (s *Store) CurrentUser(ctx context.Context) (*model.User, error) {
	token := s.Token(ctx)
	if token == "" {
		return nil, nil
	}

	if user, ok := s.profiles.Get(ctx, profileKey(token)); ok {
		return user, nil
	}

	user, err := s.auth.Me(ctx, token)
	if err != nil {
		s.Logout(ctx)
		return nil, fmt.Errorf("fetching profile: %w", err)
	}

	_ = s.profiles.Set(ctx, profileKey(token), user)
	return user, nil
}

// Login exchanges credentials for a token, persists it, and immediately
// fetches the profile. The token write happens before the profile fetch so a
// concurrent page load never observes a user without a matching token.
func (s *Store) Login(ctx context.Context, identifier, password string) error {
	resp, err := s.auth.Login(ctx, identifier, password)
	if err != nil {
		return err
	}

	s.sm.Put(ctx, KeyToken, resp.AccessToken)

	user, err := s.auth.Me(ctx, resp.AccessToken)
	if err != nil {
		s.Logout(ctx)
		return fmt.Errorf("fetching profile after login: %w", err)
	}

	_ = s.profiles.Set(ctx, profileKey(resp.AccessToken), user)
	return nil
}

// Logout clears the token and cached profile together. Idempotent.
func (s *Store) Logout(ctx context.Context) {
	if token := s.Token(ctx); token != "" {
		_ = s.profiles.Delete(ctx, profileKey(token))
	}
	s.sm.Remove(ctx, KeyToken)
}

// RefreshProfile drops the cached profile and re-fetches it, for use after
// server-side role or profile changes.
func (s *Store) RefreshProfile(ctx context.Context) (*model.User, error) {
	if token := s.Token(ctx); token != "" {
		_ = s.profiles.Delete(ctx, profileKey(token))
	}
	return s.CurrentUser(ctx)
}

// SetSession injects a token and profile directly, used by the registration
// flow to skip a second round trip.
func (s *Store) SetSession(ctx context.Context, token string, user *model.User) {
	s.sm.Put(ctx, KeyToken, token)
	_ = s.profiles.Set(ctx, profileKey(token), user)
}

// Locale returns the persisted locale preference, or "" if unset.
func (s *Store) Locale(ctx context.Context) string {
	return s.sm.GetString(ctx, KeyLocale)
}

// SetLocale persists the locale preference.
func (s *Store) SetLocale(ctx context.Context, locale string) {
	s.sm.Put(ctx, KeyLocale, locale)
}

// Theme returns the persisted theme preference, or "" if unset.
func (s *Store) Theme(ctx context.Context) string {
	return s.sm.GetString(ctx, KeyTheme)
}

// SetTheme persists the theme preference.
func (s *Store) SetTheme(ctx context.Context, theme string) {
	s.sm.Put(ctx, KeyTheme, theme)
}

// profileKey derives the cache key for a token without storing the
// credential itself in cache keys.
func profileKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return "profile:" + hex.EncodeToString(sum[:16])
}
