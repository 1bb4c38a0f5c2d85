// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"context"
	"net/http"

	"golang.org/x/text/language"

	"github.com/ituhouse/ituhouse-web/internal/session"
)

// Supported locales; Chinese is the site's primary audience.
var supportedLocales = []language.Tag{
	language.SimplifiedChinese, // zh-CN, default
	language.AmericanEnglish,   // en-US
}

var localeMatcher = language.NewMatcher(supportedLocales)

// Context key for the resolved locale.
const ContextKeyLocale ContextKey = "locale"

// Locale resolves the request locale: the session preference when set, else
// the best Accept-Language match, else zh-CN.
func Locale(store *session.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			locale := store.Locale(r.Context())
			if locale == "" {
				tag, _ := language.MatchStrings(localeMatcher, r.Header.Get("Accept-Language"))
				locale = tag.String()
			}
			ctx := context.WithValue(r.Context(), ContextKeyLocale, locale)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetLocale retrieves the resolved locale from the request context.
func GetLocale(r *http.Request) string {
	locale, ok := r.Context().Value(ContextKeyLocale).(string)
	if !ok || locale == "" {
		return "zh-CN"
	}
	return locale
}
