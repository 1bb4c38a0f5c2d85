// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/ituhouse/ituhouse-web/internal/api"
	"github.com/ituhouse/ituhouse-web/internal/middleware"
	"github.com/ituhouse/ituhouse-web/internal/model"
	"github.com/ituhouse/ituhouse-web/internal/paging"
	"github.com/ituhouse/ituhouse-web/internal/render"
	"github.com/ituhouse/ituhouse-web/internal/session"
)

// Supported theme values.
var validThemes = map[string]bool{"light": true, "dark": true}

// Supported locale values for the preference form.
var validLocales = map[string]bool{"zh-CN": true, "en-US": true}

// ProfileHandler handles the profile page and preference updates.
type ProfileHandler struct {
	client   *api.Client
	renderer *render.Renderer
	sessions *session.Store
	pageSize int
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(client *api.Client, renderer *render.Renderer, sessions *session.Store, pageSize int) *ProfileHandler {
	return &ProfileHandler{
		client:   client,
		renderer: renderer,
		sessions: sessions,
		pageSize: pageSize,
	}
}

// profileData is the view model for the profile page.
type profileData struct {
	Profile   model.User
	Posts     []model.Post
	HasMore   bool
	NextPages int
	Locale    string
	Theme     string
}

// Page renders the profile with the user's own posts, accumulated through the
// same cumulative pagination as the public feed but scoped to the author.
func (h *ProfileHandler) Page(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	if user == nil {
		http.Redirect(w, r, redirectLogin, http.StatusSeeOther)
		return
	}

	pages, err := strconv.Atoi(r.URL.Query().Get("pages"))
	if err != nil || pages < 1 {
		pages = 1
	}
	if pages > maxFeedPages {
		pages = maxFeedPages
	}

	token := h.sessions.Token(r.Context())
	controller := paging.NewController[model.Post](func(p model.Post) string { return p.ID })
	fetch := func(ctx context.Context, page int) ([]model.Post, bool, error) {
		resp, err := h.client.ListPosts(ctx, token, api.ListPostsParams{
			Page:     page,
			PageSize: h.pageSize,
			AuthorID: user.ID,
		})
		if err != nil {
			return nil, false, err
		}
		return resp.Items, resp.HasMore, nil
	}

	for i := 0; i < pages && controller.HasMore(); i++ {
		if err := controller.LoadNext(r.Context(), fetch); err != nil {
			slog.Error("failed to load own posts", "category", "content", "user_id", user.ID, "error", err)
			flashError(w, r, h.renderer, redirectRoot, apiErrorMessage(err))
			return
		}
	}

	data := profileData{
		Profile:   *user,
		Posts:     controller.Items(),
		HasMore:   controller.HasMore(),
		NextPages: pages + 1,
		Locale:    h.sessions.Locale(r.Context()),
		Theme:     h.sessions.Theme(r.Context()),
	}
	if err := h.renderer.Render(w, r, "profile", render.TemplateData{
		Title: "Profile",
		User:  user,
		Data:  data,
	}); err != nil {
		logAndInternalError(w, "failed to render profile page", "error", err)
	}
}

// UpdatePreferences persists locale and theme choices in the session.
func (h *ProfileHandler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.renderer, redirectProfile) {
		return
	}

	if locale := r.FormValue("locale"); locale != "" {
		if !validLocales[locale] {
			flashError(w, r, h.renderer, redirectProfile, "Unsupported language.")
			return
		}
		h.sessions.SetLocale(r.Context(), locale)
	}
	if theme := r.FormValue("theme"); theme != "" {
		if !validThemes[theme] {
			flashError(w, r, h.renderer, redirectProfile, "Unsupported theme.")
			return
		}
		h.sessions.SetTheme(r.Context(), theme)
	}

	flashSuccess(w, r, h.renderer, redirectProfile, "Preferences updated.")
}
