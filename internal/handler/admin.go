// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ituhouse/ituhouse-web/internal/api"
	"github.com/ituhouse/ituhouse-web/internal/middleware"
	"github.com/ituhouse/ituhouse-web/internal/model"
	"github.com/ituhouse/ituhouse-web/internal/render"
	"github.com/ituhouse/ituhouse-web/internal/session"
	"github.com/ituhouse/ituhouse-web/internal/store"
)

// eventsPageLimit caps how many event rows the admin page shows.
const eventsPageLimit = 200

// AdminHandler handles the admin pages: event log and role management.
type AdminHandler struct {
	client   *api.Client
	queries  *store.Queries
	renderer *render.Renderer
	sessions *session.Store
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(client *api.Client, db *sql.DB, renderer *render.Renderer, sessions *session.Store) *AdminHandler {
	return &AdminHandler{
		client:   client,
		queries:  store.New(db),
		renderer: renderer,
		sessions: sessions,
	}
}

// eventsData is the view model for the event log page.
type eventsData struct {
	Events []store.Event
}

// Events renders the local event log.
func (h *AdminHandler) Events(w http.ResponseWriter, r *http.Request) {
	events, err := h.queries.ListEvents(r.Context(), eventsPageLimit)
	if err != nil {
		logAndInternalError(w, "failed to list events", "error", err)
		return
	}

	if err := h.renderer.Render(w, r, "admin_events", render.TemplateData{
		Title: "Event Log",
		User:  middleware.GetUser(r),
		Data:  eventsData{Events: events},
	}); err != nil {
		logAndInternalError(w, "failed to render event log", "error", err)
	}
}

// UpdateUserRole changes another user's role through the backend. The route
// is already gated to super_admin; the backend enforces it again.
func (h *AdminHandler) UpdateUserRole(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	if _, err := uuid.Parse(userID); err != nil {
		http.NotFound(w, r)
		return
	}

	if !parseFormOrRedirect(w, r, h.renderer, redirectRoot) {
		return
	}

	role := r.FormValue("role")
	switch role {
	case model.RoleUser, model.RoleAdmin, model.RoleSuperAdmin:
	default:
		flashError(w, r, h.renderer, redirectRoot, "Invalid role.")
		return
	}

	admin := middleware.GetUser(r)
	token := h.sessions.Token(r.Context())
	updated, err := h.client.UpdateUserRole(r.Context(), token, userID, role)
	if err != nil {
		slog.Error("failed to update user role",
			"category", "auth",
			"target_user_id", userID,
			"role", role,
			"admin_id", admin.ID,
			"error", err,
		)
		flashError(w, r, h.renderer, redirectRoot, apiErrorMessage(err))
		return
	}

	slog.Warn("user role changed",
		"category", "auth",
		"target_user_id", updated.ID,
		"target_username", updated.Username,
		"new_role", updated.Role,
		"admin_id", admin.ID,
	)
	flashSuccess(w, r, h.renderer, redirectRoot, "Role updated for "+updated.Username+".")
}
