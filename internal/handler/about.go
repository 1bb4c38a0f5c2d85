// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"encoding/json"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/ituhouse/ituhouse-web/internal/api"
	"github.com/ituhouse/ituhouse-web/internal/authz"
	"github.com/ituhouse/ituhouse-web/internal/cache"
	"github.com/ituhouse/ituhouse-web/internal/editor"
	"github.com/ituhouse/ituhouse-web/internal/markdown"
	"github.com/ituhouse/ituhouse-web/internal/middleware"
	"github.com/ituhouse/ituhouse-web/internal/model"
	"github.com/ituhouse/ituhouse-web/internal/render"
	"github.com/ituhouse/ituhouse-web/internal/session"
)

// SessionKeyEditorState is the session key holding the serialized editor state.
const SessionKeyEditorState = "about_editor_state"

const sectionsCacheKey = "about:sections"

// AboutHandler handles the about page and its inline section editor.
type AboutHandler struct {
	client   *api.Client
	renderer *render.Renderer
	sessions *session.Store
	md       *markdown.Renderer
	sections *cache.TypedCache[[]model.AboutSection]
}

// NewAboutHandler creates a new AboutHandler. The section list is cached
// briefly; every mutation invalidates it.
func NewAboutHandler(client *api.Client, renderer *render.Renderer, sessions *session.Store, md *markdown.Renderer, backing cache.Cache, ttl time.Duration) *AboutHandler {
	return &AboutHandler{
		client:   client,
		renderer: renderer,
		sessions: sessions,
		md:       md,
		sections: cache.NewTypedCache[[]model.AboutSection](backing, ttl),
	}
}

// aboutData is the view model for the about page.
type aboutData struct {
	Sections   []model.AboutSection
	Active     *model.AboutSection
	Body       template.HTML
	Editing    bool
	DraftTitle string
	DraftBody  string
	CanEdit    bool
	CanManage  bool
}

// confirmData is the view model for the confirmation round-trip page.
type confirmData struct {
	Prompt string
	Action string
	Fields url.Values
}

// Page renders the about page: section navigation, the active section's
// rendered markdown, and the edit form when a draft is open.
func (h *AboutHandler) Page(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)

	ed, err := h.buildEditor(r, nil)
	if err != nil {
		slog.Error("failed to load about sections", "category", "content", "error", err)
		flashError(w, r, h.renderer, redirectRoot, apiErrorMessage(err))
		return
	}

	// Deep links select a section without touching the edit state
	if slug := r.URL.Query().Get("section"); slug != "" && !ed.Editing() {
		ed.Select(slug)
		h.saveState(r, ed)
	}

	data := aboutData{
		Sections:  ed.Sections(),
		Active:    ed.ActiveSection(),
		CanEdit:   authz.CanEditSections(user),
		CanManage: authz.CanManageSections(user),
	}
	if data.Active != nil {
		body, err := h.md.Render(data.Active.BodyMarkdown)
		if err != nil {
			logAndInternalError(w, "failed to render section body", "slug", data.Active.Slug, "error", err)
			return
		}
		data.Body = body
	}
	if ed.Editing() && data.CanEdit {
		data.Editing = true
		data.DraftTitle, data.DraftBody = ed.Draft()
	}

	if err := h.renderer.Render(w, r, "about", render.TemplateData{
		Title: "About",
		User:  user,
		Data:  data,
	}); err != nil {
		logAndInternalError(w, "failed to render about page", "error", err)
	}
}

// Select navigates to another section. Navigating away from a dirty draft
// goes through the confirmation round-trip.
func (h *AboutHandler) Select(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.renderer, redirectAbout) {
		return
	}

	ed, prompt, ok := h.editorForAction(w, r)
	if !ok {
		return
	}

	slug := r.FormValue("slug")
	ed.Select(slug)
	h.saveState(r, ed)

	if h.renderConfirm(w, r, prompt, RouteAbout+"/select") {
		return
	}
	http.Redirect(w, r, redirectAbout+"?section="+url.QueryEscape(slug), http.StatusSeeOther)
}

// Edit opens a draft on the selected section.
func (h *AboutHandler) Edit(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	if !authz.CanEditSections(user) {
		http.Error(w, "Forbidden: insufficient permissions", http.StatusForbidden)
		return
	}
	if !parseFormOrRedirect(w, r, h.renderer, redirectAbout) {
		return
	}

	ed, prompt, ok := h.editorForAction(w, r)
	if !ok {
		return
	}

	if slug := r.FormValue("slug"); slug != "" {
		if !ed.Select(slug) && *prompt == "" {
			flashError(w, r, h.renderer, redirectAbout, "Unknown section.")
			return
		}
	}
	if *prompt == "" {
		ed.Edit()
	}
	h.saveState(r, ed)

	if h.renderConfirm(w, r, prompt, RouteAbout+"/edit") {
		return
	}
	http.Redirect(w, r, redirectAbout, http.StatusSeeOther)
}

// Save submits the open draft. The form carries the draft fields so nothing
// typed since the last round trip is lost.
func (h *AboutHandler) Save(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	if !authz.CanEditSections(user) {
		http.Error(w, "Forbidden: insufficient permissions", http.StatusForbidden)
		return
	}
	if !parseFormOrRedirect(w, r, h.renderer, redirectAbout) {
		return
	}

	ed, _, ok := h.editorForAction(w, r)
	if !ok {
		return
	}

	ed.SetDraft(r.FormValue("title"), r.FormValue("body"))
	if err := ed.Save(r.Context(), h.sessions.Token(r.Context())); err != nil {
		slog.Error("failed to save section", "category", "content", "slug", ed.EditingSlug(), "error", err)
		h.saveState(r, ed)
		flashError(w, r, h.renderer, redirectAbout, apiErrorMessage(err))
		return
	}

	h.invalidateSections(r)
	h.saveState(r, ed)
	flashSuccess(w, r, h.renderer, redirectAbout, "Section saved.")
}

// Cancel discards the open draft, confirming first when it is dirty.
func (h *AboutHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.renderer, redirectAbout) {
		return
	}

	ed, prompt, ok := h.editorForAction(w, r)
	if !ok {
		return
	}

	ed.SetDraft(r.FormValue("title"), r.FormValue("body"))
	ed.Cancel()
	h.saveState(r, ed)

	if h.renderConfirm(w, r, prompt, RouteAbout+"/cancel") {
		return
	}
	http.Redirect(w, r, redirectAbout, http.StatusSeeOther)
}

// Create adds a new section and opens it for editing.
func (h *AboutHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	if !authz.CanManageSections(user) {
		http.Error(w, "Forbidden: insufficient permissions", http.StatusForbidden)
		return
	}
	if !parseFormOrRedirect(w, r, h.renderer, redirectAbout) {
		return
	}

	ed, prompt, ok := h.editorForAction(w, r)
	if !ok {
		return
	}

	title := r.FormValue("title")
	if title == "" {
		title = "New Section"
	}

	if err := ed.Create(r.Context(), h.sessions.Token(r.Context()), title, ""); err != nil {
		slog.Error("failed to create section", "category", "content", "error", err)
		flashError(w, r, h.renderer, redirectAbout, apiErrorMessage(err))
		return
	}

	h.invalidateSections(r)
	h.saveState(r, ed)

	if h.renderConfirm(w, r, prompt, RouteAbout+"/create") {
		return
	}
	http.Redirect(w, r, redirectAbout, http.StatusSeeOther)
}

// Delete removes a section after confirmation.
func (h *AboutHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	if !authz.CanManageSections(user) {
		http.Error(w, "Forbidden: insufficient permissions", http.StatusForbidden)
		return
	}
	if !parseFormOrRedirect(w, r, h.renderer, redirectAbout) {
		return
	}

	ed, prompt, ok := h.editorForAction(w, r)
	if !ok {
		return
	}

	slug := r.FormValue("slug")
	if err := ed.Delete(r.Context(), h.sessions.Token(r.Context()), slug); err != nil {
		slog.Error("failed to delete section", "category", "content", "slug", slug, "error", err)
		flashError(w, r, h.renderer, redirectAbout, apiErrorMessage(err))
		return
	}

	h.invalidateSections(r)
	h.saveState(r, ed)

	if h.renderConfirm(w, r, prompt, RouteAbout+"/delete") {
		return
	}
	flashSuccess(w, r, h.renderer, redirectAbout, "Section deleted.")
}

// editorForAction builds the editor with a confirm function that records the
// prompt of a declined transition. A repeated submission carrying confirmed=1
// approves it.
func (h *AboutHandler) editorForAction(w http.ResponseWriter, r *http.Request) (*editor.Editor, *string, bool) {
	prompt := new(string)
	confirmed := r.FormValue("confirmed") == "1"
	confirm := func(p string) bool {
		if confirmed {
			return true
		}
		*prompt = p
		return false
	}

	ed, err := h.buildEditor(r, confirm)
	if err != nil {
		slog.Error("failed to load about sections", "category", "content", "error", err)
		flashError(w, r, h.renderer, redirectAbout, apiErrorMessage(err))
		return nil, nil, false
	}
	return ed, prompt, true
}

// buildEditor loads the section list, restores the session's editing state and
// wires the given confirm function (nil means auto-decline, for read paths).
func (h *AboutHandler) buildEditor(r *http.Request, confirm editor.ConfirmFunc) (*editor.Editor, error) {
	if confirm == nil {
		confirm = func(string) bool { return false }
	}

	sections, err := h.loadSections(r)
	if err != nil {
		return nil, err
	}

	ed := editor.New(h.client, confirm)
	ed.Load(sections)

	if raw := h.sessions.Manager().GetString(r.Context(), SessionKeyEditorState); raw != "" {
		var state editor.State
		if err := json.Unmarshal([]byte(raw), &state); err == nil {
			ed.Restore(state)
		}
	}
	return ed, nil
}

// loadSections returns the section list, served from cache when fresh.
func (h *AboutHandler) loadSections(r *http.Request) ([]model.AboutSection, error) {
	if cached, ok := h.sections.Get(r.Context(), sectionsCacheKey); ok {
		return *cached, nil
	}

	sections, err := h.client.ListSections(r.Context())
	if err != nil {
		return nil, err
	}
	_ = h.sections.Set(r.Context(), sectionsCacheKey, &sections)
	return sections, nil
}

// saveState persists the editor state into the session.
func (h *AboutHandler) saveState(r *http.Request, ed *editor.Editor) {
	raw, err := json.Marshal(ed.State())
	if err != nil {
		slog.Error("failed to serialize editor state", "error", err)
		return
	}
	h.sessions.Manager().Put(r.Context(), SessionKeyEditorState, string(raw))
}

// invalidateSections drops the cached section list after a mutation.
func (h *AboutHandler) invalidateSections(r *http.Request) {
	_ = h.sections.Delete(r.Context(), sectionsCacheKey)
}

// renderConfirm renders the confirmation page when a transition was declined
// pending approval. The original form is echoed back with confirmed=1 so the
// approved resubmission replays the exact same action. Returns true when the
// confirmation page was rendered.
func (h *AboutHandler) renderConfirm(w http.ResponseWriter, r *http.Request, prompt *string, action string) bool {
	if prompt == nil || *prompt == "" {
		return false
	}

	fields := url.Values{}
	for key, values := range r.PostForm {
		if key == "confirmed" {
			continue
		}
		for _, v := range values {
			fields.Add(key, v)
		}
	}

	err := h.renderer.Render(w, r, "about_confirm", render.TemplateData{
		Title: "Confirm",
		User:  middleware.GetUser(r),
		Data: confirmData{
			Prompt: *prompt,
			Action: action,
			Fields: fields,
		},
	})
	if err != nil {
		logAndInternalError(w, "failed to render confirmation page", "error", err)
	}
	return true
}
