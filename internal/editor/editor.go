// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package editor implements the about-page authoring state machine: a local
// edit buffer with dirty tracking, discard confirmation, and explicit save
// back to the backend. It holds no authority over section contents; every
// mutation round-trips through the section service and the loaded list is
// only updated from confirmed server responses.
package editor

import (
	"context"
	"sort"

	"github.com/ituhouse/ituhouse-web/internal/api"
	"github.com/ituhouse/ituhouse-web/internal/model"
)

// ConfirmFunc decides whether a destructive transition (discarding a dirty
// draft, deleting a section) may proceed. Injected so the web layer can route
// it through a confirmation round-trip and tests can stub it.
type ConfirmFunc func(prompt string) bool

// SectionService is the subset of the API client the editor needs.
type SectionService interface {
	UpdateSection(ctx context.Context, token, slug string, payload api.SectionPayload) (*model.AboutSection, error)
	CreateSection(ctx context.Context, token string, payload api.SectionPayload) (*model.AboutSection, error)
	DeleteSection(ctx context.Context, token, slug string) error
}

// State is the serializable editing state, persisted between requests.
type State struct {
	ActiveSlug    string `json:"active_slug,omitempty"`
	EditingSlug   string `json:"editing_slug,omitempty"`
	DraftTitle    string `json:"draft_title,omitempty"`
	DraftBody     string `json:"draft_body,omitempty"`
	OriginalTitle string `json:"original_title,omitempty"`
	OriginalBody  string `json:"original_body,omitempty"`
}

// Editor owns the loaded section list plus the Viewing/Editing state machine.
type Editor struct {
	service SectionService
	confirm ConfirmFunc

	sections []model.AboutSection
	state    State
}

// New creates an Editor. confirm must not be nil.
func New(service SectionService, confirm ConfirmFunc) *Editor {
	return &Editor{service: service, confirm: confirm}
}

// Load replaces the section list, sorted by server ID. The active slug is
// kept when it still exists, otherwise falls back to the first section.
func (e *Editor) Load(sections []model.AboutSection) {
	e.sections = append([]model.AboutSection(nil), sections...)
	sort.Slice(e.sections, func(i, j int) bool { return e.sections[i].ID < e.sections[j].ID })
	if e.state.ActiveSlug != "" && e.find(e.state.ActiveSlug) == nil {
		e.state.ActiveSlug = ""
	}
}

// Sections returns the loaded sections in server order.
func (e *Editor) Sections() []model.AboutSection {
	return e.sections
}

// State returns the serializable editing state.
func (e *Editor) State() State {
	return e.state
}

// Restore reinstates a previously saved editing state. A stale editing slug
// that no longer matches a loaded section is dropped.
func (e *Editor) Restore(s State) {
	e.state = s
	if e.state.EditingSlug != "" && e.find(e.state.EditingSlug) == nil {
		e.resetEditing()
	}
	if e.state.ActiveSlug != "" && e.find(e.state.ActiveSlug) == nil {
		e.state.ActiveSlug = ""
	}
}

// ActiveSection resolves the section shown to the reader: the active slug
// when present and known, else the first section in server order. Returns nil
// when no sections are loaded.
func (e *Editor) ActiveSection() *model.AboutSection {
	if len(e.sections) == 0 {
		return nil
	}
	if s := e.find(e.state.ActiveSlug); s != nil {
		return s
	}
	return &e.sections[0]
}

// Select navigates to the section with the given slug. An unknown slug is
// ignored. Navigating away from a dirty draft requires confirmation; on
// decline the navigation is aborted and the draft preserved.
func (e *Editor) Select(slug string) bool {
	if e.find(slug) == nil {
		return false
	}
	if e.Editing() && e.Dirty() && slug != e.state.EditingSlug {
		if !e.confirm("You have unsaved changes. Switch anyway?") {
			return false
		}
		e.resetEditing()
	}
	e.state.ActiveSlug = slug
	return true
}

// Edit enters editing on the active section, snapshotting its current title
// and body as the originals next to an identical draft.
func (e *Editor) Edit() bool {
	section := e.ActiveSection()
	if section == nil {
		return false
	}
	e.state.EditingSlug = section.Slug
	e.state.DraftTitle = section.Title
	e.state.DraftBody = section.BodyMarkdown
	e.state.OriginalTitle = section.Title
	e.state.OriginalBody = section.BodyMarkdown
	return true
}

// Editing reports whether a draft is open.
func (e *Editor) Editing() bool {
	return e.state.EditingSlug != ""
}

// EditingSlug returns the slug of the section being edited, or "".
func (e *Editor) EditingSlug() string {
	return e.state.EditingSlug
}

// Draft returns the current draft title and body.
func (e *Editor) Draft() (title, body string) {
	return e.state.DraftTitle, e.state.DraftBody
}

// SetDraft updates the draft fields.
func (e *Editor) SetDraft(title, body string) {
	if !e.Editing() {
		return
	}
	e.state.DraftTitle = title
	e.state.DraftBody = body
}

// Dirty reports whether the draft differs from the snapshot in either field.
func (e *Editor) Dirty() bool {
	if !e.Editing() {
		return false
	}
	return e.state.DraftTitle != e.state.OriginalTitle || e.state.DraftBody != e.state.OriginalBody
}

// Save submits the draft. On success the matching section (by persistent ID)
// is replaced with the server's copy and editing ends. On failure the draft
// stays intact so nothing the author typed is lost.
func (e *Editor) Save(ctx context.Context, token string) error {
	if !e.Editing() {
		return nil
	}
	updated, err := e.service.UpdateSection(ctx, token, e.state.EditingSlug, api.SectionPayload{
		Title:        e.state.DraftTitle,
		BodyMarkdown: e.state.DraftBody,
	})
	if err != nil {
		return err
	}
	for i := range e.sections {
		if e.sections[i].ID == updated.ID {
			e.sections[i] = *updated
			break
		}
	}
	e.state.ActiveSlug = updated.Slug
	e.resetEditing()
	return nil
}

// Cancel leaves editing, asking for confirmation first when the draft is
// dirty. Returns false when the author declined and editing continues.
func (e *Editor) Cancel() bool {
	if e.Editing() && e.Dirty() {
		if !e.confirm("Discard unsaved changes?") {
			return false
		}
	}
	e.resetEditing()
	return true
}

// Create server-creates a placeholder section and immediately enters editing
// on it. A dirty draft must be confirmed away first.
func (e *Editor) Create(ctx context.Context, token, title, body string) error {
	if e.Editing() && e.Dirty() {
		if !e.confirm("You have unsaved changes. Create a new section anyway?") {
			return nil
		}
		e.resetEditing()
	}
	created, err := e.service.CreateSection(ctx, token, api.SectionPayload{
		Title:        title,
		BodyMarkdown: body,
	})
	if err != nil {
		return err
	}
	e.sections = append(e.sections, *created)
	sort.Slice(e.sections, func(i, j int) bool { return e.sections[i].ID < e.sections[j].ID })
	e.state.ActiveSlug = created.Slug
	e.state.EditingSlug = created.Slug
	e.state.DraftTitle = created.Title
	e.state.DraftBody = created.BodyMarkdown
	e.state.OriginalTitle = created.Title
	e.state.OriginalBody = created.BodyMarkdown
	return nil
}

// Delete removes a section after confirmation. If the deleted section was
// being edited, the editing state is cleared first.
func (e *Editor) Delete(ctx context.Context, token, slug string) error {
	section := e.find(slug)
	if section == nil {
		return nil
	}
	if !e.confirm("Delete \"" + section.Title + "\"? This cannot be undone.") {
		return nil
	}
	if err := e.service.DeleteSection(ctx, token, slug); err != nil {
		return err
	}
	if e.state.EditingSlug == slug {
		e.resetEditing()
	}
	kept := e.sections[:0]
	for _, s := range e.sections {
		if s.Slug != slug {
			kept = append(kept, s)
		}
	}
	e.sections = kept
	if e.state.ActiveSlug == slug {
		e.state.ActiveSlug = ""
	}
	return nil
}

func (e *Editor) resetEditing() {
	e.state.EditingSlug = ""
	e.state.DraftTitle = ""
	e.state.DraftBody = ""
	e.state.OriginalTitle = ""
	e.state.OriginalBody = ""
}

func (e *Editor) find(slug string) *model.AboutSection {
	if slug == "" {
		return nil
	}
	for i := range e.sections {
		if e.sections[i].Slug == slug {
			return &e.sections[i]
		}
	}
	return nil
}
