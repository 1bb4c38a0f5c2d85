// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package editor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ituhouse/ituhouse-web/internal/api"
	"github.com/ituhouse/ituhouse-web/internal/model"
)

type fakeSectionService struct {
	updateResult *model.AboutSection
	updateErr    error
	createResult *model.AboutSection
	createErr    error
	deleteErr    error

	updateCalls int
	deleteCalls int
	lastPayload api.SectionPayload
}

func (f *fakeSectionService) UpdateSection(_ context.Context, _, _ string, payload api.SectionPayload) (*model.AboutSection, error) {
	f.updateCalls++
	f.lastPayload = payload
	return f.updateResult, f.updateErr
}

func (f *fakeSectionService) CreateSection(_ context.Context, _ string, payload api.SectionPayload) (*model.AboutSection, error) {
	f.lastPayload = payload
	return f.createResult, f.createErr
}

func (f *fakeSectionService) DeleteSection(context.Context, string, string) error {
	f.deleteCalls++
	return f.deleteErr
}

func accept(string) bool  { return true }
func decline(string) bool { return false }

func twoSections() []model.AboutSection {
	return []model.AboutSection{
		{ID: 2, Slug: "care", Title: "Care", BodyMarkdown: "care body"},
		{ID: 1, Slug: "intro", Title: "Intro", BodyMarkdown: "intro body"},
	}
}

func TestLoad_SortsByIDAndDefaultsActive(t *testing.T) {
	e := New(&fakeSectionService{}, accept)
	e.Load(twoSections())

	sections := e.Sections()
	require.Len(t, sections, 2)
	assert.Equal(t, "intro", sections[0].Slug)
	assert.Equal(t, "care", sections[1].Slug)

	active := e.ActiveSection()
	require.NotNil(t, active)
	assert.Equal(t, "intro", active.Slug, "first section by ID is the default")
}

func TestSelect_UnknownSlugIgnored(t *testing.T) {
	e := New(&fakeSectionService{}, accept)
	e.Load(twoSections())

	assert.False(t, e.Select("nope"))
	assert.Equal(t, "intro", e.ActiveSection().Slug)

	assert.True(t, e.Select("care"))
	assert.Equal(t, "care", e.ActiveSection().Slug)
}

func TestDirty_TracksDraftChanges(t *testing.T) {
	e := New(&fakeSectionService{}, accept)
	e.Load(twoSections())

	require.True(t, e.Edit())
	assert.False(t, e.Dirty(), "fresh draft equals the snapshot")

	e.SetDraft("Intro", "changed")
	assert.True(t, e.Dirty())

	e.SetDraft("Intro", "intro body")
	assert.False(t, e.Dirty(), "reverting the draft clears dirty")
}

func TestSelect_DirtyDeclinePreservesDraft(t *testing.T) {
	e := New(&fakeSectionService{}, decline)
	e.Load(twoSections())

	require.True(t, e.Edit())
	e.SetDraft("Intro", "changed")

	assert.False(t, e.Select("care"), "declined confirmation aborts navigation")
	assert.Equal(t, "intro", e.ActiveSection().Slug)
	assert.True(t, e.Editing())
	_, body := e.Draft()
	assert.Equal(t, "changed", body)
}

func TestSelect_DirtyAcceptDiscardsDraft(t *testing.T) {
	e := New(&fakeSectionService{}, accept)
	e.Load(twoSections())

	require.True(t, e.Edit())
	e.SetDraft("Intro", "changed")

	assert.True(t, e.Select("care"))
	assert.Equal(t, "care", e.ActiveSection().Slug)
	assert.False(t, e.Editing())
}

func TestSave_ReplacesSectionByID(t *testing.T) {
	svc := &fakeSectionService{
		updateResult: &model.AboutSection{ID: 1, Slug: "intro-v2", Title: "New Intro", BodyMarkdown: "new body"},
	}
	e := New(svc, accept)
	e.Load(twoSections())

	require.True(t, e.Edit())
	e.SetDraft("New Intro", "new body")
	require.NoError(t, e.Save(context.Background(), "tok"))

	assert.Equal(t, api.SectionPayload{Title: "New Intro", BodyMarkdown: "new body"}, svc.lastPayload)
	assert.False(t, e.Editing())

	sections := e.Sections()
	require.Len(t, sections, 2)
	assert.Equal(t, "intro-v2", sections[0].Slug, "server copy replaces the section with matching ID")
	assert.Equal(t, "intro-v2", e.ActiveSection().Slug, "active follows the saved section's new slug")
}

func TestSave_FailureKeepsDraft(t *testing.T) {
	svc := &fakeSectionService{updateErr: errors.New("backend down")}
	e := New(svc, accept)
	e.Load(twoSections())

	require.True(t, e.Edit())
	e.SetDraft("New Intro", "new body")
	require.Error(t, e.Save(context.Background(), "tok"))

	assert.True(t, e.Editing(), "failed save must not drop the draft")
	title, body := e.Draft()
	assert.Equal(t, "New Intro", title)
	assert.Equal(t, "new body", body)
}

func TestSave_NoOpWhenNotEditing(t *testing.T) {
	svc := &fakeSectionService{}
	e := New(svc, accept)
	e.Load(twoSections())

	require.NoError(t, e.Save(context.Background(), "tok"))
	assert.Zero(t, svc.updateCalls)
}

func TestCancel_DirtyDecline(t *testing.T) {
	e := New(&fakeSectionService{}, decline)
	e.Load(twoSections())

	require.True(t, e.Edit())
	e.SetDraft("x", "y")

	assert.False(t, e.Cancel())
	assert.True(t, e.Editing())
}

func TestCancel_CleanNeedsNoConfirm(t *testing.T) {
	e := New(&fakeSectionService{}, decline)
	e.Load(twoSections())

	require.True(t, e.Edit())
	assert.True(t, e.Cancel(), "clean draft cancels without asking")
	assert.False(t, e.Editing())
}

func TestCreate_EntersEditingOnNewSection(t *testing.T) {
	svc := &fakeSectionService{
		createResult: &model.AboutSection{ID: 3, Slug: "new-section", Title: "New section", BodyMarkdown: ""},
	}
	e := New(svc, accept)
	e.Load(twoSections())

	require.NoError(t, e.Create(context.Background(), "tok", "New section", ""))

	assert.Len(t, e.Sections(), 3)
	assert.True(t, e.Editing())
	assert.Equal(t, "new-section", e.EditingSlug())
	assert.Equal(t, "new-section", e.ActiveSection().Slug)
}

func TestDelete_DeclineLeavesSection(t *testing.T) {
	svc := &fakeSectionService{}
	e := New(svc, decline)
	e.Load(twoSections())

	require.NoError(t, e.Delete(context.Background(), "tok", "intro"))
	assert.Zero(t, svc.deleteCalls, "declined confirmation must not reach the backend")
	assert.Len(t, e.Sections(), 2)
}

func TestDelete_RemovesSectionAndClearsEditing(t *testing.T) {
	svc := &fakeSectionService{}
	e := New(svc, accept)
	e.Load(twoSections())

	require.True(t, e.Edit())
	require.NoError(t, e.Delete(context.Background(), "tok", "intro"))

	assert.Equal(t, 1, svc.deleteCalls)
	assert.False(t, e.Editing())
	require.Len(t, e.Sections(), 1)
	assert.Equal(t, "care", e.Sections()[0].Slug)
	assert.Equal(t, "care", e.ActiveSection().Slug, "active falls back to the remaining section")
}

func TestRestore_DropsStaleSlugs(t *testing.T) {
	e := New(&fakeSectionService{}, accept)
	e.Load(twoSections())

	e.Restore(State{ActiveSlug: "gone", EditingSlug: "also-gone", DraftTitle: "t", DraftBody: "b"})

	assert.False(t, e.Editing(), "editing slug for a deleted section is dropped")
	assert.Equal(t, "intro", e.ActiveSection().Slug)
}

func TestRestore_KeepsValidState(t *testing.T) {
	e := New(&fakeSectionService{}, accept)
	e.Load(twoSections())

	e.Restore(State{
		ActiveSlug:    "care",
		EditingSlug:   "care",
		DraftTitle:    "Care v2",
		DraftBody:     "draft",
		OriginalTitle: "Care",
		OriginalBody:  "care body",
	})

	assert.True(t, e.Editing())
	assert.True(t, e.Dirty())
	assert.Equal(t, "care", e.ActiveSection().Slug)
}
