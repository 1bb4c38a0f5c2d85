// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"context"
	"net/http"

	"github.com/ituhouse/ituhouse-web/internal/model"
)

// SectionPayload is the body for section create/update calls.
type SectionPayload struct {
	Title        string `json:"title"`
	BodyMarkdown string `json:"body_markdown"`
}

// ListSections fetches all about sections in server order (ascending ID).
func (c *Client) ListSections(ctx context.Context) ([]model.AboutSection, error) {
	var sections []model.AboutSection
	if err := c.request(ctx, http.MethodGet, "/about/sections", nil, nil, "", &sections); err != nil {
		return nil, err
	}
	return sections, nil
}

// UpdateSection replaces a section's title and body. Backend-enforced admin only.
func (c *Client) UpdateSection(ctx context.Context, token, slug string, payload SectionPayload) (*model.AboutSection, error) {
	var section model.AboutSection
	if err := c.request(ctx, http.MethodPut, "/about/sections/"+slug, nil, payload, token, &section); err != nil {
		return nil, err
	}
	return &section, nil
}

// CreateSection adds a new section. Backend-enforced super_admin only.
func (c *Client) CreateSection(ctx context.Context, token string, payload SectionPayload) (*model.AboutSection, error) {
	var section model.AboutSection
	if err := c.request(ctx, http.MethodPost, "/about/sections", nil, payload, token, &section); err != nil {
		return nil, err
	}
	return &section, nil
}

// DeleteSection removes a section by slug. Backend-enforced super_admin only.
func (c *Client) DeleteSection(ctx context.Context, token, slug string) error {
	return c.request(ctx, http.MethodDelete, "/about/sections/"+slug, nil, nil, token, nil)
}
