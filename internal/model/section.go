// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "time"

// AboutSection is one editable block of the about page. The slug is the
// stable identity used for routing (URL fragment) and must stay unique within
// the loaded set; the numeric ID is the server identity used for merge/sort.
type AboutSection struct {
	ID           int64      `json:"id"`
	Slug         string     `json:"slug"`
	Title        string     `json:"title"`
	BodyMarkdown string     `json:"body_markdown"`
	UpdatedAt    *time.Time `json:"updated_at,omitempty"`
}
