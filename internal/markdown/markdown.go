// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package markdown converts server-stored Markdown (with embedded raw HTML)
// into sanitized HTML. The pipeline order is mandatory: goldmark first parses
// the markdown and passes raw HTML through, and only then is the combined
// output sanitized against the allow-list; sanitizing before raw-HTML
// inclusion would let injected HTML bypass the policy entirely. A final DOM
// pass applies the figure/caption layout rules and heading anchors.
package markdown

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// Renderer is a reusable, thread-safe markdown renderer.
type Renderer struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
}

// NewRenderer builds the renderer and its sanitization policy once.
func NewRenderer() *Renderer {
	return &Renderer{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			// Raw HTML must flow through goldmark untouched so the
			// sanitizer sees it; the policy is the safety net, not the parser.
			goldmark.WithRendererOptions(html.WithUnsafe()),
		),
		policy: newPolicy(),
	}
}

// Render converts markdown to sanitized HTML safe for template embedding.
func (r *Renderer) Render(source string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(source), &buf); err != nil {
		return "", fmt.Errorf("converting markdown: %w", err)
	}

	sanitized := r.policy.SanitizeReader(&buf).String()

	out, err := transformHTML(sanitized)
	if err != nil {
		return "", fmt.Errorf("transforming rendered markdown: %w", err)
	}
	return template.HTML(out), nil
}
