// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package markdown

import "github.com/microcosm-cc/bluemonday"

// PolicyVersion identifies the sanitization schema. Bump it whenever the
// allow-list below changes so cached rendered HTML can be invalidated.
const PolicyVersion = 1

// newPolicy builds the sanitization allow-list applied to rendered markdown.
// It extends bluemonday's user-generated-content baseline with captioned
// figures and embeds, and pins URL protocols so script-bearing schemes like
// javascript: never survive. Built once at startup, never per render.
func newPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()

	// Captioned images and embeds
	p.AllowElements("figure", "figcaption")
	p.AllowAttrs("class").OnElements("figure", "figcaption")
	p.AllowAttrs(
		"class", "src", "title", "width", "height",
		"allow", "allowfullscreen", "referrerpolicy", "loading",
	).OnElements("iframe")

	// Image sizing/caption attributes consumed by the layout transform
	p.AllowAttrs(
		"class", "width", "height", "align",
		"caption", "data-caption", "loading", "decoding",
	).OnElements("img")

	// Styling hooks on common flow elements
	p.AllowAttrs("class").OnElements("div", "span", "p")
	p.AllowAttrs("class").OnElements("a")

	// Heading anchors written by the transform pass
	p.AllowAttrs("id").OnElements("h1", "h2", "h3", "h4", "h5", "h6")

	// http/https only for embedded content; mailto/tel additionally for links.
	// Anything else (javascript:, data:, vbscript:) is dropped.
	p.AllowURLSchemes("http", "https", "mailto", "tel")
	p.RequireParseableURLs(true)

	// External links open in a new browsing context that cannot reach back
	// to the opener.
	p.AllowAttrs("target", "rel").OnElements("a")
	p.AddTargetBlankToFullyQualifiedLinks(true)
	p.RequireNoReferrerOnFullyQualifiedLinks(true)

	return p
}
