// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package markdown

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/mozillazg/go-unidecode"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// transformHTML walks sanitized HTML and applies the presentation rules the
// sanitizer cannot express: captioned images become figure/figcaption pairs
// with float/center layout from the align attribute, bare images get
// equivalent inline layout, iframes are wrapped for responsive embedding, and
// headings receive stable ASCII anchors.
func transformHTML(in string) (string, error) {
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(in), body)
	if err != nil {
		return "", fmt.Errorf("parsing html fragment: %w", err)
	}

	t := &transformer{anchors: make(map[string]int)}
	root := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	for _, n := range nodes {
		root.AppendChild(n)
	}
	t.walk(root)

	var sb strings.Builder
	for child := root.FirstChild; child != nil; child = child.NextSibling {
		if err := html.Render(&sb, child); err != nil {
			return "", fmt.Errorf("rendering html: %w", err)
		}
	}
	return sb.String(), nil
}

type transformer struct {
	anchors map[string]int
}

func (t *transformer) walk(n *html.Node) {
	child := n.FirstChild
	for child != nil {
		// The current child may be replaced or re-parented, so grab the
		// next sibling up front.
		next := child.NextSibling
		if child.Type == html.ElementNode {
			switch child.DataAtom {
			case atom.Img:
				t.transformImage(child)
			case atom.A:
				addClass(child, "md-link")
			case atom.Iframe:
				t.wrapIframe(child)
			case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
				t.anchorHeading(child)
			}
		}
		t.walk(child)
		child = next
	}
}

// transformImage applies the image layout rules. An image carrying a caption
// (caption, data-caption, or title attribute, in that precedence) is wrapped
// in a figure with a figcaption; otherwise the layout styles go on the image
// itself. The align attribute selects left/right float or centering, and
// width values are normalized before use.
func (t *transformer) transformImage(img *html.Node) {
	if !embeddableSrc(getAttr(img, "src")) {
		img.Parent.RemoveChild(img)
		return
	}

	align := strings.ToLower(getAttr(img, "align"))
	widthCSS := parseWidth(getAttr(img, "width"))

	caption := getAttr(img, "caption")
	if caption == "" {
		caption = getAttr(img, "data-caption")
	}
	if caption == "" {
		caption = getAttr(img, "title")
	}

	removeAttr(img, "align")
	removeAttr(img, "caption")
	removeAttr(img, "data-caption")
	addClass(img, "md-img")

	if caption == "" {
		styles := []string{"max-width:100%", "height:auto"}
		if widthCSS != "" {
			styles = append(styles, "width:"+widthCSS)
		}
		switch align {
		case "left", "right":
			styles = append(styles, "float:"+align, floatMargin(align))
		case "center":
			styles = append(styles, "display:block", "margin-left:auto", "margin-right:auto")
		default:
			styles = append(styles, "display:block")
		}
		setAttr(img, "style", strings.Join(styles, ";"))
		return
	}

	figStyles := []string{"max-width:100%", "display:table"}
	if widthCSS != "" {
		figStyles = append(figStyles, "width:"+widthCSS)
	}
	switch align {
	case "left", "right":
		figStyles = append(figStyles, "float:"+align, floatMargin(align))
		if widthCSS == "" {
			figStyles = append(figStyles, "max-width:min(50%, 22rem)")
		}
	default:
		if align == "center" || widthCSS != "" {
			figStyles = append(figStyles, "margin-left:auto", "margin-right:auto")
		}
	}

	imgStyles := []string{"display:block", "max-width:100%", "height:auto"}
	if widthCSS != "" {
		imgStyles = append(imgStyles, "width:100%")
	}
	setAttr(img, "style", strings.Join(imgStyles, ";"))

	figure := &html.Node{Type: html.ElementNode, Data: "figure", DataAtom: atom.Figure}
	setAttr(figure, "class", "md-figure")
	setAttr(figure, "style", strings.Join(figStyles, ";"))

	figcaption := &html.Node{Type: html.ElementNode, Data: "figcaption", DataAtom: atom.Figcaption}
	setAttr(figcaption, "class", "md-figcaption")
	figcaption.AppendChild(&html.Node{Type: html.TextNode, Data: caption})

	parent := img.Parent
	parent.InsertBefore(figure, img)
	parent.RemoveChild(img)
	figure.AppendChild(img)
	figure.AppendChild(figcaption)
}

// embeddableSrc reports whether a src may load as embedded content. The
// sanitizer's URL schemes cover links too; mailto/tel must not survive on
// images or iframes.
func embeddableSrc(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	return u.Scheme == "" || u.Scheme == "http" || u.Scheme == "https"
}

// floatMargin returns the margin that keeps text clear of a floated image.
func floatMargin(align string) string {
	if align == "right" {
		return "margin:0.25rem 0 0.75rem 1rem"
	}
	return "margin:0.25rem 1rem 0.75rem 0"
}

// wrapIframe puts each iframe inside a md-embed container.
func (t *transformer) wrapIframe(iframe *html.Node) {
	if !embeddableSrc(getAttr(iframe, "src")) {
		iframe.Parent.RemoveChild(iframe)
		return
	}
	if parent := iframe.Parent; parent != nil && getAttr(parent, "class") == "md-embed" {
		return
	}
	addClass(iframe, "md-iframe")

	wrapper := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	setAttr(wrapper, "class", "md-embed")

	parent := iframe.Parent
	parent.InsertBefore(wrapper, iframe)
	parent.RemoveChild(iframe)
	wrapper.AppendChild(iframe)
}

// anchorHeading assigns a stable ASCII id to a heading that has none.
// Non-latin titles are transliterated so fragment links stay portable.
func (t *transformer) anchorHeading(h *html.Node) {
	if getAttr(h, "id") != "" {
		return
	}
	slug := anchorSlug(textContent(h))
	if slug == "" {
		return
	}
	if n := t.anchors[slug]; n > 0 {
		t.anchors[slug] = n + 1
		slug = fmt.Sprintf("%s-%d", slug, n)
	} else {
		t.anchors[slug] = 1
	}
	setAttr(h, "id", slug)
}

// parseWidth normalizes a width attribute to a CSS value: percentages are
// clamped to 0-100, fractions become percentages, values up to 100 are
// treated as percentages and larger values as pixels. Anything unparseable
// yields "".
func parseWidth(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	if strings.HasSuffix(raw, "%") {
		num, err := strconv.ParseFloat(strings.TrimSuffix(raw, "%"), 64)
		if err != nil {
			return ""
		}
		return formatPercent(clamp(num, 0, 100))
	}

	num, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return ""
	}
	switch {
	case num > 0 && num <= 1:
		return formatPercent(num * 100)
	case num > 1 && num <= 100:
		return formatPercent(num)
	case num > 100:
		return strconv.FormatFloat(num, 'f', -1, 64) + "px"
	default:
		return ""
	}
}

func formatPercent(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + "%"
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func anchorSlug(text string) string {
	ascii := unidecode.Unidecode(text)
	var sb strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(ascii) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			sb.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				sb.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.Trim(sb.String(), "-")
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var visit func(*html.Node)
	visit = func(node *html.Node) {
		if node.Type == html.TextNode {
			sb.WriteString(node.Data)
		}
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			visit(child)
		}
	}
	visit(n)
	return sb.String()
}

func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

func setAttr(n *html.Node, key, val string) {
	for i := range n.Attr {
		if n.Attr[i].Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func removeAttr(n *html.Node, key string) {
	kept := n.Attr[:0]
	for _, attr := range n.Attr {
		if attr.Key != key {
			kept = append(kept, attr)
		}
	}
	n.Attr = kept
}

func addClass(n *html.Node, class string) {
	existing := getAttr(n, "class")
	if existing == "" {
		setAttr(n, "class", class)
		return
	}
	for _, c := range strings.Fields(existing) {
		if c == class {
			return
		}
	}
	setAttr(n, "class", existing+" "+class)
}
