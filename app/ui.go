package app

import (
	"html"
	"strings"
)

// UI layout helpers for consistent rendering.
// Use these wrappers + peaks.css classes.

// Grid wraps content in a card-grid container
func Grid(content string) string {
	return `<div class="card-grid">` + content + `</div>`
}

// Empty renders an empty state message
func Empty(message string) string {
	return `<p class="empty">` + html.EscapeString(message) + `</p>`
}

// CardDiv wraps content in a card container
func CardDiv(content string) string {
	return `<div class="card">` + content + `</div>`
}

// Title renders a card title with optional link
func Title(text, href string) string {
	if href != "" {
		return `<a href="` + html.EscapeString(href) + `" class="card-title">` + html.EscapeString(text) + `</a>`
	}
	return `<span class="card-title">` + html.EscapeString(text) + `</span>`
}

// Meta renders metadata html
func Meta(content string) string {
	return `<div class="card-meta">` + content + `</div>`
}

// Desc renders description text
func Desc(text string) string {
	return `<p class="card-desc">` + html.EscapeString(text) + `</p>`
}

// PostButton renders a single-button form. Hidden fields are written in order.
func PostButton(action, label, class string, fields ...string) string {
	var b strings.Builder
	b.WriteString(`<form method="POST" action="`)
	b.WriteString(html.EscapeString(action))
	b.WriteString(`">`)
	for i := 0; i+1 < len(fields); i += 2 {
		b.WriteString(`<input type="hidden" name="`)
		b.WriteString(html.EscapeString(fields[i]))
		b.WriteString(`" value="`)
		b.WriteString(html.EscapeString(fields[i+1]))
		b.WriteString(`">`)
	}
	b.WriteString(`<button type="submit"`)
	if class != "" {
		b.WriteString(` class="`)
		b.WriteString(class)
		b.WriteString(`"`)
	}
	b.WriteString(`>`)
	b.WriteString(html.EscapeString(label))
	b.WriteString(`</button></form>`)
	return b.String()
}

// PageOpts defines the standard page layout options
type PageOpts struct {
	Action  string // Primary action URL (shows button if set)
	Label   string // Action button label (default: "+ New")
	Content string // Main content (grid, list, cards)
	Empty   string // Empty state message (shown if Content is empty)
}

// Page renders a standard page layout
func Page(opts PageOpts) string {
	var b strings.Builder

	if opts.Action != "" {
		label := opts.Label
		if label == "" {
			label = "+ New"
		}
		b.WriteString(`<div class="page-action"><a href="` + html.EscapeString(opts.Action) + `" class="btn">` + html.EscapeString(label) + `</a></div>`)
	}

	if opts.Content != "" {
		b.WriteString(opts.Content)
	} else if opts.Empty != "" {
		b.WriteString(Empty(opts.Empty))
	}

	return b.String()
}
