// CLAUDE:SUMMARY HTML import pipeline: sanitize, split at headings, convert each section to markdown parts.

// Package docpipe converts raw HTML documents into ordered markdown parts
// suitable for attaching to a page draft as components.
//
// The pipeline sectionizes the raw document at heading boundaries (DOM
// walk that also drops scripts, chrome elements, and style-hidden nodes),
// sanitizes each section with bluemonday, then converts each section to
// markdown independently, so one malformed block cannot take down the
// whole import.
package docpipe

import (
	"errors"
	"fmt"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/microcosm-cc/bluemonday"
)

// ErrEmptyDocument is returned when nothing convertible remains after
// sanitization.
var ErrEmptyDocument = errors.New("docpipe: document has no convertible content")

// Part is one ordered unit of a converted document.
type Part struct {
	Title string `json:"title,omitempty"` // heading text, empty for leading content
	Body  string `json:"body"`            // markdown
}

// Document is the result of converting an HTML document.
type Document struct {
	Title string `json:"title"` // <title> text, or first heading
	Parts []Part `json:"parts"`
}

// Convert sanitizes raw HTML and converts it into markdown parts, one per
// heading-delimited section. Documents without headings yield a single
// part.
func Convert(raw string, cfg Config) (*Document, error) {
	cfg.defaults()
	if int64(len(raw)) > cfg.MaxBytes {
		return nil, fmt.Errorf("docpipe: document exceeds %d bytes", cfg.MaxBytes)
	}

	title := findTitle(raw)

	sections, err := sectionize(raw)
	if err != nil {
		return nil, fmt.Errorf("docpipe: parse: %w", err)
	}

	// Sanitize per section, after hidden-element detection: bluemonday
	// strips style attributes, which would blind the hidden-node check.
	policy := bluemonday.UGCPolicy()

	doc := &Document{Title: title}
	for _, sec := range sections {
		if len(doc.Parts) >= cfg.MaxParts {
			cfg.Logger.Warn("docpipe: part limit reached, truncating import",
				"max_parts", cfg.MaxParts)
			break
		}
		md, err := htmltomarkdown.ConvertString(policy.Sanitize(sec.html))
		if err != nil {
			cfg.Logger.Warn("docpipe: section conversion failed, skipping",
				"section", sec.title, "error", err)
			continue
		}
		md = strings.TrimSpace(md)
		if md == "" && sec.title == "" {
			continue
		}
		doc.Parts = append(doc.Parts, Part{Title: sec.title, Body: md})
	}

	if doc.Title == "" && len(doc.Parts) > 0 {
		doc.Title = doc.Parts[0].Title
	}
	if len(doc.Parts) == 0 {
		return nil, ErrEmptyDocument
	}
	return doc, nil
}
