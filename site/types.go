// CLAUDE:SUMMARY Re-exports engine types (Page, Component, PageNode, Crumb, ...) as the site public API.

// Package site provides the page-hierarchy and content-versioning engine
// behind a single Service facade.
//
// Pages form a strict tree with URL-safe, sibling-unique slugs; each page
// carries a mutable draft and an immutable last-published component list.
// The Service wraps the in-memory arena with optional SQLite persistence,
// an audit trail, and business-event logging, and exposes MCP and HTTP
// adapters that contain no engine logic of their own.
package site

import (
	"github.com/hazyhaar/arbo/site/internal/tree"
)

// Re-export engine types for the public API.
type (
	Page         = tree.Page
	Component    = tree.Component
	PageNode     = tree.PageNode
	Crumb        = tree.Crumb
	SearchResult = tree.SearchResult
	Stats        = tree.Stats
)

// AppendPos requests insertion at the end of an ordered list.
const AppendPos = tree.AppendPos
