// CLAUDE:SUMMARY In-memory page arena: tree structure, slug assignment, move/delete with cycle and root protection.

// Package tree implements the page-hierarchy and content-versioning engine.
//
// Pages live in an arena indexed by id, each node carrying an explicit
// parent id and an ordered slice of child ids — no object cycles, and an
// ancestry check is a plain index walk. Every page owns two parallel
// ordered component lists: the mutable draft and the last published
// snapshot. A single RWMutex serializes mutations; tree operations are
// not hot-path, so the global lock is deliberate.
package tree

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/hazyhaar/arbo/idgen"
	"github.com/hazyhaar/arbo/slug"
)

// Sentinel errors. The site package re-exports these as its public error
// surface, hence the "site:" prefix.
var (
	ErrNotFound         = errors.New("site: not found")
	ErrInvalidOperation = errors.New("site: operation not allowed")
	ErrCycle            = errors.New("site: move would create a cycle")
	ErrSlugConflict     = errors.New("site: slug already taken among siblings")
	ErrInvalidInput     = errors.New("site: invalid input")
)

// AppendPos means "insert at the end of the sibling list". Any negative
// position is treated the same; non-negative positions are clamped to the
// list bounds.
const AppendPos = -1

// Page is a node of the site tree. ParentID is empty only for the root.
// Path is derived from ancestor slugs on every read and never stored.
type Page struct {
	ID          string    `json:"id"`
	ParentID    string    `json:"parent_id,omitempty"`
	Slug        string    `json:"slug"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Template    string    `json:"template"`
	Position    int       `json:"position"`
	Path        string    `json:"path"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// node is the arena entry for a page: the page itself, its ordered
// children, and its two component lists.
type node struct {
	page      *Page
	children  []string
	draft     []*Component
	published []*Component
}

// Tree is the arena of pages. Safe for concurrent use.
type Tree struct {
	mu     sync.RWMutex
	nodes  map[string]*node
	owner  map[string]string // draft component id -> page id
	rootID string
	newID  idgen.Generator
	now    func() time.Time
}

// Option configures a Tree at construction.
type Option func(*Tree)

// WithIDGenerator overrides the id generator (default: idgen.Default).
func WithIDGenerator(gen idgen.Generator) Option {
	return func(t *Tree) { t.newID = gen }
}

// WithClock overrides the time source. Use in tests for stable timestamps.
func WithClock(now func() time.Time) Option {
	return func(t *Tree) { t.now = now }
}

// New creates an empty tree holding only the root page. The root has an
// empty slug (excluded from descendant paths), title "Home", and path "/".
func New(opts ...Option) *Tree {
	t := &Tree{
		nodes: make(map[string]*node),
		owner: make(map[string]string),
		newID: idgen.Default,
		now:   time.Now,
	}
	for _, o := range opts {
		o(t)
	}
	now := t.now().UTC()
	root := &Page{
		ID:        t.newID(),
		Slug:      "",
		Title:     "Home",
		Template:  "default",
		CreatedAt: now,
		UpdatedAt: now,
	}
	t.rootID = root.ID
	t.nodes[root.ID] = &node{page: root}
	return t
}

// RootID returns the id of the root page.
func (t *Tree) RootID() string {
	return t.rootID
}

// CreatePage inserts a page under parentID. If explicitSlug is empty the
// slug is derived from the title; either way the slug is made unique among
// the parent's current children. position is clamped to [0, n]; AppendPos
// appends.
func (t *Tree) CreatePage(parentID, title, explicitSlug, template, description string, position int) (*Page, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	parent, ok := t.nodes[parentID]
	if !ok {
		return nil, fmt.Errorf("%w: page %s", ErrNotFound, parentID)
	}

	base := slug.Make(title)
	if explicitSlug != "" {
		base = slug.Make(explicitSlug)
	}
	s := slug.Unique(base, func(candidate string) bool {
		return t.siblingHasSlug(parent, candidate, "")
	})

	if template == "" {
		template = "default"
	}
	now := t.now().UTC()
	p := &Page{
		ID:          t.newID(),
		ParentID:    parentID,
		Slug:        s,
		Title:       title,
		Description: description,
		Template:    template,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	t.nodes[p.ID] = &node{page: p}
	t.insertChild(parent, p.ID, position)
	return t.snapshotPage(p), nil
}

// GetPage returns a copy of the page with its current path.
func (t *Tree) GetPage(id string) (*Page, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n, ok := t.nodes[id]
	if !ok {
		return nil, fmt.Errorf("%w: page %s", ErrNotFound, id)
	}
	return t.snapshotPage(n.page), nil
}

// GetPageByPath resolves a root-relative path ("/", "/about/team") by
// walking slugs from the root. Paths must start with "/"; empty interior
// segments are rejected.
func (t *Tree) GetPageByPath(path string) (*Page, error) {
	segments, err := splitPath(path)
	if err != nil {
		return nil, err
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	n := t.nodes[t.rootID]
	for _, seg := range segments {
		next := ""
		for _, childID := range n.children {
			if t.nodes[childID].page.Slug == seg {
				next = childID
				break
			}
		}
		if next == "" {
			return nil, fmt.Errorf("%w: path %s", ErrNotFound, path)
		}
		n = t.nodes[next]
	}
	return t.snapshotPage(n.page), nil
}

// UpdatePage changes title, template, and/or description. Nil fields are
// left untouched. A title change never regenerates the slug.
func (t *Tree) UpdatePage(id string, title, template, description *string) (*Page, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	n, ok := t.nodes[id]
	if !ok {
		return nil, fmt.Errorf("%w: page %s", ErrNotFound, id)
	}
	if title != nil {
		n.page.Title = *title
	}
	if template != nil {
		n.page.Template = *template
	}
	if description != nil {
		n.page.Description = *description
	}
	n.page.UpdatedAt = t.now().UTC()
	return t.snapshotPage(n.page), nil
}

// MovePage re-parents a page, keeping its slug. Fails for the root, for a
// destination inside the page's own subtree, and when the destination
// already has a child with the same slug. position is clamped to [0, n].
func (t *Tree) MovePage(id, newParentID string, position int) (*Page, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	n, ok := t.nodes[id]
	if !ok {
		return nil, fmt.Errorf("%w: page %s", ErrNotFound, id)
	}
	if id == t.rootID {
		return nil, fmt.Errorf("%w: cannot move the root page", ErrInvalidOperation)
	}
	dest, ok := t.nodes[newParentID]
	if !ok {
		return nil, fmt.Errorf("%w: page %s", ErrNotFound, newParentID)
	}

	// Walk from the destination up to the root; hitting the page means the
	// destination is the page itself or one of its descendants.
	for cur := newParentID; cur != ""; cur = t.nodes[cur].page.ParentID {
		if cur == id {
			return nil, fmt.Errorf("%w: %s is inside the subtree of %s", ErrCycle, newParentID, id)
		}
	}

	sameParent := n.page.ParentID == newParentID
	if !sameParent && t.siblingHasSlug(dest, n.page.Slug, id) {
		return nil, fmt.Errorf("%w: %q under destination page", ErrSlugConflict, n.page.Slug)
	}

	old := t.nodes[n.page.ParentID]
	t.removeChild(old, id)
	n.page.ParentID = newParentID
	t.insertChild(dest, id, position)
	n.page.UpdatedAt = t.now().UTC()
	return t.snapshotPage(n.page), nil
}

// DeletePage removes a page, its entire subtree, and every component
// (draft and published) owned by the deleted pages. The root cannot be
// deleted. All-or-nothing: validation happens before any mutation.
func (t *Tree) DeletePage(id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	n, ok := t.nodes[id]
	if !ok {
		return fmt.Errorf("%w: page %s", ErrNotFound, id)
	}
	if id == t.rootID {
		return fmt.Errorf("%w: cannot delete the root page", ErrInvalidOperation)
	}

	t.removeChild(t.nodes[n.page.ParentID], id)

	stack := []string{id}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		cn := t.nodes[cur]
		stack = append(stack, cn.children...)
		for _, c := range cn.draft {
			delete(t.owner, c.ID)
		}
		delete(t.nodes, cur)
	}
	return nil
}

// PageNode is one entry of the nested tree listing.
type PageNode struct {
	Page     *Page       `json:"page"`
	Children []*PageNode `json:"children"`
}

// ListTree returns the full tree from the root, children in sibling order.
func (t *Tree) ListTree() *PageNode {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.buildNode(t.rootID)
}

func (t *Tree) buildNode(id string) *PageNode {
	n := t.nodes[id]
	out := &PageNode{Page: t.snapshotPage(n.page), Children: make([]*PageNode, 0, len(n.children))}
	for _, childID := range n.children {
		out.Children = append(out.Children, t.buildNode(childID))
	}
	return out
}

// Crumb is one step of a breadcrumb trail.
type Crumb struct {
	PageID string `json:"page_id"`
	Title  string `json:"title"`
	Slug   string `json:"slug"`
	Path   string `json:"path"`
}

// Breadcrumbs returns the root-to-page trail, root first.
func (t *Tree) Breadcrumbs(id string) ([]Crumb, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n, ok := t.nodes[id]
	if !ok {
		return nil, fmt.Errorf("%w: page %s", ErrNotFound, id)
	}

	var trail []Crumb
	for cur := n; ; cur = t.nodes[cur.page.ParentID] {
		trail = append(trail, Crumb{
			PageID: cur.page.ID,
			Title:  cur.page.Title,
			Slug:   cur.page.Slug,
			Path:   t.pathOf(cur.page),
		})
		if cur.page.ParentID == "" {
			break
		}
	}
	// Reverse: collected leaf-to-root.
	for i, j := 0, len(trail)-1; i < j; i, j = i+1, j-1 {
		trail[i], trail[j] = trail[j], trail[i]
	}
	return trail, nil
}

// --- internal helpers (callers hold the lock) ---

func (t *Tree) siblingHasSlug(parent *node, s, exceptID string) bool {
	for _, childID := range parent.children {
		if childID == exceptID {
			continue
		}
		if t.nodes[childID].page.Slug == s {
			return true
		}
	}
	return false
}

// insertChild places id at position (clamped) in parent's child list and
// renumbers sibling positions densely from 0.
func (t *Tree) insertChild(parent *node, id string, position int) {
	if position < 0 || position > len(parent.children) {
		position = len(parent.children)
	}
	parent.children = append(parent.children, "")
	copy(parent.children[position+1:], parent.children[position:])
	parent.children[position] = id
	t.renumber(parent)
}

func (t *Tree) removeChild(parent *node, id string) {
	for i, childID := range parent.children {
		if childID == id {
			parent.children = append(parent.children[:i], parent.children[i+1:]...)
			break
		}
	}
	t.renumber(parent)
}

func (t *Tree) renumber(parent *node) {
	for i, childID := range parent.children {
		t.nodes[childID].page.Position = i
	}
}

// pathOf derives the materialized path: ancestor slugs joined by "/". The
// root's own slug is empty and excluded; the root path is "/".
func (t *Tree) pathOf(p *Page) string {
	if p.ParentID == "" {
		return "/"
	}
	var segs []string
	for cur := p; cur.ParentID != ""; cur = t.nodes[cur.ParentID].page {
		segs = append(segs, cur.Slug)
	}
	for i, j := 0, len(segs)-1; i < j; i, j = i+1, j-1 {
		segs[i], segs[j] = segs[j], segs[i]
	}
	return "/" + strings.Join(segs, "/")
}

// snapshotPage copies a page with its derived path filled in.
func (t *Tree) snapshotPage(p *Page) *Page {
	out := *p
	out.Path = t.pathOf(p)
	return &out
}

// splitPath validates and splits a root-relative path. "/" yields nil.
func splitPath(path string) ([]string, error) {
	if path == "" || path[0] != '/' {
		return nil, fmt.Errorf("%w: path must start with /", ErrInvalidInput)
	}
	if path == "/" {
		return nil, nil
	}
	trimmed := strings.TrimSuffix(path[1:], "/")
	segments := strings.Split(trimmed, "/")
	for _, seg := range segments {
		if seg == "" {
			return nil, fmt.Errorf("%w: empty path segment in %q", ErrInvalidInput, path)
		}
	}
	return segments, nil
}
