// CLAUDE:SUMMARY Draft component CRUD/reorder plus the publish/discard versioning operations on the arena.
package tree

import (
	"fmt"
	"strings"
	"time"
)

// Component types accepted by CreateComponent/UpdateComponent. Opaque to
// the engine beyond this membership check.
var componentTypes = map[string]bool{
	"text":     true,
	"markdown": true,
	"html":     true,
	"code":     true,
}

// Component is an ordered content block in a page's draft (or a copy of
// one in the published snapshot).
type Component struct {
	ID        string    `json:"id"`
	PageID    string    `json:"page_id"`
	Position  int       `json:"position"`
	Type      string    `json:"type"`
	Title     string    `json:"title,omitempty"`
	Body      string    `json:"body"`
	Template  string    `json:"template"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateComponent appends a component to the page's draft (or inserts at
// position, clamped). Empty type defaults to "markdown", empty template to
// "default".
func (t *Tree) CreateComponent(pageID, title, body, template, ctype string, position int) (*Component, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	n, ok := t.nodes[pageID]
	if !ok {
		return nil, fmt.Errorf("%w: page %s", ErrNotFound, pageID)
	}
	if ctype == "" {
		ctype = "markdown"
	}
	if !componentTypes[ctype] {
		return nil, fmt.Errorf("%w: unknown component type %q", ErrInvalidInput, ctype)
	}
	if template == "" {
		template = "default"
	}

	now := t.now().UTC()
	c := &Component{
		ID:        t.newID(),
		PageID:    pageID,
		Type:      ctype,
		Title:     title,
		Body:      body,
		Template:  template,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if position < 0 || position > len(n.draft) {
		position = len(n.draft)
	}
	n.draft = append(n.draft, nil)
	copy(n.draft[position+1:], n.draft[position:])
	n.draft[position] = c
	renumberComponents(n.draft)
	t.owner[c.ID] = pageID
	return cloneComponent(c), nil
}

// GetComponent returns a copy of a draft component.
func (t *Tree) GetComponent(id string) (*Component, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	c, _, err := t.findComponent(id)
	if err != nil {
		return nil, err
	}
	return cloneComponent(c), nil
}

// UpdateComponent changes title, body, template, and/or type in place.
// Nil fields are left untouched.
func (t *Tree) UpdateComponent(id string, title, body, template, ctype *string) (*Component, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	c, _, err := t.findComponent(id)
	if err != nil {
		return nil, err
	}
	if ctype != nil && !componentTypes[*ctype] {
		return nil, fmt.Errorf("%w: unknown component type %q", ErrInvalidInput, *ctype)
	}
	if title != nil {
		c.Title = *title
	}
	if body != nil {
		c.Body = *body
	}
	if template != nil {
		c.Template = *template
	}
	if ctype != nil {
		c.Type = *ctype
	}
	c.UpdatedAt = t.now().UTC()
	return cloneComponent(c), nil
}

// DeleteComponent removes a component from its page's draft.
func (t *Tree) DeleteComponent(id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	c, n, err := t.findComponent(id)
	if err != nil {
		return err
	}
	for i, dc := range n.draft {
		if dc.ID == c.ID {
			n.draft = append(n.draft[:i], n.draft[i+1:]...)
			break
		}
	}
	renumberComponents(n.draft)
	delete(t.owner, id)
	return nil
}

// MoveComponent repositions a component within its page's draft. position
// is clamped to the draft bounds.
func (t *Tree) MoveComponent(id string, position int) (*Component, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	c, n, err := t.findComponent(id)
	if err != nil {
		return nil, err
	}
	for i, dc := range n.draft {
		if dc.ID == c.ID {
			n.draft = append(n.draft[:i], n.draft[i+1:]...)
			break
		}
	}
	if position < 0 {
		position = 0
	}
	if position > len(n.draft) {
		position = len(n.draft)
	}
	n.draft = append(n.draft, nil)
	copy(n.draft[position+1:], n.draft[position:])
	n.draft[position] = c
	renumberComponents(n.draft)
	c.UpdatedAt = t.now().UTC()
	return cloneComponent(c), nil
}

// ListComponents returns the page's draft components in order. Empty slice
// (not nil, not an error) when the draft is empty.
func (t *Tree) ListComponents(pageID string) ([]*Component, error) {
	return t.Draft(pageID)
}

// Draft returns a copy of the page's current draft component list.
func (t *Tree) Draft(pageID string) ([]*Component, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n, ok := t.nodes[pageID]
	if !ok {
		return nil, fmt.Errorf("%w: page %s", ErrNotFound, pageID)
	}
	return cloneComponents(n.draft), nil
}

// Published returns a copy of the page's last published snapshot. A page
// that has never been published yields an empty list, not an error.
func (t *Tree) Published(pageID string) ([]*Component, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n, ok := t.nodes[pageID]
	if !ok {
		return nil, fmt.Errorf("%w: page %s", ErrNotFound, pageID)
	}
	return cloneComponents(n.published), nil
}

// Publish deep-copies the current draft into the published snapshot,
// replacing any prior snapshot. The draft is left untouched: further edits
// continue from the same draft state.
func (t *Tree) Publish(pageID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	n, ok := t.nodes[pageID]
	if !ok {
		return fmt.Errorf("%w: page %s", ErrNotFound, pageID)
	}
	n.published = cloneComponents(n.draft)
	return nil
}

// DiscardDraft replaces the draft with a copy of the published snapshot,
// or empties it if the page was never published. Idempotent.
func (t *Tree) DiscardDraft(pageID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	n, ok := t.nodes[pageID]
	if !ok {
		return fmt.Errorf("%w: page %s", ErrNotFound, pageID)
	}
	for _, c := range n.draft {
		delete(t.owner, c.ID)
	}
	n.draft = cloneComponents(n.published)
	for _, c := range n.draft {
		t.owner[c.ID] = pageID
	}
	return nil
}

// SearchResult is a page matched by Search, with the field that matched.
type SearchResult struct {
	Page    *Page  `json:"page"`
	Matched string `json:"matched"` // "title", "draft", "published"
}

// Search finds pages whose title or component bodies contain query,
// case-insensitive. No ranking: results come back in tree order.
func (t *Tree) Search(query string, limit int) []SearchResult {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}
	if limit <= 0 {
		limit = 20
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	var results []SearchResult
	var walk func(id string)
	walk = func(id string) {
		if len(results) >= limit {
			return
		}
		n := t.nodes[id]
		if matched := t.matchPage(n, q); matched != "" {
			results = append(results, SearchResult{Page: t.snapshotPage(n.page), Matched: matched})
		}
		for _, childID := range n.children {
			walk(childID)
		}
	}
	walk(t.rootID)
	return results
}

func (t *Tree) matchPage(n *node, q string) string {
	if strings.Contains(strings.ToLower(n.page.Title), q) {
		return "title"
	}
	for _, c := range n.draft {
		if strings.Contains(strings.ToLower(c.Body), q) || strings.Contains(strings.ToLower(c.Title), q) {
			return "draft"
		}
	}
	for _, c := range n.published {
		if strings.Contains(strings.ToLower(c.Body), q) || strings.Contains(strings.ToLower(c.Title), q) {
			return "published"
		}
	}
	return ""
}

// Stats aggregates arena counters.
type Stats struct {
	Pages               int `json:"pages"`
	DraftComponents     int `json:"draft_components"`
	PublishedComponents int `json:"published_components"`
	MaxDepth            int `json:"max_depth"`
}

// CollectStats counts pages and components across the arena.
func (t *Tree) CollectStats() Stats {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var s Stats
	var walk func(id string, depth int)
	walk = func(id string, depth int) {
		n := t.nodes[id]
		s.Pages++
		s.DraftComponents += len(n.draft)
		s.PublishedComponents += len(n.published)
		if depth > s.MaxDepth {
			s.MaxDepth = depth
		}
		for _, childID := range n.children {
			walk(childID, depth+1)
		}
	}
	walk(t.rootID, 0)
	return s
}

// --- helpers (callers hold the lock) ---

func (t *Tree) findComponent(id string) (*Component, *node, error) {
	pageID, ok := t.owner[id]
	if !ok {
		return nil, nil, fmt.Errorf("%w: component %s", ErrNotFound, id)
	}
	n := t.nodes[pageID]
	for _, c := range n.draft {
		if c.ID == id {
			return c, n, nil
		}
	}
	return nil, nil, fmt.Errorf("%w: component %s", ErrNotFound, id)
}

func renumberComponents(list []*Component) {
	for i, c := range list {
		c.Position = i
	}
}

func cloneComponent(c *Component) *Component {
	out := *c
	return &out
}

func cloneComponents(list []*Component) []*Component {
	out := make([]*Component, len(list))
	for i, c := range list {
		out[i] = cloneComponent(c)
	}
	return out
}
