// CLAUDE:SUMMARY Arena export/import: flat snapshot of pages plus draft and published component rows for persistence.
package tree

import (
	"fmt"
	"sort"
)

// Snapshot is a flat, persistence-friendly view of the arena: every page
// (parents before children) and every component labelled with its state.
type Snapshot struct {
	RootID    string
	Pages     []*Page
	Draft     []*Component
	Published []*Component
}

// Export captures the whole arena. Pages come out in depth-first order so
// a loader inserting sequentially never references a missing parent.
func (t *Tree) Export() *Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()

	snap := &Snapshot{RootID: t.rootID}
	var walk func(id string)
	walk = func(id string) {
		n := t.nodes[id]
		snap.Pages = append(snap.Pages, t.snapshotPage(n.page))
		snap.Draft = append(snap.Draft, cloneComponents(n.draft)...)
		snap.Published = append(snap.Published, cloneComponents(n.published)...)
		for _, childID := range n.children {
			walk(childID)
		}
	}
	walk(t.rootID)
	return snap
}

// Restore rebuilds a tree from a snapshot, replacing the arena created by
// New. Page order does not matter: pages are inserted first and linked to
// their parents in a second pass. Components attach by page id and are
// re-sorted by position.
func Restore(snap *Snapshot, opts ...Option) (*Tree, error) {
	t := New(opts...)
	if len(snap.Pages) == 0 {
		return nil, fmt.Errorf("%w: snapshot has no pages", ErrInvalidInput)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	// Drop the freshly-minted root; the snapshot brings its own.
	delete(t.nodes, t.rootID)
	t.rootID = ""

	for _, p := range snap.Pages {
		cp := *p
		cp.Path = ""
		if cp.ParentID == "" {
			if t.rootID != "" {
				return nil, fmt.Errorf("%w: snapshot has multiple roots", ErrInvalidInput)
			}
			t.rootID = cp.ID
		}
		t.nodes[cp.ID] = &node{page: &cp}
	}
	if t.rootID == "" {
		return nil, fmt.Errorf("%w: snapshot has no root page", ErrInvalidInput)
	}
	for _, p := range snap.Pages {
		if p.ParentID == "" {
			continue
		}
		parent, ok := t.nodes[p.ParentID]
		if !ok {
			return nil, fmt.Errorf("%w: page %s references missing parent %s", ErrInvalidInput, p.ID, p.ParentID)
		}
		parent.children = append(parent.children, p.ID)
	}

	// A parent cycle among non-root pages passes the per-page checks (every
	// parent exists, none is the root) but would make path derivation loop.
	// Reject any page not reachable from the root.
	reachable := 0
	stack := []string{t.rootID}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		reachable++
		stack = append(stack, t.nodes[id].children...)
	}
	if reachable != len(t.nodes) {
		return nil, fmt.Errorf("%w: snapshot has %d pages unreachable from the root", ErrInvalidInput, len(t.nodes)-reachable)
	}

	// Children arrive in export order; restore declared sibling positions.
	for _, n := range t.nodes {
		sortChildren(t, n)
	}

	for _, c := range snap.Draft {
		n, ok := t.nodes[c.PageID]
		if !ok {
			return nil, fmt.Errorf("%w: component %s references missing page %s", ErrInvalidInput, c.ID, c.PageID)
		}
		n.draft = append(n.draft, cloneComponent(c))
	}
	for _, c := range snap.Published {
		n, ok := t.nodes[c.PageID]
		if !ok {
			return nil, fmt.Errorf("%w: component %s references missing page %s", ErrInvalidInput, c.ID, c.PageID)
		}
		n.published = append(n.published, cloneComponent(c))
	}
	for _, n := range t.nodes {
		sortComponents(n.draft)
		sortComponents(n.published)
		renumberComponents(n.draft)
		renumberComponents(n.published)
		for _, c := range n.draft {
			t.owner[c.ID] = n.page.ID
		}
	}
	return t, nil
}

func sortChildren(t *Tree, n *node) {
	sort.SliceStable(n.children, func(i, j int) bool {
		return t.nodes[n.children[i]].page.Position < t.nodes[n.children[j]].page.Position
	})
	t.renumber(n)
}

func sortComponents(list []*Component) {
	sort.SliceStable(list, func(i, j int) bool { return list[i].Position < list[j].Position })
}
