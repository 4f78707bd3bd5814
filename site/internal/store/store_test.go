package store

import (
	"context"
	"testing"

	"github.com/hazyhaar/arbo/dbopen"
	"github.com/hazyhaar/arbo/site/internal/tree"

	_ "modernc.org/sqlite"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	db := dbopen.OpenMemory(t, dbopen.WithSchema(Schema))
	return &Store{DB: db}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := testStore(t)

	tr := tree.New()
	docs, err := tr.CreatePage(tr.RootID(), "Docs", "", "", "API reference", tree.AppendPos)
	if err != nil {
		t.Fatal(err)
	}
	guide, err := tr.CreatePage(docs.ID, "Guide", "", "manual", "", tree.AppendPos)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := tr.CreateComponent(guide.ID, "Intro", "# Hello", "", "markdown", tree.AppendPos); err != nil {
		t.Fatal(err)
	}
	if err := tr.Publish(guide.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := tr.CreateComponent(guide.ID, "", "pending edit", "", "", tree.AppendPos); err != nil {
		t.Fatal(err)
	}

	if err := s.Save(ctx, tr.Export()); err != nil {
		t.Fatalf("save: %v", err)
	}
	snap, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if snap == nil {
		t.Fatal("load returned nil snapshot")
	}

	restored, err := tree.Restore(snap)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	got, err := restored.GetPageByPath("/docs/guide")
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != guide.ID || got.Template != "manual" {
		t.Errorf("restored page = %+v", got)
	}
	gd, _ := restored.GetPage(docs.ID)
	if gd.Description != "API reference" {
		t.Errorf("description = %q", gd.Description)
	}

	draft, err := restored.Draft(guide.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(draft) != 2 || draft[0].Body != "# Hello" || draft[1].Body != "pending edit" {
		t.Errorf("restored draft = %v", draft)
	}
	pub, err := restored.Published(guide.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(pub) != 1 || pub[0].Body != "# Hello" || pub[0].Title != "Intro" {
		t.Errorf("restored published = %v", pub)
	}
}

func TestSave_Replaces(t *testing.T) {
	ctx := context.Background()
	s := testStore(t)

	tr := tree.New()
	p, err := tr.CreatePage(tr.RootID(), "Keep", "", "", "", tree.AppendPos)
	if err != nil {
		t.Fatal(err)
	}
	doomed, err := tr.CreatePage(tr.RootID(), "Doomed", "", "", "", tree.AppendPos)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Save(ctx, tr.Export()); err != nil {
		t.Fatal(err)
	}

	if err := tr.DeletePage(doomed.ID); err != nil {
		t.Fatal(err)
	}
	if err := s.Save(ctx, tr.Export()); err != nil {
		t.Fatal(err)
	}

	snap, err := s.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(snap.Pages) != 2 {
		t.Fatalf("pages = %d, want 2 (root + keep)", len(snap.Pages))
	}
	restored, err := tree.Restore(snap)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := restored.GetPage(p.ID); err != nil {
		t.Errorf("kept page missing: %v", err)
	}
}

func TestSaveLoad_MovedPageOrder(t *testing.T) {
	// A page created early and later moved under a younger parent must
	// still restore: load order is not topological.
	ctx := context.Background()
	s := testStore(t)

	tr := tree.New()
	older, err := tr.CreatePage(tr.RootID(), "Older", "", "", "", tree.AppendPos)
	if err != nil {
		t.Fatal(err)
	}
	younger, err := tr.CreatePage(tr.RootID(), "Younger", "", "", "", tree.AppendPos)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := tr.MovePage(older.ID, younger.ID, tree.AppendPos); err != nil {
		t.Fatal(err)
	}

	if err := s.Save(ctx, tr.Export()); err != nil {
		t.Fatal(err)
	}
	snap, err := s.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	restored, err := tree.Restore(snap)
	if err != nil {
		t.Fatalf("restore after move: %v", err)
	}
	got, err := restored.GetPageByPath("/younger/older")
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != older.ID {
		t.Errorf("resolved %s, want %s", got.ID, older.ID)
	}
}

func TestLoad_Empty(t *testing.T) {
	s := testStore(t)
	snap, err := s.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if snap != nil {
		t.Errorf("empty db: snap = %+v, want nil", snap)
	}
}
