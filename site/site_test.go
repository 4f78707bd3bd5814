package site

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/hazyhaar/arbo/dbopen"
	"github.com/hazyhaar/arbo/observability"

	_ "modernc.org/sqlite"
)

func memService(t *testing.T, opts ...ServiceOption) *Service {
	t.Helper()
	svc, err := New(context.Background(), &Config{}, slog.Default(), opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { svc.Close() })
	return svc
}

func TestService_CreateAndGet(t *testing.T) {
	svc := memService(t)
	ctx := context.Background()

	p, err := svc.CreatePage(ctx, svc.RootID(), "About Us", "", "", "", AppendPos)
	if err != nil {
		t.Fatalf("CreatePage: %v", err)
	}
	if p.Slug != "about-us" {
		t.Fatalf("Slug = %q, want about-us", p.Slug)
	}
	if p.Path != "/about-us" {
		t.Fatalf("Path = %q, want /about-us", p.Path)
	}
	if p.Template != "default" {
		t.Fatalf("Template = %q, want default", p.Template)
	}

	got, err := svc.GetPage(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetPage: %v", err)
	}
	if got.Title != "About Us" {
		t.Fatalf("Title = %q, want About Us", got.Title)
	}

	byPath, err := svc.GetPageByPath(ctx, "/about-us")
	if err != nil {
		t.Fatalf("GetPageByPath: %v", err)
	}
	if byPath.ID != p.ID {
		t.Fatalf("byPath.ID = %q, want %q", byPath.ID, p.ID)
	}
}

func TestService_RootTitle(t *testing.T) {
	svc, err := New(context.Background(), &Config{RootTitle: "Accueil"}, slog.Default())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer svc.Close()

	root, err := svc.GetPage(context.Background(), svc.RootID())
	if err != nil {
		t.Fatal(err)
	}
	if root.Title != "Accueil" {
		t.Fatalf("root title = %q, want Accueil", root.Title)
	}
	if root.Path != "/" {
		t.Fatalf("root path = %q, want /", root.Path)
	}
}

func TestService_SearchDefaultLimit(t *testing.T) {
	svc, err := New(context.Background(), &Config{SearchLimit: 2}, slog.Default())
	if err != nil {
		t.Fatal(err)
	}
	defer svc.Close()
	ctx := context.Background()

	for _, title := range []string{"Widget One", "Widget Two", "Widget Three"} {
		if _, err := svc.CreatePage(ctx, svc.RootID(), title, "", "", "", AppendPos); err != nil {
			t.Fatal(err)
		}
	}

	results := svc.SearchPages(ctx, "widget", 0)
	if len(results) != 2 {
		t.Fatalf("len(results) = %d, want 2 (config default)", len(results))
	}

	results = svc.SearchPages(ctx, "widget", 10)
	if len(results) != 3 {
		t.Fatalf("len(results) = %d, want 3 (explicit limit)", len(results))
	}
}

func TestService_PersistenceRoundTrip(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "site.db")
	ctx := context.Background()
	cfg := &Config{DBPath: dbPath}

	svc, err := New(ctx, cfg, slog.Default())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	about, err := svc.CreatePage(ctx, svc.RootID(), "About", "", "", "", AppendPos)
	if err != nil {
		t.Fatal(err)
	}
	team, err := svc.CreatePage(ctx, about.ID, "Team", "", "custom", "who we are", AppendPos)
	if err != nil {
		t.Fatal(err)
	}
	c, err := svc.CreateComponent(ctx, team.ID, "Intro", "hello world", "", "text", AppendPos)
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.PublishDraft(ctx, team.ID); err != nil {
		t.Fatal(err)
	}
	newBody := "edited after publish"
	if _, err := svc.UpdateComponent(ctx, c.ID, nil, &newBody, nil, nil); err != nil {
		t.Fatal(err)
	}
	if err := svc.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// reopen from the snapshot
	svc2, err := New(ctx, &Config{DBPath: dbPath}, slog.Default())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer svc2.Close()

	got, err := svc2.GetPageByPath(ctx, "/about/team")
	if err != nil {
		t.Fatalf("GetPageByPath after reload: %v", err)
	}
	if got.ID != team.ID {
		t.Fatalf("reloaded page ID = %q, want %q", got.ID, team.ID)
	}
	if got.Template != "custom" || got.Description != "who we are" {
		t.Fatalf("reloaded page = %+v, metadata lost", got)
	}

	draft, err := svc2.GetDraftContent(ctx, team.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(draft) != 1 || draft[0].Body != "edited after publish" {
		t.Fatalf("reloaded draft = %+v, want edited body", draft)
	}

	published, err := svc2.GetPublishedContent(ctx, team.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(published) != 1 || published[0].Body != "hello world" {
		t.Fatalf("reloaded published = %+v, want original body", published)
	}
}

func TestService_SaveIsIdempotentWithoutStore(t *testing.T) {
	svc := memService(t)
	if err := svc.Save(context.Background()); err != nil {
		t.Fatalf("Save without store: %v", err)
	}
}

func TestService_AuditTrail(t *testing.T) {
	obsDB := dbopen.OpenMemory(t)
	if err := observability.Init(obsDB); err != nil {
		t.Fatalf("observability.Init: %v", err)
	}
	audit := observability.NewAuditLogger(obsDB, 100)

	svc := memService(t, WithAudit(audit))
	ctx := context.Background()

	p, err := svc.CreatePage(ctx, svc.RootID(), "Tracked", "", "", "", AppendPos)
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.DeletePage(ctx, p.ID); err != nil {
		t.Fatal(err)
	}

	// Close drains the async buffer.
	if err := audit.Close(); err != nil {
		t.Fatalf("audit.Close: %v", err)
	}

	entries, err := audit.Query(ctx, &observability.AuditFilter{})
	if err != nil {
		t.Fatalf("audit.Query: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2", len(entries))
	}
	ops := map[string]bool{}
	for _, e := range entries {
		ops[e.OperationType] = true
		if e.ComponentName != "arbo" {
			t.Fatalf("ComponentName = %q, want arbo", e.ComponentName)
		}
	}
	if !ops["create_page"] || !ops["delete_page"] {
		t.Fatalf("operations = %v, want create_page and delete_page", ops)
	}
}

func TestService_BusinessEvents(t *testing.T) {
	obsDB := dbopen.OpenMemory(t)
	if err := observability.Init(obsDB); err != nil {
		t.Fatal(err)
	}
	events := observability.NewEventLogger(obsDB)

	svc := memService(t, WithEvents(events))
	ctx := context.Background()

	p, err := svc.CreatePage(ctx, svc.RootID(), "Evented", "", "", "", AppendPos)
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.PublishDraft(ctx, p.ID); err != nil {
		t.Fatal(err)
	}

	var count int
	if err := obsDB.QueryRow(
		`SELECT COUNT(*) FROM business_event_logs WHERE entity_id = ?`, p.ID,
	).Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 2 {
		t.Fatalf("event count = %d, want 2 (create + publish)", count)
	}
}

func TestService_WithClock(t *testing.T) {
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := memService(t, WithClock(func() time.Time { return fixed }))

	p, err := svc.CreatePage(context.Background(), svc.RootID(), "Clocked", "", "", "", AppendPos)
	if err != nil {
		t.Fatal(err)
	}
	if !p.CreatedAt.Equal(fixed) {
		t.Fatalf("CreatedAt = %v, want %v", p.CreatedAt, fixed)
	}
}

func TestService_ImportHTML(t *testing.T) {
	svc := memService(t)
	ctx := context.Background()

	p, err := svc.CreatePage(ctx, svc.RootID(), "Imported", "", "", "", AppendPos)
	if err != nil {
		t.Fatal(err)
	}

	raw := `<html><body>
		<h1>Welcome</h1><p>First section with <b>bold</b> text.</p>
		<h2>Details</h2><p>Second section.</p>
	</body></html>`
	created, err := svc.ImportHTML(ctx, p.ID, raw)
	if err != nil {
		t.Fatalf("ImportHTML: %v", err)
	}
	if len(created) != 2 {
		t.Fatalf("len(created) = %d, want 2", len(created))
	}
	if created[0].Type != "markdown" {
		t.Fatalf("Type = %q, want markdown", created[0].Type)
	}

	draft, err := svc.GetDraftContent(ctx, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(draft) != 2 {
		t.Fatalf("draft len = %d, want 2", len(draft))
	}
}

func TestService_ImportHTML_BadInput(t *testing.T) {
	svc := memService(t)
	ctx := context.Background()

	p, err := svc.CreatePage(ctx, svc.RootID(), "Empty Import", "", "", "", AppendPos)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.ImportHTML(ctx, p.ID, "   "); err == nil {
		t.Fatal("expected error for empty document")
	}
	if _, err := svc.ImportHTML(ctx, "missing", "<p>x</p>"); err == nil {
		t.Fatal("expected error for unknown page")
	}
}
