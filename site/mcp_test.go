package site

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/arbo/dbopen"
	"github.com/hazyhaar/arbo/observability"
)

var testImpl = &mcp.Implementation{Name: "arbo-test", Version: "0.1.0"}

func mcpSession(t *testing.T, opts ...ServiceOption) (*Service, *mcp.ClientSession) {
	t.Helper()
	svc := memService(t, opts...)

	srv := mcp.NewServer(testImpl, nil)
	svc.RegisterMCP(srv)

	serverT, clientT := mcp.NewInMemoryTransports()
	ctx := context.Background()

	go func() { _ = srv.Run(ctx, serverT) }()

	client := mcp.NewClient(testImpl, nil)
	session, err := client.Connect(ctx, clientT, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	t.Cleanup(func() { session.Close() })
	return svc, session
}

func callTool(t *testing.T, session *mcp.ClientSession, name string, args any) string {
	t.Helper()
	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	if err != nil {
		t.Fatalf("CallTool(%s): %v", name, err)
	}
	if err := result.GetError(); err != nil {
		t.Fatalf("CallTool(%s) tool error: %v", name, err)
	}
	if len(result.Content) == 0 {
		t.Fatalf("CallTool(%s): empty content", name)
	}
	tc, ok := result.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("CallTool(%s): expected TextContent, got %T", name, result.Content[0])
	}
	return tc.Text
}

// callToolErr invokes a tool expecting a tool-level error and returns its message.
func callToolErr(t *testing.T, session *mcp.ClientSession, name string, args any) string {
	t.Helper()
	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	if err != nil {
		t.Fatalf("CallTool(%s): %v", name, err)
	}
	err = result.GetError()
	if err == nil {
		t.Fatalf("CallTool(%s): expected tool error, got success", name)
	}
	return err.Error()
}

// --- arbo_create_page ---

func TestMCP_CreatePage(t *testing.T) {
	svc, session := mcpSession(t)

	text := callTool(t, session, "arbo_create_page", map[string]any{
		"parent_page_id": svc.RootID(),
		"title":          "What's New? Price: $99.99!",
	})

	var p Page
	if err := json.Unmarshal([]byte(text), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if p.Slug != "what-s-new-price-99-99" {
		t.Errorf("Slug = %q, want what-s-new-price-99-99", p.Slug)
	}
	if p.Path != "/what-s-new-price-99-99" {
		t.Errorf("Path = %q", p.Path)
	}
}

func TestMCP_CreatePage_SlugCollision(t *testing.T) {
	svc, session := mcpSession(t)

	var first, second Page
	json.Unmarshal([]byte(callTool(t, session, "arbo_create_page", map[string]any{
		"parent_page_id": svc.RootID(), "title": "News",
	})), &first)
	json.Unmarshal([]byte(callTool(t, session, "arbo_create_page", map[string]any{
		"parent_page_id": svc.RootID(), "title": "News",
	})), &second)

	if first.Slug != "news" {
		t.Errorf("first slug = %q, want news", first.Slug)
	}
	if second.Slug != "news-2" {
		t.Errorf("second slug = %q, want news-2", second.Slug)
	}
}

func TestMCP_CreatePage_UnknownParent(t *testing.T) {
	_, session := mcpSession(t)

	msg := callToolErr(t, session, "arbo_create_page", map[string]any{
		"parent_page_id": "nope",
		"title":          "Orphan",
	})
	if !strings.Contains(msg, "not found") {
		t.Errorf("error = %q, want not found", msg)
	}
}

// --- arbo_get_page_by_path ---

func TestMCP_GetPageByPath(t *testing.T) {
	svc, session := mcpSession(t)

	var docs Page
	json.Unmarshal([]byte(callTool(t, session, "arbo_create_page", map[string]any{
		"parent_page_id": svc.RootID(), "title": "Docs",
	})), &docs)
	callTool(t, session, "arbo_create_page", map[string]any{
		"parent_page_id": docs.ID, "title": "Install",
	})

	var p Page
	json.Unmarshal([]byte(callTool(t, session, "arbo_get_page_by_path", map[string]any{
		"path": "/docs/install",
	})), &p)
	if p.Title != "Install" {
		t.Errorf("Title = %q, want Install", p.Title)
	}

	msg := callToolErr(t, session, "arbo_get_page_by_path", map[string]any{"path": "docs/install"})
	if !strings.Contains(msg, "invalid") {
		t.Errorf("relative path error = %q, want invalid input", msg)
	}
}

// --- arbo_update_page ---

func TestMCP_UpdatePage_KeepsSlug(t *testing.T) {
	svc, session := mcpSession(t)

	var p Page
	json.Unmarshal([]byte(callTool(t, session, "arbo_create_page", map[string]any{
		"parent_page_id": svc.RootID(), "title": "Old Title",
	})), &p)

	var updated Page
	json.Unmarshal([]byte(callTool(t, session, "arbo_update_page", map[string]any{
		"page_id": p.ID, "title": "Completely New Title",
	})), &updated)

	if updated.Title != "Completely New Title" {
		t.Errorf("Title = %q", updated.Title)
	}
	if updated.Slug != "old-title" {
		t.Errorf("Slug = %q, want old-title (slug is stable)", updated.Slug)
	}
}

// --- arbo_move_page ---

func TestMCP_MovePage_CycleRejected(t *testing.T) {
	svc, session := mcpSession(t)

	var a, b Page
	json.Unmarshal([]byte(callTool(t, session, "arbo_create_page", map[string]any{
		"parent_page_id": svc.RootID(), "title": "A",
	})), &a)
	json.Unmarshal([]byte(callTool(t, session, "arbo_create_page", map[string]any{
		"parent_page_id": a.ID, "title": "B",
	})), &b)

	msg := callToolErr(t, session, "arbo_move_page", map[string]any{
		"page_id": a.ID, "new_parent_id": b.ID,
	})
	if !strings.Contains(msg, "cycle") {
		t.Errorf("error = %q, want cycle", msg)
	}
}

func TestMCP_MovePage_RootRejected(t *testing.T) {
	svc, session := mcpSession(t)

	var a Page
	json.Unmarshal([]byte(callTool(t, session, "arbo_create_page", map[string]any{
		"parent_page_id": svc.RootID(), "title": "A",
	})), &a)

	msg := callToolErr(t, session, "arbo_move_page", map[string]any{
		"page_id": svc.RootID(), "new_parent_id": a.ID,
	})
	if !strings.Contains(msg, "not allowed") {
		t.Errorf("error = %q, want operation not allowed", msg)
	}
}

// --- arbo_delete_page ---

func TestMCP_DeletePage_Cascade(t *testing.T) {
	svc, session := mcpSession(t)

	var parent, child Page
	json.Unmarshal([]byte(callTool(t, session, "arbo_create_page", map[string]any{
		"parent_page_id": svc.RootID(), "title": "Parent",
	})), &parent)
	json.Unmarshal([]byte(callTool(t, session, "arbo_create_page", map[string]any{
		"parent_page_id": parent.ID, "title": "Child",
	})), &child)

	callTool(t, session, "arbo_delete_page", map[string]any{"page_id": parent.ID})

	msg := callToolErr(t, session, "arbo_get_page", map[string]any{"page_id": child.ID})
	if !strings.Contains(msg, "not found") {
		t.Errorf("error = %q, want not found", msg)
	}
}

// --- arbo_list_pages / arbo_stats ---

func TestMCP_ListPagesAndStats(t *testing.T) {
	svc, session := mcpSession(t)

	callTool(t, session, "arbo_create_page", map[string]any{
		"parent_page_id": svc.RootID(), "title": "One",
	})
	callTool(t, session, "arbo_create_page", map[string]any{
		"parent_page_id": svc.RootID(), "title": "Two",
	})

	var root PageNode
	if err := json.Unmarshal([]byte(callTool(t, session, "arbo_list_pages", map[string]any{})), &root); err != nil {
		t.Fatalf("unmarshal tree: %v", err)
	}
	if len(root.Children) != 2 {
		t.Fatalf("root children = %d, want 2", len(root.Children))
	}

	var stats Stats
	json.Unmarshal([]byte(callTool(t, session, "arbo_stats", map[string]any{})), &stats)
	if stats.Pages != 3 {
		t.Errorf("Pages = %d, want 3 (root + 2)", stats.Pages)
	}
	if stats.MaxDepth != 1 {
		t.Errorf("MaxDepth = %d, want 1", stats.MaxDepth)
	}
}

// --- component lifecycle over MCP ---

func TestMCP_ComponentLifecycle(t *testing.T) {
	svc, session := mcpSession(t)

	var p Page
	json.Unmarshal([]byte(callTool(t, session, "arbo_create_page", map[string]any{
		"parent_page_id": svc.RootID(), "title": "Content Page",
	})), &p)

	var c Component
	json.Unmarshal([]byte(callTool(t, session, "arbo_create_component", map[string]any{
		"page_id": p.ID, "body": "draft body", "type": "text",
	})), &c)
	if c.Type != "text" {
		t.Fatalf("Type = %q, want text", c.Type)
	}
	if c.Position != 0 {
		t.Fatalf("Position = %d, want 0", c.Position)
	}

	// published is empty before the first publish, not an error
	var published []*Component
	json.Unmarshal([]byte(callTool(t, session, "arbo_get_published_content", map[string]any{
		"page_id": p.ID,
	})), &published)
	if len(published) != 0 {
		t.Fatalf("published before publish = %d, want 0", len(published))
	}

	callTool(t, session, "arbo_publish_draft", map[string]any{"page_id": p.ID})

	callTool(t, session, "arbo_update_component", map[string]any{
		"component_id": c.ID, "body": "edited body",
	})

	var draft []*Component
	json.Unmarshal([]byte(callTool(t, session, "arbo_get_draft_content", map[string]any{
		"page_id": p.ID,
	})), &draft)
	if len(draft) != 1 || draft[0].Body != "edited body" {
		t.Fatalf("draft = %+v, want edited body", draft)
	}

	json.Unmarshal([]byte(callTool(t, session, "arbo_get_published_content", map[string]any{
		"page_id": p.ID,
	})), &published)
	if len(published) != 1 || published[0].Body != "draft body" {
		t.Fatalf("published = %+v, want original body", published)
	}

	// discard brings the draft back to the published state
	callTool(t, session, "arbo_discard_draft", map[string]any{"page_id": p.ID})
	json.Unmarshal([]byte(callTool(t, session, "arbo_get_draft_content", map[string]any{
		"page_id": p.ID,
	})), &draft)
	if len(draft) != 1 || draft[0].Body != "draft body" {
		t.Fatalf("draft after discard = %+v, want published body", draft)
	}
}

func TestMCP_CreateComponent_BadType(t *testing.T) {
	svc, session := mcpSession(t)

	var p Page
	json.Unmarshal([]byte(callTool(t, session, "arbo_create_page", map[string]any{
		"parent_page_id": svc.RootID(), "title": "P",
	})), &p)

	msg := callToolErr(t, session, "arbo_create_component", map[string]any{
		"page_id": p.ID, "body": "x", "type": "video",
	})
	if !strings.Contains(msg, "invalid") {
		t.Errorf("error = %q, want invalid input", msg)
	}
}

// --- arbo_search_pages / arbo_get_breadcrumbs ---

func TestMCP_SearchAndBreadcrumbs(t *testing.T) {
	svc, session := mcpSession(t)

	var docs, guide Page
	json.Unmarshal([]byte(callTool(t, session, "arbo_create_page", map[string]any{
		"parent_page_id": svc.RootID(), "title": "Docs",
	})), &docs)
	json.Unmarshal([]byte(callTool(t, session, "arbo_create_page", map[string]any{
		"parent_page_id": docs.ID, "title": "User Guide",
	})), &guide)
	callTool(t, session, "arbo_create_component", map[string]any{
		"page_id": guide.ID, "body": "install the binary first",
	})

	var results []SearchResult
	json.Unmarshal([]byte(callTool(t, session, "arbo_search_pages", map[string]any{
		"query": "BINARY",
	})), &results)
	if len(results) != 1 || results[0].Page.ID != guide.ID {
		t.Fatalf("results = %+v, want the guide page", results)
	}

	var trail []Crumb
	json.Unmarshal([]byte(callTool(t, session, "arbo_get_breadcrumbs", map[string]any{
		"page_id": guide.ID,
	})), &trail)
	if len(trail) != 3 {
		t.Fatalf("trail len = %d, want 3 (root, docs, guide)", len(trail))
	}
	if trail[2].Title != "User Guide" {
		t.Errorf("trail[2].Title = %q", trail[2].Title)
	}
}

// --- arbo_import_html ---

func TestMCP_ImportHTML(t *testing.T) {
	svc, session := mcpSession(t)

	var p Page
	json.Unmarshal([]byte(callTool(t, session, "arbo_create_page", map[string]any{
		"parent_page_id": svc.RootID(), "title": "Landing",
	})), &p)

	var created []*Component
	text := callTool(t, session, "arbo_import_html", map[string]any{
		"page_id": p.ID,
		"html":    "<h1>Hello</h1><p>World</p><h2>More</h2><p>Content</p>",
	})
	if err := json.Unmarshal([]byte(text), &created); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(created) != 2 {
		t.Fatalf("created = %d components, want 2", len(created))
	}
}

func TestMCP_RecordsOperationMetrics(t *testing.T) {
	obsDB := dbopen.OpenMemory(t)
	if err := observability.Init(obsDB); err != nil {
		t.Fatal(err)
	}
	metrics := observability.NewMetricsManager(obsDB, 100, time.Hour)

	svc, session := mcpSession(t, WithMetrics(metrics))
	callTool(t, session, "arbo_create_page", map[string]any{
		"parent_page_id": svc.RootID(), "title": "Timed",
	})
	callToolErr(t, session, "arbo_get_page", map[string]any{"page_id": "nope"})

	// Close flushes the buffer.
	if err := metrics.Close(); err != nil {
		t.Fatalf("metrics.Close: %v", err)
	}

	recorded, err := metrics.Query(observability.MetricOperationDurationMs, nil, nil, 0)
	if err != nil {
		t.Fatalf("metrics.Query: %v", err)
	}
	byOp := map[string]string{}
	for _, m := range recorded {
		byOp[m.Labels["operation"]] = m.Labels["status"]
	}
	if byOp["arbo_create_page"] != "success" {
		t.Fatalf("arbo_create_page status = %q, want success", byOp["arbo_create_page"])
	}
	if byOp["arbo_get_page"] != "error" {
		t.Fatalf("arbo_get_page status = %q, want error", byOp["arbo_get_page"])
	}
}

func TestMCP_AuditCarriesTransport(t *testing.T) {
	obsDB := dbopen.OpenMemory(t)
	if err := observability.Init(obsDB); err != nil {
		t.Fatal(err)
	}
	audit := observability.NewAuditLogger(obsDB, 100)

	svc, session := mcpSession(t, WithAudit(audit))
	callTool(t, session, "arbo_create_page", map[string]any{
		"parent_page_id": svc.RootID(), "title": "Tagged",
	})

	if err := audit.Close(); err != nil {
		t.Fatalf("audit.Close: %v", err)
	}
	entries, err := audit.Query(context.Background(), &observability.AuditFilter{})
	if err != nil {
		t.Fatalf("audit.Query: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("len(entries) = %d, want 1", len(entries))
	}
	if !strings.HasPrefix(entries[0].RequestID, "req_") {
		t.Fatalf("RequestID = %q, want req_ prefix", entries[0].RequestID)
	}
	if entries[0].Metadata != `{"transport":"mcp"}` {
		t.Fatalf("Metadata = %q", entries[0].Metadata)
	}
}
