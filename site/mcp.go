// CLAUDE:SUMMARY Registers page-level MCP tools — create/get/update/move/delete pages, path lookup, tree listing, search, breadcrumbs, stats.
package site

import (
	"context"
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/arbo/kit"
)

// RegisterMCP registers all site tools on an MCP server.
func (svc *Service) RegisterMCP(srv *mcp.Server) {
	svc.registerCreatePageTool(srv)
	svc.registerGetPageTool(srv)
	svc.registerGetPageByPathTool(srv)
	svc.registerUpdatePageTool(srv)
	svc.registerMovePageTool(srv)
	svc.registerDeletePageTool(srv)
	svc.registerListPagesTool(srv)
	svc.registerSearchPagesTool(srv)
	svc.registerBreadcrumbsTool(srv)
	svc.registerStatsTool(srv)

	svc.registerCreateComponentTool(srv)
	svc.registerGetComponentTool(srv)
	svc.registerUpdateComponentTool(srv)
	svc.registerDeleteComponentTool(srv)
	svc.registerMoveComponentTool(srv)
	svc.registerListComponentsTool(srv)
	svc.registerDraftContentTool(srv)
	svc.registerPublishedContentTool(srv)
	svc.registerPublishDraftTool(srv)
	svc.registerDiscardDraftTool(srv)
	svc.registerImportHTMLTool(srv)
}

func inputSchema(properties map[string]any, required []string) map[string]any {
	s := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

// posOrAppend turns an absent position argument into AppendPos.
func posOrAppend(p *int) int {
	if p == nil {
		return AppendPos
	}
	return *p
}

func decodeInto[T any](req *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
	var rr T
	if err := json.Unmarshal(req.Params.Arguments, &rr); err != nil {
		return nil, err
	}
	return &kit.MCPDecodeResult{Request: &rr, EnrichCtx: tagMCP}, nil
}

// tagMCP stamps the transport and a per-call request id so audit entries
// from MCP tools are correlatable.
func tagMCP(ctx context.Context) context.Context {
	return kit.WithRequestID(kit.WithTransport(ctx, "mcp"), newRequestID())
}

// registerTool runs the endpoint through the service middleware stack
// before handing it to the transport.
func (svc *Service) registerTool(srv *mcp.Server, tool *mcp.Tool, ep kit.Endpoint, decode func(*mcp.CallToolRequest) (*kit.MCPDecodeResult, error)) {
	kit.RegisterMCPTool(srv, tool, kit.Chain(svc.instrument(tool.Name))(ep), decode)
}

// --- create_page ---

type createPageRequest struct {
	ParentPageID string `json:"parent_page_id"`
	Title        string `json:"title"`
	Slug         string `json:"slug,omitempty"`
	Template     string `json:"template,omitempty"`
	Description  string `json:"description,omitempty"`
	Position     *int   `json:"position,omitempty"`
}

func (svc *Service) registerCreatePageTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "arbo_create_page",
		Description: "Create a page under a parent. The slug is derived from the title (or the explicit slug) and made unique among siblings.",
		InputSchema: inputSchema(map[string]any{
			"parent_page_id": map[string]any{"type": "string", "description": "ID of the parent page"},
			"title":          map[string]any{"type": "string", "description": "Page title (free text)"},
			"slug":           map[string]any{"type": "string", "description": "Explicit slug; sanitized and de-duplicated like a title"},
			"template":       map[string]any{"type": "string", "description": "Template identifier (default: default)"},
			"description":    map[string]any{"type": "string", "description": "Page description"},
			"position":       map[string]any{"type": "integer", "description": "Sibling position, clamped; omit to append"},
		}, []string{"parent_page_id", "title"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		rr := req.(*createPageRequest)
		return svc.CreatePage(ctx, rr.ParentPageID, rr.Title, rr.Slug, rr.Template, rr.Description, posOrAppend(rr.Position))
	}

	svc.registerTool(srv, tool, endpoint, decodeInto[createPageRequest])
}

// --- get_page ---

type pageIDRequest struct {
	PageID string `json:"page_id"`
}

func (svc *Service) registerGetPageTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "arbo_get_page",
		Description: "Get a page by ID, including its materialized path.",
		InputSchema: inputSchema(map[string]any{
			"page_id": map[string]any{"type": "string", "description": "Page ID"},
		}, []string{"page_id"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		rr := req.(*pageIDRequest)
		return svc.GetPage(ctx, rr.PageID)
	}

	svc.registerTool(srv, tool, endpoint, decodeInto[pageIDRequest])
}

// --- get_page_by_path ---

type pageByPathRequest struct {
	Path string `json:"path"`
}

func (svc *Service) registerGetPageByPathTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "arbo_get_page_by_path",
		Description: "Resolve a root-relative path like /about/team to a page.",
		InputSchema: inputSchema(map[string]any{
			"path": map[string]any{"type": "string", "description": "Root-relative path starting with /"},
		}, []string{"path"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		rr := req.(*pageByPathRequest)
		return svc.GetPageByPath(ctx, rr.Path)
	}

	svc.registerTool(srv, tool, endpoint, decodeInto[pageByPathRequest])
}

// --- update_page ---

type updatePageRequest struct {
	PageID      string  `json:"page_id"`
	Title       *string `json:"title,omitempty"`
	Template    *string `json:"template,omitempty"`
	Description *string `json:"description,omitempty"`
}

func (svc *Service) registerUpdatePageTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "arbo_update_page",
		Description: "Update a page's title, template, or description. The slug never changes.",
		InputSchema: inputSchema(map[string]any{
			"page_id":     map[string]any{"type": "string", "description": "Page ID"},
			"title":       map[string]any{"type": "string", "description": "New title"},
			"template":    map[string]any{"type": "string", "description": "New template identifier"},
			"description": map[string]any{"type": "string", "description": "New description"},
		}, []string{"page_id"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		rr := req.(*updatePageRequest)
		return svc.UpdatePage(ctx, rr.PageID, rr.Title, rr.Template, rr.Description)
	}

	svc.registerTool(srv, tool, endpoint, decodeInto[updatePageRequest])
}

// --- move_page ---

type movePageRequest struct {
	PageID      string `json:"page_id"`
	NewParentID string `json:"new_parent_id"`
	Position    *int   `json:"position,omitempty"`
}

func (svc *Service) registerMovePageTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "arbo_move_page",
		Description: "Move a page under a new parent, keeping its slug. Fails on cycles, on the root, and on sibling slug conflicts.",
		InputSchema: inputSchema(map[string]any{
			"page_id":       map[string]any{"type": "string", "description": "Page ID to move"},
			"new_parent_id": map[string]any{"type": "string", "description": "Destination parent page ID"},
			"position":      map[string]any{"type": "integer", "description": "Sibling position, clamped; omit to append"},
		}, []string{"page_id", "new_parent_id"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		rr := req.(*movePageRequest)
		return svc.MovePage(ctx, rr.PageID, rr.NewParentID, posOrAppend(rr.Position))
	}

	svc.registerTool(srv, tool, endpoint, decodeInto[movePageRequest])
}

// --- delete_page ---

func (svc *Service) registerDeletePageTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "arbo_delete_page",
		Description: "Delete a page, its entire subtree, and all their components. The root cannot be deleted.",
		InputSchema: inputSchema(map[string]any{
			"page_id": map[string]any{"type": "string", "description": "Page ID to delete"},
		}, []string{"page_id"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		rr := req.(*pageIDRequest)
		if err := svc.DeletePage(ctx, rr.PageID); err != nil {
			return nil, err
		}
		return map[string]string{"status": "deleted", "page_id": rr.PageID}, nil
	}

	svc.registerTool(srv, tool, endpoint, decodeInto[pageIDRequest])
}

// --- list_pages ---

func (svc *Service) registerListPagesTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "arbo_list_pages",
		Description: "List the full page tree from the root, children in sibling order.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}

	endpoint := func(ctx context.Context, _ any) (any, error) {
		return svc.ListPages(ctx), nil
	}

	decode := func(_ *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		return &kit.MCPDecodeResult{Request: nil, EnrichCtx: tagMCP}, nil
	}

	svc.registerTool(srv, tool, endpoint, decode)
}

// --- search_pages ---

type searchPagesRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit,omitempty"`
}

func (svc *Service) registerSearchPagesTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "arbo_search_pages",
		Description: "Find pages whose title or component bodies contain the query (case-insensitive substring, no ranking).",
		InputSchema: inputSchema(map[string]any{
			"query": map[string]any{"type": "string", "description": "Substring to search for"},
			"limit": map[string]any{"type": "integer", "description": "Max results (default 20)"},
		}, []string{"query"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		rr := req.(*searchPagesRequest)
		return svc.SearchPages(ctx, rr.Query, rr.Limit), nil
	}

	svc.registerTool(srv, tool, endpoint, decodeInto[searchPagesRequest])
}

// --- get_breadcrumbs ---

func (svc *Service) registerBreadcrumbsTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "arbo_get_breadcrumbs",
		Description: "Get the root-to-page breadcrumb trail for a page.",
		InputSchema: inputSchema(map[string]any{
			"page_id": map[string]any{"type": "string", "description": "Page ID"},
		}, []string{"page_id"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		rr := req.(*pageIDRequest)
		return svc.Breadcrumbs(ctx, rr.PageID)
	}

	svc.registerTool(srv, tool, endpoint, decodeInto[pageIDRequest])
}

// --- stats ---

func (svc *Service) registerStatsTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "arbo_stats",
		Description: "Get site statistics: page count, draft/published component counts, tree depth.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}

	endpoint := func(ctx context.Context, _ any) (any, error) {
		return svc.Stats(ctx), nil
	}

	decode := func(_ *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		return &kit.MCPDecodeResult{Request: nil, EnrichCtx: tagMCP}, nil
	}

	svc.registerTool(srv, tool, endpoint, decode)
}
