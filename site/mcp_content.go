// CLAUDE:SUMMARY Registers content MCP tools — component CRUD/reorder, draft/published content, publish, discard, HTML import.
package site

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// --- create_component ---

type createComponentRequest struct {
	PageID   string `json:"page_id"`
	Body     string `json:"body"`
	Title    string `json:"title,omitempty"`
	Template string `json:"template,omitempty"`
	Type     string `json:"type,omitempty"`
	Position *int   `json:"position,omitempty"`
}

func (svc *Service) registerCreateComponentTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "arbo_create_component",
		Description: "Add a content component to a page's draft.",
		InputSchema: inputSchema(map[string]any{
			"page_id":  map[string]any{"type": "string", "description": "Owning page ID"},
			"body":     map[string]any{"type": "string", "description": "Component body text"},
			"title":    map[string]any{"type": "string", "description": "Component title"},
			"template": map[string]any{"type": "string", "description": "Template identifier (default: default)"},
			"type":     map[string]any{"type": "string", "enum": []any{"text", "markdown", "html", "code"}, "description": "Component type (default: markdown)"},
			"position": map[string]any{"type": "integer", "description": "Draft position, clamped; omit to append"},
		}, []string{"page_id", "body"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		rr := req.(*createComponentRequest)
		return svc.CreateComponent(ctx, rr.PageID, rr.Title, rr.Body, rr.Template, rr.Type, posOrAppend(rr.Position))
	}

	svc.registerTool(srv, tool, endpoint, decodeInto[createComponentRequest])
}

// --- get_component ---

type componentIDRequest struct {
	ComponentID string `json:"component_id"`
}

func (svc *Service) registerGetComponentTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "arbo_get_component",
		Description: "Get a draft component by ID.",
		InputSchema: inputSchema(map[string]any{
			"component_id": map[string]any{"type": "string", "description": "Component ID"},
		}, []string{"component_id"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		rr := req.(*componentIDRequest)
		return svc.GetComponent(ctx, rr.ComponentID)
	}

	svc.registerTool(srv, tool, endpoint, decodeInto[componentIDRequest])
}

// --- update_component ---

type updateComponentRequest struct {
	ComponentID string  `json:"component_id"`
	Title       *string `json:"title,omitempty"`
	Body        *string `json:"body,omitempty"`
	Template    *string `json:"template,omitempty"`
	Type        *string `json:"type,omitempty"`
}

func (svc *Service) registerUpdateComponentTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "arbo_update_component",
		Description: "Update a draft component's title, body, template, or type in place.",
		InputSchema: inputSchema(map[string]any{
			"component_id": map[string]any{"type": "string", "description": "Component ID"},
			"title":        map[string]any{"type": "string", "description": "New title"},
			"body":         map[string]any{"type": "string", "description": "New body text"},
			"template":     map[string]any{"type": "string", "description": "New template identifier"},
			"type":         map[string]any{"type": "string", "enum": []any{"text", "markdown", "html", "code"}, "description": "New component type"},
		}, []string{"component_id"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		rr := req.(*updateComponentRequest)
		return svc.UpdateComponent(ctx, rr.ComponentID, rr.Title, rr.Body, rr.Template, rr.Type)
	}

	svc.registerTool(srv, tool, endpoint, decodeInto[updateComponentRequest])
}

// --- delete_component ---

func (svc *Service) registerDeleteComponentTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "arbo_delete_component",
		Description: "Delete a component from its page's draft.",
		InputSchema: inputSchema(map[string]any{
			"component_id": map[string]any{"type": "string", "description": "Component ID to delete"},
		}, []string{"component_id"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		rr := req.(*componentIDRequest)
		if err := svc.DeleteComponent(ctx, rr.ComponentID); err != nil {
			return nil, err
		}
		return map[string]string{"status": "deleted", "component_id": rr.ComponentID}, nil
	}

	svc.registerTool(srv, tool, endpoint, decodeInto[componentIDRequest])
}

// --- move_component ---

type moveComponentRequest struct {
	ComponentID string `json:"component_id"`
	Position    int    `json:"position"`
}

func (svc *Service) registerMoveComponentTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "arbo_move_component",
		Description: "Move a component to a new position within its page's draft (clamped to the draft bounds).",
		InputSchema: inputSchema(map[string]any{
			"component_id": map[string]any{"type": "string", "description": "Component ID"},
			"position":     map[string]any{"type": "integer", "description": "Target position"},
		}, []string{"component_id", "position"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		rr := req.(*moveComponentRequest)
		return svc.MoveComponent(ctx, rr.ComponentID, rr.Position)
	}

	svc.registerTool(srv, tool, endpoint, decodeInto[moveComponentRequest])
}

// --- list_components ---

func (svc *Service) registerListComponentsTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "arbo_list_components",
		Description: "List a page's draft components in order.",
		InputSchema: inputSchema(map[string]any{
			"page_id": map[string]any{"type": "string", "description": "Page ID"},
		}, []string{"page_id"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		rr := req.(*pageIDRequest)
		return svc.ListComponents(ctx, rr.PageID)
	}

	svc.registerTool(srv, tool, endpoint, decodeInto[pageIDRequest])
}

// --- get_draft_content / get_published_content ---

func (svc *Service) registerDraftContentTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "arbo_get_draft_content",
		Description: "Get a page's current draft component list.",
		InputSchema: inputSchema(map[string]any{
			"page_id": map[string]any{"type": "string", "description": "Page ID"},
		}, []string{"page_id"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		rr := req.(*pageIDRequest)
		return svc.GetDraftContent(ctx, rr.PageID)
	}

	svc.registerTool(srv, tool, endpoint, decodeInto[pageIDRequest])
}

func (svc *Service) registerPublishedContentTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "arbo_get_published_content",
		Description: "Get a page's last published component list. Empty if never published.",
		InputSchema: inputSchema(map[string]any{
			"page_id": map[string]any{"type": "string", "description": "Page ID"},
		}, []string{"page_id"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		rr := req.(*pageIDRequest)
		return svc.GetPublishedContent(ctx, rr.PageID)
	}

	svc.registerTool(srv, tool, endpoint, decodeInto[pageIDRequest])
}

// --- publish_draft / discard_draft ---

func (svc *Service) registerPublishDraftTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "arbo_publish_draft",
		Description: "Publish a page: copy the current draft into the published snapshot. The draft stays editable.",
		InputSchema: inputSchema(map[string]any{
			"page_id": map[string]any{"type": "string", "description": "Page ID"},
		}, []string{"page_id"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		rr := req.(*pageIDRequest)
		if err := svc.PublishDraft(ctx, rr.PageID); err != nil {
			return nil, err
		}
		return map[string]string{"status": "published", "page_id": rr.PageID}, nil
	}

	svc.registerTool(srv, tool, endpoint, decodeInto[pageIDRequest])
}

func (svc *Service) registerDiscardDraftTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "arbo_discard_draft",
		Description: "Discard pending draft changes: the draft reverts to the last published snapshot, or empties if never published.",
		InputSchema: inputSchema(map[string]any{
			"page_id": map[string]any{"type": "string", "description": "Page ID"},
		}, []string{"page_id"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		rr := req.(*pageIDRequest)
		if err := svc.DiscardDraft(ctx, rr.PageID); err != nil {
			return nil, err
		}
		return map[string]string{"status": "discarded", "page_id": rr.PageID}, nil
	}

	svc.registerTool(srv, tool, endpoint, decodeInto[pageIDRequest])
}

// --- import_html ---

type importHTMLRequest struct {
	PageID string `json:"page_id"`
	HTML   string `json:"html"`
}

func (svc *Service) registerImportHTMLTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "arbo_import_html",
		Description: "Import an HTML document: sanitize it, convert it to markdown sections, and append them to the page's draft as components.",
		InputSchema: inputSchema(map[string]any{
			"page_id": map[string]any{"type": "string", "description": "Target page ID"},
			"html":    map[string]any{"type": "string", "description": "Raw HTML document"},
		}, []string{"page_id", "html"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		rr := req.(*importHTMLRequest)
		return svc.ImportHTML(ctx, rr.PageID, rr.HTML)
	}

	svc.registerTool(srv, tool, endpoint, decodeInto[importHTMLRequest])
}
