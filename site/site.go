// CLAUDE:SUMMARY Main Service orchestrator: wraps the page arena with persistence, audit, and business events; one method per engine operation.
package site

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hazyhaar/arbo/idgen"
	"github.com/hazyhaar/arbo/kit"
	"github.com/hazyhaar/arbo/observability"
	"github.com/hazyhaar/arbo/site/internal/store"
	"github.com/hazyhaar/arbo/site/internal/tree"
)

// newRequestID tags incoming calls that did not bring their own id.
var newRequestID = idgen.Prefixed("req_", idgen.Default)

// Service is the main arbo orchestrator. All engine operations go through
// it; mutations are followed by a snapshot save when persistence is on.
type Service struct {
	tree    *tree.Tree
	store   *store.Store // nil when persistence is disabled
	logger  *slog.Logger
	config  *Config
	audit   *observability.AuditLogger    // optional — audit trail
	events  *observability.EventLogger    // optional — business events
	metrics *observability.MetricsManager // optional — operation timings
	newID   idgen.Generator
	clock   func() time.Time

	// saveMu serializes mutate-then-persist sequences so the snapshot on
	// disk never interleaves two mutations.
	saveMu sync.Mutex
}

// ServiceOption configures a Service during creation.
type ServiceOption func(*Service)

// WithAudit sets the audit logger for data-modifying operations.
func WithAudit(a *observability.AuditLogger) ServiceOption {
	return func(svc *Service) { svc.audit = a }
}

// WithEvents sets the business-event logger.
func WithEvents(e *observability.EventLogger) ServiceOption {
	return func(svc *Service) { svc.events = e }
}

// WithMetrics sets the metrics manager that times every operation.
func WithMetrics(m *observability.MetricsManager) ServiceOption {
	return func(svc *Service) { svc.metrics = m }
}

// WithIDGenerator overrides id generation for pages and components.
func WithIDGenerator(gen idgen.Generator) ServiceOption {
	return func(svc *Service) { svc.newID = gen }
}

// WithClock overrides the time source. Use in tests.
func WithClock(now func() time.Time) ServiceOption {
	return func(svc *Service) { svc.clock = now }
}

// New creates a site Service. When cfg.DBPath is set, the persisted
// snapshot is loaded (or a fresh root is created and saved); otherwise the
// tree is memory-only.
func New(ctx context.Context, cfg *Config, logger *slog.Logger, opts ...ServiceOption) (*Service, error) {
	if cfg == nil {
		cfg = defaultConfig()
	}
	cfg.defaults()
	if logger == nil {
		logger = slog.Default()
	}

	svc := &Service{
		logger: logger,
		config: cfg,
		newID:  idgen.Default,
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}

	treeOpts := []tree.Option{tree.WithIDGenerator(svc.newID), tree.WithClock(svc.clock)}

	if cfg.DBPath != "" {
		st, err := store.Open(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("site: open store: %w", err)
		}
		svc.store = st

		snap, err := st.Load(ctx)
		if err != nil {
			st.Close()
			return nil, fmt.Errorf("site: load snapshot: %w", err)
		}
		if snap != nil {
			t, err := tree.Restore(snap, treeOpts...)
			if err != nil {
				st.Close()
				return nil, fmt.Errorf("site: restore snapshot: %w", err)
			}
			svc.tree = t
			logger.Info("site: snapshot loaded", "pages", len(snap.Pages), "db", cfg.DBPath)
		}
	}

	if svc.tree == nil {
		svc.tree = tree.New(treeOpts...)
		if cfg.RootTitle != "Home" {
			title := cfg.RootTitle
			if _, err := svc.tree.UpdatePage(svc.tree.RootID(), &title, nil, nil); err != nil {
				return nil, err
			}
		}
		if svc.store != nil {
			if err := svc.store.Save(ctx, svc.tree.Export()); err != nil {
				svc.store.Close()
				return nil, fmt.Errorf("site: save initial snapshot: %w", err)
			}
		}
		logger.Info("site: initialized empty tree", "root_id", svc.tree.RootID())
	}

	return svc, nil
}

// Close releases the snapshot store.
func (svc *Service) Close() error {
	if svc.store != nil {
		return svc.store.Close()
	}
	return nil
}

// RootID returns the id of the root page.
func (svc *Service) RootID() string {
	return svc.tree.RootID()
}

// Save persists the current snapshot. No-op without persistence. Exposed
// for the periodic autosave guard in cmd/arbo.
func (svc *Service) Save(ctx context.Context) error {
	if svc.store == nil {
		return nil
	}
	svc.saveMu.Lock()
	defer svc.saveMu.Unlock()
	return svc.store.Save(ctx, svc.tree.Export())
}

// persist saves after a successful mutation. The in-memory tree is the
// source of truth: a failed save is returned to the caller but does not
// roll the mutation back (the autosave guard retries later).
func (svc *Service) persist(ctx context.Context) error {
	if svc.store == nil {
		return nil
	}
	if err := svc.store.Save(ctx, svc.tree.Export()); err != nil {
		svc.logger.Error("site: snapshot save failed", "error", err)
		return fmt.Errorf("site: persist: %w", err)
	}
	return nil
}

// auditLog emits an async audit entry if an audit logger is configured.
// The request id and transport come from the context, stamped by the
// transport adapters.
func (svc *Service) auditLog(ctx context.Context, action, params string) {
	if svc.audit == nil {
		return
	}
	svc.audit.LogAsync(&observability.AuditEntry{
		ComponentName: svc.config.SiteName,
		OperationType: action,
		RequestID:     kit.GetRequestID(ctx),
		Parameters:    params,
		Status:        "success",
		Metadata:      fmt.Sprintf(`{"transport":%q}`, kit.GetTransport(ctx)),
	})
}

// instrument is the endpoint middleware that times each tool call. The
// per-label row count doubles as the call counter.
func (svc *Service) instrument(op string) kit.Middleware {
	return func(next kit.Endpoint) kit.Endpoint {
		return func(ctx context.Context, req any) (any, error) {
			if svc.metrics == nil {
				return next(ctx, req)
			}
			start := time.Now()
			resp, err := next(ctx, req)
			status := "success"
			if err != nil {
				status = "error"
			}
			svc.metrics.Record(&observability.Metric{
				Name:      observability.MetricOperationDurationMs,
				Timestamp: svc.clock(),
				Value:     float64(time.Since(start).Milliseconds()),
				Labels:    map[string]string{"operation": op, "status": status},
				Unit:      "milliseconds",
			})
			return resp, err
		}
	}
}

// event emits a business event if an event logger is configured.
func (svc *Service) event(ctx context.Context, entityType, entityID, action string) {
	if svc.events == nil {
		return
	}
	svc.events.LogEvent(ctx, observability.BusinessEvent{
		EventType:   "content",
		ServiceName: svc.config.SiteName,
		EntityType:  entityType,
		EntityID:    entityID,
		Action:      action,
		Success:     true,
	})
}

// --- Pages ---

// CreatePage creates a page under parentID. Empty slug derives one from
// the title; either way the slug is made unique among the new siblings.
// position < 0 appends.
func (svc *Service) CreatePage(ctx context.Context, parentID, title, slug, template, description string, position int) (*Page, error) {
	svc.saveMu.Lock()
	defer svc.saveMu.Unlock()
	p, err := svc.tree.CreatePage(parentID, title, slug, template, description, position)
	if err != nil {
		return nil, err
	}
	if err := svc.persist(ctx); err != nil {
		return nil, err
	}
	svc.auditLog(ctx, "create_page", fmt.Sprintf(`{"page_id":%q,"parent_id":%q,"slug":%q}`, p.ID, parentID, p.Slug))
	svc.event(ctx, "page", p.ID, "create")
	return p, nil
}

// GetPage returns a page by id.
func (svc *Service) GetPage(_ context.Context, pageID string) (*Page, error) {
	return svc.tree.GetPage(pageID)
}

// GetPageByPath resolves a root-relative path such as "/about/team".
func (svc *Service) GetPageByPath(_ context.Context, path string) (*Page, error) {
	return svc.tree.GetPageByPath(path)
}

// UpdatePage changes title, template, and/or description. Nil fields stay
// untouched; the slug never changes here.
func (svc *Service) UpdatePage(ctx context.Context, pageID string, title, template, description *string) (*Page, error) {
	svc.saveMu.Lock()
	defer svc.saveMu.Unlock()
	p, err := svc.tree.UpdatePage(pageID, title, template, description)
	if err != nil {
		return nil, err
	}
	if err := svc.persist(ctx); err != nil {
		return nil, err
	}
	svc.auditLog(ctx, "update_page", fmt.Sprintf(`{"page_id":%q}`, pageID))
	svc.event(ctx, "page", pageID, "update")
	return p, nil
}

// MovePage re-parents a page. position < 0 appends; otherwise it is
// clamped into the destination sibling range.
func (svc *Service) MovePage(ctx context.Context, pageID, newParentID string, position int) (*Page, error) {
	svc.saveMu.Lock()
	defer svc.saveMu.Unlock()
	p, err := svc.tree.MovePage(pageID, newParentID, position)
	if err != nil {
		return nil, err
	}
	if err := svc.persist(ctx); err != nil {
		return nil, err
	}
	svc.auditLog(ctx, "move_page", fmt.Sprintf(`{"page_id":%q,"new_parent_id":%q,"position":%d}`, pageID, newParentID, p.Position))
	svc.event(ctx, "page", pageID, "move")
	return p, nil
}

// DeletePage removes a page, its subtree, and all their components.
func (svc *Service) DeletePage(ctx context.Context, pageID string) error {
	svc.saveMu.Lock()
	defer svc.saveMu.Unlock()
	if err := svc.tree.DeletePage(pageID); err != nil {
		return err
	}
	if err := svc.persist(ctx); err != nil {
		return err
	}
	svc.auditLog(ctx, "delete_page", fmt.Sprintf(`{"page_id":%q}`, pageID))
	svc.event(ctx, "page", pageID, "delete")
	return nil
}

// ListPages returns the full nested tree from the root.
func (svc *Service) ListPages(_ context.Context) *PageNode {
	return svc.tree.ListTree()
}

// Breadcrumbs returns the root-to-page trail.
func (svc *Service) Breadcrumbs(_ context.Context, pageID string) ([]Crumb, error) {
	return svc.tree.Breadcrumbs(pageID)
}

// SearchPages finds pages whose title or component bodies contain query,
// case-insensitive, in tree order. limit <= 0 uses the configured default.
func (svc *Service) SearchPages(_ context.Context, query string, limit int) []SearchResult {
	if limit <= 0 {
		limit = svc.config.SearchLimit
	}
	return svc.tree.Search(query, limit)
}

// Stats returns aggregate arena counters.
func (svc *Service) Stats(_ context.Context) Stats {
	return svc.tree.CollectStats()
}

// --- Components ---

// CreateComponent appends a component to the page's draft. position < 0
// appends; ctype defaults to "markdown".
func (svc *Service) CreateComponent(ctx context.Context, pageID, title, body, template, ctype string, position int) (*Component, error) {
	svc.saveMu.Lock()
	defer svc.saveMu.Unlock()
	c, err := svc.tree.CreateComponent(pageID, title, body, template, ctype, position)
	if err != nil {
		return nil, err
	}
	if err := svc.persist(ctx); err != nil {
		return nil, err
	}
	svc.auditLog(ctx, "create_component", fmt.Sprintf(`{"component_id":%q,"page_id":%q}`, c.ID, pageID))
	svc.event(ctx, "component", c.ID, "create")
	return c, nil
}

// GetComponent returns a draft component by id.
func (svc *Service) GetComponent(_ context.Context, componentID string) (*Component, error) {
	return svc.tree.GetComponent(componentID)
}

// UpdateComponent changes title, body, template, and/or type in place.
func (svc *Service) UpdateComponent(ctx context.Context, componentID string, title, body, template, ctype *string) (*Component, error) {
	svc.saveMu.Lock()
	defer svc.saveMu.Unlock()
	c, err := svc.tree.UpdateComponent(componentID, title, body, template, ctype)
	if err != nil {
		return nil, err
	}
	if err := svc.persist(ctx); err != nil {
		return nil, err
	}
	svc.auditLog(ctx, "update_component", fmt.Sprintf(`{"component_id":%q}`, componentID))
	svc.event(ctx, "component", componentID, "update")
	return c, nil
}

// DeleteComponent removes a component from its page's draft.
func (svc *Service) DeleteComponent(ctx context.Context, componentID string) error {
	svc.saveMu.Lock()
	defer svc.saveMu.Unlock()
	if err := svc.tree.DeleteComponent(componentID); err != nil {
		return err
	}
	if err := svc.persist(ctx); err != nil {
		return err
	}
	svc.auditLog(ctx, "delete_component", fmt.Sprintf(`{"component_id":%q}`, componentID))
	svc.event(ctx, "component", componentID, "delete")
	return nil
}

// MoveComponent repositions a component within its page's draft.
func (svc *Service) MoveComponent(ctx context.Context, componentID string, position int) (*Component, error) {
	svc.saveMu.Lock()
	defer svc.saveMu.Unlock()
	c, err := svc.tree.MoveComponent(componentID, position)
	if err != nil {
		return nil, err
	}
	if err := svc.persist(ctx); err != nil {
		return nil, err
	}
	svc.auditLog(ctx, "move_component", fmt.Sprintf(`{"component_id":%q,"position":%d}`, componentID, c.Position))
	svc.event(ctx, "component", componentID, "move")
	return c, nil
}

// ListComponents returns the page's draft components in order.
func (svc *Service) ListComponents(_ context.Context, pageID string) ([]*Component, error) {
	return svc.tree.ListComponents(pageID)
}

// --- Versioning ---

// GetDraftContent returns the page's current draft component list.
func (svc *Service) GetDraftContent(_ context.Context, pageID string) ([]*Component, error) {
	return svc.tree.Draft(pageID)
}

// GetPublishedContent returns the page's last published snapshot. A page
// never published yields an empty list, not an error.
func (svc *Service) GetPublishedContent(_ context.Context, pageID string) ([]*Component, error) {
	return svc.tree.Published(pageID)
}

// PublishDraft deep-copies the current draft into the published snapshot.
// The draft is left as-is: further edits continue from the same state.
func (svc *Service) PublishDraft(ctx context.Context, pageID string) error {
	svc.saveMu.Lock()
	defer svc.saveMu.Unlock()
	if err := svc.tree.Publish(pageID); err != nil {
		return err
	}
	if err := svc.persist(ctx); err != nil {
		return err
	}
	svc.auditLog(ctx, "publish_draft", fmt.Sprintf(`{"page_id":%q}`, pageID))
	svc.event(ctx, "page", pageID, "publish")
	return nil
}

// DiscardDraft replaces the draft with a copy of the published snapshot
// (or empties it if never published). Idempotent.
func (svc *Service) DiscardDraft(ctx context.Context, pageID string) error {
	svc.saveMu.Lock()
	defer svc.saveMu.Unlock()
	if err := svc.tree.DiscardDraft(pageID); err != nil {
		return err
	}
	if err := svc.persist(ctx); err != nil {
		return err
	}
	svc.auditLog(ctx, "discard_draft", fmt.Sprintf(`{"page_id":%q}`, pageID))
	svc.event(ctx, "page", pageID, "discard")
	return nil
}
