// CLAUDE:SUMMARY Chi JSON API: decode → Service call → encode, with the errors.Is → status mapping.
package site

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hazyhaar/arbo/kit"
	"github.com/hazyhaar/arbo/observability"
)

// RegisterHTTP mounts the JSON API under /api on a chi router. The
// handlers contain no engine logic: decode, call the Service, encode.
func (svc *Service) RegisterHTTP(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Use(kit.Tag("http", newRequestID))
		r.Use(svc.timeRequests)
		r.Route("/pages", func(r chi.Router) {
			r.Get("/", svc.handleListPages)
			r.Post("/", svc.handleCreatePage)

			r.Route("/{pageID}", func(r chi.Router) {
				r.Get("/", svc.handleGetPage)
				r.Put("/", svc.handleUpdatePage)
				r.Delete("/", svc.handleDeletePage)
				r.Post("/move", svc.handleMovePage)
				r.Get("/breadcrumbs", svc.handleBreadcrumbs)

				r.Get("/components", svc.handleListComponents)
				r.Post("/components", svc.handleCreateComponent)

				r.Get("/draft", svc.handleDraftContent)
				r.Get("/published", svc.handlePublishedContent)
				r.Post("/publish", svc.handlePublishDraft)
				r.Post("/discard", svc.handleDiscardDraft)
				r.Post("/import", svc.handleImportHTML)
			})
		})

		r.Route("/components/{componentID}", func(r chi.Router) {
			r.Get("/", svc.handleGetComponent)
			r.Put("/", svc.handleUpdateComponent)
			r.Delete("/", svc.handleDeleteComponent)
			r.Post("/move", svc.handleMoveComponent)
		})

		r.Get("/resolve", svc.handleResolvePath)
		r.Get("/search", svc.handleSearchPages)
		r.Get("/stats", svc.handleStats)
	})
}

// timeRequests records one duration metric per matched route pattern.
func (svc *Service) timeRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if svc.metrics == nil {
			next.ServeHTTP(w, r)
			return
		}
		start := time.Now()
		next.ServeHTTP(w, r)
		svc.metrics.Record(&observability.Metric{
			Name:      observability.MetricHTTPRequestDurationMs,
			Timestamp: svc.clock(),
			Value:     float64(time.Since(start).Milliseconds()),
			Labels: map[string]string{
				"route":  chi.RouteContext(r.Context()).RoutePattern(),
				"method": r.Method,
			},
			Unit: "milliseconds",
		})
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, ErrStatus(err), map[string]string{"error": err.Error()})
}

// --- pages ---

func (svc *Service) handleListPages(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, svc.ListPages(r.Context()))
}

func (svc *Service) handleCreatePage(w http.ResponseWriter, r *http.Request) {
	var req createPageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	p, err := svc.CreatePage(r.Context(), req.ParentPageID, req.Title, req.Slug, req.Template, req.Description, posOrAppend(req.Position))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (svc *Service) handleGetPage(w http.ResponseWriter, r *http.Request) {
	p, err := svc.GetPage(r.Context(), chi.URLParam(r, "pageID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (svc *Service) handleUpdatePage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title       *string `json:"title"`
		Template    *string `json:"template"`
		Description *string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	p, err := svc.UpdatePage(r.Context(), chi.URLParam(r, "pageID"), req.Title, req.Template, req.Description)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (svc *Service) handleDeletePage(w http.ResponseWriter, r *http.Request) {
	if err := svc.DeletePage(r.Context(), chi.URLParam(r, "pageID")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (svc *Service) handleMovePage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		NewParentID string `json:"new_parent_id"`
		Position    *int   `json:"position"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	p, err := svc.MovePage(r.Context(), chi.URLParam(r, "pageID"), req.NewParentID, posOrAppend(req.Position))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (svc *Service) handleBreadcrumbs(w http.ResponseWriter, r *http.Request) {
	trail, err := svc.Breadcrumbs(r.Context(), chi.URLParam(r, "pageID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, trail)
}

func (svc *Service) handleResolvePath(w http.ResponseWriter, r *http.Request) {
	p, err := svc.GetPageByPath(r.Context(), r.URL.Query().Get("path"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (svc *Service) handleSearchPages(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results := svc.SearchPages(r.Context(), r.URL.Query().Get("q"), limit)
	writeJSON(w, http.StatusOK, results)
}

func (svc *Service) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, svc.Stats(r.Context()))
}

// --- components ---

func (svc *Service) handleListComponents(w http.ResponseWriter, r *http.Request) {
	list, err := svc.ListComponents(r.Context(), chi.URLParam(r, "pageID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (svc *Service) handleCreateComponent(w http.ResponseWriter, r *http.Request) {
	var req createComponentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	c, err := svc.CreateComponent(r.Context(), chi.URLParam(r, "pageID"), req.Title, req.Body, req.Template, req.Type, posOrAppend(req.Position))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (svc *Service) handleGetComponent(w http.ResponseWriter, r *http.Request) {
	c, err := svc.GetComponent(r.Context(), chi.URLParam(r, "componentID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (svc *Service) handleUpdateComponent(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title    *string `json:"title"`
		Body     *string `json:"body"`
		Template *string `json:"template"`
		Type     *string `json:"type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	c, err := svc.UpdateComponent(r.Context(), chi.URLParam(r, "componentID"), req.Title, req.Body, req.Template, req.Type)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (svc *Service) handleDeleteComponent(w http.ResponseWriter, r *http.Request) {
	if err := svc.DeleteComponent(r.Context(), chi.URLParam(r, "componentID")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (svc *Service) handleMoveComponent(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Position int `json:"position"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	c, err := svc.MoveComponent(r.Context(), chi.URLParam(r, "componentID"), req.Position)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// --- versioning ---

func (svc *Service) handleDraftContent(w http.ResponseWriter, r *http.Request) {
	list, err := svc.GetDraftContent(r.Context(), chi.URLParam(r, "pageID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (svc *Service) handlePublishedContent(w http.ResponseWriter, r *http.Request) {
	list, err := svc.GetPublishedContent(r.Context(), chi.URLParam(r, "pageID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (svc *Service) handlePublishDraft(w http.ResponseWriter, r *http.Request) {
	if err := svc.PublishDraft(r.Context(), chi.URLParam(r, "pageID")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "published"})
}

func (svc *Service) handleDiscardDraft(w http.ResponseWriter, r *http.Request) {
	if err := svc.DiscardDraft(r.Context(), chi.URLParam(r, "pageID")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "discarded"})
}

func (svc *Service) handleImportHTML(w http.ResponseWriter, r *http.Request) {
	var req struct {
		HTML string `json:"html"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	created, err := svc.ImportHTML(r.Context(), chi.URLParam(r, "pageID"), req.HTML)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}
