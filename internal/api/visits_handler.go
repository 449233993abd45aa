package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/door2door/fieldvisits/internal/core/domain"
	apperrors "github.com/door2door/fieldvisits/internal/pkg/errors"
)

// VisitsHandler serves /api/visits
type VisitsHandler struct {
	svc    VisitService
	logger *slog.Logger
}

// NewVisitsHandler creates the handler
func NewVisitsHandler(svc VisitService, log *slog.Logger) *VisitsHandler {
	if log == nil {
		log = slog.Default()
	}
	return &VisitsHandler{svc: svc, logger: log}
}

// RegisterRoutes mounts the visit routes behind mw
func (h *VisitsHandler) RegisterRoutes(r chi.Router, mw ...func(http.Handler) http.Handler) {
	r.Route("/api/visits", func(r chi.Router) {
		r.Use(mw...)
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Put("/", h.Update)
		r.Get("/{id}", h.Get)
		r.Delete("/{id}", h.Delete)
	})
}

// List returns a page of visits
func (h *VisitsHandler) List(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1)
	limit := queryInt(r, "limit", 10)

	result, err := h.svc.List(r.Context(), page, limit)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"visits":  result.Visits,
		"pagination": map[string]interface{}{
			"currentPage": result.CurrentPage,
			"totalPages":  result.TotalPages,
			"totalVisits": result.TotalVisits,
			"hasNextPage": result.HasNextPage,
			"hasPrevPage": result.HasPrevPage,
		},
	})
}

// Create stores a new visit. A body carrying an id updates instead.
func (h *VisitsHandler) Create(w http.ResponseWriter, r *http.Request) {
	h.save(w, r, false)
}

// Update stores changes to an existing visit
func (h *VisitsHandler) Update(w http.ResponseWriter, r *http.Request) {
	h.save(w, r, true)
}

func (h *VisitsHandler) save(w http.ResponseWriter, r *http.Request, requireID bool) {
	var payload domain.VisitPayload
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, h.logger, err)
		return
	}
	if requireID && payload.ID == "" {
		writeError(w, h.logger, apperrors.BadRequest("Visit ID is required"))
		return
	}

	out, err := h.svc.Save(r.Context(), payload)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	status := http.StatusOK
	if out.Created {
		status = http.StatusCreated
	}
	JSON(w, status, domain.SaveResult{Success: true, VisitID: out.Visit.ID.String()})
}

// Get returns one visit
func (h *VisitsHandler) Get(w http.ResponseWriter, r *http.Request) {
	visit, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	JSON(w, http.StatusOK, map[string]interface{}{"success": true, "visit": visit})
}

// Delete removes one visit
func (h *VisitsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, h.logger, err)
		return
	}
	JSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

func queryInt(r *http.Request, key string, fallback int) int {
	n, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return fallback
	}
	return n
}
