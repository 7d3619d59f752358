// Package handlers exposes the lineage traversal engine over HTTP.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	app "github.com/turtacn/keyip-lineage/internal/application/lineage"
	domain "github.com/turtacn/keyip-lineage/internal/domain/lineage"
	"github.com/turtacn/keyip-lineage/pkg/errors"
)

// LineageHandler exposes getLineage and its supplemented siblings
// (GetLineageCounts, ImpactSummary) over HTTP.
type LineageHandler struct {
	service *app.Service
}

// NewLineageHandler wraps an application Service.
func NewLineageHandler(service *app.Service) *LineageHandler {
	return &LineageHandler{service: service}
}

// lineageRequestBody is the JSON body accepted by POST /api/v1/lineage,
// mirroring getLineage's external signature (spec.md's external
// interfaces contract): rootUrn, direction, graphFilters, offset, count,
// maxHops, and the optional startMs/endMs time-range bound.
type lineageRequestBody struct {
	RootUrn            string   `json:"rootUrn"`
	RootEntityType     string   `json:"rootEntityType"`
	Direction          string   `json:"direction"`
	AllowedEntityTypes []string `json:"allowedEntityTypes,omitempty"`
	Offset             int      `json:"offset"`
	Count              int      `json:"count"`
	MaxHops            int      `json:"maxHops"`
	StartMs            *int64   `json:"startMs,omitempty"`
	EndMs              *int64   `json:"endMs,omitempty"`
}

func (b lineageRequestBody) toRequest() (app.Request, error) {
	if b.RootUrn == "" || b.RootEntityType == "" {
		return app.Request{}, errors.InvalidFilterCondition("rootUrn and rootEntityType are required")
	}
	dir, err := parseDirection(b.Direction)
	if err != nil {
		return app.Request{}, err
	}
	maxHops := b.MaxHops
	if maxHops <= 0 {
		maxHops = 1
	}
	return app.Request{
		Root:      domain.NewUrn(b.RootUrn, b.RootEntityType),
		Direction: dir,
		Filters:   domain.GraphFilters{AllowedEntityTypes: b.AllowedEntityTypes},
		MaxHops:   maxHops,
		Offset:    b.Offset,
		Count:     b.Count,
		StartMs:   b.StartMs,
		EndMs:     b.EndMs,
	}, nil
}

func parseDirection(s string) (domain.Direction, error) {
	switch domain.Direction(s) {
	case domain.Upstream:
		return domain.Upstream, nil
	case domain.Downstream:
		return domain.Downstream, nil
	default:
		return "", errors.InvalidFilterCondition("direction must be UPSTREAM or DOWNSTREAM")
	}
}

// lineageResponseBody mirrors domain.Result for JSON serialization.
type lineageResponseBody struct {
	Total         int                             `json:"total"`
	Relationships []*domain.LineageRelationship `json:"relationships"`
	TimedOut      bool                            `json:"timedOut"`
}

// GetLineage handles POST /api/v1/lineage: runs a full traversal and
// returns the paginated relationship set.
func (h *LineageHandler) GetLineage(w http.ResponseWriter, r *http.Request) {
	var body lineageRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, errors.InvalidFilterCondition("malformed request body"))
		return
	}

	req, err := body.toRequest()
	if err != nil {
		writeAppError(w, err)
		return
	}

	result, err := h.service.GetLineage(r.Context(), req)
	if err != nil {
		writeAppError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, lineageResponseBody{
		Total:         result.Total,
		Relationships: result.Relationships,
		TimedOut:      result.TimedOut,
	})
}

// GetLineageCounts handles GET /api/v1/lineage/counts?rootUrn=&rootEntityType=&direction=&maxHops=.
func (h *LineageHandler) GetLineageCounts(w http.ResponseWriter, r *http.Request) {
	req, err := requestFromQuery(r)
	if err != nil {
		writeAppError(w, err)
		return
	}

	total, err := h.service.GetLineageCounts(r.Context(), req)
	if err != nil {
		writeAppError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]int{"total": total})
}

// GetImpactSummary handles GET /api/v1/lineage/impact?rootUrn=&rootEntityType=&direction=&maxHops=,
// grouping every reached entity by entityType.
func (h *LineageHandler) GetImpactSummary(w http.ResponseWriter, r *http.Request) {
	req, err := requestFromQuery(r)
	if err != nil {
		writeAppError(w, err)
		return
	}

	counts, err := h.service.ImpactSummary(r.Context(), req.Root, req.Direction, req.Filters, req.MaxHops)
	if err != nil {
		writeAppError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, counts)
}

func requestFromQuery(r *http.Request) (app.Request, error) {
	q := r.URL.Query()
	rootUrn := q.Get("rootUrn")
	rootType := q.Get("rootEntityType")
	if rootUrn == "" || rootType == "" {
		return app.Request{}, errors.InvalidFilterCondition("rootUrn and rootEntityType query parameters are required")
	}

	dir, err := parseDirection(q.Get("direction"))
	if err != nil {
		return app.Request{}, err
	}

	maxHops := 1
	if v := q.Get("maxHops"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			maxHops = n
		}
	}

	return app.Request{
		Root:      domain.NewUrn(rootUrn, rootType),
		Direction: dir,
		MaxHops:   maxHops,
	}, nil
}

// RegisterRoutes mounts the lineage endpoints on r under /lineage.
func (h *LineageHandler) RegisterRoutes(r chi.Router) {
	r.Route("/lineage", func(lr chi.Router) {
		lr.Post("/", h.GetLineage)
		lr.Get("/counts", h.GetLineageCounts)
		lr.Get("/impact", h.GetImpactSummary)
	})
}
