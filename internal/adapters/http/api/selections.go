// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/mealspin/internal/domain/dedupe"
	"github.com/okian/mealspin/internal/domain/model"
	"github.com/okian/mealspin/internal/domain/suggest"
	"github.com/okian/mealspin/internal/validation"
	"github.com/okian/mealspin/pkg/metrics"
)

// SelectionDependencies defines the interface for selection recording.
type SelectionDependencies interface {
	dedupe.Deduper
	RecordSelection(ctx context.Context, userID string, itemType model.ItemType, itemID string) (model.SelectionRecord, error)
	SelectionInsights(ctx context.Context, userID string, limit int) (suggest.Insights, error)
}

// selectionRequest mirrors the OpenAPI schema for POST /selections.
type selectionRequest struct {
	ItemType  string `json:"item_type" validate:"required,oneof=meal restaurant"`
	ItemID    string `json:"item_id" validate:"required,max=128"`
	RequestID string `json:"request_id,omitempty" validate:"omitempty,max=128"`
}

// SelectionsHandler handles selection requests.
type SelectionsHandler struct {
	deps     SelectionDependencies
	maxLimit int
}

// NewSelectionsHandler creates a new selections handler.
func NewSelectionsHandler(deps SelectionDependencies, maxLimit int) *SelectionsHandler {
	return &SelectionsHandler{deps: deps, maxLimit: maxLimit}
}

// HandlePostSelection handles POST /selections requests.
//
// A request_id makes retries safe: the first request records the pick, a
// retry after completion gets the same record back, and a retry while the
// first is still running gets 409.
func (h *SelectionsHandler) HandlePostSelection(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_selection"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	user, err := userID(op, r)
	if err != nil {
		writeFailure(w, err)
		return
	}
	var req selectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFailure(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := validation.Struct(&req); err != nil {
		writeFailure(w, WrapKind(op, ErrBadRequest, err))
		return
	}

	if req.RequestID == "" {
		rec, err := h.deps.RecordSelection(r.Context(), user, model.ItemType(req.ItemType), req.ItemID)
		if err != nil {
			writeFailure(w, Wrap(op, err))
			return
		}
		writeJSON(w, http.StatusCreated, rec)
		return
	}

	// Keys are scoped per user so ids cannot collide across callers.
	key := user + ":" + req.RequestID
	if h.deps.SeenAndRecord(r.Context(), key) {
		rec, done := h.deps.Lookup(r.Context(), key)
		if !done {
			writeFailure(w, NewKind(op, ErrInFlight))
			return
		}
		if rec.ItemType != model.ItemType(req.ItemType) || rec.ItemID != req.ItemID {
			writeFailure(w, NewKind(op, ErrReusedRequest))
			return
		}
		metrics.RecordIdempotentReplay()
		w.Header().Set(HeaderReplay, "true")
		writeJSON(w, http.StatusOK, rec)
		return
	}

	rec, err := h.deps.RecordSelection(r.Context(), user, model.ItemType(req.ItemType), req.ItemID)
	if err != nil {
		// Rollback so the client can retry with the same request id.
		h.deps.Unrecord(r.Context(), key)
		writeFailure(w, Wrap(op, err))
		return
	}
	h.deps.Complete(r.Context(), key, rec)
	writeJSON(w, http.StatusCreated, rec)
}

// HandleInsights handles GET /selections/insights?limit=N requests.
func (h *SelectionsHandler) HandleInsights(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_insights"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	user, err := userID(op, r)
	if err != nil {
		writeFailure(w, err)
		return
	}
	limit, err := readLimit(op, r.URL.Query(), suggest.DefaultInsightsLimit, h.maxLimit)
	if err != nil {
		writeFailure(w, err)
		return
	}
	in, err := h.deps.SelectionInsights(r.Context(), user, limit)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, in)
}
