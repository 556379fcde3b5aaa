// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/okian/mealspin/internal/domain/dedupe"
	"github.com/okian/mealspin/internal/domain/model"
	"github.com/okian/mealspin/internal/domain/suggest"
	"github.com/okian/mealspin/internal/validation"
)

// HeaderUserID carries the caller's user id on every suggestion and
// selection request.
const HeaderUserID = "X-User-ID"

// HeaderReplay is set on POST /selections responses served from the
// idempotency cache.
const HeaderReplay = "Idempotent-Replay"

// Default caps for list endpoints.
const (
	defaultMaxPersonalizedLimit = 50
	defaultMaxDiverseCount      = 10
)

// Suggester is the engine surface the handlers call.
type Suggester interface {
	DefaultOptions() suggest.Options
	PickSuggestion(ctx context.Context, userID string, opts suggest.Options) (*model.Suggestion, error)
	PickRandomMeal(ctx context.Context, userID string, excludeRecentDays int, weightFavorites bool, filters model.Filters) (*model.Item, error)
	PickRandomRestaurant(ctx context.Context, userID string, excludeRecentDays int, weightFavorites bool, filters model.Filters) (*model.Item, error)
	PickMultipleSuggestions(ctx context.Context, userID string, opts suggest.Options) ([]model.Suggestion, error)
	PickTimeBasedSuggestion(ctx context.Context, userID string) (*model.Suggestion, error)
	PickDiverseSuggestions(ctx context.Context, userID string, count int) ([]*model.Suggestion, error)
	GetPersonalizedSuggestions(ctx context.Context, userID string, limit int) (suggest.Personalized, error)
	SelectionInsights(ctx context.Context, userID string, limit int) (suggest.Insights, error)
	RecordSelection(ctx context.Context, userID string, itemType model.ItemType, itemID string) (model.SelectionRecord, error)
}

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	dedupe.Deduper
	Suggester
}

// ServerOption configures a Server.
type ServerOption func(*serverConfig)

type serverConfig struct {
	maxPersonalizedLimit int
	maxDiverseCount      int
}

// WithMaxPersonalizedLimit caps the limit accepted by personalized listings
// and selection insights.
func WithMaxPersonalizedLimit(n int) ServerOption {
	return func(c *serverConfig) {
		if n > 0 {
			c.maxPersonalizedLimit = n
		}
	}
}

// WithMaxDiverseCount caps the count accepted by diverse suggestions.
func WithMaxDiverseCount(n int) ServerOption {
	return func(c *serverConfig) {
		if n > 0 {
			c.maxDiverseCount = n
		}
	}
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	suggestionsHandler *SuggestionsHandler
	selectionsHandler  *SelectionsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...ServerOption) *Server {
	cfg := serverConfig{
		maxPersonalizedLimit: defaultMaxPersonalizedLimit,
		maxDiverseCount:      defaultMaxDiverseCount,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(statsProvider),
		suggestionsHandler: NewSuggestionsHandler(deps, cfg.maxPersonalizedLimit, cfg.maxDiverseCount),
		selectionsHandler:  NewSelectionsHandler(deps, cfg.maxPersonalizedLimit),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	sh := s.suggestionsHandler
	mux.HandleFunc("/suggestions", MetricsMiddleware(sh.HandleSuggestion, "suggestions"))
	mux.HandleFunc("/suggestions/meal", MetricsMiddleware(sh.HandleMeal, "suggestions_meal"))
	mux.HandleFunc("/suggestions/restaurant", MetricsMiddleware(sh.HandleRestaurant, "suggestions_restaurant"))
	mux.HandleFunc("/suggestions/multiple", MetricsMiddleware(sh.HandleMultiple, "suggestions_multiple"))
	mux.HandleFunc("/suggestions/time", MetricsMiddleware(sh.HandleTimeBased, "suggestions_time"))
	mux.HandleFunc("/suggestions/diverse", MetricsMiddleware(sh.HandleDiverse, "suggestions_diverse"))
	mux.HandleFunc("/suggestions/personalized", MetricsMiddleware(sh.HandlePersonalized, "suggestions_personalized"))

	mux.HandleFunc("/selections", MetricsMiddleware(s.selectionsHandler.HandlePostSelection, "selections"))
	mux.HandleFunc("/selections/insights", MetricsMiddleware(s.selectionsHandler.HandleInsights, "selections_insights"))
}

type errorResponse struct {
	Code    string                  `json:"code"`
	Message string                  `json:"message"`
	Fields  []validation.FieldError `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	resp := errorResponse{Code: code, Message: http.StatusText(status)}
	if err != nil {
		resp.Message = err.Error()
		var verr *validation.Error
		if errors.As(err, &verr) {
			resp.Fields = verr.Fields
		}
	}
	writeJSON(w, status, resp)
}

// writeFailure maps err to a status code and error code.
func writeFailure(w http.ResponseWriter, err error) {
	var verr *validation.Error
	switch {
	case errors.Is(err, ErrUnauthorized), errors.Is(err, suggest.ErrInvalidUser):
		writeError(w, http.StatusUnauthorized, "unauthorized", err)
	case errors.Is(err, ErrLimitExceeded):
		writeError(w, http.StatusBadRequest, "limit_exceeded", err)
	case errors.Is(err, ErrInFlight):
		writeError(w, http.StatusConflict, "in_flight", err)
	case errors.Is(err, ErrReusedRequest):
		writeError(w, http.StatusUnprocessableEntity, "request_id_reused", err)
	case errors.As(err, &verr),
		errors.Is(err, ErrBadRequest),
		errors.Is(err, suggest.ErrInvalidItemType),
		errors.Is(err, suggest.ErrInvalidItemID),
		errors.Is(err, suggest.ErrInvalidCount):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}

// userID returns the trimmed X-User-ID header.
func userID(op string, r *http.Request) (string, error) {
	id := strings.TrimSpace(r.Header.Get(HeaderUserID))
	if id == "" {
		return "", NewKind(op, ErrUnauthorized)
	}
	return id, nil
}
