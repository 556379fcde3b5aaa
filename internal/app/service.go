// Package service wires configuration, stores and the suggestion engine into
// the dependency bundle the HTTP API consumes.
package service

import (
	"context"
	"fmt"
	"sync"

	repository "github.com/okian/mealspin/internal/adapters/repository"
	"github.com/okian/mealspin/internal/config"
	"github.com/okian/mealspin/internal/domain/dedupe"
	"github.com/okian/mealspin/internal/domain/model"
	"github.com/okian/mealspin/internal/domain/sampling"
	"github.com/okian/mealspin/internal/domain/suggest"
	"github.com/okian/mealspin/pkg/logger"
	"github.com/okian/mealspin/pkg/metrics"
)

// Service implements the API dependencies for the suggestion system.
type Service struct {
	mu sync.RWMutex

	cfg *config.Config

	// Core components
	store   repository.Store
	engine  *suggest.Engine
	deduper dedupe.Deduper

	// injected before Start; the service then does not own its lifecycle
	externalStore bool
	engineOpts    []suggest.Option

	started bool
	logger  logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithStore injects a ready store instead of building one from config.
// The caller keeps ownership and closes it.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
			s.externalStore = true
		}
	}
}

// WithEngineOptions appends engine options after the config-derived ones.
func WithEngineOptions(opts ...suggest.Option) Option {
	return func(s *Service) {
		s.engineOpts = append(s.engineOpts, opts...)
	}
}

// New constructs a Service. A nil cfg uses config.New().
func New(cfg *config.Config, opts ...Option) *Service {
	if cfg == nil {
		cfg = config.New()
	}
	s := &Service{cfg: cfg}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start builds the store, the engine and the idempotency cache.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting suggestion service...", logger.String("store", s.cfg.Store))

	loc, err := s.cfg.Location()
	if err != nil {
		return err
	}

	if s.store == nil {
		store, err := s.openStore(ctx)
		if err != nil {
			return err
		}
		s.store = store
	}

	engineOpts := []suggest.Option{
		suggest.WithRand(sampling.NewLockedRand(s.cfg.RandSeed)),
		suggest.WithLocation(loc),
		suggest.WithCandidateLimit(s.cfg.CandidateLimit),
		suggest.WithDefaultExcludeDays(s.cfg.DefaultExcludeDays),
		suggest.WithLogger(s.logger.Named("suggest")),
	}
	s.engine = suggest.New(s.store, s.store, s.store, append(engineOpts, s.engineOpts...)...)
	if s.deduper == nil {
		s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.cfg.IdempotencyCacheSize))
	}

	s.started = true
	s.logger.Info(ctx, "suggestion service started",
		logger.String("timezone", loc.String()),
		logger.Int("candidateLimit", s.cfg.CandidateLimit),
		logger.Int("defaultExcludeDays", s.cfg.DefaultExcludeDays),
		logger.Int("idempotencyCacheSize", s.cfg.IdempotencyCacheSize),
	)
	return nil
}

func (s *Service) openStore(ctx context.Context) (repository.Store, error) {
	switch s.cfg.Store {
	case repository.KindMemory:
		store := repository.NewMemoryStore(ctx)
		if s.cfg.CatalogFile != "" {
			if err := store.LoadCatalogFile(s.cfg.CatalogFile); err != nil {
				_ = store.Close()
				return nil, fmt.Errorf("load catalog: %w", err)
			}
			s.logger.Info(ctx, "catalog loaded", logger.String("file", s.cfg.CatalogFile))
		}
		return store, nil
	case repository.KindPostgres:
		store, err := repository.ConnectPostgres(ctx, s.cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := store.Migrate(ctx); err != nil {
			_ = store.Close()
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("%w: %q", repository.ErrUnknownStore, s.cfg.Store)
	}
}

// Stop releases the store. It is safe to call more than once.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(context.Background(), "stopping suggestion service...")

	if s.store != nil && !s.externalStore {
		if err := s.store.Close(); err != nil {
			s.logger.Warn(context.Background(), "failed to close store", logger.Error(err))
		}
		s.store = nil
	}

	s.started = false
	s.logger.Info(context.Background(), "suggestion service stopped")
}

func (s *Service) running() (*suggest.Engine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, ErrNotStarted
	}
	return s.engine, nil
}

// DefaultOptions returns the engine's request defaults.
func (s *Service) DefaultOptions() suggest.Options {
	engine, err := s.running()
	if err != nil {
		opts := suggest.DefaultOptions()
		opts.ExcludeRecentDays = s.cfg.DefaultExcludeDays
		return opts
	}
	return engine.DefaultOptions()
}

// PickSuggestion returns one meal or restaurant for userID.
func (s *Service) PickSuggestion(ctx context.Context, userID string, opts suggest.Options) (*model.Suggestion, error) {
	engine, err := s.running()
	if err != nil {
		return nil, err
	}
	return engine.PickSuggestion(ctx, userID, opts)
}

// PickRandomMeal returns one meal for userID.
func (s *Service) PickRandomMeal(ctx context.Context, userID string, excludeRecentDays int, weightFavorites bool, filters model.Filters) (*model.Item, error) {
	engine, err := s.running()
	if err != nil {
		return nil, err
	}
	return engine.PickRandomMeal(ctx, userID, excludeRecentDays, weightFavorites, filters)
}

// PickRandomRestaurant returns one restaurant for userID.
func (s *Service) PickRandomRestaurant(ctx context.Context, userID string, excludeRecentDays int, weightFavorites bool, filters model.Filters) (*model.Item, error) {
	engine, err := s.running()
	if err != nil {
		return nil, err
	}
	return engine.PickRandomRestaurant(ctx, userID, excludeRecentDays, weightFavorites, filters)
}

// PickMultipleSuggestions returns several meals and one restaurant.
func (s *Service) PickMultipleSuggestions(ctx context.Context, userID string, opts suggest.Options) ([]model.Suggestion, error) {
	engine, err := s.running()
	if err != nil {
		return nil, err
	}
	return engine.PickMultipleSuggestions(ctx, userID, opts)
}

// PickTimeBasedSuggestion returns a suggestion fitting the local hour.
func (s *Service) PickTimeBasedSuggestion(ctx context.Context, userID string) (*model.Suggestion, error) {
	engine, err := s.running()
	if err != nil {
		return nil, err
	}
	return engine.PickTimeBasedSuggestion(ctx, userID)
}

// PickDiverseSuggestions returns count suggestions spread across cuisines.
func (s *Service) PickDiverseSuggestions(ctx context.Context, userID string, count int) ([]*model.Suggestion, error) {
	engine, err := s.running()
	if err != nil {
		return nil, err
	}
	return engine.PickDiverseSuggestions(ctx, userID, count)
}

// GetPersonalizedSuggestions lists the user's newest preference-matching items.
func (s *Service) GetPersonalizedSuggestions(ctx context.Context, userID string, limit int) (suggest.Personalized, error) {
	engine, err := s.running()
	if err != nil {
		return suggest.Personalized{}, err
	}
	return engine.GetPersonalizedSuggestions(ctx, userID, limit)
}

// SelectionInsights summarizes the user's history.
func (s *Service) SelectionInsights(ctx context.Context, userID string, limit int) (suggest.Insights, error) {
	engine, err := s.running()
	if err != nil {
		return suggest.Insights{}, err
	}
	return engine.SelectionInsights(ctx, userID, limit)
}

// RecordSelection appends a pick to the user's history.
func (s *Service) RecordSelection(ctx context.Context, userID string, itemType model.ItemType, itemID string) (model.SelectionRecord, error) {
	engine, err := s.running()
	if err != nil {
		return model.SelectionRecord{}, err
	}
	return engine.RecordSelection(ctx, userID, itemType, itemID)
}

// SeenAndRecord atomically checks if a request id was seen and records it if not.
// Returns true if the id was already seen.
func (s *Service) SeenAndRecord(ctx context.Context, id string) bool {
	return s.dedupe().SeenAndRecord(ctx, id)
}

// Unrecord forgets a request id so the request can be retried.
func (s *Service) Unrecord(ctx context.Context, id string) {
	s.dedupe().Unrecord(ctx, id)
}

// Complete stores the outcome of a request id.
func (s *Service) Complete(ctx context.Context, id string, rec model.SelectionRecord) {
	s.dedupe().Complete(ctx, id, rec)
}

// Lookup returns the stored outcome of a completed request id.
func (s *Service) Lookup(ctx context.Context, id string) (model.SelectionRecord, bool) {
	return s.dedupe().Lookup(ctx, id)
}

// Size returns the current number of remembered request ids.
func (s *Service) Size() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.deduper == nil {
		return 0
	}
	return s.deduper.Size()
}

func (s *Service) dedupe() dedupe.Deduper {
	s.mu.Lock()
	defer s.mu.Unlock()
	// lazily created so idempotency works before Start in tests
	if s.deduper == nil {
		s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.cfg.IdempotencyCacheSize))
	}
	return s.deduper
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":            s.started,
		"store":              s.cfg.Store,
		"timezone":           s.cfg.Timezone,
		"candidateLimit":     s.cfg.CandidateLimit,
		"defaultExcludeDays": s.cfg.DefaultExcludeDays,
	}
	if s.deduper != nil {
		stats["idempotencyKeys"] = s.deduper.Size()
	}

	if s.started && s.store != nil {
		st, err := s.store.Stats(context.Background())
		if err != nil {
			s.logger.Warn(context.Background(), "failed to read store stats", logger.Error(err))
			return stats
		}
		stats["meals"] = st.Meals
		stats["restaurants"] = st.Restaurants
		stats["selections"] = st.Selections

		metrics.UpdateRepositoryItems(model.ItemTypeMeal.String(), st.Meals)
		metrics.UpdateRepositoryItems(model.ItemTypeRestaurant.String(), st.Restaurants)
		metrics.UpdateRepositorySelections(st.Selections)
	}

	return stats
}
