package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/okian/mealspin/internal/domain/model"
	"github.com/okian/mealspin/pkg/metrics"
)

//go:embed schema.sql
var schemaSQL string

const (
	storePostgres = "postgres"

	pqUniqueViolation = "23505"

	defaultMaxOpenConns = 10
)

// PostgresStore serves catalog, history and preferences from PostgreSQL.
type PostgresStore struct {
	db  *sql.DB
	now func() time.Time
}

// PostgresOption configures a PostgresStore.
type PostgresOption func(*PostgresStore)

// WithPostgresClock overrides the clock used to evaluate recency windows.
func WithPostgresClock(now func() time.Time) PostgresOption {
	return func(s *PostgresStore) {
		if now != nil {
			s.now = now
		}
	}
}

// ConnectPostgres opens a lib/pq connection pool for dsn and verifies it.
func ConnectPostgres(ctx context.Context, dsn string, opts ...PostgresOption) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(defaultMaxOpenConns)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return NewPostgresStore(db, opts...), nil
}

// NewPostgresStore wraps an existing database handle.
func NewPostgresStore(db *sql.DB, opts ...PostgresOption) *PostgresStore {
	s := &PostgresStore{db: db, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Migrate creates the tables the store needs if they are missing.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// QueryItems returns up to limit of the user's items of itemType matching filters.
func (s *PostgresStore) QueryItems(ctx context.Context, userID string, itemType model.ItemType, filters model.Filters, limit int) ([]model.Item, error) {
	defer observePostgres("query_items", time.Now())
	if limit <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLimit, limit)
	}
	if !itemType.Valid() {
		return nil, fmt.Errorf("%w: %q", model.ErrInvalidItemType, itemType)
	}

	query, args := buildItemQuery(userID, itemType, filters, limit)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", itemType, err)
	}
	defer rows.Close()

	out := make([]model.Item, 0)
	for rows.Next() {
		var (
			item     = model.Item{Type: itemType}
			rating   sql.NullFloat64
			schedule []byte
		)
		if err := rows.Scan(&item.ID, &item.Name, &item.Description, &item.Cuisine, &item.IsFavorite,
			&item.DifficultyLevel, &item.PrepTimeMinutes, &rating, &item.PriceRange, &schedule, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan %s: %w", itemType, err)
		}
		if rating.Valid {
			item.Rating = model.Float64Ptr(rating.Float64)
		}
		if len(schedule) > 0 {
			// Malformed hours are dropped so the restaurant still counts as open.
			var ws model.WeeklySchedule
			if json.Unmarshal(schedule, &ws) == nil {
				item.Schedule = ws
			}
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", itemType, err)
	}
	return out, nil
}

// RecentItemIDs returns ids of itemType the user selected within the last days days.
func (s *PostgresStore) RecentItemIDs(ctx context.Context, userID string, itemType model.ItemType, days int) (map[string]struct{}, error) {
	defer observePostgres("recent_item_ids", time.Now())
	ids := make(map[string]struct{})
	if days <= 0 {
		return ids, nil
	}
	since := s.now().Add(-time.Duration(days) * day)

	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT item_id FROM selection_history
		 WHERE user_id = $1 AND item_type = $2 AND selected_at >= $3`,
		userID, string(itemType), since)
	if err != nil {
		return nil, fmt.Errorf("recent ids: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan recent id: %w", err)
		}
		ids[id] = struct{}{}
	}
	return ids, rows.Err()
}

// AppendSelection inserts rec. A reused record id is reported as
// ErrDuplicateSelection.
func (s *PostgresStore) AppendSelection(ctx context.Context, rec model.SelectionRecord) error {
	defer observePostgres("append_selection", time.Now())
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO selection_history (id, user_id, item_type, item_id, selected_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		rec.ID, rec.UserID, string(rec.ItemType), rec.ItemID, rec.SelectedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			return fmt.Errorf("%w: %s", ErrDuplicateSelection, rec.ID)
		}
		return fmt.Errorf("insert selection: %w", err)
	}
	return nil
}

// MostSelected returns per-item counts of itemType, highest first, ties by item id.
func (s *PostgresStore) MostSelected(ctx context.Context, userID string, itemType model.ItemType, limit int) ([]model.SelectionCount, error) {
	defer observePostgres("most_selected", time.Now())
	if limit <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLimit, limit)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT item_id, COUNT(*) FROM selection_history
		 WHERE user_id = $1 AND item_type = $2
		 GROUP BY item_id ORDER BY COUNT(*) DESC, item_id LIMIT $3`,
		userID, string(itemType), limit)
	if err != nil {
		return nil, fmt.Errorf("most selected: %w", err)
	}
	defer rows.Close()

	out := make([]model.SelectionCount, 0, limit)
	for rows.Next() {
		c := model.SelectionCount{ItemType: itemType}
		if err := rows.Scan(&c.ItemID, &c.Count); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// RecentSelections returns the user's latest selections, newest first.
func (s *PostgresStore) RecentSelections(ctx context.Context, userID string, limit int) ([]model.SelectionRecord, error) {
	defer observePostgres("recent_selections", time.Now())
	if limit <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLimit, limit)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, item_type, item_id, selected_at FROM selection_history
		 WHERE user_id = $1 ORDER BY selected_at DESC LIMIT $2`,
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("recent selections: %w", err)
	}
	defer rows.Close()

	out := make([]model.SelectionRecord, 0, limit)
	for rows.Next() {
		var rec model.SelectionRecord
		var itemType string
		if err := rows.Scan(&rec.ID, &rec.UserID, &itemType, &rec.ItemID, &rec.SelectedAt); err != nil {
			return nil, fmt.Errorf("scan selection: %w", err)
		}
		rec.ItemType = model.ItemType(itemType)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Preferences returns the stored preferences, or the zero value for unknown users.
func (s *PostgresStore) Preferences(ctx context.Context, userID string) (model.Preferences, error) {
	defer observePostgres("preferences", time.Now())
	var (
		mealCount, legacyCount, maxPrep     sql.NullInt64
		kind, cuisine, difficulty, priceRng sql.NullString
		minRating                           sql.NullFloat64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT meal_suggestion_count, suggestion_count, preferred_suggestion_type,
		        preferred_cuisine_type, preferred_difficulty_level, preferred_price_range,
		        max_prep_time, min_rating
		 FROM user_preferences WHERE user_id = $1`, userID).
		Scan(&mealCount, &legacyCount, &kind, &cuisine, &difficulty, &priceRng, &maxPrep, &minRating)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Preferences{}, nil
	}
	if err != nil {
		return model.Preferences{}, fmt.Errorf("load preferences: %w", err)
	}

	var p model.Preferences
	p.MealSuggestionCount = nullInt(mealCount)
	p.SuggestionCount = nullInt(legacyCount)
	p.MaxPrepTime = nullInt(maxPrep)
	p.PreferredCuisineType = nullString(cuisine)
	p.PreferredDifficultyLevel = nullString(difficulty)
	p.PreferredPriceRange = nullString(priceRng)
	if kind.Valid {
		t := model.SuggestionPreference(kind.String)
		p.PreferredSuggestionType = &t
	}
	if minRating.Valid {
		p.MinRating = model.Float64Ptr(minRating.Float64)
	}
	return p, nil
}

// Stats reports row counts across all users.
func (s *PostgresStore) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	err := s.db.QueryRowContext(ctx,
		`SELECT (SELECT COUNT(*) FROM meals),
		        (SELECT COUNT(*) FROM restaurants),
		        (SELECT COUNT(*) FROM selection_history)`).
		Scan(&st.Meals, &st.Restaurants, &st.Selections)
	if err != nil {
		return Stats{}, fmt.Errorf("stats: %w", err)
	}
	return st, nil
}

// Close closes the connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func nullInt(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}

func nullString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func observePostgres(op string, start time.Time) {
	metrics.RecordRepositoryQuery(storePostgres, op, float64(time.Since(start).Microseconds())/1000)
}
