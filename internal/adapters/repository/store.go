// Package repository holds the catalog, selection history and preference
// stores the suggestion engine reads from.
package repository

import (
	"context"

	"github.com/okian/mealspin/internal/domain/model"
)

// Store names accepted by configuration.
const (
	KindMemory   = "memory"
	KindPostgres = "postgres"
)

// Stats is a point-in-time size summary of a store.
type Stats struct {
	Meals       int `json:"meals"`
	Restaurants int `json:"restaurants"`
	Selections  int `json:"selections"`
}

// Store serves every collaborator the suggestion engine needs.
type Store interface {
	QueryItems(ctx context.Context, userID string, itemType model.ItemType, filters model.Filters, limit int) ([]model.Item, error)

	RecentItemIDs(ctx context.Context, userID string, itemType model.ItemType, days int) (map[string]struct{}, error)
	AppendSelection(ctx context.Context, rec model.SelectionRecord) error
	MostSelected(ctx context.Context, userID string, itemType model.ItemType, limit int) ([]model.SelectionCount, error)
	RecentSelections(ctx context.Context, userID string, limit int) ([]model.SelectionRecord, error)

	Preferences(ctx context.Context, userID string) (model.Preferences, error)

	// Stats reports store sizes across all users.
	Stats(ctx context.Context) (Stats, error)
	Close() error
}
