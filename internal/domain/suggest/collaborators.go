package suggest

import (
	"context"

	"github.com/okian/mealspin/internal/domain/model"
)

// History is the append-only selection log the engine reads recency and
// frequency from and writes picks to.
type History interface {
	// RecentItemIDs returns ids of itemType the user selected within the last days days.
	RecentItemIDs(ctx context.Context, userID string, itemType model.ItemType, days int) (map[string]struct{}, error)
	// AppendSelection stores rec. Implementations must not deduplicate.
	AppendSelection(ctx context.Context, rec model.SelectionRecord) error
	// MostSelected returns per-item selection counts, highest first.
	MostSelected(ctx context.Context, userID string, itemType model.ItemType, limit int) ([]model.SelectionCount, error)
	// RecentSelections returns the user's latest selections, newest first.
	RecentSelections(ctx context.Context, userID string, limit int) ([]model.SelectionRecord, error)
}

// Catalog lists a user's meals or restaurants.
type Catalog interface {
	QueryItems(ctx context.Context, userID string, itemType model.ItemType, filters model.Filters, limit int) ([]model.Item, error)
}

// PreferenceSource reads a user's stored preferences. A user without stored
// preferences yields the zero value and no error.
type PreferenceSource interface {
	Preferences(ctx context.Context, userID string) (model.Preferences, error)
}
