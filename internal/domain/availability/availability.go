// Package availability answers whether a restaurant is open on a weekday.
package availability

import (
	"time"

	"github.com/okian/mealspin/internal/domain/model"
)

// IsOpen reports whether schedule is open at some point on day.
//
// Only day-level closure is considered. A nil schedule or a missing day entry
// counts as open so restaurants without hours are not dropped from
// suggestions.
func IsOpen(schedule model.WeeklySchedule, day time.Weekday) bool {
	ds, ok := schedule.Day(day)
	if !ok {
		return true
	}
	return !ds.IsClosed
}

// OpenOn returns the items open on day, preserving order.
func OpenOn(items []model.Item, day time.Weekday) []model.Item {
	open := make([]model.Item, 0, len(items))
	for _, item := range items {
		if IsOpen(item.Schedule, day) {
			open = append(open, item)
		}
	}
	return open
}
