package model

import "time"

// SelectionRecord is one immutable entry in a user's pick history.
type SelectionRecord struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	ItemType   ItemType  `json:"item_type"`
	ItemID     string    `json:"item_id"`
	SelectedAt time.Time `json:"selected_at"`
}

// SelectionCount is how often a user picked one item.
type SelectionCount struct {
	ItemType ItemType `json:"item_type"`
	ItemID   string   `json:"item_id"`
	Count    int      `json:"count"`
}
