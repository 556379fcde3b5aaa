package model

import "errors"

// Sentinel error kinds for this package.
var (
	ErrInvalidItemType = errors.New("invalid item type")
	ErrInvalidItem     = errors.New("invalid item")
	ErrInvalidSchedule = errors.New("invalid opening schedule")
)
