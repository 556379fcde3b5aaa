package repository

import "errors"

// Sentinel error kinds for this package.
var (
	ErrInvalidLimit       = errors.New("invalid limit")
	ErrInvalidSeed        = errors.New("invalid catalog seed")
	ErrDuplicateSelection = errors.New("selection already recorded")
	ErrUnknownStore       = errors.New("unknown store kind")
)
