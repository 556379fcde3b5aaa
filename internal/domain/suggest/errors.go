package suggest

import (
	"errors"

	"github.com/okian/mealspin/internal/domain/model"
)

// Sentinel error kinds for this package.
var (
	ErrInvalidUser = errors.New("invalid user id")
	// ErrInvalidItemType is the model sentinel, so adapters and the engine
	// report the same error.
	ErrInvalidItemType = model.ErrInvalidItemType
	ErrInvalidItemID   = errors.New("invalid item id")
	ErrInvalidCount    = errors.New("invalid count")
)
