package stores

import (
	"errors"

	"gorm.io/gorm"
)

// Sentinel errors for storage facts. Services translate them into lifecycle errors.
var (
	ErrNotFound = errors.New("record not found")
	// ErrStateConflict is returned by UpdateState when the row no longer holds the expected
	// state.
	ErrStateConflict = errors.New("application state conflict")
)

func translateError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
