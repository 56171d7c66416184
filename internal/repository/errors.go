package repository

import (
	"fmt"

	"github.com/ebfarnell/podcastflow-pro-sub012/internal/domain"
)

// StoreError wraps a driver error so callers can match domain.ErrStoreFailure
// while keeping the original cause for logs.
func StoreError(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: failed to %s: %w", domain.ErrStoreFailure, op, err)
}
