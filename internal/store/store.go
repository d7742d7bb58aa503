// Package store persists the company record set.
package store

import (
	"context"
	"fmt"

	"github.com/sells-group/moverscan/internal/model"
)

// Store is the persistence interface for the company record set.
// LoadAll returns an empty set when no durable store exists yet and a
// *CorruptStoreError when the store exists but cannot be parsed.
// SaveAll writes the full set; a partial write is never observable to a
// concurrent reader.
type Store interface {
	LoadAll(ctx context.Context) ([]model.CompanyRecord, error)
	SaveAll(ctx context.Context, records []model.CompanyRecord) error
	Close() error
}

// CorruptStoreError indicates the durable store exists but could not be
// parsed. Callers log it at error severity and proceed with an empty set
// rather than crash; the next successful save rebuilds the store.
type CorruptStoreError struct {
	Path string
	Err  error
}

func (e *CorruptStoreError) Error() string {
	return fmt.Sprintf("store: corrupt store at %s: %v", e.Path, e.Err)
}

func (e *CorruptStoreError) Unwrap() error { return e.Err }
