// Package store defines the dataset provider boundary.
package store

import (
	"context"

	"go.ngs.io/extract-api/internal/domain"
)

// Provider resolves a dataset identifier to an axis-labelled, variable-bearing
// grid. The returned grid is already normalized and must be treated as
// read-only: implementations may hand the same pointer to concurrent callers.
type Provider interface {
	Fetch(ctx context.Context, datasetID string) (*domain.Grid, error)
}
