package repository

import (
	"context"

	"github.com/vusallyv/ds-practice-2025/internal/domain/model"
)

// ResultRepository keeps order results for lookup until they expire.
type ResultRepository interface {
	Save(ctx context.Context, result model.OrderResult) error
	// Get returns errors.ErrNotFound for absent or expired results.
	Get(ctx context.Context, orderID string) (*model.OrderResult, error)
}
