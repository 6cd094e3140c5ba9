package ride

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the persistence contract for ride requests.
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Request, error)

	// FindByRiderID returns a rider's requests, newest first.
	FindByRiderID(ctx context.Context, riderID string, page, limit int) ([]*Request, int64, error)

	Save(ctx context.Context, r *Request) error

	// Update persists changes with optimistic locking on version.
	Update(ctx context.Context, r *Request) error
}
