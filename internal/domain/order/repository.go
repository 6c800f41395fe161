package order

import (
	"context"

	"github.com/mfgops/backend/internal/domain/shared"
)

// Repository is the persistence port for the Order aggregate. All mutating
// methods are expected to run inside the caller's transaction scope.
type Repository interface {
	// Create inserts the order and its lines and assigns the id-derived
	// draft code (two-phase: insert, then update the code).
	Create(ctx context.Context, o *Order) error

	// FindByID loads the order with its lines
	FindByID(ctx context.Context, id uint64) (*Order, error)

	// FindAll lists orders matching the filter with pagination
	FindAll(ctx context.Context, filter shared.Filter) ([]Order, error)

	// Count counts orders matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// Save persists the order header with an optimistic version check and
	// replaces the line set (delete and recreate).
	Save(ctx context.Context, o *Order) error

	// Delete removes the order and its lines
	Delete(ctx context.Context, id uint64) error

	// NextOfficialCode atomically claims the next sequential code for the
	// (prefix, year) pair. Implementations must serialize concurrent
	// submissions so no two orders ever receive the same code.
	NextOfficialCode(ctx context.Context, prefix string, year int) (string, error)

	// CountByStatus counts orders in the given status
	CountByStatus(ctx context.Context, status OrderStatus) (int64, error)
}
