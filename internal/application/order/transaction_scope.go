package order

import (
	"context"

	"github.com/mfgops/backend/internal/domain/order"
	"github.com/mfgops/backend/internal/domain/stock"
)

// TransactionScope provides transactional access to the engine repositories.
// Every state machine operation executes inside exactly one scope: all reads
// that feed a subsequent write happen in the same database transaction, and
// the transaction commits or rolls back as a whole. Partial writes are never
// observable.
type TransactionScope interface {
	// Execute runs fn within a database transaction. If fn returns an
	// error the transaction is rolled back, otherwise it is committed.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories exposes the repositories bound to the current
// transaction.
type TransactionalRepositories interface {
	// Orders returns the order repository scoped to the current transaction
	Orders() order.Repository
	// Stock returns the stock repository scoped to the current transaction
	Stock() stock.Repository
}

// NoOpTransactionScope runs the function without a real transaction. Useful
// in tests where the repositories are mocks.
type NoOpTransactionScope struct {
	orderRepo order.Repository
	stockRepo stock.Repository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope over the given
// repositories.
func NewNoOpTransactionScope(orderRepo order.Repository, stockRepo stock.Repository) *NoOpTransactionScope {
	return &NoOpTransactionScope{orderRepo: orderRepo, stockRepo: stockRepo}
}

// Execute runs fn directly against the wrapped repositories
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// Orders returns the wrapped order repository
func (s *NoOpTransactionScope) Orders() order.Repository {
	return s.orderRepo
}

// Stock returns the wrapped stock repository
func (s *NoOpTransactionScope) Stock() stock.Repository {
	return s.stockRepo
}

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
