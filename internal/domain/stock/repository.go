package stock

import (
	"context"
)

// Repository is the persistence port for stock units and the audit trail.
// Mutating methods run inside the caller's transaction scope.
//
// Reservation is a guarded two-step: FindAvailableUnits selects FIFO
// candidates, ReserveUnits claims them with a conditional update and reports
// how many rows were actually claimed. A count lower than requested means
// another transaction won part of the candidate set; the caller re-selects
// or records the remainder as shortage.
type Repository interface {
	// CreateUnits inserts new IN_STOCK units (goods receipt / production
	// completion).
	CreateUnits(ctx context.Context, units []*StockUnit) error

	// FindAvailableUnits returns up to limit unreserved IN_STOCK units for
	// the product, oldest first (pure FIFO).
	FindAvailableUnits(ctx context.Context, productID uint64, limit int) ([]StockUnit, error)

	// ReserveUnits flips the given units to RESERVED and links them to the
	// order, guarded on the units still being available. Returns the number
	// of rows actually claimed.
	ReserveUnits(ctx context.Context, unitIDs []uint64, orderID uint64) (int64, error)

	// FindReservedByOrder returns the units currently reserved for an order
	FindReservedByOrder(ctx context.Context, orderID uint64) ([]StockUnit, error)

	// ReleaseUnitsForOrder returns every RESERVED unit linked to the order
	// to IN_STOCK and clears the link. Shipped units are left untouched.
	// Returns the number of released units.
	ReleaseUnitsForOrder(ctx context.Context, orderID uint64) (int64, error)

	// FindUnitsBySerial returns the units with the given serial numbers for
	// a product.
	FindUnitsBySerial(ctx context.Context, productID uint64, serials []string) ([]StockUnit, error)

	// MarkShipped flips the given units to SHIPPED and links them to the
	// order, guarded on each unit being free or reserved for that order.
	// Returns the number of rows actually shipped.
	MarkShipped(ctx context.Context, unitIDs []uint64, orderID uint64) (int64, error)

	// AvailabilityByProduct counts available units per product in a single
	// grouped query.
	AvailabilityByProduct(ctx context.Context, productIDs []uint64) (map[uint64]int64, error)

	// RecordTransaction appends an immutable audit row
	RecordTransaction(ctx context.Context, entry *StockTransaction) error
}
