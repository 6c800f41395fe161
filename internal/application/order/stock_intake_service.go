package order

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/mfgops/backend/internal/domain/shared"
	"github.com/mfgops/backend/internal/domain/stock"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// StockIntakeService records goods receipts: each receipt materializes
// individual serialized stock units and one RECEIPT audit row, all in a
// single transaction.
type StockIntakeService struct {
	scope  TransactionScope
	logger *zap.Logger
}

// NewStockIntakeService creates a new StockIntakeService
func NewStockIntakeService(scope TransactionScope, logger *zap.Logger) *StockIntakeService {
	return &StockIntakeService{scope: scope, logger: logger}
}

// RecordReceipt adds quantity units of a product to stock. When serial
// numbers are supplied their count must match the quantity and they must be
// pairwise distinct; otherwise serials are generated from the receipt
// context. Returns the created units.
func (s *StockIntakeService) RecordReceipt(ctx context.Context, req ReceiptRequest, actorID uint64) ([]stock.StockUnit, error) {
	if req.Quantity <= 0 {
		return nil, shared.NewValidationError("Receipt quantity must be positive")
	}
	if len(req.SerialNumbers) > 0 && len(req.SerialNumbers) != req.Quantity {
		return nil, shared.NewValidationError(
			fmt.Sprintf("Got %d serial numbers for a quantity of %d", len(req.SerialNumbers), req.Quantity))
	}
	seen := make(map[string]struct{}, len(req.SerialNumbers))
	for _, serial := range req.SerialNumbers {
		if serial == "" {
			return nil, shared.NewValidationError("Serial numbers must not be empty")
		}
		if _, dup := seen[serial]; dup {
			return nil, shared.NewValidationError("Duplicate serial number " + serial)
		}
		seen[serial] = struct{}{}
	}

	units := make([]*stock.StockUnit, 0, req.Quantity)
	for i := 0; i < req.Quantity; i++ {
		var serial string
		if len(req.SerialNumbers) > 0 {
			serial = req.SerialNumbers[i]
		} else {
			serial = fmt.Sprintf("RCPT-%d-%s", req.ProductID, uuid.NewString())
		}
		unit, err := stock.NewStockUnit(req.ProductID, &serial)
		if err != nil {
			return nil, err
		}
		units = append(units, unit)
	}

	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		if err := repos.Stock().CreateUnits(ctx, units); err != nil {
			return err
		}
		entry, err := stock.NewStockTransaction(stock.TransactionTypeReceipt,
			req.ProductID, decimal.NewFromInt(int64(req.Quantity)), nil, actorID, req.Note)
		if err != nil {
			return err
		}
		return repos.Stock().RecordTransaction(ctx, entry)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("goods receipt recorded",
		zap.Uint64("product_id", req.ProductID),
		zap.Int("quantity", req.Quantity),
		zap.Uint64("actor_id", actorID),
	)

	created := make([]stock.StockUnit, 0, len(units))
	for _, unit := range units {
		created = append(created, *unit)
	}
	return created, nil
}
