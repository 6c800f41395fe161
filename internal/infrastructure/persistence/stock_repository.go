package persistence

import (
	"context"

	"github.com/mfgops/backend/internal/domain/stock"
	"gorm.io/gorm"
)

// GormStockRepository implements stock.Repository using GORM.
//
// Reservation and shipment never trust a previously selected snapshot: the
// status flip is a single conditional UPDATE and the affected row count
// tells the caller how many units were actually claimed.
type GormStockRepository struct {
	db *gorm.DB
}

// NewGormStockRepository creates a new GormStockRepository
func NewGormStockRepository(db *gorm.DB) *GormStockRepository {
	return &GormStockRepository{db: db}
}

// CreateUnits inserts new IN_STOCK units
func (r *GormStockRepository) CreateUnits(ctx context.Context, units []*stock.StockUnit) error {
	if len(units) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Create(units).Error; err != nil {
		return translateDuplicate(err)
	}
	return nil
}

// FindAvailableUnits returns up to limit unreserved IN_STOCK units for the
// product, oldest first
func (r *GormStockRepository) FindAvailableUnits(ctx context.Context, productID uint64, limit int) ([]stock.StockUnit, error) {
	var units []stock.StockUnit
	if err := r.db.WithContext(ctx).
		Where("product_id = ? AND status = ? AND order_id IS NULL", productID, stock.UnitStatusInStock).
		Order("created_at ASC, id ASC").
		Limit(limit).
		Find(&units).Error; err != nil {
		return nil, err
	}
	return units, nil
}

// ReserveUnits flips the given units to RESERVED, guarded on each unit
// still being available. Returns the number of rows actually claimed.
func (r *GormStockRepository) ReserveUnits(ctx context.Context, unitIDs []uint64, orderID uint64) (int64, error) {
	if len(unitIDs) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).
		Model(&stock.StockUnit{}).
		Where("id IN ? AND status = ? AND order_id IS NULL", unitIDs, stock.UnitStatusInStock).
		Updates(map[string]interface{}{
			"status":   stock.UnitStatusReserved,
			"order_id": orderID,
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// FindReservedByOrder returns the units currently reserved for an order
func (r *GormStockRepository) FindReservedByOrder(ctx context.Context, orderID uint64) ([]stock.StockUnit, error) {
	var units []stock.StockUnit
	if err := r.db.WithContext(ctx).
		Where("order_id = ? AND status = ?", orderID, stock.UnitStatusReserved).
		Find(&units).Error; err != nil {
		return nil, err
	}
	return units, nil
}

// ReleaseUnitsForOrder returns every RESERVED unit linked to the order to
// IN_STOCK. Shipped units stay consumed.
func (r *GormStockRepository) ReleaseUnitsForOrder(ctx context.Context, orderID uint64) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&stock.StockUnit{}).
		Where("order_id = ? AND status = ?", orderID, stock.UnitStatusReserved).
		Updates(map[string]interface{}{
			"status":   stock.UnitStatusInStock,
			"order_id": nil,
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// FindUnitsBySerial returns the units with the given serial numbers for a
// product
func (r *GormStockRepository) FindUnitsBySerial(ctx context.Context, productID uint64, serials []string) ([]stock.StockUnit, error) {
	if len(serials) == 0 {
		return nil, nil
	}
	var units []stock.StockUnit
	if err := r.db.WithContext(ctx).
		Where("product_id = ? AND serial_number IN ?", productID, serials).
		Find(&units).Error; err != nil {
		return nil, err
	}
	return units, nil
}

// MarkShipped flips the given units to SHIPPED, guarded on each unit being
// free or reserved for that same order. Returns the number of rows shipped.
func (r *GormStockRepository) MarkShipped(ctx context.Context, unitIDs []uint64, orderID uint64) (int64, error) {
	if len(unitIDs) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).
		Model(&stock.StockUnit{}).
		Where("id IN ? AND ((status = ? AND order_id IS NULL) OR (status = ? AND order_id = ?))",
			unitIDs, stock.UnitStatusInStock, stock.UnitStatusReserved, orderID).
		Updates(map[string]interface{}{
			"status":   stock.UnitStatusShipped,
			"order_id": orderID,
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// AvailabilityByProduct counts available units per product in a single
// grouped query
func (r *GormStockRepository) AvailabilityByProduct(ctx context.Context, productIDs []uint64) (map[uint64]int64, error) {
	availability := make(map[uint64]int64, len(productIDs))
	if len(productIDs) == 0 {
		return availability, nil
	}

	var rows []struct {
		ProductID uint64
		Count     int64
	}
	if err := r.db.WithContext(ctx).
		Model(&stock.StockUnit{}).
		Select("product_id, COUNT(*) AS count").
		Where("product_id IN ? AND status = ? AND order_id IS NULL", productIDs, stock.UnitStatusInStock).
		Group("product_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	for _, row := range rows {
		availability[row.ProductID] = row.Count
	}
	return availability, nil
}

// RecordTransaction appends an immutable audit row
func (r *GormStockRepository) RecordTransaction(ctx context.Context, entry *stock.StockTransaction) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// Ensure GormStockRepository implements stock.Repository
var _ stock.Repository = (*GormStockRepository)(nil)
