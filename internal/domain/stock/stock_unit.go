package stock

import (
	"time"

	"github.com/mfgops/backend/internal/domain/shared"
)

// UnitStatus represents the state of a single stock unit
type UnitStatus string

const (
	UnitStatusInStock  UnitStatus = "IN_STOCK"
	UnitStatusReserved UnitStatus = "RESERVED"
	UnitStatusShipped  UnitStatus = "SHIPPED"
)

// IsValid checks if the status is a valid UnitStatus
func (s UnitStatus) IsValid() bool {
	switch s {
	case UnitStatusInStock, UnitStatusReserved, UnitStatusShipped:
		return true
	}
	return false
}

// String returns the string representation of UnitStatus
func (s UnitStatus) String() string {
	return string(s)
}

// StockUnit represents one physical finished-goods unit. A RESERVED or
// SHIPPED unit is linked to exactly one order; releasing it clears the link
// and returns it to IN_STOCK. Units are created at production completion or
// goods receipt and consumed by shipment.
type StockUnit struct {
	shared.BaseEntity
	ProductID    uint64     `gorm:"not null;index:idx_stock_units_product_status,priority:1"`
	SerialNumber *string    `gorm:"type:varchar(64);uniqueIndex"`
	Status       UnitStatus `gorm:"type:varchar(20);not null;default:'IN_STOCK';index:idx_stock_units_product_status,priority:2"`
	OrderID      *uint64    `gorm:"index"`
}

// TableName returns the table name for GORM
func (StockUnit) TableName() string {
	return "stock_units"
}

// NewStockUnit creates an unreserved unit for a product, optionally carrying
// a serial number.
func NewStockUnit(productID uint64, serialNumber *string) (*StockUnit, error) {
	if productID == 0 {
		return nil, shared.NewValidationError("Product ID cannot be empty")
	}
	if serialNumber != nil && *serialNumber == "" {
		return nil, shared.NewValidationError("Serial number cannot be blank")
	}

	return &StockUnit{
		BaseEntity:   shared.NewBaseEntity(),
		ProductID:    productID,
		SerialNumber: serialNumber,
		Status:       UnitStatusInStock,
	}, nil
}

// IsAvailable reports whether the unit can be selected by the allocator
func (u *StockUnit) IsAvailable() bool {
	return u.Status == UnitStatusInStock && u.OrderID == nil
}

// BelongsTo reports whether the unit is linked to the given order
func (u *StockUnit) BelongsTo(orderID uint64) bool {
	return u.OrderID != nil && *u.OrderID == orderID
}

// CanShipFor reports whether the unit may be shipped against the given
// order: it must be free, or already reserved for that same order.
func (u *StockUnit) CanShipFor(orderID uint64) bool {
	switch u.Status {
	case UnitStatusInStock:
		return u.OrderID == nil
	case UnitStatusReserved:
		return u.BelongsTo(orderID)
	}
	return false
}

// Reserve links the unit to an order as a soft hold
func (u *StockUnit) Reserve(orderID uint64) error {
	if !u.IsAvailable() {
		return shared.NewDomainError(shared.CodeConflict, "Stock unit is not available for reservation")
	}
	u.Status = UnitStatusReserved
	u.OrderID = &orderID
	u.UpdatedAt = time.Now()
	return nil
}

// Release returns a reserved unit to the available pool. Shipped units are
// permanently consumed and cannot be released.
func (u *StockUnit) Release() error {
	if u.Status != UnitStatusReserved {
		return shared.NewDomainError(shared.CodeConflict, "Only reserved stock units can be released")
	}
	u.Status = UnitStatusInStock
	u.OrderID = nil
	u.UpdatedAt = time.Now()
	return nil
}

// MarkShipped consumes the unit for the given order
func (u *StockUnit) MarkShipped(orderID uint64) error {
	if !u.CanShipFor(orderID) {
		return shared.NewDomainError(shared.CodeConflict, "Stock unit cannot be shipped for this order")
	}
	u.Status = UnitStatusShipped
	u.OrderID = &orderID
	u.UpdatedAt = time.Now()
	return nil
}
