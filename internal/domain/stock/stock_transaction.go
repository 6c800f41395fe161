package stock

import (
	"time"

	"github.com/mfgops/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// TransactionType classifies a stock-affecting operation
type TransactionType string

const (
	TransactionTypeReceipt     TransactionType = "RECEIPT"
	TransactionTypeReservation TransactionType = "RESERVATION"
	TransactionTypeRelease     TransactionType = "RELEASE"
	TransactionTypeShipment    TransactionType = "SHIPMENT"
)

// IsValid checks if the type is a valid TransactionType
func (t TransactionType) IsValid() bool {
	switch t {
	case TransactionTypeReceipt, TransactionTypeReservation,
		TransactionTypeRelease, TransactionTypeShipment:
		return true
	}
	return false
}

// StockTransaction is the immutable audit row appended on every
// stock-affecting operation. Rows are write-once and never updated.
type StockTransaction struct {
	ID        uint64          `gorm:"primaryKey;autoIncrement"`
	Type      TransactionType `gorm:"type:varchar(20);not null;index"`
	ProductID uint64          `gorm:"not null;index"`
	Quantity  decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	OrderID   *uint64         `gorm:"index"`
	ActorID   uint64          `gorm:"not null"`
	Note      string          `gorm:"type:text"`
	CreatedAt time.Time
}

// TableName returns the table name for GORM
func (StockTransaction) TableName() string {
	return "stock_transactions"
}

// NewStockTransaction creates an audit entry
func NewStockTransaction(txType TransactionType, productID uint64, quantity decimal.Decimal, orderID *uint64, actorID uint64, note string) (*StockTransaction, error) {
	if !txType.IsValid() {
		return nil, shared.NewValidationError("Invalid stock transaction type")
	}
	if productID == 0 {
		return nil, shared.NewValidationError("Product ID cannot be empty")
	}
	if quantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewValidationError("Transaction quantity must be positive")
	}

	return &StockTransaction{
		Type:      txType,
		ProductID: productID,
		Quantity:  quantity,
		OrderID:   orderID,
		ActorID:   actorID,
		Note:      note,
		CreatedAt: time.Now(),
	}, nil
}
