package persistence

import (
	"context"

	apporder "github.com/mfgops/backend/internal/application/order"
	"gorm.io/gorm"
)

// GormCounterpartyLookup validates counterparty references against the
// counterparties table. The table itself is owned by the master data system;
// this side only ever reads it.
type GormCounterpartyLookup struct {
	db *gorm.DB
}

// NewGormCounterpartyLookup creates a new GormCounterpartyLookup
func NewGormCounterpartyLookup(db *gorm.DB) *GormCounterpartyLookup {
	return &GormCounterpartyLookup{db: db}
}

// Exists reports whether an active counterparty with the given id exists
func (l *GormCounterpartyLookup) Exists(ctx context.Context, id uint64) (bool, error) {
	var count int64
	if err := l.db.WithContext(ctx).
		Table("counterparties").
		Where("id = ? AND active", id).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Ensure GormCounterpartyLookup implements CounterpartyLookup
var _ apporder.CounterpartyLookup = (*GormCounterpartyLookup)(nil)
