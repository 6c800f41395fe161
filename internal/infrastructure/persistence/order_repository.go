package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mfgops/backend/internal/domain/order"
	"github.com/mfgops/backend/internal/domain/shared"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OrderCodeSeq holds the last issued sequence value per (prefix, year).
// Rows are claimed with SELECT FOR UPDATE so concurrent submissions
// serialize on the counter instead of racing on the last issued code.
type OrderCodeSeq struct {
	Prefix    string `gorm:"type:varchar(10);primaryKey"`
	Year      int    `gorm:"primaryKey"`
	LastValue int64  `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (OrderCodeSeq) TableName() string {
	return "order_code_seqs"
}

// OrderSortFields contains allowed sort fields for orders
var OrderSortFields = map[string]bool{
	"id":              true,
	"created_at":      true,
	"updated_at":      true,
	"code":            true,
	"type":            true,
	"status":          true,
	"counterparty_id": true,
	"creator_id":      true,
	"order_date":      true,
	"expected_date":   true,
	"total_amount":    true,
	"priority":        true,
	"approved_at":     true,
}

// GormOrderRepository implements order.Repository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// Create inserts the order and its lines, then derives the draft code from
// the assigned row id. The insert carries a provisional unique code so
// concurrent creates never collide on the code column.
func (r *GormOrderRepository) Create(ctx context.Context, o *order.Order) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		o.Code = fmt.Sprintf("TMP-%d", time.Now().UnixNano())
		if err := tx.Create(o).Error; err != nil {
			return translateDuplicate(err)
		}

		code := order.DraftCode(o.ID, o.CreatedAt)
		if err := tx.Model(&order.Order{}).
			Where("id = ?", o.ID).
			Update("code", code).Error; err != nil {
			return translateDuplicate(err)
		}
		o.Code = code
		return nil
	})
}

// FindByID finds an order by its ID
func (r *GormOrderRepository) FindByID(ctx context.Context, id uint64) (*order.Order, error) {
	var o order.Order
	if err := r.db.WithContext(ctx).
		Preload("Lines").
		First(&o, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}

// FindAll finds all orders matching the filter
func (r *GormOrderRepository) FindAll(ctx context.Context, filter shared.Filter) ([]order.Order, error) {
	var orders []order.Order
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&order.Order{}).Preload("Lines"),
		filter,
	)

	if err := query.Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// Count counts orders matching the filter
func (r *GormOrderRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(
		r.db.WithContext(ctx).Model(&order.Order{}),
		filter,
	)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save persists the order header with an optimistic version check and
// replaces the line set
func (r *GormOrderRepository) Save(ctx context.Context, o *order.Order) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		currentVersion := o.Version
		o.Version++
		o.UpdatedAt = time.Now()

		result := tx.Model(&order.Order{}).
			Where("id = ? AND version = ?", o.ID, currentVersion).
			Updates(map[string]interface{}{
				"code":            o.Code,
				"status":          o.Status,
				"counterparty_id": o.CounterpartyID,
				"approver_id":     o.ApproverID,
				"expected_date":   o.ExpectedDate,
				"discount":        o.Discount,
				"tax":             o.Tax,
				"shipping_cost":   o.ShippingCost,
				"total_amount":    o.TotalAmount,
				"note":            o.Note,
				"priority":        o.Priority,
				"approved_at":     o.ApprovedAt,
				"cancelled_at":    o.CancelledAt,
				"version":         o.Version,
				"updated_at":      o.UpdatedAt,
			})
		if result.Error != nil {
			return translateDuplicate(result.Error)
		}
		if result.RowsAffected == 0 {
			o.Version = currentVersion
			return shared.NewDomainError(shared.CodeConflict, "The order has been modified by another user")
		}

		// Replace the line set: delete removed lines, save the rest.
		currentLineIDs := make([]uint64, 0, len(o.Lines))
		for _, line := range o.Lines {
			if line.ID != 0 {
				currentLineIDs = append(currentLineIDs, line.ID)
			}
		}
		if len(currentLineIDs) > 0 {
			if err := tx.Where("order_id = ? AND id NOT IN ?", o.ID, currentLineIDs).
				Delete(&order.OrderLine{}).Error; err != nil {
				return err
			}
		} else {
			if err := tx.Where("order_id = ?", o.ID).
				Delete(&order.OrderLine{}).Error; err != nil {
				return err
			}
		}
		for i := range o.Lines {
			o.Lines[i].OrderID = o.ID
			if err := tx.Save(&o.Lines[i]).Error; err != nil {
				return err
			}
		}

		return nil
	})
}

// Delete removes the order and its lines
func (r *GormOrderRepository) Delete(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", id).Delete(&order.OrderLine{}).Error; err != nil {
			return err
		}

		result := tx.Delete(&order.Order{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

// NextOfficialCode atomically claims the next sequential code for the
// (prefix, year) pair. The counter row is locked for the remainder of the
// transaction, which serializes concurrent submissions.
func (r *GormOrderRepository) NextOfficialCode(ctx context.Context, prefix string, year int) (string, error) {
	var code string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var seq OrderCodeSeq
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("prefix = ? AND year = ?", prefix, year).
			First(&seq).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			seeded, seedErr := r.seedSequence(tx, prefix, year)
			if seedErr != nil {
				return seedErr
			}
			seq = seeded
		} else if err != nil {
			return err
		}

		seq.LastValue++
		if err := tx.Model(&OrderCodeSeq{}).
			Where("prefix = ? AND year = ?", prefix, year).
			Update("last_value", seq.LastValue).Error; err != nil {
			return err
		}

		code = order.OfficialCode(prefix, year, seq.LastValue)
		return nil
	})
	if err != nil {
		return "", err
	}
	return code, nil
}

// seedSequence lazily creates the counter row for a (prefix, year) pair,
// initialized from the highest code already issued. A concurrent seeder is
// tolerated via ON CONFLICT DO NOTHING followed by a locked re-read.
func (r *GormOrderRepository) seedSequence(tx *gorm.DB, prefix string, year int) (OrderCodeSeq, error) {
	pattern := fmt.Sprintf("%s-%d-%%", prefix, year)
	var lastCodes []string
	err := tx.Model(&order.Order{}).
		Where("code LIKE ?", pattern).
		Order("length(code) DESC, code DESC").
		Limit(1).
		Pluck("code", &lastCodes).Error
	if err != nil {
		return OrderCodeSeq{}, err
	}

	var lastValue int64
	if len(lastCodes) > 0 {
		if n, ok := order.SequenceFromCode(lastCodes[0]); ok {
			lastValue = n
		}
	}

	seq := OrderCodeSeq{Prefix: prefix, Year: year, LastValue: lastValue}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&seq).Error; err != nil {
		return OrderCodeSeq{}, err
	}

	var claimed OrderCodeSeq
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("prefix = ? AND year = ?", prefix, year).
		First(&claimed).Error; err != nil {
		return OrderCodeSeq{}, err
	}
	return claimed, nil
}

// CountByStatus counts orders in the given status
func (r *GormOrderRepository) CountByStatus(ctx context.Context, status order.OrderStatus) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&order.Order{}).
		Where("status = ?", status).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// applyFilter applies filter options to the query
func (r *GormOrderRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	orderBy := ValidateSortField(filter.OrderBy, OrderSortFields, "created_at")
	orderDir := ValidateSortOrder(filter.OrderDir)
	return query.Order(orderBy + " " + orderDir)
}

// applyFilterWithoutPagination applies filter options without pagination
func (r *GormOrderRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		query = query.Where("code LIKE ?", "%"+filter.Search+"%")
	}

	for key, value := range filter.Filters {
		switch key {
		case "type":
			query = query.Where("type = ?", value)
		case "status":
			query = query.Where("status = ?", value)
		case "statuses":
			if statuses, ok := value.([]string); ok && len(statuses) > 0 {
				query = query.Where("status IN ?", statuses)
			}
		case "counterparty_id":
			query = query.Where("counterparty_id = ?", value)
		case "creator_id":
			query = query.Where("creator_id = ?", value)
		case "start_date":
			if t, ok := value.(time.Time); ok {
				query = query.Where("order_date >= ?", t)
			}
		case "end_date":
			if t, ok := value.(time.Time); ok {
				query = query.Where("order_date <= ?", t)
			}
		}
	}

	return query
}

// translateDuplicate maps unique constraint violations onto the conflict
// error so callers can retry or surface a 409.
func translateDuplicate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return shared.ErrConflict
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint") {
		return shared.ErrConflict
	}
	return err
}

// Ensure GormOrderRepository implements order.Repository
var _ order.Repository = (*GormOrderRepository)(nil)
