package order

import (
	"context"

	"github.com/mfgops/backend/internal/domain/order"
	"github.com/mfgops/backend/internal/domain/shared"
	"github.com/mfgops/backend/internal/domain/stock"
	"github.com/stretchr/testify/mock"
)

// MockOrderRepository is a mock implementation of order.Repository
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) Create(ctx context.Context, o *order.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockOrderRepository) FindByID(ctx context.Context, id uint64) (*order.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderRepository) FindAll(ctx context.Context, filter shared.Filter) ([]order.Order, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]order.Order), args.Error(1)
}

func (m *MockOrderRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockOrderRepository) Save(ctx context.Context, o *order.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockOrderRepository) Delete(ctx context.Context, id uint64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockOrderRepository) NextOfficialCode(ctx context.Context, prefix string, year int) (string, error) {
	args := m.Called(ctx, prefix, year)
	return args.String(0), args.Error(1)
}

func (m *MockOrderRepository) CountByStatus(ctx context.Context, status order.OrderStatus) (int64, error) {
	args := m.Called(ctx, status)
	return args.Get(0).(int64), args.Error(1)
}

// MockStockRepository is a mock implementation of stock.Repository
type MockStockRepository struct {
	mock.Mock
}

func (m *MockStockRepository) CreateUnits(ctx context.Context, units []*stock.StockUnit) error {
	args := m.Called(ctx, units)
	return args.Error(0)
}

func (m *MockStockRepository) FindAvailableUnits(ctx context.Context, productID uint64, limit int) ([]stock.StockUnit, error) {
	args := m.Called(ctx, productID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]stock.StockUnit), args.Error(1)
}

func (m *MockStockRepository) ReserveUnits(ctx context.Context, unitIDs []uint64, orderID uint64) (int64, error) {
	args := m.Called(ctx, unitIDs, orderID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStockRepository) FindReservedByOrder(ctx context.Context, orderID uint64) ([]stock.StockUnit, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]stock.StockUnit), args.Error(1)
}

func (m *MockStockRepository) ReleaseUnitsForOrder(ctx context.Context, orderID uint64) (int64, error) {
	args := m.Called(ctx, orderID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStockRepository) FindUnitsBySerial(ctx context.Context, productID uint64, serials []string) ([]stock.StockUnit, error) {
	args := m.Called(ctx, productID, serials)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]stock.StockUnit), args.Error(1)
}

func (m *MockStockRepository) MarkShipped(ctx context.Context, unitIDs []uint64, orderID uint64) (int64, error) {
	args := m.Called(ctx, unitIDs, orderID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStockRepository) AvailabilityByProduct(ctx context.Context, productIDs []uint64) (map[uint64]int64, error) {
	args := m.Called(ctx, productIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uint64]int64), args.Error(1)
}

func (m *MockStockRepository) RecordTransaction(ctx context.Context, entry *stock.StockTransaction) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

// MockCounterpartyLookup is a mock implementation of CounterpartyLookup
type MockCounterpartyLookup struct {
	mock.Mock
}

func (m *MockCounterpartyLookup) Exists(ctx context.Context, id uint64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

// MockEventPublisher is a mock implementation of shared.EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	args := m.Called(ctx, events)
	return args.Error(0)
}
