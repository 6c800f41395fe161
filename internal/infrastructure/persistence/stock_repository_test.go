package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/mfgops/backend/internal/domain/shared"
	"github.com/mfgops/backend/internal/domain/stock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newMockStockRepository creates a GormStockRepository with a mocked SQL
// connection
func newMockStockRepository(t *testing.T) (*GormStockRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return NewGormStockRepository(gormDB), mock, mockDB
}

func TestGormStockRepository_FindAvailableUnits(t *testing.T) {
	t.Run("selects oldest available units first", func(t *testing.T) {
		repo, mock, mockDB := newMockStockRepository(t)
		defer mockDB.Close()

		now := time.Now()
		rows := sqlmock.NewRows([]string{"id", "created_at", "updated_at", "product_id", "serial_number", "status", "order_id"}).
			AddRow(1, now.Add(-2*time.Hour), now, 101, "SN-001", "IN_STOCK", nil).
			AddRow(2, now.Add(-1*time.Hour), now, 101, "SN-002", "IN_STOCK", nil)

		mock.ExpectQuery(`SELECT \* FROM "stock_units" WHERE product_id = \$1 AND status = \$2 AND order_id IS NULL ORDER BY created_at ASC, id ASC LIMIT \$3`).
			WithArgs(uint64(101), "IN_STOCK", 5).
			WillReturnRows(rows)

		units, err := repo.FindAvailableUnits(context.Background(), 101, 5)

		assert.NoError(t, err)
		require.Len(t, units, 2)
		assert.Equal(t, uint64(1), units[0].ID)
		assert.Equal(t, uint64(2), units[1].ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns empty slice when nothing is available", func(t *testing.T) {
		repo, mock, mockDB := newMockStockRepository(t)
		defer mockDB.Close()

		mock.ExpectQuery(`SELECT \* FROM "stock_units"`).
			WithArgs(uint64(101), "IN_STOCK", 5).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		units, err := repo.FindAvailableUnits(context.Background(), 101, 5)

		assert.NoError(t, err)
		assert.Empty(t, units)
	})
}

func TestGormStockRepository_ReserveUnits(t *testing.T) {
	t.Run("reports the number of rows actually claimed", func(t *testing.T) {
		repo, mock, mockDB := newMockStockRepository(t)
		defer mockDB.Close()

		// Another transaction already grabbed one of the three candidates.
		mock.ExpectExec(`UPDATE "stock_units" SET`).
			WillReturnResult(sqlmock.NewResult(0, 2))

		claimed, err := repo.ReserveUnits(context.Background(), []uint64{1, 2, 3}, 17)

		assert.NoError(t, err)
		assert.Equal(t, int64(2), claimed)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("skips the database for an empty candidate set", func(t *testing.T) {
		repo, mock, mockDB := newMockStockRepository(t)
		defer mockDB.Close()

		claimed, err := repo.ReserveUnits(context.Background(), nil, 17)

		assert.NoError(t, err)
		assert.Equal(t, int64(0), claimed)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormStockRepository_ReleaseUnitsForOrder(t *testing.T) {
	t.Run("releases every reserved unit of the order", func(t *testing.T) {
		repo, mock, mockDB := newMockStockRepository(t)
		defer mockDB.Close()

		mock.ExpectExec(`UPDATE "stock_units" SET`).
			WillReturnResult(sqlmock.NewResult(0, 3))

		released, err := repo.ReleaseUnitsForOrder(context.Background(), 17)

		assert.NoError(t, err)
		assert.Equal(t, int64(3), released)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormStockRepository_MarkShipped(t *testing.T) {
	t.Run("reports a partial claim when a unit was taken", func(t *testing.T) {
		repo, mock, mockDB := newMockStockRepository(t)
		defer mockDB.Close()

		mock.ExpectExec(`UPDATE "stock_units" SET`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		shipped, err := repo.MarkShipped(context.Background(), []uint64{1, 2}, 17)

		assert.NoError(t, err)
		assert.Equal(t, int64(1), shipped)
	})

	t.Run("skips the database for an empty unit set", func(t *testing.T) {
		repo, mock, mockDB := newMockStockRepository(t)
		defer mockDB.Close()

		shipped, err := repo.MarkShipped(context.Background(), nil, 17)

		assert.NoError(t, err)
		assert.Equal(t, int64(0), shipped)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormStockRepository_AvailabilityByProduct(t *testing.T) {
	t.Run("maps grouped counts by product", func(t *testing.T) {
		repo, mock, mockDB := newMockStockRepository(t)
		defer mockDB.Close()

		rows := sqlmock.NewRows([]string{"product_id", "count"}).
			AddRow(101, 3).
			AddRow(102, 1)

		mock.ExpectQuery(`SELECT product_id, COUNT\(\*\) AS count FROM "stock_units"`).
			WillReturnRows(rows)

		availability, err := repo.AvailabilityByProduct(context.Background(), []uint64{101, 102, 103})

		assert.NoError(t, err)
		assert.Equal(t, int64(3), availability[101])
		assert.Equal(t, int64(1), availability[102])
		assert.Equal(t, int64(0), availability[103])
	})

	t.Run("returns an empty map for no products", func(t *testing.T) {
		repo, mock, mockDB := newMockStockRepository(t)
		defer mockDB.Close()

		availability, err := repo.AvailabilityByProduct(context.Background(), nil)

		assert.NoError(t, err)
		assert.Empty(t, availability)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormStockRepository_RecordTransaction(t *testing.T) {
	t.Run("appends an audit row", func(t *testing.T) {
		repo, mock, mockDB := newMockStockRepository(t)
		defer mockDB.Close()

		orderID := uint64(17)
		entry, err := stock.NewStockTransaction(
			stock.TransactionTypeReservation, 101, decimal.NewFromInt(3), &orderID, 42, "")
		require.NoError(t, err)

		mock.ExpectQuery(`INSERT INTO "stock_transactions"`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))

		err = repo.RecordTransaction(context.Background(), entry)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormStockRepository_CreateUnits(t *testing.T) {
	t.Run("skips the database for an empty batch", func(t *testing.T) {
		repo, mock, mockDB := newMockStockRepository(t)
		defer mockDB.Close()

		err := repo.CreateUnits(context.Background(), nil)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("maps a serial collision to a conflict", func(t *testing.T) {
		repo, mock, mockDB := newMockStockRepository(t)
		defer mockDB.Close()

		unit, err := stock.NewStockUnit(101, nil)
		require.NoError(t, err)

		mock.ExpectQuery(`INSERT INTO "stock_units"`).
			WillReturnError(gorm.ErrDuplicatedKey)

		err = repo.CreateUnits(context.Background(), []*stock.StockUnit{unit})

		assert.ErrorIs(t, err, shared.ErrConflict)
	})
}
