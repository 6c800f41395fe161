package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/mfgops/backend/internal/domain/order"
	"github.com/mfgops/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newMockOrderRepository creates a GormOrderRepository with a mocked SQL
// connection
func newMockOrderRepository(t *testing.T) (*GormOrderRepository, sqlmock.Sqlmock, *sql.DB) {
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

	return NewGormOrderRepository(gormDB), mock, mockDB
}

func createPersistedOrder(t *testing.T) *order.Order {
	t.Helper()

	o, err := order.NewOrder(order.OrderTypeSales, 7, 11, time.Now(), nil, 0)
	require.NoError(t, err)
	o.ID = 17
	o.Code = order.DraftCode(17, time.Now())
	return o
}

func TestGormOrderRepository_FindByID(t *testing.T) {
	t.Run("loads the order with its lines", func(t *testing.T) {
		repo, mock, mockDB := newMockOrderRepository(t)
		defer mockDB.Close()

		orderRows := sqlmock.NewRows([]string{"id", "code", "type", "status", "counterparty_id", "creator_id", "version"}).
			AddRow(17, "SO-2026-001", "SALES", "APPROVED", 7, 11, 2)
		mock.ExpectQuery(`SELECT \* FROM "orders" WHERE id = \$1`).
			WithArgs(uint64(17), 1).
			WillReturnRows(orderRows)

		lineRows := sqlmock.NewRows([]string{"id", "order_id", "product_id", "quantity", "unit_price", "amount", "quantity_shipped"}).
			AddRow(1, 17, 101, "5", "10", "50", "0")
		mock.ExpectQuery(`SELECT \* FROM "order_lines" WHERE "order_lines"\."order_id" = \$1`).
			WithArgs(uint64(17)).
			WillReturnRows(lineRows)

		o, err := repo.FindByID(context.Background(), 17)

		assert.NoError(t, err)
		require.NotNil(t, o)
		assert.Equal(t, "SO-2026-001", o.Code)
		assert.Equal(t, order.OrderStatusApproved, o.Status)
		require.Len(t, o.Lines, 1)
		assert.Equal(t, uint64(101), o.Lines[0].ProductID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("maps a missing row to not found", func(t *testing.T) {
		repo, mock, mockDB := newMockOrderRepository(t)
		defer mockDB.Close()

		mock.ExpectQuery(`SELECT \* FROM "orders"`).
			WillReturnError(gorm.ErrRecordNotFound)

		o, err := repo.FindByID(context.Background(), 99)

		assert.Nil(t, o)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormOrderRepository_Save(t *testing.T) {
	t.Run("bumps the version on a clean save", func(t *testing.T) {
		repo, mock, mockDB := newMockOrderRepository(t)
		defer mockDB.Close()

		o := createPersistedOrder(t)
		o.Version = 1

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE "orders" SET`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`DELETE FROM "order_lines"`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectCommit()

		err := repo.Save(context.Background(), o)

		assert.NoError(t, err)
		assert.Equal(t, 2, o.Version)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("reports a conflict when the version moved on", func(t *testing.T) {
		repo, mock, mockDB := newMockOrderRepository(t)
		defer mockDB.Close()

		o := createPersistedOrder(t)
		o.Version = 1

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE "orders" SET`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		err := repo.Save(context.Background(), o)

		assert.Equal(t, shared.CodeConflict, shared.ErrorCode(err))
		assert.Equal(t, 1, o.Version, "version must be restored for a retry")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormOrderRepository_Delete(t *testing.T) {
	t.Run("removes the order and its lines", func(t *testing.T) {
		repo, mock, mockDB := newMockOrderRepository(t)
		defer mockDB.Close()

		mock.ExpectBegin()
		mock.ExpectExec(`DELETE FROM "order_lines"`).
			WillReturnResult(sqlmock.NewResult(0, 2))
		mock.ExpectExec(`DELETE FROM "orders"`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := repo.Delete(context.Background(), 17)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("maps a missing order to not found", func(t *testing.T) {
		repo, mock, mockDB := newMockOrderRepository(t)
		defer mockDB.Close()

		mock.ExpectBegin()
		mock.ExpectExec(`DELETE FROM "order_lines"`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(`DELETE FROM "orders"`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		err := repo.Delete(context.Background(), 99)

		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormOrderRepository_NextOfficialCode(t *testing.T) {
	year := time.Now().Year()

	t.Run("claims the next value from an existing counter", func(t *testing.T) {
		repo, mock, mockDB := newMockOrderRepository(t)
		defer mockDB.Close()

		mock.ExpectBegin()
		seqRows := sqlmock.NewRows([]string{"prefix", "year", "last_value"}).
			AddRow("SO", year, 41)
		mock.ExpectQuery(`SELECT \* FROM "order_code_seqs" WHERE prefix = \$1 AND year = \$2 .* FOR UPDATE`).
			WithArgs("SO", year, 1).
			WillReturnRows(seqRows)
		mock.ExpectExec(`UPDATE "order_code_seqs" SET`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		code, err := repo.NextOfficialCode(context.Background(), "SO", year)

		assert.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("SO-%d-042", year), code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("seeds the counter from already issued codes", func(t *testing.T) {
		repo, mock, mockDB := newMockOrderRepository(t)
		defer mockDB.Close()

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT \* FROM "order_code_seqs" .* FOR UPDATE`).
			WillReturnRows(sqlmock.NewRows([]string{"prefix", "year", "last_value"}))
		mock.ExpectQuery(`SELECT "code" FROM "orders" WHERE code LIKE \$1`).
			WithArgs(fmt.Sprintf("PO-%d-%%", year), 1).
			WillReturnRows(sqlmock.NewRows([]string{"code"}).AddRow(fmt.Sprintf("PO-%d-007", year)))
		mock.ExpectExec(`INSERT INTO "order_code_seqs"`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(`SELECT \* FROM "order_code_seqs" .* FOR UPDATE`).
			WillReturnRows(sqlmock.NewRows([]string{"prefix", "year", "last_value"}).
				AddRow("PO", year, 7))
		mock.ExpectExec(`UPDATE "order_code_seqs" SET`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		code, err := repo.NextOfficialCode(context.Background(), "PO", year)

		assert.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("PO-%d-008", year), code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormOrderRepository_CountByStatus(t *testing.T) {
	t.Run("counts orders in a status", func(t *testing.T) {
		repo, mock, mockDB := newMockOrderRepository(t)
		defer mockDB.Close()

		mock.ExpectQuery(`SELECT count\(\*\) FROM "orders" WHERE status = \$1`).
			WithArgs("APPROVED").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))

		count, err := repo.CountByStatus(context.Background(), order.OrderStatusApproved)

		assert.NoError(t, err)
		assert.Equal(t, int64(4), count)
	})
}

func TestTranslateDuplicate(t *testing.T) {
	t.Run("passes nil through", func(t *testing.T) {
		assert.NoError(t, translateDuplicate(nil))
	})

	t.Run("maps driver duplicate key errors", func(t *testing.T) {
		err := translateDuplicate(errors.New(`ERROR: duplicate key value violates unique constraint "orders_code_key"`))
		assert.ErrorIs(t, err, shared.ErrConflict)
	})

	t.Run("maps gorm duplicated key errors", func(t *testing.T) {
		assert.ErrorIs(t, translateDuplicate(gorm.ErrDuplicatedKey), shared.ErrConflict)
	})

	t.Run("leaves other errors untouched", func(t *testing.T) {
		cause := errors.New("connection reset")
		assert.Equal(t, cause, translateDuplicate(cause))
	})
}
