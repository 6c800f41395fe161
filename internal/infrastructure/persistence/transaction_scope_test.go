package persistence

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	apporder "github.com/mfgops/backend/internal/application/order"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newMockTransactionScope(t *testing.T) (*GormTransactionScope, sqlmock.Sqlmock, func()) {
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

	return NewGormTransactionScope(gormDB), mock, func() { mockDB.Close() }
}

func TestGormTransactionScope_Execute(t *testing.T) {
	t.Run("commits when the function succeeds", func(t *testing.T) {
		scope, mock, closeDB := newMockTransactionScope(t)
		defer closeDB()

		mock.ExpectBegin()
		mock.ExpectCommit()

		var sawRepos bool
		err := scope.Execute(context.Background(), func(repos apporder.TransactionalRepositories) error {
			sawRepos = repos.Orders() != nil && repos.Stock() != nil
			return nil
		})

		assert.NoError(t, err)
		assert.True(t, sawRepos)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back when the function fails", func(t *testing.T) {
		scope, mock, closeDB := newMockTransactionScope(t)
		defer closeDB()

		mock.ExpectBegin()
		mock.ExpectRollback()

		cause := errors.New("allocation failed")
		err := scope.Execute(context.Background(), func(repos apporder.TransactionalRepositories) error {
			return cause
		})

		assert.ErrorIs(t, err, cause)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
