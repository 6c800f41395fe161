package stock

import (
	"testing"

	"github.com/mfgops/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestUnitStatus_IsValid(t *testing.T) {
	assert.True(t, UnitStatusInStock.IsValid())
	assert.True(t, UnitStatusReserved.IsValid())
	assert.True(t, UnitStatusShipped.IsValid())
	assert.False(t, UnitStatus("BROKEN").IsValid())
	assert.False(t, UnitStatus("").IsValid())
}

func TestNewStockUnit(t *testing.T) {
	t.Run("creates available unit", func(t *testing.T) {
		u, err := NewStockUnit(1, strPtr("SN-001"))
		require.NoError(t, err)
		assert.Equal(t, UnitStatusInStock, u.Status)
		assert.Nil(t, u.OrderID)
		assert.True(t, u.IsAvailable())
	})

	t.Run("serial number is optional", func(t *testing.T) {
		u, err := NewStockUnit(1, nil)
		require.NoError(t, err)
		assert.Nil(t, u.SerialNumber)
	})

	t.Run("rejects zero product", func(t *testing.T) {
		_, err := NewStockUnit(0, nil)
		assert.True(t, shared.IsCode(err, shared.CodeValidation))
	})

	t.Run("rejects blank serial", func(t *testing.T) {
		_, err := NewStockUnit(1, strPtr(""))
		assert.True(t, shared.IsCode(err, shared.CodeValidation))
	})
}

func TestStockUnit_Reserve(t *testing.T) {
	u, err := NewStockUnit(1, nil)
	require.NoError(t, err)

	require.NoError(t, u.Reserve(7))
	assert.Equal(t, UnitStatusReserved, u.Status)
	require.NotNil(t, u.OrderID)
	assert.Equal(t, uint64(7), *u.OrderID)
	assert.True(t, u.BelongsTo(7))
	assert.False(t, u.IsAvailable())

	t.Run("double reservation fails", func(t *testing.T) {
		err := u.Reserve(8)
		require.Error(t, err)
		assert.True(t, shared.IsCode(err, shared.CodeConflict))
		assert.Equal(t, uint64(7), *u.OrderID)
	})
}

func TestStockUnit_Release(t *testing.T) {
	u, err := NewStockUnit(1, nil)
	require.NoError(t, err)

	t.Run("releasing an available unit fails", func(t *testing.T) {
		err := u.Release()
		assert.True(t, shared.IsCode(err, shared.CodeConflict))
	})

	require.NoError(t, u.Reserve(7))
	require.NoError(t, u.Release())
	assert.Equal(t, UnitStatusInStock, u.Status)
	assert.Nil(t, u.OrderID)
	assert.True(t, u.IsAvailable())

	t.Run("shipped units cannot be released", func(t *testing.T) {
		require.NoError(t, u.MarkShipped(7))
		err := u.Release()
		assert.True(t, shared.IsCode(err, shared.CodeConflict))
		assert.Equal(t, UnitStatusShipped, u.Status)
	})
}

func TestStockUnit_MarkShipped(t *testing.T) {
	t.Run("ships an available unit", func(t *testing.T) {
		u, _ := NewStockUnit(1, nil)
		require.NoError(t, u.MarkShipped(7))
		assert.Equal(t, UnitStatusShipped, u.Status)
		assert.True(t, u.BelongsTo(7))
	})

	t.Run("ships a unit reserved for the same order", func(t *testing.T) {
		u, _ := NewStockUnit(1, nil)
		require.NoError(t, u.Reserve(7))
		require.NoError(t, u.MarkShipped(7))
		assert.Equal(t, UnitStatusShipped, u.Status)
	})

	t.Run("rejects a unit reserved for another order", func(t *testing.T) {
		u, _ := NewStockUnit(1, nil)
		require.NoError(t, u.Reserve(8))
		err := u.MarkShipped(7)
		assert.True(t, shared.IsCode(err, shared.CodeConflict))
		assert.Equal(t, UnitStatusReserved, u.Status)
	})

	t.Run("rejects an already shipped unit", func(t *testing.T) {
		u, _ := NewStockUnit(1, nil)
		require.NoError(t, u.MarkShipped(7))
		err := u.MarkShipped(7)
		assert.True(t, shared.IsCode(err, shared.CodeConflict))
	})
}

func TestStockUnit_CanShipFor(t *testing.T) {
	u, _ := NewStockUnit(1, nil)
	assert.True(t, u.CanShipFor(7))
	assert.True(t, u.CanShipFor(8))

	require.NoError(t, u.Reserve(7))
	assert.True(t, u.CanShipFor(7))
	assert.False(t, u.CanShipFor(8))

	require.NoError(t, u.MarkShipped(7))
	assert.False(t, u.CanShipFor(7))
}
