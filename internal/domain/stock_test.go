package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRecord(t *testing.T, qty int) *StockRecord {
	t.Helper()
	record, err := NewStockRecord("prod-1", "SKU-1", qty)
	require.NoError(t, err)
	record.ClearDomainEvents()
	return record
}

func TestNewStockRecord(t *testing.T) {
	record, err := NewStockRecord("prod-1", "SKU-1", 25)
	require.NoError(t, err)

	assert.Equal(t, "prod-1", record.ProductID)
	assert.Equal(t, 25, record.Quantity)
	assert.Equal(t, 0, record.ReservedQuantity)
	assert.Equal(t, 25, record.AvailableQuantity)
	assert.Equal(t, DefaultReorderLevel, record.ReorderLevel)
	assert.Equal(t, DefaultMaxStockLevel, record.MaxStockLevel)
	require.NotNil(t, record.LastRestockedAt)
	require.Len(t, record.DomainEvents, 1)
	_, ok := record.DomainEvents[0].(*StockCreatedEvent)
	assert.True(t, ok)

	_, err = NewStockRecord("prod-2", "", -1)
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = NewStockRecord("", "", 0)
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	empty, err := NewStockRecord("prod-3", "", 0)
	require.NoError(t, err)
	assert.Nil(t, empty.LastRestockedAt)
}

func TestStockRecord_Reserve(t *testing.T) {
	record := newTestRecord(t, 10)

	require.NoError(t, record.Reserve(4, "ord-1"))
	assert.Equal(t, 10, record.Quantity)
	assert.Equal(t, 4, record.ReservedQuantity)
	assert.Equal(t, 6, record.AvailableQuantity)
	require.Len(t, record.DomainEvents, 1)
	_, ok := record.DomainEvents[0].(*StockReservedEvent)
	assert.True(t, ok)

	// reserving exactly the remaining available succeeds
	require.NoError(t, record.Reserve(6, "ord-2"))
	assert.Equal(t, 0, record.AvailableQuantity)

	assert.ErrorIs(t, record.Reserve(1, "ord-3"), ErrInsufficientStock)
	assert.ErrorIs(t, record.Reserve(0, "ord-4"), ErrInvalidQuantity)
	assert.ErrorIs(t, record.Reserve(-2, "ord-5"), ErrInvalidQuantity)
}

func TestStockRecord_Release(t *testing.T) {
	record := newTestRecord(t, 10)
	require.NoError(t, record.Reserve(5, "ord-1"))

	require.NoError(t, record.Release(3, "ord-1"))
	assert.Equal(t, 2, record.ReservedQuantity)
	assert.Equal(t, 8, record.AvailableQuantity)

	assert.ErrorIs(t, record.Release(5, "ord-1"), ErrReleaseExceedsStock)
	assert.ErrorIs(t, record.Release(0, "ord-1"), ErrInvalidQuantity)
}

func TestStockRecord_ConfirmDeduction(t *testing.T) {
	record := newTestRecord(t, 10)
	require.NoError(t, record.Reserve(5, "ord-1"))
	record.ClearDomainEvents()

	movement, err := record.ConfirmDeduction(5, "ord-1")
	require.NoError(t, err)
	assert.Equal(t, 5, record.Quantity)
	assert.Equal(t, 0, record.ReservedQuantity)
	assert.Equal(t, 5, record.AvailableQuantity)
	assert.Equal(t, MovementOut, movement.MovementType)
	assert.Equal(t, 10, movement.PreviousQuantity)
	assert.Equal(t, 5, movement.NewQuantity)
	assert.Equal(t, ReferenceOrder, movement.ReferenceType)
	assert.Equal(t, "ord-1", movement.ReferenceID)

	// available is now at the default reorder level, so a low stock event fires
	var lowStock bool
	for _, event := range record.DomainEvents {
		if _, ok := event.(*LowStockDetectedEvent); ok {
			lowStock = true
		}
	}
	assert.True(t, lowStock)

	_, err = record.ConfirmDeduction(1, "ord-2")
	assert.ErrorIs(t, err, ErrDeductExceedsStock)
}

func TestStockRecord_DeductionToZeroEmitsOutOfStock(t *testing.T) {
	record := newTestRecord(t, 3)
	require.NoError(t, record.Reserve(3, "ord-1"))
	record.ClearDomainEvents()

	_, err := record.ConfirmDeduction(3, "ord-1")
	require.NoError(t, err)
	assert.True(t, record.IsOutOfStock())

	var outOfStock bool
	for _, event := range record.DomainEvents {
		if _, ok := event.(*OutOfStockDetectedEvent); ok {
			outOfStock = true
		}
	}
	assert.True(t, outOfStock)
}

func TestStockRecord_Receive(t *testing.T) {
	record := newTestRecord(t, 0)
	record.LastRestockedAt = nil

	movement, err := record.Receive(20, ReferencePurchase, "po-9")
	require.NoError(t, err)
	assert.Equal(t, 20, record.Quantity)
	assert.Equal(t, 20, record.AvailableQuantity)
	assert.NotNil(t, record.LastRestockedAt)
	assert.Equal(t, MovementIn, movement.MovementType)
	assert.Equal(t, 0, movement.PreviousQuantity)
	assert.Equal(t, 20, movement.NewQuantity)

	_, err = record.Receive(0, ReferencePurchase, "")
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestStockRecord_Return(t *testing.T) {
	record := newTestRecord(t, 5)

	movement, err := record.Return(2, "ord-7")
	require.NoError(t, err)
	assert.Equal(t, 7, record.Quantity)
	assert.Equal(t, MovementReturned, movement.MovementType)
	assert.Equal(t, ReferenceOrderReturn, movement.ReferenceType)
	assert.Equal(t, "ord-7", movement.ReferenceID)
	assert.Equal(t, "Stock returned from order #ord-7", movement.Notes)

	_, err = record.Return(-1, "ord-7")
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestStockRecord_Adjust(t *testing.T) {
	record := newTestRecord(t, 50)

	movement, err := record.Adjust(40, MovementDamaged, "water damage", "ops-user")
	require.NoError(t, err)
	assert.Equal(t, 40, record.Quantity)
	assert.Equal(t, MovementDamaged, movement.MovementType)
	assert.Equal(t, 10, movement.Quantity)
	assert.Equal(t, "water damage", movement.Notes)
	assert.Equal(t, "ops-user", movement.PerformedBy)

	// unchanged quantity produces no movement
	movement, err = record.Adjust(40, MovementAdjustment, "recount", "ops-user")
	require.NoError(t, err)
	assert.Nil(t, movement)

	_, err = record.Adjust(-1, MovementAdjustment, "", "")
	assert.ErrorIs(t, err, ErrNegativeResult)

	require.NoError(t, record.Reserve(10, "ord-1"))
	_, err = record.Adjust(5, MovementAdjustment, "shrinkage", "")
	assert.ErrorIs(t, err, ErrNegativeResult)

	_, err = record.Adjust(30, MovementOut, "", "")
	assert.ErrorIs(t, err, ErrInvalidMovementType)
}

func TestStockRecord_SetLevels(t *testing.T) {
	record := newTestRecord(t, 10)

	require.NoError(t, record.SetLevels(20, 500, "A-01-02-B1"))
	assert.Equal(t, 20, record.ReorderLevel)
	assert.Equal(t, 500, record.MaxStockLevel)
	assert.Equal(t, "A-01-02-B1", record.WarehouseLocation)

	// zero values keep the existing thresholds
	require.NoError(t, record.SetLevels(0, 0, ""))
	assert.Equal(t, 20, record.ReorderLevel)
	assert.Equal(t, 500, record.MaxStockLevel)

	assert.ErrorIs(t, record.SetLevels(600, 500, ""), ErrInvalidQuantity)
	assert.ErrorIs(t, record.SetLevels(-1, 100, ""), ErrInvalidQuantity)
}

func TestStockRecord_Thresholds(t *testing.T) {
	record := newTestRecord(t, 10)
	require.NoError(t, record.SetLevels(10, 100, ""))

	assert.True(t, record.IsLowStock())
	assert.False(t, record.IsOutOfStock())
	assert.Equal(t, 90, record.ReorderShortfall())

	require.NoError(t, record.Reserve(10, "ord-1"))
	assert.True(t, record.IsOutOfStock())

	record2 := newTestRecord(t, 200)
	require.NoError(t, record2.SetLevels(10, 100, ""))
	assert.True(t, record2.IsOverstocked())
	assert.Equal(t, 0, record2.ReorderShortfall())
}
