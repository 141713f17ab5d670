package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMovement(t *testing.T) {
	movement, err := NewMovement("prod-1", MovementIn, 5, 10, 15)
	require.NoError(t, err)

	assert.NotEmpty(t, movement.ID)
	assert.Equal(t, "prod-1", movement.ProductID)
	assert.Equal(t, MovementIn, movement.MovementType)
	assert.Equal(t, 5, movement.Quantity)
	assert.Equal(t, 10, movement.PreviousQuantity)
	assert.Equal(t, 15, movement.NewQuantity)
	assert.False(t, movement.CreatedAt.IsZero())

	_, err = NewMovement("prod-1", MovementType("bogus"), 5, 10, 15)
	assert.ErrorIs(t, err, ErrInvalidMovementType)

	_, err = NewMovement("prod-1", MovementOut, 0, 10, 10)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestMovementBuilders(t *testing.T) {
	movement, err := NewMovement("prod-1", MovementOut, 3, 10, 7)
	require.NoError(t, err)

	movement.WithReference(ReferenceOrder, "ord-42").
		WithNotes("order fulfillment").
		WithPerformer("picker-1")

	assert.Equal(t, ReferenceOrder, movement.ReferenceType)
	assert.Equal(t, "ord-42", movement.ReferenceID)
	assert.Equal(t, "order fulfillment", movement.Notes)
	assert.Equal(t, "picker-1", movement.PerformedBy)
}

func TestMovementType(t *testing.T) {
	valid := []MovementType{MovementIn, MovementOut, MovementAdjustment, MovementDamaged, MovementExpired, MovementReturned}
	for _, mt := range valid {
		assert.True(t, mt.IsValid(), string(mt))
	}
	assert.False(t, MovementType("transfer").IsValid())

	assert.True(t, MovementIn.IsInbound())
	assert.True(t, MovementReturned.IsInbound())
	assert.False(t, MovementOut.IsInbound())
	assert.False(t, MovementDamaged.IsInbound())
}
