package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStockAlert(t *testing.T) {
	alert, err := NewStockAlert("prod-1", "Widget", AlertLowStock, 4, 10)
	require.NoError(t, err)

	assert.Equal(t, AlertStatusActive, alert.Status)
	assert.True(t, alert.IsActive())
	assert.False(t, alert.IsCritical())
	assert.Equal(t, "Widget is running low: 4 units available, reorder level 10", alert.Message)

	outAlert, err := NewStockAlert("prod-1", "Widget", AlertOutOfStock, 0, 10)
	require.NoError(t, err)
	assert.True(t, outAlert.IsCritical())
	assert.Equal(t, "Widget is out of stock", outAlert.Message)

	_, err = NewStockAlert("prod-1", "Widget", AlertType("bogus"), 0, 0)
	assert.ErrorIs(t, err, ErrInvalidAlertType)
}

func TestStockAlert_Lifecycle(t *testing.T) {
	alert, err := NewStockAlert("prod-1", "Widget", AlertLowStock, 4, 10)
	require.NoError(t, err)

	alert.Resolve()
	assert.Equal(t, AlertStatusResolved, alert.Status)
	assert.NotNil(t, alert.ResolvedAt)
	assert.False(t, alert.IsActive())
	assert.False(t, alert.IsCritical())

	ignored, err := NewStockAlert("prod-2", "Gadget", AlertOutOfStock, 0, 10)
	require.NoError(t, err)
	ignored.Ignore()
	assert.Equal(t, AlertStatusIgnored, ignored.Status)
	assert.False(t, ignored.IsCritical())
}

func TestNewReorderSuggestion(t *testing.T) {
	record := newTestRecord(t, 30)
	require.NoError(t, record.SetLevels(10, 100, ""))

	suggestion := NewReorderSuggestion(record, "Widget")
	assert.Equal(t, "prod-1", suggestion.ProductID)
	assert.Equal(t, "Widget", suggestion.ProductName)
	assert.Equal(t, 30, suggestion.AvailableQuantity)
	assert.Equal(t, 70, suggestion.SuggestedQuantity)
	assert.Equal(t, SuggestionPending, suggestion.Status)

	full := newTestRecord(t, 150)
	require.NoError(t, full.SetLevels(10, 100, ""))
	assert.Equal(t, 0, NewReorderSuggestion(full, "Widget").SuggestedQuantity)
}
