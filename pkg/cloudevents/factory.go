package cloudevents

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/KubeStock-DevOps-project/kubestock-core/pkg/logging"
)

// EventFactory creates CloudEvents for inventory domain events
type EventFactory struct {
	source string
}

// NewEventFactory creates a new EventFactory for a specific source
func NewEventFactory(source string) *EventFactory {
	return &EventFactory{source: source}
}

// CreateEvent creates a new StockCloudEvent with the given parameters
func (f *EventFactory) CreateEvent(
	ctx context.Context,
	eventType string,
	subject string,
	data interface{},
) *StockCloudEvent {
	event := &StockCloudEvent{
		SpecVersion:     "1.0",
		Type:            eventType,
		Source:          f.source,
		Subject:         subject,
		ID:              uuid.New().String(),
		Time:            time.Now().UTC(),
		DataContentType: "application/json",
		Data:            data,
		Extensions:      make(map[string]interface{}),
	}

	// Carry the caller's correlation ID through to the Kafka headers.
	if correlationID, ok := ctx.Value(logging.CorrelationIDKey).(string); ok {
		event.CorrelationID = correlationID
	}

	return event
}

// CreateStockReceivedEvent creates a StockReceived event
func (f *EventFactory) CreateStockReceivedEvent(
	ctx context.Context,
	productID string,
	sku string,
	quantity int,
	newQuantity int,
	referenceID string,
	performedBy string,
) *StockCloudEvent {
	data := StockReceivedData{
		ProductID:   productID,
		SKU:         sku,
		Quantity:    quantity,
		NewQuantity: newQuantity,
		ReferenceID: referenceID,
		PerformedBy: performedBy,
	}
	event := f.CreateEvent(ctx, StockReceived, "stock/"+productID, data)
	event.ProductID = productID
	return event
}

// CreateStockReservedEvent creates a StockReserved event
func (f *EventFactory) CreateStockReservedEvent(
	ctx context.Context,
	productID string,
	quantity int,
	reservedQuantity int,
	availableQuantity int,
	orderID string,
) *StockCloudEvent {
	data := StockReservedData{
		ProductID:         productID,
		Quantity:          quantity,
		ReservedQuantity:  reservedQuantity,
		AvailableQuantity: availableQuantity,
		OrderID:           orderID,
	}
	event := f.CreateEvent(ctx, StockReserved, "stock/"+productID, data)
	event.ProductID = productID
	event.OrderID = orderID
	return event
}

// CreateReservationReleasedEvent creates a ReservationReleased event
func (f *EventFactory) CreateReservationReleasedEvent(
	ctx context.Context,
	productID string,
	quantity int,
	reservedQuantity int,
	availableQuantity int,
	orderID string,
) *StockCloudEvent {
	data := ReservationReleasedData{
		ProductID:         productID,
		Quantity:          quantity,
		ReservedQuantity:  reservedQuantity,
		AvailableQuantity: availableQuantity,
		OrderID:           orderID,
	}
	event := f.CreateEvent(ctx, ReservationReleased, "stock/"+productID, data)
	event.ProductID = productID
	event.OrderID = orderID
	return event
}

// CreateStockReturnedEvent creates a StockReturned event
func (f *EventFactory) CreateStockReturnedEvent(
	ctx context.Context,
	productID string,
	quantity int,
	newQuantity int,
	orderID string,
) *StockCloudEvent {
	data := StockReturnedData{
		ProductID:   productID,
		Quantity:    quantity,
		NewQuantity: newQuantity,
		OrderID:     orderID,
	}
	event := f.CreateEvent(ctx, StockReturned, "stock/"+productID, data)
	event.ProductID = productID
	event.OrderID = orderID
	return event
}

// CreateStockDeductedEvent creates a StockDeducted event
func (f *EventFactory) CreateStockDeductedEvent(
	ctx context.Context,
	productID string,
	quantity int,
	newQuantity int,
	orderID string,
) *StockCloudEvent {
	data := StockDeductedData{
		ProductID:   productID,
		Quantity:    quantity,
		NewQuantity: newQuantity,
		OrderID:     orderID,
	}
	event := f.CreateEvent(ctx, StockDeducted, "stock/"+productID, data)
	event.ProductID = productID
	event.OrderID = orderID
	return event
}

// CreateStockAdjustedEvent creates a StockAdjusted event
func (f *EventFactory) CreateStockAdjustedEvent(
	ctx context.Context,
	productID string,
	previousQty int,
	newQty int,
	adjustmentType string,
	reason string,
	performedBy string,
) *StockCloudEvent {
	data := StockAdjustedData{
		ProductID:      productID,
		PreviousQty:    previousQty,
		NewQty:         newQty,
		AdjustmentType: adjustmentType,
		Reason:         reason,
		PerformedBy:    performedBy,
	}
	event := f.CreateEvent(ctx, StockAdjusted, "stock/"+productID, data)
	event.ProductID = productID
	return event
}

// CreateLowStockAlertEvent creates a LowStockAlert event
func (f *EventFactory) CreateLowStockAlertEvent(
	ctx context.Context,
	productID string,
	sku string,
	availableQuantity int,
	reorderLevel int,
	alertType string,
) *StockCloudEvent {
	data := LowStockAlertData{
		ProductID:         productID,
		SKU:               sku,
		AvailableQuantity: availableQuantity,
		ReorderLevel:      reorderLevel,
		AlertType:         alertType,
	}
	eventType := LowStockAlert
	if alertType == "out_of_stock" {
		eventType = OutOfStockAlert
	}
	event := f.CreateEvent(ctx, eventType, "stock/"+productID, data)
	event.ProductID = productID
	return event
}
