package cloudevents

import (
	"time"
)

// EventType constants for inventory domain events
const (
	// Stock lifecycle events
	StockCreated  = "kubestock.inventory.stock-created"
	StockReceived = "kubestock.inventory.received"
	StockReturned = "kubestock.inventory.returned"
	StockAdjusted = "kubestock.inventory.adjusted"
	StockDeducted = "kubestock.inventory.deducted"

	// Reservation events
	StockReserved       = "kubestock.inventory.reserved"
	ReservationReleased = "kubestock.inventory.reservation-released"

	// Alerting events
	LowStockAlert   = "kubestock.inventory.low-stock-alert"
	OutOfStockAlert = "kubestock.inventory.out-of-stock-alert"
	AlertResolved   = "kubestock.inventory.alert-resolved"
)

// Source constants for event sources
const (
	SourceInventory = "/kubestock/inventory-service"
	SourceCatalog   = "/kubestock/product-service"
	SourceOrders    = "/kubestock/order-service"
)

// StockCloudEvent represents a CloudEvents v1.0 compliant inventory event
type StockCloudEvent struct {
	SpecVersion     string                 `json:"specversion"`
	Type            string                 `json:"type"`
	Source          string                 `json:"source"`
	Subject         string                 `json:"subject,omitempty"`
	ID              string                 `json:"id"`
	Time            time.Time              `json:"time"`
	DataContentType string                 `json:"datacontenttype"`
	Data            interface{}            `json:"data"`
	Extensions      map[string]interface{} `json:"-"`

	// Inventory-specific extensions
	CorrelationID string `json:"kscorrelationid,omitempty"`
	OrderID       string `json:"ksorderid,omitempty"`
	ProductID     string `json:"ksproductid,omitempty"`

	// W3C Trace Context propagation
	TraceParent string `json:"traceparent,omitempty"`
	TraceState  string `json:"tracestate,omitempty"`
}

// StockReceivedData represents the data payload for StockReceived events
type StockReceivedData struct {
	ProductID   string `json:"productId"`
	SKU         string `json:"sku"`
	Quantity    int    `json:"quantity"`
	NewQuantity int    `json:"newQuantity"`
	ReferenceID string `json:"referenceId,omitempty"`
	PerformedBy string `json:"performedBy,omitempty"`
}

// StockReservedData represents the data payload for StockReserved events
type StockReservedData struct {
	ProductID         string `json:"productId"`
	Quantity          int    `json:"quantity"`
	ReservedQuantity  int    `json:"reservedQuantity"`
	AvailableQuantity int    `json:"availableQuantity"`
	OrderID           string `json:"orderId,omitempty"`
}

// ReservationReleasedData represents the data payload for ReservationReleased events
type ReservationReleasedData struct {
	ProductID         string `json:"productId"`
	Quantity          int    `json:"quantity"`
	ReservedQuantity  int    `json:"reservedQuantity"`
	AvailableQuantity int    `json:"availableQuantity"`
	OrderID           string `json:"orderId,omitempty"`
}

// StockReturnedData represents the data payload for StockReturned events
type StockReturnedData struct {
	ProductID   string `json:"productId"`
	Quantity    int    `json:"quantity"`
	NewQuantity int    `json:"newQuantity"`
	OrderID     string `json:"orderId,omitempty"`
}

// StockDeductedData represents the data payload for StockDeducted events
type StockDeductedData struct {
	ProductID   string `json:"productId"`
	Quantity    int    `json:"quantity"`
	NewQuantity int    `json:"newQuantity"`
	OrderID     string `json:"orderId,omitempty"`
}

// StockAdjustedData represents the data payload for StockAdjusted events
type StockAdjustedData struct {
	ProductID      string `json:"productId"`
	PreviousQty    int    `json:"previousQuantity"`
	NewQty         int    `json:"newQuantity"`
	AdjustmentType string `json:"adjustmentType"` // "adjustment", "damaged", "expired"
	Reason         string `json:"reason,omitempty"`
	PerformedBy    string `json:"performedBy,omitempty"`
}

// LowStockAlertData represents the data payload for LowStockAlert events
type LowStockAlertData struct {
	ProductID         string `json:"productId"`
	SKU               string `json:"sku"`
	AvailableQuantity int    `json:"availableQuantity"`
	ReorderLevel      int    `json:"reorderLevel"`
	AlertType         string `json:"alertType"` // "low_stock" | "out_of_stock"
}
