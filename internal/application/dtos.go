package application

import "time"

// StockRecordDTO represents a stock record in responses
type StockRecordDTO struct {
	ProductID         string     `json:"productId"`
	SKU               string     `json:"sku,omitempty"`
	Quantity          int        `json:"quantity"`
	ReservedQuantity  int        `json:"reservedQuantity"`
	AvailableQuantity int        `json:"availableQuantity"`
	WarehouseLocation string     `json:"warehouseLocation,omitempty"`
	ReorderLevel      int        `json:"reorderLevel"`
	MaxStockLevel     int        `json:"maxStockLevel"`
	IsLowStock        bool       `json:"isLowStock"`
	IsOutOfStock      bool       `json:"isOutOfStock"`
	LastRestockedAt   *time.Time `json:"lastRestockedAt,omitempty"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}

// MovementDTO represents a ledger entry in responses
type MovementDTO struct {
	MovementID       string    `json:"movementId"`
	ProductID        string    `json:"productId"`
	MovementType     string    `json:"movementType"`
	Quantity         int       `json:"quantity"`
	PreviousQuantity int       `json:"previousQuantity"`
	NewQuantity      int       `json:"newQuantity"`
	ReferenceType    string    `json:"referenceType,omitempty"`
	ReferenceID      string    `json:"referenceId,omitempty"`
	Notes            string    `json:"notes,omitempty"`
	PerformedBy      string    `json:"performedBy,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
}

// BulkCheckItemDTO reports availability for one product in a bulk check
type BulkCheckItemDTO struct {
	ProductID         string `json:"productId"`
	Exists            bool   `json:"exists"`
	AvailableQuantity int    `json:"availableQuantity"`
	InStock           bool   `json:"inStock"`
}

// LowStockItemDTO represents a low stock record enriched with catalog details
type LowStockItemDTO struct {
	ProductID         string  `json:"productId"`
	ProductName       string  `json:"productName"`
	SKU               string  `json:"sku,omitempty"`
	UnitPrice         float64 `json:"unitPrice"`
	AvailableQuantity int     `json:"availableQuantity"`
	ReorderLevel      int     `json:"reorderLevel"`
	IsOutOfStock      bool    `json:"isOutOfStock"`
}

// AlertDTO represents a stock alert in responses
type AlertDTO struct {
	ProductID       string     `json:"productId"`
	ProductName     string     `json:"productName,omitempty"`
	AlertType       string     `json:"alertType"`
	Status          string     `json:"status"`
	Message         string     `json:"message"`
	CurrentQuantity int        `json:"currentQuantity"`
	Threshold       int        `json:"threshold"`
	CreatedAt       time.Time  `json:"createdAt"`
	ResolvedAt      *time.Time `json:"resolvedAt,omitempty"`
}

// AlertStatsDTO summarizes the alert collection
type AlertStatsDTO struct {
	Active   int `json:"active"`
	Critical int `json:"critical"`
	Resolved int `json:"resolved"`
	Ignored  int `json:"ignored"`
	Total    int `json:"total"`
}

// ReorderSuggestionDTO recommends a restock quantity
type ReorderSuggestionDTO struct {
	ProductID         string    `json:"productId"`
	ProductName       string    `json:"productName"`
	SKU               string    `json:"sku,omitempty"`
	AvailableQuantity int       `json:"availableQuantity"`
	MaxStockLevel     int       `json:"maxStockLevel"`
	SuggestedQuantity int       `json:"suggestedQuantity"`
	Status            string    `json:"status"`
	GeneratedAt       time.Time `json:"generatedAt"`
}

// SweepSummaryDTO reports the outcome of a low stock sweep
type SweepSummaryDTO struct {
	Checked        int       `json:"checked"`
	AlertsCreated  int       `json:"alertsCreated"`
	AlertsResolved int       `json:"alertsResolved"`
	SweptAt        time.Time `json:"sweptAt"`
}
