package domain

import "time"

// DomainEvent is the interface for all domain events
type DomainEvent interface {
	EventType() string
	OccurredAt() time.Time
}

// StockCreatedEvent is published when a stock record is created
type StockCreatedEvent struct {
	ProductID string    `json:"productId"`
	SKU       string    `json:"sku,omitempty"`
	Quantity  int       `json:"quantity"`
	CreatedAt time.Time `json:"createdAt"`
}

func (e *StockCreatedEvent) EventType() string     { return "kubestock.inventory.stock-created" }
func (e *StockCreatedEvent) OccurredAt() time.Time { return e.CreatedAt }

// StockReceivedEvent is published when stock is received
type StockReceivedEvent struct {
	ProductID  string    `json:"productId"`
	Quantity   int       `json:"quantity"`
	NewTotal   int       `json:"newTotal"`
	ReceivedAt time.Time `json:"receivedAt"`
}

func (e *StockReceivedEvent) EventType() string     { return "kubestock.inventory.received" }
func (e *StockReceivedEvent) OccurredAt() time.Time { return e.ReceivedAt }

// StockReservedEvent is published when stock is reserved for an order
type StockReservedEvent struct {
	ProductID  string    `json:"productId"`
	Quantity   int       `json:"quantity"`
	OrderRef   string    `json:"orderRef,omitempty"`
	Available  int       `json:"available"`
	ReservedAt time.Time `json:"reservedAt"`
}

func (e *StockReservedEvent) EventType() string     { return "kubestock.inventory.reserved" }
func (e *StockReservedEvent) OccurredAt() time.Time { return e.ReservedAt }

// ReservationReleasedEvent is published when a reservation is released
type ReservationReleasedEvent struct {
	ProductID  string    `json:"productId"`
	Quantity   int       `json:"quantity"`
	OrderRef   string    `json:"orderRef,omitempty"`
	Available  int       `json:"available"`
	ReleasedAt time.Time `json:"releasedAt"`
}

func (e *ReservationReleasedEvent) EventType() string {
	return "kubestock.inventory.reservation-released"
}
func (e *ReservationReleasedEvent) OccurredAt() time.Time { return e.ReleasedAt }

// StockDeductedEvent is published when reserved stock is permanently deducted
type StockDeductedEvent struct {
	ProductID  string    `json:"productId"`
	Quantity   int       `json:"quantity"`
	OrderRef   string    `json:"orderRef,omitempty"`
	Remaining  int       `json:"remaining"`
	DeductedAt time.Time `json:"deductedAt"`
}

func (e *StockDeductedEvent) EventType() string     { return "kubestock.inventory.deducted" }
func (e *StockDeductedEvent) OccurredAt() time.Time { return e.DeductedAt }

// StockReturnedEvent is published when stock comes back from an order
type StockReturnedEvent struct {
	ProductID  string    `json:"productId"`
	Quantity   int       `json:"quantity"`
	OrderRef   string    `json:"orderRef,omitempty"`
	NewTotal   int       `json:"newTotal"`
	ReturnedAt time.Time `json:"returnedAt"`
}

func (e *StockReturnedEvent) EventType() string     { return "kubestock.inventory.returned" }
func (e *StockReturnedEvent) OccurredAt() time.Time { return e.ReturnedAt }

// StockAdjustedEvent is published when stock is manually corrected
type StockAdjustedEvent struct {
	ProductID   string    `json:"productId"`
	OldQuantity int       `json:"oldQuantity"`
	NewQuantity int       `json:"newQuantity"`
	Reason      string    `json:"reason,omitempty"`
	AdjustedAt  time.Time `json:"adjustedAt"`
}

func (e *StockAdjustedEvent) EventType() string     { return "kubestock.inventory.adjusted" }
func (e *StockAdjustedEvent) OccurredAt() time.Time { return e.AdjustedAt }

// LowStockDetectedEvent is published when available stock drops to the reorder level
type LowStockDetectedEvent struct {
	ProductID    string    `json:"productId"`
	Available    int       `json:"available"`
	ReorderLevel int       `json:"reorderLevel"`
	DetectedAt   time.Time `json:"detectedAt"`
}

func (e *LowStockDetectedEvent) EventType() string     { return "kubestock.inventory.low-stock-alert" }
func (e *LowStockDetectedEvent) OccurredAt() time.Time { return e.DetectedAt }

// OutOfStockDetectedEvent is published when available stock reaches zero
type OutOfStockDetectedEvent struct {
	ProductID  string    `json:"productId"`
	DetectedAt time.Time `json:"detectedAt"`
}

func (e *OutOfStockDetectedEvent) EventType() string     { return "kubestock.inventory.out-of-stock-alert" }
func (e *OutOfStockDetectedEvent) OccurredAt() time.Time { return e.DetectedAt }

// AlertResolvedEvent is published when an active alert is resolved
type AlertResolvedEvent struct {
	ProductID  string    `json:"productId"`
	AlertType  string    `json:"alertType"`
	ResolvedAt time.Time `json:"resolvedAt"`
}

func (e *AlertResolvedEvent) EventType() string     { return "kubestock.inventory.alert-resolved" }
func (e *AlertResolvedEvent) OccurredAt() time.Time { return e.ResolvedAt }
