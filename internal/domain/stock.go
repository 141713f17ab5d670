package domain

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Default stock level thresholds applied when a record is created
// without explicit values.
const (
	DefaultReorderLevel  = 10
	DefaultMaxStockLevel = 1000
)

// StockRecord is the aggregate root for a product's stock position.
// availableQuantity is stored rather than derived so that conditional
// updates can race safely on it; every mutation keeps it equal to
// quantity - reservedQuantity.
type StockRecord struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	ProductID         string             `bson:"productId" json:"productId"`
	SKU               string             `bson:"sku,omitempty" json:"sku,omitempty"`
	Quantity          int                `bson:"quantity" json:"quantity"`
	ReservedQuantity  int                `bson:"reservedQuantity" json:"reservedQuantity"`
	AvailableQuantity int                `bson:"availableQuantity" json:"availableQuantity"`
	WarehouseLocation string             `bson:"warehouseLocation,omitempty" json:"warehouseLocation,omitempty"`
	ReorderLevel      int                `bson:"reorderLevel" json:"reorderLevel"`
	MaxStockLevel     int                `bson:"maxStockLevel" json:"maxStockLevel"`
	LastRestockedAt   *time.Time         `bson:"lastRestockedAt,omitempty" json:"lastRestockedAt,omitempty"`
	CreatedAt         time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt         time.Time          `bson:"updatedAt" json:"updatedAt"`

	DomainEvents []DomainEvent `bson:"-" json:"-"`
}

// NewStockRecord creates a stock record for a product
func NewStockRecord(productID, sku string, initialQuantity int) (*StockRecord, error) {
	if productID == "" {
		return nil, fmt.Errorf("%w: product ID is required", ErrInvalidQuantity)
	}
	if initialQuantity < 0 {
		return nil, ErrInvalidQuantity
	}

	now := time.Now().UTC()
	record := &StockRecord{
		ProductID:         productID,
		SKU:               sku,
		Quantity:          initialQuantity,
		ReservedQuantity:  0,
		AvailableQuantity: initialQuantity,
		ReorderLevel:      DefaultReorderLevel,
		MaxStockLevel:     DefaultMaxStockLevel,
		CreatedAt:         now,
		UpdatedAt:         now,
		DomainEvents:      make([]DomainEvent, 0),
	}

	if initialQuantity > 0 {
		record.LastRestockedAt = &now
	}

	record.AddDomainEvent(&StockCreatedEvent{
		ProductID: productID,
		SKU:       sku,
		Quantity:  initialQuantity,
		CreatedAt: now,
	})

	return record, nil
}

// AddDomainEvent appends an event to the uncommitted event list
func (s *StockRecord) AddDomainEvent(event DomainEvent) {
	s.DomainEvents = append(s.DomainEvents, event)
}

// ClearDomainEvents clears the uncommitted event list
func (s *StockRecord) ClearDomainEvents() {
	s.DomainEvents = make([]DomainEvent, 0)
}

// Reserve holds qty units against a future deduction.
// Requires availableQuantity >= qty; no on-hand change and no
// ledger entry, only the reservation counters move.
func (s *StockRecord) Reserve(qty int, orderRef string) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	if s.AvailableQuantity < qty {
		return fmt.Errorf("%w: requested %d, available %d", ErrInsufficientStock, qty, s.AvailableQuantity)
	}

	s.ReservedQuantity += qty
	s.recalculate()

	s.AddDomainEvent(&StockReservedEvent{
		ProductID:  s.ProductID,
		Quantity:   qty,
		OrderRef:   orderRef,
		Available:  s.AvailableQuantity,
		ReservedAt: time.Now().UTC(),
	})

	return nil
}

// Release returns qty reserved units back to the available pool
func (s *StockRecord) Release(qty int, orderRef string) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	if qty > s.ReservedQuantity {
		return fmt.Errorf("%w: requested %d, reserved %d", ErrReleaseExceedsStock, qty, s.ReservedQuantity)
	}

	s.ReservedQuantity -= qty
	s.recalculate()

	s.AddDomainEvent(&ReservationReleasedEvent{
		ProductID:  s.ProductID,
		Quantity:   qty,
		OrderRef:   orderRef,
		Available:  s.AvailableQuantity,
		ReleasedAt: time.Now().UTC(),
	})

	return nil
}

// ConfirmDeduction permanently removes qty previously reserved units.
// Returns the ledger entry for the deduction.
func (s *StockRecord) ConfirmDeduction(qty int, orderRef string) (*Movement, error) {
	if qty <= 0 {
		return nil, ErrInvalidQuantity
	}
	if qty > s.ReservedQuantity {
		return nil, fmt.Errorf("%w: requested %d, reserved %d", ErrDeductExceedsStock, qty, s.ReservedQuantity)
	}

	previous := s.Quantity
	s.Quantity -= qty
	s.ReservedQuantity -= qty
	s.recalculate()

	movement, err := NewMovement(s.ProductID, MovementOut, qty, previous, s.Quantity)
	if err != nil {
		return nil, err
	}
	movement.WithReference(ReferenceOrder, orderRef)

	s.AddDomainEvent(&StockDeductedEvent{
		ProductID:  s.ProductID,
		Quantity:   qty,
		OrderRef:   orderRef,
		Remaining:  s.Quantity,
		DeductedAt: time.Now().UTC(),
	})
	s.checkThresholds()

	return movement, nil
}

// Receive adds qty units of new stock and records the restock time.
// Returns the ledger entry for the receipt.
func (s *StockRecord) Receive(qty int, refType ReferenceType, refID string) (*Movement, error) {
	if qty <= 0 {
		return nil, ErrInvalidQuantity
	}

	previous := s.Quantity
	s.Quantity += qty
	now := time.Now().UTC()
	s.LastRestockedAt = &now
	s.recalculate()

	movement, err := NewMovement(s.ProductID, MovementIn, qty, previous, s.Quantity)
	if err != nil {
		return nil, err
	}
	if refID != "" {
		movement.WithReference(refType, refID)
	}

	s.AddDomainEvent(&StockReceivedEvent{
		ProductID:  s.ProductID,
		Quantity:   qty,
		NewTotal:   s.Quantity,
		ReceivedAt: now,
	})

	return movement, nil
}

// Return adds qty units back from a cancelled or returned order
func (s *StockRecord) Return(qty int, orderRef string) (*Movement, error) {
	if qty <= 0 {
		return nil, ErrInvalidQuantity
	}

	previous := s.Quantity
	s.Quantity += qty
	s.recalculate()

	movement, err := NewMovement(s.ProductID, MovementReturned, qty, previous, s.Quantity)
	if err != nil {
		return nil, err
	}
	movement.WithReference(ReferenceOrderReturn, orderRef)
	movement.WithNotes(fmt.Sprintf("Stock returned from order #%s", orderRef))

	s.AddDomainEvent(&StockReturnedEvent{
		ProductID:  s.ProductID,
		Quantity:   qty,
		OrderRef:   orderRef,
		NewTotal:   s.Quantity,
		ReturnedAt: time.Now().UTC(),
	})

	return movement, nil
}

// Adjust sets the on-hand quantity to newQuantity as a manual
// correction. The resulting quantity must cover outstanding
// reservations. Returns the ledger entry, or nil when the quantity
// is unchanged.
func (s *StockRecord) Adjust(newQuantity int, movementType MovementType, reason, performedBy string) (*Movement, error) {
	if newQuantity < 0 {
		return nil, ErrNegativeResult
	}
	if newQuantity < s.ReservedQuantity {
		return nil, fmt.Errorf("%w: %d units are reserved", ErrNegativeResult, s.ReservedQuantity)
	}
	if movementType == "" {
		movementType = MovementAdjustment
	}
	if movementType != MovementAdjustment && movementType != MovementDamaged && movementType != MovementExpired {
		return nil, ErrInvalidMovementType
	}

	previous := s.Quantity
	if newQuantity == previous {
		return nil, nil
	}

	delta := newQuantity - previous
	if delta < 0 {
		delta = -delta
	}

	s.Quantity = newQuantity
	s.recalculate()

	movement, err := NewMovement(s.ProductID, movementType, delta, previous, s.Quantity)
	if err != nil {
		return nil, err
	}
	movement.WithReference(ReferenceAdjustment, "")
	movement.WithNotes(reason)
	movement.WithPerformer(performedBy)

	s.AddDomainEvent(&StockAdjustedEvent{
		ProductID:   s.ProductID,
		OldQuantity: previous,
		NewQuantity: s.Quantity,
		Reason:      reason,
		AdjustedAt:  time.Now().UTC(),
	})
	s.checkThresholds()

	return movement, nil
}

// SetLevels updates the reorder and max stock thresholds
func (s *StockRecord) SetLevels(reorderLevel, maxStockLevel int, warehouseLocation string) error {
	if reorderLevel < 0 || maxStockLevel < 0 {
		return ErrInvalidQuantity
	}
	if maxStockLevel > 0 && reorderLevel > maxStockLevel {
		return fmt.Errorf("%w: reorder level %d exceeds max stock level %d", ErrInvalidQuantity, reorderLevel, maxStockLevel)
	}

	if reorderLevel > 0 {
		s.ReorderLevel = reorderLevel
	}
	if maxStockLevel > 0 {
		s.MaxStockLevel = maxStockLevel
	}
	if warehouseLocation != "" {
		s.WarehouseLocation = warehouseLocation
	}
	s.UpdatedAt = time.Now().UTC()

	return nil
}

// IsLowStock returns true when available stock is at or below the reorder level
func (s *StockRecord) IsLowStock() bool {
	return s.AvailableQuantity <= s.ReorderLevel
}

// IsOutOfStock returns true when no stock is available
func (s *StockRecord) IsOutOfStock() bool {
	return s.AvailableQuantity <= 0
}

// IsOverstocked returns true when on-hand stock exceeds the max level
func (s *StockRecord) IsOverstocked() bool {
	return s.MaxStockLevel > 0 && s.Quantity > s.MaxStockLevel
}

// ReorderShortfall returns how many units would bring available stock
// back to the max level, or 0 when no reorder is needed
func (s *StockRecord) ReorderShortfall() int {
	shortfall := s.MaxStockLevel - s.AvailableQuantity
	if shortfall < 0 {
		return 0
	}
	return shortfall
}

// recalculate keeps the stored available quantity and timestamp consistent
func (s *StockRecord) recalculate() {
	s.AvailableQuantity = s.Quantity - s.ReservedQuantity
	s.UpdatedAt = time.Now().UTC()
}

// checkThresholds emits alert events after a downward stock change
func (s *StockRecord) checkThresholds() {
	now := time.Now().UTC()
	if s.IsOutOfStock() {
		s.AddDomainEvent(&OutOfStockDetectedEvent{
			ProductID:  s.ProductID,
			DetectedAt: now,
		})
	} else if s.IsLowStock() {
		s.AddDomainEvent(&LowStockDetectedEvent{
			ProductID:    s.ProductID,
			Available:    s.AvailableQuantity,
			ReorderLevel: s.ReorderLevel,
			DetectedAt:   now,
		})
	}
}
