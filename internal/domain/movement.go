package domain

import (
	"time"

	"github.com/google/uuid"
)

// MovementType classifies a ledger entry
type MovementType string

const (
	MovementIn         MovementType = "in"
	MovementOut        MovementType = "out"
	MovementAdjustment MovementType = "adjustment"
	MovementDamaged    MovementType = "damaged"
	MovementExpired    MovementType = "expired"
	MovementReturned   MovementType = "returned"
)

// IsValid checks if the movement type is valid
func (m MovementType) IsValid() bool {
	switch m {
	case MovementIn, MovementOut, MovementAdjustment, MovementDamaged, MovementExpired, MovementReturned:
		return true
	default:
		return false
	}
}

// IsInbound returns true for movement types that add stock on hand
func (m MovementType) IsInbound() bool {
	return m == MovementIn || m == MovementReturned
}

// ReferenceType classifies what a movement refers to
type ReferenceType string

const (
	ReferenceOrder       ReferenceType = "order"
	ReferenceOrderReturn ReferenceType = "order_return"
	ReferencePurchase    ReferenceType = "purchase"
	ReferenceAdjustment  ReferenceType = "adjustment"
	ReferenceInitial     ReferenceType = "initial"
)

// Movement is one append-only ledger entry. Movements are never
// updated or deleted after being recorded.
type Movement struct {
	ID               string        `bson:"_id" json:"movementId"`
	ProductID        string        `bson:"productId" json:"productId"`
	MovementType     MovementType  `bson:"movementType" json:"movementType"`
	Quantity         int           `bson:"quantity" json:"quantity"`
	PreviousQuantity int           `bson:"previousQuantity" json:"previousQuantity"`
	NewQuantity      int           `bson:"newQuantity" json:"newQuantity"`
	ReferenceType    ReferenceType `bson:"referenceType,omitempty" json:"referenceType,omitempty"`
	ReferenceID      string        `bson:"referenceId,omitempty" json:"referenceId,omitempty"`
	Notes            string        `bson:"notes,omitempty" json:"notes,omitempty"`
	PerformedBy      string        `bson:"performedBy,omitempty" json:"performedBy,omitempty"`
	CreatedAt        time.Time     `bson:"createdAt" json:"createdAt"`
}

// NewMovement creates a ledger entry for a stock change
func NewMovement(productID string, movementType MovementType, quantity, previousQty, newQty int) (*Movement, error) {
	if !movementType.IsValid() {
		return nil, ErrInvalidMovementType
	}
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	return &Movement{
		ID:               uuid.New().String(),
		ProductID:        productID,
		MovementType:     movementType,
		Quantity:         quantity,
		PreviousQuantity: previousQty,
		NewQuantity:      newQty,
		CreatedAt:        time.Now().UTC(),
	}, nil
}

// WithReference attaches reference information to the movement
func (m *Movement) WithReference(refType ReferenceType, refID string) *Movement {
	m.ReferenceType = refType
	m.ReferenceID = refID
	return m
}

// WithNotes attaches free-form notes to the movement
func (m *Movement) WithNotes(notes string) *Movement {
	m.Notes = notes
	return m
}

// WithPerformer records who performed the movement
func (m *Movement) WithPerformer(performedBy string) *Movement {
	m.PerformedBy = performedBy
	return m
}
