package domain

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AlertType classifies a stock alert
type AlertType string

const (
	AlertLowStock   AlertType = "low_stock"
	AlertOutOfStock AlertType = "out_of_stock"
	AlertOverstock  AlertType = "overstock"
)

// IsValid checks if the alert type is valid
func (a AlertType) IsValid() bool {
	switch a {
	case AlertLowStock, AlertOutOfStock, AlertOverstock:
		return true
	default:
		return false
	}
}

// AlertStatus represents the lifecycle state of an alert
type AlertStatus string

const (
	AlertStatusActive   AlertStatus = "active"
	AlertStatusResolved AlertStatus = "resolved"
	AlertStatusIgnored  AlertStatus = "ignored"
)

// StockAlert records a threshold breach for a product. At most one
// active alert exists per (productID, alertType) pair.
type StockAlert struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	ProductID       string             `bson:"productId" json:"productId"`
	ProductName     string             `bson:"productName,omitempty" json:"productName,omitempty"`
	AlertType       AlertType          `bson:"alertType" json:"alertType"`
	Status          AlertStatus        `bson:"status" json:"status"`
	Message         string             `bson:"message" json:"message"`
	CurrentQuantity int                `bson:"currentQuantity" json:"currentQuantity"`
	Threshold       int                `bson:"threshold" json:"threshold"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
	ResolvedAt      *time.Time         `bson:"resolvedAt,omitempty" json:"resolvedAt,omitempty"`
}

// NewStockAlert creates an active alert for a product
func NewStockAlert(productID, productName string, alertType AlertType, currentQty, threshold int) (*StockAlert, error) {
	if !alertType.IsValid() {
		return nil, ErrInvalidAlertType
	}

	return &StockAlert{
		ProductID:       productID,
		ProductName:     productName,
		AlertType:       alertType,
		Status:          AlertStatusActive,
		Message:         alertMessage(productName, alertType, currentQty, threshold),
		CurrentQuantity: currentQty,
		Threshold:       threshold,
		CreatedAt:       time.Now().UTC(),
	}, nil
}

// Resolve marks the alert as resolved
func (a *StockAlert) Resolve() {
	now := time.Now().UTC()
	a.Status = AlertStatusResolved
	a.ResolvedAt = &now
}

// Ignore marks the alert as ignored
func (a *StockAlert) Ignore() {
	a.Status = AlertStatusIgnored
}

// IsActive returns true while the alert has not been resolved or ignored
func (a *StockAlert) IsActive() bool {
	return a.Status == AlertStatusActive
}

// IsCritical returns true for active out-of-stock alerts
func (a *StockAlert) IsCritical() bool {
	return a.IsActive() && a.AlertType == AlertOutOfStock
}

func alertMessage(productName string, alertType AlertType, currentQty, threshold int) string {
	switch alertType {
	case AlertOutOfStock:
		return fmt.Sprintf("%s is out of stock", productName)
	case AlertOverstock:
		return fmt.Sprintf("%s is overstocked: %d units on hand, max level %d", productName, currentQty, threshold)
	default:
		return fmt.Sprintf("%s is running low: %d units available, reorder level %d", productName, currentQty, threshold)
	}
}

// AlertStats summarizes the alert collection
type AlertStats struct {
	Active   int `json:"active"`
	Critical int `json:"critical"`
	Resolved int `json:"resolved"`
	Ignored  int `json:"ignored"`
	Total    int `json:"total"`
}

// SuggestionStatus represents the lifecycle state of a reorder suggestion
type SuggestionStatus string

const (
	SuggestionPending  SuggestionStatus = "pending"
	SuggestionApproved SuggestionStatus = "approved"
	SuggestionRejected SuggestionStatus = "rejected"
	SuggestionOrdered  SuggestionStatus = "ordered"
)

// ReorderSuggestion recommends a restock quantity for a product.
// Suggestions are computed from current stock positions on demand.
type ReorderSuggestion struct {
	ProductID         string           `bson:"productId" json:"productId"`
	ProductName       string           `bson:"productName,omitempty" json:"productName,omitempty"`
	SKU               string           `bson:"sku,omitempty" json:"sku,omitempty"`
	AvailableQuantity int              `bson:"availableQuantity" json:"availableQuantity"`
	MaxStockLevel     int              `bson:"maxStockLevel" json:"maxStockLevel"`
	SuggestedQuantity int              `bson:"suggestedQuantity" json:"suggestedQuantity"`
	Status            SuggestionStatus `bson:"status" json:"status"`
	GeneratedAt       time.Time        `bson:"generatedAt" json:"generatedAt"`
}

// NewReorderSuggestion derives a suggestion from a stock record
func NewReorderSuggestion(record *StockRecord, productName string) *ReorderSuggestion {
	return &ReorderSuggestion{
		ProductID:         record.ProductID,
		ProductName:       productName,
		SKU:               record.SKU,
		AvailableQuantity: record.AvailableQuantity,
		MaxStockLevel:     record.MaxStockLevel,
		SuggestedQuantity: record.ReorderShortfall(),
		Status:            SuggestionPending,
		GeneratedAt:       time.Now().UTC(),
	}
}
