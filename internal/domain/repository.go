package domain

import "context"

// StockFilter narrows stock record listings
type StockFilter struct {
	LowStockOnly bool
	Location     string
	Search       string
}

// StockRepository defines the interface for stock record persistence.
// Mutating methods commit the stock change, the ledger entry, and the
// staged outbox events in a single transaction.
type StockRepository interface {
	// Create inserts a new record with its optional initial movement.
	// Returns ErrDuplicateProduct on a unique key conflict.
	Create(ctx context.Context, record *StockRecord, initial *Movement) error

	// Update persists metadata changes such as levels and location.
	// Quantity changes go through the conditional operations below so
	// concurrent mutations race on the database instead of on a
	// read-modify-write cycle.
	Update(ctx context.Context, record *StockRecord) error
	FindByProductID(ctx context.Context, productID string) (*StockRecord, error)
	FindByProductIDs(ctx context.Context, productIDs []string) ([]*StockRecord, error)
	FindAll(ctx context.Context, filter StockFilter, limit, offset int) ([]*StockRecord, int64, error)
	FindLowStock(ctx context.Context) ([]*StockRecord, error)
	FindReorderCandidates(ctx context.Context, limit int) ([]*StockRecord, error)

	// Reserve atomically moves qty from available to reserved when
	// enough stock is available. Returns ErrInsufficientStock when the
	// conditional update matches no document.
	Reserve(ctx context.Context, productID string, qty int, orderRef string) (*StockRecord, error)

	// Release atomically returns qty reserved units to the available
	// pool. Returns ErrReleaseExceedsStock when reserved < qty.
	Release(ctx context.Context, productID string, qty int, orderRef string) (*StockRecord, error)

	// ConfirmDeduction atomically deducts reserved stock, appends the
	// out movement, and stages the outbox event in one transaction.
	ConfirmDeduction(ctx context.Context, productID string, qty int, orderRef string) (*StockRecord, error)

	// Receive atomically adds qty on-hand units, stamps the restock
	// time, and appends the in movement. Returns ErrStockNotFound when
	// the product has no record.
	Receive(ctx context.Context, productID string, qty int, referenceID, notes, performedBy string) (*StockRecord, error)

	// Return atomically adds qty units back from a returned order and
	// appends the returned movement.
	Return(ctx context.Context, productID string, qty int, orderRef string) (*StockRecord, error)

	// AdjustQuantity atomically sets the on-hand quantity as a manual
	// correction. The conditional update requires the new quantity to
	// cover outstanding reservations and returns ErrNegativeResult when
	// it does not. The movement is nil when the quantity is unchanged.
	AdjustQuantity(ctx context.Context, productID string, newQuantity int, movementType MovementType, reason, performedBy string) (*StockRecord, *Movement, error)
}

// MovementRepository defines the interface for the append-only ledger
type MovementRepository interface {
	Append(ctx context.Context, movement *Movement) error
	FindByProductID(ctx context.Context, productID string, movementType MovementType, limit, offset int) ([]*Movement, int64, error)
}

// AlertRepository defines the interface for stock alert persistence
type AlertRepository interface {
	Upsert(ctx context.Context, alert *StockAlert) error
	FindActive(ctx context.Context) ([]*StockAlert, error)
	FindActiveByProduct(ctx context.Context, productID string, alertType AlertType) (*StockAlert, error)
	ResolveForProduct(ctx context.Context, productID string, alertType AlertType) (int64, error)
	Stats(ctx context.Context) (*AlertStats, error)
}

// ProductInfo carries the catalog attributes stock listings are
// enriched with
type ProductInfo struct {
	ID        string
	Name      string
	SKU       string
	UnitPrice float64
}

// ProductResolver resolves product details from the catalog service.
// Implementations fall back to a placeholder name when the catalog is
// unreachable.
type ProductResolver interface {
	ResolveName(ctx context.Context, productID string) string
	ResolveProducts(ctx context.Context, productIDs []string) map[string]ProductInfo
}
