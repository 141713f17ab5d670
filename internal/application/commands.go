package application

// CreateStockCommand creates a stock record for a product
type CreateStockCommand struct {
	ProductID         string
	SKU               string
	InitialQuantity   int
	WarehouseLocation string
	ReorderLevel      int
	MaxStockLevel     int
	PerformedBy       string
}

// ReserveCommand holds stock against a future deduction
type ReserveCommand struct {
	ProductID string
	Quantity  int
	OrderRef  string
}

// ReleaseCommand returns reserved stock to the available pool
type ReleaseCommand struct {
	ProductID string
	Quantity  int
	OrderRef  string
}

// DeductCommand permanently removes reserved stock
type DeductCommand struct {
	ProductID string
	Quantity  int
	OrderRef  string
}

// ReceiveCommand adds new stock on hand
type ReceiveCommand struct {
	ProductID   string
	Quantity    int
	ReferenceID string
	Notes       string
	PerformedBy string
}

// ReturnCommand adds stock back from a cancelled or returned order
type ReturnCommand struct {
	ProductID string
	Quantity  int
	OrderRef  string
}

// AdjustCommand manually corrects the on-hand quantity
type AdjustCommand struct {
	ProductID   string
	NewQuantity int
	Reason      string
	PerformedBy string
}

// UpdateLevelsCommand updates reorder thresholds and location metadata
type UpdateLevelsCommand struct {
	ProductID         string
	ReorderLevel      int
	MaxStockLevel     int
	WarehouseLocation string
}

// GetStockQuery retrieves a single stock record
type GetStockQuery struct {
	ProductID string
}

// ListStockQuery lists stock records with optional filters
type ListStockQuery struct {
	LowStockOnly bool
	Location     string
	Search       string
	Page         int
	PageSize     int
}

// GetMovementsQuery lists ledger entries for a product
type GetMovementsQuery struct {
	ProductID    string
	MovementType string
	Page         int
	PageSize     int
}

// BulkCheckQuery checks availability for a set of products
type BulkCheckQuery struct {
	ProductIDs []string
}
