package application

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/KubeStock-DevOps-project/kubestock-core/pkg/api"
	"github.com/KubeStock-DevOps-project/kubestock-core/pkg/errors"
	"github.com/KubeStock-DevOps-project/kubestock-core/pkg/logging"
	"github.com/KubeStock-DevOps-project/kubestock-core/pkg/metrics"

	"github.com/KubeStock-DevOps-project/kubestock-core/internal/domain"
)

// StockApplicationService handles stock record use cases
type StockApplicationService struct {
	stocks    domain.StockRepository
	movements domain.MovementRepository
	metrics   *metrics.Metrics
	logger    *logging.Logger
}

// NewStockApplicationService creates a new StockApplicationService
func NewStockApplicationService(
	stocks domain.StockRepository,
	movements domain.MovementRepository,
	m *metrics.Metrics,
	logger *logging.Logger,
) *StockApplicationService {
	return &StockApplicationService{
		stocks:    stocks,
		movements: movements,
		metrics:   m,
		logger:    logger,
	}
}

// CreateStock creates a stock record for a product
func (s *StockApplicationService) CreateStock(ctx context.Context, cmd CreateStockCommand) (*StockRecordDTO, error) {
	record, err := domain.NewStockRecord(cmd.ProductID, cmd.SKU, cmd.InitialQuantity)
	if err != nil {
		return nil, errors.ErrValidation(err.Error())
	}

	if cmd.ReorderLevel > 0 || cmd.MaxStockLevel > 0 || cmd.WarehouseLocation != "" {
		if err := record.SetLevels(cmd.ReorderLevel, cmd.MaxStockLevel, cmd.WarehouseLocation); err != nil {
			return nil, errors.ErrValidation(err.Error())
		}
	}

	var initial *domain.Movement
	if cmd.InitialQuantity > 0 {
		initial, err = domain.NewMovement(cmd.ProductID, domain.MovementIn, cmd.InitialQuantity, 0, cmd.InitialQuantity)
		if err != nil {
			return nil, errors.ErrValidation(err.Error())
		}
		initial.WithReference(domain.ReferenceInitial, "").
			WithNotes("Initial stock").
			WithPerformer(cmd.PerformedBy)
	}

	if err := s.stocks.Create(ctx, record, initial); err != nil {
		if stderrors.Is(err, domain.ErrDuplicateProduct) {
			return nil, errors.ErrDuplicateProduct(cmd.ProductID)
		}
		s.logger.Error("Failed to create stock record", "productId", cmd.ProductID, "error", err)
		return nil, fmt.Errorf("failed to create stock record: %w", err)
	}

	if initial != nil {
		s.metrics.RecordMovement(string(initial.MovementType))
	}

	s.logger.Info("Created stock record", "productId", cmd.ProductID, "quantity", cmd.InitialQuantity)
	return ToStockRecordDTO(record), nil
}

// GetStock retrieves a stock record by product ID
func (s *StockApplicationService) GetStock(ctx context.Context, query GetStockQuery) (*StockRecordDTO, error) {
	record, err := s.stocks.FindByProductID(ctx, query.ProductID)
	if err != nil {
		s.logger.Error("Failed to get stock record", "productId", query.ProductID, "error", err)
		return nil, fmt.Errorf("failed to get stock record: %w", err)
	}
	if record == nil {
		return nil, errors.ErrNotFound("stock record")
	}

	return ToStockRecordDTO(record), nil
}

// ListStock lists stock records with pagination and optional filters
func (s *StockApplicationService) ListStock(ctx context.Context, query ListStockQuery) (*api.PageResponse[*StockRecordDTO], error) {
	page := normalizePage(query.Page, query.PageSize)

	filter := domain.StockFilter{
		LowStockOnly: query.LowStockOnly,
		Location:     query.Location,
		Search:       query.Search,
	}

	records, total, err := s.stocks.FindAll(ctx, filter, int(page.GetLimit()), int(page.GetOffset()))
	if err != nil {
		s.logger.Error("Failed to list stock records", "error", err)
		return nil, fmt.Errorf("failed to list stock records: %w", err)
	}

	response := api.NewPageResponse(ToStockRecordDTOs(records), page.Page, page.PageSize, total)
	return &response, nil
}

// Reserve holds stock against a future deduction. The conditional
// update guarantees that concurrent reservations never oversell.
func (s *StockApplicationService) Reserve(ctx context.Context, cmd ReserveCommand) (*StockRecordDTO, error) {
	if cmd.Quantity <= 0 {
		return nil, errors.ErrValidation("quantity must be positive")
	}

	record, err := s.stocks.Reserve(ctx, cmd.ProductID, cmd.Quantity, cmd.OrderRef)
	if err != nil {
		s.metrics.RecordReservationOp("reserve", false)
		switch {
		case stderrors.Is(err, domain.ErrStockNotFound):
			return nil, errors.ErrNotFound("stock record")
		case stderrors.Is(err, domain.ErrInsufficientStock):
			s.metrics.RecordInsufficientStock("reserve")
			s.logger.Warn("Reservation rejected", "productId", cmd.ProductID, "quantity", cmd.Quantity, "orderRef", cmd.OrderRef)
			return nil, errors.ErrInsufficientStock(cmd.ProductID, cmd.Quantity, availableOf(record))
		default:
			s.logger.Error("Failed to reserve stock", "productId", cmd.ProductID, "error", err)
			return nil, fmt.Errorf("failed to reserve stock: %w", err)
		}
	}

	s.metrics.RecordReservationOp("reserve", true)
	s.logger.Info("Reserved stock", "productId", cmd.ProductID, "quantity", cmd.Quantity, "orderRef", cmd.OrderRef,
		"available", record.AvailableQuantity)
	return ToStockRecordDTO(record), nil
}

// Release returns reserved stock to the available pool
func (s *StockApplicationService) Release(ctx context.Context, cmd ReleaseCommand) (*StockRecordDTO, error) {
	if cmd.Quantity <= 0 {
		return nil, errors.ErrValidation("quantity must be positive")
	}

	record, err := s.stocks.Release(ctx, cmd.ProductID, cmd.Quantity, cmd.OrderRef)
	if err != nil {
		s.metrics.RecordReservationOp("release", false)
		switch {
		case stderrors.Is(err, domain.ErrStockNotFound):
			return nil, errors.ErrNotFound("stock record")
		case stderrors.Is(err, domain.ErrReleaseExceedsStock):
			return nil, errors.ErrInvalidRelease(cmd.ProductID, cmd.Quantity, reservedOf(record))
		default:
			s.logger.Error("Failed to release reservation", "productId", cmd.ProductID, "error", err)
			return nil, fmt.Errorf("failed to release reservation: %w", err)
		}
	}

	s.metrics.RecordReservationOp("release", true)
	s.logger.Info("Released reservation", "productId", cmd.ProductID, "quantity", cmd.Quantity, "orderRef", cmd.OrderRef)
	return ToStockRecordDTO(record), nil
}

// ConfirmDeduction permanently removes reserved stock and appends the
// out movement to the ledger
func (s *StockApplicationService) ConfirmDeduction(ctx context.Context, cmd DeductCommand) (*StockRecordDTO, error) {
	if cmd.Quantity <= 0 {
		return nil, errors.ErrValidation("quantity must be positive")
	}

	record, err := s.stocks.ConfirmDeduction(ctx, cmd.ProductID, cmd.Quantity, cmd.OrderRef)
	if err != nil {
		s.metrics.RecordReservationOp("deduct", false)
		switch {
		case stderrors.Is(err, domain.ErrStockNotFound):
			return nil, errors.ErrNotFound("stock record")
		case stderrors.Is(err, domain.ErrDeductExceedsStock):
			return nil, errors.ErrInvalidDeduction(cmd.ProductID, cmd.Quantity, reservedOf(record))
		default:
			s.logger.Error("Failed to confirm deduction", "productId", cmd.ProductID, "error", err)
			return nil, fmt.Errorf("failed to confirm deduction: %w", err)
		}
	}

	s.metrics.RecordReservationOp("deduct", true)
	s.metrics.RecordMovement(string(domain.MovementOut))
	s.logger.StockMovement(ctx, cmd.ProductID, string(domain.MovementOut), cmd.Quantity,
		record.Quantity+cmd.Quantity, record.Quantity)
	return ToStockRecordDTO(record), nil
}

// Receive adds new stock on hand. The first receipt for a product the
// ledger has never seen creates its record with default levels.
func (s *StockApplicationService) Receive(ctx context.Context, cmd ReceiveCommand) (*StockRecordDTO, error) {
	if cmd.Quantity <= 0 {
		return nil, errors.ErrValidation("quantity must be positive")
	}

	record, err := s.stocks.Receive(ctx, cmd.ProductID, cmd.Quantity, cmd.ReferenceID, cmd.Notes, cmd.PerformedBy)
	if stderrors.Is(err, domain.ErrStockNotFound) {
		record, err = s.createOnFirstReceipt(ctx, cmd)
	}
	if err != nil {
		s.logger.Error("Failed to receive stock", "productId", cmd.ProductID, "error", err)
		return nil, fmt.Errorf("failed to receive stock: %w", err)
	}

	s.metrics.RecordMovement(string(domain.MovementIn))
	s.logger.StockMovement(ctx, cmd.ProductID, string(domain.MovementIn), cmd.Quantity,
		record.Quantity-cmd.Quantity, record.Quantity)
	return ToStockRecordDTO(record), nil
}

// createOnFirstReceipt creates the stock record a receipt found
// missing. Losing the creation race to a concurrent receipt is fine;
// the retry lands on the record the winner created.
func (s *StockApplicationService) createOnFirstReceipt(ctx context.Context, cmd ReceiveCommand) (*domain.StockRecord, error) {
	record, err := domain.NewStockRecord(cmd.ProductID, "", 0)
	if err != nil {
		return nil, errors.ErrValidation(err.Error())
	}
	movement, err := record.Receive(cmd.Quantity, domain.ReferencePurchase, cmd.ReferenceID)
	if err != nil {
		return nil, errors.ErrValidation(err.Error())
	}
	if cmd.Notes != "" {
		movement.WithNotes(cmd.Notes)
	}
	movement.WithPerformer(cmd.PerformedBy)

	err = s.stocks.Create(ctx, record, movement)
	if stderrors.Is(err, domain.ErrDuplicateProduct) {
		return s.stocks.Receive(ctx, cmd.ProductID, cmd.Quantity, cmd.ReferenceID, cmd.Notes, cmd.PerformedBy)
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info("Created stock record on first receipt", "productId", cmd.ProductID, "quantity", cmd.Quantity)
	return record, nil
}

// Return adds stock back from a cancelled or returned order
func (s *StockApplicationService) Return(ctx context.Context, cmd ReturnCommand) (*StockRecordDTO, error) {
	if cmd.Quantity <= 0 {
		return nil, errors.ErrValidation("quantity must be positive")
	}

	record, err := s.stocks.Return(ctx, cmd.ProductID, cmd.Quantity, cmd.OrderRef)
	if err != nil {
		if stderrors.Is(err, domain.ErrStockNotFound) {
			return nil, errors.ErrNotFound("stock record")
		}
		s.logger.Error("Failed to return stock", "productId", cmd.ProductID, "error", err)
		return nil, fmt.Errorf("failed to return stock: %w", err)
	}

	s.metrics.RecordMovement(string(domain.MovementReturned))
	s.logger.StockMovement(ctx, cmd.ProductID, string(domain.MovementReturned), cmd.Quantity,
		record.Quantity-cmd.Quantity, record.Quantity)
	return ToStockRecordDTO(record), nil
}

// Adjust manually corrects the on-hand quantity
func (s *StockApplicationService) Adjust(ctx context.Context, cmd AdjustCommand) (*StockRecordDTO, error) {
	if cmd.NewQuantity < 0 {
		return nil, errors.ErrValidation("quantity must not be negative")
	}

	record, movement, err := s.stocks.AdjustQuantity(ctx, cmd.ProductID, cmd.NewQuantity,
		movementTypeForReason(cmd.Reason), cmd.Reason, cmd.PerformedBy)
	if err != nil {
		switch {
		case stderrors.Is(err, domain.ErrStockNotFound):
			return nil, errors.ErrNotFound("stock record")
		case stderrors.Is(err, domain.ErrNegativeResult):
			return nil, errors.ErrValidation(fmt.Sprintf(
				"new quantity %d does not cover %d reserved units", cmd.NewQuantity, reservedOf(record)))
		default:
			s.logger.Error("Failed to adjust stock", "productId", cmd.ProductID, "error", err)
			return nil, fmt.Errorf("failed to adjust stock: %w", err)
		}
	}
	if movement == nil {
		// No quantity change, nothing was persisted
		return ToStockRecordDTO(record), nil
	}

	s.metrics.RecordMovement(string(movement.MovementType))
	s.logger.StockMovement(ctx, cmd.ProductID, string(movement.MovementType), movement.Quantity,
		movement.PreviousQuantity, movement.NewQuantity)
	return ToStockRecordDTO(record), nil
}

// UpdateLevels updates the reorder thresholds and location metadata
func (s *StockApplicationService) UpdateLevels(ctx context.Context, cmd UpdateLevelsCommand) (*StockRecordDTO, error) {
	record, err := s.loadRecord(ctx, cmd.ProductID)
	if err != nil {
		return nil, err
	}

	if err := record.SetLevels(cmd.ReorderLevel, cmd.MaxStockLevel, cmd.WarehouseLocation); err != nil {
		return nil, errors.ErrValidation(err.Error())
	}

	if err := s.stocks.Update(ctx, record); err != nil {
		s.logger.Error("Failed to update stock levels", "productId", cmd.ProductID, "error", err)
		return nil, fmt.Errorf("failed to update stock levels: %w", err)
	}

	s.logger.Info("Updated stock levels", "productId", cmd.ProductID,
		"reorderLevel", record.ReorderLevel, "maxStockLevel", record.MaxStockLevel)
	return ToStockRecordDTO(record), nil
}

// GetMovements lists ledger entries for a product, newest first
func (s *StockApplicationService) GetMovements(ctx context.Context, query GetMovementsQuery) (*api.PageResponse[*MovementDTO], error) {
	if query.MovementType != "" && !domain.MovementType(query.MovementType).IsValid() {
		return nil, errors.ErrValidation("invalid movement type: " + query.MovementType)
	}

	record, err := s.stocks.FindByProductID(ctx, query.ProductID)
	if err != nil {
		return nil, fmt.Errorf("failed to get stock record: %w", err)
	}
	if record == nil {
		return nil, errors.ErrNotFound("stock record")
	}

	page := normalizePage(query.Page, query.PageSize)

	movements, total, err := s.movements.FindByProductID(ctx, query.ProductID,
		domain.MovementType(query.MovementType), int(page.GetLimit()), int(page.GetOffset()))
	if err != nil {
		s.logger.Error("Failed to list movements", "productId", query.ProductID, "error", err)
		return nil, fmt.Errorf("failed to list movements: %w", err)
	}

	response := api.NewPageResponse(ToMovementDTOs(movements), page.Page, page.PageSize, total)
	return &response, nil
}

// BulkStockCheck reports availability for a set of products
func (s *StockApplicationService) BulkStockCheck(ctx context.Context, query BulkCheckQuery) ([]*BulkCheckItemDTO, error) {
	if len(query.ProductIDs) == 0 {
		return nil, errors.ErrValidation("productIds must not be empty")
	}

	records, err := s.stocks.FindByProductIDs(ctx, query.ProductIDs)
	if err != nil {
		s.logger.Error("Failed to bulk check stock", "error", err)
		return nil, fmt.Errorf("failed to bulk check stock: %w", err)
	}

	byProduct := make(map[string]*domain.StockRecord, len(records))
	for _, record := range records {
		byProduct[record.ProductID] = record
	}

	results := make([]*BulkCheckItemDTO, 0, len(query.ProductIDs))
	for _, productID := range query.ProductIDs {
		item := &BulkCheckItemDTO{ProductID: productID}
		if record, ok := byProduct[productID]; ok {
			item.Exists = true
			item.AvailableQuantity = record.AvailableQuantity
			item.InStock = record.AvailableQuantity > 0
		}
		results = append(results, item)
	}

	return results, nil
}

func (s *StockApplicationService) loadRecord(ctx context.Context, productID string) (*domain.StockRecord, error) {
	record, err := s.stocks.FindByProductID(ctx, productID)
	if err != nil {
		s.logger.Error("Failed to get stock record", "productId", productID, "error", err)
		return nil, fmt.Errorf("failed to get stock record: %w", err)
	}
	if record == nil {
		return nil, errors.ErrNotFound("stock record")
	}
	record.ClearDomainEvents()
	return record, nil
}

// availableOf reports the available quantity from a possibly nil
// record returned alongside a rejection
func availableOf(record *domain.StockRecord) int {
	if record == nil {
		return 0
	}
	return record.AvailableQuantity
}

func reservedOf(record *domain.StockRecord) int {
	if record == nil {
		return 0
	}
	return record.ReservedQuantity
}

// normalizePage clamps pagination parameters to valid bounds
func normalizePage(page, pageSize int) api.PageRequest {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return api.PageRequest{Page: int64(page), PageSize: int64(pageSize)}
}

// movementTypeForReason maps well-known adjustment reasons to their
// dedicated movement types
func movementTypeForReason(reason string) domain.MovementType {
	switch reason {
	case "damaged":
		return domain.MovementDamaged
	case "expired":
		return domain.MovementExpired
	default:
		return domain.MovementAdjustment
	}
}
