package application

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KubeStock-DevOps-project/kubestock-core/internal/domain"
	"github.com/KubeStock-DevOps-project/kubestock-core/pkg/errors"
	"github.com/KubeStock-DevOps-project/kubestock-core/pkg/logging"
	"github.com/KubeStock-DevOps-project/kubestock-core/pkg/metrics"
)

// fakeStockRepo is an in-memory StockRepository keyed by product ID.
// The conditional quantity methods mirror the sentinel error contract
// of the MongoDB implementation.
type fakeStockRepo struct {
	mu          sync.Mutex
	records     map[string]*domain.StockRecord
	moves       []*domain.Movement
	updateCalls int
	failWith    error

	// createRace makes the next Create behave as if a concurrent
	// caller inserted the record first
	createRace bool
}

func newFakeStockRepo() *fakeStockRepo {
	return &fakeStockRepo{records: make(map[string]*domain.StockRecord)}
}

func (r *fakeStockRepo) Create(ctx context.Context, record *domain.StockRecord, initial *domain.Movement) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return r.failWith
	}
	if _, exists := r.records[record.ProductID]; exists {
		return domain.ErrDuplicateProduct
	}
	if r.createRace {
		r.createRace = false
		winner, _ := domain.NewStockRecord(record.ProductID, record.SKU, 0)
		winner.ClearDomainEvents()
		r.records[record.ProductID] = winner
		return domain.ErrDuplicateProduct
	}
	r.records[record.ProductID] = record
	if initial != nil {
		r.moves = append(r.moves, initial)
	}
	return nil
}

func (r *fakeStockRepo) Update(ctx context.Context, record *domain.StockRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return r.failWith
	}
	r.records[record.ProductID] = record
	r.updateCalls++
	return nil
}

func (r *fakeStockRepo) FindByProductID(ctx context.Context, productID string) (*domain.StockRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return nil, r.failWith
	}
	return r.records[productID], nil
}

func (r *fakeStockRepo) FindByProductIDs(ctx context.Context, productIDs []string) ([]*domain.StockRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.StockRecord
	for _, id := range productIDs {
		if record, ok := r.records[id]; ok {
			out = append(out, record)
		}
	}
	return out, nil
}

func (r *fakeStockRepo) FindAll(ctx context.Context, filter domain.StockFilter, limit, offset int) ([]*domain.StockRecord, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var all []*domain.StockRecord
	for _, record := range r.records {
		if filter.LowStockOnly && !record.IsLowStock() {
			continue
		}
		all = append(all, record)
	}
	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (r *fakeStockRepo) FindLowStock(ctx context.Context) ([]*domain.StockRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.StockRecord
	for _, record := range r.records {
		if record.IsLowStock() {
			out = append(out, record)
		}
	}
	return out, nil
}

func (r *fakeStockRepo) FindReorderCandidates(ctx context.Context, limit int) ([]*domain.StockRecord, error) {
	low, err := r.FindLowStock(ctx)
	if err != nil {
		return nil, err
	}
	if len(low) > limit {
		low = low[:limit]
	}
	return low, nil
}

func (r *fakeStockRepo) Reserve(ctx context.Context, productID string, qty int, orderRef string) (*domain.StockRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.records[productID]
	if !ok {
		return nil, domain.ErrStockNotFound
	}
	if record.AvailableQuantity < qty {
		return record, domain.ErrInsufficientStock
	}
	record.ReservedQuantity += qty
	record.AvailableQuantity = record.Quantity - record.ReservedQuantity
	return record, nil
}

func (r *fakeStockRepo) Release(ctx context.Context, productID string, qty int, orderRef string) (*domain.StockRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.records[productID]
	if !ok {
		return nil, domain.ErrStockNotFound
	}
	if record.ReservedQuantity < qty {
		return record, domain.ErrReleaseExceedsStock
	}
	record.ReservedQuantity -= qty
	record.AvailableQuantity = record.Quantity - record.ReservedQuantity
	return record, nil
}

func (r *fakeStockRepo) ConfirmDeduction(ctx context.Context, productID string, qty int, orderRef string) (*domain.StockRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.records[productID]
	if !ok {
		return nil, domain.ErrStockNotFound
	}
	if record.ReservedQuantity < qty {
		return record, domain.ErrDeductExceedsStock
	}
	record.Quantity -= qty
	record.ReservedQuantity -= qty
	record.AvailableQuantity = record.Quantity - record.ReservedQuantity
	movement, _ := domain.NewMovement(productID, domain.MovementOut, qty, record.Quantity+qty, record.Quantity)
	r.moves = append(r.moves, movement)
	return record, nil
}

func (r *fakeStockRepo) Receive(ctx context.Context, productID string, qty int, referenceID, notes, performedBy string) (*domain.StockRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.records[productID]
	if !ok {
		return nil, domain.ErrStockNotFound
	}
	record.Quantity += qty
	record.AvailableQuantity = record.Quantity - record.ReservedQuantity
	now := time.Now().UTC()
	record.LastRestockedAt = &now
	movement, _ := domain.NewMovement(productID, domain.MovementIn, qty, record.Quantity-qty, record.Quantity)
	if referenceID != "" {
		movement.WithReference(domain.ReferencePurchase, referenceID)
	}
	if notes != "" {
		movement.WithNotes(notes)
	}
	movement.WithPerformer(performedBy)
	r.moves = append(r.moves, movement)
	return record, nil
}

func (r *fakeStockRepo) Return(ctx context.Context, productID string, qty int, orderRef string) (*domain.StockRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.records[productID]
	if !ok {
		return nil, domain.ErrStockNotFound
	}
	record.Quantity += qty
	record.AvailableQuantity = record.Quantity - record.ReservedQuantity
	movement, _ := domain.NewMovement(productID, domain.MovementReturned, qty, record.Quantity-qty, record.Quantity)
	movement.WithReference(domain.ReferenceOrderReturn, orderRef)
	movement.WithNotes("Stock returned from order #" + orderRef)
	r.moves = append(r.moves, movement)
	return record, nil
}

func (r *fakeStockRepo) AdjustQuantity(ctx context.Context, productID string, newQuantity int, movementType domain.MovementType, reason, performedBy string) (*domain.StockRecord, *domain.Movement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.records[productID]
	if !ok {
		return nil, nil, domain.ErrStockNotFound
	}
	if record.ReservedQuantity > newQuantity {
		return record, nil, domain.ErrNegativeResult
	}
	previous := record.Quantity
	record.Quantity = newQuantity
	record.AvailableQuantity = newQuantity - record.ReservedQuantity
	if previous == newQuantity {
		return record, nil, nil
	}
	delta := newQuantity - previous
	if delta < 0 {
		delta = -delta
	}
	movement, _ := domain.NewMovement(productID, movementType, delta, previous, newQuantity)
	movement.WithReference(domain.ReferenceAdjustment, "").WithNotes(reason).WithPerformer(performedBy)
	r.moves = append(r.moves, movement)
	return record, movement, nil
}

type fakeMovementRepo struct {
	mu        sync.Mutex
	movements []*domain.Movement
}

func (r *fakeMovementRepo) Append(ctx context.Context, movement *domain.Movement) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.movements = append(r.movements, movement)
	return nil
}

func (r *fakeMovementRepo) FindByProductID(ctx context.Context, productID string, movementType domain.MovementType, limit, offset int) ([]*domain.Movement, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var matched []*domain.Movement
	for i := len(r.movements) - 1; i >= 0; i-- {
		m := r.movements[i]
		if m.ProductID != productID {
			continue
		}
		if movementType != "" && m.MovementType != movementType {
			continue
		}
		matched = append(matched, m)
	}
	total := int64(len(matched))
	if offset >= len(matched) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], total, nil
}

func testLogger() *logging.Logger {
	config := logging.DefaultConfig("inventory-service-test")
	config.Output = io.Discard
	return logging.New(config)
}

func newTestStockService(stocks *fakeStockRepo, movements *fakeMovementRepo) *StockApplicationService {
	return NewStockApplicationService(stocks, movements,
		metrics.New(metrics.DefaultConfig("inventory-service-test")), testLogger())
}

func seedStock(t *testing.T, repo *fakeStockRepo, productID string, quantity, reserved int) *domain.StockRecord {
	t.Helper()
	record, err := domain.NewStockRecord(productID, "SKU-"+productID, quantity)
	require.NoError(t, err)
	record.ReservedQuantity = reserved
	record.AvailableQuantity = quantity - reserved
	record.ClearDomainEvents()
	repo.records[productID] = record
	return record
}

func assertAppErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	appErr, ok := errors.AsAppError(err)
	require.True(t, ok, "expected AppError, got %v", err)
	assert.Equal(t, code, appErr.Code)
}

func TestCreateStock(t *testing.T) {
	stocks := newFakeStockRepo()
	service := newTestStockService(stocks, &fakeMovementRepo{})

	dto, err := service.CreateStock(context.Background(), CreateStockCommand{
		ProductID:       "prod-1",
		SKU:             "SKU-001",
		InitialQuantity: 50,
		ReorderLevel:    15,
		MaxStockLevel:   200,
		PerformedBy:     "seed-script",
	})

	require.NoError(t, err)
	assert.Equal(t, "prod-1", dto.ProductID)
	assert.Equal(t, 50, dto.Quantity)
	assert.Equal(t, 50, dto.AvailableQuantity)
	assert.Equal(t, 15, dto.ReorderLevel)
	assert.Equal(t, 200, dto.MaxStockLevel)

	require.Len(t, stocks.moves, 1)
	assert.Equal(t, domain.MovementIn, stocks.moves[0].MovementType)
	assert.Equal(t, domain.ReferenceInitial, stocks.moves[0].ReferenceType)
	assert.Equal(t, "Initial stock", stocks.moves[0].Notes)
}

func TestCreateStockDuplicate(t *testing.T) {
	stocks := newFakeStockRepo()
	service := newTestStockService(stocks, &fakeMovementRepo{})
	seedStock(t, stocks, "prod-1", 10, 0)

	_, err := service.CreateStock(context.Background(), CreateStockCommand{
		ProductID: "prod-1",
		SKU:       "SKU-001",
	})

	assertAppErrorCode(t, err, errors.CodeDuplicateProduct)
}

func TestCreateStockNegativeQuantity(t *testing.T) {
	service := newTestStockService(newFakeStockRepo(), &fakeMovementRepo{})

	_, err := service.CreateStock(context.Background(), CreateStockCommand{
		ProductID:       "prod-1",
		SKU:             "SKU-001",
		InitialQuantity: -5,
	})

	assertAppErrorCode(t, err, errors.CodeValidationError)
}

func TestReserve(t *testing.T) {
	stocks := newFakeStockRepo()
	service := newTestStockService(stocks, &fakeMovementRepo{})
	seedStock(t, stocks, "prod-1", 10, 0)

	dto, err := service.Reserve(context.Background(), ReserveCommand{
		ProductID: "prod-1",
		Quantity:  7,
		OrderRef:  "ord-77",
	})

	require.NoError(t, err)
	assert.Equal(t, 10, dto.Quantity)
	assert.Equal(t, 7, dto.ReservedQuantity)
	assert.Equal(t, 3, dto.AvailableQuantity)
}

func TestReserveInsufficientStock(t *testing.T) {
	stocks := newFakeStockRepo()
	service := newTestStockService(stocks, &fakeMovementRepo{})
	seedStock(t, stocks, "prod-1", 10, 8)

	_, err := service.Reserve(context.Background(), ReserveCommand{
		ProductID: "prod-1",
		Quantity:  3,
		OrderRef:  "ord-77",
	})

	assertAppErrorCode(t, err, errors.CodeInsufficientStock)

	// The rejected reservation must not change the record.
	record := stocks.records["prod-1"]
	assert.Equal(t, 8, record.ReservedQuantity)
	assert.Equal(t, 2, record.AvailableQuantity)
}

func TestReserveUnknownProduct(t *testing.T) {
	service := newTestStockService(newFakeStockRepo(), &fakeMovementRepo{})

	_, err := service.Reserve(context.Background(), ReserveCommand{
		ProductID: "ghost",
		Quantity:  1,
	})

	assertAppErrorCode(t, err, errors.CodeNotFound)
}

func TestReserveNonPositiveQuantity(t *testing.T) {
	service := newTestStockService(newFakeStockRepo(), &fakeMovementRepo{})

	_, err := service.Reserve(context.Background(), ReserveCommand{ProductID: "prod-1", Quantity: 0})

	assertAppErrorCode(t, err, errors.CodeValidationError)
}

func TestRelease(t *testing.T) {
	stocks := newFakeStockRepo()
	service := newTestStockService(stocks, &fakeMovementRepo{})
	seedStock(t, stocks, "prod-1", 10, 6)

	dto, err := service.Release(context.Background(), ReleaseCommand{
		ProductID: "prod-1",
		Quantity:  4,
		OrderRef:  "ord-77",
	})

	require.NoError(t, err)
	assert.Equal(t, 2, dto.ReservedQuantity)
	assert.Equal(t, 8, dto.AvailableQuantity)
}

func TestReleaseExceedsReserved(t *testing.T) {
	stocks := newFakeStockRepo()
	service := newTestStockService(stocks, &fakeMovementRepo{})
	seedStock(t, stocks, "prod-1", 10, 2)

	_, err := service.Release(context.Background(), ReleaseCommand{
		ProductID: "prod-1",
		Quantity:  5,
	})

	assertAppErrorCode(t, err, errors.CodeInvalidRelease)
}

func TestConfirmDeduction(t *testing.T) {
	stocks := newFakeStockRepo()
	service := newTestStockService(stocks, &fakeMovementRepo{})
	seedStock(t, stocks, "prod-1", 10, 6)

	dto, err := service.ConfirmDeduction(context.Background(), DeductCommand{
		ProductID: "prod-1",
		Quantity:  6,
		OrderRef:  "ord-77",
	})

	require.NoError(t, err)
	assert.Equal(t, 4, dto.Quantity)
	assert.Equal(t, 0, dto.ReservedQuantity)
	assert.Equal(t, 4, dto.AvailableQuantity)

	require.Len(t, stocks.moves, 1)
	assert.Equal(t, domain.MovementOut, stocks.moves[0].MovementType)
}

func TestConfirmDeductionExceedsReserved(t *testing.T) {
	stocks := newFakeStockRepo()
	service := newTestStockService(stocks, &fakeMovementRepo{})
	seedStock(t, stocks, "prod-1", 10, 2)

	_, err := service.ConfirmDeduction(context.Background(), DeductCommand{
		ProductID: "prod-1",
		Quantity:  5,
	})

	assertAppErrorCode(t, err, errors.CodeInvalidDeduction)
}

func TestReceive(t *testing.T) {
	stocks := newFakeStockRepo()
	service := newTestStockService(stocks, &fakeMovementRepo{})
	seedStock(t, stocks, "prod-1", 5, 0)

	dto, err := service.Receive(context.Background(), ReceiveCommand{
		ProductID:   "prod-1",
		Quantity:    20,
		ReferenceID: "po-123",
		PerformedBy: "warehouse",
	})

	require.NoError(t, err)
	assert.Equal(t, 25, dto.Quantity)
	assert.Equal(t, 25, dto.AvailableQuantity)
	assert.NotNil(t, dto.LastRestockedAt)

	require.Len(t, stocks.moves, 1)
	movement := stocks.moves[0]
	assert.Equal(t, domain.MovementIn, movement.MovementType)
	assert.Equal(t, domain.ReferencePurchase, movement.ReferenceType)
	assert.Equal(t, "po-123", movement.ReferenceID)
	assert.Equal(t, 5, movement.PreviousQuantity)
	assert.Equal(t, 25, movement.NewQuantity)
}

func TestReceiveCreatesRecordForNewProduct(t *testing.T) {
	stocks := newFakeStockRepo()
	service := newTestStockService(stocks, &fakeMovementRepo{})

	dto, err := service.Receive(context.Background(), ReceiveCommand{
		ProductID:   "brand-new-product",
		Quantity:    15,
		ReferenceID: "po-1",
		PerformedBy: "warehouse",
	})

	require.NoError(t, err)
	assert.Equal(t, 15, dto.Quantity)
	assert.Equal(t, 15, dto.AvailableQuantity)
	assert.Equal(t, domain.DefaultReorderLevel, dto.ReorderLevel)
	assert.Equal(t, domain.DefaultMaxStockLevel, dto.MaxStockLevel)
	assert.NotNil(t, dto.LastRestockedAt)

	record := stocks.records["brand-new-product"]
	require.NotNil(t, record)
	assert.Equal(t, 15, record.Quantity)

	require.Len(t, stocks.moves, 1)
	assert.Equal(t, domain.MovementIn, stocks.moves[0].MovementType)
	assert.Equal(t, domain.ReferencePurchase, stocks.moves[0].ReferenceType)
}

func TestReceiveLostCreationRace(t *testing.T) {
	stocks := newFakeStockRepo()
	stocks.createRace = true
	service := newTestStockService(stocks, &fakeMovementRepo{})

	dto, err := service.Receive(context.Background(), ReceiveCommand{
		ProductID: "prod-1",
		Quantity:  5,
	})

	require.NoError(t, err)
	assert.Equal(t, 5, dto.Quantity)
	require.Len(t, stocks.moves, 1)
	assert.Equal(t, domain.MovementIn, stocks.moves[0].MovementType)
}

func TestReceiveNonPositiveQuantity(t *testing.T) {
	service := newTestStockService(newFakeStockRepo(), &fakeMovementRepo{})

	_, err := service.Receive(context.Background(), ReceiveCommand{ProductID: "prod-1", Quantity: 0})

	assertAppErrorCode(t, err, errors.CodeValidationError)
}

func TestReceivePreservesReservations(t *testing.T) {
	stocks := newFakeStockRepo()
	service := newTestStockService(stocks, &fakeMovementRepo{})
	seedStock(t, stocks, "prod-1", 15, 0)

	_, err := service.Reserve(context.Background(), ReserveCommand{
		ProductID: "prod-1",
		Quantity:  7,
		OrderRef:  "ord-9",
	})
	require.NoError(t, err)

	dto, err := service.Receive(context.Background(), ReceiveCommand{
		ProductID: "prod-1",
		Quantity:  5,
	})

	require.NoError(t, err)
	assert.Equal(t, 20, dto.Quantity)
	assert.Equal(t, 7, dto.ReservedQuantity)
	assert.Equal(t, 13, dto.AvailableQuantity)
}

func TestReturn(t *testing.T) {
	stocks := newFakeStockRepo()
	service := newTestStockService(stocks, &fakeMovementRepo{})
	seedStock(t, stocks, "prod-1", 5, 0)

	dto, err := service.Return(context.Background(), ReturnCommand{
		ProductID: "prod-1",
		Quantity:  2,
		OrderRef:  "ord-42",
	})

	require.NoError(t, err)
	assert.Equal(t, 7, dto.Quantity)

	require.Len(t, stocks.moves, 1)
	assert.Equal(t, domain.MovementReturned, stocks.moves[0].MovementType)
	assert.Equal(t, domain.ReferenceOrderReturn, stocks.moves[0].ReferenceType)
	assert.Equal(t, "Stock returned from order #ord-42", stocks.moves[0].Notes)
}

func TestReturnUnknownProduct(t *testing.T) {
	service := newTestStockService(newFakeStockRepo(), &fakeMovementRepo{})

	_, err := service.Return(context.Background(), ReturnCommand{
		ProductID: "ghost",
		Quantity:  1,
		OrderRef:  "ord-1",
	})

	assertAppErrorCode(t, err, errors.CodeNotFound)
}

func TestAdjust(t *testing.T) {
	stocks := newFakeStockRepo()
	service := newTestStockService(stocks, &fakeMovementRepo{})
	seedStock(t, stocks, "prod-1", 30, 0)

	dto, err := service.Adjust(context.Background(), AdjustCommand{
		ProductID:   "prod-1",
		NewQuantity: 24,
		Reason:      "damaged",
		PerformedBy: "auditor",
	})

	require.NoError(t, err)
	assert.Equal(t, 24, dto.Quantity)

	require.Len(t, stocks.moves, 1)
	assert.Equal(t, domain.MovementDamaged, stocks.moves[0].MovementType)
	assert.Equal(t, 6, stocks.moves[0].Quantity)
}

func TestAdjustNoChange(t *testing.T) {
	stocks := newFakeStockRepo()
	service := newTestStockService(stocks, &fakeMovementRepo{})
	seedStock(t, stocks, "prod-1", 30, 0)

	dto, err := service.Adjust(context.Background(), AdjustCommand{
		ProductID:   "prod-1",
		NewQuantity: 30,
		Reason:      "cycle count",
	})

	require.NoError(t, err)
	assert.Equal(t, 30, dto.Quantity)
	assert.Zero(t, stocks.updateCalls)
	assert.Empty(t, stocks.moves)
}

func TestAdjustBelowReserved(t *testing.T) {
	stocks := newFakeStockRepo()
	service := newTestStockService(stocks, &fakeMovementRepo{})
	seedStock(t, stocks, "prod-1", 30, 10)

	_, err := service.Adjust(context.Background(), AdjustCommand{
		ProductID:   "prod-1",
		NewQuantity: 5,
		Reason:      "shrinkage",
	})

	assertAppErrorCode(t, err, errors.CodeValidationError)
}

func TestUpdateLevels(t *testing.T) {
	stocks := newFakeStockRepo()
	service := newTestStockService(stocks, &fakeMovementRepo{})
	seedStock(t, stocks, "prod-1", 30, 0)

	dto, err := service.UpdateLevels(context.Background(), UpdateLevelsCommand{
		ProductID:         "prod-1",
		ReorderLevel:      25,
		MaxStockLevel:     500,
		WarehouseLocation: "A-12-3",
	})

	require.NoError(t, err)
	assert.Equal(t, 25, dto.ReorderLevel)
	assert.Equal(t, 500, dto.MaxStockLevel)
	assert.Equal(t, "A-12-3", dto.WarehouseLocation)
}

func TestUpdateLevelsReorderAboveMax(t *testing.T) {
	stocks := newFakeStockRepo()
	service := newTestStockService(stocks, &fakeMovementRepo{})
	seedStock(t, stocks, "prod-1", 30, 0)

	_, err := service.UpdateLevels(context.Background(), UpdateLevelsCommand{
		ProductID:     "prod-1",
		ReorderLevel:  600,
		MaxStockLevel: 500,
	})

	assertAppErrorCode(t, err, errors.CodeValidationError)
}

func TestGetMovements(t *testing.T) {
	stocks := newFakeStockRepo()
	movements := &fakeMovementRepo{}
	service := newTestStockService(stocks, movements)
	seedStock(t, stocks, "prod-1", 30, 0)

	first, err := domain.NewMovement("prod-1", domain.MovementIn, 30, 0, 30)
	require.NoError(t, err)
	second, err := domain.NewMovement("prod-1", domain.MovementOut, 5, 30, 25)
	require.NoError(t, err)
	require.NoError(t, movements.Append(context.Background(), first))
	require.NoError(t, movements.Append(context.Background(), second))

	page, err := service.GetMovements(context.Background(), GetMovementsQuery{
		ProductID: "prod-1",
		Page:      1,
		PageSize:  20,
	})

	require.NoError(t, err)
	assert.EqualValues(t, 2, page.TotalItems)
	require.Len(t, page.Data, 2)
	// Newest first.
	assert.Equal(t, string(domain.MovementOut), page.Data[0].MovementType)
	assert.Equal(t, string(domain.MovementIn), page.Data[1].MovementType)
}

func TestGetMovementsFilterByType(t *testing.T) {
	stocks := newFakeStockRepo()
	movements := &fakeMovementRepo{}
	service := newTestStockService(stocks, movements)
	seedStock(t, stocks, "prod-1", 30, 0)

	in, err := domain.NewMovement("prod-1", domain.MovementIn, 30, 0, 30)
	require.NoError(t, err)
	out, err := domain.NewMovement("prod-1", domain.MovementOut, 5, 30, 25)
	require.NoError(t, err)
	require.NoError(t, movements.Append(context.Background(), in))
	require.NoError(t, movements.Append(context.Background(), out))

	page, err := service.GetMovements(context.Background(), GetMovementsQuery{
		ProductID:    "prod-1",
		MovementType: "out",
	})

	require.NoError(t, err)
	assert.EqualValues(t, 1, page.TotalItems)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "out", page.Data[0].MovementType)
}

func TestGetMovementsInvalidType(t *testing.T) {
	service := newTestStockService(newFakeStockRepo(), &fakeMovementRepo{})

	_, err := service.GetMovements(context.Background(), GetMovementsQuery{
		ProductID:    "prod-1",
		MovementType: "teleported",
	})

	assertAppErrorCode(t, err, errors.CodeValidationError)
}

func TestGetMovementsUnknownProduct(t *testing.T) {
	service := newTestStockService(newFakeStockRepo(), &fakeMovementRepo{})

	_, err := service.GetMovements(context.Background(), GetMovementsQuery{ProductID: "ghost"})

	assertAppErrorCode(t, err, errors.CodeNotFound)
}

func TestBulkStockCheck(t *testing.T) {
	stocks := newFakeStockRepo()
	service := newTestStockService(stocks, &fakeMovementRepo{})
	seedStock(t, stocks, "prod-1", 10, 4)
	seedStock(t, stocks, "prod-2", 5, 5)

	results, err := service.BulkStockCheck(context.Background(), BulkCheckQuery{
		ProductIDs: []string{"prod-1", "prod-2", "ghost"},
	})

	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.True(t, results[0].Exists)
	assert.Equal(t, 6, results[0].AvailableQuantity)
	assert.True(t, results[0].InStock)

	assert.True(t, results[1].Exists)
	assert.Equal(t, 0, results[1].AvailableQuantity)
	assert.False(t, results[1].InStock)

	assert.False(t, results[2].Exists)
	assert.False(t, results[2].InStock)
}

func TestBulkStockCheckEmpty(t *testing.T) {
	service := newTestStockService(newFakeStockRepo(), &fakeMovementRepo{})

	_, err := service.BulkStockCheck(context.Background(), BulkCheckQuery{})

	assertAppErrorCode(t, err, errors.CodeValidationError)
}

func TestListStockNormalizesPagination(t *testing.T) {
	stocks := newFakeStockRepo()
	service := newTestStockService(stocks, &fakeMovementRepo{})
	seedStock(t, stocks, "prod-1", 10, 0)

	page, err := service.ListStock(context.Background(), ListStockQuery{Page: 0, PageSize: 500})

	require.NoError(t, err)
	assert.EqualValues(t, 1, page.Page)
	assert.EqualValues(t, 100, page.PageSize)
	assert.EqualValues(t, 1, page.TotalItems)
}
