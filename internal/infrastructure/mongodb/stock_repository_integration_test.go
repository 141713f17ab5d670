package mongodb

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/KubeStock-DevOps-project/kubestock-core/internal/domain"
	"github.com/KubeStock-DevOps-project/kubestock-core/pkg/cloudevents"
	ktesting "github.com/KubeStock-DevOps-project/kubestock-core/pkg/testing"
)

type StockRepositoryIntegrationTestSuite struct {
	suite.Suite
	mongoContainer *ktesting.MongoDBContainer
	client         *mongo.Client
	db             *mongo.Database
	stockRepo      *StockRepository
	movementRepo   *MovementRepository
	alertRepo      *AlertRepository
	ctx            context.Context
}

func (s *StockRepositoryIntegrationTestSuite) SetupSuite() {
	s.ctx = context.Background()

	// Transactions require a replica set; the container helper starts a
	// single-node one and waits until it's ready
	container, err := ktesting.NewMongoDBContainer(s.ctx)
	s.Require().NoError(err)
	s.mongoContainer = container

	client, err := container.GetClient(s.ctx)
	s.Require().NoError(err)
	s.client = client

	s.db = client.Database("inventory_test")

	eventFactory := cloudevents.NewEventFactory("inventory-service")
	s.stockRepo = NewStockRepository(s.db, eventFactory)
	s.movementRepo = NewMovementRepository(s.db)
	s.alertRepo = NewAlertRepository(s.db)
}

func (s *StockRepositoryIntegrationTestSuite) TearDownSuite() {
	if s.client != nil {
		s.client.Disconnect(s.ctx)
	}
	if s.mongoContainer != nil {
		s.Require().NoError(s.mongoContainer.Close(s.ctx))
	}
}

func (s *StockRepositoryIntegrationTestSuite) TearDownTest() {
	s.db.Collection(stockCollection).Drop(s.ctx)
	s.db.Collection(movementCollection).Drop(s.ctx)
	s.db.Collection(alertCollection).Drop(s.ctx)
	s.db.Collection("outbox_events").Drop(s.ctx)
}

func TestStockRepositoryIntegrationTestSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}
	suite.Run(t, new(StockRepositoryIntegrationTestSuite))
}

func (s *StockRepositoryIntegrationTestSuite) createRecord(productID string, quantity int) *domain.StockRecord {
	record, err := domain.NewStockRecord(productID, "SKU-"+productID, quantity)
	s.Require().NoError(err)

	var initial *domain.Movement
	if quantity > 0 {
		initial, err = domain.NewMovement(productID, domain.MovementIn, quantity, 0, quantity)
		s.Require().NoError(err)
		initial.WithReference(domain.ReferenceInitial, "")
	}

	s.Require().NoError(s.stockRepo.Create(s.ctx, record, initial))
	return record
}

func (s *StockRepositoryIntegrationTestSuite) outboxCount() int64 {
	count, err := s.db.Collection("outbox_events").CountDocuments(s.ctx, bson.M{})
	s.Require().NoError(err)
	return count
}

func (s *StockRepositoryIntegrationTestSuite) TestCreateAndFind() {
	s.createRecord("prod-1", 50)

	found, err := s.stockRepo.FindByProductID(s.ctx, "prod-1")
	s.Require().NoError(err)
	s.Require().NotNil(found)
	s.Equal("prod-1", found.ProductID)
	s.Equal(50, found.Quantity)
	s.Equal(50, found.AvailableQuantity)
	s.Equal(domain.DefaultReorderLevel, found.ReorderLevel)

	// The initial movement and the stock-created event commit with the record
	movements, total, err := s.movementRepo.FindByProductID(s.ctx, "prod-1", "", 10, 0)
	s.Require().NoError(err)
	s.EqualValues(1, total)
	s.Equal(domain.MovementIn, movements[0].MovementType)

	s.EqualValues(1, s.outboxCount())
}

func (s *StockRepositoryIntegrationTestSuite) TestCreateDuplicateProduct() {
	s.createRecord("prod-1", 10)

	record, err := domain.NewStockRecord("prod-1", "SKU-other", 5)
	s.Require().NoError(err)

	err = s.stockRepo.Create(s.ctx, record, nil)
	s.ErrorIs(err, domain.ErrDuplicateProduct)
}

func (s *StockRepositoryIntegrationTestSuite) TestFindByProductIDMissing() {
	found, err := s.stockRepo.FindByProductID(s.ctx, "ghost")
	s.Require().NoError(err)
	s.Nil(found)
}

func (s *StockRepositoryIntegrationTestSuite) TestReserve() {
	s.createRecord("prod-1", 10)

	record, err := s.stockRepo.Reserve(s.ctx, "prod-1", 7, "ord-1")
	s.Require().NoError(err)
	s.Equal(10, record.Quantity)
	s.Equal(7, record.ReservedQuantity)
	s.Equal(3, record.AvailableQuantity)
}

func (s *StockRepositoryIntegrationTestSuite) TestReserveInsufficientStock() {
	s.createRecord("prod-1", 10)

	record, err := s.stockRepo.Reserve(s.ctx, "prod-1", 11, "ord-1")
	s.ErrorIs(err, domain.ErrInsufficientStock)
	s.Require().NotNil(record)
	s.Equal(10, record.AvailableQuantity)
}

func (s *StockRepositoryIntegrationTestSuite) TestReserveUnknownProduct() {
	_, err := s.stockRepo.Reserve(s.ctx, "ghost", 1, "ord-1")
	s.ErrorIs(err, domain.ErrStockNotFound)
}

func (s *StockRepositoryIntegrationTestSuite) TestConcurrentReserveNeverOversells() {
	s.createRecord("prod-1", 10)

	// Two reservations of 7 against 10 available: exactly one may win
	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.stockRepo.Reserve(s.ctx, "prod-1", 7, "ord-race")
		}(i)
	}
	wg.Wait()

	var succeeded, rejected int
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			s.ErrorIs(err, domain.ErrInsufficientStock)
			rejected++
		}
	}
	s.Equal(1, succeeded)
	s.Equal(1, rejected)

	record, err := s.stockRepo.FindByProductID(s.ctx, "prod-1")
	s.Require().NoError(err)
	s.Equal(7, record.ReservedQuantity)
	s.Equal(3, record.AvailableQuantity)
}

func (s *StockRepositoryIntegrationTestSuite) TestReleaseExceedsReserved() {
	s.createRecord("prod-1", 10)

	_, err := s.stockRepo.Reserve(s.ctx, "prod-1", 4, "ord-1")
	s.Require().NoError(err)

	record, err := s.stockRepo.Release(s.ctx, "prod-1", 5, "ord-1")
	s.ErrorIs(err, domain.ErrReleaseExceedsStock)
	s.Require().NotNil(record)
	s.Equal(4, record.ReservedQuantity)
}

func (s *StockRepositoryIntegrationTestSuite) TestReserveReleaseDeductCycle() {
	s.createRecord("prod-1", 10)

	_, err := s.stockRepo.Reserve(s.ctx, "prod-1", 6, "ord-1")
	s.Require().NoError(err)

	record, err := s.stockRepo.Release(s.ctx, "prod-1", 2, "ord-1")
	s.Require().NoError(err)
	s.Equal(4, record.ReservedQuantity)
	s.Equal(6, record.AvailableQuantity)

	record, err = s.stockRepo.ConfirmDeduction(s.ctx, "prod-1", 4, "ord-1")
	s.Require().NoError(err)
	s.Equal(6, record.Quantity)
	s.Equal(0, record.ReservedQuantity)
	s.Equal(6, record.AvailableQuantity)

	// The deduction appends an out movement alongside the initial receipt
	movements, total, err := s.movementRepo.FindByProductID(s.ctx, "prod-1", "", 10, 0)
	s.Require().NoError(err)
	s.EqualValues(2, total)
	s.Equal(domain.MovementOut, movements[0].MovementType)
	s.Equal("ord-1", movements[0].ReferenceID)

	// Initial receipt + reserve + release + deduct + low-stock alert
	s.EqualValues(5, s.outboxCount())
}

func (s *StockRepositoryIntegrationTestSuite) TestDeductExceedsReserved() {
	s.createRecord("prod-1", 10)

	record, err := s.stockRepo.ConfirmDeduction(s.ctx, "prod-1", 1, "ord-1")
	s.ErrorIs(err, domain.ErrDeductExceedsStock)
	s.Require().NotNil(record)
	s.Equal(10, record.Quantity)
}

func (s *StockRepositoryIntegrationTestSuite) TestReceivePersistsMovementAndEvents() {
	s.createRecord("prod-1", 5)

	record, err := s.stockRepo.Receive(s.ctx, "prod-1", 20, "po-9", "", "warehouse")
	s.Require().NoError(err)
	s.Equal(25, record.Quantity)
	s.Equal(25, record.AvailableQuantity)

	found, err := s.stockRepo.FindByProductID(s.ctx, "prod-1")
	s.Require().NoError(err)
	s.Equal(25, found.Quantity)
	s.NotNil(found.LastRestockedAt)

	movements, total, err := s.movementRepo.FindByProductID(s.ctx, "prod-1", domain.MovementIn, 10, 0)
	s.Require().NoError(err)
	s.EqualValues(2, total)
	s.Equal("po-9", movements[0].ReferenceID)

	// Create + receive events
	s.EqualValues(2, s.outboxCount())
}

func (s *StockRepositoryIntegrationTestSuite) TestReceiveUnknownProduct() {
	_, err := s.stockRepo.Receive(s.ctx, "ghost", 5, "", "", "")
	s.ErrorIs(err, domain.ErrStockNotFound)
}

func (s *StockRepositoryIntegrationTestSuite) TestReceiveKeepsConcurrentReservation() {
	s.createRecord("prod-1", 15)

	// A reservation and a receipt landing together must both survive
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, err := s.stockRepo.Reserve(s.ctx, "prod-1", 7, "ord-race")
		s.NoError(err)
	}()
	go func() {
		defer wg.Done()
		_, err := s.stockRepo.Receive(s.ctx, "prod-1", 5, "po-race", "", "")
		s.NoError(err)
	}()
	wg.Wait()

	record, err := s.stockRepo.FindByProductID(s.ctx, "prod-1")
	s.Require().NoError(err)
	s.Equal(20, record.Quantity)
	s.Equal(7, record.ReservedQuantity)
	s.Equal(13, record.AvailableQuantity)
}

func (s *StockRepositoryIntegrationTestSuite) TestReturnPersistsMovement() {
	s.createRecord("prod-1", 5)

	record, err := s.stockRepo.Return(s.ctx, "prod-1", 2, "ord-42")
	s.Require().NoError(err)
	s.Equal(7, record.Quantity)

	movements, total, err := s.movementRepo.FindByProductID(s.ctx, "prod-1", domain.MovementReturned, 10, 0)
	s.Require().NoError(err)
	s.EqualValues(1, total)
	s.Equal(domain.ReferenceOrderReturn, movements[0].ReferenceType)
	s.Equal("ord-42", movements[0].ReferenceID)
}

func (s *StockRepositoryIntegrationTestSuite) TestAdjustQuantityDown() {
	s.createRecord("prod-1", 30)

	record, movement, err := s.stockRepo.AdjustQuantity(s.ctx, "prod-1", 24, domain.MovementDamaged, "water damage", "auditor")
	s.Require().NoError(err)
	s.Equal(24, record.Quantity)
	s.Equal(24, record.AvailableQuantity)
	s.Require().NotNil(movement)
	s.Equal(domain.MovementDamaged, movement.MovementType)
	s.Equal(6, movement.Quantity)
	s.Equal(30, movement.PreviousQuantity)
}

func (s *StockRepositoryIntegrationTestSuite) TestAdjustQuantityNoChange() {
	s.createRecord("prod-1", 30)

	record, movement, err := s.stockRepo.AdjustQuantity(s.ctx, "prod-1", 30, domain.MovementAdjustment, "cycle count", "")
	s.Require().NoError(err)
	s.Equal(30, record.Quantity)
	s.Nil(movement)

	_, total, err := s.movementRepo.FindByProductID(s.ctx, "prod-1", domain.MovementAdjustment, 10, 0)
	s.Require().NoError(err)
	s.EqualValues(0, total)
}

func (s *StockRepositoryIntegrationTestSuite) TestAdjustBelowReservedRejected() {
	s.createRecord("prod-1", 10)

	_, err := s.stockRepo.Reserve(s.ctx, "prod-1", 7, "ord-1")
	s.Require().NoError(err)

	record, _, err := s.stockRepo.AdjustQuantity(s.ctx, "prod-1", 5, domain.MovementAdjustment, "shrinkage", "")
	s.ErrorIs(err, domain.ErrNegativeResult)
	s.Require().NotNil(record)
	s.Equal(7, record.ReservedQuantity)

	found, err := s.stockRepo.FindByProductID(s.ctx, "prod-1")
	s.Require().NoError(err)
	s.Equal(10, found.Quantity)
	s.Equal(7, found.ReservedQuantity)
}

func (s *StockRepositoryIntegrationTestSuite) TestUpdateMetadataLeavesQuantitiesAlone() {
	record := s.createRecord("prod-1", 10)
	record.ClearDomainEvents()

	_, err := s.stockRepo.Reserve(s.ctx, "prod-1", 4, "ord-1")
	s.Require().NoError(err)

	// The stale in-memory copy has no reservation; a metadata update
	// must not zero the committed one
	s.Require().NoError(record.SetLevels(20, 200, "A-12-3"))
	s.Require().NoError(s.stockRepo.Update(s.ctx, record))

	found, err := s.stockRepo.FindByProductID(s.ctx, "prod-1")
	s.Require().NoError(err)
	s.Equal(20, found.ReorderLevel)
	s.Equal("A-12-3", found.WarehouseLocation)
	s.Equal(4, found.ReservedQuantity)
	s.Equal(6, found.AvailableQuantity)
}

func (s *StockRepositoryIntegrationTestSuite) TestUpdateUnknownProduct() {
	record, err := domain.NewStockRecord("ghost", "SKU-ghost", 5)
	s.Require().NoError(err)

	err = s.stockRepo.Update(s.ctx, record)
	s.ErrorIs(err, domain.ErrStockNotFound)
}

func (s *StockRepositoryIntegrationTestSuite) TestFindAllWithFilters() {
	s.createRecord("widget-blue", 100)
	s.createRecord("widget-red", 3)
	s.createRecord("gadget-one", 50)

	records, total, err := s.stockRepo.FindAll(s.ctx, domain.StockFilter{Search: "widget"}, 10, 0)
	s.Require().NoError(err)
	s.EqualValues(2, total)
	s.Len(records, 2)

	records, total, err = s.stockRepo.FindAll(s.ctx, domain.StockFilter{LowStockOnly: true}, 10, 0)
	s.Require().NoError(err)
	s.EqualValues(1, total)
	s.Equal("widget-red", records[0].ProductID)

	_, total, err = s.stockRepo.FindAll(s.ctx, domain.StockFilter{}, 2, 0)
	s.Require().NoError(err)
	s.EqualValues(3, total)
}

func (s *StockRepositoryIntegrationTestSuite) TestFindLowStockOrdersByAvailability() {
	s.createRecord("prod-low", 8)
	s.createRecord("prod-out", 0)
	s.createRecord("prod-ok", 100)

	records, err := s.stockRepo.FindLowStock(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(records, 2)
	s.Equal("prod-out", records[0].ProductID)
	s.Equal("prod-low", records[1].ProductID)
}

func (s *StockRepositoryIntegrationTestSuite) TestFindReorderCandidatesOrdersByShortfall() {
	small := s.createRecord("prod-small-gap", 8)
	small.ClearDomainEvents()
	s.Require().NoError(small.SetLevels(10, 50, ""))
	s.Require().NoError(s.stockRepo.Update(s.ctx, small))

	large := s.createRecord("prod-large-gap", 2)
	large.ClearDomainEvents()
	s.Require().NoError(large.SetLevels(10, 500, ""))
	s.Require().NoError(s.stockRepo.Update(s.ctx, large))

	records, err := s.stockRepo.FindReorderCandidates(s.ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(records, 2)
	s.Equal("prod-large-gap", records[0].ProductID)
	s.Equal("prod-small-gap", records[1].ProductID)
}

func (s *StockRepositoryIntegrationTestSuite) TestAlertUpsertKeepsOneActivePerType() {
	alert, err := domain.NewStockAlert("prod-1", "Blue Widget", domain.AlertLowStock, 3, 10)
	s.Require().NoError(err)
	s.Require().NoError(s.alertRepo.Upsert(s.ctx, alert))

	// A second sweep refreshes the same alert instead of duplicating it
	refreshed, err := domain.NewStockAlert("prod-1", "Blue Widget", domain.AlertLowStock, 2, 10)
	s.Require().NoError(err)
	s.Require().NoError(s.alertRepo.Upsert(s.ctx, refreshed))

	active, err := s.alertRepo.FindActive(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(active, 1)
	s.Equal(2, active[0].CurrentQuantity)
}

func (s *StockRepositoryIntegrationTestSuite) TestAlertResolveAndStats() {
	low, err := domain.NewStockAlert("prod-1", "", domain.AlertLowStock, 3, 10)
	s.Require().NoError(err)
	s.Require().NoError(s.alertRepo.Upsert(s.ctx, low))

	out, err := domain.NewStockAlert("prod-2", "", domain.AlertOutOfStock, 0, 10)
	s.Require().NoError(err)
	s.Require().NoError(s.alertRepo.Upsert(s.ctx, out))

	count, err := s.alertRepo.ResolveForProduct(s.ctx, "prod-1", domain.AlertLowStock)
	s.Require().NoError(err)
	s.EqualValues(1, count)

	found, err := s.alertRepo.FindActiveByProduct(s.ctx, "prod-1", domain.AlertLowStock)
	s.Require().NoError(err)
	s.Nil(found)

	stats, err := s.alertRepo.Stats(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, stats.Active)
	s.Equal(1, stats.Critical)
	s.Equal(1, stats.Resolved)
	s.Equal(2, stats.Total)
}

func (s *StockRepositoryIntegrationTestSuite) TestMovementHistoryNewestFirst() {
	s.createRecord("prod-1", 10)

	older, err := domain.NewMovement("prod-1", domain.MovementOut, 2, 10, 8)
	s.Require().NoError(err)
	s.Require().NoError(s.movementRepo.Append(s.ctx, older))

	movements, total, err := s.movementRepo.FindByProductID(s.ctx, "prod-1", "", 1, 0)
	s.Require().NoError(err)
	s.EqualValues(2, total)
	s.Require().Len(movements, 1)
	s.Equal(domain.MovementOut, movements[0].MovementType)
}
