package mongodb

import (
	"context"
	"fmt"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/KubeStock-DevOps-project/kubestock-core/internal/domain"
	"github.com/KubeStock-DevOps-project/kubestock-core/pkg/cloudevents"
	"github.com/KubeStock-DevOps-project/kubestock-core/pkg/kafka"
	kmongo "github.com/KubeStock-DevOps-project/kubestock-core/pkg/mongodb"
	"github.com/KubeStock-DevOps-project/kubestock-core/pkg/outbox"
	outboxMongo "github.com/KubeStock-DevOps-project/kubestock-core/pkg/outbox/mongodb"
)

const (
	stockCollection    = "stock_records"
	movementCollection = "stock_movements"
	alertCollection    = "stock_alerts"
)

// StockRepository persists stock records in MongoDB. Every mutation
// commits the record, its ledger entry, and the staged outbox events
// in one transaction, so a stock change is never visible without its
// movement and a movement never exists without its stock change.
type StockRepository struct {
	collection   *mongo.Collection
	movements    *mongo.Collection
	db           *mongo.Database
	outboxRepo   *outboxMongo.OutboxRepository
	eventFactory *cloudevents.EventFactory
}

func NewStockRepository(db *mongo.Database, eventFactory *cloudevents.EventFactory) *StockRepository {
	outboxRepo := outboxMongo.NewOutboxRepository(db)

	repo := &StockRepository{
		collection:   db.Collection(stockCollection),
		movements:    db.Collection(movementCollection),
		db:           db,
		outboxRepo:   outboxRepo,
		eventFactory: eventFactory,
	}
	repo.ensureIndexes(context.Background())
	_ = outboxRepo.EnsureIndexes(context.Background())

	return repo
}

func (r *StockRepository) ensureIndexes(ctx context.Context) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "productId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "sku", Value: 1}}},
		{Keys: bson.D{{Key: "warehouseLocation", Value: 1}}},
		// Serves the conditional reserve update and low stock scans
		{Keys: bson.D{{Key: "availableQuantity", Value: 1}}},
	}
	r.collection.Indexes().CreateMany(ctx, indexes)
}

// Create inserts a new stock record with its optional initial movement
func (r *StockRepository) Create(ctx context.Context, record *domain.StockRecord, initial *domain.Movement) error {
	session, err := r.db.Client().StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		result, err := r.collection.InsertOne(sessCtx, record)
		if err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return nil, domain.ErrDuplicateProduct
			}
			return nil, fmt.Errorf("failed to insert stock record: %w", err)
		}
		if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
			record.ID = oid
		}

		if initial != nil {
			if _, err := r.movements.InsertOne(sessCtx, initial); err != nil {
				return nil, fmt.Errorf("failed to insert initial movement: %w", err)
			}
		}

		if err := r.stageOutboxEvents(sessCtx, record); err != nil {
			return nil, err
		}

		record.ClearDomainEvents()
		return nil, nil
	})

	return err
}

// Update persists metadata changes such as levels and location. The
// quantity columns are deliberately left alone so a concurrent
// conditional operation is never overwritten by a stale read.
func (r *StockRepository) Update(ctx context.Context, record *domain.StockRecord) error {
	record.UpdatedAt = kmongo.Now()

	session, err := r.db.Client().StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		filter := bson.M{"productId": record.ProductID}
		update := bson.M{"$set": bson.M{
			"sku":               record.SKU,
			"warehouseLocation": record.WarehouseLocation,
			"reorderLevel":      record.ReorderLevel,
			"maxStockLevel":     record.MaxStockLevel,
			"updatedAt":         record.UpdatedAt,
		}}

		result, err := r.collection.UpdateOne(sessCtx, filter, update)
		if err != nil {
			return nil, fmt.Errorf("failed to update stock record: %w", err)
		}
		if result.MatchedCount == 0 {
			return nil, domain.ErrStockNotFound
		}

		if err := r.stageOutboxEvents(sessCtx, record); err != nil {
			return nil, err
		}

		record.ClearDomainEvents()
		return nil, nil
	})

	return err
}

func (r *StockRepository) FindByProductID(ctx context.Context, productID string) (*domain.StockRecord, error) {
	var record domain.StockRecord
	err := r.collection.FindOne(ctx, bson.M{"productId": productID}).Decode(&record)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	return &record, err
}

func (r *StockRepository) FindByProductIDs(ctx context.Context, productIDs []string) ([]*domain.StockRecord, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"productId": bson.M{"$in": productIDs}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var records []*domain.StockRecord
	err = cursor.All(ctx, &records)
	return records, err
}

func (r *StockRepository) FindAll(ctx context.Context, filter domain.StockFilter, limit, offset int) ([]*domain.StockRecord, int64, error) {
	query := bson.M{}
	if filter.LowStockOnly {
		query["$expr"] = bson.M{"$lte": []string{"$availableQuantity", "$reorderLevel"}}
	}
	if filter.Location != "" {
		query["warehouseLocation"] = filter.Location
	}
	if filter.Search != "" {
		pattern := primitiveRegex(filter.Search)
		query["$or"] = []bson.M{
			{"productId": pattern},
			{"sku": pattern},
		}
	}

	total, err := r.collection.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(kmongo.SortAscending("productId")).
		SetLimit(int64(limit)).
		SetSkip(int64(offset))

	cursor, err := r.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	var records []*domain.StockRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

// FindLowStock returns records at or below their reorder level,
// lowest availability first so out-of-stock products lead the list
func (r *StockRepository) FindLowStock(ctx context.Context) ([]*domain.StockRecord, error) {
	query := bson.M{"$expr": bson.M{"$lte": []string{"$availableQuantity", "$reorderLevel"}}}
	opts := options.Find().SetSort(kmongo.SortAscending("availableQuantity"))

	cursor, err := r.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var records []*domain.StockRecord
	err = cursor.All(ctx, &records)
	return records, err
}

// FindReorderCandidates returns low stock records ordered by how far
// they sit below their max stock level, largest shortfall first
func (r *StockRepository) FindReorderCandidates(ctx context.Context, limit int) ([]*domain.StockRecord, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"$expr": bson.M{"$lte": []string{"$availableQuantity", "$reorderLevel"}},
		}}},
		{{Key: "$addFields", Value: bson.M{
			"shortfall": bson.M{"$max": bson.A{
				bson.M{"$subtract": bson.A{"$maxStockLevel", "$availableQuantity"}},
				0,
			}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "shortfall", Value: -1}}}},
		{{Key: "$limit", Value: int64(limit)}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var records []*domain.StockRecord
	err = cursor.All(ctx, &records)
	return records, err
}

// Reserve atomically moves qty units from available to reserved. The
// filter on availableQuantity makes concurrent reservations race on
// the conditional update instead of on a read-modify-write cycle.
func (r *StockRepository) Reserve(ctx context.Context, productID string, qty int, orderRef string) (*domain.StockRecord, error) {
	session, err := r.db.Client().StartSession()
	if err != nil {
		return nil, fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	var updated *domain.StockRecord
	var current *domain.StockRecord

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		filter := bson.M{
			"productId":         productID,
			"availableQuantity": bson.M{"$gte": qty},
		}
		update := bson.M{
			"$inc": bson.M{"reservedQuantity": qty, "availableQuantity": -qty},
			"$set": bson.M{"updatedAt": kmongo.Now()},
		}
		opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

		var record domain.StockRecord
		if err := r.collection.FindOneAndUpdate(sessCtx, filter, update, opts).Decode(&record); err != nil {
			if err != mongo.ErrNoDocuments {
				return nil, fmt.Errorf("failed to reserve stock: %w", err)
			}
			current, err = r.findInSession(sessCtx, productID)
			if err != nil {
				return nil, err
			}
			if current == nil {
				return nil, domain.ErrStockNotFound
			}
			return nil, domain.ErrInsufficientStock
		}

		event := r.eventFactory.CreateStockReservedEvent(sessCtx, productID, qty,
			record.ReservedQuantity, record.AvailableQuantity, orderRef)
		if err := r.stageOutboxEvent(sessCtx, productID, kafka.Topics.InventoryEvents, event); err != nil {
			return nil, err
		}

		updated = &record
		return nil, nil
	})

	if err != nil {
		return current, err
	}
	return updated, nil
}

// Release atomically returns qty reserved units to the available pool
func (r *StockRepository) Release(ctx context.Context, productID string, qty int, orderRef string) (*domain.StockRecord, error) {
	session, err := r.db.Client().StartSession()
	if err != nil {
		return nil, fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	var updated *domain.StockRecord
	var current *domain.StockRecord

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		filter := bson.M{
			"productId":        productID,
			"reservedQuantity": bson.M{"$gte": qty},
		}
		update := bson.M{
			"$inc": bson.M{"reservedQuantity": -qty, "availableQuantity": qty},
			"$set": bson.M{"updatedAt": kmongo.Now()},
		}
		opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

		var record domain.StockRecord
		if err := r.collection.FindOneAndUpdate(sessCtx, filter, update, opts).Decode(&record); err != nil {
			if err != mongo.ErrNoDocuments {
				return nil, fmt.Errorf("failed to release reservation: %w", err)
			}
			current, err = r.findInSession(sessCtx, productID)
			if err != nil {
				return nil, err
			}
			if current == nil {
				return nil, domain.ErrStockNotFound
			}
			return nil, domain.ErrReleaseExceedsStock
		}

		event := r.eventFactory.CreateReservationReleasedEvent(sessCtx, productID, qty,
			record.ReservedQuantity, record.AvailableQuantity, orderRef)
		if err := r.stageOutboxEvent(sessCtx, productID, kafka.Topics.InventoryEvents, event); err != nil {
			return nil, err
		}

		updated = &record
		return nil, nil
	})

	if err != nil {
		return current, err
	}
	return updated, nil
}

// ConfirmDeduction atomically removes qty previously reserved units,
// appends the out movement, and stages the deduction event. The
// available quantity does not move because the units were already
// held out of it by the reservation.
func (r *StockRepository) ConfirmDeduction(ctx context.Context, productID string, qty int, orderRef string) (*domain.StockRecord, error) {
	session, err := r.db.Client().StartSession()
	if err != nil {
		return nil, fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	var updated *domain.StockRecord
	var current *domain.StockRecord

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		filter := bson.M{
			"productId":        productID,
			"reservedQuantity": bson.M{"$gte": qty},
		}
		update := bson.M{
			"$inc": bson.M{"quantity": -qty, "reservedQuantity": -qty},
			"$set": bson.M{"updatedAt": kmongo.Now()},
		}
		opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

		var record domain.StockRecord
		if err := r.collection.FindOneAndUpdate(sessCtx, filter, update, opts).Decode(&record); err != nil {
			if err != mongo.ErrNoDocuments {
				return nil, fmt.Errorf("failed to deduct stock: %w", err)
			}
			current, err = r.findInSession(sessCtx, productID)
			if err != nil {
				return nil, err
			}
			if current == nil {
				return nil, domain.ErrStockNotFound
			}
			return nil, domain.ErrDeductExceedsStock
		}

		movement, err := domain.NewMovement(productID, domain.MovementOut, qty, record.Quantity+qty, record.Quantity)
		if err != nil {
			return nil, err
		}
		movement.WithReference(domain.ReferenceOrder, orderRef)
		if _, err := r.movements.InsertOne(sessCtx, movement); err != nil {
			return nil, fmt.Errorf("failed to insert movement: %w", err)
		}

		event := r.eventFactory.CreateStockDeductedEvent(sessCtx, productID, qty, record.Quantity, orderRef)
		if err := r.stageOutboxEvent(sessCtx, productID, kafka.Topics.InventoryEvents, event); err != nil {
			return nil, err
		}

		if alert := r.thresholdEvent(sessCtx, &record); alert != nil {
			if err := r.stageOutboxEvent(sessCtx, productID, kafka.Topics.AlertEvents, alert); err != nil {
				return nil, err
			}
		}

		updated = &record
		return nil, nil
	})

	if err != nil {
		return current, err
	}
	return updated, nil
}

// Receive atomically adds qty on-hand units and appends the in
// movement. The $inc keeps receipts safe against concurrent
// reservations racing on the same record.
func (r *StockRepository) Receive(ctx context.Context, productID string, qty int, referenceID, notes, performedBy string) (*domain.StockRecord, error) {
	session, err := r.db.Client().StartSession()
	if err != nil {
		return nil, fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	var updated *domain.StockRecord

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		now := kmongo.Now()
		filter := bson.M{"productId": productID}
		update := bson.M{
			"$inc": bson.M{"quantity": qty, "availableQuantity": qty},
			"$set": bson.M{"lastRestockedAt": now, "updatedAt": now},
		}
		opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

		var record domain.StockRecord
		if err := r.collection.FindOneAndUpdate(sessCtx, filter, update, opts).Decode(&record); err != nil {
			if err != mongo.ErrNoDocuments {
				return nil, fmt.Errorf("failed to receive stock: %w", err)
			}
			return nil, domain.ErrStockNotFound
		}

		movement, err := domain.NewMovement(productID, domain.MovementIn, qty, record.Quantity-qty, record.Quantity)
		if err != nil {
			return nil, err
		}
		if referenceID != "" {
			movement.WithReference(domain.ReferencePurchase, referenceID)
		}
		if notes != "" {
			movement.WithNotes(notes)
		}
		movement.WithPerformer(performedBy)
		if _, err := r.movements.InsertOne(sessCtx, movement); err != nil {
			return nil, fmt.Errorf("failed to insert movement: %w", err)
		}

		event := r.eventFactory.CreateStockReceivedEvent(sessCtx, productID, record.SKU,
			qty, record.Quantity, referenceID, performedBy)
		if err := r.stageOutboxEvent(sessCtx, productID, kafka.Topics.InventoryEvents, event); err != nil {
			return nil, err
		}

		updated = &record
		return nil, nil
	})

	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Return atomically adds qty units back from a returned order and
// appends the returned movement
func (r *StockRepository) Return(ctx context.Context, productID string, qty int, orderRef string) (*domain.StockRecord, error) {
	session, err := r.db.Client().StartSession()
	if err != nil {
		return nil, fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	var updated *domain.StockRecord

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		filter := bson.M{"productId": productID}
		update := bson.M{
			"$inc": bson.M{"quantity": qty, "availableQuantity": qty},
			"$set": bson.M{"updatedAt": kmongo.Now()},
		}
		opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

		var record domain.StockRecord
		if err := r.collection.FindOneAndUpdate(sessCtx, filter, update, opts).Decode(&record); err != nil {
			if err != mongo.ErrNoDocuments {
				return nil, fmt.Errorf("failed to return stock: %w", err)
			}
			return nil, domain.ErrStockNotFound
		}

		movement, err := domain.NewMovement(productID, domain.MovementReturned, qty, record.Quantity-qty, record.Quantity)
		if err != nil {
			return nil, err
		}
		movement.WithReference(domain.ReferenceOrderReturn, orderRef)
		movement.WithNotes(fmt.Sprintf("Stock returned from order #%s", orderRef))
		if _, err := r.movements.InsertOne(sessCtx, movement); err != nil {
			return nil, fmt.Errorf("failed to insert movement: %w", err)
		}

		event := r.eventFactory.CreateStockReturnedEvent(sessCtx, productID, qty, record.Quantity, orderRef)
		if err := r.stageOutboxEvent(sessCtx, productID, kafka.Topics.InventoryEvents, event); err != nil {
			return nil, err
		}

		updated = &record
		return nil, nil
	})

	if err != nil {
		return nil, err
	}
	return updated, nil
}

// AdjustQuantity atomically sets the on-hand quantity as a manual
// correction. The filter refuses quantities below the outstanding
// reservations, and availableQuantity is recomputed inside the update
// so a reservation committing in between is never erased.
func (r *StockRepository) AdjustQuantity(ctx context.Context, productID string, newQuantity int, movementType domain.MovementType, reason, performedBy string) (*domain.StockRecord, *domain.Movement, error) {
	session, err := r.db.Client().StartSession()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	var updated *domain.StockRecord
	var current *domain.StockRecord
	var ledger *domain.Movement

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		now := kmongo.Now()
		filter := bson.M{
			"productId":        productID,
			"reservedQuantity": bson.M{"$lte": newQuantity},
		}
		// Pipeline update so availableQuantity derives from the
		// document's own reservedQuantity at commit time
		update := bson.A{bson.M{"$set": bson.M{
			"quantity":          newQuantity,
			"availableQuantity": bson.M{"$subtract": bson.A{newQuantity, "$reservedQuantity"}},
			"updatedAt":         now,
		}}}
		opts := options.FindOneAndUpdate().SetReturnDocument(options.Before)

		var before domain.StockRecord
		if err := r.collection.FindOneAndUpdate(sessCtx, filter, update, opts).Decode(&before); err != nil {
			if err != mongo.ErrNoDocuments {
				return nil, fmt.Errorf("failed to adjust stock: %w", err)
			}
			current, err = r.findInSession(sessCtx, productID)
			if err != nil {
				return nil, err
			}
			if current == nil {
				return nil, domain.ErrStockNotFound
			}
			return nil, domain.ErrNegativeResult
		}

		after := before
		after.Quantity = newQuantity
		after.AvailableQuantity = newQuantity - before.ReservedQuantity
		after.UpdatedAt = now
		updated = &after

		if before.Quantity == newQuantity {
			return nil, nil
		}

		delta := newQuantity - before.Quantity
		if delta < 0 {
			delta = -delta
		}
		movement, err := domain.NewMovement(productID, movementType, delta, before.Quantity, newQuantity)
		if err != nil {
			return nil, err
		}
		movement.WithReference(domain.ReferenceAdjustment, "")
		movement.WithNotes(reason)
		movement.WithPerformer(performedBy)
		if _, err := r.movements.InsertOne(sessCtx, movement); err != nil {
			return nil, fmt.Errorf("failed to insert movement: %w", err)
		}
		ledger = movement

		event := r.eventFactory.CreateStockAdjustedEvent(sessCtx, productID, before.Quantity,
			newQuantity, string(movementType), reason, performedBy)
		if err := r.stageOutboxEvent(sessCtx, productID, kafka.Topics.InventoryEvents, event); err != nil {
			return nil, err
		}

		if newQuantity < before.Quantity {
			if alert := r.thresholdEvent(sessCtx, &after); alert != nil {
				if err := r.stageOutboxEvent(sessCtx, productID, kafka.Topics.AlertEvents, alert); err != nil {
					return nil, err
				}
			}
		}

		return nil, nil
	})

	if err != nil {
		return current, nil, err
	}
	return updated, ledger, nil
}

// GetOutboxRepository returns the outbox repository backing this store
func (r *StockRepository) GetOutboxRepository() outbox.Repository {
	return r.outboxRepo
}

func (r *StockRepository) findInSession(ctx mongo.SessionContext, productID string) (*domain.StockRecord, error) {
	var record domain.StockRecord
	err := r.collection.FindOne(ctx, bson.M{"productId": productID}).Decode(&record)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load stock record: %w", err)
	}
	return &record, nil
}

// thresholdEvent builds the alert event a downward stock change
// crossed into, or nil when the record is still above its reorder level
func (r *StockRepository) thresholdEvent(ctx context.Context, record *domain.StockRecord) *cloudevents.StockCloudEvent {
	switch {
	case record.IsOutOfStock():
		return r.eventFactory.CreateLowStockAlertEvent(ctx, record.ProductID, record.SKU,
			record.AvailableQuantity, record.ReorderLevel, string(domain.AlertOutOfStock))
	case record.IsLowStock():
		return r.eventFactory.CreateLowStockAlertEvent(ctx, record.ProductID, record.SKU,
			record.AvailableQuantity, record.ReorderLevel, string(domain.AlertLowStock))
	default:
		return nil
	}
}

// stageOutboxEvents converts the record's uncommitted domain events to
// CloudEvents and stores them in the outbox within the current transaction
func (r *StockRepository) stageOutboxEvents(ctx mongo.SessionContext, record *domain.StockRecord) error {
	if len(record.DomainEvents) == 0 {
		return nil
	}

	outboxEvents := make([]*outbox.OutboxEvent, 0, len(record.DomainEvents))
	for _, event := range record.DomainEvents {
		var cloudEvent *cloudevents.StockCloudEvent
		topic := kafka.Topics.InventoryEvents

		switch e := event.(type) {
		case *domain.StockReceivedEvent:
			cloudEvent = r.eventFactory.CreateStockReceivedEvent(ctx, e.ProductID, record.SKU,
				e.Quantity, e.NewTotal, "", "")
		case *domain.StockReservedEvent:
			cloudEvent = r.eventFactory.CreateStockReservedEvent(ctx, e.ProductID, e.Quantity,
				record.ReservedQuantity, e.Available, e.OrderRef)
		case *domain.ReservationReleasedEvent:
			cloudEvent = r.eventFactory.CreateReservationReleasedEvent(ctx, e.ProductID, e.Quantity,
				record.ReservedQuantity, e.Available, e.OrderRef)
		case *domain.StockReturnedEvent:
			cloudEvent = r.eventFactory.CreateStockReturnedEvent(ctx, e.ProductID, e.Quantity,
				e.NewTotal, e.OrderRef)
		case *domain.StockDeductedEvent:
			cloudEvent = r.eventFactory.CreateStockDeductedEvent(ctx, e.ProductID, e.Quantity,
				e.Remaining, e.OrderRef)
		case *domain.StockAdjustedEvent:
			cloudEvent = r.eventFactory.CreateStockAdjustedEvent(ctx, e.ProductID, e.OldQuantity,
				e.NewQuantity, "manual", e.Reason, "")
		case *domain.LowStockDetectedEvent:
			cloudEvent = r.eventFactory.CreateLowStockAlertEvent(ctx, e.ProductID, record.SKU,
				e.Available, e.ReorderLevel, string(domain.AlertLowStock))
			topic = kafka.Topics.AlertEvents
		case *domain.OutOfStockDetectedEvent:
			cloudEvent = r.eventFactory.CreateLowStockAlertEvent(ctx, e.ProductID, record.SKU,
				0, record.ReorderLevel, string(domain.AlertOutOfStock))
			topic = kafka.Topics.AlertEvents
		default:
			cloudEvent = r.eventFactory.CreateEvent(ctx, event.EventType(), "stock/"+record.ProductID, event)
		}

		// Stamp the event with the time the aggregate recorded the change,
		// not the time of the outbox conversion.
		cloudEvent.Time = event.OccurredAt()

		outboxEvent, err := outbox.NewOutboxEventFromCloudEvent(record.ProductID, "StockRecord", topic, cloudEvent)
		if err != nil {
			return fmt.Errorf("failed to create outbox event: %w", err)
		}
		outboxEvents = append(outboxEvents, outboxEvent)
	}

	if err := r.outboxRepo.SaveAll(ctx, outboxEvents); err != nil {
		return fmt.Errorf("failed to save outbox events: %w", err)
	}
	return nil
}

// primitiveRegex builds a case-insensitive literal match for search input
func primitiveRegex(search string) primitive.Regex {
	return primitive.Regex{Pattern: regexp.QuoteMeta(search), Options: "i"}
}

func (r *StockRepository) stageOutboxEvent(ctx mongo.SessionContext, productID, topic string, event *cloudevents.StockCloudEvent) error {
	outboxEvent, err := outbox.NewOutboxEventFromCloudEvent(productID, "StockRecord", topic, event)
	if err != nil {
		return fmt.Errorf("failed to create outbox event: %w", err)
	}
	if err := r.outboxRepo.SaveAll(ctx, []*outbox.OutboxEvent{outboxEvent}); err != nil {
		return fmt.Errorf("failed to save outbox event: %w", err)
	}
	return nil
}
