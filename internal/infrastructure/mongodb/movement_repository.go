package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/KubeStock-DevOps-project/kubestock-core/internal/domain"
	kmongo "github.com/KubeStock-DevOps-project/kubestock-core/pkg/mongodb"
)

// MovementRepository reads the append-only stock movement ledger.
// Ledger entries are written by StockRepository inside the same
// transaction as the stock change they describe; this repository only
// appends standalone entries and serves history queries.
type MovementRepository struct {
	collection *mongo.Collection
}

func NewMovementRepository(db *mongo.Database) *MovementRepository {
	repo := &MovementRepository{
		collection: db.Collection(movementCollection),
	}
	repo.ensureIndexes(context.Background())

	return repo
}

func (r *MovementRepository) ensureIndexes(ctx context.Context) {
	indexes := []mongo.IndexModel{
		// Primary history query: per product, newest first
		{Keys: bson.D{
			{Key: "productId", Value: 1},
			{Key: "createdAt", Value: -1},
		}},
		{Keys: bson.D{
			{Key: "productId", Value: 1},
			{Key: "movementType", Value: 1},
			{Key: "createdAt", Value: -1},
		}},
		{Keys: bson.D{
			{Key: "referenceType", Value: 1},
			{Key: "referenceId", Value: 1},
		}},
	}
	r.collection.Indexes().CreateMany(ctx, indexes)
}

func (r *MovementRepository) Append(ctx context.Context, movement *domain.Movement) error {
	if _, err := r.collection.InsertOne(ctx, movement); err != nil {
		return fmt.Errorf("failed to append movement: %w", err)
	}
	return nil
}

// FindByProductID returns ledger entries for a product, newest first,
// optionally filtered by movement type
func (r *MovementRepository) FindByProductID(ctx context.Context, productID string, movementType domain.MovementType, limit, offset int) ([]*domain.Movement, int64, error) {
	filter := bson.M{"productId": productID}
	if movementType != "" {
		filter["movementType"] = movementType
	}

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(kmongo.SortDescending("createdAt")).
		SetLimit(int64(limit)).
		SetSkip(int64(offset))

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	var movements []*domain.Movement
	if err := cursor.All(ctx, &movements); err != nil {
		return nil, 0, err
	}
	return movements, total, nil
}
