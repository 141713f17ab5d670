package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/KubeStock-DevOps-project/kubestock-core/internal/domain"
	kmongo "github.com/KubeStock-DevOps-project/kubestock-core/pkg/mongodb"
)

// AlertRepository persists stock alerts. The partial unique index
// enforces at most one active alert per product and alert type.
type AlertRepository struct {
	collection *mongo.Collection
}

func NewAlertRepository(db *mongo.Database) *AlertRepository {
	repo := &AlertRepository{
		collection: db.Collection(alertCollection),
	}
	repo.ensureIndexes(context.Background())

	return repo
}

func (r *AlertRepository) ensureIndexes(ctx context.Context) {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "productId", Value: 1},
				{Key: "alertType", Value: 1},
			},
			Options: options.Index().
				SetName("idx_one_active_alert").
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"status": "active"}),
		},
		{Keys: bson.D{
			{Key: "status", Value: 1},
			{Key: "createdAt", Value: -1},
		}},
		// Resolved and ignored alerts age out after 90 days
		{
			Keys: bson.D{{Key: "resolvedAt", Value: 1}},
			Options: options.Index().
				SetName("idx_resolvedAt_ttl").
				SetExpireAfterSeconds(90 * 24 * 60 * 60),
		},
	}
	r.collection.Indexes().CreateMany(ctx, indexes)
}

// Upsert inserts the alert, or refreshes the existing active alert for
// the same product and type
func (r *AlertRepository) Upsert(ctx context.Context, alert *domain.StockAlert) error {
	filter := bson.M{
		"productId": alert.ProductID,
		"alertType": alert.AlertType,
		"status":    domain.AlertStatusActive,
	}
	update := bson.M{
		"$set": bson.M{
			"productName":     alert.ProductName,
			"message":         alert.Message,
			"currentQuantity": alert.CurrentQuantity,
			"threshold":       alert.Threshold,
		},
		"$setOnInsert": bson.M{
			"productId": alert.ProductID,
			"alertType": alert.AlertType,
			"status":    alert.Status,
			"createdAt": alert.CreatedAt,
		},
	}

	opts := options.Update().SetUpsert(true)
	if _, err := r.collection.UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("failed to upsert alert: %w", err)
	}
	return nil
}

func (r *AlertRepository) FindActive(ctx context.Context) ([]*domain.StockAlert, error) {
	opts := options.Find().SetSort(kmongo.SortDescending("createdAt"))

	cursor, err := r.collection.Find(ctx, bson.M{"status": domain.AlertStatusActive}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var alerts []*domain.StockAlert
	err = cursor.All(ctx, &alerts)
	return alerts, err
}

func (r *AlertRepository) FindActiveByProduct(ctx context.Context, productID string, alertType domain.AlertType) (*domain.StockAlert, error) {
	filter := bson.M{
		"productId": productID,
		"alertType": alertType,
		"status":    domain.AlertStatusActive,
	}

	var alert domain.StockAlert
	err := r.collection.FindOne(ctx, filter).Decode(&alert)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	return &alert, err
}

// ResolveForProduct marks active alerts of the given type as resolved
// and returns how many were updated
func (r *AlertRepository) ResolveForProduct(ctx context.Context, productID string, alertType domain.AlertType) (int64, error) {
	filter := bson.M{
		"productId": productID,
		"alertType": alertType,
		"status":    domain.AlertStatusActive,
	}
	update := bson.M{"$set": bson.M{
		"status":     domain.AlertStatusResolved,
		"resolvedAt": time.Now().UTC(),
	}}

	result, err := r.collection.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, fmt.Errorf("failed to resolve alerts: %w", err)
	}
	return result.ModifiedCount, nil
}

// Stats summarizes the alert collection by status
func (r *AlertRepository) Stats(ctx context.Context) (*domain.AlertStats, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":   "$status",
			"count": bson.M{"$sum": 1},
			"critical": bson.M{"$sum": bson.M{"$cond": bson.A{
				bson.M{"$eq": bson.A{"$alertType", string(domain.AlertOutOfStock)}}, 1, 0,
			}}},
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate alert stats: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Status   string `bson:"_id"`
		Count    int    `bson:"count"`
		Critical int    `bson:"critical"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}

	stats := &domain.AlertStats{}
	for _, row := range rows {
		stats.Total += row.Count
		switch domain.AlertStatus(row.Status) {
		case domain.AlertStatusActive:
			stats.Active += row.Count
			stats.Critical += row.Critical
		case domain.AlertStatusResolved:
			stats.Resolved += row.Count
		case domain.AlertStatusIgnored:
			stats.Ignored += row.Count
		}
	}
	return stats, nil
}
