package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Migration tool: ensures the inventory indexes exist and backfills
// availableQuantity on stock records imported from older schemas that
// only carried quantity and reservedQuantity.

var (
	mongoURI  = flag.String("mongo-uri", "mongodb://localhost:27017", "MongoDB connection URI")
	dbName    = flag.String("db", "inventory_db", "Database name")
	dryRun    = flag.Bool("dry-run", true, "Dry run mode (no actual writes)")
	batchSize = flag.Int("batch-size", 100, "Batch size for processing")
)

type stockDocument struct {
	ProductID         string `bson:"productId"`
	Quantity          int    `bson:"quantity"`
	ReservedQuantity  int    `bson:"reservedQuantity"`
	AvailableQuantity *int   `bson:"availableQuantity"`
}

func main() {
	flag.Parse()

	log.Printf("Starting inventory migration...")
	log.Printf("MongoDB URI: %s", *mongoURI)
	log.Printf("Database: %s", *dbName)
	log.Printf("Dry Run: %v", *dryRun)
	log.Printf("Batch Size: %d", *batchSize)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(*mongoURI))
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer client.Disconnect(context.Background())

	if err := client.Ping(ctx, nil); err != nil {
		log.Fatalf("Failed to ping MongoDB: %v", err)
	}
	log.Println("Connected to MongoDB successfully")

	db := client.Database(*dbName)

	if err := ensureIndexes(context.Background(), db); err != nil {
		log.Fatalf("Index creation failed: %v", err)
	}

	if err := backfillAvailableQuantity(context.Background(), db); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	log.Println("Migration completed successfully!")
}

func ensureIndexes(ctx context.Context, db *mongo.Database) error {
	if *dryRun {
		log.Println("Dry run: skipping index creation")
		return nil
	}

	type indexSet struct {
		collection string
		models     []mongo.IndexModel
	}

	sets := []indexSet{
		{
			collection: "stock_records",
			models: []mongo.IndexModel{
				{Keys: bson.D{{Key: "productId", Value: 1}}, Options: options.Index().SetUnique(true)},
				{Keys: bson.D{{Key: "sku", Value: 1}}},
				{Keys: bson.D{{Key: "warehouseLocation", Value: 1}}},
				{Keys: bson.D{{Key: "availableQuantity", Value: 1}}},
			},
		},
		{
			collection: "stock_movements",
			models: []mongo.IndexModel{
				{Keys: bson.D{{Key: "productId", Value: 1}, {Key: "createdAt", Value: -1}}},
				{Keys: bson.D{{Key: "productId", Value: 1}, {Key: "movementType", Value: 1}, {Key: "createdAt", Value: -1}}},
				{Keys: bson.D{{Key: "referenceType", Value: 1}, {Key: "referenceId", Value: 1}}},
			},
		},
		{
			collection: "stock_alerts",
			models: []mongo.IndexModel{
				{
					Keys: bson.D{{Key: "productId", Value: 1}, {Key: "alertType", Value: 1}},
					Options: options.Index().
						SetName("idx_one_active_alert").
						SetUnique(true).
						SetPartialFilterExpression(bson.M{"status": "active"}),
				},
				{Keys: bson.D{{Key: "status", Value: 1}, {Key: "createdAt", Value: -1}}},
				{
					Keys: bson.D{{Key: "resolvedAt", Value: 1}},
					Options: options.Index().
						SetName("idx_resolvedAt_ttl").
						SetExpireAfterSeconds(90 * 24 * 3600),
				},
			},
		},
		{
			collection: "outbox_events",
			models: []mongo.IndexModel{
				{Keys: bson.D{{Key: "publishedAt", Value: 1}, {Key: "createdAt", Value: 1}}},
				{Keys: bson.D{{Key: "aggregateId", Value: 1}, {Key: "createdAt", Value: 1}}},
			},
		},
	}

	for _, set := range sets {
		names, err := db.Collection(set.collection).Indexes().CreateMany(ctx, set.models)
		if err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", set.collection, err)
		}
		log.Printf("Ensured indexes on %s: %v", set.collection, names)
	}

	return nil
}

func backfillAvailableQuantity(ctx context.Context, db *mongo.Database) error {
	stocks := db.Collection("stock_records")

	var (
		totalDocs    int64
		backfilled   int64
		inconsistent int64
	)

	count, err := stocks.CountDocuments(ctx, bson.M{})
	if err != nil {
		return fmt.Errorf("failed to count documents: %w", err)
	}
	log.Printf("Found %d stock records to process", count)

	opts := options.Find().SetBatchSize(int32(*batchSize))
	cursor, err := stocks.Find(ctx, bson.M{}, opts)
	if err != nil {
		return fmt.Errorf("failed to query stock records: %w", err)
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var doc stockDocument
		if err := cursor.Decode(&doc); err != nil {
			log.Printf("WARNING: Failed to decode document: %v", err)
			continue
		}

		totalDocs++

		expected := doc.Quantity - doc.ReservedQuantity
		if doc.AvailableQuantity != nil && *doc.AvailableQuantity == expected {
			continue
		}

		if doc.AvailableQuantity == nil {
			backfilled++
		} else {
			inconsistent++
			log.Printf("WARNING: %s has availableQuantity=%d, expected %d",
				doc.ProductID, *doc.AvailableQuantity, expected)
		}

		if !*dryRun {
			filter := bson.M{"productId": doc.ProductID}
			update := bson.M{
				"$set": bson.M{
					"availableQuantity": expected,
					"updatedAt":         time.Now().UTC(),
				},
			}
			if _, err := stocks.UpdateOne(ctx, filter, update); err != nil {
				log.Printf("WARNING: Failed to update %s: %v", doc.ProductID, err)
			}
		}

		if totalDocs%100 == 0 {
			log.Printf("Processed %d/%d documents...", totalDocs, count)
		}
	}

	if err := cursor.Err(); err != nil {
		return fmt.Errorf("cursor error: %w", err)
	}

	fmt.Println("\n=== Migration Summary ===")
	fmt.Printf("Total Documents Processed: %d\n", totalDocs)
	fmt.Printf("Missing availableQuantity backfilled: %d\n", backfilled)
	fmt.Printf("Inconsistent availableQuantity repaired: %d\n", inconsistent)

	if *dryRun {
		fmt.Println("\n⚠️  DRY RUN MODE - No actual changes were made")
		fmt.Println("Run with -dry-run=false to perform actual migration")
	} else {
		fmt.Println("\n✅ Migration completed successfully!")
	}

	return nil
}
