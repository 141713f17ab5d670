package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Stock health monitoring tool: reports low stock positions,
// outstanding reservations, and the busiest movement ledgers.

var (
	mongoURI   = flag.String("mongo-uri", "mongodb://localhost:27017", "MongoDB connection URI")
	dbName     = flag.String("db", "inventory_db", "Database name")
	topLedgers = flag.Int("top-ledgers", 10, "Number of busiest ledgers to display")
	jsonOut    = flag.Bool("json", false, "Emit the report as JSON")
)

type StockHealthReport struct {
	GeneratedAt     time.Time      `json:"generatedAt"`
	TotalProducts   int64          `json:"totalProducts"`
	LowStockCount   int64          `json:"lowStockCount"`
	OutOfStockCount int64          `json:"outOfStockCount"`
	ReservedUnits   int            `json:"reservedUnits"`
	ActiveAlerts    int64          `json:"activeAlerts"`
	PendingOutbox   int64          `json:"pendingOutbox"`
	BusiestLedgers  []LedgerVolume `json:"busiestLedgers"`
	TotalMovements  int64          `json:"totalMovements"`
}

type LedgerVolume struct {
	ProductID     string `bson:"_id" json:"productId"`
	MovementCount int    `bson:"count" json:"movementCount"`
}

func main() {
	flag.Parse()

	log.Printf("Starting stock health check...")
	log.Printf("MongoDB URI: %s", *mongoURI)
	log.Printf("Database: %s", *dbName)

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

	report, err := buildReport(context.Background(), db)
	if err != nil {
		log.Fatalf("Health check failed: %v", err)
	}

	if *jsonOut {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(report); err != nil {
			log.Fatalf("Failed to encode report: %v", err)
		}
		return
	}

	printReport(report)
}

func buildReport(ctx context.Context, db *mongo.Database) (*StockHealthReport, error) {
	stocks := db.Collection("stock_records")
	movements := db.Collection("stock_movements")
	alerts := db.Collection("stock_alerts")
	outboxEvents := db.Collection("outbox_events")

	report := &StockHealthReport{GeneratedAt: time.Now().UTC()}

	var err error
	if report.TotalProducts, err = stocks.CountDocuments(ctx, bson.M{}); err != nil {
		return nil, fmt.Errorf("failed to count stock records: %w", err)
	}

	lowStock := bson.M{"$expr": bson.M{"$lte": []string{"$availableQuantity", "$reorderLevel"}}}
	if report.LowStockCount, err = stocks.CountDocuments(ctx, lowStock); err != nil {
		return nil, fmt.Errorf("failed to count low stock records: %w", err)
	}

	if report.OutOfStockCount, err = stocks.CountDocuments(ctx, bson.M{"availableQuantity": bson.M{"$lte": 0}}); err != nil {
		return nil, fmt.Errorf("failed to count out-of-stock records: %w", err)
	}

	report.ReservedUnits, err = sumReservedUnits(ctx, stocks)
	if err != nil {
		return nil, fmt.Errorf("failed to sum reserved units: %w", err)
	}

	if report.ActiveAlerts, err = alerts.CountDocuments(ctx, bson.M{"status": "active"}); err != nil {
		return nil, fmt.Errorf("failed to count active alerts: %w", err)
	}

	if report.PendingOutbox, err = outboxEvents.CountDocuments(ctx, bson.M{"publishedAt": nil}); err != nil {
		return nil, fmt.Errorf("failed to count pending outbox events: %w", err)
	}

	if report.TotalMovements, err = movements.CountDocuments(ctx, bson.M{}); err != nil {
		return nil, fmt.Errorf("failed to count movements: %w", err)
	}

	report.BusiestLedgers, err = busiestLedgers(ctx, movements, *topLedgers)
	if err != nil {
		return nil, fmt.Errorf("failed to rank ledgers: %w", err)
	}

	return report, nil
}

func sumReservedUnits(ctx context.Context, stocks *mongo.Collection) (int, error) {
	pipeline := []bson.M{
		{"$group": bson.M{
			"_id":   nil,
			"total": bson.M{"$sum": "$reservedQuantity"},
		}},
	}

	cursor, err := stocks.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, err
	}
	defer cursor.Close(ctx)

	var results []struct {
		Total int `bson:"total"`
	}
	if err := cursor.All(ctx, &results); err != nil {
		return 0, err
	}
	if len(results) == 0 {
		return 0, nil
	}
	return results[0].Total, nil
}

func busiestLedgers(ctx context.Context, movements *mongo.Collection, limit int) ([]LedgerVolume, error) {
	pipeline := []bson.M{
		{"$group": bson.M{
			"_id":   "$productId",
			"count": bson.M{"$sum": 1},
		}},
		{"$sort": bson.M{"count": -1}},
		{"$limit": int64(limit)},
	}

	cursor, err := movements.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var volumes []LedgerVolume
	if err := cursor.All(ctx, &volumes); err != nil {
		return nil, err
	}
	return volumes, nil
}

func printReport(report *StockHealthReport) {
	fmt.Printf("\n=== Stock Health Report (%s) ===\n\n", report.GeneratedAt.Format(time.RFC3339))
	fmt.Printf("Total Products:    %d\n", report.TotalProducts)
	fmt.Printf("Low Stock:         %d\n", report.LowStockCount)
	fmt.Printf("Out of Stock:      %d\n", report.OutOfStockCount)
	fmt.Printf("Reserved Units:    %d\n", report.ReservedUnits)
	fmt.Printf("Active Alerts:     %d\n", report.ActiveAlerts)
	fmt.Printf("Pending Outbox:    %d\n", report.PendingOutbox)
	fmt.Printf("Total Movements:   %d\n", report.TotalMovements)

	if report.OutOfStockCount > 0 {
		fmt.Printf("\n🚨 %d products are out of stock\n", report.OutOfStockCount)
	} else if report.LowStockCount > 0 {
		fmt.Printf("\n⚠️  %d products are at or below their reorder level\n", report.LowStockCount)
	} else {
		fmt.Println("\n✅ All products are above their reorder levels")
	}

	if len(report.BusiestLedgers) == 0 {
		return
	}

	fmt.Println("\n=== Busiest Movement Ledgers ===")
	fmt.Println("Product                              Movements")
	fmt.Println("-----------------------------------  ---------")
	for _, ledger := range report.BusiestLedgers {
		fmt.Printf("%-35s  %9d\n", ledger.ProductID, ledger.MovementCount)
	}
}
