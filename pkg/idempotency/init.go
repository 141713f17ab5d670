package idempotency

import (
	"context"
	"log/slog"

	"go.mongodb.org/mongo-driver/mongo"
)

// InitializeIndexes creates the indexes required for idempotency key storage.
// This should be called during service startup before processing any requests.
func InitializeIndexes(ctx context.Context, db *mongo.Database) error {
	keyRepo := NewMongoKeyRepository(db)
	if err := keyRepo.EnsureIndexes(ctx); err != nil {
		slog.Error("Failed to create idempotency_keys indexes", "error", err)
		return err
	}
	slog.Info("Created indexes for idempotency_keys collection")
	return nil
}
