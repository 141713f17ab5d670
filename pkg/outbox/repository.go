package outbox

import "context"

// Repository defines the interface for outbox event persistence.
// Save/SaveAll run inside the caller's transaction so staged events
// commit atomically with the aggregate change; the publisher drains
// unpublished events afterwards.
type Repository interface {
	Save(ctx context.Context, event *OutboxEvent) error
	SaveAll(ctx context.Context, events []*OutboxEvent) error

	// FindUnpublished retrieves unpublished events, oldest first,
	// up to the limit
	FindUnpublished(ctx context.Context, limit int) ([]*OutboxEvent, error)

	MarkPublished(ctx context.Context, eventID string) error

	// IncrementRetry increments the retry count and records the last error
	IncrementRetry(ctx context.Context, eventID string, errorMsg string) error

	// DeletePublished deletes published events older than the given age in seconds
	DeletePublished(ctx context.Context, olderThan int64) error

	GetByID(ctx context.Context, eventID string) (*OutboxEvent, error)
	FindByAggregateID(ctx context.Context, aggregateID string) ([]*OutboxEvent, error)
}
