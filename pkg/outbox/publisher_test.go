package outbox

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KubeStock-DevOps-project/kubestock-core/pkg/cloudevents"
	"github.com/KubeStock-DevOps-project/kubestock-core/pkg/logging"
	ktesting "github.com/KubeStock-DevOps-project/kubestock-core/pkg/testing"
)

type memoryOutboxRepo struct {
	mu     sync.Mutex
	events []*OutboxEvent
}

func (r *memoryOutboxRepo) Save(ctx context.Context, event *OutboxEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *memoryOutboxRepo) SaveAll(ctx context.Context, events []*OutboxEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, events...)
	return nil
}

func (r *memoryOutboxRepo) FindUnpublished(ctx context.Context, limit int) ([]*OutboxEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*OutboxEvent
	for _, event := range r.events {
		if event.PublishedAt == nil {
			result = append(result, event)
			if len(result) >= limit {
				break
			}
		}
	}
	return result, nil
}

func (r *memoryOutboxRepo) MarkPublished(ctx context.Context, eventID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, event := range r.events {
		if event.ID == eventID {
			now := time.Now()
			event.PublishedAt = &now
			return nil
		}
	}
	return errors.New("event not found")
}

func (r *memoryOutboxRepo) IncrementRetry(ctx context.Context, eventID string, errorMsg string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, event := range r.events {
		if event.ID == eventID {
			event.RetryCount++
			event.LastError = errorMsg
			return nil
		}
	}
	return errors.New("event not found")
}

func (r *memoryOutboxRepo) DeletePublished(ctx context.Context, olderThan int64) error {
	return nil
}

func (r *memoryOutboxRepo) GetByID(ctx context.Context, eventID string) (*OutboxEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, event := range r.events {
		if event.ID == eventID {
			return event, nil
		}
	}
	return nil, errors.New("event not found")
}

func (r *memoryOutboxRepo) FindByAggregateID(ctx context.Context, aggregateID string) ([]*OutboxEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*OutboxEvent
	for _, event := range r.events {
		if event.AggregateID == aggregateID {
			result = append(result, event)
		}
	}
	return result, nil
}

func (r *memoryOutboxRepo) publishedCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, event := range r.events {
		if event.PublishedAt != nil {
			count++
		}
	}
	return count
}

func (r *memoryOutboxRepo) retryCount(eventID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, event := range r.events {
		if event.ID == eventID {
			return event.RetryCount
		}
	}
	return -1
}

type recordingProducer struct {
	mu        sync.Mutex
	failWith  error
	topics    []string
	published []*cloudevents.StockCloudEvent
}

func (p *recordingProducer) PublishEvent(ctx context.Context, topic string, event *cloudevents.StockCloudEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failWith != nil {
		return p.failWith
	}
	p.topics = append(p.topics, topic)
	p.published = append(p.published, event)
	return nil
}

func (p *recordingProducer) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.published)
}

func publisherTestLogger() *logging.Logger {
	config := logging.DefaultConfig("outbox-test")
	config.Output = io.Discard
	return logging.New(config)
}

func stagedEvent(t *testing.T, factory *cloudevents.EventFactory, productID string) *OutboxEvent {
	t.Helper()
	cloudEvent := factory.CreateEvent(context.Background(), "com.kubestock.test.event", "stock/"+productID, map[string]string{
		"productId": productID,
	})
	event, err := NewOutboxEventFromCloudEvent(productID, "StockRecord", "kubestock.inventory.events", cloudEvent)
	require.NoError(t, err)
	return event
}

func TestPublisherDeliversPendingEvents(t *testing.T) {
	repo := &memoryOutboxRepo{}
	producer := &recordingProducer{}
	factory := cloudevents.NewEventFactory("/outbox-test")

	require.NoError(t, repo.SaveAll(context.Background(), []*OutboxEvent{
		stagedEvent(t, factory, "prod-1"),
		stagedEvent(t, factory, "prod-2"),
	}))

	publisher := NewPublisher(repo, producer, publisherTestLogger(), nil, &PublisherConfig{
		PollInterval: 10 * time.Millisecond,
		BatchSize:    10,
	})

	require.NoError(t, publisher.Start(context.Background()))
	defer publisher.Stop()

	ktesting.AssertEventually(t, func() bool {
		return producer.count() == 2 && repo.publishedCount() == 2
	}, 2*time.Second, "expected both events to be published and marked")

	assert.Equal(t, []string{"kubestock.inventory.events", "kubestock.inventory.events"}, producer.topics)
}

func TestPublisherRetriesFailedEvents(t *testing.T) {
	repo := &memoryOutboxRepo{}
	producer := &recordingProducer{failWith: errors.New("broker unavailable")}
	factory := cloudevents.NewEventFactory("/outbox-test")

	event := stagedEvent(t, factory, "prod-1")
	require.NoError(t, repo.Save(context.Background(), event))

	publisher := NewPublisher(repo, producer, publisherTestLogger(), nil, &PublisherConfig{
		PollInterval: 10 * time.Millisecond,
		BatchSize:    10,
	})

	require.NoError(t, publisher.Start(context.Background()))
	defer publisher.Stop()

	ktesting.AssertEventually(t, func() bool {
		return repo.retryCount(event.ID) >= 2
	}, 2*time.Second, "expected failed event to accumulate retries")

	assert.Equal(t, 0, repo.publishedCount())
	assert.Equal(t, 0, producer.count())
}

func TestPublisherStartTwice(t *testing.T) {
	publisher := NewPublisher(&memoryOutboxRepo{}, &recordingProducer{}, publisherTestLogger(), nil, nil)

	require.NoError(t, publisher.Start(context.Background()))
	defer publisher.Stop()

	assert.Error(t, publisher.Start(context.Background()))
	assert.True(t, publisher.IsRunning())
}

func TestPublisherStopWhenNotRunning(t *testing.T) {
	publisher := NewPublisher(&memoryOutboxRepo{}, &recordingProducer{}, publisherTestLogger(), nil, nil)
	assert.Error(t, publisher.Stop())
}
