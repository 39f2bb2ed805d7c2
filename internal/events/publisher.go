package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/Tjibson/medicluster-summaries-sub000/internal/config"
	"github.com/Tjibson/medicluster-summaries-sub000/internal/observability"
)

// Publisher delivers events to a broker.
type Publisher interface {
	Publish(ctx context.Context, events ...Event) error
	Close() error
}

// MessageWriter is the subset of *kafka.Writer used by KafkaPublisher.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes events as JSON messages keyed by user ID.
type KafkaPublisher struct {
	writer MessageWriter
}

// NewKafkaPublisher creates a publisher with its own kafka.Writer.
func NewKafkaPublisher(cfg config.KafkaConfig) (*KafkaPublisher, error) {
	if len(cfg.Brokers) == 0 || cfg.Topic == "" {
		return nil, errors.New("kafka brokers and topic are required")
	}

	batchTimeout := cfg.BatchTimeout
	if batchTimeout <= 0 {
		batchTimeout = 100 * time.Millisecond
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		BatchSize:              cfg.BatchSize,
		BatchTimeout:           batchTimeout,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: false,
	}
	return NewKafkaPublisherWithWriter(writer), nil
}

// NewKafkaPublisherWithWriter wraps an existing writer.
func NewKafkaPublisherWithWriter(w MessageWriter) *KafkaPublisher {
	return &KafkaPublisher{writer: w}
}

// Publish encodes and writes the events in one batch.
func (p *KafkaPublisher) Publish(ctx context.Context, events ...Event) error {
	if len(events) == 0 {
		return nil
	}
	msgs := make([]kafka.Message, 0, len(events))
	for _, e := range events {
		value, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("marshal event %s: %w", e.Type, err)
		}
		msgs = append(msgs, kafka.Message{
			Key:   e.Key(),
			Value: value,
			Time:  e.OccurredAt,
			Headers: []kafka.Header{
				{Key: "event_type", Value: []byte(e.Type)},
			},
		})
	}
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("kafka write: %w", err)
	}
	return nil
}

// Close flushes pending messages and closes the writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NopPublisher discards events. Used when Kafka is disabled.
type NopPublisher struct{}

// Publish implements Publisher.
func (NopPublisher) Publish(context.Context, ...Event) error { return nil }

// Close implements Publisher.
func (NopPublisher) Close() error { return nil }

// DefaultQueueSize bounds the events waiting for the background publisher.
const DefaultQueueSize = 256

type queuedEvent struct {
	event  Event
	logger zerolog.Logger
}

// Emitter builds events and hands them to a Publisher from a background
// goroutine, so a slow or unreachable broker never delays the caller.
// Failures are logged and counted, never returned.
type Emitter struct {
	publisher Publisher
	timeout   time.Duration
	logger    zerolog.Logger
	metrics   *observability.Metrics

	mu     sync.RWMutex
	closed bool
	queue  chan queuedEvent
	done   chan struct{}
}

// NewEmitter creates an emitter and starts its publishing goroutine. A nil
// publisher behaves like NopPublisher; metrics may be nil.
func NewEmitter(publisher Publisher, logger zerolog.Logger, metrics *observability.Metrics) *Emitter {
	return newEmitter(publisher, logger, metrics, DefaultQueueSize)
}

func newEmitter(publisher Publisher, logger zerolog.Logger, metrics *observability.Metrics, queueSize int) *Emitter {
	if publisher == nil {
		publisher = NopPublisher{}
	}
	e := &Emitter{
		publisher: publisher,
		timeout:   5 * time.Second,
		logger:    logger.With().Str("component", "events").Logger(),
		metrics:   metrics,
		queue:     make(chan queuedEvent, queueSize),
		done:      make(chan struct{}),
	}
	go e.run()
	return e
}

// Emit queues one event and returns immediately. When the queue is full or
// the emitter is closed the event is dropped.
func (e *Emitter) Emit(ctx context.Context, eventType string, userID uuid.UUID, payload interface{}) {
	if e == nil {
		return
	}
	logger := observability.LoggerFromContext(ctx, e.logger)
	event, err := New(eventType, userID, payload)
	if err != nil {
		logger.Error().Err(err).Str("event_type", eventType).Msg("failed to build event")
		e.metrics.RecordEventFailed(eventType)
		return
	}

	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		logger.Warn().Str("event_type", eventType).Msg("event emitter closed, dropping event")
		e.metrics.RecordEventFailed(eventType)
		return
	}
	select {
	case e.queue <- queuedEvent{event: event, logger: logger}:
	default:
		logger.Warn().Str("event_type", eventType).Str("event_id", event.ID.String()).Msg("event queue full, dropping event")
		e.metrics.RecordEventFailed(eventType)
	}
}

func (e *Emitter) run() {
	defer close(e.done)
	for q := range e.queue {
		e.publish(q)
	}
}

func (e *Emitter) publish(q queuedEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
	defer cancel()

	if err := e.publisher.Publish(ctx, q.event); err != nil {
		q.logger.Warn().
			Err(err).
			Str("event_type", q.event.Type).
			Str("event_id", q.event.ID.String()).
			Msg("failed to publish event")
		e.metrics.RecordEventFailed(q.event.Type)
		return
	}
	e.metrics.RecordEventPublished(q.event.Type)
}

// Close stops accepting events, publishes what is already queued and closes
// the underlying publisher. It is safe to call more than once.
func (e *Emitter) Close() error {
	if e == nil {
		return nil
	}
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	close(e.queue)
	e.mu.Unlock()

	<-e.done
	return e.publisher.Close()
}
