// Package messaging implements the event bus that carries progression domain
// events to their side-effect handlers. It provides an in-memory bus for
// single-instance deployments plus a Redis bridge that mirrors events onto
// pub/sub channels for other services.
package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/linguahub/progression-hub/internal/domain/shared"
	infraredis "github.com/linguahub/progression-hub/internal/infrastructure/persistence/redis"
	"github.com/linguahub/progression-hub/pkg/logger"
)

// ErrEventBusClosed is returned when operating on a closed bus.
var ErrEventBusClosed = errors.New("messaging: event bus is closed")

// ══════════════════════════════════════════════════════════════════════════════
// IN-MEMORY EVENT BUS
// ══════════════════════════════════════════════════════════════════════════════

// InMemoryEventBus is a simple in-memory implementation of shared.EventBus.
// Suitable for single-instance deployments and testing.
type InMemoryEventBus struct {
	mu          sync.RWMutex
	handlers    map[shared.EventType][]shared.EventHandler
	allHandlers []shared.EventHandler
	asyncMode   bool
	workerPool  chan struct{}
	logger      *logger.Logger
	metrics     *EventBusMetrics
	closed      bool
	wg          sync.WaitGroup
}

// InMemoryEventBusConfig contains configuration for InMemoryEventBus.
type InMemoryEventBusConfig struct {
	// AsyncMode enables asynchronous event processing.
	AsyncMode bool

	// WorkerPoolSize is the number of concurrent workers for async processing.
	WorkerPoolSize int

	// Logger for structured logging.
	Logger *logger.Logger

	// EnableMetrics enables metrics collection.
	EnableMetrics bool
}

// DefaultInMemoryEventBusConfig returns sensible defaults.
func DefaultInMemoryEventBusConfig() InMemoryEventBusConfig {
	return InMemoryEventBusConfig{
		AsyncMode:      true,
		WorkerPoolSize: 10,
		EnableMetrics:  true,
	}
}

// NewInMemoryEventBus creates a new in-memory event bus.
func NewInMemoryEventBus(config InMemoryEventBusConfig) *InMemoryEventBus {
	if config.Logger == nil {
		config.Logger = logger.Default()
	}
	if config.WorkerPoolSize <= 0 {
		config.WorkerPoolSize = 10
	}

	bus := &InMemoryEventBus{
		handlers:    make(map[shared.EventType][]shared.EventHandler),
		allHandlers: make([]shared.EventHandler, 0),
		asyncMode:   config.AsyncMode,
		workerPool:  make(chan struct{}, config.WorkerPoolSize),
		logger:      config.Logger,
	}

	if config.EnableMetrics {
		bus.metrics = NewEventBusMetrics()
	}

	return bus
}

// Subscribe registers a handler for a specific event type.
func (b *InMemoryEventBus) Subscribe(eventType shared.EventType, handler shared.EventHandler) error {
	if handler == nil {
		return errors.New("handler cannot be nil")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrEventBusClosed
	}

	b.handlers[eventType] = append(b.handlers[eventType], handler)
	b.logger.Debug("subscribed handler", logger.String("event_type", string(eventType)))

	return nil
}

// SubscribeAll registers a handler for all events.
func (b *InMemoryEventBus) SubscribeAll(handler shared.EventHandler) error {
	if handler == nil {
		return errors.New("handler cannot be nil")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrEventBusClosed
	}

	b.allHandlers = append(b.allHandlers, handler)
	b.logger.Debug("subscribed global handler")

	return nil
}

// Publish sends an event to all subscribed handlers.
func (b *InMemoryEventBus) Publish(event shared.Event) error {
	if event == nil {
		return errors.New("event cannot be nil")
	}

	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return ErrEventBusClosed
	}

	handlers := make([]shared.EventHandler, 0)
	handlers = append(handlers, b.handlers[event.EventType()]...)
	handlers = append(handlers, b.allHandlers...)
	b.mu.RUnlock()

	if len(handlers) == 0 {
		b.logger.Debug("no handlers for event", logger.String("event_type", string(event.EventType())))
		return nil
	}

	if b.metrics != nil {
		b.metrics.RecordPublish(event.EventType())
	}

	if b.asyncMode {
		for _, handler := range handlers {
			b.executeAsync(event, handler)
		}
	} else {
		for _, handler := range handlers {
			if err := b.executeSync(event, handler); err != nil {
				b.logger.Error("handler error",
					logger.String("event_type", string(event.EventType())),
					logger.Err(err),
				)
			}
		}
	}

	return nil
}

// executeAsync executes a handler asynchronously using the worker pool.
// The slot wait is unconditional: the closed flag already fences new
// publishes, and every handler accepted before Close must run, so Close
// drains the queue instead of dropping it.
func (b *InMemoryEventBus) executeAsync(event shared.Event, handler shared.EventHandler) {
	b.wg.Add(1)

	go func() {
		defer b.wg.Done()

		b.workerPool <- struct{}{}
		defer func() { <-b.workerPool }()

		if err := b.executeSync(event, handler); err != nil {
			b.logger.Error("async handler error",
				logger.String("event_type", string(event.EventType())),
				logger.String("aggregate_id", event.AggregateID()),
				logger.Err(err),
			)
			if b.metrics != nil {
				b.metrics.RecordError(event.EventType())
			}
		}
	}()
}

// executeSync executes a handler with panic recovery.
func (b *InMemoryEventBus) executeSync(event shared.Event, handler shared.EventHandler) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()

	start := time.Now()
	err = handler(event)

	if b.metrics != nil {
		b.metrics.RecordHandled(event.EventType(), time.Since(start), err == nil)
	}

	return err
}

// Close shuts down the bus and waits until every async handler accepted
// before the close has run.
func (b *InMemoryEventBus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.mu.Unlock()

	b.wg.Wait()
	return nil
}

// Metrics returns the collected metrics, or nil when disabled.
func (b *InMemoryEventBus) Metrics() *EventBusMetrics {
	return b.metrics
}

// ══════════════════════════════════════════════════════════════════════════════
// METRICS
// ══════════════════════════════════════════════════════════════════════════════

// EventBusMetrics tracks per-type publish and handler counters.
type EventBusMetrics struct {
	mu        sync.Mutex
	published map[shared.EventType]int64
	handled   map[shared.EventType]int64
	failed    map[shared.EventType]int64
	totalTime map[shared.EventType]time.Duration
}

// NewEventBusMetrics creates empty metrics.
func NewEventBusMetrics() *EventBusMetrics {
	return &EventBusMetrics{
		published: make(map[shared.EventType]int64),
		handled:   make(map[shared.EventType]int64),
		failed:    make(map[shared.EventType]int64),
		totalTime: make(map[shared.EventType]time.Duration),
	}
}

// RecordPublish counts a published event.
func (m *EventBusMetrics) RecordPublish(eventType shared.EventType) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published[eventType]++
}

// RecordHandled counts a completed handler invocation.
func (m *EventBusMetrics) RecordHandled(eventType shared.EventType, elapsed time.Duration, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handled[eventType]++
	m.totalTime[eventType] += elapsed
	if !ok {
		m.failed[eventType]++
	}
}

// RecordError counts a failed handler invocation reported asynchronously.
func (m *EventBusMetrics) RecordError(eventType shared.EventType) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failed[eventType]++
}

// Published returns the publish count for an event type.
func (m *EventBusMetrics) Published(eventType shared.EventType) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.published[eventType]
}

// Failed returns the failed-handler count for an event type.
func (m *EventBusMetrics) Failed(eventType shared.EventType) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.failed[eventType]
}

// ══════════════════════════════════════════════════════════════════════════════
// REDIS EVENT BRIDGE
// Mirrors every published event onto a Redis pub/sub channel so sibling
// services (badge evaluator, notifications) can react without polling.
// ══════════════════════════════════════════════════════════════════════════════

// RedisEventBridge forwards events published on the local bus to Redis.
// It is registered via SubscribeAll and never fails the local publish.
type RedisEventBridge struct {
	cache   *infraredis.Cache
	logger  *logger.Logger
	timeout time.Duration
}

// NewRedisEventBridge creates a bridge over an established Redis cache.
func NewRedisEventBridge(cache *infraredis.Cache, log *logger.Logger) *RedisEventBridge {
	if log == nil {
		log = logger.Default()
	}
	return &RedisEventBridge{
		cache:   cache,
		logger:  log,
		timeout: 3 * time.Second,
	}
}

// Handler returns the shared.EventHandler to register on the local bus.
func (br *RedisEventBridge) Handler() shared.EventHandler {
	return func(event shared.Event) error {
		env, err := Envelope(event)
		if err != nil {
			br.logger.Error("failed to envelope event",
				logger.String("event_type", string(event.EventType())),
				logger.Err(err),
			)
			return nil
		}

		ctx, cancel := context.WithTimeout(context.Background(), br.timeout)
		defer cancel()

		channel := infraredis.PubSubChannel(string(event.EventType()))
		if err := br.cache.Publish(ctx, channel, env); err != nil {
			// Remote delivery is best effort; local handlers already ran.
			br.logger.Warn("failed to publish event to redis",
				logger.String("event_type", string(event.EventType())),
				logger.String("channel", channel),
				logger.Err(err),
			)
		}
		return nil
	}
}

// Envelope wraps a domain event for wire transport.
func Envelope(event shared.Event) (shared.EventEnvelope, error) {
	payload, err := json.Marshal(event.Payload())
	if err != nil {
		return shared.EventEnvelope{}, fmt.Errorf("marshal event payload: %w", err)
	}

	return shared.EventEnvelope{
		ID:          uuid.NewString(),
		Type:        event.EventType(),
		AggregateID: event.AggregateID(),
		Timestamp:   event.OccurredAt(),
		Version:     1,
		Payload:     payload,
	}, nil
}
