package messaging

import (
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linguahub/progression-hub/internal/domain/shared"
	"github.com/linguahub/progression-hub/pkg/logger"
)

func newSyncBus(t *testing.T) *InMemoryEventBus {
	t.Helper()
	bus := NewInMemoryEventBus(InMemoryEventBusConfig{
		AsyncMode:     false,
		EnableMetrics: true,
		Logger:        logger.New(logger.Options{Output: io.Discard}),
	})
	t.Cleanup(func() { _ = bus.Close() })
	return bus
}

func TestPublishDeliversToTypedHandler(t *testing.T) {
	bus := newSyncBus(t)

	var got []shared.Event
	err := bus.Subscribe(shared.EventWeekCompleted, func(event shared.Event) error {
		got = append(got, event)
		return nil
	})
	require.NoError(t, err)

	event := shared.NewWeekCompletedEvent("student-1", "week-1", 3, "teacher-1")
	require.NoError(t, bus.Publish(event))

	require.Len(t, got, 1)
	assert.Equal(t, shared.EventWeekCompleted, got[0].EventType())
	assert.Equal(t, "student-1", got[0].AggregateID())
}

func TestPublishSkipsOtherEventTypes(t *testing.T) {
	bus := newSyncBus(t)

	calls := 0
	require.NoError(t, bus.Subscribe(shared.EventWeekReopened, func(shared.Event) error {
		calls++
		return nil
	}))

	require.NoError(t, bus.Publish(shared.NewWeekCompletedEvent("student-1", "week-1", 3, "teacher-1")))
	assert.Zero(t, calls)
}

func TestSubscribeAllReceivesEveryEvent(t *testing.T) {
	bus := newSyncBus(t)

	var types []shared.EventType
	require.NoError(t, bus.SubscribeAll(func(event shared.Event) error {
		types = append(types, event.EventType())
		return nil
	}))

	require.NoError(t, bus.Publish(shared.NewWeekCompletedEvent("student-1", "week-1", 3, "t")))
	require.NoError(t, bus.Publish(shared.NewAlumniMarkedEvent("student-1", time.Now())))

	assert.Equal(t, []shared.EventType{shared.EventWeekCompleted, shared.EventAlumniMarked}, types)
}

func TestHandlerErrorDoesNotFailPublish(t *testing.T) {
	bus := newSyncBus(t)

	require.NoError(t, bus.Subscribe(shared.EventWeekCompleted, func(shared.Event) error {
		return errors.New("boom")
	}))

	err := bus.Publish(shared.NewWeekCompletedEvent("student-1", "week-1", 3, "t"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), bus.Metrics().Failed(shared.EventWeekCompleted))
}

func TestHandlerPanicIsRecovered(t *testing.T) {
	bus := newSyncBus(t)

	require.NoError(t, bus.Subscribe(shared.EventWeekCompleted, func(shared.Event) error {
		panic("handler bug")
	}))

	require.NoError(t, bus.Publish(shared.NewWeekCompletedEvent("student-1", "week-1", 3, "t")))
	assert.Equal(t, int64(1), bus.Metrics().Failed(shared.EventWeekCompleted))
}

func TestAsyncPublishDeliversEventually(t *testing.T) {
	bus := NewInMemoryEventBus(InMemoryEventBusConfig{
		AsyncMode:      true,
		WorkerPoolSize: 2,
		Logger:         logger.New(logger.Options{Output: io.Discard}),
	})

	var (
		mu    sync.Mutex
		calls int
	)
	require.NoError(t, bus.SubscribeAll(func(shared.Event) error {
		mu.Lock()
		calls++
		mu.Unlock()
		return nil
	}))

	for i := 0; i < 5; i++ {
		require.NoError(t, bus.Publish(shared.NewWeekReopenedEvent("student-1", "week-1", 3, false)))
	}

	// Close waits for in-flight handlers.
	require.NoError(t, bus.Close())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 5, calls)
}

func TestCloseDrainsHandlersQueuedBeyondPool(t *testing.T) {
	bus := NewInMemoryEventBus(InMemoryEventBusConfig{
		AsyncMode:      true,
		WorkerPoolSize: 1,
		Logger:         logger.New(logger.Options{Output: io.Discard}),
	})

	var (
		mu    sync.Mutex
		calls int
	)
	require.NoError(t, bus.SubscribeAll(func(shared.Event) error {
		time.Sleep(5 * time.Millisecond)
		mu.Lock()
		calls++
		mu.Unlock()
		return nil
	}))

	// With one worker, most of these are still waiting for a slot when
	// Close is called; none may be dropped.
	for i := 0; i < 8; i++ {
		require.NoError(t, bus.Publish(shared.NewWeekCompletedEvent("student-1", "week-1", 3, "t")))
	}

	require.NoError(t, bus.Close())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 8, calls)
}

func TestPublishAfterCloseFails(t *testing.T) {
	bus := newSyncBus(t)
	require.NoError(t, bus.Close())

	err := bus.Publish(shared.NewWeekCompletedEvent("student-1", "week-1", 3, "t"))
	assert.ErrorIs(t, err, ErrEventBusClosed)

	err = bus.Subscribe(shared.EventWeekCompleted, func(shared.Event) error { return nil })
	assert.ErrorIs(t, err, ErrEventBusClosed)
}

func TestEnvelopeCarriesEventFields(t *testing.T) {
	event := shared.NewWeekCompletedEvent("student-1", "week-1", 3, "teacher-1")

	env, err := Envelope(event)
	require.NoError(t, err)

	assert.NotEmpty(t, env.ID)
	assert.Equal(t, shared.EventWeekCompleted, env.Type)
	assert.Equal(t, "student-1", env.AggregateID)
	assert.JSONEq(t,
		`{"student_id":"student-1","week_id":"week-1","week_number":3,"completed_by":"teacher-1"}`,
		string(env.Payload),
	)
}
