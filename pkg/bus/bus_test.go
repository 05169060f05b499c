package bus

import (
	"sync"
	"testing"
	"time"

	"github.com/alex-ilgayev/adaptogen/pkg/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testEvent is a simple event implementation for testing
type testEvent struct {
	eventType event.EventType
	seq       int
}

func (e *testEvent) Type() event.EventType {
	return e.eventType
}

func waitTimeout(t *testing.T, wg *sync.WaitGroup, timeout time.Duration) {
	t.Helper()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(timeout):
		t.Fatal("Timeout waiting for events to be processed")
	}
}

func TestEventBus_PublishSubscribe(t *testing.T) {
	bus := New()
	defer bus.Close()

	var wg sync.WaitGroup
	wg.Add(1)

	received := make(chan event.Event, 1)
	err := bus.Subscribe(event.EventTypeFrame, func(e event.Event) {
		received <- e
		wg.Done()
	})
	require.NoError(t, err)

	bus.Publish(&testEvent{eventType: event.EventTypeFrame, seq: 7})
	waitTimeout(t, &wg, 2*time.Second)

	evt := <-received
	assert.Equal(t, event.EventTypeFrame, evt.Type())
	assert.Equal(t, 7, evt.(*testEvent).seq)
}

func TestEventBus_MultipleSubscribers(t *testing.T) {
	bus := New()
	defer bus.Close()

	const numSubscribers = 5
	var wg sync.WaitGroup
	wg.Add(numSubscribers)

	receivedCount := make(chan int, numSubscribers)
	for i := 0; i < numSubscribers; i++ {
		subscriberID := i
		err := bus.Subscribe(event.EventTypeParseFailure, func(e event.Event) {
			receivedCount <- subscriberID
			wg.Done()
		})
		require.NoError(t, err)
	}

	bus.Publish(&testEvent{eventType: event.EventTypeParseFailure})
	waitTimeout(t, &wg, 2*time.Second)

	close(receivedCount)
	received := make(map[int]bool)
	for id := range receivedCount {
		received[id] = true
	}
	assert.Len(t, received, numSubscribers)
}

func TestEventBus_SubscriberIsolation(t *testing.T) {
	bus := New()
	defer bus.Close()

	var mu sync.Mutex
	var got []event.EventType
	err := bus.Subscribe(event.EventTypeFrame, func(e event.Event) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, e.Type())
	})
	require.NoError(t, err)

	bus.Publish(&testEvent{eventType: event.EventTypeParseFailure})
	bus.Publish(&testEvent{eventType: event.EventTypeFrame})
	bus.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []event.EventType{event.EventTypeFrame}, got)
}

func TestEventBus_PreservesOrder(t *testing.T) {
	bus := New()
	defer bus.Close()

	const numEvents = 200
	var mu sync.Mutex
	var seqs []int
	err := bus.Subscribe(event.EventTypeRawResponse, func(e event.Event) {
		mu.Lock()
		defer mu.Unlock()
		seqs = append(seqs, e.(*testEvent).seq)
	})
	require.NoError(t, err)

	for i := 0; i < numEvents; i++ {
		bus.Publish(&testEvent{eventType: event.EventTypeRawResponse, seq: i})
	}
	bus.Wait()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, seqs, numEvents)
	for i, seq := range seqs {
		assert.Equal(t, i, seq)
	}
}

func TestEventBus_WaitCoversChainedEvents(t *testing.T) {
	bus := New()
	defer bus.Close()

	var mu sync.Mutex
	frames := 0

	require.NoError(t, bus.Subscribe(event.EventTypeRawResponse, func(e event.Event) {
		bus.Publish(&testEvent{eventType: event.EventTypeFrame, seq: e.(*testEvent).seq})
	}))
	require.NoError(t, bus.Subscribe(event.EventTypeFrame, func(e event.Event) {
		mu.Lock()
		frames++
		mu.Unlock()
	}))

	for i := 0; i < 10; i++ {
		bus.Publish(&testEvent{eventType: event.EventTypeRawResponse, seq: i})
	}
	bus.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 10, frames)
}

func TestEventBus_SubscribeSyncKeepsCrossTopicOrder(t *testing.T) {
	bus := New()
	defer bus.Close()

	// Sync subscribers run in the goroutine of the async raw subscriber,
	// so frames and failures interleave in raw order.
	var mu sync.Mutex
	var seqs []int
	record := func(e event.Event) {
		mu.Lock()
		defer mu.Unlock()
		seqs = append(seqs, e.(*testEvent).seq)
	}
	require.NoError(t, bus.SubscribeSync(event.EventTypeFrame, record))
	require.NoError(t, bus.SubscribeSync(event.EventTypeParseFailure, record))
	require.NoError(t, bus.Subscribe(event.EventTypeRawResponse, func(e event.Event) {
		seq := e.(*testEvent).seq
		eventType := event.EventTypeFrame
		if seq%3 == 0 {
			eventType = event.EventTypeParseFailure
		}
		bus.Publish(&testEvent{eventType: eventType, seq: seq})
	}))

	const numEvents = 100
	for i := 0; i < numEvents; i++ {
		bus.Publish(&testEvent{eventType: event.EventTypeRawResponse, seq: i})
	}
	bus.Wait()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, seqs, numEvents)
	for i, seq := range seqs {
		assert.Equal(t, i, seq)
	}
}

func TestEventBus_Unsubscribe(t *testing.T) {
	bus := New()
	defer bus.Close()

	eventCount := 0
	var mu sync.Mutex
	processor := func(e event.Event) {
		mu.Lock()
		eventCount++
		mu.Unlock()
	}

	require.NoError(t, bus.Subscribe(event.EventTypeFrame, processor))
	bus.Publish(&testEvent{eventType: event.EventTypeFrame})
	bus.Wait()

	require.NoError(t, bus.Unsubscribe(event.EventTypeFrame, processor))
	bus.Publish(&testEvent{eventType: event.EventTypeFrame})
	bus.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, eventCount)
}

func TestEventBus_ConcurrentPublish(t *testing.T) {
	bus := New()
	defer bus.Close()

	const numGoroutines = 10
	const eventsPerGoroutine = 10

	var wg sync.WaitGroup
	wg.Add(numGoroutines * eventsPerGoroutine)

	err := bus.Subscribe(event.EventTypeRawResponse, func(e event.Event) {
		wg.Done()
	})
	require.NoError(t, err)

	for i := 0; i < numGoroutines; i++ {
		go func() {
			for j := 0; j < eventsPerGoroutine; j++ {
				bus.Publish(&testEvent{eventType: event.EventTypeRawResponse})
			}
		}()
	}

	waitTimeout(t, &wg, 5*time.Second)
}

func TestEventBus_CloseAndNoSubscribers(t *testing.T) {
	bus := New()

	require.NoError(t, bus.Subscribe(event.EventTypeFrame, func(e event.Event) {}))
	bus.Close()

	assert.NotPanics(t, func() {
		bus.Publish(&testEvent{eventType: event.EventTypeFrame})
		bus.Publish(&testEvent{eventType: event.EventTypeParseFailure})
		bus.Wait()
	})
}

func TestEventBus_UnsubscribeUnknown(t *testing.T) {
	bus := New()
	defer bus.Close()

	err := bus.Unsubscribe(event.EventTypeFrame, func(e event.Event) {})
	assert.Error(t, err)
}
