package testing

import (
	"reflect"
	"sync"

	"github.com/alex-ilgayev/adaptogen/pkg/bus"
	"github.com/alex-ilgayev/adaptogen/pkg/event"
)

// MockBus delivers events synchronously, in the publishing goroutine, and
// copies every published event to a buffered channel for assertions.
type MockBus struct {
	mu          sync.RWMutex
	subscribers map[event.EventType][]bus.EventProcessor
	events      chan event.Event
}

var _ bus.EventBus = (*MockBus)(nil)

func NewMockBus() *MockBus {
	return &MockBus{
		subscribers: make(map[event.EventType][]bus.EventProcessor),
		events:      make(chan event.Event, 100), // Buffered to avoid blocking
	}
}

func (mb *MockBus) Publish(e event.Event) {
	mb.mu.RLock()
	processors := append([]bus.EventProcessor(nil), mb.subscribers[e.Type()]...)
	mb.mu.RUnlock()

	// Non-blocking: if the test isn't consuming events, don't block
	select {
	case mb.events <- e:
	default:
	}

	// Subscribers may publish further events, so the lock is not held here.
	for _, processor := range processors {
		processor(e)
	}
}

func (mb *MockBus) Subscribe(eventType event.EventType, fn bus.EventProcessor) error {
	mb.mu.Lock()
	defer mb.mu.Unlock()

	mb.subscribers[eventType] = append(mb.subscribers[eventType], fn)
	return nil
}

// SubscribeSync behaves like Subscribe: every delivery is synchronous.
func (mb *MockBus) SubscribeSync(eventType event.EventType, fn bus.EventProcessor) error {
	return mb.Subscribe(eventType, fn)
}

// Unsubscribe removes the first processor with the same code pointer as fn.
// Method values of one method on different receivers are indistinguishable,
// matching the real bus.
func (mb *MockBus) Unsubscribe(eventType event.EventType, fn bus.EventProcessor) error {
	mb.mu.Lock()
	defer mb.mu.Unlock()

	target := reflect.ValueOf(fn).Pointer()
	processors := mb.subscribers[eventType]
	for i, processor := range processors {
		if reflect.ValueOf(processor).Pointer() == target {
			mb.subscribers[eventType] = append(processors[:i], processors[i+1:]...)
			break
		}
	}
	return nil
}

// Wait is a no-op: delivery is synchronous.
func (mb *MockBus) Wait() {}

func (mb *MockBus) Close() {
	mb.mu.Lock()
	defer mb.mu.Unlock()

	mb.subscribers = make(map[event.EventType][]bus.EventProcessor)
}

// Events returns the channel that receives published events for test assertions
func (mb *MockBus) Events() <-chan event.Event {
	return mb.events
}

// Drain returns the events currently buffered in the channel.
func (mb *MockBus) Drain() []event.Event {
	var out []event.Event
	for {
		select {
		case e := <-mb.events:
			out = append(out, e)
		default:
			return out
		}
	}
}

// SubscriberCount returns the number of processors registered for eventType.
func (mb *MockBus) SubscriberCount(eventType event.EventType) int {
	mb.mu.RLock()
	defer mb.mu.RUnlock()

	return len(mb.subscribers[eventType])
}
