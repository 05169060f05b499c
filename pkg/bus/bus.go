package bus

import (
	"fmt"

	"github.com/alex-ilgayev/adaptogen/pkg/event"
	evbus "github.com/asaskevich/EventBus"
)

type EventProcessor func(e event.Event)

// EventBus is a thread-safe, publish/subscribe system.
// Using github.com/asaskevich/EventBus behind the scenes.
type EventBus interface {
	Publish(e event.Event)
	Subscribe(eventType event.EventType, fn EventProcessor) error
	// SubscribeSync registers fn to run inside Publish, in the publisher's
	// goroutine. Subscribers on different topics that share a publisher
	// therefore observe one total order.
	SubscribeSync(eventType event.EventType, fn EventProcessor) error
	Unsubscribe(eventType event.EventType, fn EventProcessor) error
	// Wait blocks until every delivered event has been processed,
	// including events published by subscribers while waiting.
	Wait()
	Close()
}

type eventBus struct {
	bus evbus.Bus
}

// New creates a new EventBus.
func New() EventBus {
	return &eventBus{
		bus: evbus.New(),
	}
}

func topic(eventType event.EventType) string {
	return fmt.Sprintf("topic:%s", eventType.String())
}

// Publish sends an event to all registered subscribers for that event type.
// Each subscriber runs in its own goroutine and sees events one at a time,
// in publish order. Publish blocks while the subscriber is still busy with
// the previous event.
func (b *eventBus) Publish(e event.Event) {
	b.bus.Publish(topic(e.Type()), e)
}

// Subscribe registers an EventProcessor to receive events it's interested in.
func (b *eventBus) Subscribe(eventType event.EventType, fn EventProcessor) error {
	return b.bus.SubscribeAsync(topic(eventType), fn, true)
}

func (b *eventBus) SubscribeSync(eventType event.EventType, fn EventProcessor) error {
	return b.bus.Subscribe(topic(eventType), fn)
}

// Unsubscribe removes a previously registered EventProcessor for a specific event type.
// Handlers are matched by code pointer, so the same method bound to two
// receivers cannot be told apart.
func (b *eventBus) Unsubscribe(eventType event.EventType, fn EventProcessor) error {
	return b.bus.Unsubscribe(topic(eventType), fn)
}

func (b *eventBus) Wait() {
	b.bus.WaitAsync()
}

// Close waits for pending deliveries and drops all subscriptions.
func (b *eventBus) Close() {
	b.bus.WaitAsync()
	// No explicit close method in the underlying library.
	b.bus = evbus.New()
}
