package api

import (
	"sync"

	"fleetopt/internal/model"
)

// EventBroker fans period lifecycle events out to stream subscribers.
// Topics are run ids, plus the shared "periods" topic for ad hoc solves.
type EventBroker interface {
	Subscribe(topic string) chan model.Event
	Unsubscribe(topic string, ch chan model.Event)
	Publish(topic string, evt model.Event)
}

// Broker is the in-memory EventBroker used when no REDIS_URL is set.
type Broker struct {
	mu   sync.Mutex
	subs map[string]map[chan model.Event]struct{}
}

func NewBroker() *Broker {
	return &Broker{subs: map[string]map[chan model.Event]struct{}{}}
}

func (b *Broker) Subscribe(topic string) chan model.Event {
	ch := make(chan model.Event, 16)
	b.mu.Lock()
	if b.subs[topic] == nil {
		b.subs[topic] = map[chan model.Event]struct{}{}
	}
	b.subs[topic][ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

func (b *Broker) Unsubscribe(topic string, ch chan model.Event) {
	b.mu.Lock()
	if m := b.subs[topic]; m != nil {
		delete(m, ch)
		if len(m) == 0 {
			delete(b.subs, topic)
		}
	}
	b.mu.Unlock()
	close(ch)
}

// Publish delivers to every subscriber without blocking; a slow consumer
// loses events rather than stalling the planner.
func (b *Broker) Publish(topic string, evt model.Event) {
	b.mu.Lock()
	for ch := range b.subs[topic] {
		select {
		case ch <- evt:
		default:
		}
	}
	b.mu.Unlock()
}
