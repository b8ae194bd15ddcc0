package event

import (
	"sort"
	"sync"

	"github.com/google/uuid"
)

const subscriberBuffer = 16

func NewEventBroker() *Broker {
	return &Broker{
		subscribers: make(map[string]chan Event),
		lock:        sync.Mutex{},
	}
}

type Event struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type Broker struct {
	subscribers map[string]chan Event
	lock        sync.Mutex
}

// Subscribe registers a new subscriber and returns its id.
func (e *Broker) Subscribe() string {
	e.lock.Lock()
	defer e.lock.Unlock()
	id := uuid.NewString()
	e.subscribers[id] = make(chan Event, subscriberBuffer)
	return id
}

func (e *Broker) Unsubscribe(id string) {
	e.lock.Lock()
	defer e.lock.Unlock()
	if channel, ok := e.subscribers[id]; ok {
		close(channel)
		delete(e.subscribers, id)
	}
}

func (e *Broker) Subscribers() []string {
	e.lock.Lock()
	defer e.lock.Unlock()
	ids := make([]string, 0, len(e.subscribers))
	for id := range e.subscribers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Send delivers event to a single subscriber. It returns false if there is no such subscriber or
// its buffer is full.
func (e *Broker) Send(id string, event Event) bool {
	e.lock.Lock()
	defer e.lock.Unlock()
	if channel, ok := e.subscribers[id]; ok {
		return offer(channel, event)
	}
	return false
}

// Publish delivers event to every subscriber and returns how many received it.
func (e *Broker) Publish(event Event) int {
	e.lock.Lock()
	defer e.lock.Unlock()
	delivered := 0
	for _, channel := range e.subscribers {
		if offer(channel, event) {
			delivered++
		}
	}
	return delivered
}

func offer(channel chan Event, event Event) bool {
	select {
	case channel <- event:
		return true
	default:
		return false
	}
}

// Receive blocks until an event for the subscriber arrives. It returns false once the subscriber
// is unsubscribed.
func (e *Broker) Receive(id string) (Event, bool) {
	e.lock.Lock()
	channel, ok := e.subscribers[id]
	e.lock.Unlock()
	if !ok {
		return Event{}, false
	}
	event, ok := <-channel
	return event, ok
}
