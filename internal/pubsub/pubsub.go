package pubsub

import (
	"errors"
	"sync"
)

type Event interface {
}

type Publisher[E Event] interface {
	PublishEvent(*E) error
	// AddSubscriber registers s and returns a function that removes it again.
	AddSubscriber(Subscriber[E]) func()
}

type Subscriber[E Event] interface {
	ConsumeEvent(*E) error
}

// SubscriberFunc adapts a plain function to the Subscriber interface.
type SubscriberFunc[E Event] func(*E) error

func (f SubscriberFunc[E]) ConsumeEvent(e *E) error {
	return f(e)
}

type subscription[E Event] struct {
	id         uint64
	subscriber Subscriber[E]
}

// SimplePublisher synchronously delivers each event to every subscriber, in
// registration order, before PublishEvent returns. Events published from one
// goroutine are therefore observed in publication order.
type SimplePublisher[E Event] struct {
	mu          sync.RWMutex
	nextID      uint64
	subscribers []subscription[E]
}

func NewSimplePublisher[E Event]() *SimplePublisher[E] {
	return &SimplePublisher[E]{
		subscribers: make([]subscription[E], 0),
	}
}

// PublishEvent delivers e to all subscribers. A failing subscriber does not
// stop delivery to the others; all errors are joined.
func (p *SimplePublisher[E]) PublishEvent(e *E) error {
	if e == nil {
		return errors.New("cannot publish nil event")
	}
	p.mu.RLock()
	subs := make([]subscription[E], len(p.subscribers))
	copy(subs, p.subscribers)
	p.mu.RUnlock()

	var errs []error
	for _, s := range subs {
		if err := s.subscriber.ConsumeEvent(e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (p *SimplePublisher[E]) AddSubscriber(s Subscriber[E]) func() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nextID++
	id := p.nextID
	p.subscribers = append(p.subscribers, subscription[E]{id: id, subscriber: s})
	return func() {
		p.removeSubscriber(id)
	}
}

func (p *SimplePublisher[E]) removeSubscriber(id uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, s := range p.subscribers {
		if s.id == id {
			p.subscribers = append(p.subscribers[:i], p.subscribers[i+1:]...)
			return
		}
	}
}
