package pubsub

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type TestEvent struct {
	contents string
}

type TestSubscriber struct {
	consumedEvents []*TestEvent
}

func (s *TestSubscriber) ConsumeEvent(e *TestEvent) error {
	s.consumedEvents = append(s.consumedEvents, e)
	return nil
}

func TestSimplePublisher(t *testing.T) {
	subscriber1 := &TestSubscriber{
		consumedEvents: make([]*TestEvent, 0),
	}
	subscriber2 := &TestSubscriber{
		consumedEvents: make([]*TestEvent, 0),
	}

	sp := NewSimplePublisher[TestEvent]()
	sp.AddSubscriber(subscriber1)
	remove := sp.AddSubscriber(subscriber2)

	err := sp.PublishEvent(&TestEvent{contents: "test"})
	assert.Nil(t, err)

	assert.Equal(t, 1, len(subscriber1.consumedEvents))
	assert.Equal(t, 1, len(subscriber2.consumedEvents))

	err = sp.PublishEvent(nil)
	assert.NotNil(t, err)

	remove()
	err = sp.PublishEvent(&TestEvent{contents: "again"})
	assert.Nil(t, err)
	assert.Equal(t, 2, len(subscriber1.consumedEvents))
	assert.Equal(t, 1, len(subscriber2.consumedEvents))
	assert.Equal(t, "again", subscriber1.consumedEvents[1].contents)
}

func TestFailingSubscriberDoesNotBlockOthers(t *testing.T) {
	sp := NewSimplePublisher[TestEvent]()
	var got []string
	sp.AddSubscriber(SubscriberFunc[TestEvent](func(e *TestEvent) error {
		return errors.New("nope")
	}))
	sp.AddSubscriber(SubscriberFunc[TestEvent](func(e *TestEvent) error {
		got = append(got, e.contents)
		return nil
	}))

	err := sp.PublishEvent(&TestEvent{contents: "test"})
	assert.EqualError(t, err, "nope")
	assert.Equal(t, []string{"test"}, got)
}
