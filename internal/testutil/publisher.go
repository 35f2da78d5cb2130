package testutil

import (
	"sync"

	"github.com/mcoot/osrsbingo/internal/model"
)

// Published is one event captured by RecordingPublisher
type Published struct {
	Topic model.Topic
	Event model.Event
}

// RecordingPublisher keeps every published event for assertions
type RecordingPublisher struct {
	mu     sync.Mutex
	events []Published
}

// Publish records the event
func (p *RecordingPublisher) Publish(topic model.Topic, event model.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, Published{Topic: topic, Event: event})
}

// Types returns the event types published on topic, in order
func (p *RecordingPublisher) Types(topic model.Topic) []model.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	var types []model.EventType
	for _, e := range p.events {
		if e.Topic == topic {
			types = append(types, e.Event.Type)
		}
	}
	return types
}
