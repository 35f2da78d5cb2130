package model

import "time"

// Topic groups live events by what changed
type Topic string

const (
	TopicBoard  Topic = "board"
	TopicDrops  Topic = "drops"
	TopicDeaths Topic = "deaths"
	TopicRank   Topic = "rank"
)

// Topics lists every topic clients may subscribe to
var Topics = []Topic{TopicBoard, TopicDrops, TopicDeaths, TopicRank}

// IsValid reports whether the topic is known
func (t Topic) IsValid() bool {
	for _, known := range Topics {
		if t == known {
			return true
		}
	}
	return false
}

// EventType identifies the type of event
type EventType string

const (
	// Board events
	EventBoardUpdated  EventType = "board-updated"
	EventBoardShuffled EventType = "board-shuffled"
	EventTileCompleted EventType = "tile-completed"

	// History events
	EventDropRecorded  EventType = "drop-recorded"
	EventDeathRecorded EventType = "death-recorded"
	EventRankRecorded  EventType = "rank-recorded"
)

// Event is a change notification pushed to live subscribers
type Event struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload,omitempty"`
}

// Publisher delivers events to live subscribers
type Publisher interface {
	Publish(topic Topic, event Event)
}

// NopPublisher discards events
type NopPublisher struct{}

// Publish does nothing
func (NopPublisher) Publish(Topic, Event) {}
