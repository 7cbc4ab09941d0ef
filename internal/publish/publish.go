package publish

import (
	"context"
	"time"
)

// Message is the JSON payload published for one committed event.
type Message struct {
	EventID           string    `json:"event_id"`
	Kind              string    `json:"kind"`
	TargetType        string    `json:"target_type"`
	Agent             string    `json:"agent"`
	Objects           []string  `json:"objects"`
	LineageProgenitor string    `json:"lineage_progenitor,omitempty"`
	StartedAt         time.Time `json:"started_at"`
	EndedAt           time.Time `json:"ended_at"`
}

// Publisher delivers event messages.
type Publisher interface {
	Publish(ctx context.Context, msg Message) error
	Close() error
}

// Noop drops every message.
type Noop struct{}

func (Noop) Publish(ctx context.Context, msg Message) error { return nil }

func (Noop) Close() error { return nil }
