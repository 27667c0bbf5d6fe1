package events

import "context"

// Event types
const (
	EventRulesUpdated = "rules_updated"
	EventLogsUpdated  = "logs_updated"
)

// Broadcast streams
const (
	StreamRules = "events:rules"
	StreamLogs  = "events:logs"
)

type Event struct {
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload"`
}

type Publisher interface {
	Publish(ctx context.Context, stream string, event Event) error
}

type Subscriber interface {
	Subscribe(ctx context.Context, stream string, handler func(Event)) error
}
