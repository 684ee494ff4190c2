package events

import "time"

// DomainEvent is a fact recorded by the application and relayed through the outbox.
type DomainEvent interface {
	EventName() string
	AggregateID() string
	OccurredAt() time.Time
}
