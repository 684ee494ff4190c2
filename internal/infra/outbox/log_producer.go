package outbox

import (
	"context"
	"log/slog"
)

// LogProducer writes events to the log; used when no broker is configured.
type LogProducer struct {
	Logger *slog.Logger
}

func (p LogProducer) Publish(_ context.Context, topic string, key string, payload []byte, _ map[string]string) error {
	if p.Logger != nil {
		p.Logger.Debug("event published", "topic", topic, "key", key, "bytes", len(payload))
	}
	return nil
}
