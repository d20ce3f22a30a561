package events

import (
	"encoding/json"

	"github.com/rs/zerolog"
)

// LogSink writes every event as a structured log line.
func LogSink(l *zerolog.Logger) Handler {
	return func(event *Event) error {
		l.Info().
			Str("kind", "event").
			Str("type", event.Type).
			RawJSON("payload", json.RawMessage(event.Payload)).
			Time("at", event.CreatedAt).
			Msg("event.published")
		return nil
	}
}
