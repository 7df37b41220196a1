package notifications

import (
	"context"
	"log"
)

// LogSink writes notifications to the process log. Used when no broker is
// configured, typically in development.
type LogSink struct{}

func NewLogSink() *LogSink {
	return &LogSink{}
}

func (s *LogSink) Send(_ context.Context, userID int, kind, title, message, link string) error {
	log.Printf("notification user=%d kind=%s title=%q message=%q link=%s", userID, kind, title, message, link)
	return nil
}
