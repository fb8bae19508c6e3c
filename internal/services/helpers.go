package services

import (
	"context"
	"strings"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// EventPublisher broadcasts group scoped events to connected clients.
type EventPublisher interface {
	PublishGroupEvent(groupID, event string, data any)
}

func publishGroupEvent(publisher EventPublisher, groupID, event string, data any) {
	if publisher == nil {
		return
	}
	publisher.PublishGroupEvent(groupID, event, data)
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func normaliseLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}

func trimmedPtr(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	return &trimmed
}
