package usecase

import (
	"context"

	"github.com/fastygo/taskboard/domain"
)

// EventPublisher abstracts the event bus so use cases stay transport-agnostic.
type EventPublisher interface {
	Publish(ctx context.Context, events ...domain.Event)
}

// NopPublisher discards events.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, ...domain.Event) {}
