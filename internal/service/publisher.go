package service

import (
	"context"

	"github.com/cypherlabdev/odds-pipeline-service/internal/models"
)

//go:generate mockgen -destination=../mocks/mock_publisher.go -package=mocks . EventPublisher

// EventPublisher emits pipeline events for downstream consumers
type EventPublisher interface {
	Publish(ctx context.Context, event *models.PipelineEvent) error
}

// NopPublisher drops every event; used when the event bus is disabled
type NopPublisher struct{}

// Publish implements EventPublisher
func (NopPublisher) Publish(context.Context, *models.PipelineEvent) error { return nil }
