package rabbit

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ElPacho21/ecommerce-questions-microservice/internal/core/domain"
	"github.com/ElPacho21/ecommerce-questions-microservice/internal/core/port"
)

// EventPublisher implements port.EventPublisher on the durable stats exchange.
type EventPublisher struct {
	client *Client
	logger *zap.Logger
}

// NewEventPublisher constructs a RabbitMQ-backed event publisher.
func NewEventPublisher(client *Client, logger *zap.Logger) *EventPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventPublisher{client: client, logger: logger}
}

// PublishQuestionCreated publishes a question_created stats event.
func (p *EventPublisher) PublishQuestionCreated(ctx context.Context, event domain.StatsEvent) error {
	event.EventType = domain.EventQuestionCreated
	return p.publish(ctx, event)
}

// PublishQuestionAnswered publishes a question_answered stats event.
func (p *EventPublisher) PublishQuestionAnswered(ctx context.Context, event domain.StatsEvent) error {
	event.EventType = domain.EventQuestionAnswered
	return p.publish(ctx, event)
}

func (p *EventPublisher) publish(ctx context.Context, event domain.StatsEvent) error {
	if err := p.client.Publish(ctx, StatsExchange, true, event); err != nil {
		return fmt.Errorf("publish %s event: %w", event.EventType, err)
	}

	p.logger.Debug("stats event published",
		zap.String("event_type", event.EventType),
		zap.String("article_id", event.ArticleID),
	)

	return nil
}

var _ port.EventPublisher = (*EventPublisher)(nil)
