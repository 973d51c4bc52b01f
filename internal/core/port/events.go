package port

import (
	"context"

	"github.com/ElPacho21/ecommerce-questions-microservice/internal/core/domain"
)

// EventPublisher publishes question lifecycle events to the message bus.
// Delivery is fire-and-forget; a publish failure never rolls back the
// mutation that triggered it.
type EventPublisher interface {
	PublishQuestionCreated(ctx context.Context, event domain.StatsEvent) error
	PublishQuestionAnswered(ctx context.Context, event domain.StatsEvent) error
}
