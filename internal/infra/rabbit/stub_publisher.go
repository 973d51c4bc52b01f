package rabbit

import (
	"context"

	"go.uber.org/zap"

	"github.com/ElPacho21/ecommerce-questions-microservice/internal/core/domain"
	"github.com/ElPacho21/ecommerce-questions-microservice/internal/core/port"
)

// StubPublisher logs events instead of publishing them. Used when no broker
// is configured so the lifecycle service keeps working without a bus.
type StubPublisher struct {
	logger *zap.Logger
}

// NewStubPublisher constructs a logging-only publisher.
func NewStubPublisher(logger *zap.Logger) *StubPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StubPublisher{logger: logger}
}

func (p *StubPublisher) PublishQuestionCreated(_ context.Context, event domain.StatsEvent) error {
	p.log(domain.EventQuestionCreated, event)
	return nil
}

func (p *StubPublisher) PublishQuestionAnswered(_ context.Context, event domain.StatsEvent) error {
	p.log(domain.EventQuestionAnswered, event)
	return nil
}

func (p *StubPublisher) log(eventType string, event domain.StatsEvent) {
	p.logger.Info("event bus disabled, dropping event",
		zap.String("event_type", eventType),
		zap.String("article_id", event.ArticleID),
		zap.String("user_id", event.UserID),
	)
}

var _ port.EventPublisher = (*StubPublisher)(nil)
