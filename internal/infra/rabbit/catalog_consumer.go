package rabbit

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/ElPacho21/ecommerce-questions-microservice/internal/core/domain"
)

// QuestionDisabler is the slice of the question service the catalog consumer
// needs: the cascading soft-delete.
type QuestionDisabler interface {
	DisableByArticle(ctx context.Context, articleID string) (int64, error)
}

// CatalogConsumer disables every question belonging to an article the catalog
// service has deleted.
type CatalogConsumer struct {
	questions QuestionDisabler
	logger    *zap.Logger
}

// NewCatalogConsumer constructs the article deletion consumer.
func NewCatalogConsumer(questions QuestionDisabler, log *zap.Logger) *CatalogConsumer {
	if log == nil {
		log = zap.NewNop()
	}
	return &CatalogConsumer{questions: questions, logger: log}
}

// HandleMessage decodes an article deletion event and cascades the
// soft-delete. Disabling is idempotent, so redelivered events are harmless.
func (c *CatalogConsumer) HandleMessage(ctx context.Context, body []byte) error {
	var event domain.ArticleDeletedEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("decode article deletion event: %w", err)
	}

	if event.ArticleID == "" {
		return nil
	}

	count, err := c.questions.DisableByArticle(ctx, event.ArticleID)
	if err != nil {
		return fmt.Errorf("disable questions for article %s: %w", event.ArticleID, err)
	}

	c.logger.Info("questions disabled after article deletion",
		zap.String("article_id", event.ArticleID),
		zap.Int64("count", count),
	)

	return nil
}
