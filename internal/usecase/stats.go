package usecase

import (
	"context"
	"fmt"

	"github.com/ElPacho21/ecommerce-questions-microservice/internal/core/port"
)

// Statistics is the aggregate snapshot served by the stats endpoint. Disabled
// questions count toward totals and per-article figures; only ActiveQuestions
// excludes them.
type Statistics struct {
	TotalQuestions    int64
	TotalAnswers      int64
	ActiveQuestions   int64
	DisabledQuestions int64
	MostAskedArticle  *string
	ByArticle         []port.ArticleCount
}

// Statistics aggregates question counts across the whole store. The snapshot
// is computed per call; nothing is cached.
func (s *QuestionService) Statistics(ctx context.Context) (*Statistics, error) {
	total, err := s.questions.Count(ctx, port.CountAll)
	if err != nil {
		return nil, fmt.Errorf("count questions: %w", err)
	}

	active, err := s.questions.Count(ctx, port.CountEnabled)
	if err != nil {
		return nil, fmt.Errorf("count active questions: %w", err)
	}

	answered, err := s.questions.Count(ctx, port.CountAnswered)
	if err != nil {
		return nil, fmt.Errorf("count answered questions: %w", err)
	}

	byArticle, err := s.questions.AggregateCountByArticle(ctx)
	if err != nil {
		return nil, fmt.Errorf("aggregate questions by article: %w", err)
	}

	stats := &Statistics{
		TotalQuestions:    total,
		TotalAnswers:      answered,
		ActiveQuestions:   active,
		DisabledQuestions: total - active,
		ByArticle:         byArticle,
	}

	if len(byArticle) > 0 {
		stats.MostAskedArticle = &byArticle[0].ArticleID
	}

	return stats, nil
}
