package port

import (
	"context"
	"time"

	"github.com/ElPacho21/ecommerce-questions-microservice/internal/core/domain"
)

// CountFilter selects which question records a Count call considers. Disabled
// questions are tombstones, so the choice of filter is always explicit.
type CountFilter int

const (
	// CountAll counts every question, disabled ones included.
	CountAll CountFilter = iota
	// CountEnabled counts only questions that have not been soft-deleted.
	CountEnabled
	// CountAnswered counts questions carrying an answer, disabled ones included.
	CountAnswered
)

// ArticleCount pairs an article with the number of questions referencing it,
// disabled questions included.
type ArticleCount struct {
	ArticleID string
	Total     int64
}

// QuestionUpdate carries the fields a partial update may change. Nil pointers
// leave the stored value untouched. ClearAnswer resets answer, answeredBy and
// answeredAt together so the tri-state invariant cannot be broken piecemeal.
type QuestionUpdate struct {
	Question    *string
	Answer      *string
	AnsweredBy  *string
	AnsweredAt  *time.Time
	Enabled     *bool
	ClearAnswer bool
}

// QuestionRepository owns persistence of question records.
type QuestionRepository interface {
	// FindAllEnabled returns every question that has not been soft-deleted.
	FindAllEnabled(ctx context.Context) ([]domain.Question, error)
	// FindByID returns the enabled question with the given id, or
	// repository.ErrNotFound.
	FindByID(ctx context.Context, id string) (*domain.Question, error)
	FindByArticle(ctx context.Context, articleID string) ([]domain.Question, error)
	FindByUser(ctx context.Context, userID string) ([]domain.Question, error)
	Count(ctx context.Context, filter CountFilter) (int64, error)
	// AggregateCountByArticle returns per-article question counts ordered by
	// count descending. Ties resolve in store order.
	AggregateCountByArticle(ctx context.Context) ([]ArticleCount, error)
	// Insert persists a new question and returns the stored record. Missing
	// articleId, question text or userId yields repository.ErrMissingFields.
	Insert(ctx context.Context, question domain.Question) (*domain.Question, error)
	// Update merges the supplied fields into the record, whether or not it is
	// enabled, and returns the updated row or repository.ErrNotFound.
	Update(ctx context.Context, id string, update QuestionUpdate) (*domain.Question, error)
	// SoftDeleteByArticle disables every question referencing the article and
	// returns the number of rows changed. Calling it twice is a no-op.
	SoftDeleteByArticle(ctx context.Context, articleID string) (int64, error)
}
