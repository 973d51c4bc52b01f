package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	uuid "github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ElPacho21/ecommerce-questions-microservice/internal/core/domain"
	"github.com/ElPacho21/ecommerce-questions-microservice/internal/core/port"
	"github.com/ElPacho21/ecommerce-questions-microservice/internal/repository"
)

var (
	// ErrQuestionNotFound indicates the question does not exist or is disabled.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrArticleNotFound indicates the referenced article does not exist or is disabled upstream.
	ErrArticleNotFound = errors.New("article not found or disabled")
	// ErrForbidden indicates the caller lacks the rights for the operation.
	ErrForbidden = errors.New("operation not allowed for caller")
	// ErrEmptyQuestion indicates a missing or blank question text.
	ErrEmptyQuestion = errors.New("question text required")
	// ErrEmptyAnswer indicates a missing or blank answer text.
	ErrEmptyAnswer = errors.New("answer text required")
	// ErrMissingArticle indicates a create request without an article id.
	ErrMissingArticle = errors.New("article id required")
)

// QuestionService coordinates the question lifecycle: creation, answering,
// editing and soft deletion, plus the authorization rules around each.
type QuestionService struct {
	questions port.QuestionRepository
	catalog   port.CatalogGateway
	events    port.EventPublisher
	logger    *zap.Logger
	now       func() time.Time
}

// NewQuestionService constructs the lifecycle service.
func NewQuestionService(
	questions port.QuestionRepository,
	catalog port.CatalogGateway,
	events port.EventPublisher,
	logger *zap.Logger,
) *QuestionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QuestionService{
		questions: questions,
		catalog:   catalog,
		events:    events,
		logger:    logger,
		now:       time.Now,
	}
}

// CreateQuestionInput carries a new question request.
type CreateQuestionInput struct {
	ArticleID   string
	Question    string
	BearerToken string
}

// ListQuestions returns every question that has not been soft-deleted.
func (s *QuestionService) ListQuestions(ctx context.Context) ([]domain.Question, error) {
	questions, err := s.questions.FindAllEnabled(ctx)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	return questions, nil
}

// ListByUser returns the questions asked by the given user. Callers may only
// list their own questions unless they are administrators.
func (s *QuestionService) ListByUser(ctx context.Context, caller domain.Identity, userID string) ([]domain.Question, error) {
	if userID != caller.ID && !caller.IsAdmin() {
		return nil, ErrForbidden
	}

	questions, err := s.questions.FindByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list questions by user: %w", err)
	}
	return questions, nil
}

// ListByArticle returns the questions attached to an article after verifying
// the article exists and is enabled upstream.
func (s *QuestionService) ListByArticle(ctx context.Context, articleID, bearerToken string) ([]domain.Question, error) {
	if err := s.checkArticle(ctx, articleID, bearerToken); err != nil {
		return nil, err
	}

	questions, err := s.questions.FindByArticle(ctx, articleID)
	if err != nil {
		return nil, fmt.Errorf("list questions by article: %w", err)
	}
	return questions, nil
}

// GetQuestion returns a single enabled question.
func (s *QuestionService) GetQuestion(ctx context.Context, id string) (*domain.Question, error) {
	question, err := s.questions.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrQuestionNotFound
		}
		return nil, fmt.Errorf("get question: %w", err)
	}
	return question, nil
}

// CreateQuestion validates the payload against the catalog and persists the
// question, then publishes a question_created event on a best-effort basis.
func (s *QuestionService) CreateQuestion(ctx context.Context, caller domain.Identity, input CreateQuestionInput) (*domain.Question, error) {
	if strings.TrimSpace(input.ArticleID) == "" {
		return nil, ErrMissingArticle
	}
	if strings.TrimSpace(input.Question) == "" {
		return nil, ErrEmptyQuestion
	}

	if err := s.checkArticle(ctx, input.ArticleID, input.BearerToken); err != nil {
		return nil, err
	}

	question := domain.Question{
		ID:        uuid.NewString(),
		ArticleID: input.ArticleID,
		UserID:    caller.ID,
		Question:  strings.TrimSpace(input.Question),
		CreatedAt: s.now().UTC(),
		Enabled:   true,
	}

	stored, err := s.questions.Insert(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("create question: %w", err)
	}

	s.publishCreated(ctx, stored)

	return stored, nil
}

// AnswerQuestion records an answer on a question. Only administrators reach
// this path; the answering admin is recorded as answeredBy. Publishes a
// question_answered event on a best-effort basis.
func (s *QuestionService) AnswerQuestion(ctx context.Context, caller domain.Identity, id, answer string) (*domain.Question, error) {
	if strings.TrimSpace(answer) == "" {
		return nil, ErrEmptyAnswer
	}

	if _, err := s.GetQuestion(ctx, id); err != nil {
		return nil, err
	}

	trimmed := strings.TrimSpace(answer)
	answeredAt := s.now().UTC()

	updated, err := s.questions.Update(ctx, id, port.QuestionUpdate{
		Answer:     &trimmed,
		AnsweredBy: &caller.ID,
		AnsweredAt: &answeredAt,
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrQuestionNotFound
		}
		return nil, fmt.Errorf("answer question: %w", err)
	}

	s.publishAnswered(ctx, updated, caller.ID)

	return updated, nil
}

// DeleteAnswer clears the answer from a question. Only the administrator who
// wrote the answer may remove it.
func (s *QuestionService) DeleteAnswer(ctx context.Context, caller domain.Identity, id string) (*domain.Question, error) {
	question, err := s.GetQuestion(ctx, id)
	if err != nil {
		return nil, err
	}

	if question.AnsweredBy == nil || *question.AnsweredBy != caller.ID {
		return nil, ErrForbidden
	}

	updated, err := s.questions.Update(ctx, id, port.QuestionUpdate{ClearAnswer: true})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrQuestionNotFound
		}
		return nil, fmt.Errorf("delete answer: %w", err)
	}

	return updated, nil
}

// UpdateQuestion edits the question text. Only the author may edit, and the
// admin role grants no override here.
func (s *QuestionService) UpdateQuestion(ctx context.Context, caller domain.Identity, id, text string) (*domain.Question, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyQuestion
	}

	question, err := s.GetQuestion(ctx, id)
	if err != nil {
		return nil, err
	}

	if !question.IsAuthor(caller.ID) {
		return nil, ErrForbidden
	}

	trimmed := strings.TrimSpace(text)
	updated, err := s.questions.Update(ctx, id, port.QuestionUpdate{Question: &trimmed})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrQuestionNotFound
		}
		return nil, fmt.Errorf("update question: %w", err)
	}

	return updated, nil
}

// DeleteQuestion soft-deletes a question. The author and administrators may
// delete; the record is disabled, never removed.
func (s *QuestionService) DeleteQuestion(ctx context.Context, caller domain.Identity, id string) error {
	question, err := s.GetQuestion(ctx, id)
	if err != nil {
		return err
	}

	if !question.IsAuthor(caller.ID) && !caller.IsAdmin() {
		return ErrForbidden
	}

	disabled := false
	if _, err := s.questions.Update(ctx, id, port.QuestionUpdate{Enabled: &disabled}); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrQuestionNotFound
		}
		return fmt.Errorf("delete question: %w", err)
	}

	s.logger.Info("question soft-deleted",
		zap.String("question_id", id),
		zap.String("deleted_by", caller.ID),
	)

	return nil
}

// DisableByArticle soft-deletes every question attached to an article. Driven
// by catalog deletion events, so it takes no caller identity.
func (s *QuestionService) DisableByArticle(ctx context.Context, articleID string) (int64, error) {
	count, err := s.questions.SoftDeleteByArticle(ctx, articleID)
	if err != nil {
		return 0, fmt.Errorf("disable questions by article: %w", err)
	}
	return count, nil
}

// checkArticle verifies the article exists and is enabled upstream. Both a
// missing and a disabled article map to ErrArticleNotFound so callers cannot
// distinguish deleted articles from hidden ones.
func (s *QuestionService) checkArticle(ctx context.Context, articleID, bearerToken string) error {
	article, err := s.catalog.GetArticle(ctx, articleID, bearerToken)
	if err != nil {
		return fmt.Errorf("verify article: %w", err)
	}

	if article == nil || !article.Enabled {
		return ErrArticleNotFound
	}

	return nil
}

// Publish failures are logged and swallowed: the mutation already committed
// and stats are advisory.
func (s *QuestionService) publishCreated(ctx context.Context, question *domain.Question) {
	event := domain.StatsEvent{
		ArticleID: question.ArticleID,
		UserID:    question.UserID,
		Timestamp: s.now().UTC(),
	}
	if err := s.events.PublishQuestionCreated(ctx, event); err != nil {
		s.logger.Warn("failed to publish question_created event",
			zap.String("question_id", question.ID),
			zap.Error(err),
		)
	}
}

func (s *QuestionService) publishAnswered(ctx context.Context, question *domain.Question, answeredBy string) {
	event := domain.StatsEvent{
		ArticleID: question.ArticleID,
		UserID:    answeredBy,
		Timestamp: s.now().UTC(),
	}
	if err := s.events.PublishQuestionAnswered(ctx, event); err != nil {
		s.logger.Warn("failed to publish question_answered event",
			zap.String("question_id", question.ID),
			zap.Error(err),
		)
	}
}
