package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ElPacho21/ecommerce-questions-microservice/internal/core/domain"
	"github.com/ElPacho21/ecommerce-questions-microservice/internal/core/port"
	"github.com/ElPacho21/ecommerce-questions-microservice/internal/repository"
)

const questionsTable = "qna.questions"

var questionColumns = []string{
	"id",
	"article_id",
	"user_id",
	"question",
	"answer",
	"answered_by",
	"answered_at",
	"created_at",
	"enabled",
}

type pgExecutor interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// QuestionRepository implements port.QuestionRepository backed by PostgreSQL.
type QuestionRepository struct {
	pool    *pgxpool.Pool
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewQuestionRepository constructs a repository backed by any executor that satisfies pgExecutor.
func NewQuestionRepository(exec pgExecutor) *QuestionRepository {
	repo := &QuestionRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
	if pool, ok := exec.(*pgxpool.Pool); ok {
		repo.pool = pool
	}
	return repo
}

func (r *QuestionRepository) selectQuestions() squirrel.SelectBuilder {
	return r.builder.Select(questionColumns...).From(questionsTable)
}

// FindAllEnabled returns every question that has not been soft-deleted,
// newest first.
func (r *QuestionRepository) FindAllEnabled(ctx context.Context) ([]domain.Question, error) {
	stmt, args, err := r.selectQuestions().
		Where(squirrel.Eq{"enabled": true}).
		OrderBy("created_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select questions sql: %w", err)
	}

	return r.queryQuestions(ctx, stmt, args)
}

// FindByID returns the enabled question with the given id.
func (r *QuestionRepository) FindByID(ctx context.Context, id string) (*domain.Question, error) {
	stmt, args, err := r.selectQuestions().
		Where(squirrel.Eq{"id": id, "enabled": true}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select question by id sql: %w", err)
	}

	row := r.exec.QueryRow(ctx, stmt, args...)

	question, err := scanQuestionRow(func(dest ...any) error { return row.Scan(dest...) })
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan question by id: %w", err)
	}

	return question, nil
}

// FindByArticle returns the enabled questions attached to an article, newest
// first.
func (r *QuestionRepository) FindByArticle(ctx context.Context, articleID string) ([]domain.Question, error) {
	stmt, args, err := r.selectQuestions().
		Where(squirrel.Eq{"article_id": articleID, "enabled": true}).
		OrderBy("created_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select questions by article sql: %w", err)
	}

	return r.queryQuestions(ctx, stmt, args)
}

// FindByUser returns the enabled questions asked by a user, newest first.
func (r *QuestionRepository) FindByUser(ctx context.Context, userID string) ([]domain.Question, error) {
	stmt, args, err := r.selectQuestions().
		Where(squirrel.Eq{"user_id": userID, "enabled": true}).
		OrderBy("created_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select questions by user sql: %w", err)
	}

	return r.queryQuestions(ctx, stmt, args)
}

// Count returns the number of questions matching the filter.
func (r *QuestionRepository) Count(ctx context.Context, filter port.CountFilter) (int64, error) {
	query := r.builder.Select("COUNT(*)").From(questionsTable)

	switch filter {
	case port.CountAll:
	case port.CountEnabled:
		query = query.Where(squirrel.Eq{"enabled": true})
	case port.CountAnswered:
		query = query.Where(squirrel.NotEq{"answer": nil})
	default:
		return 0, fmt.Errorf("unknown count filter %d", filter)
	}

	stmt, args, err := query.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count questions sql: %w", err)
	}

	var count int64
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count questions: %w", err)
	}

	return count, nil
}

// AggregateCountByArticle returns per-article question counts ordered by count
// descending. Disabled questions still count toward their article.
func (r *QuestionRepository) AggregateCountByArticle(ctx context.Context) ([]port.ArticleCount, error) {
	stmt, args, err := r.builder.Select("article_id", "COUNT(*) AS total").
		From(questionsTable).
		GroupBy("article_id").
		OrderBy("total DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build aggregate questions sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("aggregate questions by article: %w", err)
	}
	defer rows.Close()

	var counts []port.ArticleCount
	for rows.Next() {
		var count port.ArticleCount
		if err := rows.Scan(&count.ArticleID, &count.Total); err != nil {
			return nil, fmt.Errorf("scan article count: %w", err)
		}
		counts = append(counts, count)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate article counts: %w", err)
	}

	return counts, nil
}

// Insert persists a new question and returns the stored record.
func (r *QuestionRepository) Insert(ctx context.Context, question domain.Question) (*domain.Question, error) {
	if strings.TrimSpace(question.ArticleID) == "" ||
		strings.TrimSpace(question.UserID) == "" ||
		strings.TrimSpace(question.Question) == "" {
		return nil, repository.ErrMissingFields
	}

	stmt, args, err := r.builder.Insert(questionsTable).
		Columns(questionColumns...).
		Values(
			question.ID,
			question.ArticleID,
			question.UserID,
			question.Question,
			question.Answer,
			question.AnsweredBy,
			question.AnsweredAt,
			question.CreatedAt,
			question.Enabled,
		).
		Suffix("RETURNING " + strings.Join(questionColumns, ", ")).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build insert question sql: %w", err)
	}

	row := r.exec.QueryRow(ctx, stmt, args...)

	stored, err := scanQuestionRow(func(dest ...any) error { return row.Scan(dest...) })
	if err != nil {
		return nil, fmt.Errorf("insert question: %w", err)
	}

	return stored, nil
}

// Update merges the supplied fields into the record, enabled or not, and
// returns the updated row.
func (r *QuestionRepository) Update(ctx context.Context, id string, update port.QuestionUpdate) (*domain.Question, error) {
	query := r.builder.Update(questionsTable).Where(squirrel.Eq{"id": id})

	changed := false
	if update.Question != nil {
		query = query.Set("question", *update.Question)
		changed = true
	}
	if update.ClearAnswer {
		query = query.Set("answer", nil).Set("answered_by", nil).Set("answered_at", nil)
		changed = true
	} else {
		if update.Answer != nil {
			query = query.Set("answer", *update.Answer)
			changed = true
		}
		if update.AnsweredBy != nil {
			query = query.Set("answered_by", *update.AnsweredBy)
			changed = true
		}
		if update.AnsweredAt != nil {
			query = query.Set("answered_at", *update.AnsweredAt)
			changed = true
		}
	}
	if update.Enabled != nil {
		query = query.Set("enabled", *update.Enabled)
		changed = true
	}

	if !changed {
		return r.findAnyByID(ctx, id)
	}

	stmt, args, err := query.
		Suffix("RETURNING " + strings.Join(questionColumns, ", ")).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build update question sql: %w", err)
	}

	row := r.exec.QueryRow(ctx, stmt, args...)

	question, err := scanQuestionRow(func(dest ...any) error { return row.Scan(dest...) })
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("update question: %w", err)
	}

	return question, nil
}

// SoftDeleteByArticle disables every question referencing the article.
func (r *QuestionRepository) SoftDeleteByArticle(ctx context.Context, articleID string) (int64, error) {
	stmt, args, err := r.builder.Update(questionsTable).
		Set("enabled", false).
		Where(squirrel.Eq{"article_id": articleID, "enabled": true}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build disable questions sql: %w", err)
	}

	tag, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return 0, fmt.Errorf("disable questions by article: %w", err)
	}

	return tag.RowsAffected(), nil
}

// findAnyByID loads a row regardless of its enabled flag. Updates resolve
// disabled rows too, so the no-op path must as well.
func (r *QuestionRepository) findAnyByID(ctx context.Context, id string) (*domain.Question, error) {
	stmt, args, err := r.selectQuestions().
		Where(squirrel.Eq{"id": id}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select question sql: %w", err)
	}

	row := r.exec.QueryRow(ctx, stmt, args...)

	question, err := scanQuestionRow(func(dest ...any) error { return row.Scan(dest...) })
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan question: %w", err)
	}

	return question, nil
}

func (r *QuestionRepository) queryQuestions(ctx context.Context, stmt string, args []any) ([]domain.Question, error) {
	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query questions: %w", err)
	}
	defer rows.Close()

	var questions []domain.Question
	for rows.Next() {
		question, err := scanQuestionRow(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan question row: %w", err)
		}
		questions = append(questions, *question)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate question rows: %w", err)
	}

	return questions, nil
}

func scanQuestionRow(scan func(dest ...any) error) (*domain.Question, error) {
	var (
		question   domain.Question
		answer     sql.NullString
		answeredBy sql.NullString
		answeredAt sql.NullTime
	)

	if err := scan(
		&question.ID,
		&question.ArticleID,
		&question.UserID,
		&question.Question,
		&answer,
		&answeredBy,
		&answeredAt,
		&question.CreatedAt,
		&question.Enabled,
	); err != nil {
		return nil, err
	}

	if answer.Valid {
		question.Answer = &answer.String
	}
	if answeredBy.Valid {
		question.AnsweredBy = &answeredBy.String
	}
	if answeredAt.Valid {
		at := answeredAt.Time
		question.AnsweredAt = &at
	}

	return &question, nil
}

var _ port.QuestionRepository = (*QuestionRepository)(nil)
