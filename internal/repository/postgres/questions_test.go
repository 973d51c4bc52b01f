package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v2"

	"github.com/ElPacho21/ecommerce-questions-microservice/internal/core/domain"
	"github.com/ElPacho21/ecommerce-questions-microservice/internal/core/port"
	"github.com/ElPacho21/ecommerce-questions-microservice/internal/repository"
)

func questionRows() *pgxmock.Rows {
	return pgxmock.NewRows([]string{
		"id", "article_id", "user_id", "question",
		"answer", "answered_by", "answered_at", "created_at", "enabled",
	})
}

func TestQuestionRepository_FindByID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewQuestionRepository(mock)

	createdAt := time.Now().UTC()
	rows := questionRows().
		AddRow("q1", "art-1", "u1", "Does it fit?", nil, nil, nil, createdAt, true)

	mock.ExpectQuery(`SELECT .+ FROM qna\.questions WHERE enabled = \$1 AND id = \$2`).
		WithArgs(true, "q1").
		WillReturnRows(rows)

	question, err := repo.FindByID(context.Background(), "q1")
	if err != nil {
		t.Fatalf("FindByID returned error: %v", err)
	}

	if question.ID != "q1" || question.ArticleID != "art-1" || question.Answer != nil {
		t.Fatalf("unexpected question %+v", question)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestQuestionRepository_FindByIDNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewQuestionRepository(mock)

	mock.ExpectQuery(`SELECT .+ FROM qna\.questions`).
		WithArgs(true, "missing").
		WillReturnRows(questionRows())

	_, err = repo.FindByID(context.Background(), "missing")
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestQuestionRepository_InsertValidatesRequiredFields(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewQuestionRepository(mock)

	cases := []domain.Question{
		{ArticleID: "", UserID: "u1", Question: "text"},
		{ArticleID: "art-1", UserID: "", Question: "text"},
		{ArticleID: "art-1", UserID: "u1", Question: "   "},
	}

	for _, question := range cases {
		if _, err := repo.Insert(context.Background(), question); !errors.Is(err, repository.ErrMissingFields) {
			t.Fatalf("expected ErrMissingFields for %+v, got %v", question, err)
		}
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestQuestionRepository_Insert(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewQuestionRepository(mock)

	createdAt := time.Now().UTC()
	question := domain.Question{
		ID:        "q1",
		ArticleID: "art-1",
		UserID:    "u1",
		Question:  "Does it fit?",
		CreatedAt: createdAt,
		Enabled:   true,
	}

	mock.ExpectQuery(`INSERT INTO qna\.questions`).
		WithArgs("q1", "art-1", "u1", "Does it fit?", nil, nil, nil, createdAt, true).
		WillReturnRows(questionRows().
			AddRow("q1", "art-1", "u1", "Does it fit?", nil, nil, nil, createdAt, true))

	stored, err := repo.Insert(context.Background(), question)
	if err != nil {
		t.Fatalf("Insert returned error: %v", err)
	}
	if stored.ID != "q1" || !stored.Enabled {
		t.Fatalf("unexpected stored question %+v", stored)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestQuestionRepository_UpdateSetsAnswer(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewQuestionRepository(mock)

	answer := "Yes, it fits."
	answeredBy := "admin-1"
	answeredAt := time.Now().UTC()
	createdAt := answeredAt.Add(-time.Hour)

	mock.ExpectQuery(`UPDATE qna\.questions SET answer = \$1, answered_by = \$2, answered_at = \$3 WHERE id = \$4`).
		WithArgs(answer, answeredBy, answeredAt, "q1").
		WillReturnRows(questionRows().
			AddRow("q1", "art-1", "u1", "Does it fit?", answer, answeredBy, answeredAt, createdAt, true))

	updated, err := repo.Update(context.Background(), "q1", port.QuestionUpdate{
		Answer:     &answer,
		AnsweredBy: &answeredBy,
		AnsweredAt: &answeredAt,
	})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}

	if updated.Answer == nil || *updated.Answer != answer {
		t.Fatalf("expected answer set, got %+v", updated)
	}
	if updated.AnsweredBy == nil || *updated.AnsweredBy != answeredBy {
		t.Fatalf("expected answeredBy set, got %+v", updated)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestQuestionRepository_UpdateClearAnswer(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewQuestionRepository(mock)

	createdAt := time.Now().UTC()

	mock.ExpectQuery(`UPDATE qna\.questions SET answer = \$1, answered_by = \$2, answered_at = \$3 WHERE id = \$4`).
		WithArgs(nil, nil, nil, "q1").
		WillReturnRows(questionRows().
			AddRow("q1", "art-1", "u1", "Does it fit?", nil, nil, nil, createdAt, true))

	updated, err := repo.Update(context.Background(), "q1", port.QuestionUpdate{ClearAnswer: true})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}

	if updated.Answer != nil || updated.AnsweredBy != nil || updated.AnsweredAt != nil {
		t.Fatalf("expected answer fields cleared, got %+v", updated)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestQuestionRepository_UpdateNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewQuestionRepository(mock)

	text := "edited"
	mock.ExpectQuery(`UPDATE qna\.questions`).
		WithArgs(text, "missing").
		WillReturnRows(questionRows())

	_, err = repo.Update(context.Background(), "missing", port.QuestionUpdate{Question: &text})
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestQuestionRepository_Count(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewQuestionRepository(mock)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM qna\.questions WHERE enabled = \$1`).
		WithArgs(true).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(7)))

	count, err := repo.Count(context.Background(), port.CountEnabled)
	if err != nil {
		t.Fatalf("Count returned error: %v", err)
	}
	if count != 7 {
		t.Fatalf("expected count 7, got %d", count)
	}
}

func TestQuestionRepository_CountAnswered(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewQuestionRepository(mock)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM qna\.questions WHERE answer IS NOT NULL`).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(3)))

	count, err := repo.Count(context.Background(), port.CountAnswered)
	if err != nil {
		t.Fatalf("Count returned error: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected count 3, got %d", count)
	}
}

func TestQuestionRepository_AggregateCountByArticle(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewQuestionRepository(mock)

	rows := pgxmock.NewRows([]string{"article_id", "total"}).
		AddRow("art-2", int64(5)).
		AddRow("art-1", int64(2))

	mock.ExpectQuery(`SELECT article_id, COUNT\(\*\) AS total FROM qna\.questions GROUP BY article_id ORDER BY total DESC`).
		WillReturnRows(rows)

	counts, err := repo.AggregateCountByArticle(context.Background())
	if err != nil {
		t.Fatalf("AggregateCountByArticle returned error: %v", err)
	}

	if len(counts) != 2 || counts[0].ArticleID != "art-2" || counts[0].Total != 5 {
		t.Fatalf("unexpected counts %+v", counts)
	}
}

func TestQuestionRepository_SoftDeleteByArticle(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewQuestionRepository(mock)

	mock.ExpectExec(`UPDATE qna\.questions SET enabled = \$1 WHERE article_id = \$2 AND enabled = \$3`).
		WithArgs(false, "art-1", true).
		WillReturnResult(pgxmock.NewResult("UPDATE", 4))

	count, err := repo.SoftDeleteByArticle(context.Background(), "art-1")
	if err != nil {
		t.Fatalf("SoftDeleteByArticle returned error: %v", err)
	}
	if count != 4 {
		t.Fatalf("expected 4 rows disabled, got %d", count)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
