package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ElPacho21/ecommerce-questions-microservice/internal/core/domain"
	"github.com/ElPacho21/ecommerce-questions-microservice/internal/usecase"
)

// ErrorResponse represents a generic error payload with trace ID for debugging.
type ErrorResponse struct {
	Error   string `json:"error"`
	TraceID string `json:"trace_id,omitempty"`
}

// NewErrorResponse creates an error response with trace ID from context
func NewErrorResponse(c *gin.Context, errorMsg string) ErrorResponse {
	traceID, _ := c.Get("trace_id")
	traceIDStr, _ := traceID.(string)

	return ErrorResponse{
		Error:   errorMsg,
		TraceID: traceIDStr,
	}
}

// MessageResponse represents a simple message payload.
type MessageResponse struct {
	Message string `json:"message"`
}

// QuestionPayload is the API view of a question record.
type QuestionPayload struct {
	ID         string     `json:"id"`
	ArticleID  string     `json:"articleId"`
	UserID     string     `json:"userId"`
	Question   string     `json:"question"`
	Answer     *string    `json:"answer"`
	AnsweredBy *string    `json:"answeredBy"`
	AnsweredAt *time.Time `json:"answeredAt"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// NewQuestionPayload converts a domain question to its API shape.
func NewQuestionPayload(question domain.Question) QuestionPayload {
	return QuestionPayload{
		ID:         question.ID,
		ArticleID:  question.ArticleID,
		UserID:     question.UserID,
		Question:   question.Question,
		Answer:     question.Answer,
		AnsweredBy: question.AnsweredBy,
		AnsweredAt: question.AnsweredAt,
		CreatedAt:  question.CreatedAt,
	}
}

// NewQuestionPayloads converts a slice of domain questions.
func NewQuestionPayloads(questions []domain.Question) []QuestionPayload {
	payloads := make([]QuestionPayload, 0, len(questions))
	for _, question := range questions {
		payloads = append(payloads, NewQuestionPayload(question))
	}
	return payloads
}

// NewQuestionRequest defines the payload for question creation.
type NewQuestionRequest struct {
	ArticleID string `json:"articleId" binding:"required"`
	Question  string `json:"question" binding:"required"`
}

// AnswerRequest defines the payload for answering a question.
type AnswerRequest struct {
	Answer string `json:"answer" binding:"required"`
}

// UpdateQuestionRequest defines the payload for editing question text.
type UpdateQuestionRequest struct {
	Question string `json:"question" binding:"required"`
}

// ArticleCountPayload is one per-article bucket in the stats response.
type ArticleCountPayload struct {
	ArticleID string `json:"articleId"`
	Total     int64  `json:"total"`
}

// StatsResponse is the aggregate statistics payload.
type StatsResponse struct {
	TotalQuestions     int64                 `json:"totalQuestions"`
	TotalAnswers       int64                 `json:"totalAnswers"`
	ActiveQuestions    int64                 `json:"activeQuestions"`
	DisabledQuestions  int64                 `json:"disabledQuestions"`
	MostAskedArticleID *string               `json:"mostAskedArticleId"`
	ByArticle          []ArticleCountPayload `json:"byArticle"`
}

// NewStatsResponse converts the usecase statistics snapshot.
func NewStatsResponse(stats *usecase.Statistics) StatsResponse {
	byArticle := make([]ArticleCountPayload, 0, len(stats.ByArticle))
	for _, count := range stats.ByArticle {
		byArticle = append(byArticle, ArticleCountPayload{
			ArticleID: count.ArticleID,
			Total:     count.Total,
		})
	}

	return StatsResponse{
		TotalQuestions:     stats.TotalQuestions,
		TotalAnswers:       stats.TotalAnswers,
		ActiveQuestions:    stats.ActiveQuestions,
		DisabledQuestions:  stats.DisabledQuestions,
		MostAskedArticleID: stats.MostAskedArticle,
		ByArticle:          byArticle,
	}
}

// HealthResponse describes the service health payload.
type HealthResponse struct {
	Status    string    `json:"status"`
	StartedAt time.Time `json:"started_at"`
}

// ReadyResponse describes readiness probe results with dependency checks.
type ReadyResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}
