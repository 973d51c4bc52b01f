package domain

import "time"

// Event types published to the stats exchange.
const (
	EventQuestionCreated  = "question_created"
	EventQuestionAnswered = "question_answered"
)

// StatsEvent notifies downstream consumers about question activity.
type StatsEvent struct {
	EventType string    `json:"eventType"`
	ArticleID string    `json:"articleId"`
	UserID    string    `json:"userId"`
	Timestamp time.Time `json:"timestamp"`
}

// ArticleDeletedEvent is broadcast by the catalog service when an article is
// removed. Questions referencing the article are disabled in response.
type ArticleDeletedEvent struct {
	ArticleID string `json:"articleId"`
}

// TokenInvalidatedEvent is broadcast by the auth service when a session ends.
// Message carries the raw header value, typically "Bearer <token>".
type TokenInvalidatedEvent struct {
	Message string `json:"message"`
}

// Article is the subset of the catalog article contract this service reads.
type Article struct {
	ID      string `json:"id"`
	Enabled bool   `json:"enabled"`
}
