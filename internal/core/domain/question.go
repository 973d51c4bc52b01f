package domain

import "time"

// Question is a user question posted against a catalog article. Answer,
// AnsweredBy and AnsweredAt are set and cleared together: either all three are
// nil or all three are populated.
type Question struct {
	ID         string
	ArticleID  string
	UserID     string
	Question   string
	Answer     *string
	AnsweredBy *string
	AnsweredAt *time.Time
	CreatedAt  time.Time
	Enabled    bool
}

// IsAnswered reports whether the question currently carries an answer.
func (q Question) IsAnswered() bool {
	return q.Answer != nil
}

// IsAuthor reports whether the given user created the question.
func (q Question) IsAuthor(userID string) bool {
	return q.UserID == userID
}
