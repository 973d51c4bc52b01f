package repository

import "errors"

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("repository: not found")
	// ErrMissingFields indicates a write was attempted without the required
	// question fields (articleId, question text, userId).
	ErrMissingFields = errors.New("repository: missing required fields")
)
