package port

import (
	"context"
	"time"

	"github.com/ElPacho21/ecommerce-questions-microservice/internal/core/domain"
)

// IdentityCache stores verified bearer identities keyed by the raw token.
// Get returns repository.ErrNotFound on a miss.
type IdentityCache interface {
	Get(ctx context.Context, token string) (*domain.Identity, error)
	Set(ctx context.Context, token string, identity domain.Identity, ttl time.Duration) error
	Delete(ctx context.Context, token string) error
}
