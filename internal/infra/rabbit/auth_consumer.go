package rabbit

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/ElPacho21/ecommerce-questions-microservice/internal/core/domain"
	"github.com/ElPacho21/ecommerce-questions-microservice/internal/core/port"
	"github.com/ElPacho21/ecommerce-questions-microservice/internal/infra/logger"
)

var bearerPrefix = regexp.MustCompile(`^(?i)Bearer\s+`)

// AuthConsumer evicts cached identities when the auth service broadcasts a
// token invalidation.
type AuthConsumer struct {
	cache  port.IdentityCache
	logger *zap.Logger
}

// NewAuthConsumer constructs the token invalidation consumer.
func NewAuthConsumer(cache port.IdentityCache, log *zap.Logger) *AuthConsumer {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthConsumer{cache: cache, logger: log}
}

// HandleMessage decodes an invalidation event and deletes the matching cache
// entry. Payloads without a token are dropped silently.
func (c *AuthConsumer) HandleMessage(ctx context.Context, body []byte) error {
	var event domain.TokenInvalidatedEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("decode token invalidation event: %w", err)
	}

	token := strings.TrimSpace(bearerPrefix.ReplaceAllString(event.Message, ""))
	if token == "" {
		return nil
	}

	if err := c.cache.Delete(ctx, token); err != nil {
		return fmt.Errorf("evict cached identity: %w", err)
	}

	c.logger.Info("token invalidated", zap.String("token", logger.MaskString(token)))
	return nil
}
