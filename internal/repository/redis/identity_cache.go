package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	red "github.com/redis/go-redis/v9"

	"github.com/ElPacho21/ecommerce-questions-microservice/internal/core/domain"
	"github.com/ElPacho21/ecommerce-questions-microservice/internal/core/port"
	"github.com/ElPacho21/ecommerce-questions-microservice/internal/repository"
)

const defaultIdentityPrefix = "auth"

// IdentityCache stores verified identities in Redis keyed by bearer token.
type IdentityCache struct {
	client *red.Client
	prefix string
}

// NewIdentityCache wires Redis storage for the identity cache.
func NewIdentityCache(client *red.Client, prefix string) *IdentityCache {
	trimmed := strings.TrimSpace(prefix)
	if trimmed == "" {
		trimmed = defaultIdentityPrefix
	}

	return &IdentityCache{client: client, prefix: trimmed}
}

func (c *IdentityCache) key(token string) string {
	return c.prefix + ":" + token
}

// Get loads the cached identity for a token, or repository.ErrNotFound on a
// miss.
func (c *IdentityCache) Get(ctx context.Context, token string) (*domain.Identity, error) {
	data, err := c.client.Get(ctx, c.key(token)).Bytes()
	if err != nil {
		if errors.Is(err, red.Nil) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("redis get identity: %w", err)
	}

	var identity domain.Identity
	if err := json.Unmarshal(data, &identity); err != nil {
		return nil, fmt.Errorf("decode cached identity: %w", err)
	}

	return &identity, nil
}

// Set stores the identity under the token for the supplied TTL.
func (c *IdentityCache) Set(ctx context.Context, token string, identity domain.Identity, ttl time.Duration) error {
	data, err := json.Marshal(identity)
	if err != nil {
		return fmt.Errorf("encode identity: %w", err)
	}

	if err := c.client.Set(ctx, c.key(token), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set identity: %w", err)
	}

	return nil
}

// Delete evicts the cached identity for a token. Deleting an absent key is
// not an error.
func (c *IdentityCache) Delete(ctx context.Context, token string) error {
	if err := c.client.Del(ctx, c.key(token)).Err(); err != nil {
		return fmt.Errorf("redis delete identity: %w", err)
	}

	return nil
}

var _ port.IdentityCache = (*IdentityCache)(nil)
