package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/ElPacho21/ecommerce-questions-microservice/internal/core/domain"
	"github.com/ElPacho21/ecommerce-questions-microservice/internal/core/port"
	"github.com/ElPacho21/ecommerce-questions-microservice/internal/infra/config"
)

// ErrUnauthorized means the auth service rejected the presented token.
var ErrUnauthorized = errors.New("token rejected by auth service")

// AuthClient resolves bearer tokens against the auth service.
type AuthClient struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// NewAuthClient constructs the auth HTTP client.
func NewAuthClient(cfg config.UpstreamSettings, logger *zap.Logger) *AuthClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &AuthClient{
		baseURL: strings.TrimRight(cfg.AuthURL, "/"),
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// CurrentUser asks the auth service who holds the token. 401 and 403 map to
// ErrUnauthorized; any other non-200 status is an error.
func (c *AuthClient) CurrentUser(ctx context.Context, bearerToken string) (*domain.Identity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/users/current", nil)
	if err != nil {
		return nil, fmt.Errorf("build auth request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+bearerToken)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call auth service: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized, http.StatusForbidden:
		c.logger.Debug("token rejected upstream", zap.Int("status", resp.StatusCode))
		return nil, ErrUnauthorized
	default:
		return nil, fmt.Errorf("auth service returned status %d", resp.StatusCode)
	}

	var identity domain.Identity
	if err := json.NewDecoder(resp.Body).Decode(&identity); err != nil {
		return nil, fmt.Errorf("decode auth response: %w", err)
	}

	if identity.ID == "" {
		return nil, ErrUnauthorized
	}

	return &identity, nil
}

var _ port.AuthGateway = (*AuthClient)(nil)
