package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ElPacho21/ecommerce-questions-microservice/internal/core/domain"
	"github.com/ElPacho21/ecommerce-questions-microservice/internal/core/port"
	"github.com/ElPacho21/ecommerce-questions-microservice/internal/infra/config"
)

const defaultTimeout = 5 * time.Second

// CatalogClient calls the catalog service to verify articles exist before
// questions are attached to them.
type CatalogClient struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// NewCatalogClient constructs the catalog HTTP client.
func NewCatalogClient(cfg config.UpstreamSettings, logger *zap.Logger) *CatalogClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &CatalogClient{
		baseURL: strings.TrimRight(cfg.CatalogURL, "/"),
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// GetArticle fetches an article by id, forwarding the caller's bearer token.
// A 404 from the catalog maps to (nil, nil); any other non-200 status is an
// error.
func (c *CatalogClient) GetArticle(ctx context.Context, articleID, bearerToken string) (*domain.Article, error) {
	endpoint := fmt.Sprintf("%s/articles/%s", c.baseURL, url.PathEscape(articleID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build catalog request: %w", err)
	}
	if bearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+bearerToken)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call catalog service: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		c.logger.Debug("article not found upstream", zap.String("article_id", articleID))
		return nil, nil
	default:
		return nil, fmt.Errorf("catalog service returned status %d", resp.StatusCode)
	}

	var article domain.Article
	if err := json.NewDecoder(resp.Body).Decode(&article); err != nil {
		return nil, fmt.Errorf("decode catalog response: %w", err)
	}

	return &article, nil
}

var _ port.CatalogGateway = (*CatalogClient)(nil)
