package port

import (
	"context"

	"github.com/ElPacho21/ecommerce-questions-microservice/internal/core/domain"
)

// CatalogGateway exposes the upstream catalog service contract. GetArticle
// returns (nil, nil) when the article does not exist upstream; a non-nil error
// means the catalog could not be consulted at all.
type CatalogGateway interface {
	GetArticle(ctx context.Context, articleID, bearerToken string) (*domain.Article, error)
}

// AuthGateway resolves the identity behind a bearer token.
type AuthGateway interface {
	CurrentUser(ctx context.Context, bearerToken string) (*domain.Identity, error)
}
