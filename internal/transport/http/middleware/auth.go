package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ElPacho21/ecommerce-questions-microservice/internal/core/domain"
	"github.com/ElPacho21/ecommerce-questions-microservice/internal/core/port"
	"github.com/ElPacho21/ecommerce-questions-microservice/internal/infra/upstream"
	"github.com/ElPacho21/ecommerce-questions-microservice/internal/repository"
)

const (
	identityKey    = "identity"
	bearerTokenKey = "bearer_token"
)

// ErrorResponse matches the handlers.ErrorResponse structure
type ErrorResponse struct {
	Error   string `json:"error"`
	TraceID string `json:"trace_id,omitempty"`
}

// newErrorResponse creates an error response with trace ID
func newErrorResponse(c *gin.Context, errorMsg string) ErrorResponse {
	return ErrorResponse{
		Error:   errorMsg,
		TraceID: GetTraceID(c),
	}
}

// Authenticator resolves bearer tokens through the identity cache, falling
// back to the auth service on a miss. Successful lookups are cached for the
// configured TTL; invalidation events evict entries early.
type Authenticator struct {
	cache  port.IdentityCache
	auth   port.AuthGateway
	ttl    time.Duration
	logger *zap.Logger
}

// NewAuthenticator constructs the authentication middleware provider.
func NewAuthenticator(cache port.IdentityCache, auth port.AuthGateway, ttl time.Duration, logger *zap.Logger) *Authenticator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Authenticator{cache: cache, auth: auth, ttl: ttl, logger: logger}
}

// RequireAuth validates the Authorization header and resolves the caller's identity.
func (a *Authenticator) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				newErrorResponse(c, "missing authorization header"))
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				newErrorResponse(c, "invalid authorization format: expected 'Bearer <token>'"))
			return
		}

		if !strings.EqualFold(parts[0], "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				newErrorResponse(c, "invalid authorization format: must start with 'Bearer'"))
			return
		}

		token := strings.TrimSpace(parts[1])
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				newErrorResponse(c, "missing access token"))
			return
		}

		identity, err := a.resolve(c, token)
		if err != nil {
			if errors.Is(err, upstream.ErrUnauthorized) {
				c.AbortWithStatusJSON(http.StatusUnauthorized,
					newErrorResponse(c, "invalid access token"))
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError,
				newErrorResponse(c, "authentication failed"))
			return
		}

		// Store caller information in context
		c.Set(identityKey, *identity)
		c.Set(UserIDKey, identity.ID)
		c.Set(bearerTokenKey, token)

		if reqCtx := GetRequestContext(c); reqCtx != nil {
			reqCtx.UserID = identity.ID
		}

		c.Next()
	}
}

// RequireRole aborts with 403 unless the caller holds one of the roles.
// Must run after RequireAuth.
func (a *Authenticator) RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := GetIdentity(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				newErrorResponse(c, "authentication required"))
			return
		}

		for _, role := range roles {
			if identity.HasPermission(role) {
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusForbidden,
			newErrorResponse(c, "insufficient permissions"))
	}
}

func (a *Authenticator) resolve(c *gin.Context, token string) (*domain.Identity, error) {
	ctx := c.Request.Context()

	cached, err := a.cache.Get(ctx, token)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		// Cache trouble should not lock everyone out; fall through to the
		// auth service.
		a.logger.Warn("identity cache lookup failed", zap.Error(err))
	}

	identity, err := a.auth.CurrentUser(ctx, token)
	if err != nil {
		return nil, err
	}

	if err := a.cache.Set(ctx, token, *identity, a.ttl); err != nil {
		a.logger.Warn("failed to cache identity", zap.Error(err))
	}

	return identity, nil
}

// GetIdentity retrieves the authenticated identity stored by RequireAuth.
func GetIdentity(c *gin.Context) (domain.Identity, bool) {
	value, exists := c.Get(identityKey)
	if !exists {
		return domain.Identity{}, false
	}
	identity, ok := value.(domain.Identity)
	return identity, ok
}

// GetBearerToken retrieves the raw bearer token stored by RequireAuth.
func GetBearerToken(c *gin.Context) string {
	if value, exists := c.Get(bearerTokenKey); exists {
		if token, ok := value.(string); ok {
			return token
		}
	}
	return ""
}
