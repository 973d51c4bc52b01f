package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap/zaptest"

	"github.com/ElPacho21/ecommerce-questions-microservice/internal/core/domain"
	"github.com/ElPacho21/ecommerce-questions-microservice/internal/infra/upstream"
	"github.com/ElPacho21/ecommerce-questions-microservice/internal/repository"
)

type memoryIdentityCache struct {
	entries map[string]domain.Identity
	sets    int
}

func newMemoryIdentityCache() *memoryIdentityCache {
	return &memoryIdentityCache{entries: make(map[string]domain.Identity)}
}

func (m *memoryIdentityCache) Get(_ context.Context, token string) (*domain.Identity, error) {
	identity, ok := m.entries[token]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &identity, nil
}

func (m *memoryIdentityCache) Set(_ context.Context, token string, identity domain.Identity, _ time.Duration) error {
	m.entries[token] = identity
	m.sets++
	return nil
}

func (m *memoryIdentityCache) Delete(_ context.Context, token string) error {
	delete(m.entries, token)
	return nil
}

type stubAuthGateway struct {
	identity *domain.Identity
	err      error
	calls    int
}

func (s *stubAuthGateway) CurrentUser(_ context.Context, _ string) (*domain.Identity, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.identity, nil
}

func setupRouter(t *testing.T, auth *Authenticator, roles ...string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	router := gin.New()
	handlers := []gin.HandlerFunc{auth.RequireAuth()}
	if len(roles) > 0 {
		handlers = append(handlers, auth.RequireRole(roles...))
	}
	handlers = append(handlers, func(c *gin.Context) {
		identity, _ := GetIdentity(c)
		c.JSON(http.StatusOK, gin.H{"id": identity.ID})
	})

	router.GET("/protected", handlers...)
	return router
}

func doRequest(router *gin.Engine, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder
}

func TestRequireAuthMissingHeader(t *testing.T) {
	auth := NewAuthenticator(newMemoryIdentityCache(), &stubAuthGateway{}, time.Minute, zaptest.NewLogger(t))
	router := setupRouter(t, auth)

	if resp := doRequest(router, ""); resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
}

func TestRequireAuthMalformedHeader(t *testing.T) {
	auth := NewAuthenticator(newMemoryIdentityCache(), &stubAuthGateway{}, time.Minute, zaptest.NewLogger(t))
	router := setupRouter(t, auth)

	for _, header := range []string{"token-only", "Basic abc", "Bearer "} {
		if resp := doRequest(router, header); resp.Code != http.StatusUnauthorized {
			t.Fatalf("header %q: expected 401, got %d", header, resp.Code)
		}
	}
}

func TestRequireAuthCacheMissResolvesUpstream(t *testing.T) {
	cache := newMemoryIdentityCache()
	gateway := &stubAuthGateway{identity: &domain.Identity{ID: "u1", Permissions: domain.PermissionList{domain.RoleUser}}}
	auth := NewAuthenticator(cache, gateway, time.Minute, zaptest.NewLogger(t))
	router := setupRouter(t, auth)

	if resp := doRequest(router, "Bearer tok-1"); resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	if gateway.calls != 1 {
		t.Fatalf("expected one upstream call, got %d", gateway.calls)
	}
	if cache.sets != 1 {
		t.Fatalf("expected identity cached once, got %d sets", cache.sets)
	}

	// Second request hits the cache.
	if resp := doRequest(router, "Bearer tok-1"); resp.Code != http.StatusOK {
		t.Fatalf("expected 200 on cached request, got %d", resp.Code)
	}
	if gateway.calls != 1 {
		t.Fatalf("expected cached identity to skip upstream, got %d calls", gateway.calls)
	}
}

func TestRequireAuthRejectedToken(t *testing.T) {
	gateway := &stubAuthGateway{err: upstream.ErrUnauthorized}
	auth := NewAuthenticator(newMemoryIdentityCache(), gateway, time.Minute, zaptest.NewLogger(t))
	router := setupRouter(t, auth)

	if resp := doRequest(router, "Bearer bad"); resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
}

func TestRequireRole(t *testing.T) {
	cache := newMemoryIdentityCache()
	cache.entries["tok-user"] = domain.Identity{ID: "u1", Permissions: domain.PermissionList{domain.RoleUser}}
	cache.entries["tok-admin"] = domain.Identity{ID: "a1", Permissions: domain.PermissionList{domain.RoleAdmin}}

	auth := NewAuthenticator(cache, &stubAuthGateway{}, time.Minute, zaptest.NewLogger(t))
	router := setupRouter(t, auth, domain.RoleAdmin)

	if resp := doRequest(router, "Bearer tok-user"); resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for user role, got %d", resp.Code)
	}
	if resp := doRequest(router, "Bearer tok-admin"); resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin role, got %d", resp.Code)
	}
}

func TestRequireRoleLegacyRoleField(t *testing.T) {
	cache := newMemoryIdentityCache()
	cache.entries["tok"] = domain.Identity{ID: "a1", Role: domain.PermissionList{domain.RoleAdmin}}

	auth := NewAuthenticator(cache, &stubAuthGateway{}, time.Minute, zaptest.NewLogger(t))
	router := setupRouter(t, auth, domain.RoleAdmin)

	if resp := doRequest(router, "Bearer tok"); resp.Code != http.StatusOK {
		t.Fatalf("expected role field fallback to grant access, got %d", resp.Code)
	}
}
