package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	red "github.com/redis/go-redis/v9"

	"github.com/ElPacho21/ecommerce-questions-microservice/internal/core/domain"
	"github.com/ElPacho21/ecommerce-questions-microservice/internal/repository"
)

func newTestRedis(t *testing.T) (*red.Client, *miniredis.Miniredis) {
	t.Helper()

	server, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}

	client := red.NewClient(&red.Options{Addr: server.Addr()})

	t.Cleanup(func() {
		_ = client.Close()
		server.Close()
	})

	return client, server
}

func TestIdentityCache_SetAndGet(t *testing.T) {
	client, server := newTestRedis(t)
	cache := NewIdentityCache(client, "auth")

	ctx := context.Background()
	ttl := 5 * time.Minute
	identity := domain.Identity{ID: "u1", Permissions: domain.PermissionList{"admin"}}

	if err := cache.Set(ctx, "tok-1", identity, ttl); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}

	cached, err := cache.Get(ctx, "tok-1")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if cached.ID != "u1" || !cached.IsAdmin() {
		t.Fatalf("unexpected cached identity %+v", cached)
	}

	remaining := server.TTL("auth:tok-1")
	if remaining <= 0 || remaining > ttl {
		t.Fatalf("expected ttl within (0, %v], got %v", ttl, remaining)
	}
}

func TestIdentityCache_GetMiss(t *testing.T) {
	client, _ := newTestRedis(t)
	cache := NewIdentityCache(client, "auth")

	_, err := cache.Get(context.Background(), "missing")
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestIdentityCache_Delete(t *testing.T) {
	client, _ := newTestRedis(t)
	cache := NewIdentityCache(client, "auth")

	ctx := context.Background()
	identity := domain.Identity{ID: "u1"}

	if err := cache.Set(ctx, "tok-1", identity, time.Minute); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}

	if err := cache.Delete(ctx, "tok-1"); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}

	if _, err := cache.Get(ctx, "tok-1"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestIdentityCache_DeleteMissingKey(t *testing.T) {
	client, _ := newTestRedis(t)
	cache := NewIdentityCache(client, "auth")

	if err := cache.Delete(context.Background(), "absent"); err != nil {
		t.Fatalf("Delete of absent key returned error: %v", err)
	}
}

func TestIdentityCache_EmptyPrefixFallsBack(t *testing.T) {
	client, server := newTestRedis(t)
	cache := NewIdentityCache(client, "  ")

	if err := cache.Set(context.Background(), "tok", domain.Identity{ID: "u1"}, time.Minute); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}

	if !server.Exists("auth:tok") {
		t.Fatal("expected key under default auth prefix")
	}
}
