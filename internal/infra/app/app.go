package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/ElPacho21/ecommerce-questions-microservice/internal/core/port"
	"github.com/ElPacho21/ecommerce-questions-microservice/internal/infra/config"
	"github.com/ElPacho21/ecommerce-questions-microservice/internal/infra/database"
	"github.com/ElPacho21/ecommerce-questions-microservice/internal/infra/logger"
	"github.com/ElPacho21/ecommerce-questions-microservice/internal/infra/rabbit"
	redisinfra "github.com/ElPacho21/ecommerce-questions-microservice/internal/infra/redis"
	"github.com/ElPacho21/ecommerce-questions-microservice/internal/infra/upstream"
	postgresrepo "github.com/ElPacho21/ecommerce-questions-microservice/internal/repository/postgres"
	redisrepo "github.com/ElPacho21/ecommerce-questions-microservice/internal/repository/redis"
	"github.com/ElPacho21/ecommerce-questions-microservice/internal/transport/http/middleware"
	"github.com/ElPacho21/ecommerce-questions-microservice/internal/transport/http/routes"
	"github.com/ElPacho21/ecommerce-questions-microservice/internal/usecase"
)

type Application struct {
	cfg       *config.AppConfig
	engine    *gin.Engine
	logger    *zap.Logger
	pool      *pgxpool.Pool
	redis     *redisinfra.Client
	bus       *rabbit.Client
	questions *usecase.QuestionService
	cache     port.IdentityCache
}

func New(ctx context.Context, cfg *config.AppConfig) (*Application, error) {
	log, err := logger.New(cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	pool, err := database.NewPostgresPool(ctx, cfg.Postgres, log)
	if err != nil {
		return nil, fmt.Errorf("init postgres: %w", err)
	}

	redisClient, err := redisinfra.NewClient(cfg.Redis, log)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("init redis: %w", err)
	}

	identityCache := redisrepo.NewIdentityCache(redisClient.Client(), cfg.Redis.IdentityPrefix)
	questionRepo := postgresrepo.NewQuestionRepository(pool)

	// The event bus is optional: without a broker URL the service publishes
	// nothing and starts no subscribers.
	var (
		bus            *rabbit.Client
		eventPublisher port.EventPublisher
	)
	if cfg.Rabbit.URL != "" {
		bus = rabbit.NewClient(cfg.Rabbit, log)
		eventPublisher = rabbit.NewEventPublisher(bus, log)
	} else {
		log.Info("rabbitmq url not configured, using stub publisher")
		eventPublisher = rabbit.NewStubPublisher(log)
	}

	catalogGateway := upstream.NewCatalogClient(cfg.Upstream, log)
	authGateway := upstream.NewAuthClient(cfg.Upstream, log)

	questionService := usecase.NewQuestionService(questionRepo, catalogGateway, eventPublisher, log)

	identityTTL := cfg.Cache.IdentityTTL
	if identityTTL <= 0 {
		identityTTL = 5 * time.Minute
	}
	authenticator := middleware.NewAuthenticator(identityCache, authGateway, identityTTL, log)

	engine := routes.Register(routes.Dependencies{
		Config:        cfg,
		Logger:        log,
		Authenticator: authenticator,
		Questions:     questionService,
		Database:      pool,
		Cache:         redisClient,
	})

	return &Application{
		cfg:       cfg,
		engine:    engine,
		logger:    log,
		pool:      pool,
		redis:     redisClient,
		bus:       bus,
		questions: questionService,
		cache:     identityCache,
	}, nil
}

func (a *Application) Run(ctx context.Context) error {
	defer func() {
		_ = a.logger.Sync()
	}()
	defer func() {
		if a.pool != nil {
			a.pool.Close()
		}
	}()
	defer func() {
		if a.redis != nil {
			_ = a.redis.Close()
		}
	}()
	defer func() {
		if a.bus != nil {
			_ = a.bus.Close()
		}
	}()

	a.startSubscribers(ctx)

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", a.cfg.App.Host, a.cfg.App.Port),
		Handler:           a.engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	a.logger.Info("starting questions API",
		zap.String("env", a.cfg.App.Env),
		zap.String("address", srv.Addr),
	)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- fmt.Errorf("run server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		return nil
	case err := <-serverErrCh:
		return err
	}
}

// startSubscribers wires the token invalidation and article deletion
// consumers. Subscription failures are logged and the service keeps running;
// the API stays usable without the bus, it only loses cache eviction and the
// deletion cascade.
func (a *Application) startSubscribers(ctx context.Context) {
	if a.bus == nil {
		return
	}

	authConsumer := rabbit.NewAuthConsumer(a.cache, a.logger)
	catalogConsumer := rabbit.NewCatalogConsumer(a.questions, a.logger)

	retries := a.cfg.Rabbit.SubscribeRetries
	backoff := a.cfg.Rabbit.SubscribeRetryBackoff

	if err := a.bus.SubscribeWithRetry(ctx, rabbit.AuthExchange, false, authConsumer.HandleMessage, retries, backoff); err != nil {
		a.logger.Error("failed to subscribe to auth exchange", zap.Error(err))
	}

	if err := a.bus.SubscribeWithRetry(ctx, rabbit.ArticleDeletedExchange, true, catalogConsumer.HandleMessage, retries, backoff); err != nil {
		a.logger.Error("failed to subscribe to article_deleted exchange", zap.Error(err))
	}
}
