package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/cloudteams/developer-services/api/echoapi"
	"github.com/cloudteams/developer-services/cache"
	redistore "github.com/cloudteams/developer-services/cache/redis"
	"github.com/cloudteams/developer-services/config"
	"github.com/cloudteams/developer-services/domain"
	"github.com/cloudteams/developer-services/internal/federation"
	"github.com/cloudteams/developer-services/internal/metrics"
	"github.com/cloudteams/developer-services/internal/rendezvous"
	"github.com/cloudteams/developer-services/internal/scm"
	"github.com/cloudteams/developer-services/internal/server"
	"github.com/cloudteams/developer-services/log"
	"github.com/cloudteams/developer-services/mongodb"
	"github.com/cloudteams/developer-services/services"
	"github.com/cloudteams/developer-services/tracing"
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

var (
	appLogger      log.Logger
	httpServer     *http.Server
	tracerProvider *sdktrace.TracerProvider
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		boot := zerolog.New(os.Stdout).With().Timestamp().Logger()
		boot.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logLevel, parseErr := zerolog.ParseLevel(cfg.LogLevel)
	if parseErr != nil {
		logLevel = zerolog.InfoLevel
	}
	appLogger = log.NewZerologAdapter(logLevel, cfg.LogPretty)
	appLogger.Info(context.Background(), "Starting developer-services server...", map[string]interface{}{
		"http_port":     cfg.HTTPPort,
		"mongo_db_name": cfg.MongoDBName,
		"log_level":     cfg.LogLevel,
	})

	tp, err := tracing.InitTracerProvider(cfg.OtelServiceName)
	if err != nil {
		appLogger.Fatal(context.Background(), "Failed to initialize TracerProvider", err)
	}
	tracerProvider = tp

	metrics.InitCustomMetrics(prometheus.DefaultRegisterer)

	ctx := context.Background()
	if initErr := mongodb.InitMongoDB(ctx, cfg.MongoURI, cfg.MongoDBName); initErr != nil {
		appLogger.Fatal(ctx, "Failed to initialize MongoDB connection", initErr)
	}
	db := mongodb.GetDB()

	// Repositories
	githubUsers, err := mongodb.NewUserRepository(ctx, db, domain.ProviderGithub)
	if err != nil {
		appLogger.Fatal(ctx, "Failed to initialize GitHub user repository", err)
	}
	bitbucketUsers, err := mongodb.NewUserRepository(ctx, db, domain.ProviderBitbucket)
	if err != nil {
		appLogger.Fatal(ctx, "Failed to initialize Bitbucket user repository", err)
	}
	projectLinks, err := mongodb.NewProjectRepository(ctx, db)
	if err != nil {
		appLogger.Fatal(ctx, "Failed to initialize project link repository", err)
	}

	// Token cache
	var tokenStore cache.TokenStore
	if cfg.RedisAddr != "" {
		redisClient := goredis.NewClient(&goredis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		tokenStore = redistore.NewTokenStore(redisClient, cfg.OtelServiceName)
		appLogger.Info(ctx, "Using Redis token cache", map[string]interface{}{"addr": cfg.RedisAddr})
	} else {
		tokenStore = cache.NewMemoryTokenStore()
		appLogger.Info(ctx, "Using in-memory token cache")
	}

	// Services
	providers := services.ProviderSet{
		domain.ProviderGithub: {
			Provider:  domain.ProviderGithub,
			Users:     githubUsers,
			Exchanger: federation.NewGitHubExchanger(cfg.GithubClientID, cfg.GithubClientSecret),
			Browsers:  scm.NewGithubBrowserFactory(),
		},
		domain.ProviderBitbucket: {
			Provider:  domain.ProviderBitbucket,
			Users:     bitbucketUsers,
			Exchanger: federation.NewBitbucketExchanger(cfg.BitbucketClientID, cfg.BitbucketClientSecret),
			Browsers:  scm.NewBitbucketBrowserFactory(),
		},
	}

	tokenService := services.NewTokenService([]byte(cfg.JWTSecretKey), cfg.JWTIssuer, cfg.TokenTTL(), tokenStore)
	waiter := rendezvous.NewWaiter(services.NewStoreLookup(providers), cfg.RendezvousInterval(), cfg.RendezvousAttempts)
	authService := services.NewAuthService(providers, tokenService, waiter)
	rendezvousService := services.NewRendezvousService(waiter)
	projectService := services.NewProjectService(providers, projectLinks)

	api := echoapi.NewAPI(authService, rendezvousService, projectService)
	httpServer = server.NewHTTPServer(cfg, appLogger, api, tokenService)

	go func() {
		appLogger.Info(ctx, "HTTP server listening", map[string]interface{}{"addr": httpServer.Addr})
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatal(ctx, "HTTP server failed", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info(ctx, "Shutting down...")
	if err := server.Shutdown(ctx, httpServer); err != nil {
		appLogger.Error(ctx, "HTTP server shutdown error", err)
	}
	if err := tracerProvider.Shutdown(ctx); err != nil {
		appLogger.Error(ctx, "TracerProvider shutdown error", err)
	}
	mongodb.CloseMongoDB(ctx)
	appLogger.Info(ctx, "Server stopped.")
}
