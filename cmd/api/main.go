package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/retrovault/storefront-backend/internal/adapters/cache"
	"github.com/retrovault/storefront-backend/internal/adapters/database"
	"github.com/retrovault/storefront-backend/internal/adapters/search"
	"github.com/retrovault/storefront-backend/internal/api/handlers"
	"github.com/retrovault/storefront-backend/internal/api/middleware"
	"github.com/retrovault/storefront-backend/internal/api/routes"
	"github.com/retrovault/storefront-backend/internal/application/services"
	"github.com/retrovault/storefront-backend/internal/domain/entities"
	"github.com/retrovault/storefront-backend/internal/domain/providers"
	"github.com/retrovault/storefront-backend/internal/domain/repositories"
	"github.com/retrovault/storefront-backend/internal/infrastructure/clients/postgres"
	"github.com/retrovault/storefront-backend/internal/infrastructure/clients/redis"
	"github.com/retrovault/storefront-backend/internal/infrastructure/observability"
	"github.com/retrovault/storefront-backend/pkg/config"
)

// kindStack bundles the per-kind service graph behind one catalog repository.
type kindStack struct {
	searchSvc *services.SearchService
	trending  *services.TrendingService
	feed      *services.PersonalizationService
	indexer   *services.IndexingService
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize structured logging
	env := os.Getenv("ENV")
	if env == "" {
		env = "production"
	}
	observability.InitLogger(cfg.OTEL.ServiceName, env)

	log.Info().
		Str("service", cfg.OTEL.ServiceName).
		Str("version", cfg.OTEL.ServiceVersion).
		Str("env", env).
		Msg("Starting API server")

	// Set up context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry if enabled
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(
			ctx,
			cfg.OTEL.ServiceName,
			cfg.OTEL.ServiceVersion,
			cfg.OTEL.Endpoint,
		)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to set up OpenTelemetry")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					log.Error().Err(err).Msg("Error shutting down OpenTelemetry")
				}
			}()
			log.Info().Msg("OpenTelemetry initialized successfully")
		}
	}

	// Initialize metrics
	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize metrics")
	}

	// Initialize database client
	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize PostgreSQL client")
	}
	defer pgClient.Close()
	log.Info().Msg("PostgreSQL client initialized successfully")

	// Initialize Redis client. The application works without it, just uncached.
	var cacheProvider providers.CacheProvider
	redisClient, err := redis.NewClient(&cfg.Redis)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize Redis client, running without response cache")
	} else {
		defer redisClient.Close()
		cacheProvider = cache.NewRedisAdapter(redisClient)
		log.Info().Msg("Redis client initialized successfully")
	}

	// Load the ranking configuration. An empty path yields the built-in
	// defaults; POST /api/admin/ranking/reload re-reads the file at runtime.
	ranking, err := config.NewRankingLoader(cfg.Ranking.Path)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.Ranking.Path).Msg("Failed to load ranking configuration")
	}

	// Shared text plumbing
	tokenizer := search.NewTokenizer(ranking)
	mapper := search.NewDescriptorMapper(ranking, tokenizer)

	// Kind-agnostic adapters
	termRepo := database.NewTermIndexAdapter(pgClient)
	descriptorRepo := database.NewDescriptorAdapter(pgClient)
	signalRepo := database.NewSignalAdapter(pgClient)
	logRepo := database.NewSearchLogAdapter(pgClient)

	// Per-kind catalog adapters
	productAdapter := database.NewProductAdapter(pgClient)
	eventAdapter := database.NewEventAdapter(pgClient)
	catalogs := map[entities.EntityKind]repositories.CatalogRepository{
		entities.EntityKindProduct: productAdapter,
		entities.EntityKindEvent:   eventAdapter,
	}

	// Kind-agnostic services
	signalService := services.NewSignalService(signalRepo, descriptorRepo, tokenizer, mapper, ranking)
	analyticsService := services.NewSearchAnalyticsService(logRepo, catalogs, tokenizer)

	// Per-kind service stacks
	buildStack := func(catalog repositories.CatalogRepository) kindStack {
		termIndex := services.NewTermIndexService(tokenizer, termRepo, catalog)
		descriptorIndex := services.NewDescriptorIndexService(tokenizer, mapper, descriptorRepo, catalog, ranking)
		return kindStack{
			searchSvc: services.NewSearchService(catalog, termRepo, logRepo, signalService, tokenizer, ranking),
			trending:  services.NewTrendingService(catalog, descriptorRepo, ranking),
			feed:      services.NewPersonalizationService(catalog, descriptorRepo, signalRepo, tokenizer, ranking),
			indexer:   services.NewIndexingService(catalog, termIndex, descriptorIndex),
		}
	}
	productStack := buildStack(productAdapter)
	eventStack := buildStack(eventAdapter)

	// Initialize handlers
	productHandler := handlers.NewCatalogHandler(
		entities.EntityKindProduct,
		productStack.searchSvc,
		productStack.trending,
		productStack.feed,
		signalService,
		analyticsService,
		func(r *http.Request) (interface{}, error) {
			return productAdapter.GetByID(r.Context(), r.PathValue("id"))
		},
		handlers.NewProductHydrator(productAdapter),
	)
	eventHandler := handlers.NewCatalogHandler(
		entities.EntityKindEvent,
		eventStack.searchSvc,
		eventStack.trending,
		eventStack.feed,
		signalService,
		analyticsService,
		func(r *http.Request) (interface{}, error) {
			return eventAdapter.GetByID(r.Context(), r.PathValue("id"))
		},
		handlers.NewEventHydrator(eventAdapter),
	)
	analyticsHandler := handlers.NewAnalyticsHandler(analyticsService)
	adminHandler := handlers.NewAdminHandler(ranking, map[entities.EntityKind]*services.IndexingService{
		entities.EntityKindProduct: productStack.indexer,
		entities.EntityKindEvent:   eventStack.indexer,
	})

	// Initialize cache middleware
	var cacheMiddleware *middleware.CacheMiddleware
	if cacheProvider != nil {
		cacheMiddleware = middleware.NewCacheMiddleware(cacheProvider)
		log.Info().Msg("Cache middleware initialized successfully")
	}

	// Set up router
	router := routes.NewRouter(
		productHandler,
		eventHandler,
		analyticsHandler,
		adminHandler,
		cacheMiddleware,
		metrics,
		cfg.Server.AllowedOrigins,
	)

	handler := router.SetupRoutes()

	// Create HTTP server
	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("addr", serverAddr).Msg("Server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Server shutting down...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during server shutdown")
	}

	log.Info().Msg("Server stopped")
}
