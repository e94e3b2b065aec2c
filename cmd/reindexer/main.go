package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/retrovault/storefront-backend/internal/adapters/database"
	"github.com/retrovault/storefront-backend/internal/adapters/search"
	"github.com/retrovault/storefront-backend/internal/application/services"
	"github.com/retrovault/storefront-backend/internal/domain/entities"
	"github.com/retrovault/storefront-backend/internal/domain/repositories"
	"github.com/retrovault/storefront-backend/internal/infrastructure/clients/postgres"
	"github.com/retrovault/storefront-backend/internal/infrastructure/observability"
	"github.com/retrovault/storefront-backend/pkg/config"
)

func main() {
	var kindFlag string
	var intervalFlag string
	flag.StringVar(&kindFlag, "kind", "all", "entity kind to reindex: products, events or all")
	flag.StringVar(&intervalFlag, "interval", "", "repeat interval for reindexing (e.g. 6h, 30m)")
	flag.Parse()

	observability.InitLogger("storefront-reindexer", os.Getenv("ENV"))

	kinds, err := kindsFromFlag(kindFlag)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid -kind flag")
	}

	intervalValue := strings.TrimSpace(intervalFlag)
	if intervalValue == "" {
		intervalValue = strings.TrimSpace(os.Getenv("REINDEX_INTERVAL"))
	}

	var interval time.Duration
	if intervalValue != "" {
		interval, err = time.ParseDuration(intervalValue)
		if err != nil {
			log.Fatal().Str("interval", intervalValue).Err(err).Msg("Invalid interval")
		}
		if interval <= 0 {
			log.Fatal().Msg("Interval must be greater than zero")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	for {
		if err := reindexOnce(ctx, kinds); err != nil {
			log.Error().Err(err).Msg("Reindex failed")
		}

		if interval <= 0 {
			break
		}

		log.Info().Dur("interval", interval).Msg("Reindex complete, waiting for next run")

		select {
		case <-ctx.Done():
			log.Info().Msg("Reindexer shutting down")
			return
		case <-time.After(interval):
		}
	}
}

func kindsFromFlag(flagValue string) ([]entities.EntityKind, error) {
	switch strings.ToLower(strings.TrimSpace(flagValue)) {
	case "products":
		return []entities.EntityKind{entities.EntityKindProduct}, nil
	case "events":
		return []entities.EntityKind{entities.EntityKindEvent}, nil
	case "all", "":
		return []entities.EntityKind{entities.EntityKindProduct, entities.EntityKindEvent}, nil
	default:
		return nil, fmt.Errorf("unknown kind %q", flagValue)
	}
}

func reindexOnce(ctx context.Context, kinds []entities.EntityKind) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		return err
	}
	defer pgClient.Close()

	ranking, err := config.NewRankingLoader(cfg.Ranking.Path)
	if err != nil {
		return err
	}

	tokenizer := search.NewTokenizer(ranking)
	mapper := search.NewDescriptorMapper(ranking, tokenizer)
	termRepo := database.NewTermIndexAdapter(pgClient)
	descriptorRepo := database.NewDescriptorAdapter(pgClient)

	catalogs := map[entities.EntityKind]repositories.CatalogRepository{
		entities.EntityKindProduct: database.NewProductAdapter(pgClient),
		entities.EntityKindEvent:   database.NewEventAdapter(pgClient),
	}

	for _, kind := range kinds {
		catalog := catalogs[kind]
		indexer := services.NewIndexingService(
			catalog,
			services.NewTermIndexService(tokenizer, termRepo, catalog),
			services.NewDescriptorIndexService(tokenizer, mapper, descriptorRepo, catalog, ranking),
		)

		start := time.Now()
		if err := indexer.ReindexAll(ctx); err != nil {
			return err
		}
		log.Info().
			Str("kind", string(kind)).
			Dur("duration", time.Since(start)).
			Msg("Reindex pass finished")
	}
	return nil
}
