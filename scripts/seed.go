package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/retrovault/storefront-backend/internal/adapters/database"
	"github.com/retrovault/storefront-backend/internal/adapters/search"
	"github.com/retrovault/storefront-backend/internal/application/services"
	"github.com/retrovault/storefront-backend/internal/domain/repositories"
	"github.com/retrovault/storefront-backend/internal/infrastructure/clients/postgres"
	"github.com/retrovault/storefront-backend/pkg/config"
)

// Development seeder: creates the schema, loads a small retro catalog and
// builds the term and descriptor indexes for it.

const schema = `
CREATE TABLE IF NOT EXISTS products (
	id TEXT PRIMARY KEY,
	sku TEXT NOT NULL DEFAULT '',
	name TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	category_id TEXT NOT NULL DEFAULT '',
	condition TEXT NOT NULL DEFAULT 'used',
	status TEXT NOT NULL DEFAULT 'active',
	price_cents BIGINT NOT NULL DEFAULT 0,
	searches_count BIGINT NOT NULL DEFAULT 0,
	preferences_count BIGINT NOT NULL DEFAULT 0,
	clicks_count BIGINT NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS events (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	location TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	category_id TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL DEFAULT 'active',
	starts_at TIMESTAMPTZ,
	searches_count BIGINT NOT NULL DEFAULT 0,
	preferences_count BIGINT NOT NULL DEFAULT 0,
	clicks_count BIGINT NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS terms (
	id BIGSERIAL PRIMARY KEY,
	entity_type TEXT NOT NULL,
	term TEXT NOT NULL,
	df BIGINT NOT NULL DEFAULT 0,
	search_weight BIGINT NOT NULL DEFAULT 0,
	last_searched_at TIMESTAMPTZ,
	UNIQUE (entity_type, term)
);

CREATE TABLE IF NOT EXISTS entity_terms (
	entity_type TEXT NOT NULL,
	entity_id TEXT NOT NULL,
	term_id BIGINT NOT NULL REFERENCES terms(id),
	in_primary INT NOT NULL DEFAULT 0,
	in_identifier INT NOT NULL DEFAULT 0,
	in_description INT NOT NULL DEFAULT 0,
	PRIMARY KEY (entity_type, entity_id, term_id)
);

CREATE TABLE IF NOT EXISTS descriptors (
	id BIGSERIAL PRIMARY KEY,
	key TEXT NOT NULL UNIQUE,
	label TEXT NOT NULL,
	aliases TEXT[] NOT NULL DEFAULT '{}',
	weight NUMERIC NOT NULL DEFAULT 1.0
);

CREATE TABLE IF NOT EXISTS entity_descriptors (
	entity_type TEXT NOT NULL,
	entity_id TEXT NOT NULL,
	descriptor_id BIGINT NOT NULL REFERENCES descriptors(id),
	score NUMERIC NOT NULL DEFAULT 0,
	source TEXT NOT NULL DEFAULT 'auto',
	indexed_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (entity_type, entity_id, descriptor_id)
);

CREATE TABLE IF NOT EXISTS user_signals (
	user_id TEXT NOT NULL,
	entity_type TEXT NOT NULL,
	entity_id TEXT NOT NULL,
	impressions BIGINT NOT NULL DEFAULT 0,
	views BIGINT NOT NULL DEFAULT 0,
	adds BIGINT NOT NULL DEFAULT 0,
	purchases BIGINT NOT NULL DEFAULT 0,
	last_interacted_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (user_id, entity_type, entity_id)
);

CREATE TABLE IF NOT EXISTS user_descriptor_affinity (
	user_id TEXT NOT NULL,
	descriptor_key TEXT NOT NULL,
	score NUMERIC NOT NULL DEFAULT 0,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (user_id, descriptor_key)
);

CREATE TABLE IF NOT EXISTS search_queries (
	id TEXT PRIMARY KEY,
	entity_type TEXT NOT NULL,
	query TEXT NOT NULL,
	terms TEXT[] NOT NULL DEFAULT '{}',
	results_count INT NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS search_clicks (
	id TEXT PRIMARY KEY,
	entity_type TEXT NOT NULL,
	entity_id TEXT NOT NULL,
	query TEXT NOT NULL DEFAULT '',
	terms TEXT[] NOT NULL DEFAULT '{}',
	source TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

type seedProduct struct {
	sku, name, description, category, condition string
	priceCents                                  int64
}

type seedEvent struct {
	title, location, description, category string
	startsIn                               time.Duration
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer pgClient.Close()

	ctx := context.Background()

	if _, err := pgClient.DB().ExecContext(ctx, schema); err != nil {
		log.Fatalf("Failed to create schema: %v", err)
	}

	if os.Getenv("RESET_DB") == "true" {
		log.Println("RESET_DB=true detected, truncating tables before seeding")
		_, err := pgClient.DB().ExecContext(ctx, `
			TRUNCATE TABLE
				entity_descriptors,
				entity_terms,
				descriptors,
				terms,
				user_signals,
				user_descriptor_affinity,
				search_queries,
				search_clicks,
				products,
				events
			RESTART IDENTITY CASCADE
		`)
		if err != nil {
			log.Fatalf("Failed to reset tables: %v", err)
		}
	}

	products := []seedProduct{
		{"NES-SMB3", "Super Mario Bros 3", "Cartucho original de Super Mario Bros 3 para la consola NES", "cartridges", "used", 89900},
		{"SNES-DKC", "Donkey Kong Country", "Cartucho SNES clasico en excelente estado", "cartridges", "used", 64900},
		{"CON-GEN1", "Sega Genesis Console", "Consola Sega Genesis modelo 1 con dos controles", "consoles", "refurbished", 219900},
		{"CON-GB89", "Game Boy DMG-01", "Consola portatil Game Boy original de 1989", "consoles", "used", 149900},
		{"ACC-N64C", "Nintendo 64 Controller", "Control original para Nintendo 64, color gris", "accessories", "used", 34900},
		{"CD-PS1FF", "Final Fantasy VII", "Juego de PlayStation 1 completo con caja y manual", "discs", "used", 119900},
	}
	for _, p := range products {
		_, err := pgClient.DB().ExecContext(ctx, `
			INSERT INTO products (id, sku, name, description, category_id, condition, status, price_cents)
			VALUES ($1, $2, $3, $4, $5, $6, 'active', $7)
		`, uuid.New().String(), p.sku, p.name, p.description, p.category, p.condition, p.priceCents)
		if err != nil {
			log.Printf("Failed to insert product %s: %v", p.name, err)
		}
	}

	events := []seedEvent{
		{"Torneo Super Smash Bros Melee", "Ciudad de Mexico", "Torneo presencial de Melee, consolas y CRT incluidos", "tournaments", 7 * 24 * time.Hour},
		{"Noche Mario Kart 64", "Guadalajara", "Carreras de Mario Kart 64 en pantalla gigante", "meetups", 14 * 24 * time.Hour},
		{"Expo Retro Gaming", "Monterrey", "Exposicion y venta de consolas y juegos retro", "expos", 30 * 24 * time.Hour},
	}
	for _, e := range events {
		_, err := pgClient.DB().ExecContext(ctx, `
			INSERT INTO events (id, title, location, description, category_id, status, starts_at)
			VALUES ($1, $2, $3, $4, $5, 'active', $6)
		`, uuid.New().String(), e.title, e.location, e.description, e.category, time.Now().Add(e.startsIn))
		if err != nil {
			log.Printf("Failed to insert event %s: %v", e.title, err)
		}
	}

	// Build both indexes over the seeded rows
	ranking, err := config.NewRankingLoader(cfg.Ranking.Path)
	if err != nil {
		log.Fatalf("Failed to load ranking config: %v", err)
	}
	tokenizer := search.NewTokenizer(ranking)
	mapper := search.NewDescriptorMapper(ranking, tokenizer)
	termRepo := database.NewTermIndexAdapter(pgClient)
	descriptorRepo := database.NewDescriptorAdapter(pgClient)

	catalogs := []struct {
		name    string
		indexer *services.IndexingService
	}{
		{"products", indexerFor(database.NewProductAdapter(pgClient), tokenizer, mapper, termRepo, descriptorRepo, ranking)},
		{"events", indexerFor(database.NewEventAdapter(pgClient), tokenizer, mapper, termRepo, descriptorRepo, ranking)},
	}
	for _, c := range catalogs {
		if err := c.indexer.ReindexAll(ctx); err != nil {
			log.Fatalf("Failed to index %s: %v", c.name, err)
		}
		log.Printf("Indexed %s", c.name)
	}

	log.Println("Seeding complete")
}

func indexerFor(
	catalog repositories.CatalogRepository,
	tokenizer *search.Tokenizer,
	mapper *search.DescriptorMapper,
	termRepo repositories.TermIndexRepository,
	descriptorRepo repositories.DescriptorRepository,
	ranking *config.RankingLoader,
) *services.IndexingService {
	return services.NewIndexingService(
		catalog,
		services.NewTermIndexService(tokenizer, termRepo, catalog),
		services.NewDescriptorIndexService(tokenizer, mapper, descriptorRepo, catalog, ranking),
	)
}
