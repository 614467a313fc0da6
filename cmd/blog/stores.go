package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/quillpress/blog-api/internal/core/ports"
	"github.com/quillpress/blog-api/internal/infrastructure/config"
	mongostore "github.com/quillpress/blog-api/internal/infrastructure/db/mongo"
	pgstore "github.com/quillpress/blog-api/internal/infrastructure/db/postgres"
	"github.com/quillpress/blog-api/internal/infrastructure/http/handlers"
)

// stores bundles the repositories of the configured STORE_DRIVER.
type stores struct {
	accounts ports.AccountRepository
	articles ports.ArticleRepository
	check    handlers.DependencyCheck
	close    func(ctx context.Context) error
}

// openStores connects to the configured store and prepares its schema:
// goose migrations for postgres, indexes for mongo.
func openStores(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*stores, error) {
	switch cfg.Store.Driver {
	case config.DriverPostgres:
		db, err := openPostgres(ctx, cfg)
		if err != nil {
			return nil, err
		}
		if err := pgstore.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
		log.Info().Str("driver", cfg.Store.Driver).Msg("store ready")
		return &stores{
			accounts: pgstore.NewAccountRepository(db),
			articles: pgstore.NewArticleRepository(db),
			check:    handlers.DependencyCheck{Name: "postgres", Ping: db.PingContext},
			close:    func(context.Context) error { return db.Close() },
		}, nil

	case config.DriverMongo:
		client, db, err := mongostore.Connect(ctx, mongostore.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return nil, err
		}
		accounts := mongostore.NewAccountRepository(db)
		articles := mongostore.NewArticleRepository(db)
		if err := mongostore.EnsureIndexes(ctx, accounts, articles); err != nil {
			_ = client.Disconnect(ctx)
			return nil, err
		}
		log.Info().Str("driver", cfg.Store.Driver).Str("database", cfg.Mongo.Database).Msg("store ready")
		return &stores{
			accounts: accounts,
			articles: articles,
			check:    handlers.DependencyCheck{Name: "mongo", Ping: mongostore.Pinger(client)},
			close:    client.Disconnect,
		}, nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
}

func openPostgres(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	db, err := pgstore.Open(ctx, cfg.Postgres.DSN)
	if err != nil {
		return nil, fmt.Errorf("postgres: %w", err)
	}
	return db, nil
}
