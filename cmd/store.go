package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/icp-discovery/internal/db"
	"github.com/sells-group/icp-discovery/internal/profile"
	"github.com/sells-group/icp-discovery/internal/source"
)

// env holds the wired backends a command needs. Close releases them in
// reverse order of acquisition.
type env struct {
	pool     db.Pool
	deals    source.DealSource
	convos   source.ConversationSource
	profiles profile.Store
}

func (e *env) Close() {
	if e.profiles != nil {
		_ = e.profiles.Close()
	}
	if e.pool != nil {
		e.pool.Close()
	}
}

// initEnv connects the deal source and the profile store according to
// the configured driver. The deal source is always Postgres; the
// profile store may live in the same database or in a local SQLite
// file.
func initEnv(ctx context.Context) (*env, error) {
	if cfg.Store.DatabaseURL == "" {
		return nil, eris.New("store database URL is required (ICP_STORE_DATABASE_URL)")
	}

	pool, err := db.Connect(ctx, cfg.Store.DatabaseURL)
	if err != nil {
		return nil, err
	}

	e := &env{
		pool:   pool,
		deals:  source.NewPostgresSource(pool),
		convos: source.NewPostgresConversations(pool),
	}

	switch cfg.Store.Driver {
	case "postgres":
		e.profiles = profile.NewPostgres(pool)
	case "sqlite":
		st, err := profile.NewSQLite(cfg.Store.SQLitePath)
		if err != nil {
			pool.Close()
			return nil, err
		}
		e.profiles = st
	default:
		pool.Close()
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}

	if err := e.profiles.Migrate(ctx); err != nil {
		e.Close()
		return nil, eris.Wrap(err, "migrate profile store")
	}

	return e, nil
}
