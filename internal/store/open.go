package store

import (
	"context"
	"fmt"

	supabase "github.com/supabase-community/supabase-go"

	"podcast-notes-go/internal/config"
	"podcast-notes-go/internal/logger"
	"podcast-notes-go/internal/types"
)

// Open builds the store selected by cfg.StoreBackend. sb is only used by the
// supabase backend and may be nil otherwise.
func Open(ctx context.Context, cfg *config.Config, sb *supabase.Client, log *logger.Logger) (StatusStore, error) {
	switch cfg.StoreBackend {
	case "supabase":
		if sb == nil {
			return nil, fmt.Errorf("%w: supabase client not configured", types.ErrConfig)
		}
		return NewSupabaseStore(sb, log), nil
	case "postgres":
		return OpenSQL(ctx, Postgres, cfg.DatabaseURL)
	case "sqlite":
		return OpenSQL(ctx, SQLite, cfg.DatabaseURL)
	case "mongo":
		return OpenMongo(ctx, cfg.MongoURI, cfg.MongoDatabase)
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("%w: unknown store backend %q", types.ErrConfig, cfg.StoreBackend)
	}
}
