package cmd

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/hmans/shelf/internal/config"
	"github.com/hmans/shelf/internal/store"
	"github.com/hmans/shelf/internal/store/memory"
	"github.com/hmans/shelf/internal/store/mongodb"
	"github.com/hmans/shelf/internal/store/postgres"
	"github.com/hmans/shelf/internal/store/sqlite"
)

// openStore opens the backend selected by c.Driver.
func openStore(ctx context.Context, c config.StorageConfig, logger zerolog.Logger) (store.Store, error) {
	var (
		s   store.Store
		err error
	)
	switch c.Driver {
	case store.DriverMemory:
		s = memory.New()
	case store.DriverSQLite:
		s, err = sqlite.Open(ctx, c.Path, logger)
	case store.DriverPostgres:
		s, err = postgres.Open(ctx, c.URL, logger)
	case store.DriverMongo:
		s, err = mongodb.Open(ctx, c.URL, c.Database, logger)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", c.Driver)
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}
