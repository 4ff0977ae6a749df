// Package backend opens the storage.Store named by the store configuration.
package backend

import (
	"context"
	"fmt"

	"expense-api/internal/config"
	"expense-api/internal/mongostore"
	"expense-api/internal/storage"
)

// Open connects to the configured driver. The Mongo dial is bounded by
// cfg.StoreTimeout.
func Open(ctx context.Context, cfg config.StoreConfig) (storage.Store, error) {
	switch cfg.StoreDriver {
	case config.DriverMongo:
		connectCtx, cancel := context.WithTimeout(ctx, cfg.StoreTimeout)
		defer cancel()
		s, err := mongostore.Connect(connectCtx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.DriverSQLite:
		db, err := storage.NewDB(cfg.DBPath)
		if err != nil {
			return nil, err
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}
