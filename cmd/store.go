package main

import (
	"context"

	"github.com/plantworks/oee-cli/internal/store"
)

// initStore opens the configured run-history backend and applies
// migrations.
func initStore(ctx context.Context) (store.Store, error) {
	dsn := cfg.Store.DatabaseURL
	if cfg.Store.Driver == store.DriverSQLite && dsn == "" {
		dsn = "oee.db"
	}
	st, err := store.Open(ctx, cfg.Store.Driver, dsn)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, err
	}
	return st, nil
}
