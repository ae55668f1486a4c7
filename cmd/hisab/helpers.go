package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/hisablabs/hisab/internal/common"
	"github.com/hisablabs/hisab/internal/config"
	"github.com/hisablabs/hisab/internal/engine"
	"github.com/hisablabs/hisab/internal/service"
	"github.com/hisablabs/hisab/internal/storage"
)

// initStorage initializes the storage service with proper path expansion.
func initStorage(ctx context.Context) (service.Storage, error) {
	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		dbPath = config.DefaultDBPath
	}
	dbPath = config.ExpandPath(dbPath)

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, common.NewUserError(fmt.Sprintf("could not open database at %s", dbPath), err)
	}

	// Run migrations
	if err := store.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// initEngine initializes storage and wraps it in the ledger engine.
func initEngine(ctx context.Context) (*engine.Engine, service.Storage, error) {
	store, err := initStorage(ctx)
	if err != nil {
		return nil, nil, err
	}
	return engine.New(store), store, nil
}

// parseAmountArg parses a positional or flag amount.
func parseAmountArg(s string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return amount, nil
}

// joinArgs glues trailing positional args back into one description.
func joinArgs(args []string) string {
	return strings.Join(args, " ")
}

// parseDateFlag parses a --date flag, defaulting to today.
func parseDateFlag(s string) (time.Time, error) {
	if s == "" {
		return time.Now(), nil
	}
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD): %w", s, err)
	}
	return d, nil
}
