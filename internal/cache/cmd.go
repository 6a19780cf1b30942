package cache

import (
	"fmt"
	"log/slog"

	"github.com/spf13/viper"
)

// InvalidateCmd represents the cache invalidate subcommand.
type InvalidateCmd struct {
	Source string `arg:"" help:"Cache source to invalidate: googlebooks, openlibrary, amazon" required:""`
}

func (i *InvalidateCmd) Run() error {
	cacheDB := viper.GetString("cache.dbfile")

	slog.Info("Invalidating cache", "source", i.Source, "database", cacheDB)

	tableName := i.Source + "_cache"

	validSources := map[string]bool{
		"googlebooks": true,
		"openlibrary": true,
		"amazon":      true,
	}
	if !validSources[i.Source] {
		return fmt.Errorf("invalid cache source '%s'; valid sources are: googlebooks, openlibrary, amazon", i.Source)
	}

	db, err := Global()
	if err != nil {
		return fmt.Errorf("failed to open cache database: %w", err)
	}

	rowsDeleted, err := db.InvalidateSource(tableName)
	if err != nil {
		return fmt.Errorf("failed to invalidate cache: %w", err)
	}

	slog.Info("Cache invalidated", "source", i.Source, "rows_deleted", rowsDeleted)
	return nil
}
