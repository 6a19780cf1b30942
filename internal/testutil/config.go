package testutil

import (
	"testing"

	"github.com/spf13/viper"

	"github.com/velkoja/bookscout/internal/cache"
	"github.com/velkoja/bookscout/internal/config"
)

// ConfigState holds the state of the config package variables.
type ConfigState struct {
	GoogleBooksAPIKey string
	AmazonStorefront  string
}

// SaveConfigState captures the current state of config package variables.
func SaveConfigState() ConfigState {
	return ConfigState{
		GoogleBooksAPIKey: config.GoogleBooksAPIKey,
		AmazonStorefront:  config.AmazonStorefront,
	}
}

// RestoreConfigState restores the config package variables to a saved state.
func RestoreConfigState(state ConfigState) {
	config.GoogleBooksAPIKey = state.GoogleBooksAPIKey
	config.AmazonStorefront = state.AmazonStorefront
}

// ResetConfig saves the current config state and schedules restoration
// when the test completes. It also resets viper.
func ResetConfig(t *testing.T) {
	t.Helper()

	state := SaveConfigState()
	viper.Reset()

	t.Cleanup(func() {
		RestoreConfigState(state)
		viper.Reset()
	})
}

// SetViperValue sets a viper configuration value and schedules cleanup.
func SetViperValue(t *testing.T, key string, value any) {
	t.Helper()

	oldValue := viper.Get(key)
	hadValue := viper.IsSet(key)

	viper.Set(key, value)

	t.Cleanup(func() {
		if hadValue {
			viper.Set(key, oldValue)
		}
	})
}

// SetupTestCache points the shared response cache at a temporary database
// and resets the singleton so each test gets a fresh cache. The singleton
// is reset again on cleanup so later tests are unaffected.
func SetupTestCache(t *testing.T, env *TestEnv) string {
	t.Helper()

	env.MkdirAll("cache")
	dbfile := env.Path("cache", "test-cache.db")

	SetViperValue(t, "cache.dbfile", dbfile)
	SetViperValue(t, "cache.ttl", "24h")
	if err := cache.ResetGlobal(); err != nil {
		t.Fatalf("failed to reset cache singleton: %v", err)
	}

	t.Cleanup(func() { _ = cache.ResetGlobal() })

	return dbfile
}
