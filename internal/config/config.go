// Package config holds the global configuration shared across commands.
package config

import (
	"github.com/spf13/viper"
)

// Global configuration variables
var (
	// GoogleBooksAPIKey is the optional API key for the Google Books API.
	GoogleBooksAPIKey string
	// AmazonStorefront is the Amazon domain used for scraping.
	AmazonStorefront string
)

// InitConfig initializes the global configuration from viper.
func InitConfig() {
	viper.SetDefault("catalog.dbfile", "./bookscout.db")
	viper.SetDefault("cache.dbfile", "./cache.db")
	viper.SetDefault("cache.ttl", "720h")
	viper.SetDefault("amazon.storefront", "https://www.amazon.de")

	GoogleBooksAPIKey = viper.GetString("GoogleBooksAPIKey")
	AmazonStorefront = viper.GetString("amazon.storefront")
}
