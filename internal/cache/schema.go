package cache

// SQL schemas for cache tables. All tables use "cache_key" as the primary
// key column for consistency.

// GoogleBooksSchema defines the schema for the Google Books response cache.
const GoogleBooksSchema = `
CREATE TABLE IF NOT EXISTS googlebooks_cache (
	cache_key TEXT PRIMARY KEY NOT NULL,
	data TEXT NOT NULL,
	cached_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_googlebooks_cached_at ON googlebooks_cache(cached_at);
`

// OpenLibrarySchema defines the schema for the Open Library response cache.
const OpenLibrarySchema = `
CREATE TABLE IF NOT EXISTS openlibrary_cache (
	cache_key TEXT PRIMARY KEY NOT NULL,
	data TEXT NOT NULL,
	cached_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_openlibrary_cached_at ON openlibrary_cache(cached_at);
`

// AmazonSchema defines the schema for the Amazon scrape cache.
const AmazonSchema = `
CREATE TABLE IF NOT EXISTS amazon_cache (
	cache_key TEXT PRIMARY KEY NOT NULL,
	data TEXT NOT NULL,
	cached_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_amazon_cached_at ON amazon_cache(cached_at);
`

// allSchemas contains every cache table schema for initialization.
var allSchemas = []string{
	GoogleBooksSchema,
	OpenLibrarySchema,
	AmazonSchema,
}

// ValidTableNames is the whitelist of allowed cache table names, used to
// prevent SQL injection when interpolating table names.
var ValidTableNames = map[string]bool{
	"googlebooks_cache": true,
	"openlibrary_cache": true,
	"amazon_cache":      true,
}
