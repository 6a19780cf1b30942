// Package cmd wires the bookscout command-line interface.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/lepinkainen/humanlog"
	"github.com/spf13/viper"

	"github.com/velkoja/bookscout/internal/book"
	"github.com/velkoja/bookscout/internal/cache"
	"github.com/velkoja/bookscout/internal/catalog"
	"github.com/velkoja/bookscout/internal/config"
	"github.com/velkoja/bookscout/internal/provider"
	"github.com/velkoja/bookscout/internal/provider/amazon"
	"github.com/velkoja/bookscout/internal/provider/googlebooks"
	"github.com/velkoja/bookscout/internal/provider/openlibrary"
	"github.com/velkoja/bookscout/internal/resolve"
	"github.com/velkoja/bookscout/internal/tui"
)

// CLI represents the complete command structure for bookscout.
type CLI struct {
	// Global flags
	CatalogDB   string `help:"Path to catalog SQLite database file" default:"./bookscout.db"`
	CacheDBFile string `help:"Path to cache SQLite database file" default:"./cache.db"`
	CacheTTL    string `help:"Cache time-to-live duration (e.g., 720h for 30 days)" default:"720h"`
	JSON        bool   `help:"Print results as JSON"`

	Search  SearchCmd  `cmd:"" help:"Search external sources for book metadata"`
	Catalog CatalogCmd `cmd:"" help:"Manage the local book catalog"`
	Cache   CacheCmd   `cmd:"" help:"Manage the provider response cache"`
}

// SearchCmd groups the metadata search subcommands.
type SearchCmd struct {
	Isbn  SearchIsbnCmd  `cmd:"" help:"Look up a book by ISBN across all sources"`
	Title SearchTitleCmd `cmd:"" help:"Look up a book by title"`
	Add   SearchAddCmd   `cmd:"" help:"Search by title and pick a result to add to the catalog"`
}

// SearchIsbnCmd looks up a single ISBN, either across the full provider
// chain or against one named source.
type SearchIsbnCmd struct {
	ISBN   string `arg:"" help:"ISBN-10 or ISBN-13 to look up"`
	Source string `help:"Query a single source instead of the fallback chain" enum:"google,openlibrary,amazon," default:""`
}

// SearchTitleCmd looks up a title with an optional author refinement.
type SearchTitleCmd struct {
	Title  string `arg:"" help:"Title to search for"`
	Author string `short:"a" help:"Author name to refine the search"`
}

// SearchAddCmd lists all results from the primary source and lets the user
// pick one to add to the catalog.
type SearchAddCmd struct {
	Title         string `arg:"" help:"Title to search for"`
	Author        string `short:"a" help:"Author name to refine the search"`
	NoInteractive bool   `help:"Print results instead of showing the interactive picker"`
}

// CatalogCmd groups catalog management subcommands.
type CatalogCmd struct {
	List   CatalogListCmd   `cmd:"" help:"List all catalog entries"`
	Add    CatalogAddCmd    `cmd:"" help:"Add a book to the catalog manually"`
	Remove CatalogRemoveCmd `cmd:"" help:"Remove a catalog entry by id"`
	Import CatalogImportCmd `cmd:"" help:"Import books from a YAML shelf file"`
}

// CatalogListCmd lists catalog entries.
type CatalogListCmd struct{}

// CatalogAddCmd adds a catalog entry from flags.
type CatalogAddCmd struct {
	Title     string   `arg:"" help:"Book title"`
	Author    []string `short:"a" help:"Author name (repeatable)"`
	ISBN      string   `help:"ISBN-10 or ISBN-13"`
	Publisher string   `help:"Publisher name"`
	Year      int      `help:"Publication year"`
	Pages     int      `help:"Page count"`
}

// CatalogRemoveCmd removes a catalog entry.
type CatalogRemoveCmd struct {
	ID string `arg:"" help:"Catalog entry id"`
}

// CatalogImportCmd bulk-imports books from a YAML file.
type CatalogImportCmd struct {
	File string `arg:"" type:"existingfile" help:"Path to YAML shelf file"`
}

// CacheCmd groups cache management subcommands.
type CacheCmd struct {
	Invalidate cache.InvalidateCmd `cmd:"" help:"Clear cached responses for one source"`
}

var outputJSON bool

// Execute runs the Kong-based CLI.
func Execute() {
	initLogging()
	initConfig()

	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("bookscout"),
		kong.Description("Resolve book metadata from Google Books, Open Library and Amazon, reconciled against your own catalog."),
		kong.UsageOnError(),
	)

	updateGlobalConfig(&cli)

	if err := ctx.Run(); err != nil {
		slog.Error("Command failed", "error", err)
		os.Exit(1)
	}
}

func initLogging() {
	level := slog.LevelInfo
	switch strings.ToLower(os.Getenv("BOOKSCOUT_LOG_LEVEL")) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	handler := humanlog.NewHandler(os.Stdout, &humanlog.Options{
		Level: level,
	})
	slog.SetDefault(slog.New(handler))
}

func initConfig() {
	viper.SetDefault("catalog.dbfile", "./bookscout.db")
	viper.SetDefault("cache.dbfile", "./cache.db")
	viper.SetDefault("cache.ttl", "720h")
	viper.SetDefault("amazon.storefront", "https://www.amazon.de")

	viper.AutomaticEnv()
	if err := viper.BindEnv("GoogleBooksAPIKey", "GOOGLE_BOOKS_API_KEY"); err != nil {
		slog.Error("Failed to bind environment variable", "error", err)
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Error("Fatal error reading config file", "error", err)
			os.Exit(1)
		}
		// No config file is fine; defaults and env cover everything.
	}

	config.InitConfig()
}

func updateGlobalConfig(cli *CLI) {
	viper.Set("catalog.dbfile", cli.CatalogDB)
	viper.Set("cache.dbfile", cli.CacheDBFile)
	viper.Set("cache.ttl", cli.CacheTTL)
	outputJSON = cli.JSON
}

// buildProviders constructs the provider chain in priority order: Google
// Books is the most comprehensive source, Open Library second, Amazon last
// because scraping is the least stable.
var buildProviders = func() []provider.Provider {
	return []provider.Provider{
		googlebooks.New(config.GoogleBooksAPIKey),
		openlibrary.New(),
		amazon.New(amazon.WithBaseURL(config.AmazonStorefront)),
	}
}

func openResolver() (*resolve.Resolver, *catalog.Store, error) {
	store, err := catalog.Open(viper.GetString("catalog.dbfile"))
	if err != nil {
		return nil, nil, fmt.Errorf("opening catalog: %w", err)
	}
	return resolve.New(store, buildProviders()...), store, nil
}

// Run methods for each command

func (s *SearchIsbnCmd) Run() error {
	resolver, store, err := openResolver()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	ctx := context.Background()

	var result *resolve.Result
	if s.Source != "" {
		result, err = resolver.SearchByISBNVia(ctx, book.Source(s.Source), s.ISBN)
	} else {
		result, err = resolver.SearchByISBN(ctx, s.ISBN)
	}
	if err != nil {
		return err
	}
	if result == nil {
		fmt.Println("No results found")
		return nil
	}
	return printResult(result)
}

func (s *SearchTitleCmd) Run() error {
	resolver, store, err := openResolver()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	result, err := resolver.SearchByTitle(context.Background(), s.Title, s.Author)
	if err != nil {
		return err
	}
	if result == nil {
		fmt.Println("No results found")
		return nil
	}
	return printResult(result)
}

func (s *SearchAddCmd) Run() error {
	resolver, store, err := openResolver()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	ctx := context.Background()

	results, err := resolver.SearchAndAdd(ctx, s.Title, s.Author)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		fmt.Println("No results found")
		return nil
	}

	if s.NoInteractive {
		return printResults(results)
	}

	selection, err := tui.Select(s.Title, results)
	if err != nil {
		return err
	}
	switch selection.Action {
	case tui.ActionSelected:
		if selection.Selection.InLibrary {
			slog.Info("Book is already in the catalog", "book_id", *selection.Selection.BookID)
			return nil
		}
		added, err := store.Add(ctx, catalog.FromCandidate(&selection.Selection.Candidate))
		if err != nil {
			return err
		}
		slog.Info("Added book to catalog", "id", added.ID, "title", added.Title)
	case tui.ActionSkipped, tui.ActionStopped, tui.ActionNone:
		// Nothing to do.
	}
	return nil
}

func (c *CatalogListCmd) Run() error {
	store, err := catalog.Open(viper.GetString("catalog.dbfile"))
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	books, err := store.List(context.Background())
	if err != nil {
		return err
	}
	return printBooks(books)
}

func (c *CatalogAddCmd) Run() error {
	store, err := catalog.Open(viper.GetString("catalog.dbfile"))
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	added, err := store.Add(context.Background(), catalog.Book{
		Title:         c.Title,
		Authors:       c.Author,
		ISBN:          c.ISBN,
		Publisher:     c.Publisher,
		PublishedYear: c.Year,
		Pages:         c.Pages,
	})
	if err != nil {
		return err
	}
	slog.Info("Added book to catalog", "id", added.ID, "title", added.Title)
	return nil
}

func (c *CatalogRemoveCmd) Run() error {
	store, err := catalog.Open(viper.GetString("catalog.dbfile"))
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if err := store.Remove(context.Background(), c.ID); err != nil {
		return err
	}
	slog.Info("Removed book from catalog", "id", c.ID)
	return nil
}

func (c *CatalogImportCmd) Run() error {
	store, err := catalog.Open(viper.GetString("catalog.dbfile"))
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	f, err := os.Open(c.File)
	if err != nil {
		return fmt.Errorf("opening shelf file: %w", err)
	}
	defer func() { _ = f.Close() }()

	added, err := store.ImportYAML(context.Background(), f)
	if err != nil {
		return err
	}
	slog.Info("Imported books into catalog", "count", added, "file", c.File)
	return nil
}
