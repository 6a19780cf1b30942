// Package openlibrary implements the provider contract against the Open
// Library JSON API.
package openlibrary

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/velkoja/bookscout/internal/book"
	"github.com/velkoja/bookscout/internal/cache"
	"github.com/velkoja/bookscout/internal/provider"
	"github.com/velkoja/bookscout/internal/ratelimit"
)

const (
	defaultBaseURL       = "https://openlibrary.org"
	defaultCoversBaseURL = "https://covers.openlibrary.org"
	defaultRatePerSecond = 1
	titleSearchLimit     = 10
	cacheTable           = "openlibrary_cache"
)

// HTTPDoer is an interface for making HTTP requests.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// Client is an Open Library API client.
type Client struct {
	baseURL       string
	coversBaseURL string
	httpClient    HTTPDoer
	rateLimiter   *ratelimit.Limiter
}

// Compile-time check that Client implements provider.Provider.
var _ provider.Provider = (*Client)(nil)

// New creates an Open Library client.
func New(opts ...Option) *Client {
	client := &Client{
		baseURL:       defaultBaseURL,
		coversBaseURL: defaultCoversBaseURL,
		httpClient:    &http.Client{Timeout: 10 * time.Second},
		rateLimiter:   ratelimit.New("OpenLibrary", defaultRatePerSecond),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Option is a functional option for configuring the Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c HTTPDoer) Option {
	return func(client *Client) {
		if c != nil {
			client.httpClient = c
		}
	}
}

// WithBaseURL sets a custom base URL for the Open Library API.
func WithBaseURL(base string) Option {
	return func(client *Client) {
		if base != "" {
			client.baseURL = strings.TrimSuffix(base, "/")
		}
	}
}

// WithCoversBaseURL sets a custom base URL for the covers service.
func WithCoversBaseURL(base string) Option {
	return func(client *Client) {
		if base != "" {
			client.coversBaseURL = strings.TrimSuffix(base, "/")
		}
	}
}

// WithRateLimiter sets a custom rate limiter.
func WithRateLimiter(limiter *ratelimit.Limiter) Option {
	return func(client *Client) {
		if limiter != nil {
			client.rateLimiter = limiter
		}
	}
}

// Name returns the human-readable name of this provider.
func (c *Client) Name() string {
	return "Open Library"
}

// Source returns the source tag stamped on produced candidates.
func (c *Client) Source() book.Source {
	return book.SourceOpenLibrary
}

type cachedLookup struct {
	Candidate *book.Candidate `json:"candidate"`
	NotFound  bool            `json:"not_found"`
}

// SearchByISBN fetches the edition record for an ISBN.
// A 404 means the ISBN is unknown and returns nil, nil; any other non-2xx
// status is an error.
func (c *Client) SearchByISBN(ctx context.Context, isbn string) (*book.Candidate, error) {
	if isbn == "" {
		return nil, book.ErrInvalidISBN
	}
	normalized := book.NormalizeISBN(isbn)

	cached, _, err := cache.GetOrFetchWithTTL(cacheTable, normalized, func() (*cachedLookup, error) {
		return c.fetchByISBN(ctx, normalized)
	}, cache.SelectNegativeTTL(func(r *cachedLookup) bool {
		return r.NotFound
	}))
	if err != nil {
		return nil, err
	}
	if cached.NotFound {
		return nil, nil
	}
	return cached.Candidate, nil
}

func (c *Client) fetchByISBN(ctx context.Context, isbn string) (*cachedLookup, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/isbn/%s.json", c.baseURL, isbn)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("open library request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return &cachedLookup{NotFound: true}, nil
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("open library returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var edition editionResponse
	if err := json.NewDecoder(resp.Body).Decode(&edition); err != nil {
		return nil, fmt.Errorf("decoding open library response: %w", err)
	}

	if edition.Title == "" {
		// Records without a title are discarded.
		return &cachedLookup{NotFound: true}, nil
	}

	candidate := c.mapEdition(&edition, isbn)
	candidate.Authors = c.resolveAuthors(ctx, edition.Authors)
	return &cachedLookup{Candidate: candidate}, nil
}

// resolveAuthors dereferences each author key via /authors/{key}.json.
// Individual failures are logged and skipped, so the final list may be
// shorter than the key list.
func (c *Client) resolveAuthors(ctx context.Context, refs []keyRef) []book.Author {
	names := make([]string, 0, len(refs))
	for _, ref := range refs {
		name, err := c.fetchAuthorName(ctx, ref.Key)
		if err != nil {
			slog.Warn("Failed to resolve author", "key", ref.Key, "error", err)
			continue
		}
		if name != "" {
			names = append(names, name)
		}
	}
	return book.AuthorNames(names)
}

func (c *Client) fetchAuthorName(ctx context.Context, key string) (string, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return "", err
	}

	// Keys arrive as "/authors/OL23919A".
	key = strings.TrimPrefix(key, "/authors/")
	endpoint := fmt.Sprintf("%s/authors/%s.json", c.baseURL, key)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("author request returned status %d", resp.StatusCode)
	}

	var author struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&author); err != nil {
		return "", err
	}
	return author.Name, nil
}

// SearchByTitle queries the search endpoint and maps up to ten documents.
func (c *Client) SearchByTitle(ctx context.Context, title, author string) ([]book.Candidate, error) {
	if strings.TrimSpace(title) == "" {
		return nil, fmt.Errorf("title is required")
	}

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("title", title)
	if author != "" {
		params.Set("author", author)
	}
	params.Set("limit", fmt.Sprintf("%d", titleSearchLimit))

	endpoint := fmt.Sprintf("%s/search.json?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("open library search: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("open library returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var result searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding open library search response: %w", err)
	}

	candidates := make([]book.Candidate, 0, len(result.Docs))
	for i := range result.Docs {
		if result.Docs[i].Title == "" {
			continue
		}
		candidates = append(candidates, *c.mapSearchDoc(&result.Docs[i]))
	}
	return candidates, nil
}
