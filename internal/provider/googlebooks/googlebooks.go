// Package googlebooks implements the provider contract against the public
// Google Books volumes API.
package googlebooks

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
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
	defaultBaseURL       = "https://www.googleapis.com/books/v1"
	defaultRatePerSecond = 1
	maxTitleResults      = 20
	cacheTable           = "googlebooks_cache"
)

// HTTPDoer is an interface for making HTTP requests.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// Client is a Google Books API client.
type Client struct {
	apiKey      string
	baseURL     string
	httpClient  HTTPDoer
	rateLimiter *ratelimit.Limiter
}

// Compile-time check that Client implements provider.Provider.
var _ provider.Provider = (*Client)(nil)

// New creates a Google Books client. The API key is optional; the public
// volumes endpoint works without one.
func New(apiKey string, opts ...Option) *Client {
	client := &Client{
		apiKey:      apiKey,
		baseURL:     defaultBaseURL,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
		rateLimiter: ratelimit.New("GoogleBooks", defaultRatePerSecond),
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

// WithBaseURL sets a custom base URL for the volumes API.
func WithBaseURL(base string) Option {
	return func(client *Client) {
		if base != "" {
			client.baseURL = strings.TrimSuffix(base, "/")
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
	return "Google Books"
}

// Source returns the source tag stamped on produced candidates.
func (c *Client) Source() book.Source {
	return book.SourceGoogle
}

// cachedLookup wraps a candidate with a not-found marker for caching.
type cachedLookup struct {
	Candidate *book.Candidate `json:"candidate"`
	NotFound  bool            `json:"not_found"`
}

// SearchByISBN looks up a single volume by ISBN.
// Returns nil, nil when Google Books has no record for the ISBN.
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
	result, err := c.queryVolumes(ctx, "isbn:"+isbn, 0)
	if err != nil {
		return nil, err
	}

	// Use the first item that survives validation (title required).
	for i := range result.Items {
		if result.Items[i].VolumeInfo.Title == "" {
			continue
		}
		candidate := mapVolume(&result.Items[i])
		return &cachedLookup{Candidate: candidate}, nil
	}
	return &cachedLookup{NotFound: true}, nil
}

// SearchByTitle searches volumes with intitle/inauthor qualifiers and
// returns every result that carries a title.
func (c *Client) SearchByTitle(ctx context.Context, title, author string) ([]book.Candidate, error) {
	if strings.TrimSpace(title) == "" {
		return nil, fmt.Errorf("title is required")
	}

	query := fmt.Sprintf("intitle:%s", title)
	if author != "" {
		query = fmt.Sprintf("%s inauthor:%s", query, author)
	}

	result, err := c.queryVolumes(ctx, query, maxTitleResults)
	if err != nil {
		return nil, err
	}

	candidates := make([]book.Candidate, 0, len(result.Items))
	for i := range result.Items {
		if result.Items[i].VolumeInfo.Title == "" {
			continue
		}
		candidates = append(candidates, *mapVolume(&result.Items[i]))
	}
	return candidates, nil
}

func (c *Client) queryVolumes(ctx context.Context, query string, maxResults int) (*volumesResponse, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("country", "US")
	if maxResults > 0 {
		params.Set("maxResults", fmt.Sprintf("%d", maxResults))
	}
	if c.apiKey != "" {
		params.Set("key", c.apiKey)
	}

	endpoint := fmt.Sprintf("%s/volumes?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("google books request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("google books returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var result volumesResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding google books response: %w", err)
	}
	return &result, nil
}
