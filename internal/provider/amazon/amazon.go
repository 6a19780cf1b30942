// Package amazon implements the provider contract by scraping the Amazon
// storefront. There is no schema contract with the target site: selector
// drift is an accepted failure mode and surfaces as zero results, never as
// a hard error.
package amazon

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/velkoja/bookscout/internal/book"
	"github.com/velkoja/bookscout/internal/cache"
	"github.com/velkoja/bookscout/internal/provider"
	"github.com/velkoja/bookscout/internal/ratelimit"
)

const (
	defaultBaseURL       = "https://www.amazon.de"
	defaultRatePerSecond = 1
	maxSearchResults     = 10
	cacheTable           = "amazon_cache"
)

// Browser-mimicking headers reduce bot-detection rejections on the
// storefront.
var browserHeaders = map[string]string{
	"User-Agent":      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8",
	"Accept-Language": "de-DE,de;q=0.9,en;q=0.8",
}

// HTTPDoer is an interface for making HTTP requests.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// Client scrapes book metadata from the Amazon storefront.
type Client struct {
	baseURL     string
	httpClient  HTTPDoer
	rateLimiter *ratelimit.Limiter
}

// Compile-time check that Client implements provider.Provider.
var _ provider.Provider = (*Client)(nil)

// New creates an Amazon scraping client.
func New(opts ...Option) *Client {
	client := &Client{
		baseURL:     defaultBaseURL,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
		rateLimiter: ratelimit.New("Amazon", defaultRatePerSecond),
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

// WithBaseURL sets a custom storefront base URL.
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
	return "Amazon"
}

// Source returns the source tag stamped on produced candidates.
func (c *Client) Source() book.Source {
	return book.SourceAmazon
}

type cachedLookup struct {
	Candidate *book.Candidate `json:"candidate"`
	NotFound  bool            `json:"not_found"`
}

// SearchByISBN issues a storefront search for the ISBN, then fetches the
// top hit's detail page. The returned record always carries an ISBN: the
// queried one when extraction from the page fails.
func (c *Client) SearchByISBN(ctx context.Context, isbn string) (*book.Candidate, error) {
	if isbn == "" {
		return nil, book.ErrInvalidISBN
	}
	normalized := book.NormalizeISBN(isbn)

	cached, _, err := cache.GetOrFetchWithTTL(cacheTable, normalized, func() (*cachedLookup, error) {
		return c.scrapeByISBN(ctx, normalized)
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

// SearchByTitle is not supported: the storefront has no scrapeable
// free-text book search worth trusting.
func (c *Client) SearchByTitle(ctx context.Context, title, author string) ([]book.Candidate, error) {
	return nil, provider.ErrUnsupported
}

func (c *Client) scrapeByISBN(ctx context.Context, isbn string) (*cachedLookup, error) {
	searchDoc, err := c.getDocument(ctx, fmt.Sprintf("%s/s?k=%s", c.baseURL, url.QueryEscape(isbn)))
	if err != nil {
		return nil, err
	}

	hits := extractSearchHits(searchDoc)
	if len(hits) == 0 {
		return &cachedLookup{NotFound: true}, nil
	}

	detailURL, err := c.resolveURL(hits[0].detailPath)
	if err != nil {
		return &cachedLookup{NotFound: true}, nil
	}

	detailDoc, err := c.getDocument(ctx, detailURL)
	if err != nil {
		return nil, err
	}

	candidate := extractDetail(detailDoc, isbn)
	if candidate == nil {
		// Selector drift on the detail page: treat as no results.
		return &cachedLookup{NotFound: true}, nil
	}
	return &cachedLookup{Candidate: candidate}, nil
}

func (c *Client) getDocument(ctx context.Context, endpoint string) (*goquery.Document, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	for key, value := range browserHeaders {
		req.Header.Set(key, value)
	}
	req.Header.Set("Referer", c.baseURL+"/")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("amazon request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("amazon returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing amazon response: %w", err)
	}
	return doc, nil
}

// resolveURL makes scraped hrefs absolute against the storefront base.
func (c *Client) resolveURL(href string) (string, error) {
	if href == "" {
		return "", fmt.Errorf("empty detail link")
	}
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href, nil
	}
	base, err := url.Parse(c.baseURL)
	if err != nil {
		return "", err
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", err
	}
	return base.ResolveReference(ref).String(), nil
}
