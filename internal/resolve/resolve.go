// Package resolve orchestrates metadata lookups across providers: sources
// are tried strictly in priority order and the first usable result wins,
// annotated with whether the book is already in the user's catalog.
package resolve

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/velkoja/bookscout/internal/book"
	"github.com/velkoja/bookscout/internal/catalog"
	"github.com/velkoja/bookscout/internal/provider"
)

// Library supplies the reconciliation index for the caller's catalog.
// A nil Library behaves like an empty catalog.
type Library interface {
	Index(ctx context.Context) (catalog.Index, error)
}

// Result is a candidate record plus its in-library annotation.
type Result struct {
	book.Candidate
	book.LibraryMatch
}

// Resolver tries providers in the order given. The conventional order is
// Google Books first (most comprehensive), Open Library second, Amazon
// last because scraping is the least stable.
type Resolver struct {
	providers []provider.Provider
	library   Library
}

// New creates a resolver over the given providers.
func New(library Library, providers ...provider.Provider) *Resolver {
	return &Resolver{providers: providers, library: library}
}

// Providers returns the configured provider chain in priority order.
func (r *Resolver) Providers() []provider.Provider {
	return r.providers
}

// SearchByISBN tries each provider in order and returns the first usable
// result. A provider that errors or comes up empty falls through to the
// next; only when every provider fails is nil, nil returned. The
// in-library match is computed once against the query ISBN, independent of
// which provider supplies the record.
func (r *Resolver) SearchByISBN(ctx context.Context, isbn string) (*Result, error) {
	if isbn == "" {
		return nil, book.ErrInvalidISBN
	}

	idx, err := r.index(ctx)
	if err != nil {
		return nil, err
	}
	match := catalog.MatchISBN(isbn, idx)

	for _, p := range r.providers {
		candidate, err := p.SearchByISBN(ctx, isbn)
		if err != nil {
			slog.Warn("Provider lookup failed, trying next", "provider", p.Name(), "isbn", isbn, "error", err)
			continue
		}
		if candidate == nil {
			slog.Debug("Provider had no record", "provider", p.Name(), "isbn", isbn)
			continue
		}
		return &Result{Candidate: *candidate, LibraryMatch: match}, nil
	}

	return nil, nil
}

// SearchByISBNVia queries a single source with no fallback, so upstream
// failures propagate to the caller.
func (r *Resolver) SearchByISBNVia(ctx context.Context, source book.Source, isbn string) (*Result, error) {
	p, err := r.providerFor(source)
	if err != nil {
		return nil, err
	}

	idx, err := r.index(ctx)
	if err != nil {
		return nil, err
	}

	candidate, err := p.SearchByISBN(ctx, isbn)
	if err != nil {
		return nil, err
	}
	if candidate == nil {
		return nil, nil
	}
	return &Result{Candidate: *candidate, LibraryMatch: catalog.MatchISBN(isbn, idx)}, nil
}

// SearchByTitle tries each title-capable provider in order and returns the
// first candidate from the first provider with results. The in-library
// match is computed once up front from the query title.
func (r *Resolver) SearchByTitle(ctx context.Context, title, author string) (*Result, error) {
	idx, err := r.index(ctx)
	if err != nil {
		return nil, err
	}
	match := catalog.MatchTitle(title, idx)

	for _, p := range r.providers {
		candidates, err := p.SearchByTitle(ctx, title, author)
		if errors.Is(err, provider.ErrUnsupported) {
			continue
		}
		if err != nil {
			slog.Warn("Provider search failed, trying next", "provider", p.Name(), "title", title, "error", err)
			continue
		}
		if len(candidates) == 0 {
			slog.Debug("Provider had no results", "provider", p.Name(), "title", title)
			continue
		}
		return &Result{Candidate: candidates[0], LibraryMatch: match}, nil
	}

	return nil, nil
}

// SearchAndAdd returns every result from the highest-priority provider,
// each annotated with its own in-library match (ISBN first, then
// normalized title). The listing itself never mutates the catalog; adding
// a selected result is a separate operation.
//
// There is no fallback chain here, so provider failures propagate.
func (r *Resolver) SearchAndAdd(ctx context.Context, title, author string) ([]Result, error) {
	if len(r.providers) == 0 {
		return nil, fmt.Errorf("no providers configured")
	}

	candidates, err := r.providers[0].SearchByTitle(ctx, title, author)
	if err != nil {
		return nil, err
	}

	idx, err := r.index(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(candidates))
	for i := range candidates {
		results = append(results, Result{
			Candidate:    candidates[i],
			LibraryMatch: catalog.Match(&candidates[i], idx),
		})
	}
	return results, nil
}

func (r *Resolver) providerFor(source book.Source) (provider.Provider, error) {
	for _, p := range r.providers {
		if p.Source() == source {
			return p, nil
		}
	}
	return nil, fmt.Errorf("no provider configured for source %q", source)
}

func (r *Resolver) index(ctx context.Context) (catalog.Index, error) {
	if r.library == nil {
		return catalog.Index{}, nil
	}
	idx, err := r.library.Index(ctx)
	if err != nil {
		return catalog.Index{}, fmt.Errorf("loading catalog index: %w", err)
	}
	return idx, nil
}
