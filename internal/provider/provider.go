// Package provider defines the contract every external metadata source
// implements. The resolver iterates providers in priority order, so adding
// or reordering sources never touches orchestration logic.
package provider

import (
	"context"
	"errors"

	"github.com/velkoja/bookscout/internal/book"
)

// ErrUnsupported is returned by providers that do not implement a given
// search capability (Amazon has no free-text title search).
var ErrUnsupported = errors.New("search not supported by provider")

// Provider is one external metadata source behind a common search contract.
//
// Not-found is nil, nil — never an error. This keeps the expected-absence
// case distinct from upstream failure (network error, non-2xx status,
// malformed body), which is always a non-nil error.
type Provider interface {
	// Name returns the human-readable name of the source (e.g. "Google Books").
	Name() string

	// Source returns the source tag stamped on produced candidates.
	Source() book.Source

	// SearchByISBN looks up a single candidate by raw ISBN.
	// Returns nil, nil when the source has no record for the ISBN.
	SearchByISBN(ctx context.Context, isbn string) (*book.Candidate, error)

	// SearchByTitle searches by free-text title with an optional author
	// refinement. An empty slice means no results; ErrUnsupported means the
	// source has no title search at all.
	SearchByTitle(ctx context.Context, title, author string) ([]book.Candidate, error)
}
