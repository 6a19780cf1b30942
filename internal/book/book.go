// Package book defines the normalized candidate record produced by metadata
// providers and the matching conventions shared across the module.
package book

import (
	"errors"
	"strings"
)

// Source identifies which provider produced a candidate.
type Source string

const (
	// SourceGoogle is the Google Books volumes API.
	SourceGoogle Source = "google"
	// SourceOpenLibrary is the Open Library API.
	SourceOpenLibrary Source = "openlibrary"
	// SourceAmazon is the Amazon storefront scraper.
	SourceAmazon Source = "amazon"
)

var (
	// ErrInvalidISBN is returned when the provided ISBN is empty or unusable.
	ErrInvalidISBN = errors.New("invalid ISBN")
)

// Author is a single contributor on a candidate record.
// Role is reserved for future use; automated sources never set it.
type Author struct {
	Name string  `json:"name"`
	Role *string `json:"role"`
}

// Candidate is a transient, normalized book-metadata result from one
// provider. It is never persisted directly; it either gets discarded or
// becomes the payload for a catalog insert.
// Pointer fields distinguish "not set" from "empty string".
type Candidate struct {
	// ExternalID is the provider-scoped identifier: a Google volume id, or
	// a synthesized "ol-<isbn>" / "amazon-<isbn>" for sourceless providers.
	ExternalID string `json:"external_id"`

	// Title is required; providers discard records without one.
	Title    string  `json:"title"`
	Subtitle *string `json:"subtitle"`

	Authors []Author `json:"authors"`

	Publisher *string `json:"publisher"`
	// PublishedYear is parsed from free-text dates; unparseable years are
	// nil, never zero.
	PublishedYear *int `json:"published_year"`

	Description *string  `json:"description"`
	CoverURL    *string  `json:"cover_url"`
	Categories  []string `json:"categories"`

	// ISBN prefers ISBN-13 over ISBN-10 when a source carries both.
	ISBN     *string `json:"isbn"`
	Pages    *int    `json:"pages"`
	Language *string `json:"language"`

	Source Source `json:"source"`
}

// LibraryMatch marks a candidate as already present in the caller's catalog.
// InLibrary true always implies a non-nil BookID.
type LibraryMatch struct {
	InLibrary bool    `json:"in_library"`
	BookID    *string `json:"book_id"`
}

// NormalizeISBN strips hyphens and spaces so that "978-0-544-00341-5" and
// "9780544003415" compare equal.
func NormalizeISBN(isbn string) string {
	normalized := strings.ReplaceAll(isbn, "-", "")
	return strings.ReplaceAll(normalized, " ", "")
}

// NormalizeTitle lowercases and trims a title for catalog matching.
func NormalizeTitle(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}

// AuthorNames builds an author list from plain name strings, skipping blanks.
func AuthorNames(names []string) []Author {
	if len(names) == 0 {
		return nil
	}
	authors := make([]Author, 0, len(names))
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			continue
		}
		authors = append(authors, Author{Name: name})
	}
	if len(authors) == 0 {
		return nil
	}
	return authors
}
