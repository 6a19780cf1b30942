package catalog

import (
	"github.com/velkoja/bookscout/internal/book"
)

// Index holds the precomputed lookup maps reconciliation matches against:
// normalized ISBN -> catalog id and normalized title -> catalog id.
type Index struct {
	ByISBN  map[string]string
	ByTitle map[string]string
}

// NewIndex builds the reconciliation index from a catalog snapshot.
// Earlier entries win on duplicate keys.
func NewIndex(books []Book) Index {
	idx := Index{
		ByISBN:  make(map[string]string, len(books)),
		ByTitle: make(map[string]string, len(books)),
	}
	for _, b := range books {
		if isbn := book.NormalizeISBN(b.ISBN); isbn != "" {
			if _, ok := idx.ByISBN[isbn]; !ok {
				idx.ByISBN[isbn] = b.ID
			}
		}
		if title := book.NormalizeTitle(b.Title); title != "" {
			if _, ok := idx.ByTitle[title]; !ok {
				idx.ByTitle[title] = b.ID
			}
		}
	}
	return idx
}

// Match checks whether a candidate is already in the catalog. Two lookup
// strategies are tried in order, first match wins: exact normalized ISBN,
// then exact normalized title. An unmatched candidate reports
// InLibrary=false with a nil BookID.
func Match(c *book.Candidate, idx Index) book.LibraryMatch {
	if c.ISBN != nil {
		if id, ok := idx.ByISBN[book.NormalizeISBN(*c.ISBN)]; ok {
			return book.LibraryMatch{InLibrary: true, BookID: &id}
		}
	}
	if id, ok := idx.ByTitle[book.NormalizeTitle(c.Title)]; ok {
		return book.LibraryMatch{InLibrary: true, BookID: &id}
	}
	return book.LibraryMatch{}
}

// MatchISBN checks only the ISBN map, for the combined ISBN search path
// where the query ISBN is matched once up front.
func MatchISBN(isbn string, idx Index) book.LibraryMatch {
	if id, ok := idx.ByISBN[book.NormalizeISBN(isbn)]; ok {
		return book.LibraryMatch{InLibrary: true, BookID: &id}
	}
	return book.LibraryMatch{}
}

// MatchTitle checks only the title map, for the combined title search path
// where the query title is matched once up front.
func MatchTitle(title string, idx Index) book.LibraryMatch {
	if id, ok := idx.ByTitle[book.NormalizeTitle(title)]; ok {
		return book.LibraryMatch{InLibrary: true, BookID: &id}
	}
	return book.LibraryMatch{}
}
