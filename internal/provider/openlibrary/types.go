package openlibrary

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/velkoja/bookscout/internal/book"
)

// editionResponse matches the /isbn/{isbn}.json edition record.
type editionResponse struct {
	Title         string   `json:"title"`
	Subtitle      string   `json:"subtitle"`
	Description   any      `json:"description"` // string or {"value": ...}
	Publishers    []string `json:"publishers"`
	PublishDate   string   `json:"publish_date"`
	NumberOfPages int      `json:"number_of_pages"`
	Covers        []int    `json:"covers"`
	Subjects      []string `json:"subjects"`
	ISBN13        []string `json:"isbn_13"`
	ISBN10        []string `json:"isbn_10"`
	Authors       []keyRef `json:"authors"`
	Languages     []keyRef `json:"languages"`
}

// keyRef is a reference to another Open Library entity, e.g.
// {"key": "/authors/OL23919A"}.
type keyRef struct {
	Key string `json:"key"`
}

// searchResponse matches the /search.json response.
type searchResponse struct {
	NumFound int         `json:"numFound"`
	Docs     []searchDoc `json:"docs"`
}

type searchDoc struct {
	Key              string   `json:"key"`
	Title            string   `json:"title"`
	Subtitle         string   `json:"subtitle"`
	AuthorName       []string `json:"author_name"`
	Publisher        []string `json:"publisher"`
	FirstPublishYear int      `json:"first_publish_year"`
	ISBN             []string `json:"isbn"`
	CoverI           int      `json:"cover_i"`
	Language         []string `json:"language"`
	Subject          []string `json:"subject"`
}

// mapEdition normalizes an edition record into a candidate. The queried
// ISBN seeds the synthesized external id and serves as the ISBN of last
// resort so ISBN lookups always report one.
func (c *Client) mapEdition(edition *editionResponse, isbn string) *book.Candidate {
	candidate := &book.Candidate{
		ExternalID: "ol-" + isbn,
		Title:      edition.Title,
		Source:     book.SourceOpenLibrary,
	}

	if edition.Subtitle != "" {
		candidate.Subtitle = &edition.Subtitle
	}
	if len(edition.Publishers) > 0 && edition.Publishers[0] != "" {
		candidate.Publisher = &edition.Publishers[0]
	}
	if desc := extractDescription(edition.Description); desc != "" {
		candidate.Description = &desc
	}
	if edition.NumberOfPages > 0 {
		candidate.Pages = &edition.NumberOfPages
	}
	if len(edition.Subjects) > 0 {
		candidate.Categories = edition.Subjects
	}
	if year := parsePublishYear(edition.PublishDate); year != nil {
		candidate.PublishedYear = year
	}
	if len(edition.Covers) > 0 && edition.Covers[0] > 0 {
		coverURL := c.coverURL(edition.Covers[0])
		candidate.CoverURL = &coverURL
	}
	if lang := extractLanguage(edition.Languages); lang != "" {
		candidate.Language = &lang
	}

	recordISBN := isbn
	switch {
	case len(edition.ISBN13) > 0 && edition.ISBN13[0] != "":
		recordISBN = edition.ISBN13[0]
	case len(edition.ISBN10) > 0 && edition.ISBN10[0] != "":
		recordISBN = edition.ISBN10[0]
	}
	candidate.ISBN = &recordISBN

	return candidate
}

func (c *Client) mapSearchDoc(doc *searchDoc) *book.Candidate {
	candidate := &book.Candidate{
		ExternalID: "ol-" + strings.TrimPrefix(doc.Key, "/works/"),
		Title:      doc.Title,
		Authors:    book.AuthorNames(doc.AuthorName),
		Source:     book.SourceOpenLibrary,
	}

	if doc.Subtitle != "" {
		candidate.Subtitle = &doc.Subtitle
	}
	if len(doc.Publisher) > 0 && doc.Publisher[0] != "" {
		candidate.Publisher = &doc.Publisher[0]
	}
	if doc.FirstPublishYear > 0 {
		year := doc.FirstPublishYear
		candidate.PublishedYear = &year
	}
	if len(doc.ISBN) > 0 && doc.ISBN[0] != "" {
		isbn := preferISBN13(doc.ISBN)
		candidate.ISBN = &isbn
	}
	if doc.CoverI > 0 {
		coverURL := c.coverURL(doc.CoverI)
		candidate.CoverURL = &coverURL
	}
	if len(doc.Language) > 0 && doc.Language[0] != "" {
		candidate.Language = &doc.Language[0]
	}
	if len(doc.Subject) > 0 {
		candidate.Categories = doc.Subject
	}

	return candidate
}

// coverURL synthesizes the large cover image URL from a numeric cover id.
func (c *Client) coverURL(coverID int) string {
	return fmt.Sprintf("%s/b/id/%d-L.jpg", c.coversBaseURL, coverID)
}

// extractDescription normalizes the two shapes descriptions arrive in:
// a plain string or an object with a "value" field.
func extractDescription(desc any) string {
	switch v := desc.(type) {
	case string:
		return v
	case map[string]any:
		if val, ok := v["value"].(string); ok {
			return val
		}
	}
	return ""
}

// parsePublishYear takes the last whitespace-delimited token of a
// publish-date string ("March 1999" -> 1999). Non-numeric tails become nil.
func parsePublishYear(date string) *int {
	fields := strings.Fields(date)
	if len(fields) == 0 {
		return nil
	}
	year, err := strconv.Atoi(fields[len(fields)-1])
	if err != nil {
		return nil
	}
	return &year
}

// extractLanguage pulls the code out of a key like "/languages/eng".
func extractLanguage(refs []keyRef) string {
	if len(refs) == 0 {
		return ""
	}
	parts := strings.Split(refs[0].Key, "/")
	return parts[len(parts)-1]
}

// preferISBN13 picks the first 13-digit ISBN from a mixed list, falling
// back to the first entry.
func preferISBN13(isbns []string) string {
	for _, isbn := range isbns {
		if len(book.NormalizeISBN(isbn)) == 13 {
			return isbn
		}
	}
	return isbns[0]
}
