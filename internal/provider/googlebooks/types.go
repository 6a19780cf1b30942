package googlebooks

import (
	"strconv"
	"strings"

	"github.com/velkoja/bookscout/internal/book"
)

// volumesResponse matches the Google Books volumes API response structure.
// Title is the only required field on a volume; everything else is optional.
type volumesResponse struct {
	TotalItems int      `json:"totalItems"`
	Items      []volume `json:"items"`
}

type volume struct {
	ID         string     `json:"id"`
	VolumeInfo volumeInfo `json:"volumeInfo"`
}

type volumeInfo struct {
	Title               string               `json:"title"`
	Subtitle            string               `json:"subtitle"`
	Authors             []string             `json:"authors"`
	Publisher           string               `json:"publisher"`
	PublishedDate       string               `json:"publishedDate"`
	Description         string               `json:"description"`
	IndustryIdentifiers []industryIdentifier `json:"industryIdentifiers"`
	PageCount           int                  `json:"pageCount"`
	Categories          []string             `json:"categories"`
	Language            string               `json:"language"`
	ImageLinks          imageLinks           `json:"imageLinks"`
}

type industryIdentifier struct {
	Type       string `json:"type"`
	Identifier string `json:"identifier"`
}

type imageLinks struct {
	SmallThumbnail string `json:"smallThumbnail"`
	Thumbnail      string `json:"thumbnail"`
	Small          string `json:"small"`
	Medium         string `json:"medium"`
	Large          string `json:"large"`
	ExtraLarge     string `json:"extraLarge"`
}

// mapVolume normalizes one validated volume into a candidate record.
func mapVolume(v *volume) *book.Candidate {
	info := &v.VolumeInfo

	candidate := &book.Candidate{
		ExternalID: v.ID,
		Title:      info.Title,
		Authors:    book.AuthorNames(info.Authors),
		Source:     book.SourceGoogle,
	}

	if info.Subtitle != "" {
		candidate.Subtitle = &info.Subtitle
	}
	if info.Publisher != "" {
		candidate.Publisher = &info.Publisher
	}
	if info.Description != "" {
		candidate.Description = &info.Description
	}
	if info.PageCount > 0 {
		candidate.Pages = &info.PageCount
	}
	if info.Language != "" {
		candidate.Language = &info.Language
	}
	if len(info.Categories) > 0 {
		candidate.Categories = info.Categories
	}
	if year := parseYear(info.PublishedDate); year != nil {
		candidate.PublishedYear = year
	}
	if coverURL := selectCoverURL(&info.ImageLinks); coverURL != "" {
		candidate.CoverURL = &coverURL
	}
	if isbn := extractISBN(info.IndustryIdentifiers); isbn != "" {
		candidate.ISBN = &isbn
	}

	return candidate
}

// selectCoverURL picks the largest available image and rewrites http to
// https.
func selectCoverURL(links *imageLinks) string {
	// Ordered preference, largest first.
	for _, u := range []string{
		links.ExtraLarge,
		links.Large,
		links.Medium,
		links.Small,
		links.Thumbnail,
		links.SmallThumbnail,
	} {
		if u != "" {
			return forceHTTPS(u)
		}
	}
	return ""
}

func forceHTTPS(u string) string {
	if strings.HasPrefix(u, "http://") {
		return "https://" + strings.TrimPrefix(u, "http://")
	}
	return u
}

// extractISBN prefers ISBN_13 over ISBN_10 when both are present.
func extractISBN(identifiers []industryIdentifier) string {
	var isbn10 string
	for _, id := range identifiers {
		switch id.Type {
		case "ISBN_13":
			if id.Identifier != "" {
				return id.Identifier
			}
		case "ISBN_10":
			if isbn10 == "" {
				isbn10 = id.Identifier
			}
		}
	}
	return isbn10
}

// parseYear extracts a four-digit year from publishedDate values like
// "1999", "1999-03" or "1999-03-01". Unparseable dates yield nil, not zero.
func parseYear(date string) *int {
	date = strings.TrimSpace(date)
	if len(date) < 4 {
		return nil
	}
	year, err := strconv.Atoi(date[:4])
	if err != nil {
		return nil
	}
	return &year
}
