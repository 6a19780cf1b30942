package amazon

import (
	"encoding/json"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/velkoja/bookscout/internal/book"
)

// searchHit is one row on the storefront search results page.
type searchHit struct {
	title      string
	detailPath string
}

// isbn13Pattern matches a 13-digit ISBN with optional hyphenation, as it
// appears in the product details section.
var isbn13Pattern = regexp.MustCompile(`97[89][0-9-]{10,14}`)

// pagesPattern matches page counts in German and English detail bullets.
var pagesPattern = regexp.MustCompile(`(\d+)\s+(?:Seiten|pages)`)

// extractSearchHits pulls result rows from the search page. The storefront
// markup varies between deployments, so a fallback selector set is tried
// when the primary one yields nothing.
func extractSearchHits(doc *goquery.Document) []searchHit {
	hits := collectHits(doc, "div.s-main-slot div[data-component-type='s-search-result']", "h2 a")
	if len(hits) == 0 {
		hits = collectHits(doc, "div.s-result-list div.s-result-item[data-asin]", "a.a-link-normal.s-link-style, h2 a.a-link-normal")
	}
	if len(hits) > maxSearchResults {
		hits = hits[:maxSearchResults]
	}
	return hits
}

func collectHits(doc *goquery.Document, itemSelector, linkSelector string) []searchHit {
	var hits []searchHit
	doc.Find(itemSelector).Each(func(i int, s *goquery.Selection) {
		link := s.Find(linkSelector).First()
		href := link.AttrOr("href", "")
		title := strings.TrimSpace(link.Text())
		if href == "" {
			return
		}
		hits = append(hits, searchHit{title: title, detailPath: href})
	})
	return hits
}

// extractDetail builds a candidate from a product detail page. Returns nil
// when no usable title is present (selector drift or a non-book page).
// queryISBN is stamped on the record when page extraction yields no ISBN.
func extractDetail(doc *goquery.Document, queryISBN string) *book.Candidate {
	rawTitle := strings.TrimSpace(doc.Find("#productTitle").First().Text())
	if rawTitle == "" {
		slog.Debug("Amazon detail page had no product title")
		return nil
	}

	title, subtitle := splitTitle(rawTitle)

	candidate := &book.Candidate{
		ExternalID: "amazon-" + queryISBN,
		Title:      title,
		Authors:    extractAuthors(doc),
		Source:     book.SourceAmazon,
	}
	if subtitle != "" {
		candidate.Subtitle = &subtitle
	}

	if coverURL := extractCoverURL(doc); coverURL != "" {
		candidate.CoverURL = &coverURL
	}
	if publisher := extractDetailField(doc, "Verlag", "Publisher"); publisher != "" {
		candidate.Publisher = &publisher
	}
	if pages := extractPages(doc); pages > 0 {
		candidate.Pages = &pages
	}

	// The record must always report some ISBN when the caller searched by
	// one, even if unverified.
	isbn := extractISBN13(doc)
	if isbn == "" {
		isbn = queryISBN
	}
	candidate.ISBN = &isbn

	return candidate
}

// splitTitle separates "Title: Subtitle" on the first colon.
func splitTitle(raw string) (title, subtitle string) {
	if idx := strings.Index(raw, ":"); idx > 0 {
		return strings.TrimSpace(raw[:idx]), strings.TrimSpace(raw[idx+1:])
	}
	return raw, ""
}

func extractAuthors(doc *goquery.Document) []book.Author {
	var names []string
	seen := make(map[string]bool)
	doc.Find("#bylineInfo .author a").Each(func(i int, s *goquery.Selection) {
		name := strings.TrimSpace(s.Text())
		if name == "" || seen[name] {
			return
		}
		seen[name] = true
		names = append(names, name)
	})
	if len(names) == 0 {
		doc.Find("#bylineInfo a.contributorNameID").Each(func(i int, s *goquery.Selection) {
			name := strings.TrimSpace(s.Text())
			if name != "" && !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		})
	}
	return book.AuthorNames(names)
}

// extractCoverURL prefers the highest-resolution URL from the dynamic-image
// JSON attribute, falling back to the plain src.
func extractCoverURL(doc *goquery.Document) string {
	img := doc.Find("#imgBlkFront, #landingImage").First()
	if img.Length() == 0 {
		return ""
	}

	if dynamic, ok := img.Attr("data-a-dynamic-image"); ok {
		if best := bestDynamicImage(dynamic); best != "" {
			return best
		}
	}
	return img.AttrOr("src", "")
}

// bestDynamicImage parses the {"url": [width, height], ...} attribute and
// returns the widest image.
func bestDynamicImage(attr string) string {
	var images map[string][2]float64
	if err := json.Unmarshal([]byte(attr), &images); err != nil {
		slog.Debug("Failed to parse dynamic image attribute", "error", err)
		return ""
	}

	var best string
	var bestWidth float64
	for url, dims := range images {
		if dims[0] > bestWidth {
			bestWidth = dims[0]
			best = url
		}
	}
	return best
}

// extractDetailField scans the product details bullets for a label and
// returns the trailing value, e.g. "Verlag : Klett-Cotta" -> "Klett-Cotta".
func extractDetailField(doc *goquery.Document, labels ...string) string {
	var value string
	doc.Find("#detailBullets_feature_div li, #productDetails_detailBullets_sections1 tr").EachWithBreak(func(i int, s *goquery.Selection) bool {
		text := strings.TrimSpace(s.Text())
		for _, label := range labels {
			if !strings.Contains(text, label) {
				continue
			}
			if idx := strings.Index(text, ":"); idx >= 0 {
				value = cleanDetailValue(text[idx+1:])
				return false
			}
		}
		return true
	})
	return value
}

// cleanDetailValue strips the "(1. Edition, 2001)" style suffix the
// storefront appends to publisher names.
func cleanDetailValue(value string) string {
	value = strings.TrimSpace(value)
	if idx := strings.Index(value, "("); idx > 0 {
		value = strings.TrimSpace(value[:idx])
	}
	return strings.Trim(value, "; ")
}

// extractISBN13 finds the ISBN-13 via regex in any details section whose
// text mentions "ISBN-13".
func extractISBN13(doc *goquery.Document) string {
	var isbn string
	doc.Find("#detailBullets_feature_div li, #productDetails_detailBullets_sections1 tr, #detailBulletsWrapper_feature_div li").EachWithBreak(func(i int, s *goquery.Selection) bool {
		text := s.Text()
		if !strings.Contains(text, "ISBN-13") {
			return true
		}
		if match := isbn13Pattern.FindString(text); match != "" {
			isbn = book.NormalizeISBN(match)
			return false
		}
		return true
	})
	return isbn
}

func extractPages(doc *goquery.Document) int {
	text := doc.Find("#detailBullets_feature_div, #productDetails_detailBullets_sections1").Text()
	match := pagesPattern.FindStringSubmatch(text)
	if len(match) < 2 {
		return 0
	}
	pages, err := strconv.Atoi(match[1])
	if err != nil {
		return 0
	}
	return pages
}
