package openlibrary

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/velkoja/bookscout/internal/book"
	"github.com/velkoja/bookscout/internal/testutil"
)

func setupTestServer(t *testing.T, mux *http.ServeMux) *Client {
	t.Helper()

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	env := testutil.NewTestEnv(t)
	testutil.SetupTestCache(t, env)

	return New(WithBaseURL(server.URL), WithCoversBaseURL("https://covers.example.org"))
}

func TestSearchByISBN(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/isbn/9780140328721.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"title": "Fantastic Mr Fox",
			"publishers": ["Puffin"],
			"publish_date": "October 1, 1988",
			"number_of_pages": 96,
			"covers": [8739161],
			"isbn_13": ["9780140328721"],
			"isbn_10": ["0140328726"],
			"authors": [{"key": "/authors/OL34184A"}, {"key": "/authors/OL99999A"}],
			"languages": [{"key": "/languages/eng"}],
			"description": {"value": "A cunning fox outwits three farmers."}
		}`)
	})
	mux.HandleFunc("/authors/OL34184A.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"name": "Roald Dahl"}`)
	})
	mux.HandleFunc("/authors/OL99999A.json", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "server error", http.StatusInternalServerError)
	})

	client := setupTestServer(t, mux)

	candidate, err := client.SearchByISBN(context.Background(), "978-0-14-032872-1")
	require.NoError(t, err)
	require.NotNil(t, candidate)

	assert.Equal(t, "ol-9780140328721", candidate.ExternalID)
	assert.Equal(t, "Fantastic Mr Fox", candidate.Title)
	assert.Equal(t, book.SourceOpenLibrary, candidate.Source)

	// The failing author is skipped, not fatal.
	require.Len(t, candidate.Authors, 1)
	assert.Equal(t, "Roald Dahl", candidate.Authors[0].Name)

	require.NotNil(t, candidate.Publisher)
	assert.Equal(t, "Puffin", *candidate.Publisher)
	require.NotNil(t, candidate.PublishedYear)
	assert.Equal(t, 1988, *candidate.PublishedYear)
	require.NotNil(t, candidate.Pages)
	assert.Equal(t, 96, *candidate.Pages)
	require.NotNil(t, candidate.ISBN)
	assert.Equal(t, "9780140328721", *candidate.ISBN)
	require.NotNil(t, candidate.CoverURL)
	assert.Equal(t, "https://covers.example.org/b/id/8739161-L.jpg", *candidate.CoverURL)
	require.NotNil(t, candidate.Language)
	assert.Equal(t, "eng", *candidate.Language)
	require.NotNil(t, candidate.Description)
	assert.Equal(t, "A cunning fox outwits three farmers.", *candidate.Description)
}

func TestSearchByISBN_NotFound(t *testing.T) {
	mux := http.NewServeMux()
	// No handler registered for the ISBN path; ServeMux returns 404.
	client := setupTestServer(t, mux)

	candidate, err := client.SearchByISBN(context.Background(), "9780000000000")
	require.NoError(t, err)
	assert.Nil(t, candidate)
}

func TestSearchByISBN_ServerError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/isbn/9780140328721.json", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream broken", http.StatusBadGateway)
	})
	client := setupTestServer(t, mux)

	_, err := client.SearchByISBN(context.Background(), "9780140328721")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestSearchByISBN_TitlelessRecord(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/isbn/9780140328721.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"publishers": ["Puffin"]}`)
	})
	client := setupTestServer(t, mux)

	candidate, err := client.SearchByISBN(context.Background(), "9780140328721")
	require.NoError(t, err)
	assert.Nil(t, candidate)
}

func TestSearchByISBN_FallsBackToQueryISBN(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/isbn/9780140328721.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"title": "Bare Edition"}`)
	})
	client := setupTestServer(t, mux)

	candidate, err := client.SearchByISBN(context.Background(), "9780140328721")
	require.NoError(t, err)
	require.NotNil(t, candidate)

	// No isbn_13/isbn_10 on the record: the queried ISBN is reported.
	require.NotNil(t, candidate.ISBN)
	assert.Equal(t, "9780140328721", *candidate.ISBN)
}

func TestSearchByISBN_EmptyISBN(t *testing.T) {
	client := New()
	_, err := client.SearchByISBN(context.Background(), "")
	assert.ErrorIs(t, err, book.ErrInvalidISBN)
}

func TestSearchByTitle(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/search.json", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "the hobbit", r.URL.Query().Get("title"))
		assert.Equal(t, "tolkien", r.URL.Query().Get("author"))
		assert.Equal(t, "10", r.URL.Query().Get("limit"))

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"numFound": 2,
			"docs": [
				{
					"key": "/works/OL262758W",
					"title": "The Hobbit",
					"author_name": ["J.R.R. Tolkien"],
					"publisher": ["Houghton Mifflin"],
					"first_publish_year": 1937,
					"isbn": ["0547928227", "9780547928227"],
					"cover_i": 14627509,
					"language": ["eng"]
				},
				{
					"key": "/works/OL000000W"
				}
			]
		}`)
	})
	client := setupTestServer(t, mux)

	candidates, err := client.SearchByTitle(context.Background(), "the hobbit", "tolkien")
	require.NoError(t, err)
	require.Len(t, candidates, 1, "titleless doc should be dropped")

	c := candidates[0]
	assert.Equal(t, "ol-OL262758W", c.ExternalID)
	assert.Equal(t, "The Hobbit", c.Title)
	require.NotNil(t, c.PublishedYear)
	assert.Equal(t, 1937, *c.PublishedYear)

	// The 13-digit ISBN wins even when listed second.
	require.NotNil(t, c.ISBN)
	assert.Equal(t, "9780547928227", *c.ISBN)

	require.NotNil(t, c.CoverURL)
	assert.Equal(t, "https://covers.example.org/b/id/14627509-L.jpg", *c.CoverURL)
}

func TestExtractDescription(t *testing.T) {
	assert.Equal(t, "plain", extractDescription("plain"))
	assert.Equal(t, "wrapped", extractDescription(map[string]any{"value": "wrapped"}))
	assert.Equal(t, "", extractDescription(nil))
	assert.Equal(t, "", extractDescription(map[string]any{"type": "/type/text"}))
}

func TestParsePublishYear(t *testing.T) {
	tests := map[string]*int{
		"1999":            intPtr(1999),
		"March 1999":      intPtr(1999),
		"October 1, 1988": intPtr(1988),
		"n.d.":            nil,
		"":                nil,
	}

	for input, want := range tests {
		got := parsePublishYear(input)
		if want == nil {
			assert.Nil(t, got, "parsePublishYear(%q)", input)
		} else {
			require.NotNil(t, got, "parsePublishYear(%q)", input)
			assert.Equal(t, *want, *got)
		}
	}
}

func intPtr(v int) *int { return &v }
