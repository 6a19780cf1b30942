package googlebooks

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/velkoja/bookscout/internal/book"
	"github.com/velkoja/bookscout/internal/testutil"
)

func setupTestServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	env := testutil.NewTestEnv(t)
	testutil.SetupTestCache(t, env)

	return New("test-key", WithBaseURL(server.URL))
}

func volumesJSON(items ...map[string]any) []byte {
	data, _ := json.Marshal(map[string]any{
		"totalItems": len(items),
		"items":      items,
	})
	return data
}

func TestSearchByISBN(t *testing.T) {
	client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "isbn:9780544003415", r.URL.Query().Get("q"))
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(volumesJSON(map[string]any{
			"id": "vol-123",
			"volumeInfo": map[string]any{
				"title":         "The Lord of the Rings",
				"subtitle":      "One Volume",
				"authors":       []string{"J.R.R. Tolkien"},
				"publisher":     "Mariner Books",
				"publishedDate": "2012-09-18",
				"description":   "An epic.",
				"pageCount":     1216,
				"language":      "en",
				"categories":    []string{"Fiction"},
				"industryIdentifiers": []map[string]string{
					{"type": "ISBN_10", "identifier": "0544003411"},
					{"type": "ISBN_13", "identifier": "9780544003415"},
				},
				"imageLinks": map[string]string{
					"thumbnail": "http://books.google.com/thumb.jpg",
					"large":     "http://books.google.com/large.jpg",
				},
			},
		}))
	})

	candidate, err := client.SearchByISBN(context.Background(), "978-0-544-00341-5")
	require.NoError(t, err)
	require.NotNil(t, candidate)

	assert.Equal(t, "vol-123", candidate.ExternalID)
	assert.Equal(t, "The Lord of the Rings", candidate.Title)
	assert.Equal(t, book.SourceGoogle, candidate.Source)
	require.Len(t, candidate.Authors, 1)
	assert.Equal(t, "J.R.R. Tolkien", candidate.Authors[0].Name)
	require.NotNil(t, candidate.Subtitle)
	assert.Equal(t, "One Volume", *candidate.Subtitle)
	require.NotNil(t, candidate.PublishedYear)
	assert.Equal(t, 2012, *candidate.PublishedYear)
	require.NotNil(t, candidate.Pages)
	assert.Equal(t, 1216, *candidate.Pages)

	// ISBN_13 wins over ISBN_10.
	require.NotNil(t, candidate.ISBN)
	assert.Equal(t, "9780544003415", *candidate.ISBN)

	// Largest image wins, rewritten to https.
	require.NotNil(t, candidate.CoverURL)
	assert.Equal(t, "https://books.google.com/large.jpg", *candidate.CoverURL)
}

func TestSearchByISBN_NotFound(t *testing.T) {
	client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(volumesJSON())
	})

	candidate, err := client.SearchByISBN(context.Background(), "9780000000000")
	require.NoError(t, err)
	assert.Nil(t, candidate)
}

func TestSearchByISBN_SkipsTitlelessItems(t *testing.T) {
	client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(volumesJSON(
			map[string]any{
				"id":         "vol-empty",
				"volumeInfo": map[string]any{},
			},
			map[string]any{
				"id": "vol-good",
				"volumeInfo": map[string]any{
					"title": "Real Title",
				},
			},
		))
	})

	candidate, err := client.SearchByISBN(context.Background(), "9780544003415")
	require.NoError(t, err)
	require.NotNil(t, candidate)
	assert.Equal(t, "vol-good", candidate.ExternalID)
}

func TestSearchByISBN_EmptyISBN(t *testing.T) {
	client := New("test-key")
	_, err := client.SearchByISBN(context.Background(), "")
	assert.ErrorIs(t, err, book.ErrInvalidISBN)
}

func TestSearchByISBN_ServerError(t *testing.T) {
	client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	})

	_, err := client.SearchByISBN(context.Background(), "9780544003415")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestSearchByISBN_UsesCache(t *testing.T) {
	requestCount := 0
	client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		requestCount++
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(volumesJSON(map[string]any{
			"id": "vol-cached",
			"volumeInfo": map[string]any{
				"title": "Cached Book",
			},
		}))
	})

	ctx := context.Background()
	first, err := client.SearchByISBN(ctx, "9780544003415")
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := client.SearchByISBN(ctx, "9780544003415")
	require.NoError(t, err)
	require.NotNil(t, second)

	assert.Equal(t, 1, requestCount, "second lookup should be served from cache")
	assert.Equal(t, first.Title, second.Title)
}

func TestSearchByTitle(t *testing.T) {
	client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "intitle:dune inauthor:herbert", r.URL.Query().Get("q"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(volumesJSON(
			map[string]any{
				"id": "vol-1",
				"volumeInfo": map[string]any{
					"title":   "Dune",
					"authors": []string{"Frank Herbert"},
				},
			},
			map[string]any{
				"id":         "vol-untitled",
				"volumeInfo": map[string]any{},
			},
			map[string]any{
				"id": "vol-2",
				"volumeInfo": map[string]any{
					"title": "Dune Messiah",
				},
			},
		))
	})

	candidates, err := client.SearchByTitle(context.Background(), "dune", "herbert")
	require.NoError(t, err)
	require.Len(t, candidates, 2)
	assert.Equal(t, "Dune", candidates[0].Title)
	assert.Equal(t, "Dune Messiah", candidates[1].Title)
}

func TestSearchByTitle_EmptyTitle(t *testing.T) {
	client := New("test-key")
	_, err := client.SearchByTitle(context.Background(), "   ", "")
	assert.Error(t, err)
}

func TestSelectCoverURL(t *testing.T) {
	tests := []struct {
		name  string
		links imageLinks
		want  string
	}{
		{
			name:  "extraLarge preferred",
			links: imageLinks{ExtraLarge: "https://x/xl.jpg", Thumbnail: "https://x/t.jpg"},
			want:  "https://x/xl.jpg",
		},
		{
			name:  "falls back to thumbnail",
			links: imageLinks{Thumbnail: "https://x/t.jpg", SmallThumbnail: "https://x/st.jpg"},
			want:  "https://x/t.jpg",
		},
		{
			name:  "http rewritten to https",
			links: imageLinks{SmallThumbnail: "http://x/st.jpg"},
			want:  "https://x/st.jpg",
		},
		{
			name:  "no links",
			links: imageLinks{},
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, selectCoverURL(&tt.links))
		})
	}
}

func TestParseYear(t *testing.T) {
	tests := map[string]*int{
		"1999":       intPtr(1999),
		"1999-03":    intPtr(1999),
		"1999-03-01": intPtr(1999),
		"n.d.":       nil,
		"":           nil,
		"99":         nil,
	}

	for input, want := range tests {
		got := parseYear(input)
		if want == nil {
			assert.Nil(t, got, "parseYear(%q)", input)
		} else {
			require.NotNil(t, got, "parseYear(%q)", input)
			assert.Equal(t, *want, *got)
		}
	}
}

func intPtr(v int) *int { return &v }
