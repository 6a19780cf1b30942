package book

import (
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestNormalizeISBN(t *testing.T) {
	tests := map[string]string{
		"978-0-544-00341-5": "9780544003415",
		"9780544003415":     "9780544003415",
		"978 0 544 00341 5": "9780544003415",
		"0-544-00341-1":     "0544003411",
		"":                  "",
	}

	for input, want := range tests {
		assert.Equal(t, want, NormalizeISBN(input))
	}
}

func TestNormalizeTitle(t *testing.T) {
	tests := map[string]string{
		"The Hobbit":     "the hobbit",
		"  The Hobbit  ": "the hobbit",
		"DUNE":           "dune",
		"":               "",
		"   ":            "",
	}

	for input, want := range tests {
		assert.Equal(t, want, NormalizeTitle(input))
	}
}

func TestAuthorNames(t *testing.T) {
	authors := AuthorNames([]string{"J.R.R. Tolkien", "", "  ", "Christopher Tolkien"})
	assert.Equal(t, 2, len(authors))
	assert.Equal(t, "J.R.R. Tolkien", authors[0].Name)
	assert.Equal(t, "Christopher Tolkien", authors[1].Name)

	assert.Zero(t, AuthorNames(nil))
	assert.Zero(t, AuthorNames([]string{"", "  "}))
}
