package catalog

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"gopkg.in/yaml.v3"
)

// shelfFile is the YAML import format: a flat list of owned books.
type shelfFile struct {
	Books []shelfBook `yaml:"books"`
}

type shelfBook struct {
	Title         string   `yaml:"title"`
	Authors       []string `yaml:"authors"`
	ISBN          string   `yaml:"isbn"`
	Publisher     string   `yaml:"publisher"`
	PublishedYear int      `yaml:"published_year"`
	Pages         int      `yaml:"pages"`
}

// ImportYAML reads a shelf file and inserts every listed book. Entries
// without a title are skipped with a warning; the import continues.
// Returns the number of books added.
func (s *Store) ImportYAML(ctx context.Context, r io.Reader) (int, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, fmt.Errorf("failed to read shelf file: %w", err)
	}

	var shelf shelfFile
	if err := yaml.Unmarshal(data, &shelf); err != nil {
		return 0, fmt.Errorf("failed to parse shelf file: %w", err)
	}

	added := 0
	for i, entry := range shelf.Books {
		if entry.Title == "" {
			slog.Warn("Skipping shelf entry without title", "index", i)
			continue
		}
		_, err := s.Add(ctx, Book{
			Title:         entry.Title,
			Authors:       entry.Authors,
			ISBN:          entry.ISBN,
			Publisher:     entry.Publisher,
			PublishedYear: entry.PublishedYear,
			Pages:         entry.Pages,
		})
		if err != nil {
			return added, fmt.Errorf("failed to import %q: %w", entry.Title, err)
		}
		added++
	}
	return added, nil
}
