// Package catalog stores the user's personal book catalog in SQLite and
// provides the reconciliation lookup that marks search candidates as
// already owned.
package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/velkoja/bookscout/internal/book"
)

// ErrNotFound is returned when no catalog entry matches the given id.
var ErrNotFound = errors.New("catalog entry not found")

const booksSchema = `
CREATE TABLE IF NOT EXISTS books (
	id TEXT PRIMARY KEY NOT NULL,
	title TEXT NOT NULL,
	authors TEXT NOT NULL DEFAULT '[]',
	isbn TEXT NOT NULL DEFAULT '',
	publisher TEXT NOT NULL DEFAULT '',
	published_year INTEGER NOT NULL DEFAULT 0,
	pages INTEGER NOT NULL DEFAULT 0,
	added_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_books_isbn ON books(isbn);
`

// Book is one catalog entry. Unlike search candidates, catalog entries are
// persistent and carry an internal id.
type Book struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Authors       []string  `json:"authors"`
	ISBN          string    `json:"isbn"`
	Publisher     string    `json:"publisher"`
	PublishedYear int       `json:"published_year"`
	Pages         int       `json:"pages"`
	AddedAt       time.Time `json:"added_at"`
}

// Store is a SQLite-backed catalog.
type Store struct {
	db     *sql.DB
	dbPath string
}

// Open opens (and if needed initializes) the catalog database.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog database: %w", err)
	}
	if err := db.Ping(); err != nil {
		closeErr := db.Close()
		return nil, errors.Join(fmt.Errorf("failed to connect to catalog database: %w", err), closeErr)
	}
	if _, err := db.Exec(booksSchema); err != nil {
		closeErr := db.Close()
		return nil, errors.Join(fmt.Errorf("failed to create books table: %w", err), closeErr)
	}
	return &Store{db: db, dbPath: dbPath}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Add inserts a book, assigning an id when none is set. The ISBN is
// normalized on write so reconciliation lookups compare equal forms.
func (s *Store) Add(ctx context.Context, b Book) (Book, error) {
	if strings.TrimSpace(b.Title) == "" {
		return Book{}, fmt.Errorf("book title is required")
	}
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	b.ISBN = book.NormalizeISBN(b.ISBN)
	if b.AddedAt.IsZero() {
		b.AddedAt = time.Now().UTC()
	}

	authorsJSON, err := json.Marshal(b.Authors)
	if err != nil {
		return Book{}, fmt.Errorf("failed to encode authors: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO books (id, title, authors, isbn, publisher, published_year, pages, added_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.Title, string(authorsJSON), b.ISBN, b.Publisher, b.PublishedYear, b.Pages, b.AddedAt,
	)
	if err != nil {
		return Book{}, fmt.Errorf("failed to insert book: %w", err)
	}
	return b, nil
}

// Get returns one catalog entry by id.
func (s *Store) Get(ctx context.Context, id string) (Book, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, title, authors, isbn, publisher, published_year, pages, added_at
		FROM books WHERE id = ?`, id)

	b, err := scanBook(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Book{}, ErrNotFound
	}
	if err != nil {
		return Book{}, fmt.Errorf("failed to load book: %w", err)
	}
	return b, nil
}

// List returns all catalog entries ordered by title.
func (s *Store) List(ctx context.Context) ([]Book, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, authors, isbn, publisher, published_year, pages, added_at
		FROM books ORDER BY title COLLATE NOCASE`)
	if err != nil {
		return nil, fmt.Errorf("failed to list books: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var books []Book
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan book: %w", err)
		}
		books = append(books, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate books: %w", err)
	}
	return books, nil
}

// Remove deletes one catalog entry by id.
func (s *Store) Remove(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM books WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete book: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Index loads the full catalog and builds the reconciliation lookup maps.
func (s *Store) Index(ctx context.Context) (Index, error) {
	books, err := s.List(ctx)
	if err != nil {
		return Index{}, err
	}
	return NewIndex(books), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBook(row rowScanner) (Book, error) {
	var b Book
	var authorsJSON string
	if err := row.Scan(&b.ID, &b.Title, &authorsJSON, &b.ISBN, &b.Publisher, &b.PublishedYear, &b.Pages, &b.AddedAt); err != nil {
		return Book{}, err
	}
	if authorsJSON != "" {
		if err := json.Unmarshal([]byte(authorsJSON), &b.Authors); err != nil {
			return Book{}, fmt.Errorf("failed to decode authors: %w", err)
		}
	}
	return b, nil
}

// FromCandidate converts a resolved search candidate into a catalog entry
// ready for Add.
func FromCandidate(c *book.Candidate) Book {
	b := Book{Title: c.Title}
	for _, author := range c.Authors {
		b.Authors = append(b.Authors, author.Name)
	}
	if c.ISBN != nil {
		b.ISBN = *c.ISBN
	}
	if c.Publisher != nil {
		b.Publisher = *c.Publisher
	}
	if c.PublishedYear != nil {
		b.PublishedYear = *c.PublishedYear
	}
	if c.Pages != nil {
		b.Pages = *c.Pages
	}
	return b
}
