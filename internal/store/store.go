// Package store persists enriched articles. It exposes the handful of
// collection operations the pipeline consumes (find-one by source URL,
// insert-one, count, distinct categories) with the record schema
// enforced in front of every insert and a unique index on source_url as
// the last line of defense against duplicates.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// ErrInvalidRecord marks a record that failed schema validation. The
// article is rejected and reported as a per-article failure.
var ErrInvalidRecord = errors.New("invalid record")

// ErrStoreUnavailable marks an infrastructure failure reaching the store.
// Unlike the other error classes it is fatal to the whole run.
var ErrStoreUnavailable = errors.New("store unavailable")

// Article is the persisted, schema-validated record.
type Article struct {
	ID              int64     `json:"id"`
	Title           string    `json:"title"`
	CoverImage      string    `json:"coverImage"`
	PublisherName   string    `json:"publisherName"`
	PublisherLogo   string    `json:"publisherLogo"`
	AuthorName      string    `json:"authorName"`
	DatePosted      time.Time `json:"datePosted"`
	QuickSummary    string    `json:"quickSummary"`
	DetailedSummary string    `json:"detailedSummary"`
	WhyItMatters    string    `json:"whyItMatters"`
	SourceURL       string    `json:"sourceUrl"`
	Category        string    `json:"category"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// SaveStatus is the outcome of pushing one article through the gate.
type SaveStatus string

const (
	StatusInserted  SaveStatus = "inserted"
	StatusDuplicate SaveStatus = "duplicate"
)

// SaveResult reports what happened to one article.
type SaveResult struct {
	Status SaveStatus
	ID     int64 // ID of the stored record (existing one for duplicates)
}

// Store wraps the SQLite database holding the article corpus.
type Store struct {
	conn *sql.DB
	path string
}

// Open creates or opens the article store at the given path.
func Open(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("%w: setting journal mode: %v", ErrStoreUnavailable, err)
	}

	if err := migrate(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("%w: migrating schema: %v", ErrStoreUnavailable, err)
	}

	return &Store{conn: conn, path: dbPath}, nil
}

// Close closes the underlying connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// Save runs one article through the deduplication and persistence gate:
// validate, look up by source URL, insert if absent. A duplicate is an
// outcome, not an error. The check-then-insert is not atomic; the unique
// index catches the race and a constraint violation is reported as a
// duplicate too.
func (s *Store) Save(a *Article) (*SaveResult, error) {
	if err := Validate(a); err != nil {
		return nil, err
	}

	existing, err := s.FindBySourceURL(a.SourceURL)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return &SaveResult{Status: StatusDuplicate, ID: existing.ID}, nil
	}

	result, err := s.conn.Exec(
		`INSERT INTO articles (title, cover_image, publisher_name, publisher_logo,
			author_name, date_posted, quick_summary, detailed_summary, why_it_matters,
			source_url, category, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.Title, a.CoverImage, a.PublisherName, a.PublisherLogo,
		a.AuthorName, a.DatePosted.UTC().Format(time.RFC3339), a.QuickSummary,
		a.DetailedSummary, a.WhyItMatters, a.SourceURL, a.Category,
		a.CreatedAt.UTC().Format(time.RFC3339), a.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			if existing, ferr := s.FindBySourceURL(a.SourceURL); ferr == nil && existing != nil {
				return &SaveResult{Status: StatusDuplicate, ID: existing.ID}, nil
			}
			return &SaveResult{Status: StatusDuplicate}, nil
		}
		return nil, fmt.Errorf("%w: inserting article: %v", ErrStoreUnavailable, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	a.ID = id
	return &SaveResult{Status: StatusInserted, ID: id}, nil
}

// FindBySourceURL returns the article with the given source URL, or nil.
func (s *Store) FindBySourceURL(sourceURL string) (*Article, error) {
	row := s.conn.QueryRow(selectColumns+" FROM articles WHERE source_url = ?", sourceURL)
	a, err := scanArticle(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return a, nil
}

// GetByID returns a single article by ID, or nil if absent.
func (s *Store) GetByID(id int64) (*Article, error) {
	row := s.conn.QueryRow(selectColumns+" FROM articles WHERE id = ?", id)
	a, err := scanArticle(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return a, nil
}

// Count returns the total number of stored articles.
func (s *Store) Count() (int, error) {
	var n int
	if err := s.conn.QueryRow("SELECT COUNT(*) FROM articles").Scan(&n); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return n, nil
}

// Categories returns the distinct categories present in the corpus.
func (s *Store) Categories() ([]string, error) {
	rows, err := s.conn.Query("SELECT DISTINCT category FROM articles ORDER BY category")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var categories []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// List returns stored articles newest-first, optionally filtered by
// category. Empty category means all.
func (s *Store) List(category string) ([]Article, error) {
	query := selectColumns + " FROM articles"
	var args []any
	if category != "" {
		query += " WHERE category = ?"
		args = append(args, category)
	}
	query += " ORDER BY date_posted DESC"

	rows, err := s.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var articles []Article
	for rows.Next() {
		a, err := scanArticleRows(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		articles = append(articles, *a)
	}
	return articles, rows.Err()
}

// Clear deletes every stored article. Administrative operation, not part
// of any pipeline run.
func (s *Store) Clear() (int64, error) {
	result, err := s.conn.Exec("DELETE FROM articles")
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return result.RowsAffected()
}

const selectColumns = `SELECT id, title, cover_image, publisher_name, publisher_logo,
	author_name, date_posted, quick_summary, detailed_summary, why_it_matters,
	source_url, category, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanArticle(row scanner) (*Article, error) {
	var a Article
	var datePosted, createdAt, updatedAt string
	err := row.Scan(&a.ID, &a.Title, &a.CoverImage, &a.PublisherName, &a.PublisherLogo,
		&a.AuthorName, &datePosted, &a.QuickSummary, &a.DetailedSummary, &a.WhyItMatters,
		&a.SourceURL, &a.Category, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	a.DatePosted, _ = time.Parse(time.RFC3339, datePosted)
	a.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	a.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &a, nil
}

func scanArticleRows(rows *sql.Rows) (*Article, error) {
	return scanArticle(rows)
}
