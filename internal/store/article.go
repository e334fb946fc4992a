// Package store provides database access methods for all Lumafin entities.
// Each store struct wraps a *sql.DB and exposes typed query methods.
//
// Stores tolerate a nil database handle: reads return empty results and
// writes become logged no-ops. This lets the public site fall back to its
// built-in content and keeps the studio demo flow working without Postgres.
package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"lumafin/internal/models"
)

// ArticleStore handles all published-article database operations.
// Published articles are immutable: there is no update or delete.
type ArticleStore struct {
	db *sql.DB

	// fallbackID hands out synthetic IDs for no-op inserts.
	fallbackID atomic.Int64
}

// NewArticleStore creates a new ArticleStore with the given database
// connection. db may be nil (unconfigured store).
func NewArticleStore(db *sql.DB) *ArticleStore {
	return &ArticleStore{db: db}
}

// Configured reports whether a database backs this store.
func (s *ArticleStore) Configured() bool {
	return s.db != nil
}

// ListByStream returns all articles in a stream, newest first.
// Returns an empty slice when the store is unconfigured.
func (s *ArticleStore) ListByStream(stream models.Stream) ([]models.Article, error) {
	if s.db == nil {
		return nil, nil
	}

	rows, err := s.db.Query(`
		SELECT id, stream, category, tag, title, meta_desc, content, image_url, created_at
		FROM articles
		WHERE stream = $1
		ORDER BY created_at DESC
	`, stream)
	if err != nil {
		return nil, fmt.Errorf("list articles by stream: %w", err)
	}
	defer rows.Close()

	var items []models.Article
	for rows.Next() {
		var a models.Article
		if err := rows.Scan(
			&a.ID, &a.Stream, &a.Category, &a.Tag, &a.Title,
			&a.MetaDesc, &a.Content, &a.ImageURL, &a.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan article: %w", err)
		}
		items = append(items, a)
	}
	return items, rows.Err()
}

// FindByID retrieves an article by ID. Returns nil when not found or when
// the store is unconfigured.
func (s *ArticleStore) FindByID(id int64) (*models.Article, error) {
	if s.db == nil {
		return nil, nil
	}

	a := &models.Article{}
	err := s.db.QueryRow(`
		SELECT id, stream, category, tag, title, meta_desc, content, image_url, created_at
		FROM articles WHERE id = $1
	`, id).Scan(
		&a.ID, &a.Stream, &a.Category, &a.Tag, &a.Title,
		&a.MetaDesc, &a.Content, &a.ImageURL, &a.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find article by id: %w", err)
	}
	return a, nil
}

// Insert persists a new article record and returns it with the generated
// ID. With an unconfigured store the payload is echoed back with a
// synthetic ID so the publish flow still completes, and a warning is
// logged instead of writing.
func (s *ArticleStore) Insert(a models.Article) (*models.Article, error) {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}

	if s.db == nil {
		a.ID = -s.fallbackID.Add(1) // negative IDs mark unpersisted records
		slog.Warn("article store unconfigured, publish is a no-op",
			"stream", a.Stream,
			"title", a.Title,
		)
		return &a, nil
	}

	result := &models.Article{}
	err := s.db.QueryRow(`
		INSERT INTO articles (stream, category, tag, title, meta_desc, content, image_url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, stream, category, tag, title, meta_desc, content, image_url, created_at
	`, a.Stream, a.Category, a.Tag, a.Title, a.MetaDesc, a.Content, a.ImageURL, a.CreatedAt,
	).Scan(
		&result.ID, &result.Stream, &result.Category, &result.Tag, &result.Title,
		&result.MetaDesc, &result.Content, &result.ImageURL, &result.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert article: %w", err)
	}
	return result, nil
}

// CountByStream returns the number of articles in a stream.
func (s *ArticleStore) CountByStream(stream models.Stream) (int, error) {
	if s.db == nil {
		return 0, nil
	}

	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM articles WHERE stream = $1`, stream).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count articles: %w", err)
	}
	return count, nil
}
