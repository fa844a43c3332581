// Package storage persists sources and raw articles in PostgreSQL.
//
// All queries are parameterized; feed content is attacker-controlled and
// must never be interpolated into SQL. Uniqueness of original_url and
// content_hash is enforced by constraints, which makes the database the
// final arbiter under concurrent ingestion runs.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Article lifecycle states. This pipeline only ever writes pending; the
// downstream summarization stage owns the rest.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusProcessed  = "processed"
	StatusFailed     = "failed"
	StatusRejected   = "rejected"
)

// Source is one configured RSS/Atom feed with its health counters.
type Source struct {
	ID            int64
	FeedURL       string
	Language      string
	IsActive      bool
	ErrorCount    int
	LastFetchedAt *time.Time
	LastError     *string
}

// RawArticle is the persisted, deduplicated record of one ingested
// article, pending downstream summarization.
type RawArticle struct {
	ID                  string
	RssSourceID         int64
	GUID                string
	OriginalURL         string
	OriginalTitle       string
	OriginalContent     string
	OriginalDescription string
	FullContent         *string
	ContentQuality      float64
	ImageURL            *string
	VideoURL            *string
	VideoType           *string
	Author              *string
	PublishedAt         *time.Time
	ContentHash         string
	Status              string
	RetryCount          int
	ErrorMessage        *string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// Store wraps the database handle.
type Store struct {
	db  *sql.DB
	log *slog.Logger
}

// New connects to PostgreSQL and initializes the schema.
func New(connectionString string, log *slog.Logger) (*Store, error) {
	if log == nil {
		log = slog.Default()
	}

	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Store{db: db, log: log}

	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	log.Info("✅ PostgreSQL connected")
	return s, nil
}

// NewWithDB wraps an existing handle (used by tests).
func NewWithDB(db *sql.DB, log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	return &Store{db: db, log: log}
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS rss_sources (
		id BIGSERIAL PRIMARY KEY,
		feed_url TEXT UNIQUE NOT NULL,
		language VARCHAR(10) NOT NULL DEFAULT 'ar',
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		error_count INTEGER NOT NULL DEFAULT 0,
		last_fetched_at TIMESTAMPTZ,
		last_error TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS raw_articles (
		id UUID PRIMARY KEY,
		rss_source_id BIGINT NOT NULL REFERENCES rss_sources(id),
		guid TEXT,
		original_url TEXT UNIQUE NOT NULL,
		original_title TEXT NOT NULL,
		original_content TEXT,
		original_description TEXT,
		full_content TEXT,
		content_quality DOUBLE PRECISION NOT NULL DEFAULT 0,
		image_url TEXT,
		video_url TEXT,
		video_type VARCHAR(20),
		author TEXT,
		published_at TIMESTAMPTZ,
		content_hash VARCHAR(32) UNIQUE NOT NULL,
		status VARCHAR(20) NOT NULL DEFAULT 'pending',
		retry_count INTEGER NOT NULL DEFAULT 0,
		error_message TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_raw_articles_status ON raw_articles(status);
	CREATE INDEX IF NOT EXISTS idx_raw_articles_source ON raw_articles(rss_source_id);
	CREATE INDEX IF NOT EXISTS idx_rss_sources_due ON rss_sources(is_active, error_count, last_fetched_at);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// UpsertSource seeds or updates a configured source by feed URL.
func (s *Store) UpsertSource(ctx context.Context, feedURL, language string, isActive bool) error {
	query := `
		INSERT INTO rss_sources (feed_url, language, is_active)
		VALUES ($1, $2, $3)
		ON CONFLICT (feed_url) DO UPDATE SET
			language = EXCLUDED.language,
			is_active = EXCLUDED.is_active,
			updated_at = NOW()
	`

	if _, err := s.db.ExecContext(ctx, query, feedURL, language, isActive); err != nil {
		return fmt.Errorf("failed to upsert source: %w", err)
	}
	return nil
}

// DueSources returns active, healthy sources that have not been fetched
// within the stale threshold, oldest first (never-fetched sources first
// of all). Sources at or above maxErrors are excluded until an operator
// resets them.
func (s *Store) DueSources(ctx context.Context, limit, maxErrors int, staleThreshold time.Duration) ([]Source, error) {
	cutoff := time.Now().Add(-staleThreshold)

	query := `
		SELECT id, feed_url, language, is_active, error_count, last_fetched_at, last_error
		FROM rss_sources
		WHERE is_active = TRUE
		  AND error_count < $1
		  AND (last_fetched_at IS NULL OR last_fetched_at < $2)
		ORDER BY last_fetched_at ASC NULLS FIRST
		LIMIT $3
	`

	rows, err := s.db.QueryContext(ctx, query, maxErrors, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query due sources: %w", err)
	}
	defer rows.Close()

	var sources []Source
	for rows.Next() {
		var src Source
		var lastFetched sql.NullTime
		var lastError sql.NullString
		if err := rows.Scan(&src.ID, &src.FeedURL, &src.Language, &src.IsActive, &src.ErrorCount, &lastFetched, &lastError); err != nil {
			return nil, fmt.Errorf("failed to scan source: %w", err)
		}
		if lastFetched.Valid {
			src.LastFetchedAt = &lastFetched.Time
		}
		if lastError.Valid {
			src.LastError = &lastError.String
		}
		sources = append(sources, src)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sources: %w", err)
	}

	return sources, nil
}

// MarkSourceSuccess records a clean fetch: counter reset, error cleared.
func (s *Store) MarkSourceSuccess(ctx context.Context, sourceID int64) error {
	query := `
		UPDATE rss_sources
		SET last_fetched_at = NOW(), error_count = 0, last_error = NULL, updated_at = NOW()
		WHERE id = $1
	`

	if _, err := s.db.ExecContext(ctx, query, sourceID); err != nil {
		return fmt.Errorf("failed to mark source success: %w", err)
	}
	return nil
}

// MarkSourceFailure bumps the error counter and stores the message.
// last_fetched_at is set too, so a broken source does not retry on the
// very next run.
func (s *Store) MarkSourceFailure(ctx context.Context, sourceID int64, message string) error {
	query := `
		UPDATE rss_sources
		SET last_fetched_at = NOW(), error_count = error_count + 1, last_error = $2, updated_at = NOW()
		WHERE id = $1
	`

	if _, err := s.db.ExecContext(ctx, query, sourceID, message); err != nil {
		return fmt.Errorf("failed to mark source failure: %w", err)
	}
	return nil
}

// ArticleExistsByURL checks the URL side of the dedup gate.
func (s *Store) ArticleExistsByURL(ctx context.Context, originalURL string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM raw_articles WHERE original_url = $1)`,
		originalURL,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check url existence: %w", err)
	}
	return exists, nil
}

// ArticleExistsByHash checks the content-hash side of the dedup gate.
func (s *Store) ArticleExistsByHash(ctx context.Context, contentHash string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM raw_articles WHERE content_hash = $1)`,
		contentHash,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check hash existence: %w", err)
	}
	return exists, nil
}

// InsertArticle inserts a pending article. Returns false when the row
// already existed: a unique-constraint hit from a concurrent run means
// "already ingested", not a failure.
func (s *Store) InsertArticle(ctx context.Context, a *RawArticle) (bool, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.Status == "" {
		a.Status = StatusPending
	}

	query := `
		INSERT INTO raw_articles (
			id, rss_source_id, guid, original_url, original_title,
			original_content, original_description, full_content, content_quality,
			image_url, video_url, video_type, author, published_at,
			content_hash, status, retry_count
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		ON CONFLICT DO NOTHING
	`

	result, err := s.db.ExecContext(ctx, query,
		a.ID, a.RssSourceID, a.GUID, a.OriginalURL, a.OriginalTitle,
		a.OriginalContent, a.OriginalDescription, a.FullContent, a.ContentQuality,
		a.ImageURL, a.VideoURL, a.VideoType, a.Author, a.PublishedAt,
		a.ContentHash, a.Status, a.RetryCount,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to insert article: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read insert result: %w", err)
	}
	return rows > 0, nil
}

// PendingCount reports how many articles wait for the downstream stage.
func (s *Store) PendingCount(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM raw_articles WHERE status = $1`, StatusPending,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count pending articles: %w", err)
	}
	return count, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
