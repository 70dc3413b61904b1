package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3"

	"AINewsScanner/internal/domain"
	"AINewsScanner/internal/ports"
)

// SQLiteRepository persists processed keys and the social cursor in a
// single-file SQLite database shared across cycles.
type SQLiteRepository struct {
	db *sql.DB
}

var _ ports.Repository = (*SQLiteRepository)(nil)

// NewSQLiteRepository opens (or creates) the database file and ensures the
// schema exists.
func NewSQLiteRepository(path string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	repo := &SQLiteRepository{db: db}
	if err := repo.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return repo, nil
}

func (r *SQLiteRepository) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS processed_articles (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		url TEXT UNIQUE NOT NULL,
		title TEXT,
		source TEXT NOT NULL,
		processed_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_url ON processed_articles(url);
	CREATE TABLE IF NOT EXISTS social_state (
		account_id TEXT PRIMARY KEY,
		last_post_id TEXT
	);
	`

	_, err := r.db.Exec(schema)
	return err
}

// Close releases the underlying database handle.
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

// IsProcessed reports whether the URL was already published.
func (r *SQLiteRepository) IsProcessed(ctx context.Context, url string) (bool, error) {
	query, args, err := sq.Select("1").
		From("processed_articles").
		Where(sq.Eq{"url": url}).
		Limit(1).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build query: %w", err)
	}

	var one int
	err = r.db.QueryRowContext(ctx, query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query processed: %w", err)
	}
	return true, nil
}

// MarkProcessed inserts the dedupe record. A duplicate key is tolerated, not
// an error; the original row wins.
func (r *SQLiteRepository) MarkProcessed(ctx context.Context, article domain.ProcessedArticle) error {
	processedAt := article.ProcessedAt
	if processedAt.IsZero() {
		processedAt = time.Now().UTC()
	}

	query, args, err := sq.Insert("processed_articles").
		Columns("url", "title", "source", "processed_at").
		Values(article.URL, article.Title, article.Source, processedAt).
		Suffix("ON CONFLICT(url) DO NOTHING").
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert processed: %w", err)
	}
	return nil
}

// ProcessedCount returns the total number of dedupe records.
func (r *SQLiteRepository) ProcessedCount(ctx context.Context) (int, error) {
	query, args, err := sq.Select("COUNT(*)").From("processed_articles").ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count: %w", err)
	}

	var count int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count processed: %w", err)
	}
	return count, nil
}

// RecentArticles returns the most recently processed records for reporting.
func (r *SQLiteRepository) RecentArticles(ctx context.Context, limit int) ([]domain.ProcessedArticle, error) {
	query, args, err := sq.Select("url", "title", "source", "processed_at").
		From("processed_articles").
		OrderBy("processed_at DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build recent query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query recent: %w", err)
	}
	defer rows.Close()

	var articles []domain.ProcessedArticle
	for rows.Next() {
		var rec domain.ProcessedArticle
		if err := rows.Scan(&rec.URL, &rec.Title, &rec.Source, &rec.ProcessedAt); err != nil {
			return nil, fmt.Errorf("scan recent row: %w", err)
		}
		articles = append(articles, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return articles, nil
}

// GetCursor returns the last-seen post id for an account, empty if none.
func (r *SQLiteRepository) GetCursor(ctx context.Context, accountID string) (string, error) {
	query, args, err := sq.Select("last_post_id").
		From("social_state").
		Where(sq.Eq{"account_id": accountID}).
		ToSql()
	if err != nil {
		return "", fmt.Errorf("build cursor query: %w", err)
	}

	var id sql.NullString
	err = r.db.QueryRowContext(ctx, query, args...).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("query cursor: %w", err)
	}
	return id.String, nil
}

// SetCursor upserts the last-seen post id for an account.
func (r *SQLiteRepository) SetCursor(ctx context.Context, accountID, postID string) error {
	query, args, err := sq.Insert("social_state").
		Columns("account_id", "last_post_id").
		Values(accountID, postID).
		Suffix("ON CONFLICT(account_id) DO UPDATE SET last_post_id=excluded.last_post_id").
		ToSql()
	if err != nil {
		return fmt.Errorf("build cursor upsert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert cursor: %w", err)
	}
	return nil
}

// ClearCursor removes the stored cursor. Administrative reset only; the next
// poll re-fetches the newest page of the timeline.
func (r *SQLiteRepository) ClearCursor(ctx context.Context, accountID string) error {
	query, args, err := sq.Delete("social_state").
		Where(sq.Eq{"account_id": accountID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build cursor delete: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete cursor: %w", err)
	}
	return nil
}
