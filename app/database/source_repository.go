package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var _ SourceRepository = (*SourceRepo)(nil)

type SourceRepo struct {
	db *DB
}

func NewSourceRepository(db *DB) *SourceRepo {
	return &SourceRepo{db: db}
}

// UpsertSource inserts or updates a source by (user_id, name) and returns its ID.
func (r *SourceRepo) UpsertSource(ctx context.Context, userID, name, sourceType, url string, checkInterval int, isActive bool) (string, error) {
	var existingID string
	err := r.db.QueryRowContext(ctx, `
		SELECT id FROM content_sources WHERE user_id = ? AND name = ?
	`, userID, name).Scan(&existingID)

	if err == sql.ErrNoRows {
		id := uuid.NewString()
		_, err = r.db.ExecContext(ctx, `
			INSERT INTO content_sources (id, user_id, name, source_type, url, check_interval, is_active)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, id, userID, name, sourceType, url, checkInterval, isActive)
		if err != nil {
			return "", fmt.Errorf("failed to insert source: %w", err)
		}
		return id, nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to check existing source: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		UPDATE content_sources
		SET source_type = ?, url = ?, check_interval = ?, is_active = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, sourceType, url, checkInterval, isActive, existingID)
	if err != nil {
		return "", fmt.Errorf("failed to update source: %w", err)
	}

	return existingID, nil
}

func (r *SourceRepo) GetSource(ctx context.Context, id string) (*ContentSource, error) {
	row := r.db.QueryRowContext(ctx, sourceSelect+` WHERE id = ?`, id)
	source, err := scanSource(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get source: %w", err)
	}
	return source, nil
}

func (r *SourceRepo) GetActiveSources(ctx context.Context, userID string) ([]ContentSource, error) {
	rows, err := r.db.QueryContext(ctx, sourceSelect+` WHERE user_id = ? AND is_active = 1 ORDER BY name`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get active sources: %w", err)
	}
	defer rows.Close()

	return collectSources(rows)
}

// GetDueSources returns active sources whose check interval has elapsed.
func (r *SourceRepo) GetDueSources(ctx context.Context, now time.Time) ([]ContentSource, error) {
	rows, err := r.db.QueryContext(ctx, sourceSelect+`
		WHERE is_active = 1
		  AND (last_checked_at IS NULL
		       OR datetime(last_checked_at, '+' || check_interval || ' seconds') <= datetime(?))
		ORDER BY last_checked_at
	`, now.UTC().Format("2006-01-02 15:04:05"))
	if err != nil {
		return nil, fmt.Errorf("failed to get due sources: %w", err)
	}
	defer rows.Close()

	return collectSources(rows)
}

func (r *SourceRepo) RecordFetchSuccess(ctx context.Context, id string, itemsFound, itemsProcessed int) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE content_sources
		SET items_found = items_found + ?,
		    items_processed = items_processed + ?,
		    consecutive_failures = 0,
		    last_checked_at = CURRENT_TIMESTAMP,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, itemsFound, itemsProcessed, id)
	if err != nil {
		return fmt.Errorf("failed to record fetch success: %w", err)
	}
	return nil
}

func (r *SourceRepo) RecordFetchFailure(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE content_sources
		SET consecutive_failures = consecutive_failures + 1,
		    last_checked_at = CURRENT_TIMESTAMP,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, id)
	if err != nil {
		return fmt.Errorf("failed to record fetch failure: %w", err)
	}
	return nil
}

const sourceSelect = `
	SELECT id, user_id, name, source_type, url, check_interval, is_active,
	       items_found, items_processed, consecutive_failures,
	       last_checked_at, created_at, updated_at
	FROM content_sources`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSource(row rowScanner) (*ContentSource, error) {
	var source ContentSource
	err := row.Scan(
		&source.ID, &source.UserID, &source.Name, &source.SourceType, &source.URL,
		&source.CheckInterval, &source.IsActive,
		&source.ItemsFound, &source.ItemsProcessed, &source.ConsecutiveFailures,
		&source.LastCheckedAt, &source.CreatedAt, &source.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &source, nil
}

func collectSources(rows *sql.Rows) ([]ContentSource, error) {
	var sources []ContentSource
	for rows.Next() {
		source, err := scanSource(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan source row: %w", err)
		}
		sources = append(sources, *source)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating source rows: %w", err)
	}

	return sources, nil
}
