package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ErrDuplicateURL is returned when inserting a content item whose URL
// already exists. The unique constraint on content_items.url is the
// authoritative duplicate guard across processes.
var ErrDuplicateURL = errors.New("content item URL already exists")

var _ ItemRepository = (*ItemRepo)(nil)

type ItemRepo struct {
	db *DB
}

func NewItemRepository(db *DB) *ItemRepo {
	return &ItemRepo{db: db}
}

func (r *ItemRepo) InsertItem(ctx context.Context, item *ContentItem) error {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO content_items (
			id, source_id, user_id, title, url, content, author, published_at,
			relevance_score, ai_reasoning, ai_category, ai_confidence, status, word_count
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, item.ID, item.SourceID, item.UserID, item.Title, item.URL, item.Content,
		item.Author, item.PublishedAt, item.RelevanceScore, item.AIReasoning,
		item.AICategory, item.AIConfidence, item.Status, item.WordCount)

	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: content_items.url") {
			return ErrDuplicateURL
		}
		return fmt.Errorf("failed to insert content item: %w", err)
	}

	return nil
}

func (r *ItemRepo) GetItem(ctx context.Context, id string) (*ContentItem, error) {
	var item ContentItem
	err := r.db.QueryRowContext(ctx, `
		SELECT id, COALESCE(source_id, ''), user_id, title, url, content, author,
		       published_at, relevance_score, ai_reasoning, ai_category,
		       ai_confidence, status, word_count, created_at
		FROM content_items
		WHERE id = ?
	`, id).Scan(
		&item.ID, &item.SourceID, &item.UserID, &item.Title, &item.URL,
		&item.Content, &item.Author, &item.PublishedAt, &item.RelevanceScore,
		&item.AIReasoning, &item.AICategory, &item.AIConfidence,
		&item.Status, &item.WordCount, &item.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get content item: %w", err)
	}
	return &item, nil
}

func (r *ItemRepo) URLExists(ctx context.Context, url string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM content_items WHERE url = ? LIMIT 1`, url).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check URL existence: %w", err)
	}
	return true, nil
}

func (r *ItemRepo) UpdateItemStatus(ctx context.Context, id, status string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE content_items SET status = ? WHERE id = ?
	`, status, id)
	if err != nil {
		return fmt.Errorf("failed to update item status: %w", err)
	}
	return nil
}

func (r *ItemRepo) GetItemStats(ctx context.Context, userID string) (total, processed, failed int, err error) {
	err = r.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			SUM(CASE WHEN status = 'processed' THEN 1 ELSE 0 END),
			SUM(CASE WHEN status = 'failed' THEN 1 ELSE 0 END)
		FROM content_items
		WHERE user_id = ?
	`, userID).Scan(&total, &processed, &failed)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("failed to get item stats: %w", err)
	}
	return total, processed, failed, nil
}
