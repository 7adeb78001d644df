package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var _ DraftRepository = (*DraftRepo)(nil)

type DraftRepo struct {
	db *DB
}

func NewDraftRepository(db *DB) *DraftRepo {
	return &DraftRepo{db: db}
}

func (r *DraftRepo) InsertDraft(ctx context.Context, draft *PostDraft) error {
	if draft.ID == "" {
		draft.ID = uuid.NewString()
	}
	if draft.Status == "" {
		draft.Status = DraftStatusDraft
	}

	hashtags, err := json.Marshal(draft.Hashtags)
	if err != nil {
		return fmt.Errorf("failed to marshal hashtags: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO post_drafts (
			id, user_id, content_item_id, content, hashtags, status,
			scheduled_for, published_at, likes, comments, shares, views, clicks,
			metrics_updated_at, publication_attempts
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, draft.ID, draft.UserID, draft.ContentItemID, draft.Content, string(hashtags),
		draft.Status, draft.ScheduledFor, draft.PublishedAt,
		draft.Likes, draft.Comments, draft.Shares, draft.Views, draft.Clicks,
		draft.MetricsUpdatedAt, draft.PublicationAttempts)
	if err != nil {
		return fmt.Errorf("failed to insert draft: %w", err)
	}

	return nil
}

func (r *DraftRepo) GetDraft(ctx context.Context, id string) (*PostDraft, error) {
	row := r.db.QueryRowContext(ctx, draftSelect+` WHERE id = ?`, id)
	draft, err := scanDraft(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get draft: %w", err)
	}
	return draft, nil
}

func (r *DraftRepo) GetDraftsByStatus(ctx context.Context, userID string, statuses []string) ([]PostDraft, error) {
	if len(statuses) == 0 {
		return nil, nil
	}

	placeholders := strings.Repeat("?,", len(statuses))
	placeholders = placeholders[:len(placeholders)-1]

	args := make([]any, 0, len(statuses)+1)
	args = append(args, userID)
	for _, status := range statuses {
		args = append(args, status)
	}

	rows, err := r.db.QueryContext(ctx,
		draftSelect+` WHERE user_id = ? AND status IN (`+placeholders+`) ORDER BY created_at DESC`,
		args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get drafts by status: %w", err)
	}
	defer rows.Close()

	return collectDrafts(rows)
}

// GetRecentPublished returns the user's most recently published drafts,
// newest first.
func (r *DraftRepo) GetRecentPublished(ctx context.Context, userID string, limit int) ([]PostDraft, error) {
	rows, err := r.db.QueryContext(ctx, draftSelect+`
		WHERE user_id = ? AND status = 'published' AND published_at IS NOT NULL
		ORDER BY published_at DESC
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent published drafts: %w", err)
	}
	defer rows.Close()

	return collectDrafts(rows)
}

// GetRecentPublishedAllUsers returns recent published drafts across all
// users, used to train the baseline engagement model.
func (r *DraftRepo) GetRecentPublishedAllUsers(ctx context.Context, limit int) ([]PostDraft, error) {
	rows, err := r.db.QueryContext(ctx, draftSelect+`
		WHERE status = 'published' AND published_at IS NOT NULL
		ORDER BY published_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent published drafts: %w", err)
	}
	defer rows.Close()

	return collectDrafts(rows)
}

func (r *DraftRepo) GetScheduledTimes(ctx context.Context, userID string, from, to time.Time) ([]time.Time, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT scheduled_for FROM post_drafts
		WHERE user_id = ? AND status = 'scheduled'
		  AND scheduled_for IS NOT NULL AND scheduled_for >= ? AND scheduled_for < ?
		ORDER BY scheduled_for
	`, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to get scheduled times: %w", err)
	}
	defer rows.Close()

	var times []time.Time
	for rows.Next() {
		var at time.Time
		if err := rows.Scan(&at); err != nil {
			return nil, fmt.Errorf("failed to scan scheduled time: %w", err)
		}
		times = append(times, at)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating scheduled times: %w", err)
	}

	return times, nil
}

func (r *DraftRepo) CountDraftsForItem(ctx context.Context, contentItemID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM post_drafts WHERE content_item_id = ?
	`, contentItemID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count drafts for item: %w", err)
	}
	return count, nil
}

func (r *DraftRepo) UpdateDraftSchedule(ctx context.Context, id string, scheduledFor time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE post_drafts SET status = 'scheduled', scheduled_for = ? WHERE id = ?
	`, scheduledFor, id)
	if err != nil {
		return fmt.Errorf("failed to update draft schedule: %w", err)
	}
	return nil
}

const draftSelect = `
	SELECT id, user_id, content_item_id, content, hashtags, status,
	       scheduled_for, published_at, likes, comments, shares, views, clicks,
	       metrics_updated_at, publication_attempts, created_at
	FROM post_drafts`

func scanDraft(row rowScanner) (*PostDraft, error) {
	var draft PostDraft
	var hashtags string
	err := row.Scan(
		&draft.ID, &draft.UserID, &draft.ContentItemID, &draft.Content, &hashtags,
		&draft.Status, &draft.ScheduledFor, &draft.PublishedAt,
		&draft.Likes, &draft.Comments, &draft.Shares, &draft.Views, &draft.Clicks,
		&draft.MetricsUpdatedAt, &draft.PublicationAttempts, &draft.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(hashtags), &draft.Hashtags); err != nil {
		draft.Hashtags = nil
	}

	return &draft, nil
}

func collectDrafts(rows *sql.Rows) ([]PostDraft, error) {
	var drafts []PostDraft
	for rows.Next() {
		draft, err := scanDraft(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan draft row: %w", err)
		}
		drafts = append(drafts, *draft)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating draft rows: %w", err)
	}

	return drafts, nil
}
