package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"postpilot/app/content"
	"postpilot/app/database"
)

// GenerateDraftTask turns a processed content item into a post draft.
// At-least-once delivery is tolerated: an item that already has a draft
// is skipped.
type GenerateDraftTask struct {
	Task
	UserID  string
	ItemID  string
	items   database.ItemRepository
	drafts  database.DraftRepository
	writer  content.DraftWriter
	profile *content.Profile
}

func NewGenerateDraftTask(userID, userName, itemID string, profile *content.Profile, items database.ItemRepository, drafts database.DraftRepository, writer content.DraftWriter) *GenerateDraftTask {
	return &GenerateDraftTask{
		Task:    NewTask(TaskTypeGenerateDraft, userName),
		UserID:  userID,
		ItemID:  itemID,
		items:   items,
		drafts:  drafts,
		writer:  writer,
		profile: profile,
	}
}

func (t *GenerateDraftTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	existing, err := t.drafts.CountDraftsForItem(ctx, t.ItemID)
	if err != nil {
		return fmt.Errorf("failed to count existing drafts: %w", err)
	}
	if existing > 0 {
		slog.Debug("Draft already exists for item, skipping", "item_id", t.ItemID)
		return nil
	}

	item, err := t.items.GetItem(ctx, t.ItemID)
	if err != nil {
		return fmt.Errorf("failed to load content item: %w", err)
	}
	if item == nil {
		slog.Warn("Content item vanished before draft generation", "item_id", t.ItemID)
		return nil
	}

	result, err := t.writer.GenerateDraft(ctx, item.Title, item.Content, t.profile)
	if err != nil {
		return fmt.Errorf("failed to generate draft: %w", err)
	}

	draft := &database.PostDraft{
		UserID:        t.UserID,
		ContentItemID: &item.ID,
		Content:       result.Content,
		Hashtags:      result.Hashtags,
		Status:        database.DraftStatusDraft,
	}
	if err := t.drafts.InsertDraft(ctx, draft); err != nil {
		return fmt.Errorf("failed to persist draft: %w", err)
	}

	slog.Info("Task completed",
		"type", "GenerateDraft",
		"user", t.UserName,
		"item_id", t.ItemID,
		"draft_id", draft.ID,
		"duration", t.GetDuration(),
		"hashtags", len(result.Hashtags))

	return nil
}
