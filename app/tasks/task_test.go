package tasks

import (
	"context"
	"testing"
	"time"

	"postpilot/app/content"
	"postpilot/app/database"
)

func TestNewTaskDefaults(t *testing.T) {
	task := NewTask(TaskTypeProcessSource, "alice")

	if task.ID == "" {
		t.Error("Expected non-empty task ID")
	}
	if task.GetType() != TaskTypeProcessSource {
		t.Errorf("Expected type %s, got %s", TaskTypeProcessSource, task.GetType())
	}
	if task.GetUserName() != "alice" {
		t.Errorf("Expected user alice, got %s", task.GetUserName())
	}
	if task.GetMaxRetries() != DefaultMaxRetries {
		t.Errorf("Expected max retries %d, got %d", DefaultMaxRetries, task.GetMaxRetries())
	}
}

func TestTaskRetryAccounting(t *testing.T) {
	task := NewTask(TaskTypeGenerateDraft, "alice")

	for i := 0; i < DefaultMaxRetries; i++ {
		if !task.CanRetry() {
			t.Fatalf("Expected retry %d to be allowed", i+1)
		}
		task.IncrementRetryCount()
	}
	if task.CanRetry() {
		t.Error("Expected retries exhausted after max increments")
	}
}

func TestTaskDuration(t *testing.T) {
	task := NewTask(TaskTypeSyncProfile, "alice")

	if task.GetDuration() != 0 {
		t.Error("Expected zero duration before start")
	}
	task.Start()
	time.Sleep(time.Millisecond)
	if task.GetDuration() <= 0 {
		t.Error("Expected positive duration after start")
	}
}

type stubItemRepo struct {
	item *database.ContentItem
}

func (r *stubItemRepo) InsertItem(_ context.Context, _ *database.ContentItem) error { return nil }
func (r *stubItemRepo) GetItem(_ context.Context, _ string) (*database.ContentItem, error) {
	return r.item, nil
}
func (r *stubItemRepo) URLExists(_ context.Context, _ string) (bool, error)   { return false, nil }
func (r *stubItemRepo) UpdateItemStatus(_ context.Context, _, _ string) error { return nil }
func (r *stubItemRepo) GetItemStats(_ context.Context, _ string) (int, int, int, error) {
	return 0, 0, 0, nil
}

type stubDraftRepo struct {
	existingCount int
	inserted      []*database.PostDraft
}

func (r *stubDraftRepo) InsertDraft(_ context.Context, draft *database.PostDraft) error {
	r.inserted = append(r.inserted, draft)
	return nil
}
func (r *stubDraftRepo) GetDraft(_ context.Context, _ string) (*database.PostDraft, error) {
	return nil, nil
}
func (r *stubDraftRepo) GetDraftsByStatus(_ context.Context, _ string, _ []string) ([]database.PostDraft, error) {
	return nil, nil
}
func (r *stubDraftRepo) GetRecentPublished(_ context.Context, _ string, _ int) ([]database.PostDraft, error) {
	return nil, nil
}
func (r *stubDraftRepo) GetRecentPublishedAllUsers(_ context.Context, _ int) ([]database.PostDraft, error) {
	return nil, nil
}
func (r *stubDraftRepo) GetScheduledTimes(_ context.Context, _ string, _, _ time.Time) ([]time.Time, error) {
	return nil, nil
}
func (r *stubDraftRepo) CountDraftsForItem(_ context.Context, _ string) (int, error) {
	return r.existingCount, nil
}
func (r *stubDraftRepo) UpdateDraftSchedule(_ context.Context, _ string, _ time.Time) error {
	return nil
}

type stubWriter struct {
	calls int
}

func (w *stubWriter) GenerateDraft(_ context.Context, _, _ string, _ *content.Profile) (*content.DraftResult, error) {
	w.calls++
	return &content.DraftResult{
		Content:  "Generated post body.",
		Hashtags: []string{"golang", "engineering"},
	}, nil
}

func TestGenerateDraftTask(t *testing.T) {
	items := &stubItemRepo{item: &database.ContentItem{ID: "item-1", Title: "Title", Content: "Body"}}
	drafts := &stubDraftRepo{}
	writer := &stubWriter{}

	task := NewGenerateDraftTask("user-1", "alice", "item-1", &content.Profile{Name: "alice"}, items, drafts, writer)
	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if writer.calls != 1 {
		t.Errorf("Expected 1 generation call, got %d", writer.calls)
	}
	if len(drafts.inserted) != 1 {
		t.Fatalf("Expected 1 draft inserted, got %d", len(drafts.inserted))
	}

	draft := drafts.inserted[0]
	if draft.Status != database.DraftStatusDraft {
		t.Errorf("Expected draft status, got %s", draft.Status)
	}
	if draft.ContentItemID == nil || *draft.ContentItemID != "item-1" {
		t.Error("Expected draft linked to the content item")
	}
	if len(draft.Hashtags) != 2 {
		t.Errorf("Expected 2 hashtags, got %d", len(draft.Hashtags))
	}
}

func TestGenerateDraftTaskSkipsExistingDraft(t *testing.T) {
	items := &stubItemRepo{item: &database.ContentItem{ID: "item-1"}}
	drafts := &stubDraftRepo{existingCount: 1}
	writer := &stubWriter{}

	task := NewGenerateDraftTask("user-1", "alice", "item-1", &content.Profile{Name: "alice"}, items, drafts, writer)
	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	// Re-delivered jobs must not produce duplicate drafts
	if writer.calls != 0 {
		t.Errorf("Expected generation skipped, got %d calls", writer.calls)
	}
	if len(drafts.inserted) != 0 {
		t.Errorf("Expected no draft inserted, got %d", len(drafts.inserted))
	}
}

func TestGenerateDraftTaskVanishedItem(t *testing.T) {
	items := &stubItemRepo{item: nil}
	drafts := &stubDraftRepo{}
	writer := &stubWriter{}

	task := NewGenerateDraftTask("user-1", "alice", "item-1", &content.Profile{Name: "alice"}, items, drafts, writer)
	if err := task.Execute(context.Background()); err != nil {
		t.Errorf("Expected vanished item tolerated, got: %v", err)
	}
	if writer.calls != 0 {
		t.Error("Expected no generation for vanished item")
	}
}
