package schedule

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"postpilot/app/content"
	"postpilot/app/database"
)

type fakeDraftRepo struct {
	published []database.PostDraft
	scheduled []time.Time
	failGet   bool
}

func (r *fakeDraftRepo) InsertDraft(_ context.Context, _ *database.PostDraft) error { return nil }
func (r *fakeDraftRepo) GetDraft(_ context.Context, _ string) (*database.PostDraft, error) {
	return nil, nil
}
func (r *fakeDraftRepo) GetDraftsByStatus(_ context.Context, _ string, _ []string) ([]database.PostDraft, error) {
	return nil, nil
}
func (r *fakeDraftRepo) GetRecentPublished(_ context.Context, _ string, _ int) ([]database.PostDraft, error) {
	if r.failGet {
		return nil, errors.New("db down")
	}
	return r.published, nil
}
func (r *fakeDraftRepo) GetRecentPublishedAllUsers(_ context.Context, _ int) ([]database.PostDraft, error) {
	return nil, nil
}
func (r *fakeDraftRepo) GetScheduledTimes(_ context.Context, _ string, _, _ time.Time) ([]time.Time, error) {
	return r.scheduled, nil
}
func (r *fakeDraftRepo) CountDraftsForItem(_ context.Context, _ string) (int, error) { return 0, nil }
func (r *fakeDraftRepo) UpdateDraftSchedule(_ context.Context, _ string, _ time.Time) error {
	return nil
}

// postsAt builds published drafts landing in the same weekday/hour
// bucket across consecutive weeks.
func postsAt(start time.Time, count, likes int) []database.PostDraft {
	drafts := make([]database.PostDraft, count)
	for i := range drafts {
		publishedAt := start.Add(time.Duration(i) * 7 * 24 * time.Hour)
		drafts[i] = database.PostDraft{
			ID:          fmt.Sprintf("draft-%s-%d", start.Weekday(), i),
			Status:      database.DraftStatusPublished,
			PublishedAt: &publishedAt,
			Likes:       likes,
			Comments:    2,
			Shares:      1,
			Views:       500,
		}
	}
	return drafts
}

func TestOptimalPostingTimesDefaultsWithoutHistory(t *testing.T) {
	optimizer := NewOptimizer(&fakeDraftRepo{})

	slots, err := optimizer.OptimalPostingTimes(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("OptimalPostingTimes failed: %v", err)
	}

	if len(slots) == 0 {
		t.Fatal("Expected default slots")
	}
	for _, slot := range slots {
		if slot.Confidence != fallbackConfidence {
			t.Errorf("Expected default slot confidence %.1f, got %f", fallbackConfidence, slot.Confidence)
		}
		if slot.DayOfWeek == time.Saturday || slot.DayOfWeek == time.Sunday || slot.DayOfWeek == time.Monday {
			t.Errorf("Expected Tue-Fri default slots, got %s", slot.DayOfWeek)
		}
		if slot.Hour < 9 || slot.Hour > 11 {
			t.Errorf("Expected morning default slots, got hour %d", slot.Hour)
		}
	}
}

func TestOptimalPostingTimesFromHistory(t *testing.T) {
	tuesday := time.Date(2026, 6, 2, 9, 0, 0, 0, time.UTC)
	thursday := time.Date(2026, 6, 4, 14, 0, 0, 0, time.UTC)

	repo := &fakeDraftRepo{
		published: append(postsAt(tuesday, 6, 50), postsAt(thursday, 6, 5)...),
	}
	optimizer := NewOptimizer(repo)

	slots, err := optimizer.OptimalPostingTimes(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("OptimalPostingTimes failed: %v", err)
	}

	if len(slots) != 2 {
		t.Fatalf("Expected 2 slots from 2 buckets, got %d", len(slots))
	}
	if slots[0].DayOfWeek != time.Tuesday || slots[0].Hour != 9 {
		t.Errorf("Expected highest-engagement bucket first, got %s %d:00", slots[0].DayOfWeek, slots[0].Hour)
	}
	if slots[0].Score != 1.0 {
		t.Errorf("Expected best slot score normalized to 1.0, got %f", slots[0].Score)
	}
	if slots[1].Score >= slots[0].Score {
		t.Errorf("Expected descending scores, got %f then %f", slots[0].Score, slots[1].Score)
	}
	if slots[0].Confidence != 0.6 {
		t.Errorf("Expected confidence 0.6 for 6-post bucket, got %f", slots[0].Confidence)
	}
}

func TestOptimalPostingTimesSparseBucketsFallBack(t *testing.T) {
	// 10 posts spread over 10 distinct buckets: none reaches the
	// 2-post reliability minimum
	var published []database.PostDraft
	for i := 0; i < 10; i++ {
		start := time.Date(2026, 6, 1, 8+i, 0, 0, 0, time.UTC).Add(time.Duration(i) * 24 * time.Hour)
		published = append(published, postsAt(start, 1, 10)...)
	}
	optimizer := NewOptimizer(&fakeDraftRepo{published: published})

	slots, err := optimizer.OptimalPostingTimes(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("OptimalPostingTimes failed: %v", err)
	}
	for _, slot := range slots {
		if slot.Confidence != fallbackConfidence {
			t.Errorf("Expected default slots when no bucket is reliable, got confidence %f", slot.Confidence)
		}
	}
}

func TestFindNextOptimalTime(t *testing.T) {
	optimizer := NewOptimizer(&fakeDraftRepo{})
	profile := &content.Profile{}

	monday := time.Date(2026, 9, 7, 8, 0, 0, 0, time.UTC)
	next := optimizer.FindNextOptimalTime(context.Background(), "user-1", profile, monday)

	if next.IsFallback {
		t.Fatalf("Expected an optimal slot, got fallback: %s", next.Reason)
	}
	want := time.Date(2026, 9, 8, 9, 0, 0, 0, time.UTC) // Tuesday 9:00
	if !next.Time.Equal(want) {
		t.Errorf("Expected %v, got %v", want, next.Time)
	}
	if !next.Time.After(monday) {
		t.Error("Expected result strictly after the given time")
	}
}

func TestFindNextOptimalTimeStrictlyAfter(t *testing.T) {
	optimizer := NewOptimizer(&fakeDraftRepo{})
	profile := &content.Profile{}

	// Exactly on the Tuesday 9:00 slot: that instant must not be returned
	tuesdaySlot := time.Date(2026, 9, 8, 9, 0, 0, 0, time.UTC)
	next := optimizer.FindNextOptimalTime(context.Background(), "user-1", profile, tuesdaySlot)

	if !next.Time.After(tuesdaySlot) {
		t.Errorf("Expected time strictly after %v, got %v", tuesdaySlot, next.Time)
	}
}

func TestFindNextOptimalTimeConstraintFallback(t *testing.T) {
	// All historical slots are late evening; business hours exclude them
	evening := time.Date(2026, 6, 2, 20, 0, 0, 0, time.UTC)
	repo := &fakeDraftRepo{published: postsAt(evening, 12, 30)}
	optimizer := NewOptimizer(repo)

	profile := &content.Profile{Posting: content.PostingConfig{BusinessHoursOnly: true}}
	after := time.Date(2026, 9, 7, 8, 0, 0, 0, time.UTC)

	next := optimizer.FindNextOptimalTime(context.Background(), "user-1", profile, after)

	if !next.IsFallback {
		t.Fatal("Expected fallback when no slot satisfies constraints")
	}
	if next.Confidence != fallbackConfidence {
		t.Errorf("Expected fallback confidence %.1f, got %f", fallbackConfidence, next.Confidence)
	}
	if !next.Time.Equal(after.Add(24 * time.Hour)) {
		t.Errorf("Expected now+24h fallback, got %v", next.Time)
	}
}

func TestFindNextOptimalTimeErrorFallback(t *testing.T) {
	optimizer := NewOptimizer(&fakeDraftRepo{failGet: true})
	profile := &content.Profile{}
	after := time.Date(2026, 9, 7, 8, 0, 0, 0, time.UTC)

	next := optimizer.FindNextOptimalTime(context.Background(), "user-1", profile, after)

	if !next.IsFallback {
		t.Fatal("Expected error-flagged fallback")
	}
	if next.Confidence != errorConfidence {
		t.Errorf("Expected error confidence %.1f, got %f", errorConfidence, next.Confidence)
	}
}

func TestPlanSchedule(t *testing.T) {
	optimizer := NewOptimizer(&fakeDraftRepo{})
	profile := &content.Profile{Posting: content.PostingConfig{MinHoursBetweenPosts: 4}}

	start := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC) // Monday
	end := start.Add(14 * 24 * time.Hour)

	assignments, err := optimizer.PlanSchedule(context.Background(), "user-1", profile, []string{"d1", "d2", "d3"}, start, end)
	if err != nil {
		t.Fatalf("PlanSchedule failed: %v", err)
	}

	if len(assignments) != 3 {
		t.Fatalf("Expected all 3 drafts placed in a 2-week window, got %d", len(assignments))
	}

	minGap := 4 * time.Hour
	for i := 1; i < len(assignments); i++ {
		if assignments[i].Time.Sub(assignments[i-1].Time) < minGap {
			t.Errorf("Expected at least %v between assignments, got %v and %v", minGap, assignments[i-1].Time, assignments[i].Time)
		}
	}
}

func TestPlanScheduleAvoidsExistingPosts(t *testing.T) {
	// Tuesday 9:00 is already taken by a scheduled post
	taken := time.Date(2026, 9, 8, 9, 0, 0, 0, time.UTC)
	optimizer := NewOptimizer(&fakeDraftRepo{scheduled: []time.Time{taken}})
	profile := &content.Profile{Posting: content.PostingConfig{MinHoursBetweenPosts: 4}}

	start := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)
	end := start.Add(7 * 24 * time.Hour)

	assignments, err := optimizer.PlanSchedule(context.Background(), "user-1", profile, []string{"d1"}, start, end)
	if err != nil {
		t.Fatalf("PlanSchedule failed: %v", err)
	}
	if len(assignments) != 1 {
		t.Fatalf("Expected 1 assignment, got %d", len(assignments))
	}
	if assignments[0].Time.Equal(taken) {
		t.Error("Expected assignment to avoid the already-scheduled slot")
	}
}

func TestPlanScheduleSkipsUnplaceableDrafts(t *testing.T) {
	optimizer := NewOptimizer(&fakeDraftRepo{})
	profile := &content.Profile{Posting: content.PostingConfig{MinHoursBetweenPosts: 4}}

	// A one-day Monday window has no default slots at all
	start := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)

	assignments, err := optimizer.PlanSchedule(context.Background(), "user-1", profile, []string{"d1"}, start, end)
	if err != nil {
		t.Fatalf("PlanSchedule failed: %v", err)
	}
	if len(assignments) != 0 {
		t.Errorf("Expected no assignments in an empty window, got %d", len(assignments))
	}
}

func TestDeriveConstraints(t *testing.T) {
	tests := []struct {
		frequency string
		daily     int
		weekly    int
	}{
		{"multiple_daily", 3, 15},
		{"daily", 1, 7},
		{"few_times_week", 1, 4},
		{"weekly", 1, 2},
		{"", 1, 2},
	}

	for _, tt := range tests {
		c := DeriveConstraints(content.PostingConfig{Frequency: tt.frequency})
		if c.MaxPostsPerDay != tt.daily || c.MaxPostsPerWeek != tt.weekly {
			t.Errorf("DeriveConstraints(%q) = %d/%d, expected %d/%d",
				tt.frequency, c.MaxPostsPerDay, c.MaxPostsPerWeek, tt.daily, tt.weekly)
		}
		if c.MinHoursBetweenPosts != content.DefaultMinHoursBetweenPosts {
			t.Errorf("Expected default min hours, got %d", c.MinHoursBetweenPosts)
		}
	}
}
