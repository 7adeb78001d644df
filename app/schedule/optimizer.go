package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"postpilot/app/content"
	"postpilot/app/database"
)

const (
	// Minimum published posts with engagement data before historical
	// slots replace the best-practice defaults
	minHistoryPosts = 10
	// Minimum posts per day×hour bucket for statistical reliability
	minBucketPosts = 2

	historyLimit  = 100
	searchHorizon = 30 * 24 * time.Hour

	fallbackConfidence = 0.3
	errorConfidence    = 0.2
)

// Optimizer derives per-user posting time slots from engagement history
// and places drafts into them under the user's constraints.
type Optimizer struct {
	drafts database.DraftRepository
	now    func() time.Time
}

func NewOptimizer(drafts database.DraftRepository) *Optimizer {
	return &Optimizer{
		drafts: drafts,
		now:    time.Now,
	}
}

// OptimalPostingTimes returns the user's posting slots ranked by
// historical engagement, or the best-practice defaults when history is
// too thin.
func (o *Optimizer) OptimalPostingTimes(ctx context.Context, userID string) ([]TimeSlot, error) {
	history, err := o.drafts.GetRecentPublished(ctx, userID, historyLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load posting history: %w", err)
	}

	type bucketKey struct {
		day  time.Weekday
		hour int
	}
	buckets := make(map[bucketKey][]float64)

	posts := 0
	for i := range history {
		draft := &history[i]
		if draft.PublishedAt == nil || draft.Likes+draft.Comments+draft.Shares == 0 {
			continue
		}
		posts++
		key := bucketKey{draft.PublishedAt.Weekday(), draft.PublishedAt.Hour()}
		buckets[key] = append(buckets[key], draft.Engagement())
	}

	if posts < minHistoryPosts {
		slog.Debug("Insufficient posting history, using default slots", "user_id", userID, "posts", posts)
		return defaultSlots(), nil
	}

	var slots []TimeSlot
	maxAvg := 0.0
	for key, engagements := range buckets {
		if len(engagements) < minBucketPosts {
			continue
		}
		sum := 0.0
		for _, e := range engagements {
			sum += e
		}
		avg := sum / float64(len(engagements))
		if avg > maxAvg {
			maxAvg = avg
		}

		confidence := float64(len(engagements)) / 10
		if confidence > 1 {
			confidence = 1
		}
		slots = append(slots, TimeSlot{
			DayOfWeek:  key.day,
			Hour:       key.hour,
			Score:      avg,
			Confidence: confidence,
		})
	}

	if len(slots) == 0 {
		return defaultSlots(), nil
	}

	// Normalize scores against the best bucket
	if maxAvg > 0 {
		for i := range slots {
			slots[i].Score /= maxAvg
		}
	}

	sort.Slice(slots, func(i, j int) bool {
		if slots[i].Score != slots[j].Score {
			return slots[i].Score > slots[j].Score
		}
		if slots[i].DayOfWeek != slots[j].DayOfWeek {
			return slots[i].DayOfWeek < slots[j].DayOfWeek
		}
		return slots[i].Hour < slots[j].Hour
	})

	return slots, nil
}

// defaultSlots are LinkedIn best-practice weekday morning slots, used
// until a user accumulates enough engagement history.
func defaultSlots() []TimeSlot {
	return []TimeSlot{
		{DayOfWeek: time.Tuesday, Hour: 9, Score: 0.9, Confidence: fallbackConfidence},
		{DayOfWeek: time.Wednesday, Hour: 10, Score: 0.85, Confidence: fallbackConfidence},
		{DayOfWeek: time.Thursday, Hour: 9, Score: 0.8, Confidence: fallbackConfidence},
		{DayOfWeek: time.Thursday, Hour: 11, Score: 0.75, Confidence: fallbackConfidence},
		{DayOfWeek: time.Friday, Hour: 10, Score: 0.7, Confidence: fallbackConfidence},
	}
}

// FindNextOptimalTime returns the earliest slot instance strictly after
// the given time that satisfies the user's constraints, scanning up to
// 30 days ahead. Without a valid candidate it falls back to 24 hours
// out; internal failures produce an error-flagged fallback instead of
// failing the call.
func (o *Optimizer) FindNextOptimalTime(ctx context.Context, userID string, profile *content.Profile, after time.Time) *PostingTime {
	slots, err := o.OptimalPostingTimes(ctx, userID)
	if err != nil {
		slog.Error("Failed to compute optimal slots", "user_id", userID, "error", err)
		return &PostingTime{
			Time:       after.Add(24 * time.Hour),
			Confidence: errorConfidence,
			IsFallback: true,
			Reason:     "slot computation failed",
		}
	}

	constraints := DeriveConstraints(profile.Posting)

	var best *PostingTime
	for day := 0; day <= int(searchHorizon.Hours()/24); day++ {
		date := after.Add(time.Duration(day) * 24 * time.Hour)
		for _, slot := range slots {
			if date.Weekday() != slot.DayOfWeek {
				continue
			}
			candidate := time.Date(date.Year(), date.Month(), date.Day(), slot.Hour, slot.Minute, 0, 0, after.Location())
			if !candidate.After(after) || !constraints.allows(candidate) {
				continue
			}
			if best == nil || candidate.Before(best.Time) {
				best = &PostingTime{Time: candidate, Confidence: slot.Confidence}
			}
		}
	}

	if best != nil {
		return best
	}

	return &PostingTime{
		Time:       after.Add(24 * time.Hour),
		Confidence: fallbackConfidence,
		IsFallback: true,
		Reason:     "no optimal slot satisfies constraints",
	}
}

// Assignment places one draft at a concrete time.
type Assignment struct {
	DraftID string    `json:"draft_id"`
	Time    time.Time `json:"time"`
}

// PlanSchedule greedily assigns drafts (ordered highest priority first)
// to optimal slot instances within [start, end), avoiding conflicts
// with already-scheduled posts and earlier assignments in this batch.
// Drafts that cannot be placed are skipped.
func (o *Optimizer) PlanSchedule(ctx context.Context, userID string, profile *content.Profile, draftIDs []string, start, end time.Time) ([]Assignment, error) {
	slots, err := o.OptimalPostingTimes(ctx, userID)
	if err != nil {
		return nil, err
	}

	scheduled, err := o.drafts.GetScheduledTimes(ctx, userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to load scheduled posts: %w", err)
	}

	constraints := DeriveConstraints(profile.Posting)
	minGap := time.Duration(constraints.MinHoursBetweenPosts) * time.Hour
	candidates := slotInstances(slots, constraints, start, end)

	taken := append([]time.Time(nil), scheduled...)
	var assignments []Assignment
	cursor := start

	for _, draftID := range draftIDs {
		placed := false
		for _, candidate := range candidates {
			if candidate.Before(cursor) || conflicts(candidate, taken, minGap) {
				continue
			}
			assignments = append(assignments, Assignment{DraftID: draftID, Time: candidate})
			taken = append(taken, candidate)
			cursor = candidate.Add(minGap)
			placed = true
			break
		}
		if !placed {
			slog.Info("No available slot for draft within window", "draft_id", draftID, "window_end", end)
		}
	}

	return assignments, nil
}

// slotInstances expands recurring slots into concrete datetimes within
// [start, end), constraint-filtered and in chronological order.
func slotInstances(slots []TimeSlot, constraints Constraints, start, end time.Time) []time.Time {
	var instances []time.Time
	for date := start; date.Before(end); date = date.Add(24 * time.Hour) {
		for _, slot := range slots {
			if date.Weekday() != slot.DayOfWeek {
				continue
			}
			candidate := time.Date(date.Year(), date.Month(), date.Day(), slot.Hour, slot.Minute, 0, 0, start.Location())
			if candidate.Before(start) || !candidate.Before(end) || !constraints.allows(candidate) {
				continue
			}
			instances = append(instances, candidate)
		}
	}
	sort.Slice(instances, func(i, j int) bool { return instances[i].Before(instances[j]) })
	return instances
}

func conflicts(candidate time.Time, taken []time.Time, minGap time.Duration) bool {
	for _, t := range taken {
		diff := candidate.Sub(t)
		if diff < 0 {
			diff = -diff
		}
		if diff < minGap {
			return true
		}
	}
	return false
}
