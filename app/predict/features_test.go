package predict

import (
	"testing"
	"time"

	"postpilot/app/database"
)

func TestExtractFeaturesDimensions(t *testing.T) {
	draft := &database.PostDraft{
		Content:  "Shipping a new Go service today! What do you think? https://example.com 🚀",
		Hashtags: []string{"golang", "devops"},
	}
	at := time.Date(2026, 8, 25, 9, 30, 0, 0, time.UTC) // a Tuesday

	features := ExtractFeatures(draft, at)
	if len(features) != FeatureCount {
		t.Fatalf("Expected %d features, got %d", FeatureCount, len(features))
	}

	if features[1] != 2 {
		t.Errorf("Expected hashtag count 2, got %f", features[1])
	}
	if features[2] != 1 {
		t.Error("Expected question feature set")
	}
	if features[3] != 1 {
		t.Error("Expected call-to-action feature set for 'what do you think'")
	}
	if features[4] != 1 {
		t.Error("Expected emoji feature set")
	}
	if features[5] != 1 {
		t.Error("Expected URL feature set")
	}
	if features[8] != 9 {
		t.Errorf("Expected hour feature 9, got %f", features[8])
	}
	if features[9] != float64(time.Tuesday) {
		t.Errorf("Expected weekday feature %d, got %f", time.Tuesday, features[9])
	}
}

func TestExtractFeaturesPlainText(t *testing.T) {
	draft := &database.PostDraft{Content: "Just a plain statement"}
	features := ExtractFeatures(draft, time.Now())

	for i, idx := range []int{2, 3, 4, 5} {
		if features[idx] != 0 {
			t.Errorf("Expected boolean feature %d unset, got %f", i, features[idx])
		}
	}
	if features[7] != 1 {
		t.Errorf("Expected sentence count 1 for unterminated text, got %f", features[7])
	}
}

func TestPostingTimePreference(t *testing.T) {
	now := time.Now().UTC()
	published := now.Add(-48 * time.Hour)
	scheduled := now.Add(24 * time.Hour)

	draft := &database.PostDraft{PublishedAt: &published, ScheduledFor: &scheduled}
	if got := postingTime(draft, now); !got.Equal(published) {
		t.Errorf("Expected published time preferred, got %v", got)
	}

	draft = &database.PostDraft{ScheduledFor: &scheduled}
	if got := postingTime(draft, now); !got.Equal(scheduled) {
		t.Errorf("Expected scheduled time, got %v", got)
	}

	draft = &database.PostDraft{}
	if got := postingTime(draft, now); !got.Equal(now) {
		t.Errorf("Expected fallback to now, got %v", got)
	}
}

func TestCountSentences(t *testing.T) {
	if got := countSentences("One. Two! Three?"); got != 3 {
		t.Errorf("Expected 3 sentences, got %d", got)
	}
	if got := countSentences(""); got != 0 {
		t.Errorf("Expected 0 sentences for empty text, got %d", got)
	}
}
