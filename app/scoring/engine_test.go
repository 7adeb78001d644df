package scoring

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"postpilot/app/content"
	"postpilot/app/database"
)

type fakeSourceRepo struct {
	sources map[string]*database.ContentSource
}

func (r *fakeSourceRepo) UpsertSource(_ context.Context, _, _, _, _ string, _ int, _ bool) (string, error) {
	return "", nil
}
func (r *fakeSourceRepo) GetSource(_ context.Context, id string) (*database.ContentSource, error) {
	return r.sources[id], nil
}
func (r *fakeSourceRepo) GetActiveSources(_ context.Context, _ string) ([]database.ContentSource, error) {
	return nil, nil
}
func (r *fakeSourceRepo) GetDueSources(_ context.Context, _ time.Time) ([]database.ContentSource, error) {
	return nil, nil
}
func (r *fakeSourceRepo) RecordFetchSuccess(_ context.Context, _ string, _, _ int) error { return nil }
func (r *fakeSourceRepo) RecordFetchFailure(_ context.Context, _ string) error          { return nil }

type fakeItemRepo struct {
	items map[string]*database.ContentItem
}

func (r *fakeItemRepo) InsertItem(_ context.Context, _ *database.ContentItem) error { return nil }
func (r *fakeItemRepo) GetItem(_ context.Context, id string) (*database.ContentItem, error) {
	return r.items[id], nil
}
func (r *fakeItemRepo) URLExists(_ context.Context, _ string) (bool, error)     { return false, nil }
func (r *fakeItemRepo) UpdateItemStatus(_ context.Context, _, _ string) error   { return nil }
func (r *fakeItemRepo) GetItemStats(_ context.Context, _ string) (int, int, int, error) {
	return 0, 0, 0, nil
}

type fakeWeightsRepo struct {
	record   *database.ScoringWeightsRecord
	upserted int
	failGet  bool
}

func (r *fakeWeightsRepo) GetWeights(_ context.Context, _ string) (*database.ScoringWeightsRecord, error) {
	if r.failGet {
		return nil, errors.New("db down")
	}
	return r.record, nil
}
func (r *fakeWeightsRepo) UpsertWeights(_ context.Context, record *database.ScoringWeightsRecord) error {
	r.record = record
	r.upserted++
	return nil
}

type fakePredictor struct {
	rate       float64
	confidence float64
	err        error
}

func (p *fakePredictor) PredictRate(_ context.Context, _ string, _ *database.PostDraft) (float64, float64, error) {
	return p.rate, p.confidence, p.err
}

func newTestEngine(predictor Predictor) (*Engine, *fakeWeightsRepo) {
	weightsRepo := &fakeWeightsRepo{}
	sources := &fakeSourceRepo{sources: map[string]*database.ContentSource{
		"source-1": {
			ID:             "source-1",
			SourceType:     database.SourceTypeNewsletter,
			ItemsFound:     10,
			ItemsProcessed: 10,
		},
	}}
	items := &fakeItemRepo{items: map[string]*database.ContentItem{
		"item-1": {
			ID:        "item-1",
			SourceID:  "source-1",
			CreatedAt: time.Now().UTC().Add(-1 * time.Hour),
		},
	}}
	return NewEngine(sources, items, weightsRepo, predictor), weightsRepo
}

func freshDraft(content string) *database.PostDraft {
	itemID := "item-1"
	return &database.PostDraft{
		ID:            "draft-1",
		UserID:        "user-1",
		ContentItemID: &itemID,
		Content:       content,
		CreatedAt:     time.Now().UTC().Add(-1 * time.Hour),
	}
}

func TestScoreContentCompositeInRange(t *testing.T) {
	engine, _ := newTestEngine(&fakePredictor{rate: 0.15, confidence: 0.8})
	profile := &content.Profile{Interests: []string{"golang"}, Expertise: []string{"backend"}}

	rec, err := engine.ScoreContent(context.Background(), "user-1", freshDraft("A golang deep dive on backend design."), profile)
	if err != nil {
		t.Fatalf("ScoreContent failed: %v", err)
	}

	if rec.CompositeScore < 0 || rec.CompositeScore > 1 {
		t.Errorf("Expected composite in [0,1], got %f", rec.CompositeScore)
	}
	for name, v := range map[string]float64{
		"topic_relevance":      rec.SubScores.TopicRelevance,
		"source_credibility":   rec.SubScores.SourceCredibility,
		"timeliness":           rec.SubScores.Timeliness,
		"engagement_potential": rec.SubScores.EngagementPotential,
	} {
		if v < 0 || v > 1 {
			t.Errorf("Expected %s in [0,1], got %f", name, v)
		}
	}
	if rec.Explanation == "" || !strings.Contains(rec.Explanation, rec.Action) {
		t.Errorf("Expected explanation mentioning the action, got: %s", rec.Explanation)
	}
}

func TestTopicRelevance(t *testing.T) {
	engine, _ := newTestEngine(&fakePredictor{})

	noInterests := &content.Profile{}
	if got := engine.topicRelevance(freshDraft("anything"), noInterests); got != 0.7 {
		t.Errorf("Expected 0.7 default without interests, got %f", got)
	}

	profile := &content.Profile{Interests: []string{"golang", "rust"}}
	// 1 of 2 keywords matched: 0.5 + 0.3
	if got := engine.topicRelevance(freshDraft("All about Golang concurrency."), profile); got != 0.8 {
		t.Errorf("Expected 0.8 for half matched, got %f", got)
	}

	// All matched: capped at 1.0
	if got := engine.topicRelevance(freshDraft("golang and rust compared"), profile); got != 1.0 {
		t.Errorf("Expected cap at 1.0, got %f", got)
	}
}

func TestSourceCredibility(t *testing.T) {
	engine, _ := newTestEngine(&fakePredictor{})

	// Newsletter source, perfect ratio, no failures: (1.0 + 1.0 + 0.9) / 3
	got := engine.sourceCredibility(context.Background(), freshDraft(""))
	want := (1.0 + 1.0 + 0.9) / 3
	if diff := got - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("Expected credibility %f, got %f", want, got)
	}

	manual := &database.PostDraft{ID: "draft-2"}
	if got := engine.sourceCredibility(context.Background(), manual); got != 0.8 {
		t.Errorf("Expected 0.8 for manual draft, got %f", got)
	}

	missing := "no-such-item"
	orphan := &database.PostDraft{ID: "draft-3", ContentItemID: &missing}
	if got := engine.sourceCredibility(context.Background(), orphan); got != 0.5 {
		t.Errorf("Expected 0.5 on lookup failure, got %f", got)
	}
}

func TestTimelinessBands(t *testing.T) {
	engine, _ := newTestEngine(&fakePredictor{})
	now := time.Now().UTC()

	tests := []struct {
		age  time.Duration
		want float64
	}{
		{12 * time.Hour, 1.0},
		{36 * time.Hour, 0.8},
		{60 * time.Hour, 0.6},
		{100 * time.Hour, 0.4},
		{200 * time.Hour, 0.2},
	}

	for _, tt := range tests {
		draft := &database.PostDraft{ID: "d", CreatedAt: now.Add(-tt.age)}
		if got := engine.timeliness(context.Background(), draft, now); got != tt.want {
			t.Errorf("timeliness(age=%v) = %f, expected %f", tt.age, got, tt.want)
		}
	}
}

func TestRecommendActionThresholds(t *testing.T) {
	tests := []struct {
		composite   float64
		autoPosting bool
		want        string
	}{
		{0.85, false, ActionReadyToPost},
		{0.85, true, ActionPostNow},
		{0.80, false, ActionReadyToPost},
		{0.70, true, ActionScheduleOptimal},
		{0.70, false, ActionScheduleLater},
		{0.50, false, ActionReviewAndEdit},
		{0.30, true, ActionSkip},
	}

	for _, tt := range tests {
		if got := recommendAction(tt.composite, tt.autoPosting); got != tt.want {
			t.Errorf("recommendAction(%.2f, %v) = %s, expected %s", tt.composite, tt.autoPosting, got, tt.want)
		}
	}
}

func TestScoreContentPredictorFailureFallsBack(t *testing.T) {
	engine, _ := newTestEngine(&fakePredictor{err: errors.New("model unavailable")})

	rec, err := engine.ScoreContent(context.Background(), "user-1", freshDraft("text"), &content.Profile{})
	if err != nil {
		t.Fatalf("Expected scoring to survive predictor failure, got: %v", err)
	}
	if rec.SubScores.EngagementPotential != 0.1 {
		t.Errorf("Expected default engagement rate 0.1, got %f", rec.SubScores.EngagementPotential)
	}
	if rec.PredictionConfidence != 0.3 {
		t.Errorf("Expected fallback confidence 0.3, got %f", rec.PredictionConfidence)
	}
}

func TestGetUserWeightsFallsBackToDefaults(t *testing.T) {
	engine, _ := newTestEngine(&fakePredictor{})

	weights, err := engine.GetUserWeights(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("GetUserWeights failed: %v", err)
	}
	if weights != DefaultWeights() {
		t.Errorf("Expected defaults for user without stored weights, got %+v", weights)
	}
}

func TestUpdateWeightsPersistsAndInvalidatesCache(t *testing.T) {
	engine, weightsRepo := newTestEngine(&fakePredictor{})
	ctx := context.Background()

	// Prime the cache
	if _, err := engine.GetUserWeights(ctx, "user-1"); err != nil {
		t.Fatalf("GetUserWeights failed: %v", err)
	}

	accepted := FactorAverages{Timeliness: 0.9}
	rejected := FactorAverages{Timeliness: 0.2}

	adjusted, err := engine.UpdateWeights(ctx, "user-1", accepted, rejected)
	if err != nil {
		t.Fatalf("UpdateWeights failed: %v", err)
	}
	if weightsRepo.upserted != 1 {
		t.Errorf("Expected 1 upsert, got %d", weightsRepo.upserted)
	}
	if adjusted.Timeliness <= DefaultWeights().Timeliness {
		t.Errorf("Expected timeliness weight to grow, got %f", adjusted.Timeliness)
	}

	// Next read must reflect the stored record, not the stale cache
	reloaded, err := engine.GetUserWeights(ctx, "user-1")
	if err != nil {
		t.Fatalf("GetUserWeights failed: %v", err)
	}
	if reloaded != adjusted {
		t.Errorf("Expected reloaded weights %+v, got %+v", adjusted, reloaded)
	}
}
