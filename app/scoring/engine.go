package scoring

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"postpilot/app/content"
	"postpilot/app/database"
)

// Recommendation actions, ordered by descending composite score.
const (
	ActionPostNow         = "post_now"
	ActionReadyToPost     = "ready_to_post"
	ActionScheduleOptimal = "schedule_optimal"
	ActionScheduleLater   = "schedule_later"
	ActionReviewAndEdit   = "review_and_edit"
	ActionSkip            = "skip"
)

// Per-source-type base credibility scores.
var sourceTypeCredibility = map[string]float64{
	database.SourceTypeRSSFeed:    0.8,
	database.SourceTypeWebsite:    0.7,
	database.SourceTypeNewsletter: 0.9,
	database.SourceTypeManual:     0.8,
	database.SourceTypeLinkedIn:   0.6,
}

type SubScores struct {
	TopicRelevance      float64 `json:"topic_relevance"`
	SourceCredibility   float64 `json:"source_credibility"`
	Timeliness          float64 `json:"timeliness"`
	EngagementPotential float64 `json:"engagement_potential"`
}

type Recommendation struct {
	DraftID              string    `json:"draft_id"`
	CompositeScore       float64   `json:"composite_score"`
	SubScores            SubScores `json:"sub_scores"`
	Action               string    `json:"action"`
	Explanation          string    `json:"explanation"`
	PredictionConfidence float64   `json:"prediction_confidence"`
}

// Predictor estimates a draft's engagement rate. Confidence reflects
// which model produced the estimate.
type Predictor interface {
	PredictRate(ctx context.Context, userID string, draft *database.PostDraft) (rate float64, confidence float64, err error)
}

// Engine computes composite content scores and action recommendations.
// Scoring weights are cached per user and invalidated on update.
type Engine struct {
	sources     database.SourceRepository
	items       database.ItemRepository
	weightsRepo database.WeightsRepository
	predictor   Predictor

	mu    sync.RWMutex
	cache map[string]Weights
}

func NewEngine(sources database.SourceRepository, items database.ItemRepository, weightsRepo database.WeightsRepository, predictor Predictor) *Engine {
	return &Engine{
		sources:     sources,
		items:       items,
		weightsRepo: weightsRepo,
		predictor:   predictor,
		cache:       make(map[string]Weights),
	}
}

// ScoreContent computes the four sub-scores for a draft, combines them
// with the user's weights and maps the composite onto an action.
func (e *Engine) ScoreContent(ctx context.Context, userID string, draft *database.PostDraft, profile *content.Profile) (*Recommendation, error) {
	weights, err := e.GetUserWeights(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load scoring weights: %w", err)
	}

	sub := SubScores{
		TopicRelevance:    e.topicRelevance(draft, profile),
		SourceCredibility: e.sourceCredibility(ctx, draft),
		Timeliness:        e.timeliness(ctx, draft, time.Now().UTC()),
	}

	rate, confidence, err := e.predictor.PredictRate(ctx, userID, draft)
	if err != nil {
		// Predictor falls back internally; an error here is unexpected
		slog.Warn("Engagement prediction failed, using default rate", "user_id", userID, "draft_id", draft.ID, "error", err)
		rate, confidence = 0.1, 0.3
	}
	sub.EngagementPotential = clamp01(rate)

	composite := weights.TopicRelevance*sub.TopicRelevance +
		weights.SourceCredibility*sub.SourceCredibility +
		weights.Timeliness*sub.Timeliness +
		weights.EngagementPotential*sub.EngagementPotential

	action := recommendAction(composite, profile.AutoPosting)

	return &Recommendation{
		DraftID:              draft.ID,
		CompositeScore:       composite,
		SubScores:            sub,
		Action:               action,
		Explanation:          buildExplanation(sub, action),
		PredictionConfidence: confidence,
	}, nil
}

// topicRelevance is the fraction of the user's interest and expertise
// keywords found in the draft content, shifted up by 0.3 and capped at 1.
func (e *Engine) topicRelevance(draft *database.PostDraft, profile *content.Profile) float64 {
	keywords := profile.InterestKeywords()
	if len(keywords) == 0 {
		return 0.7
	}

	haystack := strings.ToLower(draft.Content)
	matches := 0
	for _, keyword := range keywords {
		if strings.Contains(haystack, strings.ToLower(keyword)) {
			matches++
		}
	}

	score := float64(matches)/float64(len(keywords)) + 0.3
	if score > 1 {
		score = 1
	}
	return score
}

// sourceCredibility averages the source's processing success ratio, its
// failure penalty and a per-type base score. Drafts without a content
// item were created manually and get a flat 0.8; lookup failures score
// a neutral 0.5.
func (e *Engine) sourceCredibility(ctx context.Context, draft *database.PostDraft) float64 {
	if draft.ContentItemID == nil {
		return 0.8
	}

	item, err := e.items.GetItem(ctx, *draft.ContentItemID)
	if err != nil || item == nil {
		return 0.5
	}

	source, err := e.sources.GetSource(ctx, item.SourceID)
	if err != nil || source == nil {
		return 0.5
	}

	ratio := 0.5
	if source.ItemsFound > 0 {
		ratio = float64(source.ItemsProcessed) / float64(source.ItemsFound)
	}

	failurePenalty := float64(source.ConsecutiveFailures) * 0.1
	if failurePenalty > 0.5 {
		failurePenalty = 0.5
	}

	base, ok := sourceTypeCredibility[source.SourceType]
	if !ok {
		base = 0.7
	}

	return (ratio + (1 - failurePenalty) + base) / 3
}

// timeliness is a step function of the content's age since it entered
// the system.
func (e *Engine) timeliness(ctx context.Context, draft *database.PostDraft, now time.Time) float64 {
	createdAt := draft.CreatedAt
	if draft.ContentItemID != nil {
		if item, err := e.items.GetItem(ctx, *draft.ContentItemID); err == nil && item != nil {
			createdAt = item.CreatedAt
		}
	}

	age := now.Sub(createdAt)
	switch {
	case age <= 24*time.Hour:
		return 1.0
	case age <= 48*time.Hour:
		return 0.8
	case age <= 72*time.Hour:
		return 0.6
	case age <= 168*time.Hour:
		return 0.4
	default:
		return 0.2
	}
}

// GetUserWeights returns the user's scoring weights, from cache, then
// the database, then defaults.
func (e *Engine) GetUserWeights(ctx context.Context, userID string) (Weights, error) {
	e.mu.RLock()
	cached, ok := e.cache[userID]
	e.mu.RUnlock()
	if ok {
		return cached, nil
	}

	record, err := e.weightsRepo.GetWeights(ctx, userID)
	if err != nil {
		return Weights{}, err
	}

	weights := DefaultWeights()
	if record != nil {
		weights = Weights{
			SourceCredibility:   record.SourceCredibility,
			TopicRelevance:      record.TopicRelevance,
			Timeliness:          record.Timeliness,
			EngagementPotential: record.EngagementPotential,
		}
	}

	e.mu.Lock()
	e.cache[userID] = weights
	e.mu.Unlock()

	return weights, nil
}

// UpdateWeights applies the adjustment rule to the user's weights,
// persists the result and invalidates the cache entry so the next read
// sees the new weights.
func (e *Engine) UpdateWeights(ctx context.Context, userID string, accepted, rejected FactorAverages) (Weights, error) {
	current, err := e.GetUserWeights(ctx, userID)
	if err != nil {
		return Weights{}, err
	}

	adjusted := AdjustWeights(current, accepted, rejected)

	record := &database.ScoringWeightsRecord{
		UserID:              userID,
		SourceCredibility:   adjusted.SourceCredibility,
		TopicRelevance:      adjusted.TopicRelevance,
		Timeliness:          adjusted.Timeliness,
		EngagementPotential: adjusted.EngagementPotential,
	}
	if err := e.weightsRepo.UpsertWeights(ctx, record); err != nil {
		return Weights{}, fmt.Errorf("failed to persist scoring weights: %w", err)
	}

	e.mu.Lock()
	delete(e.cache, userID)
	e.mu.Unlock()

	slog.Info("Scoring weights updated",
		"user_id", userID,
		"source_credibility", adjusted.SourceCredibility,
		"topic_relevance", adjusted.TopicRelevance,
		"timeliness", adjusted.Timeliness,
		"engagement_potential", adjusted.EngagementPotential)

	return adjusted, nil
}

func recommendAction(composite float64, autoPosting bool) string {
	switch {
	case composite >= 0.8:
		if autoPosting {
			return ActionPostNow
		}
		return ActionReadyToPost
	case composite >= 0.6:
		if autoPosting {
			return ActionScheduleOptimal
		}
		return ActionScheduleLater
	case composite >= 0.4:
		return ActionReviewAndEdit
	default:
		return ActionSkip
	}
}

func buildExplanation(sub SubScores, action string) string {
	parts := []string{
		fmt.Sprintf("Topic relevance is %s (%.2f)", describeBand(sub.TopicRelevance), sub.TopicRelevance),
		fmt.Sprintf("source credibility is %s (%.2f)", describeBand(sub.SourceCredibility), sub.SourceCredibility),
		fmt.Sprintf("timeliness is %s (%.2f)", describeBand(sub.Timeliness), sub.Timeliness),
		fmt.Sprintf("engagement potential is %s (%.2f)", describeBand(sub.EngagementPotential), sub.EngagementPotential),
	}
	return fmt.Sprintf("%s. Recommended action: %s.", strings.Join(parts, ", "), action)
}

func describeBand(score float64) string {
	switch {
	case score >= 0.8:
		return "strong"
	case score >= 0.6:
		return "good"
	case score >= 0.4:
		return "moderate"
	default:
		return "weak"
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
