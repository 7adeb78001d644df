package predict

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"postpilot/app/database"
)

// ErrInsufficientHistory is returned by forced retraining when a model
// lacks the minimum number of valid samples.
var ErrInsufficientHistory = errors.New("insufficient published history")

const (
	userModelTTL     = 7 * 24 * time.Hour
	baselineModelTTL = 30 * 24 * time.Hour

	minUserSamples     = 5
	minBaselineSamples = 20
	baselineSampleCap  = 200
	userHistoryLimit   = 100
	reachSampleLimit   = 20

	// Engagement rate assumed when no model can be trained
	defaultRate = 0.1
)

// Model provenance reported with each prediction.
const (
	ModelTypeUser     = "user"
	ModelTypeBaseline = "baseline"
	ModelTypeDefault  = "default"
)

var modelConfidence = map[string]float64{
	ModelTypeUser:     0.8,
	ModelTypeBaseline: 0.5,
	ModelTypeDefault:  0.3,
}

// Prediction is an engagement estimate with concrete metrics derived
// from the user's historical reach.
type Prediction struct {
	EngagementRate    float64 `json:"engagement_rate"`
	Confidence        float64 `json:"confidence"`
	ModelType         string  `json:"model_type"`
	EstimatedViews    int     `json:"estimated_views"`
	EstimatedLikes    int     `json:"estimated_likes"`
	EstimatedComments int     `json:"estimated_comments"`
	EstimatedShares   int     `json:"estimated_shares"`
}

type cachedModel struct {
	model     *RidgeModel
	trainedAt time.Time
}

// Predictor estimates post engagement rates from published history.
// Per-user models and the cross-user baseline are trained lazily and
// cached; retraining swaps the cached model atomically so readers see
// either the old or the new model, never a mix.
type Predictor struct {
	drafts database.DraftRepository
	now    func() time.Time

	mu         sync.RWMutex
	userModels map[string]*cachedModel
	baseline   *cachedModel
}

func NewPredictor(drafts database.DraftRepository) *Predictor {
	return &Predictor{
		drafts:     drafts,
		now:        time.Now,
		userModels: make(map[string]*cachedModel),
	}
}

// PredictRate returns the predicted engagement rate and the confidence
// of the model that produced it.
func (p *Predictor) PredictRate(ctx context.Context, userID string, draft *database.PostDraft) (float64, float64, error) {
	prediction, err := p.Predict(ctx, userID, draft)
	if err != nil {
		return 0, 0, err
	}
	return prediction.EngagementRate, prediction.Confidence, nil
}

// Predict estimates the draft's engagement rate and derives concrete
// metrics from the user's historical average reach, split 70% likes,
// 20% comments, 10% shares.
func (p *Predictor) Predict(ctx context.Context, userID string, draft *database.PostDraft) (*Prediction, error) {
	features := ExtractFeatures(draft, postingTime(draft, p.now().UTC()))

	model, modelType := p.modelFor(ctx, userID)

	rate := defaultRate
	if model != nil {
		rate = model.Predict(features)
	}

	prediction := &Prediction{
		EngagementRate: rate,
		Confidence:     modelConfidence[modelType],
		ModelType:      modelType,
	}

	reach := p.averageReach(ctx, userID)
	if reach > 0 {
		total := rate * reach
		prediction.EstimatedViews = int(math.Round(reach))
		prediction.EstimatedLikes = int(math.Round(total * 0.7))
		prediction.EstimatedComments = int(math.Round(total * 0.2))
		prediction.EstimatedShares = int(math.Round(total * 0.1))
	}

	return prediction, nil
}

// Retrain forces a fresh user model regardless of cache age. Used by
// the scheduled retraining task.
func (p *Predictor) Retrain(ctx context.Context, userID string) error {
	model, err := p.trainUserModel(ctx, userID)
	if err != nil {
		return err
	}
	if model == nil {
		return fmt.Errorf("user %s: %w", userID, ErrInsufficientHistory)
	}

	p.mu.Lock()
	p.userModels[userID] = &cachedModel{model: model, trainedAt: p.now()}
	p.mu.Unlock()

	slog.Info("Engagement model retrained", "user_id", userID)
	return nil
}

// RetrainBaseline forces a fresh cross-user baseline model.
func (p *Predictor) RetrainBaseline(ctx context.Context) error {
	model, err := p.trainBaselineModel(ctx)
	if err != nil {
		return err
	}
	if model == nil {
		return fmt.Errorf("baseline model: %w", ErrInsufficientHistory)
	}

	p.mu.Lock()
	p.baseline = &cachedModel{model: model, trainedAt: p.now()}
	p.mu.Unlock()

	slog.Info("Baseline engagement model retrained")
	return nil
}

// modelFor returns the freshest usable model: user-specific, then
// baseline, then none (default prediction). Stale or missing models are
// retrained lazily; training failures fall through to the next tier.
func (p *Predictor) modelFor(ctx context.Context, userID string) (*RidgeModel, string) {
	now := p.now()

	p.mu.RLock()
	user := p.userModels[userID]
	baseline := p.baseline
	p.mu.RUnlock()

	if user != nil && now.Sub(user.trainedAt) < userModelTTL {
		return user.model, ModelTypeUser
	}

	model, err := p.trainUserModel(ctx, userID)
	if err != nil {
		slog.Warn("User model training failed", "user_id", userID, "error", err)
	} else if model != nil {
		p.mu.Lock()
		p.userModels[userID] = &cachedModel{model: model, trainedAt: now}
		p.mu.Unlock()
		return model, ModelTypeUser
	}

	if baseline != nil && now.Sub(baseline.trainedAt) < baselineModelTTL {
		return baseline.model, ModelTypeBaseline
	}

	model, err = p.trainBaselineModel(ctx)
	if err != nil {
		slog.Warn("Baseline model training failed", "error", err)
	} else if model != nil {
		p.mu.Lock()
		p.baseline = &cachedModel{model: model, trainedAt: now}
		p.mu.Unlock()
		return model, ModelTypeBaseline
	}

	return nil, ModelTypeDefault
}

func (p *Predictor) trainUserModel(ctx context.Context, userID string) (*RidgeModel, error) {
	drafts, err := p.drafts.GetRecentPublished(ctx, userID, userHistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load published posts: %w", err)
	}

	features, targets := buildSamples(drafts)
	if len(targets) < minUserSamples {
		return nil, nil
	}

	return TrainRidge(features, targets, ridgeLambda)
}

func (p *Predictor) trainBaselineModel(ctx context.Context) (*RidgeModel, error) {
	drafts, err := p.drafts.GetRecentPublishedAllUsers(ctx, baselineSampleCap)
	if err != nil {
		return nil, fmt.Errorf("failed to load cross-user posts: %w", err)
	}

	features, targets := buildSamples(drafts)
	if len(targets) < minBaselineSamples {
		return nil, nil
	}

	return TrainRidge(features, targets, ridgeLambda)
}

// buildSamples converts published drafts with recorded views into
// training pairs. The target is the raw engagement rate
// (likes+comments+shares)/views.
func buildSamples(drafts []database.PostDraft) ([][]float64, []float64) {
	var features [][]float64
	var targets []float64

	for i := range drafts {
		draft := &drafts[i]
		if draft.Views <= 0 || draft.PublishedAt == nil {
			continue
		}
		features = append(features, ExtractFeatures(draft, *draft.PublishedAt))
		targets = append(targets, float64(draft.Likes+draft.Comments+draft.Shares)/float64(draft.Views))
	}

	return features, targets
}

// averageReach is the mean view count over the user's recent published
// posts, 0 when no post has recorded views.
func (p *Predictor) averageReach(ctx context.Context, userID string) float64 {
	drafts, err := p.drafts.GetRecentPublished(ctx, userID, reachSampleLimit)
	if err != nil {
		slog.Warn("Failed to load reach history", "user_id", userID, "error", err)
		return 0
	}

	sum, count := 0, 0
	for _, draft := range drafts {
		if draft.Views > 0 {
			sum += draft.Views
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return float64(sum) / float64(count)
}
