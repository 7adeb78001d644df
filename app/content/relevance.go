package content

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"
)

// Truncation limit for content sent to the oracle, in runes.
const maxOracleContentLength = 4000

// OracleResult is the relevance verdict for a single article.
type OracleResult struct {
	RelevanceScore float64 `json:"relevance_score"` // [0,1]
	Reasoning      string  `json:"reasoning"`
	TopicCategory  string  `json:"topic_category"`
	Confidence     float64 `json:"confidence"` // [0,1]
}

// Oracle scores article relevance against a user's interest profile.
type Oracle interface {
	ScoreRelevance(ctx context.Context, articleContent, title, userContext string, profile *Profile) (*OracleResult, error)
}

// DraftResult is a generated post draft.
type DraftResult struct {
	Content  string   `json:"content"`
	Hashtags []string `json:"hashtags"`
}

// DraftWriter turns a scored article into a post draft in the user's
// voice.
type DraftWriter interface {
	GenerateDraft(ctx context.Context, title, articleContent string, profile *Profile) (*DraftResult, error)
}

// RelevanceScorer batches oracle calls and gates articles on the user's
// minimum relevance score.
type RelevanceScorer struct {
	oracle     Oracle
	batchSize  int
	batchDelay time.Duration
}

func NewRelevanceScorer(oracle Oracle, batchSize int, batchDelay time.Duration) *RelevanceScorer {
	if batchSize <= 0 {
		batchSize = 10
	}
	return &RelevanceScorer{
		oracle:     oracle,
		batchSize:  batchSize,
		batchDelay: batchDelay,
	}
}

// Run scores the articles in fetch order and returns those meeting the
// user's threshold, with relevance fields populated. Oracle failures
// drop the affected article and the run continues. Only context
// cancellation aborts the run.
func (s *RelevanceScorer) Run(ctx context.Context, articles []Article, profile *Profile) ([]Article, error) {
	userContext := BuildUserContext(profile)

	var kept []Article
	for start := 0; start < len(articles); start += s.batchSize {
		if start > 0 && s.batchDelay > 0 {
			// Inter-batch delay to respect oracle rate limits
			select {
			case <-ctx.Done():
				return kept, ctx.Err()
			case <-time.After(s.batchDelay):
			}
		}

		end := min(start+s.batchSize, len(articles))
		for _, article := range articles[start:end] {
			select {
			case <-ctx.Done():
				return kept, ctx.Err()
			default:
			}

			result, err := s.oracle.ScoreRelevance(ctx, truncateRunes(article.Content, maxOracleContentLength), article.Title, userContext, profile)
			if err != nil {
				slog.Warn("Relevance scoring failed, dropping article", "url", article.URL, "error", err)
				continue
			}

			if result.RelevanceScore < profile.MinRelevanceScore {
				slog.Debug("Article below relevance threshold",
					"url", article.URL,
					"score", result.RelevanceScore,
					"threshold", profile.MinRelevanceScore)
				continue
			}

			article.RelevanceScore = int(math.Round(result.RelevanceScore * 100))
			article.AIReasoning = result.Reasoning
			article.AICategory = result.TopicCategory
			article.AIConfidence = result.Confidence
			kept = append(kept, article)
		}
	}

	return kept, nil
}

// BuildUserContext renders the profile's interests and expertise as the
// context string passed to the oracle.
func BuildUserContext(profile *Profile) string {
	var parts []string
	if len(profile.Interests) > 0 {
		parts = append(parts, fmt.Sprintf("Interests: %s.", strings.Join(profile.Interests, ", ")))
	}
	if len(profile.Expertise) > 0 {
		parts = append(parts, fmt.Sprintf("Expertise: %s.", strings.Join(profile.Expertise, ", ")))
	}
	if len(parts) == 0 {
		return "No declared interests."
	}
	return strings.Join(parts, " ")
}

func truncateRunes(s string, max int) string {
	rs := []rune(s)
	if len(rs) <= max {
		return s
	}
	return string(rs[:max])
}
