package database

import (
	"context"
	"database/sql"
	"fmt"
)

var _ WeightsRepository = (*WeightsRepo)(nil)

type WeightsRepo struct {
	db *DB
}

func NewWeightsRepository(db *DB) *WeightsRepo {
	return &WeightsRepo{db: db}
}

// GetWeights returns the user's scoring weights, or nil if none are stored.
func (r *WeightsRepo) GetWeights(ctx context.Context, userID string) (*ScoringWeightsRecord, error) {
	var record ScoringWeightsRecord
	err := r.db.QueryRowContext(ctx, `
		SELECT user_id, source_credibility, topic_relevance, timeliness,
		       engagement_potential, updated_at
		FROM scoring_weights
		WHERE user_id = ?
	`, userID).Scan(
		&record.UserID, &record.SourceCredibility, &record.TopicRelevance,
		&record.Timeliness, &record.EngagementPotential, &record.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get scoring weights: %w", err)
	}
	return &record, nil
}

func (r *WeightsRepo) UpsertWeights(ctx context.Context, record *ScoringWeightsRecord) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO scoring_weights (user_id, source_credibility, topic_relevance, timeliness, engagement_potential, updated_at)
		VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (user_id) DO UPDATE SET
			source_credibility = excluded.source_credibility,
			topic_relevance = excluded.topic_relevance,
			timeliness = excluded.timeliness,
			engagement_potential = excluded.engagement_potential,
			updated_at = CURRENT_TIMESTAMP
	`, record.UserID, record.SourceCredibility, record.TopicRelevance,
		record.Timeliness, record.EngagementPotential)
	if err != nil {
		return fmt.Errorf("failed to upsert scoring weights: %w", err)
	}
	return nil
}
