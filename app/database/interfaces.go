package database

import (
	"context"
	"time"
)

type UserRepository interface {
	UpsertUser(ctx context.Context, name string) (string, error)
	GetUserByName(ctx context.Context, name string) (*User, error)
	ListUsers(ctx context.Context) ([]User, error)
}

type SourceRepository interface {
	UpsertSource(ctx context.Context, userID, name, sourceType, url string, checkInterval int, isActive bool) (string, error)
	GetSource(ctx context.Context, id string) (*ContentSource, error)
	GetActiveSources(ctx context.Context, userID string) ([]ContentSource, error)
	GetDueSources(ctx context.Context, now time.Time) ([]ContentSource, error)
	RecordFetchSuccess(ctx context.Context, id string, itemsFound, itemsProcessed int) error
	RecordFetchFailure(ctx context.Context, id string) error
}

type ItemRepository interface {
	InsertItem(ctx context.Context, item *ContentItem) error
	GetItem(ctx context.Context, id string) (*ContentItem, error)
	URLExists(ctx context.Context, url string) (bool, error)
	UpdateItemStatus(ctx context.Context, id, status string) error
	GetItemStats(ctx context.Context, userID string) (total, processed, failed int, err error)
}

type DraftRepository interface {
	InsertDraft(ctx context.Context, draft *PostDraft) error
	GetDraft(ctx context.Context, id string) (*PostDraft, error)
	GetDraftsByStatus(ctx context.Context, userID string, statuses []string) ([]PostDraft, error)
	GetRecentPublished(ctx context.Context, userID string, limit int) ([]PostDraft, error)
	GetRecentPublishedAllUsers(ctx context.Context, limit int) ([]PostDraft, error)
	GetScheduledTimes(ctx context.Context, userID string, from, to time.Time) ([]time.Time, error)
	CountDraftsForItem(ctx context.Context, contentItemID string) (int, error)
	UpdateDraftSchedule(ctx context.Context, id string, scheduledFor time.Time) error
}

type WeightsRepository interface {
	GetWeights(ctx context.Context, userID string) (*ScoringWeightsRecord, error)
	UpsertWeights(ctx context.Context, record *ScoringWeightsRecord) error
}
