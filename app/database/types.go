package database

import (
	"time"
)

// Content source types
const (
	SourceTypeRSSFeed    = "rss_feed"
	SourceTypeWebsite    = "website"
	SourceTypeNewsletter = "newsletter"
	SourceTypeManual     = "manual"
	SourceTypeLinkedIn   = "linkedin"
)

// Content item statuses
const (
	ItemStatusPending    = "pending"
	ItemStatusProcessing = "processing"
	ItemStatusProcessed  = "processed"
	ItemStatusFailed     = "failed"
	ItemStatusSkipped    = "skipped"
)

// Post draft statuses
const (
	DraftStatusDraft     = "draft"
	DraftStatusReady     = "ready"
	DraftStatusScheduled = "scheduled"
	DraftStatusPublished = "published"
	DraftStatusFailed    = "failed"
	DraftStatusArchived  = "archived"
)

type User struct {
	ID        string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type ContentSource struct {
	ID                  string
	UserID              string
	Name                string
	SourceType          string
	URL                 string
	CheckInterval       int // seconds
	IsActive            bool
	ItemsFound          int
	ItemsProcessed      int
	ConsecutiveFailures int
	LastCheckedAt       *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

type ContentItem struct {
	ID             string
	SourceID       string
	UserID         string
	Title          string
	URL            string
	Content        string
	Author         string
	PublishedAt    *time.Time
	RelevanceScore *int // 0-100, set only after scoring
	AIReasoning    string
	AICategory     string
	AIConfidence   float64
	Status         string
	WordCount      int
	CreatedAt      time.Time
}

type PostDraft struct {
	ID                  string
	UserID              string
	ContentItemID       *string
	Content             string
	Hashtags            []string
	Status              string
	ScheduledFor        *time.Time
	PublishedAt         *time.Time
	Likes               int
	Comments            int
	Shares              int
	Views               int
	Clicks              int
	MetricsUpdatedAt    *time.Time
	PublicationAttempts int
	CreatedAt           time.Time
}

// Engagement returns the weighted engagement points used for time slot
// ranking: likes count once, comments twice, shares three times.
func (d *PostDraft) Engagement() float64 {
	return float64(d.Likes) + 2*float64(d.Comments) + 3*float64(d.Shares)
}

type ScoringWeightsRecord struct {
	UserID              string
	SourceCredibility   float64
	TopicRelevance      float64
	Timeliness          float64
	EngagementPotential float64
	UpdatedAt           time.Time
}
