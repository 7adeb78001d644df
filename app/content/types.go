package content

import (
	"time"
)

// Article is the ephemeral pipeline unit between fetch and persistence.
// It is discarded once persisted as a content item or rejected.
type Article struct {
	Title       string
	URL         string
	Content     string
	Author      string
	PublishedAt time.Time
	SourceID    string
	SourceName  string
	WordCount   int

	IsFiltered   bool
	FilterReason string

	// Set by the relevance stage
	RelevanceScore int // 0-100
	AIReasoning    string
	AICategory     string
	AIConfidence   float64
}

// Profile types

type Profile struct {
	Name                  string         // Derived from filename (without .yml extension)
	Interests             []string       `yaml:"interests"`
	Expertise             []string       `yaml:"expertise"`
	TopicsToAvoid         []string       `yaml:"topics_to_avoid"`
	MinWordCount          int            `yaml:"min_word_count"`
	ContentFreshnessHours int            `yaml:"content_freshness_hours"`
	MinRelevanceScore     float64        `yaml:"min_relevance_score"`
	AutoPosting           bool           `yaml:"auto_posting"`
	Tone                  string         `yaml:"tone"`
	Posting               PostingConfig  `yaml:"posting"`
	Sources               []SourceConfig `yaml:"sources"`
}

type PostingConfig struct {
	Frequency            string `yaml:"frequency"` // multiple_daily, daily, few_times_week, weekly
	MinHoursBetweenPosts int    `yaml:"min_hours_between_posts"`
	AvoidWeekends        bool   `yaml:"avoid_weekends"`
	BusinessHoursOnly    bool   `yaml:"business_hours_only"`
}

type SourceConfig struct {
	Name          string `yaml:"name"`
	Type          string `yaml:"type"`
	URL           string `yaml:"url"`
	CheckInterval int    `yaml:"check_interval"` // seconds
	Enabled       bool   `yaml:"enabled"`
}

// InterestKeywords returns the combined interest and expertise keywords
// used for topic matching.
func (p *Profile) InterestKeywords() []string {
	keywords := make([]string, 0, len(p.Interests)+len(p.Expertise))
	keywords = append(keywords, p.Interests...)
	keywords = append(keywords, p.Expertise...)
	return keywords
}
