package content

import (
	"fmt"
	"strings"
	"time"
)

type Filterer struct{}

func NewFilterer() *Filterer {
	return &Filterer{}
}

// Run applies the user's content filters to each article. Rejected
// articles are marked with a reason; no scoring is performed on them.
func (f *Filterer) Run(articles []Article, profile *Profile) []Article {
	now := time.Now().UTC()

	filtered := make([]Article, 0, len(articles))
	for _, article := range articles {
		isFiltered, filterReason := f.applyFilters(article, profile, now)
		article.IsFiltered = isFiltered
		article.FilterReason = filterReason
		filtered = append(filtered, article)
	}

	return filtered
}

// applyFilters checks length, freshness, the avoid list, and the
// interest allow list, in that order. The first failing check rejects
// the article.
func (f *Filterer) applyFilters(article Article, profile *Profile, now time.Time) (bool, string) {
	if article.WordCount < profile.MinWordCount {
		return true, fmt.Sprintf("below minimum word count: %d < %d", article.WordCount, profile.MinWordCount)
	}

	if !article.PublishedAt.IsZero() {
		maxAge := time.Duration(profile.ContentFreshnessHours) * time.Hour
		if now.Sub(article.PublishedAt) > maxAge {
			return true, fmt.Sprintf("older than %d hours", profile.ContentFreshnessHours)
		}
	}

	text := strings.ToLower(article.Title + " " + article.Content)

	for _, topic := range profile.TopicsToAvoid {
		if topic != "" && strings.Contains(text, strings.ToLower(topic)) {
			return true, fmt.Sprintf("matches avoided topic '%s'", topic)
		}
	}

	if len(profile.Interests) > 0 {
		matched := false
		for _, interest := range profile.Interests {
			if interest != "" && strings.Contains(text, strings.ToLower(interest)) {
				matched = true
				break
			}
		}
		if !matched {
			return true, fmt.Sprintf("does not match any interest of %v", profile.Interests)
		}
	}

	return false, ""
}
