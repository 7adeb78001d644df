package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"postpilot/app/content"
	"postpilot/app/database"
)

// RunStats aggregates the outcome of a pipeline run.
type RunStats struct {
	UsersProcessed    int      `json:"users_processed"`
	SourcesProcessed  int      `json:"sources_processed"`
	ArticlesFetched   int      `json:"articles_fetched"`
	ArticlesFiltered  int      `json:"articles_filtered"`
	ArticlesScored    int      `json:"articles_scored"`
	ArticlesPersisted int      `json:"articles_persisted"`
	DraftsEnqueued    int      `json:"drafts_enqueued"`
	Errors            []string `json:"errors"`
}

func (s *RunStats) merge(other *RunStats) {
	s.UsersProcessed += other.UsersProcessed
	s.SourcesProcessed += other.SourcesProcessed
	s.ArticlesFetched += other.ArticlesFetched
	s.ArticlesFiltered += other.ArticlesFiltered
	s.ArticlesScored += other.ArticlesScored
	s.ArticlesPersisted += other.ArticlesPersisted
	s.DraftsEnqueued += other.DraftsEnqueued
	s.Errors = append(s.Errors, other.Errors...)
}

// DraftEnqueuer hands persisted content items to the background draft
// generation queue.
type DraftEnqueuer interface {
	EnqueueDraftGeneration(userID, userName, itemID string)
}

// Runner drives the fixed content pipeline: fetch, dedup, filter,
// relevance, persist, enqueue.
type Runner struct {
	profiles  *content.ProfileCache
	users     database.UserRepository
	sources   database.SourceRepository
	items     database.ItemRepository
	fetcher   *content.Fetcher
	dedup     *content.Deduplicator
	filterer  *content.Filterer
	relevance *content.RelevanceScorer
	enqueuer  DraftEnqueuer
}

func NewRunner(
	profiles *content.ProfileCache,
	users database.UserRepository,
	sources database.SourceRepository,
	items database.ItemRepository,
	fetcher *content.Fetcher,
	relevance *content.RelevanceScorer,
	enqueuer DraftEnqueuer,
) *Runner {
	return &Runner{
		profiles:  profiles,
		users:     users,
		sources:   sources,
		items:     items,
		fetcher:   fetcher,
		dedup:     content.NewDeduplicator(),
		filterer:  content.NewFilterer(),
		relevance: relevance,
		enqueuer:  enqueuer,
	}
}

// Run processes one user's sources, or every cached profile when
// userName is empty. Per-source failures are collected, not fatal.
func (r *Runner) Run(ctx context.Context, userName string) (*RunStats, error) {
	if userName != "" {
		profile, err := r.profiles.GetProfile(userName)
		if err != nil {
			return nil, err
		}
		return r.runUser(ctx, profile)
	}

	stats := &RunStats{}
	for _, profile := range r.profiles.GetProfiles() {
		userStats, err := r.runUser(ctx, profile)
		if err != nil {
			stats.Errors = append(stats.Errors, fmt.Sprintf("user %s: %v", profile.Name, err))
			continue
		}
		stats.merge(userStats)
	}
	return stats, nil
}

func (r *Runner) runUser(ctx context.Context, profile *content.Profile) (*RunStats, error) {
	userID, err := r.users.UpsertUser(ctx, profile.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert user %s: %w", profile.Name, err)
	}

	stats := &RunStats{UsersProcessed: 1}

	for _, sourceCfg := range profile.Sources {
		if !sourceCfg.Enabled {
			continue
		}

		sourceID, err := r.sources.UpsertSource(ctx, userID, sourceCfg.Name, sourceCfg.Type, sourceCfg.URL, sourceCfg.CheckInterval, true)
		if err != nil {
			stats.Errors = append(stats.Errors, fmt.Sprintf("source %s: %v", sourceCfg.Name, err))
			continue
		}

		source, err := r.sources.GetSource(ctx, sourceID)
		if err != nil || source == nil {
			stats.Errors = append(stats.Errors, fmt.Sprintf("source %s: lookup failed", sourceCfg.Name))
			continue
		}

		sourceStats := r.RunSource(ctx, userID, profile, source)
		stats.merge(sourceStats)
	}

	slog.Info("Pipeline run finished for user",
		"user", profile.Name,
		"sources", stats.SourcesProcessed,
		"fetched", stats.ArticlesFetched,
		"persisted", stats.ArticlesPersisted,
		"errors", len(stats.Errors))

	return stats, nil
}

// RunSource runs the pipeline stages for a single source and records
// the fetch outcome on the source row.
func (r *Runner) RunSource(ctx context.Context, userID string, profile *content.Profile, source *database.ContentSource) *RunStats {
	stats := &RunStats{SourcesProcessed: 1}

	articles, err := r.fetcher.Fetch(ctx, source)
	if err != nil {
		stats.Errors = append(stats.Errors, fmt.Sprintf("source %s: %v", source.Name, err))
		if dbErr := r.sources.RecordFetchFailure(ctx, source.ID); dbErr != nil {
			slog.Error("Failed to record fetch failure", "source_id", source.ID, "error", dbErr)
		}
		return stats
	}

	stats.ArticlesFetched = len(articles)

	fresh := r.dropDuplicates(ctx, articles, stats)

	filtered := r.filterer.Run(fresh, profile)
	var passed []content.Article
	for _, article := range filtered {
		if article.IsFiltered {
			stats.ArticlesFiltered++
			slog.Debug("Article filtered", "url", article.URL, "reason", article.FilterReason)
			continue
		}
		passed = append(passed, article)
	}

	scored, err := r.relevance.Run(ctx, passed, profile)
	if err != nil {
		stats.Errors = append(stats.Errors, fmt.Sprintf("source %s: relevance scoring aborted: %v", source.Name, err))
		return stats
	}
	stats.ArticlesScored = len(scored)

	for _, article := range scored {
		itemID, err := r.persistArticle(ctx, userID, article)
		if err != nil {
			if err == database.ErrDuplicateURL {
				continue
			}
			stats.Errors = append(stats.Errors, fmt.Sprintf("article %s: %v", article.URL, err))
			continue
		}
		stats.ArticlesPersisted++

		if r.enqueuer != nil {
			r.enqueuer.EnqueueDraftGeneration(userID, profile.Name, itemID)
			stats.DraftsEnqueued++
		}
	}

	if err := r.sources.RecordFetchSuccess(ctx, source.ID, stats.ArticlesFetched, stats.ArticlesPersisted); err != nil {
		slog.Error("Failed to record fetch success", "source_id", source.ID, "error", err)
	}

	return stats
}

// dropDuplicates removes articles whose normalized URL was already seen
// in this run or already persisted. The in-memory set is a fast path;
// the database unique constraint stays authoritative at insert time.
func (r *Runner) dropDuplicates(ctx context.Context, articles []content.Article, stats *RunStats) []content.Article {
	var fresh []content.Article
	for _, article := range articles {
		if r.dedup.IsDuplicateURL(article.URL) {
			continue
		}
		exists, err := r.items.URLExists(ctx, r.dedup.NormalizeURL(article.URL))
		if err != nil {
			stats.Errors = append(stats.Errors, fmt.Sprintf("article %s: duplicate check failed: %v", article.URL, err))
			continue
		}
		if exists {
			r.dedup.AddURL(article.URL)
			continue
		}
		r.dedup.AddURL(article.URL)
		fresh = append(fresh, article)
	}
	return fresh
}

func (r *Runner) persistArticle(ctx context.Context, userID string, article content.Article) (string, error) {
	score := article.RelevanceScore
	item := &database.ContentItem{
		SourceID:       article.SourceID,
		UserID:         userID,
		Title:          article.Title,
		URL:            r.dedup.NormalizeURL(article.URL),
		Content:        article.Content,
		Author:         article.Author,
		RelevanceScore: &score,
		AIReasoning:    article.AIReasoning,
		AICategory:     article.AICategory,
		AIConfidence:   article.AIConfidence,
		Status:         database.ItemStatusProcessed,
		WordCount:      article.WordCount,
	}
	if !article.PublishedAt.IsZero() {
		publishedAt := article.PublishedAt
		item.PublishedAt = &publishedAt
	}

	if err := r.items.InsertItem(ctx, item); err != nil {
		return "", err
	}
	return item.ID, nil
}
