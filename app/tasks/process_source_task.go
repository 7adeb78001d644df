package tasks

import (
	"context"
	"log/slog"

	"postpilot/app/content"
	"postpilot/app/database"
	"postpilot/app/pipeline"
)

// ProcessSourceTask runs the content pipeline for a single source.
type ProcessSourceTask struct {
	Task
	UserID  string
	Profile *content.Profile
	Source  *database.ContentSource
	runner  *pipeline.Runner
}

func NewProcessSourceTask(userID string, profile *content.Profile, source *database.ContentSource, runner *pipeline.Runner) *ProcessSourceTask {
	return &ProcessSourceTask{
		Task:    NewTask(TaskTypeProcessSource, profile.Name),
		UserID:  userID,
		Profile: profile,
		Source:  source,
		runner:  runner,
	}
}

func (t *ProcessSourceTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	stats := t.runner.RunSource(ctx, t.UserID, t.Profile, t.Source)

	slog.Info("Task completed",
		"type", "ProcessSource",
		"user", t.UserName,
		"source", t.Source.Name,
		"duration", t.GetDuration(),
		"fetched", stats.ArticlesFetched,
		"filtered", stats.ArticlesFiltered,
		"persisted", stats.ArticlesPersisted,
		"errors", len(stats.Errors))

	return nil
}
