package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"postpilot/app/content"
	"postpilot/app/database"
)

// SyncProfileTask reconciles a user's YAML profile with the database:
// the user row and one source row per configured source. Sources
// removed from the profile keep their rows but are not re-enabled.
type SyncProfileTask struct {
	Task
	Profile *content.Profile
	users   database.UserRepository
	sources database.SourceRepository
}

func NewSyncProfileTask(profile *content.Profile, users database.UserRepository, sources database.SourceRepository) *SyncProfileTask {
	return &SyncProfileTask{
		Task:    NewTask(TaskTypeSyncProfile, profile.Name),
		Profile: profile,
		users:   users,
		sources: sources,
	}
}

func (t *SyncProfileTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	userID, err := t.users.UpsertUser(ctx, t.Profile.Name)
	if err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}

	for _, source := range t.Profile.Sources {
		_, err := t.sources.UpsertSource(ctx, userID, source.Name, source.Type, source.URL, source.CheckInterval, source.Enabled)
		if err != nil {
			return fmt.Errorf("failed to upsert source %s: %w", source.Name, err)
		}
	}

	slog.Info("Task completed",
		"type", "SyncProfile",
		"user", t.UserName,
		"duration", t.GetDuration(),
		"sources", len(t.Profile.Sources))

	return nil
}
