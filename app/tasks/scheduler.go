package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"postpilot/app/cfg"
	"postpilot/app/content"
	"postpilot/app/database"
	"postpilot/app/pipeline"
	"postpilot/app/predict"
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)
var _ pipeline.DraftEnqueuer = (*Scheduler)(nil)

const retrainInterval = 24 * time.Hour

type Scheduler struct {
	profiles    *content.ProfileCache
	users       database.UserRepository
	sources     database.SourceRepository
	items       database.ItemRepository
	drafts      database.DraftRepository
	predictor   *predict.Predictor
	writer      content.DraftWriter
	runner      *pipeline.Runner
	interval    time.Duration
	workerCount int
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	taskQueue   chan TaskInterface

	mu            sync.Mutex
	lastRetrainAt time.Time
}

func NewScheduler(profiles *content.ProfileCache, users database.UserRepository,
	sources database.SourceRepository, items database.ItemRepository, drafts database.DraftRepository,
	predictor *predict.Predictor, writer content.DraftWriter) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := cfg.Get()

	return &Scheduler{
		profiles:    profiles,
		users:       users,
		sources:     sources,
		items:       items,
		drafts:      drafts,
		predictor:   predictor,
		writer:      writer,
		interval:    time.Duration(cfg.SchedulerInterval) * time.Second,
		workerCount: cfg.WorkerCount,
		ctx:         ctx,
		cancel:      cancel,
		taskQueue:   make(chan TaskInterface, 300),
	}
}

// SetRunner wires the pipeline runner. The runner and scheduler depend
// on each other (the scheduler executes pipeline tasks, the pipeline
// enqueues draft generation), so the runner is attached after both are
// constructed.
func (s *Scheduler) SetRunner(runner *pipeline.Runner) {
	s.runner = runner
}

func (s *Scheduler) Start() {
	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.enqueueStartupTasks()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.enqueueTasks()
			}
		}
	}()
}

func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
	close(s.taskQueue)
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	select {
	case s.taskQueue <- task:
		return nil
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
		return fmt.Errorf("task queue is full")
	}
}

// EnqueueDraftGeneration queues draft generation for a freshly
// persisted content item. Implements the pipeline's enqueuer hook.
func (s *Scheduler) EnqueueDraftGeneration(userID, userName, itemID string) {
	profile, err := s.profiles.GetProfile(userName)
	if err != nil {
		slog.Warn("No profile for draft generation", "user", userName, "error", err)
		return
	}

	task := NewGenerateDraftTask(userID, userName, itemID, profile, s.items, s.drafts, s.writer)
	if err := s.EnqueueTask(task); err != nil {
		slog.Warn("Failed to enqueue GenerateDraftTask", "user", userName, "item_id", itemID, "error", err)
	}
}

func (s *Scheduler) enqueueStartupTasks() {
	profiles := s.profiles.GetProfiles()
	if len(profiles) == 0 {
		slog.Debug("No user profiles found")
		return
	}

	slog.Debug("Syncing user profiles", "count", len(profiles))

	for _, profile := range profiles {
		syncTask := NewSyncProfileTask(profile, s.users, s.sources)
		if err := s.EnqueueTask(syncTask); err != nil {
			slog.Warn("Failed to enqueue SyncProfileTask", "user", profile.Name, "error", err)
		}
	}
}

func (s *Scheduler) enqueueTasks() {
	userNames, err := s.userNamesByID()
	if err != nil {
		slog.Warn("Failed to list users for scheduling", "error", err)
		return
	}

	s.enqueueDueSources(userNames)
	s.enqueueRetraining(userNames)
}

func (s *Scheduler) enqueueDueSources(userNames map[string]string) {
	if s.runner == nil {
		return
	}

	due, err := s.sources.GetDueSources(s.ctx, time.Now().UTC())
	if err != nil {
		slog.Warn("Failed to query due sources", "error", err)
		return
	}

	for i := range due {
		source := due[i]
		userName, ok := userNames[source.UserID]
		if !ok {
			slog.Warn("Source owner not found, skipping", "source", source.Name, "user_id", source.UserID)
			continue
		}
		profile, err := s.profiles.GetProfile(userName)
		if err != nil {
			slog.Warn("No profile for due source, skipping", "source", source.Name, "user", userName)
			continue
		}

		task := NewProcessSourceTask(source.UserID, profile, &source, s.runner)
		if err := s.EnqueueTask(task); err != nil {
			slog.Warn("Failed to enqueue ProcessSourceTask", "source", source.Name, "error", err)
		}
	}
}

func (s *Scheduler) enqueueRetraining(userNames map[string]string) {
	s.mu.Lock()
	due := time.Since(s.lastRetrainAt) >= retrainInterval
	if due {
		s.lastRetrainAt = time.Now()
	}
	s.mu.Unlock()
	if !due {
		return
	}

	for userID, userName := range userNames {
		task := NewRetrainModelTask(userID, userName, s.predictor)
		if err := s.EnqueueTask(task); err != nil {
			slog.Warn("Failed to enqueue RetrainModelTask", "user", userName, "error", err)
		}
	}
}

func (s *Scheduler) userNamesByID() (map[string]string, error) {
	users, err := s.users.ListUsers(s.ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(users))
	for _, user := range users {
		names[user.ID] = user.Name
	}
	return names, nil
}

func (s *Scheduler) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case task, ok := <-s.taskQueue:
			if !ok {
				return
			}
			s.executeTask(id, task)

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeTask(workerID int, task TaskInterface) {
	task.Start()

	taskCtx, cancel := context.WithTimeout(s.ctx, 5*time.Minute)
	defer cancel()

	err := task.Execute(taskCtx)

	if err != nil {
		slog.Error("Worker task execution failed", "worker_id", workerID, "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", err)

		if task.CanRetry() {
			task.IncrementRetryCount()
			retryDelay := time.Duration(1<<uint(task.GetRetryCount()-1)) * time.Second
			if retryDelay > 30*time.Second {
				retryDelay = 30 * time.Second
			}

			slog.Warn("Task retry scheduled", "type", string(task.GetType()), "user", task.GetUserName(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "delay", retryDelay.String())

			go func() {
				time.Sleep(retryDelay)
				select {
				case <-s.ctx.Done():
					slog.Debug("Scheduler stopped, skipping task retry", "type", string(task.GetType()), "id", task.GetID())
					return
				default:
					if retryErr := s.EnqueueTask(task); retryErr != nil {
						slog.Error("Failed to re-enqueue task for retry", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", retryErr)
					}
				}
			}()
		} else {
			slog.Error("Task failed after maximum retries", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "last_error", err)
		}
	}
}
