package tasks

import (
	"context"
	"errors"
	"log/slog"

	"postpilot/app/predict"
)

// RetrainModelTask forces a refresh of a user's engagement model.
// Insufficient history is expected for new users and does not fail the
// task.
type RetrainModelTask struct {
	Task
	UserID    string
	predictor *predict.Predictor
}

func NewRetrainModelTask(userID, userName string, predictor *predict.Predictor) *RetrainModelTask {
	return &RetrainModelTask{
		Task:      NewTask(TaskTypeRetrainModel, userName),
		UserID:    userID,
		predictor: predictor,
	}
}

func (t *RetrainModelTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if err := t.predictor.Retrain(ctx, t.UserID); err != nil {
		if errors.Is(err, predict.ErrInsufficientHistory) {
			slog.Debug("Not enough history to retrain model", "user", t.UserName)
			return nil
		}
		return err
	}

	slog.Info("Task completed",
		"type", "RetrainModel",
		"user", t.UserName,
		"duration", t.GetDuration())

	return nil
}
