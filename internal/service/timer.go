package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/flowdeckapp/flowdeck-server/internal/domain"
	"github.com/flowdeckapp/flowdeck-server/internal/id"
	"github.com/flowdeckapp/flowdeck-server/internal/sse"
	"github.com/flowdeckapp/flowdeck-server/internal/store"
)

// TimerService runs the per-task time tracking state machine. All transitions
// go through the store's single task write path, so concurrent timer commands
// on the same task serialize and the loser sees the new state.
type TimerService struct {
	store      *store.Store
	boards     *BoardService
	sseManager *sse.Manager
	logger     *slog.Logger
	now        func() time.Time
}

// NewTimerService creates a new timer service.
func NewTimerService(store *store.Store, boards *BoardService, sseManager *sse.Manager, logger *slog.Logger) *TimerService {
	return &TimerService{
		store:      store,
		boards:     boards,
		sseManager: sseManager,
		logger:     logger,
		now:        time.Now,
	}
}

// Start begins tracking time on a task for the acting member.
func (s *TimerService) Start(ctx context.Context, taskID, actorID string) (*domain.Task, error) {
	return s.transition(ctx, taskID, actorID, sse.EventTimerStarted, func(task *domain.Task, now time.Time) (domain.ActivityType, string, error) {
		if err := task.TimeTracking.Start(actorID, now); err != nil {
			return "", "", err
		}
		return domain.ActivityTimerStarted, "started timer", nil
	})
}

// Stop halts the running timer and folds the elapsed span into the task's
// total. Any member may stop a timer, not just whoever started it.
func (s *TimerService) Stop(ctx context.Context, taskID, actorID string) (*domain.Task, error) {
	return s.transition(ctx, taskID, actorID, sse.EventTimerStopped, func(task *domain.Task, now time.Time) (domain.ActivityType, string, error) {
		entryID, err := id.Generate("time")
		if err != nil {
			return "", "", err
		}
		if _, err := task.TimeTracking.Stop(entryID, now); err != nil {
			return "", "", err
		}
		return domain.ActivityTimerStopped, "stopped timer", nil
	})
}

// Reset clears all accumulated time on an idle task.
func (s *TimerService) Reset(ctx context.Context, taskID, actorID string) (*domain.Task, error) {
	return s.transition(ctx, taskID, actorID, sse.EventTimerReset, func(task *domain.Task, _ time.Time) (domain.ActivityType, string, error) {
		if err := task.TimeTracking.Reset(); err != nil {
			return "", "", err
		}
		return domain.ActivityTimerReset, "reset timer", nil
	})
}

// UpdateSettings changes the hourly rate and rounding mode. Allowed in any
// timer state; running totals are unaffected.
func (s *TimerService) UpdateSettings(ctx context.Context, taskID, actorID string, hourlyRate *float64, rounding *domain.RoundingOption) (*domain.Task, error) {
	current, err := s.store.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if _, err := s.boards.requireMember(ctx, current.BoardID, actorID); err != nil {
		return nil, err
	}

	updated, err := s.store.MutateTask(ctx, taskID, func(task *domain.Task) error {
		if task.TimeTracking == nil {
			task.TimeTracking = domain.NewTimeTracking()
		}
		return task.TimeTracking.UpdateSettings(hourlyRate, rounding)
	})
	if err != nil {
		return nil, err
	}

	s.sseManager.Emit(sse.NewTaskEvent(sse.EventTaskUpdated, updated, actorID))
	return updated, nil
}

// ActiveTimers lists the workspace's tasks with a running timer.
func (s *TimerService) ActiveTimers(ctx context.Context, workspaceID string) ([]*domain.Task, error) {
	return s.store.ActiveTimers(ctx, workspaceID)
}

// transition applies a timer state change under the task write path, appends
// the matching activity entry, and broadcasts the result.
func (s *TimerService) transition(ctx context.Context, taskID, actorID string, eventType sse.EventType, fn func(task *domain.Task, now time.Time) (domain.ActivityType, string, error)) (*domain.Task, error) {
	current, err := s.store.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if _, err := s.boards.requireMember(ctx, current.BoardID, actorID); err != nil {
		return nil, err
	}

	now := s.now()
	updated, err := s.store.MutateTask(ctx, taskID, func(task *domain.Task) error {
		if task.TimeTracking == nil {
			task.TimeTracking = domain.NewTimeTracking()
		}
		typ, description, err := fn(task, now)
		if err != nil {
			return err
		}
		entryID, err := id.Generate("act")
		if err != nil {
			return err
		}
		task.Activity = append(task.Activity, domain.NewActivityEntry(entryID, actorID, typ, description))
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.sseManager.Emit(sse.NewTaskEvent(eventType, updated, actorID))

	s.logger.Info("timer transition",
		"task_id", taskID,
		"actor_id", actorID,
		"event", string(eventType),
	)
	return updated, nil
}
