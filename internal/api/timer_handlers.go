package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/flowdeckapp/flowdeck-server/internal/domain"
)

func (s *Server) registerTimerRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "startTimer",
		Method:      http.MethodPost,
		Path:        "/api/v1/tasks/{taskId}/timer/start",
		Summary:     "Start timer",
		Description: "Starts time tracking on a task; conflicts if a timer is running",
		Tags:        []string{"Timers"},
	}, s.handleStartTimer)

	huma.Register(s.api, huma.Operation{
		OperationID: "stopTimer",
		Method:      http.MethodPost,
		Path:        "/api/v1/tasks/{taskId}/timer/stop",
		Summary:     "Stop timer",
		Description: "Stops the running timer; any board member may stop it",
		Tags:        []string{"Timers"},
	}, s.handleStopTimer)

	huma.Register(s.api, huma.Operation{
		OperationID: "resetTimer",
		Method:      http.MethodPost,
		Path:        "/api/v1/tasks/{taskId}/timer/reset",
		Summary:     "Reset timer",
		Description: "Clears accumulated time; conflicts while the timer is running",
		Tags:        []string{"Timers"},
	}, s.handleResetTimer)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateTimerSettings",
		Method:      http.MethodPatch,
		Path:        "/api/v1/tasks/{taskId}/timer/settings",
		Summary:     "Update timer settings",
		Description: "Changes hourly rate and rounding; allowed in any timer state",
		Tags:        []string{"Timers"},
	}, s.handleUpdateTimerSettings)

	huma.Register(s.api, huma.Operation{
		OperationID: "listActiveTimers",
		Method:      http.MethodGet,
		Path:        "/api/v1/workspaces/{workspaceId}/timers/active",
		Summary:     "List active timers",
		Description: "Returns the workspace's tasks with a running timer",
		Tags:        []string{"Timers"},
	}, s.handleListActiveTimers)
}

// === DTOs ===

// TimerInput contains parameters for timer state transitions.
type TimerInput struct {
	MemberID string `header:"X-Member-ID"`
	TaskID   string `path:"taskId" doc:"Task ID"`
}

// TimerSettingsRequest is the request body for updating timer settings.
type TimerSettingsRequest struct {
	HourlyRate *float64 `json:"hourly_rate,omitempty" validate:"omitempty,gte=0" doc:"Hourly rate"`
	Rounding   *string  `json:"rounding,omitempty" validate:"omitempty,oneof=none up down" doc:"Billable hours rounding"`
}

// TimerSettingsInput wraps the timer settings request for Huma.
type TimerSettingsInput struct {
	MemberID string `header:"X-Member-ID"`
	TaskID   string `path:"taskId" doc:"Task ID"`
	Body     TimerSettingsRequest
}

// ActiveTimersInput contains parameters for listing active timers.
type ActiveTimersInput struct {
	WorkspaceID string `path:"workspaceId" doc:"Workspace ID"`
}

// ActiveTimersResponse lists tasks with running timers.
type ActiveTimersResponse struct {
	Tasks []*domain.Task `json:"tasks" doc:"Tasks with a running timer"`
}

// ActiveTimersOutput wraps the active timers response for Huma.
type ActiveTimersOutput struct {
	Body ActiveTimersResponse
}

// === Handlers ===

func (s *Server) handleStartTimer(ctx context.Context, input *TimerInput) (*TaskOutput, error) {
	actorID, err := requireActor(input.MemberID)
	if err != nil {
		return nil, err
	}

	task, err := s.services.Timer.Start(ctx, input.TaskID, actorID)
	if err != nil {
		return nil, err
	}

	return &TaskOutput{Body: task}, nil
}

func (s *Server) handleStopTimer(ctx context.Context, input *TimerInput) (*TaskOutput, error) {
	actorID, err := requireActor(input.MemberID)
	if err != nil {
		return nil, err
	}

	task, err := s.services.Timer.Stop(ctx, input.TaskID, actorID)
	if err != nil {
		return nil, err
	}

	return &TaskOutput{Body: task}, nil
}

func (s *Server) handleResetTimer(ctx context.Context, input *TimerInput) (*TaskOutput, error) {
	actorID, err := requireActor(input.MemberID)
	if err != nil {
		return nil, err
	}

	task, err := s.services.Timer.Reset(ctx, input.TaskID, actorID)
	if err != nil {
		return nil, err
	}

	return &TaskOutput{Body: task}, nil
}

func (s *Server) handleUpdateTimerSettings(ctx context.Context, input *TimerSettingsInput) (*TaskOutput, error) {
	actorID, err := requireActor(input.MemberID)
	if err != nil {
		return nil, err
	}
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, err
	}

	var rounding *domain.RoundingOption
	if input.Body.Rounding != nil {
		r := domain.RoundingOption(*input.Body.Rounding)
		rounding = &r
	}

	task, err := s.services.Timer.UpdateSettings(ctx, input.TaskID, actorID, input.Body.HourlyRate, rounding)
	if err != nil {
		return nil, err
	}

	return &TaskOutput{Body: task}, nil
}

func (s *Server) handleListActiveTimers(ctx context.Context, input *ActiveTimersInput) (*ActiveTimersOutput, error) {
	tasks, err := s.services.Timer.ActiveTimers(ctx, input.WorkspaceID)
	if err != nil {
		return nil, err
	}
	if tasks == nil {
		tasks = []*domain.Task{}
	}

	return &ActiveTimersOutput{Body: ActiveTimersResponse{Tasks: tasks}}, nil
}
