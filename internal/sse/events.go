// Package sse implements Server-Sent Events for pushing board changes to
// connected clients.
package sse

import (
	"time"

	"github.com/flowdeckapp/flowdeck-server/internal/domain"
)

// EventType represents the type of SSE Event.
type EventType string

const (
	// EventBoardCreated represents a board creation event.
	EventBoardCreated EventType = "board.created"
	// EventBoardUpdated represents a board update event.
	EventBoardUpdated EventType = "board.updated"
	// EventBoardDeleted represents a board deletion event.
	EventBoardDeleted EventType = "board.deleted"

	// EventColumnCreated represents a column creation event.
	EventColumnCreated EventType = "column.created"
	// EventColumnUpdated represents a column update event.
	EventColumnUpdated EventType = "column.updated"
	// EventColumnDeleted represents a column deletion event.
	EventColumnDeleted EventType = "column.deleted"
	// EventColumnsReordered represents a board-wide column reorder.
	EventColumnsReordered EventType = "column.reordered"

	// EventTaskCreated represents a task creation event.
	EventTaskCreated EventType = "task.created"
	// EventTaskUpdated represents a task update event.
	EventTaskUpdated EventType = "task.updated"
	// EventTaskDeleted represents a task deletion event.
	EventTaskDeleted EventType = "task.deleted"
	// EventTaskMoved represents a task move. Its payload carries every task
	// whose position shifted, not just the moved one.
	EventTaskMoved EventType = "task.moved"

	// EventTimerStarted represents a timer start on a task.
	EventTimerStarted EventType = "timer.started"
	// EventTimerStopped represents a timer stop on a task.
	EventTimerStopped EventType = "timer.stopped"
	// EventTimerReset represents a timer reset on a task.
	EventTimerReset EventType = "timer.reset"

	// EventCommentAdded represents a comment added to a task.
	EventCommentAdded EventType = "comment.added"
	// EventCommentUpdated represents a comment edit.
	EventCommentUpdated EventType = "comment.updated"
	// EventCommentDeleted represents a comment removal.
	EventCommentDeleted EventType = "comment.deleted"

	// EventInvoiceCreated represents a confirmed invoice.
	EventInvoiceCreated EventType = "invoice.created"

	// EventHeartbeat represents a connection keepalive event.
	EventHeartbeat EventType = "heartbeat"
)

// Event represents an SSE event to be sent to clients.
// The Data field contains the event payload as a JSON object for direct
// deserialization. ActorID identifies who caused the change so clients can
// recognize echoes of their own commands.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
	Type      EventType `json:"type"`
	ActorID   string    `json:"actor_id,omitempty"`

	// WorkspaceID scopes delivery: only clients subscribed to this workspace
	// receive the event. Empty means broadcast to all (heartbeats).
	WorkspaceID string `json:"-"`
}

// BoardEventData is the data payload for board events.
type BoardEventData struct {
	Board *domain.Board `json:"board"`
}

// BoardDeletedEventData is the data payload for board delete events.
type BoardDeletedEventData struct {
	DeletedAt time.Time `json:"deleted_at"`
	BoardID   string    `json:"board_id"`
}

// ColumnEventData is the data payload for single-column events.
type ColumnEventData struct {
	Column *domain.Column `json:"column"`
}

// ColumnDeletedEventData is the data payload for column delete events.
type ColumnDeletedEventData struct {
	DeletedAt time.Time `json:"deleted_at"`
	ColumnID  string    `json:"column_id"`
	BoardID   string    `json:"board_id"`
}

// ColumnsReorderedEventData carries the full ordered column set after a
// reorder so clients replace their layout wholesale.
type ColumnsReorderedEventData struct {
	BoardID string           `json:"board_id"`
	Columns []*domain.Column `json:"columns"`
}

// TaskEventData is the data payload for single-task events.
type TaskEventData struct {
	Task *domain.Task `json:"task"`
}

// TaskDeletedEventData is the data payload for task delete events.
type TaskDeletedEventData struct {
	DeletedAt time.Time `json:"deleted_at"`
	TaskID    string    `json:"task_id"`
	BoardID   string    `json:"board_id"`
}

// TaskMovedEventData carries the moved task plus every sibling whose
// position shifted, each with its fresh version.
type TaskMovedEventData struct {
	Task    *domain.Task   `json:"task"`
	Changed []*domain.Task `json:"changed"`
}

// InvoiceEventData is the data payload for invoice events.
type InvoiceEventData struct {
	Invoice *domain.Invoice `json:"invoice"`
}

// HeartbeatEventData is the data payload for heartbeat events.
type HeartbeatEventData struct {
	ServerTime time.Time `json:"server_time"`
}

// NewBoardEvent creates a board lifecycle event.
func NewBoardEvent(eventType EventType, board *domain.Board, actorID string) Event {
	return Event{
		Type:        eventType,
		Data:        BoardEventData{Board: board},
		Timestamp:   time.Now(),
		ActorID:     actorID,
		WorkspaceID: board.WorkspaceID,
	}
}

// NewBoardDeletedEvent creates a board.deleted event.
func NewBoardDeletedEvent(workspaceID, boardID, actorID string) Event {
	return Event{
		Type: EventBoardDeleted,
		Data: BoardDeletedEventData{
			BoardID:   boardID,
			DeletedAt: time.Now(),
		},
		Timestamp:   time.Now(),
		ActorID:     actorID,
		WorkspaceID: workspaceID,
	}
}

// NewColumnEvent creates a column lifecycle event.
func NewColumnEvent(eventType EventType, column *domain.Column, actorID string) Event {
	return Event{
		Type:        eventType,
		Data:        ColumnEventData{Column: column},
		Timestamp:   time.Now(),
		ActorID:     actorID,
		WorkspaceID: column.WorkspaceID,
	}
}

// NewColumnDeletedEvent creates a column.deleted event.
func NewColumnDeletedEvent(workspaceID, boardID, columnID, actorID string) Event {
	return Event{
		Type: EventColumnDeleted,
		Data: ColumnDeletedEventData{
			ColumnID:  columnID,
			BoardID:   boardID,
			DeletedAt: time.Now(),
		},
		Timestamp:   time.Now(),
		ActorID:     actorID,
		WorkspaceID: workspaceID,
	}
}

// NewColumnsReorderedEvent creates a column.reordered event.
func NewColumnsReorderedEvent(workspaceID, boardID string, columns []*domain.Column, actorID string) Event {
	return Event{
		Type: EventColumnsReordered,
		Data: ColumnsReorderedEventData{
			BoardID: boardID,
			Columns: columns,
		},
		Timestamp:   time.Now(),
		ActorID:     actorID,
		WorkspaceID: workspaceID,
	}
}

// NewTaskEvent creates a task lifecycle event. Also used for timer and
// comment events since their payload is the full updated task.
func NewTaskEvent(eventType EventType, task *domain.Task, actorID string) Event {
	return Event{
		Type:        eventType,
		Data:        TaskEventData{Task: task},
		Timestamp:   time.Now(),
		ActorID:     actorID,
		WorkspaceID: task.WorkspaceID,
	}
}

// NewTaskDeletedEvent creates a task.deleted event.
func NewTaskDeletedEvent(workspaceID, boardID, taskID, actorID string) Event {
	return Event{
		Type: EventTaskDeleted,
		Data: TaskDeletedEventData{
			TaskID:    taskID,
			BoardID:   boardID,
			DeletedAt: time.Now(),
		},
		Timestamp:   time.Now(),
		ActorID:     actorID,
		WorkspaceID: workspaceID,
	}
}

// NewTaskMovedEvent creates a task.moved event.
func NewTaskMovedEvent(task *domain.Task, changed []*domain.Task, actorID string) Event {
	return Event{
		Type: EventTaskMoved,
		Data: TaskMovedEventData{
			Task:    task,
			Changed: changed,
		},
		Timestamp:   time.Now(),
		ActorID:     actorID,
		WorkspaceID: task.WorkspaceID,
	}
}

// NewInvoiceCreatedEvent creates an invoice.created event.
func NewInvoiceCreatedEvent(invoice *domain.Invoice, actorID string) Event {
	return Event{
		Type:        EventInvoiceCreated,
		Data:        InvoiceEventData{Invoice: invoice},
		Timestamp:   time.Now(),
		ActorID:     actorID,
		WorkspaceID: invoice.WorkspaceID,
	}
}

// NewHeartbeatEvent creates a heartbeat event.
func NewHeartbeatEvent() Event {
	return Event{
		Type: EventHeartbeat,
		Data: HeartbeatEventData{
			ServerTime: time.Now(),
		},
		Timestamp: time.Now(),
	}
}
