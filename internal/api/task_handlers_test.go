package api

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowdeckapp/flowdeck-server/internal/domain"
)

func TestCreateTask_Defaults(t *testing.T) {
	ts := setupTestServer(t)
	board := ts.createTestBoard(t, "member-a", "Backlog")
	columns := ts.boardColumns(t, board.ID)

	first := ts.createTestTask(t, "member-a", board.ID, columns[0].ID, "First")
	second := ts.createTestTask(t, "member-a", board.ID, columns[0].ID, "Second")

	assert.Equal(t, domain.PriorityMedium, first.Priority)
	assert.Equal(t, 0, first.Position)
	assert.Equal(t, 1, second.Position)
	require.Len(t, first.Activity, 1)
	assert.Equal(t, domain.ActivityTaskCreated, first.Activity[0].Type)
	require.NotNil(t, first.TimeTracking)
	assert.False(t, first.TimeTracking.IsRunning)
}

func TestCreateTask_MissingColumn(t *testing.T) {
	ts := setupTestServer(t)
	board := ts.createTestBoard(t, "member-a", "Strict")

	resp := ts.api.Post("/api/v1/boards/"+board.ID+"/tasks",
		map[string]any{"title": "No column"},
		"X-Member-ID: member-a")
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestCreateTask_TagColorsSharedAcrossBoard(t *testing.T) {
	ts := setupTestServer(t)
	board := ts.createTestBoard(t, "member-a", "Tagged")
	columns := ts.boardColumns(t, board.ID)

	resp := ts.api.Post("/api/v1/boards/"+board.ID+"/tasks",
		map[string]any{"column_id": columns[0].ID, "title": "One", "tags": []string{"Urgent"}},
		"X-Member-ID: member-a")
	require.Equal(t, http.StatusOK, resp.Code)
	var first testEnvelope[domain.Task]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &first))
	require.Len(t, first.Data.Tags, 1)

	// Same name, different case: the color binding is board wide.
	resp = ts.api.Post("/api/v1/boards/"+board.ID+"/tasks",
		map[string]any{"column_id": columns[1].ID, "title": "Two", "tags": []string{"URGENT"}},
		"X-Member-ID: member-a")
	require.Equal(t, http.StatusOK, resp.Code)
	var second testEnvelope[domain.Task]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &second))
	require.Len(t, second.Data.Tags, 1)

	assert.Equal(t, first.Data.Tags[0].Color, second.Data.Tags[0].Color)
}

func TestGetTask_NotFound(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/api/v1/tasks/task_missing")
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestUpdateTask_RecordsFieldChanges(t *testing.T) {
	ts := setupTestServer(t)
	board := ts.createTestBoard(t, "member-a", "Edits")
	columns := ts.boardColumns(t, board.ID)
	task := ts.createTestTask(t, "member-a", board.ID, columns[0].ID, "Old title")

	resp := ts.api.Patch("/api/v1/tasks/"+task.ID,
		map[string]any{"title": "New title", "priority": "high"},
		"X-Member-ID: member-a")
	require.Equal(t, http.StatusOK, resp.Code)

	var envelope testEnvelope[domain.Task]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))

	updated := envelope.Data
	assert.Equal(t, "New title", updated.Title)
	assert.Equal(t, domain.PriorityHigh, updated.Priority)
	// An update never relocates the card.
	assert.Equal(t, task.ColumnID, updated.ColumnID)
	assert.Equal(t, task.Position, updated.Position)

	changes := 0
	for _, entry := range updated.Activity {
		if entry.Type == domain.ActivityFieldChanged {
			changes++
		}
	}
	assert.Equal(t, 2, changes)
}

func TestMoveTask_SameSpotIsNoOp(t *testing.T) {
	ts := setupTestServer(t)
	board := ts.createTestBoard(t, "member-a", "Static")
	columns := ts.boardColumns(t, board.ID)
	task := ts.createTestTask(t, "member-a", board.ID, columns[0].ID, "Stays put")

	resp := ts.api.Post("/api/v1/tasks/"+task.ID+"/move",
		map[string]any{"column_id": columns[0].ID, "position": 0},
		"X-Member-ID: member-a")
	require.Equal(t, http.StatusOK, resp.Code)

	var envelope testEnvelope[MoveTaskResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))

	assert.True(t, envelope.Data.NoOp)
	assert.Equal(t, task.Version, envelope.Data.Task.Version)
	assert.Empty(t, envelope.Data.Changed)
}

func TestMoveTask_CrossColumn(t *testing.T) {
	ts := setupTestServer(t)
	board := ts.createTestBoard(t, "member-a", "Flowing")
	columns := ts.boardColumns(t, board.ID)
	ts.createTestTask(t, "member-a", board.ID, columns[1].ID, "Already there")
	task := ts.createTestTask(t, "member-a", board.ID, columns[0].ID, "On the move")

	resp := ts.api.Post("/api/v1/tasks/"+task.ID+"/move",
		map[string]any{"column_id": columns[1].ID, "position": 0},
		"X-Member-ID: member-a")
	require.Equal(t, http.StatusOK, resp.Code)

	var envelope testEnvelope[MoveTaskResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))

	assert.False(t, envelope.Data.NoOp)
	assert.Equal(t, columns[1].ID, envelope.Data.Task.ColumnID)
	assert.Equal(t, 0, envelope.Data.Task.Position)

	moved := false
	for _, entry := range envelope.Data.Task.Activity {
		if entry.Type == domain.ActivityTaskMoved {
			moved = true
		}
	}
	assert.True(t, moved)
}

func TestDeleteTask_Idempotent(t *testing.T) {
	ts := setupTestServer(t)
	board := ts.createTestBoard(t, "member-a", "Cleanup")
	columns := ts.boardColumns(t, board.ID)
	task := ts.createTestTask(t, "member-a", board.ID, columns[0].ID, "Short lived")

	resp := ts.api.Delete("/api/v1/tasks/"+task.ID, "X-Member-ID: member-a")
	assert.Equal(t, http.StatusOK, resp.Code)

	// Deleting again reports success; the end state is identical.
	resp = ts.api.Delete("/api/v1/tasks/"+task.ID, "X-Member-ID: member-a")
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestAssignMember_RejectsNonMember(t *testing.T) {
	ts := setupTestServer(t)
	board := ts.createTestBoard(t, "member-a", "Assignments")
	columns := ts.boardColumns(t, board.ID)
	task := ts.createTestTask(t, "member-a", board.ID, columns[0].ID, "Needs an owner")

	resp := ts.api.Post("/api/v1/tasks/"+task.ID+"/assignees",
		map[string]any{"member_id": "stranger"},
		"X-Member-ID: member-a")
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestAssignAndUnassignMember(t *testing.T) {
	ts := setupTestServer(t)
	board := ts.createTestBoard(t, "member-a", "Assignments")
	ts.addTestMember(t, "member-a", board.ID, "member-b", "Grace")
	columns := ts.boardColumns(t, board.ID)
	task := ts.createTestTask(t, "member-a", board.ID, columns[0].ID, "Shared work")

	resp := ts.api.Post("/api/v1/tasks/"+task.ID+"/assignees",
		map[string]any{"member_id": "member-b"},
		"X-Member-ID: member-a")
	require.Equal(t, http.StatusOK, resp.Code)

	var envelope testEnvelope[domain.Task]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.Equal(t, []string{"member-b"}, envelope.Data.AssignedMemberIDs)

	resp = ts.api.Delete("/api/v1/tasks/"+task.ID+"/assignees/member-b",
		"X-Member-ID: member-a")
	require.Equal(t, http.StatusOK, resp.Code)
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.Empty(t, envelope.Data.AssignedMemberIDs)
}

func TestAddTag_DuplicateRejected(t *testing.T) {
	ts := setupTestServer(t)
	board := ts.createTestBoard(t, "member-a", "Tags")
	columns := ts.boardColumns(t, board.ID)
	task := ts.createTestTask(t, "member-a", board.ID, columns[0].ID, "Tagged")

	resp := ts.api.Post("/api/v1/tasks/"+task.ID+"/tags",
		map[string]any{"name": "Design"},
		"X-Member-ID: member-a")
	require.Equal(t, http.StatusOK, resp.Code)

	// Same name with different case counts as a duplicate.
	resp = ts.api.Post("/api/v1/tasks/"+task.ID+"/tags",
		map[string]any{"name": "DESIGN"},
		"X-Member-ID: member-a")
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestRemoveTag_UnknownIsNoOp(t *testing.T) {
	ts := setupTestServer(t)
	board := ts.createTestBoard(t, "member-a", "Tags")
	columns := ts.boardColumns(t, board.ID)
	task := ts.createTestTask(t, "member-a", board.ID, columns[0].ID, "Untagged")

	resp := ts.api.Delete("/api/v1/tasks/"+task.ID+"/tags/nonexistent",
		"X-Member-ID: member-a")
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestToggleChecklistItem(t *testing.T) {
	ts := setupTestServer(t)
	board := ts.createTestBoard(t, "member-a", "Checked")
	columns := ts.boardColumns(t, board.ID)

	resp := ts.api.Post("/api/v1/boards/"+board.ID+"/tasks",
		map[string]any{
			"column_id": columns[0].ID,
			"title":     "With checklist",
			"checklist": []map[string]any{{"text": "write it"}},
		},
		"X-Member-ID: member-a")
	require.Equal(t, http.StatusOK, resp.Code)

	var created testEnvelope[domain.Task]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &created))
	require.Len(t, created.Data.Checklist, 1)
	itemID := created.Data.Checklist[0].ID
	require.NotEmpty(t, itemID)

	resp = ts.api.Post("/api/v1/tasks/"+created.Data.ID+"/checklist/"+itemID+"/toggle",
		"X-Member-ID: member-a")
	require.Equal(t, http.StatusOK, resp.Code)

	var toggled testEnvelope[domain.Task]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &toggled))
	assert.True(t, toggled.Data.Checklist[0].Completed)

	resp = ts.api.Post("/api/v1/tasks/"+created.Data.ID+"/checklist/item_missing/toggle",
		"X-Member-ID: member-a")
	assert.Equal(t, http.StatusNotFound, resp.Code)
}
