package api

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowdeckapp/flowdeck-server/internal/backup"
)

func TestBackup_CreateListDelete(t *testing.T) {
	ts := setupTestServer(t)
	board := ts.createTestBoard(t, "member-a", "Backed up board")
	columns := ts.boardColumns(t, board.ID)
	ts.createTestTask(t, "member-a", board.ID, columns[0].ID, "Survives archiving")

	resp := ts.api.Post("/api/v1/admin/backups",
		map[string]any{},
		"X-Member-ID: member-a")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var created testEnvelope[backup.Result]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &created))
	assert.True(t, created.Success)
	assert.Equal(t, 1, created.Data.Counts.Boards)
	assert.Equal(t, 1, created.Data.Counts.Tasks)
	assert.NotEmpty(t, created.Data.Checksum)

	resp = ts.api.Get("/api/v1/admin/backups", "X-Member-ID: member-a")
	require.Equal(t, http.StatusOK, resp.Code)

	var listed testEnvelope[ListBackupsResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &listed))
	require.Len(t, listed.Data.Backups, 1)
	backupID := listed.Data.Backups[0].ID

	resp = ts.api.Delete("/api/v1/admin/backups/"+backupID, "X-Member-ID: member-a")
	assert.Equal(t, http.StatusOK, resp.Code)

	// Deleting again reports not found.
	resp = ts.api.Delete("/api/v1/admin/backups/"+backupID, "X-Member-ID: member-a")
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestBackup_DryRunRestore(t *testing.T) {
	ts := setupTestServer(t)
	board := ts.createTestBoard(t, "member-a", "Restorable")
	columns := ts.boardColumns(t, board.ID)
	ts.createTestTask(t, "member-a", board.ID, columns[0].ID, "Still here after")

	resp := ts.api.Post("/api/v1/admin/backups",
		map[string]any{},
		"X-Member-ID: member-a")
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Get("/api/v1/admin/backups", "X-Member-ID: member-a")
	var listed testEnvelope[ListBackupsResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &listed))
	require.Len(t, listed.Data.Backups, 1)

	resp = ts.api.Post("/api/v1/admin/backups/"+listed.Data.Backups[0].ID+"/restore",
		map[string]any{"dry_run": true},
		"X-Member-ID: member-a")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var restored testEnvelope[backup.RestoreResult]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &restored))
	assert.True(t, restored.Data.DryRun)
	assert.Equal(t, 1, restored.Data.Counts.Boards)

	// Dry run leaves the store untouched.
	resp = ts.api.Get("/api/v1/boards/" + board.ID)
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestBackup_RestoreMissingArchive(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/api/v1/admin/backups/nope/restore",
		map[string]any{},
		"X-Member-ID: member-a")
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestBackup_RequiresActor(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/api/v1/admin/backups", map[string]any{})
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}
