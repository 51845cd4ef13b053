package api

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowdeckapp/flowdeck-server/internal/domain"
	"github.com/flowdeckapp/flowdeck-server/internal/store"
)

func TestShare_IssueAndResolve(t *testing.T) {
	ts := setupTestServer(t)
	board := ts.createTestBoard(t, "member-a", "Public roadmap")
	columns := ts.boardColumns(t, board.ID)
	ts.createTestTask(t, "member-a", board.ID, columns[0].ID, "Visible to guests")

	resp := ts.api.Post("/api/v1/boards/"+board.ID+"/share", "X-Member-ID: member-a")
	require.Equal(t, http.StatusOK, resp.Code)

	var envelope testEnvelope[store.ShareRecord]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	token := envelope.Data.Token
	require.NotEmpty(t, token)
	assert.Equal(t, board.ID, envelope.Data.BoardID)

	// No member header needed: the token is the credential.
	resp = ts.api.Get("/api/v1/shared/" + token)
	require.Equal(t, http.StatusOK, resp.Code)

	var agg testEnvelope[domain.BoardAggregate]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &agg))
	assert.Equal(t, board.ID, agg.Data.Board.ID)
	require.Len(t, agg.Data.Tasks, 1)
	assert.Equal(t, "Visible to guests", agg.Data.Tasks[0].Title)
}

func TestShare_ReissueSupersedes(t *testing.T) {
	ts := setupTestServer(t)
	board := ts.createTestBoard(t, "member-a", "Rotated")

	resp := ts.api.Post("/api/v1/boards/"+board.ID+"/share", "X-Member-ID: member-a")
	require.Equal(t, http.StatusOK, resp.Code)
	var first testEnvelope[store.ShareRecord]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &first))

	resp = ts.api.Post("/api/v1/boards/"+board.ID+"/share", "X-Member-ID: member-a")
	require.Equal(t, http.StatusOK, resp.Code)
	var second testEnvelope[store.ShareRecord]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &second))
	require.NotEqual(t, first.Data.Token, second.Data.Token)

	// The replaced token stops working; the new one resolves.
	resp = ts.api.Get("/api/v1/shared/" + first.Data.Token)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	resp = ts.api.Get("/api/v1/shared/" + second.Data.Token)
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestShare_RevokeIsIdempotent(t *testing.T) {
	ts := setupTestServer(t)
	board := ts.createTestBoard(t, "member-a", "Short lived")

	resp := ts.api.Post("/api/v1/boards/"+board.ID+"/share", "X-Member-ID: member-a")
	require.Equal(t, http.StatusOK, resp.Code)
	var envelope testEnvelope[store.ShareRecord]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))

	resp = ts.api.Delete("/api/v1/boards/"+board.ID+"/share", "X-Member-ID: member-a")
	assert.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Get("/api/v1/shared/" + envelope.Data.Token)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	// Revoking again still succeeds.
	resp = ts.api.Delete("/api/v1/boards/"+board.ID+"/share", "X-Member-ID: member-a")
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestShare_NonMemberCannotIssue(t *testing.T) {
	ts := setupTestServer(t)
	board := ts.createTestBoard(t, "member-a", "Locked down")

	resp := ts.api.Post("/api/v1/boards/"+board.ID+"/share", "X-Member-ID: outsider")
	assert.Equal(t, http.StatusForbidden, resp.Code)
}

func TestShare_GarbageTokenRejected(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/api/v1/shared/not-a-real-token")
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}
