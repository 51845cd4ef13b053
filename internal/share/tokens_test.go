package share

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowdeckapp/flowdeck-server/internal/errors"
)

func newTestService(t *testing.T, duration time.Duration) *TokenService {
	t.Helper()

	key, err := GenerateKey()
	require.NoError(t, err)

	svc, err := NewTokenService(key, duration)
	require.NoError(t, err)
	return svc
}

func TestIssueAndVerify(t *testing.T) {
	svc := newTestService(t, time.Hour)

	token, err := svc.Issue("ws-1", "board-1", "member-a")
	require.NoError(t, err)

	claims, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "ws-1", claims.WorkspaceID)
	assert.Equal(t, "board-1", claims.BoardID)
	assert.Equal(t, "member-a", claims.IssuedBy)
}

func TestVerify_RejectsGarbage(t *testing.T) {
	svc := newTestService(t, time.Hour)

	_, err := svc.Verify("v4.local.not-a-real-token")
	assert.True(t, errors.Is(err, errors.ErrUnauthorized))
}

func TestVerify_RejectsForeignKey(t *testing.T) {
	issuer := newTestService(t, time.Hour)
	verifier := newTestService(t, time.Hour)

	token, err := issuer.Issue("ws-1", "board-1", "member-a")
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	assert.True(t, errors.Is(err, errors.ErrUnauthorized))
}

func TestVerify_RejectsExpired(t *testing.T) {
	svc := newTestService(t, -time.Minute)

	token, err := svc.Issue("ws-1", "board-1", "member-a")
	require.NoError(t, err)

	_, err = svc.Verify(token)
	assert.True(t, errors.Is(err, errors.ErrUnauthorized))
}

func TestNewTokenService_RejectsBadKey(t *testing.T) {
	_, err := NewTokenService("deadbeef", time.Hour)
	assert.Error(t, err)

	_, err = NewTokenService(strings.Repeat("z", 64), time.Hour)
	assert.Error(t, err)
}
