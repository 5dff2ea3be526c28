package services_test

import (
	"context"
	"testing"

	"github.com/wirdan1/Webchat/internal/services"
	"github.com/wirdan1/Webchat/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionService_IssueAndValidate(t *testing.T) {
	ctx := context.Background()
	svc := services.NewSessionService(testutil.NewMemSessionRepo(), "test-secret")

	token, err := svc.Issue(ctx, "user-1")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	userID, err := svc.Validate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)
}

func TestSessionService_RevokedTokenRejected(t *testing.T) {
	ctx := context.Background()
	svc := services.NewSessionService(testutil.NewMemSessionRepo(), "test-secret")

	token, err := svc.Issue(ctx, "user-1")
	require.NoError(t, err)

	require.NoError(t, svc.Revoke(ctx, token))

	// The cookie value is unchanged but the backing row is gone.
	_, err = svc.Validate(ctx, token)
	assert.ErrorIs(t, err, services.ErrSessionInvalid)
}

func TestSessionService_RevokeIdempotent(t *testing.T) {
	ctx := context.Background()
	svc := services.NewSessionService(testutil.NewMemSessionRepo(), "test-secret")

	token, err := svc.Issue(ctx, "user-1")
	require.NoError(t, err)

	require.NoError(t, svc.Revoke(ctx, token))
	require.NoError(t, svc.Revoke(ctx, token))
	require.NoError(t, svc.Revoke(ctx, "not.a.jwt"))
}

func TestSessionService_TamperedToken(t *testing.T) {
	ctx := context.Background()
	sessions := testutil.NewMemSessionRepo()
	svc := services.NewSessionService(sessions, "right-secret")
	other := services.NewSessionService(sessions, "wrong-secret")

	token, err := other.Issue(ctx, "user-1")
	require.NoError(t, err)

	_, err = svc.Validate(ctx, token)
	assert.ErrorIs(t, err, services.ErrSessionInvalid)

	_, err = svc.Validate(ctx, "garbage")
	assert.ErrorIs(t, err, services.ErrSessionInvalid)
}

func TestSessionService_ExpiredSessionRejected(t *testing.T) {
	ctx := context.Background()
	sessions := testutil.NewMemSessionRepo()
	svc := services.NewSessionService(sessions, "test-secret")

	token, err := svc.Issue(ctx, "user-1")
	require.NoError(t, err)

	sessions.ExpireAll()

	_, err = svc.Validate(ctx, token)
	assert.ErrorIs(t, err, services.ErrSessionInvalid)
}
