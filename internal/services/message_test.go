package services_test

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/wirdan1/Webchat/internal/models"
	"github.com/wirdan1/Webchat/internal/services"
	"github.com/wirdan1/Webchat/internal/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMessageService(t *testing.T) (*services.MessageService, *testutil.MemUserRepo, *testutil.MemMessageRepo, *testutil.MemStorage) {
	t.Helper()
	users := testutil.NewMemUserRepo()
	messages := testutil.NewMemMessageRepo()
	storage := testutil.NewMemStorage()
	svc := services.NewMessageService(messages, users, storage, services.NewWSHub(), nil)
	return svc, users, messages, storage
}

func addUser(t *testing.T, users *testutil.MemUserRepo, name string) *models.User {
	t.Helper()
	user := &models.User{
		ID:        uuid.New().String(),
		Name:      name,
		Phone:     "+1555" + uuid.New().String()[:8],
		CreatedAt: time.Now(),
	}
	require.NoError(t, users.Create(context.Background(), user))
	return user
}

func TestMessageService_Send(t *testing.T) {
	ctx := context.Background()
	svc, users, _, _ := newMessageService(t)
	alice := addUser(t, users, "Alice")

	msg, err := svc.Send(ctx, alice.ID, "hello", nil)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, msg.UserID)
	assert.Equal(t, "Alice", msg.UserName)
	assert.Equal(t, "hello", msg.Text)
	assert.False(t, msg.CreatedAt.IsZero())

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "hello", list[0].Text)
	assert.Equal(t, "Alice", list[0].UserName)
}

func TestMessageService_SendUnknownUser(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := newMessageService(t)

	_, err := svc.Send(ctx, "missing", "hello", nil)
	assert.ErrorIs(t, err, services.ErrUserNotFound)
}

func TestMessageService_SendSnapshotsAuthorName(t *testing.T) {
	ctx := context.Background()
	svc, users, _, _ := newMessageService(t)
	alice := addUser(t, users, "Alice")

	_, err := svc.Send(ctx, alice.ID, "before rename", nil)
	require.NoError(t, err)

	require.NoError(t, users.UpdateProfile(ctx, alice.ID, "Alicia", alice.Phone, nil))

	_, err = svc.Send(ctx, alice.ID, "after rename", nil)
	require.NoError(t, err)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Alice", list[0].UserName)
	assert.Equal(t, "Alicia", list[1].UserName)
}

func TestMessageService_SendWithAttachment(t *testing.T) {
	ctx := context.Background()
	svc, users, _, storage := newMessageService(t)
	alice := addUser(t, users, "Alice")

	msg, err := svc.Send(ctx, alice.ID, "", &services.Upload{
		Name:        "cat.jpg",
		ContentType: "image/jpeg",
		Data:        strings.NewReader("jpeg-bytes"),
	})
	require.NoError(t, err)

	require.NotNil(t, msg.FileURL)
	require.NotNil(t, msg.FileType)
	require.NotNil(t, msg.FileName)
	assert.Equal(t, "image/jpeg", *msg.FileType)
	assert.Equal(t, "cat.jpg", *msg.FileName)
	assert.Equal(t, "mem://attachments/"+msg.ID+"/cat.jpg", *msg.FileURL)

	assert.Equal(t, []byte("jpeg-bytes"), storage.Objects["attachments/"+msg.ID+"/cat.jpg"])
}

func TestMessageService_ListReturnsNewest100Ascending(t *testing.T) {
	ctx := context.Background()
	svc, users, messages, _ := newMessageService(t)
	alice := addUser(t, users, "Alice")

	base := time.Now().Add(-time.Hour)
	for i := 1; i <= 150; i++ {
		msg := &models.Message{
			ID:        uuid.New().String(),
			UserID:    alice.ID,
			UserName:  alice.Name,
			Text:      fmt.Sprintf("msg-%d", i),
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}
		require.NoError(t, messages.Create(ctx, msg))
	}

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 100)

	// The window holds the newest 100 (51..150), oldest of the window first.
	assert.Equal(t, "msg-51", list[0].Text)
	assert.Equal(t, "msg-150", list[99].Text)
	for i := 1; i < len(list); i++ {
		assert.True(t, list[i-1].CreatedAt.Before(list[i].CreatedAt),
			"messages must be in ascending creation order")
	}
}

func TestMessageService_ActiveUsersEmptyHub(t *testing.T) {
	ctx := context.Background()
	svc, users, _, _ := newMessageService(t)
	addUser(t, users, "Alice")

	active, err := svc.ActiveUsers(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)
}
