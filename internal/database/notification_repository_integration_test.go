package database

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feedpulse/internal/domain"
)

func insertTestNotification(t *testing.T, repo *NotificationRepo, to, from uuid.UUID, action domain.NotificationAction, createdAt time.Time) *domain.Notification {
	t.Helper()

	n, err := repo.Insert(context.Background(), domain.Notification{
		ToUserID:   to,
		FromUserID: from,
		Message:    "test " + string(action),
		Action:     action,
		CreatedAt:  createdAt,
	})
	require.NoError(t, err)
	require.False(t, n.Read)
	return n
}

func TestNotificationRepo_InsertWithPostID(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewNotificationRepo(pool)

	alice := CreateTestUser(t, pool, "alice")
	bob := CreateTestUser(t, pool, "bob")
	postID := uuid.New()

	n, err := repo.Insert(context.Background(), domain.Notification{
		ToUserID:   bob.ID,
		FromUserID: alice.ID,
		Message:    "alice liked your post",
		Action:     domain.ActionLike,
		PostID:     &postID,
		CreatedAt:  time.Now().UTC(),
	})
	require.NoError(t, err)
	require.NotNil(t, n.PostID)
	assert.Equal(t, postID, *n.PostID)
	assert.Equal(t, domain.ActionLike, n.Action)
}

func TestNotificationRepo_ListUnread_ReplayOrder(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewNotificationRepo(pool)
	ctx := context.Background()

	alice := CreateTestUser(t, pool, "alice")
	bob := CreateTestUser(t, pool, "bob")

	base := time.Now().UTC().Truncate(time.Microsecond)
	first := insertTestNotification(t, repo, bob.ID, alice.ID, domain.ActionLike, base)
	second := insertTestNotification(t, repo, bob.ID, alice.ID, domain.ActionComment, base.Add(time.Second))
	third := insertTestNotification(t, repo, bob.ID, alice.ID, domain.ActionFollow, base.Add(2*time.Second))

	unread, err := repo.ListUnread(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, unread, 3)
	assert.Equal(t, first.ID, unread[0].ID)
	assert.Equal(t, second.ID, unread[1].ID)
	assert.Equal(t, third.ID, unread[2].ID)
}

func TestNotificationRepo_MarkRead_Batch(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewNotificationRepo(pool)
	ctx := context.Background()

	alice := CreateTestUser(t, pool, "alice")
	bob := CreateTestUser(t, pool, "bob")

	base := time.Now().UTC().Truncate(time.Microsecond)
	first := insertTestNotification(t, repo, bob.ID, alice.ID, domain.ActionLike, base)
	second := insertTestNotification(t, repo, bob.ID, alice.ID, domain.ActionComment, base.Add(time.Second))

	// New notification arriving after the replay load must stay unread
	require.NoError(t, repo.MarkRead(ctx, []uuid.UUID{first.ID, second.ID}))
	late := insertTestNotification(t, repo, bob.ID, alice.ID, domain.ActionFollow, base.Add(2*time.Second))

	unread, err := repo.ListUnread(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, unread, 1)
	assert.Equal(t, late.ID, unread[0].ID)

	// Second mark-read of the same ids is a no-op, not an error
	require.NoError(t, repo.MarkRead(ctx, []uuid.UUID{first.ID, second.ID}))
	require.NoError(t, repo.MarkRead(ctx, nil))
}

func TestNotificationRepo_ListByRecipient_NewestFirst(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewNotificationRepo(pool)
	ctx := context.Background()

	alice := CreateTestUser(t, pool, "alice")
	bob := CreateTestUser(t, pool, "bob")

	base := time.Now().UTC().Truncate(time.Microsecond)
	oldest := insertTestNotification(t, repo, bob.ID, alice.ID, domain.ActionLike, base)
	newest := insertTestNotification(t, repo, bob.ID, alice.ID, domain.ActionComment, base.Add(time.Second))

	// Read state does not filter the history view
	require.NoError(t, repo.MarkRead(ctx, []uuid.UUID{oldest.ID}))

	all, err := repo.ListByRecipient(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, newest.ID, all[0].ID)
	assert.Equal(t, oldest.ID, all[1].ID)
	assert.True(t, all[1].Read)
}

func TestUserRepo_ListByIDs(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewUserRepo(pool)
	ctx := context.Background()

	alice := CreateTestUser(t, pool, "alice")
	bob := CreateTestUser(t, pool, "bob")

	users, err := repo.ListByIDs(ctx, []uuid.UUID{alice.ID, bob.ID, uuid.New()})
	require.NoError(t, err)
	assert.Len(t, users, 2)

	users, err = repo.ListByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestUserRepo_GetByID_NotFound(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewUserRepo(pool)

	_, err := repo.GetByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}
