package services

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"collabHubAPI/internal/realtime"
	"collabHubAPI/internal/types/connection"
)

// setupTestDB connects to the database named by TEST_DATABASE_URL, or skips
// the test when none is configured.
func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping database test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	require.NoError(t, err)
	require.NoError(t, pool.Ping(ctx))

	t.Cleanup(pool.Close)
	return pool
}

// createTestUser inserts a user row and registers cleanup of everything the
// account wipe covers.
func createTestUser(t *testing.T, pool *pgxpool.Pool, accounts *AccountService) (string, uuid.UUID) {
	t.Helper()

	ctx := context.Background()
	clerkID := fmt.Sprintf("user_test_%s", uuid.NewString()[:8])
	email := clerkID + "@example.com"

	var id uuid.UUID
	err := pool.QueryRow(ctx,
		"INSERT INTO users (clerk_id, email, name) VALUES ($1, $2, $3) RETURNING id",
		clerkID, email, "Test "+clerkID,
	).Scan(&id)
	require.NoError(t, err)

	t.Cleanup(func() {
		accounts.DeleteAccountData(context.Background(), clerkID)
	})

	return clerkID, id
}

func newTestServices(pool *pgxpool.Pool) (*ProfileService, *NotificationService, *ConnectionService, *ConversationService, *AccountService) {
	profiles := NewProfileService(pool)
	notifications := NewNotificationService(pool, realtime.NewHub())
	connections := NewConnectionService(pool, profiles, notifications)
	conversations := NewConversationService(pool, profiles)
	accounts := NewAccountService(pool, profiles)
	return profiles, notifications, connections, conversations, accounts
}

func TestSendConnectionRequestRejectsDuplicates(t *testing.T) {
	pool := setupTestDB(t)
	_, _, connections, _, accounts := newTestServices(pool)

	clerkA, _ := createTestUser(t, pool, accounts)
	_, idB := createTestUser(t, pool, accounts)

	ctx := context.Background()

	require.NoError(t, connections.SendConnectionRequest(ctx, clerkA, idB))

	err := connections.SendConnectionRequest(ctx, clerkA, idB)
	assert.ErrorIs(t, err, ErrConnectionExists)
}

func TestSendConnectionRequestRejectsSelf(t *testing.T) {
	pool := setupTestDB(t)
	_, _, connections, _, accounts := newTestServices(pool)

	clerkA, idA := createTestUser(t, pool, accounts)

	err := connections.SendConnectionRequest(context.Background(), clerkA, idA)
	assert.Error(t, err)
}

func TestConnectionStatusLifecycle(t *testing.T) {
	pool := setupTestDB(t)
	_, _, connections, _, accounts := newTestServices(pool)

	clerkA, idA := createTestUser(t, pool, accounts)
	clerkB, idB := createTestUser(t, pool, accounts)

	ctx := context.Background()

	require.NoError(t, connections.SendConnectionRequest(ctx, clerkA, idB))

	status, err := connections.GetConnectionStatus(ctx, clerkA, idB)
	require.NoError(t, err)
	assert.Equal(t, connection.DerivedPendingSent, status)

	status, err = connections.GetConnectionStatus(ctx, clerkB, idA)
	require.NoError(t, err)
	assert.Equal(t, connection.DerivedPendingReceived, status)

	conns, err := connections.ListConnections(ctx, clerkB)
	require.NoError(t, err)
	require.NotEmpty(t, conns)

	require.NoError(t, connections.UpdateConnectionStatus(ctx, clerkB, conns[0].ID, connection.StatusAccepted))

	status, err = connections.GetConnectionStatus(ctx, clerkA, idB)
	require.NoError(t, err)
	assert.Equal(t, connection.DerivedConnected, status)
}

func TestCreateOrGetConversationIsIdempotent(t *testing.T) {
	pool := setupTestDB(t)
	_, _, _, conversations, accounts := newTestServices(pool)

	clerkA, _ := createTestUser(t, pool, accounts)
	_, idB := createTestUser(t, pool, accounts)

	ctx := context.Background()

	first, err := conversations.CreateOrGetConversation(ctx, clerkA, idB)
	require.NoError(t, err)

	second, err := conversations.CreateOrGetConversation(ctx, clerkA, idB)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestSendMessageRejectsWhitespace(t *testing.T) {
	pool := setupTestDB(t)
	_, _, _, conversations, accounts := newTestServices(pool)

	clerkA, _ := createTestUser(t, pool, accounts)
	_, idB := createTestUser(t, pool, accounts)

	ctx := context.Background()

	convID, err := conversations.CreateOrGetConversation(ctx, clerkA, idB)
	require.NoError(t, err)

	assert.Error(t, conversations.SendMessage(ctx, clerkA, convID, "   \n\t "))

	messages, err := conversations.ListMessages(ctx, convID)
	require.NoError(t, err)
	assert.Empty(t, messages)
}

func TestMarkMessageAsReadSkipsOwnMessages(t *testing.T) {
	pool := setupTestDB(t)
	_, _, _, conversations, accounts := newTestServices(pool)

	clerkA, _ := createTestUser(t, pool, accounts)
	clerkB, idB := createTestUser(t, pool, accounts)

	ctx := context.Background()

	convID, err := conversations.CreateOrGetConversation(ctx, clerkA, idB)
	require.NoError(t, err)

	require.NoError(t, conversations.SendMessage(ctx, clerkA, convID, "hello"))

	messages, err := conversations.ListMessages(ctx, convID)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	msgID := messages[0].ID

	// The sender marking their own message is a no-op.
	require.NoError(t, conversations.MarkMessageAsRead(ctx, clerkA, msgID))
	messages, err = conversations.ListMessages(ctx, convID)
	require.NoError(t, err)
	assert.False(t, messages[0].IsRead)

	// The recipient marking it sticks.
	require.NoError(t, conversations.MarkMessageAsRead(ctx, clerkB, msgID))
	messages, err = conversations.ListMessages(ctx, convID)
	require.NoError(t, err)
	assert.True(t, messages[0].IsRead)
}

func TestUnreadCountFollowsReadState(t *testing.T) {
	pool := setupTestDB(t)
	_, notifications, connections, _, accounts := newTestServices(pool)

	clerkA, _ := createTestUser(t, pool, accounts)
	clerkB, idB := createTestUser(t, pool, accounts)

	ctx := context.Background()

	before, err := notifications.GetUnreadCount(ctx, clerkB)
	require.NoError(t, err)

	// A connection request generates one notification for the addressee.
	require.NoError(t, connections.SendConnectionRequest(ctx, clerkA, idB))

	after, err := notifications.GetUnreadCount(ctx, clerkB)
	require.NoError(t, err)
	assert.Equal(t, before+1, after)

	require.NoError(t, notifications.MarkAllAsRead(ctx, clerkB))

	final, err := notifications.GetUnreadCount(ctx, clerkB)
	require.NoError(t, err)
	assert.Equal(t, 0, final)
}

func TestRemoveCollaboratorDeletesThread(t *testing.T) {
	pool := setupTestDB(t)
	_, _, connections, conversations, accounts := newTestServices(pool)

	clerkA, idA := createTestUser(t, pool, accounts)
	clerkB, idB := createTestUser(t, pool, accounts)

	ctx := context.Background()

	require.NoError(t, connections.SendConnectionRequest(ctx, clerkA, idB))

	conns, err := connections.ListConnections(ctx, clerkB)
	require.NoError(t, err)
	require.NotEmpty(t, conns)
	require.NoError(t, connections.UpdateConnectionStatus(ctx, clerkB, conns[0].ID, connection.StatusAccepted))

	convID, err := conversations.CreateOrGetConversation(ctx, clerkA, idB)
	require.NoError(t, err)
	require.NoError(t, conversations.SendMessage(ctx, clerkA, convID, "hi"))

	require.NoError(t, connections.RemoveCollaborator(ctx, clerkA, conns[0].ID))

	// The thread is gone and the relationship reads as none again.
	var count int
	require.NoError(t, pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM conversations WHERE (participant_1 = $1 AND participant_2 = $2) OR (participant_1 = $2 AND participant_2 = $1)",
		idA, idB,
	).Scan(&count))
	assert.Equal(t, 0, count)

	status, err := connections.GetConnectionStatus(ctx, clerkA, idB)
	require.NoError(t, err)
	assert.Equal(t, connection.DerivedNone, status)
}
