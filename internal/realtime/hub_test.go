package realtime

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialTestClient(t *testing.T, hub *Hub, userID uuid.UUID) (*Client, *websocket.Conn) {
	t.Helper()

	upgrader := websocket.Upgrader{}
	clientCh := make(chan *Client, 1)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		clientCh <- hub.AddClient(userID, conn)
	}))
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return <-clientCh, conn
}

func TestNotifyUserDeliversEvent(t *testing.T) {
	hub := NewHub()
	userID := uuid.New()

	_, conn := dialTestClient(t, hub, userID)

	hub.NotifyUser(userID, Event{Type: EventNotificationsChanged})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev Event
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, EventNotificationsChanged, ev.Type)
}

func TestNotifyUserSkipsOtherUsers(t *testing.T) {
	hub := NewHub()
	userID := uuid.New()

	_, conn := dialTestClient(t, hub, userID)

	hub.NotifyUser(uuid.New(), Event{Type: EventNotificationsChanged})

	conn.SetReadDeadline(time.Now().Add(300 * time.Millisecond))
	var ev Event
	err := conn.ReadJSON(&ev)
	assert.Error(t, err, "event for another user must not arrive")
}

func TestSubscriberCounts(t *testing.T) {
	hub := NewHub()
	userID := uuid.New()

	assert.Equal(t, 0, hub.SubscriberCount(userID))
	assert.Equal(t, 0, hub.TotalSubscribers())

	c1, _ := dialTestClient(t, hub, userID)
	c2, _ := dialTestClient(t, hub, userID)
	assert.Equal(t, 2, hub.SubscriberCount(userID))
	assert.Equal(t, 2, hub.TotalSubscribers())

	hub.RemoveClient(c1)
	assert.Equal(t, 1, hub.SubscriberCount(userID))

	hub.RemoveClient(c2)
	assert.Equal(t, 0, hub.SubscriberCount(userID))
	assert.Equal(t, 0, hub.TotalSubscribers())
}

func TestRemoveClientTwiceIsSafe(t *testing.T) {
	hub := NewHub()
	userID := uuid.New()

	c, _ := dialTestClient(t, hub, userID)
	hub.RemoveClient(c)
	hub.RemoveClient(c)

	assert.Equal(t, 0, hub.SubscriberCount(userID))
}
