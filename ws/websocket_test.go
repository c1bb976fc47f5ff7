package ws

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"chat-core/models"
	"chat-core/repository"
	"chat-core/services"
	"chat-core/testutil"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type wsEnv struct {
	hub   *Hub
	srv   *httptest.Server
	room  *models.ChatRoom
	users map[string]models.User
	msgs  *services.MessageService
}

func newWSEnv(t *testing.T) *wsEnv {
	t.Helper()

	db := testutil.NewDB(t)
	fx := testutil.NewFixtures(t, db)
	log := zap.NewNop()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	hub := NewHub(log)
	go hub.Run(ctx)

	userRepo := repository.NewGormUserRepo(db)
	chatRepo := repository.NewGormChatRepo(db)
	memberRepo := repository.NewGormMembershipRepo(db)
	chats := services.NewChatService(chatRepo, userRepo, memberRepo, log)
	msgs := services.NewMessageService(repository.NewGormMessageRepo(db), chatRepo, userRepo, memberRepo, hub, testutil.Config(), log)

	users := map[string]models.User{
		"alice": fx.CreateUser("alice"),
		"bob":   fx.CreateUser("bob"),
	}
	room, err := chats.ResolveOrCreate(context.Background(), users["alice"].ID, []string{users["bob"].ID}, "")
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, ok := users[r.URL.Query().Get("as")]
		if !ok {
			http.Error(w, "unknown user", http.StatusUnauthorized)
			return
		}
		hub.ServeWS(w, r, room.ID, &u, msgs)
	}))
	t.Cleanup(srv.Close)

	return &wsEnv{hub: hub, srv: srv, room: room, users: users, msgs: msgs}
}

func (e *wsEnv) dial(t *testing.T, as string) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(e.srv.URL, "http") + "/?as=" + as
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) frame {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var f frame
	require.NoError(t, conn.ReadJSON(&f))
	return f
}

func TestHub_BroadcastsAppendedMessages(t *testing.T) {
	env := newWSEnv(t)

	alice := env.dial(t, "alice")
	bob := env.dial(t, "bob")
	require.Eventually(t, func() bool { return env.hub.ClientCount(env.room.ID) == 2 },
		2*time.Second, 10*time.Millisecond)

	require.NoError(t, alice.WriteJSON(map[string]string{"content": "hi"}))

	for _, conn := range []*websocket.Conn{alice, bob} {
		f := readFrame(t, conn)
		assert.Equal(t, "message", f.Type)
		assert.Equal(t, "hi", f.Content)
		assert.Equal(t, "alice", f.Username)
		assert.Equal(t, env.room.ID, f.RoomID)
		assert.EqualValues(t, 1, f.Seq)
	}

	// Messages appended outside the socket reach subscribers too.
	_, err := env.msgs.Append(context.Background(), env.room.ID, env.users["bob"].ID, "hello")
	require.NoError(t, err)
	f := readFrame(t, alice)
	assert.Equal(t, "hello", f.Content)
	assert.Equal(t, "bob", f.Username)
}

func TestHub_PingAndErrors(t *testing.T) {
	env := newWSEnv(t)

	alice := env.dial(t, "alice")

	require.NoError(t, alice.WriteJSON(map[string]string{"type": "ping"}))
	assert.Equal(t, "pong", readFrame(t, alice).Type)

	require.NoError(t, alice.WriteJSON(map[string]string{"content": "   "}))
	f := readFrame(t, alice)
	assert.Equal(t, "error", f.Type)
	assert.Equal(t, services.ErrEmptyContent.Error(), f.Error)

	require.NoError(t, alice.WriteMessage(websocket.TextMessage, []byte("{not json")))
	assert.Equal(t, "error", readFrame(t, alice).Type)
}

func TestHub_UnregistersOnClose(t *testing.T) {
	env := newWSEnv(t)

	alice := env.dial(t, "alice")
	require.Eventually(t, func() bool { return env.hub.ClientCount(env.room.ID) == 1 },
		2*time.Second, 10*time.Millisecond)

	require.NoError(t, alice.Close())
	assert.Eventually(t, func() bool { return env.hub.ClientCount(env.room.ID) == 0 },
		2*time.Second, 10*time.Millisecond)
}
