package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/aiinfocenter/internal/app/models"
	"github.com/yigit/aiinfocenter/internal/middleware"
	"github.com/yigit/aiinfocenter/internal/pkg/apperrors"
)

const ownerID int64 = 7

// fakeConversation owns thread 1 for ownerID and answers with "re: <text>".
// With hold set, posting waits for hold or for ctx and reports ctx's end on
// abandoned.
type fakeConversation struct {
	mu   sync.Mutex
	sent []string

	hold      chan struct{}
	started   chan struct{}
	abandoned chan error
}

func (f *fakeConversation) ListMessages(_ context.Context, studentID, threadID int64) ([]*models.ChatMessage, error) {
	if threadID != 1 {
		return nil, apperrors.NewInvalidArgumentError("conversation not found")
	}
	if studentID != ownerID {
		return nil, apperrors.NewInvalidArgumentError("not your conversation")
	}
	return nil, nil
}

func (f *fakeConversation) PostStudentMessage(ctx context.Context, _, threadID int64, text string) (*models.ChatMessage, *models.ChatMessage, error) {
	if text == "" {
		return nil, nil, apperrors.NewInvalidArgumentError("message required")
	}
	if f.hold != nil {
		close(f.started)
		select {
		case <-f.hold:
		case <-ctx.Done():
			f.abandoned <- ctx.Err()
			return nil, nil, ctx.Err()
		}
	}
	f.mu.Lock()
	f.sent = append(f.sent, text)
	f.mu.Unlock()

	stored := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	question := &models.ChatMessage{ID: 41, ThreadID: threadID, Sender: models.SenderStudent, Text: text, CreatedAt: stored}
	reply := &models.ChatMessage{ID: 42, ThreadID: threadID, Sender: models.SenderAI, Text: "re: " + text, CreatedAt: stored}
	return question, reply, nil
}

func newHeldConversation() *fakeConversation {
	return &fakeConversation{
		hold:      make(chan struct{}),
		started:   make(chan struct{}),
		abandoned: make(chan error, 1),
	}
}

func newTestServer(t *testing.T, userID int64) (*httptest.Server, *Hub) {
	srv, hub, _ := newTestServerWith(t, userID, &fakeConversation{})
	return srv, hub
}

// newTestServerWith serves conv and returns a func that stops the hub
func newTestServerWith(t *testing.T, userID int64, conv *fakeConversation) (*httptest.Server, *Hub, context.CancelFunc) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(zerolog.Nop())
	go hub.Run(ctx)

	handler := NewHandler(hub, conv, nil, zerolog.Nop())
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(middleware.ContextUserID, userID)
		c.Set(middleware.ContextRoleType, string(models.RoleStudent))
	})
	router.GET("/threads/:id/ws", handler.HandleConnection)

	srv := httptest.NewServer(router)
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return srv, hub, cancel
}

func dial(t *testing.T, srv *httptest.Server, threadID string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/threads/" + threadID + "/ws"
	return websocket.DefaultDialer.Dial(url, nil)
}

func readFrame(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)
	var msg Message
	require.NoError(t, json.Unmarshal(raw, &msg))
	return msg
}

func waitForClients(t *testing.T, hub *Hub, threadID int64, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return hub.ClientsCount(threadID) == n }, 2*time.Second, 10*time.Millisecond)
}

func TestLiveConversationBroadcastsExchange(t *testing.T) {
	srv, hub := newTestServer(t, ownerID)

	sender, _, err := dial(t, srv, "1")
	require.NoError(t, err)
	defer sender.Close()
	follower, _, err := dial(t, srv, "1")
	require.NoError(t, err)
	defer follower.Close()
	waitForClients(t, hub, 1, 2)

	require.NoError(t, sender.WriteJSON(map[string]string{"text": "hello"}))

	for _, conn := range []*websocket.Conn{sender, follower} {
		student := readFrame(t, conn)
		assert.Equal(t, TypeMessage, student.Type)
		assert.Equal(t, "STUDENT", student.Sender)
		assert.Equal(t, "hello", student.Text)
		assert.EqualValues(t, 41, student.ID)
		assert.True(t, student.Timestamp.Equal(time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)))

		ai := readFrame(t, conn)
		assert.Equal(t, "AI", ai.Sender)
		assert.Equal(t, "re: hello", ai.Text)
		assert.EqualValues(t, 42, ai.ID)
	}
}

func TestLiveConversationErrorsGoToSenderOnly(t *testing.T) {
	srv, hub := newTestServer(t, ownerID)

	conn, _, err := dial(t, srv, "1")
	require.NoError(t, err)
	defer conn.Close()
	waitForClients(t, hub, 1, 1)

	require.NoError(t, conn.WriteJSON(map[string]string{"text": "   "}))
	frame := readFrame(t, conn)
	assert.Equal(t, TypeError, frame.Type)
	assert.Equal(t, "message required", frame.Error)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	frame = readFrame(t, conn)
	assert.Equal(t, TypeError, frame.Type)
}

func TestLiveConversationRejectsForeignThread(t *testing.T) {
	srv, _ := newTestServer(t, 99)

	_, resp, err := dial(t, srv, "1")
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	_, resp, err = dial(t, srv, "abc")
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHubUnregistersOnClose(t *testing.T) {
	srv, hub := newTestServer(t, ownerID)

	conn, _, err := dial(t, srv, "1")
	require.NoError(t, err)
	waitForClients(t, hub, 1, 1)

	require.NoError(t, conn.Close())
	waitForClients(t, hub, 1, 0)
}

func TestClosingSocketCancelsPendingPost(t *testing.T) {
	conv := newHeldConversation()
	srv, hub, _ := newTestServerWith(t, ownerID, conv)

	conn, _, err := dial(t, srv, "1")
	require.NoError(t, err)
	waitForClients(t, hub, 1, 1)

	require.NoError(t, conn.WriteJSON(map[string]string{"text": "hello"}))
	<-conv.started
	require.NoError(t, conn.Close())

	select {
	case err := <-conv.abandoned:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("pending post was not cancelled when the socket closed")
	}
	assert.Empty(t, conv.sent)
}

func TestStoppingHubCancelsPendingPost(t *testing.T) {
	conv := newHeldConversation()
	srv, hub, stop := newTestServerWith(t, ownerID, conv)

	conn, _, err := dial(t, srv, "1")
	require.NoError(t, err)
	defer conn.Close()
	waitForClients(t, hub, 1, 1)

	require.NoError(t, conn.WriteJSON(map[string]string{"text": "hello"}))
	<-conv.started
	stop()

	select {
	case err := <-conv.abandoned:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("pending post was not cancelled when the hub stopped")
	}
}

func TestOriginChecker(t *testing.T) {
	req := func(origin string) *http.Request {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		if origin != "" {
			r.Header.Set("Origin", origin)
		}
		return r
	}

	anyOrigin := originChecker([]string{"*"})
	assert.True(t, anyOrigin(req("http://evil.test")))

	strict := originChecker([]string{"http://localhost:8080"})
	assert.True(t, strict(req("http://localhost:8080")))
	assert.True(t, strict(req("")))
	assert.False(t, strict(req("http://evil.test")))

	assert.True(t, originChecker(nil)(req("http://evil.test")))
}
