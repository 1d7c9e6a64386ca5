package controller

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sharetube/watchparty/internal/domain"
	"github.com/sharetube/watchparty/internal/proto"
	connInmemory "github.com/sharetube/watchparty/internal/repository/connection/inmemory"
	roomInmemory "github.com/sharetube/watchparty/internal/repository/room/inmemory"
	"github.com/sharetube/watchparty/internal/search"
	"github.com/sharetube/watchparty/internal/service/room"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	page search.Page
}

func (p stubProvider) Search(context.Context, string, string) (search.Page, error) {
	return p.page, nil
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	roomService := room.NewService(roomInmemory.NewRepo(), connInmemory.NewRepo(), nil, logger, &room.Config{})
	searchService := search.NewService()
	searchService.Register(search.SourceYouTube, stubProvider{page: search.Page{
		Results: []search.Video{{Id: "abc", Title: "Heat", Source: search.SourceYouTube}},
	}})

	c := NewController(roomService, searchService, logger, &Config{})
	srv := httptest.NewServer(c.GetMux())
	t.Cleanup(srv.Close)

	return srv
}

type testClient struct {
	t        *testing.T
	ws       *websocket.Conn
	memberId string
}

func dial(t *testing.T, srv *httptest.Server) *testClient {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/ws"
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { ws.Close() })

	cl := &testClient{t: t, ws: ws}
	msg := cl.read()
	require.Equal(t, proto.TypeConnected, msg.Type)

	var connected proto.Connected
	require.NoError(t, json.Unmarshal(msg.Payload, &connected))
	cl.memberId = connected.MemberId

	return cl
}

func (cl *testClient) send(eventType string, payload any) {
	cl.t.Helper()
	require.NoError(cl.t, cl.ws.WriteJSON(proto.Output{Type: eventType, Payload: payload}))
}

func (cl *testClient) read() proto.Inbound {
	cl.t.Helper()
	require.NoError(cl.t, cl.ws.SetReadDeadline(time.Now().Add(2*time.Second)))

	var msg proto.Inbound
	require.NoError(cl.t, cl.ws.ReadJSON(&msg))

	return msg
}

func getRoomState(t *testing.T, srv *httptest.Server, roomId string) (domain.RoomSnapshot, int) {
	t.Helper()
	resp, err := http.Get(srv.URL + "/api/v1/rooms/" + roomId)
	require.NoError(t, err)
	defer resp.Body.Close()

	var snapshot domain.RoomSnapshot
	if resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&snapshot))
	}

	return snapshot, resp.StatusCode
}

func joinAll(t *testing.T, srv *httptest.Server, roomId string, clients ...*testClient) {
	t.Helper()
	for _, cl := range clients {
		cl.send(proto.TypeJoinRoom, roomId)
	}

	require.Eventually(t, func() bool {
		snapshot, status := getRoomState(t, srv, roomId)
		return status == http.StatusOK && len(snapshot.Members) == len(clients)
	}, 2*time.Second, 10*time.Millisecond)
}

func TestPlayIsRelayedToOthersOnly(t *testing.T) {
	srv := newTestServer(t)
	alice, bob := dial(t, srv), dial(t, srv)
	joinAll(t, srv, "movie-night", alice, bob)

	alice.send(proto.TypePlay, proto.PlaybackInput{RoomId: "movie-night", CurrentTime: 12.5})

	msg := bob.read()
	assert.Equal(t, proto.TypePlay, msg.Type)
	assert.JSONEq(t, `12.5`, string(msg.Payload))

	// alice's next frame is the sync reply, not an echo of her own play
	alice.send(proto.TypeRequestSync, proto.RoomRef{RoomId: "movie-night"})
	msg = alice.read()
	require.Equal(t, proto.TypeSyncState, msg.Type)

	var state proto.SyncState
	require.NoError(t, json.Unmarshal(msg.Payload, &state))
	assert.True(t, state.IsPlaying)
	assert.GreaterOrEqual(t, state.CurrentTime, 12.5)
}

func TestSyncTimeIsNotRelayed(t *testing.T) {
	srv := newTestServer(t)
	alice, bob := dial(t, srv), dial(t, srv)
	joinAll(t, srv, "room", alice, bob)

	alice.send(proto.TypePause, proto.PlaybackInput{RoomId: "room", CurrentTime: 5})
	require.Equal(t, proto.TypePause, bob.read().Type)

	alice.send(proto.TypeSyncTime, proto.PlaybackInput{RoomId: "room", CurrentTime: 42})

	bob.send(proto.TypeRequestSync, "room")
	msg := bob.read()
	require.Equal(t, proto.TypeSyncState, msg.Type)
	assert.JSONEq(t, `{"currentTime":42,"isPlaying":false}`, string(msg.Payload))
}

func TestRequestSyncBeforePlaybackIsSilent(t *testing.T) {
	srv := newTestServer(t)
	alice := dial(t, srv)
	joinAll(t, srv, "room", alice)

	alice.send(proto.TypeRequestSync, "room")
	alice.send(proto.TypeSeek, proto.PlaybackInput{RoomId: "room", CurrentTime: 3})
	alice.send(proto.TypeLeaveRoom, "nope")
	alice.send("bogus", nil)

	// the only reply is the error for the unknown type
	msg := alice.read()
	assert.Equal(t, proto.TypeError, msg.Type)
	assert.Contains(t, string(msg.Payload), "unknown message type")
}

func TestChatIncludesSender(t *testing.T) {
	srv := newTestServer(t)
	alice, bob := dial(t, srv), dial(t, srv)
	joinAll(t, srv, "room", alice, bob)

	alice.send(proto.TypeChatMessage, proto.ChatMessageInput{
		RoomId:  "room",
		Message: domain.ChatMessage{Sender: "alice", Content: "popcorn?"},
	})

	for _, cl := range []*testClient{alice, bob} {
		msg := cl.read()
		require.Equal(t, proto.TypeChatMessage, msg.Type)

		var chat domain.ChatMessage
		require.NoError(t, json.Unmarshal(msg.Payload, &chat))
		assert.Equal(t, "popcorn?", chat.Content)
		assert.NotEmpty(t, chat.Id)
		assert.NotZero(t, chat.Timestamp)
	}
}

func TestInvalidPayloadReturnsError(t *testing.T) {
	srv := newTestServer(t)
	alice := dial(t, srv)
	joinAll(t, srv, "room", alice)

	alice.send(proto.TypePlay, proto.PlaybackInput{RoomId: "room", CurrentTime: -1})
	msg := alice.read()
	assert.Equal(t, proto.TypeError, msg.Type)
	assert.Contains(t, string(msg.Payload), "invalid input")

	alice.send(proto.TypePlay, "not an object")
	msg = alice.read()
	assert.Equal(t, proto.TypeError, msg.Type)
	assert.Contains(t, string(msg.Payload), "invalid payload")
}

func TestTruncatedFrameKeepsMemberConnected(t *testing.T) {
	srv := newTestServer(t)
	alice := dial(t, srv)
	joinAll(t, srv, "room", alice)

	require.NoError(t, alice.ws.WriteMessage(websocket.TextMessage, []byte(`{"type":"play"`)))
	msg := alice.read()
	assert.Equal(t, proto.TypeError, msg.Type)
	assert.Contains(t, string(msg.Payload), "invalid payload")

	alice.send(proto.TypeChatMessage, proto.ChatMessageInput{
		RoomId:  "room",
		Message: domain.ChatMessage{Sender: "alice", Content: "still here"},
	})
	msg = alice.read()
	assert.Equal(t, proto.TypeChatMessage, msg.Type)

	snapshot, status := getRoomState(t, srv, "room")
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, snapshot.Members, 1)
}

func TestSuggestionWithoutGeneratorIsSilent(t *testing.T) {
	srv := newTestServer(t)
	alice := dial(t, srv)
	joinAll(t, srv, "room", alice)

	alice.send(proto.TypeUpdateMovieContext, proto.MovieContextInput{RoomId: "room", Context: "a heist"})
	alice.send(proto.TypeRequestAiSuggestion, proto.AiSuggestionInput{RoomId: "room"})
	alice.send(proto.TypeRequestSync, "room")
	alice.send("bogus", nil)

	assert.Equal(t, proto.TypeError, alice.read().Type)
}

func TestRoomIsDeletedWhenLastMemberDisconnects(t *testing.T) {
	srv := newTestServer(t)
	alice := dial(t, srv)
	joinAll(t, srv, "room", alice)

	require.NoError(t, alice.ws.Close())

	require.Eventually(t, func() bool {
		_, status := getRoomState(t, srv, "room")
		return status == http.StatusNotFound
	}, 2*time.Second, 10*time.Millisecond)
}

func TestUpdateRoomContext(t *testing.T) {
	srv := newTestServer(t)
	alice := dial(t, srv)
	joinAll(t, srv, "room", alice)

	req, err := http.NewRequest(http.MethodPut, srv.URL+"/api/v1/rooms/room/context", strings.NewReader(`{"context":"night heist"}`))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	snapshot, status := getRoomState(t, srv, "room")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "night heist", snapshot.Context)
	assert.Nil(t, snapshot.Playback)

	req, err = http.NewRequest(http.MethodPut, srv.URL+"/api/v1/rooms/missing/context", strings.NewReader(`{"context":"x"}`))
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSearchVideos(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name   string
		query  string
		status int
	}{
		{name: "ok", query: "?query=heat", status: http.StatusOK},
		{name: "missing query", query: "", status: http.StatusBadRequest},
		{name: "unknown source", query: "?query=heat&source=vimeo", status: http.StatusBadRequest},
		{name: "unregistered source", query: "?query=heat&source=dailymotion", status: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Get(srv.URL + "/api/v1/videos/search" + tt.query)
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "healthy", body["status"])
}
