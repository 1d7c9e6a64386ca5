package room

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/sharetube/watchparty/internal/domain"
	"github.com/sharetube/watchparty/internal/repository/connection"
	connInmemory "github.com/sharetube/watchparty/internal/repository/connection/inmemory"
	roomInmemory "github.com/sharetube/watchparty/internal/repository/room/inmemory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubGenerator struct {
	calls        int
	gotContext   string
	relationship string
	text         string
	err          error
}

func (g *stubGenerator) Generate(_ context.Context, roomContext, relationship string) (string, error) {
	g.calls++
	g.gotContext = roomContext
	g.relationship = relationship
	return g.text, g.err
}

type fixture struct {
	service *service
	clock   *clock.Mock
	conns   map[string]*connection.Conn
}

func newFixture(t *testing.T, generator iSuggestionGenerator) *fixture {
	t.Helper()
	mock := clock.NewMock()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s := NewService(roomInmemory.NewRepo(), connInmemory.NewRepo(), generator, logger, &Config{
		Clock:             mock,
		SuggestionTimeout: time.Second,
	})

	return &fixture{service: s, clock: mock, conns: map[string]*connection.Conn{}}
}

// member connects a new member and joins it to roomId.
func (f *fixture) member(t *testing.T, roomId string) string {
	t.Helper()
	memberId := uuid.NewString()
	// distinct write timeouts keep placeholder conns apart under deep equality
	conn := connection.NewConn(nil, time.Duration(len(f.conns)+1))
	require.NoError(t, f.service.ConnectMember(context.Background(), &ConnectMemberParams{Conn: conn, MemberId: memberId}))
	f.conns[memberId] = conn

	_, err := f.service.JoinRoom(context.Background(), &JoinRoomParams{RoomId: roomId, SenderId: memberId})
	require.NoError(t, err)

	return memberId
}

func TestPlayFansOutToOthers(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	a := f.member(t, "movie")
	b := f.member(t, "movie")
	c := f.member(t, "movie")

	resp, err := f.service.Play(ctx, &UpdatePlaybackParams{RoomId: "movie", SenderId: a, Position: 10})
	require.NoError(t, err)
	assert.ElementsMatch(t, []*connection.Conn{f.conns[b], f.conns[c]}, resp.Conns, "sender must not receive its own event")
	assert.Equal(t, 10.0, resp.Playback.Position)
	assert.True(t, resp.Playback.IsPlaying)

	resp, err = f.service.Pause(ctx, &UpdatePlaybackParams{RoomId: "movie", SenderId: b, Position: 12})
	require.NoError(t, err)
	assert.ElementsMatch(t, []*connection.Conn{f.conns[a], f.conns[c]}, resp.Conns)
	assert.False(t, resp.Playback.IsPlaying)
}

func TestSeekRequiresPlaybackAndKeepsIsPlaying(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	a := f.member(t, "movie")
	b := f.member(t, "movie")

	_, err := f.service.Seek(ctx, &UpdatePlaybackParams{RoomId: "movie", SenderId: a, Position: 30})
	assert.ErrorIs(t, err, ErrPlaybackNotSet)
	_, err = f.service.SyncTime(ctx, &UpdatePlaybackParams{RoomId: "movie", SenderId: a, Position: 30})
	assert.ErrorIs(t, err, ErrPlaybackNotSet)

	_, err = f.service.Pause(ctx, &UpdatePlaybackParams{RoomId: "movie", SenderId: a, Position: 5})
	require.NoError(t, err)

	resp, err := f.service.Seek(ctx, &UpdatePlaybackParams{RoomId: "movie", SenderId: a, Position: 30})
	require.NoError(t, err)
	assert.Equal(t, 30.0, resp.Playback.Position)
	assert.False(t, resp.Playback.IsPlaying, "seek must not start playback")
	assert.Equal(t, []*connection.Conn{f.conns[b]}, resp.Conns)
}

func TestSyncTimeUpdatesWithoutFanOut(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	a := f.member(t, "movie")
	b := f.member(t, "movie")

	_, err := f.service.Play(ctx, &UpdatePlaybackParams{RoomId: "movie", SenderId: a, Position: 0})
	require.NoError(t, err)

	f.clock.Add(5 * time.Second)
	playback, err := f.service.SyncTime(ctx, &UpdatePlaybackParams{RoomId: "movie", SenderId: a, Position: 5.2})
	require.NoError(t, err)
	assert.Equal(t, 5.2, playback.Position)
	assert.True(t, playback.IsPlaying)
	assert.Equal(t, f.clock.Now(), playback.LastUpdate)

	sync, err := f.service.RequestSync(ctx, &RequestSyncParams{RoomId: "movie", SenderId: b})
	require.NoError(t, err)
	assert.InDelta(t, 5.2, sync.Playback.Position, 1e-9)
}

func TestRequestSyncProjectsDrift(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	a := f.member(t, "movie")
	b := f.member(t, "movie")

	resp, err := f.service.RequestSync(ctx, &RequestSyncParams{RoomId: "movie", SenderId: b})
	require.NoError(t, err)
	assert.False(t, resp.IsSet, "nothing to send before the first play or pause")

	_, err = f.service.Play(ctx, &UpdatePlaybackParams{RoomId: "movie", SenderId: a, Position: 100})
	require.NoError(t, err)
	f.clock.Add(7 * time.Second)

	resp, err = f.service.RequestSync(ctx, &RequestSyncParams{RoomId: "movie", SenderId: b})
	require.NoError(t, err)
	assert.True(t, resp.IsSet)
	assert.InDelta(t, 107.0, resp.Playback.Position, 1e-9)
	assert.True(t, resp.Playback.IsPlaying)
	assert.Same(t, f.conns[b], resp.Conn, "reply goes to the requester only")

	_, err = f.service.Pause(ctx, &UpdatePlaybackParams{RoomId: "movie", SenderId: a, Position: 107})
	require.NoError(t, err)
	f.clock.Add(time.Hour)

	resp, err = f.service.RequestSync(ctx, &RequestSyncParams{RoomId: "movie", SenderId: b})
	require.NoError(t, err)
	assert.Equal(t, 107.0, resp.Playback.Position, "paused room must not drift")
	assert.False(t, resp.Playback.IsPlaying)
}

func TestEventsForUnknownRoom(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	a := f.member(t, "movie")

	params := &UpdatePlaybackParams{RoomId: "other", SenderId: a, Position: 1}
	_, err := f.service.Play(ctx, params)
	assert.ErrorIs(t, err, ErrRoomNotFound)
	_, err = f.service.Seek(ctx, params)
	assert.ErrorIs(t, err, ErrRoomNotFound)
	_, err = f.service.SyncTime(ctx, params)
	assert.ErrorIs(t, err, ErrRoomNotFound)
	_, err = f.service.RequestSync(ctx, &RequestSyncParams{RoomId: "other", SenderId: a})
	assert.ErrorIs(t, err, ErrRoomNotFound)
	err = f.service.UpdateMovieContext(ctx, &UpdateMovieContextParams{RoomId: "other", SenderId: a, Context: "x"})
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestInvalidInput(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	a := f.member(t, "movie")

	_, err := f.service.Play(ctx, &UpdatePlaybackParams{RoomId: "movie", SenderId: a, Position: -1})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = f.service.Play(ctx, &UpdatePlaybackParams{RoomId: "movie", SenderId: a, Position: math.NaN()})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = f.service.JoinRoom(ctx, &JoinRoomParams{RoomId: "", SenderId: a})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = f.service.JoinRoom(ctx, &JoinRoomParams{RoomId: "movie", SenderId: "not-a-uuid"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestLeaveAndDisconnect(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	a := f.member(t, "movie")
	b := f.member(t, "movie")
	_, err := f.service.JoinRoom(ctx, &JoinRoomParams{RoomId: "series", SenderId: a})
	require.NoError(t, err)

	leave, err := f.service.LeaveRoom(ctx, &LeaveRoomParams{RoomId: "movie", SenderId: b})
	require.NoError(t, err)
	assert.False(t, leave.IsRoomDeleted)

	resp, err := f.service.DisconnectMember(ctx, &DisconnectMemberParams{MemberId: a})
	require.NoError(t, err)
	assert.Len(t, resp.LeftRooms, 2)
	for _, left := range resp.LeftRooms {
		assert.True(t, left.IsRoomDeleted, "room %s must be deleted once empty", left.RoomId)
	}

	_, err = f.service.GetRoomState(ctx, "movie")
	assert.ErrorIs(t, err, ErrRoomNotFound)

	_, err = f.service.LeaveRoom(ctx, &LeaveRoomParams{RoomId: "movie", SenderId: b})
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestRecreatedRoomHasNoPlayback(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	a := f.member(t, "movie")
	_, err := f.service.Play(ctx, &UpdatePlaybackParams{RoomId: "movie", SenderId: a, Position: 50})
	require.NoError(t, err)
	_, err = f.service.LeaveRoom(ctx, &LeaveRoomParams{RoomId: "movie", SenderId: a})
	require.NoError(t, err)

	b := f.member(t, "movie")
	resp, err := f.service.RequestSync(ctx, &RequestSyncParams{RoomId: "movie", SenderId: b})
	require.NoError(t, err)
	assert.False(t, resp.IsSet)
}

func TestChatIncludesSender(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	a := f.member(t, "movie")
	b := f.member(t, "movie")

	resp, err := f.service.SendChatMessage(ctx, &SendChatMessageParams{
		RoomId:   "movie",
		SenderId: a,
		Message:  domain.ChatMessage{Sender: "alice", Content: "popcorn?"},
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []*connection.Conn{f.conns[a], f.conns[b]}, resp.Conns)
	assert.NotEmpty(t, resp.Message.Id)
	assert.Equal(t, f.clock.Now().UnixMilli(), resp.Message.Timestamp)
	assert.Equal(t, "popcorn?", resp.Message.Content)

	_, err = f.service.SendChatMessage(ctx, &SendChatMessageParams{RoomId: "movie", SenderId: a})
	assert.ErrorIs(t, err, ErrInvalidInput, "empty content is rejected")
}

func TestSuggestion(t *testing.T) {
	gen := &stubGenerator{text: "Would you trust Neil?"}
	f := newFixture(t, gen)
	ctx := context.Background()
	a := f.member(t, "movie")
	b := f.member(t, "movie")
	params := &RequestSuggestionParams{RoomId: "movie", SenderId: a, Username: "alice", Relationship: "siblings"}

	resp, err := f.service.RequestSuggestion(ctx, params)
	require.NoError(t, err)
	assert.Nil(t, resp.Suggestion, "no suggestion without context")
	assert.Equal(t, 0, gen.calls)

	require.NoError(t, f.service.UpdateMovieContext(ctx, &UpdateMovieContextParams{RoomId: "movie", SenderId: b, Context: "the diner scene"}))

	resp, err = f.service.RequestSuggestion(ctx, params)
	require.NoError(t, err)
	require.NotNil(t, resp.Suggestion)
	assert.Equal(t, "Would you trust Neil?", resp.Suggestion.Content)
	assert.Equal(t, SuggestionSender, resp.Suggestion.Sender)
	assert.True(t, resp.Suggestion.IsSuggestion)
	assert.Equal(t, "the diner scene", gen.gotContext)
	assert.Equal(t, "siblings", gen.relationship)
	assert.ElementsMatch(t, []*connection.Conn{f.conns[a], f.conns[b]}, resp.Conns)

	gen.text = ""
	resp, err = f.service.RequestSuggestion(ctx, params)
	require.NoError(t, err)
	assert.Equal(t, SuggestionFallback, resp.Suggestion.Content)

	gen.err = errors.New("quota")
	_, err = f.service.RequestSuggestion(ctx, params)
	assert.ErrorIs(t, err, ErrSuggestionFailed)
}

func TestSuggestionDisabled(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	a := f.member(t, "movie")
	require.NoError(t, f.service.UpdateMovieContext(ctx, &UpdateMovieContextParams{RoomId: "movie", SenderId: a, Context: "opening"}))

	resp, err := f.service.RequestSuggestion(ctx, &RequestSuggestionParams{RoomId: "movie", SenderId: a})
	require.NoError(t, err)
	assert.Nil(t, resp.Suggestion)
}

func TestGetRoomState(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	a := f.member(t, "movie")
	_, err := f.service.Play(ctx, &UpdatePlaybackParams{RoomId: "movie", SenderId: a, Position: 1})
	require.NoError(t, err)
	f.clock.Add(2 * time.Second)

	state, err := f.service.GetRoomState(ctx, "movie")
	require.NoError(t, err)
	assert.Equal(t, []string{a}, state.Members)
	require.NotNil(t, state.Playback)
	assert.InDelta(t, 3.0, state.Playback.Position, 1e-9)
}
