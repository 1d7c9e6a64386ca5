package controller

import (
	"context"
	"errors"
	"fmt"

	"github.com/sharetube/watchparty/internal/proto"
	"github.com/sharetube/watchparty/internal/service/room"
	"github.com/sharetube/watchparty/pkg/wsrouter"
)

type EmptyInput struct{}

func (c controller) handleAlive(_ context.Context, _ wsrouter.Conn, _ EmptyInput) error {
	return nil
}

func (c controller) handleJoinRoom(ctx context.Context, _ wsrouter.Conn, input proto.RoomRef) error {
	joinRoomResp, err := c.roomService.JoinRoom(ctx, &room.JoinRoomParams{
		RoomId:   input.RoomId,
		SenderId: c.getMemberIdFromCtx(ctx),
	})
	if err != nil {
		return fmt.Errorf("failed to join room: %w", err)
	}

	c.logger.InfoContext(ctx, "member joined room",
		"room_id", input.RoomId,
		"is_room_created", joinRoomResp.IsRoomCreated,
		"members", len(joinRoomResp.Members),
	)
	return nil
}

func (c controller) handleLeaveRoom(ctx context.Context, _ wsrouter.Conn, input proto.RoomRef) error {
	if _, err := c.roomService.LeaveRoom(ctx, &room.LeaveRoomParams{
		RoomId:   input.RoomId,
		SenderId: c.getMemberIdFromCtx(ctx),
	}); err != nil {
		return fmt.Errorf("failed to leave room: %w", err)
	}

	return nil
}

func (c controller) handlePlay(ctx context.Context, _ wsrouter.Conn, input proto.PlaybackInput) error {
	return c.updatePlayback(ctx, proto.TypePlay, c.roomService.Play, input)
}

func (c controller) handlePause(ctx context.Context, _ wsrouter.Conn, input proto.PlaybackInput) error {
	return c.updatePlayback(ctx, proto.TypePause, c.roomService.Pause, input)
}

func (c controller) handleSeek(ctx context.Context, _ wsrouter.Conn, input proto.PlaybackInput) error {
	return c.updatePlayback(ctx, proto.TypeSeek, c.roomService.Seek, input)
}

type playbackUpdater func(context.Context, *room.UpdatePlaybackParams) (room.UpdatePlaybackResponse, error)

// updatePlayback applies a play, pause or seek and relays the new position to the other members.
func (c controller) updatePlayback(ctx context.Context, eventType string, update playbackUpdater, input proto.PlaybackInput) error {
	resp, err := update(ctx, &room.UpdatePlaybackParams{
		Position: input.CurrentTime,
		SenderId: c.getMemberIdFromCtx(ctx),
		RoomId:   input.RoomId,
	})
	if err != nil {
		return fmt.Errorf("failed to %s: %w", eventType, err)
	}

	if err := c.broadcast(ctx, resp.Conns, &proto.Output{
		Type:    eventType,
		Payload: resp.Playback.Position,
	}); err != nil {
		c.logger.InfoContext(ctx, "failed to broadcast", "error", err)
	}

	return nil
}

func (c controller) handleSyncTime(ctx context.Context, _ wsrouter.Conn, input proto.PlaybackInput) error {
	if _, err := c.roomService.SyncTime(ctx, &room.UpdatePlaybackParams{
		Position: input.CurrentTime,
		SenderId: c.getMemberIdFromCtx(ctx),
		RoomId:   input.RoomId,
	}); err != nil {
		return fmt.Errorf("failed to sync time: %w", err)
	}

	return nil
}

func (c controller) handleRequestSync(ctx context.Context, _ wsrouter.Conn, input proto.RoomRef) error {
	resp, err := c.roomService.RequestSync(ctx, &room.RequestSyncParams{
		RoomId:   input.RoomId,
		SenderId: c.getMemberIdFromCtx(ctx),
	})
	if err != nil {
		return fmt.Errorf("failed to request sync: %w", err)
	}

	if !resp.IsSet {
		return nil
	}

	if err := c.writeToConn(ctx, resp.Conn, &proto.Output{
		Type: proto.TypeSyncState,
		Payload: proto.SyncState{
			CurrentTime: resp.Playback.Position,
			IsPlaying:   resp.Playback.IsPlaying,
		},
	}); err != nil {
		c.logger.InfoContext(ctx, "failed to write sync state", "error", err)
	}

	return nil
}

func (c controller) handleUpdateMovieContext(ctx context.Context, _ wsrouter.Conn, input proto.MovieContextInput) error {
	if err := c.roomService.UpdateMovieContext(ctx, &room.UpdateMovieContextParams{
		RoomId:   input.RoomId,
		SenderId: c.getMemberIdFromCtx(ctx),
		Context:  input.Context,
	}); err != nil {
		return fmt.Errorf("failed to update movie context: %w", err)
	}

	return nil
}

func (c controller) handleChatMessage(ctx context.Context, _ wsrouter.Conn, input proto.ChatMessageInput) error {
	resp, err := c.roomService.SendChatMessage(ctx, &room.SendChatMessageParams{
		RoomId:   input.RoomId,
		SenderId: c.getMemberIdFromCtx(ctx),
		Message:  input.Message,
	})
	if err != nil {
		return fmt.Errorf("failed to send chat message: %w", err)
	}

	if err := c.broadcast(ctx, resp.Conns, &proto.Output{
		Type:    proto.TypeChatMessage,
		Payload: resp.Message,
	}); err != nil {
		c.logger.InfoContext(ctx, "failed to broadcast", "error", err)
	}

	return nil
}

func (c controller) handleRequestAiSuggestion(ctx context.Context, _ wsrouter.Conn, input proto.AiSuggestionInput) error {
	resp, err := c.roomService.RequestSuggestion(ctx, &room.RequestSuggestionParams{
		RoomId:       input.RoomId,
		SenderId:     c.getMemberIdFromCtx(ctx),
		Username:     input.Username,
		Relationship: input.Relationship,
	})
	if err != nil {
		return fmt.Errorf("failed to request suggestion: %w", err)
	}

	if resp.Suggestion == nil {
		return nil
	}

	if err := c.broadcast(ctx, resp.Conns, &proto.Output{
		Type:    proto.TypeAiSuggestion,
		Payload: resp.Suggestion,
	}); err != nil {
		c.logger.InfoContext(ctx, "failed to broadcast", "error", err)
	}

	return nil
}

// handleWSError decides what the sender sees. Events that lose a race with
// room deletion, or arrive before playback exists, are dropped silently.
func (c controller) handleWSError(ctx context.Context, conn wsrouter.Conn, err error) {
	switch {
	case errors.Is(err, room.ErrRoomNotFound),
		errors.Is(err, room.ErrMemberNotFound),
		errors.Is(err, room.ErrPlaybackNotSet):
		c.logger.DebugContext(ctx, "dropping event", "error", err)
	case errors.Is(err, room.ErrInvalidInput),
		errors.Is(err, wsrouter.ErrInvalidPayload),
		errors.Is(err, wsrouter.ErrUnknownMessageType):
		c.logger.InfoContext(ctx, "rejected event", "error", err)
		c.writeError(ctx, conn, err.Error())
	case errors.Is(err, room.ErrSuggestionFailed):
		c.logger.WarnContext(ctx, "suggestion failed", "error", err)
		c.writeError(ctx, conn, room.ErrSuggestionFailed.Error())
	default:
		c.logger.WarnContext(ctx, "failed to handle event", "error", err)
		c.writeError(ctx, conn, "internal error")
	}
}
