package room

import (
	"context"
	"errors"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/sharetube/watchparty/internal/domain"
	"github.com/sharetube/watchparty/internal/repository/connection"
)

type UpdatePlaybackParams struct {
	Position float64
	SenderId string
	RoomId   string
}

type UpdatePlaybackResponse struct {
	Playback domain.PlaybackState
	Conns    []*connection.Conn
}

func (s service) validatePlayback(ctx context.Context, params *UpdatePlaybackParams) error {
	return s.validate(ctx, params,
		validation.Field(&params.RoomId, RoomIdRule...),
		validation.Field(&params.Position, PositionRule...),
	)
}

// Play sets the room playing from position. Conns are every other member.
func (s service) Play(ctx context.Context, params *UpdatePlaybackParams) (UpdatePlaybackResponse, error) {
	return s.setPlayback(ctx, params, true)
}

// Pause stops the room at position. Conns are every other member.
func (s service) Pause(ctx context.Context, params *UpdatePlaybackParams) (UpdatePlaybackResponse, error) {
	return s.setPlayback(ctx, params, false)
}

func (s service) setPlayback(ctx context.Context, params *UpdatePlaybackParams, isPlaying bool) (UpdatePlaybackResponse, error) {
	if err := s.validatePlayback(ctx, params); err != nil {
		return UpdatePlaybackResponse{}, err
	}

	rm, err := s.getRoom(params.RoomId)
	if err != nil {
		return UpdatePlaybackResponse{}, err
	}

	now := s.clock.Now()
	members, err := rm.SetPlayback(params.Position, isPlaying, now)
	if err != nil {
		return UpdatePlaybackResponse{}, fmt.Errorf("failed to set playback: %w", s.mapRoomErr(err))
	}

	return UpdatePlaybackResponse{
		Playback: domain.PlaybackState{
			Position:   params.Position,
			IsPlaying:  isPlaying,
			LastUpdate: now,
		},
		Conns: s.getConnsByMemberIds(ctx, members, params.SenderId),
	}, nil
}

// Seek moves the timeline without touching isPlaying. Playback must already be set.
func (s service) Seek(ctx context.Context, params *UpdatePlaybackParams) (UpdatePlaybackResponse, error) {
	if err := s.validatePlayback(ctx, params); err != nil {
		return UpdatePlaybackResponse{}, err
	}

	rm, err := s.getRoom(params.RoomId)
	if err != nil {
		return UpdatePlaybackResponse{}, err
	}

	playback, members, err := rm.UpdatePosition(params.Position, s.clock.Now())
	if err != nil {
		return UpdatePlaybackResponse{}, fmt.Errorf("failed to seek: %w", s.mapRoomErr(err))
	}

	return UpdatePlaybackResponse{
		Playback: playback,
		Conns:    s.getConnsByMemberIds(ctx, members, params.SenderId),
	}, nil
}

// SyncTime records a heartbeat position. Nothing is fanned out.
func (s service) SyncTime(ctx context.Context, params *UpdatePlaybackParams) (domain.PlaybackState, error) {
	if err := s.validatePlayback(ctx, params); err != nil {
		return domain.PlaybackState{}, err
	}

	rm, err := s.getRoom(params.RoomId)
	if err != nil {
		return domain.PlaybackState{}, err
	}

	playback, _, err := rm.UpdatePosition(params.Position, s.clock.Now())
	if err != nil {
		return domain.PlaybackState{}, fmt.Errorf("failed to sync time: %w", s.mapRoomErr(err))
	}

	return playback, nil
}

type RequestSyncParams struct {
	RoomId   string
	SenderId string
}

type RequestSyncResponse struct {
	// IsSet is false when the room has no playback yet; nothing should be sent.
	IsSet    bool
	Playback domain.PlaybackState
	Conn     *connection.Conn
}

// RequestSync returns the projected playback for the requester only.
func (s service) RequestSync(ctx context.Context, params *RequestSyncParams) (RequestSyncResponse, error) {
	if err := s.validate(ctx, params,
		validation.Field(&params.RoomId, RoomIdRule...),
	); err != nil {
		return RequestSyncResponse{}, err
	}

	rm, err := s.getRoom(params.RoomId)
	if err != nil {
		return RequestSyncResponse{}, err
	}

	playback, err := rm.Playback()
	if err != nil {
		if errors.Is(err, domain.ErrPlaybackNotSet) {
			return RequestSyncResponse{}, nil
		}

		return RequestSyncResponse{}, fmt.Errorf("failed to get playback: %w", s.mapRoomErr(err))
	}

	conn, err := s.connRepo.GetConn(params.SenderId)
	if err != nil {
		return RequestSyncResponse{}, fmt.Errorf("failed to get conn: %w", err)
	}

	return RequestSyncResponse{
		IsSet:    true,
		Playback: playback.Projected(s.clock.Now()),
		Conn:     conn,
	}, nil
}
