package room

import (
	"context"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/sharetube/watchparty/internal/domain"
)

type JoinRoomParams struct {
	RoomId   string
	SenderId string
}

type JoinRoomResponse struct {
	IsRoomCreated bool
	Members       []string
}

// JoinRoom is silent for other members; nothing is fanned out.
func (s service) JoinRoom(ctx context.Context, params *JoinRoomParams) (JoinRoomResponse, error) {
	if err := s.validate(ctx, params,
		validation.Field(&params.RoomId, RoomIdRule...),
		validation.Field(&params.SenderId, MemberIdRule...),
	); err != nil {
		return JoinRoomResponse{}, err
	}

	result, err := s.roomRepo.Join(params.RoomId, params.SenderId)
	if err != nil {
		return JoinRoomResponse{}, fmt.Errorf("failed to join room: %w", s.mapRoomErr(err))
	}

	rm, err := s.getRoom(params.RoomId)
	if err != nil {
		return JoinRoomResponse{}, fmt.Errorf("failed to get room: %w", err)
	}

	members, err := rm.Members()
	if err != nil {
		return JoinRoomResponse{}, fmt.Errorf("failed to get members: %w", s.mapRoomErr(err))
	}

	if result.IsRoomCreated {
		s.logger.InfoContext(ctx, "room created", "room_id", params.RoomId)
	}

	return JoinRoomResponse{
		IsRoomCreated: result.IsRoomCreated,
		Members:       members,
	}, nil
}

type LeaveRoomParams struct {
	RoomId   string
	SenderId string
}

type LeaveRoomResponse struct {
	IsRoomDeleted bool
}

func (s service) LeaveRoom(ctx context.Context, params *LeaveRoomParams) (LeaveRoomResponse, error) {
	if err := s.validate(ctx, params,
		validation.Field(&params.RoomId, RoomIdRule...),
	); err != nil {
		return LeaveRoomResponse{}, err
	}

	result, err := s.roomRepo.Leave(params.RoomId, params.SenderId)
	if err != nil {
		return LeaveRoomResponse{}, fmt.Errorf("failed to leave room: %w", s.mapRoomErr(err))
	}

	if result.IsRoomDeleted {
		s.logger.InfoContext(ctx, "room deleted", "room_id", params.RoomId)
	}

	return LeaveRoomResponse{IsRoomDeleted: result.IsRoomDeleted}, nil
}

// GetRoomState is read only; playback is projected to the current time.
func (s service) GetRoomState(ctx context.Context, roomId string) (domain.RoomSnapshot, error) {
	rm, err := s.getRoom(roomId)
	if err != nil {
		return domain.RoomSnapshot{}, err
	}

	snapshot, err := rm.Snapshot(s.clock.Now())
	if err != nil {
		return domain.RoomSnapshot{}, s.mapRoomErr(err)
	}

	return snapshot, nil
}
