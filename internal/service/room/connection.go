package room

import (
	"context"
	"fmt"

	"github.com/sharetube/watchparty/internal/repository/connection"
	"github.com/sharetube/watchparty/internal/repository/room"
)

type ConnectMemberParams struct {
	Conn     *connection.Conn
	MemberId string
}

func (s service) ConnectMember(ctx context.Context, params *ConnectMemberParams) error {
	if err := s.connRepo.Add(params.Conn, params.MemberId); err != nil {
		return fmt.Errorf("failed to add conn: %w", err)
	}

	s.logger.DebugContext(ctx, "member connected", "member_id", params.MemberId)
	return nil
}

type DisconnectMemberParams struct {
	MemberId string
}

type DisconnectMemberResponse struct {
	LeftRooms []room.LeaveResult
}

// DisconnectMember leaves every room the member joined and forgets its connection.
func (s service) DisconnectMember(ctx context.Context, params *DisconnectMemberParams) (DisconnectMemberResponse, error) {
	left := s.roomRepo.LeaveAll(params.MemberId)

	if err := s.connRepo.RemoveByMemberId(params.MemberId); err != nil {
		return DisconnectMemberResponse{LeftRooms: left}, fmt.Errorf("failed to remove conn: %w", err)
	}

	s.logger.DebugContext(ctx, "member disconnected", "member_id", params.MemberId, "left_rooms", len(left))
	return DisconnectMemberResponse{LeftRooms: left}, nil
}
