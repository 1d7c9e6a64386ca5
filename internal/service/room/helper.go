package room

import (
	"context"
	"errors"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/sharetube/watchparty/internal/domain"
	"github.com/sharetube/watchparty/internal/repository/connection"
	"github.com/sharetube/watchparty/internal/repository/room"
)

func (s service) getRoom(roomId string) (*domain.Room, error) {
	rm, err := s.roomRepo.GetRoom(roomId)
	if err != nil {
		return nil, s.mapRoomErr(err)
	}

	return rm, nil
}

// mapRoomErr turns registry and room errors into service errors. A room that
// was deleted after lookup is reported the same as a missing one.
func (s service) mapRoomErr(err error) error {
	switch {
	case errors.Is(err, room.ErrRoomNotFound), errors.Is(err, domain.ErrRoomDeleted):
		return ErrRoomNotFound
	case errors.Is(err, room.ErrMemberNotFound), errors.Is(err, domain.ErrMemberNotFound):
		return ErrMemberNotFound
	case errors.Is(err, domain.ErrPlaybackNotSet):
		return ErrPlaybackNotSet
	}

	return err
}

// getConnsByMemberIds resolves live connections, skipping excludeId. Members
// whose connection is already gone are skipped.
func (s service) getConnsByMemberIds(ctx context.Context, memberIds []string, excludeId string) []*connection.Conn {
	conns := make([]*connection.Conn, 0, len(memberIds))
	for _, memberId := range memberIds {
		if memberId == excludeId {
			continue
		}

		conn, err := s.connRepo.GetConn(memberId)
		if err != nil {
			s.logger.DebugContext(ctx, "skipping member without connection", "member_id", memberId, "error", err)
			continue
		}

		conns = append(conns, conn)
	}

	return conns
}

func (s service) validate(ctx context.Context, structPtr any, fields ...*validation.FieldRules) error {
	if err := validation.ValidateStructWithContext(ctx, structPtr, fields...); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	return nil
}
