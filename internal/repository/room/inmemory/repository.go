package inmemory

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/sharetube/watchparty/internal/domain"
	"github.com/sharetube/watchparty/internal/repository/room"
	"golang.org/x/exp/maps"
)

// repo is the room registry. Lock order is registry, then room: membership
// changes run entirely under the registry lock so a room can never be looked
// up between becoming empty and being removed.
type repo struct {
	mu          sync.Mutex
	rooms       map[string]*domain.Room
	memberRooms map[string]map[string]struct{}
}

func NewRepo() *repo {
	return &repo{
		rooms:       make(map[string]*domain.Room),
		memberRooms: make(map[string]map[string]struct{}),
	}
}

// Join adds memberId to roomId, creating the room if it does not exist.
func (r *repo) Join(roomId, memberId string) (room.JoinResult, error) {
	funcName := "room.inmemory.Join"
	r.mu.Lock()
	defer r.mu.Unlock()

	slog.Debug(funcName, "room_id", roomId, "member_id", memberId)
	var result room.JoinResult
	rm, ok := r.rooms[roomId]
	if !ok {
		rm = domain.NewRoom(roomId)
		r.rooms[roomId] = rm
		result.IsRoomCreated = true
	}

	isNew, err := rm.AddMember(memberId)
	if err != nil {
		return room.JoinResult{}, fmt.Errorf("failed to add member: %w", err)
	}
	result.IsNewMember = isNew

	joined, ok := r.memberRooms[memberId]
	if !ok {
		joined = make(map[string]struct{})
		r.memberRooms[memberId] = joined
	}
	joined[roomId] = struct{}{}

	slog.Debug(funcName, "result", result)
	return result, nil
}

// Leave removes memberId from roomId and deletes the room once it is empty.
func (r *repo) Leave(roomId, memberId string) (room.LeaveResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.leave(roomId, memberId)
}

// LeaveAll removes memberId from every room it joined.
func (r *repo) LeaveAll(memberId string) []room.LeaveResult {
	funcName := "room.inmemory.LeaveAll"
	r.mu.Lock()
	defer r.mu.Unlock()

	slog.Debug(funcName, "member_id", memberId)
	roomIds := maps.Keys(r.memberRooms[memberId])
	slices.Sort(roomIds)

	results := make([]room.LeaveResult, 0, len(roomIds))
	for _, roomId := range roomIds {
		result, err := r.leave(roomId, memberId)
		if err != nil {
			slog.Info(funcName, "room_id", roomId, "error", err)
			continue
		}
		results = append(results, result)
	}
	delete(r.memberRooms, memberId)

	return results
}

func (r *repo) leave(roomId, memberId string) (room.LeaveResult, error) {
	funcName := "room.inmemory.leave"
	slog.Debug(funcName, "room_id", roomId, "member_id", memberId)

	if joined, ok := r.memberRooms[memberId]; ok {
		delete(joined, roomId)
		if len(joined) == 0 {
			delete(r.memberRooms, memberId)
		}
	}

	rm, ok := r.rooms[roomId]
	if !ok {
		return room.LeaveResult{}, room.ErrRoomNotFound
	}

	isEmpty, err := rm.RemoveMember(memberId)
	if err != nil {
		if errors.Is(err, domain.ErrMemberNotFound) {
			return room.LeaveResult{}, room.ErrMemberNotFound
		}

		return room.LeaveResult{}, fmt.Errorf("failed to remove member: %w", err)
	}

	if isEmpty {
		delete(r.rooms, roomId)
		slog.Debug(funcName, "result", "room deleted")
	}

	return room.LeaveResult{RoomId: roomId, IsRoomDeleted: isEmpty}, nil
}

func (r *repo) GetRoom(roomId string) (*domain.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rm, ok := r.rooms[roomId]
	if !ok {
		return nil, room.ErrRoomNotFound
	}

	return rm, nil
}

func (r *repo) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.rooms)
}
