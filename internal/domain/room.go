package domain

import (
	"errors"
	"sync"
	"time"
)

var (
	ErrRoomDeleted    = errors.New("room deleted")
	ErrPlaybackNotSet = errors.New("playback not set")
	ErrMemberNotFound = errors.New("member not found")
)

// Room guards its own state. Every method takes the room lock, so a caller
// never observes a half-applied playback update.
type Room struct {
	id       string
	mu       sync.Mutex
	members  *Members
	playback *PlaybackState
	context  string
	deleted  bool
}

func NewRoom(id string) *Room {
	return &Room{
		id:      id,
		members: NewMembers(),
	}
}

func (r *Room) Id() string {
	return r.id
}

// AddMember reports whether the member was newly added.
func (r *Room) AddMember(memberId string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.deleted {
		return false, ErrRoomDeleted
	}

	return r.members.Add(memberId), nil
}

// RemoveMember removes memberId. When the room becomes empty it is marked
// deleted and isEmpty is true; the caller must drop it from its registry.
func (r *Room) RemoveMember(memberId string) (isEmpty bool, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.deleted {
		return false, ErrRoomDeleted
	}

	if !r.members.Remove(memberId) {
		return false, ErrMemberNotFound
	}

	if r.members.Length() == 0 {
		r.deleted = true
		return true, nil
	}

	return false, nil
}

func (r *Room) Members() ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.deleted {
		return nil, ErrRoomDeleted
	}

	return r.members.Ids(), nil
}

func (r *Room) IsDeleted() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.deleted
}

// SetPlayback replaces the whole playback state and returns the members at
// the moment of the update.
func (r *Room) SetPlayback(position float64, isPlaying bool, now time.Time) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.deleted {
		return nil, ErrRoomDeleted
	}

	r.playback = &PlaybackState{
		Position:   position,
		IsPlaying:  isPlaying,
		LastUpdate: now,
	}

	return r.members.Ids(), nil
}

// UpdatePosition moves an existing playback state to position, keeping isPlaying.
func (r *Room) UpdatePosition(position float64, now time.Time) (PlaybackState, []string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.deleted {
		return PlaybackState{}, nil, ErrRoomDeleted
	}

	if r.playback == nil {
		return PlaybackState{}, nil, ErrPlaybackNotSet
	}

	r.playback.Position = position
	r.playback.LastUpdate = now

	return *r.playback, r.members.Ids(), nil
}

// Playback returns a copy of the stored state, or ErrPlaybackNotSet.
func (r *Room) Playback() (PlaybackState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.deleted {
		return PlaybackState{}, ErrRoomDeleted
	}

	if r.playback == nil {
		return PlaybackState{}, ErrPlaybackNotSet
	}

	return *r.playback, nil
}

func (r *Room) SetContext(context string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.deleted {
		return nil, ErrRoomDeleted
	}

	r.context = context

	return r.members.Ids(), nil
}

func (r *Room) Context() (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.deleted {
		return "", ErrRoomDeleted
	}

	return r.context, nil
}

type RoomSnapshot struct {
	Id       string         `json:"id"`
	Members  []string       `json:"members"`
	Context  string         `json:"context"`
	Playback *PlaybackState `json:"playback"`
}

// Snapshot copies the room with playback projected to now.
func (r *Room) Snapshot(now time.Time) (RoomSnapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.deleted {
		return RoomSnapshot{}, ErrRoomDeleted
	}

	snapshot := RoomSnapshot{
		Id:      r.id,
		Members: r.members.Ids(),
		Context: r.context,
	}
	if r.playback != nil {
		projected := r.playback.Projected(now)
		snapshot.Playback = &projected
	}

	return snapshot, nil
}
