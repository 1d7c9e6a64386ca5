package room

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/sharetube/watchparty/internal/domain"
	"github.com/sharetube/watchparty/internal/repository/connection"
	"github.com/sharetube/watchparty/internal/repository/room"
)

var (
	ErrRoomNotFound     = errors.New("room not found")
	ErrMemberNotFound   = errors.New("member not found")
	ErrPlaybackNotSet   = errors.New("playback not set")
	ErrInvalidInput     = errors.New("invalid input")
	ErrSuggestionFailed = errors.New("failed to generate suggestion")
)

const (
	SuggestionSender   = "AI Assistant"
	SuggestionFallback = "I'm not sure what to suggest right now."
)

type iRoomRepo interface {
	Join(roomId, memberId string) (room.JoinResult, error)
	Leave(roomId, memberId string) (room.LeaveResult, error)
	LeaveAll(memberId string) []room.LeaveResult
	GetRoom(roomId string) (*domain.Room, error)
}

type iConnRepo interface {
	Add(conn *connection.Conn, memberId string) error
	RemoveByMemberId(memberId string) error
	GetConn(memberId string) (*connection.Conn, error)
}

type iSuggestionGenerator interface {
	Generate(ctx context.Context, roomContext, relationship string) (string, error)
}

type Config struct {
	SuggestionTimeout time.Duration
	Clock             clock.Clock
}

type service struct {
	roomRepo          iRoomRepo
	connRepo          iConnRepo
	generator         iSuggestionGenerator
	clock             clock.Clock
	suggestionTimeout time.Duration
	logger            *slog.Logger
}

// NewService wires the room state machine. generator may be nil, in which
// case suggestion requests produce nothing.
func NewService(roomRepo iRoomRepo, connRepo iConnRepo, generator iSuggestionGenerator, logger *slog.Logger, cfg *Config) *service {
	s := service{
		roomRepo:          roomRepo,
		connRepo:          connRepo,
		generator:         generator,
		clock:             cfg.Clock,
		suggestionTimeout: cfg.SuggestionTimeout,
		logger:            logger,
	}
	if s.clock == nil {
		s.clock = clock.New()
	}
	if s.suggestionTimeout <= 0 {
		s.suggestionTimeout = 15 * time.Second
	}

	return &s
}
