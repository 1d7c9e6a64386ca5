package controller

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sharetube/watchparty/internal/domain"
	"github.com/sharetube/watchparty/internal/search"
	"github.com/sharetube/watchparty/internal/service/room"
	"github.com/sharetube/watchparty/pkg/validator"
	"github.com/sharetube/watchparty/pkg/wsrouter"
)

type iRoomService interface {
	ConnectMember(context.Context, *room.ConnectMemberParams) error
	DisconnectMember(context.Context, *room.DisconnectMemberParams) (room.DisconnectMemberResponse, error)
	JoinRoom(context.Context, *room.JoinRoomParams) (room.JoinRoomResponse, error)
	LeaveRoom(context.Context, *room.LeaveRoomParams) (room.LeaveRoomResponse, error)
	GetRoomState(ctx context.Context, roomId string) (domain.RoomSnapshot, error)
	Play(context.Context, *room.UpdatePlaybackParams) (room.UpdatePlaybackResponse, error)
	Pause(context.Context, *room.UpdatePlaybackParams) (room.UpdatePlaybackResponse, error)
	Seek(context.Context, *room.UpdatePlaybackParams) (room.UpdatePlaybackResponse, error)
	SyncTime(context.Context, *room.UpdatePlaybackParams) (domain.PlaybackState, error)
	RequestSync(context.Context, *room.RequestSyncParams) (room.RequestSyncResponse, error)
	UpdateMovieContext(context.Context, *room.UpdateMovieContextParams) error
	SendChatMessage(context.Context, *room.SendChatMessageParams) (room.SendChatMessageResponse, error)
	RequestSuggestion(context.Context, *room.RequestSuggestionParams) (room.RequestSuggestionResponse, error)
}

type iSearchService interface {
	Search(ctx context.Context, query string, source search.Source, pageToken string) (search.Page, error)
}

type Config struct {
	PongWait     time.Duration
	WriteTimeout time.Duration
	ReadLimit    int64
}

type controller struct {
	roomService   iRoomService
	searchService iSearchService
	upgrader      websocket.Upgrader
	validate      *validator.Validator
	wsmux         *wsrouter.WSRouter
	logger        *slog.Logger
	pongWait      time.Duration
	pingPeriod    time.Duration
	writeTimeout  time.Duration
	readLimit     int64
}

func NewController(roomService iRoomService, searchService iSearchService, logger *slog.Logger, cfg *Config) *controller {
	c := controller{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		roomService:   roomService,
		searchService: searchService,
		validate:      validator.NewValidator(),
		logger:        logger,
		pongWait:      cfg.PongWait,
		writeTimeout:  cfg.WriteTimeout,
		readLimit:     cfg.ReadLimit,
	}
	if c.pongWait <= 0 {
		c.pongWait = 60 * time.Second
	}
	if c.writeTimeout <= 0 {
		c.writeTimeout = 10 * time.Second
	}
	if c.readLimit <= 0 {
		c.readLimit = 64 * 1024
	}
	c.pingPeriod = c.pongWait * 9 / 10
	c.wsmux = c.getWSRouter()

	return &c
}
