package syncclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sharetube/watchparty/internal/domain"
	"github.com/sharetube/watchparty/internal/proto"
)

var ErrClosed = errors.New("client closed")

// Handler receives server events for the joined room.
type Handler interface {
	OnRemotePlay(position float64)
	OnRemotePause(position float64)
	OnRemoteSeek(position float64)
	OnSyncState(position float64, isPlaying bool)
}

// ChatHandler is optionally implemented by a Handler to receive chat and suggestions.
type ChatHandler interface {
	OnChatMessage(msg domain.ChatMessage)
}

// Client is one websocket session bound to a single room.
type Client struct {
	conn     *websocket.Conn
	roomId   string
	memberId string
	logger   *slog.Logger

	mu     sync.Mutex
	closed bool
}

// Dial connects to url and waits for the server greeting.
func Dial(ctx context.Context, url, roomId string, logger *slog.Logger) (*Client, error) {
	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: 10 * time.Second,
	}

	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to dial: %w", err)
	}

	var greeting proto.Inbound
	if err := conn.ReadJSON(&greeting); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to read greeting: %w", err)
	}
	if greeting.Type != proto.TypeConnected {
		conn.Close()
		return nil, fmt.Errorf("unexpected greeting %q", greeting.Type)
	}

	var connected proto.Connected
	if err := json.Unmarshal(greeting.Payload, &connected); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to decode greeting: %w", err)
	}

	return &Client{
		conn:     conn,
		roomId:   roomId,
		memberId: connected.MemberId,
		logger:   logger.With("room_id", roomId, "member_id", connected.MemberId),
	}, nil
}

func (c *Client) MemberId() string {
	return c.memberId
}

func (c *Client) send(messageType string, payload any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}

	if err := c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second)); err != nil {
		return err
	}

	return c.conn.WriteJSON(&proto.Output{Type: messageType, Payload: payload})
}

func (c *Client) playback(position float64) proto.PlaybackInput {
	return proto.PlaybackInput{RoomId: c.roomId, CurrentTime: position}
}

func (c *Client) Join() error {
	return c.send(proto.TypeJoinRoom, proto.RoomRef{RoomId: c.roomId})
}

func (c *Client) Leave() error {
	return c.send(proto.TypeLeaveRoom, proto.RoomRef{RoomId: c.roomId})
}

func (c *Client) Play(position float64) error {
	return c.send(proto.TypePlay, c.playback(position))
}

func (c *Client) Pause(position float64) error {
	return c.send(proto.TypePause, c.playback(position))
}

func (c *Client) Seek(position float64) error {
	return c.send(proto.TypeSeek, c.playback(position))
}

func (c *Client) SyncTime(position float64) error {
	return c.send(proto.TypeSyncTime, c.playback(position))
}

func (c *Client) RequestSync() error {
	return c.send(proto.TypeRequestSync, proto.RoomRef{RoomId: c.roomId})
}

func (c *Client) UpdateMovieContext(context string) error {
	return c.send(proto.TypeUpdateMovieContext, proto.MovieContextInput{RoomId: c.roomId, Context: context})
}

func (c *Client) SendChat(sender, content string) error {
	return c.send(proto.TypeChatMessage, proto.ChatMessageInput{
		RoomId:  c.roomId,
		Message: domain.ChatMessage{Sender: sender, Content: content},
	})
}

func (c *Client) RequestSuggestion(username, relationship string) error {
	return c.send(proto.TypeRequestAiSuggestion, proto.AiSuggestionInput{
		RoomId:       c.roomId,
		Username:     username,
		Relationship: relationship,
	})
}

// Listen dispatches server events to h until the connection fails or ctx is done.
func (c *Client) Listen(ctx context.Context, h Handler) error {
	stop := context.AfterFunc(ctx, func() {
		c.Close()
	})
	defer stop()

	for {
		var msg proto.Inbound
		if err := c.conn.ReadJSON(&msg); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}

			return fmt.Errorf("failed to read: %w", err)
		}

		if err := c.dispatch(msg, h); err != nil {
			c.logger.Warn("failed to handle event", "type", msg.Type, "error", err)
		}
	}
}

func (c *Client) dispatch(msg proto.Inbound, h Handler) error {
	switch msg.Type {
	case proto.TypePlay, proto.TypePause, proto.TypeSeek:
		var position float64
		if err := json.Unmarshal(msg.Payload, &position); err != nil {
			return err
		}
		switch msg.Type {
		case proto.TypePlay:
			h.OnRemotePlay(position)
		case proto.TypePause:
			h.OnRemotePause(position)
		default:
			h.OnRemoteSeek(position)
		}
	case proto.TypeSyncState:
		var state proto.SyncState
		if err := json.Unmarshal(msg.Payload, &state); err != nil {
			return err
		}
		h.OnSyncState(state.CurrentTime, state.IsPlaying)
	case proto.TypeChatMessage, proto.TypeAiSuggestion:
		ch, ok := h.(ChatHandler)
		if !ok {
			return nil
		}
		var chat domain.ChatMessage
		if err := json.Unmarshal(msg.Payload, &chat); err != nil {
			return err
		}
		ch.OnChatMessage(chat)
	case proto.TypeError:
		var e proto.Error
		if err := json.Unmarshal(msg.Payload, &e); err != nil {
			return err
		}
		c.logger.Warn("server error", "message", e.Message)
	default:
		c.logger.Debug("ignoring event", "type", msg.Type)
	}

	return nil
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))

	return c.conn.Close()
}
