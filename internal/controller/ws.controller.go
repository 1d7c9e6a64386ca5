package controller

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sharetube/watchparty/internal/proto"
	"github.com/sharetube/watchparty/internal/repository/connection"
	"github.com/sharetube/watchparty/internal/service/room"
	"github.com/sharetube/watchparty/pkg/ctxlogger"
)

// connect upgrades the request and serves the socket until it closes. The
// member leaves every room it joined when the socket goes away.
func (c controller) connect(w http.ResponseWriter, r *http.Request) {
	ws, err := c.upgrader.Upgrade(w, r, nil)
	if err != nil {
		c.logger.WarnContext(r.Context(), "failed to upgrade to websocket", "error", err)
		return
	}
	conn := connection.NewConn(ws, c.writeTimeout)
	defer conn.Close()

	memberId := uuid.NewString()
	ctx := ctxlogger.AppendCtx(r.Context(), slog.String("member_id", memberId))
	ctx = context.WithValue(ctx, memberIdCtxKey, memberId)

	if err := c.roomService.ConnectMember(ctx, &room.ConnectMemberParams{
		Conn:     conn,
		MemberId: memberId,
	}); err != nil {
		c.logger.WarnContext(ctx, "failed to connect member", "error", err)
		return
	}
	defer c.disconnect(ctx, memberId)

	if err := conn.KeepAlive(c.pongWait, c.readLimit); err != nil {
		c.logger.WarnContext(ctx, "failed to set keepalive", "error", err)
		return
	}

	if err := c.writeToConn(ctx, conn, &proto.Output{
		Type:    proto.TypeConnected,
		Payload: proto.Connected{MemberId: memberId},
	}); err != nil {
		return
	}

	pingCtx, stopPing := context.WithCancel(ctx)
	defer stopPing()
	go c.ping(pingCtx, conn)

	c.logger.InfoContext(ctx, "member connected")
	if err := c.wsmux.ServeConn(ctx, conn); err != nil {
		if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
			c.logger.InfoContext(ctx, "connection closed unexpectedly", "error", err)
		} else {
			c.logger.DebugContext(ctx, "connection closed", "error", err)
		}
	}
}

func (c controller) ping(ctx context.Context, conn *connection.Conn) {
	ticker := time.NewTicker(c.pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WritePing(); err != nil {
				c.logger.DebugContext(ctx, "failed to ping", "error", err)
				return
			}
		}
	}
}

func (c controller) disconnect(ctx context.Context, memberId string) {
	resp, err := c.roomService.DisconnectMember(ctx, &room.DisconnectMemberParams{
		MemberId: memberId,
	})
	if err != nil {
		c.logger.WarnContext(ctx, "failed to disconnect member", "error", err)
	}

	for _, left := range resp.LeftRooms {
		c.logger.InfoContext(ctx, "member left room", "room_id", left.RoomId, "is_room_deleted", left.IsRoomDeleted)
	}
	c.logger.InfoContext(ctx, "member disconnected")
}
