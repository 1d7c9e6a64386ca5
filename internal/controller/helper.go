package controller

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/sharetube/watchparty/internal/proto"
	"github.com/sharetube/watchparty/internal/repository/connection"
	"github.com/sharetube/watchparty/pkg/wsrouter"
)

var idCounter atomic.Uint64

func (c controller) generateTimeBasedId() string {
	return strconv.FormatInt(time.Now().UnixNano(), 36) + "-" + strconv.FormatUint(idCounter.Add(1), 36)
}

// broadcast writes output to every conn. A failing conn does not stop the others.
func (c controller) broadcast(ctx context.Context, conns []*connection.Conn, output *proto.Output) error {
	var errs []error
	for _, conn := range conns {
		if err := conn.WriteJSON(output); err != nil {
			c.logger.DebugContext(ctx, "failed to write to conn", "type", output.Type, "error", err)
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("failed to write to %d of %d conns: %w", len(errs), len(conns), errors.Join(errs...))
	}

	return nil
}

func (c controller) writeToConn(ctx context.Context, conn wsrouter.Conn, output *proto.Output) error {
	if err := conn.WriteJSON(output); err != nil {
		c.logger.DebugContext(ctx, "failed to write to conn", "type", output.Type, "error", err)
		return err
	}

	return nil
}

func (c controller) writeError(ctx context.Context, conn wsrouter.Conn, message string) {
	_ = c.writeToConn(ctx, conn, &proto.Output{
		Type:    proto.TypeError,
		Payload: proto.Error{Message: message},
	})
}
