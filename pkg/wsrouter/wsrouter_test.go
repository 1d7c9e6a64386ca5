package wsrouter

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	in      []string
	written []any
}

func (c *fakeConn) ReadMessage() (int, []byte, error) {
	if len(c.in) == 0 {
		return 0, nil, io.EOF
	}
	next := c.in[0]
	c.in = c.in[1:]

	return 1, []byte(next), nil
}

func (c *fakeConn) WriteJSON(v any) error {
	c.written = append(c.written, v)
	return nil
}

type seekInput struct {
	RoomId      string  `json:"roomId"`
	CurrentTime float64 `json:"currentTime"`
}

func TestServeConnDispatchesTypedPayload(t *testing.T) {
	r := New()

	var got seekInput
	var gotType string
	Handle(r, "seek", func(ctx context.Context, _ Conn, in seekInput) error {
		got = in
		gotType = GetMessageTypeFromCtx(ctx)
		return nil
	})

	conn := &fakeConn{in: []string{`{"type":"seek","payload":{"roomId":"r1","currentTime":42.5}}`}}
	err := r.ServeConn(context.Background(), conn)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, seekInput{RoomId: "r1", CurrentTime: 42.5}, got)
	assert.Equal(t, "seek", gotType)
}

func TestServeConnReportsErrors(t *testing.T) {
	r := New()

	var errs []error
	r.OnError(func(_ context.Context, _ Conn, err error) {
		errs = append(errs, err)
	})
	handlerErr := errors.New("boom")
	Handle(r, "play", func(context.Context, Conn, seekInput) error {
		return handlerErr
	})

	conn := &fakeConn{in: []string{
		`{"type":"nope","payload":null}`,
		`{"type":"play","payload":{"currentTime":"bad"}}`,
		`{"type":"play","payload":{"currentTime":1}}`,
		`not json`,
		`{"type":"play"`,
		``,
		`{"type":"play","payload":{"currentTime":2}}`,
	}}
	err := r.ServeConn(context.Background(), conn)
	assert.ErrorIs(t, err, io.EOF)

	require.Len(t, errs, 7)
	assert.ErrorIs(t, errs[0], ErrUnknownMessageType)
	assert.ErrorIs(t, errs[1], ErrInvalidPayload)
	assert.ErrorIs(t, errs[2], handlerErr)
	assert.ErrorIs(t, errs[3], ErrInvalidPayload)
	assert.ErrorIs(t, errs[4], ErrInvalidPayload, "truncated frame")
	assert.ErrorIs(t, errs[5], ErrInvalidPayload, "empty frame")
	assert.ErrorIs(t, errs[6], handlerErr, "loop continues after bad frames")
}

func TestMiddlewareOrder(t *testing.T) {
	r := New()

	var order []string
	mw := func(name string) Middleware {
		return func(next HandlerFunc[any]) HandlerFunc[any] {
			return func(ctx context.Context, conn Conn, payload any) error {
				order = append(order, name)
				return next(ctx, conn, payload)
			}
		}
	}
	r.Use(mw("outer"), mw("inner"))
	Handle(r, "alive", func(context.Context, Conn, struct{}) error {
		order = append(order, "handler")
		return nil
	})

	conn := &fakeConn{in: []string{`{"type":"alive"}`}}
	_ = r.ServeConn(context.Background(), conn)

	assert.Equal(t, []string{"outer", "inner", "handler"}, order)
}
