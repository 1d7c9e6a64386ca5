package wsrouter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrUnknownMessageType = errors.New("unknown message type")
	ErrInvalidPayload     = errors.New("invalid payload")
)

// Conn is the part of a websocket connection the router needs.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteJSON(v any) error
}

type message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type HandlerFunc[T any] func(ctx context.Context, conn Conn, payload T) error

type Middleware func(next HandlerFunc[any]) HandlerFunc[any]

// ErrorHandler is called with every error a handler returns, including unknown types and bad payloads.
type ErrorHandler func(ctx context.Context, conn Conn, err error)

type WSRouter struct {
	routes      map[string]HandlerFunc[json.RawMessage]
	middlewares []Middleware
	onError     ErrorHandler
}

func New() *WSRouter {
	return &WSRouter{
		routes:  make(map[string]HandlerFunc[json.RawMessage]),
		onError: func(context.Context, Conn, error) {},
	}
}

// Use registers middlewares, applied in registration order (first is outermost).
func (r *WSRouter) Use(middlewares ...Middleware) {
	r.middlewares = append(r.middlewares, middlewares...)
}

func (r *WSRouter) OnError(h ErrorHandler) {
	r.onError = h
}

// Handle registers a typed handler. The payload is decoded into T before middlewares run.
func Handle[T any](r *WSRouter, messageType string, handler HandlerFunc[T]) {
	r.routes[messageType] = func(ctx context.Context, conn Conn, raw json.RawMessage) error {
		var payload T
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &payload); err != nil {
				return fmt.Errorf("%w: %w", ErrInvalidPayload, err)
			}
		}

		var h HandlerFunc[any] = func(ctx context.Context, conn Conn, p any) error {
			return handler(ctx, conn, p.(T))
		}
		for i := len(r.middlewares) - 1; i >= 0; i-- {
			h = r.middlewares[i](h)
		}

		return h(ctx, conn, payload)
	}
}

// ServeConn reads messages until the connection fails and dispatches them by type.
// The returned error is the read error that ended the loop; a frame that is
// not a valid message is reported to the error handler and skipped.
func (r *WSRouter) ServeConn(ctx context.Context, conn Conn) error {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		var msg message
		if err := json.Unmarshal(data, &msg); err != nil {
			r.onError(ctx, conn, fmt.Errorf("%w: %w", ErrInvalidPayload, err))
			continue
		}

		msgCtx := context.WithValue(ctx, messageTypeKey, msg.Type)
		handler, ok := r.routes[msg.Type]
		if !ok {
			r.onError(msgCtx, conn, fmt.Errorf("%w: %q", ErrUnknownMessageType, msg.Type))
			continue
		}

		if err := handler(msgCtx, conn, msg.Payload); err != nil {
			r.onError(msgCtx, conn, err)
		}
	}
}
