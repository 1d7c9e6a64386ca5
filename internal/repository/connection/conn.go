package connection

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Conn serializes writes to a websocket. Fan-out writes to one member can
// come from any handler goroutine, while reads stay with the serving goroutine.
type Conn struct {
	ws           *websocket.Conn
	mu           sync.Mutex
	writeTimeout time.Duration
}

func NewConn(ws *websocket.Conn, writeTimeout time.Duration) *Conn {
	return &Conn{ws: ws, writeTimeout: writeTimeout}
}

func (c *Conn) ReadMessage() (int, []byte, error) {
	return c.ws.ReadMessage()
}

func (c *Conn) WriteJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.writeTimeout > 0 {
		if err := c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
			return err
		}
	}

	return c.ws.WriteJSON(v)
}

func (c *Conn) WritePing() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(c.writeTimeout))
}

// KeepAlive extends the read deadline on every pong. Must be called before reads start.
func (c *Conn) KeepAlive(pongWait time.Duration, readLimit int64) error {
	c.ws.SetReadLimit(readLimit)
	if err := c.ws.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		return err
	}
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	return nil
}

func (c *Conn) Close() error {
	return c.ws.Close()
}
