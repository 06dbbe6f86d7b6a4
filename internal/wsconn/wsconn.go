// Package wsconn adapts nhooyr.io/websocket to the minimal connection
// interface the bridge facade needs for accepted browser connections.
package wsconn

import (
	"context"

	"nhooyr.io/websocket"
)

// Conn is the minimal subset of a WebSocket connection the bridge
// facade needs: read one text/binary message, write one, close.
type Conn interface {
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, data []byte) error
	Close(code websocket.StatusCode, reason string) error
}

// nhooyrConn wraps a *websocket.Conn, always writing text frames since
// every message this bridge sends is JSON; Read accepts either a text
// or a binary message.
type nhooyrConn struct {
	c *websocket.Conn
}

// Wrap adapts conn to Conn.
func Wrap(conn *websocket.Conn) Conn {
	return &nhooyrConn{c: conn}
}

func (w *nhooyrConn) Read(ctx context.Context) ([]byte, error) {
	_, data, err := w.c.Read(ctx)
	return data, err
}

func (w *nhooyrConn) Write(ctx context.Context, data []byte) error {
	return w.c.Write(ctx, websocket.MessageText, data)
}

func (w *nhooyrConn) Close(code websocket.StatusCode, reason string) error {
	return w.c.Close(code, reason)
}
