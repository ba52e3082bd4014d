package connection

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/gorilla/websocket"

	"github.com/cory-johannsen/vno/internal/vno/protocol"
)

// WebSocketTransport carries one frame per binary websocket message.
type WebSocketTransport struct {
	// Path is the request path, e.g. "/vno".
	Path         string
	DialTimeout  time.Duration
	WriteTimeout time.Duration
	// MaxFrameSize bounds inbound messages; zero selects protocol.DefaultMaxFrameSize.
	MaxFrameSize int
}

// Dial implements Transport.
func (t *WebSocketTransport) Dial(ctx context.Context, addr string) (FrameConn, error) {
	dialer := websocket.Dialer{
		Proxy:            websocket.DefaultDialer.Proxy,
		HandshakeTimeout: t.DialTimeout,
	}
	u := url.URL{Scheme: "ws", Host: addr, Path: t.Path}

	conn, resp, err := dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("websocket handshake with %s: %s: %w", u.String(), resp.Status, err)
		}
		return nil, fmt.Errorf("websocket dial %s: %w", u.String(), err)
	}

	maxSize := t.MaxFrameSize
	if maxSize <= 0 {
		maxSize = protocol.DefaultMaxFrameSize
	}
	conn.SetReadLimit(int64(maxSize))
	return &wsConn{conn: conn, writeTimeout: t.WriteTimeout}, nil
}

type wsConn struct {
	conn         *websocket.Conn
	writeTimeout time.Duration
}

func (c *wsConn) ReadFrame() (protocol.Frame, error) {
	mt, data, err := c.conn.ReadMessage()
	if err != nil {
		if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
			return protocol.Frame{}, io.EOF
		}
		return protocol.Frame{}, err
	}
	if mt != websocket.BinaryMessage {
		return protocol.Frame{}, fmt.Errorf("unexpected websocket message type %d: %w", mt, protocol.ErrFieldType)
	}
	return protocol.Unmarshal(data)
}

func (c *wsConn) WriteFrame(f protocol.Frame) error {
	data, err := protocol.Marshal(f)
	if err != nil {
		return err
	}
	if err := c.conn.SetWriteDeadline(writeDeadline(c.writeTimeout)); err != nil {
		return err
	}
	return c.conn.WriteMessage(websocket.BinaryMessage, data)
}

// Close sends a close control frame and then closes the socket. WriteControl
// is safe alongside the writer goroutine.
func (c *wsConn) Close() error {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	return c.conn.Close()
}
