// Package transport adapts net/http and gorilla/websocket to the actor
// package's Conn interface, and serves the upgrade endpoint that hands
// accepted connections off to a Client actor.
package transport

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Polqt/siphonophore/actor"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1 << 20
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// wsConn adapts *websocket.Conn to actor.Conn. Every method is only ever
// called from the Client actor's own run/pump goroutines per actor.Conn's
// contract, so no locking is needed here.
type wsConn struct {
	conn *websocket.Conn
}

func newWSConn(conn *websocket.Conn) *wsConn {
	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	return &wsConn{conn: conn}
}

func (w *wsConn) ReadMessage() (actor.FrameKind, []byte, error) {
	kind, data, err := w.conn.ReadMessage()
	if err != nil {
		return actor.FrameClose, nil, err
	}
	switch kind {
	case websocket.BinaryMessage:
		return actor.FrameBinary, data, nil
	case websocket.TextMessage:
		return actor.FrameText, data, nil
	case websocket.CloseMessage:
		return actor.FrameClose, data, nil
	default:
		return actor.FrameBinary, data, nil
	}
}

func (w *wsConn) WriteMessage(kind actor.FrameKind, data []byte) error {
	w.conn.SetWriteDeadline(time.Now().Add(writeWait))
	switch kind {
	case actor.FrameText:
		return w.conn.WriteMessage(websocket.TextMessage, data)
	case actor.FramePing:
		return w.conn.WriteMessage(websocket.PingMessage, data)
	case actor.FramePong:
		return w.conn.WriteMessage(websocket.PongMessage, data)
	case actor.FrameClose:
		return w.conn.WriteMessage(websocket.CloseMessage, data)
	default:
		return w.conn.WriteMessage(websocket.BinaryMessage, data)
	}
}

func (w *wsConn) SetReadDeadline(t time.Time) error { return w.conn.SetReadDeadline(t) }
func (w *wsConn) Close() error                      { return w.conn.Close() }
func (w *wsConn) RemoteAddr() string                { return w.conn.RemoteAddr().String() }

var _ actor.Conn = (*wsConn)(nil)
