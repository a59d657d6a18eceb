package actor

import "time"

// FrameKind classifies a transport-level frame the way the underlying
// WebSocket library does, without actor needing to import it.
type FrameKind int

const (
	FrameBinary FrameKind = iota
	FrameText
	FramePing
	FramePong
	FrameClose
)

// Conn is the bidirectional connection a Client actor owns. Package
// transport implements it over gorilla/websocket; tests implement it
// in-memory.
type Conn interface {
	// ReadMessage blocks for the next frame. err != nil means the
	// connection is unusable (closed, transport error, or EOF).
	ReadMessage() (kind FrameKind, data []byte, err error)
	// WriteMessage sends one frame. It is only ever called from the
	// Client's own goroutine, never concurrently.
	WriteMessage(kind FrameKind, data []byte) error
	// SetReadDeadline arms the next ReadMessage's deadline.
	SetReadDeadline(t time.Time) error
	// Close tears down the connection.
	Close() error
	// RemoteAddr identifies the peer, for logging.
	RemoteAddr() string
}
