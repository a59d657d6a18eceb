package actor

import (
	"io"
	"sync"
	"time"
)

// fakeConn is an in-memory actor.Conn for exercising the Client actor
// without a real socket. Inbound frames are fed via push; outbound frames
// written by the Client land on written for assertions.
type fakeConn struct {
	mu      sync.Mutex
	inbound chan fakeFrame
	written chan fakeFrame
	closed  bool
}

type fakeFrame struct {
	kind FrameKind
	data []byte
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		inbound: make(chan fakeFrame, 32),
		written: make(chan fakeFrame, 32),
	}
}

func (c *fakeConn) push(kind FrameKind, data []byte) {
	c.inbound <- fakeFrame{kind: kind, data: data}
}

func (c *fakeConn) ReadMessage() (FrameKind, []byte, error) {
	f, ok := <-c.inbound
	if !ok {
		return FrameClose, nil, io.EOF
	}
	return f.kind, f.data, nil
}

func (c *fakeConn) WriteMessage(kind FrameKind, data []byte) error {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return io.ErrClosedPipe
	}
	select {
	case c.written <- fakeFrame{kind: kind, data: append([]byte(nil), data...)}:
	default:
	}
	return nil
}

func (c *fakeConn) SetReadDeadline(time.Time) error { return nil }

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.inbound)
	}
	return nil
}

func (c *fakeConn) RemoteAddr() string { return "fake" }

var _ Conn = (*fakeConn)(nil)
