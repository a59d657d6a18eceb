package actor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Polqt/siphonophore/crdt"
	"github.com/Polqt/siphonophore/hook"
	"github.com/Polqt/siphonophore/wire"
)

func startTestClient(t *testing.T, r *Root) *fakeConn {
	t.Helper()
	conn := newFakeConn()
	done := make(chan struct{})
	go func() {
		RunClient(r, hook.NewChain(testLogger()), testLogger(), conn, hook.RequestInfo{}, 16)
		close(done)
	}()
	t.Cleanup(func() {
		conn.Close()
		select {
		case <-done:
		case <-time.After(time.Second):
		}
	})
	return conn
}

func expectWritten(t *testing.T, conn *fakeConn, timeout time.Duration) fakeFrame {
	t.Helper()
	select {
	case f := <-conn.written:
		return f
	case <-time.After(timeout):
		t.Fatal("timed out waiting for client to write a frame")
		return fakeFrame{}
	}
}

func TestClientSubscribeReceivesSyncAndAwareness(t *testing.T) {
	r := newTestRoot()
	conn := startTestClient(t, r)

	frame := wire.EncodeWithDocID("doc1", crdt.EncodeSyncStep1())
	conn.push(FrameBinary, frame)

	first := expectWritten(t, conn, time.Second)
	assert.Equal(t, FrameBinary, first.kind)
	docID, _, ok := wire.DecodeDocID(first.data)
	require.True(t, ok)
	assert.Equal(t, "doc1", docID)

	second := expectWritten(t, conn, time.Second)
	assert.Equal(t, FrameBinary, second.kind)
}

func TestClientRespondsToPing(t *testing.T) {
	r := newTestRoot()
	conn := startTestClient(t, r)

	conn.push(FramePing, nil)

	f := expectWritten(t, conn, time.Second)
	assert.Equal(t, FramePong, f.kind)
}

func TestClientLeaveControlMessageSparesBystander(t *testing.T) {
	r := newTestRoot()
	h := r.RequestDoc("doc1")
	conn := startTestClient(t, r)

	conn.push(FrameBinary, wire.EncodeWithDocID("doc1", crdt.EncodeSyncStep1()))
	expectWritten(t, conn, time.Second)
	expectWritten(t, conn, time.Second)

	bystander := newClientHandle(NewClientID(), 4)
	_, err := h.ConnectClient(context.Background(), bystander, hook.Context{})
	require.NoError(t, err)

	conn.push(FrameText, []byte(`{"action":"leave","doc":"doc1"}`))

	// The leaving client's awareness removal (if any) and the disconnect
	// both route through the Document's mailbox; a bystander subscribed to
	// the same doc should never see itself disconnected as a side effect.
	select {
	case <-bystander.done:
		t.Fatal("bystander should not be disconnected by another client's leave")
	case <-time.After(100 * time.Millisecond):
	}
}
