package actor

import "github.com/Polqt/siphonophore/hook"

// Messages addressed to a Document actor's mailbox.

// connectClientMsg registers a subscriber and asks for the initial sync
// payload sequence to send it.
type connectClientMsg struct {
	client *ClientHandle
	ctx    hook.Context
	reply  chan [][]byte
}

// yjsDataMsg delivers one classified Yjs payload from a subscribed client.
type yjsDataMsg struct {
	clientID ClientID
	payload  []byte
}

// disconnectClientMsg removes a subscriber, used both for an explicit
// "leave" and for link-death.
type disconnectClientMsg struct {
	clientID ClientID
}

// persistNowMsg forces an immediate persist, replying once it completes.
type persistNowMsg struct {
	reply chan struct{}
}

// applyServerUpdateMsg injects an externally-sourced update.
type applyServerUpdateMsg struct {
	update []byte
}

// persistTimerFiredMsg is the Document's own debounce timer firing.
type persistTimerFiredMsg struct{}

// persistAttemptDoneMsg reports the outcome of an in-flight persistence
// attempt back to the Document's mailbox without blocking it while the
// hook call was in flight.
type persistAttemptDoneMsg struct {
	succeeded  bool
	blobRevision int64
}

// idleTimerFiredMsg is the Document's idle eviction timer firing.
type idleTimerFiredMsg struct{}

// Messages addressed to a Client actor's mailbox.

// wirePayloadMsg is an already-framed outbound buffer from a Document,
// delivered to a Client for writing to its socket.
type wirePayloadMsg struct {
	data []byte
}

// inboundFrameMsg carries one frame read off the socket by the Client's
// read pump, re-entering the Client's own mailbox so every event —
// inbound and outbound — is serialized through one goroutine.
type inboundFrameMsg struct {
	kind FrameKind
	data []byte
	err  error
}
