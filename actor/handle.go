package actor

import (
	"context"
	"errors"
	"time"

	"github.com/Polqt/siphonophore/hook"
)

// ErrActorStopped is returned by the request/reply calls (ConnectClient,
// PersistNow) when the target Document has already stopped. Fire-and-forget
// sends return nothing and drop the message instead.
var ErrActorStopped = errors.New("actor: stopped")

// DocumentHandle is the external, copyable reference to a running Document
// actor. Every interaction goes through its mailbox; nothing about the
// Document's internal state is ever shared directly.
type DocumentHandle struct {
	ID      DocID
	mailbox chan any
	done    chan struct{}
}

func newDocumentHandle(id DocID, capacity int) *DocumentHandle {
	return &DocumentHandle{
		ID:      id,
		mailbox: make(chan any, capacity),
		done:    make(chan struct{}),
	}
}

// tell is fire-and-forget: it drops the message if the actor has already
// stopped rather than blocking forever.
func (h *DocumentHandle) tell(msg any) {
	select {
	case h.mailbox <- msg:
	case <-h.done:
	}
}

// ConnectClient registers client as a subscriber and returns the initial
// sync payload sequence to deliver to it.
func (h *DocumentHandle) ConnectClient(ctx context.Context, client *ClientHandle, hctx hook.Context) ([][]byte, error) {
	reply := make(chan [][]byte, 1)
	h.tell(connectClientMsg{client: client, ctx: hctx, reply: reply})
	select {
	case payloads := <-reply:
		return payloads, nil
	case <-h.done:
		return nil, ErrActorStopped
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// SendUpdate delivers one classified Yjs payload from clientID.
func (h *DocumentHandle) SendUpdate(clientID ClientID, payload []byte) {
	h.tell(yjsDataMsg{clientID: clientID, payload: payload})
}

// Disconnect removes clientID as a subscriber.
func (h *DocumentHandle) Disconnect(clientID ClientID) {
	h.tell(disconnectClientMsg{clientID: clientID})
}

// PersistNow forces an immediate persistence attempt and waits for it to
// settle (success or failure both unblock the caller).
func (h *DocumentHandle) PersistNow(ctx context.Context) error {
	reply := make(chan struct{})
	h.tell(persistNowMsg{reply: reply})
	select {
	case <-reply:
		return nil
	case <-h.done:
		return ErrActorStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ApplyServerUpdate injects an externally-sourced update, as a hook or an
// administrative caller might.
func (h *DocumentHandle) ApplyServerUpdate(update []byte) {
	h.tell(applyServerUpdateMsg{update: update})
}

// ClientHandle is the external reference to a running Client actor, held
// by Document so it can push outbound frames without knowing anything
// about sockets.
type ClientHandle struct {
	ID      ClientID
	mailbox chan any
	done    chan struct{}
}

func newClientHandle(id ClientID, capacity int) *ClientHandle {
	return &ClientHandle{
		ID:      id,
		mailbox: make(chan any, capacity),
		done:    make(chan struct{}),
	}
}

// Deliver pushes an already wire-framed payload to the client, timing out
// rather than blocking the caller forever on a stalled peer.
func (h *ClientHandle) Deliver(timeout time.Duration, data []byte) bool {
	select {
	case h.mailbox <- wirePayloadMsg{data: data}:
		return true
	case <-h.done:
		return false
	case <-time.After(timeout):
		return false
	}
}
