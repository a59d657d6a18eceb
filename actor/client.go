package actor

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/Polqt/siphonophore/hook"
	"github.com/Polqt/siphonophore/wire"
)

// controlMessage is the JSON shape of a text-frame control message a
// client may send alongside the binary Yjs traffic: {"action":"leave",
// "doc":"..."} or {"action":"save","doc":"..."}.
type controlMessage struct {
	Action string `json:"action"`
	Doc    string `json:"doc"`
}

// clientLifecycle tracks a Client actor's own connection state, distinct
// from any one document subscription.
type clientLifecycle int

const (
	lifecycleOpen clientLifecycle = iota
	lifecycleClosing
	lifecycleClosed
)

// client is the actor demultiplexing one network connection across many
// document subscriptions. Exactly one goroutine (run) ever calls
// conn.WriteMessage; a second goroutine (pump) only reads, forwarding
// frames back into the mailbox it shares with run.
type client struct {
	id      ClientID
	self    *ClientHandle
	conn    Conn
	root    *Root
	hooks   *hook.Chain
	log     *slog.Logger
	request hook.RequestInfo

	lifecycle clientLifecycle
	docs      map[DocID]*DocumentHandle
}

// RunClient drives one accepted connection until it closes. It blocks the
// calling goroutine for the connection's lifetime, so callers (the HTTP
// upgrade handler) should invoke it directly in the goroutine serving that
// request.
func RunClient(root *Root, hooks *hook.Chain, log *slog.Logger, conn Conn, request hook.RequestInfo, mailboxCapacity int) {
	id := NewClientID()
	c := &client{
		id:      id,
		self:    newClientHandle(id, mailboxCapacity),
		conn:    conn,
		root:    root,
		hooks:   hooks,
		log:     log.With("client_id", string(id)),
		request: request,
		docs:    make(map[DocID]*DocumentHandle),
	}
	c.run()
}

// pingInterval is how often the Client actor writes a keepalive ping; the
// transport's pong deadline is driven independently on the connection.
const pingInterval = 54 * time.Second

type pingTimerMsg struct{}

// run is the Client actor's single serialized loop: every inbound frame
// and every outbound push from a Document passes through self.mailbox.
func (c *client) run() {
	stopPump := make(chan struct{})
	go c.pump(stopPump)
	defer close(stopPump)
	defer c.teardown()

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	go func() {
		for {
			select {
			case <-ticker.C:
				select {
				case c.self.mailbox <- pingTimerMsg{}:
				case <-stopPump:
					return
				}
			case <-stopPump:
				return
			}
		}
	}()

	for c.lifecycle != lifecycleClosed {
		msg := <-c.self.mailbox
		switch m := msg.(type) {
		case inboundFrameMsg:
			c.onInboundFrame(m)
		case wirePayloadMsg:
			c.onOutboundPayload(m)
		case pingTimerMsg:
			if err := c.conn.WriteMessage(FramePing, nil); err != nil {
				c.lifecycle = lifecycleClosed
			}
		}
	}
}

// pump owns the only ReadMessage call and forwards every frame (or the
// terminal error) into the actor's own mailbox, preserving single-threaded
// handling while allowing the read to block independently of writes.
func (c *client) pump(stop chan struct{}) {
	for {
		kind, data, err := c.conn.ReadMessage()
		select {
		case c.self.mailbox <- inboundFrameMsg{kind: kind, data: data, err: err}:
		case <-stop:
			return
		}
		if err != nil {
			return
		}
	}
}

func (c *client) onInboundFrame(m inboundFrameMsg) {
	if m.err != nil {
		c.lifecycle = lifecycleClosed
		return
	}

	switch m.kind {
	case FrameBinary:
		c.onBinaryFrame(m.data)
	case FrameText:
		c.onControlFrame(m.data)
	case FramePing:
		_ = c.conn.WriteMessage(FramePong, nil)
	case FrameClose:
		c.lifecycle = lifecycleClosed
	}
}

// onBinaryFrame demultiplexes an inbound length-prefixed frame by doc id,
// establishing a subscription on first contact with that doc id and
// routing every subsequent frame straight to the Document actor.
func (c *client) onBinaryFrame(data []byte) {
	docID, payload, ok := wire.DecodeDocID(data)
	if !ok {
		return
	}

	h, ok := c.docs[docID]
	if !ok {
		var err error
		h, err = c.subscribe(docID)
		if err != nil {
			return
		}
	}
	h.SendUpdate(c.id, payload)
}

// subscribe runs the connect/authenticate handshake and registers with
// docID's Document actor, forwarding the returned sync and awareness
// payloads back out over the socket.
func (c *client) subscribe(docID DocID) (*DocumentHandle, error) {
	ctx := context.Background()

	if err := c.hooks.OnConnect(ctx, hook.OnConnectPayload{DocID: docID, ClientID: string(c.id), Request: c.request}); err != nil {
		return nil, err
	}

	hctx := hook.Context{}
	if err := c.hooks.OnAuthenticate(ctx, hook.OnAuthenticatePayload{DocID: docID, ClientID: string(c.id), Request: c.request, Ctx: &hctx}); err != nil {
		return nil, err
	}

	h := c.root.RequestDoc(docID)
	payloads, err := h.ConnectClient(ctx, c.self, hctx.Clone())
	if err != nil {
		return nil, err
	}
	if payloads == nil {
		return nil, errors.New("actor: subscription rejected")
	}

	c.docs[docID] = h
	for _, p := range payloads {
		_ = c.conn.WriteMessage(FrameBinary, p)
	}
	return h, nil
}

// onControlFrame handles the JSON leave/save control protocol, sent as a
// text frame alongside the binary Yjs traffic.
func (c *client) onControlFrame(data []byte) {
	var msg controlMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}

	h, ok := c.docs[msg.Doc]
	if !ok {
		return
	}

	switch msg.Action {
	case "leave":
		h.Disconnect(c.id)
		delete(c.docs, msg.Doc)
	case "save":
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = h.PersistNow(ctx)
	}
}

// onOutboundPayload writes a Document-originated payload back to the
// socket. Documents frame their own doc id onto every payload before
// delivering it, so the Client has nothing left to do but write the
// bytes.
func (c *client) onOutboundPayload(m wirePayloadMsg) {
	_ = c.conn.WriteMessage(FrameBinary, m.data)
}

func (c *client) teardown() {
	c.lifecycle = lifecycleClosed
	for docID, h := range c.docs {
		h.Disconnect(c.id)
		delete(c.docs, docID)
	}
	_ = c.conn.Close()
}
