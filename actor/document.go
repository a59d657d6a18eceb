package actor

import (
	"context"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/Polqt/siphonophore/config"
	"github.com/Polqt/siphonophore/crdt"
	"github.com/Polqt/siphonophore/hook"
	"github.com/Polqt/siphonophore/wire"
)

// persistStatus tracks where a Document sits in the debounce/backoff cycle
// that gates persistence.
type persistStatus int

const (
	statusClean persistStatus = iota
	statusDirty
	statusPersisting
)

// subscriber is one connected client's view into a Document, plus the
// HookContext its subscription was authenticated under.
type subscriber struct {
	client   *ClientHandle
	ctx      hook.Context
	joinedAt time.Time
}

// document is the actor backing one collaboration target. All of its
// fields are owned exclusively by run's goroutine; nothing here is
// accessed concurrently.
type document struct {
	id    DocID
	self  *DocumentHandle
	root  *Root
	cfg   config.Config
	hooks *hook.Chain
	log   *slog.Logger

	state     *crdt.State
	awareness *crdt.Awareness
	subs      map[ClientID]*subscriber

	status      persistStatus
	dirtySince  time.Time
	persistTick *time.Timer
	idleTick    *time.Timer
	backoffB    *backoff.ExponentialBackOff
	retryDelay  time.Duration
}

func newDocument(id DocID, self *DocumentHandle, root *Root, cfg config.Config, hooks *hook.Chain, log *slog.Logger) *document {
	b := backoff.NewExponentialBackOff()
	b.MaxInterval = cfg.PersistMaxBackoff
	return &document{
		id:        id,
		self:      self,
		root:      root,
		cfg:       cfg,
		hooks:     hooks,
		log:       log,
		state:     crdt.NewState(),
		awareness: crdt.NewAwareness(),
		subs:      make(map[ClientID]*subscriber),
		backoffB:  b,
	}
}

// run is the Document actor's entire lifetime: load, serve its mailbox
// forever, and on the way out report itself stopped to Root. A Document
// only ever stops by idle eviction (onIdleTimerFired), never by external
// Tell.
func (d *document) run() {
	ctx := context.Background()

	blob := d.hooks.OnLoadDocument(ctx, hook.OnLoadDocumentPayload{DocID: d.id})
	if err := d.state.LoadFromBlob(blob); err != nil {
		d.hooks.OnError(hook.OnErrorPayload{DocID: d.id, Err: err})
	}
	d.hooks.AfterLoadDocument(ctx, hook.AfterLoadDocumentPayload{DocID: d.id, State: blob})

	d.armIdleTimer()
	defer d.idleTick.Stop()

	for {
		select {
		case msg := <-d.self.mailbox:
			if d.handle(ctx, msg) {
				d.root.documentStopped(d.id, d.self)
				close(d.self.done)
				return
			}
		}
	}
}

// handle processes one mailbox message. It returns true when the Document
// should stop (idle eviction ran to completion).
func (d *document) handle(ctx context.Context, msg any) bool {
	switch m := msg.(type) {
	case connectClientMsg:
		d.onConnectClient(ctx, m)
	case yjsDataMsg:
		d.onYjsData(ctx, m)
	case disconnectClientMsg:
		d.onDisconnectClient(ctx, m, false)
	case persistNowMsg:
		d.onPersistNow(ctx, m)
	case applyServerUpdateMsg:
		d.onApplyServerUpdate(ctx, m)
	case persistTimerFiredMsg:
		d.onPersistTimerFired(ctx)
	case persistAttemptDoneMsg:
		d.onPersistAttemptDone(ctx, m)
	case idleTimerFiredMsg:
		return d.onIdleTimerFired(ctx)
	}
	return false
}

// onConnectClient admits a new subscriber and replies with the payload
// sequence the Client should forward to its socket: the full sync state
// followed by the current awareness snapshot.
func (d *document) onConnectClient(ctx context.Context, m connectClientMsg) {
	if err := d.hooks.OnConnect(ctx, hook.OnConnectPayload{DocID: d.id, ClientID: string(m.client.ID)}); err != nil {
		m.reply <- nil
		return
	}

	d.subs[m.client.ID] = &subscriber{client: m.client, ctx: m.ctx, joinedAt: time.Now()}
	d.cancelIdleTimer()

	payloads := [][]byte{
		wire.EncodeWithDocID(d.id, d.state.EncodeFullState()),
		wire.EncodeWithDocID(d.id, d.awareness.Snapshot()),
	}
	m.reply <- payloads
}

// onYjsData classifies and integrates an inbound payload, then broadcasts
// the effect to every other subscriber.
func (d *document) onYjsData(ctx context.Context, m yjsDataMsg) {
	msgType, ok := crdt.ClassifyPayload(m.payload)
	if !ok {
		return
	}

	nodeID := string(m.clientID)

	switch msgType {
	case crdt.MsgSync:
		result, err := d.state.ApplyUpdate(m.payload, nodeID)
		if err != nil {
			d.hooks.OnError(hook.OnErrorPayload{DocID: d.id, Err: err})
			return
		}
		if result.Reply != nil {
			if sub, ok := d.subs[m.clientID]; ok {
				sub.client.Deliver(d.cfg.SubscriberSendTimeout, wire.EncodeWithDocID(d.id, result.Reply))
			}
		}
		if result.Changed {
			d.markDirty()
			d.hooks.OnChange(ctx, hook.OnChangePayload{DocID: d.id, ClientID: nodeID, Update: m.payload})
			d.broadcast(m.clientID, m.payload)
		}

	case crdt.MsgAwareness:
		added, updated, removed, err := d.awareness.ApplyUpdate(m.payload, nodeID)
		if err != nil {
			d.hooks.OnError(hook.OnErrorPayload{DocID: d.id, Err: err})
			return
		}
		if len(added)+len(updated)+len(removed) > 0 {
			d.hooks.OnAwarenessUpdate(ctx, hook.OnAwarenessUpdatePayload{DocID: d.id, Added: added, Updated: updated, Removed: removed})
			d.broadcast(m.clientID, m.payload)
		}
	}
}

// onApplyServerUpdate integrates an update that did not originate from a
// subscriber connection (e.g. an administrative or hook-driven mutation)
// and broadcasts it to every current subscriber.
func (d *document) onApplyServerUpdate(ctx context.Context, m applyServerUpdateMsg) {
	result, err := d.state.ApplyUpdate(m.update, "server")
	if err != nil {
		d.hooks.OnError(hook.OnErrorPayload{DocID: d.id, Err: err})
		return
	}
	if result.Changed {
		d.markDirty()
		d.hooks.OnChange(ctx, hook.OnChangePayload{DocID: d.id, ClientID: "server", Update: m.update})
		d.broadcast("", m.update)
	}
}

// broadcast fans payload out to every subscriber except excludeID (no
// self-echo).
func (d *document) broadcast(excludeID ClientID, payload []byte) {
	framed := wire.EncodeWithDocID(d.id, payload)
	for id, sub := range d.subs {
		if id == excludeID {
			continue
		}
		if !sub.client.Deliver(d.cfg.SubscriberSendTimeout, framed) {
			d.onDisconnectClient(context.Background(), disconnectClientMsg{clientID: id}, true)
		}
	}
}

// onDisconnectClient removes a subscriber, purges its awareness entry, and
// announces the removal. linkDead distinguishes a stalled/broken
// connection from a graceful leave, though both take the same path.
func (d *document) onDisconnectClient(ctx context.Context, m disconnectClientMsg, linkDead bool) {
	if _, ok := d.subs[m.clientID]; !ok {
		return
	}
	delete(d.subs, m.clientID)

	if d.awareness.Drop(string(m.clientID)) {
		d.hooks.OnAwarenessUpdate(ctx, hook.OnAwarenessUpdatePayload{DocID: d.id, Removed: []string{string(m.clientID)}})
		d.broadcast(m.clientID, crdt.RemovalMessage(string(m.clientID)))
	}

	if len(d.subs) == 0 {
		d.armIdleTimer()
	}
}

// markDirty flips the Document into the Dirty status and (re)arms the
// debounce timer so it fires PersistDebounce after the most recent
// update, collapsing a burst of edits into a single persist attempt
// fired once the burst goes quiet rather than once after the first
// edit in it.
func (d *document) markDirty() {
	if d.status == statusPersisting {
		d.status = statusDirty
		return
	}
	d.status = statusDirty
	d.dirtySince = time.Now()
	if d.persistTick != nil {
		d.persistTick.Stop()
	}
	d.persistTick = time.AfterFunc(d.cfg.PersistDebounce, func() {
		d.self.tell(persistTimerFiredMsg{})
	})
}

// onPersistTimerFired begins a persistence attempt if the document is
// still dirty (a PersistNow may have already cleared it).
func (d *document) onPersistTimerFired(ctx context.Context) {
	if d.status != statusDirty {
		return
	}
	d.beginPersist(ctx, nil)
}

// onPersistNow forces an immediate attempt regardless of debounce state,
// replying once the attempt (not necessarily a success) settles.
func (d *document) onPersistNow(ctx context.Context, m persistNowMsg) {
	if d.persistTick != nil {
		d.persistTick.Stop()
	}
	if d.status == statusClean {
		close(m.reply)
		return
	}
	d.beginPersist(ctx, m.reply)
}

// beginPersist snapshots the current state synchronously (the Document's
// own data, safe to read in its own goroutine) then runs the
// before_close_dirty hook on a background goroutine so a slow persistence
// backend cannot stall the mailbox; the outcome re-enters the mailbox as
// persistAttemptDoneMsg.
func (d *document) beginPersist(ctx context.Context, notify chan struct{}) {
	d.status = statusPersisting
	blob := d.state.EncodeBlob()
	revision := d.state.Revision()

	go func() {
		err := d.hooks.BeforeCloseDirty(ctx, hook.BeforeCloseDirtyPayload{DocID: d.id, State: blob})
		if notify != nil {
			defer close(notify)
		}
		d.self.tell(persistAttemptDoneMsg{succeeded: err == nil, blobRevision: revision})
		if err != nil {
			d.hooks.OnError(hook.OnErrorPayload{DocID: d.id, Err: err})
		}
	}()
}

// onPersistAttemptDone reconciles the outcome of a background persistence
// attempt, scheduling a backoff retry on failure or clearing Dirty status
// on success (unless new writes arrived meanwhile, in which case it stays
// Dirty and the debounce timer restarts).
func (d *document) onPersistAttemptDone(ctx context.Context, m persistAttemptDoneMsg) {
	if !m.succeeded {
		d.retryDelay = d.nextBackoff()
		d.status = statusDirty
		d.persistTick = time.AfterFunc(d.retryDelay, func() {
			d.self.tell(persistTimerFiredMsg{})
		})
		return
	}

	d.backoffB.Reset()
	d.retryDelay = 0

	if int64(m.blobRevision) == d.state.Revision() {
		d.status = statusClean
		if len(d.subs) == 0 {
			d.armIdleTimer()
		}
	} else {
		// More writes landed while persisting: still dirty, restart debounce.
		d.status = statusClean
		d.markDirty()
	}
}

func (d *document) nextBackoff() time.Duration {
	next := d.backoffB.NextBackOff()
	if next == backoff.Stop {
		return d.cfg.PersistMaxBackoff
	}
	return next
}

// armIdleTimer (re)starts the idle-eviction countdown. Only meaningful
// with zero subscribers; called defensively elsewhere too.
func (d *document) armIdleTimer() {
	d.cancelIdleTimer()
	d.idleTick = time.AfterFunc(d.cfg.IdleTimeout, func() {
		d.self.tell(idleTimerFiredMsg{})
	})
}

func (d *document) cancelIdleTimer() {
	if d.idleTick != nil {
		d.idleTick.Stop()
	}
}

// onIdleTimerFired attempts eviction: any subscriber arriving since arming
// cancels it, any before_unload_document veto cancels it, and a Dirty
// document is persisted first. Returns true when the Document should stop.
func (d *document) onIdleTimerFired(ctx context.Context) bool {
	if len(d.subs) > 0 {
		return false
	}

	if err := d.hooks.BeforeUnloadDocument(ctx, hook.BeforeUnloadDocumentPayload{DocID: d.id}); err != nil {
		d.armIdleTimer()
		return false
	}

	if d.status == statusDirty {
		if d.persistTick != nil {
			d.persistTick.Stop()
		}
		blob := d.state.EncodeBlob()
		if err := d.hooks.BeforeCloseDirty(ctx, hook.BeforeCloseDirtyPayload{DocID: d.id, State: blob}); err != nil {
			d.hooks.OnError(hook.OnErrorPayload{DocID: d.id, Err: err})
			d.armIdleTimer()
			return false
		}
		d.status = statusClean
	}

	d.hooks.AfterUnloadDocument(hook.AfterUnloadDocumentPayload{DocID: d.id})
	return true
}
