package crdt

import (
	"encoding/json"
	"fmt"
)

// Wire-level message classification, first byte of every sync/awareness
// payload: classified only by its leading protocol byte.
const (
	MsgSync      byte = 0
	MsgAwareness byte = 1
)

// Sync sub-steps, second byte of a MsgSync payload. Mirrors the
// y-websocket convention (sync-step-1 query, sync-step-2 full reply,
// update) that the retrieved collaboration backends use verbatim.
const (
	SyncStep1  byte = 0 // request full state
	SyncStep2  byte = 1 // full-state reply
	SyncUpdate byte = 2 // an integrated operation
)

// ClassifyPayload inspects the leading protocol byte of a Yjs-style payload
// and reports whether it is a sync message, an awareness message, or
// unrecognized.
func ClassifyPayload(payload []byte) (msgType byte, ok bool) {
	if len(payload) == 0 {
		return 0, false
	}
	switch payload[0] {
	case MsgSync, MsgAwareness:
		return payload[0], true
	default:
		return 0, false
	}
}

// snapshot is the on-disk / on-wire representation of a Document's full
// CRDT state: opaque bytes to everything outside this package.
type snapshot struct {
	Nodes       []RGANode        `json:"nodes"`
	CounterPos  map[string]int64 `json:"counter_pos"`
	CounterNeg  map[string]int64 `json:"counter_neg"`
	Clock       VClock           `json:"clock"`
}

// State is the opaque CRDT byte-blob a Document owns. It composes the
// RGA text CRDT, a revision PNCounter, and a VClock used to tag
// integrated updates for causal observability.
type State struct {
	text    *RGA
	counter *PNCounter
	clock   VClock
}

// NewState creates an empty Document state.
func NewState() *State {
	return &State{
		text:    NewRGA(),
		counter: NewPNCounter(),
		clock:   VClock{},
	}
}

// LoadFromBlob replaces the state's contents with a previously persisted
// blob. An empty blob leaves the state empty (a brand new document).
func (s *State) LoadFromBlob(blob []byte) error {
	if len(blob) == 0 {
		return nil
	}
	var snap snapshot
	if err := json.Unmarshal(blob, &snap); err != nil {
		return fmt.Errorf("crdt: load snapshot: %w", err)
	}
	s.text.LoadSnapshot(snap.Nodes)
	s.counter.Restore(snap.CounterPos, snap.CounterNeg)
	if snap.Clock != nil {
		s.clock = snap.Clock
	}
	return nil
}

// EncodeBlob serializes the full state for persistence (hook storage).
func (s *State) EncodeBlob() []byte {
	pos, neg := s.counter.Snapshot()
	snap := snapshot{
		Nodes:      s.text.Snapshot(),
		CounterPos: pos,
		CounterNeg: neg,
		Clock:      s.clock.Clone(),
	}
	data, _ := json.Marshal(snap)
	return data
}

// EncodeSyncStep1 produces a sync-step-1 message: a query for the peer's
// state. A Document never sends one itself: it sends its full state
// (EncodeFullState) to a joining client, and answers a client's
// sync-step-1 through ApplyUpdate with a sync-step-2 reply.
func EncodeSyncStep1() []byte {
	return []byte{MsgSync, SyncStep1}
}

// EncodeFullState wraps the document's current content as a sync-step-2
// (full state) reply.
func (s *State) EncodeFullState() []byte {
	body, _ := json.Marshal(s.text.Snapshot())
	out := make([]byte, 0, 2+len(body))
	out = append(out, MsgSync, SyncStep2)
	out = append(out, body...)
	return out
}

// ApplyResult describes the effect of integrating a sync payload.
type ApplyResult struct {
	Changed bool   // the CRDT state was mutated
	Reply   []byte // non-nil: a message to send back only to the originating client
}

// ApplyUpdate integrates a MsgSync payload into the state. clientNodeID
// identifies the originating client for RGA op attribution and VClock
// tagging.
func (s *State) ApplyUpdate(payload []byte, clientNodeID string) (ApplyResult, error) {
	if len(payload) < 2 || payload[0] != MsgSync {
		return ApplyResult{}, fmt.Errorf("crdt: not a sync payload")
	}
	step := payload[1]
	body := payload[2:]

	switch step {
	case SyncStep1:
		// The peer is asking for our state; reply with sync-step-2.
		return ApplyResult{Changed: false, Reply: s.EncodeFullState()}, nil

	case SyncStep2:
		var nodes []RGANode
		if err := json.Unmarshal(body, &nodes); err != nil {
			return ApplyResult{}, fmt.Errorf("crdt: decode sync-step-2: %w", err)
		}
		before := s.text.Text()
		for _, n := range nodes {
			_ = s.text.Apply(n)
		}
		changed := s.text.Text() != before
		if changed {
			s.counter.Increment(clientNodeID, 1)
			s.clock = s.clock.Increment(clientNodeID)
		}
		return ApplyResult{Changed: changed}, nil

	case SyncUpdate:
		var op RGANode
		if err := json.Unmarshal(body, &op); err != nil {
			return ApplyResult{}, fmt.Errorf("crdt: decode sync update: %w", err)
		}
		before := s.text.Text()
		if err := s.text.Apply(op); err != nil {
			// Delete of a node not known here: not a hard error, no change.
			return ApplyResult{Changed: false}, nil
		}
		if s.text.Text() == before {
			// Duplicate delivery (RGA.Apply is an idempotent no-op): no change.
			return ApplyResult{Changed: false}, nil
		}
		s.counter.Increment(clientNodeID, 1)
		s.clock = s.clock.Increment(clientNodeID)
		return ApplyResult{Changed: true}, nil

	default:
		return ApplyResult{}, fmt.Errorf("crdt: unknown sync step %d", step)
	}
}

// EncodeOp wraps a single RGA operation (insert or delete) as a broadcastable
// MsgSync/SyncUpdate payload.
func EncodeOp(op RGANode) []byte {
	body, _ := json.Marshal(op)
	out := make([]byte, 0, 2+len(body))
	out = append(out, MsgSync, SyncUpdate)
	out = append(out, body...)
	return out
}

// Insert applies a local insert (e.g. from ApplyServerUpdate tooling) and
// returns the wire payload to broadcast.
func (s *State) Insert(afterID RGANodeID, char rune, nodeID string) []byte {
	op := s.text.Insert(afterID, char, nodeID)
	s.counter.Increment(nodeID, 1)
	s.clock = s.clock.Increment(nodeID)
	return EncodeOp(op)
}

// Text returns the document's current plain-text content.
func (s *State) Text() string {
	return s.text.Text()
}

// Revision returns the document's current revision number.
func (s *State) Revision() int64 {
	return s.counter.Value()
}

// Clock returns a copy of the document's current vector clock.
func (s *State) Clock() VClock {
	return s.clock.Clone()
}
