package crdt

import (
	"encoding/json"
	"errors"
	"sync"
	"time"
)

var errNotAwareness = errors.New("crdt: not an awareness payload")

// wallClock returns the current time, isolated behind a function so tests
// can note where real-time dependence enters the awareness LWW registers.
func wallClock() time.Time {
	return time.Now()
}

// awarenessEntry holds one client's presence payload (cursor, selection,
// color, ...) as an opaque JSON blob, last-write-wins — presence is
// ephemeral and eventually purged rather than durably merged.
type awarenessEntry struct {
	reg *LWWRegister[[]byte]
}

// Awareness is the presence table a Document maintains alongside its CRDT
// text state. Membership is tracked with an OR-Set (add-wins, so a
// concurrent disconnect can't erase a fresher presence update) while each
// member's payload uses an LWW register.
type Awareness struct {
	mu      sync.RWMutex
	members *ORSet
	entries map[string]*awarenessEntry // clientID → entry
}

// NewAwareness creates an empty awareness table.
func NewAwareness() *Awareness {
	return &Awareness{
		members: NewORSet(),
		entries: make(map[string]*awarenessEntry),
	}
}

// awarenessUpdate is the wire/JSON shape of a MsgAwareness payload: one
// entry per touched client, Removed set meaning "remove".
type awarenessUpdate struct {
	ClientID string          `json:"client_id"`
	Payload  json.RawMessage `json:"payload,omitempty"`
	Removed  bool            `json:"removed,omitempty"`
}

// ApplyUpdate merges an incoming MsgAwareness payload into the table.
// Returns the sets of client IDs added, updated, and removed — used to
// drive the on_awareness_update hook.
func (a *Awareness) ApplyUpdate(payload []byte, nodeID string) (added, updated, removed []string, err error) {
	if len(payload) < 1 || payload[0] != MsgAwareness {
		return nil, nil, nil, errNotAwareness
	}

	var entries []awarenessUpdate
	if uErr := json.Unmarshal(payload[1:], &entries); uErr != nil {
		return nil, nil, nil, uErr
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	for _, e := range entries {
		if e.Removed {
			if a.members.Contains(e.ClientID) {
				a.members.Remove(e.ClientID)
				delete(a.entries, e.ClientID)
				removed = append(removed, e.ClientID)
			}
			continue
		}

		_, existed := a.entries[e.ClientID]
		if !existed {
			a.members.Add(e.ClientID, nodeID)
			a.entries[e.ClientID] = &awarenessEntry{reg: &LWWRegister[[]byte]{}}
			added = append(added, e.ClientID)
		} else {
			updated = append(updated, e.ClientID)
		}
		a.entries[e.ClientID].reg.Set([]byte(e.Payload), wallClock(), nodeID)
	}
	return added, updated, removed, nil
}

// Drop removes all awareness state for clientID, purging it on disconnect
// or link-death, returning true if the client had an entry.
func (a *Awareness) Drop(clientID string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.members.Contains(clientID) {
		return false
	}
	a.members.Remove(clientID)
	delete(a.entries, clientID)
	return true
}

// Snapshot encodes the full awareness table as a MsgAwareness payload,
// sent to a joining client alongside the sync message.
func (a *Awareness) Snapshot() []byte {
	a.mu.RLock()
	defer a.mu.RUnlock()

	entries := make([]awarenessUpdate, 0, len(a.entries))
	for _, clientID := range a.members.Values() {
		entry, ok := a.entries[clientID]
		if !ok {
			continue
		}
		payload, _ := entry.reg.Get()
		entries = append(entries, awarenessUpdate{ClientID: clientID, Payload: payload})
	}

	body, _ := json.Marshal(entries)
	out := make([]byte, 0, 1+len(body))
	out = append(out, MsgAwareness)
	out = append(out, body...)
	return out
}

// RemovalMessage encodes a MsgAwareness payload announcing that clientID's
// presence has been removed, broadcast to remaining subscribers after a
// disconnect.
func RemovalMessage(clientID string) []byte {
	body, _ := json.Marshal([]awarenessUpdate{{ClientID: clientID, Removed: true}})
	out := make([]byte, 0, 1+len(body))
	out = append(out, MsgAwareness)
	out = append(out, body...)
	return out
}
