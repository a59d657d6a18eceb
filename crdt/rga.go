package crdt

import (
	"fmt"
	"sync"
)

// RGANodeID uniquely identifies an RGA node globally.
type RGANodeID struct {
	Seq    uint64 // per-node sequence number
	NodeID string // originating node
}

// IsZero reports whether id is the zero value, used as the "insert at the
// beginning" sentinel.
func (id RGANodeID) IsZero() bool {
	return id.Seq == 0 && id.NodeID == ""
}

// rgaNodeIDLess implements the total order used to resolve concurrent
// inserts at the same position: higher Seq sorts first, ties broken by
// NodeID ascending.
func rgaNodeIDLess(a, b RGANodeID) bool {
	if a.Seq != b.Seq {
		return a.Seq > b.Seq
	}
	return a.NodeID < b.NodeID
}

// RGANode is one character in the RGA linked array.
type RGANode struct {
	ID          RGANodeID
	InsertAfter RGANodeID // zero value: insert at beginning
	Char        rune
	Deleted     bool // tombstone
}

// RGA is a Replicated Growable Array for collaborative text editing.
type RGA struct {
	mu    sync.RWMutex
	nodes []RGANode         // sorted by position (invariant)
	index map[RGANodeID]int // ID → index in nodes slice
	seqNo uint64            // local sequence counter
}

// NewRGA creates an empty RGA.
func NewRGA() *RGA {
	return &RGA{index: make(map[RGANodeID]int)}
}

// insertAt inserts node at position idx and fixes up the index map. Caller
// must hold the lock.
func (r *RGA) insertAt(idx int, node RGANode) {
	r.nodes = append(r.nodes, RGANode{})
	copy(r.nodes[idx+1:], r.nodes[idx:])
	r.nodes[idx] = node
	for id, i := range r.index {
		if i >= idx {
			r.index[id] = i + 1
		}
	}
	r.index[node.ID] = idx
}

// findInsertPos returns the index at which a new node with the given
// InsertAfter and ID should land, placing it after afterID and after any
// directly following sibling whose ID sorts ahead of it per rgaNodeIDLess.
// Caller must hold the lock.
func (r *RGA) findInsertPos(afterID RGANodeID, newID RGANodeID) int {
	start := 0
	if !afterID.IsZero() {
		idx, ok := r.index[afterID]
		if !ok {
			// Unknown parent (out-of-order delivery): append at the end.
			return len(r.nodes)
		}
		start = idx + 1
	}
	pos := start
	for pos < len(r.nodes) && r.nodes[pos].InsertAfter == afterID && rgaNodeIDLess(r.nodes[pos].ID, newID) {
		pos++
	}
	return pos
}

// Insert inserts a character after the node with afterID.
// Use the zero-value RGANodeID{} to insert at the beginning.
func (r *RGA) Insert(afterID RGANodeID, char rune, nodeID string) RGANode {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.seqNo++
	node := RGANode{
		ID:          RGANodeID{Seq: r.seqNo, NodeID: nodeID},
		InsertAfter: afterID,
		Char:        char,
	}
	pos := r.findInsertPos(afterID, node.ID)
	r.insertAt(pos, node)
	return node
}

// Delete marks the node with id as deleted (tombstone).
func (r *RGA) Delete(id RGANodeID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if idx, ok := r.index[id]; ok {
		r.nodes[idx].Deleted = true
	}
}

// Text returns the current document text (ignores tombstones).
func (r *RGA) Text() string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var b []rune
	for _, n := range r.nodes {
		if !n.Deleted {
			b = append(b, n.Char)
		}
	}
	return string(b)
}

// Apply applies a remote operation (insert or delete).
func (r *RGA) Apply(op RGANode) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if op.Deleted {
		if idx, ok := r.index[op.ID]; ok {
			r.nodes[idx].Deleted = true
			return nil
		}
		return fmt.Errorf("RGA.Apply: delete target %+v not found", op.ID)
	}

	if _, exists := r.index[op.ID]; exists {
		// Already integrated (duplicate delivery); idempotent no-op.
		return nil
	}

	if op.ID.Seq > r.seqNo {
		r.seqNo = op.ID.Seq
	}
	pos := r.findInsertPos(op.InsertAfter, op.ID)
	r.insertAt(pos, op)
	return nil
}

// Snapshot returns a copy of every node (including tombstones), suitable for
// serializing the full CRDT state.
func (r *RGA) Snapshot() []RGANode {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]RGANode, len(r.nodes))
	copy(out, r.nodes)
	return out
}

// LoadSnapshot replaces the RGA's contents with a previously captured
// snapshot, rebuilding the index and local sequence counter.
func (r *RGA) LoadSnapshot(nodes []RGANode) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nodes = make([]RGANode, len(nodes))
	copy(r.nodes, nodes)
	r.index = make(map[RGANodeID]int, len(nodes))
	for i, n := range r.nodes {
		r.index[n.ID] = i
		if n.ID.Seq > r.seqNo {
			r.seqNo = n.ID.Seq
		}
	}
}
