// Package actor implements a three-level supervision tree: Root routes
// doc-id requests to singleton Document actors, each Document serializes
// CRDT mutations and fans broadcasts out to its subscribers, and each
// Client demultiplexes one network connection across many documents.
//
// There is no actor runtime underneath this: every Document and Client
// actor is a goroutine owning a mailbox channel and its own state
// exclusively, while Root is a mutex-guarded registry with no mailbox of
// its own. "Tell" is a
// fire-and-forget send; "Ask" is a request with a one-shot reply channel.
// Suspending on a hook call, a downstream ask, or socket I/O is exactly
// how per-document total order is enforced: the mailbox simply doesn't
// advance until the current message's handler returns.
package actor

import "github.com/google/uuid"

// DocID is an unbounded UTF-8 string identifying one collaboration
// target. Equality is byte equality; wire framing truncates it to 255
// bytes (see package wire).
type DocID = string

// ClientID is a process-unique opaque handle assigned at connection
// acceptance, stable for the connection's lifetime.
type ClientID string

// NewClientID mints a fresh, process-unique ClientID.
func NewClientID() ClientID {
	return ClientID(uuid.NewString())
}

func (c ClientID) String() string { return string(c) }
