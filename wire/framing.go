// Package wire implements the doc-id multiplexing frame:
//
//	+--------+----------------+------------------+
//	| len u8 | doc_id UTF-8   | yjs_payload      |
//	| (0..255)| (len bytes)   | (remainder)      |
//	+--------+----------------+------------------+
//
// It is a leaf utility: a single client connection multiplexes many
// documents over this framing, and every Document broadcast is wrapped
// with it before reaching a Client's mailbox.
package wire

import "unicode/utf8"

// MaxDocIDLen is the largest doc_id length (bytes) the one-byte length
// prefix can represent.
const MaxDocIDLen = 255

// EncodeWithDocID prepends the length-prefixed doc_id to payload. If
// docID's UTF-8 encoding exceeds MaxDocIDLen bytes it is truncated at
// encode time, which makes encode-then-decode lossy for oversized ids:
// DecodeDocID returns the first MaxDocIDLen bytes as the doc id (so two
// long ids sharing that prefix decode to the same id), or rejects the
// frame when the cut falls inside a multi-byte UTF-8 character.
func EncodeWithDocID(docID string, payload []byte) []byte {
	id := []byte(docID)
	n := len(id)
	if n > MaxDocIDLen {
		n = MaxDocIDLen
	}
	out := make([]byte, 0, 1+n+len(payload))
	out = append(out, byte(n))
	out = append(out, id[:n]...)
	out = append(out, payload...)
	return out
}

// DecodeDocID parses a length-prefixed doc_id and returns it along with
// the remaining payload. It returns ok=false for any malformed frame:
// an empty buffer, a length prefix that overruns the buffer, or a doc_id
// that is not valid UTF-8. Such frames must be dropped silently rather
// than erroring the connection.
func DecodeDocID(data []byte) (docID string, payload []byte, ok bool) {
	if len(data) < 1 {
		return "", nil, false
	}
	n := int(data[0])
	if len(data) < 1+n {
		return "", nil, false
	}
	idBytes := data[1 : 1+n]
	if !utf8.Valid(idBytes) {
		return "", nil, false
	}
	return string(idBytes), data[1+n:], true
}
