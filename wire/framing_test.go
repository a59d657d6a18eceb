package wire

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	cases := []struct {
		docID   string
		payload []byte
	}{
		{"docA", []byte{0x04, 0x01, 0x02}},
		{"", []byte("x")},
		{"d", nil},
	}

	for _, tc := range cases {
		frame := EncodeWithDocID(tc.docID, tc.payload)
		gotID, gotPayload, ok := DecodeDocID(frame)
		require.True(t, ok)
		assert.Equal(t, tc.docID, gotID)
		assert.Equal(t, tc.payload, gotPayload)
	}
}

func TestEncodeTruncatesOversizedDocID(t *testing.T) {
	long := strings.Repeat("a", 300)
	frame := EncodeWithDocID(long, []byte("payload"))
	assert.Equal(t, byte(MaxDocIDLen), frame[0])

	gotID, gotPayload, ok := DecodeDocID(frame)
	require.True(t, ok)
	assert.Equal(t, long[:MaxDocIDLen], gotID)
	assert.Equal(t, []byte("payload"), gotPayload)
}

// Scenario 6: a frame claiming a 255-byte doc_id in a 2-byte buffer is
// malformed and must be dropped rather than panicking or partially parsed.
func TestDecodeRejectsTruncatedFrame(t *testing.T) {
	_, _, ok := DecodeDocID([]byte{0xFF, 0x41})
	assert.False(t, ok)
}

func TestDecodeRejectsEmptyBuffer(t *testing.T) {
	_, _, ok := DecodeDocID(nil)
	assert.False(t, ok)
}

func TestDecodeRejectsInvalidUTF8(t *testing.T) {
	_, _, ok := DecodeDocID([]byte{0x02, 0xFF, 0xFE})
	assert.False(t, ok)
}
