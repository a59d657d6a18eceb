package crdt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyPayload(t *testing.T) {
	typ, ok := ClassifyPayload([]byte{MsgSync, SyncStep1})
	require.True(t, ok)
	assert.Equal(t, MsgSync, typ)

	_, ok = ClassifyPayload(nil)
	assert.False(t, ok)

	_, ok = ClassifyPayload([]byte{0xFF})
	assert.False(t, ok)
}

func TestStateApplyUpdateSyncStep1RepliesWithFullState(t *testing.T) {
	s := NewState()
	s.Insert(RGANodeID{}, 'h', "n1")

	result, err := s.ApplyUpdate(EncodeSyncStep1(), "n2")
	require.NoError(t, err)
	assert.False(t, result.Changed)
	require.NotNil(t, result.Reply)
	assert.Equal(t, MsgSync, result.Reply[0])
	assert.Equal(t, SyncStep2, result.Reply[1])
}

func TestStateInsertBumpsRevisionAndClock(t *testing.T) {
	s := NewState()
	before := s.Revision()

	s.Insert(RGANodeID{}, 'h', "n1")

	assert.Greater(t, s.Revision(), before)
	assert.Equal(t, uint64(1), s.Clock()["n1"])
}

func TestStateEncodeBlobLoadFromBlobRoundTrips(t *testing.T) {
	s := NewState()
	s.Insert(RGANodeID{}, 'h', "n1")
	s.Insert(RGANodeID{}, 'i', "n1")

	blob := s.EncodeBlob()

	restored := NewState()
	require.NoError(t, restored.LoadFromBlob(blob))

	assert.Equal(t, s.Text(), restored.Text())
	assert.Equal(t, s.Revision(), restored.Revision())
}

func TestStateLoadFromEmptyBlobIsNoop(t *testing.T) {
	s := NewState()
	require.NoError(t, s.LoadFromBlob(nil))
	assert.Equal(t, "", s.Text())
}

func TestStateApplyUpdateRejectsNonSyncPayload(t *testing.T) {
	s := NewState()
	_, err := s.ApplyUpdate([]byte{MsgAwareness}, "n1")
	assert.Error(t, err)
}
