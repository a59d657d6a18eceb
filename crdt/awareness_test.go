package crdt

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildAwarenessPayload(t *testing.T, entries []awarenessUpdate) []byte {
	t.Helper()
	body, err := json.Marshal(entries)
	require.NoError(t, err)
	out := make([]byte, 0, 1+len(body))
	out = append(out, MsgAwareness)
	out = append(out, body...)
	return out
}

func TestAwarenessApplyUpdateAddsEntry(t *testing.T) {
	a := NewAwareness()
	payload := buildAwarenessPayload(t, []awarenessUpdate{{ClientID: "c1", Payload: json.RawMessage(`{"cursor":3}`)}})

	added, updated, removed, err := a.ApplyUpdate(payload, "n1")
	require.NoError(t, err)
	assert.Equal(t, []string{"c1"}, added)
	assert.Empty(t, updated)
	assert.Empty(t, removed)
}

func TestAwarenessApplyUpdateSecondCallIsAnUpdate(t *testing.T) {
	a := NewAwareness()
	payload := buildAwarenessPayload(t, []awarenessUpdate{{ClientID: "c1", Payload: json.RawMessage(`{}`)}})

	_, _, _, err := a.ApplyUpdate(payload, "n1")
	require.NoError(t, err)

	_, updated, _, err := a.ApplyUpdate(payload, "n1")
	require.NoError(t, err)
	assert.Equal(t, []string{"c1"}, updated)
}

func TestAwarenessDropRemovesEntry(t *testing.T) {
	a := NewAwareness()
	payload := buildAwarenessPayload(t, []awarenessUpdate{{ClientID: "c1", Payload: json.RawMessage(`{}`)}})
	_, _, _, err := a.ApplyUpdate(payload, "n1")
	require.NoError(t, err)

	assert.True(t, a.Drop("c1"))
	assert.False(t, a.Drop("c1"))
}

func TestAwarenessApplyUpdateRejectsWrongMessageType(t *testing.T) {
	a := NewAwareness()
	_, _, _, err := a.ApplyUpdate([]byte{MsgSync}, "n1")
	assert.Error(t, err)
}

func TestAwarenessSnapshotIncludesLiveMembers(t *testing.T) {
	a := NewAwareness()
	payload := buildAwarenessPayload(t, []awarenessUpdate{{ClientID: "c1", Payload: json.RawMessage(`{"x":1}`)}})
	_, _, _, err := a.ApplyUpdate(payload, "n1")
	require.NoError(t, err)

	snap := a.Snapshot()
	assert.Equal(t, MsgAwareness, snap[0])
	assert.Contains(t, string(snap), "c1")
}

func TestRemovalMessageEncodesRemovedClient(t *testing.T) {
	msg := RemovalMessage("c1")
	assert.Equal(t, MsgAwareness, msg[0])

	var entries []awarenessUpdate
	require.NoError(t, json.Unmarshal(msg[1:], &entries))
	require.Len(t, entries, 1)
	assert.True(t, entries[0].Removed)
	assert.Equal(t, "c1", entries[0].ClientID)
}
