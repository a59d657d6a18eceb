package crdt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestORSetAddContainsRemove(t *testing.T) {
	s := NewORSet()
	s.Add("alice", "n1")

	assert.True(t, s.Contains("alice"))
	s.Remove("alice")
	assert.False(t, s.Contains("alice"))
}

func TestORSetAddWinsOverConcurrentRemove(t *testing.T) {
	a := NewORSet()
	b := NewORSet()

	a.Add("alice", "n1")
	b.Merge(a)
	b.Remove("alice")

	// a's add-tag for alice is concurrent with b's remove, so merging b's
	// state back into a must not erase it.
	a.Merge(b)
	assert.True(t, a.Contains("alice"))
}

func TestORSetValuesSorted(t *testing.T) {
	s := NewORSet()
	s.Add("zebra", "n1")
	s.Add("alpha", "n1")

	assert.Equal(t, []string{"alpha", "zebra"}, s.Values())
}
