package crdt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPNCounterIncrementDecrement(t *testing.T) {
	c := NewPNCounter()
	c.Increment("n1", 5)
	c.Decrement("n1", 2)
	c.Increment("n2", 3)

	assert.Equal(t, int64(6), c.Value())
}

func TestPNCounterMergeTakesMaxPerComponent(t *testing.T) {
	a := NewPNCounter()
	a.Increment("n1", 3)

	b := NewPNCounter()
	b.Increment("n1", 7)
	b.Increment("n2", 2)

	a.Merge(b)

	assert.Equal(t, int64(9), a.Value())
}

func TestPNCounterSnapshotRestoreRoundTrips(t *testing.T) {
	a := NewPNCounter()
	a.Increment("n1", 5)
	a.Decrement("n2", 2)

	pos, neg := a.Snapshot()

	b := NewPNCounter()
	b.Restore(pos, neg)

	assert.Equal(t, a.Value(), b.Value())
}
