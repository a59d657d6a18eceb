package crdt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVClockHappensBefore(t *testing.T) {
	a := VClock{"n1": 1}
	b := a.Increment("n1")

	assert.True(t, a.HappensBefore(b))
	assert.False(t, b.HappensBefore(a))
}

func TestVClockConcurrent(t *testing.T) {
	a := VClock{"n1": 1}
	b := VClock{"n2": 1}

	assert.True(t, a.Concurrent(b))
	assert.False(t, a.HappensBefore(b))
	assert.False(t, b.HappensBefore(a))
}

func TestVClockMergeIsComponentWiseMax(t *testing.T) {
	a := VClock{"n1": 2, "n2": 1}
	b := VClock{"n1": 1, "n2": 3, "n3": 1}

	merged := a.Merge(b)
	assert.Equal(t, VClock{"n1": 2, "n2": 3, "n3": 1}, merged)
}

func TestVClockCloneIsIndependent(t *testing.T) {
	a := VClock{"n1": 1}
	b := a.Clone()
	b["n1"] = 99

	assert.Equal(t, uint64(1), a["n1"])
}
