package mrl

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOffset_OddWeightIsUnambiguous(t *testing.T) {
	s := &Summary[int]{}
	assert.Equal(t, float64(3), s.offset(5))
	assert.Equal(t, float64(5), s.offset(9))
}

// S5: consecutive even-weight collapses alternate their jitter, starting
// at 2 on the first even call.
func TestOffset_EvenWeightAlternates(t *testing.T) {
	s := &Summary[int]{}
	assert.Equal(t, float64(4), s.offset(6)) // (6+2)/2
	assert.Equal(t, float64(3), s.offset(6)) // (6+0)/2
	assert.Equal(t, float64(4), s.offset(6)) // (6+2)/2 again
}

func TestCollapseOnce_PreservesTotalWeightAndBufferSize(t *testing.T) {
	params := smallParams(5, 4, 2)
	s := NewSummary[int](params, Natural[int]())

	// Three level-0 weight-1 buffers of bufferSize 4 exceeds numBuffers=2
	// and forces a collapse.
	s.buffers = bufferHeap[int]{
		newLevelZeroBuffer([]int{1, 5, 9, 13}, s.less),
		newLevelZeroBuffer([]int{2, 6, 10, 14}, s.less),
		newLevelZeroBuffer([]int{3, 7, 11, 15}, s.less),
	}
	for i := range s.buffers {
		s.buffers[i].level = 0
		s.buffers[i].weight = 1
	}

	s.collapseIfNeeded()

	assert.LessOrEqual(t, len(s.buffers), params.NumBuffers)

	var totalWeight uint64
	for _, b := range s.buffers {
		assert.Len(t, b.elements, params.BufferSize)
		totalWeight += b.weight
	}
	assert.Equal(t, uint64(3), totalWeight)
}
