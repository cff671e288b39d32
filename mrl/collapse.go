package mrl

import "container/heap"

// collapseIfNeeded repeatedly collapses the lowest levels of s's buffer
// set until it fits within NumBuffers, which is the invariant every
// exported mutator (AddInput, Merge) must restore before returning.
func (s *Summary[T]) collapseIfNeeded() {
	for len(s.buffers) > s.params.NumBuffers {
		s.collapseOnce()
	}
}

// collapseOnce removes a group of buffers from s.buffers and replaces
// them with a single buffer one level higher, carrying their combined
// weight, built by down-sampling their weighted sorted union to
// BufferSize positions.
//
// The group is not simply "the NumBuffers lowest buffers": per spec.md
// §4.3, it is the single absolute-lowest buffer plus every buffer
// sharing the level of the second-lowest. In the common case where at
// least two buffers already share the lowest level, that is just "every
// buffer at the lowest level"; the extra step handles the case where a
// merge has left exactly one buffer stranded below the rest.
func (s *Summary[T]) collapseOnce() {
	b1 := heap.Pop(&s.buffers).(buffer[T])
	b2 := heap.Pop(&s.buffers).(buffer[T])
	minLevel := b2.level

	group := []buffer[T]{b1, b2}
	for len(s.buffers) > 0 && s.buffers[0].level == minLevel {
		group = append(group, heap.Pop(&s.buffers).(buffer[T]))
	}

	newWeight := uint64(0)
	for _, b := range group {
		newWeight += b.weight
	}

	collapsed := interpolate(group, s.less, s.params.BufferSize, float64(newWeight), s.offset(newWeight))

	heap.Push(&s.buffers, buffer[T]{level: minLevel + 1, weight: newWeight, elements: collapsed})
}

// offset implements the even-weight rounding jitter of spec.md §4.3:
// an odd newWeight has a single unambiguous rounding point, but an even
// one has two equally valid starting positions, and offset alternates
// between them across calls so no single direction of rounding is
// favored over a Summary's lifetime.
func (s *Summary[T]) offset(newWeight uint64) float64 {
	if newWeight%2 == 1 {
		return float64(newWeight+1) / 2
	}
	s.offsetJitter = 2 - s.offsetJitter
	return (float64(newWeight) + float64(s.offsetJitter)) / 2
}
