package mrl

import "container/heap"

// headHeap orders a set of per-buffer iterators by the value currently
// at each iterator's head, giving interpolate a single merge-sorted
// stream over buffers that are each already sorted individually.
type headHeap[T any] struct {
	iters []*weightedElementIterator[T]
	less  func(a, b T) bool
	idx   []int
}

func (h *headHeap[T]) Len() int { return len(h.idx) }
func (h *headHeap[T]) Less(i, j int) bool {
	a := h.iters[h.idx[i]]
	b := h.iters[h.idx[j]]
	return h.less(a.elements[a.pos], b.elements[b.pos])
}
func (h *headHeap[T]) Swap(i, j int) { h.idx[i], h.idx[j] = h.idx[j], h.idx[i] }
func (h *headHeap[T]) Push(x any)    { h.idx = append(h.idx, x.(int)) }
func (h *headHeap[T]) Pop() any {
	n := len(h.idx)
	last := h.idx[n-1]
	h.idx = h.idx[:n-1]
	return last
}

// mergedWeightedSequence is a pull-based merge-sorted view over a set
// of buffers, each element tagged with its originating buffer's weight.
type mergedWeightedSequence[T any] struct {
	h *headHeap[T]
}

func newMergedWeightedSequence[T any](buffers []buffer[T], less func(a, b T) bool) *mergedWeightedSequence[T] {
	h := &headHeap[T]{less: less}
	for _, b := range buffers {
		if len(b.elements) == 0 {
			continue
		}
		h.idx = append(h.idx, len(h.iters))
		h.iters = append(h.iters, b.weightedIterator())
	}
	heap.Init(h)
	return &mergedWeightedSequence[T]{h: h}
}

func (m *mergedWeightedSequence[T]) hasNext() bool { return m.h.Len() > 0 }

func (m *mergedWeightedSequence[T]) next() weightedElement[T] {
	it := m.h.iters[m.h.idx[0]]
	elem := it.next()
	if it.hasNext() {
		heap.Fix(m.h, 0)
	} else {
		heap.Pop(m.h)
	}
	return elem
}

// interpolate emulates taking the ordered union of every element in
// buffers repeated according to its buffer's weight, and returning the
// elements at positions j*step+offset for 0 <= j < count out of that
// virtual sequence. buffers must be non-empty and each individually
// sorted under less.
//
// This is a single streaming pass: it advances through the merged
// sequence only as far as each successive target position requires,
// never materializing the virtual sequence.
func interpolate[T any](buffers []buffer[T], less func(a, b T) bool, count int, step, offset float64) []T {
	if count <= 0 {
		return nil
	}

	seq := newMergedWeightedSequence(buffers, less)
	first := seq.next()
	current := float64(first.weight)
	picked := first.value

	result := make([]T, 0, count)
	for j := 0; j < count; j++ {
		target := float64(j)*step + offset
		for current <= target && seq.hasNext() {
			next := seq.next()
			picked = next.value
			current += float64(next.weight)
		}
		result = append(result, picked)
	}
	return result
}
