package mrl

// weightedElement pairs a value with the number of original input
// elements it stands in for. It only exists transiently, while
// interpolate walks the weighted union of a set of buffers.
type weightedElement[T any] struct {
	weight uint64
	value  T
}
