package mrl

import (
	"math"
	"sort"
	"testing"

	"pgregory.net/rapid"
)

func TestSummaryInvariants(t *testing.T) {
	t.Parallel()
	rapid.Check(t, rapid.Run(&summaryMachine{}))
}

// summaryMachine drives a Summary[int] through AddInput and Merge calls
// alongside a sorted-slice reference, checking every invariant of
// §8 that a reference implementation can cheaply verify after each
// step: the buffer-count bound, fixed output length and order,
// extrema exactness, and the error bound against the true rank.
type summaryMachine struct {
	numQuantiles int
	bufferSize   int
	numBuffers   int
	epsilon      float64

	summary *Summary[int]
	values  []int
}

func (m *summaryMachine) Init(t *rapid.T) {
	m.numQuantiles = rapid.IntRange(2, 9).Draw(t, "numQuantiles").(int)
	m.bufferSize = rapid.IntRange(2, 8).Draw(t, "bufferSize").(int)
	m.numBuffers = rapid.IntRange(2, 6).Draw(t, "numBuffers").(int)
	m.epsilon = 1.0 / float64(m.numQuantiles)

	params := Params{
		NumQuantiles:   m.numQuantiles,
		Epsilon:        m.epsilon,
		MaxNumElements: 1e9,
		BufferSize:     m.bufferSize,
		NumBuffers:     m.numBuffers,
	}
	m.summary = NewSummary[int](params, Natural[int]())
}

func (m *summaryMachine) AddInput(t *rapid.T) {
	n := rapid.IntRange(1, 200).Draw(t, "batch size").(int)
	for i := 0; i < n; i++ {
		v := rapid.IntRange(-1000, 1000).Draw(t, "value").(int)
		m.summary.AddInput(v)
		m.values = append(m.values, v)
	}
	m.check(t)
}

func (m *summaryMachine) MergeWithFreshShard(t *rapid.T) {
	params := m.summary.params
	shard := NewSummary[int](params, Natural[int]())
	n := rapid.IntRange(0, 200).Draw(t, "shard size").(int)
	var shardValues []int
	for i := 0; i < n; i++ {
		v := rapid.IntRange(-1000, 1000).Draw(t, "value").(int)
		shard.AddInput(v)
		shardValues = append(shardValues, v)
	}
	m.summary.Merge(shard)
	m.values = append(m.values, shardValues...)
	m.check(t)
}

func (m *summaryMachine) Check(*rapid.T) {}

func (m *summaryMachine) check(t *rapid.T) {
	t.Helper()

	if len(m.summary.buffers) > m.numBuffers {
		t.Fatalf("buffer count %d exceeds numBuffers %d", len(m.summary.buffers), m.numBuffers)
	}
	for _, b := range m.summary.buffers {
		if len(b.elements) != m.bufferSize {
			t.Fatalf("non-remainder buffer has %d elements, want %d", len(b.elements), m.bufferSize)
		}
	}

	if len(m.values) == 0 {
		if !m.summary.IsEmpty() {
			t.Fatalf("summary should be empty with no ingested values")
		}
		return
	}

	sorted := append([]int(nil), m.values...)
	sort.Ints(sorted)

	out := m.summary.ExtractOutput()
	if len(out) != m.numQuantiles {
		t.Fatalf("output length %d, want %d", len(out), m.numQuantiles)
	}
	for i := 1; i < len(out); i++ {
		if out[i-1] > out[i] {
			t.Fatalf("output not sorted at %d: %v", i, out)
		}
	}
	if out[0] != sorted[0] {
		t.Fatalf("min mismatch: got %d want %d", out[0], sorted[0])
	}
	if out[len(out)-1] != sorted[len(sorted)-1] {
		t.Fatalf("max mismatch: got %d want %d", out[len(out)-1], sorted[len(sorted)-1])
	}

	n := float64(len(sorted))
	denom := float64(m.numQuantiles - 1)
	for j := 1; j < len(out)-1; j++ {
		nominalRank := float64(j) * n / denom
		// A value that occurs more than once in the input occupies every
		// rank from its first to its last index; its true rank is the one
		// of those nearest the nominal rank.
		lo := float64(lowerBound(sorted, out[j]))
		hi := float64(lowerBound(sorted, out[j]+1) - 1)
		trueRank := math.Max(lo, math.Min(nominalRank, hi))
		tolerance := m.epsilon*n + float64(m.bufferSize) + 1
		if diff := math.Abs(nominalRank - trueRank); diff > tolerance {
			t.Fatalf("interior %d: nominal rank %v true rank %v exceeds epsilon*N+bufferSize+1=%v (value %d)",
				j, nominalRank, trueRank, tolerance, out[j])
		}
	}
}

func lowerBound(sorted []int, v int) int {
	return sort.SearchInts(sorted, v)
}
