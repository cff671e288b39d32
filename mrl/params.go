package mrl

import (
	"errors"
	"fmt"
	"math"
)

// DefaultMaxNumElements is used when a Params is built without an
// explicit maximum input size. The accuracy cost of overestimating this
// value is only logarithmic, so it is safe to leave at its default for
// most uses.
const DefaultMaxNumElements uint64 = 1e9

// ErrInvalidParameters is returned by NewParams when the supplied
// configuration cannot produce a valid Params.
var ErrInvalidParameters = errors.New("mrl: invalid parameters")

// Params is the immutable configuration of a Summary: how many
// quantiles to report, the requested error bound, and the derived
// buffer geometry that bound controls.
type Params struct {
	// NumQuantiles is the size of the list ExtractOutput returns,
	// including the minimum and maximum.
	NumQuantiles int

	// Epsilon is the requested error bound: for any rank c in [0, N],
	// the returned value's true rank c' satisfies |c - c'| <= Epsilon*N,
	// provided N <= MaxNumElements.
	Epsilon float64

	// MaxNumElements is the assumed upper bound on the number of
	// elements a Summary built with this Params will ever see.
	MaxNumElements uint64

	// BufferSize (k in the referenced paper) is the fixed capacity of
	// every non-remainder Buffer.
	BufferSize int

	// NumBuffers (b in the referenced paper) is the maximum number of
	// Buffers a Summary retains at once.
	NumBuffers int
}

// Option configures a Params built by NewParams.
type Option func(*paramsConfig)

type paramsConfig struct {
	epsilon        float64
	maxNumElements uint64
}

// WithEpsilon overrides the default error bound of 1/numQuantiles.
func WithEpsilon(epsilon float64) Option {
	return func(c *paramsConfig) {
		c.epsilon = epsilon
	}
}

// WithMaxNumElements overrides DefaultMaxNumElements.
//
// This intentionally does not also change epsilon. The source this
// module is derived from has a withMaxInputSize method that passes its
// argument as both the new maxNumElements and the new epsilon, which
// produces nonsensical error bounds for any input size other than the
// one originally used to pick epsilon; that behavior is a bug in the
// source and is not reproduced here.
func WithMaxNumElements(maxNumElements uint64) Option {
	return func(c *paramsConfig) {
		c.maxNumElements = maxNumElements
	}
}

// NewDefaultParams builds a Params with the default error bound
// (1/numQuantiles) and DefaultMaxNumElements.
func NewDefaultParams(numQuantiles int) (Params, error) {
	return NewParams(numQuantiles)
}

// NewParams derives BufferSize and NumBuffers from numQuantiles and the
// given options, following the buffer-geometry formulas of the
// referenced MRL98 paper.
func NewParams(numQuantiles int, opts ...Option) (Params, error) {
	if numQuantiles < 2 {
		return Params{}, fmt.Errorf("%w: numQuantiles must be >= 2, got %d", ErrInvalidParameters, numQuantiles)
	}

	cfg := paramsConfig{
		epsilon:        1.0 / float64(numQuantiles),
		maxNumElements: DefaultMaxNumElements,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.epsilon <= 0 || cfg.epsilon > 1 {
		return Params{}, fmt.Errorf("%w: epsilon must be in (0, 1], got %v", ErrInvalidParameters, cfg.epsilon)
	}
	if cfg.maxNumElements < 1 {
		return Params{}, fmt.Errorf("%w: maxNumElements must be >= 1, got %d", ErrInvalidParameters, cfg.maxNumElements)
	}

	numBuffers, bufferSize := deriveBufferGeometry(cfg.epsilon, cfg.maxNumElements)

	return Params{
		NumQuantiles:   numQuantiles,
		Epsilon:        cfg.epsilon,
		MaxNumElements: cfg.maxNumElements,
		BufferSize:     bufferSize,
		NumBuffers:     numBuffers,
	}, nil
}

// deriveBufferGeometry computes (b, k) from (epsilon, maxNumElements) by
// the exact arithmetic of the referenced paper's reference
// implementation: find the smallest b >= 2 with
// (b-2)*2^(b-2) >= epsilon*maxNumElements, then back off by one. That
// "while ... then minus one" reproduces an off-by-one present in the
// source this module is derived from and preserved here deliberately,
// for output parity with it (see the open question about this formula
// recorded in DESIGN.md).
//
// The source's loop can yield b == 1 when epsilon*maxNumElements <= 0,
// which violates NumBuffers >= 2; that case is guarded against here by
// clamping b to 2, also recorded in DESIGN.md.
func deriveBufferGeometry(epsilon float64, maxNumElements uint64) (numBuffers, bufferSize int) {
	target := epsilon * float64(maxNumElements)

	b := 2
	for float64(b-2)*math.Pow(2, float64(b-2)) < target {
		b++
	}
	b--
	if b < 2 {
		b = 2
	}

	k := int(math.Ceil(float64(maxNumElements) / math.Pow(2, float64(b-1))))
	if k < 2 {
		k = 2
	}

	return b, k
}
