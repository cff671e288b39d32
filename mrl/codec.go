package mrl

import (
	"container/heap"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/mrl98/quantiles/common"
)

// ElementCodec encodes and decodes a single element T to and from a
// stream. It is supplied by the caller (the framework plugging elements
// into this module, in the terms of spec.md §1) the same way the
// teacher's common.ItemSketchSerde[T] is supplied by a sketch's caller,
// but stream- rather than byte-slice-oriented, matching apache/beam's
// ElementEncoder/ElementDecoder naming for the same role.
type ElementCodec[T any] interface {
	Encode(w io.Writer, v T) error
	Decode(r io.Reader) (T, error)
}

// ErrCodec identifies a malformed encoded stream or an error returned
// by the caller-supplied ElementCodec.
var ErrCodec = errors.New("mrl: codec error")

// ErrIO identifies an error returned by the underlying stream itself
// (the io.Writer passed to Encode or the io.Reader passed to Decode),
// as distinct from a malformed-but-readable encoding.
var ErrIO = errors.New("mrl: io error")

var (
	errTruncated     = errors.New("truncated stream")
	errNegativeCount = errors.New("negative length prefix")
)

const (
	presentByteEmpty    byte = 0
	presentByteNonEmpty byte = 1
)

// EncodeSummary writes the deterministic binary encoding of s to w,
// using codec to encode each element. Encoding is deterministic iff
// codec is deterministic.
//
// The wire layout follows spec.md §4.5 exactly, with one addition: a
// single leading presence byte distinguishing an empty Summary (which
// has no min/max to encode) from a non-empty one. spec.md's literal
// layout has no such flag because the framework it was distilled from
// only ever encodes per-key state that received at least one input; a
// standalone library cannot assume that, so the flag makes EncodeSummary
// and DecodeSummary total functions over every valid Summary, including
// the empty one, rather than erroring on it. See DESIGN.md.
func EncodeSummary[T any](w io.Writer, s *Summary[T], codec ElementCodec[T]) error {
	if s.IsEmpty() {
		return writeByte(w, presentByteEmpty)
	}
	if err := writeByte(w, presentByteNonEmpty); err != nil {
		return err
	}
	if err := codec.Encode(w, *s.min); err != nil {
		return fmt.Errorf("%w: %v", ErrCodec, err)
	}
	if err := codec.Encode(w, *s.max); err != nil {
		return fmt.Errorf("%w: %v", ErrCodec, err)
	}
	if err := encodeElementList(w, s.unbuffered, codec); err != nil {
		return err
	}
	if err := writeUint32BE(w, uint32(len(s.buffers))); err != nil {
		return err
	}
	for _, b := range s.buffers {
		if err := encodeBuffer(w, b, codec); err != nil {
			return err
		}
	}
	return nil
}

func encodeBuffer[T any](w io.Writer, b buffer[T], codec ElementCodec[T]) error {
	if err := writeUint32BE(w, b.level); err != nil {
		return err
	}
	if err := writeUint64BE(w, b.weight); err != nil {
		return err
	}
	return encodeElementList(w, b.elements, codec)
}

func encodeElementList[T any](w io.Writer, elements []T, codec ElementCodec[T]) error {
	if err := writeUint32BE(w, uint32(len(elements))); err != nil {
		return err
	}
	for _, e := range elements {
		if err := codec.Encode(w, e); err != nil {
			return fmt.Errorf("%w: %v", ErrCodec, err)
		}
	}
	return nil
}

// DecodeSummary reads a Summary encoded by EncodeSummary from r. The
// returned Summary is a fresh mutable peer: params and less are supplied
// by the caller, not recovered from the stream, because they are
// configuration (spec.md §6), not state. offsetJitter is not part of
// the encoding (spec.md §9: it is intentionally not serialized) and
// starts at its zero value in the decoded Summary.
func DecodeSummary[T any](r io.Reader, params Params, less common.CompareFn[T], codec ElementCodec[T]) (*Summary[T], error) {
	present, err := readByte(r)
	if err != nil {
		return nil, err
	}
	s := &Summary[T]{params: params, less: less}
	if present == presentByteEmpty {
		return s, nil
	}

	min, err := decodeElement(r, codec)
	if err != nil {
		return nil, err
	}
	max, err := decodeElement(r, codec)
	if err != nil {
		return nil, err
	}
	s.min = &min
	s.max = &max

	unbuffered, err := decodeElementList(r, codec)
	if err != nil {
		return nil, err
	}
	s.unbuffered = unbuffered

	bufferCount, err := readUint32BE(r)
	if err != nil {
		return nil, err
	}

	buffers := make(bufferHeap[T], 0, bufferCount)
	for i := uint32(0); i < bufferCount; i++ {
		b, err := decodeBuffer[T](r, codec)
		if err != nil {
			return nil, err
		}
		buffers = append(buffers, b)
	}
	heap.Init(&buffers)
	s.buffers = buffers

	return s, nil
}

func decodeBuffer[T any](r io.Reader, codec ElementCodec[T]) (buffer[T], error) {
	level, err := readUint32BE(r)
	if err != nil {
		return buffer[T]{}, err
	}
	weight, err := readUint64BE(r)
	if err != nil {
		return buffer[T]{}, err
	}
	elements, err := decodeElementList(r, codec)
	if err != nil {
		return buffer[T]{}, err
	}
	return buffer[T]{level: level, weight: weight, elements: elements}, nil
}

func decodeElement[T any](r io.Reader, codec ElementCodec[T]) (T, error) {
	v, err := codec.Decode(r)
	if err != nil {
		var zero T
		return zero, fmt.Errorf("%w: %v", ErrCodec, err)
	}
	return v, nil
}

func decodeElementList[T any](r io.Reader, codec ElementCodec[T]) ([]T, error) {
	count, err := readUint32BE(r)
	if err != nil {
		return nil, err
	}
	elements := make([]T, 0, count)
	for i := uint32(0); i < count; i++ {
		e, err := decodeElement(r, codec)
		if err != nil {
			return nil, err
		}
		elements = append(elements, e)
	}
	return elements, nil
}

func writeByte(w io.Writer, b byte) error {
	if _, err := w.Write([]byte{b}); err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	return nil
}

func readByte(r io.Reader) (byte, error) {
	var buf [1]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, wrapReadError(err)
	}
	return buf[0], nil
}

func writeUint32BE(w io.Writer, v uint32) error {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], v)
	if _, err := w.Write(buf[:]); err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	return nil
}

func readUint32BE(r io.Reader) (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, wrapReadError(err)
	}
	v := binary.BigEndian.Uint32(buf[:])
	if int32(v) < 0 {
		return 0, fmt.Errorf("%w: %w", ErrCodec, errNegativeCount)
	}
	return v, nil
}

func writeUint64BE(w io.Writer, v uint64) error {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	if _, err := w.Write(buf[:]); err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	return nil
}

func readUint64BE(r io.Reader) (uint64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, wrapReadError(err)
	}
	return binary.BigEndian.Uint64(buf[:]), nil
}

func wrapReadError(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: %w", ErrCodec, errTruncated)
	}
	return fmt.Errorf("%w: %v", ErrIO, err)
}
