package mrl

import (
	"fmt"
	"io"
	"math"
)

// Int64Codec is an ElementCodec[int64] using a fixed-width big-endian
// encoding, the same layout the teacher's ArrayOfLongsSerde uses for
// its payload longs.
type Int64Codec struct{}

func (Int64Codec) Encode(w io.Writer, v int64) error {
	return writeUint64BE(w, uint64(v))
}

func (Int64Codec) Decode(r io.Reader) (int64, error) {
	v, err := readUint64BE(r)
	return int64(v), err
}

// Float64Codec is an ElementCodec[float64] using IEEE 754 binary64,
// transported as a fixed-width big-endian integer the way the teacher's
// item_sketch_double.go serde encodes its float64 payloads.
type Float64Codec struct{}

func (Float64Codec) Encode(w io.Writer, v float64) error {
	return writeUint64BE(w, math.Float64bits(v))
}

func (Float64Codec) Decode(r io.Reader) (float64, error) {
	bits, err := readUint64BE(r)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(bits), nil
}

// StringCodec is an ElementCodec[string] using a uint32 big-endian
// length prefix followed by the string's raw UTF-8 bytes, the variable-
// length layout the teacher's item_sketch_string.go serde uses for its
// string payloads.
type StringCodec struct{}

func (StringCodec) Encode(w io.Writer, v string) error {
	if err := writeUint32BE(w, uint32(len(v))); err != nil {
		return err
	}
	if _, err := io.WriteString(w, v); err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	return nil
}

func (StringCodec) Decode(r io.Reader) (string, error) {
	n, err := readUint32BE(r)
	if err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", wrapReadError(err)
	}
	return string(buf), nil
}
