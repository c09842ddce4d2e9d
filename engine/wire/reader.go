// Package wire implements the slither.live binary protocol codec: byte-oriented
// reader/writer primitives with fixed-point encodings, and the full inbound and
// outbound packet taxonomies (spec.md section 4.2). It knows nothing about the
// world, snakes, or sessions — callers translate to/from domain values.
package wire

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Reader decodes a single sub-packet payload. All multi-byte integers are
// big-endian.
type Reader struct {
	buf []byte
	pos int
}

func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

func (r *Reader) Remaining() int { return len(r.buf) - r.pos }

func (r *Reader) require(n int) error {
	if r.Remaining() < n {
		return fmt.Errorf("wire: short read, need %d have %d", n, r.Remaining())
	}
	return nil
}

func (r *Reader) U8() (uint8, error) {
	if err := r.require(1); err != nil {
		return 0, err
	}
	v := r.buf[r.pos]
	r.pos++
	return v, nil
}

func (r *Reader) I8() (int8, error) {
	v, err := r.U8()
	return int8(v), err
}

func (r *Reader) U16() (uint16, error) {
	if err := r.require(2); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint16(r.buf[r.pos:])
	r.pos += 2
	return v, nil
}

func (r *Reader) I16() (int16, error) {
	v, err := r.U16()
	return int16(v), err
}

// U24 reads a 3-byte big-endian unsigned integer into a uint32.
func (r *Reader) U24() (uint32, error) {
	if err := r.require(3); err != nil {
		return 0, err
	}
	v := uint32(r.buf[r.pos])<<16 | uint32(r.buf[r.pos+1])<<8 | uint32(r.buf[r.pos+2])
	r.pos += 3
	return v, nil
}

func (r *Reader) U32() (uint32, error) {
	if err := r.require(4); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint32(r.buf[r.pos:])
	r.pos += 4
	return v, nil
}

func (r *Reader) Bytes(n int) ([]byte, error) {
	if err := r.require(n); err != nil {
		return nil, err
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// FP8 decodes a signed byte divided by 10.
func (r *Reader) FP8() (float32, error) {
	v, err := r.I8()
	if err != nil {
		return 0, err
	}
	return float32(v) / 10, nil
}

// FP16 decodes a signed i16 divided by 10^p.
func (r *Reader) FP16(p int) (float32, error) {
	v, err := r.I16()
	if err != nil {
		return 0, err
	}
	return float32(v) / float32(math.Pow(10, float64(p))), nil
}

// FP24 decodes a u24 normalized to [0,1] ("fullness normalization").
func (r *Reader) FP24() (float32, error) {
	v, err := r.U24()
	if err != nil {
		return 0, err
	}
	return float32(v) / 16777215.0, nil
}

// Angle8 decodes u8 * 2pi/256.
func (r *Reader) Angle8() (float32, error) {
	v, err := r.U8()
	if err != nil {
		return 0, err
	}
	return float32(v) * (2 * math.Pi / 256), nil
}

// Angle24 decodes u24 * 2pi/0xFFFFFF.
func (r *Reader) Angle24() (float32, error) {
	v, err := r.U24()
	if err != nil {
		return 0, err
	}
	return float32(float64(v) * (2 * math.Pi / 0xFFFFFF)), nil
}

// PString reads a length-prefixed (8-bit length) string.
func (r *Reader) PString() (string, error) {
	n, err := r.U8()
	if err != nil {
		return "", err
	}
	b, err := r.Bytes(int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// RelativeCoord decodes u8-128, range -128..127.
func (r *Reader) RelativeCoord() (int, error) {
	v, err := r.U8()
	if err != nil {
		return 0, err
	}
	return int(v) - 128, nil
}
