// Copyright 2024 The uasset Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package wire implements the byte-level primitives shared by every layer
// of the uasset codec: endian-correct scalar I/O, the FString convention,
// raw GUIDs, and a writer that can patch offsets it hasn't computed yet.
//
// It is split out of the root package (unlike the teacher's single flat
// package) because both the container codec and the property/Kismet
// codecs need these primitives without importing the root package.
package wire

import (
	"encoding/binary"
	"errors"
	"math"

	"github.com/google/uuid"
	"golang.org/x/text/encoding/unicode"
)

// ErrOutsideBoundary is returned when a read or seek would cross the end
// of the underlying buffer.
var ErrOutsideBoundary = errors.New("wire: read outside buffer boundary")

// ErrNulInString is returned when an ASCII FString's payload contains an
// embedded NUL byte before its terminator.
var ErrNulInString = errors.New("wire: string contains embedded NUL byte")

// Reader is a random-access little-endian byte cursor. It transparently
// chains a primary buffer with an optional secondary ("bulk", i.e. .uexp)
// buffer: positions at or beyond len(primary) are served from bulk,
// exactly as §6 of the spec describes for the event-driven loader.
type Reader struct {
	primary []byte
	bulk    []byte
	pos     int64
}

// NewReader returns a Reader over a single buffer.
func NewReader(data []byte) *Reader {
	return &Reader{primary: data}
}

// NewSplitReader returns a Reader chaining a primary buffer and a bulk
// (.uexp) buffer that logically follows it.
func NewSplitReader(primary, bulk []byte) *Reader {
	return &Reader{primary: primary, bulk: bulk}
}

// Len is the total addressable length across both streams.
func (r *Reader) Len() int64 {
	return int64(len(r.primary) + len(r.bulk))
}

// Position returns the current cursor offset.
func (r *Reader) Position() int64 { return r.pos }

// Seek moves the cursor to an absolute offset.
func (r *Reader) Seek(offset int64) error {
	if offset < 0 || offset > r.Len() {
		return ErrOutsideBoundary
	}
	r.pos = offset
	return nil
}

// slice returns a direct view of n bytes at the current position and
// advances the cursor. It does not copy.
func (r *Reader) slice(n int64) ([]byte, error) {
	if n < 0 || r.pos+n > r.Len() {
		return nil, ErrOutsideBoundary
	}
	start := r.pos
	r.pos += n

	primaryLen := int64(len(r.primary))
	switch {
	case start+n <= primaryLen:
		return r.primary[start : start+n], nil
	case start >= primaryLen:
		b := start - primaryLen
		return r.bulk[b : b+n], nil
	default:
		// Straddles the primary/bulk boundary; copy is unavoidable.
		out := make([]byte, n)
		copy(out, r.primary[start:])
		copy(out[primaryLen-start:], r.bulk[:n-(primaryLen-start)])
		return out, nil
	}
}

// Bytes reads n raw bytes.
func (r *Reader) Bytes(n int) ([]byte, error) {
	b, err := r.slice(int64(n))
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, b)
	return out, nil
}

// U8 reads one byte.
func (r *Reader) U8() (uint8, error) {
	b, err := r.slice(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// Bool reads a one-byte boolean (non-zero is true).
func (r *Reader) Bool() (bool, error) {
	b, err := r.U8()
	return b != 0, err
}

// I8 reads a signed byte.
func (r *Reader) I8() (int8, error) {
	b, err := r.U8()
	return int8(b), err
}

// U16 reads a little-endian uint16.
func (r *Reader) U16() (uint16, error) {
	b, err := r.slice(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

// I16 reads a little-endian int16.
func (r *Reader) I16() (int16, error) {
	v, err := r.U16()
	return int16(v), err
}

// U32 reads a little-endian uint32.
func (r *Reader) U32() (uint32, error) {
	b, err := r.slice(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// I32 reads a little-endian int32.
func (r *Reader) I32() (int32, error) {
	v, err := r.U32()
	return int32(v), err
}

// U64 reads a little-endian uint64.
func (r *Reader) U64() (uint64, error) {
	b, err := r.slice(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// I64 reads a little-endian int64.
func (r *Reader) I64() (int64, error) {
	v, err := r.U64()
	return int64(v), err
}

// F32 reads a little-endian float32.
func (r *Reader) F32() (float32, error) {
	v, err := r.U32()
	return math.Float32frombits(v), err
}

// F64 reads a little-endian float64.
func (r *Reader) F64() (float64, error) {
	v, err := r.U64()
	return math.Float64frombits(v), err
}

// MagicBE reads a 4-byte big-endian magic value and compares it to want.
func (r *Reader) MagicBE(want uint32) (bool, error) {
	b, err := r.slice(4)
	if err != nil {
		return false, err
	}
	return binary.BigEndian.Uint32(b) == want, nil
}

// GUID reads a raw 16-byte GUID.
func (r *Reader) GUID() (uuid.UUID, error) {
	b, err := r.slice(16)
	if err != nil {
		return uuid.UUID{}, err
	}
	var u uuid.UUID
	copy(u[:], b)
	return u, nil
}

// FString reads a length-prefixed string per the spec's FString
// convention: positive length = ASCII including a NUL terminator,
// negative length = UTF-16LE code units including a NUL terminator,
// zero length = empty string.
func (r *Reader) FString() (string, error) {
	n, err := r.I32()
	if err != nil {
		return "", err
	}
	switch {
	case n == 0:
		return "", nil
	case n > 0:
		b, err := r.slice(int64(n))
		if err != nil {
			return "", err
		}
		if n > 1 {
			for _, c := range b[:n-1] {
				if c == 0 {
					return "", ErrNulInString
				}
			}
		}
		return string(b[:n-1]), nil
	default:
		count := int64(-n)
		b, err := r.slice(count * 2)
		if err != nil {
			return "", err
		}
		decoder := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder()
		decoded, err := decoder.Bytes(b[:len(b)-2])
		if err != nil {
			return "", err
		}
		return string(decoded), nil
	}
}
