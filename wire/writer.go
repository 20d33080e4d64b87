// Copyright 2024 The uasset Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package wire

import (
	"encoding/binary"
	"math"

	"github.com/google/uuid"
	"golang.org/x/text/encoding/unicode"
)

// Writer is a random-access little-endian byte sink. Positions within the
// already-written region can be overwritten in place (used by the
// container codec's two-pass write: lay out with zeroed offsets, stream
// payloads, then seek back and patch the real offsets in).
type Writer struct {
	buf []byte
	pos int64
}

// NewWriter returns an empty Writer.
func NewWriter() *Writer {
	return &Writer{}
}

// Bytes returns the written buffer.
func (w *Writer) Bytes() []byte { return w.buf }

// Len returns the current total length of the written buffer.
func (w *Writer) Len() int64 { return int64(len(w.buf)) }

// Position returns the current cursor offset.
func (w *Writer) Position() int64 { return w.pos }

// Seek moves the cursor to an absolute offset within [0, Len()]. Seeking
// past the current length is not allowed; grow by writing instead.
func (w *Writer) Seek(offset int64) error {
	if offset < 0 || offset > w.Len() {
		return ErrOutsideBoundary
	}
	w.pos = offset
	return nil
}

// put writes b at the cursor, overwriting in place if the cursor is
// within the existing buffer, or appending (and growing) otherwise.
func (w *Writer) put(b []byte) {
	end := w.pos + int64(len(b))
	if end > int64(len(w.buf)) {
		grown := make([]byte, end)
		copy(grown, w.buf)
		w.buf = grown
	}
	copy(w.buf[w.pos:end], b)
	w.pos = end
}

// WriteBytes writes raw bytes verbatim.
func (w *Writer) WriteBytes(b []byte) { w.put(b) }

// U8 writes one byte.
func (w *Writer) U8(v uint8) { w.put([]byte{v}) }

// Bool writes a one-byte boolean.
func (w *Writer) Bool(v bool) {
	if v {
		w.U8(1)
	} else {
		w.U8(0)
	}
}

// I8 writes a signed byte.
func (w *Writer) I8(v int8) { w.U8(uint8(v)) }

// U16 writes a little-endian uint16.
func (w *Writer) U16(v uint16) {
	b := make([]byte, 2)
	binary.LittleEndian.PutUint16(b, v)
	w.put(b)
}

// I16 writes a little-endian int16.
func (w *Writer) I16(v int16) { w.U16(uint16(v)) }

// U32 writes a little-endian uint32.
func (w *Writer) U32(v uint32) {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	w.put(b)
}

// I32 writes a little-endian int32.
func (w *Writer) I32(v int32) { w.U32(uint32(v)) }

// U64 writes a little-endian uint64.
func (w *Writer) U64(v uint64) {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, v)
	w.put(b)
}

// I64 writes a little-endian int64.
func (w *Writer) I64(v int64) { w.U64(uint64(v)) }

// F32 writes a little-endian float32.
func (w *Writer) F32(v float32) { w.U32(math.Float32bits(v)) }

// F64 writes a little-endian float64.
func (w *Writer) F64(v float64) { w.U64(math.Float64bits(v)) }

// MagicBE writes a 4-byte big-endian magic value.
func (w *Writer) MagicBE(v uint32) {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, v)
	w.put(b)
}

// GUID writes a raw 16-byte GUID.
func (w *Writer) GUID(u uuid.UUID) { w.put(u[:]) }

// FString writes a string using the spec's FString convention. Empty
// strings are written as the raw length zero; a string made only of ASCII
// bytes (such as "None") gets the positive-length ASCII encoding, and any
// other string the negative-length UTF-16LE encoding.
func (w *Writer) FString(s string) error {
	if s == "" {
		w.I32(0)
		return nil
	}
	if isASCII(s) {
		w.I32(int32(len(s) + 1))
		w.put([]byte(s))
		w.U8(0)
		return nil
	}
	encoder := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewEncoder()
	encoded, err := encoder.String(s)
	if err != nil {
		return err
	}
	units := int32(len(encoded)/2 + 1)
	w.I32(-units)
	w.put([]byte(encoded))
	w.U16(0)
	return nil
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}
