// Copyright 2024 The uasset Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package tagprop implements the unversioned-property fragment header:
// the compact (skip_num, value_num, is_last, has_zeros) run-length
// encoding a cooked package substitutes for per-property tag framing
// when it carries the unversioned-properties package flag (§4.4
// "Unversioned mode"). This package only knows about the fragment
// bytes and the zero-mask bitmap; resolving a schema index back to a
// property name/type belongs to the caller (the per-class mapping
// table, when one is supplied).
package tagprop

import "github.com/astromodkit/uasset/wire"

// maxRun is the largest skip_num/value_num a single fragment can carry:
// both fields are packed into 7 bits alongside a flag bit, mirroring
// the engine's i8::MAX cap on each half of the pair.
const maxRun = 127

// Fragment is one entry of an unversioned header's fragment list.
// SkipNum properties are skipped (left at their class default) before
// ValueNum consecutive properties starting at FirstNum are read in
// schema order; HasZeros means some of those ValueNum properties are
// absent and contribute a bit each to the header's trailing zero-mask;
// IsLast marks the final fragment in the list.
type Fragment struct {
	SkipNum  uint8
	ValueNum uint8
	FirstNum int
	HasZeros bool
	IsLast   bool
}

// ReadFragment decodes one 2-byte fragment: byte 0 packs SkipNum in its
// low 7 bits and HasZeros in its top bit; byte 1 packs ValueNum in its
// low 7 bits and IsLast in its top bit. FirstNum is not itself encoded;
// the caller accumulates it across the fragment sequence.
func ReadFragment(r *wire.Reader) (Fragment, error) {
	b0, err := r.U8()
	if err != nil {
		return Fragment{}, err
	}
	b1, err := r.U8()
	if err != nil {
		return Fragment{}, err
	}
	return Fragment{
		SkipNum:  b0 & 0x7f,
		HasZeros: b0&0x80 != 0,
		ValueNum: b1 & 0x7f,
		IsLast:   b1&0x80 != 0,
	}, nil
}

// WriteFragment encodes f as ReadFragment expects to read it back.
func WriteFragment(w *wire.Writer, f Fragment) {
	b0 := f.SkipNum & 0x7f
	if f.HasZeros {
		b0 |= 0x80
	}
	b1 := f.ValueNum & 0x7f
	if f.IsLast {
		b1 |= 0x80
	}
	w.U8(b0)
	w.U8(b1)
}

// Header is a decoded fragment list plus its trailing zero-mask bits,
// one per value slot across every HasZeros fragment, in fragment then
// value order.
type Header struct {
	Fragments []Fragment
	ZeroMask  []bool
}

// DecodeHeader reads a fragment list terminated by IsLast, then the
// zero-mask bitmap its HasZeros fragments require, packed LSB-first
// within each byte (the engine's usual bit order for small flag
// arrays elsewhere in this codec).
func DecodeHeader(r *wire.Reader) (*Header, error) {
	var fragments []Fragment
	running := 0
	zeroBits := 0
	for {
		f, err := ReadFragment(r)
		if err != nil {
			return nil, err
		}
		f.FirstNum = running + int(f.SkipNum)
		running = f.FirstNum + int(f.ValueNum)
		if f.HasZeros {
			zeroBits += int(f.ValueNum)
		}
		fragments = append(fragments, f)
		if f.IsLast {
			break
		}
	}

	mask, err := readBits(r, zeroBits)
	if err != nil {
		return nil, err
	}
	return &Header{Fragments: fragments, ZeroMask: mask}, nil
}

// EncodeHeader writes fragments followed by zeroMask, the inverse of
// DecodeHeader. It does not validate that fragments end with IsLast or
// that len(zeroMask) matches the fragments' HasZeros value counts;
// EmitFragments already guarantees both.
func EncodeHeader(w *wire.Writer, fragments []Fragment, zeroMask []bool) {
	for _, f := range fragments {
		WriteFragment(w, f)
	}
	writeBits(w, zeroMask)
}

func readBits(r *wire.Reader, n int) ([]bool, error) {
	if n == 0 {
		return nil, nil
	}
	nbytes := (n + 7) / 8
	raw, err := r.Bytes(nbytes)
	if err != nil {
		return nil, err
	}
	bits := make([]bool, n)
	for i := 0; i < n; i++ {
		bits[i] = raw[i/8]&(1<<uint(i%8)) != 0
	}
	return bits, nil
}

func writeBits(w *wire.Writer, bits []bool) {
	if len(bits) == 0 {
		return
	}
	raw := make([]byte, (len(bits)+7)/8)
	for i, b := range bits {
		if b {
			raw[i/8] |= 1 << uint(i%8)
		}
	}
	w.WriteBytes(raw)
}

// Cursor walks a decoded Header's fragments in schema order, yielding
// one (schemaIndex, isZero) pair per present property, mirroring the
// original's per-read advance-then-resolve loop.
type Cursor struct {
	h             *Header
	fragmentIndex int
	zeroIndex     int
	withinValue   int
}

// NewCursor returns a Cursor positioned before h's first present
// property.
func NewCursor(h *Header) *Cursor { return &Cursor{h: h} }

// Next returns the next present property's schema index and whether it
// is zero/absent, advancing past it. ok is false once every fragment
// has been consumed.
func (c *Cursor) Next() (schemaIndex int, isZero bool, ok bool) {
	for c.fragmentIndex < len(c.h.Fragments) {
		f := c.h.Fragments[c.fragmentIndex]
		if c.withinValue >= int(f.ValueNum) {
			c.fragmentIndex++
			c.withinValue = 0
			continue
		}
		idx := f.FirstNum + c.withinValue
		zero := false
		if f.HasZeros {
			if c.zeroIndex < len(c.h.ZeroMask) {
				zero = c.h.ZeroMask[c.zeroIndex]
			}
			c.zeroIndex++
		}
		c.withinValue++
		return idx, zero, true
	}
	return 0, false, false
}

// EmitFragments computes the fragment sequence and zero-mask bits for a
// class with totalCount schema properties, given the sorted-ascending
// set of schema indices actually present in the property list being
// written (present) and which of those are zero/absent values (zero).
//
// present must be sorted ascending and duplicate-free; callers resolve
// each property's schema index before calling this.
//
// When a contiguous skip or value run exceeds maxRun, the run is split
// across multiple filler fragments capped at maxRun before the real
// fragment describing the remainder is emitted — the filler fragments
// always carry HasZeros=false, matching the one reconstructable
// interpretation of the original's saturation loop (§9 open question
// #3): the zero-mask bit budget is computed only from the final,
// non-filler fragment of each run, so a run that needed splitting never
// reports zero-ness for the filler portion.
func EmitFragments(totalCount int, present []int, zero map[int]bool) ([]Fragment, []bool) {
	if len(present) == 0 {
		skip := totalCount
		if skip > maxRun {
			skip = maxRun
		}
		return []Fragment{{SkipNum: uint8(skip), ValueNum: 0, FirstNum: 0, HasZeros: false, IsLast: true}}, nil
	}

	var fragments []Fragment
	var zeroMask []bool
	lastEnd := -1 // schema index one past the previous run's end, minus one
	i, n := 0, len(present)
	for i < n {
		start := present[i]
		j := i
		for j+1 < n && present[j+1] == present[j]+1 {
			j++
		}
		end := present[j]

		skipNum := start - lastEnd - 1
		for skipNum > maxRun {
			fragments = append(fragments, Fragment{SkipNum: maxRun, ValueNum: 0})
			skipNum -= maxRun
		}

		valueNum := end - start + 1
		first := start
		for valueNum > maxRun {
			fragments = append(fragments, Fragment{SkipNum: uint8(skipNum), ValueNum: maxRun, FirstNum: first, HasZeros: false})
			skipNum = 0
			valueNum -= maxRun
			first += maxRun
		}
		runHasZeros := false
		for idx := first; idx < first+valueNum; idx++ {
			if zero[idx] {
				runHasZeros = true
				break
			}
		}

		fragments = append(fragments, Fragment{SkipNum: uint8(skipNum), ValueNum: uint8(valueNum), FirstNum: first, HasZeros: runHasZeros})
		if runHasZeros {
			for idx := first; idx < first+valueNum; idx++ {
				zeroMask = append(zeroMask, zero[idx])
			}
		}

		lastEnd = end
		i = j + 1
	}

	fragments[len(fragments)-1].IsLast = true
	return fragments, zeroMask
}
