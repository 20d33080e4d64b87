// Copyright 2024 The uasset Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package wire

import (
	"testing"

	"github.com/google/uuid"
)

func TestScalarRoundTrip(t *testing.T) {
	w := NewWriter()
	w.U8(0xAB)
	w.Bool(true)
	w.I16(-1234)
	w.U32(0xCAFEBABE)
	w.I64(-9876543210)
	w.F32(3.5)
	w.F64(-2.25)

	r := NewReader(w.Bytes())
	if v, err := r.U8(); err != nil || v != 0xAB {
		t.Fatalf("U8() = %x, %v, want 0xAB, nil", v, err)
	}
	if v, err := r.Bool(); err != nil || !v {
		t.Fatalf("Bool() = %v, %v, want true, nil", v, err)
	}
	if v, err := r.I16(); err != nil || v != -1234 {
		t.Fatalf("I16() = %d, %v, want -1234, nil", v, err)
	}
	if v, err := r.U32(); err != nil || v != 0xCAFEBABE {
		t.Fatalf("U32() = %x, %v, want 0xCAFEBABE, nil", v, err)
	}
	if v, err := r.I64(); err != nil || v != -9876543210 {
		t.Fatalf("I64() = %d, %v, want -9876543210, nil", v, err)
	}
	if v, err := r.F32(); err != nil || v != 3.5 {
		t.Fatalf("F32() = %v, %v, want 3.5, nil", v, err)
	}
	if v, err := r.F64(); err != nil || v != -2.25 {
		t.Fatalf("F64() = %v, %v, want -2.25, nil", v, err)
	}
}

func TestMagicBE(t *testing.T) {
	w := NewWriter()
	w.MagicBE(0xC1832A9E)
	r := NewReader(w.Bytes())
	ok, err := r.MagicBE(0xC1832A9E)
	if err != nil || !ok {
		t.Fatalf("MagicBE() = %v, %v, want true, nil", ok, err)
	}

	r2 := NewReader(w.Bytes())
	ok, err = r2.MagicBE(0x11223344)
	if err != nil || ok {
		t.Fatalf("MagicBE() matched the wrong value")
	}
}

func TestGUIDRoundTrip(t *testing.T) {
	want := uuid.New()
	w := NewWriter()
	w.GUID(want)
	r := NewReader(w.Bytes())
	got, err := r.GUID()
	if err != nil {
		t.Fatalf("GUID(): %v", err)
	}
	if got != want {
		t.Fatalf("GUID round trip = %v, want %v", got, want)
	}
}

func TestFStringASCIIRoundTrip(t *testing.T) {
	w := NewWriter()
	if err := w.FString("Hello"); err != nil {
		t.Fatalf("FString(\"Hello\"): %v", err)
	}
	r := NewReader(w.Bytes())
	got, err := r.FString()
	if err != nil {
		t.Fatalf("FString(): %v", err)
	}
	if got != "Hello" {
		t.Fatalf("FString round trip = %q, want %q", got, "Hello")
	}
}

func TestFStringEmptyRoundTrip(t *testing.T) {
	w := NewWriter()
	if err := w.FString(""); err != nil {
		t.Fatalf("FString(\"\"): %v", err)
	}
	r := NewReader(w.Bytes())
	got, err := r.FString()
	if err != nil || got != "" {
		t.Fatalf("FString() = %q, %v, want \"\", nil", got, err)
	}
}

func TestFStringUnicodeRoundTrip(t *testing.T) {
	w := NewWriter()
	if err := w.FString("Café"); err != nil {
		t.Fatalf("FString(\"Café\"): %v", err)
	}
	r := NewReader(w.Bytes())
	got, err := r.FString()
	if err != nil {
		t.Fatalf("FString(): %v", err)
	}
	if got != "Café" {
		t.Fatalf("FString round trip = %q, want %q", got, "Café")
	}
}

func TestSeekOutOfBounds(t *testing.T) {
	w := NewWriter()
	w.U32(1)
	if err := w.Seek(-1); err == nil {
		t.Fatalf("Seek(-1) succeeded, want an error")
	}
}

func TestReaderBytesOutsideBoundary(t *testing.T) {
	r := NewReader([]byte{1, 2, 3})
	if _, err := r.Bytes(10); err != ErrOutsideBoundary {
		t.Fatalf("Bytes(10) over a 3-byte buffer = %v, want ErrOutsideBoundary", err)
	}
}

func TestSplitReaderStraddlesBoundary(t *testing.T) {
	primary := []byte{1, 2, 3}
	bulk := []byte{4, 5, 6}
	r := NewSplitReader(primary, bulk)
	if err := r.Seek(2); err != nil {
		t.Fatalf("Seek(2): %v", err)
	}
	got, err := r.Bytes(3)
	if err != nil {
		t.Fatalf("Bytes(3) across primary/bulk boundary: %v", err)
	}
	want := []byte{3, 4, 5}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Bytes(3) = %v, want %v", got, want)
		}
	}
}
