// Copyright 2024 The uasset Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package uasset

import "testing"

func TestPackageIndexNull(t *testing.T) {
	if !NullIndex.IsNull() {
		t.Fatalf("NullIndex.IsNull() = false")
	}
	if NullIndex.IsExport() || NullIndex.IsImport() {
		t.Fatalf("NullIndex classified as an export or import")
	}
}

func TestPackageIndexExport(t *testing.T) {
	p := ExportIndex(4)
	if !p.IsExport() {
		t.Fatalf("ExportIndex(4).IsExport() = false")
	}
	if p.IsImport() || p.IsNull() {
		t.Fatalf("ExportIndex(4) misclassified as import or null")
	}
	if got := p.ExportSlot(); got != 4 {
		t.Fatalf("ExportSlot() = %d, want 4", got)
	}
}

func TestPackageIndexImport(t *testing.T) {
	p := ImportIndex(7)
	if !p.IsImport() {
		t.Fatalf("ImportIndex(7).IsImport() = false")
	}
	if p.IsExport() || p.IsNull() {
		t.Fatalf("ImportIndex(7) misclassified as export or null")
	}
	if got := p.ImportSlot(); got != 7 {
		t.Fatalf("ImportSlot() = %d, want 7", got)
	}
}

func TestPackageIndexRoundTripsSlotZero(t *testing.T) {
	// Slot zero is the edge case worth pinning down explicitly: it's the
	// only slot whose ExportIndex/ImportIndex encodings (1 and -1) sit
	// right next to the null sentinel (0).
	if got := ExportIndex(0); got.ExportSlot() != 0 || got.IsNull() {
		t.Fatalf("ExportIndex(0) = %d, want slot 0 and non-null", got)
	}
	if got := ImportIndex(0); got.ImportSlot() != 0 || got.IsNull() {
		t.Fatalf("ImportIndex(0) = %d, want slot 0 and non-null", got)
	}
}
