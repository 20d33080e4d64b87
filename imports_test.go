// Copyright 2024 The uasset Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package uasset

import (
	"testing"

	"github.com/astromodkit/uasset/wire"
)

func TestImportRoundTrip(t *testing.T) {
	m := NewNameMap()
	imp := Import{
		ClassPackage: NewFName(m, "/Script/CoreUObject", 0, false),
		ClassName:    NewFName(m, "Package", 0, false),
		Outer:        NullIndex,
		ObjectName:   NewFName(m, "/Game/Foo", 0, false),
		Optional:     true,
	}

	w := wire.NewWriter()
	if err := imp.Write(w, true); err != nil {
		t.Fatalf("Write: %v", err)
	}

	r := wire.NewReader(w.Bytes())
	got, err := ReadImport(r, m, true)
	if err != nil {
		t.Fatalf("ReadImport: %v", err)
	}
	if !got.Equal(imp) || got.Optional != imp.Optional {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, imp)
	}
}

func TestImportRoundTripWithoutOptionalField(t *testing.T) {
	m := NewNameMap()
	imp := Import{
		ClassPackage: NewFName(m, "/Script/Engine", 0, false),
		ClassName:    NewFName(m, "BlueprintGeneratedClass", 0, false),
		Outer:        ImportIndex(0),
		ObjectName:   NewFName(m, "BP_Thing_C", 0, false),
	}

	w := wire.NewWriter()
	if err := imp.Write(w, false); err != nil {
		t.Fatalf("Write: %v", err)
	}
	r := wire.NewReader(w.Bytes())
	got, err := ReadImport(r, m, false)
	if err != nil {
		t.Fatalf("ReadImport: %v", err)
	}
	if !got.Equal(imp) {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, imp)
	}
}

func TestFindImportDedup(t *testing.T) {
	m := NewNameMap()
	a := Import{
		ClassPackage: NewFName(m, "/Script/CoreUObject", 0, false),
		ClassName:    NewFName(m, "Package", 0, false),
		Outer:        NullIndex,
		ObjectName:   NewFName(m, "/Game/Foo", 0, false),
	}
	b := Import{
		ClassPackage: NewFName(m, "/Script/CoreUObject", 0, false),
		ClassName:    NewFName(m, "Package", 0, false),
		Outer:        NullIndex,
		ObjectName:   NewFName(m, "/Game/Foo", 0, false),
	}
	imports := []Import{a}
	idx, ok := FindImport(imports, b)
	if !ok || idx != 0 {
		t.Fatalf("FindImport = %d, %v, want 0, true for a content-equal import", idx, ok)
	}

	c := Import{
		ClassPackage: NewFName(m, "/Script/CoreUObject", 0, false),
		ClassName:    NewFName(m, "Package", 0, false),
		Outer:        NullIndex,
		ObjectName:   NewFName(m, "/Game/Bar", 0, false),
	}
	if _, ok := FindImport(imports, c); ok {
		t.Fatalf("FindImport matched an import with a different object name")
	}
}
