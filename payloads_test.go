// Copyright 2024 The uasset Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package uasset

import (
	"testing"

	"github.com/astromodkit/uasset/wire"
)

// writeAndReadPayload writes payload, then decodes it back through
// ReadExportPayload with classIndex resolving to className via a single
// import entry — exercising the same class-name dispatch a real package
// open would use.
func writeAndReadPayload(t *testing.T, vc VersionContainer, m *NameMap, className string, payload ExportPayload) ExportPayload {
	t.Helper()
	w := wire.NewWriter()
	n, err := WriteExportPayload(w, m, vc, PkgNone, nil, className, payload)
	if err != nil {
		t.Fatalf("WriteExportPayload: %v", err)
	}
	if int64(len(w.Bytes())) != n {
		t.Fatalf("WriteExportPayload returned %d, want %d matching the written buffer", n, len(w.Bytes()))
	}

	imports := []Import{{ClassName: NewFName(m, className, 0, false)}}
	r := wire.NewReader(w.Bytes())
	got, err := ReadExportPayload(r, m, vc, PkgNone, nil, ImportIndex(0), imports, nil, 0, n)
	if err != nil {
		t.Fatalf("ReadExportPayload: %v", err)
	}
	return got
}

func TestNormalPayloadRoundTrip(t *testing.T) {
	vc := VersionContainer{FileVersion: VerUE4AutomaticVersion}
	m := NewNameMap()
	m.Add("None", false)
	payload := &NormalPayload{
		Properties: []Property{NewBoolProperty(NewFName(m, "bHidden", 0, false), true)},
		Extras:     []byte{0xDE, 0xAD},
	}

	got, ok := writeAndReadPayload(t, vc, m, "SomeUnrecognizedClass", payload).(*NormalPayload)
	if !ok {
		t.Fatalf("round trip type = %T, want *NormalPayload", got)
	}
	if len(got.Properties) != 1 {
		t.Fatalf("len(Properties) = %d, want 1", len(got.Properties))
	}
	if len(got.Extras) != 2 || got.Extras[0] != 0xDE || got.Extras[1] != 0xAD {
		t.Fatalf("Extras = %v, want [0xDE 0xAD]", got.Extras)
	}
}

func TestLevelPayloadRoundTrip(t *testing.T) {
	vc := VersionContainer{FileVersion: VerUE4AutomaticVersion}
	m := NewNameMap()
	m.Add("None", false)
	payload := &LevelPayload{
		Properties: nil,
		Actors:     []PackageIndex{ExportIndex(1), ExportIndex(2), ExportIndex(3)},
		Extras:     []byte{0x01},
	}

	got, ok := writeAndReadPayload(t, vc, m, "Level", payload).(*LevelPayload)
	if !ok {
		t.Fatalf("round trip type = %T, want *LevelPayload", got)
	}
	if len(got.Actors) != 3 {
		t.Fatalf("len(Actors) = %d, want 3", len(got.Actors))
	}
	for i, want := range payload.Actors {
		if got.Actors[i] != want {
			t.Fatalf("Actors[%d] = %d, want %d", i, got.Actors[i], want)
		}
	}
	if len(got.Extras) != 1 || got.Extras[0] != 0x01 {
		t.Fatalf("Extras = %v, want [0x01]", got.Extras)
	}
}

func TestDataTablePayloadRoundTrip(t *testing.T) {
	vc := VersionContainer{FileVersion: VerUE4AutomaticVersion}
	m := NewNameMap()
	m.Add("None", false)
	payload := &DataTablePayload{
		Rows: []DataTableRow{
			{Name: NewFName(m, "Row0", 0, false), Properties: []Property{NewBoolProperty(NewFName(m, "bEnabled", 0, false), true)}},
			{Name: NewFName(m, "Row1", 0, false), Properties: nil},
		},
	}

	got, ok := writeAndReadPayload(t, vc, m, "DataTable", payload).(*DataTablePayload)
	if !ok {
		t.Fatalf("round trip type = %T, want *DataTablePayload", got)
	}
	if len(got.Rows) != 2 {
		t.Fatalf("len(Rows) = %d, want 2", len(got.Rows))
	}
	if got.Rows[0].Name.String() != "Row0" {
		t.Fatalf("Rows[0].Name = %q, want \"Row0\"", got.Rows[0].Name.String())
	}
	if len(got.Rows[0].Properties) != 1 {
		t.Fatalf("len(Rows[0].Properties) = %d, want 1", len(got.Rows[0].Properties))
	}
	if got.Rows[1].Name.String() != "Row1" {
		t.Fatalf("Rows[1].Name = %q, want \"Row1\"", got.Rows[1].Name.String())
	}
}

func TestStringTablePayloadRoundTrip(t *testing.T) {
	m := NewNameMap()
	payload := &StringTablePayload{
		TableNamespace: "MyGame",
		Entries:        map[string]string{"Key1": "Hello", "Key2": "World"},
		keyOrder:       []string{"Key1", "Key2"},
	}

	w := wire.NewWriter()
	n, err := WriteExportPayload(w, m, VersionContainer{}, PkgNone, nil, "StringTable", payload)
	if err != nil {
		t.Fatalf("WriteExportPayload: %v", err)
	}
	imports := []Import{{ClassName: NewFName(m, "StringTable", 0, false)}}
	r := wire.NewReader(w.Bytes())
	got, err := ReadExportPayload(r, m, VersionContainer{}, PkgNone, nil, ImportIndex(0), imports, nil, 0, n)
	if err != nil {
		t.Fatalf("ReadExportPayload: %v", err)
	}
	st, ok := got.(*StringTablePayload)
	if !ok {
		t.Fatalf("round trip type = %T, want *StringTablePayload", got)
	}
	if st.TableNamespace != "MyGame" {
		t.Fatalf("TableNamespace = %q, want \"MyGame\"", st.TableNamespace)
	}
	if st.Entries["Key1"] != "Hello" || st.Entries["Key2"] != "World" {
		t.Fatalf("Entries = %v, want Key1=Hello Key2=World", st.Entries)
	}
}

func TestPropertyPayloadRoundTrip(t *testing.T) {
	vc := VersionContainer{FileVersion: VerUE4AutomaticVersion}
	m := NewNameMap()
	m.Add("None", false)
	payload := &PropertyPayload{Value: NewObjectProperty(NewFName(m, "Self", 0, false), ExportIndex(0))}

	got, ok := writeAndReadPayload(t, vc, m, "UserDefinedStruct_Property", payload).(*PropertyPayload)
	if !ok {
		t.Fatalf("round trip type = %T, want *PropertyPayload", got)
	}
	op, ok := got.Value.(*ObjectProperty)
	if !ok {
		t.Fatalf("Value = %T, want *ObjectProperty", got.Value)
	}
	if op.Value != ExportIndex(0) {
		t.Fatalf("Value.Value = %d, want %d", op.Value, ExportIndex(0))
	}
}

func TestReadExportPayloadFallsBackToRawOnDecodeFailure(t *testing.T) {
	vc := VersionContainer{FileVersion: VerUE4AutomaticVersion}
	m := NewNameMap()

	// Truncated garbage: a Level payload's property list will try to read
	// a name index out of an essentially empty name map and fail, forcing
	// the documented fall-back-to-Raw behavior rather than an aborted read.
	raw := []byte{0xFF, 0xFF, 0xFF, 0x7F}
	imports := []Import{{ClassName: NewFName(m, "Level", 0, false)}}
	r := wire.NewReader(raw)
	got, err := ReadExportPayload(r, m, vc, PkgNone, nil, ImportIndex(0), imports, nil, 0, int64(len(raw)))
	if err != nil {
		t.Fatalf("ReadExportPayload: %v", err)
	}
	rp, ok := got.(*RawPayload)
	if !ok {
		t.Fatalf("payload type = %T, want *RawPayload on decode failure", got)
	}
	if len(rp.Data) != len(raw) {
		t.Fatalf("len(Data) = %d, want %d", len(rp.Data), len(raw))
	}
}

func TestNormalPayloadUnversionedRoundTrip(t *testing.T) {
	vc := VersionContainer{FileVersion: VerUE4AutomaticVersion}
	m := NewNameMap()
	m.Add("None", false)

	mappings := StaticMappings{
		"BP_Thing_C": ClassSchema{
			Properties: []PropertySchema{
				{Name: "bHidden", Type: "BoolProperty"},
				{Name: "Health", Type: "IntProperty"},
				{Name: "DisplayName", Type: "StrProperty"},
			},
		},
	}

	// Health (index 1) is carried as an explicit EmptyProperty, so it
	// round-trips via the fragment header's zero mask rather than a
	// written IntProperty payload.
	payload := &NormalPayload{
		Properties: []Property{
			NewBoolProperty(NewFName(m, "bHidden", 0, false), true),
			newEmptyProperty(PropertyTag{Name: NewFName(m, "Health", 0, false)}, "IntProperty"),
			&StrProperty{tag: PropertyTag{Name: NewFName(m, "DisplayName", 0, false)}, Value: "Widget"},
		},
		Extras: []byte{0x01, 0x02},
	}

	w := wire.NewWriter()
	n, err := WriteExportPayload(w, m, vc, PkgUnversionedProperties, mappings, "BP_Thing_C", payload)
	if err != nil {
		t.Fatalf("WriteExportPayload: %v", err)
	}

	imports := []Import{{ClassName: NewFName(m, "BP_Thing_C", 0, false)}}
	r := wire.NewReader(w.Bytes())
	got, err := ReadExportPayload(r, m, vc, PkgUnversionedProperties, mappings, ImportIndex(0), imports, nil, 0, n)
	if err != nil {
		t.Fatalf("ReadExportPayload: %v", err)
	}
	np, ok := got.(*NormalPayload)
	if !ok {
		t.Fatalf("round trip type = %T, want *NormalPayload", got)
	}
	if len(np.Properties) != 3 {
		t.Fatalf("len(Properties) = %d, want 3 (bHidden, Health as EmptyProperty, DisplayName)", len(np.Properties))
	}

	var sawHidden, sawName bool
	var sawEmptyHealth bool
	for _, p := range np.Properties {
		switch p.Tag().Name.String() {
		case "bHidden":
			sawHidden = true
			if bp, ok := p.(*BoolProperty); !ok || !bp.Value {
				t.Fatalf("bHidden = %+v, want BoolProperty{true}", p)
			}
		case "Health":
			if ep, ok := p.(*EmptyProperty); !ok || ep.DeclaredType != "IntProperty" {
				t.Fatalf("Health = %+v, want EmptyProperty{IntProperty}", p)
			}
			sawEmptyHealth = true
		case "DisplayName":
			sawName = true
			if sp, ok := p.(*StrProperty); !ok || sp.Value != "Widget" {
				t.Fatalf("DisplayName = %+v, want StrProperty{\"Widget\"}", p)
			}
		}
	}
	if !sawHidden || !sawName || !sawEmptyHealth {
		t.Fatalf("Properties = %+v, missing an expected entry", np.Properties)
	}
	if len(np.Extras) != 2 || np.Extras[0] != 0x01 || np.Extras[1] != 0x02 {
		t.Fatalf("Extras = %v, want [0x01 0x02]", np.Extras)
	}
}

func TestReadExportPayloadUnrecognizedClassUsesNormal(t *testing.T) {
	vc := VersionContainer{FileVersion: VerUE4AutomaticVersion}
	m := NewNameMap()
	m.Add("None", false)
	w := wire.NewWriter()
	if err := writeFName(w, FName{}); err != nil {
		t.Fatalf("writeFName: %v", err)
	}

	imports := []Import{{ClassName: NewFName(m, "SomeNonStructuredThing", 0, false)}}
	r := wire.NewReader(w.Bytes())
	got, err := ReadExportPayload(r, m, vc, PkgNone, nil, ImportIndex(0), imports, nil, 0, int64(len(w.Bytes())))
	if err != nil {
		t.Fatalf("ReadExportPayload: %v", err)
	}
	if _, ok := got.(*NormalPayload); !ok {
		t.Fatalf("payload type = %T, want *NormalPayload for an unrecognized class", got)
	}
}
