// Copyright 2024 The uasset Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package uasset

import (
	"testing"

	"github.com/google/uuid"
)

// buildTestPackage constructs a minimal, self-consistent Package in
// memory: one import, one Normal export carrying a single BoolProperty,
// and the event-driven preload-dependency blob (the chosen ObjectVersion
// sits past VerUE4PreloadDependenciesInCookedExports but below the UE5
// ladder, so Serialize/readFrom exercise that blob without also pulling
// in any UE5-only header field).
func buildTestPackage(t *testing.T) *Package {
	t.Helper()

	vc := VersionContainer{FileVersion: VerUE4NamesReferencedFromExportData}
	names := NewNameMap()

	// "None" must occupy name-map index 0: the property-list terminator
	// (WritePropertyList) always writes the raw (index 0, number 0) pair
	// rather than looking the text up, matching every real asset's own
	// name-map layout.
	names.Add("None", false)

	imp := Import{
		ClassPackage: NewFName(names, "/Script/CoreUObject", 0, false),
		ClassName:    NewFName(names, "Package", 0, false),
		Outer:        NullIndex,
		ObjectName:   NewFName(names, "/Script/Engine", 0, false),
	}

	prop := NewBoolProperty(NewFName(names, "bHidden", 0, false), true)

	export := &Export{
		BaseExport: BaseExport{
			ClassIndex:    NullIndex,
			SuperIndex:    NullIndex,
			TemplateIndex: NullIndex,
			OuterIndex:    NullIndex,
			ObjectName:    NewFName(names, "Thing", 0, false),
			Flags:         0,
		},
		Payload: &NormalPayload{Properties: []Property{prop}},
	}

	summary := &PackageSummary{
		LegacyFileVersion:   -4,
		FileLicenseeVersion: 0,
		FolderName:          "None",
		PackageGUID:         uuid.New(),
		EngineVersionRecorded:   FEngineVersion{Major: 4, Minor: 27, Patch: 2, Changelist: 1, Branch: "++UE4+Release-4.27"},
		EngineVersionCompatible: FEngineVersion{Major: 4, Minor: 27, Patch: 2, Changelist: 1, Branch: "++UE4+Release-4.27"},
	}

	return &Package{
		Version: vc,
		Summary: summary,
		Names:   names,
		Imports: []Import{imp},
		Exports: []*Export{export},
	}
}

func TestPackageSerializeRoundTrip(t *testing.T) {
	p := buildTestPackage(t)

	out, err := p.Serialize()
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}

	got, err := OpenBytes(out, nil, VersionContainer{FileVersion: UnknownVersion}, nil)
	if err != nil {
		t.Fatalf("OpenBytes: %v", err)
	}

	if got.Names.Len() != p.Names.Len() {
		t.Fatalf("Names.Len() = %d, want %d", got.Names.Len(), p.Names.Len())
	}
	if len(got.Imports) != 1 {
		t.Fatalf("len(Imports) = %d, want 1", len(got.Imports))
	}
	if got.Imports[0].ObjectName.String() != "/Script/Engine" {
		t.Fatalf("Imports[0].ObjectName = %q, want \"/Script/Engine\"", got.Imports[0].ObjectName.String())
	}
	if len(got.Exports) != 1 {
		t.Fatalf("len(Exports) = %d, want 1", len(got.Exports))
	}
	if got.Exports[0].ObjectName.String() != "Thing" {
		t.Fatalf("Exports[0].ObjectName = %q, want \"Thing\"", got.Exports[0].ObjectName.String())
	}

	payload, ok := got.Exports[0].Payload.(*NormalPayload)
	if !ok {
		t.Fatalf("Exports[0].Payload = %T, want *NormalPayload", got.Exports[0].Payload)
	}
	if len(payload.Properties) != 1 {
		t.Fatalf("len(Properties) = %d, want 1", len(payload.Properties))
	}
	boolProp, ok := payload.Properties[0].(*BoolProperty)
	if !ok {
		t.Fatalf("Properties[0] = %T, want *BoolProperty", payload.Properties[0])
	}
	if boolProp.Tag().Name.String() != "bHidden" || !boolProp.Value {
		t.Fatalf("BoolProperty = %+v, want bHidden=true", boolProp)
	}
	if got.Warnings != nil {
		t.Fatalf("unexpected warnings: %v", got.Warnings)
	}
}

func TestPackageSerializeTwiceIsStable(t *testing.T) {
	p := buildTestPackage(t)

	first, err := p.Serialize()
	if err != nil {
		t.Fatalf("first Serialize: %v", err)
	}
	second, err := p.Serialize()
	if err != nil {
		t.Fatalf("second Serialize: %v", err)
	}
	if len(first) != len(second) {
		t.Fatalf("serializing an already-serialized Package changed its length: %d != %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("serializing an already-serialized Package changed byte %d", i)
		}
	}
}
