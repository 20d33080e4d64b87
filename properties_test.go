// Copyright 2024 The uasset Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package uasset

import (
	"testing"

	"github.com/astromodkit/uasset/wire"
)

// roundTripProperty writes p with WriteTaggedProperty and reads it back
// with ReadTaggedProperty, returning the decoded property.
func roundTripProperty(t *testing.T, m *NameMap, vc VersionContainer, p Property) Property {
	t.Helper()
	w := wire.NewWriter()
	if err := WriteTaggedProperty(w, m, vc, p); err != nil {
		t.Fatalf("WriteTaggedProperty: %v", err)
	}
	r := wire.NewReader(w.Bytes())
	got, err := ReadTaggedProperty(r, m, vc)
	if err != nil {
		t.Fatalf("ReadTaggedProperty: %v", err)
	}
	return got
}

func TestBoolPropertyRoundTripWithGUIDGate(t *testing.T) {
	// VerUE4PropertyGuidInPropertyTag is present at this version, so this
	// exercises the write-before/read-after-GUID ordering BoolProperty's
	// inline value depends on getting right.
	vc := VersionContainer{FileVersion: VerUE4AutomaticVersion}
	m := NewNameMap()
	p := NewBoolProperty(NewFName(m, "bHidden", 0, false), true)

	got, ok := roundTripProperty(t, m, vc, p).(*BoolProperty)
	if !ok {
		t.Fatalf("round trip type = %T, want *BoolProperty", got)
	}
	if !got.Value {
		t.Fatalf("Value = false, want true")
	}
	if got.Tag().Name.String() != "bHidden" {
		t.Fatalf("Tag().Name = %q, want \"bHidden\"", got.Tag().Name.String())
	}
}

func TestBoolPropertyRoundTripWithoutGUIDGate(t *testing.T) {
	vc := VersionContainer{FileVersion: VerUE4OldestLoadablePackage}
	m := NewNameMap()
	p := NewBoolProperty(NewFName(m, "bNetAddressable", 0, false), false)

	got, ok := roundTripProperty(t, m, vc, p).(*BoolProperty)
	if !ok {
		t.Fatalf("round trip type = %T, want *BoolProperty", got)
	}
	if got.Value {
		t.Fatalf("Value = true, want false")
	}
}

func TestObjectPropertyRoundTrip(t *testing.T) {
	vc := VersionContainer{FileVersion: VerUE4AutomaticVersion}
	m := NewNameMap()
	p := NewObjectProperty(NewFName(m, "AttachParent", 0, false), ExportIndex(3))

	got, ok := roundTripProperty(t, m, vc, p).(*ObjectProperty)
	if !ok {
		t.Fatalf("round trip type = %T, want *ObjectProperty", got)
	}
	if got.Value != ExportIndex(3) {
		t.Fatalf("Value = %d, want %d", got.Value, ExportIndex(3))
	}
}

func TestNamePropertyRoundTrip(t *testing.T) {
	vc := VersionContainer{FileVersion: VerUE4AutomaticVersion}
	m := NewNameMap()
	p := NewNameProperty(NewFName(m, "InternalVariableName", 0, false), NewFName(m, "DefaultSceneRoot", 0, false))

	got, ok := roundTripProperty(t, m, vc, p).(*NameProperty)
	if !ok {
		t.Fatalf("round trip type = %T, want *NameProperty", got)
	}
	if got.Value.String() != "DefaultSceneRoot" {
		t.Fatalf("Value = %q, want \"DefaultSceneRoot\"", got.Value.String())
	}
}

func TestEnumPropertyRoundTrip(t *testing.T) {
	vc := VersionContainer{FileVersion: VerUE4AutomaticVersion}
	m := NewNameMap()
	p := NewEnumProperty(
		NewFName(m, "CreationMethod", 0, false),
		NewFName(m, "EComponentCreationMethod", 0, false),
		NewFName(m, "EComponentCreationMethod::SimpleConstructionScript", 0, false),
	)

	got, ok := roundTripProperty(t, m, vc, p).(*EnumProperty)
	if !ok {
		t.Fatalf("round trip type = %T, want *EnumProperty", got)
	}
	if got.EnumType.String() != "EComponentCreationMethod" {
		t.Fatalf("EnumType = %q, want \"EComponentCreationMethod\"", got.EnumType.String())
	}
	if got.Value.String() != "EComponentCreationMethod::SimpleConstructionScript" {
		t.Fatalf("Value = %q, want \"EComponentCreationMethod::SimpleConstructionScript\"", got.Value.String())
	}
}

func TestArrayPropertyOfObjectsRoundTrip(t *testing.T) {
	vc := VersionContainer{FileVersion: VerUE4AutomaticVersion}
	m := NewNameMap()
	elements := []Property{
		NewObjectProperty(NewFName(m, "BlueprintCreatedComponents", 0, false), ExportIndex(1)),
		NewObjectProperty(NewFName(m, "BlueprintCreatedComponents", 0, false), ExportIndex(2)),
	}
	p := NewArrayProperty(NewFName(m, "BlueprintCreatedComponents", 0, false), NewFName(m, "ObjectProperty", 0, false), elements)

	got, ok := roundTripProperty(t, m, vc, p).(*ArrayProperty)
	if !ok {
		t.Fatalf("round trip type = %T, want *ArrayProperty", got)
	}
	if len(got.Elements) != 2 {
		t.Fatalf("len(Elements) = %d, want 2", len(got.Elements))
	}
	for i, want := range []PackageIndex{ExportIndex(1), ExportIndex(2)} {
		op, ok := got.Elements[i].(*ObjectProperty)
		if !ok {
			t.Fatalf("Elements[%d] = %T, want *ObjectProperty", i, got.Elements[i])
		}
		if op.Value != want {
			t.Fatalf("Elements[%d].Value = %d, want %d", i, op.Value, want)
		}
	}
}

func TestPropertyListRoundTripWithNoneTerminator(t *testing.T) {
	vc := VersionContainer{FileVersion: VerUE4AutomaticVersion}
	m := NewNameMap()
	m.Add("None", false)
	props := []Property{
		NewBoolProperty(NewFName(m, "bHidden", 0, false), true),
		NewObjectProperty(NewFName(m, "RootComponent", 0, false), ExportIndex(0)),
	}

	w := wire.NewWriter()
	if err := WritePropertyList(w, m, vc, props); err != nil {
		t.Fatalf("WritePropertyList: %v", err)
	}
	r := wire.NewReader(w.Bytes())
	got, err := ReadPropertyList(r, m, vc)
	if err != nil {
		t.Fatalf("ReadPropertyList: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len(props) = %d, want 2", len(got))
	}
}
