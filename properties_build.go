// Copyright 2024 The uasset Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package uasset

import "github.com/google/uuid"

// NewPropertyTag builds the tag framing for a synthesized property. A
// zero GUID with HasPropertyGUID set matches the all-zero
// property_guid every fabricated property in persistent_actors.rs
// carries, rather than leaving the tag's GUID absent.
func NewPropertyTag(name FName) PropertyTag {
	return PropertyTag{Name: name, HasPropertyGUID: true, PropertyGUID: uuid.Nil}
}

// NewBoolProperty builds a synthesized BoolProperty, for callers outside
// this package (the level-embed transformation) that need to fabricate
// property lists rather than parse them off the wire.
func NewBoolProperty(name FName, value bool) *BoolProperty {
	return &BoolProperty{tag: NewPropertyTag(name), Value: value}
}

// NewObjectProperty builds a synthesized ObjectProperty.
func NewObjectProperty(name FName, value PackageIndex) *ObjectProperty {
	return &ObjectProperty{tag: NewPropertyTag(name), Value: value}
}

// NewNameProperty builds a synthesized NameProperty.
func NewNameProperty(name FName, value FName) *NameProperty {
	return &NameProperty{tag: NewPropertyTag(name), Value: value}
}

// NewEnumProperty builds a synthesized EnumProperty.
func NewEnumProperty(name, enumType, value FName) *EnumProperty {
	return &EnumProperty{tag: NewPropertyTag(name), EnumType: enumType, Value: value}
}

// NewArrayProperty builds a synthesized ArrayProperty over elements all
// sharing innerType.
func NewArrayProperty(name, innerType FName, elements []Property) *ArrayProperty {
	return &ArrayProperty{tag: NewPropertyTag(name), InnerType: innerType, Elements: elements}
}
