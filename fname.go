// Copyright 2024 The uasset Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package uasset

import "fmt"

// FName is the on-disk representation of an engine name: an index into
// the package's NameMap plus an instance number (the "_0", "_1" suffix
// UE appends to disambiguate repeated names). Two FNames compare equal
// by content (name text + number), not by index, since the same text can
// legally occupy more than one name-map slot.
type FName struct {
	nameMap *NameMap
	index   int32
	Number  int32
}

// NewFName interns value into m (reusing an existing entry unless
// forceDuplicate is set) and returns the resulting FName.
func NewFName(m *NameMap, value string, number int32, forceDuplicate bool) FName {
	return FName{nameMap: m, index: int32(m.Add(value, forceDuplicate)), Number: number}
}

// FNameFromIndex wraps an already-resolved name-map index, as produced by
// reading a package's on-disk (i32, i32) pair.
func FNameFromIndex(m *NameMap, index, number int32) FName {
	return FName{nameMap: m, index: index, Number: number}
}

// Index returns the underlying name-map index.
func (n FName) Index() int32 { return n.index }

// Text returns the name's underlying text, without the instance suffix
// String appends — the form callers need when re-interning an FName
// read out of one package's name map into another's.
func (n FName) Text() string {
	text, _ := n.nameMap.Get(int(n.index))
	return text
}

// String returns the name's text, with its instance suffix when Number
// is non-zero (matching the engine's own FName::ToString convention).
func (n FName) String() string {
	text, _ := n.nameMap.Get(int(n.index))
	if n.Number == 0 {
		return text
	}
	return fmt.Sprintf("%s_%d", text, n.Number-1)
}

// Equal compares two FNames by content: the text each resolves to in its
// (possibly different) name map, plus the instance number.
func (n FName) Equal(other FName) bool {
	a, _ := n.nameMap.Get(int(n.index))
	b, _ := other.nameMap.Get(int(other.index))
	return a == b && n.Number == other.Number
}

// IsNone reports whether n resolves to the sentinel name "None", used to
// terminate tagged-property streams and to mark an absent outer/class.
func (n FName) IsNone() bool {
	text, ok := n.nameMap.Get(int(n.index))
	return !ok || text == "None"
}
