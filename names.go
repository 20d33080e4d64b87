// Copyright 2024 The uasset Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package uasset

import (
	"hash/crc32"
	"strings"

	"github.com/astromodkit/uasset/wire"
)

// nameEntry is one row of the name map: the string itself plus the
// optional non-canonical hash an input package recorded for it. Most
// entries don't carry an override; it exists purely so an odd input that
// used a non-standard hash still round-trips byte-for-byte (§4.2).
type nameEntry struct {
	value       string
	hashOverride uint32
	hasOverride  bool
}

// NameMap is the package-wide string table shared by the header, import
// table, export table, and every property tag. It is insertion-ordered
// for writing and content-addressed for lookups, mirroring the engine's
// own FNameEntry table.
type NameMap struct {
	entries []nameEntry
	index   map[string]int
}

// NewNameMap returns an empty name map.
func NewNameMap() *NameMap {
	return &NameMap{index: make(map[string]int)}
}

// Search returns the index of name, if present.
func (m *NameMap) Search(name string) (int, bool) {
	i, ok := m.index[name]
	return i, ok
}

// Add inserts name and returns its index. When forceDuplicate is false and
// an identical entry already exists, the existing index is reused instead
// of appending a new row.
func (m *NameMap) Add(name string, forceDuplicate bool) int {
	if !forceDuplicate {
		if i, ok := m.index[name]; ok {
			return i
		}
	}
	i := len(m.entries)
	m.entries = append(m.entries, nameEntry{value: name})
	if _, ok := m.index[name]; !ok {
		m.index[name] = i
	}
	return i
}

// Get returns the string stored at index.
func (m *NameMap) Get(index int) (string, bool) {
	if index < 0 || index >= len(m.entries) {
		return "", false
	}
	return m.entries[index].value, true
}

// Len returns the number of entries in the map.
func (m *NameMap) Len() int { return len(m.entries) }

// SetHashOverride records a non-canonical hash for the entry at index, so
// a re-serialized package preserves whatever hash the source file used
// instead of recomputing the canonical one.
func (m *NameMap) SetHashOverride(index int, hash uint32) {
	if index < 0 || index >= len(m.entries) {
		return
	}
	m.entries[index].hashOverride = hash
	m.entries[index].hasOverride = true
}

// Hash returns the 32-bit hash that should be written for the entry at
// index: the recorded override if one exists, otherwise the canonical
// lowercased-UTF16 CRC32.
func (m *NameMap) Hash(index int) uint32 {
	e := m.entries[index]
	if e.hasOverride {
		return e.hashOverride
	}
	return NameHash(e.value)
}

// NameHash computes the engine's canonical name hash: a CRC32 (IEEE
// polynomial) over the lowercased name re-expanded to UTF-16LE code
// units, matching the way FNameEntry hashes are computed.
func NameHash(name string) uint32 {
	lower := strings.ToLower(name)
	buf := make([]byte, 0, len(lower)*2)
	for _, r := range lower {
		if r > 0xFFFF {
			// Outside the BMP; the engine's own name table never stores
			// surrogate pairs for FName content, so this never occurs
			// for valid input names.
			r = '?'
		}
		buf = append(buf, byte(r), byte(r>>8))
	}
	return crc32.ChecksumIEEE(buf)
}

// Entries iterates the map in insertion order, the order a write pass
// must emit them in.
func (m *NameMap) Entries() []string {
	out := make([]string, len(m.entries))
	for i, e := range m.entries {
		out[i] = e.value
	}
	return out
}

// ReadNameMap reads count name-map rows from r: an FString, followed by a
// trailing hash u32 when FeatureNameHashesSerialized is present and the
// string is non-empty (§4.3 step 10, §4.2).
func ReadNameMap(r *wire.Reader, vc VersionContainer, count int32) (*NameMap, error) {
	m := NewNameMap()
	hashesGated := vc.FeaturePresent(FeatureNameHashesSerialized)
	for i := int32(0); i < count; i++ {
		s, err := r.FString()
		if err != nil {
			return nil, err
		}
		idx := m.Add(s, true)
		if hashesGated && s != "" {
			hash, err := r.U32()
			if err != nil {
				return nil, err
			}
			if hash != NameHash(s) {
				m.SetHashOverride(idx, hash)
			}
		}
	}
	return m, nil
}

// WriteNameMap writes m's entries back out in insertion order, mirroring
// the field layout ReadNameMap expects.
func WriteNameMap(w *wire.Writer, vc VersionContainer, m *NameMap) error {
	hashesGated := vc.FeaturePresent(FeatureNameHashesSerialized)
	for i, e := range m.entries {
		if err := w.FString(e.value); err != nil {
			return err
		}
		if hashesGated && e.value != "" {
			w.U32(m.Hash(i))
		}
	}
	return nil
}
