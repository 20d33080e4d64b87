// Copyright 2024 The uasset Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package uasset

// PackageIndex is the signed 32-bit reference used throughout the
// container format to point at either an import or an export without
// tagging which: zero means null, a positive value N means export N-1,
// a negative value N means import -N-1.
type PackageIndex int32

// NullIndex is the zero value denoting "no reference".
const NullIndex PackageIndex = 0

// ExportIndex builds a PackageIndex referring to the export at the given
// zero-based slot.
func ExportIndex(i int) PackageIndex { return PackageIndex(i + 1) }

// ImportIndex builds a PackageIndex referring to the import at the given
// zero-based slot.
func ImportIndex(i int) PackageIndex { return PackageIndex(-i - 1) }

// IsNull reports whether p refers to nothing.
func (p PackageIndex) IsNull() bool { return p == NullIndex }

// IsExport reports whether p refers to an export.
func (p PackageIndex) IsExport() bool { return p > 0 }

// IsImport reports whether p refers to an import.
func (p PackageIndex) IsImport() bool { return p < 0 }

// ExportSlot returns the zero-based export slot p refers to. Only valid
// when IsExport is true.
func (p PackageIndex) ExportSlot() int { return int(p) - 1 }

// ImportSlot returns the zero-based import slot p refers to. Only valid
// when IsImport is true.
func (p PackageIndex) ImportSlot() int { return int(-p) - 1 }
