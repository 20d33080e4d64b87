// Copyright 2024 The uasset Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package uasset

// ObjectFlags is the EObjectFlags bitset carried on every export.
type ObjectFlags uint32

// Object flag bits actually consulted by the codec or the transform
// engine; the rest of the engine's ladder is preserved opaquely inside
// the raw ObjectFlags value.
const (
	RFNoFlags             ObjectFlags = 0x00000000
	RFPublic              ObjectFlags = 0x00000001
	RFStandalone          ObjectFlags = 0x00000002
	RFTransactional        ObjectFlags = 0x00000008
	RFClassDefaultObject  ObjectFlags = 0x00000010
	RFArchetypeObject     ObjectFlags = 0x00000020
	RFTransient           ObjectFlags = 0x00000040
	RFWasLoaded           ObjectFlags = 0x00080000
	RFLoadCompleted       ObjectFlags = 0x00200000
)

// Has reports whether every bit in mask is set on f.
func (f ObjectFlags) Has(mask ObjectFlags) bool { return f&mask == mask }

// PackageFlags is the EPackageFlags bitset carried in the header.
type PackageFlags uint32

// Package flag bits the codec branches on.
const (
	PkgNone                 PackageFlags = 0x00000000
	PkgClientOptional       PackageFlags = 0x00000002
	PkgServerSideOnly       PackageFlags = 0x00000004
	PkgCompiledIn           PackageFlags = 0x00000010
	PkgUnversionedProperties PackageFlags = 0x00002000
	PkgContainsMapData      PackageFlags = 0x00004000
	PkgContainsMap          PackageFlags = 0x00020000
	PkgContainsScript       PackageFlags = 0x00200000
	PkgFilterEditorOnly     PackageFlags = 0x80000000
)

// Has reports whether every bit in mask is set on f.
func (f PackageFlags) Has(mask PackageFlags) bool { return f&mask == mask }

// HasUnversionedProperties reports whether exports in this package must
// be decoded with the unversioned (schema-driven) property codec instead
// of the versioned tag-framed one (§4.4).
func (f PackageFlags) HasUnversionedProperties() bool { return f.Has(PkgUnversionedProperties) }
