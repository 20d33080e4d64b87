// Copyright 2024 The uasset Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package uasset

import "github.com/astromodkit/uasset/wire"

// Import is one entry of a package's import table: a reference to an
// object owned by another package, resolved by the engine's linker at
// load time. Outer chains a sequence of imports rooted at a package
// import (§3).
type Import struct {
	ClassPackage FName
	ClassName    FName
	Outer        PackageIndex
	ObjectName   FName
	// Optional records whether this import carries the version-gated
	// trailing "optional" byte some newer engine builds append.
	Optional bool
}

// ReadImport reads one import record from r, gated on whether the
// package carries the optional trailing byte.
func ReadImport(r *wire.Reader, m *NameMap, hasOptional bool) (Import, error) {
	classPackage, err := readFName(r, m)
	if err != nil {
		return Import{}, err
	}
	className, err := readFName(r, m)
	if err != nil {
		return Import{}, err
	}
	outer, err := r.I32()
	if err != nil {
		return Import{}, err
	}
	objectName, err := readFName(r, m)
	if err != nil {
		return Import{}, err
	}
	imp := Import{
		ClassPackage: classPackage,
		ClassName:    className,
		Outer:        PackageIndex(outer),
		ObjectName:   objectName,
	}
	if hasOptional {
		b, err := r.Bool()
		if err != nil {
			return Import{}, err
		}
		imp.Optional = b
	}
	return imp, nil
}

// Write serializes imp, mirroring the field order ReadImport consumes.
func (imp Import) Write(w *wire.Writer, hasOptional bool) error {
	if err := writeFName(w, imp.ClassPackage); err != nil {
		return err
	}
	if err := writeFName(w, imp.ClassName); err != nil {
		return err
	}
	w.I32(int32(imp.Outer))
	if err := writeFName(w, imp.ObjectName); err != nil {
		return err
	}
	if hasOptional {
		w.Bool(imp.Optional)
	}
	return nil
}

// readFName reads the on-disk (name_index, number) pair and resolves it
// against m.
func readFName(r *wire.Reader, m *NameMap) (FName, error) {
	index, err := r.I32()
	if err != nil {
		return FName{}, err
	}
	number, err := r.I32()
	if err != nil {
		return FName{}, err
	}
	return FNameFromIndex(m, index, number), nil
}

// writeFName writes n's on-disk (name_index, number) pair.
func writeFName(w *wire.Writer, n FName) error {
	w.I32(n.Index())
	w.I32(n.Number)
	return nil
}

// Equal reports whether two imports describe the same object by content
// — the comparison find_import uses to dedup synthesized imports (§6,
// supplemented from persistent_actors.rs's reuse-by-content behavior).
func (imp Import) Equal(other Import) bool {
	return imp.ClassPackage.Equal(other.ClassPackage) &&
		imp.ClassName.Equal(other.ClassName) &&
		imp.Outer == other.Outer &&
		imp.ObjectName.Equal(other.ObjectName)
}

// FindImport returns the index of the first import in imports equal by
// content to candidate.
func FindImport(imports []Import, candidate Import) (int, bool) {
	for i, imp := range imports {
		if imp.Equal(candidate) {
			return i, true
		}
	}
	return 0, false
}
