// Copyright 2024 The uasset Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package uasset

import (
	"github.com/astromodkit/uasset/wire"
	"github.com/google/uuid"
)

// ExportReadOptions carries the version-derived gates BaseExport's
// read/write need, computed once per package instead of re-deriving them
// per export.
type ExportReadOptions struct {
	Version                VersionContainer
	HasTemplateIndex       bool
	Has64BitSerialSizes    bool
	HasUE5ExportFlags      bool
	HasPreloadDependencies bool
}

// NewExportReadOptions derives the per-package export gates from vc.
func NewExportReadOptions(vc VersionContainer, hasPreloadDependencies bool) ExportReadOptions {
	return ExportReadOptions{
		Version:                vc,
		HasTemplateIndex:       vc.FeaturePresent(FeatureTemplateIndexInCookedExports),
		Has64BitSerialSizes:    vc.FeaturePresent(Feature64BitExportmapSerialsizes),
		HasUE5ExportFlags:      vc.FeaturePresent(FeatureDataResources),
		HasPreloadDependencies: hasPreloadDependencies,
	}
}

// BaseExport is the fixed-layout header every export record carries
// ahead of its class-specific payload (§3).
type BaseExport struct {
	ClassIndex    PackageIndex
	SuperIndex    PackageIndex
	TemplateIndex PackageIndex
	OuterIndex    PackageIndex
	ObjectName    FName
	Flags         ObjectFlags

	SerialSize   int64
	SerialOffset int64

	Forced             bool
	NotForClient       bool
	NotForServer       bool
	PackageGUID        uuid.UUID
	HasPackageGUID     bool
	ExportPackageFlags PackageFlags

	NotAlwaysLoadedForEditorGame bool
	IsAsset                      bool
	GeneratePublicHash           bool
	PublicExportHash             uint64

	FirstExportDependencyOffset int32
	Dependencies                ExportDependencies

	// dependencyCounts is captured while reading and consumed by the
	// package reader once the preload-dependency blob's offset is known.
	dependencyCounts [4]int32
}

// DependencyCounts exposes the four lengths captured from this export's
// on-disk record, before the preload-dependency blob has been read.
func (e BaseExport) DependencyCounts() [4]int32 { return e.dependencyCounts }

// ReadBaseExport reads one BaseExport header, gated by opts. It does not
// read the preload-dependency blob itself — callers resolve that
// afterwards via readPreloadBlob once every export's
// FirstExportDependencyOffset is known.
func ReadBaseExport(r *wire.Reader, m *NameMap, opts ExportReadOptions) (BaseExport, error) {
	var e BaseExport

	classIndex, err := r.I32()
	if err != nil {
		return BaseExport{}, err
	}
	superIndex, err := r.I32()
	if err != nil {
		return BaseExport{}, err
	}
	var templateIndex int32
	if opts.HasTemplateIndex {
		if templateIndex, err = r.I32(); err != nil {
			return BaseExport{}, err
		}
	}
	outerIndex, err := r.I32()
	if err != nil {
		return BaseExport{}, err
	}
	if e.ObjectName, err = readFName(r, m); err != nil {
		return BaseExport{}, err
	}
	flags, err := r.U32()
	if err != nil {
		return BaseExport{}, err
	}

	if opts.Has64BitSerialSizes {
		if e.SerialSize, err = r.I64(); err != nil {
			return BaseExport{}, err
		}
		if e.SerialOffset, err = r.I64(); err != nil {
			return BaseExport{}, err
		}
	} else {
		size, err := r.I32()
		if err != nil {
			return BaseExport{}, err
		}
		offset, err := r.I32()
		if err != nil {
			return BaseExport{}, err
		}
		e.SerialSize = int64(size)
		e.SerialOffset = int64(offset)
	}

	e.ClassIndex = PackageIndex(classIndex)
	e.SuperIndex = PackageIndex(superIndex)
	e.TemplateIndex = PackageIndex(templateIndex)
	e.OuterIndex = PackageIndex(outerIndex)
	e.Flags = ObjectFlags(flags)

	if e.Forced, err = r.Bool(); err != nil {
		return BaseExport{}, err
	}
	if e.NotForClient, err = r.Bool(); err != nil {
		return BaseExport{}, err
	}
	if e.NotForServer, err = r.Bool(); err != nil {
		return BaseExport{}, err
	}
	guid, err := r.GUID()
	if err != nil {
		return BaseExport{}, err
	}
	e.PackageGUID = guid
	e.HasPackageGUID = guid != uuid.Nil

	pf, err := r.U32()
	if err != nil {
		return BaseExport{}, err
	}
	e.ExportPackageFlags = PackageFlags(pf)

	if opts.HasUE5ExportFlags {
		if e.NotAlwaysLoadedForEditorGame, err = r.Bool(); err != nil {
			return BaseExport{}, err
		}
		if e.IsAsset, err = r.Bool(); err != nil {
			return BaseExport{}, err
		}
		if e.GeneratePublicHash, err = r.Bool(); err != nil {
			return BaseExport{}, err
		}
		if e.GeneratePublicHash {
			if e.PublicExportHash, err = r.U64(); err != nil {
				return BaseExport{}, err
			}
		}
	}

	if e.FirstExportDependencyOffset, err = r.I32(); err != nil {
		return BaseExport{}, err
	}
	for i := range e.dependencyCounts {
		if e.dependencyCounts[i], err = r.I32(); err != nil {
			return BaseExport{}, err
		}
	}
	return e, nil
}

// Write serializes e's fixed header fields. serialSize/serialOffset and
// firstExportDependencyOffset are passed in explicitly because they are
// only known after the payload has been laid out (§4.3's two-pass write).
func (e BaseExport) Write(w *wire.Writer, opts ExportReadOptions, serialSize, serialOffset int64, firstExportDependencyOffset int32) error {
	w.I32(int32(e.ClassIndex))
	w.I32(int32(e.SuperIndex))
	if opts.HasTemplateIndex {
		w.I32(int32(e.TemplateIndex))
	}
	w.I32(int32(e.OuterIndex))
	if err := writeFName(w, e.ObjectName); err != nil {
		return err
	}
	w.U32(uint32(e.Flags))

	if opts.Has64BitSerialSizes {
		w.I64(serialSize)
		w.I64(serialOffset)
	} else {
		w.I32(int32(serialSize))
		w.I32(int32(serialOffset))
	}

	w.Bool(e.Forced)
	w.Bool(e.NotForClient)
	w.Bool(e.NotForServer)
	w.GUID(e.PackageGUID)
	w.U32(uint32(e.ExportPackageFlags))

	if opts.HasUE5ExportFlags {
		w.Bool(e.NotAlwaysLoadedForEditorGame)
		w.Bool(e.IsAsset)
		w.Bool(e.GeneratePublicHash)
		if e.GeneratePublicHash {
			w.U64(e.PublicExportHash)
		}
	}

	w.I32(firstExportDependencyOffset)
	counts := e.Dependencies.counts()
	for _, c := range counts {
		w.I32(c)
	}
	return nil
}

// ExportKind names which variant payload an Export carries.
type ExportKind int

// The variant payload kinds §3 enumerates.
const (
	ExportKindNormal ExportKind = iota
	ExportKindLevel
	ExportKindClass
	ExportKindStruct
	ExportKindFunction
	ExportKindEnum
	ExportKindDataTable
	ExportKindStringTable
	ExportKindProperty
	ExportKindRaw
)

// ExportPayload is satisfied by every variant payload type.
type ExportPayload interface {
	Kind() ExportKind
}

// Export is one entry of a package's export table: a BaseExport header
// plus its class-specific payload.
type Export struct {
	BaseExport
	Payload ExportPayload
}
