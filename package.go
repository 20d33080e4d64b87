// Copyright 2024 The uasset Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package uasset

import (
	"os"

	mmap "github.com/edsrzf/mmap-go"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/astromodkit/uasset/internal/ulog"
	"github.com/astromodkit/uasset/wire"
)

// Options configures how a Package is opened, mirroring the teacher's own
// Options{Logger, ...} struct in file.go — a caller-supplied Logger plus
// the Mappings schema below; there's no "Fast"/partial-parse mode
// here: a .uasset's tables are small enough that there's no analog to the
// PE parser's "skip the directories" fast path.
type Options struct {
	Logger ulog.Logger

	// Mappings supplies the external per-class property schema (§4.4
	// "Unversioned mode") a package cooked with PkgUnversionedProperties
	// needs to decode its Normal exports. Packages without that flag
	// never consult it; it may be left nil for them.
	Mappings Mappings
}

func (o *Options) logger() *ulog.Helper {
	if o == nil || o.Logger == nil {
		base := ulog.NewStdLogger(os.Stdout)
		return ulog.NewHelper(ulog.NewFilter(base, ulog.FilterLevel(ulog.LevelError)))
	}
	return ulog.NewHelper(o.Logger)
}

func (o *Options) mappings() Mappings {
	if o == nil {
		return nil
	}
	return o.Mappings
}

// Package is a fully parsed .uasset/.umap container: its header, name
// map, import/export tables, and every export's decoded payload.
type Package struct {
	Version VersionContainer
	Summary *PackageSummary

	// Mappings supplies the unversioned property schema Normal exports
	// need when Summary.PackageFlags.HasUnversionedProperties() is set
	// (§4.4); nil for every other package.
	Mappings Mappings

	Names                 *NameMap
	Imports               []Import
	Exports               []*Export
	Depends               *DependsMap
	SoftPackageReferences []string

	// WorldTileInfoBytes preserves the World Composition data blob
	// opaquely: no grounding source in this retrieval pack documents
	// FWorldTileInfo's own field layout, so it round-trips the same way
	// an export's unrecognized "extras" bytes do.
	WorldTileInfoBytes []byte

	// useEventDrivenLoader mirrors asset_data.use_event_driven_loader:
	// whether export preload-dependency arrays are present at all. Tied
	// to FeaturePreloadDependenciesInCookedExports rather than a
	// separately-tracked flag, since every package this codec targets
	// (UE4.20+) that carries the feature also cooks with it enabled.
	useEventDrivenLoader bool

	// Warnings accumulates non-fatal issues encountered while reading,
	// one entry per export whose structured payload decode failed and
	// fell back to RawPayload (§7) — multiple independent failures
	// across a package's exports shouldn't hide one another.
	Warnings *multierror.Error

	logger *ulog.Helper

	f    *os.File
	data mmap.MMap
}

// OpenFile memory-maps name (and, when bulkName is non-empty, its
// companion .uexp bulk-data file) and parses it as a Package. vc seeds
// the engine version for unversioned input, exactly as ReadPackageSummary
// expects.
func OpenFile(name, bulkName string, vc VersionContainer, opts *Options) (*Package, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	data, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		f.Close()
		return nil, err
	}

	var bulk []byte
	if bulkName != "" {
		bulkBytes, err := os.ReadFile(bulkName)
		if err != nil {
			data.Unmap()
			f.Close()
			return nil, err
		}
		bulk = bulkBytes
	}

	p := &Package{Version: vc, Mappings: opts.mappings(), logger: opts.logger(), f: f, data: data}
	r := wire.NewSplitReader(data, bulk)
	if err := p.readFrom(r); err != nil {
		data.Unmap()
		f.Close()
		return nil, err
	}
	return p, nil
}

// OpenBytes parses primary (and, optionally, a split bulk buffer) as a
// Package without touching the filesystem.
func OpenBytes(primary, bulk []byte, vc VersionContainer, opts *Options) (*Package, error) {
	p := &Package{Version: vc, Mappings: opts.mappings(), logger: opts.logger()}
	r := wire.NewSplitReader(primary, bulk)
	if err := p.readFrom(r); err != nil {
		return nil, err
	}
	return p, nil
}

// Close releases the memory-mapped file backing p, if any.
func (p *Package) Close() error {
	if p.data != nil {
		if err := p.data.Unmap(); err != nil {
			return err
		}
	}
	if p.f != nil {
		return p.f.Close()
	}
	return nil
}

// readFrom parses the full package container out of r: the header, then
// each table at its declared offset, then every export's payload (§4.3).
func (p *Package) readFrom(r *wire.Reader) error {
	summary, vc, err := ReadPackageSummary(r, p.Version)
	if err != nil {
		return err
	}
	p.Summary = summary
	p.Version = vc
	p.useEventDrivenLoader = vc.FeaturePresent(FeaturePreloadDependenciesInCookedExports)

	p.Names = NewNameMap()
	if summary.NameCount > 0 {
		if err := r.Seek(int64(summary.NameOffset)); err != nil {
			return err
		}
		if p.Names, err = ReadNameMap(r, vc, summary.NameCount); err != nil {
			return err
		}
	}

	hasOptionalImportField := vc.FeaturePresent(FeatureOptionalResources)
	p.Imports = make([]Import, summary.ImportCount)
	if summary.ImportCount > 0 {
		if err := r.Seek(int64(summary.ImportOffset)); err != nil {
			return err
		}
		for i := int32(0); i < summary.ImportCount; i++ {
			if p.Imports[i], err = ReadImport(r, p.Names, hasOptionalImportField); err != nil {
				return err
			}
		}
	}

	opts := NewExportReadOptions(vc, p.useEventDrivenLoader)
	p.Exports = make([]*Export, summary.ExportCount)
	if summary.ExportCount > 0 {
		if err := r.Seek(int64(summary.ExportOffset)); err != nil {
			return err
		}
		for i := int32(0); i < summary.ExportCount; i++ {
			base, err := ReadBaseExport(r, p.Names, opts)
			if err != nil {
				return err
			}
			p.Exports[i] = &Export{BaseExport: base}
		}
	}

	if summary.DependsOffset > 0 {
		if err := r.Seek(int64(summary.DependsOffset)); err != nil {
			return err
		}
		dm, err := ReadDependsMap(r, len(p.Exports))
		if err != nil {
			return err
		}
		p.Depends = &dm
	}

	if summary.SoftPackageReferenceOffset > 0 {
		if err := r.Seek(int64(summary.SoftPackageReferenceOffset)); err != nil {
			return err
		}
		p.SoftPackageReferences = make([]string, summary.SoftPackageReferenceCount)
		for i := int32(0); i < summary.SoftPackageReferenceCount; i++ {
			if p.SoftPackageReferences[i], err = r.FString(); err != nil {
				return err
			}
		}
	}

	if summary.WorldTileInfoOffset > 0 {
		// The data region writes asset-registry data, then world tile
		// info, then the preload-dependency blob (§4.3 steps 21-24), so
		// the next declared offset after this one is whichever of those
		// is present; fall back to the export payload region's start,
		// then to end-of-stream for a package with neither.
		end := summary.PreloadDependencyOffset
		if end <= summary.WorldTileInfoOffset {
			end = summary.HeaderOffset
		}
		if err := r.Seek(int64(summary.WorldTileInfoOffset)); err != nil {
			return err
		}
		length := int64(end) - int64(summary.WorldTileInfoOffset)
		if end <= summary.WorldTileInfoOffset {
			length = r.Len() - int64(summary.WorldTileInfoOffset)
		}
		if p.WorldTileInfoBytes, err = r.Bytes(int(length)); err != nil {
			return err
		}
	}

	if p.useEventDrivenLoader {
		for _, e := range p.Exports {
			deps, err := readPreloadBlob(r, int64(summary.PreloadDependencyOffset), e.FirstExportDependencyOffset, e.DependencyCounts())
			if err != nil {
				return err
			}
			e.Dependencies = deps
		}
	}

	for i, e := range p.Exports {
		payload, err := ReadExportPayload(r, p.Names, vc, summary.PackageFlags, p.Mappings, e.ClassIndex, p.Imports, p.Exports, e.SerialOffset, e.SerialSize)
		if err != nil {
			return err
		}
		if _, fellBackToRaw := payload.(*RawPayload); fellBackToRaw {
			p.Warnings = multierror.Append(p.Warnings, errors.Errorf(
				"export %d (%s): structured payload decode failed, kept as raw bytes", i, e.ObjectName.String()))
			p.logger.Warnf("export %d (%s): structured payload decode failed, kept as raw bytes", i, e.ObjectName.String())
		}
		e.Payload = payload
	}

	return nil
}

// Serialize writes p back out as a single combined .uasset buffer,
// following §4.3's two-pass write-with-fixup algorithm: lay out every
// table with zeroed offsets, stream the export payloads while recording
// where each one landed, then seek back and patch the export-record
// table and the header with the real offsets.
func (p *Package) Serialize() ([]byte, error) {
	vc := p.Version
	w := wire.NewWriter()

	hasOptionalImportField := vc.FeaturePresent(FeatureOptionalResources)
	opts := NewExportReadOptions(vc, p.useEventDrivenLoader)

	summary := *p.Summary
	summary.NameCount = int32(p.Names.Len())
	summary.ImportCount = int32(len(p.Imports))
	summary.ExportCount = int32(len(p.Exports))
	summary.SoftPackageReferenceCount = int32(len(p.SoftPackageReferences))
	summary.NameOffset = 0
	summary.ImportOffset = 0
	summary.ExportOffset = 0
	summary.DependsOffset = 0
	summary.SoftPackageReferenceOffset = 0
	summary.AssetRegistryDataOffset = 0
	summary.WorldTileInfoOffset = 0
	summary.PreloadDependencyOffset = 0
	summary.HeaderOffset = 0
	summary.BulkDataStartOffset = 0

	if err := WritePackageSummary(w, vc, &summary); err != nil {
		return nil, err
	}

	if p.Names.Len() > 0 {
		summary.NameOffset = int32(w.Position())
		if err := WriteNameMap(w, vc, p.Names); err != nil {
			return nil, err
		}
	}

	if len(p.Imports) > 0 {
		summary.ImportOffset = int32(w.Position())
		for _, imp := range p.Imports {
			if err := imp.Write(w, hasOptionalImportField); err != nil {
				return nil, err
			}
		}
	}

	if len(p.Exports) > 0 {
		summary.ExportOffset = int32(w.Position())
		for _, e := range p.Exports {
			if err := e.BaseExport.Write(w, opts, 0, 0, 0); err != nil {
				return nil, err
			}
		}
	}

	if p.Depends != nil {
		summary.DependsOffset = int32(w.Position())
		p.Depends.Write(w)
	}

	if len(p.SoftPackageReferences) > 0 {
		summary.SoftPackageReferenceOffset = int32(w.Position())
		for _, ref := range p.SoftPackageReferences {
			if err := w.FString(ref); err != nil {
				return nil, err
			}
		}
	}

	if p.Summary.AssetRegistryDataOffset != 0 {
		summary.AssetRegistryDataOffset = int32(w.Position())
		w.I32(0) // asset registry data length; contents are not reproduced.
	}

	if len(p.WorldTileInfoBytes) > 0 {
		summary.WorldTileInfoOffset = int32(w.Position())
		w.WriteBytes(p.WorldTileInfoBytes)
	}

	preloadBlobStart := w.Position()
	firstExportDependencyOffsets := make([]int32, len(p.Exports))
	if p.useEventDrivenLoader {
		summary.PreloadDependencyOffset = int32(preloadBlobStart)
		count := int32(0)
		for i, e := range p.Exports {
			firstExportDependencyOffsets[i] = writePreloadBlob(w, preloadBlobStart, e.Dependencies)
			counts := e.Dependencies.counts()
			count += counts[0] + counts[1] + counts[2] + counts[3]
		}
		summary.PreloadDependencyCount = count
	} else {
		for i := range firstExportDependencyOffsets {
			firstExportDependencyOffsets[i] = -1
		}
		summary.PreloadDependencyCount = -1
	}

	if len(p.Exports) > 0 {
		summary.HeaderOffset = int32(w.Position())
	}

	categoryStarts := make([]int64, len(p.Exports))
	for i, e := range p.Exports {
		categoryStarts[i] = w.Position()
		className := classNameOf(e.ClassIndex, p.Imports, p.Exports)
		if _, err := WriteExportPayload(w, p.Names, vc, summary.PackageFlags, p.Mappings, className, e.Payload); err != nil {
			return nil, err
		}
	}
	w.MagicBE(uassetMagic)
	bulkDataStartOffset := w.Position() - 4

	if len(p.Exports) > 0 {
		if err := w.Seek(int64(summary.ExportOffset)); err != nil {
			return nil, err
		}
		for i, e := range p.Exports {
			next := bulkDataStartOffset
			if i+1 < len(p.Exports) {
				next = categoryStarts[i+1]
			}
			size := next - categoryStarts[i]
			e.SerialOffset = categoryStarts[i]
			e.SerialSize = size
			e.FirstExportDependencyOffset = firstExportDependencyOffsets[i]
			if err := e.BaseExport.Write(w, opts, size, categoryStarts[i], firstExportDependencyOffsets[i]); err != nil {
				return nil, err
			}
		}
	}

	summary.BulkDataStartOffset = bulkDataStartOffset

	if err := w.Seek(0); err != nil {
		return nil, err
	}
	if err := WritePackageSummary(w, vc, &summary); err != nil {
		return nil, err
	}
	p.Summary = &summary

	return w.Bytes(), nil
}
