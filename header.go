// Copyright 2024 The uasset Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package uasset

import (
	"github.com/astromodkit/uasset/wire"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// uassetMagic is the four big-endian magic bytes a package begins with,
// and that also terminate the export-payload region (§4.3 step 1, and
// the "Export payload region" invariant).
const uassetMagic = 0xC1832A9E

// Sentinel errors the header read path returns, following
// saferwall/pe/helper.go's "Errors" block convention of one var per
// distinct malformed-input case rather than a single generic error.
var (
	ErrBadMagic           = errors.New("uasset: bad package magic")
	ErrUnversionedNoEngine = errors.New("uasset: unversioned package requires an externally supplied engine version")
	ErrCompressedPackage  = errors.New("uasset: compressed packages are not supported")
	ErrLegacyFieldNonzero = errors.New("uasset: additional_to_cook/texture_allocations_count must be zero")
)

// GenerationInfo is one entry of the header's generations array, a
// historical (export_count, name_count) snapshot the incremental cooker
// leaves behind. Round-tripped verbatim; nothing in this codec consults
// the values beyond the count.
type GenerationInfo struct {
	ExportCount int32
	NameCount   int32
}

// FEngineVersion is the engine build identifier the header records twice
// (the version a package was built with, and the "compatible" version
// consumers should check against). Before VER_UE4_ENGINE_VERSION_OBJECT
// the header only ever stored the Changelist as a bare u32; readFEngineVersion
// synthesizes Major/Minor/Patch as 4.0.0 and leaves Branch empty for that
// case, matching FEngineVersion::new(4, 0, 0, build, None) in asset.rs.
type FEngineVersion struct {
	Major      uint16
	Minor      uint16
	Patch      uint16
	Changelist uint32
	Branch     string
}

func readFEngineVersionStructured(r *wire.Reader) (FEngineVersion, error) {
	var v FEngineVersion
	var err error
	if v.Major, err = r.U16(); err != nil {
		return FEngineVersion{}, err
	}
	if v.Minor, err = r.U16(); err != nil {
		return FEngineVersion{}, err
	}
	if v.Patch, err = r.U16(); err != nil {
		return FEngineVersion{}, err
	}
	if v.Changelist, err = r.U32(); err != nil {
		return FEngineVersion{}, err
	}
	if v.Branch, err = r.FString(); err != nil {
		return FEngineVersion{}, err
	}
	return v, nil
}

func writeFEngineVersionStructured(w *wire.Writer, v FEngineVersion) error {
	w.U16(v.Major)
	w.U16(v.Minor)
	w.U16(v.Patch)
	w.U32(v.Changelist)
	return w.FString(v.Branch)
}

// PackageSummary is the full gated header §4.3 describes: every field
// read in order off the front of a .uasset/.umap, including the offsets
// of every table that follows it.
type PackageSummary struct {
	LegacyFileVersion   int32
	Unversioned         bool
	FileLicenseeVersion int32

	HeaderOffset int32
	FolderName   string
	PackageFlags PackageFlags

	NameCount  int32
	NameOffset int32

	SoftObjectPathsCount  int32
	SoftObjectPathsOffset int32

	GatherableTextDataCount  int32
	GatherableTextDataOffset int32

	ExportCount  int32
	ExportOffset int32
	ImportCount  int32
	ImportOffset int32
	DependsOffset int32

	SoftPackageReferenceCount  int32
	SoftPackageReferenceOffset int32
	SearchableNamesOffset     int32

	ThumbnailTableOffset int32
	PackageGUID          uuid.UUID
	Generations          []GenerationInfo

	EngineVersionRecorded   FEngineVersion
	EngineVersionCompatible FEngineVersion

	CompressionFlags uint32
	PackageSource    uint32

	AssetRegistryDataOffset int32
	BulkDataStartOffset     int64

	WorldTileInfoOffset int32
	ChunkIDs            []int32

	PreloadDependencyCount  int32
	PreloadDependencyOffset int32

	NamesReferencedFromExportDataCount int32
	PayloadTOCOffset                   int64
	DataResourceOffset                 int32
}

// ReadPackageSummary reads the header at the front of r, following §4.3's
// 25-step gated field list in order. vc.FileVersion seeds the "unversioned"
// check (step 3): a caller opening a package it already knows the engine
// version for passes that version in; a versioned package overwrites it
// from the file itself. The returned VersionContainer reflects whatever
// the file declared (or, for an unversioned file, the caller's own vc
// unchanged) so the rest of the read path gates correctly.
func ReadPackageSummary(r *wire.Reader, vc VersionContainer) (*PackageSummary, VersionContainer, error) {
	var s PackageSummary

	ok, err := r.MagicBE(uassetMagic)
	if err != nil {
		return nil, vc, err
	}
	if !ok {
		return nil, vc, ErrBadMagic
	}

	if s.LegacyFileVersion, err = r.I32(); err != nil {
		return nil, vc, err
	}
	if s.LegacyFileVersion != -4 {
		if _, err := r.Bytes(4); err != nil {
			return nil, vc, err
		}
	}

	fileVersion, err := r.I32()
	if err != nil {
		return nil, vc, err
	}
	s.Unversioned = ObjectVersion(fileVersion) == UnknownVersion
	if s.Unversioned {
		if vc.FileVersion == UnknownVersion {
			return nil, vc, ErrUnversionedNoEngine
		}
	} else {
		vc.FileVersion = ObjectVersion(fileVersion)
	}

	if s.LegacyFileVersion <= -8 {
		ue5, err := r.I32()
		if err != nil {
			return nil, vc, err
		}
		if ObjectVersionUE5(ue5) > VerUE5InitialVersion {
			vc.FileVersionUE5 = ObjectVersionUE5(ue5)
		}
	}

	if s.FileLicenseeVersion, err = r.I32(); err != nil {
		return nil, vc, err
	}

	if s.LegacyFileVersion <= -2 {
		count, err := r.I32()
		if err != nil {
			return nil, vc, err
		}
		vc.CustomVersions = make([]CustomVersion, count)
		for i := int32(0); i < count; i++ {
			guid, err := r.GUID()
			if err != nil {
				return nil, vc, err
			}
			version, err := r.I32()
			if err != nil {
				return nil, vc, err
			}
			vc.CustomVersions[i] = CustomVersion{Key: guid, Version: version}
		}
	}

	if s.HeaderOffset, err = r.I32(); err != nil {
		return nil, vc, err
	}
	if s.FolderName, err = r.FString(); err != nil {
		return nil, vc, err
	}
	flags, err := r.U32()
	if err != nil {
		return nil, vc, err
	}
	s.PackageFlags = PackageFlags(flags)

	if s.NameCount, err = r.I32(); err != nil {
		return nil, vc, err
	}
	if s.NameOffset, err = r.I32(); err != nil {
		return nil, vc, err
	}

	if vc.FeaturePresent(FeatureAddSoftObjectPathList) {
		if s.SoftObjectPathsCount, err = r.I32(); err != nil {
			return nil, vc, err
		}
		if s.SoftObjectPathsOffset, err = r.I32(); err != nil {
			return nil, vc, err
		}
	}

	if vc.FeaturePresent(FeatureSerializeTextInPackages) {
		if s.GatherableTextDataCount, err = r.I32(); err != nil {
			return nil, vc, err
		}
		if s.GatherableTextDataOffset, err = r.I32(); err != nil {
			return nil, vc, err
		}
	}

	if s.ExportCount, err = r.I32(); err != nil {
		return nil, vc, err
	}
	if s.ExportOffset, err = r.I32(); err != nil {
		return nil, vc, err
	}
	if s.ImportCount, err = r.I32(); err != nil {
		return nil, vc, err
	}
	if s.ImportOffset, err = r.I32(); err != nil {
		return nil, vc, err
	}
	if s.DependsOffset, err = r.I32(); err != nil {
		return nil, vc, err
	}

	if vc.FeaturePresent(FeatureAddStringAssetReferencesMap) {
		if s.SoftPackageReferenceCount, err = r.I32(); err != nil {
			return nil, vc, err
		}
		if s.SoftPackageReferenceOffset, err = r.I32(); err != nil {
			return nil, vc, err
		}
	}

	if vc.FeaturePresent(FeatureAddedSearchableNames) {
		if s.SearchableNamesOffset, err = r.I32(); err != nil {
			return nil, vc, err
		}
	}

	if s.ThumbnailTableOffset, err = r.I32(); err != nil {
		return nil, vc, err
	}
	if s.PackageGUID, err = r.GUID(); err != nil {
		return nil, vc, err
	}

	genCount, err := r.I32()
	if err != nil {
		return nil, vc, err
	}
	s.Generations = make([]GenerationInfo, genCount)
	for i := int32(0); i < genCount; i++ {
		ec, err := r.I32()
		if err != nil {
			return nil, vc, err
		}
		nc, err := r.I32()
		if err != nil {
			return nil, vc, err
		}
		s.Generations[i] = GenerationInfo{ExportCount: ec, NameCount: nc}
	}

	if vc.FeaturePresent(FeatureEngineVersionObject) {
		if s.EngineVersionRecorded, err = readFEngineVersionStructured(r); err != nil {
			return nil, vc, err
		}
	} else {
		build, err := r.U32()
		if err != nil {
			return nil, vc, err
		}
		s.EngineVersionRecorded = FEngineVersion{Major: 4, Changelist: build}
	}
	if vc.FeaturePresent(FeaturePackageSummaryHasCompatibleEngineVersion) {
		if s.EngineVersionCompatible, err = readFEngineVersionStructured(r); err != nil {
			return nil, vc, err
		}
	} else {
		s.EngineVersionCompatible = s.EngineVersionRecorded
	}

	if s.CompressionFlags, err = r.U32(); err != nil {
		return nil, vc, err
	}
	compressionBlockCount, err := r.U32()
	if err != nil {
		return nil, vc, err
	}
	if compressionBlockCount > 0 {
		return nil, vc, ErrCompressedPackage
	}

	if s.PackageSource, err = r.U32(); err != nil {
		return nil, vc, err
	}

	additionalToCook, err := r.I32()
	if err != nil {
		return nil, vc, err
	}
	if additionalToCook != 0 {
		return nil, vc, ErrLegacyFieldNonzero
	}
	if s.LegacyFileVersion > -7 {
		textureAllocations, err := r.I32()
		if err != nil {
			return nil, vc, err
		}
		if textureAllocations != 0 {
			return nil, vc, ErrLegacyFieldNonzero
		}
	}

	if s.AssetRegistryDataOffset, err = r.I32(); err != nil {
		return nil, vc, err
	}
	if s.BulkDataStartOffset, err = r.I64(); err != nil {
		return nil, vc, err
	}

	if vc.FeaturePresent(FeatureWorldLevelInfo) {
		if s.WorldTileInfoOffset, err = r.I32(); err != nil {
			return nil, vc, err
		}
	}

	switch {
	case vc.FeaturePresent(FeatureChangedChunkIDToBeAnArrayOfChunkIDs):
		n, err := r.I32()
		if err != nil {
			return nil, vc, err
		}
		s.ChunkIDs = make([]int32, n)
		for i := int32(0); i < n; i++ {
			if s.ChunkIDs[i], err = r.I32(); err != nil {
				return nil, vc, err
			}
		}
	case vc.FeaturePresent(FeatureAddedChunkIDToAssetDataAndUPackage):
		id, err := r.I32()
		if err != nil {
			return nil, vc, err
		}
		s.ChunkIDs = []int32{id}
	}

	if vc.FeaturePresent(FeaturePreloadDependenciesInCookedExports) {
		if s.PreloadDependencyCount, err = r.I32(); err != nil {
			return nil, vc, err
		}
		if s.PreloadDependencyOffset, err = r.I32(); err != nil {
			return nil, vc, err
		}
	} else {
		s.PreloadDependencyCount = -1
	}

	if vc.FeaturePresent(FeatureNamesReferencedFromExportData) {
		if s.NamesReferencedFromExportDataCount, err = r.I32(); err != nil {
			return nil, vc, err
		}
	} else {
		s.NamesReferencedFromExportDataCount = s.NameCount
	}

	if vc.FeaturePresent(FeaturePayloadTOC) {
		if s.PayloadTOCOffset, err = r.I64(); err != nil {
			return nil, vc, err
		}
	}
	if vc.FeaturePresent(FeatureDataResources) {
		if s.DataResourceOffset, err = r.I32(); err != nil {
			return nil, vc, err
		}
	}

	return &s, vc, nil
}

// WritePackageSummary writes s back out in the exact field order
// ReadPackageSummary expects, gated on the same vc. Callers building a
// package from scratch write a provisional copy with every offset zeroed,
// then seek back to byte 0 and call this again once the real offsets are
// known (§4.3's two-pass write path).
func WritePackageSummary(w *wire.Writer, vc VersionContainer, s *PackageSummary) error {
	w.MagicBE(uassetMagic)
	w.I32(s.LegacyFileVersion)
	if s.LegacyFileVersion != -4 {
		w.WriteBytes([]byte{0, 0, 0, 0})
	}

	if s.Unversioned {
		w.I32(int32(UnknownVersion))
	} else {
		w.I32(int32(vc.FileVersion))
	}

	if s.LegacyFileVersion <= -8 {
		if s.Unversioned {
			w.I32(0)
		} else {
			w.I32(int32(vc.FileVersionUE5))
		}
	}

	w.I32(s.FileLicenseeVersion)

	if s.LegacyFileVersion <= -2 {
		if s.Unversioned {
			w.I32(0)
		} else {
			w.I32(int32(len(vc.CustomVersions)))
			for _, cv := range vc.CustomVersions {
				w.GUID(cv.Key)
				w.I32(cv.Version)
			}
		}
	}

	w.I32(s.HeaderOffset)
	if err := w.FString(s.FolderName); err != nil {
		return err
	}
	w.U32(uint32(s.PackageFlags))

	w.I32(s.NameCount)
	w.I32(s.NameOffset)

	if vc.FeaturePresent(FeatureAddSoftObjectPathList) {
		w.I32(s.SoftObjectPathsCount)
		w.I32(s.SoftObjectPathsOffset)
	}

	if vc.FeaturePresent(FeatureSerializeTextInPackages) {
		w.I32(s.GatherableTextDataCount)
		w.I32(s.GatherableTextDataOffset)
	}

	w.I32(s.ExportCount)
	w.I32(s.ExportOffset)
	w.I32(s.ImportCount)
	w.I32(s.ImportOffset)
	w.I32(s.DependsOffset)

	if vc.FeaturePresent(FeatureAddStringAssetReferencesMap) {
		w.I32(s.SoftPackageReferenceCount)
		w.I32(s.SoftPackageReferenceOffset)
	}

	if vc.FeaturePresent(FeatureAddedSearchableNames) {
		w.I32(s.SearchableNamesOffset)
	}

	w.I32(s.ThumbnailTableOffset)
	w.GUID(s.PackageGUID)

	w.I32(int32(len(s.Generations)))
	for _, g := range s.Generations {
		w.I32(g.ExportCount)
		w.I32(g.NameCount)
	}

	if vc.FeaturePresent(FeatureEngineVersionObject) {
		if err := writeFEngineVersionStructured(w, s.EngineVersionRecorded); err != nil {
			return err
		}
	} else {
		w.U32(s.EngineVersionRecorded.Changelist)
	}
	if vc.FeaturePresent(FeaturePackageSummaryHasCompatibleEngineVersion) {
		if err := writeFEngineVersionStructured(w, s.EngineVersionCompatible); err != nil {
			return err
		}
	}

	w.U32(s.CompressionFlags)
	w.U32(0) // compression block count, always zero: compressed packages are rejected on read.
	w.U32(s.PackageSource)
	w.I32(0) // additional_to_cook

	if s.LegacyFileVersion > -7 {
		w.I32(0) // texture_allocations_count
	}

	w.I32(s.AssetRegistryDataOffset)
	w.I64(s.BulkDataStartOffset)

	if vc.FeaturePresent(FeatureWorldLevelInfo) {
		w.I32(s.WorldTileInfoOffset)
	}

	switch {
	case vc.FeaturePresent(FeatureChangedChunkIDToBeAnArrayOfChunkIDs):
		w.I32(int32(len(s.ChunkIDs)))
		for _, id := range s.ChunkIDs {
			w.I32(id)
		}
	case vc.FeaturePresent(FeatureAddedChunkIDToAssetDataAndUPackage):
		var id int32
		if len(s.ChunkIDs) > 0 {
			id = s.ChunkIDs[0]
		}
		w.I32(id)
	}

	if vc.FeaturePresent(FeaturePreloadDependenciesInCookedExports) {
		w.I32(s.PreloadDependencyCount)
		w.I32(s.PreloadDependencyOffset)
	}

	if vc.FeaturePresent(FeatureNamesReferencedFromExportData) {
		w.I32(s.NamesReferencedFromExportDataCount)
	}

	if vc.FeaturePresent(FeaturePayloadTOC) {
		w.I64(s.PayloadTOCOffset)
	}
	if vc.FeaturePresent(FeatureDataResources) {
		w.I32(s.DataResourceOffset)
	}

	return nil
}
