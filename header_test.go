// Copyright 2024 The uasset Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package uasset

import (
	"testing"

	"github.com/astromodkit/uasset/wire"
	"github.com/google/uuid"
)

func testVersionContainer() VersionContainer {
	return VersionContainer{
		FileVersion:    VerUE4AutomaticVersion,
		FileVersionUE5: VerUE5DataResources,
	}
}

func TestPackageSummaryRoundTrip(t *testing.T) {
	vc := testVersionContainer()
	want := &PackageSummary{
		LegacyFileVersion:   -8,
		FileLicenseeVersion: 0,
		HeaderOffset:        123,
		FolderName:          "None",
		PackageFlags:        0,
		NameCount:           3,
		NameOffset:          193,
		ExportCount:         1,
		ExportOffset:        400,
		ImportCount:         2,
		ImportOffset:        300,
		DependsOffset:       500,
		ThumbnailTableOffset: 0,
		PackageGUID:         uuid.New(),
		Generations:         []GenerationInfo{{ExportCount: 1, NameCount: 3}},
		EngineVersionRecorded:   FEngineVersion{Major: 5, Minor: 3, Patch: 2, Changelist: 12345, Branch: "++UE5+Release"},
		EngineVersionCompatible: FEngineVersion{Major: 5, Minor: 3, Patch: 0, Changelist: 12000, Branch: "++UE5+Release"},
		CompressionFlags:       0,
		PackageSource:          0,
		BulkDataStartOffset:    999,
		ChunkIDs:               []int32{7},
		PreloadDependencyCount: 0,
		PreloadDependencyOffset: 0,
		NamesReferencedFromExportDataCount: 3,
		DataResourceOffset: 0,
	}

	w := wire.NewWriter()
	if err := WritePackageSummary(w, vc, want); err != nil {
		t.Fatalf("WritePackageSummary: %v", err)
	}

	r := wire.NewReader(w.Bytes())
	got, gotVC, err := ReadPackageSummary(r, VersionContainer{FileVersion: UnknownVersion})
	if err != nil {
		t.Fatalf("ReadPackageSummary: %v", err)
	}
	if gotVC.FileVersion != vc.FileVersion || gotVC.FileVersionUE5 != vc.FileVersionUE5 {
		t.Fatalf("version mismatch: got %+v, want %+v", gotVC, vc)
	}
	if got.HeaderOffset != want.HeaderOffset {
		t.Fatalf("HeaderOffset = %d, want %d", got.HeaderOffset, want.HeaderOffset)
	}
	if got.FolderName != want.FolderName {
		t.Fatalf("FolderName = %q, want %q", got.FolderName, want.FolderName)
	}
	if got.NameCount != want.NameCount || got.NameOffset != want.NameOffset {
		t.Fatalf("name table fields mismatch: got %+v", got)
	}
	if got.ExportCount != want.ExportCount || got.ExportOffset != want.ExportOffset {
		t.Fatalf("export table fields mismatch: got %+v", got)
	}
	if got.ImportCount != want.ImportCount || got.ImportOffset != want.ImportOffset {
		t.Fatalf("import table fields mismatch: got %+v", got)
	}
	if got.PackageGUID != want.PackageGUID {
		t.Fatalf("PackageGUID = %v, want %v", got.PackageGUID, want.PackageGUID)
	}
	if len(got.Generations) != 1 || got.Generations[0] != want.Generations[0] {
		t.Fatalf("Generations mismatch: got %+v, want %+v", got.Generations, want.Generations)
	}
	if got.EngineVersionRecorded != want.EngineVersionRecorded {
		t.Fatalf("EngineVersionRecorded = %+v, want %+v", got.EngineVersionRecorded, want.EngineVersionRecorded)
	}
	if got.BulkDataStartOffset != want.BulkDataStartOffset {
		t.Fatalf("BulkDataStartOffset = %d, want %d", got.BulkDataStartOffset, want.BulkDataStartOffset)
	}
	if len(got.ChunkIDs) != 1 || got.ChunkIDs[0] != 7 {
		t.Fatalf("ChunkIDs = %v, want [7]", got.ChunkIDs)
	}
}

func TestReadPackageSummaryBadMagic(t *testing.T) {
	r := wire.NewReader([]byte{0, 0, 0, 0})
	if _, _, err := ReadPackageSummary(r, VersionContainer{}); err != ErrBadMagic {
		t.Fatalf("ReadPackageSummary with bad magic = %v, want ErrBadMagic", err)
	}
}

func TestReadPackageSummaryUnversionedRequiresExternalVersion(t *testing.T) {
	vc := testVersionContainer()
	s := &PackageSummary{LegacyFileVersion: -8, Unversioned: true, FolderName: "None"}
	w := wire.NewWriter()
	if err := WritePackageSummary(w, vc, s); err != nil {
		t.Fatalf("WritePackageSummary: %v", err)
	}

	r := wire.NewReader(w.Bytes())
	if _, _, err := ReadPackageSummary(r, VersionContainer{FileVersion: UnknownVersion}); err != ErrUnversionedNoEngine {
		t.Fatalf("ReadPackageSummary on an unversioned package with no supplied version = %v, want ErrUnversionedNoEngine", err)
	}

	r2 := wire.NewReader(w.Bytes())
	gotS, gotVC, err := ReadPackageSummary(r2, vc)
	if err != nil {
		t.Fatalf("ReadPackageSummary with a supplied version: %v", err)
	}
	if !gotS.Unversioned {
		t.Fatalf("Unversioned = false, want true")
	}
	if gotVC.FileVersion != vc.FileVersion {
		t.Fatalf("FileVersion = %v, want the caller-supplied %v", gotVC.FileVersion, vc.FileVersion)
	}
}
