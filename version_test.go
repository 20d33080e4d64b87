// Copyright 2024 The uasset Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package uasset

import "testing"

func TestFeaturePresentGatedOnObjectVersion(t *testing.T) {
	old := VersionContainer{FileVersion: VerUE4OldestLoadablePackage}
	if old.FeaturePresent(FeatureAddedSearchableNames) {
		t.Fatalf("FeaturePresent(AddedSearchableNames) = true for a package older than the gate")
	}

	newer := VersionContainer{FileVersion: VerUE4AutomaticVersion}
	if !newer.FeaturePresent(FeatureAddedSearchableNames) {
		t.Fatalf("FeaturePresent(AddedSearchableNames) = false for the newest modeled version")
	}
}

func TestFeaturePresentUE5Ladder(t *testing.T) {
	vc := VersionContainer{FileVersion: VerUE4AutomaticVersion, FileVersionUE5: VerUE5InitialVersion}
	if vc.FeaturePresent(FeatureDataResources) {
		t.Fatalf("FeaturePresent(DataResources) = true at VerUE5InitialVersion")
	}
	vc.FileVersionUE5 = VerUE5DataResources
	if !vc.FeaturePresent(FeatureDataResources) {
		t.Fatalf("FeaturePresent(DataResources) = false at VerUE5DataResources")
	}
}

func TestFeaturePresentUnversionedIsPermissive(t *testing.T) {
	vc := VersionContainer{FileVersion: UnknownVersion}
	if !vc.FeaturePresent(FeatureAddedSearchableNames) {
		t.Fatalf("FeaturePresent on an unversioned container returned false, want permissive true")
	}
}

func TestCustomVersionOfFallsBackToEngineVersion(t *testing.T) {
	guid := mustGUID("CFFC743F-43B0-4480-9391-14DF171D2073")
	vc := VersionContainer{FileVersion: VerUE4AutomaticVersion}
	got := vc.CustomVersionOf(guid, func(v ObjectVersion) int32 { return int32(v) / 100 })
	want := int32(VerUE4AutomaticVersion) / 100
	if got != want {
		t.Fatalf("CustomVersionOf fallback = %d, want %d", got, want)
	}

	vc.CustomVersions = []CustomVersion{{Key: guid, Version: 42}}
	if got := vc.CustomVersionOf(guid, func(ObjectVersion) int32 { return -1 }); got != 42 {
		t.Fatalf("CustomVersionOf recorded = %d, want 42", got)
	}
}

func TestNamespaceName(t *testing.T) {
	guid := mustGUID("375EC13C-06E4-48FB-B500-84F0262A717E")
	name, ok := NamespaceName(guid)
	if !ok || name != "FCoreObjectVersion" {
		t.Fatalf("NamespaceName = %q, %v, want \"FCoreObjectVersion\", true", name, ok)
	}
	if _, ok := NamespaceName(mustGUID("00000000-0000-0000-0000-000000000000")); ok {
		t.Fatalf("NamespaceName matched an unregistered GUID")
	}
}
