// Copyright 2024 The uasset Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package uasset

import "github.com/google/uuid"

// ObjectVersion is the engine's main serialization version ladder
// (UE4Version::VER_UE4_*). Values are ordered; a package's declared
// version gates every optional header field and payload layout.
type ObjectVersion int32

// UnknownVersion is the sentinel a package header reports when it carries
// no engine version of its own; the caller must supply one externally.
const UnknownVersion ObjectVersion = 0

// Engine-version thresholds referenced anywhere in the codec. Not every
// historical VER_UE4_* value is worth a name here — only the ones that
// gate a branch somewhere in this module.
const (
	VerUE4OldestLoadablePackage ObjectVersion = 214 + iota
	VerUE4AddedStringAssetReferenceGathering
	VerUE4BlueprintVarsNotReadOnly
	VerUE4StaticMeshScreenSizeLods
	VerUE4BlueprintSearchableComponentClasses
	VerUE4TemplateIndexInCookedExports
	VerUE4PropertyGuidInPropertyTag
	VerUE4NameHashesSerialized
	VerUE4InstancedStereoUniformRefactor
	VerUE4CompressedShaderResources
	VerUE4TemplateIndexInCookedExports2
	VerUE4AddedSearchableNames
	VerUE4_64BitExportmapSerialsizes
	VerUE4AddedSweepWhileWalkingFlag
	VerUE4AddedSoftObjectPath
	VerUE4PointlightSourceOrientation
	VerUE4AddedPackageSummaryLocalizationID
	VerUE4FixWideStringCrc
	VerUE4PreloadDependenciesInCookedExports
	VerUE4AddedPackageOwner
	VerUE4SkinweightProfileDataLayoutChanges
	VerUE4NonOuterPackageImport
	VerUE4AssetregistryDependencyflags
	VerUE4CorrectLicenseeFlag
	VerUE4ChangeSetArrayBytecode
	VerUE4NamesReferencedFromExportData
	VerUE4PayloadTOC
	VerUE4DataResources
	VerUE4AutomaticVersionPlusOne
)

// VerUE4AutomaticVersion is the highest value this ladder models.
const VerUE4AutomaticVersion = VerUE4AutomaticVersionPlusOne - 1

// Header-only gates that predate VerUE4OldestLoadablePackage, so they are
// effectively always present in any package this codec can open. Kept as
// explicitly-valued thresholds below the ladder's floor rather than
// folded into the iota chain above, since their exact relative order no
// longer matters once every one of them is unconditionally satisfied.
const (
	VerUE4SerializeTextInPackages             ObjectVersion = 112
	VerUE4AddStringAssetReferencesMap         ObjectVersion = 159
	VerUE4AddedChunkIDToAssetDataAndUPackage  ObjectVersion = 180
	VerUE4WorldLevelInfo                      ObjectVersion = 186
	VerUE4ChangedChunkIDToBeAnArrayOfChunkIDs ObjectVersion = 199
	VerUE4EngineVersionObject                 ObjectVersion = 207
	VerUE4PackageSummaryHasCompatibleEngineVersion ObjectVersion = 213
)

// ObjectVersionUE5 is the UE5-era continuation of ObjectVersion, gating
// fields that only exist in packages cooked by UE5 or later.
type ObjectVersionUE5 int32

const (
	VerUE5InitialVersion ObjectVersionUE5 = iota
	VerUE5NamesReferencedFromExportData
	VerUE5PayloadTOC
	VerUE5OptionalResources
	VerUE5AddSoftObjectPathList
	VerUE5DataResources
	VerUE5AutomaticVersionPlusOne
)

// FeatureTag names an engine-version threshold consulted by feature_present.
// The string form matches the VER_UE4_*/VER_UE5_* identifier it gates,
// minus the VER_UE4_/VER_UE5_ prefix, so callers can spell it the same way
// the original engine source does.
type FeatureTag string

// Feature tags the codec actually branches on.
const (
	FeatureAddedPackageOwner               FeatureTag = "ADDED_PACKAGE_OWNER"
	FeatureChangeSetArrayBytecode          FeatureTag = "CHANGE_SETARRAY_BYTECODE"
	Feature64BitExportmapSerialsizes       FeatureTag = "64BIT_EXPORTMAP_SERIALSIZES"
	FeatureNamesReferencedFromExportData   FeatureTag = "NAMES_REFERENCED_FROM_EXPORT_DATA"
	FeaturePropertyGuidInPropertyTag       FeatureTag = "PROPERTY_GUID_IN_PROPERTY_TAG"
	FeatureNameHashesSerialized            FeatureTag = "NAME_HASHES_SERIALIZED"
	FeatureAddedSoftObjectPath             FeatureTag = "ADDED_SOFT_OBJECT_PATH"
	FeatureTemplateIndexInCookedExports    FeatureTag = "TEMPLATEINDEX_IN_COOKED_EXPORTS"
	FeatureAddedSearchableNames            FeatureTag = "ADDED_SEARCHABLE_NAMES"
	FeaturePayloadTOC                      FeatureTag = "PAYLOAD_TOC"
	FeatureDataResources                   FeatureTag = "DATA_RESOURCES"
	FeatureSerializeTextInPackages         FeatureTag = "SERIALIZE_TEXT_IN_PACKAGES"
	FeatureAddStringAssetReferencesMap     FeatureTag = "ADD_STRING_ASSET_REFERENCES_MAP"
	FeatureAddedChunkIDToAssetDataAndUPackage FeatureTag = "ADDED_CHUNKID_TO_ASSETDATA_AND_UPACKAGE"
	FeatureWorldLevelInfo                  FeatureTag = "WORLD_LEVEL_INFO"
	FeatureChangedChunkIDToBeAnArrayOfChunkIDs FeatureTag = "CHANGED_CHUNKID_TO_BE_AN_ARRAY_OF_CHUNKIDS"
	FeatureEngineVersionObject             FeatureTag = "ENGINE_VERSION_OBJECT"
	FeaturePackageSummaryHasCompatibleEngineVersion FeatureTag = "PACKAGE_SUMMARY_HAS_COMPATIBLE_ENGINE_VERSION"
	FeaturePreloadDependenciesInCookedExports FeatureTag = "PRELOAD_DEPENDENCIES_IN_COOKED_EXPORTS"
	FeatureAddSoftObjectPathList            FeatureTag = "ADD_SOFTOBJECTPATH_LIST"
	FeatureOptionalResources                FeatureTag = "OPTIONAL_RESOURCES"
)

var featureGate = map[FeatureTag]ObjectVersion{
	FeatureAddedPackageOwner:             VerUE4AddedPackageOwner,
	FeatureChangeSetArrayBytecode:        VerUE4ChangeSetArrayBytecode,
	Feature64BitExportmapSerialsizes:     VerUE4_64BitExportmapSerialsizes,
	FeatureNamesReferencedFromExportData: VerUE4NamesReferencedFromExportData,
	FeaturePropertyGuidInPropertyTag:     VerUE4PropertyGuidInPropertyTag,
	FeatureNameHashesSerialized:          VerUE4NameHashesSerialized,
	FeatureAddedSoftObjectPath:           VerUE4AddedSoftObjectPath,
	FeatureTemplateIndexInCookedExports:  VerUE4TemplateIndexInCookedExports,
	FeatureAddedSearchableNames:          VerUE4AddedSearchableNames,
	FeatureSerializeTextInPackages:              VerUE4SerializeTextInPackages,
	FeatureAddStringAssetReferencesMap:          VerUE4AddStringAssetReferencesMap,
	FeatureAddedChunkIDToAssetDataAndUPackage:   VerUE4AddedChunkIDToAssetDataAndUPackage,
	FeatureWorldLevelInfo:                       VerUE4WorldLevelInfo,
	FeatureChangedChunkIDToBeAnArrayOfChunkIDs:  VerUE4ChangedChunkIDToBeAnArrayOfChunkIDs,
	FeatureEngineVersionObject:                  VerUE4EngineVersionObject,
	FeaturePackageSummaryHasCompatibleEngineVersion: VerUE4PackageSummaryHasCompatibleEngineVersion,
	FeaturePreloadDependenciesInCookedExports:   VerUE4PreloadDependenciesInCookedExports,
}

// featureGateUE5 holds the tags gated on the UE5 ladder instead.
var featureGateUE5 = map[FeatureTag]ObjectVersionUE5{
	FeaturePayloadTOC:           VerUE5PayloadTOC,
	FeatureDataResources:        VerUE5DataResources,
	FeatureAddSoftObjectPathList: VerUE5AddSoftObjectPathList,
	FeatureOptionalResources:    VerUE5OptionalResources,
}

// VersionContainer carries the two version numbers (and the UE5 one, when
// present) a package was cooked with, plus any custom versions it recorded.
type VersionContainer struct {
	FileVersion     ObjectVersion
	FileVersionUE5  ObjectVersionUE5
	CustomVersions  []CustomVersion
}

// FeaturePresent reports whether a feature gated by an engine-version
// threshold is available under vc's recorded version. An unversioned
// package (FileVersion == UnknownVersion) must have had its version set
// externally by the caller before this is meaningful; callers that skip
// that step see every UE4-ladder gate as present, which is deliberately
// permissive rather than silently wrong in the caller's favor. UE5-ladder
// gates always compare FileVersionUE5, and an unrecognized tag is never
// present.
func (vc VersionContainer) FeaturePresent(tag FeatureTag) bool {
	if ue5, ok := featureGateUE5[tag]; ok {
		return vc.FileVersionUE5 >= ue5
	}
	gate, ok := featureGate[tag]
	if !ok {
		return false
	}
	if vc.FileVersion == UnknownVersion {
		return true
	}
	return vc.FileVersion >= gate
}

// CustomVersion pairs a namespace GUID with the version number a package
// recorded for it, read straight out of the package's custom-version
// container (§4.3 header field 6).
type CustomVersion struct {
	Key     uuid.UUID
	Version int32
}

// customVersionNamespace is the well-known registry of namespace GUID to
// friendly name, mirroring FCustomVersionRegistry's guid_to_version_info.
type customVersionNamespace struct {
	guid uuid.UUID
	name string
}

var knownNamespaces = []customVersionNamespace{
	{mustGUID("CFFC743F-43B0-4480-9391-14DF171D2073"), "FFrameworkObjectVersion"},
	{mustGUID("375EC13C-06E4-48FB-B500-84F0262A717E"), "FCoreObjectVersion"},
	{mustGUID("E4B068ED-F494-42E9-A231-DA0B2E46BB41"), "FEditorObjectVersion"},
	{mustGUID("9C54D522-A826-4FBE-9421-074661B482D0"), "FReleaseObjectVersion"},
	{mustGUID("601D1886-AC64-4F84-AA16-D3DE0DEAC7D6"), "FFortniteMainBranchObjectVersion"},
}

func mustGUID(s string) uuid.UUID {
	u, err := uuid.Parse(s)
	if err != nil {
		panic(err)
	}
	return u
}

// NamespaceName returns the friendly name registered for guid, if any.
func NamespaceName(guid uuid.UUID) (string, bool) {
	for _, ns := range knownNamespaces {
		if ns.guid == guid {
			return ns.name, true
		}
	}
	return "", false
}

// CustomVersionOf returns the version recorded for namespace guid, falling
// back to fromEngineVersion when vc has no entry for it — exactly the
// "unversioned package" behavior spec.md §4.1 describes for
// custom_version<T>().
func (vc VersionContainer) CustomVersionOf(guid uuid.UUID, fromEngineVersion func(ObjectVersion) int32) int32 {
	for _, cv := range vc.CustomVersions {
		if cv.Key == guid {
			return cv.Version
		}
	}
	return fromEngineVersion(vc.FileVersion)
}
