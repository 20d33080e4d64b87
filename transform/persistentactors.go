// Copyright 2024 The uasset Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package transform implements level-level mutations built on top of the
// uasset codec — currently the persistent-actor embed operation that
// splices a Blueprint actor instance into a ULevel's component tree.
package transform

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/astromodkit/uasset"
)

// ActorTemplate bundles the two built-in exports EmbedActor clones from:
// the actor itself, and the scene-component node each SCS node's
// instance is cloned from. The real engine ships these baked into a
// binary LevelTemplate.umap asset (persistent_actors.rs embeds it wholesale
// and indexes exports[2]/exports[11] at runtime); this package takes
// already-opened copies instead of embedding that binary game asset, since
// there's no such fixture to embed honestly. Callers open it once (e.g.
// from an on-disk LevelTemplate.umap shipped alongside the tool) and reuse
// the same ActorTemplate across every EmbedActor call.
type ActorTemplate struct {
	Actor          *uasset.Export
	SceneComponent *uasset.Export
}

// primedNames are the fixed name-map entries §4.6 step 1 requires be
// present before any property referencing them is synthesized.
var primedNames = []string{
	"bHidden",
	"bNetAddressable",
	"CreationMethod",
	"EComponentCreationMethod",
	"EComponentCreationMethod::SimpleConstructionScript",
	"BlueprintCreatedComponents",
	"AttachParent",
	"RootComponent",
}

// scsNode is one resolved entry of the actor's component tree, mirroring
// persistent_actors.rs's ScsNode.
type scsNode struct {
	internalVariableName string
	typeLink              uasset.PackageIndex
	attachParent          uasset.PackageIndex
	hasAttachParent       bool
	originalCategory      uasset.PackageIndex // 1-based PackageIndex of the SCS_Node export in actorPkg
}

// EmbedActor embeds one instance of the Blueprint actor described by
// actorPkg into level, following the component tree actorPkg's
// SimpleConstructionScript export describes (§4.6). componentPath is a
// short human reference like "/Game/Foo/BP_Bar.BP_Bar"; the package path
// and component name are both derived from it.
//
// A failure returns a plain error naming the actor's componentPath
// (EmbedAll prefixes the level path) — callers processing many (level, actor) pairs should use EmbedAll, which
// isolates one map's failure from the rest of the batch per §4.6's
// failure semantics.
func EmbedActor(level, actorPkg *uasset.Package, componentPath string, tmpl ActorTemplate) error {
	if tmpl.Actor == nil || tmpl.SceneComponent == nil {
		return fmt.Errorf("persistentactors: %s: no actor/scene-component template supplied", componentPath)
	}

	levelIdx, ok := findLevelExport(level)
	if !ok {
		return fmt.Errorf("persistentactors: %s: level package has no Level export", componentPath)
	}
	levelExport := level.Exports[levelIdx]
	levelPayload, ok := levelExport.Payload.(*uasset.LevelPayload)
	if !ok {
		return fmt.Errorf("persistentactors: %s: Level export has no level payload", componentPath)
	}

	for _, n := range primedNames {
		level.Names.Add(n, false)
	}

	packagePath, componentName := splitComponentPath(componentPath)

	actorTemplate, err := cloneNormalExport(tmpl.Actor)
	if err != nil {
		return fmt.Errorf("persistentactors: %s: actor template: %w", componentPath, err)
	}

	packageIdx := addImportDedup(level, uasset.Import{
		ClassPackage: uasset.NewFName(level.Names, "/Script/CoreUObject", 0, false),
		ClassName:    uasset.NewFName(level.Names, "Package", 0, false),
		Outer:        uasset.NullIndex,
		ObjectName:   uasset.NewFName(level.Names, packagePath, 0, false),
	})
	blueprintClassIdx := addImportDedup(level, uasset.Import{
		ClassPackage: uasset.NewFName(level.Names, "/Script/Engine", 0, false),
		ClassName:    uasset.NewFName(level.Names, "BlueprintGeneratedClass", 0, false),
		Outer:        packageIdx,
		ObjectName:   uasset.NewFName(level.Names, componentName+"_C", 0, false),
	})
	defaultIdx := addImportDedup(level, uasset.Import{
		ClassPackage: uasset.NewFName(level.Names, packagePath, 0, false),
		ClassName:    uasset.NewFName(level.Names, componentName+"_C", 0, false),
		Outer:        packageIdx,
		ObjectName:   uasset.NewFName(level.Names, "Default__"+componentName+"_C", 0, false),
	})

	actorTemplate.ClassIndex = blueprintClassIdx
	actorTemplate.ObjectName = uasset.NewFName(level.Names, componentName, 0, false)
	actorTemplate.TemplateIndex = defaultIdx
	actorTemplate.OuterIndex = uasset.ExportIndex(levelIdx)

	nodes, err := gatherSCSNodes(level, actorPkg)
	if err != nil {
		return fmt.Errorf("persistentactors: %s: %w", componentPath, err)
	}

	// Placeholder outer every synthesized scene-component export shares:
	// the slot the actor-template export will occupy once every scene
	// export ahead of it has been appended (§4.6 step 5).
	templateSlot := uasset.PackageIndex(int32(len(level.Exports)) + int32(len(nodes)) + 1)

	var blueprintCreatedComponents []uasset.Property
	attachParentFixups := map[int][]int{} // level export slot -> Properties indices needing a final value
	nodeNameToExport := map[string]uasset.PackageIndex{}
	oldCategoryToExport := map[uasset.PackageIndex]uasset.PackageIndex{}

	for _, node := range nodes {
		sceneExport, err := cloneNormalExport(tmpl.SceneComponent)
		if err != nil {
			return fmt.Errorf("persistentactors: %s: scene component template: %w", componentPath, err)
		}
		sceneExport.ClassIndex = node.typeLink
		sceneExport.ObjectName = uasset.NewFName(level.Names, node.internalVariableName, 0, false)
		sceneExport.OuterIndex = templateSlot

		payload := sceneExport.Payload.(*uasset.NormalPayload)
		props := []uasset.Property{
			uasset.NewBoolProperty(uasset.NewFName(level.Names, "bNetAddressable", 0, false), true),
			uasset.NewEnumProperty(
				uasset.NewFName(level.Names, "CreationMethod", 0, false),
				uasset.NewFName(level.Names, "EComponentCreationMethod", 0, false),
				uasset.NewFName(level.Names, "EComponentCreationMethod::SimpleConstructionScript", 0, false),
			),
		}
		var fixupIndices []int
		if node.hasAttachParent {
			fixupIndices = append(fixupIndices, len(props))
			props = append(props, uasset.NewObjectProperty(uasset.NewFName(level.Names, "AttachParent", 0, false), node.attachParent))
		}
		payload.Properties = props
		payload.Extras = make([]byte, 4)

		level.Exports = append(level.Exports, sceneExport)
		newIdx := uasset.ExportIndex(len(level.Exports) - 1)
		if len(fixupIndices) > 0 {
			attachParentFixups[len(level.Exports)-1] = fixupIndices
		}

		blueprintCreatedComponents = append(blueprintCreatedComponents, uasset.NewObjectProperty(
			uasset.NewFName(level.Names, "BlueprintCreatedComponents", 0, false), newIdx))
		nodeNameToExport[node.internalVariableName] = newIdx
		oldCategoryToExport[node.originalCategory] = newIdx

		if node.typeLink.IsNull() {
			return fmt.Errorf("persistentactors: %s: node %q has no resolved component class", componentPath, node.internalVariableName)
		}
		typeLinkImport := level.Imports[node.typeLink.ImportSlot()]
		addImportDedup(level, uasset.Import{
			ClassPackage: uasset.NewFName(level.Names, "/Script/Engine", 0, false),
			ClassName:    typeLinkImport.ObjectName,
			Outer:        actorTemplate.ClassIndex,
			ObjectName:   uasset.NewFName(level.Names, node.internalVariableName+"_GEN_VARIABLE", 0, false),
		})
	}

	for exportSlot, indices := range attachParentFixups {
		payload := level.Exports[exportSlot].Payload.(*uasset.NormalPayload)
		for _, i := range indices {
			op := payload.Properties[i].(*uasset.ObjectProperty)
			newVal, ok := oldCategoryToExport[op.Value]
			if !ok {
				return fmt.Errorf("persistentactors: %s: dangling child reference in component tree", componentPath)
			}
			op.Value = newVal
		}
	}

	finalProps := []uasset.Property{
		uasset.NewBoolProperty(uasset.NewFName(level.Names, "bHidden", 0, false), true),
		uasset.NewArrayProperty(
			uasset.NewFName(level.Names, "BlueprintCreatedComponents", 0, false),
			uasset.NewFName(level.Names, "ObjectProperty", 0, false),
			blueprintCreatedComponents,
		),
	}
	for _, node := range nodes {
		exportIdx, ok := nodeNameToExport[node.internalVariableName]
		if !ok {
			continue
		}
		if node.internalVariableName == "DefaultSceneRoot" {
			finalProps = append(finalProps, uasset.NewObjectProperty(uasset.NewFName(level.Names, "RootComponent", 0, false), exportIdx))
		}
		finalProps = append(finalProps, uasset.NewObjectProperty(uasset.NewFName(level.Names, node.internalVariableName, 0, false), exportIdx))
	}

	actorTemplate.Dependencies.SerializationBeforeCreateDependencies = append(
		actorTemplate.Dependencies.SerializationBeforeCreateDependencies, blueprintClassIdx, defaultIdx)
	actorTemplate.Dependencies.CreateBeforeCreateDependencies = append(
		actorTemplate.Dependencies.CreateBeforeCreateDependencies, uasset.ExportIndex(levelIdx))

	actorPayload := actorTemplate.Payload.(*uasset.NormalPayload)
	actorPayload.Properties = finalProps
	actorPayload.Extras = make([]byte, 4)

	level.Exports = append(level.Exports, actorTemplate)
	actorIdx := uasset.ExportIndex(len(level.Exports) - 1)

	levelPayload.Actors = append(levelPayload.Actors, actorIdx)
	levelExport.Dependencies.CreateBeforeSerializationDependencies = append(
		levelExport.Dependencies.CreateBeforeSerializationDependencies, actorIdx)

	return nil
}

// EmbedRequest names one actor to embed into one level package, for
// batch processing through EmbedAll.
type EmbedRequest struct {
	Level         *uasset.Package
	LevelPath     string
	ActorPkg      *uasset.Package
	ComponentPath string
}

// EmbedAll runs EmbedActor over every request, grouping by LevelPath.
// Unlike persistent_actors.rs (where a single failure aborts every
// remaining map via its caller's `?`), a failing actor only abandons the
// rest of its own map's requests; other maps still process — the
// skip-that-map-not-the-batch behavior §4.6's failure semantics describes.
func EmbedAll(requests []EmbedRequest, tmpl ActorTemplate) *multierror.Error {
	var warnings *multierror.Error
	failedMaps := make(map[string]bool)
	for _, req := range requests {
		if failedMaps[req.LevelPath] {
			continue
		}
		if err := EmbedActor(req.Level, req.ActorPkg, req.ComponentPath, tmpl); err != nil {
			warnings = multierror.Append(warnings, fmt.Errorf("%s: %w", req.LevelPath, err))
			failedMaps[req.LevelPath] = true
		}
	}
	return warnings
}

// findLevelExport returns the index of level's sole Level export.
func findLevelExport(level *uasset.Package) (int, bool) {
	for i, exp := range level.Exports {
		if exp.Payload != nil && exp.Payload.Kind() == uasset.ExportKindLevel {
			return i, true
		}
	}
	return 0, false
}

// findSCSExport returns the index of actorPkg's SimpleConstructionScript
// export: a Normal export whose class import's object name is exactly
// that.
func findSCSExport(actorPkg *uasset.Package) (int, bool) {
	for i, exp := range actorPkg.Exports {
		if _, ok := exp.Payload.(*uasset.NormalPayload); !ok {
			continue
		}
		if !exp.ClassIndex.IsImport() {
			continue
		}
		classImport := actorPkg.Imports[exp.ClassIndex.ImportSlot()]
		if classImport.ObjectName.String() == "SimpleConstructionScript" {
			return i, true
		}
	}
	return 0, false
}

// gatherSCSNodes walks actorPkg's component tree starting from its SCS
// export's AllNodes array, resolving each SCS_Node export's
// InternalVariableName/ComponentClass/ChildNodes properties (§4.6 step
// 4). Import lookups resolve against actorPkg's own import table — the
// asset whose export class_index they actually index into, unlike
// persistent_actors.rs's handle_persistent_actors, which looks SCS_Node
// and ComponentClass imports up in the *target* asset's table by mistake
// (a copy-paste slip carried over from an earlier version of that
// function; it only ever worked there because the two packages' early
// import slots happened to coincide in the games it shipped against).
func gatherSCSNodes(level, actorPkg *uasset.Package) ([]scsNode, error) {
	scsLoc, ok := findSCSExport(actorPkg)
	if !ok {
		return nil, fmt.Errorf("no SimpleConstructionScript export")
	}
	scsPayload, ok := actorPkg.Exports[scsLoc].Payload.(*uasset.NormalPayload)
	if !ok {
		return nil, fmt.Errorf("SimpleConstructionScript export has no property payload")
	}

	var categories []uasset.PackageIndex
	for _, prop := range scsPayload.Properties {
		arr, ok := prop.(*uasset.ArrayProperty)
		if !ok || prop.Tag().Name.String() != "AllNodes" || arr.InnerType.String() != "ObjectProperty" {
			continue
		}
		for _, elem := range arr.Elements {
			if op, ok := elem.(*uasset.ObjectProperty); ok && op.Value.IsExport() {
				categories = append(categories, op.Value)
			}
		}
	}

	knownParents := map[uasset.PackageIndex]uasset.PackageIndex{}
	var nodes []scsNode
	for _, category := range categories {
		if category.ExportSlot() < 0 || category.ExportSlot() >= len(actorPkg.Exports) {
			continue
		}
		exp := actorPkg.Exports[category.ExportSlot()]
		if !exp.ClassIndex.IsImport() {
			continue
		}
		classImport := actorPkg.Imports[exp.ClassIndex.ImportSlot()]
		if classImport.ObjectName.String() != "SCS_Node" {
			continue
		}
		payload, ok := exp.Payload.(*uasset.NormalPayload)
		if !ok {
			continue
		}

		node := scsNode{originalCategory: category, internalVariableName: "Unknown"}
		var componentClassImport, componentClassOuterImport *uasset.Import
		for _, prop := range payload.Properties {
			switch prop.Tag().Name.String() {
			case "InternalVariableName":
				if np, ok := prop.(*uasset.NameProperty); ok {
					node.internalVariableName = np.Value.String()
				}
			case "ComponentClass":
				op, ok := prop.(*uasset.ObjectProperty)
				if !ok || !op.Value.IsImport() {
					continue
				}
				ci := actorPkg.Imports[op.Value.ImportSlot()]
				if !ci.Outer.IsImport() {
					continue
				}
				co := actorPkg.Imports[ci.Outer.ImportSlot()]
				componentClassImport, componentClassOuterImport = &ci, &co
			case "ChildNodes":
				arr, ok := prop.(*uasset.ArrayProperty)
				if !ok || arr.InnerType.String() != "ObjectProperty" {
					continue
				}
				for _, elem := range arr.Elements {
					if op, ok := elem.(*uasset.ObjectProperty); ok {
						knownParents[op.Value] = category
					}
				}
			}
		}

		if componentClassImport != nil && componentClassOuterImport != nil {
			addImportDedup(level, rebindImport(level, *componentClassOuterImport))
			node.typeLink = addImportDedup(level, rebindImport(level, *componentClassImport))
		}
		nodes = append(nodes, node)
	}

	for i := range nodes {
		if parent, ok := knownParents[nodes[i].originalCategory]; ok {
			nodes[i].attachParent = parent
			nodes[i].hasAttachParent = true
		}
	}
	return nodes, nil
}

// addImportDedup returns the index of an import in level's import table
// equal by content to imp, appending it first if none exists yet.
func addImportDedup(level *uasset.Package, imp uasset.Import) uasset.PackageIndex {
	if i, ok := uasset.FindImport(level.Imports, imp); ok {
		return uasset.ImportIndex(i)
	}
	level.Imports = append(level.Imports, imp)
	return uasset.ImportIndex(len(level.Imports) - 1)
}

// rebindImport copies imp's FNames into level's name map, leaving its
// Outer PackageIndex untouched — it still addresses the source
// package's import table, matching what persistent_actors.rs itself
// carries across verbatim.
func rebindImport(level *uasset.Package, imp uasset.Import) uasset.Import {
	return uasset.Import{
		ClassPackage: rebindFName(level, imp.ClassPackage),
		ClassName:    rebindFName(level, imp.ClassName),
		Outer:        imp.Outer,
		ObjectName:   rebindFName(level, imp.ObjectName),
		Optional:     imp.Optional,
	}
}

func rebindFName(level *uasset.Package, n uasset.FName) uasset.FName {
	return uasset.NewFName(level.Names, n.Text(), n.Number, false)
}

// cloneNormalExport deep-copies a template export so repeated EmbedActor
// calls against the same ActorTemplate never alias each other's
// property lists or dependency arrays.
func cloneNormalExport(src *uasset.Export) (*uasset.Export, error) {
	srcPayload, ok := src.Payload.(*uasset.NormalPayload)
	if !ok {
		return nil, fmt.Errorf("template export is not a Normal export")
	}
	base := src.BaseExport
	base.Dependencies = uasset.ExportDependencies{
		SerializationBeforeSerializationDependencies: append([]uasset.PackageIndex(nil), src.Dependencies.SerializationBeforeSerializationDependencies...),
		CreateBeforeSerializationDependencies:        append([]uasset.PackageIndex(nil), src.Dependencies.CreateBeforeSerializationDependencies...),
		SerializationBeforeCreateDependencies:        append([]uasset.PackageIndex(nil), src.Dependencies.SerializationBeforeCreateDependencies...),
		CreateBeforeCreateDependencies:               append([]uasset.PackageIndex(nil), src.Dependencies.CreateBeforeCreateDependencies...),
	}
	payload := &uasset.NormalPayload{
		Properties: append([]uasset.Property(nil), srcPayload.Properties...),
		Extras:     append([]byte(nil), srcPayload.Extras...),
	}
	return &uasset.Export{BaseExport: base, Payload: payload}, nil
}

// splitComponentPath splits a short actor reference like
// "/Game/Foo/BP_Bar.BP_Bar" into its package path and its bare component
// name, used to derive the synthesized imports' object names. Inputs
// with no "<Path>.<Name>" suffix fall back to the path's final segment.
func splitComponentPath(raw string) (packagePath, name string) {
	if i := strings.LastIndexByte(raw, '.'); i >= 0 {
		return raw[:i], raw[i+1:]
	}
	name = raw
	if i := strings.LastIndexByte(raw, '/'); i >= 0 {
		name = raw[i+1:]
	}
	return raw, name
}
