// Copyright 2024 The uasset Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package transform

import (
	"testing"

	"github.com/astromodkit/uasset"
)

// buildLevelPackage constructs a minimal level package: a single Level
// export with an empty actor array, plus an import table big enough for
// EmbedActor's synthesized imports to dedup against.
func buildLevelPackage() *uasset.Package {
	names := uasset.NewNameMap()
	names.Add("None", false)

	levelExport := &uasset.Export{
		BaseExport: uasset.BaseExport{
			ClassIndex: uasset.NullIndex,
			OuterIndex: uasset.NullIndex,
			ObjectName: uasset.NewFName(names, "PersistentLevel", 0, false),
		},
		Payload: &uasset.LevelPayload{},
	}

	return &uasset.Package{
		Version: uasset.VersionContainer{FileVersion: uasset.VerUE4AutomaticVersion},
		Summary: &uasset.PackageSummary{FolderName: "None"},
		Names:   names,
		Exports: []*uasset.Export{levelExport},
	}
}

// buildActorTemplate constructs an ActorTemplate's two donor exports: a
// minimal Normal-payload actor export and a minimal Normal-payload scene
// component export, both with empty property lists the clone starts from.
func buildActorTemplate(names *uasset.NameMap) ActorTemplate {
	actor := &uasset.Export{
		BaseExport: uasset.BaseExport{
			ClassIndex: uasset.NullIndex,
			OuterIndex: uasset.NullIndex,
			ObjectName: uasset.NewFName(names, "BP_Thing_C_0", 0, false),
		},
		Payload: &uasset.NormalPayload{},
	}
	scene := &uasset.Export{
		BaseExport: uasset.BaseExport{
			ClassIndex: uasset.NullIndex,
			OuterIndex: uasset.NullIndex,
			ObjectName: uasset.NewFName(names, "DefaultSceneRoot", 0, false),
		},
		Payload: &uasset.NormalPayload{},
	}
	return ActorTemplate{Actor: actor, SceneComponent: scene}
}

// buildActorPackage constructs a donor Blueprint actor package with one
// SimpleConstructionScript export (class import named
// "SimpleConstructionScript") whose AllNodes array references a single
// SCS_Node export naming its component "DefaultSceneRoot" with no parent,
// plus the ComponentClass import chain that node needs.
func buildActorPackage() *uasset.Package {
	names := uasset.NewNameMap()
	names.Add("None", false)

	imports := []uasset.Import{
		{ObjectName: uasset.NewFName(names, "SimpleConstructionScript", 0, false)},                  // 0
		{ObjectName: uasset.NewFName(names, "SCS_Node", 0, false)},                                  // 1
		{ObjectName: uasset.NewFName(names, "SceneComponent", 0, false)},                             // 2
		{ObjectName: uasset.NewFName(names, "/Script/Engine", 0, false)},                             // 3
		{Outer: uasset.ImportIndex(3), ObjectName: uasset.NewFName(names, "SceneComponent", 0, false)}, // 4: the class import itself
	}

	scsNodeExport := &uasset.Export{
		BaseExport: uasset.BaseExport{
			ClassIndex: uasset.ImportIndex(1),
			OuterIndex: uasset.NullIndex,
			ObjectName: uasset.NewFName(names, "SCS_Node_0", 0, false),
		},
		Payload: &uasset.NormalPayload{
			Properties: []uasset.Property{
				uasset.NewNameProperty(uasset.NewFName(names, "InternalVariableName", 0, false), uasset.NewFName(names, "DefaultSceneRoot", 0, false)),
				uasset.NewObjectProperty(uasset.NewFName(names, "ComponentClass", 0, false), uasset.ImportIndex(4)),
			},
		},
	}

	scsExport := &uasset.Export{
		BaseExport: uasset.BaseExport{
			ClassIndex: uasset.ImportIndex(0),
			OuterIndex: uasset.NullIndex,
			ObjectName: uasset.NewFName(names, "SimpleConstructionScript_0", 0, false),
		},
		Payload: &uasset.NormalPayload{
			Properties: []uasset.Property{
				uasset.NewArrayProperty(
					uasset.NewFName(names, "AllNodes", 0, false),
					uasset.NewFName(names, "ObjectProperty", 0, false),
					[]uasset.Property{uasset.NewObjectProperty(uasset.NewFName(names, "AllNodes", 0, false), uasset.ExportIndex(0))},
				),
			},
		},
	}

	return &uasset.Package{
		Version: uasset.VersionContainer{FileVersion: uasset.VerUE4AutomaticVersion},
		Summary: &uasset.PackageSummary{FolderName: "None"},
		Names:   names,
		Imports: imports,
		Exports: []*uasset.Export{scsNodeExport, scsExport},
	}
}

func TestEmbedActorAddsActorAndComponentExports(t *testing.T) {
	level := buildLevelPackage()
	actorPkg := buildActorPackage()
	tmpl := buildActorTemplate(level.Names)

	startExports := len(level.Exports)
	if err := EmbedActor(level, actorPkg, "/Game/Foo/BP_Thing.BP_Thing", tmpl); err != nil {
		t.Fatalf("EmbedActor: %v", err)
	}

	// One new scene-component export (DefaultSceneRoot) plus the actor
	// template itself.
	if got, want := len(level.Exports), startExports+2; got != want {
		t.Fatalf("len(Exports) = %d, want %d", got, want)
	}

	levelExport := level.Exports[0]
	levelPayload := levelExport.Payload.(*uasset.LevelPayload)
	if len(levelPayload.Actors) != 1 {
		t.Fatalf("len(Actors) = %d, want 1", len(levelPayload.Actors))
	}

	actorIdx := levelPayload.Actors[0]
	if !actorIdx.IsExport() || actorIdx.ExportSlot() != len(level.Exports)-1 {
		t.Fatalf("Actors[0] = %v, want the last export slot", actorIdx)
	}

	actorExport := level.Exports[actorIdx.ExportSlot()]
	if actorExport.ObjectName.String() != "BP_Thing" {
		t.Fatalf("actor ObjectName = %q, want \"BP_Thing\"", actorExport.ObjectName.String())
	}
	actorPayload := actorExport.Payload.(*uasset.NormalPayload)

	var foundRootComponent, foundHidden bool
	for _, p := range actorPayload.Properties {
		switch p.Tag().Name.String() {
		case "RootComponent":
			foundRootComponent = true
		case "bHidden":
			foundHidden = true
			if bp, ok := p.(*uasset.BoolProperty); !ok || !bp.Value {
				t.Fatalf("bHidden property = %+v, want BoolProperty{Value: true}", p)
			}
		}
	}
	if !foundRootComponent {
		t.Fatalf("actor properties missing RootComponent: %+v", actorPayload.Properties)
	}
	if !foundHidden {
		t.Fatalf("actor properties missing bHidden: %+v", actorPayload.Properties)
	}

	if levelExport.Dependencies.CreateBeforeSerializationDependencies[len(levelExport.Dependencies.CreateBeforeSerializationDependencies)-1] != actorIdx {
		t.Fatalf("Level export's CreateBeforeSerializationDependencies doesn't reference the new actor")
	}
}

func TestEmbedActorRequiresTemplate(t *testing.T) {
	level := buildLevelPackage()
	actorPkg := buildActorPackage()
	if err := EmbedActor(level, actorPkg, "/Game/Foo/BP_Thing.BP_Thing", ActorTemplate{}); err == nil {
		t.Fatalf("EmbedActor with an empty template succeeded, want an error")
	}
}

func TestEmbedActorRequiresLevelExport(t *testing.T) {
	names := uasset.NewNameMap()
	names.Add("None", false)
	level := &uasset.Package{
		Version: uasset.VersionContainer{FileVersion: uasset.VerUE4AutomaticVersion},
		Summary: &uasset.PackageSummary{FolderName: "None"},
		Names:   names,
	}
	actorPkg := buildActorPackage()
	tmpl := buildActorTemplate(names)

	if err := EmbedActor(level, actorPkg, "/Game/Foo/BP_Thing.BP_Thing", tmpl); err == nil {
		t.Fatalf("EmbedActor on a package with no Level export succeeded, want an error")
	}
}

func TestEmbedAllIsolatesFailingMap(t *testing.T) {
	goodLevel := buildLevelPackage()
	badLevel := &uasset.Package{
		Version: uasset.VersionContainer{FileVersion: uasset.VerUE4AutomaticVersion},
		Summary: &uasset.PackageSummary{FolderName: "None"},
		Names:   uasset.NewNameMap(),
	}
	actorPkg := buildActorPackage()
	tmpl := buildActorTemplate(goodLevel.Names)

	requests := []EmbedRequest{
		{Level: badLevel, LevelPath: "/Game/Maps/Bad", ActorPkg: actorPkg, ComponentPath: "/Game/Foo/BP_Thing.BP_Thing"},
		{Level: goodLevel, LevelPath: "/Game/Maps/Good", ActorPkg: actorPkg, ComponentPath: "/Game/Foo/BP_Thing.BP_Thing"},
	}

	warnings := EmbedAll(requests, tmpl)
	if warnings == nil || warnings.Len() != 1 {
		t.Fatalf("EmbedAll warnings = %v, want exactly 1", warnings)
	}

	levelPayload := goodLevel.Exports[0].Payload.(*uasset.LevelPayload)
	if len(levelPayload.Actors) != 1 {
		t.Fatalf("good level's Actors = %v, want 1 entry despite the other map's failure", levelPayload.Actors)
	}
}
