// Copyright 2024 The uasset Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/astromodkit/uasset"
	"github.com/astromodkit/uasset/transform"
)

var (
	verbose     bool
	wantHeader  bool
	wantNames   bool
	wantImports bool
	wantExports bool
	wantAll     bool

	bulkDataPath string

	objectVersion    int
	objectVersionUE5 int
)

func prettyPrint(buff []byte) string {
	var out bytes.Buffer
	if err := json.Indent(&out, buff, "", "\t"); err != nil {
		log.Println("JSON parse error:", err)
		return string(buff)
	}
	return out.String()
}

func versionContainerFromFlags() uasset.VersionContainer {
	return uasset.VersionContainer{
		FileVersion:    uasset.ObjectVersion(objectVersion),
		FileVersionUE5: uasset.ObjectVersionUE5(objectVersionUE5),
	}
}

func dumpFile(filename string) {
	log.Printf("processing %s", filename)

	pkg, err := uasset.OpenFile(filename, bulkDataPath, versionContainerFromFlags(), nil)
	if err != nil {
		log.Printf("error opening %s: %s", filename, err)
		return
	}
	defer pkg.Close()

	if wantHeader || wantAll {
		b, _ := json.Marshal(pkg.Summary)
		fmt.Println(prettyPrint(b))
	}
	if wantNames || wantAll {
		b, _ := json.Marshal(pkg.Names.Entries())
		fmt.Println(prettyPrint(b))
	}
	if wantImports || wantAll {
		b, _ := json.Marshal(pkg.Imports)
		fmt.Println(prettyPrint(b))
	}
	if wantExports || wantAll {
		b, _ := json.Marshal(pkg.Exports)
		fmt.Println(prettyPrint(b))
	}
	if pkg.Warnings != nil {
		for _, w := range pkg.Warnings.Errors {
			log.Printf("warning: %s: %s", filename, w)
		}
	}
}

func dump(cmd *cobra.Command, args []string) {
	for _, filename := range args {
		dumpFile(filename)
	}
}

// templateFromPackage locates the actor-template and scene-component
// template exports within a parsed LevelTemplate-equivalent package by
// object name, rather than by the original persistent_actors.rs's fixed
// export slots 2/11 — slot numbers aren't stable across a template
// asset's own cook, but the names this tool expects it to carry are.
func templateFromPackage(pkg *uasset.Package) (transform.ActorTemplate, error) {
	var tmpl transform.ActorTemplate
	for _, exp := range pkg.Exports {
		switch exp.ObjectName.String() {
		case "ActorTemplate":
			tmpl.Actor = exp
		case "SceneComponentTemplate":
			tmpl.SceneComponent = exp
		}
	}
	if tmpl.Actor == nil || tmpl.SceneComponent == nil {
		return tmpl, fmt.Errorf("template package carries no ActorTemplate/SceneComponentTemplate export")
	}
	return tmpl, nil
}

func embed(cmd *cobra.Command, args []string) {
	levelPath, _ := cmd.Flags().GetString("level")
	actorPath, _ := cmd.Flags().GetString("actor")
	templatePath, _ := cmd.Flags().GetString("template")
	componentPath, _ := cmd.Flags().GetString("component")
	outPath, _ := cmd.Flags().GetString("out")

	vc := versionContainerFromFlags()

	level, err := uasset.OpenFile(levelPath, "", vc, nil)
	if err != nil {
		log.Fatalf("opening level %s: %s", levelPath, err)
	}
	defer level.Close()

	actorPkg, err := uasset.OpenFile(actorPath, "", vc, nil)
	if err != nil {
		log.Fatalf("opening actor %s: %s", actorPath, err)
	}
	defer actorPkg.Close()

	templatePkg, err := uasset.OpenFile(templatePath, "", vc, nil)
	if err != nil {
		log.Fatalf("opening template %s: %s", templatePath, err)
	}
	defer templatePkg.Close()

	tmpl, err := templateFromPackage(templatePkg)
	if err != nil {
		log.Fatalf("template %s: %s", templatePath, err)
	}

	if err := transform.EmbedActor(level, actorPkg, componentPath, tmpl); err != nil {
		log.Fatalf("embed: %s", err)
	}

	out, err := level.Serialize()
	if err != nil {
		log.Fatalf("serializing %s: %s", levelPath, err)
	}
	if err := ioutil.WriteFile(outPath, out, 0644); err != nil {
		log.Fatalf("writing %s: %s", outPath, err)
	}
}

func main() {
	var rootCmd = &cobra.Command{
		Use:   "uassetdump",
		Short: "An Unreal .uasset/.umap package inspector and level-embed tool",
		Long:  "Parses and dumps .uasset/.umap packages, and embeds Blueprint actor instances into levels",
		Run: func(cmd *cobra.Command, args []string) {
		},
	}

	var versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print version number",
		Long:  "Print version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Print("You are using version 0.0.1")
		},
	}

	var dumpCmd = &cobra.Command{
		Use:   "dump",
		Short: "Dumps a package's structure",
		Long:  "Dumps the header, name map, import table and export table of one or more .uasset/.umap files",
		Args:  cobra.MinimumNArgs(1),
		Run:   dump,
	}

	var embedCmd = &cobra.Command{
		Use:   "embed",
		Short: "Embeds a Blueprint actor into a level",
		Long:  "Embeds one instance of a Blueprint actor into a level's persistent-actor list, following its component tree",
		Run:   embed,
	}

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(dumpCmd)
	rootCmd.AddCommand(embedCmd)

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().IntVar(&objectVersion, "object-version", int(uasset.VerUE4AutomaticVersion), "ObjectVersion to parse unversioned packages with")
	rootCmd.PersistentFlags().IntVar(&objectVersionUE5, "object-version-ue5", 0, "ObjectVersionUE5 to parse unversioned packages with")

	dumpCmd.Flags().BoolVarP(&wantHeader, "header", "", false, "Dump the package summary/header")
	dumpCmd.Flags().BoolVarP(&wantNames, "names", "", false, "Dump the name map")
	dumpCmd.Flags().BoolVarP(&wantImports, "imports", "", false, "Dump the import table")
	dumpCmd.Flags().BoolVarP(&wantExports, "exports", "", false, "Dump the export table")
	dumpCmd.Flags().BoolVarP(&wantAll, "all", "", false, "Dump everything")
	dumpCmd.Flags().StringVar(&bulkDataPath, "bulk", "", "Path to an accompanying .uexp/.ubulk bulk data file")

	embedCmd.Flags().String("level", "", "Path to the target .umap level")
	embedCmd.Flags().String("actor", "", "Path to the Blueprint actor .uasset to embed")
	embedCmd.Flags().String("template", "", "Path to the template asset carrying the actor/scene-component exports")
	embedCmd.Flags().String("component", "", "Short actor reference, e.g. /Game/Foo/BP_Bar.BP_Bar")
	embedCmd.Flags().String("out", "", "Output path for the mutated level")
	embedCmd.MarkFlagRequired("level")
	embedCmd.MarkFlagRequired("actor")
	embedCmd.MarkFlagRequired("template")
	embedCmd.MarkFlagRequired("component")
	embedCmd.MarkFlagRequired("out")

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
