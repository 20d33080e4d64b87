// Copyright 2024 The uasset Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package uasset

import "github.com/pkg/errors"

// PropertySchema describes one property slot in a class's unversioned
// property schema: its name, its serialized type, the array/duplication
// index it carries, and — for the handful of variants that need
// type-specific framing (§4.4's ArrayProperty/MapProperty/StructProperty/
// EnumProperty/ByteProperty) — the inner/key/value/struct/enum type
// names a tagged property would otherwise read off the wire itself.
type PropertySchema struct {
	Name       string
	Type       string
	ArrayIndex int32

	InnerType  string
	KeyType    string
	ValueType  string
	StructType string
	EnumType   string
}

// ClassSchema is one class's ordered property list plus the parent
// class to keep walking when a schema index runs past the end of
// Properties (§4.4 "Unversioned mode": a running property index is
// resolved by subtracting each class's property count and following
// its super type until it lands inside some class's own list).
type ClassSchema struct {
	Properties []PropertySchema
	Super      string
}

// Mappings resolves a class name to its unversioned property schema.
// It is the in-memory form of the external mapping file (a USMAP,
// typically) spec.md describes as "out-of-scope for loading but must
// be consumed if provided": this module never parses that file format
// itself, only this lookup contract once some caller has.
type Mappings interface {
	SchemaFor(className string) (ClassSchema, bool)
}

// StaticMappings is a Mappings built from an in-memory table, useful
// for tests and for callers who've already parsed a mapping file into
// this shape themselves.
type StaticMappings map[string]ClassSchema

// SchemaFor implements Mappings.
func (m StaticMappings) SchemaFor(className string) (ClassSchema, bool) {
	s, ok := m[className]
	return s, ok
}

// resolveSchemaProperty walks className's schema chain to find the
// property at the given absolute (cross-class) schema index.
func resolveSchemaProperty(mappings Mappings, className string, index int) (PropertySchema, error) {
	for {
		schema, ok := mappings.SchemaFor(className)
		if !ok {
			return PropertySchema{}, errors.Errorf("unversioned properties: no schema mapped for class %q", className)
		}
		if index < len(schema.Properties) {
			return schema.Properties[index], nil
		}
		if schema.Super == "" {
			return PropertySchema{}, errors.Errorf("unversioned properties: schema index %d exceeds class %q's schema chain", index, className)
		}
		index -= len(schema.Properties)
		className = schema.Super
	}
}

// schemaGlobalIndex is resolveSchemaProperty's inverse: it finds the
// absolute schema index of the named property somewhere in className's
// schema chain, for the write path.
func schemaGlobalIndex(mappings Mappings, className, propName string) (int, bool) {
	offset := 0
	for {
		schema, ok := mappings.SchemaFor(className)
		if !ok {
			return 0, false
		}
		for i, p := range schema.Properties {
			if p.Name == propName {
				return offset + i, true
			}
		}
		if schema.Super == "" {
			return 0, false
		}
		offset += len(schema.Properties)
		className = schema.Super
	}
}

// schemaTotalCount sums the property counts across className's entire
// schema chain, the "all properties" bound EmitFragments needs for its
// no-properties-present fallback fragment.
func schemaTotalCount(mappings Mappings, className string) int {
	total := 0
	for {
		schema, ok := mappings.SchemaFor(className)
		if !ok {
			return total
		}
		total += len(schema.Properties)
		if schema.Super == "" {
			return total
		}
		className = schema.Super
	}
}
