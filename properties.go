// Copyright 2024 The uasset Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package uasset

import (
	"sort"

	"github.com/astromodkit/uasset/wire"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/astromodkit/uasset/internal/tagprop"
)

// PropertyTag is the framing shared by every tagged-property variant:
// its name, an optional GUID, the duplication index distinguishing
// repeated names, and a slot for the enclosing-struct chain (§3's
// Ancestry, recovered from the original's per-property Ancestry field —
// it never serializes, and no reader in this package fills it in).
type PropertyTag struct {
	Name             FName
	PropertyGUID     uuid.UUID
	HasPropertyGUID  bool
	DuplicationIndex int32
	Ancestry         []FName
}

// Property is the shared contract every tagged-property variant
// satisfies (§4.4). Only the type names registered in propertyRegistry
// decode to a typed variant; any other type name decodes to an
// UnknownProperty holding its payload bytes.
type Property interface {
	Tag() PropertyTag
	SerializedTypeName() string
	// WritePayload writes the variant's payload bytes (not the shared
	// tag framing) and returns the number of bytes written.
	WritePayload(w *wire.Writer, includeHeader bool) (int, error)
}

// propertyHeader carries the type-specific header fields a handful of
// variants read ahead of their payload: ArrayProperty's inner_type,
// MapProperty's key_type/value_type, StructProperty's struct_type and
// struct_guid, EnumProperty's enum_type, ByteProperty's enum_name.
type propertyHeader struct {
	InnerType  FName
	KeyType    FName
	ValueType  FName
	StructType FName
	StructGUID uuid.UUID
	EnumType   FName
	BoolValue  bool
}

// headerReader consumes a variant's type-specific header bytes.
type headerReader func(r *wire.Reader, m *NameMap) (propertyHeader, error)

// propertyReader decodes one variant's payload given the shared framing
// and type-specific header already consumed by ReadTaggedProperty.
type propertyReader func(r *wire.Reader, m *NameMap, tag PropertyTag, header propertyHeader, length int32) (Property, error)

var propertyRegistry = map[string]propertyReader{}
var propertyHeaderReaders = map[string]headerReader{}

// registerProperty wires typeName into the dispatch table, with an
// optional header reader for variants that carry type-specific header
// fields ahead of their payload.
func registerProperty(typeName string, fn propertyReader, header headerReader) {
	propertyRegistry[typeName] = fn
	if header != nil {
		propertyHeaderReaders[typeName] = header
	}
}

// ReadTaggedProperty reads one framed property from the stream: name,
// type name, size, duplication index, the type-specific header, the
// optional property GUID, and finally the dispatched payload (§4.4). A
// property named "None" signals the end of the enclosing stream; the
// caller checks for that before calling this function.
func ReadTaggedProperty(r *wire.Reader, m *NameMap, vc VersionContainer) (Property, error) {
	name, err := readFName(r, m)
	if err != nil {
		return nil, err
	}
	typeName, err := readFName(r, m)
	if err != nil {
		return nil, err
	}
	size, err := r.I32()
	if err != nil {
		return nil, err
	}
	dupIndex, err := r.I32()
	if err != nil {
		return nil, err
	}

	tag := PropertyTag{Name: name, DuplicationIndex: dupIndex}
	typeNameStr := typeName.String()

	var header propertyHeader
	if hr, ok := propertyHeaderReaders[typeNameStr]; ok {
		if header, err = hr(r, m); err != nil {
			return nil, err
		}
	}

	if vc.FeaturePresent(FeaturePropertyGuidInPropertyTag) {
		present, err := r.Bool()
		if err != nil {
			return nil, err
		}
		if present {
			guid, err := r.GUID()
			if err != nil {
				return nil, err
			}
			tag.PropertyGUID = guid
			tag.HasPropertyGUID = true
		}
	}

	fn, ok := propertyRegistry[typeNameStr]
	if !ok {
		return readUnknownProperty(r, tag, typeNameStr, size)
	}
	return fn(r, m, tag, header, size)
}

// WriteTaggedProperty writes p framed exactly as ReadTaggedProperty
// expects to read it back.
func WriteTaggedProperty(w *wire.Writer, m *NameMap, vc VersionContainer, p Property) error {
	tag := p.Tag()
	if err := writeFName(w, tag.Name); err != nil {
		return err
	}
	typeName := FNameFromIndex(m, int32(m.Add(p.SerializedTypeName(), false)), 0)
	if err := writeFName(w, typeName); err != nil {
		return err
	}

	sizePatch := w.Position()
	w.I32(0)
	w.I32(tag.DuplicationIndex)

	if wh, ok := propertyHeaderWriters[p.SerializedTypeName()]; ok {
		wh(w, m, p)
	}

	if vc.FeaturePresent(FeaturePropertyGuidInPropertyTag) {
		w.Bool(tag.HasPropertyGUID)
		if tag.HasPropertyGUID {
			w.GUID(tag.PropertyGUID)
		}
	}

	n, err := p.WritePayload(w, true)
	if err != nil {
		return err
	}
	end := w.Position()

	if err := w.Seek(sizePatch); err != nil {
		return err
	}
	w.I32(int32(n))
	if err := w.Seek(end); err != nil {
		return err
	}
	return nil
}

// propertyHeaderWriters mirrors propertyHeaderReaders for the write path.
var propertyHeaderWriters = map[string]func(w *wire.Writer, m *NameMap, p Property){}

// ReadPropertyList reads a None-terminated sequence of framed properties,
// the shape both Normal exports and nested StructProperty payloads share.
func ReadPropertyList(r *wire.Reader, m *NameMap, vc VersionContainer) ([]Property, error) {
	var props []Property
	for {
		isNone, err := peekFNameIsNone(r, m)
		if err != nil {
			return nil, err
		}
		if isNone {
			return props, nil
		}
		prop, err := ReadTaggedProperty(r, m, vc)
		if err != nil {
			return nil, err
		}
		props = append(props, prop)
	}
}

// WritePropertyList writes props followed by the "None" terminator.
func WritePropertyList(w *wire.Writer, m *NameMap, vc VersionContainer, props []Property) error {
	for _, p := range props {
		if err := WriteTaggedProperty(w, m, vc, p); err != nil {
			return err
		}
	}
	return writeFName(w, FName{})
}

// schemaPropertyHeader builds the propertyHeader for the type-specific-
// header variants whose header carries type metadata (inner/key/value/struct/
// enum type names) rather than an instance value. In tagged mode that
// metadata rides the wire once per property; in unversioned mode it
// never serializes at all — it is the schema's job to supply it — so
// these types build their propertyHeader from the PropertySchema entry
// instead of reading (or writing) any header bytes. BoolProperty is the
// one exception: its "header" slot is the value itself, still present
// on the wire in unversioned mode, just no longer preceded by a tag.
func schemaPropertyHeader(m *NameMap, s PropertySchema) propertyHeader {
	var h propertyHeader
	if s.InnerType != "" {
		h.InnerType = NewFName(m, s.InnerType, 0, false)
	}
	if s.KeyType != "" {
		h.KeyType = NewFName(m, s.KeyType, 0, false)
	}
	if s.ValueType != "" {
		h.ValueType = NewFName(m, s.ValueType, 0, false)
	}
	if s.StructType != "" {
		h.StructType = NewFName(m, s.StructType, 0, false)
	}
	if s.EnumType != "" {
		h.EnumType = NewFName(m, s.EnumType, 0, false)
	}
	return h
}

// ReadUnversionedPropertyList decodes a schema-driven property stream
// (§4.4 "Unversioned mode"): an unversioned fragment header naming
// which of className's schema properties are present and which of
// those are zero/absent, followed by the non-zero properties' payloads
// back to back with no tag framing at all. mappings must resolve
// className (and every class its schema chain supers to); a nil
// mappings is a hard error, matching the original's "no unversioned
// header without mappings" failure rather than silently producing an
// empty property list.
func ReadUnversionedPropertyList(r *wire.Reader, m *NameMap, mappings Mappings, className string) ([]Property, error) {
	if mappings == nil {
		return nil, errors.Errorf("unversioned properties: no mapping supplied for class %q", className)
	}
	header, err := tagprop.DecodeHeader(r)
	if err != nil {
		return nil, err
	}

	var props []Property
	cursor := tagprop.NewCursor(header)
	for {
		index, isZero, ok := cursor.Next()
		if !ok {
			break
		}
		schemaProp, err := resolveSchemaProperty(mappings, className, index)
		if err != nil {
			return nil, err
		}
		tag := PropertyTag{Name: NewFName(m, schemaProp.Name, 0, false), DuplicationIndex: schemaProp.ArrayIndex}

		if isZero {
			props = append(props, newEmptyProperty(tag, schemaProp.Type))
			continue
		}

		var propHeader propertyHeader
		if schemaProp.Type == "BoolProperty" {
			v, err := r.Bool()
			if err != nil {
				return nil, err
			}
			propHeader.BoolValue = v
		} else {
			propHeader = schemaPropertyHeader(m, schemaProp)
		}

		fn, ok := propertyRegistry[schemaProp.Type]
		if !ok {
			return nil, errors.Errorf("unversioned properties: class %q property %q has unrecognized type %q with no tagged size to fall back on",
				className, schemaProp.Name, schemaProp.Type)
		}
		prop, err := fn(r, m, tag, propHeader, 1)
		if err != nil {
			return nil, err
		}
		props = append(props, prop)
	}
	return props, nil
}

// WriteUnversionedPropertyList is ReadUnversionedPropertyList's
// inverse: it resolves each property's schema index under className,
// builds the fragment header via tagprop.EmitFragments, and writes the
// non-zero properties' payloads in ascending schema-index order.
func WriteUnversionedPropertyList(w *wire.Writer, m *NameMap, mappings Mappings, className string, props []Property) error {
	if mappings == nil {
		return errors.Errorf("unversioned properties: no mapping supplied for class %q", className)
	}

	byIndex := make(map[int]Property, len(props))
	zero := make(map[int]bool, len(props))
	present := make([]int, 0, len(props))
	for _, p := range props {
		index, ok := schemaGlobalIndex(mappings, className, p.Tag().Name.String())
		if !ok {
			return errors.Errorf("unversioned properties: property %q has no schema entry under class %q", p.Tag().Name.String(), className)
		}
		present = append(present, index)
		byIndex[index] = p
		if _, isEmpty := p.(*EmptyProperty); isEmpty {
			zero[index] = true
		}
	}
	sort.Ints(present)

	fragments, zeroMask := tagprop.EmitFragments(schemaTotalCount(mappings, className), present, zero)
	tagprop.EncodeHeader(w, fragments, zeroMask)

	for _, index := range present {
		p := byIndex[index]
		if _, isEmpty := p.(*EmptyProperty); isEmpty {
			continue
		}
		if p.SerializedTypeName() == "BoolProperty" {
			if bp, ok := p.(*BoolProperty); ok {
				w.Bool(bp.Value)
			}
		}
		if _, err := p.WritePayload(w, false); err != nil {
			return err
		}
	}
	return nil
}
