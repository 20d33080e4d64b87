// Copyright 2024 The uasset Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package uasset

import "github.com/astromodkit/uasset/wire"

func init() {
	registerProperty("BoolProperty", readBoolProperty, readBoolHeader)
	registerProperty("ByteProperty", readByteProperty, readByteHeader)
	registerProperty("Int8Property", scalarReader(func() scalarProperty { return &Int8Property{} }), nil)
	registerProperty("Int16Property", scalarReader(func() scalarProperty { return &Int16Property{} }), nil)
	registerProperty("IntProperty", scalarReader(func() scalarProperty { return &IntProperty{} }), nil)
	registerProperty("Int64Property", scalarReader(func() scalarProperty { return &Int64Property{} }), nil)
	registerProperty("UInt16Property", scalarReader(func() scalarProperty { return &UInt16Property{} }), nil)
	registerProperty("UInt32Property", scalarReader(func() scalarProperty { return &UInt32Property{} }), nil)
	registerProperty("UInt64Property", scalarReader(func() scalarProperty { return &UInt64Property{} }), nil)
	registerProperty("FloatProperty", scalarReader(func() scalarProperty { return &FloatProperty{} }), nil)
	registerProperty("DoubleProperty", scalarReader(func() scalarProperty { return &DoubleProperty{} }), nil)
	registerProperty("NameProperty", scalarReader(func() scalarProperty { return &NameProperty{} }), nil)
	registerProperty("StrProperty", scalarReader(func() scalarProperty { return &StrProperty{} }), nil)
	registerProperty("ObjectProperty", scalarReader(func() scalarProperty { return &ObjectProperty{} }), nil)
	registerProperty("SoftObjectProperty", readSoftObjectProperty, nil)
	registerProperty("AssetObjectProperty", scalarReader(func() scalarProperty { return &ObjectProperty{} }), nil)
	registerProperty("EnumProperty", readEnumProperty, readEnumHeader)
}

// scalarProperty is the small interface the generic scalarReader
// plumbing needs: read/write its own fixed-size payload.
type scalarProperty interface {
	Property
	readValue(r *wire.Reader, m *NameMap) error
	setTag(tag PropertyTag)
}

func scalarReader(newFn func() scalarProperty) propertyReader {
	return func(r *wire.Reader, m *NameMap, tag PropertyTag, header propertyHeader, length int32) (Property, error) {
		p := newFn()
		p.setTag(tag)
		if err := p.readValue(r, m); err != nil {
			return nil, err
		}
		return p, nil
	}
}

// IntProperty holds a signed 32-bit value.
type IntProperty struct {
	tag   PropertyTag
	Value int32
}

func (p *IntProperty) Tag() PropertyTag           { return p.tag }
func (p *IntProperty) SerializedTypeName() string { return "IntProperty" }
func (p *IntProperty) setTag(tag PropertyTag)     { p.tag = tag }
func (p *IntProperty) readValue(r *wire.Reader, m *NameMap) error {
	v, err := r.I32()
	p.Value = v
	return err
}
func (p *IntProperty) WritePayload(w *wire.Writer, includeHeader bool) (int, error) {
	w.I32(p.Value)
	return 4, nil
}

// Int8Property holds a signed 8-bit value.
type Int8Property struct {
	tag   PropertyTag
	Value int8
}

func (p *Int8Property) Tag() PropertyTag           { return p.tag }
func (p *Int8Property) SerializedTypeName() string { return "Int8Property" }
func (p *Int8Property) setTag(tag PropertyTag)     { p.tag = tag }
func (p *Int8Property) readValue(r *wire.Reader, m *NameMap) error {
	v, err := r.I8()
	p.Value = v
	return err
}
func (p *Int8Property) WritePayload(w *wire.Writer, includeHeader bool) (int, error) {
	w.I8(p.Value)
	return 1, nil
}

// Int16Property holds a signed 16-bit value.
type Int16Property struct {
	tag   PropertyTag
	Value int16
}

func (p *Int16Property) Tag() PropertyTag           { return p.tag }
func (p *Int16Property) SerializedTypeName() string { return "Int16Property" }
func (p *Int16Property) setTag(tag PropertyTag)     { p.tag = tag }
func (p *Int16Property) readValue(r *wire.Reader, m *NameMap) error {
	v, err := r.I16()
	p.Value = v
	return err
}
func (p *Int16Property) WritePayload(w *wire.Writer, includeHeader bool) (int, error) {
	w.I16(p.Value)
	return 2, nil
}

// Int64Property holds a signed 64-bit value.
type Int64Property struct {
	tag   PropertyTag
	Value int64
}

func (p *Int64Property) Tag() PropertyTag           { return p.tag }
func (p *Int64Property) SerializedTypeName() string { return "Int64Property" }
func (p *Int64Property) setTag(tag PropertyTag)     { p.tag = tag }
func (p *Int64Property) readValue(r *wire.Reader, m *NameMap) error {
	v, err := r.I64()
	p.Value = v
	return err
}
func (p *Int64Property) WritePayload(w *wire.Writer, includeHeader bool) (int, error) {
	w.I64(p.Value)
	return 8, nil
}

// UInt16Property holds an unsigned 16-bit value.
type UInt16Property struct {
	tag   PropertyTag
	Value uint16
}

func (p *UInt16Property) Tag() PropertyTag           { return p.tag }
func (p *UInt16Property) SerializedTypeName() string { return "UInt16Property" }
func (p *UInt16Property) setTag(tag PropertyTag)     { p.tag = tag }
func (p *UInt16Property) readValue(r *wire.Reader, m *NameMap) error {
	v, err := r.U16()
	p.Value = v
	return err
}
func (p *UInt16Property) WritePayload(w *wire.Writer, includeHeader bool) (int, error) {
	w.U16(p.Value)
	return 2, nil
}

// UInt32Property holds an unsigned 32-bit value.
type UInt32Property struct {
	tag   PropertyTag
	Value uint32
}

func (p *UInt32Property) Tag() PropertyTag           { return p.tag }
func (p *UInt32Property) SerializedTypeName() string { return "UInt32Property" }
func (p *UInt32Property) setTag(tag PropertyTag)     { p.tag = tag }
func (p *UInt32Property) readValue(r *wire.Reader, m *NameMap) error {
	v, err := r.U32()
	p.Value = v
	return err
}
func (p *UInt32Property) WritePayload(w *wire.Writer, includeHeader bool) (int, error) {
	w.U32(p.Value)
	return 4, nil
}

// UInt64Property holds an unsigned 64-bit value.
type UInt64Property struct {
	tag   PropertyTag
	Value uint64
}

func (p *UInt64Property) Tag() PropertyTag           { return p.tag }
func (p *UInt64Property) SerializedTypeName() string { return "UInt64Property" }
func (p *UInt64Property) setTag(tag PropertyTag)     { p.tag = tag }
func (p *UInt64Property) readValue(r *wire.Reader, m *NameMap) error {
	v, err := r.U64()
	p.Value = v
	return err
}
func (p *UInt64Property) WritePayload(w *wire.Writer, includeHeader bool) (int, error) {
	w.U64(p.Value)
	return 8, nil
}

// FloatProperty holds a 32-bit float.
type FloatProperty struct {
	tag   PropertyTag
	Value float32
}

func (p *FloatProperty) Tag() PropertyTag           { return p.tag }
func (p *FloatProperty) SerializedTypeName() string { return "FloatProperty" }
func (p *FloatProperty) setTag(tag PropertyTag)     { p.tag = tag }
func (p *FloatProperty) readValue(r *wire.Reader, m *NameMap) error {
	v, err := r.F32()
	p.Value = v
	return err
}
func (p *FloatProperty) WritePayload(w *wire.Writer, includeHeader bool) (int, error) {
	w.F32(p.Value)
	return 4, nil
}

// DoubleProperty holds a 64-bit float.
type DoubleProperty struct {
	tag   PropertyTag
	Value float64
}

func (p *DoubleProperty) Tag() PropertyTag           { return p.tag }
func (p *DoubleProperty) SerializedTypeName() string { return "DoubleProperty" }
func (p *DoubleProperty) setTag(tag PropertyTag)     { p.tag = tag }
func (p *DoubleProperty) readValue(r *wire.Reader, m *NameMap) error {
	v, err := r.F64()
	p.Value = v
	return err
}
func (p *DoubleProperty) WritePayload(w *wire.Writer, includeHeader bool) (int, error) {
	w.F64(p.Value)
	return 8, nil
}

// NameProperty holds an FName value.
type NameProperty struct {
	tag   PropertyTag
	Value FName
}

func (p *NameProperty) Tag() PropertyTag           { return p.tag }
func (p *NameProperty) SerializedTypeName() string { return "NameProperty" }
func (p *NameProperty) setTag(tag PropertyTag)     { p.tag = tag }
func (p *NameProperty) readValue(r *wire.Reader, m *NameMap) error {
	v, err := readFName(r, m)
	p.Value = v
	return err
}
func (p *NameProperty) WritePayload(w *wire.Writer, includeHeader bool) (int, error) {
	if err := writeFName(w, p.Value); err != nil {
		return 0, err
	}
	return 8, nil
}

// StrProperty holds an FString value.
type StrProperty struct {
	tag   PropertyTag
	Value string
}

func (p *StrProperty) Tag() PropertyTag           { return p.tag }
func (p *StrProperty) SerializedTypeName() string { return "StrProperty" }
func (p *StrProperty) setTag(tag PropertyTag)     { p.tag = tag }
func (p *StrProperty) readValue(r *wire.Reader, m *NameMap) error {
	v, err := r.FString()
	p.Value = v
	return err
}
func (p *StrProperty) WritePayload(w *wire.Writer, includeHeader bool) (int, error) {
	before := w.Position()
	if err := w.FString(p.Value); err != nil {
		return 0, err
	}
	return int(w.Position() - before), nil
}

// ObjectProperty holds a PackageIndex reference.
type ObjectProperty struct {
	tag   PropertyTag
	Value PackageIndex
}

func (p *ObjectProperty) Tag() PropertyTag           { return p.tag }
func (p *ObjectProperty) SerializedTypeName() string { return "ObjectProperty" }
func (p *ObjectProperty) setTag(tag PropertyTag)     { p.tag = tag }
func (p *ObjectProperty) readValue(r *wire.Reader, m *NameMap) error {
	v, err := r.I32()
	p.Value = PackageIndex(v)
	return err
}
func (p *ObjectProperty) WritePayload(w *wire.Writer, includeHeader bool) (int, error) {
	w.I32(int32(p.Value))
	return 4, nil
}

// BoolProperty's value lives inside the tag header rather than the
// payload when framed (§4.4), so it gets its own reader instead of going
// through scalarReader.
type BoolProperty struct {
	tag   PropertyTag
	Value bool
}

func (p *BoolProperty) Tag() PropertyTag           { return p.tag }
func (p *BoolProperty) SerializedTypeName() string { return "BoolProperty" }

// readBoolHeader reads BoolProperty's inline value byte, in the same
// pre-property-GUID slot every other variant's type-specific header
// occupies (§4.4) — the real engine serializes BoolVal there, not as a
// trailing payload byte.
func readBoolHeader(r *wire.Reader, m *NameMap) (propertyHeader, error) {
	v, err := r.Bool()
	if err != nil {
		return propertyHeader{}, err
	}
	return propertyHeader{BoolValue: v}, nil
}

func readBoolProperty(r *wire.Reader, m *NameMap, tag PropertyTag, header propertyHeader, length int32) (Property, error) {
	return &BoolProperty{tag: tag, Value: header.BoolValue}, nil
}

// WritePayload writes nothing: BoolProperty's value byte belongs to the
// tag framing, written by the caller before WritePayload is invoked for
// any other variant. Framed bool writing is special-cased in
// WriteTaggedProperty's header-writer hook.
func (p *BoolProperty) WritePayload(w *wire.Writer, includeHeader bool) (int, error) {
	return 0, nil
}

func init() {
	propertyHeaderWriters["BoolProperty"] = func(w *wire.Writer, m *NameMap, prop Property) {
		b := prop.(*BoolProperty)
		w.Bool(b.Value)
	}
}

// ByteProperty is either a raw byte or, when enum_name is set, an enum
// case referenced by FName (§4.4).
type ByteProperty struct {
	tag      PropertyTag
	EnumName FName
	HasEnum  bool
	RawValue uint8
	EnumCase FName
}

func (p *ByteProperty) Tag() PropertyTag           { return p.tag }
func (p *ByteProperty) SerializedTypeName() string { return "ByteProperty" }

func readByteHeader(r *wire.Reader, m *NameMap) (propertyHeader, error) {
	enumName, err := readFName(r, m)
	if err != nil {
		return propertyHeader{}, err
	}
	return propertyHeader{EnumType: enumName}, nil
}

func readByteProperty(r *wire.Reader, m *NameMap, tag PropertyTag, header propertyHeader, length int32) (Property, error) {
	p := &ByteProperty{tag: tag, EnumName: header.EnumType}
	p.HasEnum = !header.EnumType.IsNone()
	if length == 8 {
		v, err := readFName(r, m)
		if err != nil {
			return nil, err
		}
		p.EnumCase = v
		p.HasEnum = true
		return p, nil
	}
	v, err := r.U8()
	if err != nil {
		return nil, err
	}
	p.RawValue = v
	return p, nil
}

func (p *ByteProperty) WritePayload(w *wire.Writer, includeHeader bool) (int, error) {
	if p.HasEnum {
		if err := writeFName(w, p.EnumCase); err != nil {
			return 0, err
		}
		return 8, nil
	}
	w.U8(p.RawValue)
	return 1, nil
}

func init() {
	propertyHeaderWriters["ByteProperty"] = func(w *wire.Writer, m *NameMap, prop Property) {
		b := prop.(*ByteProperty)
		writeFName(w, b.EnumName)
	}
}

// EnumProperty holds one enum case referenced by FName, under a header
// naming the enum type.
type EnumProperty struct {
	tag      PropertyTag
	EnumType FName
	Value    FName
}

func (p *EnumProperty) Tag() PropertyTag           { return p.tag }
func (p *EnumProperty) SerializedTypeName() string { return "EnumProperty" }

func readEnumHeader(r *wire.Reader, m *NameMap) (propertyHeader, error) {
	enumType, err := readFName(r, m)
	if err != nil {
		return propertyHeader{}, err
	}
	return propertyHeader{EnumType: enumType}, nil
}

func readEnumProperty(r *wire.Reader, m *NameMap, tag PropertyTag, header propertyHeader, length int32) (Property, error) {
	v, err := readFName(r, m)
	if err != nil {
		return nil, err
	}
	return &EnumProperty{tag: tag, EnumType: header.EnumType, Value: v}, nil
}

func (p *EnumProperty) WritePayload(w *wire.Writer, includeHeader bool) (int, error) {
	if err := writeFName(w, p.Value); err != nil {
		return 0, err
	}
	return 8, nil
}

func init() {
	propertyHeaderWriters["EnumProperty"] = func(w *wire.Writer, m *NameMap, prop Property) {
		e := prop.(*EnumProperty)
		writeFName(w, e.EnumType)
	}
}

// SoftObjectProperty holds a soft object path: an asset path name plus a
// sub-object string.
type SoftObjectProperty struct {
	tag        PropertyTag
	AssetPath  FName
	SubPathStr string
}

func (p *SoftObjectProperty) Tag() PropertyTag           { return p.tag }
func (p *SoftObjectProperty) SerializedTypeName() string { return "SoftObjectProperty" }

func readSoftObjectProperty(r *wire.Reader, m *NameMap, tag PropertyTag, header propertyHeader, length int32) (Property, error) {
	assetPath, err := readFName(r, m)
	if err != nil {
		return nil, err
	}
	subPath, err := r.FString()
	if err != nil {
		return nil, err
	}
	return &SoftObjectProperty{tag: tag, AssetPath: assetPath, SubPathStr: subPath}, nil
}

func (p *SoftObjectProperty) WritePayload(w *wire.Writer, includeHeader bool) (int, error) {
	before := w.Position()
	if err := writeFName(w, p.AssetPath); err != nil {
		return 0, err
	}
	if err := w.FString(p.SubPathStr); err != nil {
		return 0, err
	}
	return int(w.Position() - before), nil
}
