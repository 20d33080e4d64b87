// Copyright 2024 The uasset Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package uasset

import "github.com/astromodkit/uasset/wire"

func init() {
	registerProperty("ArrayProperty", readArrayProperty, readArrayHeader)
	registerProperty("SetProperty", readSetProperty, readArrayHeader)
	registerProperty("MapProperty", readMapProperty, readMapHeader)
	registerProperty("StructProperty", readStructProperty, readStructHeader)
	propertyHeaderWriters["ArrayProperty"] = writeInnerTypeHeader
	propertyHeaderWriters["SetProperty"] = writeInnerTypeHeader
	propertyHeaderWriters["MapProperty"] = writeMapHeader
	propertyHeaderWriters["StructProperty"] = writeStructHeader
}

func readArrayHeader(r *wire.Reader, m *NameMap) (propertyHeader, error) {
	innerType, err := readFName(r, m)
	if err != nil {
		return propertyHeader{}, err
	}
	return propertyHeader{InnerType: innerType}, nil
}

func writeInnerTypeHeader(w *wire.Writer, m *NameMap, prop Property) {
	var innerType FName
	switch v := prop.(type) {
	case *ArrayProperty:
		innerType = v.InnerType
	case *SetProperty:
		innerType = v.InnerType
	}
	writeFName(w, innerType)
}

func readMapHeader(r *wire.Reader, m *NameMap) (propertyHeader, error) {
	keyType, err := readFName(r, m)
	if err != nil {
		return propertyHeader{}, err
	}
	valueType, err := readFName(r, m)
	if err != nil {
		return propertyHeader{}, err
	}
	return propertyHeader{KeyType: keyType, ValueType: valueType}, nil
}

func writeMapHeader(w *wire.Writer, m *NameMap, prop Property) {
	mp := prop.(*MapProperty)
	writeFName(w, mp.KeyType)
	writeFName(w, mp.ValueType)
}

func readStructHeader(r *wire.Reader, m *NameMap) (propertyHeader, error) {
	structType, err := readFName(r, m)
	if err != nil {
		return propertyHeader{}, err
	}
	guid, err := r.GUID()
	if err != nil {
		return propertyHeader{}, err
	}
	return propertyHeader{StructType: structType, StructGUID: guid}, nil
}

func writeStructHeader(w *wire.Writer, m *NameMap, prop Property) {
	sp := prop.(*StructProperty)
	writeFName(w, sp.StructType)
	w.GUID(sp.StructGUID)
}

// ArrayProperty holds an inline, unframed sequence of inner-type
// payloads. When the inner type is StructProperty, the first element
// donates a full framed StructProperty header to every element (§4.4's
// "ordering & tie-breaks" rule).
type ArrayProperty struct {
	tag       PropertyTag
	InnerType FName
	Elements  []Property
	// DonatedStructType/DonatedStructGUID hold the struct header the
	// leading element donated, when InnerType is StructProperty.
	DonatedStructType FName
	DonatedStructGUID [16]byte
}

func (p *ArrayProperty) Tag() PropertyTag           { return p.tag }
func (p *ArrayProperty) SerializedTypeName() string { return "ArrayProperty" }

func readArrayProperty(r *wire.Reader, m *NameMap, tag PropertyTag, header propertyHeader, length int32) (Property, error) {
	count, err := r.I32()
	if err != nil {
		return nil, err
	}
	p := &ArrayProperty{tag: tag, InnerType: header.InnerType, Elements: make([]Property, 0, count)}

	innerName := header.InnerType.String()
	donatedStructType := FName{}
	donatedGUID := [16]byte{}
	for i := int32(0); i < count; i++ {
		if innerName == "StructProperty" && i == 0 {
			structType, err := readFName(r, m)
			if err != nil {
				return nil, err
			}
			guid, err := r.GUID()
			if err != nil {
				return nil, err
			}
			donatedStructType = structType
			donatedGUID = guid
			elem, err := readStructPayload(r, m, PropertyTag{Name: tag.Name}, structType, guid)
			if err != nil {
				return nil, err
			}
			p.Elements = append(p.Elements, elem)
			continue
		}
		elem, err := readInlineElement(r, m, innerName, tag.Name, donatedStructType, donatedGUID)
		if err != nil {
			return nil, err
		}
		p.Elements = append(p.Elements, elem)
	}
	p.DonatedStructType = donatedStructType
	p.DonatedStructGUID = donatedGUID
	return p, nil
}

func (p *ArrayProperty) WritePayload(w *wire.Writer, includeHeader bool) (int, error) {
	before := w.Position()
	w.I32(int32(len(p.Elements)))
	for i, elem := range p.Elements {
		if p.InnerType.String() == "StructProperty" && i == 0 {
			if sp, ok := elem.(*StructProperty); ok {
				writeFName(w, sp.StructType)
				w.GUID(sp.StructGUID)
			}
		}
		if _, err := elem.WritePayload(w, false); err != nil {
			return 0, err
		}
	}
	return int(w.Position() - before), nil
}

// SetProperty holds an inline sequence like ArrayProperty, plus a
// removed-items count the engine writes ahead of the element count.
type SetProperty struct {
	tag       PropertyTag
	InnerType FName
	Elements  []Property
}

func (p *SetProperty) Tag() PropertyTag           { return p.tag }
func (p *SetProperty) SerializedTypeName() string { return "SetProperty" }

func readSetProperty(r *wire.Reader, m *NameMap, tag PropertyTag, header propertyHeader, length int32) (Property, error) {
	if _, err := r.I32(); err != nil { // num_to_remove, always 0 on disk
		return nil, err
	}
	count, err := r.I32()
	if err != nil {
		return nil, err
	}
	p := &SetProperty{tag: tag, InnerType: header.InnerType, Elements: make([]Property, 0, count)}
	innerName := header.InnerType.String()
	for i := int32(0); i < count; i++ {
		elem, err := readInlineElement(r, m, innerName, tag.Name, FName{}, [16]byte{})
		if err != nil {
			return nil, err
		}
		p.Elements = append(p.Elements, elem)
	}
	return p, nil
}

func (p *SetProperty) WritePayload(w *wire.Writer, includeHeader bool) (int, error) {
	before := w.Position()
	w.I32(0)
	w.I32(int32(len(p.Elements)))
	for _, elem := range p.Elements {
		if _, err := elem.WritePayload(w, false); err != nil {
			return 0, err
		}
	}
	return int(w.Position() - before), nil
}

// MapProperty holds key/value pairs decoded using two declared type
// names, without per-pair tag framing.
type MapProperty struct {
	tag       PropertyTag
	KeyType   FName
	ValueType FName
	Keys      []Property
	Values    []Property
}

func (p *MapProperty) Tag() PropertyTag           { return p.tag }
func (p *MapProperty) SerializedTypeName() string { return "MapProperty" }

func readMapProperty(r *wire.Reader, m *NameMap, tag PropertyTag, header propertyHeader, length int32) (Property, error) {
	if _, err := r.I32(); err != nil { // num_to_remove
		return nil, err
	}
	count, err := r.I32()
	if err != nil {
		return nil, err
	}
	p := &MapProperty{tag: tag, KeyType: header.KeyType, ValueType: header.ValueType}
	keyName := header.KeyType.String()
	valueName := header.ValueType.String()
	for i := int32(0); i < count; i++ {
		k, err := readInlineElement(r, m, keyName, tag.Name, FName{}, [16]byte{})
		if err != nil {
			return nil, err
		}
		v, err := readInlineElement(r, m, valueName, tag.Name, FName{}, [16]byte{})
		if err != nil {
			return nil, err
		}
		p.Keys = append(p.Keys, k)
		p.Values = append(p.Values, v)
	}
	return p, nil
}

func (p *MapProperty) WritePayload(w *wire.Writer, includeHeader bool) (int, error) {
	before := w.Position()
	w.I32(0)
	w.I32(int32(len(p.Keys)))
	for i := range p.Keys {
		if _, err := p.Keys[i].WritePayload(w, false); err != nil {
			return 0, err
		}
		if _, err := p.Values[i].WritePayload(w, false); err != nil {
			return 0, err
		}
	}
	return int(w.Position() - before), nil
}

// readInlineElement decodes one unframed container element of the given
// declared type name. Struct elements reuse the donated header from the
// array's leading element, when one was supplied.
func readInlineElement(r *wire.Reader, m *NameMap, typeName string, ctxName FName, donatedStructType FName, donatedGUID [16]byte) (Property, error) {
	if typeName == "StructProperty" {
		return readStructPayload(r, m, PropertyTag{Name: ctxName}, donatedStructType, donatedGUID)
	}
	fn, ok := propertyRegistry[typeName]
	if !ok {
		// Unknown inline element types can't be bounded without a
		// declared size; treat the rest of the stream as consumed by
		// the caller instead of guessing a length.
		return &UnknownProperty{tag: PropertyTag{Name: ctxName}, DeclaredType: typeName}, nil
	}
	return fn(r, m, PropertyTag{Name: ctxName}, propertyHeader{}, 0)
}
