// Copyright 2024 The uasset Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package uasset

import (
	"github.com/astromodkit/uasset/wire"
	"github.com/google/uuid"
)

// structCodec is the per-struct-type bespoke binary layout a handful of
// engine math/utility structs use instead of a nested property stream
// (§4.4's fixed set: Vector, Rotator, Guid, Color, ...).
type structCodec struct {
	read  func(r *wire.Reader, m *NameMap) (interface{}, error)
	write func(w *wire.Writer, v interface{}) (int, error)
}

var bespokeStructCodecs = map[string]structCodec{}

func registerBespokeStruct(name string, c structCodec) { bespokeStructCodecs[name] = c }

func init() {
	registerBespokeStruct("Vector", structCodec{
		read: func(r *wire.Reader, m *NameMap) (interface{}, error) {
			return readVec3(r)
		},
		write: func(w *wire.Writer, v interface{}) (int, error) { return writeVec3(w, v.(Vec3)) },
	})
	registerBespokeStruct("Vector2D", structCodec{
		read: func(r *wire.Reader, m *NameMap) (interface{}, error) {
			x, err := r.F64()
			if err != nil {
				return nil, err
			}
			y, err := r.F64()
			return Vec2{X: x, Y: y}, err
		},
		write: func(w *wire.Writer, v interface{}) (int, error) {
			p := v.(Vec2)
			w.F64(p.X)
			w.F64(p.Y)
			return 16, nil
		},
	})
	registerBespokeStruct("Rotator", structCodec{
		read: func(r *wire.Reader, m *NameMap) (interface{}, error) { return readVec3(r) },
		write: func(w *wire.Writer, v interface{}) (int, error) { return writeVec3(w, v.(Vec3)) },
	})
	registerBespokeStruct("Vector4", structCodec{
		read: func(r *wire.Reader, m *NameMap) (interface{}, error) { return readVec4(r) },
		write: func(w *wire.Writer, v interface{}) (int, error) { return writeVec4(w, v.(Vec4)) },
	})
	registerBespokeStruct("Quat", structCodec{
		read: func(r *wire.Reader, m *NameMap) (interface{}, error) { return readVec4(r) },
		write: func(w *wire.Writer, v interface{}) (int, error) { return writeVec4(w, v.(Vec4)) },
	})
	registerBespokeStruct("LinearColor", structCodec{
		read: func(r *wire.Reader, m *NameMap) (interface{}, error) {
			rr, err := r.F32()
			if err != nil {
				return nil, err
			}
			g, err := r.F32()
			if err != nil {
				return nil, err
			}
			b, err := r.F32()
			if err != nil {
				return nil, err
			}
			a, err := r.F32()
			return LinearColor{R: rr, G: g, B: b, A: a}, err
		},
		write: func(w *wire.Writer, v interface{}) (int, error) {
			c := v.(LinearColor)
			w.F32(c.R)
			w.F32(c.G)
			w.F32(c.B)
			w.F32(c.A)
			return 16, nil
		},
	})
	registerBespokeStruct("Color", structCodec{
		read: func(r *wire.Reader, m *NameMap) (interface{}, error) {
			b, err := r.Bytes(4)
			if err != nil {
				return nil, err
			}
			return Color{B: b[0], G: b[1], R: b[2], A: b[3]}, nil
		},
		write: func(w *wire.Writer, v interface{}) (int, error) {
			c := v.(Color)
			w.WriteBytes([]byte{c.B, c.G, c.R, c.A})
			return 4, nil
		},
	})
	registerBespokeStruct("Guid", structCodec{
		read:  func(r *wire.Reader, m *NameMap) (interface{}, error) { return r.GUID() },
		write: func(w *wire.Writer, v interface{}) (int, error) { w.GUID(v.(uuid.UUID)); return 16, nil },
	})
	registerBespokeStruct("IntPoint", structCodec{
		read: func(r *wire.Reader, m *NameMap) (interface{}, error) {
			x, err := r.I32()
			if err != nil {
				return nil, err
			}
			y, err := r.I32()
			return IntPoint{X: x, Y: y}, err
		},
		write: func(w *wire.Writer, v interface{}) (int, error) {
			p := v.(IntPoint)
			w.I32(p.X)
			w.I32(p.Y)
			return 8, nil
		},
	})
	registerBespokeStruct("Timespan", structCodec{
		read: func(r *wire.Reader, m *NameMap) (interface{}, error) { return r.I64() },
		write: func(w *wire.Writer, v interface{}) (int, error) { w.I64(v.(int64)); return 8, nil },
	})
	registerBespokeStruct("DateTime", structCodec{
		read: func(r *wire.Reader, m *NameMap) (interface{}, error) { return r.I64() },
		write: func(w *wire.Writer, v interface{}) (int, error) { w.I64(v.(int64)); return 8, nil },
	})
}

// Vec2, Vec3, Vec4 are the plain coordinate tuples the math structs
// above decode into.
type Vec2 struct{ X, Y float64 }
type Vec3 struct{ X, Y, Z float64 }
type Vec4 struct{ X, Y, Z, W float64 }

// LinearColor is a float RGBA color.
type LinearColor struct{ R, G, B, A float32 }

// Color is a packed byte BGRA color, stored on disk in B,G,R,A order.
type Color struct{ B, G, R, A uint8 }

// IntPoint is a 2D integer coordinate.
type IntPoint struct{ X, Y int32 }

func readVec3(r *wire.Reader) (Vec3, error) {
	x, err := r.F64()
	if err != nil {
		return Vec3{}, err
	}
	y, err := r.F64()
	if err != nil {
		return Vec3{}, err
	}
	z, err := r.F64()
	return Vec3{X: x, Y: y, Z: z}, err
}

func writeVec3(w *wire.Writer, v Vec3) (int, error) {
	w.F64(v.X)
	w.F64(v.Y)
	w.F64(v.Z)
	return 24, nil
}

func readVec4(r *wire.Reader) (Vec4, error) {
	x, err := r.F64()
	if err != nil {
		return Vec4{}, err
	}
	y, err := r.F64()
	if err != nil {
		return Vec4{}, err
	}
	z, err := r.F64()
	if err != nil {
		return Vec4{}, err
	}
	w2, err := r.F64()
	return Vec4{X: x, Y: y, Z: z, W: w2}, err
}

func writeVec4(w *wire.Writer, v Vec4) (int, error) {
	w.F64(v.X)
	w.F64(v.Y)
	w.F64(v.Z)
	w.F64(v.W)
	return 32, nil
}

// StructProperty holds either a bespoke-decoded value (Value != nil, for
// the fixed set of math/utility structs) or a nested tagged-property
// stream (Properties, for any other struct_type — §4.4).
type StructProperty struct {
	tag        PropertyTag
	StructType FName
	StructGUID [16]byte
	Value      interface{}
	Properties []Property
}

func (p *StructProperty) Tag() PropertyTag           { return p.tag }
func (p *StructProperty) SerializedTypeName() string { return "StructProperty" }

func readStructProperty(r *wire.Reader, m *NameMap, tag PropertyTag, header propertyHeader, length int32) (Property, error) {
	return readStructPayload(r, m, tag, header.StructType, header.StructGUID)
}

func readStructPayload(r *wire.Reader, m *NameMap, tag PropertyTag, structType FName, guidBytes [16]byte) (Property, error) {
	p := &StructProperty{tag: tag, StructType: structType, StructGUID: guidBytes}
	if codec, ok := bespokeStructCodecs[structType.String()]; ok {
		v, err := codec.read(r, m)
		if err != nil {
			return nil, err
		}
		p.Value = v
		return p, nil
	}
	props, err := ReadPropertyList(r, m, VersionContainer{})
	if err != nil {
		return nil, err
	}
	p.Properties = props
	return p, nil
}

func (p *StructProperty) WritePayload(w *wire.Writer, includeHeader bool) (int, error) {
	before := w.Position()
	if codec, ok := bespokeStructCodecs[p.StructType.String()]; ok && p.Value != nil {
		if _, err := codec.write(w, p.Value); err != nil {
			return 0, err
		}
		return int(w.Position() - before), nil
	}
	if err := WritePropertyList(w, p.tag.Name.nameMap, VersionContainer{}, p.Properties); err != nil {
		return 0, err
	}
	return int(w.Position() - before), nil
}

// peekFNameIsNone reads the next property's name. If it is the stream's
// "None" terminator, that (index, number) pair is fully consumed and the
// stream ends here. Otherwise the cursor is rewound so ReadTaggedProperty
// can read the same name itself as part of the full tag.
func peekFNameIsNone(r *wire.Reader, m *NameMap) (bool, error) {
	mark := r.Position()
	name, err := readFName(r, m)
	if err != nil {
		return false, err
	}
	if name.IsNone() {
		return true, nil
	}
	return false, r.Seek(mark)
}
