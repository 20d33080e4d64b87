// Copyright 2024 The uasset Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package uasset

import "github.com/astromodkit/uasset/wire"

// UnknownProperty is the fallback for any type_name not in the dispatch
// table: it holds the declared type name and the raw payload bytes
// verbatim, so the stream round-trips byte-exactly even for property
// types this module doesn't model explicitly (§4.4's failure clause).
type UnknownProperty struct {
	tag             PropertyTag
	DeclaredType    string
	RawPayloadBytes []byte
}

func readUnknownProperty(r *wire.Reader, tag PropertyTag, declaredType string, size int32) (Property, error) {
	payload, err := r.Bytes(int(size))
	if err != nil {
		return nil, err
	}
	return &UnknownProperty{tag: tag, DeclaredType: declaredType, RawPayloadBytes: payload}, nil
}

func (p *UnknownProperty) Tag() PropertyTag          { return p.tag }
func (p *UnknownProperty) SerializedTypeName() string { return p.DeclaredType }

func (p *UnknownProperty) WritePayload(w *wire.Writer, includeHeader bool) (int, error) {
	w.WriteBytes(p.RawPayloadBytes)
	return len(p.RawPayloadBytes), nil
}

// EmptyProperty materializes an absent/zero-valued property decoded from
// the unversioned fragment header (§4.4's unversioned mode); it carries
// no payload at all. ReadUnversionedPropertyList is the only place that
// constructs one, mirroring the original's zero-mask-bit check in its
// unversioned property resolver.
type EmptyProperty struct {
	tag          PropertyTag
	DeclaredType string
}

func newEmptyProperty(tag PropertyTag, declaredType string) *EmptyProperty {
	return &EmptyProperty{tag: tag, DeclaredType: declaredType}
}

func (p *EmptyProperty) Tag() PropertyTag          { return p.tag }
func (p *EmptyProperty) SerializedTypeName() string { return p.DeclaredType }

func (p *EmptyProperty) WritePayload(w *wire.Writer, includeHeader bool) (int, error) {
	return 0, nil
}
