// Copyright 2024 The uasset Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package uasset

import "github.com/astromodkit/uasset/wire"

func init() {
	registerProperty("TextProperty", readTextProperty, nil)
}

// textHistoryType mirrors the engine's ETextHistoryType byte: -1 means no
// history data follows at all ("None"), 0 is the common
// namespace/key/source-string case, and everything else is a less common
// history variant this module doesn't decompose further.
type textHistoryType int8

const (
	textHistoryNone textHistoryType = -1
	textHistoryBase textHistoryType = 0
)

// TextProperty holds an FText value: display/localization flags plus a
// history record. Only the "Base" history (namespace/key/source string,
// by far the common case for level and blueprint data) is decomposed;
// any other history type is kept as opaque bytes so the property still
// round-trips byte-exactly (§4.4's failure clause, same approach as
// UnknownProperty).
type TextProperty struct {
	tag         PropertyTag
	Flags       uint32
	HistoryType textHistoryType

	// Populated when HistoryType == textHistoryBase.
	Namespace    string
	Key          string
	SourceString string
	HasBase      bool

	// RawHistory holds the unparsed history body for any other
	// HistoryType, including textHistoryNone (always empty there).
	RawHistory []byte
}

func (p *TextProperty) Tag() PropertyTag           { return p.tag }
func (p *TextProperty) SerializedTypeName() string { return "TextProperty" }

func readTextProperty(r *wire.Reader, m *NameMap, tag PropertyTag, header propertyHeader, length int32) (Property, error) {
	flags, err := r.U32()
	if err != nil {
		return nil, err
	}
	historyByte, err := r.I8()
	if err != nil {
		return nil, err
	}
	p := &TextProperty{tag: tag, Flags: flags, HistoryType: textHistoryType(historyByte)}

	switch p.HistoryType {
	case textHistoryNone:
		// No history body at all.
	case textHistoryBase:
		ns, err := r.FString()
		if err != nil {
			return nil, err
		}
		key, err := r.FString()
		if err != nil {
			return nil, err
		}
		src, err := r.FString()
		if err != nil {
			return nil, err
		}
		p.Namespace, p.Key, p.SourceString = ns, key, src
		p.HasBase = true
	default:
		// The remainder of the declared payload, minus the flags and
		// history-type byte already consumed, is this history variant's
		// body: keep it verbatim rather than modeling every variant.
		remaining := int(length) - 5
		if remaining < 0 {
			remaining = 0
		}
		raw, err := r.Bytes(remaining)
		if err != nil {
			return nil, err
		}
		p.RawHistory = raw
	}
	return p, nil
}

func (p *TextProperty) WritePayload(w *wire.Writer, includeHeader bool) (int, error) {
	before := w.Position()
	w.U32(p.Flags)
	w.I8(int8(p.HistoryType))
	switch p.HistoryType {
	case textHistoryNone:
	case textHistoryBase:
		if err := w.FString(p.Namespace); err != nil {
			return 0, err
		}
		if err := w.FString(p.Key); err != nil {
			return 0, err
		}
		if err := w.FString(p.SourceString); err != nil {
			return 0, err
		}
	default:
		w.WriteBytes(p.RawHistory)
	}
	return int(w.Position() - before), nil
}
