// Copyright 2024 The uasset Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package uasset

import (
	"strings"

	"github.com/astromodkit/uasset/wire"
	"github.com/pkg/errors"
)

// NormalPayload is the common shape for most exports: a None-terminated
// tagged-property stream, followed by whatever trailing bytes the
// decoder didn't account for (§4.3's "extras" rule — every payload
// decoder keeps what it doesn't understand so serialization round-trips
// byte-for-byte).
type NormalPayload struct {
	Properties []Property
	Extras     []byte
}

func (p *NormalPayload) Kind() ExportKind { return ExportKindNormal }

// readNormalPayload decodes a Normal export's property stream, branching
// on the package's unversioned-properties flag (§4.4 "Unversioned
// mode"): a cooked package with PkgUnversionedProperties set carries no
// tag framing at all, so it must be read with the schema-driven
// fragment codec instead of ReadPropertyList's tagged framing.
func readNormalPayload(r *wire.Reader, m *NameMap, vc VersionContainer, flags PackageFlags, mappings Mappings, className string, serialEnd int64) (*NormalPayload, error) {
	var props []Property
	var err error
	if flags.HasUnversionedProperties() {
		props, err = ReadUnversionedPropertyList(r, m, mappings, className)
	} else {
		props, err = ReadPropertyList(r, m, vc)
	}
	if err != nil {
		return nil, err
	}
	extras, err := readExtrasToEnd(r, serialEnd)
	if err != nil {
		return nil, err
	}
	return &NormalPayload{Properties: props, Extras: extras}, nil
}

func (p *NormalPayload) write(w *wire.Writer, m *NameMap, vc VersionContainer, flags PackageFlags, mappings Mappings, className string) error {
	var err error
	if flags.HasUnversionedProperties() {
		err = WriteUnversionedPropertyList(w, m, mappings, className, p.Properties)
	} else {
		err = WritePropertyList(w, m, vc, p.Properties)
	}
	if err != nil {
		return err
	}
	w.WriteBytes(p.Extras)
	return nil
}

// LevelPayload is a Normal payload plus the native (non-tagged) array of
// actor references a ULevel export carries after its properties, and the
// array of actor references is exactly what the C6 embed transformation
// appends to (§4.6 step 8).
type LevelPayload struct {
	Properties []Property
	Actors     []PackageIndex
	Extras     []byte
}

func (p *LevelPayload) Kind() ExportKind { return ExportKindLevel }

func readLevelPayload(r *wire.Reader, m *NameMap, vc VersionContainer, serialEnd int64) (*LevelPayload, error) {
	props, err := ReadPropertyList(r, m, vc)
	if err != nil {
		return nil, err
	}
	count, err := r.I32()
	if err != nil {
		return nil, err
	}
	actors := make([]PackageIndex, 0, count)
	for i := int32(0); i < count; i++ {
		v, err := r.I32()
		if err != nil {
			return nil, err
		}
		actors = append(actors, PackageIndex(v))
	}
	extras, err := readExtrasToEnd(r, serialEnd)
	if err != nil {
		return nil, err
	}
	return &LevelPayload{Properties: props, Actors: actors, Extras: extras}, nil
}

func (p *LevelPayload) write(w *wire.Writer, m *NameMap, vc VersionContainer) error {
	if err := WritePropertyList(w, m, vc, p.Properties); err != nil {
		return err
	}
	w.I32(int32(len(p.Actors)))
	for _, a := range p.Actors {
		w.I32(int32(a))
	}
	w.WriteBytes(p.Extras)
	return nil
}

// ScriptPayload covers the Class, Struct, Function and Enum export
// kinds, whose native bodies are dominated by Kismet bytecode and
// reflection metadata (C5) rather than tagged properties. Each keeps
// its leading property stream (present on most UFunction/UClass default
// subobjects) and the remainder verbatim until C5's decoder claims it.
type ScriptPayload struct {
	kind       ExportKind
	Properties []Property
	Extras     []byte
}

func (p *ScriptPayload) Kind() ExportKind { return p.kind }

func readScriptPayload(kind ExportKind, r *wire.Reader, m *NameMap, vc VersionContainer, serialEnd int64) (*ScriptPayload, error) {
	props, err := ReadPropertyList(r, m, vc)
	if err != nil {
		return nil, err
	}
	extras, err := readExtrasToEnd(r, serialEnd)
	if err != nil {
		return nil, err
	}
	return &ScriptPayload{kind: kind, Properties: props, Extras: extras}, nil
}

func (p *ScriptPayload) write(w *wire.Writer, m *NameMap, vc VersionContainer) error {
	if err := WritePropertyList(w, m, vc, p.Properties); err != nil {
		return err
	}
	w.WriteBytes(p.Extras)
	return nil
}

// DecodeFunctionBytecode parses a UFunction's trailing bytes as a Kismet
// expression stream (C5). Only ExportKindFunction payloads carry
// bytecode; Struct/Class/Enum extras are reflection metadata the
// decoder above doesn't attempt to parse further.
func (p *ScriptPayload) DecodeFunctionBytecode(m *NameMap, vc VersionContainer) ([]Expression, error) {
	if p.kind != ExportKindFunction {
		return nil, errors.Errorf("DecodeFunctionBytecode called on a %v export", p.kind)
	}
	return DecodeBytecode(wire.NewReader(p.Extras), m, vc)
}

// EncodeFunctionBytecode replaces the payload's extras with exprs
// re-serialized as a Kismet expression stream.
func (p *ScriptPayload) EncodeFunctionBytecode(m *NameMap, vc VersionContainer, exprs []Expression) error {
	if p.kind != ExportKindFunction {
		return errors.Errorf("EncodeFunctionBytecode called on a %v export", p.kind)
	}
	w := wire.NewWriter()
	if err := EncodeBytecode(w, m, vc, exprs); err != nil {
		return err
	}
	p.Extras = w.Bytes()
	return nil
}

// DataTablePayload holds a UDataTable export: a property stream followed
// by the row map, each row a struct-typed tagged-property stream keyed
// by row name.
type DataTablePayload struct {
	Properties []Property
	Rows       []DataTableRow
	Extras     []byte
}

// DataTableRow is one (name, struct-typed property stream) row.
type DataTableRow struct {
	Name       FName
	Properties []Property
}

func (p *DataTablePayload) Kind() ExportKind { return ExportKindDataTable }

func readDataTablePayload(r *wire.Reader, m *NameMap, vc VersionContainer, serialEnd int64) (*DataTablePayload, error) {
	props, err := ReadPropertyList(r, m, vc)
	if err != nil {
		return nil, err
	}
	count, err := r.I32()
	if err != nil {
		return nil, err
	}
	rows := make([]DataTableRow, 0, count)
	for i := int32(0); i < count; i++ {
		name, err := readFName(r, m)
		if err != nil {
			return nil, err
		}
		rowProps, err := ReadPropertyList(r, m, vc)
		if err != nil {
			return nil, err
		}
		rows = append(rows, DataTableRow{Name: name, Properties: rowProps})
	}
	extras, err := readExtrasToEnd(r, serialEnd)
	if err != nil {
		return nil, err
	}
	return &DataTablePayload{Properties: props, Rows: rows, Extras: extras}, nil
}

func (p *DataTablePayload) write(w *wire.Writer, m *NameMap, vc VersionContainer) error {
	if err := WritePropertyList(w, m, vc, p.Properties); err != nil {
		return err
	}
	w.I32(int32(len(p.Rows)))
	for _, row := range p.Rows {
		if err := writeFName(w, row.Name); err != nil {
			return err
		}
		if err := WritePropertyList(w, m, vc, row.Properties); err != nil {
			return err
		}
	}
	w.WriteBytes(p.Extras)
	return nil
}

// StringTablePayload holds a UStringTable export: a table namespace and
// a flat key/source-string map.
type StringTablePayload struct {
	TableNamespace string
	Entries        map[string]string
	// keyOrder preserves on-disk entry order for a stable round trip;
	// Go map iteration order is not.
	keyOrder []string
	Extras   []byte
}

func (p *StringTablePayload) Kind() ExportKind { return ExportKindStringTable }

func readStringTablePayload(r *wire.Reader, m *NameMap, serialEnd int64) (*StringTablePayload, error) {
	ns, err := r.FString()
	if err != nil {
		return nil, err
	}
	count, err := r.I32()
	if err != nil {
		return nil, err
	}
	entries := make(map[string]string, count)
	order := make([]string, 0, count)
	for i := int32(0); i < count; i++ {
		key, err := r.FString()
		if err != nil {
			return nil, err
		}
		value, err := r.FString()
		if err != nil {
			return nil, err
		}
		entries[key] = value
		order = append(order, key)
	}
	extras, err := readExtrasToEnd(r, serialEnd)
	if err != nil {
		return nil, err
	}
	return &StringTablePayload{TableNamespace: ns, Entries: entries, keyOrder: order, Extras: extras}, nil
}

func (p *StringTablePayload) write(w *wire.Writer) error {
	if err := w.FString(p.TableNamespace); err != nil {
		return err
	}
	w.I32(int32(len(p.keyOrder)))
	for _, key := range p.keyOrder {
		if err := w.FString(key); err != nil {
			return err
		}
		if err := w.FString(p.Entries[key]); err != nil {
			return err
		}
	}
	w.WriteBytes(p.Extras)
	return nil
}

// PropertyPayload holds a bare export whose entire serialized body is a
// single tagged property; exports whose class name ends in "Property"
// decode to it.
type PropertyPayload struct {
	Value  Property
	Extras []byte
}

func (p *PropertyPayload) Kind() ExportKind { return ExportKindProperty }

func readPropertyPayload(r *wire.Reader, m *NameMap, vc VersionContainer, serialEnd int64) (*PropertyPayload, error) {
	isNone, err := peekFNameIsNone(r, m)
	if err != nil {
		return nil, err
	}
	var value Property
	if !isNone {
		value, err = ReadTaggedProperty(r, m, vc)
		if err != nil {
			return nil, err
		}
	}
	extras, err := readExtrasToEnd(r, serialEnd)
	if err != nil {
		return nil, err
	}
	return &PropertyPayload{Value: value, Extras: extras}, nil
}

func (p *PropertyPayload) write(w *wire.Writer, m *NameMap, vc VersionContainer) error {
	if p.Value != nil {
		if err := WriteTaggedProperty(w, m, vc, p.Value); err != nil {
			return err
		}
	}
	w.WriteBytes(p.Extras)
	return nil
}

// RawPayload is the opaque fallback: the export's entire byte range,
// preserved verbatim when no structured decoder claims it or a
// structured decode fails partway (§4.3's failure model).
type RawPayload struct {
	Data []byte
}

func (p *RawPayload) Kind() ExportKind { return ExportKindRaw }

func (p *RawPayload) write(w *wire.Writer) error {
	w.WriteBytes(p.Data)
	return nil
}

// readExtrasToEnd returns whatever bytes remain between the reader's
// current position and serialEnd. A negative remainder means a
// structured decoder over-consumed the export's declared range — an
// invalid_export condition (§4.3) the caller surfaces as an error
// rather than a panic on a negative slice length.
func readExtrasToEnd(r *wire.Reader, serialEnd int64) ([]byte, error) {
	remaining := serialEnd - r.Position()
	if remaining < 0 {
		return nil, errors.Errorf("export payload decoder over-consumed by %d bytes", -remaining)
	}
	return r.Bytes(int(remaining))
}

// classNameOf resolves the human-readable class name an export's
// class_index refers to, following an import chain when class_index
// points at an import (the common case for Blueprint/native classes)
// and an export chain when it points at another export (nested
// struct/enum definitions).
func classNameOf(classIndex PackageIndex, imports []Import, exports []*Export) string {
	switch {
	case classIndex.IsImport():
		idx := classIndex.ImportSlot()
		if idx >= 0 && idx < len(imports) {
			return imports[idx].ClassName.String()
		}
	case classIndex.IsExport():
		idx := classIndex.ExportSlot()
		if idx >= 0 && idx < len(exports) {
			return exports[idx].ObjectName.String()
		}
	}
	return ""
}

// ReadExportPayload dispatches on the export's resolved class name to
// decode its payload as one of the structured variants, falling back to
// RawPayload when the class name isn't recognized or the structured
// decode fails (§4.3's failure model: a payload that fails to decode
// cleanly falls back to Raw with a warning, never aborts the package).
// mappings is only consulted for Normal exports in a package with
// PkgUnversionedProperties set (§4.4); it is ignored otherwise and may
// be nil.
func ReadExportPayload(r *wire.Reader, m *NameMap, vc VersionContainer, flags PackageFlags, mappings Mappings, classIndex PackageIndex, imports []Import, exports []*Export, serialOffset, serialSize int64) (ExportPayload, error) {
	if err := r.Seek(serialOffset); err != nil {
		return nil, err
	}
	serialEnd := serialOffset + serialSize
	className := classNameOf(classIndex, imports, exports)

	payload, err := decodeExportPayload(className, r, m, vc, flags, mappings, serialEnd)
	if err == nil {
		return payload, nil
	}

	if seekErr := r.Seek(serialOffset); seekErr != nil {
		return nil, seekErr
	}
	raw, rawErr := r.Bytes(int(serialSize))
	if rawErr != nil {
		return nil, rawErr
	}
	return &RawPayload{Data: raw}, nil
}

func decodeExportPayload(className string, r *wire.Reader, m *NameMap, vc VersionContainer, flags PackageFlags, mappings Mappings, serialEnd int64) (ExportPayload, error) {
	switch className {
	case "Level":
		return readLevelPayload(r, m, vc, serialEnd)
	case "Class", "BlueprintGeneratedClass":
		return readScriptPayload(ExportKindClass, r, m, vc, serialEnd)
	case "Struct", "UserDefinedStruct", "ScriptStruct":
		return readScriptPayload(ExportKindStruct, r, m, vc, serialEnd)
	case "Function":
		return readScriptPayload(ExportKindFunction, r, m, vc, serialEnd)
	case "Enum", "UserDefinedEnum":
		return readScriptPayload(ExportKindEnum, r, m, vc, serialEnd)
	case "DataTable":
		return readDataTablePayload(r, m, vc, serialEnd)
	case "StringTable":
		return readStringTablePayload(r, m, serialEnd)
	default:
		if strings.HasSuffix(className, "Property") {
			return readPropertyPayload(r, m, vc, serialEnd)
		}
		return readNormalPayload(r, m, vc, flags, mappings, className, serialEnd)
	}
}

// WriteExportPayload writes payload's bytes exactly as ReadExportPayload
// would produce it for re-parsing, returning the byte count written.
// className and mappings are only used for a *NormalPayload under
// PkgUnversionedProperties; every other variant ignores them.
func WriteExportPayload(w *wire.Writer, m *NameMap, vc VersionContainer, flags PackageFlags, mappings Mappings, className string, payload ExportPayload) (int64, error) {
	before := w.Position()
	var err error
	switch p := payload.(type) {
	case *NormalPayload:
		err = p.write(w, m, vc, flags, mappings, className)
	case *LevelPayload:
		err = p.write(w, m, vc)
	case *ScriptPayload:
		err = p.write(w, m, vc)
	case *DataTablePayload:
		err = p.write(w, m, vc)
	case *StringTablePayload:
		err = p.write(w)
	case *PropertyPayload:
		err = p.write(w, m, vc)
	case *RawPayload:
		err = p.write(w)
	default:
		return 0, errors.Errorf("unknown export payload type %T", payload)
	}
	if err != nil {
		return 0, err
	}
	return w.Position() - before, nil
}
