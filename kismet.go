// Copyright 2024 The uasset Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package uasset

import (
	"unicode/utf16"

	"github.com/astromodkit/uasset/wire"
)

// ExprToken is one byte of Kismet (UnrealScript VM) bytecode identifying
// an expression's shape (§4.5).
type ExprToken uint8

const (
	ExLocalVariable             ExprToken = 0x00
	ExInstanceVariable          ExprToken = 0x01
	ExDefaultVariable           ExprToken = 0x02
	ExReturn                    ExprToken = 0x04
	ExJump                      ExprToken = 0x06
	ExJumpIfNot                 ExprToken = 0x07
	ExAssert                    ExprToken = 0x09
	ExNothing                   ExprToken = 0x0B
	ExLet                       ExprToken = 0x0F
	ExClassContext              ExprToken = 0x12
	ExMetaCast                  ExprToken = 0x13
	ExLetBool                   ExprToken = 0x14
	ExEndParmValue              ExprToken = 0x15
	ExEndFunctionParms          ExprToken = 0x16
	ExSelf                      ExprToken = 0x17
	ExSkip                      ExprToken = 0x18
	ExContext                   ExprToken = 0x19
	ExContextFailSilent         ExprToken = 0x1A
	ExVirtualFunction           ExprToken = 0x1B
	ExFinalFunction             ExprToken = 0x1C
	ExIntConst                  ExprToken = 0x1D
	ExFloatConst                ExprToken = 0x1E
	ExStringConst               ExprToken = 0x1F
	ExObjectConst               ExprToken = 0x20
	ExNameConst                 ExprToken = 0x21
	ExRotationConst             ExprToken = 0x22
	ExVectorConst               ExprToken = 0x23
	ExByteConst                 ExprToken = 0x24
	ExIntZero                   ExprToken = 0x25
	ExIntOne                    ExprToken = 0x26
	ExTrue                      ExprToken = 0x27
	ExFalse                     ExprToken = 0x28
	ExTextConst                 ExprToken = 0x29
	ExNoObject                  ExprToken = 0x2A
	ExTransformConst            ExprToken = 0x2B
	ExIntConstByte              ExprToken = 0x2C
	ExNoInterface               ExprToken = 0x2D
	ExDynamicCast               ExprToken = 0x2E
	ExStructConst               ExprToken = 0x2F
	ExEndStructConst            ExprToken = 0x30
	ExSetArray                  ExprToken = 0x31
	ExEndArray                  ExprToken = 0x32
	ExPropertyConst             ExprToken = 0x33
	ExUnicodeStringConst        ExprToken = 0x34
	ExInt64Const                ExprToken = 0x35
	ExUInt64Const               ExprToken = 0x36
	ExPrimitiveCast             ExprToken = 0x38
	ExSetSet                    ExprToken = 0x39
	ExEndSet                    ExprToken = 0x3A
	ExSetMap                    ExprToken = 0x3B
	ExEndMap                    ExprToken = 0x3C
	ExSetConst                  ExprToken = 0x3D
	ExEndSetConst               ExprToken = 0x3E
	ExMapConst                  ExprToken = 0x3F
	ExEndMapConst               ExprToken = 0x40
	ExStructMemberContext       ExprToken = 0x42
	ExLetMulticastDelegate      ExprToken = 0x43
	ExLetDelegate               ExprToken = 0x44
	ExLocalVirtualFunction      ExprToken = 0x45
	ExLocalFinalFunction        ExprToken = 0x46
	ExLocalOutVariable          ExprToken = 0x48
	ExDeprecatedOp4A            ExprToken = 0x4A
	ExInstanceDelegate          ExprToken = 0x4B
	ExPushExecutionFlow         ExprToken = 0x4C
	ExPopExecutionFlow          ExprToken = 0x4D
	ExComputedJump              ExprToken = 0x4E
	ExPopExecutionFlowIfNot     ExprToken = 0x4F
	ExBreakpoint                ExprToken = 0x50
	ExInterfaceContext          ExprToken = 0x51
	ExObjToInterfaceCast        ExprToken = 0x52
	ExEndOfScript               ExprToken = 0x53
	ExCrossInterfaceCast        ExprToken = 0x54
	ExInterfaceToObjCast        ExprToken = 0x55
	ExWireTracepoint            ExprToken = 0x5A
	ExSkipOffsetConst           ExprToken = 0x5B
	ExAddMulticastDelegate      ExprToken = 0x5C
	ExClearMulticastDelegate    ExprToken = 0x5D
	ExTracepoint                ExprToken = 0x5E
	ExLetObj                    ExprToken = 0x5F
	ExLetWeakObjPtr             ExprToken = 0x60
	ExBindDelegate              ExprToken = 0x61
	ExRemoveMulticastDelegate   ExprToken = 0x62
	ExCallMulticastDelegate     ExprToken = 0x63
	ExLetValueOnPersistentFrame ExprToken = 0x64
	ExArrayConst                ExprToken = 0x65
	ExEndArrayConst             ExprToken = 0x66
	ExSoftObjectConst           ExprToken = 0x67
	ExCallMath                  ExprToken = 0x68
	ExSwitchValue               ExprToken = 0x69
	ExInstrumentationEvent      ExprToken = 0x6A
	ExArrayGetByRef             ExprToken = 0x6B
	ExClassSparseDataVariable   ExprToken = 0x6C
	ExFieldPathConst            ExprToken = 0x6D
	ExMax                       ExprToken = 0xFF
)

// FieldPath is the "new style" property reference a KismetPropertyPointer
// carries once the engine added package-owner tracking
// (FeatureAddedPackageOwner, §4.1): a chain of FName path segments plus
// the owning package reference.
type FieldPath struct {
	Path  []FName
	Owner PackageIndex
}

// KismetPropertyPointer is a property reference inside bytecode: either
// the old bare PackageIndex form, or the new FieldPath form, chosen by
// FeatureAddedPackageOwner (§4.1, §4.5).
type KismetPropertyPointer struct {
	Old    PackageIndex
	New    FieldPath
	IsNew  bool
}

func readKismetPropertyPointer(r *wire.Reader, m *NameMap, vc VersionContainer) (KismetPropertyPointer, error) {
	if vc.FeaturePresent(FeatureAddedPackageOwner) {
		count, err := r.I32()
		if err != nil {
			return KismetPropertyPointer{}, err
		}
		path := make([]FName, 0, count)
		for i := int32(0); i < count; i++ {
			n, err := readFName(r, m)
			if err != nil {
				return KismetPropertyPointer{}, err
			}
			path = append(path, n)
		}
		owner, err := r.I32()
		if err != nil {
			return KismetPropertyPointer{}, err
		}
		return KismetPropertyPointer{IsNew: true, New: FieldPath{Path: path, Owner: PackageIndex(owner)}}, nil
	}
	v, err := r.I32()
	if err != nil {
		return KismetPropertyPointer{}, err
	}
	return KismetPropertyPointer{Old: PackageIndex(v)}, nil
}

func (p KismetPropertyPointer) write(w *wire.Writer, vc VersionContainer) error {
	if vc.FeaturePresent(FeatureAddedPackageOwner) {
		w.I32(int32(len(p.New.Path)))
		for _, n := range p.New.Path {
			if err := writeFName(w, n); err != nil {
				return err
			}
		}
		w.I32(int32(p.New.Owner))
		return nil
	}
	w.I32(int32(p.Old))
	return nil
}

// textHistoryLiteralType mirrors EBlueprintTextLiteralType, the variant
// tag ExTextConst's FScriptText body leads with.
type textHistoryLiteralType uint8

const (
	textLiteralEmpty           textHistoryLiteralType = 0
	textLiteralLocalizedText   textHistoryLiteralType = 1
	textLiteralInvariantText   textHistoryLiteralType = 2
	textLiteralLiteralString   textHistoryLiteralType = 3
	textLiteralStringTableEntry textHistoryLiteralType = 4
)

// ScriptText is the payload of ExTextConst: a discriminated union picked
// by LiteralType, each arm holding nested Kismet expressions (§4.5).
type ScriptText struct {
	LiteralType textHistoryLiteralType

	LocalizedSource    Expression
	LocalizedKey       Expression
	LocalizedNamespace Expression

	InvariantLiteralString Expression

	LiteralString Expression

	StringTableAsset PackageIndex
	StringTableID    Expression
	StringTableKey   Expression
}

func readScriptText(r *wire.Reader, m *NameMap, vc VersionContainer) (*ScriptText, error) {
	b, err := r.U8()
	if err != nil {
		return nil, err
	}
	t := &ScriptText{LiteralType: textHistoryLiteralType(b)}
	switch t.LiteralType {
	case textLiteralLocalizedText:
		if t.LocalizedSource, err = ReadExpression(r, m, vc); err != nil {
			return nil, err
		}
		if t.LocalizedKey, err = ReadExpression(r, m, vc); err != nil {
			return nil, err
		}
		if t.LocalizedNamespace, err = ReadExpression(r, m, vc); err != nil {
			return nil, err
		}
	case textLiteralInvariantText:
		if t.InvariantLiteralString, err = ReadExpression(r, m, vc); err != nil {
			return nil, err
		}
	case textLiteralLiteralString:
		if t.LiteralString, err = ReadExpression(r, m, vc); err != nil {
			return nil, err
		}
	case textLiteralStringTableEntry:
		idx, err := r.I32()
		if err != nil {
			return nil, err
		}
		t.StringTableAsset = PackageIndex(idx)
		if t.StringTableID, err = ReadExpression(r, m, vc); err != nil {
			return nil, err
		}
		if t.StringTableKey, err = ReadExpression(r, m, vc); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func (t *ScriptText) write(w *wire.Writer, m *NameMap, vc VersionContainer) error {
	w.U8(uint8(t.LiteralType))
	switch t.LiteralType {
	case textLiteralLocalizedText:
		if err := WriteExpression(w, m, vc, t.LocalizedSource); err != nil {
			return err
		}
		if err := WriteExpression(w, m, vc, t.LocalizedKey); err != nil {
			return err
		}
		if err := WriteExpression(w, m, vc, t.LocalizedNamespace); err != nil {
			return err
		}
	case textLiteralInvariantText:
		return WriteExpression(w, m, vc, t.InvariantLiteralString)
	case textLiteralLiteralString:
		return WriteExpression(w, m, vc, t.LiteralString)
	case textLiteralStringTableEntry:
		w.I32(int32(t.StringTableAsset))
		if err := WriteExpression(w, m, vc, t.StringTableID); err != nil {
			return err
		}
		if err := WriteExpression(w, m, vc, t.StringTableKey); err != nil {
			return err
		}
	}
	return nil
}

// KismetSwitchCase is one (case value, jump offset, case body) entry of
// an ExSwitchValue expression.
type KismetSwitchCase struct {
	CaseIndexValue Expression
	NextOffset     uint32
	CaseTerm       Expression
}

// readKismetString/readKismetUnicodeString mirror the original's
// zero-terminated narrow/wide script string encodings, distinct from
// FString's length-prefixed form (§4.2, §4.5).
func readKismetString(r *wire.Reader) (string, error) {
	var data []byte
	for {
		b, err := r.U8()
		if err != nil {
			return "", err
		}
		if b == 0 {
			break
		}
		data = append(data, b)
	}
	return string(data), nil
}

func writeKismetString(w *wire.Writer, s string) int {
	w.WriteBytes([]byte(s))
	w.U8(0)
	return len(s) + 1
}

func readKismetUnicodeString(r *wire.Reader) (string, error) {
	var data []uint16
	for {
		b1, err := r.U8()
		if err != nil {
			return "", err
		}
		b2, err := r.U8()
		if err != nil {
			return "", err
		}
		if b1 == 0 && b2 == 0 {
			break
		}
		data = append(data, uint16(b1)<<8|uint16(b2))
	}
	return string(utf16.Decode(data)), nil
}

func writeKismetUnicodeString(w *wire.Writer, s string) int {
	units := utf16.Encode([]rune(s))
	for _, u := range units {
		w.U8(uint8(u >> 8))
		w.U8(uint8(u))
	}
	w.U8(0)
	w.U8(0)
	return len(units)*2 + 2
}
