// Copyright 2024 The uasset Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package uasset

import (
	"github.com/astromodkit/uasset/wire"
	"github.com/pkg/errors"
)

// Expression is satisfied by every Kismet bytecode expression node
// (§4.5). Unlike tagged properties, expressions carry no declared
// length: a decoder either recognizes the leading token byte and
// consumes exactly what that shape requires, or the stream can't be
// recovered past that point.
type Expression interface {
	Token() ExprToken
	writePayload(w *wire.Writer, m *NameMap, vc VersionContainer) (int, error)
}

type exprReader func(r *wire.Reader, m *NameMap, vc VersionContainer) (Expression, error)

var exprRegistry = map[ExprToken]exprReader{}

func registerExpr(token ExprToken, fn exprReader) { exprRegistry[token] = fn }

// ReadExpression reads one token byte and dispatches to its decoder.
func ReadExpression(r *wire.Reader, m *NameMap, vc VersionContainer) (Expression, error) {
	b, err := r.U8()
	if err != nil {
		return nil, err
	}
	token := ExprToken(b)
	fn, ok := exprRegistry[token]
	if !ok {
		return nil, errors.Errorf("unknown kismet expression token 0x%02X", b)
	}
	return fn(r, m, vc)
}

// WriteExpression writes an expression's token byte followed by its
// payload.
func WriteExpression(w *wire.Writer, m *NameMap, vc VersionContainer, e Expression) error {
	w.U8(uint8(e.Token()))
	_, err := e.writePayload(w, m, vc)
	return err
}

// readExprArray reads expressions until one decodes to endToken
// (consumed but not included in the result), the shape every bytecode
// array (function params, struct/array/set/map constants) shares.
func readExprArray(r *wire.Reader, m *NameMap, vc VersionContainer, endToken ExprToken) ([]Expression, error) {
	var out []Expression
	for {
		e, err := ReadExpression(r, m, vc)
		if err != nil {
			return nil, err
		}
		if e.Token() == endToken {
			return out, nil
		}
		out = append(out, e)
	}
}

func writeExprArray(w *wire.Writer, m *NameMap, vc VersionContainer, exprs []Expression, end Expression) error {
	for _, e := range exprs {
		if err := WriteExpression(w, m, vc, e); err != nil {
			return err
		}
	}
	return WriteExpression(w, m, vc, end)
}

// --- no-payload expressions -------------------------------------------------

// nilaryExpr is the shared shape for every token whose payload is
// empty: Nothing, the various End* terminators, the literal true/false/
// self/zero/one markers, and the editor-only trace/breakpoint markers.
type nilaryExpr struct{ token ExprToken }

func (e nilaryExpr) Token() ExprToken { return e.token }
func (e nilaryExpr) writePayload(w *wire.Writer, m *NameMap, vc VersionContainer) (int, error) {
	return 0, nil
}

func init() {
	for _, t := range []ExprToken{
		ExNothing, ExEndFunctionParms, ExEndArray, ExEndArrayConst, ExEndStructConst,
		ExEndSetConst, ExEndSet, ExEndMapConst, ExEndMap, ExEndParmValue,
		ExTrue, ExFalse, ExSelf, ExNoObject, ExNoInterface, ExIntZero, ExIntOne,
		ExEndOfScript, ExPopExecutionFlow, ExBreakpoint, ExWireTracepoint,
		ExTracepoint, ExDeprecatedOp4A, ExInstrumentationEvent,
	} {
		token := t
		registerExpr(token, func(r *wire.Reader, m *NameMap, vc VersionContainer) (Expression, error) {
			return nilaryExpr{token: token}, nil
		})
	}
}

// --- fixed-size value expressions ------------------------------------------

// ByteValueExpr covers ExByteConst and ExIntConstByte, both a single
// on-disk byte under different tokens.
type ByteValueExpr struct {
	token ExprToken
	Value uint8
}

func (e *ByteValueExpr) Token() ExprToken { return e.token }
func (e *ByteValueExpr) writePayload(w *wire.Writer, m *NameMap, vc VersionContainer) (int, error) {
	w.U8(e.Value)
	return 1, nil
}

// Int32ValueExpr is ExIntConst.
type Int32ValueExpr struct{ Value int32 }

func (e *Int32ValueExpr) Token() ExprToken { return ExIntConst }
func (e *Int32ValueExpr) writePayload(w *wire.Writer, m *NameMap, vc VersionContainer) (int, error) {
	w.I32(e.Value)
	return 4, nil
}

// Int64ValueExpr is ExInt64Const.
type Int64ValueExpr struct{ Value int64 }

func (e *Int64ValueExpr) Token() ExprToken { return ExInt64Const }
func (e *Int64ValueExpr) writePayload(w *wire.Writer, m *NameMap, vc VersionContainer) (int, error) {
	w.I64(e.Value)
	return 8, nil
}

// UInt64ValueExpr is ExUInt64Const.
type UInt64ValueExpr struct{ Value uint64 }

func (e *UInt64ValueExpr) Token() ExprToken { return ExUInt64Const }
func (e *UInt64ValueExpr) writePayload(w *wire.Writer, m *NameMap, vc VersionContainer) (int, error) {
	w.U64(e.Value)
	return 8, nil
}

// FloatValueExpr is ExFloatConst.
type FloatValueExpr struct{ Value float32 }

func (e *FloatValueExpr) Token() ExprToken { return ExFloatConst }
func (e *FloatValueExpr) writePayload(w *wire.Writer, m *NameMap, vc VersionContainer) (int, error) {
	w.F32(e.Value)
	return 4, nil
}

// SkipOffsetConstExpr is ExSkipOffsetConst: a raw code-size/offset value.
type SkipOffsetConstExpr struct{ Value uint32 }

func (e *SkipOffsetConstExpr) Token() ExprToken { return ExSkipOffsetConst }
func (e *SkipOffsetConstExpr) writePayload(w *wire.Writer, m *NameMap, vc VersionContainer) (int, error) {
	w.U32(e.Value)
	return 4, nil
}

func init() {
	registerExpr(ExByteConst, func(r *wire.Reader, m *NameMap, vc VersionContainer) (Expression, error) {
		v, err := r.U8()
		return &ByteValueExpr{token: ExByteConst, Value: v}, err
	})
	registerExpr(ExIntConstByte, func(r *wire.Reader, m *NameMap, vc VersionContainer) (Expression, error) {
		v, err := r.U8()
		return &ByteValueExpr{token: ExIntConstByte, Value: v}, err
	})
	registerExpr(ExIntConst, func(r *wire.Reader, m *NameMap, vc VersionContainer) (Expression, error) {
		v, err := r.I32()
		return &Int32ValueExpr{Value: v}, err
	})
	registerExpr(ExInt64Const, func(r *wire.Reader, m *NameMap, vc VersionContainer) (Expression, error) {
		v, err := r.I64()
		return &Int64ValueExpr{Value: v}, err
	})
	registerExpr(ExUInt64Const, func(r *wire.Reader, m *NameMap, vc VersionContainer) (Expression, error) {
		v, err := r.U64()
		return &UInt64ValueExpr{Value: v}, err
	})
	registerExpr(ExFloatConst, func(r *wire.Reader, m *NameMap, vc VersionContainer) (Expression, error) {
		v, err := r.F32()
		return &FloatValueExpr{Value: v}, err
	})
	registerExpr(ExSkipOffsetConst, func(r *wire.Reader, m *NameMap, vc VersionContainer) (Expression, error) {
		v, err := r.U32()
		return &SkipOffsetConstExpr{Value: v}, err
	})
}

// --- property-pointer expressions ------------------------------------------

// PropertyPointerExpr covers every token whose whole payload is one
// KismetPropertyPointer: local/instance/default/out variables, the
// sparse class data variable, and a bare property constant.
type PropertyPointerExpr struct {
	token    ExprToken
	Variable KismetPropertyPointer
}

func (e *PropertyPointerExpr) Token() ExprToken { return e.token }
func (e *PropertyPointerExpr) writePayload(w *wire.Writer, m *NameMap, vc VersionContainer) (int, error) {
	return 0, e.Variable.write(w, vc)
}

func init() {
	for _, t := range []ExprToken{
		ExLocalVariable, ExInstanceVariable, ExDefaultVariable, ExLocalOutVariable,
		ExClassSparseDataVariable, ExPropertyConst,
	} {
		token := t
		registerExpr(token, func(r *wire.Reader, m *NameMap, vc VersionContainer) (Expression, error) {
			p, err := readKismetPropertyPointer(r, m, vc)
			if err != nil {
				return nil, err
			}
			return &PropertyPointerExpr{token: token, Variable: p}, nil
		})
	}
}

// --- single-nested-expression wrappers --------------------------------------

// WrapExpr covers every token whose payload is exactly one nested
// expression: Return, FieldPathConst, SoftObjectConst, InterfaceContext,
// ComputedJump, PopExecutionFlowIfNot, ClearMulticastDelegate.
type WrapExpr struct {
	token ExprToken
	Inner Expression
}

func (e *WrapExpr) Token() ExprToken { return e.token }
func (e *WrapExpr) writePayload(w *wire.Writer, m *NameMap, vc VersionContainer) (int, error) {
	return 0, WriteExpression(w, m, vc, e.Inner)
}

func init() {
	for _, t := range []ExprToken{
		ExReturn, ExFieldPathConst, ExSoftObjectConst, ExInterfaceContext,
		ExComputedJump, ExPopExecutionFlowIfNot,
	} {
		token := t
		registerExpr(token, func(r *wire.Reader, m *NameMap, vc VersionContainer) (Expression, error) {
			inner, err := ReadExpression(r, m, vc)
			if err != nil {
				return nil, err
			}
			return &WrapExpr{token: token, Inner: inner}, nil
		})
	}
}

// --- class-cast expressions --------------------------------------------------

// CastExpr covers MetaCast, DynamicCast, ObjToInterfaceCast,
// CrossInterfaceCast: a class PackageIndex plus a nested target
// expression.
type CastExpr struct {
	token  ExprToken
	Class  PackageIndex
	Target Expression
}

func (e *CastExpr) Token() ExprToken { return e.token }
func (e *CastExpr) writePayload(w *wire.Writer, m *NameMap, vc VersionContainer) (int, error) {
	w.I32(int32(e.Class))
	return 0, WriteExpression(w, m, vc, e.Target)
}

func init() {
	for _, t := range []ExprToken{ExMetaCast, ExDynamicCast, ExObjToInterfaceCast, ExCrossInterfaceCast} {
		token := t
		registerExpr(token, func(r *wire.Reader, m *NameMap, vc VersionContainer) (Expression, error) {
			idx, err := r.I32()
			if err != nil {
				return nil, err
			}
			target, err := ReadExpression(r, m, vc)
			if err != nil {
				return nil, err
			}
			return &CastExpr{token: token, Class: PackageIndex(idx), Target: target}, nil
		})
	}
}

// PrimitiveCastExpr is ExPrimitiveCast: a cast-kind byte plus a nested
// target expression.
type PrimitiveCastExpr struct {
	ConversionType uint8
	Target         Expression
}

func (e *PrimitiveCastExpr) Token() ExprToken { return ExPrimitiveCast }
func (e *PrimitiveCastExpr) writePayload(w *wire.Writer, m *NameMap, vc VersionContainer) (int, error) {
	w.U8(e.ConversionType)
	return 0, WriteExpression(w, m, vc, e.Target)
}

func init() {
	registerExpr(ExPrimitiveCast, func(r *wire.Reader, m *NameMap, vc VersionContainer) (Expression, error) {
		b, err := r.U8()
		if err != nil {
			return nil, err
		}
		target, err := ReadExpression(r, m, vc)
		if err != nil {
			return nil, err
		}
		return &PrimitiveCastExpr{ConversionType: b, Target: target}, nil
	})
}

// --- function-call expressions -----------------------------------------------

// PointerCallExpr covers CallMath, CallMulticastDelegate, FinalFunction,
// LocalFinalFunction: a stack-node PackageIndex plus parameters until
// ExEndFunctionParms.
type PointerCallExpr struct {
	token      ExprToken
	StackNode  PackageIndex
	Parameters []Expression
}

func (e *PointerCallExpr) Token() ExprToken { return e.token }
func (e *PointerCallExpr) writePayload(w *wire.Writer, m *NameMap, vc VersionContainer) (int, error) {
	w.I32(int32(e.StackNode))
	return 0, writeExprArray(w, m, vc, e.Parameters, nilaryExpr{token: ExEndFunctionParms})
}

func init() {
	for _, t := range []ExprToken{ExCallMath, ExCallMulticastDelegate, ExFinalFunction, ExLocalFinalFunction} {
		token := t
		registerExpr(token, func(r *wire.Reader, m *NameMap, vc VersionContainer) (Expression, error) {
			idx, err := r.I32()
			if err != nil {
				return nil, err
			}
			params, err := readExprArray(r, m, vc, ExEndFunctionParms)
			if err != nil {
				return nil, err
			}
			return &PointerCallExpr{token: token, StackNode: PackageIndex(idx), Parameters: params}, nil
		})
	}
}

// NamedCallExpr covers VirtualFunction and LocalVirtualFunction: a
// function-name FName plus parameters until ExEndFunctionParms.
type NamedCallExpr struct {
	token        ExprToken
	FunctionName FName
	Parameters   []Expression
}

func (e *NamedCallExpr) Token() ExprToken { return e.token }
func (e *NamedCallExpr) writePayload(w *wire.Writer, m *NameMap, vc VersionContainer) (int, error) {
	if err := writeFName(w, e.FunctionName); err != nil {
		return 0, err
	}
	return 0, writeExprArray(w, m, vc, e.Parameters, nilaryExpr{token: ExEndFunctionParms})
}

func init() {
	for _, t := range []ExprToken{ExVirtualFunction, ExLocalVirtualFunction} {
		token := t
		registerExpr(token, func(r *wire.Reader, m *NameMap, vc VersionContainer) (Expression, error) {
			name, err := readFName(r, m)
			if err != nil {
				return nil, err
			}
			params, err := readExprArray(r, m, vc, ExEndFunctionParms)
			if err != nil {
				return nil, err
			}
			return &NamedCallExpr{token: token, FunctionName: name, Parameters: params}, nil
		})
	}
}

// --- let / assignment expressions --------------------------------------------

// AssignExpr covers LetBool, LetDelegate, LetMulticastDelegate, LetObj,
// LetWeakObjPtr: a variable expression and an assignment expression.
type AssignExpr struct {
	token      ExprToken
	Variable   Expression
	Assignment Expression
}

func (e *AssignExpr) Token() ExprToken { return e.token }
func (e *AssignExpr) writePayload(w *wire.Writer, m *NameMap, vc VersionContainer) (int, error) {
	if err := WriteExpression(w, m, vc, e.Variable); err != nil {
		return 0, err
	}
	return 0, WriteExpression(w, m, vc, e.Assignment)
}

func init() {
	for _, t := range []ExprToken{ExLetBool, ExLetDelegate, ExLetMulticastDelegate, ExLetObj, ExLetWeakObjPtr} {
		token := t
		registerExpr(token, func(r *wire.Reader, m *NameMap, vc VersionContainer) (Expression, error) {
			variable, err := ReadExpression(r, m, vc)
			if err != nil {
				return nil, err
			}
			assignment, err := ReadExpression(r, m, vc)
			if err != nil {
				return nil, err
			}
			return &AssignExpr{token: token, Variable: variable, Assignment: assignment}, nil
		})
	}
}

// LetExpr is ExLet: a destination property pointer, a variable
// expression and the value expression assigned to it.
type LetExpr struct {
	Value      KismetPropertyPointer
	Variable   Expression
	Expression Expression
}

func (e *LetExpr) Token() ExprToken { return ExLet }
func (e *LetExpr) writePayload(w *wire.Writer, m *NameMap, vc VersionContainer) (int, error) {
	if err := e.Value.write(w, vc); err != nil {
		return 0, err
	}
	if err := WriteExpression(w, m, vc, e.Variable); err != nil {
		return 0, err
	}
	return 0, WriteExpression(w, m, vc, e.Expression)
}

func init() {
	registerExpr(ExLet, func(r *wire.Reader, m *NameMap, vc VersionContainer) (Expression, error) {
		value, err := readKismetPropertyPointer(r, m, vc)
		if err != nil {
			return nil, err
		}
		variable, err := ReadExpression(r, m, vc)
		if err != nil {
			return nil, err
		}
		expr, err := ReadExpression(r, m, vc)
		if err != nil {
			return nil, err
		}
		return &LetExpr{Value: value, Variable: variable, Expression: expr}, nil
	})
}

// --- context / jump expressions ----------------------------------------------

// ContextExpr covers Context, ContextFailSilent and ClassContext.
type ContextExpr struct {
	token            ExprToken
	ObjectExpression Expression
	Offset           uint32
	RValuePointer    KismetPropertyPointer
	ContextExpr      Expression
}

func (e *ContextExpr) Token() ExprToken { return e.token }
func (e *ContextExpr) writePayload(w *wire.Writer, m *NameMap, vc VersionContainer) (int, error) {
	if err := WriteExpression(w, m, vc, e.ObjectExpression); err != nil {
		return 0, err
	}
	w.U32(e.Offset)
	if err := e.RValuePointer.write(w, vc); err != nil {
		return 0, err
	}
	return 0, WriteExpression(w, m, vc, e.ContextExpr)
}

func init() {
	for _, t := range []ExprToken{ExContext, ExContextFailSilent, ExClassContext} {
		token := t
		registerExpr(token, func(r *wire.Reader, m *NameMap, vc VersionContainer) (Expression, error) {
			obj, err := ReadExpression(r, m, vc)
			if err != nil {
				return nil, err
			}
			offset, err := r.U32()
			if err != nil {
				return nil, err
			}
			ptr, err := readKismetPropertyPointer(r, m, vc)
			if err != nil {
				return nil, err
			}
			ctx, err := ReadExpression(r, m, vc)
			if err != nil {
				return nil, err
			}
			return &ContextExpr{token: token, ObjectExpression: obj, Offset: offset, RValuePointer: ptr, ContextExpr: ctx}, nil
		})
	}
}

// JumpExpr is ExJump: an unconditional goto.
type JumpExpr struct{ CodeOffset uint32 }

func (e *JumpExpr) Token() ExprToken { return ExJump }
func (e *JumpExpr) writePayload(w *wire.Writer, m *NameMap, vc VersionContainer) (int, error) {
	w.U32(e.CodeOffset)
	return 4, nil
}

// JumpIfNotExpr is ExJumpIfNot: a conditional goto guarded by a boolean
// expression.
type JumpIfNotExpr struct {
	CodeOffset        uint32
	BooleanExpression Expression
}

func (e *JumpIfNotExpr) Token() ExprToken { return ExJumpIfNot }
func (e *JumpIfNotExpr) writePayload(w *wire.Writer, m *NameMap, vc VersionContainer) (int, error) {
	w.U32(e.CodeOffset)
	return 0, WriteExpression(w, m, vc, e.BooleanExpression)
}

// SkipExpr is ExSkip: a skippable expression guarded by its own size.
type SkipExpr struct {
	CodeOffset     uint32
	SkipExpression Expression
}

func (e *SkipExpr) Token() ExprToken { return ExSkip }
func (e *SkipExpr) writePayload(w *wire.Writer, m *NameMap, vc VersionContainer) (int, error) {
	w.U32(e.CodeOffset)
	return 0, WriteExpression(w, m, vc, e.SkipExpression)
}

// AssertExpr is ExAssert.
type AssertExpr struct {
	LineNumber        uint16
	DebugMode         bool
	AssertExpression  Expression
}

func (e *AssertExpr) Token() ExprToken { return ExAssert }
func (e *AssertExpr) writePayload(w *wire.Writer, m *NameMap, vc VersionContainer) (int, error) {
	w.U16(e.LineNumber)
	w.Bool(e.DebugMode)
	return 0, WriteExpression(w, m, vc, e.AssertExpression)
}

// StructMemberContextExpr is ExStructMemberContext.
type StructMemberContextExpr struct {
	StructMemberExpression PackageIndex
	StructExpression       Expression
}

func (e *StructMemberContextExpr) Token() ExprToken { return ExStructMemberContext }
func (e *StructMemberContextExpr) writePayload(w *wire.Writer, m *NameMap, vc VersionContainer) (int, error) {
	w.I32(int32(e.StructMemberExpression))
	return 0, WriteExpression(w, m, vc, e.StructExpression)
}

func init() {
	registerExpr(ExJump, func(r *wire.Reader, m *NameMap, vc VersionContainer) (Expression, error) {
		v, err := r.U32()
		return &JumpExpr{CodeOffset: v}, err
	})
	registerExpr(ExJumpIfNot, func(r *wire.Reader, m *NameMap, vc VersionContainer) (Expression, error) {
		offset, err := r.U32()
		if err != nil {
			return nil, err
		}
		cond, err := ReadExpression(r, m, vc)
		if err != nil {
			return nil, err
		}
		return &JumpIfNotExpr{CodeOffset: offset, BooleanExpression: cond}, nil
	})
	registerExpr(ExSkip, func(r *wire.Reader, m *NameMap, vc VersionContainer) (Expression, error) {
		offset, err := r.U32()
		if err != nil {
			return nil, err
		}
		inner, err := ReadExpression(r, m, vc)
		if err != nil {
			return nil, err
		}
		return &SkipExpr{CodeOffset: offset, SkipExpression: inner}, nil
	})
	registerExpr(ExAssert, func(r *wire.Reader, m *NameMap, vc VersionContainer) (Expression, error) {
		line, err := r.U16()
		if err != nil {
			return nil, err
		}
		debug, err := r.Bool()
		if err != nil {
			return nil, err
		}
		inner, err := ReadExpression(r, m, vc)
		if err != nil {
			return nil, err
		}
		return &AssertExpr{LineNumber: line, DebugMode: debug, AssertExpression: inner}, nil
	})
	registerExpr(ExStructMemberContext, func(r *wire.Reader, m *NameMap, vc VersionContainer) (Expression, error) {
		idx, err := r.I32()
		if err != nil {
			return nil, err
		}
		inner, err := ReadExpression(r, m, vc)
		if err != nil {
			return nil, err
		}
		return &StructMemberContextExpr{StructMemberExpression: PackageIndex(idx), StructExpression: inner}, nil
	})
}

// --- literal constants ---------------------------------------------------

// NameConstExpr is ExNameConst.
type NameConstExpr struct{ Value FName }

func (e *NameConstExpr) Token() ExprToken { return ExNameConst }
func (e *NameConstExpr) writePayload(w *wire.Writer, m *NameMap, vc VersionContainer) (int, error) {
	return 0, writeFName(w, e.Value)
}

// ObjectConstExpr is ExObjectConst.
type ObjectConstExpr struct{ Value PackageIndex }

func (e *ObjectConstExpr) Token() ExprToken { return ExObjectConst }
func (e *ObjectConstExpr) writePayload(w *wire.Writer, m *NameMap, vc VersionContainer) (int, error) {
	w.I32(int32(e.Value))
	return 4, nil
}

// RotationConstExpr is ExRotationConst.
type RotationConstExpr struct{ Pitch, Yaw, Roll int32 }

func (e *RotationConstExpr) Token() ExprToken { return ExRotationConst }
func (e *RotationConstExpr) writePayload(w *wire.Writer, m *NameMap, vc VersionContainer) (int, error) {
	w.I32(e.Pitch)
	w.I32(e.Yaw)
	w.I32(e.Roll)
	return 12, nil
}

// VectorConstExpr is ExVectorConst.
type VectorConstExpr struct{ X, Y, Z float32 }

func (e *VectorConstExpr) Token() ExprToken { return ExVectorConst }
func (e *VectorConstExpr) writePayload(w *wire.Writer, m *NameMap, vc VersionContainer) (int, error) {
	w.F32(e.X)
	w.F32(e.Y)
	w.F32(e.Z)
	return 12, nil
}

// StringConstExpr is ExStringConst (narrow, zero-terminated).
type StringConstExpr struct{ Value string }

func (e *StringConstExpr) Token() ExprToken { return ExStringConst }
func (e *StringConstExpr) writePayload(w *wire.Writer, m *NameMap, vc VersionContainer) (int, error) {
	return writeKismetString(w, e.Value), nil
}

// UnicodeStringConstExpr is ExUnicodeStringConst (UTF-16, zero-terminated).
type UnicodeStringConstExpr struct{ Value string }

func (e *UnicodeStringConstExpr) Token() ExprToken { return ExUnicodeStringConst }
func (e *UnicodeStringConstExpr) writePayload(w *wire.Writer, m *NameMap, vc VersionContainer) (int, error) {
	return writeKismetUnicodeString(w, e.Value), nil
}

// TextConstExpr is ExTextConst.
type TextConstExpr struct{ Value *ScriptText }

func (e *TextConstExpr) Token() ExprToken { return ExTextConst }
func (e *TextConstExpr) writePayload(w *wire.Writer, m *NameMap, vc VersionContainer) (int, error) {
	return 0, e.Value.write(w, m, vc)
}

func init() {
	registerExpr(ExNameConst, func(r *wire.Reader, m *NameMap, vc VersionContainer) (Expression, error) {
		n, err := readFName(r, m)
		return &NameConstExpr{Value: n}, err
	})
	registerExpr(ExObjectConst, func(r *wire.Reader, m *NameMap, vc VersionContainer) (Expression, error) {
		v, err := r.I32()
		return &ObjectConstExpr{Value: PackageIndex(v)}, err
	})
	registerExpr(ExRotationConst, func(r *wire.Reader, m *NameMap, vc VersionContainer) (Expression, error) {
		p, err := r.I32()
		if err != nil {
			return nil, err
		}
		y, err := r.I32()
		if err != nil {
			return nil, err
		}
		roll, err := r.I32()
		return &RotationConstExpr{Pitch: p, Yaw: y, Roll: roll}, err
	})
	registerExpr(ExVectorConst, func(r *wire.Reader, m *NameMap, vc VersionContainer) (Expression, error) {
		x, err := r.F32()
		if err != nil {
			return nil, err
		}
		y, err := r.F32()
		if err != nil {
			return nil, err
		}
		z, err := r.F32()
		return &VectorConstExpr{X: x, Y: y, Z: z}, err
	})
	registerExpr(ExStringConst, func(r *wire.Reader, m *NameMap, vc VersionContainer) (Expression, error) {
		s, err := readKismetString(r)
		return &StringConstExpr{Value: s}, err
	})
	registerExpr(ExUnicodeStringConst, func(r *wire.Reader, m *NameMap, vc VersionContainer) (Expression, error) {
		s, err := readKismetUnicodeString(r)
		return &UnicodeStringConstExpr{Value: s}, err
	})
	registerExpr(ExTextConst, func(r *wire.Reader, m *NameMap, vc VersionContainer) (Expression, error) {
		t, err := readScriptText(r, m, vc)
		return &TextConstExpr{Value: t}, err
	})
}

// --- container constants ---------------------------------------------------

// ArrayConstExpr is ExArrayConst.
type ArrayConstExpr struct {
	InnerProperty PackageIndex
	Elements      []Expression
}

func (e *ArrayConstExpr) Token() ExprToken { return ExArrayConst }
func (e *ArrayConstExpr) writePayload(w *wire.Writer, m *NameMap, vc VersionContainer) (int, error) {
	w.I32(int32(e.InnerProperty))
	w.I32(int32(len(e.Elements)))
	return 0, writeExprArray(w, m, vc, e.Elements, nilaryExpr{token: ExEndArrayConst})
}

// SetConstExpr is ExSetConst.
type SetConstExpr struct {
	InnerProperty PackageIndex
	Elements      []Expression
}

func (e *SetConstExpr) Token() ExprToken { return ExSetConst }
func (e *SetConstExpr) writePayload(w *wire.Writer, m *NameMap, vc VersionContainer) (int, error) {
	w.I32(int32(e.InnerProperty))
	w.I32(int32(len(e.Elements)))
	return 0, writeExprArray(w, m, vc, e.Elements, nilaryExpr{token: ExEndSetConst})
}

// MapConstExpr is ExMapConst.
type MapConstExpr struct {
	KeyProperty   PackageIndex
	ValueProperty PackageIndex
	Elements      []Expression
}

func (e *MapConstExpr) Token() ExprToken { return ExMapConst }
func (e *MapConstExpr) writePayload(w *wire.Writer, m *NameMap, vc VersionContainer) (int, error) {
	w.I32(int32(e.KeyProperty))
	w.I32(int32(e.ValueProperty))
	w.I32(int32(len(e.Elements)))
	return 0, writeExprArray(w, m, vc, e.Elements, nilaryExpr{token: ExEndMapConst})
}

// StructConstExpr is ExStructConst.
type StructConstExpr struct {
	StructValue PackageIndex
	StructSize  int32
	Value       []Expression
}

func (e *StructConstExpr) Token() ExprToken { return ExStructConst }
func (e *StructConstExpr) writePayload(w *wire.Writer, m *NameMap, vc VersionContainer) (int, error) {
	w.I32(int32(e.StructValue))
	w.I32(e.StructSize)
	return 0, writeExprArray(w, m, vc, e.Value, nilaryExpr{token: ExEndStructConst})
}

// SetArrayExpr is ExSetArray, whose leading field is version-gated
// (FeatureChangeSetArrayBytecode, §4.1): an assigning-property
// expression on newer engines, a bare inner-type PackageIndex on older
// ones.
type SetArrayExpr struct {
	AssigningProperty Expression
	ArrayInnerProp    PackageIndex
	HasAssigningProp  bool
	Elements          []Expression
}

func (e *SetArrayExpr) Token() ExprToken { return ExSetArray }
func (e *SetArrayExpr) writePayload(w *wire.Writer, m *NameMap, vc VersionContainer) (int, error) {
	if vc.FeaturePresent(FeatureChangeSetArrayBytecode) {
		if err := WriteExpression(w, m, vc, e.AssigningProperty); err != nil {
			return 0, err
		}
	} else {
		w.I32(int32(e.ArrayInnerProp))
	}
	return 0, writeExprArray(w, m, vc, e.Elements, nilaryExpr{token: ExEndArray})
}

func init() {
	registerExpr(ExArrayConst, func(r *wire.Reader, m *NameMap, vc VersionContainer) (Expression, error) {
		idx, err := r.I32()
		if err != nil {
			return nil, err
		}
		if _, err := r.I32(); err != nil { // num_entries
			return nil, err
		}
		elems, err := readExprArray(r, m, vc, ExEndArrayConst)
		if err != nil {
			return nil, err
		}
		return &ArrayConstExpr{InnerProperty: PackageIndex(idx), Elements: elems}, nil
	})
	registerExpr(ExSetConst, func(r *wire.Reader, m *NameMap, vc VersionContainer) (Expression, error) {
		idx, err := r.I32()
		if err != nil {
			return nil, err
		}
		if _, err := r.I32(); err != nil {
			return nil, err
		}
		elems, err := readExprArray(r, m, vc, ExEndSetConst)
		if err != nil {
			return nil, err
		}
		return &SetConstExpr{InnerProperty: PackageIndex(idx), Elements: elems}, nil
	})
	registerExpr(ExMapConst, func(r *wire.Reader, m *NameMap, vc VersionContainer) (Expression, error) {
		key, err := r.I32()
		if err != nil {
			return nil, err
		}
		value, err := r.I32()
		if err != nil {
			return nil, err
		}
		if _, err := r.I32(); err != nil {
			return nil, err
		}
		elems, err := readExprArray(r, m, vc, ExEndMapConst)
		if err != nil {
			return nil, err
		}
		return &MapConstExpr{KeyProperty: PackageIndex(key), ValueProperty: PackageIndex(value), Elements: elems}, nil
	})
	registerExpr(ExStructConst, func(r *wire.Reader, m *NameMap, vc VersionContainer) (Expression, error) {
		idx, err := r.I32()
		if err != nil {
			return nil, err
		}
		size, err := r.I32()
		if err != nil {
			return nil, err
		}
		elems, err := readExprArray(r, m, vc, ExEndStructConst)
		if err != nil {
			return nil, err
		}
		return &StructConstExpr{StructValue: PackageIndex(idx), StructSize: size, Value: elems}, nil
	})
	registerExpr(ExSetArray, func(r *wire.Reader, m *NameMap, vc VersionContainer) (Expression, error) {
		e := &SetArrayExpr{}
		if vc.FeaturePresent(FeatureChangeSetArrayBytecode) {
			prop, err := ReadExpression(r, m, vc)
			if err != nil {
				return nil, err
			}
			e.AssigningProperty, e.HasAssigningProp = prop, true
		} else {
			idx, err := r.I32()
			if err != nil {
				return nil, err
			}
			e.ArrayInnerProp = PackageIndex(idx)
		}
		elems, err := readExprArray(r, m, vc, ExEndArray)
		if err != nil {
			return nil, err
		}
		e.Elements = elems
		return e, nil
	})
}

// --- switch / delegate expressions -------------------------------------------

// SwitchValueExpr is ExSwitchValue.
type SwitchValueExpr struct {
	EndGotoOffset uint32
	IndexTerm     Expression
	DefaultTerm   Expression
	Cases         []KismetSwitchCase
}

func (e *SwitchValueExpr) Token() ExprToken { return ExSwitchValue }
func (e *SwitchValueExpr) writePayload(w *wire.Writer, m *NameMap, vc VersionContainer) (int, error) {
	w.U16(uint16(len(e.Cases)))
	w.U32(e.EndGotoOffset)
	if err := WriteExpression(w, m, vc, e.IndexTerm); err != nil {
		return 0, err
	}
	for _, c := range e.Cases {
		if err := WriteExpression(w, m, vc, c.CaseIndexValue); err != nil {
			return 0, err
		}
		w.U32(c.NextOffset)
		if err := WriteExpression(w, m, vc, c.CaseTerm); err != nil {
			return 0, err
		}
	}
	return 0, WriteExpression(w, m, vc, e.DefaultTerm)
}

func init() {
	registerExpr(ExSwitchValue, func(r *wire.Reader, m *NameMap, vc VersionContainer) (Expression, error) {
		numCases, err := r.U16()
		if err != nil {
			return nil, err
		}
		endGoto, err := r.U32()
		if err != nil {
			return nil, err
		}
		indexTerm, err := ReadExpression(r, m, vc)
		if err != nil {
			return nil, err
		}
		cases := make([]KismetSwitchCase, 0, numCases)
		for i := uint16(0); i < numCases; i++ {
			a, err := ReadExpression(r, m, vc)
			if err != nil {
				return nil, err
			}
			next, err := r.U32()
			if err != nil {
				return nil, err
			}
			c, err := ReadExpression(r, m, vc)
			if err != nil {
				return nil, err
			}
			cases = append(cases, KismetSwitchCase{CaseIndexValue: a, NextOffset: next, CaseTerm: c})
		}
		defaultTerm, err := ReadExpression(r, m, vc)
		if err != nil {
			return nil, err
		}
		return &SwitchValueExpr{EndGotoOffset: endGoto, IndexTerm: indexTerm, DefaultTerm: defaultTerm, Cases: cases}, nil
	})
}

// InstanceDelegateExpr is ExInstanceDelegate.
type InstanceDelegateExpr struct{ FunctionName FName }

func (e *InstanceDelegateExpr) Token() ExprToken { return ExInstanceDelegate }
func (e *InstanceDelegateExpr) writePayload(w *wire.Writer, m *NameMap, vc VersionContainer) (int, error) {
	return 0, writeFName(w, e.FunctionName)
}

// BindDelegateExpr is ExBindDelegate.
type BindDelegateExpr struct {
	FunctionName FName
	Delegate     Expression
	ObjectTerm   Expression
}

func (e *BindDelegateExpr) Token() ExprToken { return ExBindDelegate }
func (e *BindDelegateExpr) writePayload(w *wire.Writer, m *NameMap, vc VersionContainer) (int, error) {
	if err := writeFName(w, e.FunctionName); err != nil {
		return 0, err
	}
	if err := WriteExpression(w, m, vc, e.Delegate); err != nil {
		return 0, err
	}
	return 0, WriteExpression(w, m, vc, e.ObjectTerm)
}

// AddRemoveMulticastDelegateExpr covers AddMulticastDelegate and
// RemoveMulticastDelegate: a delegate expression plus its operand.
type AddRemoveMulticastDelegateExpr struct {
	token          ExprToken
	Delegate       Expression
	DelegateToAdd  Expression
}

func (e *AddRemoveMulticastDelegateExpr) Token() ExprToken { return e.token }
func (e *AddRemoveMulticastDelegateExpr) writePayload(w *wire.Writer, m *NameMap, vc VersionContainer) (int, error) {
	if err := WriteExpression(w, m, vc, e.Delegate); err != nil {
		return 0, err
	}
	return 0, WriteExpression(w, m, vc, e.DelegateToAdd)
}

func init() {
	registerExpr(ExInstanceDelegate, func(r *wire.Reader, m *NameMap, vc VersionContainer) (Expression, error) {
		n, err := readFName(r, m)
		return &InstanceDelegateExpr{FunctionName: n}, err
	})
	registerExpr(ExBindDelegate, func(r *wire.Reader, m *NameMap, vc VersionContainer) (Expression, error) {
		n, err := readFName(r, m)
		if err != nil {
			return nil, err
		}
		delegate, err := ReadExpression(r, m, vc)
		if err != nil {
			return nil, err
		}
		object, err := ReadExpression(r, m, vc)
		if err != nil {
			return nil, err
		}
		return &BindDelegateExpr{FunctionName: n, Delegate: delegate, ObjectTerm: object}, nil
	})
	for _, t := range []ExprToken{ExAddMulticastDelegate, ExRemoveMulticastDelegate} {
		token := t
		registerExpr(token, func(r *wire.Reader, m *NameMap, vc VersionContainer) (Expression, error) {
			delegate, err := ReadExpression(r, m, vc)
			if err != nil {
				return nil, err
			}
			toAdd, err := ReadExpression(r, m, vc)
			if err != nil {
				return nil, err
			}
			return &AddRemoveMulticastDelegateExpr{token: token, Delegate: delegate, DelegateToAdd: toAdd}, nil
		})
	}
}

// PushExecutionFlowExpr is ExPushExecutionFlow.
type PushExecutionFlowExpr struct{ PushingAddress uint32 }

func (e *PushExecutionFlowExpr) Token() ExprToken { return ExPushExecutionFlow }
func (e *PushExecutionFlowExpr) writePayload(w *wire.Writer, m *NameMap, vc VersionContainer) (int, error) {
	w.U32(e.PushingAddress)
	return 4, nil
}

func init() {
	registerExpr(ExPushExecutionFlow, func(r *wire.Reader, m *NameMap, vc VersionContainer) (Expression, error) {
		v, err := r.U32()
		return &PushExecutionFlowExpr{PushingAddress: v}, err
	})
}

// MutatingContainerExpr covers SetSet and SetMap: a mutated container's
// property expression plus the elements assigned into it.
type MutatingContainerExpr struct {
	token    ExprToken
	Property Expression
	Elements []Expression
}

func (e *MutatingContainerExpr) Token() ExprToken { return e.token }
func (e *MutatingContainerExpr) writePayload(w *wire.Writer, m *NameMap, vc VersionContainer) (int, error) {
	if err := WriteExpression(w, m, vc, e.Property); err != nil {
		return 0, err
	}
	w.I32(int32(len(e.Elements)))
	end := ExEndSet
	if e.token == ExSetMap {
		end = ExEndMap
	}
	return 0, writeExprArray(w, m, vc, e.Elements, nilaryExpr{token: end})
}

func init() {
	registerExpr(ExSetSet, func(r *wire.Reader, m *NameMap, vc VersionContainer) (Expression, error) {
		prop, err := ReadExpression(r, m, vc)
		if err != nil {
			return nil, err
		}
		if _, err := r.I32(); err != nil {
			return nil, err
		}
		elems, err := readExprArray(r, m, vc, ExEndSet)
		if err != nil {
			return nil, err
		}
		return &MutatingContainerExpr{token: ExSetSet, Property: prop, Elements: elems}, nil
	})
	registerExpr(ExSetMap, func(r *wire.Reader, m *NameMap, vc VersionContainer) (Expression, error) {
		prop, err := ReadExpression(r, m, vc)
		if err != nil {
			return nil, err
		}
		if _, err := r.I32(); err != nil {
			return nil, err
		}
		elems, err := readExprArray(r, m, vc, ExEndMap)
		if err != nil {
			return nil, err
		}
		return &MutatingContainerExpr{token: ExSetMap, Property: prop, Elements: elems}, nil
	})
}

// LetValueOnPersistentFrameExpr is ExLetValueOnPersistentFrame.
type LetValueOnPersistentFrameExpr struct {
	DestinationProperty  KismetPropertyPointer
	AssignmentExpression Expression
}

func (e *LetValueOnPersistentFrameExpr) Token() ExprToken { return ExLetValueOnPersistentFrame }
func (e *LetValueOnPersistentFrameExpr) writePayload(w *wire.Writer, m *NameMap, vc VersionContainer) (int, error) {
	if err := e.DestinationProperty.write(w, vc); err != nil {
		return 0, err
	}
	return 0, WriteExpression(w, m, vc, e.AssignmentExpression)
}

func init() {
	registerExpr(ExLetValueOnPersistentFrame, func(r *wire.Reader, m *NameMap, vc VersionContainer) (Expression, error) {
		dest, err := readKismetPropertyPointer(r, m, vc)
		if err != nil {
			return nil, err
		}
		assign, err := ReadExpression(r, m, vc)
		if err != nil {
			return nil, err
		}
		return &LetValueOnPersistentFrameExpr{DestinationProperty: dest, AssignmentExpression: assign}, nil
	})
}

// ArrayGetByRefExpr is ExArrayGetByRef.
type ArrayGetByRefExpr struct {
	ArrayVariable Expression
	ArrayIndex    Expression
}

func (e *ArrayGetByRefExpr) Token() ExprToken { return ExArrayGetByRef }
func (e *ArrayGetByRefExpr) writePayload(w *wire.Writer, m *NameMap, vc VersionContainer) (int, error) {
	if err := WriteExpression(w, m, vc, e.ArrayVariable); err != nil {
		return 0, err
	}
	return 0, WriteExpression(w, m, vc, e.ArrayIndex)
}

func init() {
	registerExpr(ExArrayGetByRef, func(r *wire.Reader, m *NameMap, vc VersionContainer) (Expression, error) {
		variable, err := ReadExpression(r, m, vc)
		if err != nil {
			return nil, err
		}
		index, err := ReadExpression(r, m, vc)
		if err != nil {
			return nil, err
		}
		return &ArrayGetByRefExpr{ArrayVariable: variable, ArrayIndex: index}, nil
	})
	registerExpr(ExClearMulticastDelegate, func(r *wire.Reader, m *NameMap, vc VersionContainer) (Expression, error) {
		inner, err := ReadExpression(r, m, vc)
		if err != nil {
			return nil, err
		}
		return &WrapExpr{token: ExClearMulticastDelegate, Inner: inner}, nil
	})
}

// DecodeBytecode reads a None-free sequence of statements until an
// ExEndOfScript token is reached, the top-level shape a UFunction's
// bytecode stream has (§4.5).
func DecodeBytecode(r *wire.Reader, m *NameMap, vc VersionContainer) ([]Expression, error) {
	var out []Expression
	for {
		e, err := ReadExpression(r, m, vc)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
		if e.Token() == ExEndOfScript {
			return out, nil
		}
	}
}

// EncodeBytecode writes exprs back out, token-prefixed, in order.
func EncodeBytecode(w *wire.Writer, m *NameMap, vc VersionContainer, exprs []Expression) error {
	for _, e := range exprs {
		if err := WriteExpression(w, m, vc, e); err != nil {
			return err
		}
	}
	return nil
}
