// Copyright 2024 The uasset Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package uasset

import (
	"testing"

	"github.com/astromodkit/uasset/wire"
)

func roundTripExpr(t *testing.T, vc VersionContainer, m *NameMap, e Expression) Expression {
	t.Helper()
	w := wire.NewWriter()
	if err := WriteExpression(w, m, vc, e); err != nil {
		t.Fatalf("WriteExpression: %v", err)
	}
	r := wire.NewReader(w.Bytes())
	got, err := ReadExpression(r, m, vc)
	if err != nil {
		t.Fatalf("ReadExpression: %v", err)
	}
	return got
}

func TestNilaryExprRoundTrip(t *testing.T) {
	vc := VersionContainer{FileVersion: VerUE4AutomaticVersion}
	m := NewNameMap()
	got := roundTripExpr(t, vc, m, nilaryExpr{token: ExTrue})
	if got.Token() != ExTrue {
		t.Fatalf("Token() = %v, want ExTrue", got.Token())
	}
}

func TestIntConstRoundTrip(t *testing.T) {
	vc := VersionContainer{FileVersion: VerUE4AutomaticVersion}
	m := NewNameMap()
	got, ok := roundTripExpr(t, vc, m, &Int32ValueExpr{Value: -42}).(*Int32ValueExpr)
	if !ok {
		t.Fatalf("round trip type = %T, want *Int32ValueExpr", got)
	}
	if got.Value != -42 {
		t.Fatalf("Value = %d, want -42", got.Value)
	}
}

func TestPropertyPointerOldStyleRoundTrip(t *testing.T) {
	vc := VersionContainer{FileVersion: VerUE4OldestLoadablePackage}
	m := NewNameMap()
	e := &PropertyPointerExpr{token: ExLocalVariable, Variable: KismetPropertyPointer{Old: ImportIndex(5)}}

	got, ok := roundTripExpr(t, vc, m, e).(*PropertyPointerExpr)
	if !ok {
		t.Fatalf("round trip type = %T, want *PropertyPointerExpr", got)
	}
	if got.Variable.IsNew {
		t.Fatalf("Variable.IsNew = true, want false for a pre-FeatureAddedPackageOwner container")
	}
	if got.Variable.Old != ImportIndex(5) {
		t.Fatalf("Variable.Old = %d, want %d", got.Variable.Old, ImportIndex(5))
	}
}

func TestPropertyPointerFieldPathRoundTrip(t *testing.T) {
	vc := VersionContainer{FileVersion: VerUE4AutomaticVersion}
	if !vc.FeaturePresent(FeatureAddedPackageOwner) {
		t.Fatalf("FeatureAddedPackageOwner not present at VerUE4AutomaticVersion")
	}
	m := NewNameMap()
	e := &PropertyPointerExpr{
		token: ExInstanceVariable,
		Variable: KismetPropertyPointer{
			IsNew: true,
			New:   FieldPath{Path: []FName{NewFName(m, "Health", 0, false)}, Owner: ExportIndex(2)},
		},
	}

	got, ok := roundTripExpr(t, vc, m, e).(*PropertyPointerExpr)
	if !ok {
		t.Fatalf("round trip type = %T, want *PropertyPointerExpr", got)
	}
	if !got.Variable.IsNew {
		t.Fatalf("Variable.IsNew = false, want true")
	}
	if len(got.Variable.New.Path) != 1 || got.Variable.New.Path[0].String() != "Health" {
		t.Fatalf("Variable.New.Path = %v, want [Health]", got.Variable.New.Path)
	}
	if got.Variable.New.Owner != ExportIndex(2) {
		t.Fatalf("Variable.New.Owner = %d, want %d", got.Variable.New.Owner, ExportIndex(2))
	}
}

func TestLetExprRoundTrip(t *testing.T) {
	vc := VersionContainer{FileVersion: VerUE4OldestLoadablePackage}
	m := NewNameMap()
	e := &LetExpr{
		Value:      KismetPropertyPointer{Old: ImportIndex(1)},
		Variable:   &PropertyPointerExpr{token: ExLocalVariable, Variable: KismetPropertyPointer{Old: ImportIndex(1)}},
		Expression: &Int32ValueExpr{Value: 7},
	}

	got, ok := roundTripExpr(t, vc, m, e).(*LetExpr)
	if !ok {
		t.Fatalf("round trip type = %T, want *LetExpr", got)
	}
	inner, ok := got.Expression.(*Int32ValueExpr)
	if !ok || inner.Value != 7 {
		t.Fatalf("Expression = %+v, want Int32ValueExpr{Value: 7}", got.Expression)
	}
}

func TestPointerCallExprRoundTrip(t *testing.T) {
	vc := VersionContainer{FileVersion: VerUE4AutomaticVersion}
	m := NewNameMap()
	e := &PointerCallExpr{
		token:      ExCallMath,
		StackNode:  ImportIndex(9),
		Parameters: []Expression{&Int32ValueExpr{Value: 1}, &Int32ValueExpr{Value: 2}},
	}

	got, ok := roundTripExpr(t, vc, m, e).(*PointerCallExpr)
	if !ok {
		t.Fatalf("round trip type = %T, want *PointerCallExpr", got)
	}
	if got.StackNode != ImportIndex(9) {
		t.Fatalf("StackNode = %d, want %d", got.StackNode, ImportIndex(9))
	}
	if len(got.Parameters) != 2 {
		t.Fatalf("len(Parameters) = %d, want 2", len(got.Parameters))
	}
}

func TestStringConstRoundTrip(t *testing.T) {
	vc := VersionContainer{FileVersion: VerUE4AutomaticVersion}
	m := NewNameMap()
	got, ok := roundTripExpr(t, vc, m, &StringConstExpr{Value: "hello"}).(*StringConstExpr)
	if !ok {
		t.Fatalf("round trip type = %T, want *StringConstExpr", got)
	}
	if got.Value != "hello" {
		t.Fatalf("Value = %q, want \"hello\"", got.Value)
	}
}

func TestUnicodeStringConstRoundTrip(t *testing.T) {
	vc := VersionContainer{FileVersion: VerUE4AutomaticVersion}
	m := NewNameMap()
	got, ok := roundTripExpr(t, vc, m, &UnicodeStringConstExpr{Value: "Café"}).(*UnicodeStringConstExpr)
	if !ok {
		t.Fatalf("round trip type = %T, want *UnicodeStringConstExpr", got)
	}
	if got.Value != "Café" {
		t.Fatalf("Value = %q, want \"Café\"", got.Value)
	}
}

func TestArrayConstExprRoundTrip(t *testing.T) {
	vc := VersionContainer{FileVersion: VerUE4AutomaticVersion}
	m := NewNameMap()
	e := &ArrayConstExpr{
		InnerProperty: ImportIndex(3),
		Elements:      []Expression{&Int32ValueExpr{Value: 10}, &Int32ValueExpr{Value: 20}},
	}

	got, ok := roundTripExpr(t, vc, m, e).(*ArrayConstExpr)
	if !ok {
		t.Fatalf("round trip type = %T, want *ArrayConstExpr", got)
	}
	if got.InnerProperty != ImportIndex(3) {
		t.Fatalf("InnerProperty = %d, want %d", got.InnerProperty, ImportIndex(3))
	}
	if len(got.Elements) != 2 {
		t.Fatalf("len(Elements) = %d, want 2", len(got.Elements))
	}
}

func TestSetArrayOldStyleRoundTrip(t *testing.T) {
	vc := VersionContainer{FileVersion: VerUE4OldestLoadablePackage}
	if vc.FeaturePresent(FeatureChangeSetArrayBytecode) {
		t.Fatalf("FeatureChangeSetArrayBytecode unexpectedly present at the oldest loadable version")
	}
	m := NewNameMap()
	e := &SetArrayExpr{ArrayInnerProp: ImportIndex(4), Elements: []Expression{&Int32ValueExpr{Value: 1}}}

	got, ok := roundTripExpr(t, vc, m, e).(*SetArrayExpr)
	if !ok {
		t.Fatalf("round trip type = %T, want *SetArrayExpr", got)
	}
	if got.HasAssigningProp {
		t.Fatalf("HasAssigningProp = true, want false on the old-style encoding")
	}
	if got.ArrayInnerProp != ImportIndex(4) {
		t.Fatalf("ArrayInnerProp = %d, want %d", got.ArrayInnerProp, ImportIndex(4))
	}
}

func TestDecodeEncodeBytecodeRoundTrip(t *testing.T) {
	vc := VersionContainer{FileVersion: VerUE4AutomaticVersion}
	m := NewNameMap()
	exprs := []Expression{
		&Int32ValueExpr{Value: 1},
		nilaryExpr{token: ExNothing},
		nilaryExpr{token: ExEndOfScript},
	}

	w := wire.NewWriter()
	if err := EncodeBytecode(w, m, vc, exprs); err != nil {
		t.Fatalf("EncodeBytecode: %v", err)
	}
	r := wire.NewReader(w.Bytes())
	got, err := DecodeBytecode(r, m, vc)
	if err != nil {
		t.Fatalf("DecodeBytecode: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len(got) = %d, want 3", len(got))
	}
	if got[len(got)-1].Token() != ExEndOfScript {
		t.Fatalf("last token = %v, want ExEndOfScript", got[len(got)-1].Token())
	}
}

func TestUnknownExpressionTokenErrors(t *testing.T) {
	r := wire.NewReader([]byte{0xFF})
	if _, err := ReadExpression(r, NewNameMap(), VersionContainer{}); err == nil {
		t.Fatalf("ReadExpression(0xFF) succeeded, want an error for an unregistered token")
	}
}
