// Copyright 2020 Meridian Acoustics, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package syntax

import (
	"math/big"
	"reflect"
	"strings"
	"testing"

	"github.com/meridian-acoustics/dsdl/errors"
	"github.com/meridian-acoustics/dsdl/values"
)

// testEnv resolves identifiers from a fixed table and rejects type
// references.
type testEnv map[string]values.Any

func (e testEnv) ResolveIdentifier(name string) (values.Any, error) {
	if v, ok := e[name]; ok {
		return v, nil
	}
	return nil, errors.Errorf(errors.UndefinedAttribute, "undefined identifier %q", name)
}

func (e testEnv) ResolveVersioned(name []string, major, minor int, hasVersion bool) (values.Any, error) {
	return nil, errors.Errorf(errors.UndefinedType, "no types in the test environment")
}

func parseOne(t *testing.T, src string) Stmt {
	t.Helper()
	lines, err := Parse(src)
	if err != nil {
		t.Fatalf("parse %q: %v", src, err)
	}
	if len(lines) != 1 || lines[0].Stmt == nil {
		t.Fatalf("parse %q: unexpected lowering %+v", src, lines)
	}
	return lines[0].Stmt
}

func evalString(t *testing.T, src string, env Env) values.Any {
	t.Helper()
	stmt := parseOne(t, "@print "+src)
	d, ok := stmt.(*Directive)
	if !ok || d.Expr == nil {
		t.Fatalf("eval %q: not an expression directive", src)
	}
	v, err := d.Expr.Eval(env)
	if err != nil {
		t.Fatalf("eval %q: %v", src, err)
	}
	return v
}

func evalError(t *testing.T, src string, env Env) error {
	t.Helper()
	stmt := parseOne(t, "@print "+src)
	d := stmt.(*Directive)
	_, err := d.Expr.Eval(env)
	if err == nil {
		t.Fatalf("eval %q: expected error", src)
	}
	return err
}

func TestLineModel(t *testing.T) {
	lines, err := Parse("# header\n\nuint8 a # trailing\n")
	if err != nil {
		t.Fatal(err)
	}
	// The trailing newline produces a final empty line.
	if len(lines) != 4 {
		t.Fatalf("got %d lines", len(lines))
	}
	if lines[0].Stmt != nil || lines[1].Stmt != nil || lines[3].Stmt != nil {
		t.Error("comment or empty lines lowered to statements")
	}
	f, ok := lines[2].Stmt.(*FieldDecl)
	if !ok {
		t.Fatalf("line 3 is %T", lines[2].Stmt)
	}
	if f.Name != "a" || !reflect.DeepEqual(f.Type.Names, []string{"uint8"}) {
		t.Errorf("field = %+v", f)
	}
	if lines[2].Number != 3 {
		t.Errorf("line number = %d", lines[2].Number)
	}
}

func TestParseErrorLocation(t *testing.T) {
	_, err := Parse("uint8 a\n$$$\n")
	if err == nil {
		t.Fatal("expected error")
	}
	e := errors.Recover(err)
	if e.Kind != errors.Parse || e.Line != 2 {
		t.Errorf("got %v (kind %v, line %d)", e, e.Kind, e.Line)
	}
}

func TestStatements(t *testing.T) {
	if _, ok := parseOne(t, "---").(*ServiceMarker); !ok {
		t.Error("--- not a service marker")
	}
	if _, ok := parseOne(t, "-------").(*ServiceMarker); !ok {
		t.Error("------- not a service marker")
	}
	d := parseOne(t, "@deprecated").(*Directive)
	if d.Name != "deprecated" || d.Expr != nil {
		t.Errorf("directive = %+v", d)
	}
	d = parseOne(t, "@assert 2 == 2").(*Directive)
	if d.Name != "assert" || d.Expr == nil {
		t.Errorf("directive = %+v", d)
	}
	p := parseOne(t, "void3").(*PaddingDecl)
	if !reflect.DeepEqual(p.Type.Names, []string{"void3"}) {
		t.Errorf("padding = %+v", p.Type)
	}
	c := parseOne(t, "saturated uint8 X = 1 + 2").(*ConstantDecl)
	if c.Name != "X" || c.Type.Cast != "saturated" {
		t.Errorf("constant = %+v", c)
	}
}

func TestTypeExpressions(t *testing.T) {
	f := parseOne(t, "truncated uint12 x").(*FieldDecl)
	if f.Type.Cast != "truncated" || f.Type.Names[0] != "uint12" || f.Type.Array != nil {
		t.Errorf("type = %+v", f.Type)
	}

	f = parseOne(t, "ns.sub.Type.1.2 x").(*FieldDecl)
	if !reflect.DeepEqual(f.Type.Names, []string{"ns", "sub", "Type"}) {
		t.Errorf("names = %v", f.Type.Names)
	}
	if !f.Type.HasVersion || f.Type.Major != 1 || f.Type.Minor != 2 {
		t.Errorf("version = %+v", f.Type)
	}

	f = parseOne(t, "Other x").(*FieldDecl)
	if f.Type.HasVersion {
		t.Errorf("unversioned reference carries a version: %+v", f.Type)
	}

	for _, c := range []struct {
		src  string
		kind ArrayKind
	}{
		{"uint8[4] x", FixedArray},
		{"uint8[<=4] x", VariableInclusive},
		{"uint8[<4] x", VariableExclusive},
	} {
		f := parseOne(t, c.src).(*FieldDecl)
		if f.Type.Array == nil || f.Type.Array.Kind != c.kind {
			t.Errorf("%q: array = %+v", c.src, f.Type.Array)
		}
	}
}

func TestExpressionPrecedence(t *testing.T) {
	env := testEnv{}
	for _, c := range []struct {
		src  string
		want int64
	}{
		{"1 + 2 * 3", 7},
		{"(1 + 2) * 3", 9},
		{"2 ** 3 ** 2", 512},
		{"-2 ** 2", -4},
		{"2 ** -1 * 2", 1},
		{"7 // 2", 3},
		{"7 % 3", 1},
		{"1 | 6 & 3", 3},
		{"10 - 2 - 3", 5},
	} {
		got := evalString(t, c.src, env)
		eq, err := values.Equal(got, values.NewInt(c.want))
		if err != nil {
			t.Fatalf("%q: %v", c.src, err)
		}
		if !bool(eq.(values.Boolean)) {
			t.Errorf("%q = %s, want %d", c.src, got, c.want)
		}
	}
}

func TestComparisonNotChainable(t *testing.T) {
	if _, err := Parse("@assert 1 < 2 < 3\n"); err == nil {
		t.Fatal("chained comparison accepted")
	} else if !errors.Is(errors.Parse, err) {
		t.Errorf("got %v", err)
	}
}

func TestLiterals(t *testing.T) {
	env := testEnv{}
	for _, c := range []struct {
		src, want string
	}{
		{"0x_1F", "31"},
		{"0b10_10", "10"},
		{"0o17", "15"},
		{"1_000_000", "1000000"},
		{"1.5", "3/2"},
		{"15e-1", "3/2"},
		{"1.0e3", "1000"},
		{"true", "true"},
		{"false", "false"},
		{"{1, 2, 3}", "{1, 2, 3}"},
		{"'abc'", `"abc"`},
		{`"a\tb"`, `"a\tb"`},
		{`'A'`, `"A"`},
		{`'\U0001F600'`, `"😀"`},
	} {
		got := evalString(t, c.src, env)
		if got.String() != c.want {
			t.Errorf("%q = %s, want %s", c.src, got, c.want)
		}
	}
}

func TestStringEscapeErrors(t *testing.T) {
	for _, src := range []string{
		`'\z'`,
		`'\u00G0'`,
		`'\uD800'`,
	} {
		err := evalError(t, src, testEnv{})
		if !errors.Is(errors.Parse, err) {
			t.Errorf("%q: got %v", src, err)
		}
	}
}

func TestIdentifierResolution(t *testing.T) {
	env := testEnv{"WIDTH": values.NewInt(42)}
	got := evalString(t, "WIDTH + 1", env)
	eq, _ := values.Equal(got, values.NewInt(43))
	if !bool(eq.(values.Boolean)) {
		t.Errorf("WIDTH + 1 = %s", got)
	}
	err := evalError(t, "UNKNOWN", env)
	if !errors.Is(errors.UndefinedAttribute, err) {
		t.Errorf("got %v", err)
	}
}

func TestSetExpressions(t *testing.T) {
	env := testEnv{}
	for _, c := range []struct {
		src  string
		want bool
	}{
		{"{1, 2, 3} == {3, 2, 1}", true},
		{"{1, 2} < {1, 2, 3}", true},
		{"{1} + {2, 3} == {3, 4}", true},
		{"{1, 2} | {2, 3} == {1, 2, 3}", true},
		{"{1, 2} & {2, 3} == {2}", true},
		{"{8, 16}.max == 16", true},
		{"{8, 16}.count == 2", true},
	} {
		got := evalString(t, c.src, env)
		if bool(got.(values.Boolean)) != c.want {
			t.Errorf("%q = %s", c.src, got)
		}
	}
}

func TestRationalExactness(t *testing.T) {
	// (1/3) accumulated a million times stays exact; spot-check a
	// reduced variant.
	got := evalString(t, "1/3 + 1/3 + 1/3", testEnv{})
	r, ok := got.(values.Rational)
	if !ok {
		t.Fatalf("got %T", got)
	}
	if r.Rat().Cmp(big.NewRat(1, 1)) != 0 {
		t.Errorf("sum = %s", r)
	}
}

func TestDivisionByZeroInExpression(t *testing.T) {
	err := evalError(t, "1 / 0", testEnv{})
	if !errors.Is(errors.InvalidOperand, err) {
		t.Errorf("got %v", err)
	}
}

func TestCommentOnlyStringHash(t *testing.T) {
	// A '#' inside a string literal is not a comment.
	c := parseOne(t, `uint8 X = '#'`).(*ConstantDecl)
	v, err := c.Value.Eval(testEnv{})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(v.String(), "#") {
		t.Errorf("value = %s", v)
	}
}
