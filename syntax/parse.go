// Copyright 2020 Meridian Acoustics, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package syntax

import (
	"strconv"
	"strings"

	"github.com/meridian-acoustics/dsdl/errors"
)

// Line is one source line of a definition, numbered from one. Stmt
// is nil for lines that carry no statement (empty or comment-only).
type Line struct {
	Number int
	Stmt   Stmt
}

// Stmt is a statement lowered from one source line: *Directive,
// *ServiceMarker, *FieldDecl, *PaddingDecl or *ConstantDecl.
type Stmt interface {
	stmt()
}

// Directive is an @-statement. Expr is nil when no expression is
// attached.
type Directive struct {
	Name string
	Expr *Expr
}

// ServiceMarker is the "---" line splitting a service definition
// into its request and response sections.
type ServiceMarker struct{}

// FieldDecl declares a named field.
type FieldDecl struct {
	Type *TypeExpr
	Name string
}

// PaddingDecl declares an unnamed padding field.
type PaddingDecl struct {
	Type *TypeExpr
}

// ConstantDecl declares a named constant with an initializer.
type ConstantDecl struct {
	Type  *TypeExpr
	Name  string
	Value *Expr
}

func (*Directive) stmt()     {}
func (*ServiceMarker) stmt() {}
func (*FieldDecl) stmt()     {}
func (*PaddingDecl) stmt()   {}
func (*ConstantDecl) stmt()  {}

// ArrayKind distinguishes the three array forms.
type ArrayKind int

const (
	// FixedArray is "[N]": exactly N elements.
	FixedArray ArrayKind = iota
	// VariableInclusive is "[<=N]": zero to N elements.
	VariableInclusive
	// VariableExclusive is "[<N]": zero to N-1 elements.
	VariableExclusive
)

// TypeExpr is an unresolved type reference: a scalar (primitive,
// void, or composite reference) with an optional array suffix.
type TypeExpr struct {
	// Cast is "", "saturated" or "truncated" as spelled in the
	// source.
	Cast string
	// Names is the dot-separated reference: a single primitive or
	// void name, or the components of a composite type name.
	Names []string
	// Major and Minor hold the version specifier when HasVersion is
	// set; composite references without a version resolve to the
	// newest available version.
	Major, Minor int
	HasVersion   bool
	// Array is nil for scalar types.
	Array *ArrayExpr
}

// ArrayExpr is the array suffix of a type expression. The capacity
// is a constant expression.
type ArrayExpr struct {
	Kind     ArrayKind
	Capacity *Expr
}

// Parse lowers the source text of one definition file into a list of
// Line records, one per source line. Expressions are parsed but not
// evaluated. The returned error carries the one-based line number of
// the first offending line.
func Parse(text string) ([]Line, error) {
	// The terminator is \r?\n, and a lone \r also ends a line; a
	// trailing newline on the last line is optional.
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	raw := strings.Split(text, "\n")
	lines := make([]Line, 0, len(raw))
	for i, src := range raw {
		number := i + 1
		stmt, err := parseLine(src)
		if err != nil {
			e := errors.Recover(err)
			e.SetLocation("", number)
			return nil, e
		}
		lines = append(lines, Line{Number: number, Stmt: stmt})
	}
	return lines, nil
}

func parseLine(src string) (Stmt, error) {
	trimmed := strings.TrimLeft(src, " \t")
	if trimmed == "" || trimmed[0] == '#' {
		return nil, nil
	}
	node, err := statementParser.ParseString("", src)
	if err != nil {
		return nil, errors.Errorf(errors.Parse, "syntax error: %s", parseErrorMessage(err))
	}
	return lower(node)
}

// parseErrorMessage strips the position prefix that the parser
// runtime embeds in its error strings; the caller attaches the
// file-relative location itself.
func parseErrorMessage(err error) string {
	msg := err.Error()
	if i := strings.Index(msg, ": "); i > 0 && strings.HasPrefix(msg, "1:") {
		return msg[i+2:]
	}
	return msg
}

func lower(node *stmtNode) (Stmt, error) {
	switch {
	case node.Marker != nil:
		return &ServiceMarker{}, nil
	case node.Directive != nil:
		d := &Directive{Name: node.Directive.Name}
		if node.Directive.Expr != nil {
			d.Expr = &Expr{root: node.Directive.Expr}
		}
		return d, nil
	case node.Attribute != nil:
		return lowerAttribute(node.Attribute)
	}
	return nil, errors.Errorf(errors.Internal, "statement node has no variant")
}

func lowerAttribute(node *attributeNode) (Stmt, error) {
	typ, err := lowerType(node.Type)
	if err != nil {
		return nil, err
	}
	switch {
	case node.Name == "" && node.Value == nil:
		return &PaddingDecl{Type: typ}, nil
	case node.Name == "":
		return nil, errors.Errorf(errors.Parse, "expected attribute name")
	case node.Value == nil:
		return &FieldDecl{Type: typ, Name: node.Name}, nil
	default:
		return &ConstantDecl{Type: typ, Name: node.Name, Value: &Expr{root: node.Value}}, nil
	}
}

func lowerType(node *typeNode) (*TypeExpr, error) {
	out := &TypeExpr{Cast: node.Cast, Names: node.Names}
	if node.Version != nil {
		major, minor, err := parseVersion(*node.Version)
		if err != nil {
			return nil, err
		}
		out.Major, out.Minor, out.HasVersion = major, minor, true
	}
	if node.Array != nil {
		kind := FixedArray
		switch node.Array.Mode {
		case "<=":
			kind = VariableInclusive
		case "<":
			kind = VariableExclusive
		}
		out.Array = &ArrayExpr{Kind: kind, Capacity: &Expr{root: node.Array.Capacity}}
	}
	return out, nil
}

// parseVersion splits a version specifier such as "1.0". The lexer
// delivers it as a single real-literal token; only plain
// digits-dot-digits forms are valid versions.
func parseVersion(text string) (major, minor int, err error) {
	parts := strings.Split(text, ".")
	if len(parts) != 2 || !allDigits(parts[0]) || !allDigits(parts[1]) {
		return 0, 0, errors.Errorf(errors.Parse, "invalid version specifier %q", text)
	}
	major, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, errors.Errorf(errors.Parse, "invalid major version in %q", text)
	}
	minor, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, errors.Errorf(errors.Parse, "invalid minor version in %q", text)
	}
	return major, minor, nil
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
