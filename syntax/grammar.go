// Copyright 2020 Meridian Acoustics, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package syntax implements the line-oriented grammar of the DSDL
// language and the evaluator for its constant expressions.
//
// A definition file is a sequence of lines; each line holds at most
// one statement (an attribute, a directive, or the service response
// marker) plus an optional comment. Parse lowers the source text
// into one Line record per source line; expression syntax trees
// embedded in the statements are evaluated later, against an
// environment supplied by the type builder.
//
// The grammar is declared as tagged structs and compiled by the
// participle runtime. The semantic analysis does not depend on the
// runtime: the parser produces a plain syntax tree and all
// evaluation is performed on that tree.
package syntax

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

var tokens = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `#[^\n]*`},
	{Name: "String", Pattern: `"(?:\\.|[^"\\])*"|'(?:\\.|[^'\\])*'`},
	{Name: "Real", Pattern: `\d[\d_]*\.\d[\d_]*(?:[eE][+-]?\d+)?|\d[\d_]*[eE][+-]?\d+`},
	{Name: "Binary", Pattern: `0[bB][01_]+`},
	{Name: "Octal", Pattern: `0[oO][0-7_]+`},
	{Name: "Hex", Pattern: `0[xX][0-9a-fA-F_]+`},
	{Name: "Decimal", Pattern: `\d[\d_]*`},
	{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_]*`},
	{Name: "Punct", Pattern: `\*\*|//|\|\||&&|==|!=|<=|>=|[-+*/%|^&!<>=.@,{}()\[\]]`},
	{Name: "Whitespace", Pattern: `[ \t]+`},
})

var statementParser = participle.MustBuild[stmtNode](
	participle.Lexer(tokens),
	participle.Elide("Whitespace", "Comment"),
	participle.UseLookahead(1000),
)

// stmtNode is the root of the per-line grammar.
type stmtNode struct {
	Marker    *markerNode    `parser:"  @@"`
	Directive *directiveNode `parser:"| @@"`
	Attribute *attributeNode `parser:"| @@"`
}

// markerNode is the service response marker: three or more dashes.
type markerNode struct {
	Pos lexer.Position

	Dashes []string `parser:"@'-' @'-' @'-' @'-'*"`
}

type directiveNode struct {
	Name string    `parser:"'@' @Ident"`
	Expr *exprNode `parser:"@@?"`
}

// attributeNode covers fields, padding fields and constants; the
// three are told apart during lowering by the presence of the name
// and the value.
type attributeNode struct {
	Type  *typeNode `parser:"@@"`
	Name  string    `parser:"@Ident?"`
	Value *exprNode `parser:"('=' @@)?"`
}

// typeNode is a scalar type reference with an optional array suffix.
// The scalar is either a primitive or void name or a composite
// reference; the distinction is made during type construction, not
// by the grammar.
type typeNode struct {
	Pos lexer.Position

	Cast    string     `parser:"@('saturated' | 'truncated')?"`
	Names   []string   `parser:"@Ident ('.' @Ident)*"`
	Version *string    `parser:"('.' @Real)?"`
	Array   *arrayNode `parser:"@@?"`
}

type arrayNode struct {
	Mode     string    `parser:"'[' @('<=' | '<')?"`
	Capacity *exprNode `parser:"@@ ']'"`
}

// The expression grammar implements the operator precedence tower,
// lowest binding first: logical or, logical and, comparison
// (non-chainable), bitwise, additive, multiplicative, unary,
// exponential, attribute access.

type exprNode struct {
	Or *orNode `parser:"@@"`
}

type orNode struct {
	Left *andNode   `parser:"@@"`
	Rest []*andNode `parser:"('||' @@)*"`
}

type andNode struct {
	Left *cmpNode   `parser:"@@"`
	Rest []*cmpNode `parser:"('&&' @@)*"`
}

type cmpNode struct {
	Left  *bitNode `parser:"@@"`
	Op    string   `parser:"(@('==' | '!=' | '<=' | '>=' | '<' | '>')"`
	Right *bitNode `parser:"@@)?"`
}

type bitNode struct {
	Left *addNode   `parser:"@@"`
	Rest []*bitTail `parser:"@@*"`
}

type bitTail struct {
	Op   string   `parser:"@('|' | '^' | '&')"`
	Term *addNode `parser:"@@"`
}

type addNode struct {
	Left *mulNode   `parser:"@@"`
	Rest []*addTail `parser:"@@*"`
}

type addTail struct {
	Op   string   `parser:"@('+' | '-')"`
	Term *mulNode `parser:"@@"`
}

type mulNode struct {
	Left *unaryNode `parser:"@@"`
	Rest []*mulTail `parser:"@@*"`
}

type mulTail struct {
	Op   string     `parser:"@('*' | '//' | '/' | '%')"`
	Term *unaryNode `parser:"@@"`
}

type unaryNode struct {
	Op    string     `parser:"( @('+' | '-' | '!')"`
	Unary *unaryNode `parser:"  @@ )"`
	Pow   *powNode   `parser:"| @@"`
}

// powNode is right-associative: a ** b ** c parses as a ** (b ** c).
// The exponent admits a unary operator, so 2 ** -10 needs no
// parentheses.
type powNode struct {
	Base *postfixNode `parser:"@@"`
	Exp  *unaryNode   `parser:"('**' @@)?"`
}

type postfixNode struct {
	Primary *primaryNode `parser:"@@"`
	Attrs   []string     `parser:"('.' @Ident)*"`
}

type primaryNode struct {
	Paren   *exprNode `parser:"  '(' @@ ')'"`
	Set     *setNode  `parser:"| '{' @@ '}'"`
	Real    *string   `parser:"| @Real"`
	Binary  *string   `parser:"| @Binary"`
	Octal   *string   `parser:"| @Octal"`
	Hex     *string   `parser:"| @Hex"`
	Decimal *string   `parser:"| @Decimal"`
	Str     *string   `parser:"| @String"`
	True    bool      `parser:"| @'true'"`
	False   bool      `parser:"| @'false'"`
	Ref     *refNode  `parser:"| @@"`
}

// setNode is a non-empty set literal body.
type setNode struct {
	First *exprNode   `parser:"@@"`
	Rest  []*exprNode `parser:"(',' @@)*"`
}

// refNode is an identifier chain with an optional trailing version
// specifier. With a version it denotes a composite type reference;
// without one it denotes an identifier followed by attribute
// accesses.
type refNode struct {
	Names   []string `parser:"@Ident ('.' @Ident)*"`
	Version *string  `parser:"('.' @Real)?"`
}
