// Copyright 2020 Meridian Acoustics, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package errors provides the standard error definition used
// throughout the DSDL front end. Each error is assigned a class
// (kind) and carries the location of the offending construct: the
// path of the definition file and, when known, the one-based line
// number. Errors render in the single-line GCC style
// "path:line: message" so that they can be consumed by editors and
// build tools directly.
//
// Package errors provides functions E and Errorf as convenience
// constructors, so that users need import only one error package.
package errors

import (
	"fmt"
)

// Kind denotes the type of the error. The error's kind is used for
// interpretation and is not part of the rendered message: Internal
// indicates a defect in the front end itself, while every other kind
// indicates a problem with the definitions being processed.
type Kind int

const (
	// Other denotes an unclassified definition error.
	Other Kind = iota
	// Internal denotes an invariant violation inside the front end.
	Internal
	// Parse denotes a syntax error in a definition.
	Parse
	// Semantic denotes a semantic rule violation.
	Semantic
	// UndefinedType denotes a reference to an unknown data type.
	UndefinedType
	// UndefinedAttribute denotes a reference to an unknown attribute
	// or identifier.
	UndefinedAttribute
	// InvalidOperand denotes an expression operand of the wrong
	// domain: a type mismatch, division by zero, a non-integer where
	// an integer is required, and the like.
	InvalidOperand
	// CyclicDependency denotes a dependency cycle between
	// definitions.
	CyclicDependency
	// BitCompatibility denotes that two definitions sharing a major
	// version are not bit-compatible.
	BitCompatibility
	// Naming denotes an invalid or colliding name.
	Naming
	// Version denotes invalid or conflicting version numbers.
	Version
	// PortID denotes an invalid fixed port identifier.
	PortID
	// Deprecation denotes a dependency on a deprecated type that has
	// been promoted from a warning to an error.
	Deprecation
	// FileName denotes a malformed definition file name.
	FileName
	// Directive denotes an unknown or misused directive.
	Directive
	// Assertion denotes a failed assertion check.
	Assertion
	// TypeParameter denotes an invalid type parameterization, such as
	// a bad bit length or array capacity.
	TypeParameter
	// Constant denotes an invalid constant value.
	Constant

	maxKind
)

var kindStrings = [maxKind]string{
	Other:              "invalid definition",
	Internal:           "internal error",
	Parse:              "syntax error",
	Semantic:           "semantic error",
	UndefinedType:      "undefined type",
	UndefinedAttribute: "undefined attribute",
	InvalidOperand:     "invalid operand",
	CyclicDependency:   "cyclic dependency",
	BitCompatibility:   "bit compatibility error",
	Naming:             "naming error",
	Version:            "version error",
	PortID:             "port ID error",
	Deprecation:        "deprecation error",
	FileName:           "file name error",
	Directive:          "directive error",
	Assertion:          "assertion failure",
	TypeParameter:      "type parameter error",
	Constant:           "constant error",
}

// String renders a human-readable description of kind k.
func (k Kind) String() string {
	if k < 0 || k >= maxKind {
		return "unknown error"
	}
	return kindStrings[k]
}

// Error defines a front-end error. It associates a message with an
// error kind and with the source location of the offending
// construct. Errors should be constructed by E or Errorf.
type Error struct {
	// Kind is the error's class.
	Kind Kind
	// Path is the definition file where the error occurred. Empty if
	// unknown.
	Path string
	// Line is the one-based line number where the error occurred.
	// Zero if unknown. Line is meaningful only when Path is set.
	Line int
	// Msg describes the error.
	Msg string
}

// E constructs an *Error from the provided arguments, each of which
// must be one of the following types:
//
//	Kind
//		Taken as the error's kind.
//	string
//		Taken as the error's message. Multiple strings are joined
//		with a space.
//	int
//		Taken as the error's line number.
//	*Error
//		Its message is appended to the error's message (or taken
//		as the message if there is none yet); its kind and location
//		are inherited where this error does not define them.
//	error
//		Its message is appended to the error's message.
//
// The path is not settable through E because it is normally injected
// after the fact by the definition reader; use SetLocation.
func E(args ...interface{}) *Error {
	if len(args) == 0 {
		panic("errors.E: no args")
	}
	e := new(Error)
	for _, arg := range args {
		switch arg := arg.(type) {
		case Kind:
			e.Kind = arg
		case string:
			if e.Msg == "" {
				e.Msg = arg
			} else {
				e.Msg += " " + arg
			}
		case int:
			e.Line = arg
		case *Error:
			if e.Msg == "" {
				e.Msg = arg.Msg
			} else {
				e.Msg += ": " + arg.Msg
			}
			if e.Kind == Other {
				e.Kind = arg.Kind
			}
			if e.Path == "" {
				e.Path = arg.Path
			}
			if e.Line == 0 {
				e.Line = arg.Line
			}
		case error:
			if e.Msg == "" {
				e.Msg = arg.Error()
			} else {
				e.Msg += ": " + arg.Error()
			}
		default:
			panic(fmt.Sprintf("errors.E: bad argument %v (%T)", arg, arg))
		}
	}
	return e
}

// Errorf constructs an *Error of the given kind in the manner of
// fmt.Errorf.
func Errorf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Newf constructs an *Error of kind Other in the manner of
// fmt.Errorf.
func Newf(format string, args ...interface{}) *Error {
	return Errorf(Other, format, args...)
}

// Error renders the error in the single-line GCC style. The line
// number is omitted when unknown; the path is omitted when unknown.
func (e *Error) Error() string {
	switch {
	case e.Path != "" && e.Line > 0:
		return fmt.Sprintf("%s:%d: %s", e.Path, e.Line, e.Msg)
	case e.Path != "":
		return fmt.Sprintf("%s: %s", e.Path, e.Msg)
	}
	return e.Msg
}

// SetLocation fills in the error location fields that are still
// unknown. Fields that are already set are left unchanged, so that an
// error propagating out of a nested definition keeps its original
// location.
func (e *Error) SetLocation(path string, line int) {
	if e.Path == "" && path != "" {
		e.Path = path
	}
	if e.Line == 0 && line > 0 {
		e.Line = line
	}
}

// Is tells whether err is an *Error of the provided kind.
func Is(kind Kind, err error) bool {
	e, ok := err.(*Error)
	return ok && e.Kind == kind
}

// Recover interprets an arbitrary error as a front-end error. Errors
// that are not already an *Error are wrapped as Internal, because the
// front end promises to classify every failure it reports.
func Recover(err error) *Error {
	if err == nil {
		return nil
	}
	if e, ok := err.(*Error); ok {
		return e
	}
	return E(Internal, err)
}
