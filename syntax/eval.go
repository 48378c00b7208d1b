// Copyright 2020 Meridian Acoustics, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package syntax

import (
	"github.com/meridian-acoustics/dsdl/errors"
	"github.com/meridian-acoustics/dsdl/values"
)

// Env supplies the names visible to an expression: the identifiers
// declared above it in the current definition and the composite
// types reachable through the resolver.
type Env interface {
	// ResolveIdentifier resolves a top-level identifier, such as a
	// previously declared constant or the _offset_ pseudo-variable.
	ResolveIdentifier(name string) (values.Any, error)
	// ResolveVersioned resolves a composite type reference. When
	// hasVersion is false the newest available version is selected.
	ResolveVersioned(name []string, major, minor int, hasVersion bool) (values.Any, error)
}

// Expr is a parsed, unevaluated constant expression.
type Expr struct {
	root *exprNode
}

// Eval evaluates the expression against the environment. The result
// is one of the expression value kinds, including serializable types.
func (e *Expr) Eval(env Env) (values.Any, error) {
	if e == nil || e.root == nil {
		return nil, errors.Errorf(errors.Internal, "evaluation of an absent expression")
	}
	return evalOr(e.root.Or, env)
}

func evalOr(n *orNode, env Env) (values.Any, error) {
	left, err := evalAnd(n.Left, env)
	if err != nil {
		return nil, err
	}
	for _, term := range n.Rest {
		right, err := evalAnd(term, env)
		if err != nil {
			return nil, err
		}
		if left, err = values.LogicalOr(left, right); err != nil {
			return nil, err
		}
	}
	return left, nil
}

func evalAnd(n *andNode, env Env) (values.Any, error) {
	left, err := evalCmp(n.Left, env)
	if err != nil {
		return nil, err
	}
	for _, term := range n.Rest {
		right, err := evalCmp(term, env)
		if err != nil {
			return nil, err
		}
		if left, err = values.LogicalAnd(left, right); err != nil {
			return nil, err
		}
	}
	return left, nil
}

var comparisonOps = map[string]func(l, r values.Any) (values.Any, error){
	"==": values.Equal,
	"!=": values.NotEqual,
	"<=": values.LessOrEqual,
	">=": values.GreaterOrEqual,
	"<":  values.Less,
	">":  values.Greater,
}

func evalCmp(n *cmpNode, env Env) (values.Any, error) {
	left, err := evalBit(n.Left, env)
	if err != nil {
		return nil, err
	}
	if n.Op == "" {
		return left, nil
	}
	right, err := evalBit(n.Right, env)
	if err != nil {
		return nil, err
	}
	return comparisonOps[n.Op](left, right)
}

var bitwiseOps = map[string]func(l, r values.Any) (values.Any, error){
	"|": values.BitwiseOr,
	"^": values.BitwiseXor,
	"&": values.BitwiseAnd,
}

func evalBit(n *bitNode, env Env) (values.Any, error) {
	left, err := evalAdd(n.Left, env)
	if err != nil {
		return nil, err
	}
	for _, tail := range n.Rest {
		right, err := evalAdd(tail.Term, env)
		if err != nil {
			return nil, err
		}
		if left, err = bitwiseOps[tail.Op](left, right); err != nil {
			return nil, err
		}
	}
	return left, nil
}

var additiveOps = map[string]func(l, r values.Any) (values.Any, error){
	"+": values.Add,
	"-": values.Subtract,
}

func evalAdd(n *addNode, env Env) (values.Any, error) {
	left, err := evalMul(n.Left, env)
	if err != nil {
		return nil, err
	}
	for _, tail := range n.Rest {
		right, err := evalMul(tail.Term, env)
		if err != nil {
			return nil, err
		}
		if left, err = additiveOps[tail.Op](left, right); err != nil {
			return nil, err
		}
	}
	return left, nil
}

var multiplicativeOps = map[string]func(l, r values.Any) (values.Any, error){
	"*":  values.Multiply,
	"/":  values.Divide,
	"//": values.FloorDivide,
	"%":  values.Modulo,
}

func evalMul(n *mulNode, env Env) (values.Any, error) {
	left, err := evalUnary(n.Left, env)
	if err != nil {
		return nil, err
	}
	for _, tail := range n.Rest {
		right, err := evalUnary(tail.Term, env)
		if err != nil {
			return nil, err
		}
		if left, err = multiplicativeOps[tail.Op](left, right); err != nil {
			return nil, err
		}
	}
	return left, nil
}

func evalUnary(n *unaryNode, env Env) (values.Any, error) {
	if n.Op != "" {
		operand, err := evalUnary(n.Unary, env)
		if err != nil {
			return nil, err
		}
		switch n.Op {
		case "+":
			return values.Positive(operand)
		case "-":
			return values.Negative(operand)
		default:
			return values.LogicalNot(operand)
		}
	}
	return evalPow(n.Pow, env)
}

func evalPow(n *powNode, env Env) (values.Any, error) {
	base, err := evalPostfix(n.Base, env)
	if err != nil {
		return nil, err
	}
	if n.Exp == nil {
		return base, nil
	}
	exp, err := evalUnary(n.Exp, env)
	if err != nil {
		return nil, err
	}
	return values.Power(base, exp)
}

func evalPostfix(n *postfixNode, env Env) (values.Any, error) {
	out, err := evalPrimary(n.Primary, env)
	if err != nil {
		return nil, err
	}
	for _, attr := range n.Attrs {
		if out, err = values.Attribute(out, attr); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func evalPrimary(n *primaryNode, env Env) (values.Any, error) {
	switch {
	case n.Paren != nil:
		return evalOr(n.Paren.Or, env)
	case n.Set != nil:
		elems := make([]values.Any, 0, 1+len(n.Set.Rest))
		first, err := evalOr(n.Set.First.Or, env)
		if err != nil {
			return nil, err
		}
		elems = append(elems, first)
		for _, e := range n.Set.Rest {
			v, err := evalOr(e.Or, env)
			if err != nil {
				return nil, err
			}
			elems = append(elems, v)
		}
		return values.NewSet(elems)
	case n.Real != nil:
		return parseRealLiteral(*n.Real)
	case n.Binary != nil:
		return parseIntegerLiteral(*n.Binary)
	case n.Octal != nil:
		return parseIntegerLiteral(*n.Octal)
	case n.Hex != nil:
		return parseIntegerLiteral(*n.Hex)
	case n.Decimal != nil:
		return parseIntegerLiteral(*n.Decimal)
	case n.Str != nil:
		return parseStringLiteral(*n.Str)
	case n.True:
		return values.Boolean(true), nil
	case n.False:
		return values.Boolean(false), nil
	case n.Ref != nil:
		return evalRef(n.Ref, env)
	}
	return nil, errors.Errorf(errors.Internal, "primary expression node has no variant")
}

func evalRef(n *refNode, env Env) (values.Any, error) {
	if n.Version != nil {
		major, minor, err := parseVersion(*n.Version)
		if err != nil {
			return nil, err
		}
		return env.ResolveVersioned(n.Names, major, minor, true)
	}
	// Without a version specifier the chain is an identifier
	// followed by attribute accesses.
	out, err := env.ResolveIdentifier(n.Names[0])
	if err != nil {
		return nil, err
	}
	for _, attr := range n.Names[1:] {
		if out, err = values.Attribute(out, attr); err != nil {
			return nil, err
		}
	}
	return out, nil
}
