// Copyright 2020 Meridian Acoustics, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package values

import (
	"math/big"

	"golang.org/x/text/unicode/norm"

	"github.com/meridian-acoustics/dsdl/errors"
)

// The operator algebra. Each operator dispatches on the concrete
// value types of its operands; arithmetic operators broadcast
// elementwise over sets when one operand is a set, and over the
// cartesian product when both are.

func undefinedOperator(op string, operands ...Any) *errors.Error {
	switch len(operands) {
	case 1:
		return errors.Errorf(errors.InvalidOperand,
			"operator %q is not defined for %s", op, operands[0].TypeName())
	default:
		return errors.Errorf(errors.InvalidOperand,
			"operator %q is not defined for (%s, %s)", op, operands[0].TypeName(), operands[1].TypeName())
	}
}

// LogicalNot implements the unary "!" operator.
func LogicalNot(v Any) (Any, error) {
	if b, ok := v.(Boolean); ok {
		return !b, nil
	}
	return nil, undefinedOperator("!", v)
}

// Positive implements the unary "+" operator.
func Positive(v Any) (Any, error) {
	if r, ok := v.(Rational); ok {
		return r, nil
	}
	return nil, undefinedOperator("+", v)
}

// Negative implements the unary "-" operator.
func Negative(v Any) (Any, error) {
	if r, ok := v.(Rational); ok {
		return Rational{new(big.Rat).Neg(r.Rat())}, nil
	}
	return nil, undefinedOperator("-", v)
}

// LogicalOr implements the "||" operator.
func LogicalOr(l, r Any) (Any, error) {
	lb, lok := l.(Boolean)
	rb, rok := r.(Boolean)
	if lok && rok {
		return lb || rb, nil
	}
	return nil, undefinedOperator("||", l, r)
}

// LogicalAnd implements the "&&" operator.
func LogicalAnd(l, r Any) (Any, error) {
	lb, lok := l.(Boolean)
	rb, rok := r.(Boolean)
	if lok && rok {
		return lb && rb, nil
	}
	return nil, undefinedOperator("&&", l, r)
}

// Equal implements the "==" operator. Strings compare under unicode
// normalization; sets compare under set equality and require the
// same element type.
func Equal(l, r Any) (Any, error) {
	switch lv := l.(type) {
	case Rational:
		if rv, ok := r.(Rational); ok {
			return Boolean(lv.Rat().Cmp(rv.Rat()) == 0), nil
		}
	case Boolean:
		if rv, ok := r.(Boolean); ok {
			return Boolean(lv == rv), nil
		}
	case String:
		if rv, ok := r.(String); ok {
			return Boolean(norm.NFC.String(string(lv)) == norm.NFC.String(string(rv))), nil
		}
	case *Set:
		if rv, ok := r.(*Set); ok {
			if err := lv.sameElementType(rv); err != nil {
				return nil, err
			}
			return Boolean(lv.Len() == rv.Len() && lv.isSubsetOf(rv)), nil
		}
	case Equaler:
		eq, err := lv.EqualValue(r)
		if err == nil {
			return Boolean(eq), nil
		}
	}
	if rv, ok := r.(Equaler); ok {
		eq, err := rv.EqualValue(l)
		if err == nil {
			return Boolean(eq), nil
		}
	}
	return nil, undefinedOperator("==", l, r)
}

// NotEqual implements the "!=" operator.
func NotEqual(l, r Any) (Any, error) {
	eq, err := Equal(l, r)
	if err != nil {
		return nil, err
	}
	return LogicalNot(eq)
}

// compareKind distinguishes the ordered comparison operators.
type compareKind int

const (
	cmpLess compareKind = iota
	cmpLessOrEqual
	cmpGreater
	cmpGreaterOrEqual
)

var compareNames = map[compareKind]string{
	cmpLess:           "<",
	cmpLessOrEqual:    "<=",
	cmpGreater:        ">",
	cmpGreaterOrEqual: ">=",
}

func compare(kind compareKind, l, r Any) (Any, error) {
	switch lv := l.(type) {
	case Rational:
		if rv, ok := r.(Rational); ok {
			c := lv.Rat().Cmp(rv.Rat())
			switch kind {
			case cmpLess:
				return Boolean(c < 0), nil
			case cmpLessOrEqual:
				return Boolean(c <= 0), nil
			case cmpGreater:
				return Boolean(c > 0), nil
			default:
				return Boolean(c >= 0), nil
			}
		}
	case String:
		if rv, ok := r.(String); ok {
			switch kind {
			case cmpLess:
				return Boolean(lv < rv), nil
			case cmpLessOrEqual:
				return Boolean(lv <= rv), nil
			case cmpGreater:
				return Boolean(lv > rv), nil
			default:
				return Boolean(lv >= rv), nil
			}
		}
	case *Set:
		if rv, ok := r.(*Set); ok {
			if err := lv.sameElementType(rv); err != nil {
				return nil, err
			}
			sub := lv.isSubsetOf(rv)
			sup := rv.isSubsetOf(lv)
			switch kind {
			case cmpLess:
				return Boolean(sub && !sup), nil
			case cmpLessOrEqual:
				return Boolean(sub), nil
			case cmpGreater:
				return Boolean(sup && !sub), nil
			default:
				return Boolean(sup), nil
			}
		}
	}
	return nil, undefinedOperator(compareNames[kind], l, r)
}

// Less implements the "<" operator: numeric order for rationals, code
// point order for strings, proper subset for sets.
func Less(l, r Any) (Any, error) { return compare(cmpLess, l, r) }

// LessOrEqual implements the "<=" operator.
func LessOrEqual(l, r Any) (Any, error) { return compare(cmpLessOrEqual, l, r) }

// Greater implements the ">" operator.
func Greater(l, r Any) (Any, error) { return compare(cmpGreater, l, r) }

// GreaterOrEqual implements the ">=" operator.
func GreaterOrEqual(l, r Any) (Any, error) { return compare(cmpGreaterOrEqual, l, r) }

// bitwise implements "|", "^" and "&": integer bitwise operations for
// rationals, set algebra (union, disjunctive union, intersection) for
// sets.
func bitwise(op string, l, r Any, ints func(z, a, b *big.Int) *big.Int, sets func(l, r *Set) ([]Any, error)) (Any, error) {
	switch lv := l.(type) {
	case Rational:
		if rv, ok := r.(Rational); ok {
			a, err := lv.Integer()
			if err != nil {
				return nil, err
			}
			b, err := rv.Integer()
			if err != nil {
				return nil, err
			}
			return NewIntBig(ints(new(big.Int), a, b)), nil
		}
	case *Set:
		if rv, ok := r.(*Set); ok {
			if err := lv.sameElementType(rv); err != nil {
				return nil, err
			}
			elems, err := sets(lv, rv)
			if err != nil {
				return nil, err
			}
			return NewSet(elems)
		}
	}
	return nil, undefinedOperator(op, l, r)
}

// BitwiseOr implements the "|" operator.
func BitwiseOr(l, r Any) (Any, error) {
	return bitwise("|", l, r, (*big.Int).Or, func(l, r *Set) ([]Any, error) {
		out := append([]Any{}, l.Elements()...)
		return append(out, r.Elements()...), nil
	})
}

// BitwiseXor implements the "^" operator.
func BitwiseXor(l, r Any) (Any, error) {
	return bitwise("^", l, r, (*big.Int).Xor, func(l, r *Set) ([]Any, error) {
		var out []Any
		for _, e := range l.Elements() {
			if !r.Contains(e) {
				out = append(out, e)
			}
		}
		for _, e := range r.Elements() {
			if !l.Contains(e) {
				out = append(out, e)
			}
		}
		return out, nil
	})
}

// BitwiseAnd implements the "&" operator.
func BitwiseAnd(l, r Any) (Any, error) {
	return bitwise("&", l, r, (*big.Int).And, func(l, r *Set) ([]Any, error) {
		var out []Any
		for _, e := range l.Elements() {
			if r.Contains(e) {
				out = append(out, e)
			}
		}
		return out, nil
	})
}

// broadcast applies op over sets: elementwise when one operand is a
// scalar, over the cartesian product when both operands are sets. The
// result is deduplicated. It returns false when neither operand is a
// set.
func broadcast(op func(l, r Any) (Any, error), l, r Any) (Any, error, bool) {
	ls, lok := l.(*Set)
	rs, rok := r.(*Set)
	switch {
	case lok && rok:
		var out []Any
		for _, x := range ls.Elements() {
			for _, y := range rs.Elements() {
				v, err := op(x, y)
				if err != nil {
					return nil, err, true
				}
				out = append(out, v)
			}
		}
		v, err := NewSet(out)
		return v, err, true
	case lok:
		out, err := ls.mapLeft(op, r)
		return out, err, true
	case rok:
		out, err := rs.mapRight(op, l)
		return out, err, true
	}
	return nil, nil, false
}

// Add implements the "+" operator: exact addition for rationals,
// concatenation for strings, elementwise broadcast over sets.
func Add(l, r Any) (Any, error) {
	if out, err, ok := broadcast(Add, l, r); ok {
		return out, err
	}
	switch lv := l.(type) {
	case Rational:
		if rv, ok := r.(Rational); ok {
			return Rational{new(big.Rat).Add(lv.Rat(), rv.Rat())}, nil
		}
	case String:
		if rv, ok := r.(String); ok {
			return lv + rv, nil
		}
	}
	return nil, undefinedOperator("+", l, r)
}

// Subtract implements the "-" operator.
func Subtract(l, r Any) (Any, error) {
	if out, err, ok := broadcast(Subtract, l, r); ok {
		return out, err
	}
	lv, lok := l.(Rational)
	rv, rok := r.(Rational)
	if lok && rok {
		return Rational{new(big.Rat).Sub(lv.Rat(), rv.Rat())}, nil
	}
	return nil, undefinedOperator("-", l, r)
}

// Multiply implements the "*" operator.
func Multiply(l, r Any) (Any, error) {
	if out, err, ok := broadcast(Multiply, l, r); ok {
		return out, err
	}
	lv, lok := l.(Rational)
	rv, rok := r.(Rational)
	if lok && rok {
		return Rational{new(big.Rat).Mul(lv.Rat(), rv.Rat())}, nil
	}
	return nil, undefinedOperator("*", l, r)
}

// Divide implements the "/" operator. The result is always an exact
// rational; division by zero is an error.
func Divide(l, r Any) (Any, error) {
	if out, err, ok := broadcast(Divide, l, r); ok {
		return out, err
	}
	lv, lok := l.(Rational)
	rv, rok := r.(Rational)
	if lok && rok {
		if rv.Rat().Sign() == 0 {
			return nil, errors.Errorf(errors.InvalidOperand, "cannot divide %s by zero", lv)
		}
		return Rational{new(big.Rat).Quo(lv.Rat(), rv.Rat())}, nil
	}
	return nil, undefinedOperator("/", l, r)
}

// FloorDivide implements the "//" operator: integer floor division.
// Both operands must be integers.
func FloorDivide(l, r Any) (Any, error) {
	if out, err, ok := broadcast(FloorDivide, l, r); ok {
		return out, err
	}
	a, b, err := integerOperands("//", l, r)
	if err != nil {
		return nil, err
	}
	if b.Sign() == 0 {
		return nil, errors.Errorf(errors.InvalidOperand, "cannot divide %s by zero", a)
	}
	q, _ := floorDivMod(a, b)
	return NewIntBig(q), nil
}

// Modulo implements the "%" operator: true modulo whose result takes
// the sign of the divisor. Both operands must be integers.
func Modulo(l, r Any) (Any, error) {
	if out, err, ok := broadcast(Modulo, l, r); ok {
		return out, err
	}
	a, b, err := integerOperands("%", l, r)
	if err != nil {
		return nil, err
	}
	if b.Sign() == 0 {
		return nil, errors.Errorf(errors.InvalidOperand, "cannot divide %s by zero", a)
	}
	_, m := floorDivMod(a, b)
	return NewIntBig(m), nil
}

func integerOperands(op string, l, r Any) (*big.Int, *big.Int, error) {
	lv, lok := l.(Rational)
	rv, rok := r.(Rational)
	if !lok || !rok {
		return nil, nil, undefinedOperator(op, l, r)
	}
	a, err := lv.Integer()
	if err != nil {
		return nil, nil, err
	}
	b, err := rv.Integer()
	if err != nil {
		return nil, nil, err
	}
	return a, b, nil
}

// floorDivMod returns the floored quotient and the remainder with the
// sign of the divisor, such that a = q*b + m.
func floorDivMod(a, b *big.Int) (q, m *big.Int) {
	q = new(big.Int)
	m = new(big.Int)
	q.QuoRem(a, b, m)
	if m.Sign() != 0 && (m.Sign() < 0) != (b.Sign() < 0) {
		q.Sub(q, big.NewInt(1))
		m.Add(m, b)
	}
	return q, m
}

// Power implements the "**" operator. The result must be exactly
// representable as a rational: integer exponents always are;
// fractional exponents are permitted only when the corresponding
// root is exact.
func Power(l, r Any) (Any, error) {
	if out, err, ok := broadcast(Power, l, r); ok {
		return out, err
	}
	lv, lok := l.(Rational)
	rv, rok := r.(Rational)
	if !lok || !rok {
		return nil, undefinedOperator("**", l, r)
	}
	base, exp := lv.Rat(), rv.Rat()
	if exp.IsInt() {
		return ratPowInt(base, exp.Num())
	}
	// Fractional exponent p/q: take the exact q-th root first, then
	// raise to the p-th power.
	root, ok := ratRoot(base, exp.Denom())
	if !ok {
		return nil, errors.Errorf(errors.InvalidOperand,
			"%s ** %s is not exactly representable as a rational", lv, rv)
	}
	return ratPowInt(root, exp.Num())
}

func ratPowInt(base *big.Rat, exp *big.Int) (Any, error) {
	neg := exp.Sign() < 0
	if neg && base.Sign() == 0 {
		return nil, errors.Errorf(errors.InvalidOperand, "cannot raise zero to a negative power")
	}
	e := new(big.Int).Abs(exp)
	num := new(big.Int).Exp(base.Num(), e, nil)
	den := new(big.Int).Exp(base.Denom(), e, nil)
	out := new(big.Rat).SetFrac(num, den)
	if neg {
		out.Inv(out)
	}
	return Rational{out}, nil
}

// ratRoot returns the exact q-th root of base, or ok=false if the
// root is not rational.
func ratRoot(base *big.Rat, q *big.Int) (*big.Rat, bool) {
	if !q.IsInt64() {
		return nil, false
	}
	k := q.Int64()
	num, ok := intRoot(base.Num(), k)
	if !ok {
		return nil, false
	}
	den, ok := intRoot(base.Denom(), k)
	if !ok {
		return nil, false
	}
	return new(big.Rat).SetFrac(num, den), true
}

// intRoot returns the exact k-th root of n, or ok=false if n has no
// exact integer k-th root. Negative n is allowed for odd k.
func intRoot(n *big.Int, k int64) (*big.Int, bool) {
	if n.Sign() < 0 {
		if k%2 == 0 {
			return nil, false
		}
		r, ok := intRoot(new(big.Int).Neg(n), k)
		if !ok {
			return nil, false
		}
		return r.Neg(r), true
	}
	if n.Sign() == 0 || n.Cmp(big.NewInt(1)) == 0 {
		return new(big.Int).Set(n), true
	}
	// Newton iteration on x^k = n, then verify exactness.
	x := new(big.Int).SetBit(new(big.Int), (n.BitLen()/int(k))+1, 1)
	kk := big.NewInt(k)
	km1 := big.NewInt(k - 1)
	for {
		// x' = ((k-1)*x + n/x^(k-1)) / k
		xk1 := new(big.Int).Exp(x, km1, nil)
		t := new(big.Int).Quo(n, xk1)
		t.Add(t, new(big.Int).Mul(km1, x))
		t.Quo(t, kk)
		if t.Cmp(x) >= 0 {
			break
		}
		x = t
	}
	if new(big.Int).Exp(x, kk, nil).Cmp(n) == 0 {
		return x, true
	}
	return nil, false
}

// Attribute implements the "." operator.
func Attribute(v Any, name string) (Any, error) {
	if a, ok := v.(Attributer); ok {
		return a.Attribute(name)
	}
	return nil, undefinedAttribute(name)
}
