// Copyright 2020 Meridian Acoustics, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package dsdl

import (
	"strings"

	"github.com/meridian-acoustics/dsdl/errors"
	"github.com/meridian-acoustics/dsdl/lengthset"
	"github.com/meridian-acoustics/dsdl/log"
	"github.com/meridian-acoustics/dsdl/syntax"
	"github.com/meridian-acoustics/dsdl/types"
	"github.com/meridian-acoustics/dsdl/values"
)

// typeBuilder interprets the lowered statement stream of one
// definition and accumulates the data needed to construct the final
// type. It doubles as the expression evaluation environment: the
// constants declared so far and the _offset_ pseudo-variable are
// visible to the expressions below them.
type typeBuilder struct {
	s           *session
	def         *Definition
	sections    []*sectionBuilder
	deprecated  bool
	currentLine int
}

// sectionBuilder accumulates one section of a definition: the whole
// message, or one side of a service.
type sectionBuilder struct {
	attrs     []types.Attribute
	union     bool
	sealed    bool
	hasSealed bool
	extent    uint64
	hasExtent bool
	// offsetTaken guards unions: once _offset_ has been observed, no
	// further fields may be added, because the inter-field offset of
	// a union is undefined.
	offsetTaken bool
}

func (b *sectionBuilder) empty() bool { return len(b.attrs) == 0 }

func (b *sectionBuilder) addField(f types.Attribute) error {
	if b.union && b.offsetTaken {
		return errors.Errorf(errors.Semantic,
			"inter-field offset is not defined for unions; previously performed bit length analysis is invalid")
	}
	b.attrs = append(b.attrs, f)
	return nil
}

// bitLengthSet computes the bit length set of the section as
// declared so far.
func (b *sectionBuilder) bitLengthSet() lengthset.Set {
	var fields []lengthset.Set
	for _, a := range b.attrs {
		if _, ok := a.(*types.Constant); ok {
			continue
		}
		fields = append(fields, a.DataType().BitLengthSet())
	}
	if !b.union {
		return lengthset.Concatenate(fields...)
	}
	tag := 0
	for n := len(fields) - 1; n > 0; n >>= 1 {
		tag++
	}
	return lengthset.New(uint64(tag)).Concat(lengthset.Unite(fields...))
}

func newTypeBuilder(s *session, def *Definition) *typeBuilder {
	return &typeBuilder{
		s:        s,
		def:      def,
		sections: []*sectionBuilder{{}},
	}
}

func (b *typeBuilder) section() *sectionBuilder {
	return b.sections[len(b.sections)-1]
}

// process interprets one lowered line.
func (b *typeBuilder) process(line syntax.Line) error {
	b.currentLine = line.Number
	switch stmt := line.Stmt.(type) {
	case nil:
		return nil
	case *syntax.ServiceMarker:
		if len(b.sections) > 1 {
			return errors.Errorf(errors.Semantic, "duplicated service response marker")
		}
		b.sections = append(b.sections, &sectionBuilder{})
		return nil
	case *syntax.Directive:
		return b.onDirective(stmt)
	case *syntax.FieldDecl:
		return b.onField(stmt)
	case *syntax.PaddingDecl:
		return b.onPadding(stmt)
	case *syntax.ConstantDecl:
		return b.onConstant(stmt)
	}
	return errors.Errorf(errors.Internal, "unhandled statement type %T", line.Stmt)
}

func (b *typeBuilder) onField(stmt *syntax.FieldDecl) error {
	typ, err := b.resolveType(stmt.Type)
	if err != nil {
		return err
	}
	f, err := types.NewField(typ, stmt.Name)
	if err != nil {
		return err
	}
	return b.section().addField(f)
}

func (b *typeBuilder) onPadding(stmt *syntax.PaddingDecl) error {
	typ, err := b.resolveType(stmt.Type)
	if err != nil {
		return err
	}
	void, ok := typ.(*types.Void)
	if !ok {
		return errors.Errorf(errors.Semantic, "padding fields must be of a void type, not %s", typ)
	}
	return b.section().addField(types.NewPadding(void))
}

func (b *typeBuilder) onConstant(stmt *syntax.ConstantDecl) error {
	typ, err := b.resolveType(stmt.Type)
	if err != nil {
		return err
	}
	value, err := stmt.Value.Eval(b)
	if err != nil {
		return err
	}
	c, err := types.NewConstant(typ, stmt.Name, value)
	if err != nil {
		return err
	}
	b.section().attrs = append(b.section().attrs, c)
	return nil
}

// The recognized directives. Unknown directives are fatal.
func (b *typeBuilder) onDirective(stmt *syntax.Directive) error {
	var value values.Any
	if stmt.Expr != nil {
		var err error
		if value, err = stmt.Expr.Eval(b); err != nil {
			return err
		}
	}
	switch stmt.Name {
	case "deprecated":
		return b.onDeprecated(value)
	case "union":
		return b.onUnion(value)
	case "sealed":
		return b.onSealed(value)
	case "extent":
		return b.onExtent(value)
	case "print":
		return b.onPrint(value, stmt.Expr != nil)
	case "assert":
		return b.onAssert(value, stmt.Expr != nil)
	}
	return errors.Errorf(errors.Directive, "unknown directive %q", stmt.Name)
}

func (b *typeBuilder) onDeprecated(value values.Any) error {
	if value != nil {
		return errors.Errorf(errors.Directive, "the deprecated directive does not expect an expression")
	}
	if b.deprecated {
		return errors.Errorf(errors.Directive, "duplicated deprecated directive")
	}
	if len(b.sections) > 1 {
		return errors.Errorf(errors.Directive,
			"the deprecated directive cannot be placed in the response section")
	}
	if !b.section().empty() {
		return errors.Errorf(errors.Directive,
			"the deprecated directive must be placed before the first attribute definition")
	}
	b.deprecated = true
	return nil
}

func (b *typeBuilder) onUnion(value values.Any) error {
	if value != nil {
		return errors.Errorf(errors.Directive, "the union directive does not expect an expression")
	}
	sec := b.section()
	if sec.union {
		return errors.Errorf(errors.Directive, "duplicated union directive")
	}
	if !sec.empty() {
		return errors.Errorf(errors.Directive,
			"the union directive must be placed before the first attribute definition")
	}
	sec.union = true
	return nil
}

func (b *typeBuilder) onSealed(value values.Any) error {
	if value != nil {
		return errors.Errorf(errors.Directive, "the sealed directive does not expect an expression")
	}
	sec := b.section()
	if sec.hasSealed {
		return errors.Errorf(errors.Directive, "duplicated sealed directive")
	}
	if sec.hasExtent {
		return errors.Errorf(errors.Directive, "sealed types cannot have an extent")
	}
	sec.sealed, sec.hasSealed = true, true
	return nil
}

func (b *typeBuilder) onExtent(value values.Any) error {
	if value == nil {
		return errors.Errorf(errors.Directive, "the extent directive requires an expression")
	}
	sec := b.section()
	if sec.hasExtent {
		return errors.Errorf(errors.Directive, "duplicated extent directive")
	}
	if sec.hasSealed {
		return errors.Errorf(errors.Directive, "sealed types cannot have an extent")
	}
	r, ok := value.(values.Rational)
	if !ok {
		return errors.Errorf(errors.Directive,
			"the extent directive expects a rational, not %s", value.TypeName())
	}
	bits, err := r.Uint64()
	if err != nil {
		return err
	}
	sec.extent, sec.hasExtent = bits, true
	return nil
}

func (b *typeBuilder) onPrint(value values.Any, hasExpr bool) error {
	text := ""
	if hasExpr {
		text = value.String()
	}
	log.Debugf("%s:%d: print: %s", b.def.FilePath(), b.currentLine, text)
	b.s.print(b.def.FilePath(), b.currentLine, text)
	return nil
}

func (b *typeBuilder) onAssert(value values.Any, hasExpr bool) error {
	if !hasExpr {
		return errors.Errorf(errors.Directive, "the assert directive requires an expression")
	}
	ok, isBool := value.(values.Boolean)
	if !isBool {
		return errors.Errorf(errors.Directive,
			"the assertion check expression must yield a boolean, not %s", value.TypeName())
	}
	if !bool(ok) {
		return errors.Errorf(errors.Assertion, "assertion check has failed")
	}
	return nil
}

// ResolveIdentifier implements syntax.Env. The visible identifiers
// are the constants declared above the current statement in the
// current section, and the _offset_ pseudo-variable.
func (b *typeBuilder) ResolveIdentifier(name string) (values.Any, error) {
	for _, a := range b.section().attrs {
		if c, ok := a.(*types.Constant); ok && c.Name() == name {
			return c.Value(), nil
		}
	}
	if name == "_offset_" {
		sec := b.section()
		sec.offsetTaken = true
		elems := sec.bitLengthSet().Elements()
		out := make([]values.Any, len(elems))
		for i, e := range elems {
			out[i] = values.NewInt(int64(e))
		}
		return values.NewSet(out)
	}
	return nil, errors.Errorf(errors.UndefinedAttribute, "undefined identifier: %q", name)
}

// ResolveVersioned implements syntax.Env: it resolves a composite
// type reference against the already discovered definitions,
// building the referenced definition recursively.
func (b *typeBuilder) ResolveVersioned(name []string, major, minor int, hasVersion bool) (values.Any, error) {
	fullName := strings.Join(name, types.NameSeparator)
	if len(name) == 1 {
		// A relative reference: the referred type lives in the
		// namespace of the referring definition.
		fullName = b.def.FullNamespace() + types.NameSeparator + fullName
		log.Debugf("relative reference %q reconstructed as %q", name[0], fullName)
	}
	t, err := b.s.resolve(fullName, major, minor, hasVersion)
	if err != nil {
		return nil, err
	}
	composite, ok := t.(*types.Composite)
	if !ok {
		return nil, errors.Errorf(errors.Semantic,
			"%s is a service type; service types cannot be referenced as data types", t)
	}
	if composite.Deprecated() && !b.deprecated {
		b.warnDeprecated(composite)
	}
	return composite, nil
}

// warnDeprecated reports a dependency of a non-deprecated definition
// on a deprecated type. The diagnostic always goes through the print
// handler; with strict deprecation checking, checkDeprecation also
// turns such a dependency into an error at finalization time.
func (b *typeBuilder) warnDeprecated(dep *types.Composite) {
	b.s.print(b.def.FilePath(), b.currentLine,
		"the referenced type "+dep.String()+" is deprecated; "+
			"a type cannot depend on deprecated types unless it is also deprecated")
}

// resolveType constructs the serializable type denoted by a type
// expression.
func (b *typeBuilder) resolveType(te *syntax.TypeExpr) (types.Serializable, error) {
	mode := types.Saturated
	if te.Cast == "truncated" {
		mode = types.Truncated
	}
	castExplicit := te.Cast != ""

	var scalar types.Serializable
	if len(te.Names) == 1 && !te.HasVersion {
		t, isPrimitive, err := types.FromName(te.Names[0], mode, castExplicit)
		if err != nil {
			return nil, err
		}
		if isPrimitive {
			scalar = t
		}
	}
	if scalar == nil {
		if castExplicit {
			return nil, errors.Errorf(errors.Semantic,
				"cast modes are not applicable to composite types")
		}
		v, err := b.ResolveVersioned(te.Names, te.Major, te.Minor, te.HasVersion)
		if err != nil {
			return nil, err
		}
		scalar = v.(*types.Composite)
	}

	if te.Array == nil {
		if err := checkElementUse(scalar, false, false); err != nil {
			return nil, err
		}
		return scalar, nil
	}
	capacity, err := b.arrayCapacity(te.Array)
	if err != nil {
		return nil, err
	}
	if err := checkElementUse(scalar, true, te.Array.Kind != syntax.FixedArray); err != nil {
		return nil, err
	}
	switch te.Array.Kind {
	case syntax.FixedArray:
		return types.NewFixedArray(scalar, capacity)
	case syntax.VariableExclusive:
		if capacity < 2 {
			return nil, errors.Errorf(errors.TypeParameter, "array capacity cannot be less than 1")
		}
		return types.NewVariableArray(scalar, capacity-1)
	default:
		return types.NewVariableArray(scalar, capacity)
	}
}

// checkElementUse enforces the aggregation restrictions of the byte
// and utf8 element types.
func checkElementUse(t types.Serializable, inArray, variable bool) error {
	switch t.(type) {
	case *types.Byte:
		if !inArray {
			return errors.Errorf(errors.Semantic,
				"the byte type can only be used as an array element type")
		}
	case *types.UTF8:
		if !inArray || !variable {
			return errors.Errorf(errors.Semantic,
				"the utf8 type can only be used as a variable-length array element type")
		}
	}
	return nil
}

func (b *typeBuilder) arrayCapacity(a *syntax.ArrayExpr) (uint64, error) {
	v, err := a.Capacity.Eval(b)
	if err != nil {
		return 0, err
	}
	r, ok := v.(values.Rational)
	if !ok {
		return 0, errors.Errorf(errors.InvalidOperand,
			"the array capacity expression must yield a rational, not %s", v.TypeName())
	}
	n, err := r.Uint64()
	if err != nil {
		return 0, err
	}
	return n, nil
}

// finalize seals the definition into its final type and applies the
// whole-definition checks: port ID regulation and deprecation
// consistency.
func (b *typeBuilder) finalize() (types.Type, error) {
	portID := -1
	if id, ok := b.def.FixedPortID(); ok {
		portID = id
	}
	var out types.Type
	if len(b.sections) == 1 {
		sec := b.sections[0]
		t, err := types.NewComposite(types.CompositeParams{
			Name:        b.def.FullName(),
			Version:     b.def.Version(),
			Attributes:  sec.attrs,
			Union:       sec.union,
			Deprecated:  b.deprecated,
			FixedPortID: portID,
			Sealed:      sec.sealed,
			Extent:      sec.extent,
			HasExtent:   sec.hasExtent,
			SourceFile:  b.def.FilePath(),
		})
		if err != nil {
			return nil, err
		}
		out = t
	} else {
		section := func(sec *sectionBuilder) types.SectionParams {
			return types.SectionParams{
				Attributes: sec.attrs,
				Union:      sec.union,
				Sealed:     sec.sealed,
				Extent:     sec.extent,
				HasExtent:  sec.hasExtent,
			}
		}
		t, err := types.NewService(types.ServiceParams{
			Name:        b.def.FullName(),
			Version:     b.def.Version(),
			Request:     section(b.sections[0]),
			Response:    section(b.sections[1]),
			Deprecated:  b.deprecated,
			FixedPortID: portID,
			SourceFile:  b.def.FilePath(),
		})
		if err != nil {
			return nil, err
		}
		out = t
	}

	if err := b.checkPortID(out); err != nil {
		return nil, err
	}
	if err := b.checkDeprecation(out); err != nil {
		return nil, err
	}
	return out, nil
}

func (b *typeBuilder) checkPortID(t types.Type) error {
	id, ok := t.FixedPortID()
	if !ok || b.s.opts.AllowUnregulatedFixedPortID {
		return nil
	}
	_, isService := t.(*types.Service)
	valid := types.IsValidRegulatedSubjectID(id, t.RootNamespace())
	kind := "message"
	if isService {
		valid = types.IsValidRegulatedServiceID(id, t.RootNamespace())
		kind = "service"
	}
	if !valid {
		return errors.Errorf(errors.PortID,
			"regulated port ID %d for %s type %s is not valid; "+
				"consider using the unregulated fixed port ID option", id, kind, t.FullName())
	}
	return nil
}

// checkDeprecation enforces the strict-deprecation option: with it
// set, a non-deprecated definition depending on a deprecated type is
// an error rather than a diagnostic.
func (b *typeBuilder) checkDeprecation(t types.Type) error {
	if b.deprecated || !b.s.opts.StrictDeprecation {
		return nil
	}
	var sections []*types.Composite
	switch t := t.(type) {
	case *types.Composite:
		sections = append(sections, t)
	case *types.Service:
		sections = append(sections, t.RequestType(), t.ResponseType())
	}
	for _, sec := range sections {
		for _, a := range sec.Attributes() {
			dep := a.DataType()
			if arr, ok := dep.(types.Array); ok {
				dep = arr.ElementType()
			}
			if c, ok := dep.(*types.Composite); ok && c.Deprecated() {
				return errors.Errorf(errors.Deprecation,
					"a type cannot depend on deprecated types unless it is also deprecated: %s", c)
			}
		}
	}
	return nil
}
