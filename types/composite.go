// Copyright 2020 Meridian Acoustics, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package types

import (
	"fmt"
	"math/bits"
	"strings"

	"github.com/meridian-acoustics/dsdl/errors"
	"github.com/meridian-acoustics/dsdl/lengthset"
	"github.com/meridian-acoustics/dsdl/values"
)

// MaxVersionNumber bounds the major and minor version components.
const MaxVersionNumber = 255

// Version is the two-component version of a composite type.
type Version struct {
	Major, Minor int
}

func (v Version) String() string { return fmt.Sprintf("%d.%d", v.Major, v.Minor) }

func checkVersion(v Version) error {
	ok := v.Major >= 0 && v.Major <= MaxVersionNumber &&
		v.Minor >= 0 && v.Minor <= MaxVersionNumber &&
		v.Major+v.Minor > 0
	if !ok {
		return errors.Errorf(errors.Version, "invalid version numbers: %s", v)
	}
	return nil
}

// MinUnionVariants is the smallest number of fields a tagged union
// may have.
const MinUnionVariants = 2

// CompositeParams carries the inputs of NewComposite.
type CompositeParams struct {
	// Name is the full dot-separated type name.
	Name    string
	Version Version
	// Attributes in declaration order.
	Attributes []Attribute
	// Union selects the tagged-union structure kind.
	Union      bool
	Deprecated bool
	// FixedPortID is negative when no fixed port ID is assigned.
	FixedPortID int
	// Sealed marks an explicitly sealed definition.
	Sealed bool
	// Extent is the declared extent in bits; meaningful only when
	// HasExtent is set. Sealed and HasExtent are mutually exclusive.
	Extent    uint64
	HasExtent bool
	// SourceFile is the definition file path; empty for synthesized
	// types.
	SourceFile string

	parentService *Service
}

// Composite is a user-defined record type: a structure or a tagged
// union. Composites are immutable; the bit length set is computed at
// construction time.
type Composite struct {
	name          string
	version       Version
	attributes    []Attribute
	union         bool
	deprecated    bool
	fixedPortID   int
	sealed        bool
	extent        uint64
	sourceFile    string
	parentService *Service
	tagField      *UnsignedInt
	bls           lengthset.Set
}

// NewComposite constructs and seals a composite type, enforcing the
// structural invariants: name and version validity, attribute name
// uniqueness, union well-formedness, and the extent rules.
func NewComposite(p CompositeParams) (*Composite, error) {
	t := &Composite{
		name:          strings.TrimSpace(p.Name),
		version:       p.Version,
		attributes:    append([]Attribute(nil), p.Attributes...),
		union:         p.Union,
		deprecated:    p.Deprecated,
		fixedPortID:   p.FixedPortID,
		sealed:        !p.HasExtent,
		sourceFile:    p.SourceFile,
		parentService: p.parentService,
	}
	if t.fixedPortID < 0 {
		t.fixedPortID = -1
	}
	if t.fixedPortID > MaxSubjectID {
		return nil, errors.Errorf(errors.PortID, "fixed subject ID %d is not valid", t.fixedPortID)
	}
	if err := t.checkName(); err != nil {
		return nil, err
	}
	if err := checkVersion(t.version); err != nil {
		return nil, err
	}
	if err := t.checkAttributes(); err != nil {
		return nil, err
	}
	if t.union {
		if err := t.initUnion(); err != nil {
			return nil, err
		}
	}
	t.bls = t.computeBitLengthSet()
	if p.Sealed && p.HasExtent {
		return nil, errors.Errorf(errors.Directive, "sealed types cannot have an extent")
	}
	if p.HasExtent {
		if p.Extent%BitsPerByte != 0 {
			return nil, errors.Errorf(errors.Directive,
				"the extent must be a multiple of %d bits, got %d", BitsPerByte, p.Extent)
		}
		if p.Extent < t.bls.Max() {
			return nil, errors.Errorf(errors.Directive,
				"the extent %d bits is smaller than the largest serialized representation of %d bits",
				p.Extent, t.bls.Max())
		}
		t.extent = p.Extent
	} else {
		t.extent = t.bls.Max()
	}
	return t, nil
}

func (t *Composite) checkName() error {
	if t.name == "" {
		return errors.Errorf(errors.Naming, "composite type name cannot be empty")
	}
	if !strings.Contains(t.name, NameSeparator) {
		return errors.Errorf(errors.Naming, "root namespace is not specified in %q", t.name)
	}
	if len(t.name) > MaxFullNameLength {
		return errors.Errorf(errors.Naming, "name is too long: %q is longer than %d characters",
			t.name, MaxFullNameLength)
	}
	for _, component := range strings.Split(t.name, NameSeparator) {
		if err := CheckName(component); err != nil {
			return err
		}
	}
	return nil
}

func (t *Composite) checkAttributes() error {
	used := map[string]bool{}
	for _, a := range t.attributes {
		name := a.Name()
		if name == "" {
			continue
		}
		if used[name] {
			return errors.Errorf(errors.Naming, "multiple attributes under the same name: %q", name)
		}
		if name == t.ShortName() {
			return errors.Errorf(errors.Naming,
				"attribute name %q is reserved: it is the short name of the type", name)
		}
		used[name] = true
	}
	return nil
}

func (t *Composite) initUnion() error {
	n := 0
	for _, a := range t.attributes {
		if _, ok := a.(*Padding); ok {
			return errors.Errorf(errors.Semantic, "padding fields are not allowed in unions")
		}
		if _, ok := a.(*Field); ok {
			n++
		}
	}
	if n < MinUnionVariants {
		return errors.Errorf(errors.Semantic,
			"a tagged union cannot contain fewer than %d variants", MinUnionVariants)
	}
	tag, err := NewUnsignedInt(uint64(bits.Len64(uint64(n-1))), Truncated)
	if err != nil {
		return err
	}
	t.tagField = tag
	return nil
}

func (t *Composite) computeBitLengthSet() lengthset.Set {
	fields := t.Fields()
	if t.union {
		sets := make([]lengthset.Set, len(fields))
		for i, f := range fields {
			sets[i] = f.DataType().BitLengthSet()
		}
		return lengthset.New(t.tagField.BitLength()).Concat(lengthset.Unite(sets...))
	}
	sets := make([]lengthset.Set, len(fields))
	for i, f := range fields {
		sets[i] = f.DataType().BitLengthSet()
	}
	return lengthset.Concatenate(sets...)
}

// FullName returns the full dot-separated name, e.g.
// "uavcan.node.Heartbeat".
func (t *Composite) FullName() string { return t.name }

// NameComponents returns the components of the full name.
func (t *Composite) NameComponents() []string {
	return strings.Split(t.name, NameSeparator)
}

// ShortName returns the last component of the full name.
func (t *Composite) ShortName() string {
	c := t.NameComponents()
	return c[len(c)-1]
}

// FullNamespace returns the full name without the short name.
func (t *Composite) FullNamespace() string {
	c := t.NameComponents()
	return strings.Join(c[:len(c)-1], NameSeparator)
}

// RootNamespace returns the first component of the full name.
func (t *Composite) RootNamespace() string { return t.NameComponents()[0] }

func (t *Composite) Version() Version { return t.version }

func (t *Composite) Deprecated() bool { return t.deprecated }

// IsUnion tells whether the composite is a tagged union rather than
// a structure.
func (t *Composite) IsUnion() bool { return t.union }

// Sealed tells whether the type is sealed (non-extensible). A type
// declared with an extent is delimited instead.
func (t *Composite) Sealed() bool { return t.sealed }

// Extent returns the extent in bits: the declared value for
// delimited types, the largest possible serialized length otherwise.
func (t *Composite) Extent() uint64 { return t.extent }

// Attributes returns all attributes in declaration order.
func (t *Composite) Attributes() []Attribute {
	return append([]Attribute(nil), t.attributes...)
}

// Fields returns the fields, including padding fields.
func (t *Composite) Fields() []*Field {
	var out []*Field
	for _, a := range t.attributes {
		switch f := a.(type) {
		case *Field:
			out = append(out, f)
		case *Padding:
			out = append(out, &Field{typ: f.typ})
		}
	}
	return out
}

// FieldsExceptPadding returns the named fields.
func (t *Composite) FieldsExceptPadding() []*Field {
	var out []*Field
	for _, a := range t.attributes {
		if f, ok := a.(*Field); ok {
			out = append(out, f)
		}
	}
	return out
}

// Constants returns the constants.
func (t *Composite) Constants() []*Constant {
	var out []*Constant
	for _, a := range t.attributes {
		if c, ok := a.(*Constant); ok {
			out = append(out, c)
		}
	}
	return out
}

// TagFieldType returns the best-matching unsigned integer type of
// the implicit union tag; it is nil for structures.
func (t *Composite) TagFieldType() *UnsignedInt { return t.tagField }

// FixedPortID returns the fixed port identifier, if assigned.
func (t *Composite) FixedPortID() (int, bool) {
	return t.fixedPortID, t.fixedPortID >= 0
}

func (t *Composite) SourceFile() string { return t.sourceFile }

// ParentService is non-nil for the synthesized request and response
// sections of a service type.
func (t *Composite) ParentService() *Service { return t.parentService }

// BitLengthSet implements Serializable. For unions the set is the
// tag concatenated with the union of the variants; for structures it
// is the concatenation of all field sets in declaration order.
func (t *Composite) BitLengthSet() lengthset.Set { return t.bls }

// IsBitCompatibleWith tells whether two definitions may share a
// major version: their bit length sets and extents must coincide.
func (t *Composite) IsBitCompatibleWith(other *Composite) bool {
	return t.extent == other.extent && t.bls.Equal(other.bls)
}

// Lookup returns the named attribute. Padding fields are not
// reachable through this interface.
func (t *Composite) Lookup(name string) (Attribute, bool) {
	for _, a := range t.attributes {
		if a.Name() != "" && a.Name() == name {
			return a, true
		}
	}
	return nil, false
}

func (t *Composite) TypeName() string { return metaTypeName }

// String renders the versioned full name, e.g.
// "uavcan.node.Heartbeat.1.0".
func (t *Composite) String() string {
	return fmt.Sprintf("%s.%s", t.name, t.version)
}

func (t *Composite) EqualValue(o values.Any) (bool, error) { return equalTypes(t, o) }

// Attribute resolves expression attribute access on the type: the
// type's constants by name, then the attributes common to all
// serializable types.
func (t *Composite) Attribute(name string) (values.Any, error) {
	for _, c := range t.Constants() {
		if c.Name() == name {
			return c.Value(), nil
		}
	}
	return typeAttribute(t, name)
}
