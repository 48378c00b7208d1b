// Copyright 2020 Meridian Acoustics, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package types

import (
	"math/big"
	"strings"
	"testing"

	"github.com/meridian-acoustics/dsdl/errors"
	"github.com/meridian-acoustics/dsdl/values"
)

func u(t *testing.T, bits uint64, mode CastMode) *UnsignedInt {
	t.Helper()
	out, err := NewUnsignedInt(bits, mode)
	if err != nil {
		t.Fatal(err)
	}
	return out
}

func i(t *testing.T, bits uint64) *SignedInt {
	t.Helper()
	out, err := NewSignedInt(bits, Saturated)
	if err != nil {
		t.Fatal(err)
	}
	return out
}

func field(t *testing.T, typ Serializable, name string) *Field {
	t.Helper()
	f, err := NewField(typ, name)
	if err != nil {
		t.Fatal(err)
	}
	return f
}

func TestPrimitiveStrings(t *testing.T) {
	for _, c := range []struct {
		typ  Serializable
		want string
	}{
		{&Bool{}, "bool"},
		{NewByte(), "byte"},
		{NewUTF8(), "utf8"},
		{u(t, 8, Saturated), "saturated uint8"},
		{u(t, 15, Truncated), "truncated uint15"},
		{i(t, 15), "saturated int15"},
	} {
		if got := c.typ.String(); got != c.want {
			t.Errorf("String = %q, want %q", got, c.want)
		}
	}
	f, err := NewFloat(64, Saturated)
	if err != nil {
		t.Fatal(err)
	}
	if f.String() != "saturated float64" {
		t.Errorf("String = %q", f)
	}
}

func TestPrimitiveLimits(t *testing.T) {
	if _, err := NewUnsignedInt(0, Saturated); !errors.Is(errors.TypeParameter, err) {
		t.Errorf("uint0: %v", err)
	}
	if _, err := NewUnsignedInt(65, Saturated); !errors.Is(errors.TypeParameter, err) {
		t.Errorf("uint65: %v", err)
	}
	if _, err := NewSignedInt(1, Saturated); !errors.Is(errors.TypeParameter, err) {
		t.Errorf("int1: %v", err)
	}
	if _, err := NewSignedInt(8, Truncated); !errors.Is(errors.TypeParameter, err) {
		t.Errorf("truncated int: %v", err)
	}
	if _, err := NewBool(Truncated); !errors.Is(errors.TypeParameter, err) {
		t.Errorf("truncated bool: %v", err)
	}
	if _, err := NewFloat(8, Saturated); !errors.Is(errors.TypeParameter, err) {
		t.Errorf("float8: %v", err)
	}
	if _, err := NewVoid(65); !errors.Is(errors.TypeParameter, err) {
		t.Errorf("void65: %v", err)
	}
}

func TestValueRanges(t *testing.T) {
	min, max := u(t, 8, Saturated).ValueRange()
	if min.Cmp(new(big.Rat)) != 0 || max.Cmp(big.NewRat(255, 1)) != 0 {
		t.Errorf("uint8 range = %s..%s", min, max)
	}
	min, max = i(t, 8).ValueRange()
	if min.Cmp(big.NewRat(-128, 1)) != 0 || max.Cmp(big.NewRat(127, 1)) != 0 {
		t.Errorf("int8 range = %s..%s", min, max)
	}
	f, _ := NewFloat(16, Saturated)
	min, max = f.ValueRange()
	if max.Cmp(big.NewRat(65504, 1)) != 0 || min.Cmp(big.NewRat(-65504, 1)) != 0 {
		t.Errorf("float16 range = %s..%s", min, max)
	}
}

func TestStandardBitLength(t *testing.T) {
	for bits := uint64(2); bits <= 64; bits++ {
		got := StandardBitLength(u(t, bits, Saturated))
		want := bits == 8 || bits == 16 || bits == 32 || bits == 64
		if got != want {
			t.Errorf("standard(%d) = %v", bits, got)
		}
	}
}

func TestFromName(t *testing.T) {
	typ, ok, err := FromName("uint8", Saturated, false)
	if !ok || err != nil {
		t.Fatalf("uint8: %v %v", ok, err)
	}
	if typ.String() != "saturated uint8" {
		t.Errorf("uint8 = %s", typ)
	}
	if _, ok, _ := FromName("Heartbeat", Saturated, false); ok {
		t.Error("composite name classified as primitive")
	}
	// A leading zero is not a valid bit length suffix, so the name
	// falls through to composite resolution.
	if _, ok, _ := FromName("uint08", Saturated, false); ok {
		t.Error("uint08 classified as primitive")
	}
	if _, ok, err := FromName("void8", Saturated, true); !ok || !errors.Is(errors.TypeParameter, err) {
		t.Errorf("cast mode on void: %v %v", ok, err)
	}
	if _, ok, err := FromName("byte", Truncated, true); !ok || !errors.Is(errors.TypeParameter, err) {
		t.Errorf("cast mode on byte: %v %v", ok, err)
	}
	typ, ok, err = FromName("void13", Saturated, false)
	if !ok || err != nil {
		t.Fatalf("void13: %v %v", ok, err)
	}
	if typ.(*Void).BitLength() != 13 {
		t.Errorf("void13 = %s", typ)
	}
}

func TestCheckName(t *testing.T) {
	for _, good := range []string{"abc", "abc_", "abc0", "A9_f"} {
		if err := CheckName(good); err != nil {
			t.Errorf("%q rejected: %v", good, err)
		}
	}
	for _, bad := range []string{
		"", "0abc", "_abc_", "a-bc", "truncated", "COM1", "Aux",
		"float128", "q16_8", "uq1_32", "int", "void",
		strings.Repeat("a", 51),
	} {
		if err := CheckName(bad); !errors.Is(errors.Naming, err) {
			t.Errorf("%q accepted: %v", bad, err)
		}
	}
}

func TestArrays(t *testing.T) {
	tu8 := u(t, 8, Truncated)
	fixed, err := NewFixedArray(tu8, 4)
	if err != nil {
		t.Fatal(err)
	}
	if fixed.String() != "truncated uint8[4]" {
		t.Errorf("String = %q", fixed)
	}
	if got := fixed.BitLengthSet().Elements(); len(got) != 1 || got[0] != 32 {
		t.Errorf("set = %v", got)
	}

	variable, err := NewVariableArray(tu8, 3)
	if err != nil {
		t.Fatal(err)
	}
	if variable.String() != "truncated uint8[<=3]" {
		t.Errorf("String = %q", variable)
	}
	want := []uint64{2, 10, 18, 26}
	got := variable.BitLengthSet().Elements()
	for k := range want {
		if got[k] != want[k] {
			t.Fatalf("set = %v", got)
		}
	}
	if variable.LengthFieldType().BitLength() != 2 {
		t.Errorf("length tag = %d", variable.LengthFieldType().BitLength())
	}
	if !variable.StringLike() {
		t.Error("uint8[<=3] not string-like")
	}

	if _, err := NewFixedArray(tu8, 0); !errors.Is(errors.TypeParameter, err) {
		t.Errorf("capacity 0: %v", err)
	}
	void, _ := NewVoid(8)
	if _, err := NewFixedArray(void, 2); !errors.Is(errors.TypeParameter, err) {
		t.Errorf("void array: %v", err)
	}
	if _, err := NewFixedArray(NewUTF8(), 2); !errors.Is(errors.TypeParameter, err) {
		t.Errorf("fixed utf8 array: %v", err)
	}
}

func TestNestedArraySets(t *testing.T) {
	tu8 := u(t, 8, Truncated)
	small, err := NewVariableArray(tu8, 2)
	if err != nil {
		t.Fatal(err)
	}
	outer, err := NewFixedArray(small, 2)
	if err != nil {
		t.Fatal(err)
	}
	want := []uint64{4, 12, 20, 28, 36}
	got := outer.BitLengthSet().Elements()
	if len(got) != len(want) {
		t.Fatalf("set = %v", got)
	}
	for k := range want {
		if got[k] != want[k] {
			t.Fatalf("set = %v", got)
		}
	}
}

func newStruct(t *testing.T, name string, attrs []Attribute) (*Composite, error) {
	t.Helper()
	return NewComposite(CompositeParams{
		Name:        name,
		Version:     Version{Major: 1, Minor: 0},
		Attributes:  attrs,
		FixedPortID: -1,
	})
}

func TestCompositeNames(t *testing.T) {
	c, err := newStruct(t, "root.nested.T", nil)
	if err != nil {
		t.Fatal(err)
	}
	if c.FullName() != "root.nested.T" || c.ShortName() != "T" ||
		c.FullNamespace() != "root.nested" || c.RootNamespace() != "root" {
		t.Errorf("name accessors wrong: %s", c)
	}
	if c.String() != "root.nested.T.1.0" {
		t.Errorf("String = %s", c)
	}
	for _, bad := range []string{"", "T", "ns..T", ".ns.T", "ns.0T", "ns.n-s.T"} {
		if _, err := newStruct(t, bad, nil); !errors.Is(errors.Naming, err) {
			t.Errorf("%q accepted: %v", bad, err)
		}
	}
}

func TestCompositeVersions(t *testing.T) {
	for _, bad := range []Version{{0, 0}, {256, 0}, {-1, 1}, {1, 256}} {
		_, err := NewComposite(CompositeParams{Name: "a.A", Version: bad, FixedPortID: -1})
		if !errors.Is(errors.Version, err) {
			t.Errorf("%v accepted: %v", bad, err)
		}
	}
	if _, err := NewComposite(CompositeParams{Name: "a.A", Version: Version{0, 1}, FixedPortID: -1}); err != nil {
		t.Errorf("0.1 rejected: %v", err)
	}
}

func TestEmptyStructBitLength(t *testing.T) {
	c, err := newStruct(t, "a.A", nil)
	if err != nil {
		t.Fatal(err)
	}
	if got := c.BitLengthSet().Elements(); len(got) != 1 || got[0] != 0 {
		t.Errorf("empty struct set = %v", got)
	}
}

func TestStructComposition(t *testing.T) {
	void8, _ := NewVoid(8)
	c, err := newStruct(t, "a.A", []Attribute{
		NewPadding(void8),
		field(t, u(t, 16, Truncated), "a"),
		field(t, i(t, 16), "b"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if got := c.BitLengthSet().Elements(); len(got) != 1 || got[0] != 40 {
		t.Errorf("set = %v", got)
	}
	if len(c.Fields()) != 3 || len(c.FieldsExceptPadding()) != 2 {
		t.Error("field filtering wrong")
	}
	if _, ok := c.Lookup("a"); !ok {
		t.Error("lookup failed")
	}
	if _, ok := c.Lookup(""); ok {
		t.Error("padding reachable by lookup")
	}
}

func TestUnionComposition(t *testing.T) {
	mk := func(n int) (*Composite, error) {
		var attrs []Attribute
		for k := 0; k < n; k++ {
			attrs = append(attrs, field(t, u(t, 16, Truncated), "_f"+string(rune('a'+k))))
		}
		return NewComposite(CompositeParams{
			Name:        "a.A",
			Version:     Version{1, 0},
			Attributes:  attrs,
			Union:       true,
			FixedPortID: -1,
		})
	}
	if _, err := mk(1); !errors.Is(errors.Semantic, err) {
		t.Errorf("single-variant union: %v", err)
	}
	c, err := mk(2)
	if err != nil {
		t.Fatal(err)
	}
	if got := c.BitLengthSet().Elements(); len(got) != 1 || got[0] != 17 {
		t.Errorf("set = %v", got)
	}
	c, err = mk(3)
	if err != nil {
		t.Fatal(err)
	}
	if c.TagFieldType().BitLength() != 2 {
		t.Errorf("tag of 3-variant union = %d", c.TagFieldType().BitLength())
	}

	void8, _ := NewVoid(8)
	_, err = NewComposite(CompositeParams{
		Name:    "a.A",
		Version: Version{1, 0},
		Attributes: []Attribute{
			field(t, u(t, 16, Truncated), "x"),
			field(t, i(t, 16), "y"),
			NewPadding(void8),
		},
		Union:       true,
		FixedPortID: -1,
	})
	if !errors.Is(errors.Semantic, err) {
		t.Errorf("padded union: %v", err)
	}
}

func TestAttributeNameRules(t *testing.T) {
	_, err := newStruct(t, "a.A", []Attribute{
		field(t, u(t, 8, Saturated), "x"),
		field(t, u(t, 8, Saturated), "x"),
	})
	if !errors.Is(errors.Naming, err) {
		t.Errorf("duplicate name: %v", err)
	}
	_, err = newStruct(t, "a.A", []Attribute{field(t, u(t, 8, Saturated), "A")})
	if !errors.Is(errors.Naming, err) {
		t.Errorf("short-name attribute: %v", err)
	}
	void8, _ := NewVoid(8)
	if _, err := NewField(void8, "named"); !errors.Is(errors.Naming, err) {
		t.Errorf("named void field: %v", err)
	}
}

func TestConstants(t *testing.T) {
	c, err := NewConstant(i(t, 32), "FOO_CONST", values.NewInt(-123))
	if err != nil {
		t.Fatal(err)
	}
	if c.String() != "saturated int32 FOO_CONST = -123" {
		t.Errorf("String = %q", c)
	}

	if _, err := NewConstant(u(t, 8, Saturated), "X", values.NewInt(256)); !errors.Is(errors.InvalidOperand, err) {
		t.Errorf("out of range: %v", err)
	}
	if _, err := NewConstant(u(t, 8, Saturated), "X", values.NewRational(big.NewRat(1, 2))); !errors.Is(errors.Constant, err) {
		t.Errorf("fractional integer: %v", err)
	}
	if _, err := NewConstant(&Bool{}, "X", values.NewInt(1)); !errors.Is(errors.Constant, err) {
		t.Errorf("rational bool: %v", err)
	}
	b, err := NewConstant(&Bool{}, "X", values.Boolean(true))
	if err != nil {
		t.Fatal(err)
	}
	if b.Value().String() != "true" {
		t.Errorf("value = %s", b.Value())
	}

	ch, err := NewConstant(u(t, 8, Saturated), "CH", values.String("A"))
	if err != nil {
		t.Fatal(err)
	}
	if ch.Value().String() != "65" {
		t.Errorf("character constant = %s", ch.Value())
	}
	if _, err := NewConstant(u(t, 8, Saturated), "CH", values.String("AB")); !errors.Is(errors.Constant, err) {
		t.Errorf("two-character constant: %v", err)
	}
	if _, err := NewConstant(u(t, 16, Saturated), "CH", values.String("A")); !errors.Is(errors.Constant, err) {
		t.Errorf("character on uint16: %v", err)
	}

	f, _ := NewFloat(32, Saturated)
	if _, err := NewConstant(f, "F", values.NewRational(big.NewRat(1, 3))); err != nil {
		t.Errorf("fractional float constant rejected: %v", err)
	}
	void8, _ := NewVoid(8)
	if _, err := NewConstant(void8, "V", values.NewInt(0)); !errors.Is(errors.Constant, err) {
		t.Errorf("void constant: %v", err)
	}
}

func TestExtent(t *testing.T) {
	attrs := []Attribute{field(t, u(t, 32, Saturated), "x")}
	c, err := NewComposite(CompositeParams{
		Name: "a.A", Version: Version{1, 0}, Attributes: attrs,
		FixedPortID: -1, Extent: 64, HasExtent: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	if c.Sealed() || c.Extent() != 64 {
		t.Errorf("extent = %v/%d", c.Sealed(), c.Extent())
	}
	_, err = NewComposite(CompositeParams{
		Name: "a.A", Version: Version{1, 0}, Attributes: attrs,
		FixedPortID: -1, Extent: 30, HasExtent: true,
	})
	if !errors.Is(errors.Directive, err) {
		t.Errorf("unaligned extent: %v", err)
	}
	_, err = NewComposite(CompositeParams{
		Name: "a.A", Version: Version{1, 0}, Attributes: attrs,
		FixedPortID: -1, Extent: 8, HasExtent: true,
	})
	if !errors.Is(errors.Directive, err) {
		t.Errorf("small extent: %v", err)
	}
}

func TestBitCompatibility(t *testing.T) {
	mk := func(extent uint64, hasExtent bool, bits uint64) *Composite {
		c, err := NewComposite(CompositeParams{
			Name: "a.A", Version: Version{1, 0},
			Attributes:  []Attribute{field(t, u(t, bits, Saturated), "x")},
			FixedPortID: -1, Extent: extent, HasExtent: hasExtent,
		})
		if err != nil {
			t.Fatal(err)
		}
		return c
	}
	if !mk(0, false, 8).IsBitCompatibleWith(mk(0, false, 8)) {
		t.Error("identical types incompatible")
	}
	if mk(0, false, 8).IsBitCompatibleWith(mk(0, false, 16)) {
		t.Error("different lengths compatible")
	}
	if mk(16, true, 8).IsBitCompatibleWith(mk(24, true, 8)) {
		t.Error("different extents compatible")
	}
}

func TestServiceType(t *testing.T) {
	s, err := NewService(ServiceParams{
		Name:    "a.Get",
		Version: Version{1, 0},
		Request: SectionParams{Attributes: []Attribute{
			field(t, u(t, 8, Saturated), "key"),
		}},
		Response: SectionParams{Attributes: []Attribute{
			field(t, u(t, 16, Saturated), "value"),
		}},
		FixedPortID: -1,
	})
	if err != nil {
		t.Fatal(err)
	}
	if s.RequestType().FullName() != "a.Get.Request" || s.ResponseType().FullName() != "a.Get.Response" {
		t.Errorf("section names: %s / %s", s.RequestType(), s.ResponseType())
	}
	if s.RequestType().ParentService() != s || s.ResponseType().ParentService() != s {
		t.Error("parent links broken")
	}
	if got := s.ResponseType().BitLengthSet().Elements(); len(got) != 1 || got[0] != 16 {
		t.Errorf("response set = %v", got)
	}
	if _, err := NewService(ServiceParams{
		Name: "a.Get", Version: Version{1, 0}, FixedPortID: 512,
	}); !errors.Is(errors.PortID, err) {
		t.Errorf("service ID 512: %v", err)
	}
}

func TestSubjectIDCap(t *testing.T) {
	_, err := NewComposite(CompositeParams{
		Name: "a.A", Version: Version{1, 0}, FixedPortID: MaxSubjectID + 1,
	})
	if !errors.Is(errors.PortID, err) {
		t.Errorf("subject ID cap: %v", err)
	}
}

func TestRegulatedRanges(t *testing.T) {
	if !IsValidRegulatedSubjectID(29000, "sirius_cybernetics_corp") {
		t.Error("vendor subject 29000 rejected")
	}
	if IsValidRegulatedSubjectID(29000, "uavcan") {
		t.Error("standard subject 29000 accepted")
	}
	if !IsValidRegulatedSubjectID(32000, "uavcan") {
		t.Error("standard subject 32000 rejected")
	}
	if IsValidRegulatedSubjectID(30000, "uavcan") || IsValidRegulatedSubjectID(30000, "x") {
		t.Error("subject 30000 accepted")
	}
	if !IsValidRegulatedServiceID(260, "x") || IsValidRegulatedServiceID(260, "uavcan") {
		t.Error("service 260 misclassified")
	}
	if !IsValidRegulatedServiceID(400, "uavcan") || IsValidRegulatedServiceID(400, "x") {
		t.Error("service 400 misclassified")
	}
}

func TestTypeAsValue(t *testing.T) {
	c, err := NewComposite(CompositeParams{
		Name: "a.Mode", Version: Version{1, 0},
		Attributes: []Attribute{
			mustConstant(t, u(t, 8, Saturated), "OPERATIONAL", values.NewInt(7)),
			field(t, u(t, 8, Saturated), "value"),
		},
		FixedPortID: -1,
	})
	if err != nil {
		t.Fatal(err)
	}
	v, err := c.Attribute("OPERATIONAL")
	if err != nil {
		t.Fatal(err)
	}
	if v.String() != "7" {
		t.Errorf("constant = %s", v)
	}
	if _, err := c.Attribute("MISSING"); !errors.Is(errors.UndefinedAttribute, err) {
		t.Errorf("missing constant: %v", err)
	}
	bl, err := c.Attribute("_bit_length_")
	if err != nil {
		t.Fatal(err)
	}
	if bl.String() != "{8}" {
		t.Errorf("_bit_length_ = %s", bl)
	}
	eq, err := values.Equal(c, c)
	if err != nil {
		t.Fatal(err)
	}
	if !bool(eq.(values.Boolean)) {
		t.Error("type not equal to itself")
	}
}

func mustConstant(t *testing.T, typ Serializable, name string, v values.Any) *Constant {
	t.Helper()
	c, err := NewConstant(typ, name, v)
	if err != nil {
		t.Fatal(err)
	}
	return c
}
