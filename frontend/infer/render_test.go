package infer

import (
	"go/token"
	"log/slog"
	"strings"
	"testing"

	"github.com/nacre-lang/nacre/frontend/diag"
	"github.com/nacre-lang/nacre/frontend/ir"
	"github.com/nacre-lang/nacre/frontend/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildNestedTree makes a conjunction of two disjunctions, each holding
// two bind leaves
func buildNestedTree(cs *ConstraintSystem) *Constraint {
	loc := testLocator(cs)
	tvA := &types.TypeVar{ID: 1}
	tvB := &types.TypeVar{ID: 2}

	d1 := cs.CreateDisjunction([]*Constraint{
		cs.NewConstraint(KindBind, tvA, &types.NamedType{Name: "Int"}, loc),
		cs.NewConstraint(KindBind, tvA, &types.NamedType{Name: "Float"}, loc),
	}, loc)
	d2 := cs.CreateDisjunction([]*Constraint{
		cs.NewConstraint(KindBind, tvB, &types.NamedType{Name: "String"}, loc),
		cs.NewConstraint(KindBind, tvB, &types.NamedType{Name: "Bool"}, loc),
	}, loc)
	return cs.CreateConjunction([]*Constraint{d1, d2}, loc)
}

func TestRenderNestedStructure(t *testing.T) {
	cs := NewConstraintSystem(nil)
	conj := buildNestedTree(cs)

	expected := strings.Join([]string{
		"conjunction:",
		"  disjunction:",
		"    bind: α1 := Int",
		"    bind: α1 := Float",
		"  disjunction:",
		"    bind: α2 := String",
		"    bind: α2 := Bool",
	}, "\n")
	assert.Equal(t, expected, conj.String())

	// byte-identical across renders
	assert.Equal(t, conj.String(), conj.String())

	sb := &strings.Builder{}
	conj.Render(sb, nil)
	assert.Equal(t, expected, sb.String())
}

func TestRenderLeafForms(t *testing.T) {
	cs := NewConstraintSystem(nil)
	loc := testLocator(cs)
	tv := &types.TypeVar{ID: 1}

	testCases := []struct {
		name     string
		input    *Constraint
		expected string
	}{
		{
			name:     "equal",
			input:    cs.NewConstraint(KindEqual, &types.LValueType{Obj: tv}, intTy(), loc),
			expected: "equal: @lvalue α1 == Int",
		},
		{
			name:     "trivial subtype",
			input:    cs.NewConstraint(KindTrivialSubtype, intTy(), stringTy(), loc),
			expected: "trivial subtype: Int <t String",
		},
		{
			name:     "subtype",
			input:    cs.NewConstraint(KindSubtype, intTy(), stringTy(), loc),
			expected: "subtype: Int < String",
		},
		{
			name:     "conversion",
			input:    cs.NewConstraint(KindConversion, intTy(), stringTy(), loc),
			expected: "conversion: Int <c String",
		},
		{
			name:     "construction",
			input:    cs.NewConstraint(KindConstruction, intTy(), stringTy(), loc),
			expected: "construction: Int <C String",
		},
		{
			name:     "conforms to",
			input:    cs.NewConstraint(KindConformsTo, tv, &types.ProtocolType{Name: "Equatable"}, loc),
			expected: "conforms to: α1 conforms to Equatable",
		},
		{
			name: "applicable function",
			input: cs.NewConstraint(KindApplicableFunction,
				&types.FuncType{Params: []types.Type{intTy()}, Return: stringTy()},
				&types.FuncType{Params: []types.Type{intTy()}, Return: stringTy()}, loc),
			expected: "applicable function: (Int) -> String ==Fn (Int) -> String",
		},
		{
			name: "bind overload",
			input: cs.NewOverloadConstraint(tv,
				types.OverloadChoice{Kind: types.ChoiceDecl, Base: intTy(), Name: "min"}, loc),
			expected: "bind overload: α1 bound to Int.min",
		},
		{
			name:     "value member",
			input:    cs.NewMemberConstraint(KindValueMember, intTy(), stringTy(), "description", loc),
			expected: "value member: Int[.description: value] == String",
		},
		{
			name:     "type member",
			input:    cs.NewMemberConstraint(KindTypeMember, intTy(), stringTy(), "Element", loc),
			expected: "type member: Int[.Element: type] == String",
		},
		{
			name:     "archetype",
			input:    cs.NewConstraint(KindArchetype, tv, nil, loc),
			expected: "archetype: α1 is an archetype",
		},
		{
			name:     "class",
			input:    cs.NewConstraint(KindClass, tv, nil, loc),
			expected: "class: α1 is a class",
		},
		{
			name:     "dynamic lookup value",
			input:    cs.NewConstraint(KindDynamicLookupValue, tv, nil, loc),
			expected: "dynamic lookup value: α1 is a dynamic lookup value",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.input.String())
		})
	}
}

func TestRenderWithResolver(t *testing.T) {
	fset := token.NewFileSet()
	file := fset.AddFile("main.nacre", -1, 100)
	anchor := ir.RangeAt(file.Pos(10), 3)

	cs := NewConstraintSystem(nil)
	loc := cs.LocatorFor(anchor, "binary operand")
	c := cs.NewConstraint(KindBind, &types.TypeVar{ID: 1}, intTy(), loc)

	sb := &strings.Builder{}
	c.Render(sb, FileSetResolver{Fset: fset})
	assert.Equal(t, "bind: α1 := Int @ main.nacre:1:11", sb.String())

	// without a resolver the position is omitted, not errored
	assert.Equal(t, "bind: α1 := Int", c.String())
}

func TestRenderResolverFailureFallsBack(t *testing.T) {
	cs := NewConstraintSystem(nil)
	c := cs.NewConstraint(KindBind, &types.TypeVar{ID: 1}, intTy(), testLocator(cs))

	sb := &strings.Builder{}
	c.Render(sb, FileSetResolver{Fset: token.NewFileSet()})
	assert.Equal(t, "bind: α1 := Int @ 10-15", sb.String())
}

func TestResolveLocator(t *testing.T) {
	fset := token.NewFileSet()
	file := fset.AddFile("main.nacre", -1, 100)

	cs := NewConstraintSystem(nil)
	good := cs.LocatorFor(ir.RangeAt(file.Pos(0), 1), "")
	pos, err := ResolveLocator(FileSetResolver{Fset: fset}, good)
	require.Nil(t, err)
	assert.Equal(t, "main.nacre:1:1", pos)

	bad := cs.LocatorFor(ir.Range{}, "")
	_, err = ResolveLocator(FileSetResolver{Fset: fset}, bad)
	require.NotNil(t, err)
	assert.Equal(t, diag.UnresolvedLocation, err.Code())
}

func TestConstraintLogValue(t *testing.T) {
	cs := NewConstraintSystem(nil)
	c := cs.NewConstraint(KindBind, &types.TypeVar{ID: 1}, intTy(), testLocator(cs))

	value := slogConstraint(c).LogValue()
	require.Equal(t, slog.KindGroup, value.Kind())

	attrs := map[string]string{}
	for _, attr := range value.Group() {
		attrs[attr.Key] = attr.Value.String()
	}
	assert.Equal(t, c.String(), attrs["str"])
	assert.Equal(t, "bind", attrs["kind"])
	assert.Equal(t, c.Locator().String(), attrs["loc"])
}
