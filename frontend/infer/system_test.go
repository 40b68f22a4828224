package infer

import (
	"fmt"
	"testing"

	"github.com/nacre-lang/nacre/frontend/diag"
	"github.com/nacre-lang/nacre/frontend/ir"
	"github.com/nacre-lang/nacre/frontend/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisjunctionPreservesOrderAndLocator(t *testing.T) {
	cs := NewConstraintSystem(nil)
	loc := testLocator(cs)
	tv := &types.TypeVar{ID: 1}

	c1 := cs.NewConstraint(KindBind, tv, intTy(), loc)
	c2 := cs.NewConstraint(KindBind, tv, stringTy(), loc)
	c3 := cs.NewConstraint(KindBind, tv, &types.NamedType{Name: "Float"}, loc)

	d := cs.CreateDisjunction([]*Constraint{c1, c2, c3}, loc)
	assert.Equal(t, KindDisjunction, d.Kind())
	assert.Equal(t, ClassificationDisjunction, d.Classification())
	assert.Equal(t, []*Constraint{c1, c2, c3}, d.NestedConstraints())
	assert.Same(t, loc, d.Locator())
}

func TestConjunctionKindAndOrder(t *testing.T) {
	cs := NewConstraintSystem(nil)
	loc := testLocator(cs)

	c1 := cs.NewConstraint(KindSubtype, intTy(), stringTy(), loc)
	c2 := cs.NewConstraint(KindConversion, stringTy(), intTy(), loc)

	conj := cs.CreateConjunction([]*Constraint{c1, c2}, loc)
	assert.Equal(t, KindConjunction, conj.Kind())
	assert.Equal(t, []*Constraint{c1, c2}, conj.NestedConstraints())
}

func TestAggregateFlattening(t *testing.T) {
	cs := NewConstraintSystem(nil)
	loc := testLocator(cs)
	tv := &types.TypeVar{ID: 1}

	a := cs.NewConstraint(KindBind, tv, intTy(), loc)
	b := cs.NewConstraint(KindBind, tv, stringTy(), loc)
	c := cs.NewConstraint(KindBind, tv, &types.NamedType{Name: "Float"}, loc)

	inner := cs.CreateDisjunction([]*Constraint{a, b}, loc)
	outer := cs.CreateDisjunction([]*Constraint{inner, c}, loc)
	assert.Equal(t, []*Constraint{a, b, c}, outer.NestedConstraints())

	// a conjunction child of a disjunction is kept as-is
	conj := cs.CreateConjunction([]*Constraint{a, b}, loc)
	mixed := cs.CreateDisjunction([]*Constraint{conj, c}, loc)
	assert.Equal(t, []*Constraint{conj, c}, mixed.NestedConstraints())
}

func TestAggregateSingletonCollapses(t *testing.T) {
	cs := NewConstraintSystem(nil)
	loc := testLocator(cs)

	only := cs.NewConstraint(KindBind, &types.TypeVar{ID: 1}, intTy(), loc)
	assert.Same(t, only, cs.CreateDisjunction([]*Constraint{only}, loc))
	assert.Same(t, only, cs.CreateConjunction([]*Constraint{only}, loc))
}

func TestEmptyAggregateIsContractViolation(t *testing.T) {
	cs := NewConstraintSystem(nil)
	loc := testLocator(cs)
	assertContractViolation(t, func() { cs.CreateDisjunction(nil, loc) })
	assertContractViolation(t, func() { cs.CreateConjunction([]*Constraint{}, loc) })
}

func TestLocatorInterning(t *testing.T) {
	cs := NewConstraintSystem(nil)

	l1 := cs.LocatorFor(ir.RangeAt(10, 5), "call argument")
	l2 := cs.LocatorFor(ir.RangeAt(10, 5), "call argument")
	l3 := cs.LocatorFor(ir.RangeAt(10, 5), "call result")
	assert.Same(t, l1, l2)
	assert.NotSame(t, l1, l3)
	assert.Equal(t, "call argument@10-15", l1.String())
}

func TestArenaAddressesStableAcrossChunks(t *testing.T) {
	cs := NewConstraintSystem(nil)
	loc := testLocator(cs)

	n := constraintChunkSize*2 + constraintChunkSize/2
	nodes := make([]*Constraint, 0, n)
	for i := 0; i < n; i++ {
		tv := &types.TypeVar{ID: i}
		nodes = append(nodes, cs.NewConstraint(KindBind, tv, intTy(), loc))
	}
	require.Equal(t, n, cs.Size())

	for i, c := range nodes {
		tv, ok := c.FirstType().(*types.TypeVar)
		require.True(t, ok)
		assert.Equal(t, i, tv.ID, "node %d should still hold its payload", i)
	}
}

func TestReleaseIsNoOp(t *testing.T) {
	cs := NewConstraintSystem(nil)
	loc := testLocator(cs)

	c := cs.NewConstraint(KindBind, &types.TypeVar{ID: 1}, intTy(), loc)
	cs.Release(c)
	// the node stays readable; the arena reclaims it with the session
	assert.Equal(t, KindBind, c.Kind())
	assert.Equal(t, "Int", c.SecondType().String())
}

func TestForeignConstraintRejected(t *testing.T) {
	home := NewConstraintSystem(nil)
	away := NewConstraintSystem(nil)
	homeLoc := testLocator(home)
	awayLoc := testLocator(away)

	foreign := away.NewConstraint(KindBind, &types.TypeVar{ID: 1}, intTy(), awayLoc)
	local := home.NewConstraint(KindBind, &types.TypeVar{ID: 1}, stringTy(), homeLoc)

	require.Nil(t, home.CheckOwned(local))
	err := home.CheckOwned(foreign)
	require.NotNil(t, err)
	assert.Equal(t, diag.ForeignConstraint, err.Code())

	assertContractViolation(t, func() {
		home.CreateDisjunction([]*Constraint{local, foreign}, homeLoc)
	})
}

func TestSystemTypeVariables(t *testing.T) {
	cs := NewConstraintSystem(nil)
	loc := testLocator(cs)

	a := cs.NewConstraint(KindBind, &types.TypeVar{ID: 1}, &types.TypeVar{ID: 2}, loc)
	b := cs.NewConstraint(KindConformsTo, &types.TypeVar{ID: 2}, &types.ProtocolType{Name: "Equatable"}, loc)
	cs.CreateConjunction([]*Constraint{a, b}, loc)
	cs.NewOverloadConstraint(&types.TypeVar{ID: 3},
		types.OverloadChoice{Kind: types.ChoiceDecl, Base: intTy(), Name: "min"}, loc)

	vars := cs.TypeVariables()
	assert.Equal(t, 3, vars.Size())
}

func TestSystemTypesMentioned(t *testing.T) {
	cs := NewConstraintSystem(nil)
	loc := testLocator(cs)
	tv := &types.TypeVar{ID: 1}

	cs.NewConstraint(KindBind, tv, intTy(), loc)
	cs.NewConstraint(KindBind, tv, intTy(), loc)
	cs.NewConstraint(KindSubtype, tv, stringTy(), loc)

	terms := cs.TypesMentioned()
	assert.Equal(t, 3, terms.Len()) // α1, Int, String
	assert.True(t, terms.Contains(intTy()))
	assert.True(t, terms.Contains(tv))
}

func TestDistinctConstraints(t *testing.T) {
	cs := NewConstraintSystem(nil)
	loc := testLocator(cs)
	tv := &types.TypeVar{ID: 1}

	cs.NewConstraint(KindBind, tv, intTy(), loc)
	cs.NewConstraint(KindBind, tv, intTy(), loc) // same fact, new node
	cs.NewConstraint(KindBind, tv, stringTy(), loc)

	assert.Equal(t, 3, cs.Size())
	assert.Equal(t, 2, cs.DistinctConstraints())
}

func TestSessionDiagnostics(t *testing.T) {
	cs := NewConstraintSystem(nil)
	assert.Empty(t, cs.Diagnostics())

	res := ResolverFunc(func(r ir.Range) (string, error) {
		return "", fmt.Errorf("no source for %v", r)
	})
	_, err := ResolveLocator(res, testLocator(cs))
	require.NotNil(t, err)

	cs.ReportDiag(err)
	require.Len(t, cs.Diagnostics(), 1)
	assert.Equal(t, diag.UnresolvedLocation, cs.Diagnostics()[0].Code())
}
