package types

import (
	set "github.com/hashicorp/go-set/v3"
)

// TypeVarsIn collects the distinct type variables mentioned anywhere
// inside t. Variables with the same ID collapse to one entry.
func TypeVarsIn(t Type) *set.HashSet[*TypeVar, uint64] {
	vars := set.NewHashSet[*TypeVar, uint64](0)
	CollectTypeVars(t, vars)
	return vars
}

// CollectTypeVars inserts every type variable mentioned in t into vars
func CollectTypeVars(t Type, vars *set.HashSet[*TypeVar, uint64]) {
	VisitTerms(t, func(term Type) {
		if tv, ok := term.(*TypeVar); ok {
			vars.Insert(tv)
		}
	})
}
