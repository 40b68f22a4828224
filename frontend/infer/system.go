package infer

import (
	"iter"
	"log/slog"

	set "github.com/hashicorp/go-set/v3"
	"github.com/nacre-lang/nacre/frontend/diag"
	"github.com/nacre-lang/nacre/frontend/ir"
	"github.com/nacre-lang/nacre/frontend/types"
	ilog "github.com/nacre-lang/nacre/internal/log"
	"github.com/nacre-lang/nacre/util"
	"github.com/nacre-lang/nacre/util/hset"
)

// constraintChunkSize is the number of nodes each arena chunk holds
const constraintChunkSize = 256

// ConstraintSystem owns every constraint of one type-checking session.
// Nodes live in chunked arena storage: addresses stay stable while the
// arena grows, and the whole arena is dropped at once when the session
// becomes unreachable. Individual nodes are never freed; Release is a
// no-op by contract.
//
// A ConstraintSystem is not safe for concurrent construction. A
// completed session may be read from several goroutines, as nodes are
// immutable.
type ConstraintSystem struct {
	chunks [][]Constraint

	locators map[util.Pair[ir.Range, string]]*ConstraintLocator

	diags  *diag.Errors
	logger *slog.Logger

	allocated int
}

func NewConstraintSystem(logger *slog.Logger) *ConstraintSystem {
	if logger == nil {
		logger = ilog.DefaultLogger
	}
	logger = slog.New(InferSlogHandler(logger.Handler())).With(slog.String("section", "infer"))
	return &ConstraintSystem{
		locators: make(map[util.Pair[ir.Range, string]]*ConstraintLocator),
		logger:   logger,
	}
}

// alloc hands out one zeroed node from the arena. A new chunk is opened
// when the current one is full; chunks are never resized, so node
// addresses remain valid for the life of the session.
func (cs *ConstraintSystem) alloc() *Constraint {
	last := len(cs.chunks) - 1
	if last < 0 || len(cs.chunks[last]) == cap(cs.chunks[last]) {
		cs.chunks = append(cs.chunks, make([]Constraint, 0, constraintChunkSize))
		last++
	}
	cs.chunks[last] = append(cs.chunks[last], Constraint{owner: cs})
	cs.allocated++
	return &cs.chunks[last][len(cs.chunks[last])-1]
}

// Release makes the ownership contract explicit: nodes belong to the
// arena and are reclaimed in bulk at session teardown, so releasing a
// single node does nothing.
func (cs *ConstraintSystem) Release(*Constraint) {}

// Size returns the number of nodes the arena holds
func (cs *ConstraintSystem) Size() int { return cs.allocated }

// LocatorFor interns a locator for the given anchor and path summary
func (cs *ConstraintSystem) LocatorFor(anchor ir.Range, summary string) *ConstraintLocator {
	key := util.NewPair(anchor, summary)
	if loc, ok := cs.locators[key]; ok {
		return loc
	}
	loc := &ConstraintLocator{anchor: anchor, summary: summary}
	cs.locators[key] = loc
	return loc
}

// NewConstraint builds a relational, member-free constraint of the given
// kind. Aggregate, member and overload kinds have their own entry points
// and are rejected here.
func (cs *ConstraintSystem) NewConstraint(kind ConstraintKind, first, second types.Type, locator *ConstraintLocator) *Constraint {
	contractCheck(kind != KindConjunction && kind != KindDisjunction,
		"NewConstraint with aggregate kind", kind)
	contractCheck(kind != KindBindOverload, "NewConstraint with overload kind", kind)
	contractCheck(!HasMember(kind), "NewConstraint with member kind", kind)
	contractCheck(first != nil, "NewConstraint with nil first type", kind)
	contractCheck(locator != nil, "NewConstraint with nil locator", kind)

	c := cs.alloc()
	c.kind = kind
	c.first = first
	c.second = second
	c.locator = locator
	cs.logger.Debug("allocated constraint", slog.Any("constraint", c))
	return c
}

// NewMemberConstraint builds a value-member or type-member constraint
func (cs *ConstraintSystem) NewMemberConstraint(kind ConstraintKind, first, second types.Type, member types.Identifier, locator *ConstraintLocator) *Constraint {
	contractCheck(HasMember(kind), "NewMemberConstraint with non-member kind", kind)
	contractCheck(first != nil && second != nil, "NewMemberConstraint with nil type", kind)
	contractCheck(member != "", "NewMemberConstraint with empty member", kind)
	contractCheck(locator != nil, "NewMemberConstraint with nil locator", kind)

	c := cs.alloc()
	c.kind = kind
	c.first = first
	c.second = second
	c.member = member
	c.locator = locator
	cs.logger.Debug("allocated member constraint", slog.Any("constraint", c))
	return c
}

// NewOverloadConstraint builds a constraint binding first to the given
// overload choice
func (cs *ConstraintSystem) NewOverloadConstraint(first types.Type, choice types.OverloadChoice, locator *ConstraintLocator) *Constraint {
	contractCheck(first != nil, "NewOverloadConstraint with nil type", KindBindOverload)
	contractCheck(locator != nil, "NewOverloadConstraint with nil locator", KindBindOverload)

	c := cs.alloc()
	c.kind = KindBindOverload
	c.first = first
	c.choice = choice
	c.locator = locator
	cs.logger.Debug("allocated overload constraint", slog.Any("constraint", c))
	return c
}

// CreateConjunction builds a constraint requiring all of constraints to
// hold. Nested conjunctions are flattened into their parent and a single
// remaining constraint is returned unchanged.
func (cs *ConstraintSystem) CreateConjunction(constraints []*Constraint, locator *ConstraintLocator) *Constraint {
	return cs.createAggregate(KindConjunction, constraints, locator)
}

// CreateDisjunction builds a constraint requiring at least one of
// constraints to hold, tried in the given order. Nested disjunctions are
// flattened into their parent and a single remaining constraint is
// returned unchanged.
func (cs *ConstraintSystem) CreateDisjunction(constraints []*Constraint, locator *ConstraintLocator) *Constraint {
	return cs.createAggregate(KindDisjunction, constraints, locator)
}

func (cs *ConstraintSystem) createAggregate(kind ConstraintKind, constraints []*Constraint, locator *ConstraintLocator) *Constraint {
	contractCheck(len(constraints) > 0, "empty aggregate", kind)
	contractCheck(locator != nil, "aggregate with nil locator", kind)

	nested := make([]*Constraint, 0, len(constraints))
	for _, child := range constraints {
		contractCheck(child != nil, "aggregate with nil child", kind)
		if err := cs.CheckOwned(child); err != nil {
			panic(ContractViolation{Op: err.Error(), Kind: kind})
		}
		if child.kind == kind {
			nested = append(nested, child.nested...)
			continue
		}
		nested = append(nested, child)
	}
	if len(nested) == 1 {
		return nested[0]
	}

	c := cs.alloc()
	c.kind = kind
	c.nested = nested
	c.locator = locator
	cs.logger.Debug("allocated aggregate constraint",
		slog.Any("constraint", c), slog.Int("children", len(nested)))
	return c
}

// CheckOwned reports whether c was allocated by this session
func (cs *ConstraintSystem) CheckOwned(c *Constraint) diag.Error {
	if c.owner == cs {
		return nil
	}
	return diag.New(diag.NewForeignConstraint{Positioner: c.locator})
}

// Constraints iterates over every node of the session in allocation
// order, including aggregate children and nodes left unreferenced by
// factory flattening
func (cs *ConstraintSystem) Constraints() iter.Seq[*Constraint] {
	return func(yield func(*Constraint) bool) {
		for _, chunk := range cs.chunks {
			for i := range chunk {
				if !yield(&chunk[i]) {
					return
				}
			}
		}
	}
}

// TypeVariables collects the distinct type variables mentioned anywhere
// in the session
func (cs *ConstraintSystem) TypeVariables() *set.HashSet[*types.TypeVar, uint64] {
	vars := set.NewHashSet[*types.TypeVar, uint64](0)
	for c := range cs.Constraints() {
		if c.kind == KindConjunction || c.kind == KindDisjunction {
			// children are arena nodes and get visited on their own
			continue
		}
		c.collectTypeVars(vars)
	}
	return vars
}

// TypesMentioned returns the distinct type terms appearing on either
// side of any constraint in the session
func (cs *ConstraintSystem) TypesMentioned() hset.HSet[types.Type] {
	terms := types.NewTermSet()
	for c := range cs.Constraints() {
		switch c.kind {
		case KindConjunction, KindDisjunction:
		case KindBindOverload:
			terms.Add(c.first)
		default:
			terms.Add(c.first)
			if c.second != nil {
				terms.Add(c.second)
			}
		}
	}
	return terms
}

// DistinctConstraints counts nodes asserting distinct facts, folding
// duplicates by payload hash
func (cs *ConstraintSystem) DistinctConstraints() int {
	seen := set.NewHashSet[*Constraint, uint64](cs.allocated)
	for c := range cs.Constraints() {
		seen.Insert(c)
	}
	return seen.Size()
}

// ReportDiag records diagnostics against this session. The session is
// where unsolvable constraints become user-facing reports; the
// constraint layer itself never produces them.
func (cs *ConstraintSystem) ReportDiag(errs ...diag.Error) {
	cs.diags = cs.diags.With(errs...)
	if cs.diags.HasError() {
		cs.logger.Warn("session diagnostics recorded", slog.Any("diags", cs.diags))
	}
}

// Diagnostics returns the diagnostics recorded so far, in order
func (cs *ConstraintSystem) Diagnostics() []diag.Error {
	return cs.diags.Errors()
}
