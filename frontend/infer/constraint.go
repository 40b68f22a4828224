// Package infer holds the constraint representation used by the
// constraint-based type checker: one uniformly-typed node per unit of
// typing knowledge, owned by a session-scoped ConstraintSystem arena and
// traversed by the solver.
package infer

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"

	set "github.com/hashicorp/go-set/v3"
	"github.com/nacre-lang/nacre/frontend/types"
)

// ConstraintKind describes the kind of constraint placed on one or more
// types.
type ConstraintKind uint8

const (
	_ ConstraintKind = iota
	// KindBind requires the two types to be bound to the same type. It is
	// the only truly symmetric kind.
	KindBind
	// KindEqual requires the two types to be bound to the same type,
	// dropping lvalueness of the first type before comparing.
	KindEqual
	// KindTrivialSubtype requires the first type to be a subtype of the
	// second with the same in-memory representation.
	KindTrivialSubtype
	// KindSubtype requires the first type to be a subtype of the second.
	KindSubtype
	// KindConversion requires the first type to be convertible to the
	// second.
	KindConversion
	// KindConstruction requires the first type to be convertible to the
	// second, or usable as an argument to one of its constructors.
	KindConstruction
	// KindConformsTo requires the first type to conform to the second,
	// which must name a protocol.
	KindConformsTo
	// KindApplicableFunction requires both function types to share input
	// and output types, ignoring function attributes.
	KindApplicableFunction
	// KindBindOverload binds the first type to a particular overload
	// choice.
	KindBindOverload
	// KindValueMember requires the first type to have a member with the
	// given name whose type, referenced as a value, is the second type.
	KindValueMember
	// KindTypeMember requires the first type to have a type member with
	// the given name whose type, referenced as a type, is the second type.
	KindTypeMember
	// KindArchetype requires the first type to be an archetype.
	KindArchetype
	// KindClass requires the first type to be a class, or an archetype of
	// a class-bound protocol.
	KindClass
	// KindDynamicLookupValue requires the first type to be a dynamic
	// lookup value, or an implicit lvalue thereof.
	KindDynamicLookupValue
	// KindConjunction requires all of the nested constraints to hold.
	KindConjunction
	// KindDisjunction requires at least one of the nested constraints to
	// hold.
	KindDisjunction
)

func (k ConstraintKind) String() string {
	switch k {
	case KindBind:
		return "bind"
	case KindEqual:
		return "equal"
	case KindTrivialSubtype:
		return "trivial subtype"
	case KindSubtype:
		return "subtype"
	case KindConversion:
		return "conversion"
	case KindConstruction:
		return "construction"
	case KindConformsTo:
		return "conforms to"
	case KindApplicableFunction:
		return "applicable function"
	case KindBindOverload:
		return "bind overload"
	case KindValueMember:
		return "value member"
	case KindTypeMember:
		return "type member"
	case KindArchetype:
		return "archetype"
	case KindClass:
		return "class"
	case KindDynamicLookupValue:
		return "dynamic lookup value"
	case KindConjunction:
		return "conjunction"
	case KindDisjunction:
		return "disjunction"
	default:
		return "invalid"
	}
}

// ConstraintClassification groups kinds into the coarser categories the
// solver dispatches on.
type ConstraintClassification uint8

const (
	_ ConstraintClassification = iota
	// ClassificationRelational relates two types.
	ClassificationRelational
	// ClassificationMember names a member of a type and assigns it a type.
	ClassificationMember
	// ClassificationTypeProperty asserts a property of a single type.
	ClassificationTypeProperty
	// ClassificationConjunction is a conjunction constraint.
	ClassificationConjunction
	// ClassificationDisjunction is a disjunction constraint.
	ClassificationDisjunction
)

func (c ConstraintClassification) String() string {
	switch c {
	case ClassificationRelational:
		return "relational"
	case ClassificationMember:
		return "member"
	case ClassificationTypeProperty:
		return "type property"
	case ClassificationConjunction:
		return "conjunction"
	case ClassificationDisjunction:
		return "disjunction"
	default:
		return "invalid"
	}
}

// Classify maps every kind to its classification. An unknown kind is a
// construction defect and panics.
func Classify(kind ConstraintKind) ConstraintClassification {
	switch kind {
	case KindBind,
		KindEqual,
		KindTrivialSubtype,
		KindSubtype,
		KindConversion,
		KindConstruction,
		KindConformsTo,
		KindApplicableFunction,
		KindBindOverload:
		return ClassificationRelational

	case KindValueMember, KindTypeMember:
		return ClassificationMember

	case KindArchetype, KindClass, KindDynamicLookupValue:
		return ClassificationTypeProperty

	case KindConjunction:
		return ClassificationDisjunction

	case KindDisjunction:
		return ClassificationDisjunction
	}
	panic(fmt.Sprintf("unknown constraint kind %d", kind))
}

// HasMember reports whether constraints of the given kind carry a member
// name.
func HasMember(kind ConstraintKind) bool {
	return kind == KindValueMember || kind == KindTypeMember
}

// ContractViolation is the panic payload raised when a constraint is
// built or read in a way its kind does not support. It always indicates
// a bug in the calling solver, never a recoverable runtime condition.
type ContractViolation struct {
	Op   string
	Kind ConstraintKind
}

func (v ContractViolation) Error() string {
	return fmt.Sprintf("constraint contract violation: %s on %q constraint", v.Op, v.Kind)
}

func contractCheck(ok bool, op string, kind ConstraintKind) {
	if !ok {
		panic(ContractViolation{Op: op, Kind: kind})
	}
}

// Constraint is one assertion the type checker must satisfy about one or
// more type terms. The kind fully determines which payload fields are
// populated; accessors for a payload the kind does not carry panic with
// ContractViolation. A node never changes after construction.
//
// Constraints are only built through their owning ConstraintSystem, which
// keeps every node of a session in one arena.
type Constraint struct {
	kind ConstraintKind

	// relational, member and type-property payload. second is unset for
	// pure type-property kinds, member only set for member kinds.
	// KindBindOverload stores its bound type in first as well.
	first  types.Type
	second types.Type
	member types.Identifier

	// aggregate payload: a borrowed view into arena-owned children,
	// in solver-visible order
	nested []*Constraint

	// overload payload
	choice types.OverloadChoice

	locator *ConstraintLocator

	owner *ConstraintSystem
}

// Kind returns the constraint's tag
func (c *Constraint) Kind() ConstraintKind { return c.kind }

// Classification returns the broader category of this constraint
func (c *Constraint) Classification() ConstraintClassification {
	return Classify(c.kind)
}

// FirstType returns the left-hand type of the constraint. For overload
// binding constraints this is the type being bound.
func (c *Constraint) FirstType() types.Type {
	contractCheck(c.kind != KindConjunction && c.kind != KindDisjunction,
		"FirstType", c.kind)
	return c.first
}

// SecondType returns the right-hand type of the constraint
func (c *Constraint) SecondType() types.Type {
	contractCheck(c.kind != KindConjunction && c.kind != KindDisjunction &&
		c.kind != KindBindOverload,
		"SecondType", c.kind)
	return c.second
}

// Protocol returns the protocol a conformance constraint requires.
// The second type must resolve to a protocol reference.
func (c *Constraint) Protocol() *types.ProtocolType {
	contractCheck(c.kind == KindConformsTo, "Protocol", c.kind)
	proto, ok := c.second.(*types.ProtocolType)
	contractCheck(ok, "Protocol: second type is not a protocol", c.kind)
	return proto
}

// Member returns the member name of a member constraint
func (c *Constraint) Member() types.Identifier {
	contractCheck(HasMember(c.kind), "Member", c.kind)
	return c.member
}

// NestedConstraints returns the children of a conjunction or disjunction,
// in the order the solver must try them. The slice is a borrowed view and
// must not be mutated.
func (c *Constraint) NestedConstraints() []*Constraint {
	contractCheck(c.kind == KindConjunction || c.kind == KindDisjunction,
		"NestedConstraints", c.kind)
	return c.nested
}

// OverloadChoice returns the candidate bound by an overload-binding
// constraint
func (c *Constraint) OverloadChoice() types.OverloadChoice {
	contractCheck(c.kind == KindBindOverload, "OverloadChoice", c.kind)
	return c.choice
}

// Locator returns the locator tying this constraint back to the
// expression that produced it. Always present.
func (c *Constraint) Locator() *ConstraintLocator { return c.locator }

// Hash folds the constraint's full payload, so equal assertions at the
// same source position hash alike regardless of node identity
func (c *Constraint) Hash() uint64 {
	h := fnv.New64a()
	var buf [8]byte
	u64 := func(v uint64) {
		binary.LittleEndian.PutUint64(buf[:], v)
		h.Write(buf[:])
	}
	h.Write([]byte{byte(c.kind)})
	switch c.kind {
	case KindConjunction, KindDisjunction:
		for _, child := range c.nested {
			u64(child.Hash())
		}
	case KindBindOverload:
		u64(c.first.Hash())
		u64(c.choice.Hash())
	default:
		u64(c.first.Hash())
		if c.second != nil {
			u64(c.second.Hash())
		}
		h.Write([]byte(c.member))
	}
	if c.locator != nil {
		u64(uint64(c.locator.anchor.PosStart))
		u64(uint64(c.locator.anchor.PosEnd))
		h.Write([]byte(c.locator.summary))
	}
	return h.Sum64()
}

// collectTypeVars gathers the type variables this constraint mentions,
// recursing through aggregates
func (c *Constraint) collectTypeVars(vars *set.HashSet[*types.TypeVar, uint64]) {
	switch c.kind {
	case KindConjunction, KindDisjunction:
		for _, child := range c.nested {
			child.collectTypeVars(vars)
		}
	case KindBindOverload:
		types.CollectTypeVars(c.first, vars)
		if c.choice.Base != nil {
			types.CollectTypeVars(c.choice.Base, vars)
		}
	default:
		types.CollectTypeVars(c.first, vars)
		if c.second != nil {
			types.CollectTypeVars(c.second, vars)
		}
	}
}

// TypeVariables collects the distinct type variables mentioned by this
// constraint, including through nested constraints
func (c *Constraint) TypeVariables() *set.HashSet[*types.TypeVar, uint64] {
	vars := set.NewHashSet[*types.TypeVar, uint64](0)
	c.collectTypeVars(vars)
	return vars
}
