package types

import "fmt"

type OverloadChoiceKind uint8

const (
	_ OverloadChoiceKind = iota
	// ChoiceDecl picks a declaration reachable through the base type
	ChoiceDecl
	// ChoiceDynamicMember picks a member found through dynamic lookup
	ChoiceDynamicMember
	// ChoiceTupleIndex picks a positional element of a tuple base
	ChoiceTupleIndex
)

func (k OverloadChoiceKind) String() string {
	switch k {
	case ChoiceDecl:
		return "decl"
	case ChoiceDynamicMember:
		return "dynamic member"
	case ChoiceTupleIndex:
		return "tuple element"
	default:
		return "invalid"
	}
}

// OverloadChoice describes one candidate binding a name could resolve to.
// The constraint layer stores and returns choices unchanged; scoring and
// selection belong to the solver.
type OverloadChoice struct {
	Kind OverloadChoiceKind
	Base Type
	// Name is set for declaration and dynamic member choices
	Name Identifier
	// Index is set for tuple element choices
	Index int
}

func (oc OverloadChoice) String() string {
	switch oc.Kind {
	case ChoiceDecl:
		return fmt.Sprintf("%s.%s", oc.Base, oc.Name)
	case ChoiceDynamicMember:
		return fmt.Sprintf("%s.%s (dynamic)", oc.Base, oc.Name)
	case ChoiceTupleIndex:
		return fmt.Sprintf("%s.%d", oc.Base, oc.Index)
	default:
		return "invalid choice"
	}
}

func (oc OverloadChoice) Hash() uint64 {
	h := newTermHash(byte(0x70 + oc.Kind)).str(string(oc.Name)).u64(uint64(oc.Index))
	if oc.Base != nil {
		h.u64(oc.Base.Hash())
	}
	return h.sum()
}
