package types

import (
	"encoding/binary"
	"fmt"
	"go/token"
	"hash"
	"hash/fnv"
	"iter"
	"slices"
	"strings"

	"github.com/nacre-lang/nacre/frontend/ir"
	"github.com/nacre-lang/nacre/util"
	"github.com/nacre-lang/nacre/util/hset"
)

type TypeName = string

// Identifier is an interned member name, used to name a field or member
// of a type in member constraints
type Identifier string

func (id Identifier) String() string { return string(id) }

// TypeProvenance tracks the origin and description of type terms
type TypeProvenance struct {
	Range ir.Range
	Desc  string
}

var EmptyProv = TypeProvenance{}

func (tp TypeProvenance) Pos() token.Pos { return tp.Range.Pos() }
func (tp TypeProvenance) End() token.Pos { return tp.Range.End() }
func (tp TypeProvenance) String() string { return tp.Desc }
func (tp TypeProvenance) IsKnown() bool  { return tp.Range.IsValid() }

// Type is an opaque, immutable term standing for a position in the type
// system. It may mention unresolved type variables. Terms are consumed,
// never interpreted, by the constraint layer: the solver gives them
// meaning.
//
// The term set is closed: all implementations live in this package.
type Type interface {
	fmt.Stringer
	Hash() uint64
	Prov() TypeProvenance

	children() iter.Seq[Type]
}

// Equal can be used to compare type terms for equality.
// Terms hash their full structure, so hash equality is term equality.
func Equal(this, other Type) bool {
	return this.Hash() == other.Hash()
}

// TypeVar is a numbered inference variable awaiting resolution by the
// solver
type TypeVar struct {
	ID         int
	Provenance TypeProvenance
}

func (t *TypeVar) String() string       { return fmt.Sprintf("α%d", t.ID) }
func (t *TypeVar) Prov() TypeProvenance { return t.Provenance }
func (t *TypeVar) Hash() uint64 {
	return newTermHash(tagTypeVar).u64(uint64(t.ID)).sum()
}
func (t *TypeVar) children() iter.Seq[Type] { return emptySeq }

// NamedType is a nominal type, possibly applied to type arguments
type NamedType struct {
	Name       TypeName
	Args       []Type
	Provenance TypeProvenance
}

func (t *NamedType) String() string {
	if len(t.Args) == 0 {
		return t.Name
	}
	return t.Name + "[" + joinTerms(t.Args, ", ") + "]"
}
func (t *NamedType) Prov() TypeProvenance { return t.Provenance }
func (t *NamedType) Hash() uint64 {
	h := newTermHash(tagNamed).str(t.Name)
	for _, arg := range t.Args {
		h.u64(arg.Hash())
	}
	return h.sum()
}
func (t *NamedType) children() iter.Seq[Type] { return slices.Values(t.Args) }

// ProtocolType names a protocol. It is what the second type of a
// conformance constraint must resolve to.
type ProtocolType struct {
	Name       TypeName
	Provenance TypeProvenance
}

func (t *ProtocolType) String() string       { return t.Name }
func (t *ProtocolType) Prov() TypeProvenance { return t.Provenance }
func (t *ProtocolType) Hash() uint64 {
	return newTermHash(tagProtocol).str(t.Name).sum()
}
func (t *ProtocolType) children() iter.Seq[Type] { return emptySeq }

// FuncType is a function term with positional parameters
type FuncType struct {
	Params     []Type
	Return     Type
	Provenance TypeProvenance
}

func (t *FuncType) String() string {
	return "(" + joinTerms(t.Params, ", ") + ") -> " + t.Return.String()
}
func (t *FuncType) Prov() TypeProvenance { return t.Provenance }
func (t *FuncType) Hash() uint64 {
	h := newTermHash(tagFunc)
	for _, p := range t.Params {
		h.u64(p.Hash())
	}
	// separator so ((A) -> B) hashes apart from ((A, B) -> ...)
	return h.u64(0).u64(t.Return.Hash()).sum()
}
func (t *FuncType) children() iter.Seq[Type] {
	return util.ConcatIter(slices.Values(t.Params), util.SingleIter(t.Return))
}

// TupleType is a positional aggregate of terms
type TupleType struct {
	Elems      []Type
	Provenance TypeProvenance
}

func (t *TupleType) String() string       { return "(" + joinTerms(t.Elems, ", ") + ")" }
func (t *TupleType) Prov() TypeProvenance { return t.Provenance }
func (t *TupleType) Hash() uint64 {
	h := newTermHash(tagTuple)
	for _, e := range t.Elems {
		h.u64(e.Hash())
	}
	return h.sum()
}
func (t *TupleType) children() iter.Seq[Type] { return slices.Values(t.Elems) }

// LValueType wraps a term with addressability. Equality constraints drop
// this wrapper on their left side; the wrapper itself carries no other
// meaning here.
type LValueType struct {
	Obj        Type
	Provenance TypeProvenance
}

func (t *LValueType) String() string       { return "@lvalue " + t.Obj.String() }
func (t *LValueType) Prov() TypeProvenance { return t.Provenance }
func (t *LValueType) Hash() uint64 {
	return newTermHash(tagLValue).u64(t.Obj.Hash()).sum()
}
func (t *LValueType) children() iter.Seq[Type] { return util.SingleIter(t.Obj) }

// VisitTerms walks t and every term it contains, preorder
func VisitTerms(t Type, visit func(Type)) {
	visit(t)
	for child := range t.children() {
		VisitTerms(child, visit)
	}
}

// TermHasher hashes terms for use in hset sets
type TermHasher struct{}

func (TermHasher) Hash(t Type) uint32   { return uint32(t.Hash()) }
func (TermHasher) Equal(a, b Type) bool { return Equal(a, b) }

// NewTermSet builds a hashable set of type terms
func NewTermSet(elems ...Type) hset.HSet[Type] {
	return hset.New[Type](TermHasher{}, elems...)
}

func joinTerms(ts []Type, sep string) string {
	sb := strings.Builder{}
	for i, t := range ts {
		if i > 0 {
			sb.WriteString(sep)
		}
		sb.WriteString(t.String())
	}
	return sb.String()
}

const (
	tagTypeVar byte = iota + 1
	tagNamed
	tagProtocol
	tagFunc
	tagTuple
	tagLValue
)

var emptySeq iter.Seq[Type] = func(yield func(Type) bool) {}

type termHash struct {
	h hash.Hash64
}

func newTermHash(tag byte) *termHash {
	h := fnv.New64a()
	h.Write([]byte{tag})
	return &termHash{h: h}
}

func (t *termHash) str(s string) *termHash {
	t.h.Write([]byte(s))
	return t
}

func (t *termHash) u64(v uint64) *termHash {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	t.h.Write(buf[:])
	return t
}

func (t *termHash) sum() uint64 { return t.h.Sum64() }
