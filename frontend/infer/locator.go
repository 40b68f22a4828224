package infer

import (
	"fmt"
	"go/token"

	"github.com/nacre-lang/nacre/frontend/diag"
	"github.com/nacre-lang/nacre/frontend/ir"
)

// ConstraintLocator ties a constraint back to the expression or
// sub-expression that produced it. Locators are interned by their owning
// ConstraintSystem, so constraints produced by the same source position
// and path share one handle and handles can be compared by identity.
type ConstraintLocator struct {
	anchor  ir.Range
	summary string
}

func (l *ConstraintLocator) Anchor() ir.Range { return l.anchor }

// Summary describes the path from the anchor expression to the exact
// position the constraint applies to. May be empty.
func (l *ConstraintLocator) Summary() string { return l.summary }

func (l *ConstraintLocator) Pos() token.Pos { return l.anchor.Pos() }
func (l *ConstraintLocator) End() token.Pos { return l.anchor.End() }

func (l *ConstraintLocator) String() string {
	if l.summary == "" {
		return l.anchor.String()
	}
	return fmt.Sprintf("%s@%s", l.summary, l.anchor)
}

// SourceResolver renders a source range as a human-readable position for
// diagnostics
type SourceResolver interface {
	ResolveRange(r ir.Range) (string, error)
}

// ResolverFunc adapts a plain function into a SourceResolver
type ResolverFunc func(r ir.Range) (string, error)

func (f ResolverFunc) ResolveRange(r ir.Range) (string, error) { return f(r) }

// FileSetResolver resolves ranges against a go/token file set
type FileSetResolver struct {
	Fset *token.FileSet
}

func (fr FileSetResolver) ResolveRange(r ir.Range) (string, error) {
	if fr.Fset == nil || !r.IsValid() {
		return "", fmt.Errorf("no source registered for position %v", r.Pos())
	}
	pos := fr.Fset.Position(r.Pos())
	if !pos.IsValid() {
		return "", fmt.Errorf("position %v is outside the file set", r.Pos())
	}
	return pos.String(), nil
}

// ResolveLocator resolves loc's anchor through res, wrapping failures as
// coded diagnostics the owning session can report
func ResolveLocator(res SourceResolver, loc *ConstraintLocator) (string, diag.Error) {
	s, err := res.ResolveRange(loc.anchor)
	if err != nil {
		return "", diag.New(diag.NewUnresolvedLocation{Positioner: loc.anchor, Cause: err})
	}
	return s, nil
}
