package infer

import (
	"fmt"
	"os"
	"strings"
)

// ConstraintString renders c without resolving source locations
func ConstraintString(c *Constraint) string {
	ctx := newRenderContext(nil)
	ctx.renderWalker(c)
	return ctx.String()
}

func (c *Constraint) String() string { return ConstraintString(c) }

// Render writes a deterministic, human-readable description of c to sb:
// the kind name, the printed operand types, the member name if any, and
// nested constraints indented one level per depth. Locator positions are
// resolved through resolver when one is given. Two renders of the same
// structure are byte-identical.
func (c *Constraint) Render(sb *strings.Builder, resolver SourceResolver) {
	ctx := newRenderContext(resolver)
	ctx.Builder = sb
	ctx.renderWalker(c)
}

// Dump prints c to standard error, for use from a debugger
func (c *Constraint) Dump(resolver SourceResolver) {
	sb := &strings.Builder{}
	c.Render(sb, resolver)
	fmt.Fprintln(os.Stderr, sb.String())
}

type renderContext struct {
	*strings.Builder
	indent    int
	indentStr string
	resolver  SourceResolver
}

func newRenderContext(resolver SourceResolver) *renderContext {
	return &renderContext{
		Builder:   &strings.Builder{},
		indentStr: "  ",
		resolver:  resolver,
	}
}

func (ctx *renderContext) currentIndent() string {
	return strings.Repeat(ctx.indentStr, ctx.indent)
}

// renderWalker prints to ctx
func (ctx *renderContext) renderWalker(c *Constraint) {
	if c == nil {
		ctx.WriteString("nil")
		return
	}

	if c.kind == KindConjunction || c.kind == KindDisjunction {
		ctx.WriteString(c.kind.String())
		ctx.writeLocation(c)
		ctx.WriteString(":")
		ctx.indent++
		for _, child := range c.nested {
			ctx.WriteString("\n" + ctx.currentIndent())
			ctx.renderWalker(child)
		}
		ctx.indent--
		return
	}

	ctx.WriteString(c.kind.String() + ": ")
	ctx.WriteString(c.first.String())
	switch c.kind {
	case KindBind:
		ctx.WriteString(" := " + c.second.String())
	case KindEqual:
		ctx.WriteString(" == " + c.second.String())
	case KindTrivialSubtype:
		ctx.WriteString(" <t " + c.second.String())
	case KindSubtype:
		ctx.WriteString(" < " + c.second.String())
	case KindConversion:
		ctx.WriteString(" <c " + c.second.String())
	case KindConstruction:
		ctx.WriteString(" <C " + c.second.String())
	case KindConformsTo:
		ctx.WriteString(" conforms to " + c.second.String())
	case KindApplicableFunction:
		ctx.WriteString(" ==Fn " + c.second.String())
	case KindBindOverload:
		ctx.WriteString(" bound to " + c.choice.String())
	case KindValueMember:
		ctx.WriteString(fmt.Sprintf("[.%s: value] == %s", c.member, c.second))
	case KindTypeMember:
		ctx.WriteString(fmt.Sprintf("[.%s: type] == %s", c.member, c.second))
	case KindArchetype:
		ctx.WriteString(" is an archetype")
	case KindClass:
		ctx.WriteString(" is a class")
	case KindDynamicLookupValue:
		ctx.WriteString(" is a dynamic lookup value")
	}
	ctx.writeLocation(c)
}

// writeLocation appends the resolved source position of c's locator, when
// a resolver is available. Resolution failures fall back to the raw range
// rather than failing the render.
func (ctx *renderContext) writeLocation(c *Constraint) {
	if ctx.resolver == nil || c.locator == nil {
		return
	}
	pos, err := ctx.resolver.ResolveRange(c.locator.anchor)
	if err != nil {
		pos = c.locator.anchor.String()
	}
	ctx.WriteString(" @ " + pos)
}
