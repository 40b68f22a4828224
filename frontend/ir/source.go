package ir

import (
	"fmt"
	"go/token"
)

// Positioner allows finding the location in the original source file.
// The easiest way to be a Positioner is to embed a Range
type Positioner interface {
	Pos() token.Pos // position of first character belonging to the node
	End() token.Pos // position of first character immediately after the node
}

// Range is a half-open span of source positions
type Range struct {
	PosStart token.Pos
	PosEnd   token.Pos
}

func (r Range) Pos() token.Pos { return r.PosStart }
func (r Range) End() token.Pos { return r.PosEnd }

func (r Range) String() string {
	if r.PosStart == r.PosEnd {
		return fmt.Sprintf("%v", r.PosStart)
	}
	return fmt.Sprintf("%v-%v", r.PosStart, r.PosEnd)
}

func (r Range) IsValid() bool {
	return r.PosStart.IsValid()
}

func RangeBetween(fst, snd Positioner) Range {
	return Range{fst.Pos(), snd.End()}
}

// RangeOf normalises any Positioner into a Range
func RangeOf(p Positioner) Range {
	if p == nil {
		return Range{token.NoPos, token.NoPos}
	}
	return Range{p.Pos(), p.End()}
}

// RangeAt is a single-position Range spanning length characters
func RangeAt(pos token.Pos, length int) Range {
	return Range{pos, pos + token.Pos(length)}
}
