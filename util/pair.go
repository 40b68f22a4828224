package util

// Pair is a generic 2-tuple. When both sides are comparable it can be
// used directly as a map key.
type Pair[A, B any] struct {
	Fst A
	Snd B
}

func NewPair[A, B any](fst A, snd B) Pair[A, B] {
	return Pair[A, B]{
		Fst: fst,
		Snd: snd,
	}
}
