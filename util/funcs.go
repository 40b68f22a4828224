package util

import (
	"iter"
)

func ConcatIter[A any](iters ...iter.Seq[A]) iter.Seq[A] {
	return func(yield func(A) bool) {
		for _, thisIter := range iters {
			for v := range thisIter {
				if !yield(v) {
					return
				}
			}
		}
	}
}

func SingleIter[A any](elem A) iter.Seq[A] {
	return func(yield func(A) bool) {
		yield(elem)
	}
}
