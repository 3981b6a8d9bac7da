package util

import "math"

// 1/n! for the odd Maclaurin terms used by sinQuadrant
var (
	invFact3 = 1.0 / 6.0
	invFact5 = 1.0 / 120.0
	invFact7 = 1.0 / 5040.0
	invFact9 = 1.0 / 362880.0
)

// sinQuadrant evaluates the Maclaurin series of sin up to x^9. Only valid
// on [0, π/2].
func sinQuadrant(x float64) float64 {
	x2 := x * x
	x3 := x2 * x
	x5 := x3 * x2
	x7 := x5 * x2
	x9 := x7 * x2
	return x - invFact3*x3 + invFact5*x5 - invFact7*x7 + invFact9*x9
}

// Sin approximates sin(x) for x in radians. The argument is reduced to
// [0, 2π), the upper half is folded onto [0, π) with a sign flip and the
// second quadrant is mirrored onto the first. Accuracy is about 1e-5, good
// enough for colour cycling.
func Sin(x float64) float64 {
	x = math.Mod(x, 2*math.Pi)
	if x < 0 {
		x += 2 * math.Pi
	}
	sign := 1.0
	if x > math.Pi {
		x -= math.Pi
		sign = -1.0
	}
	if x > math.Pi/2 {
		x = math.Pi - x
	}
	return sign * sinQuadrant(x)
}

// FibonacciWrapped yields the Fibonacci sequence with uint8 wrap-around,
// starting from (0, 1).
type FibonacciWrapped struct {
	num1 uint8
	num2 uint8
}

func NewFibonacciWrapped() *FibonacciWrapped {
	return &FibonacciWrapped{num1: 0, num2: 1}
}

// Next advances the sequence and returns the new term.
func (f *FibonacciWrapped) Next() uint8 {
	next := f.num1 + f.num2
	f.num1 = f.num2
	f.num2 = next
	return next
}
