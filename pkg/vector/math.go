package vector

import (
	"fmt"
	"math"
)

// Norm returns the Euclidean norm of v. The sum is accumulated in float64 so
// 768-dimension vectors do not lose precision.
func Norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		f := float64(x)
		sum += f * f
	}
	return math.Sqrt(sum)
}

// Dot returns the inner product of a and b. Both must have the same length.
func Dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

// Normalize returns a copy of v rescaled to unit Euclidean norm.
// A zero, NaN or infinite norm yields ErrDegenerateVector.
func Normalize(v []float32) ([]float32, error) {
	if len(v) == 0 {
		return nil, fmt.Errorf("empty vector: %w", ErrDegenerateVector)
	}

	norm := Norm(v)
	if norm == 0 || math.IsNaN(norm) || math.IsInf(norm, 0) {
		return nil, fmt.Errorf("norm is %v: %w", norm, ErrDegenerateVector)
	}

	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out, nil
}

// IsNormalized reports whether v has a Euclidean norm within tol of 1.
func IsNormalized(v []float32, tol float64) bool {
	return math.Abs(Norm(v)-1) <= tol
}

// Cosine returns the cosine similarity of a and b, recomputing both norms.
// The boolean is false when either vector has a zero norm or the lengths
// differ.
func Cosine(a, b []float32) (float64, bool) {
	if len(a) != len(b) || len(a) == 0 {
		return 0, false
	}

	na, nb := Norm(a), Norm(b)
	if na == 0 || nb == 0 {
		return 0, false
	}

	return Dot(a, b) / (na * nb), true
}
