package domain

import "math"

// VectorNorm returns the Euclidean magnitude of v.
func VectorNorm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		f := float64(x)
		sum += f * f
	}
	return math.Sqrt(sum)
}

// CosineSimilarity returns the cosine of the angle between a and b.
// Vectors of different length are compared over their common prefix.
// A zero-magnitude vector scores 0 against anything.
func CosineSimilarity(a, b []float32) float64 {
	return CosineWithNorms(a, b, VectorNorm(a), VectorNorm(b))
}

// CosineWithNorms is CosineSimilarity with caller-supplied magnitudes, so
// stored vectors don't have their norm recomputed on every query.
func CosineWithNorms(a, b []float32, normA, normB float64) float64 {
	if normA == 0 || normB == 0 {
		return 0
	}
	n := min(len(a), len(b))
	var dot float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
	}
	score := dot / (normA * normB)
	// rounding can push identical vectors slightly past 1
	return math.Max(-1, math.Min(1, score))
}
