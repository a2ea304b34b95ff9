// Package vecmath provides the small set of vector operations shared by
// the domain classifier and intent matcher: unit normalization, cosine
// similarity, and centroid construction.
package vecmath

import "math"

// Normalize returns a unit-length copy of v. A zero vector is returned
// unchanged (its similarity against anything is then 0, never NaN).
func Normalize(v []float32) []float32 {
	var sumSq float64
	for _, x := range v {
		sumSq += float64(x) * float64(x)
	}
	if sumSq == 0 {
		return v
	}
	norm := math.Sqrt(sumSq)
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}

// CosineSimilarity computes the dot product of a and b scaled by their
// magnitudes. Callers typically pass already-normalized vectors, in which
// case this reduces to a plain dot product; it is computed generally so
// callers never have to worry about forgetting to normalize first.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, magA, magB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		magA += float64(a[i]) * float64(a[i])
		magB += float64(b[i]) * float64(b[i])
	}
	if magA == 0 || magB == 0 {
		return 0
	}
	return dot / (math.Sqrt(magA) * math.Sqrt(magB))
}

// Centroid averages a set of unit-normalized vectors and renormalizes the
// result: mean of unit-normalized examples, then renormalized.
func Centroid(vectors [][]float32) []float32 {
	if len(vectors) == 0 {
		return nil
	}
	dim := len(vectors[0])
	sum := make([]float32, dim)
	for _, v := range vectors {
		unit := Normalize(v)
		for i, x := range unit {
			sum[i] += x
		}
	}
	for i := range sum {
		sum[i] /= float32(len(vectors))
	}
	return Normalize(sum)
}
