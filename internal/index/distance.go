package index

import (
	"math"
	"sort"
)

// CosineSimilarity calculates the cosine similarity between two vectors.
// Returns a value between -1 and 1, and 0 when either vector has zero length.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0.0
	}

	var dotProduct, normA, normB float64
	for i := 0; i < len(a); i++ {
		x, y := float64(a[i]), float64(b[i])
		dotProduct += x * y
		normA += x * x
		normB += y * y
	}

	if normA == 0.0 || normB == 0.0 {
		return 0.0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}

// SquaredL2 calculates the squared Euclidean distance between two vectors
func SquaredL2(a, b []float32) float64 {
	if len(a) != len(b) {
		return math.Inf(1)
	}

	var sum float64
	for i := 0; i < len(a); i++ {
		diff := float64(a[i]) - float64(b[i])
		sum += diff * diff
	}
	return sum
}

// DotProduct calculates the dot product of two vectors
func DotProduct(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0.0
	}

	var product float64
	for i := 0; i < len(a); i++ {
		product += float64(a[i]) * float64(b[i])
	}
	return product
}

// NormalizeVector returns v scaled to unit length. Zero vectors are returned unchanged.
func NormalizeVector(v []float32) []float32 {
	var norm float64
	for _, val := range v {
		norm += float64(val) * float64(val)
	}

	norm = math.Sqrt(norm)
	if norm == 0.0 {
		return v
	}

	normalized := make([]float32, len(v))
	for i, val := range v {
		normalized[i] = float32(float64(val) / norm)
	}
	return normalized
}

type candidate struct {
	seq   uint64
	match Match
}

// rank orders candidates by ascending distance, breaking ties by insertion
// sequence, and keeps the first k.
func rank(cands []candidate, k int) []Match {
	sort.Slice(cands, func(i, j int) bool {
		if cands[i].match.Distance != cands[j].match.Distance {
			return cands[i].match.Distance < cands[j].match.Distance
		}
		return cands[i].seq < cands[j].seq
	})

	if k > len(cands) {
		k = len(cands)
	}
	matches := make([]Match, k)
	for i := 0; i < k; i++ {
		matches[i] = cands[i].match
	}
	return matches
}
