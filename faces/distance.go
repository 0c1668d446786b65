package faces

import "math"

// Distance is the Euclidean distance between two encodings, lower means more similar.
// Only the common prefix is compared if the lengths differ.
func Distance(e1, e2 Encoding) float64 {
	n := min(len(e1), len(e2))
	sum := 0.0
	for i := 0; i < n; i++ {
		diff := e1[i] - e2[i]
		sum += diff * diff
	}
	return math.Sqrt(sum)
}

// Distances returns the distance from enc to every known encoding, in the same order
func Distances(known EncodingList, enc Encoding) []float64 {
	distances := make([]float64, len(known))
	for i, k := range known {
		distances[i] = Distance(k, enc)
	}
	return distances
}

// Compare reports which known encodings are within tolerance of enc, along with all distances.
// Both slices are positionally aligned with known.
func Compare(known EncodingList, enc Encoding, tolerance float64) (matches []bool, distances []float64) {
	distances = Distances(known, enc)
	matches = make([]bool, len(distances))
	for i, d := range distances {
		matches[i] = d <= tolerance
	}
	return matches, distances
}

// ArgMin returns the index of the smallest value (first one on ties), -1 for an empty slice
func ArgMin(values []float64) int {
	best := -1
	for i, v := range values {
		if best < 0 || v < values[best] {
			best = i
		}
	}
	return best
}
