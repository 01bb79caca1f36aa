package facerec

import (
	"crypto/sha256"
	"math"
)

// descriptorSize matches the embedding length produced by the helper script.
const descriptorSize = 128

// euclideanDistance returns the L2 distance between two descriptors, or +Inf
// when the lengths disagree so a corrupt record can never match.
func euclideanDistance(a, b []float64) float64 {
	if len(a) != len(b) {
		return math.Inf(1)
	}
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}

// hashDescriptor derives a deterministic pseudo-descriptor from the raw image
// bytes. It is the fallback when the helper script is unavailable: identical
// images still match exactly, but it carries no real facial geometry.
func hashDescriptor(image []byte) []float64 {
	sum := sha256.Sum256(image)
	desc := make([]float64, descriptorSize)
	for i := 0; i < descriptorSize; i++ {
		desc[i] = float64(sum[i%len(sum)]) / 255.0
	}
	return desc
}
