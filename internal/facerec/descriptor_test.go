package facerec

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEuclideanDistance(t *testing.T) {
	a := []float64{0, 0, 0}
	b := []float64{3, 4, 0}
	assert.InDelta(t, 5.0, euclideanDistance(a, b), 1e-9)
	assert.Equal(t, 0.0, euclideanDistance(a, a))
}

func TestEuclideanDistanceLengthMismatch(t *testing.T) {
	a := []float64{1, 2}
	b := []float64{1, 2, 3}
	assert.True(t, math.IsInf(euclideanDistance(a, b), 1))
}

func TestHashDescriptorDeterministic(t *testing.T) {
	img := []byte("front-desk-capture")

	d1 := hashDescriptor(img)
	d2 := hashDescriptor(img)

	assert.Len(t, d1, descriptorSize)
	assert.Equal(t, d1, d2)
	assert.Equal(t, 0.0, euclideanDistance(d1, d2))

	for _, v := range d1 {
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 1.0)
	}
}

func TestHashDescriptorDistinguishesImages(t *testing.T) {
	d1 := hashDescriptor([]byte("patient-a"))
	d2 := hashDescriptor([]byte("patient-b"))

	assert.Greater(t, euclideanDistance(d1, d2), 0.0)
}
