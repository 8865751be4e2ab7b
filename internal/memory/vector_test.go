package memory

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVectorRoundTrip(t *testing.T) {
	original := []float32{0.5, -1.25, 3.75, 0}

	blob, err := encodeVector(original)
	require.NoError(t, err)
	assert.Len(t, blob, 4+len(original)*4)

	decoded, err := decodeVector(blob)
	require.NoError(t, err)
	assert.Equal(t, original, decoded)
}

func TestEncodeVectorRejectsInvalid(t *testing.T) {
	testCases := []struct {
		name   string
		vector []float32
	}{
		{name: "empty vector", vector: nil},
		{name: "NaN value", vector: []float32{1, float32(math.NaN())}},
		{name: "Inf value", vector: []float32{float32(math.Inf(1))}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := encodeVector(tc.vector)
			assert.Error(t, err)
		})
	}
}

func TestDecodeVectorRejectsMalformed(t *testing.T) {
	testCases := []struct {
		name string
		blob []byte
	}{
		{name: "too short", blob: []byte{1, 0}},
		{name: "zero dimension", blob: []byte{0, 0, 0, 0}},
		{name: "payload mismatch", blob: []byte{2, 0, 0, 0, 1, 2, 3, 4}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := decodeVector(tc.blob)
			assert.Error(t, err)
		})
	}
}

func TestCosineSimilarity(t *testing.T) {
	t.Run("identical vectors score one", func(t *testing.T) {
		score, err := cosineSimilarity([]float32{1, 2, 3}, []float32{1, 2, 3})
		require.NoError(t, err)
		assert.InDelta(t, 1.0, score, 1e-9)
	})

	t.Run("orthogonal vectors score zero", func(t *testing.T) {
		score, err := cosineSimilarity([]float32{1, 0}, []float32{0, 1})
		require.NoError(t, err)
		assert.InDelta(t, 0.0, score, 1e-9)
	})

	t.Run("opposite vectors score minus one", func(t *testing.T) {
		score, err := cosineSimilarity([]float32{1, 1}, []float32{-1, -1})
		require.NoError(t, err)
		assert.InDelta(t, -1.0, score, 1e-9)
	})

	t.Run("dimension mismatch errors", func(t *testing.T) {
		_, err := cosineSimilarity([]float32{1, 2}, []float32{1, 2, 3})
		assert.Error(t, err)
	})

	t.Run("zero norm errors", func(t *testing.T) {
		_, err := cosineSimilarity([]float32{0, 0}, []float32{1, 2})
		assert.Error(t, err)
	})
}
