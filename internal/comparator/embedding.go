package comparator

import (
	"context"
	"encoding/binary"
	"math"

	dErrors "rollcall/pkg/domain-errors"
)

// EmbeddingDim is the fixed length of face embedding vectors. Capture devices
// produce 128-dimensional encodings; anything else is a malformed payload.
const EmbeddingDim = 128

// EncodeEmbedding serializes an embedding to the little-endian byte layout
// used on the wire and at the comparator boundary.
func EncodeEmbedding(embedding []float64) []byte {
	buf := make([]byte, 8*len(embedding))
	for i, v := range embedding {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(v))
	}
	return buf
}

// DecodeEmbedding parses a serialized embedding, enforcing the fixed dimension.
func DecodeEmbedding(raw []byte) ([]float64, error) {
	if len(raw) == 0 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "face payload is empty")
	}
	if len(raw)%8 != 0 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "face payload is not a serialized embedding")
	}
	dim := len(raw) / 8
	if dim != EmbeddingDim {
		return nil, dErrors.Newf(dErrors.CodeInvalidInput, "face embedding has %d dimensions, want %d", dim, EmbeddingDim)
	}

	embedding := make([]float64, dim)
	for i := range embedding {
		embedding[i] = math.Float64frombits(binary.LittleEndian.Uint64(raw[i*8:]))
	}
	return embedding, nil
}

// EuclideanDistance computes the L2 distance between two equal-length vectors.
func EuclideanDistance(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}

// EmbeddingFace compares serialized face embeddings by Euclidean distance.
// The sample is matched when its distance to the stored template is within
// the tolerance; confidence is 1 − distance clamped to [0,1].
type EmbeddingFace struct {
	tolerance float64
}

// NewEmbeddingFace constructs the embedded face comparator. Tolerance 0.6 is
// the conventional operating point for 128-dim encodings.
func NewEmbeddingFace(tolerance float64) *EmbeddingFace {
	return &EmbeddingFace{tolerance: tolerance}
}

func (c *EmbeddingFace) Compare(ctx context.Context, storedTemplate, sample []byte) (FaceResult, error) {
	stored, err := DecodeEmbedding(storedTemplate)
	if err != nil {
		return FaceResult{}, dErrors.Wrap(err, dErrors.CodeInternal, "stored face template is corrupt")
	}
	probe, err := DecodeEmbedding(sample)
	if err != nil {
		return FaceResult{}, err
	}

	distance := EuclideanDistance(stored, probe)
	confidence := 1 - distance
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}

	return FaceResult{
		Matched:    distance <= c.tolerance,
		Confidence: confidence,
	}, nil
}
