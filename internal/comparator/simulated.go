package comparator

import (
	"context"
	"hash/fnv"

	dErrors "rollcall/pkg/domain-errors"
)

// Simulated comparators produce deterministic, input-dependent outcomes for
// demo and test environments without biometric hardware. The same inputs
// always yield the same result; there is no hidden randomness.

// SimulatedFace reports a match with a confidence derived from the inputs.
type SimulatedFace struct{}

func NewSimulatedFace() *SimulatedFace {
	return &SimulatedFace{}
}

func (c *SimulatedFace) Compare(ctx context.Context, storedTemplate, sample []byte) (FaceResult, error) {
	if len(sample) == 0 {
		return FaceResult{}, dErrors.New(dErrors.CodeInvalidInput, "face payload is empty")
	}
	u := pseudoUniform(storedTemplate, sample)
	return FaceResult{
		Matched:    true,
		Confidence: 0.75 + 0.2*u,
	}, nil
}

// SimulatedDocument echoes the expected fields back as if OCR succeeded.
type SimulatedDocument struct{}

func NewSimulatedDocument() *SimulatedDocument {
	return &SimulatedDocument{}
}

func (c *SimulatedDocument) ExtractAndCompare(ctx context.Context, sample []byte, expectedID, expectedName string) (DocumentResult, error) {
	if len(sample) == 0 {
		return DocumentResult{}, dErrors.New(dErrors.CodeInvalidInput, "document payload is empty")
	}
	u := pseudoUniform(sample, []byte(expectedID))
	return DocumentResult{
		Matched:    true,
		Confidence: 0.72 + 0.2*u,
		Fields: map[string]string{
			"roll_no": expectedID,
			"name":    expectedName,
		},
	}, nil
}

// SimulatedFingerprint matches unless the derived value lands in a small
// rejection band, so demos occasionally exercise the failure path too.
type SimulatedFingerprint struct{}

func NewSimulatedFingerprint() *SimulatedFingerprint {
	return &SimulatedFingerprint{}
}

func (c *SimulatedFingerprint) Compare(ctx context.Context, providedToken, storedHash string) (bool, error) {
	if providedToken == "" {
		return false, dErrors.New(dErrors.CodeInvalidInput, "fingerprint token is empty")
	}
	u := pseudoUniform([]byte(providedToken), []byte(storedHash))
	return u > 0.05, nil
}

// pseudoUniform maps inputs to a stable value in [0,1).
func pseudoUniform(parts ...[]byte) float64 {
	h := fnv.New64a()
	for _, p := range parts {
		h.Write(p)
	}
	return float64(h.Sum64()%10000) / 10000
}
