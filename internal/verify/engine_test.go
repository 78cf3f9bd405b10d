package verify_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rollcall/internal/comparator"
	"rollcall/internal/identity"
	"rollcall/internal/verify"
	id "rollcall/pkg/domain"
)

// Stub comparators with fixed outcomes keep the engine tests about policy,
// not embedding math.

type stubFace struct {
	result comparator.FaceResult
	err    error
}

func (s stubFace) Compare(_ context.Context, _, _ []byte) (comparator.FaceResult, error) {
	return s.result, s.err
}

type stubDocument struct {
	result comparator.DocumentResult
	err    error
}

func (s stubDocument) ExtractAndCompare(_ context.Context, _ []byte, _, _ string) (comparator.DocumentResult, error) {
	return s.result, s.err
}

type stubFingerprint struct {
	matched bool
	err     error
}

func (s stubFingerprint) Compare(_ context.Context, _, _ string) (bool, error) {
	return s.matched, s.err
}

const minFaceConfidence = 0.8

func fullyEnrolled() *identity.EnrolledIdentity {
	return &identity.EnrolledIdentity{
		ID:              id.NewIdentityID(),
		Partition:       id.NewPartitionID(),
		FullName:        "Priya Sharma",
		RollCode:        "CS-2021-044",
		FaceTemplate:    []byte("stored-template"),
		FingerprintHash: "$2a$10$storedhash",
	}
}

func newEngine(t *testing.T, set comparator.Set) *verify.Engine {
	t.Helper()
	engine, err := verify.NewEngine(set, minFaceConfidence)
	require.NoError(t, err)
	return engine
}

func TestNewEngineRequiresAllComparators(t *testing.T) {
	_, err := verify.NewEngine(comparator.Set{Face: stubFace{}}, minFaceConfidence)
	require.Error(t, err)
}

func TestVerifyFaceAndFingerprint(t *testing.T) {
	// Enrolled with face+fingerprint only; supplies both, no document.
	// 0.92*0.50 + 0.95*0.20 = 0.65, two-factor policy, both pass.
	engine := newEngine(t, comparator.Set{
		Face:        stubFace{result: comparator.FaceResult{Matched: true, Confidence: 0.92}},
		Document:    stubDocument{},
		Fingerprint: stubFingerprint{matched: true},
	})

	claimed := fullyEnrolled()
	claimed.RollCode = "" // no document template enrolled

	result, err := engine.Verify(context.Background(), verify.Claim{
		Identity: claimed,
		Factors: verify.FactorInput{
			Face:             []byte("sample"),
			FingerprintToken: "token",
		},
	})
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, "face+fingerprint", result.Method)
	assert.InDelta(t, 0.65, result.OverallConfidence, 1e-9)
	assert.False(t, result.AnomalyDetected)
	assert.Empty(t, result.AnomalyReason)

	face, ok := result.Outcome(verify.ModalityFace)
	require.True(t, ok)
	assert.True(t, face.Verified)
	assert.InDelta(t, 0.92, face.Confidence, 1e-9)

	fingerprint, ok := result.Outcome(verify.ModalityFingerprint)
	require.True(t, ok)
	assert.True(t, fingerprint.Verified)
	assert.InDelta(t, verify.FingerprintMatchConfidence, fingerprint.Confidence, 1e-9)
}

func TestVerifySingleDocumentFailure(t *testing.T) {
	engine := newEngine(t, comparator.Set{
		Face:        stubFace{},
		Document:    stubDocument{result: comparator.DocumentResult{Matched: false, Confidence: 0.1}},
		Fingerprint: stubFingerprint{},
	})

	result, err := engine.Verify(context.Background(), verify.Claim{
		Identity: fullyEnrolled(),
		Factors:  verify.FactorInput{Document: []byte("scanned text")},
	})
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Equal(t, "id_document", result.Method)
	assert.True(t, result.AnomalyDetected)
	assert.Equal(t, "single-factor verification failed: id_document", result.AnomalyReason)
}

func TestVerifyNoFactorsSupplied(t *testing.T) {
	engine := newEngine(t, comparator.Set{
		Face:        stubFace{},
		Document:    stubDocument{},
		Fingerprint: stubFingerprint{},
	})

	result, err := engine.Verify(context.Background(), verify.Claim{Identity: fullyEnrolled()})
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Equal(t, "none", result.Method)
	assert.Zero(t, result.OverallConfidence)
	assert.True(t, result.AnomalyDetected)
	assert.Equal(t, "no biometric data provided", result.AnomalyReason)
	assert.Empty(t, result.Factors)
}

func TestVerifySuppliedFactorWithoutTemplateIsSkipped(t *testing.T) {
	// A face sample against an identity with no face template is not a
	// failure; the attempt falls through to the remaining factor.
	engine := newEngine(t, comparator.Set{
		Face:        stubFace{result: comparator.FaceResult{Matched: true, Confidence: 0.99}},
		Document:    stubDocument{},
		Fingerprint: stubFingerprint{matched: true},
	})

	claimed := fullyEnrolled()
	claimed.FaceTemplate = nil

	result, err := engine.Verify(context.Background(), verify.Claim{
		Identity: claimed,
		Factors: verify.FactorInput{
			Face:             []byte("sample"),
			FingerprintToken: "token",
		},
	})
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, "fingerprint", result.Method)
	_, hasFace := result.Outcome(verify.ModalityFace)
	assert.False(t, hasFace)
}

func TestVerifyComparatorErrorDegradesFactor(t *testing.T) {
	// A dead face comparator degrades the face factor; the fingerprint
	// alone decides the attempt under the single-factor tier.
	engine := newEngine(t, comparator.Set{
		Face:        stubFace{err: errors.New("comparator unreachable")},
		Document:    stubDocument{},
		Fingerprint: stubFingerprint{matched: true},
	})

	result, err := engine.Verify(context.Background(), verify.Claim{
		Identity: fullyEnrolled(),
		Factors: verify.FactorInput{
			Face:             []byte("sample"),
			FingerprintToken: "token",
		},
	})
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, "fingerprint", result.Method)
}

func TestVerifyAllComparatorsFailingFallsToZeroFactorPolicy(t *testing.T) {
	engine := newEngine(t, comparator.Set{
		Face:        stubFace{err: errors.New("unreachable")},
		Document:    stubDocument{err: errors.New("unreachable")},
		Fingerprint: stubFingerprint{err: errors.New("unreachable")},
	})

	result, err := engine.Verify(context.Background(), verify.Claim{
		Identity: fullyEnrolled(),
		Factors: verify.FactorInput{
			Face:             []byte("sample"),
			Document:         []byte("scan"),
			FingerprintToken: "token",
		},
	})
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Equal(t, "none", result.Method)
	assert.Equal(t, "no biometric data provided", result.AnomalyReason)
}

func TestVerifyThreeFactorFailureListsFailingModalities(t *testing.T) {
	engine := newEngine(t, comparator.Set{
		Face:        stubFace{result: comparator.FaceResult{Matched: false, Confidence: 0.2}},
		Document:    stubDocument{result: comparator.DocumentResult{Matched: true, Confidence: 0.85}},
		Fingerprint: stubFingerprint{matched: false},
	})

	result, err := engine.Verify(context.Background(), verify.Claim{
		Identity: fullyEnrolled(),
		Factors: verify.FactorInput{
			Face:             []byte("sample"),
			Document:         []byte("scan"),
			FingerprintToken: "token",
		},
	})
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Equal(t, "face+id_document+fingerprint", result.Method)
	assert.Equal(t, "multi-factor verification failed: face, fingerprint", result.AnomalyReason)
}

func TestVerifyCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	engine := newEngine(t, comparator.Set{
		Face:        stubFace{err: context.Canceled},
		Document:    stubDocument{},
		Fingerprint: stubFingerprint{},
	})

	_, err := engine.Verify(ctx, verify.Claim{
		Identity: fullyEnrolled(),
		Factors:  verify.FactorInput{Face: []byte("sample")},
	})
	require.ErrorIs(t, err, context.Canceled)
}
