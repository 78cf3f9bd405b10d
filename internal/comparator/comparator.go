// Package comparator defines the capability contracts for per-modality
// biometric comparison and the local implementations. The engine never cares
// which variant it holds; embedded, simulated and remote comparators are
// selected explicitly at construction time.
package comparator

import "context"

// FaceResult is the outcome of one face comparison.
type FaceResult struct {
	Matched    bool
	Confidence float64
}

// DocumentResult is the outcome of one document extraction and comparison.
type DocumentResult struct {
	Matched    bool
	Confidence float64
	Fields     map[string]string
}

// Face compares a stored face template against a freshly captured sample.
// Matched is true iff the configured distance tolerance is met.
type Face interface {
	Compare(ctx context.Context, storedTemplate, sample []byte) (FaceResult, error)
}

// Document extracts reference fields from a captured document sample and
// compares them against the identity's expected values.
type Document interface {
	ExtractAndCompare(ctx context.Context, sample []byte, expectedID, expectedName string) (DocumentResult, error)
}

// Fingerprint compares a provided fingerprint token against a stored digest.
// Confidence is fixed by engine policy, not returned here.
type Fingerprint interface {
	Compare(ctx context.Context, providedToken, storedHash string) (bool, error)
}

// Set bundles the three comparators the engine needs.
type Set struct {
	Face        Face
	Document    Document
	Fingerprint Fingerprint
}
