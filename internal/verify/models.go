// Package verify implements the multi-factor verification engine. It
// aggregates per-modality comparator outcomes into one result using a tiered
// success policy and a weighted confidence score. The engine holds no state;
// every result is a pure function of the claim and the comparator calls.
package verify

import (
	"rollcall/internal/identity"
)

// Modality names one biometric/document factor.
type Modality string

const (
	ModalityFace        Modality = "face"
	ModalityDocument    Modality = "id_document"
	ModalityFingerprint Modality = "fingerprint"
)

// modalities fixes the evaluation and descriptor order.
var modalities = []Modality{ModalityFace, ModalityDocument, ModalityFingerprint}

// FactorInput carries the raw payloads supplied with one mark attempt. Any
// subset may be present; absent factors are simply not evaluated.
type FactorInput struct {
	// Face is the serialized face embedding captured by the client device.
	Face []byte
	// Document is the captured identity-document payload (recognized text).
	Document []byte
	// FingerprintToken is the token produced by the fingerprint sensor.
	FingerprintToken string
}

// Claim is one identity claim under verification: who the caller says they
// are, plus the evidence they supplied.
type Claim struct {
	Identity *identity.EnrolledIdentity
	Factors  FactorInput
}

// FactorOutcome is the transient per-modality result of one attempt.
type FactorOutcome struct {
	Modality   Modality
	Applicable bool
	Verified   bool
	Confidence float64
}

// Result aggregates up to three factor outcomes. Transient; consumed by the
// attendance ledger and returned to the caller, never persisted standalone.
type Result struct {
	Success bool
	// Factors holds the applicable outcomes in fixed modality order.
	Factors           []FactorOutcome
	OverallConfidence float64
	// Method is the ordered applicable modality names joined with "+",
	// or "none" when nothing was applicable.
	Method  string
	Message string
	// AnomalyDetected is set on every failure and never on success;
	// side-channel anomalies are reported separately by the detector.
	AnomalyDetected bool
	AnomalyReason   string
}

// Outcome returns the applicable outcome for one modality, if any.
func (r *Result) Outcome(modality Modality) (FactorOutcome, bool) {
	for _, outcome := range r.Factors {
		if outcome.Modality == modality {
			return outcome, true
		}
	}
	return FactorOutcome{}, false
}
