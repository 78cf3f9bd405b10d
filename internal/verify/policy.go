package verify

import (
	"fmt"
	"strings"
)

// Modality weights for the overall confidence score. Chosen to reflect
// comparator reliability; face carries half the score.
const (
	FaceWeight        = 0.50
	DocumentWeight    = 0.30
	FingerprintWeight = 0.20

	// FingerprintMatchConfidence is the fixed confidence assigned to a
	// fingerprint match. The comparator reports only match/no-match; there
	// is no continuous fingerprint confidence.
	FingerprintMatchConfidence = 0.95
)

func weightOf(modality Modality) float64 {
	switch modality {
	case ModalityFace:
		return FaceWeight
	case ModalityDocument:
		return DocumentWeight
	case ModalityFingerprint:
		return FingerprintWeight
	}
	return 0
}

// OverallConfidence computes the weighted sum over applicable factors,
// clamped to [0,1]. Weights are deliberately NOT renormalized when factors
// are missing: fewer applicable factors structurally cap the achievable
// score, and downstream risk thresholds depend on that cap.
func OverallConfidence(outcomes []FactorOutcome) float64 {
	var total float64
	for _, outcome := range outcomes {
		if !outcome.Applicable {
			continue
		}
		total += weightOf(outcome.Modality) * outcome.Confidence
	}
	if total < 0 {
		return 0
	}
	if total > 1 {
		return 1
	}
	return total
}

// MethodDescriptor joins the applicable modality names in fixed order.
func MethodDescriptor(outcomes []FactorOutcome) string {
	var names []string
	for _, outcome := range outcomes {
		if outcome.Applicable {
			names = append(names, string(outcome.Modality))
		}
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, "+")
}

// PolicyDecision is the outcome of the tiered success policy.
type PolicyDecision struct {
	Success       bool
	Message       string
	AnomalyReason string
}

// EvaluatePolicy applies the tiered success policy to the applicable
// outcomes. Pure domain logic, no I/O.
//
// Tier rules by count of applicable factors:
//
//	0: never succeeds
//	1: the factor must verify; a lone face factor must additionally reach
//	   minFaceConfidence even when the comparator reports a match
//	2: both factors must verify
//	3: all three must verify
func EvaluatePolicy(outcomes []FactorOutcome, minFaceConfidence float64) PolicyDecision {
	applicable := make([]FactorOutcome, 0, len(outcomes))
	for _, outcome := range outcomes {
		if outcome.Applicable {
			applicable = append(applicable, outcome)
		}
	}

	switch len(applicable) {
	case 0:
		return PolicyDecision{
			Success:       false,
			Message:       "no verification factors applicable",
			AnomalyReason: "no biometric data provided",
		}

	case 1:
		factor := applicable[0]
		success := factor.Verified
		if factor.Modality == ModalityFace {
			success = success && factor.Confidence >= minFaceConfidence
		}
		decision := PolicyDecision{
			Success: success,
			Message: fmt.Sprintf("single-factor (%s) verification", factor.Modality),
		}
		if !success {
			decision.AnomalyReason = fmt.Sprintf("single-factor verification failed: %s", factor.Modality)
		}
		return decision

	case 2:
		passed := 0
		for _, factor := range applicable {
			if factor.Verified {
				passed++
			}
		}
		decision := PolicyDecision{
			Success: passed == 2,
			Message: fmt.Sprintf("two-factor verification: %d/2 passed", passed),
		}
		if !decision.Success {
			decision.AnomalyReason = fmt.Sprintf("two-factor verification failed: %d/2 passed", passed)
		}
		return decision

	default:
		var failed []string
		for _, factor := range applicable {
			if !factor.Verified {
				failed = append(failed, string(factor.Modality))
			}
		}
		if len(failed) == 0 {
			return PolicyDecision{
				Success: true,
				Message: "three-factor verification passed",
			}
		}
		return PolicyDecision{
			Success:       false,
			Message:       "three-factor verification failed",
			AnomalyReason: fmt.Sprintf("multi-factor verification failed: %s", strings.Join(failed, ", ")),
		}
	}
}
