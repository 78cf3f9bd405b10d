package verify

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"rollcall/internal/comparator"
	"rollcall/internal/verify/metrics"
)

// Engine evaluates identity claims against enrolled templates. Stateless and
// safe for concurrent use; construct one per deployment and share it.
type Engine struct {
	comparators       comparator.Set
	minFaceConfidence float64
	logger            *slog.Logger
	metrics           *metrics.Metrics
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger for degraded-factor warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithMetrics sets the engine metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// NewEngine constructs the verification engine. minFaceConfidence is the
// floor a lone face factor must reach beyond the comparator's own match
// decision.
func NewEngine(comparators comparator.Set, minFaceConfidence float64, opts ...Option) (*Engine, error) {
	if comparators.Face == nil || comparators.Document == nil || comparators.Fingerprint == nil {
		return nil, errors.New("all three comparators are required")
	}

	engine := &Engine{
		comparators:       comparators,
		minFaceConfidence: minFaceConfidence,
	}
	for _, opt := range opts {
		opt(engine)
	}
	return engine, nil
}

// Verify evaluates one claim. A factor is applicable only when the caller
// supplied input for it and the identity has the matching enrolled template;
// anything else is skipped, not failed. A comparator error degrades that one
// factor to inapplicable rather than failing the attempt. The returned error
// is non-nil only when the context is cancelled mid-flight.
func (e *Engine) Verify(ctx context.Context, claim Claim) (*Result, error) {
	evaluations := e.plan(claim)

	// Comparator calls are potentially CPU- or I/O-bound; fan them out so a
	// slow modality does not serialize the attempt.
	outcomes := make([]FactorOutcome, len(evaluations))
	group, groupCtx := errgroup.WithContext(ctx)
	for i, eval := range evaluations {
		group.Go(func() error {
			outcome, err := e.evaluate(groupCtx, eval)
			if err != nil {
				return err
			}
			outcomes[i] = outcome
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	decision := EvaluatePolicy(outcomes, e.minFaceConfidence)
	result := &Result{
		Success:           decision.Success,
		OverallConfidence: OverallConfidence(outcomes),
		Method:            MethodDescriptor(outcomes),
		Message:           decision.Message,
	}
	for _, outcome := range outcomes {
		if outcome.Applicable {
			result.Factors = append(result.Factors, outcome)
		}
	}
	if !decision.Success {
		result.AnomalyDetected = true
		result.AnomalyReason = decision.AnomalyReason
	}

	e.metrics.IncrementOutcome(result.Method, result.Success)
	return result, nil
}

// evaluation is one planned comparator call.
type evaluation struct {
	modality Modality
	run      func(ctx context.Context) (verified bool, confidence float64, err error)
}

// plan selects the factors that have both caller input and an enrolled
// template, in fixed modality order.
func (e *Engine) plan(claim Claim) []evaluation {
	var evaluations []evaluation

	if len(claim.Factors.Face) > 0 && claim.Identity.HasFace() {
		template := claim.Identity.FaceTemplate
		sample := claim.Factors.Face
		evaluations = append(evaluations, evaluation{
			modality: ModalityFace,
			run: func(ctx context.Context) (bool, float64, error) {
				res, err := e.comparators.Face.Compare(ctx, template, sample)
				return res.Matched, res.Confidence, err
			},
		})
	}

	if len(claim.Factors.Document) > 0 && claim.Identity.HasDocument() {
		sample := claim.Factors.Document
		rollCode := claim.Identity.RollCode
		fullName := claim.Identity.FullName
		evaluations = append(evaluations, evaluation{
			modality: ModalityDocument,
			run: func(ctx context.Context) (bool, float64, error) {
				res, err := e.comparators.Document.ExtractAndCompare(ctx, sample, rollCode, fullName)
				return res.Matched, res.Confidence, err
			},
		})
	}

	if claim.Factors.FingerprintToken != "" && claim.Identity.HasFingerprint() {
		token := claim.Factors.FingerprintToken
		storedHash := claim.Identity.FingerprintHash
		evaluations = append(evaluations, evaluation{
			modality: ModalityFingerprint,
			run: func(ctx context.Context) (bool, float64, error) {
				matched, err := e.comparators.Fingerprint.Compare(ctx, token, storedHash)
				confidence := 0.0
				if matched {
					confidence = FingerprintMatchConfidence
				}
				return matched, confidence, err
			},
		})
	}

	return evaluations
}

// evaluate runs one comparator call, degrading comparator failures to an
// inapplicable outcome. Cancellation propagates so a dead client does not
// keep burning comparator capacity.
func (e *Engine) evaluate(ctx context.Context, eval evaluation) (FactorOutcome, error) {
	start := time.Now()
	verified, confidence, err := eval.run(ctx)
	e.metrics.ObserveFactorLatency(string(eval.modality), time.Since(start))

	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return FactorOutcome{}, err
		}
		e.metrics.IncrementDegraded(string(eval.modality))
		if e.logger != nil {
			e.logger.WarnContext(ctx, "comparator failed, factor degraded to inapplicable",
				"modality", eval.modality,
				"error", err.Error(),
			)
		}
		return FactorOutcome{Modality: eval.modality, Applicable: false}, nil
	}

	return FactorOutcome{
		Modality:   eval.modality,
		Applicable: true,
		Verified:   verified,
		Confidence: confidence,
	}, nil
}
