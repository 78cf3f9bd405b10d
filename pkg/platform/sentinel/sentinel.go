package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and infrastructure layers return
// these (optionally wrapped) so services can translate them into domain errors.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: entity does not exist in store
// - ErrAlreadyMarked: attendance already recorded for the (identity, session) pair
// - ErrSessionInactive: session is not open for marking
// - ErrNotEnrolled: identity has no biometric templates at all
// - ErrTooManyAttempts: repeated-failure throttle tripped for the pair
// - ErrAnomalyResolved: anomaly record already resolved (resolution is terminal)
// - ErrUnavailable: service or resource temporarily unavailable
//
// For validation errors (bad input, missing fields), use pkg/domain-errors directly.
var (
	ErrNotFound        = errors.New("not found")
	ErrAlreadyMarked   = errors.New("attendance already marked")
	ErrSessionInactive = errors.New("session not open for marking")
	ErrNotEnrolled     = errors.New("identity has no enrolled templates")
	ErrTooManyAttempts = errors.New("too many failed attempts")
	ErrAnomalyResolved = errors.New("anomaly already resolved")
	ErrUnavailable     = errors.New("unavailable")
)
