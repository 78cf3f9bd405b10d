package attendance

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"rollcall/internal/anomaly"
	"rollcall/internal/attendance/metrics"
	"rollcall/internal/identity"
	"rollcall/internal/session"
	"rollcall/internal/verify"
	id "rollcall/pkg/domain"
	dErrors "rollcall/pkg/domain-errors"
	"rollcall/pkg/platform/sentinel"
	"rollcall/pkg/requestcontext"
)

// Verifier is the consumer-side slice of the verification engine.
type Verifier interface {
	Verify(ctx context.Context, claim verify.Claim) (*verify.Result, error)
}

// Throttle is the consumer-side slice of the repeated-failure throttle.
type Throttle interface {
	Blocked(ctx context.Context, identityID id.IdentityID, sessionID id.SessionID) (bool, error)
	RecordFailure(ctx context.Context, identityID id.IdentityID, sessionID id.SessionID) error
}

// AnomalyRecorder persists anomaly records.
type AnomalyRecorder interface {
	Record(ctx context.Context, record *anomaly.Record) error
}

// SideChannel is the consumer-side slice of the anomaly detector.
type SideChannel interface {
	DuplicateFace(ctx context.Context, sample []byte, claiming id.IdentityID, partition id.PartitionID) (*anomaly.FaceMatch, error)
	AddressCollision(ctx context.Context, sourceAddress string, sessionID id.SessionID, claiming id.IdentityID) (bool, error)
}

// Service is the attendance ledger. It orchestrates one mark attempt end to
// end: pre-checks, throttle, verification, side-channel checks, atomic
// commit. Stateless; attempts for different pairs run fully in parallel.
type Service struct {
	store      Store
	identities identity.Store
	sessions   session.StateProvider
	verifier   Verifier
	throttle   Throttle
	anomalies  AnomalyRecorder
	detector   SideChannel
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithMetrics sets the service metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithSideChannel sets the anomaly detector for duplicate-face and
// address-collision checks. Optional; without it only the verification
// outcome itself produces anomalies.
func WithSideChannel(detector SideChannel) Option {
	return func(s *Service) {
		s.detector = detector
	}
}

// NewService constructs the attendance ledger.
func NewService(
	store Store,
	identities identity.Store,
	sessions session.StateProvider,
	verifier Verifier,
	throttle Throttle,
	anomalies AnomalyRecorder,
	opts ...Option,
) (*Service, error) {
	switch {
	case store == nil:
		return nil, errors.New("attendance store is required")
	case identities == nil:
		return nil, errors.New("identity store is required")
	case sessions == nil:
		return nil, errors.New("session state provider is required")
	case verifier == nil:
		return nil, errors.New("verifier is required")
	case throttle == nil:
		return nil, errors.New("throttle is required")
	case anomalies == nil:
		return nil, errors.New("anomaly recorder is required")
	}

	svc := &Service{
		store:      store,
		identities: identities,
		sessions:   sessions,
		verifier:   verifier,
		throttle:   throttle,
		anomalies:  anomalies,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// MarkRequest is one mark attempt.
type MarkRequest struct {
	IdentityID id.IdentityID
	SessionID  id.SessionID
	Factors    verify.FactorInput
}

// MarkOutcome is the attempt result. Record is non-nil only when the attempt
// succeeded and committed.
type MarkOutcome struct {
	Result *verify.Result
	Record *Record
}

// Mark runs one attempt. Hard rejections (already marked, session inactive,
// not enrolled, throttled) return an error before any comparator work. A
// soft verification failure returns a MarkOutcome with Success=false and no
// record; the durable anomaly entry is already written by then.
func (s *Service) Mark(ctx context.Context, req MarkRequest) (*MarkOutcome, error) {
	start := time.Now()
	defer func() {
		s.metrics.ObserveMarkDuration(time.Since(start))
	}()

	outcome, err := s.mark(ctx, req)
	s.metrics.IncrementAttempt(attemptOutcome(outcome, err))
	return outcome, err
}

func (s *Service) mark(ctx context.Context, req MarkRequest) (*MarkOutcome, error) {
	// Cheap rejections first: no comparator runs for an attempt that cannot
	// possibly commit.
	active, err := s.sessions.Active(ctx, req.SessionID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Wrap(err, dErrors.CodeNotFound, "session not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check session state")
	}
	if !active {
		return nil, dErrors.Wrap(sentinel.ErrSessionInactive, dErrors.CodeConflict,
			"session is not open for attendance marking")
	}

	exists, err := s.store.Exists(ctx, req.IdentityID, req.SessionID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check existing attendance")
	}
	if exists {
		return nil, dErrors.Wrap(sentinel.ErrAlreadyMarked, dErrors.CodeConflict,
			"attendance already marked for this session")
	}

	claimed, err := s.identities.Get(ctx, req.IdentityID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Wrap(err, dErrors.CodeNotFound, "identity not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load identity")
	}
	if !claimed.Enrolled() {
		return nil, dErrors.Wrap(sentinel.ErrNotEnrolled, dErrors.CodeConflict,
			"identity has no enrolled biometric templates, complete enrollment first")
	}

	// Throttle before the engine: repeated probing costs no comparator work.
	blocked, err := s.throttle.Blocked(ctx, req.IdentityID, req.SessionID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to evaluate failure throttle")
	}
	if blocked {
		s.recordAnomaly(ctx, &anomaly.Record{
			IdentityID: req.IdentityID,
			SessionID:  req.SessionID,
			Type:       anomaly.TypeRepeatedFailure,
			Reason:     "verification attempts blocked: repeated failures exceeded the allowed limit",
		})
		return nil, dErrors.Wrap(sentinel.ErrTooManyAttempts, dErrors.CodeTooManyRequests,
			"too many failed verification attempts, try again later")
	}

	result, err := s.verifier.Verify(ctx, verify.Claim{Identity: claimed, Factors: req.Factors})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "verification aborted")
	}

	// A soft failure must never be silent: the anomaly entry is the durable
	// trace reviewers work from, so its insert failing fails the attempt.
	if result.AnomalyDetected {
		record := &anomaly.Record{
			IdentityID: req.IdentityID,
			SessionID:  req.SessionID,
			Type:       anomaly.TypeVerificationFailed,
			Reason:     result.AnomalyReason,
		}
		if err := s.anomalies.Record(ctx, record); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record verification anomaly")
		}
		if err := s.throttle.RecordFailure(ctx, req.IdentityID, req.SessionID); err != nil && s.logger != nil {
			s.logger.ErrorContext(ctx, "failed to record throttle failure",
				"identity_ref", req.IdentityID,
				"error", err.Error(),
			)
		}
	}

	// Side-channel checks run on every attempt that reached verification.
	// Positive detections flag for review; they do not veto the mark.
	s.runSideChannels(ctx, req, claimed)

	if !result.Success {
		if s.logger != nil {
			s.logger.InfoContext(ctx, "verification failed",
				"identity_ref", req.IdentityID,
				"session_ref", req.SessionID,
				"method", result.Method,
				"reason", result.AnomalyReason,
			)
		}
		return &MarkOutcome{Result: result}, nil
	}

	record := buildRecord(req, result, requestcontext.Now(ctx))
	if err := s.store.Insert(ctx, record); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyMarked) {
			// Race loser: a concurrent attempt committed first.
			return nil, dErrors.Wrap(err, dErrors.CodeConflict,
				"attendance already marked for this session")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to commit attendance record")
	}

	if s.logger != nil {
		s.logger.InfoContext(ctx, "attendance marked",
			"identity_ref", req.IdentityID,
			"session_ref", req.SessionID,
			"method", result.Method,
			"overall_confidence", result.OverallConfidence,
		)
	}
	return &MarkOutcome{Result: result, Record: record}, nil
}

// runSideChannels evaluates duplicate-face and address-collision signals.
// Detector failures degrade to a log line; the mark decision stands on the
// verification result alone.
func (s *Service) runSideChannels(ctx context.Context, req MarkRequest, claimed *identity.EnrolledIdentity) {
	if s.detector == nil {
		return
	}

	if len(req.Factors.Face) > 0 {
		match, err := s.detector.DuplicateFace(ctx, req.Factors.Face, req.IdentityID, claimed.Partition)
		switch {
		case err != nil:
			if s.logger != nil {
				s.logger.ErrorContext(ctx, "duplicate-face check failed",
					"identity_ref", req.IdentityID,
					"error", err.Error(),
				)
			}
		case match != nil:
			s.recordAnomaly(ctx, &anomaly.Record{
				IdentityID: req.IdentityID,
				SessionID:  req.SessionID,
				Type:       anomaly.TypeDuplicateFace,
				Reason:     "face sample matched a different enrolled identity",
				Details: map[string]any{
					"matched_identity": match.IdentityID.String(),
					"confidence":       match.Confidence,
				},
			})
		}
	}

	if sourceAddress := requestcontext.ClientIP(ctx); sourceAddress != "" {
		collision, err := s.detector.AddressCollision(ctx, sourceAddress, req.SessionID, req.IdentityID)
		switch {
		case err != nil:
			if s.logger != nil {
				s.logger.ErrorContext(ctx, "address-collision check failed",
					"identity_ref", req.IdentityID,
					"error", err.Error(),
				)
			}
		case collision:
			s.recordAnomaly(ctx, &anomaly.Record{
				IdentityID: req.IdentityID,
				SessionID:  req.SessionID,
				Type:       anomaly.TypeAddressCollision,
				Reason:     "network address already used by a different identity in this session",
			})
		}
	}
}

// recordAnomaly persists a best-effort anomaly. Used where a failed insert
// must not abort the attempt (throttle block, side channels).
func (s *Service) recordAnomaly(ctx context.Context, record *anomaly.Record) {
	if err := s.anomalies.Record(ctx, record); err != nil && s.logger != nil {
		s.logger.ErrorContext(ctx, "failed to record anomaly",
			"type", record.Type,
			"identity_ref", record.IdentityID,
			"error", err.Error(),
		)
	}
}

func buildRecord(req MarkRequest, result *verify.Result, markedAt time.Time) *Record {
	record := &Record{
		ID:                id.NewAttendanceID(),
		IdentityID:        req.IdentityID,
		SessionID:         req.SessionID,
		Status:            StatusPresent,
		OverallConfidence: result.OverallConfidence,
		Method:            result.Method,
		MarkedAt:          markedAt,
	}

	// Per-factor confidences are stored only for factors that verified.
	if face, ok := result.Outcome(verify.ModalityFace); ok && face.Verified {
		confidence := face.Confidence
		record.FaceConfidence = &confidence
	}
	if document, ok := result.Outcome(verify.ModalityDocument); ok && document.Verified {
		confidence := document.Confidence
		record.DocumentConfidence = &confidence
	}
	if fingerprint, ok := result.Outcome(verify.ModalityFingerprint); ok {
		matched := fingerprint.Verified
		record.FingerprintMatch = &matched
	}

	return record
}

func attemptOutcome(outcome *MarkOutcome, err error) string {
	switch {
	case err == nil && outcome != nil && outcome.Record != nil:
		return "marked"
	case err == nil:
		return "verification_failed"
	case errors.Is(err, sentinel.ErrAlreadyMarked):
		return "already_marked"
	case errors.Is(err, sentinel.ErrSessionInactive):
		return "session_inactive"
	case errors.Is(err, sentinel.ErrNotEnrolled):
		return "not_enrolled"
	case errors.Is(err, sentinel.ErrTooManyAttempts):
		return "throttled"
	default:
		return "error"
	}
}

// ListBySession returns a session's attendance records, most recent first.
func (s *Service) ListBySession(ctx context.Context, sessionID id.SessionID) ([]Record, error) {
	records, err := s.store.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list session attendance")
	}
	return records, nil
}

// Correct applies a manual status correction by an authorized actor. The
// (identity, session) pairing never changes.
func (s *Service) Correct(ctx context.Context, attendanceID id.AttendanceID, status Status, correctedBy string) (*Record, error) {
	if !status.Valid() {
		return nil, dErrors.Newf(dErrors.CodeInvalidInput, "unknown attendance status %q", status)
	}
	if correctedBy == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "corrected_by is required")
	}

	record, err := s.store.UpdateStatus(ctx, attendanceID, status)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Wrap(err, dErrors.CodeNotFound, "attendance record not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update attendance status")
	}

	if s.logger != nil {
		s.logger.InfoContext(ctx, "attendance status corrected",
			"attendance_id", attendanceID,
			"status", status,
			"corrected_by", correctedBy,
		)
	}
	return record, nil
}
