package anomaly

import (
	"context"
	"errors"
	"log/slog"

	"rollcall/internal/anomaly/metrics"
	"rollcall/internal/anomaly/stream"
	id "rollcall/pkg/domain"
	dErrors "rollcall/pkg/domain-errors"
	"rollcall/pkg/platform/sentinel"
	"rollcall/pkg/requestcontext"
)

// Publisher is the consumer-side slice of the stream publisher.
type Publisher interface {
	Publish(event stream.Event)
}

// Service owns the persisted side of anomalies: recording, the review
// listing, and terminal resolution. Stateless; safe for concurrent use.
type Service struct {
	store     Store
	logger    *slog.Logger
	metrics   *metrics.Metrics
	publisher Publisher
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

// WithPublisher sets the anomaly event stream publisher.
func WithPublisher(publisher Publisher) Option {
	return func(s *Service) {
		s.publisher = publisher
	}
}

// NewService constructs the anomaly service.
func NewService(store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("anomaly store is required")
	}

	svc := &Service{store: store}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Record persists one anomaly, filling defaults from the request context:
// occurrence time, source address, and device summary. The severity defaults
// by type when the caller leaves it empty. After the durable insert the
// record is published to the event stream best-effort.
func (s *Service) Record(ctx context.Context, record *Record) error {
	if record.Type == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "anomaly type is required")
	}
	if record.Reason == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "anomaly reason is required")
	}

	if record.ID.IsNil() {
		record.ID = id.NewAnomalyID()
	}
	if record.Severity == "" {
		record.Severity = DefaultSeverity(record.Type)
	}
	if !record.Severity.Valid() {
		return dErrors.Newf(dErrors.CodeInvalidInput, "unknown severity %q", record.Severity)
	}
	if record.OccurredAt.IsZero() {
		record.OccurredAt = requestcontext.Now(ctx)
	}
	if record.SourceAddress == "" {
		record.SourceAddress = requestcontext.ClientIP(ctx)
	}
	if record.DeviceInfo == "" {
		record.DeviceInfo = requestcontext.DeviceSummary(ctx)
	}

	if err := s.store.Insert(ctx, record); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record anomaly")
	}

	s.metrics.IncrementRecorded(string(record.Type), string(record.Severity))
	if s.logger != nil {
		s.logger.WarnContext(ctx, "anomaly recorded",
			"anomaly_id", record.ID,
			"type", record.Type,
			"severity", record.Severity,
			"identity_ref", record.IdentityID,
			"session_ref", record.SessionID,
			"reason", record.Reason,
		)
	}

	if s.publisher != nil {
		event := stream.Event{
			ID:         record.ID.String(),
			Type:       string(record.Type),
			Severity:   string(record.Severity),
			Reason:     record.Reason,
			OccurredAt: record.OccurredAt,
		}
		if !record.IdentityID.IsNil() {
			event.IdentityRef = record.IdentityID.String()
		}
		if !record.SessionID.IsNil() {
			event.SessionRef = record.SessionID.String()
		}
		s.publisher.Publish(event)
	}

	return nil
}

// List returns anomalies matching the filter, most recent first.
func (s *Service) List(ctx context.Context, filter Filter) ([]Record, error) {
	if filter.Severity != "" && !filter.Severity.Valid() {
		return nil, dErrors.Newf(dErrors.CodeInvalidInput, "unknown severity %q", filter.Severity)
	}

	records, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list anomalies")
	}
	return records, nil
}

// Get loads one anomaly record.
func (s *Service) Get(ctx context.Context, anomalyID id.AnomalyID) (*Record, error) {
	record, err := s.store.Get(ctx, anomalyID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Wrap(err, dErrors.CodeNotFound, "anomaly not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to get anomaly")
	}
	return record, nil
}

// Resolve marks an anomaly resolved. Terminal: a second resolution attempt is
// a conflict, preserving the first reviewer's notes.
func (s *Service) Resolve(ctx context.Context, anomalyID id.AnomalyID, resolvedBy, notes string) (*Record, error) {
	if resolvedBy == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "resolved_by is required")
	}

	record, err := s.store.MarkResolved(ctx, anomalyID, resolvedBy, notes, requestcontext.Now(ctx))
	if err != nil {
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
			return nil, dErrors.Wrap(err, dErrors.CodeNotFound, "anomaly not found")
		case errors.Is(err, sentinel.ErrAnomalyResolved):
			return nil, dErrors.Wrap(err, dErrors.CodeConflict, "anomaly is already resolved")
		default:
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve anomaly")
		}
	}

	s.metrics.IncrementResolved()
	if s.logger != nil {
		s.logger.InfoContext(ctx, "anomaly resolved",
			"anomaly_id", anomalyID,
			"resolved_by", resolvedBy,
		)
	}
	return record, nil
}
