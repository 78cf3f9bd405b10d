package anomaly

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"rollcall/internal/anomaly/metrics"
	"rollcall/internal/comparator"
	"rollcall/internal/identity"
	id "rollcall/pkg/domain"
)

// FaceMatch is a positive duplicate-face detection: the supplied sample
// matched this other identity's enrolled template.
type FaceMatch struct {
	IdentityID id.IdentityID
	Confidence float64
}

// Detector runs the side-channel checks. Stateless given the persisted
// history; safe for concurrent use.
type Detector struct {
	identities      identity.Store
	faces           comparator.Face
	store           Store
	scanConcurrency int
	logger          *slog.Logger
	metrics         *metrics.Metrics
}

// DetectorOption configures a Detector.
type DetectorOption func(*Detector)

// WithDetectorLogger sets the detector logger.
func WithDetectorLogger(logger *slog.Logger) DetectorOption {
	return func(d *Detector) {
		d.logger = logger
	}
}

// WithDetectorMetrics sets the detector metrics.
func WithDetectorMetrics(m *metrics.Metrics) DetectorOption {
	return func(d *Detector) {
		d.metrics = m
	}
}

// WithScanConcurrency bounds the duplicate-face comparison fan-out.
func WithScanConcurrency(n int) DetectorOption {
	return func(d *Detector) {
		if n > 0 {
			d.scanConcurrency = n
		}
	}
}

// NewDetector constructs the side-channel detector.
func NewDetector(identities identity.Store, faces comparator.Face, store Store, opts ...DetectorOption) (*Detector, error) {
	if identities == nil {
		return nil, errors.New("identity store is required")
	}
	if faces == nil {
		return nil, errors.New("face comparator is required")
	}
	if store == nil {
		return nil, errors.New("anomaly store is required")
	}

	detector := &Detector{
		identities:      identities,
		faces:           faces,
		store:           store,
		scanConcurrency: 4,
	}
	for _, opt := range opts {
		opt(detector)
	}
	return detector, nil
}

// DuplicateFace scans every *other* enrolled face template in the partition
// for a match against the supplied sample. A hit means the face likely
// belongs to a different identity than claimed (proxy attendance). Returns
// nil when nothing matched; that is the normal case and is silent.
//
// The scan is a correct O(n) linear pass within the partition, fanned out on
// a bounded pool. Max confidence wins; ties break to the first template in
// store order.
func (d *Detector) DuplicateFace(ctx context.Context, sample []byte, claiming id.IdentityID, partition id.PartitionID) (*FaceMatch, error) {
	start := time.Now()
	defer func() {
		d.metrics.ObserveScanDuration(time.Since(start))
	}()

	templates, err := d.identities.ListFaceEnrolled(ctx, partition)
	if err != nil {
		return nil, err
	}

	// Each goroutine writes only its own slot; no locking needed.
	matches := make([]*FaceMatch, len(templates))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(d.scanConcurrency)
	for i, template := range templates {
		if template.IdentityID == claiming {
			continue
		}
		group.Go(func() error {
			result, err := d.faces.Compare(groupCtx, template.Template, sample)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return err
				}
				// One unreadable template must not abort the scan.
				if d.logger != nil {
					d.logger.WarnContext(groupCtx, "duplicate-face comparison skipped",
						"identity_ref", template.IdentityID,
						"error", err.Error(),
					)
				}
				return nil
			}
			if result.Matched {
				matches[i] = &FaceMatch{IdentityID: template.IdentityID, Confidence: result.Confidence}
			}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	var best *FaceMatch
	for _, match := range matches {
		if match == nil {
			continue
		}
		// Strictly greater keeps the first-encountered winner on ties.
		if best == nil || match.Confidence > best.Confidence {
			best = match
		}
	}

	if best != nil {
		d.metrics.IncrementDetectorHit(string(TypeDuplicateFace))
		if d.logger != nil {
			d.logger.WarnContext(ctx, "duplicate face detected",
				"claiming_identity", claiming,
				"matched_identity", best.IdentityID,
				"confidence", best.Confidence,
			)
		}
	}
	return best, nil
}

// AddressCollision reports whether the source address was previously
// associated, via prior anomaly records, with a different identity in the
// same session.
func (d *Detector) AddressCollision(ctx context.Context, sourceAddress string, sessionID id.SessionID, claiming id.IdentityID) (bool, error) {
	if sourceAddress == "" {
		return false, nil
	}

	identities, err := d.store.ListSourceIdentities(ctx, sourceAddress, sessionID)
	if err != nil {
		return false, err
	}

	for _, identityID := range identities {
		if identityID != claiming {
			d.metrics.IncrementDetectorHit(string(TypeAddressCollision))
			return true, nil
		}
	}
	return false, nil
}
