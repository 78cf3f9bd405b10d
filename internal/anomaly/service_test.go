package anomaly_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rollcall/internal/anomaly"
	"rollcall/internal/anomaly/stream"
	id "rollcall/pkg/domain"
	dErrors "rollcall/pkg/domain-errors"
	"rollcall/pkg/platform/sentinel"
	"rollcall/pkg/requestcontext"
)

type capturingPublisher struct {
	events []stream.Event
}

func (c *capturingPublisher) Publish(event stream.Event) {
	c.events = append(c.events, event)
}

func newService(t *testing.T, opts ...anomaly.Option) (*anomaly.Service, *anomaly.InMemoryStore) {
	t.Helper()
	store := anomaly.NewInMemoryStore()
	service, err := anomaly.NewService(store, opts...)
	require.NoError(t, err)
	return service, store
}

func TestRecordFillsDefaults(t *testing.T) {
	publisher := &capturingPublisher{}
	service, store := newService(t, anomaly.WithPublisher(publisher))

	now := time.Date(2026, 3, 9, 10, 30, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(context.Background(), now)
	ctx = requestcontext.WithClientIP(ctx, "203.0.113.9")
	ctx = requestcontext.WithDeviceSummary(ctx, "Chrome on Android")

	record := &anomaly.Record{
		IdentityID: id.NewIdentityID(),
		SessionID:  id.NewSessionID(),
		Type:       anomaly.TypeDuplicateFace,
		Reason:     "face sample matched a different enrolled identity",
	}
	require.NoError(t, service.Record(ctx, record))

	assert.False(t, record.ID.IsNil())
	assert.Equal(t, anomaly.SeverityHigh, record.Severity)
	assert.Equal(t, now, record.OccurredAt)
	assert.Equal(t, "203.0.113.9", record.SourceAddress)
	assert.Equal(t, "Chrome on Android", record.DeviceInfo)

	stored, err := store.Get(ctx, record.ID)
	require.NoError(t, err)
	assert.Equal(t, record.Reason, stored.Reason)
	assert.False(t, stored.Resolved)

	require.Len(t, publisher.events, 1)
	assert.Equal(t, record.ID.String(), publisher.events[0].ID)
	assert.Equal(t, "duplicate_face", publisher.events[0].Type)
	assert.Equal(t, "high", publisher.events[0].Severity)
}

func TestRecordRejectsIncompleteInput(t *testing.T) {
	service, _ := newService(t)

	err := service.Record(context.Background(), &anomaly.Record{Reason: "orphan reason"})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))

	err = service.Record(context.Background(), &anomaly.Record{Type: anomaly.TypeVerificationFailed})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))

	err = service.Record(context.Background(), &anomaly.Record{
		Type:     anomaly.TypeVerificationFailed,
		Reason:   "bad severity",
		Severity: anomaly.Severity("catastrophic"),
	})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func TestListFiltersAndOrders(t *testing.T) {
	service, _ := newService(t)
	sessionID := id.NewSessionID()

	first := &anomaly.Record{
		SessionID: sessionID,
		Type:      anomaly.TypeVerificationFailed,
		Reason:    "first failure",
	}
	second := &anomaly.Record{
		SessionID: sessionID,
		Type:      anomaly.TypeDuplicateFace,
		Reason:    "possible proxy",
	}
	other := &anomaly.Record{
		SessionID: id.NewSessionID(),
		Type:      anomaly.TypeVerificationFailed,
		Reason:    "other session",
	}
	for _, record := range []*anomaly.Record{first, second, other} {
		require.NoError(t, service.Record(context.Background(), record))
	}

	records, err := service.List(context.Background(), anomaly.Filter{SessionID: sessionID})
	require.NoError(t, err)
	require.Len(t, records, 2)
	// Most recent first.
	assert.Equal(t, second.ID, records[0].ID)
	assert.Equal(t, first.ID, records[1].ID)

	records, err = service.List(context.Background(), anomaly.Filter{
		SessionID: sessionID,
		Type:      anomaly.TypeDuplicateFace,
	})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, second.ID, records[0].ID)

	_, err = service.List(context.Background(), anomaly.Filter{Severity: anomaly.Severity("mild")})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func TestResolveIsTerminal(t *testing.T) {
	service, _ := newService(t)

	record := &anomaly.Record{
		Type:   anomaly.TypeAddressCollision,
		Reason: "shared address",
	}
	require.NoError(t, service.Record(context.Background(), record))

	resolved, err := service.Resolve(context.Background(), record.ID, "prof.iyer", "students share a hostel network")
	require.NoError(t, err)
	assert.True(t, resolved.Resolved)
	assert.Equal(t, "prof.iyer", resolved.ResolvedBy)
	assert.Equal(t, "students share a hostel network", resolved.ResolutionNotes)
	require.NotNil(t, resolved.ResolvedAt)

	// The second reviewer loses; the first resolution stands.
	_, err = service.Resolve(context.Background(), record.ID, "prof.rao", "")
	require.ErrorIs(t, err, sentinel.ErrAnomalyResolved)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))

	kept, err := service.Get(context.Background(), record.ID)
	require.NoError(t, err)
	assert.Equal(t, "prof.iyer", kept.ResolvedBy)
}

func TestResolveValidation(t *testing.T) {
	service, _ := newService(t)

	_, err := service.Resolve(context.Background(), id.NewAnomalyID(), "", "notes")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))

	_, err = service.Resolve(context.Background(), id.NewAnomalyID(), "prof.iyer", "")
	require.ErrorIs(t, err, sentinel.ErrNotFound)
}
