package handler_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rollcall/internal/attendance"
	"rollcall/internal/attendance/handler"
	"rollcall/internal/verify"
	id "rollcall/pkg/domain"
	dErrors "rollcall/pkg/domain-errors"
	"rollcall/pkg/platform/sentinel"
)

type stubLedger struct {
	outcome  *attendance.MarkOutcome
	markErr  error
	lastMark attendance.MarkRequest

	records []attendance.Record
	listErr error

	corrected  *attendance.Record
	correctErr error
}

func (s *stubLedger) Mark(_ context.Context, req attendance.MarkRequest) (*attendance.MarkOutcome, error) {
	s.lastMark = req
	return s.outcome, s.markErr
}

func (s *stubLedger) ListBySession(context.Context, id.SessionID) ([]attendance.Record, error) {
	return s.records, s.listErr
}

func (s *stubLedger) Correct(context.Context, id.AttendanceID, attendance.Status, string) (*attendance.Record, error) {
	return s.corrected, s.correctErr
}

func newServer(t *testing.T, ledger *stubLedger) *httptest.Server {
	t.Helper()

	router := chi.NewRouter()
	handler.New(ledger, slog.Default()).Register(router)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server
}

func sampleRecord() *attendance.Record {
	face := 0.92
	fingerprint := true
	return &attendance.Record{
		ID:                id.NewAttendanceID(),
		IdentityID:        id.NewIdentityID(),
		SessionID:         id.NewSessionID(),
		Status:            attendance.StatusPresent,
		FaceConfidence:    &face,
		FingerprintMatch:  &fingerprint,
		OverallConfidence: 0.65,
		Method:            "face+fingerprint",
		MarkedAt:          time.Date(2026, 3, 9, 10, 30, 0, 0, time.UTC),
	}
}

func markPayload(identityID id.IdentityID, sessionID id.SessionID) []byte {
	payload, _ := json.Marshal(map[string]string{
		"identity_ref":      identityID.String(),
		"session_ref":       sessionID.String(),
		"face_image":        base64.StdEncoding.EncodeToString([]byte("face-sample")),
		"fingerprint_token": "sensor-token",
	})
	return payload
}

func TestMarkSuccess(t *testing.T) {
	record := sampleRecord()
	ledger := &stubLedger{outcome: &attendance.MarkOutcome{
		Result: &verify.Result{
			Success:           true,
			Method:            "face+fingerprint",
			OverallConfidence: 0.65,
			Message:           "verification successful",
			Factors: []verify.FactorOutcome{
				{Modality: verify.ModalityFace, Applicable: true, Verified: true, Confidence: 0.92},
				{Modality: verify.ModalityFingerprint, Applicable: true, Verified: true, Confidence: 0.95},
			},
		},
		Record: record,
	}}
	server := newServer(t, ledger)

	resp, err := http.Post(server.URL+"/attendance/mark", "application/json",
		bytes.NewReader(markPayload(record.IdentityID, record.SessionID)))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Success           bool    `json:"success"`
		Method            string  `json:"method"`
		OverallConfidence float64 `json:"overall_confidence"`
		Record            *struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		} `json:"record"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))

	assert.True(t, body.Success)
	assert.Equal(t, "face+fingerprint", body.Method)
	assert.InDelta(t, 0.65, body.OverallConfidence, 1e-9)
	require.NotNil(t, body.Record)
	assert.Equal(t, record.ID.String(), body.Record.ID)
	assert.Equal(t, "present", body.Record.Status)

	// Payloads arrive decoded from base64.
	assert.Equal(t, []byte("face-sample"), ledger.lastMark.Factors.Face)
	assert.Equal(t, "sensor-token", ledger.lastMark.Factors.FingerprintToken)
	assert.Empty(t, ledger.lastMark.Factors.Document)
}

func TestMarkVerificationFailureIsOK(t *testing.T) {
	ledger := &stubLedger{outcome: &attendance.MarkOutcome{
		Result: &verify.Result{
			Success:         false,
			Method:          "face",
			Message:         "verification failed",
			AnomalyDetected: true,
			AnomalyReason:   "single-factor verification failed: face",
		},
	}}
	server := newServer(t, ledger)

	resp, err := http.Post(server.URL+"/attendance/mark", "application/json",
		bytes.NewReader(markPayload(id.NewIdentityID(), id.NewSessionID())))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Success bool            `json:"success"`
		Record  json.RawMessage `json:"record"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.False(t, body.Success)
	assert.Nil(t, body.Record)
}

func TestMarkErrorStatusCodes(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"already marked", dErrors.Wrap(sentinel.ErrAlreadyMarked, dErrors.CodeConflict, "attendance already marked for this session"), http.StatusConflict},
		{"session inactive", dErrors.Wrap(sentinel.ErrSessionInactive, dErrors.CodeConflict, "session is not open for attendance marking"), http.StatusConflict},
		{"throttled", dErrors.Wrap(sentinel.ErrTooManyAttempts, dErrors.CodeTooManyRequests, "too many failed verification attempts, try again later"), http.StatusTooManyRequests},
		{"identity missing", dErrors.Wrap(sentinel.ErrNotFound, dErrors.CodeNotFound, "identity not found"), http.StatusNotFound},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			server := newServer(t, &stubLedger{markErr: tc.err})

			resp, err := http.Post(server.URL+"/attendance/mark", "application/json",
				bytes.NewReader(markPayload(id.NewIdentityID(), id.NewSessionID())))
			require.NoError(t, err)
			resp.Body.Close()
			assert.Equal(t, tc.want, resp.StatusCode)
		})
	}
}

func TestMarkRejectsMalformedInput(t *testing.T) {
	server := newServer(t, &stubLedger{})

	bad := [][]byte{
		[]byte(`{"identity_ref":"not-a-uuid","session_ref":"` + id.NewSessionID().String() + `"}`),
		[]byte(`{"identity_ref":"` + id.NewIdentityID().String() + `","session_ref":"` + id.NewSessionID().String() + `","face_image":"%%%"}`),
		[]byte(`{"unknown_field":true}`),
	}
	for _, payload := range bad {
		resp, err := http.Post(server.URL+"/attendance/mark", "application/json", bytes.NewReader(payload))
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, string(payload))
	}
}

func TestSessionRoster(t *testing.T) {
	record := sampleRecord()
	server := newServer(t, &stubLedger{records: []attendance.Record{*record}})

	resp, err := http.Get(fmt.Sprintf("%s/attendance/sessions/%s", server.URL, record.SessionID))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		SessionRef string `json:"session_ref"`
		Count      int    `json:"count"`
		Records    []struct {
			IdentityRef    string   `json:"identity_ref"`
			FaceConfidence *float64 `json:"face_confidence"`
		} `json:"records"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))

	assert.Equal(t, record.SessionID.String(), body.SessionRef)
	assert.Equal(t, 1, body.Count)
	require.Len(t, body.Records, 1)
	assert.Equal(t, record.IdentityID.String(), body.Records[0].IdentityRef)
	require.NotNil(t, body.Records[0].FaceConfidence)
	assert.InDelta(t, 0.92, *body.Records[0].FaceConfidence, 1e-9)
}

func TestCorrectStatus(t *testing.T) {
	record := sampleRecord()
	record.Status = attendance.StatusLate
	server := newServer(t, &stubLedger{corrected: record})

	req, err := http.NewRequest(http.MethodPatch,
		fmt.Sprintf("%s/attendance/%s/status", server.URL, record.ID),
		bytes.NewReader([]byte(`{"status":"late","corrected_by":"prof.iyer"}`)))
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Status string `json:"status"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "late", body.Status)
}

func TestCorrectStatusNotFound(t *testing.T) {
	server := newServer(t, &stubLedger{
		correctErr: dErrors.Wrap(sentinel.ErrNotFound, dErrors.CodeNotFound, "attendance record not found"),
	})

	req, err := http.NewRequest(http.MethodPatch,
		fmt.Sprintf("%s/attendance/%s/status", server.URL, id.NewAttendanceID()),
		bytes.NewReader([]byte(`{"status":"late","corrected_by":"prof.iyer"}`)))
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
