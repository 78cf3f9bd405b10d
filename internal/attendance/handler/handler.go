// Package handler exposes the attendance surface: the mark attempt, the
// session roster, and manual status correction.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"rollcall/internal/attendance"
	id "rollcall/pkg/domain"
	dErrors "rollcall/pkg/domain-errors"
	"rollcall/pkg/platform/httputil"
)

// Service is the consumer-side slice of the attendance ledger.
type Service interface {
	Mark(ctx context.Context, req attendance.MarkRequest) (*attendance.MarkOutcome, error)
	ListBySession(ctx context.Context, sessionID id.SessionID) ([]attendance.Record, error)
	Correct(ctx context.Context, attendanceID id.AttendanceID, status attendance.Status, correctedBy string) (*attendance.Record, error)
}

// Handler handles attendance endpoints.
type Handler struct {
	ledger Service
	logger *slog.Logger
}

// New creates the attendance handler.
func New(ledger Service, logger *slog.Logger) *Handler {
	return &Handler{ledger: ledger, logger: logger}
}

// Register mounts the attendance routes.
func (h *Handler) Register(r chi.Router) {
	r.Post("/attendance/mark", h.handleMark)
	r.Get("/attendance/sessions/{sessionID}", h.handleSessionRoster)
	r.Patch("/attendance/{attendanceID}/status", h.handleCorrectStatus)
}

func (h *Handler) handleMark(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req markRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	markReq, err := req.toMarkRequest()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	outcome, err := h.ledger.Mark(ctx, markReq)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInternal) {
			h.logger.ErrorContext(ctx, "mark attempt failed",
				"identity_ref", req.IdentityRef,
				"session_ref", req.SessionRef,
				"error", err.Error(),
			)
		}
		httputil.WriteError(w, err)
		return
	}

	// Soft verification failures are 200s with success=false; the specific
	// reason travels in the body, not the status line.
	httputil.WriteJSON(w, http.StatusOK, toMarkResponse(outcome))
}

func (h *Handler) handleSessionRoster(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sessionID, err := id.ParseSessionID(chi.URLParam(r, "sessionID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	records, err := h.ledger.ListBySession(ctx, sessionID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list session attendance",
			"session_ref", sessionID,
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, rosterResponse{
		SessionRef: sessionID.String(),
		Records:    toRecordResponses(records),
		Count:      len(records),
	})
}

type correctStatusRequest struct {
	Status      string `json:"status"`
	CorrectedBy string `json:"corrected_by"`
}

func (h *Handler) handleCorrectStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	attendanceID, err := id.ParseAttendanceID(chi.URLParam(r, "attendanceID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req correctStatusRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	record, err := h.ledger.Correct(ctx, attendanceID, attendance.Status(req.Status), req.CorrectedBy)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInternal) {
			h.logger.ErrorContext(ctx, "failed to correct attendance status",
				"attendance_id", attendanceID,
				"error", err.Error(),
			)
		}
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, toRecordResponse(record))
}
