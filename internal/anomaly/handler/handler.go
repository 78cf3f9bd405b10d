// Package handler exposes the anomaly review surface: a filterable listing
// and terminal resolution.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"rollcall/internal/anomaly"
	id "rollcall/pkg/domain"
	dErrors "rollcall/pkg/domain-errors"
	"rollcall/pkg/platform/httputil"
)

// Service is the consumer-side slice of the anomaly service.
type Service interface {
	List(ctx context.Context, filter anomaly.Filter) ([]anomaly.Record, error)
	Resolve(ctx context.Context, anomalyID id.AnomalyID, resolvedBy, notes string) (*anomaly.Record, error)
}

// Handler handles anomaly review endpoints.
type Handler struct {
	anomalies Service
	logger    *slog.Logger
}

// New creates the anomaly handler.
func New(anomalies Service, logger *slog.Logger) *Handler {
	return &Handler{anomalies: anomalies, logger: logger}
}

// Register mounts the anomaly routes.
func (h *Handler) Register(r chi.Router) {
	r.Get("/anomalies", h.handleList)
	r.Post("/anomalies/{anomalyID}/resolve", h.handleResolve)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	filter, err := filterFromQuery(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	records, err := h.anomalies.List(ctx, filter)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list anomalies", "error", err.Error())
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, listResponse{
		Anomalies: toResponses(records),
		Count:     len(records),
	})
}

type resolveRequest struct {
	ResolvedBy string `json:"resolved_by"`
	Notes      string `json:"notes"`
}

func (h *Handler) handleResolve(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	anomalyID, err := id.ParseAnomalyID(chi.URLParam(r, "anomalyID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req resolveRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	record, err := h.anomalies.Resolve(ctx, anomalyID, req.ResolvedBy, req.Notes)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInternal) {
			h.logger.ErrorContext(ctx, "failed to resolve anomaly",
				"anomaly_id", anomalyID,
				"error", err.Error(),
			)
		}
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, toResponse(record))
}

func filterFromQuery(r *http.Request) (anomaly.Filter, error) {
	var filter anomaly.Filter
	query := r.URL.Query()

	if raw := query.Get("resolved"); raw != "" {
		resolved, err := strconv.ParseBool(raw)
		if err != nil {
			return filter, dErrors.New(dErrors.CodeInvalidInput, "resolved must be true or false")
		}
		filter.Resolved = &resolved
	}
	filter.Severity = anomaly.Severity(query.Get("severity"))
	filter.Type = anomaly.Type(query.Get("type"))
	if raw := query.Get("session_ref"); raw != "" {
		sessionID, err := id.ParseSessionID(raw)
		if err != nil {
			return filter, err
		}
		filter.SessionID = sessionID
	}
	if raw := query.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			return filter, dErrors.New(dErrors.CodeInvalidInput, "limit must be a positive integer")
		}
		filter.Limit = limit
	}

	return filter, nil
}

type anomalyResponse struct {
	ID              string         `json:"id"`
	IdentityRef     string         `json:"identity_ref,omitempty"`
	SessionRef      string         `json:"session_ref,omitempty"`
	Type            string         `json:"type"`
	Severity        string         `json:"severity"`
	Reason          string         `json:"reason"`
	Details         map[string]any `json:"details,omitempty"`
	Resolved        bool           `json:"resolved"`
	ResolvedBy      string         `json:"resolved_by,omitempty"`
	ResolutionNotes string         `json:"resolution_notes,omitempty"`
	ResolvedAt      *time.Time     `json:"resolved_at,omitempty"`
	OccurredAt      time.Time      `json:"occurred_at"`
	SourceAddress   string         `json:"source_address,omitempty"`
	DeviceInfo      string         `json:"device_info,omitempty"`
}

type listResponse struct {
	Anomalies []anomalyResponse `json:"anomalies"`
	Count     int               `json:"count"`
}

func toResponse(record *anomaly.Record) anomalyResponse {
	resp := anomalyResponse{
		ID:              record.ID.String(),
		Type:            string(record.Type),
		Severity:        string(record.Severity),
		Reason:          record.Reason,
		Details:         record.Details,
		Resolved:        record.Resolved,
		ResolvedBy:      record.ResolvedBy,
		ResolutionNotes: record.ResolutionNotes,
		ResolvedAt:      record.ResolvedAt,
		OccurredAt:      record.OccurredAt,
		SourceAddress:   record.SourceAddress,
		DeviceInfo:      record.DeviceInfo,
	}
	if !record.IdentityID.IsNil() {
		resp.IdentityRef = record.IdentityID.String()
	}
	if !record.SessionID.IsNil() {
		resp.SessionRef = record.SessionID.String()
	}
	return resp
}

func toResponses(records []anomaly.Record) []anomalyResponse {
	responses := make([]anomalyResponse, 0, len(records))
	for i := range records {
		responses = append(responses, toResponse(&records[i]))
	}
	return responses
}
