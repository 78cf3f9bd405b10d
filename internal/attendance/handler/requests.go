package handler

import (
	"encoding/base64"
	"time"

	"rollcall/internal/attendance"
	"rollcall/internal/verify"
	id "rollcall/pkg/domain"
	dErrors "rollcall/pkg/domain-errors"
)

// markRequest is the wire form of one mark attempt. Binary factor payloads
// travel base64-encoded.
type markRequest struct {
	IdentityRef      string `json:"identity_ref"`
	SessionRef       string `json:"session_ref"`
	FaceImage        string `json:"face_image,omitempty"`
	DocumentImage    string `json:"id_document_image,omitempty"`
	FingerprintToken string `json:"fingerprint_token,omitempty"`
}

func (r markRequest) toMarkRequest() (attendance.MarkRequest, error) {
	identityID, err := id.ParseIdentityID(r.IdentityRef)
	if err != nil {
		return attendance.MarkRequest{}, err
	}
	sessionID, err := id.ParseSessionID(r.SessionRef)
	if err != nil {
		return attendance.MarkRequest{}, err
	}

	var factors verify.FactorInput
	if r.FaceImage != "" {
		factors.Face, err = base64.StdEncoding.DecodeString(r.FaceImage)
		if err != nil {
			return attendance.MarkRequest{}, dErrors.New(dErrors.CodeInvalidInput,
				"face_image is not valid base64")
		}
	}
	if r.DocumentImage != "" {
		factors.Document, err = base64.StdEncoding.DecodeString(r.DocumentImage)
		if err != nil {
			return attendance.MarkRequest{}, dErrors.New(dErrors.CodeInvalidInput,
				"id_document_image is not valid base64")
		}
	}
	factors.FingerprintToken = r.FingerprintToken

	return attendance.MarkRequest{
		IdentityID: identityID,
		SessionID:  sessionID,
		Factors:    factors,
	}, nil
}

type factorResponse struct {
	Modality   string  `json:"modality"`
	Verified   bool    `json:"verified"`
	Confidence float64 `json:"confidence"`
}

type markResponse struct {
	Success           bool             `json:"success"`
	Method            string           `json:"method"`
	OverallConfidence float64          `json:"overall_confidence"`
	Message           string           `json:"message"`
	Factors           []factorResponse `json:"factors"`
	Record            *recordResponse  `json:"record,omitempty"`
}

type recordResponse struct {
	ID                 string    `json:"id"`
	IdentityRef        string    `json:"identity_ref"`
	SessionRef         string    `json:"session_ref"`
	Status             string    `json:"status"`
	FaceConfidence     *float64  `json:"face_confidence,omitempty"`
	DocumentConfidence *float64  `json:"document_confidence,omitempty"`
	FingerprintMatch   *bool     `json:"fingerprint_match,omitempty"`
	OverallConfidence  float64   `json:"overall_confidence"`
	Method             string    `json:"method"`
	MarkedAt           time.Time `json:"marked_at"`
}

type rosterResponse struct {
	SessionRef string           `json:"session_ref"`
	Records    []recordResponse `json:"records"`
	Count      int              `json:"count"`
}

func toMarkResponse(outcome *attendance.MarkOutcome) markResponse {
	resp := markResponse{
		Success:           outcome.Result.Success,
		Method:            outcome.Result.Method,
		OverallConfidence: outcome.Result.OverallConfidence,
		Message:           outcome.Result.Message,
		Factors:           make([]factorResponse, 0, len(outcome.Result.Factors)),
	}
	for _, factor := range outcome.Result.Factors {
		resp.Factors = append(resp.Factors, factorResponse{
			Modality:   string(factor.Modality),
			Verified:   factor.Verified,
			Confidence: factor.Confidence,
		})
	}
	if outcome.Record != nil {
		record := toRecordResponse(outcome.Record)
		resp.Record = &record
	}
	return resp
}

func toRecordResponse(record *attendance.Record) recordResponse {
	return recordResponse{
		ID:                 record.ID.String(),
		IdentityRef:        record.IdentityID.String(),
		SessionRef:         record.SessionID.String(),
		Status:             string(record.Status),
		FaceConfidence:     record.FaceConfidence,
		DocumentConfidence: record.DocumentConfidence,
		FingerprintMatch:   record.FingerprintMatch,
		OverallConfidence:  record.OverallConfidence,
		Method:             record.Method,
		MarkedAt:           record.MarkedAt,
	}
}

func toRecordResponses(records []attendance.Record) []recordResponse {
	out := make([]recordResponse, 0, len(records))
	for i := range records {
		out = append(out, toRecordResponse(&records[i]))
	}
	return out
}
