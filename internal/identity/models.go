// Package identity exposes the read model for enrolled identities. The
// identity-management collaborator owns these records; this service only
// reads templates for verification and duplicate-face scanning.
package identity

import (
	id "rollcall/pkg/domain"
)

// EnrolledIdentity carries the stored biometric templates and document
// reference data for one identity.
type EnrolledIdentity struct {
	ID        id.IdentityID
	Partition id.PartitionID
	FullName  string
	RollCode  string

	// FaceTemplate is the serialized face embedding, nil when absent.
	FaceTemplate []byte
	// FingerprintHash is the bcrypt digest of the enrollment token, empty when absent.
	FingerprintHash string
}

// HasFace reports whether a face template is enrolled.
func (e *EnrolledIdentity) HasFace() bool {
	return len(e.FaceTemplate) > 0
}

// HasFingerprint reports whether a fingerprint digest is enrolled.
func (e *EnrolledIdentity) HasFingerprint() bool {
	return e.FingerprintHash != ""
}

// HasDocument reports whether document reference data is enrolled. The roll
// code is the document key; a name alone cannot anchor a comparison.
func (e *EnrolledIdentity) HasDocument() bool {
	return e.RollCode != "" && e.FullName != ""
}

// Enrolled reports whether at least one template is present. Identities
// without any template cannot attempt verification at all.
func (e *EnrolledIdentity) Enrolled() bool {
	return e.HasFace() || e.HasFingerprint() || e.HasDocument()
}

// FaceTemplate pairs an identity reference with its stored face embedding,
// for partition-scoped duplicate-face scans.
type FaceTemplate struct {
	IdentityID id.IdentityID
	Template   []byte
}
