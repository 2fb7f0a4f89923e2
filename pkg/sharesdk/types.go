package sharesdk

import (
	"encoding/json"
	"time"
)

// ============================================================================
// Error and Health Types
// ============================================================================

// ErrorResponse is the JSON error envelope returned by every endpoint.
type ErrorResponse struct {
	// Error is a machine-readable code such as "patient_not_found"
	Error string `json:"error"`

	// ErrorDescription is a human-readable description of the error
	ErrorDescription string `json:"error_description,omitempty"`
}

type HealthChecks struct {
	Database string `json:"database"`
	Keys     string `json:"keys"`
}

type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime"`
	Version string        `json:"version"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

// ============================================================================
// Patient and Access Types
// ============================================================================

// PatientInfo is the demographic view of a patient record.
type PatientInfo struct {
	ID           string   `json:"id"`
	OwnerUserID  string   `json:"owner_user_id"`
	IsSelfRecord bool     `json:"is_self_record"`
	PrivacyLevel string   `json:"privacy_level"`
	FirstName    string   `json:"first_name,omitempty"`
	LastName     string   `json:"last_name,omitempty"`
	BirthDate    string   `json:"birth_date,omitempty"` // YYYY-MM-DD
	Gender       string   `json:"gender,omitempty"`
	BloodType    string   `json:"blood_type,omitempty"`
	HeightCM     *float64 `json:"height_cm,omitempty"`
	WeightKG     *float64 `json:"weight_kg,omitempty"`
}

type AccessiblePatientsResponse struct {
	Patients []PatientInfo `json:"patients"`
}

// AccessContextResponse explains how the caller reaches a patient.
type AccessContextResponse struct {
	PatientID       string     `json:"patient_id"`
	UserID          string     `json:"user_id"`
	AccessType      string     `json:"access_type"` // owner, individual_share or none
	PermissionLevel string     `json:"permission_level,omitempty"`
	ExpiresAt       *time.Time `json:"expires_at,omitempty"`
}

// ============================================================================
// Share Types
// ============================================================================

type ShareInfo struct {
	ID                string         `json:"id"`
	PatientID         string         `json:"patient_id"`
	SharedByUserID    string         `json:"shared_by_user_id"`
	SharedWithUserID  string         `json:"shared_with_user_id"`
	PermissionLevel   string         `json:"permission_level"`
	IsActive          bool           `json:"is_active"`
	ExpiresAt         *time.Time     `json:"expires_at,omitempty"`
	CustomPermissions map[string]any `json:"custom_permissions,omitempty"`
	InvitationID      *string        `json:"invitation_id,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

type ListSharesResponse struct {
	Shares []ShareInfo `json:"shares"`
}

// UpdateShareRequest changes an existing share. Omitted fields are left as
// they are; ClearExpiry removes any expiry.
type UpdateShareRequest struct {
	PermissionLevel   *string        `json:"permission_level,omitempty"`
	ExpiresAt         *time.Time     `json:"expires_at,omitempty"`
	ClearExpiry       bool           `json:"clear_expiry,omitempty"`
	CustomPermissions map[string]any `json:"custom_permissions,omitempty"`
}

type SharedWithMeEntry struct {
	Share   ShareInfo   `json:"share"`
	Patient PatientInfo `json:"patient"`
}

type SharedWithMeResponse struct {
	Patients []SharedWithMeEntry `json:"patients"`
}

// ============================================================================
// Invitation Types
// ============================================================================

// SendShareRequest invites a recipient, named by email or username, to one
// patient record.
type SendShareRequest struct {
	Recipient         string         `json:"recipient"`
	PermissionLevel   string         `json:"permission_level"`
	ExpiresAt         *time.Time     `json:"expires_at,omitempty"` // expiry of the share once granted
	CustomPermissions map[string]any `json:"custom_permissions,omitempty"`
	Message           string         `json:"message,omitempty"`
	ExpiresHours      int            `json:"expires_hours,omitempty"` // lifetime of the invitation
}

// BulkSendRequest invites a recipient to up to fifty patient records with a
// single invitation.
type BulkSendRequest struct {
	PatientIDs        []string       `json:"patient_ids"`
	Recipient         string         `json:"recipient"`
	PermissionLevel   string         `json:"permission_level"`
	ExpiresAt         *time.Time     `json:"expires_at,omitempty"`
	CustomPermissions map[string]any `json:"custom_permissions,omitempty"`
	Message           string         `json:"message,omitempty"`
	ExpiresHours      int            `json:"expires_hours,omitempty"`
}

type BulkSendResponse struct {
	InvitationID string `json:"invitation_id"`
	PatientCount int    `json:"patient_count"`
}

type InvitationInfo struct {
	ID           string          `json:"id"`
	SentByUserID string          `json:"sent_by_user_id"`
	SentToUserID string          `json:"sent_to_user_id"`
	Type         string          `json:"invitation_type"`
	Status       string          `json:"status"`
	Title        string          `json:"title"`
	Message      string          `json:"message,omitempty"`
	Context      json.RawMessage `json:"context,omitempty" swaggertype:"object"`
	ExpiresAt    *time.Time      `json:"expires_at,omitempty"`
	RespondedAt  *time.Time      `json:"responded_at,omitempty"`
	ResponseNote string          `json:"response_note,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

type ListInvitationsResponse struct {
	Invitations []InvitationInfo `json:"invitations"`
}

// RespondRequest carries the optional note left when accepting, rejecting or
// cancelling an invitation.
type RespondRequest struct {
	Note string `json:"note,omitempty"`
}

type AcceptResponse struct {
	Invitation InvitationInfo `json:"invitation"`
	Shares     []ShareInfo    `json:"shares"`
	Bulk       bool           `json:"bulk"`
}

// ============================================================================
// Admin Types
// ============================================================================

type TransferRequest struct {
	NewOwnerID string `json:"new_owner_id"`
}

type TransferResponse struct {
	PatientID            string `json:"patient_id"`
	NewOwnerID           string `json:"new_owner_id"`
	OriginalOwnerID      string `json:"original_owner_id"`
	ReplacementCreated   bool   `json:"replacement_created"`
	ReplacementPatientID string `json:"replacement_patient_id,omitempty"`
	EditShareGranted     bool   `json:"edit_share_granted"`
	EditShareID          string `json:"edit_share_id,omitempty"`
}
