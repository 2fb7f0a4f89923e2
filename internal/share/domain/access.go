package domain

import "time"

type AccessType string

const (
	AccessOwner           AccessType = "owner"
	AccessIndividualShare AccessType = "individual_share"
	AccessFamily          AccessType = "family" // reserved for family/group access
	AccessNone            AccessType = "none"
)

// AccessContext describes how a user reaches a patient record.
type AccessContext struct {
	PatientID       string
	UserID          string
	AccessType      AccessType
	PermissionLevel PermissionLevel // empty when AccessType is none
	ExpiresAt       *time.Time
}

func (c AccessContext) HasAccess() bool { return c.AccessType != AccessNone }
