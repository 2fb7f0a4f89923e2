package domain

import (
	"slices"
	"time"
)

type (
	InvitationStatus string
	InvitationType   string
)

const (
	StatusPending   InvitationStatus = "pending"
	StatusAccepted  InvitationStatus = "accepted"
	StatusRejected  InvitationStatus = "rejected"
	StatusExpired   InvitationStatus = "expired"
	StatusCancelled InvitationStatus = "cancelled"
	StatusRevoked   InvitationStatus = "revoked"

	TypePatientShare       InvitationType = "patient_share"
	TypeFamilyHistoryShare InvitationType = "family_history_share"
)

// transitions lists the only legal status changes. Pending is the sole
// non-terminal state; accepted may still move to revoked once the grant it
// produced has been undone.
var transitions = map[InvitationStatus][]InvitationStatus{
	StatusPending:  {StatusAccepted, StatusRejected, StatusExpired, StatusCancelled},
	StatusAccepted: {StatusRevoked},
}

func (s InvitationStatus) Valid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusRejected, StatusExpired, StatusCancelled, StatusRevoked:
		return true
	}
	return false
}

func (s InvitationStatus) IsTerminal() bool { return s != StatusPending }

// CanTransitionTo reports whether moving from s to next is allowed.
func (s InvitationStatus) CanTransitionTo(next InvitationStatus) bool {
	return slices.Contains(transitions[s], next)
}

func (t InvitationType) Valid() bool {
	return t == TypePatientShare || t == TypeFamilyHistoryShare
}

type Invitation struct {
	ID           string
	SentByUserID string
	SentToUserID string
	Type         InvitationType
	Status       InvitationStatus
	Title        string
	Message      string
	Context      []byte // JSON payload, see DecodeContext
	ExpiresAt    *time.Time
	RespondedAt  *time.Time
	ResponseNote string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsExpired reports whether the invitation has an expiry at or before now.
func (i Invitation) IsExpired(now time.Time) bool {
	return i.ExpiresAt != nil && !i.ExpiresAt.After(now)
}

// StatusChange is a compare-and-set request for an invitation status.
type StatusChange struct {
	InvitationID string
	From         InvitationStatus
	To           InvitationStatus
	RespondedAt  *time.Time
	ResponseNote string
	At           time.Time
}
