package domain

import (
	"fmt"
	"time"
)

type PermissionLevel string

const (
	PermissionView PermissionLevel = "view"
	PermissionEdit PermissionLevel = "edit"
	PermissionFull PermissionLevel = "full"
)

var permissionRanks = map[PermissionLevel]int{
	PermissionView: 1,
	PermissionEdit: 2,
	PermissionFull: 3,
}

// ParsePermissionLevel validates s against the known levels.
func ParsePermissionLevel(s string) (PermissionLevel, error) {
	level := PermissionLevel(s)
	if _, ok := permissionRanks[level]; !ok {
		return "", fmt.Errorf("unknown permission level %q", s)
	}
	return level, nil
}

// Rank is 0 for unknown levels so they never satisfy anything.
func (l PermissionLevel) Rank() int { return permissionRanks[l] }

func (l PermissionLevel) Valid() bool { return l.Rank() > 0 }

// Satisfies reports whether a grant at level l covers a request for required.
func (l PermissionLevel) Satisfies(required PermissionLevel) bool {
	return l.Valid() && required.Valid() && l.Rank() >= required.Rank()
}

type PatientShare struct {
	ID                string
	PatientID         string
	SharedByUserID    string
	SharedWithUserID  string
	PermissionLevel   PermissionLevel
	IsActive          bool
	ExpiresAt         *time.Time
	CustomPermissions map[string]any
	InvitationID      *string // Invitation the share was created from (nullable)
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// IsExpired reports whether the share has an expiry at or before now.
func (s PatientShare) IsExpired(now time.Time) bool {
	return s.ExpiresAt != nil && !s.ExpiresAt.After(now)
}

// Grants reports whether the share is live at now and covers required.
func (s PatientShare) Grants(required PermissionLevel, now time.Time) bool {
	return s.IsActive && !s.IsExpired(now) && s.PermissionLevel.Satisfies(required)
}
