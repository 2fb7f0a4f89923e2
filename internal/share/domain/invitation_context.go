package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var ErrUnknownContext = errors.New("domain: unknown invitation context")

// InvitationContext is the typed payload carried by an invitation. Each
// invitation type has its own variant; callers switch on the concrete type.
type InvitationContext interface {
	InvitationType() InvitationType
}

// PatientShareContext is the payload of a single-patient share invitation.
type PatientShareContext struct {
	PatientID         string          `json:"patient_id"`
	PatientName       string          `json:"patient_name"`
	PatientBirthDate  string          `json:"patient_birth_date,omitempty"`
	PermissionLevel   PermissionLevel `json:"permission_level"`
	CustomPermissions map[string]any  `json:"custom_permissions,omitempty"`
	ExpiresAt         *time.Time      `json:"expires_at,omitempty"`
}

func (PatientShareContext) InvitationType() InvitationType { return TypePatientShare }

type BulkPatientEntry struct {
	PatientID        string `json:"patient_id"`
	PatientName      string `json:"patient_name"`
	PatientBirthDate string `json:"patient_birth_date,omitempty"`
}

// BulkPatientShareContext is the payload of a bulk share invitation. It is
// stored under the patient_share type with is_bulk_invite set.
type BulkPatientShareContext struct {
	IsBulkInvite      bool               `json:"is_bulk_invite"`
	Patients          []BulkPatientEntry `json:"patients"`
	PatientCount      int                `json:"patient_count"`
	PermissionLevel   PermissionLevel    `json:"permission_level"`
	CustomPermissions map[string]any     `json:"custom_permissions,omitempty"`
	ExpiresAt         *time.Time         `json:"expires_at,omitempty"`
}

func (BulkPatientShareContext) InvitationType() InvitationType { return TypePatientShare }

// FamilyHistoryShareContext is the payload of a family history share invitation.
type FamilyHistoryShareContext struct {
	PatientID    string   `json:"patient_id"`
	PatientName  string   `json:"patient_name"`
	ConditionIDs []string `json:"condition_ids,omitempty"`
	IncludeAll   bool     `json:"include_all"`
	Relationship string   `json:"relationship,omitempty"`
}

func (FamilyHistoryShareContext) InvitationType() InvitationType { return TypeFamilyHistoryShare }

// EncodeContext serialises a payload for storage.
func EncodeContext(c InvitationContext) ([]byte, error) {
	if c == nil {
		return nil, nil
	}
	if bulk, ok := c.(BulkPatientShareContext); ok {
		bulk.IsBulkInvite = true
		bulk.PatientCount = len(bulk.Patients)
		c = bulk
	}
	return json.Marshal(c)
}

// DecodeContext parses a stored payload into the variant matching t.
func DecodeContext(t InvitationType, raw []byte) (InvitationContext, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty payload for %s", ErrUnknownContext, t)
	}

	switch t {
	case TypePatientShare:
		var probe struct {
			IsBulkInvite bool `json:"is_bulk_invite"`
		}
		if err := json.Unmarshal(raw, &probe); err != nil {
			return nil, err
		}
		if probe.IsBulkInvite {
			var c BulkPatientShareContext
			if err := json.Unmarshal(raw, &c); err != nil {
				return nil, err
			}
			return c, nil
		}
		var c PatientShareContext
		if err := json.Unmarshal(raw, &c); err != nil {
			return nil, err
		}
		return c, nil
	case TypeFamilyHistoryShare:
		var c FamilyHistoryShareContext
		if err := json.Unmarshal(raw, &c); err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownContext, t)
	}
}
