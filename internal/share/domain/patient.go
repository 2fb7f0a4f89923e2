package domain

import "time"

type PrivacyLevel string

const (
	PrivacyDefault PrivacyLevel = "default"
	PrivacyPrivate PrivacyLevel = "private"
)

type Patient struct {
	ID           string
	OwnerUserID  string
	IsSelfRecord bool
	PrivacyLevel PrivacyLevel

	FirstName   string
	LastName    string
	BirthDate   *time.Time
	Gender      string
	BloodType   string
	HeightCM    *float64
	WeightKG    *float64
	Address     string
	PhysicianID *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// FullName joins the name parts, skipping whichever is empty.
func (p Patient) FullName() string {
	switch {
	case p.FirstName == "":
		return p.LastName
	case p.LastName == "":
		return p.FirstName
	default:
		return p.FirstName + " " + p.LastName
	}
}

func (p Patient) IsPrivate() bool { return p.PrivacyLevel == PrivacyPrivate }

// CopyDemographics returns a new, unsaved patient carrying p's demographic
// fields. Identity, ownership and flags are left for the caller to set.
func (p Patient) CopyDemographics() Patient {
	cp := Patient{
		PrivacyLevel: p.PrivacyLevel,
		FirstName:    p.FirstName,
		LastName:     p.LastName,
		Gender:       p.Gender,
		BloodType:    p.BloodType,
		Address:      p.Address,
	}
	if p.BirthDate != nil {
		bd := *p.BirthDate
		cp.BirthDate = &bd
	}
	if p.HeightCM != nil {
		h := *p.HeightCM
		cp.HeightCM = &h
	}
	if p.WeightKG != nil {
		w := *p.WeightKG
		cp.WeightKG = &w
	}
	if p.PhysicianID != nil {
		ph := *p.PhysicianID
		cp.PhysicianID = &ph
	}
	if cp.PrivacyLevel == "" {
		cp.PrivacyLevel = PrivacyDefault
	}
	return cp
}
