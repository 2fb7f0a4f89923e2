package http

import (
	"encoding/json"
	"time"

	"github.com/aussiebroadwan/medshare/internal/share/domain"
	"github.com/aussiebroadwan/medshare/internal/share/service"
	"github.com/aussiebroadwan/medshare/pkg/sharesdk"
)

func toPatientInfo(p domain.Patient) sharesdk.PatientInfo {
	info := sharesdk.PatientInfo{
		ID:           p.ID,
		OwnerUserID:  p.OwnerUserID,
		IsSelfRecord: p.IsSelfRecord,
		PrivacyLevel: string(p.PrivacyLevel),
		FirstName:    p.FirstName,
		LastName:     p.LastName,
		Gender:       p.Gender,
		BloodType:    p.BloodType,
		HeightCM:     p.HeightCM,
		WeightKG:     p.WeightKG,
	}
	if p.BirthDate != nil {
		info.BirthDate = p.BirthDate.Format(time.DateOnly)
	}
	return info
}

func toPatientInfos(ps []domain.Patient) []sharesdk.PatientInfo {
	out := make([]sharesdk.PatientInfo, len(ps))
	for i, p := range ps {
		out[i] = toPatientInfo(p)
	}
	return out
}

func toShareInfo(s domain.PatientShare) sharesdk.ShareInfo {
	return sharesdk.ShareInfo{
		ID:                s.ID,
		PatientID:         s.PatientID,
		SharedByUserID:    s.SharedByUserID,
		SharedWithUserID:  s.SharedWithUserID,
		PermissionLevel:   string(s.PermissionLevel),
		IsActive:          s.IsActive,
		ExpiresAt:         s.ExpiresAt,
		CustomPermissions: s.CustomPermissions,
		InvitationID:      s.InvitationID,
		CreatedAt:         s.CreatedAt,
		UpdatedAt:         s.UpdatedAt,
	}
}

func toShareInfos(ss []domain.PatientShare) []sharesdk.ShareInfo {
	out := make([]sharesdk.ShareInfo, len(ss))
	for i, s := range ss {
		out[i] = toShareInfo(s)
	}
	return out
}

func toInvitationInfo(inv domain.Invitation) sharesdk.InvitationInfo {
	info := sharesdk.InvitationInfo{
		ID:           inv.ID,
		SentByUserID: inv.SentByUserID,
		SentToUserID: inv.SentToUserID,
		Type:         string(inv.Type),
		Status:       string(inv.Status),
		Title:        inv.Title,
		Message:      inv.Message,
		ExpiresAt:    inv.ExpiresAt,
		RespondedAt:  inv.RespondedAt,
		ResponseNote: inv.ResponseNote,
		CreatedAt:    inv.CreatedAt,
		UpdatedAt:    inv.UpdatedAt,
	}
	if len(inv.Context) > 0 {
		info.Context = json.RawMessage(inv.Context)
	}
	return info
}

func toInvitationInfos(invs []domain.Invitation) []sharesdk.InvitationInfo {
	out := make([]sharesdk.InvitationInfo, len(invs))
	for i, inv := range invs {
		out[i] = toInvitationInfo(inv)
	}
	return out
}

func toAccessContext(ac domain.AccessContext) sharesdk.AccessContextResponse {
	return sharesdk.AccessContextResponse{
		PatientID:       ac.PatientID,
		UserID:          ac.UserID,
		AccessType:      string(ac.AccessType),
		PermissionLevel: string(ac.PermissionLevel),
		ExpiresAt:       ac.ExpiresAt,
	}
}

func toAcceptResponse(res service.AcceptResult) sharesdk.AcceptResponse {
	return sharesdk.AcceptResponse{
		Invitation: toInvitationInfo(res.Invitation),
		Shares:     toShareInfos(res.Shares),
		Bulk:       res.Bulk,
	}
}

func toTransferResponse(res service.TransferResult) sharesdk.TransferResponse {
	return sharesdk.TransferResponse{
		PatientID:            res.PatientID,
		NewOwnerID:           res.NewOwnerID,
		OriginalOwnerID:      res.OriginalOwnerID,
		ReplacementCreated:   res.ReplacementCreated,
		ReplacementPatientID: res.ReplacementPatientID,
		EditShareGranted:     res.EditShareGranted,
		EditShareID:          res.EditShareID,
	}
}
