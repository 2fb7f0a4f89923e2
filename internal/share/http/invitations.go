package http

import (
	"net/http"
	"strings"

	"github.com/aussiebroadwan/medshare/internal/share/domain"
	"github.com/aussiebroadwan/medshare/internal/share/service"
	"github.com/aussiebroadwan/medshare/pkg/httpx"
	"github.com/aussiebroadwan/medshare/pkg/sharesdk"
)

// InvitationsHandler handles sending and answering share invitations.
type InvitationsHandler struct {
	Invitations *service.InvitationService
	Sharing     *service.SharingService
}

// HandleSend handles POST /v1/patients/{id}/share-invitations
//
//	@Summary		Invite To Patient
//	@Description	Invites a recipient, named by email or username, to one patient record the caller owns.
//	@Tags			Invitations
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			Authorization	header		string						true	"Bearer token with share:write scope"
//	@Param			id				path		string						true	"Patient ID"
//	@Param			request			body		sharesdk.SendShareRequest	true	"Invitation"
//	@Success		201				{object}	sharesdk.InvitationInfo		"Pending invitation"
//	@Failure		400				{object}	sharesdk.ErrorResponse		"error, error_description"
//	@Failure		401				{object}	sharesdk.ErrorResponse		"error, error_description"
//	@Failure		403				{object}	sharesdk.ErrorResponse		"error, error_description"
//	@Failure		404				{object}	sharesdk.ErrorResponse		"error, error_description"
//	@Failure		409				{object}	sharesdk.ErrorResponse		"error, error_description"
//	@Router			/v1/patients/{id}/share-invitations [post].
func (h *InvitationsHandler) HandleSend(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, _ := httpx.UserIDFromContext(ctx)

	var req sharesdk.SendShareRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		writeBadRequest(w, "Invalid JSON in request body")
		return
	}
	if strings.TrimSpace(req.Recipient) == "" {
		writeBadRequest(w, "recipient is required")
		return
	}

	inv, err := h.Sharing.SendPatientShareInvitation(ctx, service.SendShareParams{
		OwnerID:           userID,
		PatientID:         r.PathValue("id"),
		Recipient:         req.Recipient,
		PermissionLevel:   domain.PermissionLevel(req.PermissionLevel),
		ExpiresAt:         req.ExpiresAt,
		CustomPermissions: req.CustomPermissions,
		Message:           req.Message,
		ExpiresHours:      req.ExpiresHours,
	})
	if err != nil {
		writeServiceError(w, r, err, "failed to send share invitation")
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, toInvitationInfo(inv))
}

// HandleBulkSend handles POST /v1/share-invitations/bulk
//
//	@Summary		Invite To Many Patients
//	@Description	Invites a recipient to up to fifty patients with one invitation. Either every patient
//	@Description	passes validation and a single invitation is created, or nothing is written.
//	@Tags			Invitations
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			Authorization	header		string						true	"Bearer token with share:write scope"
//	@Param			request			body		sharesdk.BulkSendRequest	true	"Bulk invitation"
//	@Success		201				{object}	sharesdk.BulkSendResponse	"invitation_id, patient_count"
//	@Failure		400				{object}	sharesdk.ErrorResponse		"error, error_description"
//	@Failure		401				{object}	sharesdk.ErrorResponse		"error, error_description"
//	@Failure		403				{object}	sharesdk.ErrorResponse		"error, error_description"
//	@Failure		404				{object}	sharesdk.ErrorResponse		"error, error_description"
//	@Failure		409				{object}	sharesdk.ErrorResponse		"error, error_description"
//	@Router			/v1/share-invitations/bulk [post].
func (h *InvitationsHandler) HandleBulkSend(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, _ := httpx.UserIDFromContext(ctx)

	var req sharesdk.BulkSendRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		writeBadRequest(w, "Invalid JSON in request body")
		return
	}
	if strings.TrimSpace(req.Recipient) == "" {
		writeBadRequest(w, "recipient is required")
		return
	}

	res, err := h.Sharing.BulkSendPatientShareInvitations(ctx, service.BulkSendParams{
		OwnerID:           userID,
		PatientIDs:        req.PatientIDs,
		Recipient:         req.Recipient,
		PermissionLevel:   domain.PermissionLevel(req.PermissionLevel),
		ExpiresAt:         req.ExpiresAt,
		CustomPermissions: req.CustomPermissions,
		Message:           req.Message,
		ExpiresHours:      req.ExpiresHours,
	})
	if err != nil {
		writeServiceError(w, r, err, "failed to send bulk share invitation")
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, sharesdk.BulkSendResponse{
		InvitationID: res.InvitationID,
		PatientCount: res.PatientCount,
	})
}

// HandlePending handles GET /v1/invitations/pending
//
//	@Summary		List Pending Invitations
//	@Description	Returns invitations awaiting the caller's response. Overdue invitations are left out.
//	@Tags			Invitations
//	@Produce		json
//	@Security		BearerAuth
//	@Param			Authorization	header		string							true	"Bearer token with share:read scope"
//	@Param			type			query		string							false	"Invitation type (patient_share, family_history_share)"
//	@Success		200				{object}	sharesdk.ListInvitationsResponse	"Pending invitations, newest first"
//	@Failure		400				{object}	sharesdk.ErrorResponse			"error, error_description"
//	@Failure		401				{object}	sharesdk.ErrorResponse			"error, error_description"
//	@Router			/v1/invitations/pending [get].
func (h *InvitationsHandler) HandlePending(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, _ := httpx.UserIDFromContext(ctx)

	typ := domain.InvitationType(r.URL.Query().Get("type"))
	if typ != "" && !typ.Valid() {
		writeBadRequest(w, "unknown invitation type")
		return
	}

	invs, err := h.Invitations.GetPendingInvitations(ctx, userID, typ)
	if err != nil {
		writeServiceError(w, r, err, "failed to list pending invitations")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, sharesdk.ListInvitationsResponse{Invitations: toInvitationInfos(invs)})
}

// HandleSent handles GET /v1/invitations/sent
//
//	@Summary		List Sent Invitations
//	@Description	Returns invitations the caller sent. Repeat status, or pass a comma separated list, to narrow the result.
//	@Tags			Invitations
//	@Produce		json
//	@Security		BearerAuth
//	@Param			Authorization	header		string							true	"Bearer token with share:read scope"
//	@Param			status			query		[]string						false	"Statuses to include"	collectionFormat(multi)
//	@Success		200				{object}	sharesdk.ListInvitationsResponse	"Sent invitations, newest first"
//	@Failure		400				{object}	sharesdk.ErrorResponse			"error, error_description"
//	@Failure		401				{object}	sharesdk.ErrorResponse			"error, error_description"
//	@Router			/v1/invitations/sent [get].
func (h *InvitationsHandler) HandleSent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, _ := httpx.UserIDFromContext(ctx)

	var statuses []domain.InvitationStatus
	for _, raw := range r.URL.Query()["status"] {
		for _, s := range strings.Split(raw, ",") {
			if s = strings.TrimSpace(s); s != "" {
				statuses = append(statuses, domain.InvitationStatus(s))
			}
		}
	}

	invs, err := h.Invitations.GetSentInvitations(ctx, userID, statuses...)
	if err != nil {
		writeServiceError(w, r, err, "failed to list sent invitations")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, sharesdk.ListInvitationsResponse{Invitations: toInvitationInfos(invs)})
}

// HandleAccept handles POST /v1/invitations/{id}/accept
//
//	@Summary		Accept Invitation
//	@Description	Accepts an invitation addressed to the caller. Share invitations grant access to the patient,
//	@Description	or to every patient of a bulk invitation the sender still owns. Repeating an accept returns the same shares.
//	@Tags			Invitations
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			Authorization	header		string					true	"Bearer token with share:write scope"
//	@Param			id				path		string					true	"Invitation ID"
//	@Param			request			body		sharesdk.RespondRequest	false	"Optional response note"
//	@Success		200				{object}	sharesdk.AcceptResponse	"Accepted invitation and the shares it produced"
//	@Failure		401				{object}	sharesdk.ErrorResponse	"error, error_description"
//	@Failure		404				{object}	sharesdk.ErrorResponse	"error, error_description"
//	@Failure		409				{object}	sharesdk.ErrorResponse	"error, error_description"
//	@Failure		410				{object}	sharesdk.ErrorResponse	"error, error_description"
//	@Router			/v1/invitations/{id}/accept [post].
func (h *InvitationsHandler) HandleAccept(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, _ := httpx.UserIDFromContext(ctx)

	var req sharesdk.RespondRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		writeBadRequest(w, "Invalid JSON in request body")
		return
	}

	res, err := h.Sharing.AcceptInvitation(ctx, userID, r.PathValue("id"), req.Note)
	if err != nil {
		writeServiceError(w, r, err, "failed to accept invitation")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, toAcceptResponse(res))
}

// HandleReject handles POST /v1/invitations/{id}/reject
//
//	@Summary		Reject Invitation
//	@Description	Declines a pending invitation addressed to the caller.
//	@Tags			Invitations
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			Authorization	header		string					true	"Bearer token with share:write scope"
//	@Param			id				path		string					true	"Invitation ID"
//	@Param			request			body		sharesdk.RespondRequest	false	"Optional response note"
//	@Success		200				{object}	sharesdk.InvitationInfo	"Rejected invitation"
//	@Failure		401				{object}	sharesdk.ErrorResponse	"error, error_description"
//	@Failure		404				{object}	sharesdk.ErrorResponse	"error, error_description"
//	@Failure		410				{object}	sharesdk.ErrorResponse	"error, error_description"
//	@Router			/v1/invitations/{id}/reject [post].
func (h *InvitationsHandler) HandleReject(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, _ := httpx.UserIDFromContext(ctx)

	var req sharesdk.RespondRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		writeBadRequest(w, "Invalid JSON in request body")
		return
	}

	inv, err := h.Invitations.RespondToInvitation(ctx, userID, r.PathValue("id"), false, req.Note)
	if err != nil {
		writeServiceError(w, r, err, "failed to reject invitation")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, toInvitationInfo(inv))
}

// HandleCancel handles POST /v1/invitations/{id}/cancel
//
//	@Summary		Cancel Invitation
//	@Description	Withdraws a pending invitation. Only its sender may cancel it.
//	@Tags			Invitations
//	@Produce		json
//	@Security		BearerAuth
//	@Param			Authorization	header		string					true	"Bearer token with share:write scope"
//	@Param			id				path		string					true	"Invitation ID"
//	@Success		200				{object}	sharesdk.InvitationInfo	"Cancelled invitation"
//	@Failure		401				{object}	sharesdk.ErrorResponse	"error, error_description"
//	@Failure		404				{object}	sharesdk.ErrorResponse	"error, error_description"
//	@Router			/v1/invitations/{id}/cancel [post].
func (h *InvitationsHandler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, _ := httpx.UserIDFromContext(ctx)

	inv, err := h.Invitations.CancelInvitation(ctx, userID, r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err, "failed to cancel invitation")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, toInvitationInfo(inv))
}
