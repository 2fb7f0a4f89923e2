package http

import (
	"net/http"

	"github.com/aussiebroadwan/medshare/internal/share/domain"
	"github.com/aussiebroadwan/medshare/internal/share/service"
	"github.com/aussiebroadwan/medshare/pkg/httpx"
	"github.com/aussiebroadwan/medshare/pkg/sharesdk"
)

// SharesHandler manages the shares on a patient the caller owns.
type SharesHandler struct {
	Sharing *service.SharingService
}

// HandleList handles GET /v1/patients/{id}/shares
//
//	@Summary		List Patient Shares
//	@Description	Returns the live shares on a patient. Only the owner may list them.
//	@Tags			Shares
//	@Produce		json
//	@Security		BearerAuth
//	@Param			Authorization	header		string						true	"Bearer token with share:read scope"
//	@Param			id				path		string						true	"Patient ID"
//	@Success		200				{object}	sharesdk.ListSharesResponse	"Live shares"
//	@Failure		401				{object}	sharesdk.ErrorResponse		"error, error_description"
//	@Failure		403				{object}	sharesdk.ErrorResponse		"error, error_description"
//	@Failure		404				{object}	sharesdk.ErrorResponse		"error, error_description"
//	@Router			/v1/patients/{id}/shares [get].
func (h *SharesHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, _ := httpx.UserIDFromContext(ctx)

	shares, err := h.Sharing.GetPatientShares(ctx, userID, r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err, "failed to list patient shares")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, sharesdk.ListSharesResponse{Shares: toShareInfos(shares)})
}

// HandleUpdate handles PATCH /v1/patients/{id}/shares/{user_id}
//
//	@Summary		Update Patient Share
//	@Description	Changes the permission level, expiry or custom permissions of an active share.
//	@Tags			Shares
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			Authorization	header		string						true	"Bearer token with share:write scope"
//	@Param			id				path		string						true	"Patient ID"
//	@Param			user_id			path		string						true	"ID of the user the patient is shared with"
//	@Param			request			body		sharesdk.UpdateShareRequest	true	"Fields to change"
//	@Success		200				{object}	sharesdk.ShareInfo			"Updated share"
//	@Failure		400				{object}	sharesdk.ErrorResponse		"error, error_description"
//	@Failure		401				{object}	sharesdk.ErrorResponse		"error, error_description"
//	@Failure		403				{object}	sharesdk.ErrorResponse		"error, error_description"
//	@Failure		404				{object}	sharesdk.ErrorResponse		"error, error_description"
//	@Router			/v1/patients/{id}/shares/{user_id} [patch].
func (h *SharesHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, _ := httpx.UserIDFromContext(ctx)

	var req sharesdk.UpdateShareRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		writeBadRequest(w, "Invalid JSON in request body")
		return
	}

	params := service.UpdateShareParams{
		ExpiresAt:         req.ExpiresAt,
		ClearExpiry:       req.ClearExpiry,
		CustomPermissions: req.CustomPermissions,
	}
	if req.PermissionLevel != nil {
		level := domain.PermissionLevel(*req.PermissionLevel)
		params.PermissionLevel = &level
	}

	share, err := h.Sharing.UpdatePatientShare(ctx, userID, r.PathValue("id"), r.PathValue("user_id"), params)
	if err != nil {
		writeServiceError(w, r, err, "failed to update patient share")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, toShareInfo(share))
}

// HandleRevoke handles DELETE /v1/patients/{id}/shares/{user_id}
//
//	@Summary		Revoke Patient Share
//	@Description	Deactivates the share. The invitation behind it moves to revoked once none of its shares remain.
//	@Tags			Shares
//	@Produce		json
//	@Security		BearerAuth
//	@Param			Authorization	header	string	true	"Bearer token with share:write scope"
//	@Param			id				path	string	true	"Patient ID"
//	@Param			user_id			path	string	true	"ID of the user the patient is shared with"
//	@Success		204				"Share revoked"
//	@Failure		401				{object}	sharesdk.ErrorResponse	"error, error_description"
//	@Failure		403				{object}	sharesdk.ErrorResponse	"error, error_description"
//	@Failure		404				{object}	sharesdk.ErrorResponse	"error, error_description"
//	@Router			/v1/patients/{id}/shares/{user_id} [delete].
func (h *SharesHandler) HandleRevoke(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, _ := httpx.UserIDFromContext(ctx)

	revoked, err := h.Sharing.RevokePatientShare(ctx, userID, r.PathValue("id"), r.PathValue("user_id"))
	if err != nil {
		writeServiceError(w, r, err, "failed to revoke patient share")
		return
	}
	if !revoked {
		httpx.WriteError(w, http.StatusNotFound, sharesdk.ErrorCodeShareNotFound, "no active share for this user")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
