package http

import (
	"net/http"
	"strings"

	"github.com/aussiebroadwan/medshare/internal/share/service"
	"github.com/aussiebroadwan/medshare/pkg/httpx"
	"github.com/aussiebroadwan/medshare/pkg/sharesdk"
)

type AdminHandler struct {
	Transfer *service.TransferService
}

// HandleTransfer handles POST /v1/admin/patients/{id}/transfer
//
//	@Summary		Transfer Patient Ownership
//	@Description	Hands a patient record to a new owner, whose self-record it becomes. When it was the original
//	@Description	owner's self-record they get a copy in its place, and they keep edit access either way.
//	@Tags			Admin
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			Authorization	header		string						true	"Bearer token with admin:write scope"
//	@Param			id				path		string						true	"Patient ID"
//	@Param			request			body		sharesdk.TransferRequest	true	"New owner"
//	@Success		200				{object}	sharesdk.TransferResponse	"Transfer outcome"
//	@Failure		400				{object}	sharesdk.ErrorResponse		"error, error_description"
//	@Failure		401				{object}	sharesdk.ErrorResponse		"error, error_description"
//	@Failure		403				{object}	sharesdk.ErrorResponse		"error, error_description"
//	@Failure		404				{object}	sharesdk.ErrorResponse		"error, error_description"
//	@Failure		409				{object}	sharesdk.ErrorResponse		"error, error_description"
//	@Router			/v1/admin/patients/{id}/transfer [post].
func (h *AdminHandler) HandleTransfer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	adminID, _ := httpx.UserIDFromContext(ctx)

	var req sharesdk.TransferRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		writeBadRequest(w, "Invalid JSON in request body")
		return
	}
	if strings.TrimSpace(req.NewOwnerID) == "" {
		writeBadRequest(w, "new_owner_id is required")
		return
	}

	// The scope only opens the route; the service still checks the admin role
	res, err := h.Transfer.TransferPatientOwnership(ctx, r.PathValue("id"), req.NewOwnerID, adminID)
	if err != nil {
		writeServiceError(w, r, err, "failed to transfer patient ownership")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, toTransferResponse(res))
}
