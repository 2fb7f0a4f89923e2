package http

import (
	"net/http"

	"github.com/aussiebroadwan/medshare/internal/share/domain"
	"github.com/aussiebroadwan/medshare/internal/share/service"
	"github.com/aussiebroadwan/medshare/pkg/httpx"
	"github.com/aussiebroadwan/medshare/pkg/sharesdk"
)

// PatientsHandler answers what the caller can reach.
type PatientsHandler struct {
	Access  *service.AccessResolver
	Sharing *service.SharingService
}

// HandleAccessible handles GET /v1/patients/accessible
//
//	@Summary		List Accessible Patients
//	@Description	Returns every patient the caller owns plus those reachable through a live share at the requested level.
//	@Tags			Patients
//	@Produce		json
//	@Security		BearerAuth
//	@Param			Authorization	header		string								true	"Bearer token with share:read scope"
//	@Param			permission		query		string								false	"Minimum permission level (view, edit, full)"	default(view)
//	@Success		200				{object}	sharesdk.AccessiblePatientsResponse	"Accessible patients ordered by id"
//	@Failure		400				{object}	sharesdk.ErrorResponse				"error, error_description"
//	@Failure		401				{object}	sharesdk.ErrorResponse				"error, error_description"
//	@Failure		500				{object}	sharesdk.ErrorResponse				"error, error_description"
//	@Router			/v1/patients/accessible [get].
func (h *PatientsHandler) HandleAccessible(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, _ := httpx.UserIDFromContext(ctx)

	level := domain.PermissionView
	if q := r.URL.Query().Get("permission"); q != "" {
		level = domain.PermissionLevel(q)
	}

	patients, err := h.Access.GetAccessiblePatients(ctx, userID, level)
	if err != nil {
		writeServiceError(w, r, err, "failed to list accessible patients")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, sharesdk.AccessiblePatientsResponse{
		Patients: toPatientInfos(patients),
	})
}

// HandleAccess handles GET /v1/patients/{id}/access
//
//	@Summary		Describe Patient Access
//	@Description	Explains how the caller reaches the patient: as owner or through an individual share.
//	@Tags			Patients
//	@Produce		json
//	@Security		BearerAuth
//	@Param			Authorization	header		string							true	"Bearer token with share:read scope"
//	@Param			id				path		string							true	"Patient ID"
//	@Success		200				{object}	sharesdk.AccessContextResponse	"Access context"
//	@Failure		401				{object}	sharesdk.ErrorResponse			"error, error_description"
//	@Failure		403				{object}	sharesdk.ErrorResponse			"error, error_description"
//	@Failure		404				{object}	sharesdk.ErrorResponse			"error, error_description"
//	@Router			/v1/patients/{id}/access [get].
func (h *PatientsHandler) HandleAccess(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, _ := httpx.UserIDFromContext(ctx)

	ac, err := h.Access.GetPatientContextByID(ctx, userID, r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err, "failed to resolve patient access")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, toAccessContext(ac))
}

// HandleSharedWithMe handles GET /v1/shared-with-me
//
//	@Summary		List Patients Shared With Me
//	@Description	Returns the live shares the caller holds on other users' patients. Private records are left out.
//	@Tags			Patients
//	@Produce		json
//	@Security		BearerAuth
//	@Param			Authorization	header		string							true	"Bearer token with share:read scope"
//	@Success		200				{object}	sharesdk.SharedWithMeResponse	"Shares with their patients"
//	@Failure		401				{object}	sharesdk.ErrorResponse			"error, error_description"
//	@Failure		500				{object}	sharesdk.ErrorResponse			"error, error_description"
//	@Router			/v1/shared-with-me [get].
func (h *PatientsHandler) HandleSharedWithMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, _ := httpx.UserIDFromContext(ctx)

	shared, err := h.Sharing.GetSharedWithMe(ctx, userID)
	if err != nil {
		writeServiceError(w, r, err, "failed to list shared patients")
		return
	}

	entries := make([]sharesdk.SharedWithMeEntry, len(shared))
	for i, sp := range shared {
		entries[i] = sharesdk.SharedWithMeEntry{
			Share:   toShareInfo(sp.Share),
			Patient: toPatientInfo(sp.Patient),
		}
	}
	httpx.WriteJSON(w, http.StatusOK, sharesdk.SharedWithMeResponse{Patients: entries})
}
