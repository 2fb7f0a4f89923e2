package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/aussiebroadwan/medshare/internal/share/service"
	"github.com/aussiebroadwan/medshare/pkg/httpx"
	"github.com/aussiebroadwan/medshare/pkg/sharesdk"
	"github.com/aussiebroadwan/medshare/pkg/slogx"
)

type errorMapping struct {
	err    error
	status int
	code   string
}

// serviceErrors maps service sentinels to responses. Anything not listed is
// a 500.
var serviceErrors = []errorMapping{
	{service.ErrValidation, http.StatusBadRequest, sharesdk.ErrorCodeValidation},
	{service.ErrInvalidPermissionLevel, http.StatusBadRequest, sharesdk.ErrorCodeInvalidPermission},
	{service.ErrSelfShareAttempt, http.StatusBadRequest, sharesdk.ErrorCodeSelfShare},
	{service.ErrPatientNotFound, http.StatusNotFound, sharesdk.ErrorCodePatientNotFound},
	{service.ErrUserNotFound, http.StatusNotFound, sharesdk.ErrorCodeUserNotFound},
	{service.ErrRecipientNotFound, http.StatusNotFound, sharesdk.ErrorCodeRecipientNotFound},
	{service.ErrShareNotFound, http.StatusNotFound, sharesdk.ErrorCodeShareNotFound},
	{service.ErrInvitationNotPendingOrNotFound, http.StatusNotFound, sharesdk.ErrorCodeInvitationNotFound},
	{service.ErrInvitationExpired, http.StatusGone, sharesdk.ErrorCodeInvitationExpired},
	{service.ErrInvalidTransition, http.StatusConflict, sharesdk.ErrorCodeInvalidTransition},
	{service.ErrAlreadyShared, http.StatusConflict, sharesdk.ErrorCodeAlreadyShared},
	{service.ErrPendingInvitationExists, http.StatusConflict, sharesdk.ErrorCodePendingInvitation},
	{service.ErrTransferFailed, http.StatusConflict, sharesdk.ErrorCodeTransferFailed},
	{service.ErrAccessDenied, http.StatusForbidden, sharesdk.ErrorCodeAccessDenied},
	{service.ErrPermissionDenied, http.StatusForbidden, sharesdk.ErrorCodePermissionDenied},
}

func statusFor(err error) (int, string) {
	for _, m := range serviceErrors {
		if errors.Is(err, m.err) {
			return m.status, m.code
		}
	}
	return http.StatusInternalServerError, sharesdk.ErrorCodeServerError
}

// writeServiceError answers with the status mapped from err. Unmapped
// errors are logged under msg and hidden from the caller.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	status, code := statusFor(err)
	if status == http.StatusInternalServerError {
		slogx.FromContext(r.Context()).Error(msg, slog.Any("error", err))
		httpx.WriteError(w, status, code, msg)
		return
	}
	httpx.WriteError(w, status, code, err.Error())
}

func writeBadRequest(w http.ResponseWriter, desc string) {
	httpx.WriteError(w, http.StatusBadRequest, sharesdk.ErrorCodeInvalidRequest, desc)
}
