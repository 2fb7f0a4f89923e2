package sharesdk

import (
	"errors"
	"fmt"
)

// Error codes carried in ErrorResponse.Error.
const (
	ErrorCodeInvalidRequest        = "invalid_request"
	ErrorCodeValidation            = "validation_error"
	ErrorCodeInvalidPermission     = "invalid_permission_level"
	ErrorCodeSelfShare             = "self_share"
	ErrorCodePatientNotFound       = "patient_not_found"
	ErrorCodeUserNotFound          = "user_not_found"
	ErrorCodeRecipientNotFound     = "recipient_not_found"
	ErrorCodeShareNotFound         = "share_not_found"
	ErrorCodeInvitationNotFound    = "invitation_not_found"
	ErrorCodeInvitationExpired     = "invitation_expired"
	ErrorCodeInvalidTransition     = "invalid_transition"
	ErrorCodeAlreadyShared         = "already_shared"
	ErrorCodePendingInvitation     = "pending_invitation_exists"
	ErrorCodeAccessDenied          = "access_denied"
	ErrorCodePermissionDenied      = "permission_denied"
	ErrorCodeTransferFailed        = "transfer_failed"
	ErrorCodeServerError           = "server_error"
	ErrorCodeInvalidToken          = "invalid_token"
	ErrorCodeInsufficientScope     = "insufficient_scope"
	ErrorCodeRateLimitExceeded     = "rate_limit_exceeded"
	ErrorCodeUnexpectedHTTPStatus  = "unexpected_status"
)

// APIError is a non-2xx response decoded by the client.
type APIError struct {
	StatusCode  int
	Code        string
	Description string
}

func (e *APIError) Error() string {
	if e.Description == "" {
		return fmt.Sprintf("%d %s", e.StatusCode, e.Code)
	}
	return fmt.Sprintf("%d %s: %s", e.StatusCode, e.Code, e.Description)
}

// IsCode reports whether err is an APIError with the given code.
func IsCode(err error, code string) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == code
}
