package service

import "errors"

var (
	ErrPatientNotFound                = errors.New("patient not found")
	ErrRecipientNotFound              = errors.New("recipient not found")
	ErrUserNotFound                   = errors.New("user not found")
	ErrAlreadyShared                  = errors.New("patient is already shared with this user")
	ErrPendingInvitationExists        = errors.New("a pending invitation already exists for this patient and recipient")
	ErrInvalidPermissionLevel         = errors.New("invalid permission level")
	ErrShareNotFound                  = errors.New("share not found")
	ErrSelfShareAttempt               = errors.New("cannot share with yourself")
	ErrInvitationNotPendingOrNotFound = errors.New("invitation not found or no longer pending")
	ErrInvitationExpired              = errors.New("invitation has expired")
	ErrInvalidTransition              = errors.New("invalid invitation status transition")
	ErrValidation                     = errors.New("validation failed")
	ErrAccessDenied                   = errors.New("access denied")
	ErrPermissionDenied               = errors.New("permission denied")
	ErrTransferFailed                 = errors.New("ownership transfer failed")
)
