package sharesdk

import (
	"context"
	"net/http"
	"net/url"
)

// ============================================================================
// Patients and Access
// ============================================================================

// AccessiblePatients lists the patients the caller can reach at permission
// (view when empty).
func (s *Session) AccessiblePatients(ctx context.Context, permission string) (*AccessiblePatientsResponse, error) {
	path := "/v1/patients/accessible"
	if permission != "" {
		path += "?permission=" + url.QueryEscape(permission)
	}
	resp, err := s.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var out AccessiblePatientsResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Session) PatientAccess(ctx context.Context, patientID string) (*AccessContextResponse, error) {
	resp, err := s.do(ctx, http.MethodGet, "/v1/patients/"+url.PathEscape(patientID)+"/access", nil)
	if err != nil {
		return nil, err
	}

	var out AccessContextResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// ============================================================================
// Shares
// ============================================================================

func (s *Session) PatientShares(ctx context.Context, patientID string) (*ListSharesResponse, error) {
	resp, err := s.do(ctx, http.MethodGet, "/v1/patients/"+url.PathEscape(patientID)+"/shares", nil)
	if err != nil {
		return nil, err
	}

	var out ListSharesResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Session) UpdateShare(
	ctx context.Context,
	patientID, sharedWithUserID string,
	req UpdateShareRequest,
) (*ShareInfo, error) {
	path := "/v1/patients/" + url.PathEscape(patientID) + "/shares/" + url.PathEscape(sharedWithUserID)
	resp, err := s.do(ctx, http.MethodPatch, path, req)
	if err != nil {
		return nil, err
	}

	var out ShareInfo
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Session) RevokeShare(ctx context.Context, patientID, sharedWithUserID string) error {
	path := "/v1/patients/" + url.PathEscape(patientID) + "/shares/" + url.PathEscape(sharedWithUserID)
	resp, err := s.do(ctx, http.MethodDelete, path, nil)
	if err != nil {
		return err
	}
	return checkStatusNoContent(resp)
}

func (s *Session) SharedWithMe(ctx context.Context) (*SharedWithMeResponse, error) {
	resp, err := s.do(ctx, http.MethodGet, "/v1/shared-with-me", nil)
	if err != nil {
		return nil, err
	}

	var out SharedWithMeResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// ============================================================================
// Invitations
// ============================================================================

func (s *Session) SendShareInvitation(ctx context.Context, patientID string, req SendShareRequest) (*InvitationInfo, error) {
	resp, err := s.do(ctx, http.MethodPost, "/v1/patients/"+url.PathEscape(patientID)+"/share-invitations", req)
	if err != nil {
		return nil, err
	}

	var out InvitationInfo
	if err := decodeJSON(resp, &out, http.StatusCreated); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Session) BulkSendShareInvitations(ctx context.Context, req BulkSendRequest) (*BulkSendResponse, error) {
	resp, err := s.do(ctx, http.MethodPost, "/v1/share-invitations/bulk", req)
	if err != nil {
		return nil, err
	}

	var out BulkSendResponse
	if err := decodeJSON(resp, &out, http.StatusCreated); err != nil {
		return nil, err
	}
	return &out, nil
}

// PendingInvitations lists invitations awaiting the caller. An empty
// invitationType matches every type.
func (s *Session) PendingInvitations(ctx context.Context, invitationType string) (*ListInvitationsResponse, error) {
	path := "/v1/invitations/pending"
	if invitationType != "" {
		path += "?type=" + url.QueryEscape(invitationType)
	}
	return s.listInvitations(ctx, path)
}

// SentInvitations lists invitations the caller sent, optionally narrowed to
// some statuses.
func (s *Session) SentInvitations(ctx context.Context, statuses ...string) (*ListInvitationsResponse, error) {
	path := "/v1/invitations/sent"
	if len(statuses) > 0 {
		q := url.Values{"status": statuses}
		path += "?" + q.Encode()
	}
	return s.listInvitations(ctx, path)
}

func (s *Session) listInvitations(ctx context.Context, path string) (*ListInvitationsResponse, error) {
	resp, err := s.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var out ListInvitationsResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Session) AcceptInvitation(ctx context.Context, invitationID, note string) (*AcceptResponse, error) {
	resp, err := s.do(ctx, http.MethodPost, "/v1/invitations/"+url.PathEscape(invitationID)+"/accept", RespondRequest{Note: note})
	if err != nil {
		return nil, err
	}

	var out AcceptResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Session) RejectInvitation(ctx context.Context, invitationID, note string) (*InvitationInfo, error) {
	return s.respond(ctx, invitationID, "reject", note)
}

func (s *Session) CancelInvitation(ctx context.Context, invitationID string) (*InvitationInfo, error) {
	return s.respond(ctx, invitationID, "cancel", "")
}

func (s *Session) respond(ctx context.Context, invitationID, action, note string) (*InvitationInfo, error) {
	resp, err := s.do(ctx, http.MethodPost, "/v1/invitations/"+url.PathEscape(invitationID)+"/"+action, RespondRequest{Note: note})
	if err != nil {
		return nil, err
	}

	var out InvitationInfo
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// ============================================================================
// Admin
// ============================================================================

// TransferPatient hands a patient record to a new owner.
// Requires: admin:write scope and an admin account.
func (s *Session) TransferPatient(ctx context.Context, patientID, newOwnerID string) (*TransferResponse, error) {
	path := "/v1/admin/patients/" + url.PathEscape(patientID) + "/transfer"
	resp, err := s.do(ctx, http.MethodPost, path, TransferRequest{NewOwnerID: newOwnerID})
	if err != nil {
		return nil, err
	}

	var out TransferResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}
