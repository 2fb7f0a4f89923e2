package store

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/medshare/internal/share/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
	// ErrConflict reports a compare-and-set update that matched no row
	// because the row changed underneath the caller.
	ErrConflict = errors.New("store: conflict")
)

// Store is the root data access interface. Concrete drivers (sqlite,
// postgres) implement this. Sub-repositories are exposed as methods so a
// transaction-scoped store can hand out the same repositories bound to the
// transaction.
type Store interface {
	Users() Users
	Patients() Patients
	Shares() Shares
	Invitations() Invitations

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction. If fn returns an error the
	// transaction is rolled back, otherwise it is committed. Repositories
	// used inside fn must come from the tx argument.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error

	// SetStatementTimeout bounds how long any statement in the transaction
	// may run. Drivers without such a facility treat it as a no-op.
	SetStatementTimeout(ctx context.Context, d time.Duration) error
}

type Users interface {
	GetUserByID(ctx context.Context, id string) (domain.User, error)
	GetUserByUsername(ctx context.Context, username string) (domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)
	CreateUser(ctx context.Context, u domain.User) error

	// SetActivePatient points the user at a patient record, or clears it when
	// patientID is nil.
	SetActivePatient(ctx context.Context, userID string, patientID *string, at time.Time) error
}

type Patients interface {
	GetPatientByID(ctx context.Context, id string) (domain.Patient, error)

	// GetPatientsByIDs fetches every listed patient in one query. Missing ids
	// are simply absent from the result.
	GetPatientsByIDs(ctx context.Context, ids []string) ([]domain.Patient, error)

	// ListPatientsByOwner returns the owner's patients, oldest first.
	ListPatientsByOwner(ctx context.Context, ownerID string) ([]domain.Patient, error)

	// GetSelfRecord returns the owner's self-record or ErrNotFound.
	GetSelfRecord(ctx context.Context, ownerID string) (domain.Patient, error)

	CreatePatient(ctx context.Context, p domain.Patient) error

	// UpdateOwnership rewrites owner_user_id and is_self_record.
	UpdateOwnership(ctx context.Context, patientID, ownerID string, isSelfRecord bool, at time.Time) error

	// SetSelfRecord flips the is_self_record flag only.
	SetSelfRecord(ctx context.Context, patientID string, isSelfRecord bool, at time.Time) error
}

type Shares interface {
	// CreateShare inserts a share. A second active share for the same
	// (patient, shared_with) pair fails with ErrAlreadyExists.
	CreateShare(ctx context.Context, s domain.PatientShare) error

	GetShareByID(ctx context.Context, id string) (domain.PatientShare, error)

	// GetActiveShare returns the active share for the pair or ErrNotFound.
	// Expiry is not considered.
	GetActiveShare(ctx context.Context, patientID, sharedWithUserID string) (domain.PatientShare, error)

	// GetLatestShare returns the most recently updated share for the pair,
	// active or not.
	GetLatestShare(ctx context.Context, patientID, sharedWithUserID string) (domain.PatientShare, error)

	// GetActiveSharesForPatients returns the active shares a user holds on any
	// of the listed patients, in one query.
	GetActiveSharesForPatients(ctx context.Context, patientIDs []string, sharedWithUserID string) ([]domain.PatientShare, error)

	// ListActiveSharesByInvitation returns the active shares an invitation produced.
	ListActiveSharesByInvitation(ctx context.Context, invitationID string) ([]domain.PatientShare, error)

	ListActiveSharesByPatient(ctx context.Context, patientID string) ([]domain.PatientShare, error)
	ListActiveSharesForUser(ctx context.Context, sharedWithUserID string) ([]domain.PatientShare, error)

	// UpdateShare rewrites the mutable grant fields of a share.
	UpdateShare(ctx context.Context, s domain.PatientShare) error

	// ReactivateShare turns an inactive share back on with new grant fields.
	ReactivateShare(ctx context.Context, s domain.PatientShare) error

	// DeactivateShare sets is_active=false. ErrNotFound if it was not active.
	DeactivateShare(ctx context.Context, id string, at time.Time) error

	// DeactivateExpiredShares switches off every active share whose
	// expires_at is at or before now and returns how many changed.
	DeactivateExpiredShares(ctx context.Context, now time.Time) (int, error)
}

// InvitationFilter narrows ListInvitations. Empty fields are ignored.
type InvitationFilter struct {
	SentByUserID string
	SentToUserID string
	Type         domain.InvitationType
	Statuses     []domain.InvitationStatus

	// ExpiresAtOrBefore keeps only invitations with an expiry at or before
	// the given instant.
	ExpiresAtOrBefore *time.Time
	Limit             int
}

type Invitations interface {
	CreateInvitation(ctx context.Context, inv domain.Invitation) error
	GetInvitationByID(ctx context.Context, id string) (domain.Invitation, error)

	// ListInvitations returns matching invitations, newest first.
	ListInvitations(ctx context.Context, f InvitationFilter) ([]domain.Invitation, error)

	// FindPendingPatientShare looks up a pending single-patient share
	// invitation for the (sender, recipient, patient) triple by querying the
	// context payload directly.
	FindPendingPatientShare(ctx context.Context, sentBy, sentTo, patientID string) (domain.Invitation, error)

	// UpdateInvitationStatus applies a compare-and-set status change and
	// fails with ErrConflict if the invitation is no longer in change.From.
	UpdateInvitationStatus(ctx context.Context, change domain.StatusChange) error
}
