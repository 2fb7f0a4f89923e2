package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/medshare/internal/share/domain"
	"github.com/aussiebroadwan/medshare/internal/share/store"
	"github.com/aussiebroadwan/medshare/pkg/clock"
	"github.com/aussiebroadwan/medshare/pkg/idx"
	"github.com/aussiebroadwan/medshare/pkg/slogx"
)

// DefaultInvitationTTL applies when a caller gives neither an expiry time
// nor a number of hours.
const DefaultInvitationTTL = 7 * 24 * time.Hour

// expireBatchSize bounds how many invitations one sweep transaction touches.
const expireBatchSize = 200

// InvitationService owns the invitation lifecycle. It knows nothing about
// what accepting an invitation means; callers interpret the payload.
type InvitationService struct {
	Store      store.Store
	Clock      clock.Clock
	DefaultTTL time.Duration
}

type CreateInvitationParams struct {
	SenderID  string
	Recipient string // user id, username or email
	Type      domain.InvitationType
	Title     string
	Message   string
	Context   domain.InvitationContext

	// ExpiresAt wins over ExpiresHours when both are set.
	ExpiresAt    *time.Time
	ExpiresHours int
}

func (s *InvitationService) now() time.Time { return nowFrom(s.Clock) }

func (s *InvitationService) ttl() time.Duration {
	if s.DefaultTTL > 0 {
		return s.DefaultTTL
	}
	return DefaultInvitationTTL
}

// CreateInvitation opens a pending invitation. It does not look for
// duplicates; that is up to the caller, which knows the payload.
func (s *InvitationService) CreateInvitation(ctx context.Context, p CreateInvitationParams) (domain.Invitation, error) {
	var inv domain.Invitation
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		var err error
		inv, err = s.CreateInvitationTx(ctx, tx, p)
		return err
	})
	return inv, err
}

// CreateInvitationTx is CreateInvitation inside a caller's transaction.
func (s *InvitationService) CreateInvitationTx(
	ctx context.Context,
	tx store.Tx,
	p CreateInvitationParams,
) (domain.Invitation, error) {
	log := slogx.FromContext(ctx)
	now := s.now()

	// 1. Validate type and payload agree
	if !p.Type.Valid() {
		return domain.Invitation{}, fmt.Errorf("%w: unknown invitation type %q", ErrValidation, p.Type)
	}
	if p.Context != nil && p.Context.InvitationType() != p.Type {
		return domain.Invitation{}, fmt.Errorf("%w: payload does not match invitation type %q", ErrValidation, p.Type)
	}

	// 2. Resolve the recipient
	recipient, err := resolveRecipient(ctx, tx.Users(), p.SenderID, p.Recipient)
	if err != nil {
		return domain.Invitation{}, err
	}

	// 3. Work out the expiry
	var expiresAt time.Time
	switch {
	case p.ExpiresAt != nil:
		expiresAt = p.ExpiresAt.UTC()
	case p.ExpiresHours > 0:
		expiresAt = now.Add(time.Duration(p.ExpiresHours) * time.Hour)
	case p.ExpiresHours < 0:
		return domain.Invitation{}, fmt.Errorf("%w: expires_hours must be positive", ErrValidation)
	default:
		expiresAt = now.Add(s.ttl())
	}
	if !expiresAt.After(now) {
		return domain.Invitation{}, fmt.Errorf("%w: invitation expiry must be in the future", ErrValidation)
	}

	payload, err := domain.EncodeContext(p.Context)
	if err != nil {
		return domain.Invitation{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	inv := domain.Invitation{
		ID:           idx.NewAt(now).String(),
		SentByUserID: p.SenderID,
		SentToUserID: recipient.ID,
		Type:         p.Type,
		Status:       domain.StatusPending,
		Title:        p.Title,
		Message:      p.Message,
		Context:      payload,
		ExpiresAt:    &expiresAt,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := tx.Invitations().CreateInvitation(ctx, inv); err != nil {
		log.Error("failed to create invitation", slog.Any("error", err))
		return domain.Invitation{}, err
	}

	log.Info("invitation created",
		slog.String("invitation_id", inv.ID),
		slog.String("type", string(inv.Type)),
		slog.String("sent_to", inv.SentToUserID),
		slog.Time("expires_at", expiresAt),
	)
	return inv, nil
}

// GetInvitation returns an invitation visible to userID as sender or
// recipient.
func (s *InvitationService) GetInvitation(ctx context.Context, userID, invitationID string) (domain.Invitation, error) {
	inv, err := s.Store.Invitations().GetInvitationByID(ctx, invitationID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Invitation{}, ErrInvitationNotPendingOrNotFound
		}
		return domain.Invitation{}, err
	}
	if inv.SentToUserID != userID && inv.SentByUserID != userID {
		return domain.Invitation{}, ErrInvitationNotPendingOrNotFound
	}
	return inv, nil
}

// GetPendingInvitations lists invitations awaiting userID's response. Overdue
// ones are left out even before the sweep has marked them. An empty typ
// matches every type.
func (s *InvitationService) GetPendingInvitations(
	ctx context.Context,
	userID string,
	typ domain.InvitationType,
) ([]domain.Invitation, error) {
	all, err := s.Store.Invitations().ListInvitations(ctx, store.InvitationFilter{
		SentToUserID: userID,
		Type:         typ,
		Statuses:     []domain.InvitationStatus{domain.StatusPending},
	})
	if err != nil {
		slogx.FromContext(ctx).Error("failed to list pending invitations", slog.Any("error", err))
		return nil, err
	}

	now := s.now()
	out := all[:0]
	for _, inv := range all {
		if !inv.IsExpired(now) {
			out = append(out, inv)
		}
	}
	return out, nil
}

// GetSentInvitations lists invitations sent by userID, optionally narrowed
// to some statuses.
func (s *InvitationService) GetSentInvitations(
	ctx context.Context,
	userID string,
	statuses ...domain.InvitationStatus,
) ([]domain.Invitation, error) {
	for _, st := range statuses {
		if !st.Valid() {
			return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, st)
		}
	}
	return s.Store.Invitations().ListInvitations(ctx, store.InvitationFilter{
		SentByUserID: userID,
		Statuses:     statuses,
	})
}

// RespondToInvitation accepts or rejects a pending invitation on behalf of
// its recipient. This only records the answer; accepting a patient share
// goes through SharingService so the grant is written alongside.
func (s *InvitationService) RespondToInvitation(
	ctx context.Context,
	userID, invitationID string,
	accept bool,
	note string,
) (domain.Invitation, error) {
	inv, err := s.LoadRespondable(ctx, userID, invitationID)
	if err != nil {
		return domain.Invitation{}, err
	}

	to := domain.StatusRejected
	if accept {
		to = domain.StatusAccepted
	}
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		inv, err = s.TransitionTx(ctx, tx, inv, to, note)
		return err
	})
	return inv, err
}

// LoadRespondable fetches a pending invitation addressed to userID. An
// overdue invitation is moved to expired in its own transaction and
// ErrInvitationExpired is returned.
func (s *InvitationService) LoadRespondable(ctx context.Context, userID, invitationID string) (domain.Invitation, error) {
	log := slogx.FromContext(ctx)

	inv, err := s.Store.Invitations().GetInvitationByID(ctx, invitationID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Invitation{}, ErrInvitationNotPendingOrNotFound
		}
		log.Error("failed to load invitation", slog.Any("error", err))
		return domain.Invitation{}, err
	}
	if inv.SentToUserID != userID || inv.Status != domain.StatusPending {
		return domain.Invitation{}, ErrInvitationNotPendingOrNotFound
	}

	if inv.IsExpired(s.now()) {
		if err := s.MarkExpired(ctx, inv); err != nil {
			return domain.Invitation{}, err
		}
		log.Warn("response to expired invitation", slog.String("invitation_id", inv.ID))
		return domain.Invitation{}, ErrInvitationExpired
	}
	return inv, nil
}

// MarkExpired moves a pending invitation to expired. Losing the race to
// another transition is not an error.
func (s *InvitationService) MarkExpired(ctx context.Context, inv domain.Invitation) error {
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		_, err := s.TransitionTx(ctx, tx, inv, domain.StatusExpired, "")
		return err
	})
	if errors.Is(err, ErrInvitationNotPendingOrNotFound) {
		return nil
	}
	return err
}

// CancelInvitation withdraws a pending invitation. Only the sender may.
func (s *InvitationService) CancelInvitation(ctx context.Context, userID, invitationID string) (domain.Invitation, error) {
	var inv domain.Invitation
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		cur, err := tx.Invitations().GetInvitationByID(ctx, invitationID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrInvitationNotPendingOrNotFound
			}
			return err
		}
		if cur.SentByUserID != userID || cur.Status != domain.StatusPending {
			return ErrInvitationNotPendingOrNotFound
		}
		inv, err = s.TransitionTx(ctx, tx, cur, domain.StatusCancelled, "")
		return err
	})
	return inv, err
}

// RevokeInvitationTx moves an accepted invitation to revoked once the caller
// has undone what accepting it produced.
func (s *InvitationService) RevokeInvitationTx(ctx context.Context, tx store.Tx, invitationID string) (domain.Invitation, error) {
	inv, err := tx.Invitations().GetInvitationByID(ctx, invitationID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Invitation{}, ErrInvitationNotPendingOrNotFound
		}
		return domain.Invitation{}, err
	}
	return s.TransitionTx(ctx, tx, inv, domain.StatusRevoked, "")
}

// ExpireOldInvitations moves every overdue pending invitation to expired and
// returns how many it changed. It is driven by an external scheduler.
func (s *InvitationService) ExpireOldInvitations(ctx context.Context) (int, error) {
	log := slogx.FromContext(ctx)
	now := s.now()
	total := 0

	for {
		var batch []domain.Invitation
		changed := 0
		err := s.Store.WithTx(ctx, func(tx store.Tx) error {
			var err error
			batch, err = tx.Invitations().ListInvitations(ctx, store.InvitationFilter{
				Statuses:          []domain.InvitationStatus{domain.StatusPending},
				ExpiresAtOrBefore: &now,
				Limit:             expireBatchSize,
			})
			if err != nil {
				return err
			}
			for _, inv := range batch {
				_, err := s.TransitionTx(ctx, tx, inv, domain.StatusExpired, "")
				if errors.Is(err, ErrInvitationNotPendingOrNotFound) {
					continue
				}
				if err != nil {
					return err
				}
				changed++
			}
			return nil
		})
		if err != nil {
			log.Error("invitation expiry sweep failed", slog.Int("expired_so_far", total), slog.Any("error", err))
			return total, err
		}
		total += changed
		if len(batch) < expireBatchSize {
			break
		}
	}

	log.Debug("expired overdue invitations", slog.Int("count", total))
	return total, nil
}

// TransitionTx is the only way an invitation changes status. It checks the
// move against the state machine and applies it as a compare-and-set on the
// current status, so a concurrent change makes it fail rather than
// overwrite.
func (s *InvitationService) TransitionTx(
	ctx context.Context,
	tx store.Tx,
	inv domain.Invitation,
	to domain.InvitationStatus,
	note string,
) (domain.Invitation, error) {
	if !inv.Status.CanTransitionTo(to) {
		if inv.Status.IsTerminal() && to != domain.StatusRevoked {
			return domain.Invitation{}, ErrInvitationNotPendingOrNotFound
		}
		return domain.Invitation{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, inv.Status, to)
	}

	now := s.now()
	change := domain.StatusChange{
		InvitationID: inv.ID,
		From:         inv.Status,
		To:           to,
		ResponseNote: note,
		At:           now,
	}
	if to == domain.StatusAccepted || to == domain.StatusRejected {
		change.RespondedAt = &now
	}

	if err := tx.Invitations().UpdateInvitationStatus(ctx, change); err != nil {
		if errors.Is(err, store.ErrConflict) || errors.Is(err, store.ErrNotFound) {
			return domain.Invitation{}, ErrInvitationNotPendingOrNotFound
		}
		slogx.FromContext(ctx).Error("failed to update invitation status", slog.Any("error", err))
		return domain.Invitation{}, err
	}

	inv.Status = to
	inv.UpdatedAt = now
	if change.RespondedAt != nil {
		inv.RespondedAt = change.RespondedAt
	}
	if note != "" {
		inv.ResponseNote = note
	}

	slogx.FromContext(ctx).Info("invitation status changed",
		slog.String("invitation_id", inv.ID),
		slog.String("from", string(change.From)),
		slog.String("to", string(to)),
	)
	return inv, nil
}
