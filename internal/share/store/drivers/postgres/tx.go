package postgres

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/aussiebroadwan/medshare/internal/share/store"
	"github.com/jackc/pgx/v5"
)

type txStore struct {
	tx  pgx.Tx
	ctx context.Context
}

func (t *txStore) Users() store.Users             { return &usersRepo{db: t.tx} }
func (t *txStore) Patients() store.Patients       { return &patientsRepo{db: t.tx} }
func (t *txStore) Shares() store.Shares           { return &sharesRepo{db: t.tx} }
func (t *txStore) Invitations() store.Invitations { return &invitationsRepo{db: t.tx} }

func (t *txStore) ApplyMigrations() error {
	return errors.New("postgres: migrations cannot run inside a transaction")
}

func (t *txStore) Tx(ctx context.Context) (store.Tx, error) {
	return nil, errors.New("postgres: nested transactions are not supported")
}

func (t *txStore) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	return fn(t)
}

func (t *txStore) Close() error { return nil }

func (t *txStore) Ping(ctx context.Context) error { return nil }

func (t *txStore) Commit() error { return t.tx.Commit(t.ctx) }

func (t *txStore) Rollback() error {
	err := t.tx.Rollback(t.ctx)
	if errors.Is(err, pgx.ErrTxClosed) {
		return nil
	}
	return err
}

// SetStatementTimeout applies for the rest of the transaction only.
func (t *txStore) SetStatementTimeout(ctx context.Context, d time.Duration) error {
	_, err := t.tx.Exec(ctx, `SELECT set_config('statement_timeout', $1, true)`,
		strconv.FormatInt(d.Milliseconds(), 10))
	return err
}
