package accounts

import (
	"context"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// NOTE: partial updates through the ORM drop zero valued fields, so every
// mutation that clears a code column goes through raw SQL with RETURNING.
var SetVerifyOTPSQL = `UPDATE "accounts" AS "acc"
SET
	"verify_otp" = ?,
	"verify_otp_expires_at" = ?
WHERE
	"acc"."id" = ?
RETURNING *;`

var ClearVerifyOTPSQL = `UPDATE "accounts" AS "acc"
SET
	"verify_otp" = '',
	"verify_otp_expires_at" = NULL
WHERE
	"acc"."id" = ?
RETURNING *;`

var MarkVerifiedSQL = `UPDATE "accounts" AS "acc"
SET
	"is_verified" = TRUE,
	"verify_otp" = '',
	"verify_otp_expires_at" = NULL
WHERE
	"acc"."id" = ?
RETURNING *;`

var SetResetOTPSQL = `UPDATE "accounts" AS "acc"
SET
	"reset_otp" = ?,
	"reset_otp_expires_at" = ?
WHERE
	"acc"."id" = ?
RETURNING *;`

var ClearResetOTPSQL = `UPDATE "accounts" AS "acc"
SET
	"reset_otp" = '',
	"reset_otp_expires_at" = NULL
WHERE
	"acc"."id" = ?
RETURNING *;`

var ResetPasswordSQL = `UPDATE "accounts" AS "acc"
SET
	"password_hash" = ?,
	"reset_otp" = '',
	"reset_otp_expires_at" = NULL
WHERE
	"acc"."id" = ?
RETURNING *;`

// Accounts is the credential store contract the engine depends on. Pure
// CRUD, no logic. The store serializes read-modify-write per record inside
// transactions; there is no optimistic concurrency check, last writer wins.
type Accounts interface {
	GetByEmail(ctx context.Context, email string) (*Account, error)
	GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*Account, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Account, error)
	GetByIDTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*Account, error)

	Register(ctx context.Context, record *Account) (*Account, error)
	RegisterTx(ctx context.Context, tx bun.IDB, record *Account) (*Account, error)

	SetVerifyOTPTx(ctx context.Context, tx bun.IDB, id uuid.UUID, code string, expiresAt time.Time) error
	ClearVerifyOTPTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error
	MarkVerifiedTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error

	SetResetOTPTx(ctx context.Context, tx bun.IDB, id uuid.UUID, code string, expiresAt time.Time) error
	ClearResetOTPTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error
	ResetPasswordTx(ctx context.Context, tx bun.IDB, id uuid.UUID, passwordHash string) error
}

type accountsRepo struct {
	repository.Repository[*Account]
	db *bun.DB
}

var _ Accounts = (*accountsRepo)(nil)

func NewAccountsRepository(db *bun.DB) Accounts {
	repo := repository.NewRepository[*Account](db, repository.ModelHandlers[*Account]{
		NewRecord: func() *Account { return &Account{} },
		GetID: func(a *Account) uuid.UUID {
			if a == nil {
				return uuid.Nil
			}
			return a.ID
		},
		SetID: func(a *Account, id uuid.UUID) {
			if a != nil {
				a.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	return &accountsRepo{
		Repository: repo,
		db:         db,
	}
}

func (a *accountsRepo) GetByEmail(ctx context.Context, email string) (*Account, error) {
	return a.GetByEmailTx(ctx, a.db, email)
}

func (a *accountsRepo) GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*Account, error) {
	return a.getByColumnTx(ctx, tx, "email", email)
}

func (a *accountsRepo) GetByID(ctx context.Context, id uuid.UUID) (*Account, error) {
	return a.GetByIDTx(ctx, a.db, id)
}

func (a *accountsRepo) GetByIDTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*Account, error) {
	return a.getByColumnTx(ctx, tx, "id", id.String())
}

func (a *accountsRepo) getByColumnTx(ctx context.Context, tx bun.IDB, column, value string) (*Account, error) {
	record := &Account{}

	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias."+column+" = ?", value).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrAccountNotFound
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to retrieve account")
	}

	return record, nil
}

func (a *accountsRepo) Register(ctx context.Context, record *Account) (*Account, error) {
	return a.RegisterTx(ctx, a.db, record)
}

func (a *accountsRepo) RegisterTx(ctx context.Context, tx bun.IDB, record *Account) (*Account, error) {
	prepareAccountDefaults(record)
	return a.Repository.CreateTx(ctx, tx, record)
}

func (a *accountsRepo) SetVerifyOTPTx(ctx context.Context, tx bun.IDB, id uuid.UUID, code string, expiresAt time.Time) error {
	return a.rawUpdateTx(ctx, tx, SetVerifyOTPSQL, code, expiresAt, id.String())
}

func (a *accountsRepo) ClearVerifyOTPTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error {
	return a.rawUpdateTx(ctx, tx, ClearVerifyOTPSQL, id.String())
}

func (a *accountsRepo) MarkVerifiedTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error {
	return a.rawUpdateTx(ctx, tx, MarkVerifiedSQL, id.String())
}

func (a *accountsRepo) SetResetOTPTx(ctx context.Context, tx bun.IDB, id uuid.UUID, code string, expiresAt time.Time) error {
	return a.rawUpdateTx(ctx, tx, SetResetOTPSQL, code, expiresAt, id.String())
}

func (a *accountsRepo) ClearResetOTPTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error {
	return a.rawUpdateTx(ctx, tx, ClearResetOTPSQL, id.String())
}

func (a *accountsRepo) ResetPasswordTx(ctx context.Context, tx bun.IDB, id uuid.UUID, passwordHash string) error {
	return a.rawUpdateTx(ctx, tx, ResetPasswordSQL, passwordHash, id.String())
}

func (a *accountsRepo) rawUpdateTx(ctx context.Context, tx bun.IDB, sql string, args ...any) error {
	res, err := a.Repository.RawTx(ctx, tx, sql, args...)
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to update account")
	}

	if len(res) == 0 {
		return ErrAccountNotFound
	}

	return nil
}

func prepareAccountDefaults(record *Account) {
	if record == nil {
		return
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
}
