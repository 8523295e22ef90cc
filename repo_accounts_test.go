package accounts_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	accounts "github.com/goliatone/go-accounts"
	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

func setupRepo(t *testing.T) accounts.RepositoryManager {
	t.Helper()

	db, err := accounts.OpenDB(":memory:", false)
	require.NoError(t, err)
	db.SetMaxOpenConns(1)

	require.NoError(t, accounts.EnsureSchema(context.Background(), db))

	t.Cleanup(func() {
		_ = db.Close()
	})

	manager := accounts.NewRepositoryManager(db)
	manager.MustValidate()

	return manager
}

func seedAccount(t *testing.T, repo accounts.RepositoryManager) *accounts.Account {
	t.Helper()

	created, err := repo.Accounts().Register(context.Background(), &accounts.Account{
		Name:         "Ann Tester",
		Email:        "ann@example.com",
		PasswordHash: "$2a$10$notarealhashnotarealhashnotarealhashnotarealhash",
	})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, created.ID)

	return created
}

func TestRegisterAndGetByEmail(t *testing.T) {
	repo := setupRepo(t)
	created := seedAccount(t, repo)

	found, err := repo.Accounts().GetByEmail(context.Background(), "ann@example.com")
	require.NoError(t, err)

	assert.Equal(t, created.ID, found.ID)
	assert.Equal(t, "Ann Tester", found.Name)
	assert.False(t, found.Verified)
	assert.Empty(t, found.VerifyOTP)
	assert.Nil(t, found.VerifyOTPExpiresAt)
}

func TestGetByEmailNotFound(t *testing.T) {
	repo := setupRepo(t)

	_, err := repo.Accounts().GetByEmail(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, accounts.ErrAccountNotFound)
	assert.True(t, errors.IsNotFound(err))
}

func TestGetByID(t *testing.T) {
	repo := setupRepo(t)
	created := seedAccount(t, repo)

	found, err := repo.Accounts().GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Email, found.Email)

	_, err = repo.Accounts().GetByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, accounts.ErrAccountNotFound)
}

func TestVerifyOTPLifecycle(t *testing.T) {
	repo := setupRepo(t)
	created := seedAccount(t, repo)
	ctx := context.Background()

	expiresAt := time.Now().Add(accounts.VerifyOTPTTL).UTC()

	err := repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return repo.Accounts().SetVerifyOTPTx(ctx, tx, created.ID, "123456", expiresAt)
	})
	require.NoError(t, err)

	found, err := repo.Accounts().GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "123456", found.VerifyOTP)
	require.NotNil(t, found.VerifyOTPExpiresAt)

	// Clearing writes empty strings and NULLs; a partial ORM update would
	// drop those zero values silently.
	err = repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return repo.Accounts().ClearVerifyOTPTx(ctx, tx, created.ID)
	})
	require.NoError(t, err)

	found, err = repo.Accounts().GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Empty(t, found.VerifyOTP)
	assert.Nil(t, found.VerifyOTPExpiresAt)
}

func TestMarkVerifiedClearsPendingCode(t *testing.T) {
	repo := setupRepo(t)
	created := seedAccount(t, repo)
	ctx := context.Background()

	err := repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := repo.Accounts().SetVerifyOTPTx(ctx, tx, created.ID, "123456", time.Now().Add(time.Hour)); err != nil {
			return err
		}
		return repo.Accounts().MarkVerifiedTx(ctx, tx, created.ID)
	})
	require.NoError(t, err)

	found, err := repo.Accounts().GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, found.Verified)
	assert.Empty(t, found.VerifyOTP)
	assert.Nil(t, found.VerifyOTPExpiresAt)
}

func TestResetPasswordClearsPendingCode(t *testing.T) {
	repo := setupRepo(t)
	created := seedAccount(t, repo)
	ctx := context.Background()

	err := repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return repo.Accounts().SetResetOTPTx(ctx, tx, created.ID, "654321", time.Now().Add(accounts.ResetOTPTTL))
	})
	require.NoError(t, err)

	err = repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return repo.Accounts().ResetPasswordTx(ctx, tx, created.ID, "new-password-hash")
	})
	require.NoError(t, err)

	found, err := repo.Accounts().GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "new-password-hash", found.PasswordHash)
	assert.Empty(t, found.ResetOTP)
	assert.Nil(t, found.ResetOTPExpiresAt)
}

func TestSetResetOTPOverwritesPrior(t *testing.T) {
	repo := setupRepo(t)
	created := seedAccount(t, repo)
	ctx := context.Background()

	for _, code := range []string{"111111", "222222"} {
		err := repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			return repo.Accounts().SetResetOTPTx(ctx, tx, created.ID, code, time.Now().Add(accounts.ResetOTPTTL))
		})
		require.NoError(t, err)
	}

	found, err := repo.Accounts().GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "222222", found.ResetOTP)
}

func TestOTPMutationsOnMissingAccount(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	err := repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return repo.Accounts().MarkVerifiedTx(ctx, tx, uuid.New())
	})
	assert.ErrorIs(t, err, accounts.ErrAccountNotFound)
}

func TestRegisterDuplicateEmailFails(t *testing.T) {
	repo := setupRepo(t)
	seedAccount(t, repo)

	_, err := repo.Accounts().Register(context.Background(), &accounts.Account{
		Name:         "Other Tester",
		Email:        "ann@example.com",
		PasswordHash: "hash",
	})
	assert.Error(t, err)
}

func TestRunInTxCancelledContext(t *testing.T) {
	repo := setupRepo(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := repo.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}
