package accounts_test

import (
	"context"
	"testing"
	"time"

	accounts "github.com/goliatone/go-accounts"
	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func pendingResetAccount(code string, expiresAt time.Time) *accounts.Account {
	account := &accounts.Account{
		ID:    uuid.New(),
		Name:  "Ann Tester",
		Email: "ann@example.com",
	}
	account.SetResetOTP(code, expiresAt)
	return account
}

func TestInitializePasswordReset(t *testing.T) {
	repo := NewMockRepositoryManager()
	mailer := &MockMailer{}

	account := &accounts.Account{ID: uuid.New(), Name: "Ann Tester", Email: "ann@example.com"}

	repo.accounts.On("GetByEmailTx", mock.Anything, mock.Anything, account.Email).
		Return(account, nil)
	repo.accounts.On("SetResetOTPTx", mock.Anything, mock.Anything, account.ID,
		mock.AnythingOfType("string"), mock.AnythingOfType("time.Time")).
		Return(nil)
	mailer.On("Send", mock.Anything, account.Email, accounts.ResetOTPSubject, mock.Anything).
		Return(nil)

	handler := accounts.NewInitializePasswordResetHandler(repo, mailer)

	err := handler.Execute(context.Background(), accounts.InitializePasswordResetMessage{
		Email: account.Email,
	})
	require.NoError(t, err)

	for _, call := range repo.accounts.Calls {
		if call.Method == "SetResetOTPTx" {
			expiresAt := call.Arguments.Get(4).(time.Time)
			assert.WithinDuration(t, time.Now().Add(accounts.ResetOTPTTL), expiresAt, time.Minute)
		}
	}
	mailer.AssertExpectations(t)
}

func TestInitializePasswordResetUnknownEmail(t *testing.T) {
	repo := NewMockRepositoryManager()
	mailer := &MockMailer{}

	repo.accounts.On("GetByEmailTx", mock.Anything, mock.Anything, "nobody@example.com").
		Return(nil, accounts.ErrAccountNotFound)

	handler := accounts.NewInitializePasswordResetHandler(repo, mailer)

	err := handler.Execute(context.Background(), accounts.InitializePasswordResetMessage{
		Email: "nobody@example.com",
	})
	assert.ErrorIs(t, err, accounts.ErrAccountNotFound)

	mailer.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestInitializePasswordResetDeliveryFailureIsFatal(t *testing.T) {
	repo := NewMockRepositoryManager()
	mailer := &MockMailer{}

	account := &accounts.Account{ID: uuid.New(), Email: "ann@example.com"}

	repo.accounts.On("GetByEmailTx", mock.Anything, mock.Anything, account.Email).
		Return(account, nil)
	repo.accounts.On("SetResetOTPTx", mock.Anything, mock.Anything, account.ID,
		mock.Anything, mock.Anything).Return(nil)
	mailer.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("relay down", errors.CategoryOperation))

	handler := accounts.NewInitializePasswordResetHandler(repo, mailer)

	err := handler.Execute(context.Background(), accounts.InitializePasswordResetMessage{
		Email: account.Email,
	})
	require.Error(t, err)

	var richErr *errors.Error
	require.ErrorAs(t, err, &richErr)
	assert.Equal(t, accounts.TextCodeDeliveryFailed, richErr.TextCode)
}

func TestFinalizePasswordReset(t *testing.T) {
	repo := NewMockRepositoryManager()
	sink := &CapturingSink{}

	account := pendingResetAccount("123456", time.Now().Add(10*time.Minute))

	repo.accounts.On("GetByEmailTx", mock.Anything, mock.Anything, account.Email).
		Return(account, nil)
	repo.accounts.On("ResetPasswordTx", mock.Anything, mock.Anything, account.ID,
		mock.AnythingOfType("string")).Return(nil)

	handler := accounts.NewFinalizePasswordResetHandler(repo).WithActivitySink(sink)

	err := handler.Execute(context.Background(), accounts.FinalizePasswordResetMessage{
		Email:       account.Email,
		OTP:         "123456",
		NewPassword: "newsecretpassword",
	})
	require.NoError(t, err)

	// The stored value is a hash of the new password.
	var storedHash string
	for _, call := range repo.accounts.Calls {
		if call.Method == "ResetPasswordTx" {
			storedHash = call.Arguments.String(3)
		}
	}
	require.NotEmpty(t, storedHash)
	assert.NoError(t, accounts.ComparePasswordAndHash("newsecretpassword", storedHash))

	require.Len(t, sink.Events, 1)
	assert.Equal(t, accounts.ActivityEventPasswordReset, sink.Events[0].EventType)
}

func TestFinalizePasswordResetWrongCode(t *testing.T) {
	repo := NewMockRepositoryManager()

	account := pendingResetAccount("123456", time.Now().Add(10*time.Minute))
	repo.accounts.On("GetByEmailTx", mock.Anything, mock.Anything, account.Email).
		Return(account, nil)

	handler := accounts.NewFinalizePasswordResetHandler(repo)

	err := handler.Execute(context.Background(), accounts.FinalizePasswordResetMessage{
		Email:       account.Email,
		OTP:         "654321",
		NewPassword: "newsecretpassword",
	})
	assert.ErrorIs(t, err, accounts.ErrInvalidOTP)

	repo.accounts.AssertNotCalled(t, "ResetPasswordTx",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestFinalizePasswordResetExpiredCodeIsPurged(t *testing.T) {
	repo := NewMockRepositoryManager()

	account := pendingResetAccount("123456", time.Now().Add(-time.Minute))

	repo.accounts.On("GetByEmailTx", mock.Anything, mock.Anything, account.Email).
		Return(account, nil)
	repo.accounts.On("ClearResetOTPTx", mock.Anything, mock.Anything, account.ID).
		Return(nil)

	handler := accounts.NewFinalizePasswordResetHandler(repo)

	err := handler.Execute(context.Background(), accounts.FinalizePasswordResetMessage{
		Email:       account.Email,
		OTP:         "123456",
		NewPassword: "newsecretpassword",
	})
	assert.ErrorIs(t, err, accounts.ErrOTPExpired)

	repo.accounts.AssertCalled(t, "ClearResetOTPTx", mock.Anything, mock.Anything, account.ID)
	repo.accounts.AssertNotCalled(t, "ResetPasswordTx",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestFinalizePasswordResetMissingFields(t *testing.T) {
	handler := accounts.NewFinalizePasswordResetHandler(NewMockRepositoryManager())

	tests := []accounts.FinalizePasswordResetMessage{
		{OTP: "123456", NewPassword: "newsecretpassword"},
		{Email: "ann@example.com", NewPassword: "newsecretpassword"},
		{Email: "ann@example.com", OTP: "123456"},
	}

	for _, event := range tests {
		err := handler.Execute(context.Background(), event)
		require.Error(t, err)

		var richErr *errors.Error
		require.ErrorAs(t, err, &richErr)
		assert.Equal(t, errors.CategoryValidation, richErr.Category)
	}
}
