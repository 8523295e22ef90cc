package accounts

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type ConfirmVerificationMessage struct {
	AccountID uuid.UUID `json:"account_id"`
	OTP       string    `json:"otp"`
}

func (e ConfirmVerificationMessage) Type() string { return "account.verification_confirm" }

type ConfirmVerificationHandler struct {
	repo     RepositoryManager
	logger   Logger
	activity ActivitySink
}

func NewConfirmVerificationHandler(repo RepositoryManager) *ConfirmVerificationHandler {
	return &ConfirmVerificationHandler{
		repo:     repo,
		logger:   defLogger{},
		activity: noopActivitySink{},
	}
}

func (h *ConfirmVerificationHandler) WithLogger(logger Logger) *ConfirmVerificationHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *ConfirmVerificationHandler) WithActivitySink(sink ActivitySink) *ConfirmVerificationHandler {
	h.activity = normalizeActivitySink(sink)
	return h
}

func (h *ConfirmVerificationHandler) Execute(ctx context.Context, event ConfirmVerificationMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during verification confirm",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *ConfirmVerificationHandler) execute(ctx context.Context, event ConfirmVerificationMessage) error {
	if event.OTP == "" {
		return goerrors.New("verification code is required", goerrors.CategoryValidation).
			WithCode(goerrors.CodeBadRequest)
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	// Business rejections are delivered through opErr so the transaction
	// still commits: an expired code is purged even though the confirm
	// fails, and a rollback would undo the purge.
	var opErr error

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		account, err := h.repo.Accounts().GetByIDTx(ctx, tx, event.AccountID)
		if err != nil {
			return err
		}

		if !matchOTP(account.VerifyOTP, event.OTP) {
			opErr = ErrInvalidOTP
			return nil
		}

		// Expiry is checked only after the code matched.
		if otpExpired(account.VerifyOTPExpiresAt, time.Now()) {
			if err := h.repo.Accounts().ClearVerifyOTPTx(ctx, tx, account.ID); err != nil {
				return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to purge expired verification code")
			}
			opErr = ErrOTPExpired
			return nil
		}

		if err := h.repo.Accounts().MarkVerifiedTx(ctx, tx, account.ID); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to mark account verified")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "verification confirm transaction failed")
	}

	if opErr != nil {
		recordActivity(ctx, h.activity, h.logger, ActivityEvent{
			EventType: ActivityEventOTPRejected,
			AccountID: event.AccountID.String(),
			Metadata:  map[string]any{"flow": "verify"},
		})
		return opErr
	}

	recordActivity(ctx, h.activity, h.logger, ActivityEvent{
		EventType: ActivityEventAccountVerified,
		AccountID: event.AccountID.String(),
	})

	return nil
}
