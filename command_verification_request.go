package accounts

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type RequestVerificationMessage struct {
	AccountID uuid.UUID `json:"account_id"`
}

func (e RequestVerificationMessage) Type() string { return "account.verification_request" }

type RequestVerificationHandler struct {
	repo     RepositoryManager
	mailer   Mailer
	logger   Logger
	activity ActivitySink
}

func NewRequestVerificationHandler(repo RepositoryManager, mailer Mailer) *RequestVerificationHandler {
	return &RequestVerificationHandler{
		repo:     repo,
		mailer:   mailer,
		logger:   defLogger{},
		activity: noopActivitySink{},
	}
}

func (h *RequestVerificationHandler) WithActivitySink(sink ActivitySink) *RequestVerificationHandler {
	h.activity = normalizeActivitySink(sink)
	return h
}

func (h *RequestVerificationHandler) WithLogger(logger Logger) *RequestVerificationHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *RequestVerificationHandler) Execute(ctx context.Context, event RequestVerificationMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during verification request",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RequestVerificationHandler) execute(ctx context.Context, event RequestVerificationMessage) error {
	account := &Account{}
	code := ""

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var err error
		if account, err = h.repo.Accounts().GetByIDTx(ctx, tx, event.AccountID); err != nil {
			return err
		}

		if account.Verified {
			return ErrAlreadyVerified
		}

		if code, err = GenerateOTP(); err != nil {
			return err
		}

		// A new code overwrites any prior unconsumed one.
		expiresAt := time.Now().Add(VerifyOTPTTL)
		if err := h.repo.Accounts().SetVerifyOTPTx(ctx, tx, account.ID, code, expiresAt); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to store verification code")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "verification request transaction failed")
	}

	// The user cannot complete the flow without the code, so delivery
	// failure fails the operation. The stored code stays put and a retry
	// simply overwrites it.
	if err := h.mailer.Send(ctx, account.Email, VerifySubject, verifyOTPBody(account.Name, code)); err != nil {
		h.logger.Error("verification code delivery failed", "email", account.Email, "error", err)
		return goerrors.Wrap(err, goerrors.CategoryOperation, ErrDeliveryFailed.Message).
			WithTextCode(TextCodeDeliveryFailed)
	}

	recordActivity(ctx, h.activity, h.logger, ActivityEvent{
		EventType: ActivityEventOTPIssued,
		AccountID: account.ID.String(),
		Email:     account.Email,
		Metadata:  map[string]any{"flow": "verify"},
	})

	return nil
}
