package accounts

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

type InitializePasswordResetMessage struct {
	Email string `json:"email"`
}

func (e InitializePasswordResetMessage) Type() string { return "account.password_reset" }

type InitializePasswordResetHandler struct {
	repo     RepositoryManager
	mailer   Mailer
	logger   Logger
	activity ActivitySink
}

func NewInitializePasswordResetHandler(repo RepositoryManager, mailer Mailer) *InitializePasswordResetHandler {
	return &InitializePasswordResetHandler{
		repo:     repo,
		mailer:   mailer,
		logger:   defLogger{},
		activity: noopActivitySink{},
	}
}

func (h *InitializePasswordResetHandler) WithActivitySink(sink ActivitySink) *InitializePasswordResetHandler {
	h.activity = normalizeActivitySink(sink)
	return h
}

func (h *InitializePasswordResetHandler) WithLogger(logger Logger) *InitializePasswordResetHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *InitializePasswordResetHandler) Execute(ctx context.Context, event InitializePasswordResetMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password reset initialization",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *InitializePasswordResetHandler) execute(ctx context.Context, event InitializePasswordResetMessage) error {
	if event.Email == "" {
		return goerrors.New("email is required", goerrors.CategoryValidation).
			WithCode(goerrors.CodeBadRequest)
	}

	account := &Account{}
	code := ""

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var err error
		if account, err = h.repo.Accounts().GetByEmailTx(ctx, tx, event.Email); err != nil {
			return err
		}

		if code, err = GenerateOTP(); err != nil {
			return err
		}

		expiresAt := time.Now().Add(ResetOTPTTL)
		if err := h.repo.Accounts().SetResetOTPTx(ctx, tx, account.ID, code, expiresAt); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to store reset code")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "password reset transaction failed")
	}

	// Reset codes are useless if they never arrive; delivery failure is
	// fatal here, unlike the welcome message.
	if err := h.mailer.Send(ctx, account.Email, ResetOTPSubject, resetOTPBody(account.Name, code)); err != nil {
		h.logger.Error("reset code delivery failed", "email", account.Email, "error", err)
		return goerrors.Wrap(err, goerrors.CategoryOperation, ErrDeliveryFailed.Message).
			WithTextCode(TextCodeDeliveryFailed)
	}

	recordActivity(ctx, h.activity, h.logger, ActivityEvent{
		EventType: ActivityEventOTPIssued,
		AccountID: account.ID.String(),
		Email:     account.Email,
		Metadata:  map[string]any{"flow": "reset"},
	})

	return nil
}
