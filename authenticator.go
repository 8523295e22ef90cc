package accounts

import (
	"context"

	"github.com/goliatone/go-errors"
)

// Auther verifies credentials and mints session tokens. It never mutates
// the account record; login is read-only against the store.
type Auther struct {
	repo         RepositoryManager
	tokenService TokenService
	logger       Logger
	activitySink ActivitySink
}

// NewAuthenticator returns a new Authenticator
func NewAuthenticator(repo RepositoryManager, tokenService TokenService) *Auther {
	return &Auther{
		repo:         repo,
		tokenService: tokenService,
		logger:       defLogger{},
		activitySink: noopActivitySink{},
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// WithActivitySink configures an ActivitySink for emitting auth events.
func (s *Auther) WithActivitySink(sink ActivitySink) *Auther {
	s.activitySink = normalizeActivitySink(sink)
	return s
}

// Login verifies the credential pair and returns a signed session token.
// An unknown email and a wrong password both come back as
// ErrInvalidCredentials so callers cannot enumerate registered emails.
func (s *Auther) Login(ctx context.Context, email, password string) (string, error) {
	if email == "" || password == "" {
		return "", errors.New("email and password are required", errors.CategoryValidation).
			WithCode(errors.CodeBadRequest)
	}

	account, err := s.repo.Accounts().GetByEmail(ctx, email)
	if err != nil {
		if errors.IsNotFound(err) {
			s.logger.Debug("login attempt for unknown email")
			recordActivity(ctx, s.activitySink, s.logger, ActivityEvent{
				EventType: ActivityEventLoginFailure,
				Email:     email,
				Metadata:  map[string]any{"reason": "unknown_email"},
			})
			return "", ErrInvalidCredentials
		}
		s.logger.Error("login account lookup error", "error", err)
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to retrieve account during login")
	}

	if err := ComparePasswordAndHash(password, account.PasswordHash); err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			recordActivity(ctx, s.activitySink, s.logger, ActivityEvent{
				EventType: ActivityEventLoginFailure,
				AccountID: account.ID.String(),
				Email:     email,
				Metadata:  map[string]any{"reason": "password_mismatch"},
			})
			return "", ErrInvalidCredentials
		}
		s.logger.Error("login password comparison error", "error", err)
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to verify credentials")
	}

	token, err := s.tokenService.Issue(account.ID.String())
	if err != nil {
		s.logger.Error("login token issuance error", "error", err)
		return "", err
	}

	recordActivity(ctx, s.activitySink, s.logger, ActivityEvent{
		EventType: ActivityEventLoginSuccess,
		AccountID: account.ID.String(),
		Email:     email,
	})

	return token, nil
}

// SessionFromToken is the session gate: a valid, unexpired token yields the
// session it carries, anything else an auth error.
func (s *Auther) SessionFromToken(raw string) (*SessionObject, error) {
	session, err := s.tokenService.Validate(raw)
	if err != nil {
		s.logger.Debug("session validation failed", "error", err)
		return nil, err
	}

	return session, nil
}

var _ Authenticator = (*Auther)(nil)
