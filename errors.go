package accounts

import (
	"github.com/goliatone/go-errors"
)

// Text codes surfaced to API clients alongside the HTTP status.
const (
	TextCodeInvalidCreds   = "INVALID_CREDENTIALS"
	TextCodeInvalidOTP     = "INVALID_OTP"
	TextCodeOTPExpired     = "OTP_EXPIRED"
	TextCodeTokenExpired   = "TOKEN_EXPIRED"
	TextCodeTokenMalformed = "TOKEN_MALFORMED"
	TextCodeDeliveryFailed = "DELIVERY_FAILED"
)

// ErrInvalidCredentials is returned for both an unknown email and a wrong
// password. Callers must not be able to tell the two apart.
var ErrInvalidCredentials = errors.New("the credentials provided are invalid", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode(TextCodeInvalidCreds)

// ErrNoEmptyString rejects empty input to the password hasher.
var ErrNoEmptyString = errors.New("value should not be an empty string", errors.CategoryValidation).
	WithCode(errors.CodeBadRequest)

// ErrAccountNotFound is the error we return for missing account records.
var ErrAccountNotFound = errors.New("account not found", errors.CategoryNotFound).
	WithCode(errors.CodeNotFound)

// ErrAccountExists is returned when registering an email that is taken.
var ErrAccountExists = errors.New("an account with that email already exists", errors.CategoryConflict).
	WithCode(errors.CodeConflict)

// ErrAlreadyVerified is returned when requesting a code for a verified account.
var ErrAlreadyVerified = errors.New("account is already verified", errors.CategoryConflict).
	WithCode(errors.CodeConflict)

// ErrInvalidOTP covers both a missing stored code and a mismatched code.
var ErrInvalidOTP = errors.New("invalid one-time code", errors.CategoryValidation).
	WithCode(errors.CodeBadRequest).
	WithTextCode(TextCodeInvalidOTP)

// ErrOTPExpired is returned when the code matches but its window has passed.
// The transport maps it to 410 Gone, see StatusForError.
var ErrOTPExpired = errors.New("one-time code has expired", errors.CategoryValidation).
	WithTextCode(TextCodeOTPExpired)

// ErrTokenExpired is returned for session tokens past their expiry.
var ErrTokenExpired = errors.New("session token is expired", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode(TextCodeTokenExpired)

// ErrTokenMalformed covers bad signatures and undecodable tokens.
var ErrTokenMalformed = errors.New("session token is malformed", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode(TextCodeTokenMalformed)

// ErrUnableToFindSession is the error when the request carries no session cookie.
var ErrUnableToFindSession = errors.New("unable to find session", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized)

// ErrDeliveryFailed wraps notification sink failures on paths where the user
// cannot proceed without the message (OTP delivery).
var ErrDeliveryFailed = errors.New("unable to deliver notification", errors.CategoryOperation).
	WithCode(errors.CodeInternal).
	WithTextCode(TextCodeDeliveryFailed)

// WrapValidationError tags a payload binding or validation failure so the
// transport renders it as a 400 with the given message.
func WrapValidationError(err error, msg string) error {
	return errors.Wrap(err, errors.CategoryValidation, msg).
		WithCode(errors.CodeBadRequest)
}

// StatusForError resolves the HTTP status for an engine error. Rich errors
// carry their own code; ErrOTPExpired maps to 410 Gone, anything untagged
// is a 500.
func StatusForError(err error) int {
	if err == nil {
		return 200
	}

	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		return errors.CodeInternal
	}

	if richErr.TextCode == TextCodeOTPExpired {
		return 410
	}

	if richErr.Code > 0 {
		return richErr.Code
	}

	return errors.CodeInternal
}
