package accounts

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Account is the persisted identity record. Email is the natural key for
// unauthenticated flows (password reset); ID is the key once a session
// exists.
type Account struct {
	bun.BaseModel `bun:"table:accounts,alias:acc"`

	ID           uuid.UUID `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Name         string    `bun:"name,notnull" json:"name,omitempty"`
	Email        string    `bun:"email,notnull,unique" json:"email,omitempty"`
	PasswordHash string    `bun:"password_hash,notnull" json:"-"`

	// Verified is monotone: it only ever moves false to true.
	Verified bool `bun:"is_verified,notnull,default:false" json:"is_verified"`

	// At most one outstanding code per purpose. An empty string means no
	// code is pending; generating a new code overwrites the previous one.
	VerifyOTP          string     `bun:"verify_otp" json:"-"`
	VerifyOTPExpiresAt *time.Time `bun:"verify_otp_expires_at,nullzero" json:"-"`
	ResetOTP           string     `bun:"reset_otp" json:"-"`
	ResetOTPExpiresAt  *time.Time `bun:"reset_otp_expires_at,nullzero" json:"-"`

	CreatedAt *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// SetVerifyOTP replaces any pending verification code.
func (a *Account) SetVerifyOTP(code string, expiresAt time.Time) *Account {
	a.VerifyOTP = code
	a.VerifyOTPExpiresAt = &expiresAt
	return a
}

// ClearVerifyOTP consumes the pending verification code.
func (a *Account) ClearVerifyOTP() *Account {
	a.VerifyOTP = ""
	a.VerifyOTPExpiresAt = nil
	return a
}

// SetResetOTP replaces any pending reset code.
func (a *Account) SetResetOTP(code string, expiresAt time.Time) *Account {
	a.ResetOTP = code
	a.ResetOTPExpiresAt = &expiresAt
	return a
}

// ClearResetOTP consumes the pending reset code.
func (a *Account) ClearResetOTP() *Account {
	a.ResetOTP = ""
	a.ResetOTPExpiresAt = nil
	return a
}

func (a *Account) HasVerifyOTP() bool {
	return a.VerifyOTP != ""
}

func (a *Account) HasResetOTP() bool {
	return a.ResetOTP != ""
}

// matchOTP compares codes by content equality, never numerically, so a
// future change to code generation keeps leading zeros significant.
func matchOTP(stored, supplied string) bool {
	return stored != "" && stored == supplied
}

// otpExpired reports whether a code window has closed. A nil expiry counts
// as expired so a half-written record can never validate.
func otpExpired(expiresAt *time.Time, now time.Time) bool {
	if expiresAt == nil {
		return true
	}
	return now.After(*expiresAt)
}
