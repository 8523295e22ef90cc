package accounts

import (
	"crypto/rand"
	"math/big"
	"strconv"
	"time"

	"github.com/goliatone/go-errors"
)

// Expiry windows for the two code purposes.
const (
	VerifyOTPTTL = 24 * time.Hour
	ResetOTPTTL  = 15 * time.Minute
)

var otpRange = big.NewInt(900000)

// GenerateOTP returns a 6 digit decimal code drawn uniformly from
// [100000, 999999]. Never a leading zero by construction; comparisons are
// still exact string equality, see matchOTP.
func GenerateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, otpRange)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to generate one-time code")
	}

	return strconv.FormatInt(n.Int64()+100000, 10), nil
}
