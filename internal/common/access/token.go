// internal/common/access/token.go
package access

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
	"net/url"
	"strings"
	"time"
)

// ValidationResult classifies an OTP check.
type ValidationResult int

const (
	Valid ValidationResult = iota
	Expired
	Mismatch
)

func (r ValidationResult) String() string {
	switch r {
	case Valid:
		return "valid"
	case Expired:
		return "expired"
	default:
		return "mismatch"
	}
}

// Issuer generates and validates the OTP/link pair gating merchant
// self-service access to a draft.
type Issuer struct {
	baseURL string
	ttl     time.Duration
}

// NewIssuer builds an Issuer. baseURL is the externally visible origin of the
// application portal (explicit configuration, never derived from a request).
func NewIssuer(baseURL string, ttlDays int) *Issuer {
	return &Issuer{
		baseURL: strings.TrimRight(baseURL, "/"),
		ttl:     time.Duration(ttlDays) * 24 * time.Hour,
	}
}

// Issue returns a fresh 6-digit numeric code and its expiry timestamp. The
// code comes from crypto/rand; the expiry is now + the configured window.
func (i *Issuer) Issue(now time.Time) (string, time.Time, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("generate otp: %w", err)
	}
	otp := fmt.Sprintf("%06d", n.Int64()+100000)
	return otp, now.Add(i.ttl).UTC(), nil
}

// BuildAccessLink constructs the merchant resume URL. The email parameter is
// not a secret; the OTP is the sole access control and is validated
// server-side on every resume.
func (i *Issuer) BuildAccessLink(applicationID, merchantEmail string) string {
	return fmt.Sprintf("%s/apply/%s?email=%s",
		i.baseURL, url.PathEscape(applicationID), url.QueryEscape(merchantEmail))
}

// Validate checks a submitted code against the stored one. Expiry is checked
// first: an expired link reports Expired regardless of code correctness. The
// comparison is constant-time.
func Validate(storedOTP, submittedOTP string, expiresAt, now time.Time) ValidationResult {
	if now.After(expiresAt) {
		return Expired
	}
	if subtle.ConstantTimeCompare([]byte(storedOTP), []byte(submittedOTP)) != 1 {
		return Mismatch
	}
	return Valid
}
