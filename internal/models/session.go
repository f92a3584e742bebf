// internal/models/session.go
package models

import "time"

// AccessSession is the short-lived Redis-backed session created after a
// merchant validates their OTP. Subsequent saves present the session token
// instead of re-entering the code; the OTP itself is still checked
// server-side on every fresh resume.
type AccessSession struct {
	Token         string    `json:"token"`
	ApplicationID string    `json:"applicationId"`
	MerchantEmail string    `json:"merchantEmail"`
	IssuedAt      time.Time `json:"issuedAt"`
	ExpiresAt     time.Time `json:"expiresAt"`
}
