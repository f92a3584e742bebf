// internal/workers/access/validate-access-otp/config.go
package validateaccessotp

import "time"

type Config struct {
	Timeout        time.Duration
	MaxOTPAttempts int
	AttemptsWindow time.Duration
	SessionTTL     time.Duration
}

func LoadConfig(maxAttempts, sessionTTLMin int) *Config {
	return &Config{
		Timeout:        10 * time.Second,
		MaxOTPAttempts: maxAttempts,
		AttemptsWindow: 15 * time.Minute,
		SessionTTL:     time.Duration(sessionTTLMin) * time.Minute,
	}
}
