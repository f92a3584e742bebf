// internal/workers/draft/create-draft/config.go
package createdraft

import "time"

type Config struct {
	Timeout       time.Duration
	AccessBaseURL string
	OTPTTLDays    int
}

func LoadConfig(accessBaseURL string, otpTTLDays int) *Config {
	return &Config{
		Timeout:       10 * time.Second,
		AccessBaseURL: accessBaseURL,
		OTPTTLDays:    otpTTLDays,
	}
}
