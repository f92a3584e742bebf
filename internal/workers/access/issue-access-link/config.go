// internal/workers/access/issue-access-link/config.go
package issueaccesslink

import "time"

type Config struct {
	Timeout       time.Duration
	AccessBaseURL string
	OTPTTLDays    int
	AWSRegion     string
	FromEmail     string
	ReplyTo       string
}

func LoadConfig(accessBaseURL string, otpTTLDays int, awsRegion, fromEmail, replyTo string) *Config {
	return &Config{
		Timeout:       15 * time.Second,
		AccessBaseURL: accessBaseURL,
		OTPTTLDays:    otpTTLDays,
		AWSRegion:     awsRegion,
		FromEmail:     fromEmail,
		ReplyTo:       replyTo,
	}
}
