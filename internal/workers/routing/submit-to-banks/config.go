// internal/workers/routing/submit-to-banks/config.go
package submittobanks

import "time"

type Config struct {
	Timeout       time.Duration
	SubmitTimeout time.Duration
	CallbackURL   string
	APIKey        string
}

func LoadConfig(submitTimeoutMS int, callbackURL, apiKey string) *Config {
	return &Config{
		Timeout:       30 * time.Second,
		SubmitTimeout: time.Duration(submitTimeoutMS) * time.Millisecond,
		CallbackURL:   callbackURL,
		APIKey:        apiKey,
	}
}
