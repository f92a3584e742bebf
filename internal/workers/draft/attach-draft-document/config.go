// internal/workers/draft/attach-draft-document/config.go
package attachdraftdocument

import "time"

type Config struct {
	Timeout      time.Duration
	MaxSizeBytes int64
}

func LoadConfig() *Config {
	return &Config{
		Timeout:      10 * time.Second,
		MaxSizeBytes: 20 << 20, // 20 MiB
	}
}
