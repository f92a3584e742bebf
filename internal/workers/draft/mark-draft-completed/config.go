// internal/workers/draft/mark-draft-completed/config.go
package markdraftcompleted

import "time"

type Config struct {
	Timeout time.Duration
	ESIndex string
}

func LoadConfig(esIndex string) *Config {
	return &Config{
		Timeout: 10 * time.Second,
		ESIndex: esIndex,
	}
}
