// internal/workers/search/search-applications/config.go
package searchapplications

import "time"

type Config struct {
	Timeout time.Duration
	Index   string
}

func LoadConfig(index string) *Config {
	if index == "" {
		index = "merchant-applications"
	}
	return &Config{
		Timeout: 15 * time.Second,
		Index:   index,
	}
}
