// internal/workers/actions/record-terminal-action/config.go
package recordterminalaction

import "time"

type Config struct {
	Timeout     time.Duration
	AWSRegion   string
	SNSTopicARN string
}

func LoadConfig(awsRegion, snsTopicARN string) *Config {
	return &Config{
		Timeout:     15 * time.Second,
		AWSRegion:   awsRegion,
		SNSTopicARN: snsTopicARN,
	}
}
