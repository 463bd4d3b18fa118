// internal/matching/orchestrator/config.go
package orchestrator

import "time"

type Config struct {
	// StepTimeout bounds each blocking pipeline step (snapshot fetch,
	// application writes, notification writes) individually.
	StepTimeout time.Duration
	// StatusTTL bounds how long the last run report stays queryable.
	StatusTTL time.Duration
}

func LoadConfig() *Config {
	return &Config{
		StepTimeout: 10 * time.Second,
		StatusTTL:   24 * time.Hour,
	}
}
