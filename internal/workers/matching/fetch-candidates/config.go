// internal/workers/matching/fetch-candidates/config.go
package fetchcandidates

import "time"

type Config struct {
	NurseIndex     string
	CandidateLimit int
	CacheTTL       time.Duration
}

func LoadConfig() *Config {
	return &Config{
		NurseIndex:     "nurses",
		CandidateLimit: 500,
		CacheTTL:       5 * time.Minute,
	}
}
