// internal/workers/matching/send-notifications/config.go
package sendnotifications

import "time"

type Config struct {
	EmailEnabled bool
	SMSEnabled   bool
	FromEmail    string
	// DedupTTL bounds how long a delivery-attempt key blocks re-delivery.
	DedupTTL time.Duration
	Timeout  time.Duration
}

func LoadConfig() *Config {
	return &Config{
		EmailEnabled: true,
		SMSEnabled:   false,
		DedupTTL:     24 * time.Hour,
		Timeout:      10 * time.Second,
	}
}
