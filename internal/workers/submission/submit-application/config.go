// internal/workers/submission/submit-application/config.go
package submitapplication

import "time"

type Config struct {
	// Timeout bounds one full attempt including browser startup and all
	// fill retries.
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 5 * time.Minute,
	}
}
