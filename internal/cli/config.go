package cli

import (
	"os"
)

// Config holds CLI configuration
type Config struct {
	ServerURL string
	Session   string
	Output    string
	Verbose   bool
}

// DefaultConfig returns a Config with default values
func DefaultConfig() *Config {
	return &Config{
		ServerURL: getEnvOrDefault("IDGW_SERVER", "http://localhost:8000"),
		Session:   os.Getenv("IDGW_SESSION"),
		Output:    "text",
		Verbose:   false,
	}
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
