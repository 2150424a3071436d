package env

import (
	"os"
	"strings"
)

// Get reads the environment variable and falls back when it is unset or
// blank.
func Get(key, fallback string) string {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return fallback
	}
	return val
}
