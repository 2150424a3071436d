package instance

import "os"

// GetID identifies this process in logs. It prefers the explicit
// LOKAPASAR_INSTANCE_ID, then the container hostname, then a fixed default.
func GetID() string {
	if id := os.Getenv("LOKAPASAR_INSTANCE_ID"); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "worker-0"
}
