package repository

import (
	"fmt"
	"strings"
	"time"
)

// nowUTC returns the current UTC time formatted as RFC3339.
func nowUTC() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

// parseTime parses a stored RFC3339 timestamp, returning the zero time on failure.
func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// validateKey rejects keys that cannot be used across every driver.
func validateKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("blob key is required")
	}
	if strings.ContainsAny(key, `/\`) || strings.Contains(key, "..") {
		return fmt.Errorf("blob key %q must not contain path separators", key)
	}
	return nil
}

func copyBytes(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
