// Package pointer has helpers for optional values such as test config
// overrides.
package pointer

import "time"

// Uint64 returns a pointer to the provided uint64 value
func Uint64(value uint64) *uint64 {
	return &value
}

// Uint64OrDefault returns the value pointed to, otherwise the default value
func Uint64OrDefault(value *uint64, defaultValue uint64) uint64 {
	if value != nil {
		return *value
	}
	return defaultValue
}

// Duration returns a pointer to the provided time.Duration value
func Duration(value time.Duration) *time.Duration {
	return &value
}

// DurationOrDefault returns the value pointed to, otherwise the default value
func DurationOrDefault(value *time.Duration, defaultValue time.Duration) time.Duration {
	if value != nil {
		return *value
	}
	return defaultValue
}
