package core

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

var NowFunc = time.Now // mockable

// CleanString trims all leading and trailing whitespace in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

// NewID returns a fresh random identifier.
func NewID() string {
	return uuid.NewString()
}

// Now returns the current UTC time.
func Now() time.Time {
	return NowFunc().UTC()
}
