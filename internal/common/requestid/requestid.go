package requestid

import (
	"crypto/rand"
	"encoding/hex"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// Header carries the request ID in both directions
const Header = "X-Request-ID"

const (
	// MaxRequestIDLength matches the length of a UUID
	MaxRequestIDLength = 36
	PrefixLength       = 5
	MaxCustomIDLength  = MaxRequestIDLength - PrefixLength - 1
)

var (
	invalidChars = regexp.MustCompile(`[^a-zA-Z0-9-]+`)
	hyphenRuns   = regexp.MustCompile(`-+`)
)

// GenerateRequestID derives a request ID from an upstream one (e.g. from a
// load balancer). The upstream value is sanitized to [a-zA-Z0-9-] and given a
// random 5 character prefix: {prefix}-{sanitized}. Without a usable upstream
// value a UUID is returned.
func GenerateRequestID(upstream string) string {
	sanitized := invalidChars.ReplaceAllString(strings.ReplaceAll(upstream, " ", "-"), "")
	sanitized = strings.Trim(hyphenRuns.ReplaceAllString(sanitized, "-"), "-")

	if sanitized == "" {
		return uuid.New().String()
	}
	if len(sanitized) > MaxCustomIDLength {
		sanitized = sanitized[:MaxCustomIDLength]
	}

	return randomPrefix() + "-" + sanitized
}

func randomPrefix() string {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return uuid.New().String()[:PrefixLength]
	}
	return hex.EncodeToString(buf)[:PrefixLength]
}
