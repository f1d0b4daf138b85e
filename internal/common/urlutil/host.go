package urlutil

import (
	"strings"
)

// ExtractHostname extracts the hostname from a host string, removing the port if present.
// Input is a host string (NOT a full URL), e.g., "example.com:8080" or "example.com".
// Brackets around IPv6 literals are removed: "[::1]:8080" -> "::1".
func ExtractHostname(host string) string {
	host = strings.TrimSpace(host)
	if strings.HasPrefix(host, "[") {
		if bracketIdx := strings.Index(host, "]"); bracketIdx != -1 {
			return host[1:bracketIdx]
		}
		return strings.TrimPrefix(host, "[")
	}
	// Only strip a port when there is exactly one colon; bare IPv6 stays intact
	if idx := strings.LastIndex(host, ":"); idx != -1 && strings.Count(host, ":") == 1 {
		return host[:idx]
	}
	return host
}

// MatchesHost reports whether requestHost is allowedHost or one of its
// subdomains. Ports are ignored and the comparison is case-insensitive.
func MatchesHost(allowedHost, requestHost string) bool {
	allowed := strings.ToLower(ExtractHostname(allowedHost))
	req := strings.ToLower(ExtractHostname(requestHost))
	if allowed == "" || req == "" {
		return false
	}
	return req == allowed || strings.HasSuffix(req, "."+allowed)
}

// HostAllowed checks requestHost against an allowlist. An empty list
// allows every host.
func HostAllowed(requestHost string, allowed []string) bool {
	if len(allowed) == 0 {
		return true
	}
	for _, a := range allowed {
		if MatchesHost(a, requestHost) {
			return true
		}
	}
	return false
}
