package clientip

import (
	"net"
	"strings"

	"github.com/valyala/fasthttp"
)

// DefaultHeaders are consulted when the config names none
var DefaultHeaders = []string{"X-Forwarded-For", "X-Real-IP"}

// Extract returns the visitor address from the first configured header that
// holds a parseable IP, else from the connection's remote address.
// For comma separated values (X-Forwarded-For) the leftmost entry is used.
func Extract(ctx *fasthttp.RequestCtx, headers []string) string {
	for _, header := range headers {
		value := string(ctx.Request.Header.Peek(header))
		if idx := strings.IndexByte(value, ','); idx >= 0 {
			value = value[:idx]
		}
		if ip := parseIP(strings.TrimSpace(value)); ip != "" {
			return ip
		}
	}

	addr := ctx.RemoteAddr().String()
	if host, _, err := net.SplitHostPort(addr); err == nil {
		addr = host
	}
	if ip := parseIP(addr); ip != "" {
		return ip
	}
	return addr
}

// parseIP strips brackets and zones and returns the canonical form, or ""
func parseIP(raw string) string {
	raw = strings.TrimSuffix(strings.TrimPrefix(raw, "["), "]")
	if idx := strings.IndexByte(raw, '%'); idx >= 0 {
		raw = raw[:idx]
	}
	ip := net.ParseIP(raw)
	if ip == nil {
		return ""
	}
	return ip.String()
}
