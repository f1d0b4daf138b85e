package render

import (
	"io"
	"net/url"
	"strconv"
	"strings"

	"github.com/a-h/templ"
)

// htmlWriter accumulates the first write error so component bodies stay flat
type htmlWriter struct {
	w   io.Writer
	err error
}

func (h *htmlWriter) raw(parts ...string) {
	for _, s := range parts {
		if h.err != nil {
			return
		}
		_, h.err = io.WriteString(h.w, s)
	}
}

func (h *htmlWriter) text(s string) {
	h.raw(templ.EscapeString(s))
}

// attr writes ` name="value"` with the value escaped
func (h *htmlWriter) attr(name, value string) {
	h.raw(" ", name, `="`, templ.EscapeString(value), `"`)
}

func (h *htmlWriter) intAttr(name string, value int) {
	h.raw(" ", name, `="`, strconv.Itoa(value), `"`)
}

// safeURL accepts relative, fragment, http(s), mailto and tel URLs and
// returns "" for anything else.
func safeURL(raw string) string {
	val := strings.TrimSpace(raw)
	if val == "" {
		return ""
	}
	if strings.HasPrefix(val, "/") || strings.HasPrefix(val, "#") {
		return val
	}
	parsed, err := url.Parse(val)
	if err != nil {
		return ""
	}
	switch strings.ToLower(parsed.Scheme) {
	case "http", "https", "mailto", "tel":
		return val
	case "":
		// relative path such as "media/logo.png"
		if parsed.Host == "" {
			return val
		}
	}
	return ""
}

func classList(classes ...string) string {
	out := classes[:0:0]
	for _, c := range classes {
		if c != "" {
			out = append(out, c)
		}
	}
	return strings.Join(out, " ")
}
