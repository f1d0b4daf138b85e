package events

import (
	"fmt"
	"strings"
	"time"
)

// TemplateFormatter renders a PageEvent through a "{field}" template
type TemplateFormatter struct {
	template     string
	placeholders []placeholder
}

type placeholder struct {
	field string
	start int
	end   int
}

// fieldValues maps each placeholder name to its formatter
var fieldValues = map[string]func(e *PageEvent) string{
	"timestamp":    func(e *PageEvent) string { return formatTime(e.CreatedAt) },
	"request_id":   func(e *PageEvent) string { return formatString(e.RequestID) },
	"host":         func(e *PageEvent) string { return formatString(e.Host) },
	"method":       func(e *PageEvent) string { return formatString(e.Method) },
	"path":         func(e *PageEvent) string { return formatString(e.Path) },
	"route":        func(e *PageEvent) string { return formatString(e.Route) },
	"client_ip":    func(e *PageEvent) string { return formatString(e.ClientIP) },
	"user_agent":   func(e *PageEvent) string { return formatString(e.UserAgent) },
	"referer":      func(e *PageEvent) string { return formatString(e.Referer) },
	"slug":         func(e *PageEvent) string { return formatString(e.Slug) },
	"category":     func(e *PageEvent) string { return formatString(e.Category) },
	"sections":     func(e *PageEvent) string { return formatInt(e.Sections) },
	"dropped":      func(e *PageEvent) string { return formatInt(e.Dropped) },
	"api_base":     func(e *PageEvent) string { return formatString(e.APIBase) },
	"lead_outcome": func(e *PageEvent) string { return formatString(e.LeadOutcome) },
	"status_code":  func(e *PageEvent) string { return formatInt(e.StatusCode) },
	"page_size":    func(e *PageEvent) string { return formatInt(e.PageSize) },
	"serve_time":   func(e *PageEvent) string { return formatFloat(e.ServeTime) },
}

// NewTemplateFormatter parses and validates the template.
// Returns error if any placeholder is unknown or template is empty.
func NewTemplateFormatter(template string) (*TemplateFormatter, error) {
	if template == "" {
		return nil, fmt.Errorf("template cannot be empty")
	}

	placeholders, err := parsePlaceholders(template)
	if err != nil {
		return nil, err
	}

	return &TemplateFormatter{
		template:     template,
		placeholders: placeholders,
	}, nil
}

func parsePlaceholders(template string) ([]placeholder, error) {
	var placeholders []placeholder
	i := 0

	for i < len(template) {
		start := strings.Index(template[i:], "{")
		if start == -1 {
			break
		}
		start += i

		end := strings.Index(template[start:], "}")
		if end == -1 {
			return nil, fmt.Errorf("unclosed placeholder at position %d", start)
		}
		end += start

		field := template[start+1 : end]
		if field == "" {
			return nil, fmt.Errorf("empty placeholder at position %d", start)
		}
		if _, ok := fieldValues[field]; !ok {
			return nil, fmt.Errorf("unknown placeholder {%s}", field)
		}

		placeholders = append(placeholders, placeholder{field: field, start: start, end: end + 1})
		i = end + 1
	}

	return placeholders, nil
}

func (f *TemplateFormatter) Template() string {
	return f.template
}

// Format renders the event using the template
func (f *TemplateFormatter) Format(event *PageEvent) string {
	if len(f.placeholders) == 0 {
		return f.template
	}

	var b strings.Builder
	last := 0
	for _, p := range f.placeholders {
		b.WriteString(f.template[last:p.start])
		b.WriteString(fieldValues[p.field](event))
		last = p.end
	}
	b.WriteString(f.template[last:])
	return b.String()
}

// escapeString escapes characters that would break a log line
func escapeString(s string) string {
	escaped := strings.ReplaceAll(s, "\\", "\\\\")
	escaped = strings.ReplaceAll(escaped, "\"", "\\\"")
	escaped = strings.ReplaceAll(escaped, "\n", "\\n")
	escaped = strings.ReplaceAll(escaped, "\t", "\\t")
	escaped = strings.ReplaceAll(escaped, "\r", "\\r")
	return escaped
}

// formatString quotes a value; empty values become "-"
func formatString(s string) string {
	if s == "" {
		return "-"
	}
	return "\"" + escapeString(s) + "\""
}

func formatInt(i int) string {
	return fmt.Sprintf("%d", i)
}

// formatFloat formats a float64 with 3 decimal places
func formatFloat(f float64) string {
	return fmt.Sprintf("%.3f", f)
}

// formatTime formats a time in ISO 8601 format
func formatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}
