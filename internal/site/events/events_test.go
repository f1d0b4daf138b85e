package events

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/autoinsurance/storefront/internal/common/configtypes"
)

func sampleEvent() *PageEvent {
	return &PageEvent{
		RequestID:  "abc12-req",
		Method:     "GET",
		Path:       "/about-us",
		ClientIP:   "203.0.113.9",
		UserAgent:  "Mozilla/5.0 \"quoted\"",
		Slug:       "about-us",
		Category:   "about",
		Sections:   3,
		Dropped:    2,
		StatusCode: 200,
		PageSize:   5120,
		ServeTime:  0.0426,
		CreatedAt:  time.Date(2026, 3, 1, 12, 30, 45, 123000000, time.UTC),
	}
}

func TestNewTemplateFormatter(t *testing.T) {
	tests := []struct {
		name          string
		template      string
		expectedCount int
		errContains   string
	}{
		{name: "single placeholder", template: "{path}", expectedCount: 1},
		{name: "multiple placeholders", template: "{timestamp} {path} {status_code}", expectedCount: 3},
		{name: "static text only", template: "static", expectedCount: 0},
		{name: "empty template", template: "", errContains: "cannot be empty"},
		{name: "unknown field", template: "{cache_key}", errContains: "unknown placeholder {cache_key}"},
		{name: "unclosed", template: "{path", errContains: "unclosed placeholder"},
		{name: "empty placeholder", template: "{} {path}", errContains: "empty placeholder"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := NewTemplateFormatter(tt.template)
			if tt.errContains != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContains)
				return
			}
			require.NoError(t, err)
			assert.Len(t, f.placeholders, tt.expectedCount)
		})
	}
}

func TestTemplateFormatter_Format(t *testing.T) {
	tests := []struct {
		template string
		expected string
	}{
		{"{timestamp}", "2026-03-01T12:30:45.123Z"},
		{"{method} {path} {status_code}", `"GET" "/about-us" 200`},
		{"{category}:{sections}/{dropped}", `"about":3/2`},
		{"{serve_time}", "0.043"},
		{"{user_agent}", `"Mozilla/5.0 \"quoted\""`},
		{"{lead_outcome}", "-"},
		{"[{slug}]", `["about-us"]`},
	}

	for _, tt := range tests {
		t.Run(tt.template, func(t *testing.T) {
			f, err := NewTemplateFormatter(tt.template)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, f.Format(sampleEvent()))
		})
	}
}

func TestDefaultTemplateIsValid(t *testing.T) {
	f, err := NewTemplateFormatter(DefaultTemplate)
	require.NoError(t, err)
	assert.Equal(t, 10, strings.Count(f.Format(sampleEvent()), "\t"))
}

func TestFileEmitter_WritesLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "access.log")

	emitter, err := NewFileEmitter(configtypes.AccessLogConfig{
		Enabled:  true,
		Path:     path,
		Template: "{request_id} {status_code}",
	}, zap.NewNop())
	require.NoError(t, err)

	emitter.Emit(sampleEvent())
	e := sampleEvent()
	e.StatusCode = 303
	emitter.Emit(e)
	require.NoError(t, emitter.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "\"abc12-req\" 200\n\"abc12-req\" 303\n", string(data))
}

func TestFileEmitter_InvalidTemplate(t *testing.T) {
	emitter, err := NewFileEmitter(configtypes.AccessLogConfig{
		Path:     filepath.Join(t.TempDir(), "access.log"),
		Template: "{invalid_field}",
	}, zap.NewNop())

	assert.Error(t, err)
	assert.Nil(t, emitter)
	assert.Contains(t, err.Error(), "invalid_field")
}

func TestFileEmitter_AppliesDefaults(t *testing.T) {
	emitter, err := NewFileEmitter(configtypes.AccessLogConfig{
		Path: filepath.Join(t.TempDir(), "access.log"),
	}, zap.NewNop())
	require.NoError(t, err)
	defer emitter.Close()

	assert.Equal(t, DefaultTemplate, emitter.formatter.Template())
	assert.Equal(t, DefaultMaxSize, emitter.writer.MaxSize)
	assert.Equal(t, DefaultMaxAge, emitter.writer.MaxAge)
	assert.Equal(t, DefaultMaxBackups, emitter.writer.MaxBackups)
}

func TestNoopEmitter(t *testing.T) {
	var e EventEmitter = &NoopEmitter{}
	e.Emit(sampleEvent())
	assert.NoError(t, e.Close())
}
