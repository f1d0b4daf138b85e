package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/autoinsurance/storefront/internal/common/configtypes"
	"github.com/autoinsurance/storefront/internal/site/events"
)

// ValidationResult collects problems found in a loaded configuration
type ValidationResult struct {
	Errors   []string
	Warnings []string
}

// Valid reports whether no errors were found
func (r *ValidationResult) Valid() bool {
	return len(r.Errors) == 0
}

// Err folds all errors into one error value, or nil
func (r *ValidationResult) Err(path string) error {
	if r.Valid() {
		return nil
	}
	return fmt.Errorf("configuration %s has %d error(s): %s", path, len(r.Errors), strings.Join(r.Errors, "; "))
}

func (r *ValidationResult) addError(format string, args ...interface{}) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *ValidationResult) addWarning(format string, args ...interface{}) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// Validate checks a configuration after defaults have been applied
func Validate(cfg *SiteConfig) *ValidationResult {
	r := &ValidationResult{}

	if err := configtypes.ValidateListenAddress(cfg.Server.Listen); err != nil {
		r.addError("server.listen: %v", err)
	}
	if cfg.Server.Timeout.ToDuration() <= 0 {
		r.addError("server.timeout must be positive")
	}

	api := cfg.ContentAPI
	if api.BaseURL == "" {
		r.addWarning("content_api.base_url is empty; the API base is derived from each request host on port %d", api.FallbackPort)
	} else if u, err := url.Parse(api.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		r.addError("content_api.base_url must be an absolute http(s) URL, got %q", api.BaseURL)
	}
	if api.Timeout.ToDuration() <= 0 {
		r.addError("content_api.timeout must be positive")
	} else if api.Timeout.ToDuration() > cfg.Server.Timeout.ToDuration() {
		r.addWarning("content_api.timeout (%s) exceeds server.timeout (%s)", api.Timeout, cfg.Server.Timeout)
	}
	for _, h := range api.AllowedHosts {
		if strings.TrimSpace(h) == "" || strings.Contains(h, "/") {
			r.addError("content_api.allowed_hosts: %q must be a bare host name", h)
		}
	}
	if api.BaseURL != "" && len(api.AllowedHosts) > 0 {
		r.addWarning("content_api.allowed_hosts is ignored because base_url is set")
	}
	if api.FallbackPort < 1 || api.FallbackPort > 65535 {
		r.addError("content_api.fallback_port must be between 1 and 65535, got %d", api.FallbackPort)
	}
	if !strings.Contains(api.Paths.Page, "{slug}") {
		r.addError("content_api.paths.page must contain {slug}, got %q", api.Paths.Page)
	}

	if !strings.HasPrefix(cfg.Leads.QuotesPath, "/") {
		r.addError("leads.quotes_path must start with '/', got %q", cfg.Leads.QuotesPath)
	}
	if cfg.Leads.Redis.Enabled && cfg.Leads.Redis.Addr == "" {
		r.addError("leads.redis.addr is required when leads.redis.enabled is true")
	}
	if cfg.Leads.RateLimit.PerMinute < 0 || cfg.Leads.RateLimit.Burst < 0 {
		r.addError("leads.rate_limit values must not be negative")
	}

	switch cfg.Log.Level {
	case configtypes.LogLevelDebug, configtypes.LogLevelInfo, configtypes.LogLevelWarn, configtypes.LogLevelError:
	default:
		r.addError("log.level must be one of debug, info, warn, error; got %q", cfg.Log.Level)
	}
	if cfg.Log.File.Enabled && cfg.Log.File.Path == "" {
		r.addError("log.file.path must be specified when file logging is enabled")
	}

	if cfg.AccessLog.Enabled {
		if cfg.AccessLog.Path == "" {
			r.addError("access_log.path must be specified when the access log is enabled")
		}
		if cfg.AccessLog.Template != "" {
			if _, err := events.NewTemplateFormatter(cfg.AccessLog.Template); err != nil {
				r.addError("access_log.template: %v", err)
			}
		}
	}

	if cfg.Metrics.Enabled {
		if err := configtypes.ValidateListenAddress(cfg.Metrics.Listen); err != nil {
			r.addError("metrics.listen: %v", err)
		} else if cfg.Metrics.Listen == cfg.Server.Listen {
			r.addError("metrics.listen must differ from server.listen")
		}
		if !strings.HasPrefix(cfg.Metrics.Path, "/") {
			r.addError("metrics.path must start with '/'")
		}
	}

	if len(cfg.Policy.About.Slugs) == 0 {
		r.addWarning("policy.about.slugs is empty; no page is treated as the about page")
	}

	return r
}
