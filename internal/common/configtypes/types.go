package configtypes

import (
	"github.com/autoinsurance/storefront/internal/content/pipeline"
	"github.com/autoinsurance/storefront/pkg/types"
)

// Log level constants
const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
)

// Log format constants
const (
	LogFormatJSON    = "json"
	LogFormatConsole = "console"
	LogFormatText    = "text"
)

// SiteConfig is the storefront main configuration
type SiteConfig struct {
	Server     ServerConfig     `yaml:"server"`
	ContentAPI ContentAPIConfig `yaml:"content_api"`
	Site       SiteIdentity     `yaml:"site"`
	Leads      LeadsConfig      `yaml:"leads"`
	Log        LogConfig        `yaml:"log"`
	AccessLog  AccessLogConfig  `yaml:"access_log"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	ClientIP   *ClientIPConfig  `yaml:"client_ip,omitempty"`
	Policy     pipeline.Policy  `yaml:"policy"`
}

type ServerConfig struct {
	Listen  string         `yaml:"listen"`
	Timeout types.Duration `yaml:"timeout"`
	Gzip    *bool          `yaml:"gzip,omitempty"` // compress HTML responses when accepted (default: true)
}

// ContentAPIConfig points at the CMS backend. An empty BaseURL means the base
// is derived from the incoming request host.
type ContentAPIConfig struct {
	BaseURL      string         `yaml:"base_url"`
	FallbackPort int            `yaml:"fallback_port,omitempty"`
	Timeout      types.Duration `yaml:"timeout"`
	Paths        ContentPaths   `yaml:"paths"`

	// AllowedHosts restricts which request hosts (and their subdomains) may
	// be used to derive the base. Other hosts fall back to localhost.
	AllowedHosts []string `yaml:"allowed_hosts,omitempty"`
}

// ContentPaths are endpoint paths relative to the base URL. PagePath must
// contain the {slug} placeholder.
type ContentPaths struct {
	Page          string `yaml:"page,omitempty"`
	Homepage      string `yaml:"homepage,omitempty"`
	FooterMenu    string `yaml:"footer_menu,omitempty"`
	SiteSettings  string `yaml:"site_settings,omitempty"`
	Navigation    string `yaml:"navigation,omitempty"`
	FooterAddress string `yaml:"footer_address,omitempty"`
}

// SiteIdentity holds the fallbacks used when the CMS site config is missing fields
type SiteIdentity struct {
	BrandName  string `yaml:"brand_name"`
	FooterText string `yaml:"footer_text"`
	Disclaimer string `yaml:"disclaimer"`
	MediaBase  string `yaml:"media_base,omitempty"`
}

type LeadsConfig struct {
	QuotesPath string          `yaml:"quotes_path"`
	Redis      LeadsRedisConfig `yaml:"redis"`
	RateLimit  RateLimitConfig `yaml:"rate_limit"`
}

type LeadsRedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Stream   string `yaml:"stream"`
	MaxLen   int64  `yaml:"max_len"`
}

type RateLimitConfig struct {
	PerMinute int `yaml:"per_minute"`
	Burst     int `yaml:"burst"`
}

type LogConfig struct {
	Level   string           `yaml:"level"`
	Console ConsoleLogConfig `yaml:"console"`
	File    FileLogConfig    `yaml:"file"`
}

type ConsoleLogConfig struct {
	Enabled bool   `yaml:"enabled"`
	Format  string `yaml:"format"`
	Level   string `yaml:"level,omitempty"`
}

type FileLogConfig struct {
	Enabled  bool           `yaml:"enabled"`
	Path     string         `yaml:"path"`
	Format   string         `yaml:"format"`
	Level    string         `yaml:"level,omitempty"`
	Rotation RotationConfig `yaml:"rotation"`
}

// AccessLogConfig writes one templated line per served request.
// Template placeholders are validated at startup.
type AccessLogConfig struct {
	Enabled  bool           `yaml:"enabled"`
	Path     string         `yaml:"path"`
	Template string         `yaml:"template,omitempty"`
	Rotation RotationConfig `yaml:"rotation"`
}

type RotationConfig struct {
	MaxSize    int  `yaml:"max_size"`
	MaxAge     int  `yaml:"max_age"`
	MaxBackups int  `yaml:"max_backups"`
	Compress   bool `yaml:"compress"`
}

type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Listen    string `yaml:"listen"`
	Path      string `yaml:"path"`
	Namespace string `yaml:"namespace"`
}

// ClientIPConfig lists headers consulted, in order, for the visitor's address
type ClientIPConfig struct {
	Headers []string `yaml:"headers,omitempty"`
}

// GzipEnabled reports whether HTML responses may be compressed
func (s ServerConfig) GzipEnabled() bool {
	return s.Gzip == nil || *s.Gzip
}
