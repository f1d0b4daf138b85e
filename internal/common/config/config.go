package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/autoinsurance/storefront/internal/common/configtypes"
	"github.com/autoinsurance/storefront/internal/content/pipeline"
	"github.com/autoinsurance/storefront/pkg/types"
)

// Type aliases so callers only import this package
type (
	SiteConfig       = configtypes.SiteConfig
	ContentAPIConfig = configtypes.ContentAPIConfig
	LogConfig        = configtypes.LogConfig
	AccessLogConfig  = configtypes.AccessLogConfig
)

// Environment variables that override file settings
const (
	EnvContentAPIBase  = "CONTENT_API_BASE"
	EnvListen          = "STOREFRONT_LISTEN"
	EnvLeadsRedisAddr  = "LEADS_REDIS_ADDR"
	EnvLeadsRedisPass  = "LEADS_REDIS_PASSWORD"
	defaultDotEnvFile  = ".env"
	defaultFallbackAPI = 8000
)

// Compile-time interface satisfaction check
var _ configtypes.ConfigProvider = (*Manager)(nil)

// Manager owns the loaded configuration
type Manager struct {
	config     *SiteConfig
	configPath string
	logger     *zap.Logger
}

func NewManager(configPath string, logger *zap.Logger) (*Manager, error) {
	m := &Manager{
		configPath: configPath,
		logger:     logger,
	}

	if err := m.Load(); err != nil {
		return nil, fmt.Errorf("failed to load initial config: %w", err)
	}

	return m, nil
}

// Load reads, validates and installs the configuration file
func (m *Manager) Load() error {
	cfg, err := LoadFile(m.configPath)
	if err != nil {
		return err
	}

	result := Validate(cfg)
	if !result.Valid() {
		return result.Err(m.configPath)
	}
	for _, w := range result.Warnings {
		m.logger.Warn("Configuration warning", zap.String("warning", w))
	}

	m.config = cfg

	m.logger.Info("Configuration loaded",
		zap.String("config_path", m.configPath),
		zap.String("content_api", cfg.ContentAPI.BaseURL),
		zap.Bool("leads_redis", cfg.Leads.Redis.Enabled))

	return nil
}

// GetConfig returns the loaded configuration (read-only)
func (m *Manager) GetConfig() *SiteConfig {
	return m.config
}

// LoadFile reads a YAML config file, applies .env and environment overrides
// and fills in defaults. It does not validate.
func LoadFile(path string) (*SiteConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg SiteConfig
	if err := unmarshalStrict(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	if err := loadDotEnv(filepath.Join(filepath.Dir(path), defaultDotEnvFile), defaultDotEnvFile); err != nil {
		return nil, err
	}
	applyEnv(&cfg, os.LookupEnv)
	ApplyDefaults(&cfg)

	return &cfg, nil
}

// Default returns a configuration with every default applied and environment
// overrides honoured, for tools that run without a config file.
func Default() *SiteConfig {
	var cfg SiteConfig
	_ = loadDotEnv(defaultDotEnvFile)
	applyEnv(&cfg, os.LookupEnv)
	ApplyDefaults(&cfg)
	return &cfg
}

// loadDotEnv loads each existing file into the process environment. Values
// already set in the environment win.
func loadDotEnv(paths ...string) error {
	seen := make(map[string]bool)
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil || seen[abs] {
			continue
		}
		seen[abs] = true

		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

func applyEnv(cfg *SiteConfig, lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvContentAPIBase); ok && strings.TrimSpace(v) != "" {
		cfg.ContentAPI.BaseURL = strings.TrimSpace(v)
	}
	if v, ok := lookup(EnvListen); ok && v != "" {
		cfg.Server.Listen = v
	}
	if v, ok := lookup(EnvLeadsRedisAddr); ok && v != "" {
		cfg.Leads.Redis.Addr = v
	}
	if v, ok := lookup(EnvLeadsRedisPass); ok {
		cfg.Leads.Redis.Password = v
	}
}

// ApplyDefaults fills every unset field with its default
func ApplyDefaults(cfg *SiteConfig) {
	if cfg.Server.Listen == "" {
		cfg.Server.Listen = ":3001"
	}
	if cfg.Server.Timeout == 0 {
		cfg.Server.Timeout = types.Duration(30 * time.Second)
	}

	api := &cfg.ContentAPI
	api.BaseURL = strings.TrimRight(api.BaseURL, "/")
	if api.FallbackPort == 0 {
		api.FallbackPort = defaultFallbackAPI
	}
	if api.Timeout == 0 {
		api.Timeout = types.Duration(2 * time.Second)
	}
	setDefault(&api.Paths.Page, "/page/{slug}/")
	setDefault(&api.Paths.Homepage, "/homepage")
	setDefault(&api.Paths.FooterMenu, "/menu/footer/")
	setDefault(&api.Paths.SiteSettings, "/site-config/")
	setDefault(&api.Paths.Navigation, "/pages-with-categories/?include_blogs=0")
	setDefault(&api.Paths.FooterAddress, "/footer-address/")

	setDefault(&cfg.Site.BrandName, "AutoInsurance.org")
	setDefault(&cfg.Site.FooterText, "We are a free online resource for anyone interested in learning more about auto insurance. Our goal is to be an objective, third-party resource for everything auto insurance related.")
	setDefault(&cfg.Site.Disclaimer, "Disclaimer: AutoInsurance.org strives to present the most up-to-date and comprehensive information on saving money on car insurance possible. This information may be different than what you see when you visit an insurance provider, insurance agency, or insurance company website. All insurance rates, products, and services are presented without warranty and guarantee. When evaluating rates, please verify directly with your insurance company or agent. Quotes and offers are not binding, nor a guarantee of coverage.")

	setDefault(&cfg.Leads.QuotesPath, "/quotes")
	setDefault(&cfg.Leads.Redis.Stream, "leads:zip")
	if cfg.Leads.Redis.MaxLen == 0 {
		cfg.Leads.Redis.MaxLen = 100000
	}
	if cfg.Leads.RateLimit.PerMinute == 0 {
		cfg.Leads.RateLimit.PerMinute = 30
	}
	if cfg.Leads.RateLimit.Burst == 0 {
		cfg.Leads.RateLimit.Burst = 5
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = configtypes.LogLevelInfo
	}
	if !cfg.Log.Console.Enabled && !cfg.Log.File.Enabled {
		cfg.Log.Console.Enabled = true
	}
	setDefault(&cfg.Log.Console.Format, configtypes.LogFormatConsole)
	setDefault(&cfg.Log.File.Format, configtypes.LogFormatText)

	setDefault(&cfg.Metrics.Path, "/metrics")
	setDefault(&cfg.Metrics.Namespace, "storefront")

	cfg.Policy = pipeline.DefaultPolicy().Merge(cfg.Policy)
}

func setDefault(field *string, value string) {
	if *field == "" {
		*field = value
	}
}
