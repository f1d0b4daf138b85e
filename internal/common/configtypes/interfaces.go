package configtypes

// ConfigProvider provides read access to the loaded site configuration.
// Returned pointers are read-only - callers must not modify them.
type ConfigProvider interface {
	GetConfig() *SiteConfig
}
