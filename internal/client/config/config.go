// Package config handles configuration for the snipkeep client library:
// defaults, optional JSON overlay, and command-line flags, in that order
// of precedence.
package config

// Config holds runtime settings for the client.
//
// Fields:
//   - ServerURL: base URL of the snipkeep server ("" disables the remote
//     store; the engine then runs local-only regardless of identity).
//   - LocalCacheDSN: sqlite DSN of the device-local cache.
//   - SeedURL: optional URL of a sample dataset used for the one-time
//     bootstrap; the bundled samples apply when empty or unreachable.
type Config struct {
	ServerURL     string
	LocalCacheDSN string
	SeedURL       string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:8080"
	c.LocalCacheDSN = "file:snipkeep.db"
	c.SeedURL = ""
}

// LoadConfig constructs a Config, applies defaults, then overlays values
// from JSON (if present) and command-line flags (if present). Later
// sources take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
