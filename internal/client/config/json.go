package config

import (
	"encoding/json"
	"os"

	"github.com/okutsen/snipkeep/internal/flagx"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling; values are
// copied into the runtime Config afterwards.
type JsonConfig struct {
	ServerURL     string `json:"server_url"`
	LocalCacheDSN string `json:"local_cache_dsn"`
	SeedURL       string `json:"seed_url"`
}

// parseJson overlays cfg with values loaded from the JSON file named by
// the -c/-config flags. Absent flags mean no JSON is loaded. Read or
// unmarshal errors panic; callers may recover if desired.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.ServerURL != "" {
		cfg.ServerURL = jc.ServerURL
	}
	if jc.LocalCacheDSN != "" {
		cfg.LocalCacheDSN = jc.LocalCacheDSN
	}
	if jc.SeedURL != "" {
		cfg.SeedURL = jc.SeedURL
	}
}
