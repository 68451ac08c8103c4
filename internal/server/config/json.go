package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/okutsen/snipkeep/internal/flagx"
	"github.com/okutsen/snipkeep/internal/timex"
)

// JsonConfig is a DTO used only for reading JSON configuration files. It
// uses timex.Duration for the token lifetime, which parses both string
// values such as "24h" and integer nanoseconds. After unmarshalling, its
// fields are copied into the runtime Config.
type JsonConfig struct {
	EndpointAddrHTTP      string         `json:"endpoint_addr_http"`
	DatabaseDSN           string         `json:"database_dsn"`
	SecretKey             string         `json:"secret_key"`
	TokenValidityDuration timex.Duration `json:"token_validity_duration"`
	GoogleClientID        string         `json:"google_client_id"`
	GoogleClientSecret    string         `json:"google_client_secret"`
	GoogleRedirectURL     string         `json:"google_redirect_url"`
	S3RootUser            string         `json:"s3_root_user"`
	S3RootPassword        string         `json:"s3_root_password"`
	S3Bucket              string         `json:"s3_bucket"`
	S3Region              string         `json:"s3_region"`
	S3BaseEndpoint        string         `json:"s3_base_endpoint"`
}

// parseJson loads configuration values from the JSON file named by the
// -c/-config flags into the provided Config. Absent flags mean no JSON is
// loaded. If the file cannot be read or contains invalid JSON, the
// function panics.
func parseJson(config *Config) {

	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	err = json.Unmarshal(file, c)
	if err != nil {
		panic(err)
	}

	config.EndpointAddrHTTP = c.EndpointAddrHTTP
	config.DatabaseDSN = c.DatabaseDSN
	config.SecretKey = c.SecretKey
	config.TokenValidityDuration = time.Duration(c.TokenValidityDuration.Duration)
	config.GoogleClientID = c.GoogleClientID
	config.GoogleClientSecret = c.GoogleClientSecret
	config.GoogleRedirectURL = c.GoogleRedirectURL
	config.S3RootUser = c.S3RootUser
	config.S3RootPassword = c.S3RootPassword
	config.S3Bucket = c.S3Bucket
	config.S3Region = c.S3Region
	config.S3BaseEndpoint = c.S3BaseEndpoint
}
