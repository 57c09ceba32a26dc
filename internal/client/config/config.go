package config

import "time"

// Storage backends accepted in Config.StorageBackend.
const (
	BackendSQLite = "sqlite"
	BackendS3     = "s3"
	BackendMemory = "memory"
)

// Config holds runtime settings for the careerkeeper CLI.
//
// An empty RemoteDSN keeps the client local-only. An empty DeviceSeed makes
// the CLI prompt for one at startup.
type Config struct {
	DBPath         string
	StorageBackend string

	S3Bucket       string
	S3Region       string
	S3BaseEndpoint string
	S3AccessKey    string
	S3SecretKey    string
	S3Prefix       string

	RemoteDSN   string
	AccessToken string
	JWTSecret   string
	DeviceSeed  string

	OnlineCheckInterval time.Duration
	RemoteTimeout       time.Duration
	LogLevel            string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.DBPath = "careerkeeper.db"
	c.StorageBackend = BackendSQLite
	c.S3Bucket = "careerkeeper"
	c.S3Region = "us-east-1"
	c.S3Prefix = "vault"
	c.OnlineCheckInterval = 5 * time.Second
	c.RemoteTimeout = 10 * time.Second
	c.LogLevel = "warn"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present), the environment (including a .env file) and
// command-line flags. Later sources take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseEnv(cfg)
	parseFlags(cfg)
	return cfg
}
