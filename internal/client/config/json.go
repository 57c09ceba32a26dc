package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/careerkeeper/internal/flagx"
	"github.com/dmitrijs2005/careerkeeper/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Durations use
// timex.Duration so they can be written as "3s" or integer nanoseconds.
// Absent fields leave the current value untouched.
type JsonConfig struct {
	DBPath              *string         `json:"db_path"`
	StorageBackend      *string         `json:"storage_backend"`
	S3Bucket            *string         `json:"s3_bucket"`
	S3Region            *string         `json:"s3_region"`
	S3BaseEndpoint      *string         `json:"s3_base_endpoint"`
	S3AccessKey         *string         `json:"s3_access_key"`
	S3SecretKey         *string         `json:"s3_secret_key"`
	S3Prefix            *string         `json:"s3_prefix"`
	RemoteDSN           *string         `json:"remote_dsn"`
	AccessToken         *string         `json:"access_token"`
	JWTSecret           *string         `json:"jwt_secret"`
	OnlineCheckInterval *timex.Duration `json:"online_check_interval"`
	RemoteTimeout       *timex.Duration `json:"remote_timeout"`
	LogLevel            *string         `json:"log_level"`
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func setDuration(dst *time.Duration, src *timex.Duration) {
	if src != nil {
		*dst = src.Duration
	}
}

// parseJson overlays cfg with values from the file named by -c or -config.
// Without either flag it does nothing. Read or decode errors panic.
//
// The device seed is never read from JSON; it comes from the
// environment or the startup prompt.
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

	setString(&cfg.DBPath, jc.DBPath)
	setString(&cfg.StorageBackend, jc.StorageBackend)
	setString(&cfg.S3Bucket, jc.S3Bucket)
	setString(&cfg.S3Region, jc.S3Region)
	setString(&cfg.S3BaseEndpoint, jc.S3BaseEndpoint)
	setString(&cfg.S3AccessKey, jc.S3AccessKey)
	setString(&cfg.S3SecretKey, jc.S3SecretKey)
	setString(&cfg.S3Prefix, jc.S3Prefix)
	setString(&cfg.RemoteDSN, jc.RemoteDSN)
	setString(&cfg.AccessToken, jc.AccessToken)
	setString(&cfg.JWTSecret, jc.JWTSecret)
	setDuration(&cfg.OnlineCheckInterval, jc.OnlineCheckInterval)
	setDuration(&cfg.RemoteTimeout, jc.RemoteTimeout)
	setString(&cfg.LogLevel, jc.LogLevel)
}
