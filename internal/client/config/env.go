package config

import (
	"errors"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment variable read by parseEnv.
const EnvPrefix = "CAREERKEEPER_"

// envFile is loaded into the process environment before variables are read.
// Variables already set in the environment win over the file.
var envFile = ".env"

// parseEnv overlays cfg with CAREERKEEPER_* variables:
//
//	DB_PATH, STORAGE_BACKEND, S3_BUCKET, S3_REGION, S3_BASE_ENDPOINT,
//	S3_ACCESS_KEY, S3_SECRET_KEY, S3_PREFIX, REMOTE_DSN, ACCESS_TOKEN,
//	JWT_SECRET, DEVICE_SEED, ONLINE_CHECK_INTERVAL, REMOTE_TIMEOUT, LOG_LEVEL
//
// A missing .env file is not an error. Malformed files or durations panic.
func parseEnv(cfg *Config) {
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		panic(err)
	}

	stringVars := map[string]*string{
		"DB_PATH":          &cfg.DBPath,
		"STORAGE_BACKEND":  &cfg.StorageBackend,
		"S3_BUCKET":        &cfg.S3Bucket,
		"S3_REGION":        &cfg.S3Region,
		"S3_BASE_ENDPOINT": &cfg.S3BaseEndpoint,
		"S3_ACCESS_KEY":    &cfg.S3AccessKey,
		"S3_SECRET_KEY":    &cfg.S3SecretKey,
		"S3_PREFIX":        &cfg.S3Prefix,
		"REMOTE_DSN":       &cfg.RemoteDSN,
		"ACCESS_TOKEN":     &cfg.AccessToken,
		"JWT_SECRET":       &cfg.JWTSecret,
		"DEVICE_SEED":      &cfg.DeviceSeed,
		"LOG_LEVEL":        &cfg.LogLevel,
	}
	for name, dst := range stringVars {
		if v, ok := os.LookupEnv(EnvPrefix + name); ok {
			*dst = v
		}
	}

	durations := map[string]*time.Duration{
		"ONLINE_CHECK_INTERVAL": &cfg.OnlineCheckInterval,
		"REMOTE_TIMEOUT":        &cfg.RemoteTimeout,
	}
	for name, dst := range durations {
		v, ok := os.LookupEnv(EnvPrefix + name)
		if !ok {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			panic(err)
		}
		*dst = d
	}
}
