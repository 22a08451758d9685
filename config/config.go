// Package config contains code to set the default values and read
// config files to be used throughout the whole application
package config

import (
	"errors"
	"fmt"
	"slices"

	"github.com/spf13/pflag"
	v "github.com/spf13/viper"
)

var (
	configDir = pflag.String("config-dir", ".", "Directory containing config.toml")

	validLogLevels        = []string{"debug", "info", "warn", "error", "fatal"}
	validPersistenceTypes = []string{"file", "s3"}
)

// Setup prepares everything config-related so that the app can
// start working. Function will return an error if something
// is critically wrong and the application can't run because of
// that.
func Setup() error {
	pflag.Parse()
	v.BindPFlags(pflag.CommandLine)

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(*configDir)

	v.AutomaticEnv()

	//
	// ENVS
	//
	v.BindEnv("app.log_level", "app_log_level")
	v.BindEnv("app.data_dir", "app_data_dir")

	v.BindEnv("host.port", "host_port")
	v.BindEnv("host.cors_origin", "host_cors_origin")

	v.BindEnv("upload.max_size", "upload_max_size")

	v.BindEnv("persistence.type", "persistence_type")
	v.BindEnv("persistence.s3.access_key_id", "persistence_s3_access_key_id")
	v.BindEnv("persistence.s3.secret_access_key", "persistence_s3_secret_access_key")
	v.BindEnv("persistence.s3.endpoint", "persistence_s3_endpoint")
	v.BindEnv("persistence.s3.region", "persistence_s3_region")
	v.BindEnv("persistence.s3.bucket", "persistence_s3_bucket")

	//
	// Defaults
	//
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.data_dir", ".")

	v.SetDefault("host.port", 8080)
	v.SetDefault("host.cors_origin", "http://localhost:3000")

	v.SetDefault("upload.max_size", 500)

	v.SetDefault("persistence.type", "file")
	v.SetDefault("persistence.s3.region", "auto")

	if err := v.ReadInConfig(); err != nil {
		// The app runs fine on defaults alone
		if _, ok := err.(v.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config file, %w", err)
		}
	}

	if !slices.Contains(validLogLevels, v.GetString("app.log_level")) {
		return errors.New("invalid log level provided")
	}

	if v.GetInt("host.port") <= 0 {
		return errors.New("invalid port provided")
	}

	if v.GetInt("upload.max_size") <= 0 {
		return errors.New("upload.max_size must be bigger than 0")
	}

	switch v.GetString("persistence.type") {
	case "file":
	case "s3":
		{
			if v.GetString("persistence.s3.access_key_id") == "" {
				return errors.New("persistence access key id can't be empty")
			}
			if v.GetString("persistence.s3.secret_access_key") == "" {
				return errors.New("persistence secret access key can't be empty")
			}
			if v.GetString("persistence.s3.endpoint") == "" {
				return errors.New("persistence endpoint can't be empty")
			}
			if v.GetString("persistence.s3.bucket") == "" {
				return errors.New("persistence bucket can't be empty")
			}
		}
	default:
		return errors.New("invalid persistence type provided")
	}

	if !slices.Contains(validPersistenceTypes, v.GetString("persistence.type")) {
		return errors.New("invalid persistence type provided")
	}

	v.Set("upload.max_size", v.GetInt64("upload.max_size")<<20)
	return nil
}
