// Package config provides application configuration loading and management.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/spf13/viper"
)

// Config holds application configuration values loaded from file or environment variables.
type Config struct {
	Port           string `mapstructure:"PORT"`
	Env            string `mapstructure:"APP_ENV"`
	StorageType    string `mapstructure:"STORAGE_TYPE"`
	DataDir        string `mapstructure:"DATA_DIR"`
	MongoURI       string `mapstructure:"MONGO_URI"`
	MongoDatabase  string `mapstructure:"MONGO_DATABASE"`
	SiteSecrets    string `mapstructure:"SITE_SECRETS"`
	AdminSecret    string `mapstructure:"ADMIN_SECRET"`
	RedisURL       string `mapstructure:"REDIS_URL"`
	AllowedOrigins string `mapstructure:"ALLOWED_ORIGINS"`
	TracingEnabled bool   `mapstructure:"TRACING_ENABLED"`
	TracingExport  string `mapstructure:"TRACING_EXPORTER"`
	OTLPEndpoint   string `mapstructure:"OTLP_ENDPOINT"`
}

// LoadConfig loads application configuration from file and environment variables.
func LoadConfig() (*Config, error) {
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.AddConfigPath("../..")
	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AutomaticEnv()

	// Initial read to get APP_ENV if set in base config
	// We intentionally ignore this error as the config file may not exist yet
	_ = viper.ReadInConfig()

	env := viper.GetString("APP_ENV")
	if env == "" {
		env = "development"
	}

	if env != "development" && env != "" {
		viper.SetConfigName("config." + env)
		if err := viper.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("required profile-specific config 'config.%s.yml' not found: %w", env, err)
		}
		log.Printf("Loaded profile-specific configuration: config.%s.yml", env)
	}

	// Set default values for development
	viper.SetDefault("PORT", "8375")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("STORAGE_TYPE", "file")
	viper.SetDefault("DATA_DIR", "./data")
	viper.SetDefault("MONGO_URI", "")
	viper.SetDefault("MONGO_DATABASE", "paranote")
	viper.SetDefault("SITE_SECRETS", "")
	viper.SetDefault("ADMIN_SECRET", "")
	viper.SetDefault("REDIS_URL", "localhost:6379")
	viper.SetDefault("ALLOWED_ORIGINS", "*")
	viper.SetDefault("TRACING_ENABLED", false)
	viper.SetDefault("TRACING_EXPORTER", "stdout")
	viper.SetDefault("OTLP_ENDPOINT", "localhost:4318")

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Validate ensures that required configuration values are present and meet security standards.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT is required")
	}

	switch c.StorageType {
	case "file":
		if c.DataDir == "" {
			return errors.New("DATA_DIR is required when STORAGE_TYPE is 'file'")
		}
	case "mongo":
		if c.MongoURI == "" {
			return errors.New("MONGO_URI is required when STORAGE_TYPE is 'mongo'")
		}
	default:
		return fmt.Errorf("STORAGE_TYPE must be 'file' or 'mongo', got %q", c.StorageType)
	}

	if c.SiteSecrets != "" {
		if _, err := c.ParseSiteSecrets(); err != nil {
			return fmt.Errorf("SITE_SECRETS must be a JSON object of siteId to secret: %w", err)
		}
	}

	isProduction := c.Env == "production" || c.Env == "prod"

	// Strict checks for production
	if isProduction {
		if c.AdminSecret == "" {
			return errors.New("ADMIN_SECRET is required in production")
		}
		if len(c.AdminSecret) < 32 {
			return errors.New("ADMIN_SECRET must be at least 32 characters in production")
		}
		if c.StorageType == "file" {
			log.Println("WARNING: STORAGE_TYPE is 'file' in production. The file backend is single-instance only; use 'mongo' behind more than one replica.")
		}
	} else {
		// Development/Test warnings
		if c.AdminSecret == "" {
			log.Println("WARNING: ADMIN_SECRET is empty. Moderation and export endpoints will reject all requests without a site admin token.")
		}
	}

	return nil
}

// ParseSiteSecrets decodes the SITE_SECRETS JSON map. An empty value
// yields an empty map, which disables authenticated identities.
func (c *Config) ParseSiteSecrets() (map[string]string, error) {
	secrets := map[string]string{}
	if c.SiteSecrets == "" {
		return secrets, nil
	}
	if err := json.Unmarshal([]byte(c.SiteSecrets), &secrets); err != nil {
		return nil, err
	}
	return secrets, nil
}
