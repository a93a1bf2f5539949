/*
 * Copyright (c) 2026, the KeyReg authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 * http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or
 * implied. See the License for the specific language governing
 * permissions and limitations under the License.
 */

package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	toml "github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix for environment variables used to configure the
// key registry
const EnvPrefix = "KEYREG_"

// Config holds all configuration for the key registry server and the
// administrative tool
type Config struct {
	KeyRegistry KeyRegistry `koanf:"key_registry"`
}

// KeyRegistry holds the main configuration sections
type KeyRegistry struct {
	Server  ServerConfig  `koanf:"server"`
	Storage StorageConfig `koanf:"storage"`
	Logging LoggingConfig `koanf:"logging"`
	Metrics MetricsConfig `koanf:"metrics"`
	Admin   AdminConfig   `koanf:"admin"`
}

// ServerConfig holds the verification server's listen address
type ServerConfig struct {
	Host string `koanf:"host"`
	Port int    `koanf:"port"`
}

// StorageConfig selects and configures the registry's backing store
type StorageConfig struct {
	// Type is "s3" or "memory" (memory is for development only; the
	// registry is lost on restart)
	Type string `koanf:"type"`

	S3 S3Config `koanf:"s3"`

	// EncryptionSecret enables encryption of the registry object at
	// rest. Enabling it on an existing plaintext registry needs no
	// migration: the next write rewrites the object encrypted.
	EncryptionSecret string `koanf:"encryption_secret"`
}

// S3Config locates the registry object in S3
type S3Config struct {
	Bucket    string `koanf:"bucket"`
	ObjectKey string `koanf:"object_key"`
	Region    string `koanf:"region"`
	// Endpoint overrides the S3 endpoint for S3-compatible stores
	Endpoint string `koanf:"endpoint"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// MetricsConfig holds Prometheus metrics server configuration
type MetricsConfig struct {
	Enabled bool `koanf:"enabled"`
	Port    int  `koanf:"port"`
}

// AdminConfig holds settings used by the administrative tool
type AdminConfig struct {
	// RefreshURL is the base URL of a running server whose cache should
	// be refreshed after mutations; empty disables the refresh signal
	RefreshURL string `koanf:"refresh_url"`

	// RefreshTimeout bounds the refresh trigger call
	RefreshTimeout time.Duration `koanf:"refresh_timeout"`
}

func defaultConfig() *Config {
	return &Config{
		KeyRegistry: KeyRegistry{
			Server: ServerConfig{
				Host: "0.0.0.0",
				Port: 8080,
			},
			Storage: StorageConfig{
				Type: "s3",
				S3: S3Config{
					ObjectKey: "keys.json",
					Region:    "us-east-1",
				},
			},
			Logging: LoggingConfig{
				Level:  "info",
				Format: "json",
			},
			Metrics: MetricsConfig{
				Enabled: false,
				Port:    9095,
			},
			Admin: AdminConfig{
				RefreshURL:     "http://localhost:8080",
				RefreshTimeout: 5 * time.Second,
			},
		},
	}
}

// LoadConfig loads configuration from an optional TOML file and
// KEYREG_-prefixed environment variables, env taking precedence, then
// validates the result
func LoadConfig(configPath string) (*Config, error) {
	cfg, err := LoadRaw(configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// LoadRaw loads configuration without validating it. Callers that layer
// further overrides on top (the CLI's flags) validate afterwards.
func LoadRaw(configPath string) (*Config, error) {
	cfg := defaultConfig()

	k := koanf.New(".")

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), toml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(s, EnvPrefix)
		s = strings.ToLower(s)

		// Short aliases for the variables operators actually set
		switch s {
		case "s3_bucket":
			return "key_registry.storage.s3.bucket"
		case "s3_object_key":
			return "key_registry.storage.s3.object_key"
		case "s3_region":
			return "key_registry.storage.s3.region"
		case "s3_endpoint":
			return "key_registry.storage.s3.endpoint"
		case "storage_secret":
			return "key_registry.storage.encryption_secret"
		case "refresh_url":
			return "key_registry.admin.refresh_url"
		case "log_level":
			return "key_registry.logging.level"
		default:
			// Standard mapping: "__" survives as a literal underscore,
			// single "_" becomes the section separator
			s = strings.ReplaceAll(s, "__", "%UNDERSCORE%")
			s = strings.ReplaceAll(s, "_", ".")
			s = strings.ReplaceAll(s, "%UNDERSCORE%", "_")
			return s
		}
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{
		DecoderConfig: &mapstructure.DecoderConfig{
			TagName:          "koanf",
			WeaklyTypedInput: true,
			Result:           cfg,
			DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		},
	}); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// Validate checks the configuration for inconsistencies
func (c *Config) Validate() error {
	kr := &c.KeyRegistry

	if kr.Server.Port < 1 || kr.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535, got %d", kr.Server.Port)
	}

	switch kr.Storage.Type {
	case "s3":
		if kr.Storage.S3.Bucket == "" {
			return fmt.Errorf("storage.s3.bucket is required for s3 storage")
		}
		if kr.Storage.S3.ObjectKey == "" {
			return fmt.Errorf("storage.s3.object_key is required for s3 storage")
		}
		if kr.Storage.S3.Region == "" {
			return fmt.Errorf("storage.s3.region is required for s3 storage")
		}
	case "memory":
		// No further settings
	default:
		return fmt.Errorf("unknown storage type: %q", kr.Storage.Type)
	}

	if kr.Metrics.Enabled {
		if kr.Metrics.Port < 1 || kr.Metrics.Port > 65535 {
			return fmt.Errorf("metrics port must be between 1 and 65535, got %d", kr.Metrics.Port)
		}
		if kr.Metrics.Port == kr.Server.Port {
			return fmt.Errorf("metrics port must differ from server port")
		}
	}

	if kr.Admin.RefreshTimeout <= 0 {
		return fmt.Errorf("admin.refresh_timeout must be positive")
	}

	return nil
}
