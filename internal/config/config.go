// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hindsight Contributors

package config

import (
	"errors"
	"net"
	"strconv"
	"strings"

	"github.com/spf13/viper"

	hserr "github.com/hindsight-dev/hindsight/pkg/errors"
)

// Config is the top-level Hindsight configuration.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Storage StorageConfig `mapstructure:"storage"`
	Oracle  OracleConfig  `mapstructure:"oracle"`
	Search  SearchConfig  `mapstructure:"search"`
}

// ServerConfig controls how the HTTP API listens for connections.
type ServerConfig struct {
	Listen         string   `mapstructure:"listen"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// StorageConfig selects the storage backend and its location.
type StorageConfig struct {
	Backend string `mapstructure:"backend"`
	Path    string `mapstructure:"path"`
}

// OracleConfig selects the oracle backend and carries per-backend
// credentials.
type OracleConfig struct {
	Backend       string              `mapstructure:"backend"`
	RelationTypes []string            `mapstructure:"relation_types"`
	OpenAI        OracleBackendConfig `mapstructure:"openai"`
	Anthropic     OracleBackendConfig `mapstructure:"anthropic"`
}

// OracleBackendConfig holds credentials and endpoint for one oracle
// backend.
type OracleBackendConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
	Model   string `mapstructure:"model"`
}

// SearchConfig bounds search fan-out.
type SearchConfig struct {
	// Limit caps hits per entity type per search.
	Limit int `mapstructure:"limit"`
}

// Load reads configuration from the given path (or defaults) with
// environment variable overrides (prefix HINDSIGHT_).
func Load(path string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.listen", "127.0.0.1:8787")
	v.SetDefault("storage.backend", "sqlite")
	v.SetDefault("storage.path", "hindsight.db")
	v.SetDefault("oracle.backend", "openai")
	v.SetDefault("oracle.relation_types", []string{"FOLLOWS", "PRECEDES", "CAUSED_BY", "RELATED_TO"})
	v.SetDefault("search.limit", 100)

	// Environment
	v.SetEnvPrefix("HINDSIGHT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// File
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, hserr.Errorf(hserr.CodeConfigLoadReadFailure, "reading config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, hserr.Errorf(hserr.CodeConfigValidateInvalidValue, "unmarshalling config: %w", err)
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, hserr.Errorf(hserr.CodeConfigValidateInvalidValue, "validating config: %w", errors.Join(errs...))
	}

	return &cfg, nil
}

// Validate checks the configuration for logical errors. It returns a slice
// of all validation errors found, collecting all issues rather than
// stopping at the first one.
func (c *Config) Validate() []error {
	var errs []error

	errs = append(errs, c.validateServer()...)
	errs = append(errs, c.validateStorage()...)
	errs = append(errs, c.validateOracle()...)
	errs = append(errs, c.validateSearch()...)

	return errs
}

func (c *Config) validateServer() []error {
	var errs []error

	if c.Server.Listen == "" {
		errs = append(errs, hserr.Errorf(hserr.CodeConfigValidateInvalidValue, "config: server.listen must not be empty"))
		return errs
	}

	_, portStr, err := net.SplitHostPort(c.Server.Listen)
	if err != nil {
		errs = append(errs, hserr.Errorf(hserr.CodeConfigValidateInvalidValue,
			"config: server.listen must be a valid host:port address, got %q: %w",
			c.Server.Listen, err,
		))
		return errs
	}

	// Host can be empty (e.g. ":8787"), which is valid.
	port, err := strconv.Atoi(portStr)
	if err != nil {
		errs = append(errs, hserr.Errorf(hserr.CodeConfigValidateInvalidValue,
			"config: server.listen port must be a number, got %q",
			portStr,
		))
	} else if port < 1 || port > 65535 {
		errs = append(errs, hserr.Errorf(hserr.CodeConfigValidateInvalidValue,
			"config: server.listen port must be between 1 and 65535, got %d",
			port,
		))
	}

	return errs
}

func (c *Config) validateStorage() []error {
	var errs []error

	validBackends := map[string]bool{"sqlite": true}
	if !validBackends[c.Storage.Backend] {
		errs = append(errs, hserr.Errorf(hserr.CodeConfigValidateInvalidValue,
			"config: storage.backend must be one of [sqlite], got %q",
			c.Storage.Backend,
		))
	}

	if c.Storage.Path == "" {
		errs = append(errs, hserr.Errorf(hserr.CodeConfigValidateInvalidValue, "config: storage.path must not be empty"))
	}

	return errs
}

func (c *Config) validateOracle() []error {
	var errs []error

	validBackends := map[string]bool{"openai": true, "anthropic": true}
	if !validBackends[c.Oracle.Backend] {
		errs = append(errs, hserr.Errorf(hserr.CodeConfigValidateInvalidValue,
			"config: oracle.backend must be one of [openai, anthropic], got %q",
			c.Oracle.Backend,
		))
	}

	for i, rt := range c.Oracle.RelationTypes {
		if strings.TrimSpace(rt) == "" {
			errs = append(errs, hserr.Errorf(hserr.CodeConfigValidateInvalidValue,
				"config: oracle.relation_types[%d] must not be empty", i))
		}
	}

	return errs
}

func (c *Config) validateSearch() []error {
	var errs []error

	if c.Search.Limit <= 0 {
		errs = append(errs, hserr.Errorf(hserr.CodeConfigValidateInvalidValue,
			"config: search.limit must be greater than 0, got %d",
			c.Search.Limit,
		))
	}

	return errs
}

// OracleBackend returns the selected backend's credentials.
func (c *Config) OracleBackend() OracleBackendConfig {
	if c.Oracle.Backend == "anthropic" {
		return c.Oracle.Anthropic
	}
	return c.Oracle.OpenAI
}
