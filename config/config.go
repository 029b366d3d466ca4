// Copyright (C) 2025 clearbook-project
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// SPDX-License-Identifier: LGPL-3.0-or-later

// Package config loads the engine's YAML configuration file, applies
// environment variable overrides, and validates the result before an
// Engine is constructed from it.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for a clearbook client.
type Config struct {
	Environment string          `yaml:"environment" json:"environment"`
	Exchange    *ExchangeConfig `yaml:"exchange" json:"exchange"`
	Trader      *TraderConfig   `yaml:"trader" json:"trader"`
	Logging     *LoggingConfig  `yaml:"logging" json:"logging"`
	Metrics     *MetricsConfig  `yaml:"metrics" json:"metrics"`
	Health      *HealthConfig   `yaml:"health" json:"health"`
}

// ExchangeConfig identifies the exchange to connect to.
type ExchangeConfig struct {
	BaseURL       string `yaml:"base_url" json:"base_url"`
	PublicKeyPath string `yaml:"public_key_path" json:"public_key_path"`
}

// TraderConfig identifies the trader and where to find their key material.
type TraderConfig struct {
	AccountID      string `yaml:"account_id" json:"account_id"`
	PrivateKeyPath string `yaml:"private_key_path" json:"private_key_path"`
	PassphraseEnv  string `yaml:"passphrase_env" json:"passphrase_env"`
	NonceGroup     int    `yaml:"nonce_group" json:"nonce_group"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" json:"level"`
	Format   string `yaml:"format" json:"format"`
	Output   string `yaml:"output" json:"output"`
	FilePath string `yaml:"file_path" json:"file_path"`
}

// MetricsConfig represents metrics configuration
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Port    int    `yaml:"port" json:"port"`
	Path    string `yaml:"path" json:"path"`
}

// HealthConfig represents health check configuration
type HealthConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Port    int    `yaml:"port" json:"port"`
	Path    string `yaml:"path" json:"path"`
}

// LoadFromFile loads configuration from a file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}

	// Try to parse as YAML first
	if err := yaml.Unmarshal(data, cfg); err != nil {
		// Try JSON if YAML fails
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file (tried YAML and JSON): %w", err)
		}
	}

	setDefaults(cfg)

	return cfg, nil
}

// SaveToFile saves configuration to a file
func SaveToFile(cfg *Config, path string) error {
	var data []byte
	var err error

	if len(path) > 5 && path[len(path)-5:] == ".json" {
		data, err = json.MarshalIndent(cfg, "", "  ")
	} else {
		data, err = yaml.Marshal(cfg)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// setDefaults sets default values for configuration
func setDefaults(cfg *Config) {
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}

	if cfg.Exchange == nil {
		cfg.Exchange = &ExchangeConfig{}
	}

	if cfg.Trader == nil {
		cfg.Trader = &TraderConfig{}
	}
	if cfg.Trader.PassphraseEnv == "" {
		cfg.Trader.PassphraseEnv = "CLEARBOOK_TRADER_PASSPHRASE"
	}
	if cfg.Trader.NonceGroup == 0 {
		cfg.Trader.NonceGroup = 5
	}

	if cfg.Logging == nil {
		cfg.Logging = &LoggingConfig{}
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}

	if cfg.Metrics == nil {
		cfg.Metrics = &MetricsConfig{}
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
	if cfg.Metrics.Port == 0 {
		cfg.Metrics.Port = 9090
	}

	if cfg.Health == nil {
		cfg.Health = &HealthConfig{}
	}
	if cfg.Health.Path == "" {
		cfg.Health.Path = "/healthz"
	}
	if cfg.Health.Port == 0 {
		cfg.Health.Port = 8090
	}
}

// validationIssue describes one configuration problem found by Validate.
type validationIssue struct {
	Field   string
	Message string
	Level   string // "error" or "warn"
}

// Validate checks cfg for the fields an Engine cannot run without. It
// returns every issue found rather than stopping at the first.
func Validate(cfg *Config) []validationIssue {
	var issues []validationIssue

	if cfg.Exchange == nil || cfg.Exchange.BaseURL == "" {
		issues = append(issues, validationIssue{Field: "exchange.base_url", Message: "exchange base URL is required", Level: "error"})
	}
	if cfg.Exchange == nil || cfg.Exchange.PublicKeyPath == "" {
		issues = append(issues, validationIssue{Field: "exchange.public_key_path", Message: "exchange public key path is required", Level: "error"})
	}
	if cfg.Trader == nil || cfg.Trader.AccountID == "" {
		issues = append(issues, validationIssue{Field: "trader.account_id", Message: "trader account ID is required", Level: "error"})
	}
	if cfg.Trader == nil || cfg.Trader.PrivateKeyPath == "" {
		issues = append(issues, validationIssue{Field: "trader.private_key_path", Message: "trader private key path is required", Level: "error"})
	}
	if cfg.Trader != nil && (cfg.Trader.NonceGroup < 0 || cfg.Trader.NonceGroup > 9) {
		issues = append(issues, validationIssue{Field: "trader.nonce_group", Message: "nonce group must be between 0 and 9", Level: "error"})
	}

	return issues
}
