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

package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubstituteEnvVarsUsesEnvironmentValue(t *testing.T) {
	t.Setenv("CLEARBOOK_TEST_URL", "wss://from-env.example")
	assert.Equal(t, "wss://from-env.example", SubstituteEnvVars("${CLEARBOOK_TEST_URL}"))
}

func TestSubstituteEnvVarsFallsBackToDefault(t *testing.T) {
	os.Unsetenv("CLEARBOOK_TEST_UNSET")
	assert.Equal(t, "fallback", SubstituteEnvVars("${CLEARBOOK_TEST_UNSET:fallback}"))
}

func TestSubstituteEnvVarsInConfigWalksEverySection(t *testing.T) {
	t.Setenv("CLEARBOOK_TEST_URL", "wss://from-env.example")

	cfg := &Config{
		Exchange: &ExchangeConfig{BaseURL: "${CLEARBOOK_TEST_URL}"},
		Logging:  &LoggingConfig{Level: "${CLEARBOOK_TEST_UNSET:warn}"},
	}
	SubstituteEnvVarsInConfig(cfg)

	assert.Equal(t, "wss://from-env.example", cfg.Exchange.BaseURL)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestGetEnvironmentDefaultsToDevelopment(t *testing.T) {
	os.Unsetenv("CLEARBOOK_ENV")
	os.Unsetenv("ENVIRONMENT")
	assert.Equal(t, "development", GetEnvironment())
}

func TestGetEnvironmentPrefersClearbookEnv(t *testing.T) {
	t.Setenv("CLEARBOOK_ENV", "Production")
	assert.Equal(t, "production", GetEnvironment())
	assert.True(t, IsProduction())
	assert.False(t, IsDevelopment())
}

func TestLoadDotEnvIgnoresMissingFile(t *testing.T) {
	assert.NoError(t, LoadDotEnv("/nonexistent/.env"))
}
