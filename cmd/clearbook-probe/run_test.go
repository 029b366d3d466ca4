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

package main

import (
	"testing"

	"github.com/clearbook-project/clearbook/config"
	"github.com/clearbook-project/clearbook/internal/logger"
	"github.com/stretchr/testify/assert"
)

func TestNewLoggerFromConfigHonorsLevel(t *testing.T) {
	cases := map[string]logger.Level{
		"debug": logger.DebugLevel,
		"warn":  logger.WarnLevel,
		"error": logger.ErrorLevel,
		"info":  logger.InfoLevel,
		"":      logger.InfoLevel,
	}

	for level, want := range cases {
		cfg := &config.Config{Logging: &config.LoggingConfig{Level: level}}
		log := newLoggerFromConfig(cfg)
		sl, ok := log.(*logger.StructuredLogger)
		if assert.True(t, ok) {
			assert.Equal(t, want, sl.GetLevel())
		}
	}
}

func TestNewLoggerFromConfigDefaultsWithoutLoggingSection(t *testing.T) {
	cfg := &config.Config{}
	log := newLoggerFromConfig(cfg)
	sl, ok := log.(*logger.StructuredLogger)
	if assert.True(t, ok) {
		assert.Equal(t, logger.InfoLevel, sl.GetLevel())
	}
}
