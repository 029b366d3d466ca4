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

package health

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckerReportsHealthyWhenSessionReady(t *testing.T) {
	checker := NewChecker(
		func() bool { return true },
		func() string { return ReadyState },
	)

	status := checker.CheckAll()
	require.Equal(t, StatusHealthy, status.SessionStatus.Status)
	assert.True(t, status.SessionStatus.MarketConnected)
	assert.Equal(t, ReadyState, status.SessionStatus.UserStreamState)
	assert.Empty(t, status.SessionStatus.Error)
}

func TestCheckerReportsDegradedWhenUserStreamNotReady(t *testing.T) {
	checker := NewChecker(
		func() bool { return true },
		func() string { return "awaiting_subscribed" },
	)

	status := checker.CheckAll()
	assert.Equal(t, StatusDegraded, status.SessionStatus.Status)
	assert.Equal(t, StatusDegraded, status.Status)
	assert.NotEmpty(t, status.Errors)
}

func TestCheckerReportsDegradedWhenMarketDisconnected(t *testing.T) {
	checker := NewChecker(
		func() bool { return false },
		func() string { return ReadyState },
	)

	status := checker.CheckAll()
	assert.Equal(t, StatusDegraded, status.SessionStatus.Status)
	assert.False(t, status.SessionStatus.MarketConnected)
}

func TestCheckerToleratesUnwiredStreams(t *testing.T) {
	checker := NewChecker(nil, nil)

	status := checker.CheckAll()
	assert.Equal(t, StatusHealthy, status.SessionStatus.Status)
	assert.Empty(t, status.SessionStatus.UserStreamState)
}

func TestCheckAllIncludesSystemStatus(t *testing.T) {
	checker := NewChecker(func() bool { return true }, func() string { return ReadyState })

	status := checker.CheckAll()
	require.NotNil(t, status.SystemStatus)
	assert.GreaterOrEqual(t, status.SystemStatus.GoRoutines, 1)
}
