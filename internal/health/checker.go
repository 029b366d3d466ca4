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

import "time"

// ReadyState is the user-stream state string that marks the session ready
// to place orders (userstream.Ready.String()). Duplicated here rather than
// imported so this package stays free of an engine/userstream dependency;
// the caller wiring a Checker is expected to pass the real state's String().
const ReadyState = "ready"

// MarketStateFunc reports whether the market-stream transport is currently
// connected, typically market.Protocol.Connected.
type MarketStateFunc func() bool

// UserStreamStateFunc reports the user-stream session's current state as a
// string, typically userstream.Protocol.State().String().
type UserStreamStateFunc func() string

// Checker performs health checks against a live engine instance.
type Checker struct {
	marketState     MarketStateFunc
	userStreamState UserStreamStateFunc
}

// NewChecker creates a health checker. Either function may be nil if that
// stream isn't wired yet; the corresponding field is left at its zero value.
func NewChecker(marketState MarketStateFunc, userStreamState UserStreamStateFunc) *Checker {
	return &Checker{
		marketState:     marketState,
		userStreamState: userStreamState,
	}
}

// CheckAll performs all health checks
func (c *Checker) CheckAll() *HealthStatus {
	status := &HealthStatus{
		Timestamp: time.Now(),
		Status:    StatusHealthy,
		Errors:    make([]string, 0),
	}

	status.SessionStatus = c.checkSession()
	if status.SessionStatus.Status != StatusHealthy {
		status.Status = status.SessionStatus.Status
		if status.SessionStatus.Error != "" {
			status.Errors = append(status.Errors, "session: "+status.SessionStatus.Error)
		}
	}

	status.SystemStatus = CheckSystem()
	if status.SystemStatus.Status != StatusHealthy {
		if status.Status == StatusHealthy {
			status.Status = status.SystemStatus.Status
		} else if status.SystemStatus.Status == StatusUnhealthy {
			status.Status = StatusUnhealthy
		}
		if status.SystemStatus.Error != "" {
			status.Errors = append(status.Errors, "system: "+status.SystemStatus.Error)
		}
	}

	return status
}

func (c *Checker) checkSession() *SessionHealth {
	sh := &SessionHealth{Status: StatusHealthy}

	if c.marketState != nil {
		sh.MarketConnected = c.marketState()
	}
	if c.userStreamState != nil {
		sh.UserStreamState = c.userStreamState()
	}

	switch {
	case c.userStreamState != nil && sh.UserStreamState != ReadyState:
		sh.Status = StatusDegraded
		sh.Error = "user stream not ready: " + sh.UserStreamState
	case c.marketState != nil && !sh.MarketConnected:
		sh.Status = StatusDegraded
		sh.Error = "market stream disconnected"
	}

	return sh
}
