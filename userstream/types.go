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

// Package userstream implements the private user-stream protocol: the
// get_last_nonce/subscribe handshake, nonce stamping, the command and batch
// state machine, and fan-out of inbound account/order/timer events.
package userstream

import "errors"

// SessionState is the user-stream handshake's current phase.
type SessionState int

const (
	Disconnected SessionState = iota
	AwaitingLastNonce
	AwaitingSubscribed
	Ready
)

func (s SessionState) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case AwaitingLastNonce:
		return "awaiting_last_nonce"
	case AwaitingSubscribed:
		return "awaiting_subscribed"
	case Ready:
		return "ready"
	default:
		return "unknown"
	}
}

// NonceGroup partitions the nonce space so multiple concurrent sessions for
// the same account cannot collide. Valid values are [0,9]; the default used
// by engine construction is 5.
type NonceGroup int

// DefaultNonceGroup is used when the caller does not select one explicitly.
const DefaultNonceGroup NonceGroup = 5

// Valid reports whether g falls within the exchange's accepted range.
func (g NonceGroup) Valid() bool {
	return g >= 0 && g <= 9
}

// BatchMode is the command batching state machine's current mode. At most
// one is active at a time.
type BatchMode int

const (
	BatchNone BatchMode = iota
	BatchStandard
	BatchTimeTriggeredCreate
	BatchTimeTriggeredUpdate
)

func (m BatchMode) String() string {
	switch m {
	case BatchNone:
		return "none"
	case BatchStandard:
		return "standard"
	case BatchTimeTriggeredCreate:
		return "time_triggered_create"
	case BatchTimeTriggeredUpdate:
		return "time_triggered_update"
	default:
		return "unknown"
	}
}

// Errors returned by the user-stream protocol, beyond the command package's
// validation errors and pgpenvelope's crypto errors.
var (
	// ErrNotInitialized is returned by any command API call issued while
	// the session is not yet Ready.
	ErrNotInitialized = errors.New("userstream: session is not ready")

	// ErrMalformedJSON is returned when an inbound decrypted payload is
	// not a well-formed JSON array of entities.
	ErrMalformedJSON = errors.New("userstream: malformed inbound payload")

	// ErrBatchModeConflict is returned by a Start* call while a different
	// batch mode is already active.
	ErrBatchModeConflict = errors.New("userstream: a batch mode is already active")

	// ErrNoActiveBatch is returned by a Send* call naming a batch mode
	// that is not the one currently active.
	ErrNoActiveBatch = errors.New("userstream: no matching batch is active")
)
