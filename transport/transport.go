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

// Package transport defines the thin contract between the protocol core
// (market and userstream) and whatever WebSocket implementation carries its
// bytes. The core depends only on these interfaces; transport/wstransport
// is a concrete, optional implementation that lives outside the core import
// graph.
package transport

import (
	"context"
	"fmt"
)

// Inbound is implemented by the protocol core (market.Protocol and
// userstream.Protocol) and driven by a transport adapter. Deliver,
// Opened, and Closed must be called from a single serialized source; the
// core performs no internal locking of its own.
type Inbound interface {
	// Deliver hands one raw transport frame to the core for decoding.
	Deliver(frame []byte)

	// Opened signals that the underlying connection is up and frames may
	// start arriving.
	Opened()

	// Closed signals that the underlying connection has ended. clean
	// distinguishes a graceful shutdown (including a "maintenance" error
	// frame) from an unexpected one; code and reason carry the
	// transport-level close details when known.
	Closed(clean bool, code int, reason string)
}

// Outbound is implemented by a transport adapter and called by the protocol
// core to send an already-framed payload.
type Outbound interface {
	Send(ctx context.Context, payload []byte) error
}

// TransportError reports an unclean close or a non-maintenance error frame
// from the exchange.
type TransportError struct {
	Code   int
	Reason string
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport: %s (code=%d)", e.Reason, e.Code)
}
