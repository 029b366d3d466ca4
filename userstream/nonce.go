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

package userstream

// nonceCounter tracks the session's strictly monotonic nonce. It is owned
// exclusively by one Protocol and must only ever be touched from the single
// goroutine driving that Protocol's Deliver/command calls; it carries no
// lock of its own, matching the engine's single-writer concurrency model.
// It is never persisted across reconnects: seed re-establishes it from the
// exchange's reported last_nonce every time the handshake restarts.
type nonceCounter struct {
	value int64
}

// seed re-establishes the counter from the exchange's last known nonce.
func (c *nonceCounter) seed(last int64) {
	c.value = last
}

// next returns the next strictly increasing nonce.
func (c *nonceCounter) next() int64 {
	c.value++
	return c.value
}
