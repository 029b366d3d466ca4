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

// pendingBatch is the payload behind whichever BatchMode is currently
// active; it exists iff Protocol.batch != nil, which is itself equivalent
// to BatchMode != BatchNone. Owned exclusively by the owning Protocol.
type pendingBatch struct {
	mode BatchMode

	// children are already nonce-stamped wire-shaped commands, in
	// caller submission order.
	children []map[string]interface{}

	// timer fields, relevant only for the two time-triggered modes.
	timerID         int64
	startTS         int64
	expirationTS    int64
	newStartTS      *int64
	newExpirationTS *int64

	// outerNonce is the add_timer/update_timer envelope's own nonce,
	// stamped at Start* time so it precedes every child nonce stamped by
	// PlaceOrder/CancelOrder/ModifyOrder calls that follow before Send*.
	outerNonce int64
}
