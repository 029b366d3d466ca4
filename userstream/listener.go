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

// Listener is a record of optional callback slots for user-stream events. A
// caller implements only what it cares about; nil fields are no-ops.
type Listener struct {
	OnReady      func()
	OnDisconnect func(reason string)
	OnError      func(err error)

	OnMessage func(e Entity)

	OnAccountState                 func(e Entity)
	OnOpenPosition                 func(e Entity)
	OnOpenPositionForcefullyClosed func(e Entity)
	OnOrderPlaced                  func(e Entity)
	OnOrderPlaceFailed             func(e Entity)
	OnOrderCancelled                func(e Entity)
	OnOrderForcefullyCancelled      func(e Entity)
	OnOrderCancelFailed             func(e Entity)
	OnAllOrdersCancelled            func(e Entity)
	OnCancelAllOrdersFailed         func(e Entity)
	OnOrderModified                 func(e Entity)
	OnOrderModificationFailed       func(e Entity)
	OnOrderFilled                   func(e Entity)
	OnTimerAdded                    func(e Entity)
	OnTimerRejected                 func(e Entity)
	OnTimerExpired                  func(e Entity)
	OnTimerTriggered                func(e Entity)
	OnTimerUpdated                  func(e Entity)
	OnTimerUpdateFailed             func(e Entity)
	OnTimerCancelled                func(e Entity)
	OnTimerCancelFailed             func(e Entity)
	OnInternalTransferReceived      func(e Entity)
	OnInternalTransferExecuted      func(e Entity)
	OnInternalTransferRejected      func(e Entity)
}

func (l Listener) receiveError(err error) {
	if l.OnError != nil {
		l.OnError(err)
	}
}

func (l Listener) dispatchTyped(e Entity) {
	switch e.Type {
	case EntityAccountState:
		call(l.OnAccountState, e)
	case EntityOpenPosition:
		call(l.OnOpenPosition, e)
	case EntityOpenPositionForcefullyClosed:
		call(l.OnOpenPositionForcefullyClosed, e)
	case EntityOrderPlaced:
		call(l.OnOrderPlaced, e)
	case EntityOrderPlaceFailed:
		call(l.OnOrderPlaceFailed, e)
	case EntityOrderCancelled:
		call(l.OnOrderCancelled, e)
	case EntityOrderForcefullyCancelled:
		call(l.OnOrderForcefullyCancelled, e)
	case EntityOrderCancelFailed:
		call(l.OnOrderCancelFailed, e)
	case EntityAllOrdersCancelled:
		call(l.OnAllOrdersCancelled, e)
	case EntityCancelAllOrdersFailed:
		call(l.OnCancelAllOrdersFailed, e)
	case EntityOrderModified:
		call(l.OnOrderModified, e)
	case EntityOrderModificationFailed:
		call(l.OnOrderModificationFailed, e)
	case EntityOrderFilled:
		call(l.OnOrderFilled, e)
	case EntityTimerAdded:
		call(l.OnTimerAdded, e)
	case EntityTimerRejected:
		call(l.OnTimerRejected, e)
	case EntityTimerExpired:
		call(l.OnTimerExpired, e)
	case EntityTimerTriggered:
		call(l.OnTimerTriggered, e)
	case EntityTimerUpdated:
		call(l.OnTimerUpdated, e)
	case EntityTimerUpdateFailed:
		call(l.OnTimerUpdateFailed, e)
	case EntityTimerCancelled:
		call(l.OnTimerCancelled, e)
	case EntityTimerCancelFailed:
		call(l.OnTimerCancelFailed, e)
	case EntityInternalTransferReceived:
		call(l.OnInternalTransferReceived, e)
	case EntityInternalTransferExecuted:
		call(l.OnInternalTransferExecuted, e)
	case EntityInternalTransferRejected:
		call(l.OnInternalTransferRejected, e)
	}
}

func call(fn func(Entity), e Entity) {
	if fn != nil {
		fn(e)
	}
}
