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

package market

// Listener is a record of optional callback slots. A caller implements only
// the events it cares about; nil fields are simply skipped during fan-out.
type Listener struct {
	OnReady      func()
	OnDisconnect func(reason string)
	OnError      func(err error)

	OnMessage func(msg Message)

	OnOrderBook      func(msg OrderBook)
	OnTrade          func(msg Trade)
	OnQuotes         func(msg Quotes)
	OnSessionState   func(msg SessionState)
	OnInstrumentData func(msg InstrumentData)
	OnSpotData       func(msg SpotData)
}

// receiveError is this listener's own panic/error sink, used by the
// dispatcher's containment logic: if OnError is set it receives the error,
// otherwise the error is dropped. It is always registered as the listener's
// onPanic closure, so the dispatcher's list-wide sink is never consulted.
func (l Listener) receiveError(err error) {
	if l.OnError != nil {
		l.OnError(err)
	}
}

func (l Listener) dispatchTyped(msg Message) {
	switch msg.Type {
	case MessageOrderBook:
		if l.OnOrderBook != nil && msg.OrderBook != nil {
			l.OnOrderBook(*msg.OrderBook)
		}
	case MessageTrade:
		if l.OnTrade != nil && msg.Trade != nil {
			l.OnTrade(*msg.Trade)
		}
	case MessageQuotes:
		if l.OnQuotes != nil && msg.Quotes != nil {
			l.OnQuotes(*msg.Quotes)
		}
	case MessageSessionState:
		if l.OnSessionState != nil && msg.SessionState != nil {
			l.OnSessionState(*msg.SessionState)
		}
	case MessageInstrumentData:
		if l.OnInstrumentData != nil && msg.InstrumentData != nil {
			l.OnInstrumentData(*msg.InstrumentData)
		}
	case MessageSpotData:
		if l.OnSpotData != nil && msg.SpotData != nil {
			l.OnSpotData(*msg.SpotData)
		}
	}
}
