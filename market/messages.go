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

// Package market implements the public market-stream protocol: clearsigned
// payload verification, typed message parsing, and fan-out to listeners.
package market

import "encoding/json"

// PriceLevel is one book level: a decimal price string (kept as received,
// never reformatted) and an integer quantity.
type PriceLevel struct {
	Price    string `json:"price"`
	Quantity int64  `json:"quantity"`
}

// OrderBook is a snapshot or update of one instrument's resting orders.
type OrderBook struct {
	InstrumentID int64        `json:"instrument_id"`
	Bids         []PriceLevel `json:"bids"`
	Asks         []PriceLevel `json:"asks"`
	TimestampMS  int64        `json:"timestamp"`
}

// Trade is a single executed print.
type Trade struct {
	InstrumentID int64  `json:"instrument_id"`
	Price        string `json:"price"`
	Quantity     int64  `json:"quantity"`
	TimestampMS  int64  `json:"timestamp"`
}

// Quotes is the current top-of-book bid/ask for one instrument.
type Quotes struct {
	InstrumentID int64  `json:"instrument_id"`
	BidPrice     string `json:"bid_price"`
	AskPrice     string `json:"ask_price"`
	TimestampMS  int64  `json:"timestamp"`
}

// SessionState reports the exchange's own trading session phase (e.g. open,
// closed, auction).
type SessionState struct {
	State       string `json:"state"`
	TimestampMS int64  `json:"timestamp"`
}

// InstrumentData describes one tradable instrument's static parameters.
type InstrumentData struct {
	InstrumentID int64  `json:"instrument_id"`
	Symbol       string `json:"symbol"`
	TickSize     string `json:"tick_size"`
}

// SpotData is the underlying spot reference price for a derivative.
type SpotData struct {
	Symbol      string `json:"symbol"`
	Price       string `json:"price"`
	TimestampMS int64  `json:"timestamp"`
}

// MessageType is the market-stream payload's "type" discriminator.
type MessageType string

const (
	MessageOrderBook       MessageType = "order_book"
	MessageTrade           MessageType = "trade"
	MessageQuotes          MessageType = "quotes"
	MessageSessionState    MessageType = "session_state"
	MessageInstrumentData  MessageType = "instrument_data"
	MessageSpotData        MessageType = "spot_data"
)

// Message is the tagged union of every market-stream payload this protocol
// understands. Exactly one of the typed fields is populated, matching Type.
type Message struct {
	Type MessageType

	OrderBook      *OrderBook
	Trade          *Trade
	Quotes         *Quotes
	SessionState   *SessionState
	InstrumentData *InstrumentData
	SpotData       *SpotData
}

type envelope struct {
	Type MessageType `json:"type"`
}

// parseMessage decodes plaintext into a typed Message, or returns
// (Message{}, false, nil) if its type is not one this protocol recognizes —
// such payloads are silently ignored per the forward-compatibility rule.
func parseMessage(plaintext []byte) (Message, bool, error) {
	var env envelope
	if err := json.Unmarshal(plaintext, &env); err != nil {
		return Message{}, false, err
	}

	msg := Message{Type: env.Type}
	switch env.Type {
	case MessageOrderBook:
		msg.OrderBook = new(OrderBook)
		return msg, true, json.Unmarshal(plaintext, msg.OrderBook)
	case MessageTrade:
		msg.Trade = new(Trade)
		return msg, true, json.Unmarshal(plaintext, msg.Trade)
	case MessageQuotes:
		msg.Quotes = new(Quotes)
		return msg, true, json.Unmarshal(plaintext, msg.Quotes)
	case MessageSessionState:
		msg.SessionState = new(SessionState)
		return msg, true, json.Unmarshal(plaintext, msg.SessionState)
	case MessageInstrumentData:
		msg.InstrumentData = new(InstrumentData)
		return msg, true, json.Unmarshal(plaintext, msg.InstrumentData)
	case MessageSpotData:
		msg.SpotData = new(SpotData)
		return msg, true, json.Unmarshal(plaintext, msg.SpotData)
	default:
		return Message{}, false, nil
	}
}
