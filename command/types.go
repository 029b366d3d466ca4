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

// Package command holds the trader-facing command types sent on the user
// stream, and the structural/range validators that run before every one of
// them is nonce-stamped and sent. Decimal fields are kept as their original
// wire strings; validation only confirms they parse as positive decimals,
// it never reformats them.
package command

// Command is any trader-facing instruction that can be validated and,
// further upstream, nonce-stamped and embedded in an outbound envelope.
// Type returns the wire "type" discriminator used when the command is
// marshalled.
type Command interface {
	Type() string
	Validate() error
}

// PlaceOrder requests a new resting or immediate order.
type PlaceOrder struct {
	ClientOrderID int64
	InstrumentID  int64
	OrderType     string
	LimitPrice    string
	Side          string
	Quantity      int64
	PostOnly      *bool
}

func (PlaceOrder) Type() string { return "place_order" }

// CancelOrder requests cancellation of a single resting order.
type CancelOrder struct {
	ClientOrderID int64
}

func (CancelOrder) Type() string { return "cancel_order" }

// ModifyOrder requests a price and/or quantity amendment to a resting order.
type ModifyOrder struct {
	ClientOrderID int64
	NewPrice      *string
	NewQuantity   *int64
	PostOnly      *bool
}

func (ModifyOrder) Type() string { return "modify_order" }

// CancelAllOrders requests cancellation of every resting order for the
// trader's account. It carries no fields beyond its type.
type CancelAllOrders struct{}

func (CancelAllOrders) Type() string { return "cancel_all_orders" }

// AddTimer schedules a batch of commands to fire between start and
// expiration timestamps (ms UTC).
type AddTimer struct {
	TimerID      int64
	StartTS      int64
	ExpirationTS int64
	Commands     []Command
}

func (AddTimer) Type() string { return "add_timer" }

// UpdateTimer amends a previously scheduled timer. At least one of
// NewStartTS, NewExpirationTS, or NewCommands must be set.
type UpdateTimer struct {
	TimerID         int64
	NewStartTS      *int64
	NewExpirationTS *int64
	NewCommands     []Command
}

func (UpdateTimer) Type() string { return "update_timer" }

// CancelTimer cancels a previously scheduled timer.
type CancelTimer struct {
	TimerID int64
}

func (CancelTimer) Type() string { return "cancel_timer" }

// Subscribe completes the handshake by subscribing to the session's
// user-stream updates.
type Subscribe struct{}

func (Subscribe) Type() string { return "subscribe" }

// GetLastNonce opens the handshake by requesting the exchange's last known
// nonce for this account and nonce group.
type GetLastNonce struct{}

func (GetLastNonce) Type() string { return "get_last_nonce" }

// Batch carries an ordered list of commands to be nonce-stamped and sent
// together as one outer envelope.
type Batch struct {
	Commands []Command
}

func (Batch) Type() string { return "batch" }

// InternalTransfer moves funds to another account under the same exchange.
type InternalTransfer struct {
	DestinationAccountID string
	Amount               string
}

func (InternalTransfer) Type() string { return "internal_transfer" }
