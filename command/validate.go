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

package command

import (
	"strings"

	"github.com/shopspring/decimal"
)

func positiveDecimal(field, value string) error {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return invalid(field, "not a valid decimal: "+err.Error())
	}
	if !d.IsPositive() {
		return invalid(field, "must be positive")
	}
	return nil
}

func positiveInt(field string, value int64) error {
	if value <= 0 {
		return invalid(field, "must be a positive integer")
	}
	return nil
}

// Validate checks PlaceOrder against the order-entry rules: positive
// identifiers and quantity, a positive decimal limit price, a recognized
// side, and that only limit orders are supported.
func (o PlaceOrder) Validate() error {
	if err := positiveInt("client_order_id", o.ClientOrderID); err != nil {
		return err
	}
	if err := positiveInt("instrument_id", o.InstrumentID); err != nil {
		return err
	}
	if err := positiveInt("quantity", o.Quantity); err != nil {
		return err
	}
	if err := positiveDecimal("limit_price", o.LimitPrice); err != nil {
		return err
	}
	switch strings.ToLower(o.Side) {
	case "buy", "sell":
	default:
		return invalid("side", "must be \"buy\" or \"sell\"")
	}
	if !strings.EqualFold(o.OrderType, "limit") {
		return invalid("order_type", "only \"limit\" is supported")
	}
	return nil
}

// Validate checks CancelOrder's sole identifier.
func (c CancelOrder) Validate() error {
	return positiveInt("client_order_id", c.ClientOrderID)
}

// Validate checks ModifyOrder: the identifier, and that at least one of
// NewPrice or NewQuantity is present and itself valid.
func (m ModifyOrder) Validate() error {
	if err := positiveInt("client_order_id", m.ClientOrderID); err != nil {
		return err
	}
	if m.NewPrice == nil && m.NewQuantity == nil {
		return invalid("new_price/new_quantity", "at least one must be present")
	}
	if m.NewPrice != nil {
		if err := positiveDecimal("new_price", *m.NewPrice); err != nil {
			return err
		}
	}
	if m.NewQuantity != nil {
		if err := positiveInt("new_quantity", *m.NewQuantity); err != nil {
			return err
		}
	}
	return nil
}

// Validate is a no-op: CancelAllOrders carries no fields beyond its type.
func (CancelAllOrders) Validate() error { return nil }

// Validate checks AddTimer's identifier and timestamp ordering, and every
// child command in its embedded batch.
func (a AddTimer) Validate() error {
	if err := positiveInt("timer_id", a.TimerID); err != nil {
		return err
	}
	if a.StartTS <= 0 {
		return invalid("execution_start_timestamp", "must be positive")
	}
	if a.ExpirationTS <= a.StartTS {
		return invalid("execution_expiration_timestamp", "must be after the start timestamp")
	}
	if len(a.Commands) == 0 {
		return ErrEmptyBatch
	}
	for _, c := range a.Commands {
		if err := c.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks UpdateTimer: the identifier, that at least one amendment
// field is present, and every child command of a replacement batch.
func (u UpdateTimer) Validate() error {
	if err := positiveInt("timer_id", u.TimerID); err != nil {
		return err
	}
	if u.NewStartTS == nil && u.NewExpirationTS == nil && len(u.NewCommands) == 0 {
		return ErrNoUpdateFields
	}
	for _, c := range u.NewCommands {
		if err := c.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks CancelTimer's sole identifier.
func (c CancelTimer) Validate() error {
	return positiveInt("timer_id", c.TimerID)
}

// Validate is a no-op: Subscribe carries no fields beyond its type.
func (Subscribe) Validate() error { return nil }

// Validate is a no-op: GetLastNonce carries no fields beyond its type.
func (GetLastNonce) Validate() error { return nil }

// Validate requires a non-empty child list and validates every child
// individually, according to its own concrete type.
func (b Batch) Validate() error {
	if len(b.Commands) == 0 {
		return ErrEmptyBatch
	}
	for _, c := range b.Commands {
		if err := c.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks InternalTransfer's destination identifier and amount.
func (i InternalTransfer) Validate() error {
	if strings.TrimSpace(i.DestinationAccountID) == "" {
		return invalid("destination_account_id", "must not be empty")
	}
	return positiveDecimal("amount", i.Amount)
}
