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

import "github.com/clearbook-project/clearbook/command"

// commandFields renders cmd's own fields (never account_id/nonce/nonce_group,
// which stamp attaches uniformly) into the wire JSON shapes of §6.5.
func commandFields(cmd command.Command) map[string]interface{} {
	switch c := cmd.(type) {
	case command.PlaceOrder:
		m := map[string]interface{}{
			"type":            c.Type(),
			"client_order_id": c.ClientOrderID,
			"instrument_id":   c.InstrumentID,
			"order_type":      c.OrderType,
			"limit_price":     c.LimitPrice,
			"side":            c.Side,
			"quantity":        c.Quantity,
		}
		if c.PostOnly != nil {
			m["post_only"] = *c.PostOnly
		}
		return m
	case command.CancelOrder:
		return map[string]interface{}{"type": c.Type(), "client_order_id": c.ClientOrderID}
	case command.ModifyOrder:
		m := map[string]interface{}{"type": c.Type(), "client_order_id": c.ClientOrderID}
		if c.NewPrice != nil {
			m["new_price"] = *c.NewPrice
		}
		if c.NewQuantity != nil {
			m["new_quantity"] = *c.NewQuantity
		}
		if c.PostOnly != nil {
			m["post_only"] = *c.PostOnly
		}
		return m
	case command.CancelAllOrders:
		return map[string]interface{}{"type": c.Type()}
	case command.CancelTimer:
		return map[string]interface{}{"type": c.Type(), "timer_id": c.TimerID}
	case command.InternalTransfer:
		return map[string]interface{}{
			"type":                   c.Type(),
			"destination_account_id": c.DestinationAccountID,
			"amount":                 c.Amount,
		}
	default:
		return map[string]interface{}{"type": cmd.Type()}
	}
}

// stamp attaches the account and nonce identity common to every outbound
// command to fields, in place, and returns it.
func stamp(fields map[string]interface{}, accountID string, nonceGroup NonceGroup, nonce int64) map[string]interface{} {
	fields["account_id"] = accountID
	fields["nonce_group"] = int(nonceGroup)
	fields["nonce"] = nonce
	return fields
}

// batchEnvelope wraps already-stamped children in the outer "batch" shape.
// The wrapper itself carries account_id but no nonce of its own.
func batchEnvelope(accountID string, children []map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{
		"type":       "batch",
		"account_id": accountID,
		"batch":      children,
	}
}
