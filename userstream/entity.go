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

import "encoding/json"

// EntityType is one inbound user-stream entity's "type" discriminator.
type EntityType string

const (
	entityLastNonce  EntityType = "last_nonce"
	entitySubscribed EntityType = "subscribed"

	EntityAccountState                  EntityType = "account_state"
	EntityOpenPosition                  EntityType = "open_position"
	EntityOpenPositionForcefullyClosed  EntityType = "open_position_forcefully_closed"
	EntityOrderPlaced                   EntityType = "order_placed"
	EntityOrderPlaceFailed              EntityType = "order_place_failed"
	EntityOrderCancelled                EntityType = "order_cancelled"
	EntityOrderForcefullyCancelled      EntityType = "order_forcefully_cancelled"
	EntityOrderCancelFailed             EntityType = "order_cancel_failed"
	EntityAllOrdersCancelled            EntityType = "all_orders_cancelled"
	EntityCancelAllOrdersFailed         EntityType = "cancel_all_orders_failed"
	EntityOrderModified                 EntityType = "order_modified"
	EntityOrderModificationFailed       EntityType = "order_modification_failed"
	EntityOrderFilled                   EntityType = "order_filled"
	EntityTimerAdded                    EntityType = "timer_added"
	EntityTimerRejected                 EntityType = "timer_rejected"
	EntityTimerExpired                  EntityType = "timer_expired"
	EntityTimerTriggered                EntityType = "timer_triggered"
	EntityTimerUpdated                  EntityType = "timer_updated"
	EntityTimerUpdateFailed             EntityType = "timer_update_failed"
	EntityTimerCancelled                EntityType = "timer_cancelled"
	EntityTimerCancelFailed             EntityType = "timer_cancel_failed"
	EntityInternalTransferReceived      EntityType = "internal_transfer_received"
	EntityInternalTransferExecuted      EntityType = "internal_transfer_executed"
	EntityInternalTransferRejected      EntityType = "internal_transfer_rejected"
)

// Entity is one element of the inbound user-stream array, kept in its raw
// decoded form for dispatch; listeners call Decode to unmarshal it into a
// concrete shape of their choosing.
type Entity struct {
	Type EntityType
	Raw  json.RawMessage
}

// Decode unmarshals the entity's raw JSON into v.
func (e Entity) Decode(v interface{}) error {
	return json.Unmarshal(e.Raw, v)
}

type entityEnvelope struct {
	Type EntityType `json:"type"`
}

type lastNonceEntity struct {
	NonceGroup int   `json:"nonce_group"`
	LastNonce  int64 `json:"last_nonce"`
}

type subscribedEntity struct {
	MessageNonceGroup int `json:"message_nonce_group"`
}

// decodeEntities parses the decrypted inbound payload, which is always a
// JSON array even for a single logical event.
func decodeEntities(payload []byte) ([]Entity, error) {
	var raws []json.RawMessage
	if err := json.Unmarshal(payload, &raws); err != nil {
		return nil, ErrMalformedJSON
	}

	entities := make([]Entity, 0, len(raws))
	for _, raw := range raws {
		var env entityEnvelope
		if err := json.Unmarshal(raw, &env); err != nil {
			return nil, ErrMalformedJSON
		}
		entities = append(entities, Entity{Type: env.Type, Raw: raw})
	}
	return entities, nil
}
