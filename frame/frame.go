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

// Package frame wraps and unwraps the outer transport frame shared by the
// market and user streams: a small JSON envelope distinguishing keepalive,
// error, and data frames from the armored PGP payload they carry.
package frame

import "encoding/json"

// Kind identifies the outer frame's type discriminator.
type Kind int

const (
	// KindUnknown covers any type value this codec does not recognize;
	// such frames are forward-compatible no-ops.
	KindUnknown Kind = iota
	KindKeepalive
	KindError
	KindData
)

// maintenanceErrorCode is the error_code value that signals a graceful,
// expected server-initiated shutdown rather than a protocol fault.
const maintenanceErrorCode = "maintenance"

// Envelope is the decoded form of one inbound transport frame.
type Envelope struct {
	Kind Kind

	// ErrorCode is populated when Kind == KindError.
	ErrorCode string

	// Payload is the raw armored PGP blob when Kind == KindData.
	Payload []byte
}

// IsMaintenance reports whether an error envelope is the benign maintenance
// notice, which callers should swallow rather than surface as a fault.
func (e Envelope) IsMaintenance() bool {
	return e.Kind == KindError && e.ErrorCode == maintenanceErrorCode
}

type wireFrame struct {
	Type      string `json:"type"`
	ErrorCode string `json:"error_code"`
	Data      string `json:"data"`
}

// Unwrap decodes one transport frame's raw bytes into an Envelope.
func Unwrap(raw []byte) (Envelope, error) {
	var w wireFrame
	if err := json.Unmarshal(raw, &w); err != nil {
		return Envelope{}, &MalformedFrameError{Cause: err}
	}

	switch w.Type {
	case "keepalive":
		return Envelope{Kind: KindKeepalive}, nil
	case "error":
		return Envelope{Kind: KindError, ErrorCode: w.ErrorCode}, nil
	case "data":
		return Envelope{Kind: KindData, Payload: []byte(w.Data)}, nil
	default:
		return Envelope{Kind: KindUnknown}, nil
	}
}

// Wrap produces the outer data frame carrying an already armored PGP payload.
// The market and user streams never emit keepalive or error frames
// themselves; only data frames are ever constructed outbound.
func Wrap(payload []byte) ([]byte, error) {
	w := wireFrame{Type: "data", Data: string(payload)}
	out, err := json.Marshal(w)
	if err != nil {
		return nil, &MalformedFrameError{Cause: err}
	}
	return out, nil
}

// MalformedFrameError wraps a JSON decoding failure of an inbound frame.
type MalformedFrameError struct {
	Cause error
}

func (e *MalformedFrameError) Error() string {
	return "frame: malformed frame: " + e.Cause.Error()
}

func (e *MalformedFrameError) Unwrap() error {
	return e.Cause
}
