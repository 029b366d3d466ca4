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

import (
	"time"

	"github.com/clearbook-project/clearbook/dispatch"
	"github.com/clearbook-project/clearbook/frame"
	"github.com/clearbook-project/clearbook/internal/metrics"
	"github.com/clearbook-project/clearbook/pgpenvelope"
	"github.com/clearbook-project/clearbook/transport"
)

// Protocol implements transport.Inbound for the market stream: it verifies
// every clearsigned data frame against the exchange's public key, parses
// the inner payload, and fans it out to registered listeners. Protocol is
// not safe for concurrent Deliver calls; the caller's transport adapter
// must serialize delivery (see wstransport for the reference single-writer
// discipline).
type Protocol struct {
	exchangeKey *pgpenvelope.PublicKey
	listeners   *dispatch.List[Listener]
	connected   bool
}

// NewProtocol constructs a market protocol that verifies incoming data
// frames against exchangeKey.
func NewProtocol(exchangeKey *pgpenvelope.PublicKey) *Protocol {
	p := &Protocol{exchangeKey: exchangeKey}
	p.listeners = dispatch.NewList[Listener](nil)
	return p
}

// Connected reports whether the transport last told this protocol it was
// open (Opened) rather than closed (Closed). Used by health reporting;
// like Deliver/Opened/Closed, callers must serialize access through the
// same single transport goroutine.
func (p *Protocol) Connected() bool {
	return p.connected
}

// AddListener registers l and returns a handle for later removal.
func (p *Protocol) AddListener(l Listener) dispatch.Handle {
	return p.listeners.Add(l, l.receiveError)
}

// RemoveListener unregisters the listener previously returned by
// AddListener. Once removed, it receives no further callbacks.
func (p *Protocol) RemoveListener(h dispatch.Handle) {
	p.listeners.Remove(h)
}

// Opened notifies every listener that the transport is connected and ready
// to receive market data.
func (p *Protocol) Opened() {
	p.connected = true
	p.listeners.Each(func(l Listener) {
		if l.OnReady != nil {
			l.OnReady()
		}
	})
}

// Closed notifies every listener of a clean disconnect or an unclean one,
// matching the error-handling design's OnDisconnect/OnError split.
func (p *Protocol) Closed(clean bool, code int, reason string) {
	p.connected = false
	if clean {
		p.listeners.Each(func(l Listener) {
			if l.OnDisconnect != nil {
				l.OnDisconnect(reason)
			}
		})
		return
	}
	err := &transport.TransportError{Code: code, Reason: reason}
	p.listeners.Each(func(l Listener) {
		if l.OnError != nil {
			l.OnError(err)
		}
	})
}

// Deliver decodes one raw transport frame. Keepalive frames and unknown
// outer types are silent no-ops; a "maintenance" error frame is swallowed
// (the following clean close reports OnDisconnect); any other error frame
// is surfaced via OnError. A data frame is clearsign-verified, parsed, and
// fanned out; verification or parse failures are surfaced via OnError and
// never dispatched.
func (p *Protocol) Deliver(raw []byte) {
	env, err := frame.Unwrap(raw)
	if err != nil {
		p.emitError(err)
		return
	}

	switch env.Kind {
	case frame.KindKeepalive, frame.KindUnknown:
		return
	case frame.KindError:
		if env.IsMaintenance() {
			return
		}
		p.emitError(&transport.TransportError{Reason: env.ErrorCode})
		return
	case frame.KindData:
		p.deliverData(env.Payload)
	}
}

func (p *Protocol) deliverData(blob []byte) {
	start := time.Now()
	metrics.MessageSize.Observe(float64(len(blob)))
	defer func() { metrics.MessageProcessingDuration.Observe(time.Since(start).Seconds()) }()

	plaintext, err := pgpenvelope.VerifyClearsigned(blob, p.exchangeKey)
	if err != nil {
		metrics.MessagesProcessed.WithLabelValues("market", "failure").Inc()
		p.emitError(err)
		return
	}

	msg, known, err := parseMessage(plaintext)
	if err != nil {
		metrics.MessagesProcessed.WithLabelValues("market", "failure").Inc()
		p.emitError(err)
		return
	}
	if !known {
		metrics.MessagesProcessed.WithLabelValues("market", "success").Inc()
		return
	}
	metrics.MessagesProcessed.WithLabelValues("market", "success").Inc()

	p.listeners.Each(func(l Listener) {
		if l.OnMessage != nil {
			l.OnMessage(msg)
		}
		l.dispatchTyped(msg)
	})
}

func (p *Protocol) emitError(err error) {
	p.listeners.Each(func(l Listener) {
		if l.OnError != nil {
			l.OnError(err)
		}
	})
}
