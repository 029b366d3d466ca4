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

// Package engine wires the exchange descriptor, trader identity, and the
// market and user-stream protocols together into one client-side engine,
// without itself depending on any particular transport implementation.
package engine

import (
	"fmt"

	"github.com/clearbook-project/clearbook/internal/health"
	"github.com/clearbook-project/clearbook/market"
	"github.com/clearbook-project/clearbook/pgpenvelope"
	"github.com/clearbook-project/clearbook/userstream"
)

// ExchangeDescriptor holds the exchange's public key material and base URL.
// It is immutable after construction.
type ExchangeDescriptor struct {
	publicKey *pgpenvelope.PublicKey
	baseURL   string
}

// NewExchangeDescriptor parses armoredPublicKey and pairs it with baseURL.
func NewExchangeDescriptor(baseURL string, armoredPublicKey []byte) (*ExchangeDescriptor, error) {
	key, err := pgpenvelope.ParsePublicKey(armoredPublicKey)
	if err != nil {
		return nil, fmt.Errorf("engine: parse exchange public key: %w", err)
	}
	return &ExchangeDescriptor{publicKey: key, baseURL: baseURL}, nil
}

// PublicKey returns the exchange's public key.
func (e *ExchangeDescriptor) PublicKey() *pgpenvelope.PublicKey {
	return e.publicKey
}

// MarketStreamURL is the fixed market-stream path appended to the base URL.
func (e *ExchangeDescriptor) MarketStreamURL() string {
	return e.baseURL + "/market_stream"
}

// UserStreamURL is the fixed user-stream path appended to the base URL.
func (e *ExchangeDescriptor) UserStreamURL() string {
	return e.baseURL + "/user_stream"
}

// TraderIdentity holds the trader's account identifier and private key
// material. It is constructed locked; Unlock is called exactly once and
// permanently decrypts the primary key and every subkey for the engine's
// lifetime.
type TraderIdentity struct {
	accountID string
	key       *pgpenvelope.PrivateKey
}

// NewTraderIdentity parses armoredPrivateKey for accountID, returning it in
// its locked state.
func NewTraderIdentity(accountID string, armoredPrivateKey []byte) (*TraderIdentity, error) {
	key, err := pgpenvelope.ParsePrivateKey(armoredPrivateKey)
	if err != nil {
		return nil, fmt.Errorf("engine: parse trader private key: %w", err)
	}
	return &TraderIdentity{accountID: accountID, key: key}, nil
}

// AccountID returns the trader's opaque account identifier.
func (t *TraderIdentity) AccountID() string {
	return t.accountID
}

// Unlock decrypts the trader's key material. It is idempotent once
// unlocked.
func (t *TraderIdentity) Unlock(passphrase string) error {
	return t.key.Unlock(passphrase)
}

// PrivateKey returns the trader's private key. Callers must not invoke
// crypto operations on it before Unlock has succeeded.
func (t *TraderIdentity) PrivateKey() *pgpenvelope.PrivateKey {
	return t.key
}

// Engine owns one market.Protocol and one userstream.Protocol, bound to a
// single exchange and trader identity.
type Engine struct {
	exchange *ExchangeDescriptor
	trader   *TraderIdentity

	marketProtocol *market.Protocol
	userProtocol   *userstream.Protocol
}

// New constructs an Engine. trader must already be unlocked.
func New(exchange *ExchangeDescriptor, trader *TraderIdentity, nonceGroup userstream.NonceGroup) *Engine {
	return &Engine{
		exchange:       exchange,
		trader:         trader,
		marketProtocol: market.NewProtocol(exchange.PublicKey()),
		userProtocol:   userstream.NewProtocol(trader.AccountID(), nonceGroup, trader.PrivateKey(), exchange.PublicKey()),
	}
}

// Market returns the market-stream protocol for listener registration.
func (e *Engine) Market() *market.Protocol {
	return e.marketProtocol
}

// UserStream returns the user-stream protocol for listener registration and
// command submission.
func (e *Engine) UserStream() *userstream.Protocol {
	return e.userProtocol
}

// MarketTransportAdapter returns the transport.Inbound implementation a
// caller's WebSocket adapter should deliver market-stream frames to.
func (e *Engine) MarketTransportAdapter() *market.Protocol {
	return e.marketProtocol
}

// UserTransportAdapter returns the transport.Inbound implementation a
// caller's WebSocket adapter should deliver user-stream frames to.
func (e *Engine) UserTransportAdapter() *userstream.Protocol {
	return e.userProtocol
}

// HealthChecker builds a health.Checker that reports this engine's live
// market and user-stream state.
func (e *Engine) HealthChecker() *health.Checker {
	return health.NewChecker(
		e.marketProtocol.Connected,
		func() string { return e.userProtocol.State().String() },
	)
}
