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

import (
	"context"
	"encoding/json"
	"time"

	"github.com/clearbook-project/clearbook/command"
	"github.com/clearbook-project/clearbook/dispatch"
	"github.com/clearbook-project/clearbook/frame"
	"github.com/clearbook-project/clearbook/internal/metrics"
	"github.com/clearbook-project/clearbook/pgpenvelope"
	"github.com/clearbook-project/clearbook/transport"
)

// Protocol drives one account's private user-stream conversation: the
// get_last_nonce/subscribe handshake, nonce stamping, command validation
// and batching, and fan-out of inbound entities. Protocol implements
// transport.Inbound. It is not safe for concurrent Deliver or command API
// calls; the caller's transport adapter must serialize delivery, and all
// command API calls must come from that same single goroutine.
type Protocol struct {
	accountID  string
	nonceGroup NonceGroup

	exchangeKey *pgpenvelope.PublicKey
	traderKey   *pgpenvelope.PrivateKey

	sender transport.Outbound

	state          SessionState
	handshakeStart time.Time
	nonce          nonceCounter
	batch          *pendingBatch

	listeners *dispatch.List[Listener]
}

// NewProtocol constructs a user-stream protocol for one account. sender may
// be nil at construction time and bound later via BindSender (the engine
// wires it once the transport adapter is available).
func NewProtocol(accountID string, nonceGroup NonceGroup, traderKey *pgpenvelope.PrivateKey, exchangeKey *pgpenvelope.PublicKey) *Protocol {
	return &Protocol{
		accountID:   accountID,
		nonceGroup:  nonceGroup,
		traderKey:   traderKey,
		exchangeKey: exchangeKey,
		listeners:   dispatch.NewList[Listener](nil),
	}
}

// BindSender attaches the transport.Outbound used to send framed, encrypted
// commands.
func (p *Protocol) BindSender(sender transport.Outbound) {
	p.sender = sender
}

// AddListener registers l and returns a handle for later removal.
func (p *Protocol) AddListener(l Listener) dispatch.Handle {
	return p.listeners.Add(l, l.receiveError)
}

// RemoveListener unregisters the listener previously returned by
// AddListener.
func (p *Protocol) RemoveListener(h dispatch.Handle) {
	p.listeners.Remove(h)
}

// State reports the current handshake phase.
func (p *Protocol) State() SessionState {
	return p.state
}

// ActiveBatchMode reports the currently active batch mode, BatchNone if
// none.
func (p *Protocol) ActiveBatchMode() BatchMode {
	if p.batch == nil {
		return BatchNone
	}
	return p.batch.mode
}

// Opened begins the handshake: it sends get_last_nonce and transitions to
// AwaitingLastNonce. Called by the transport adapter once the connection is
// up.
func (p *Protocol) Opened() {
	if err := p.Initialize(context.Background()); err != nil {
		p.emitError(err)
	}
}

// Initialize sends the opening get_last_nonce handshake message. It is a
// no-op if the session is already past Disconnected (idempotent against a
// transport that calls Opened more than once).
func (p *Protocol) Initialize(ctx context.Context) error {
	if p.state != Disconnected {
		return nil
	}
	p.state = AwaitingLastNonce
	p.handshakeStart = time.Now()
	metrics.HandshakesInitiated.WithLabelValues("client").Inc()
	fields := map[string]interface{}{
		"type":        "get_last_nonce",
		"account_id":  p.accountID,
		"nonce_group": int(p.nonceGroup),
	}
	return p.sendWire(ctx, fields)
}

// Closed resets session state to Disconnected and discards any pending
// batch; it does not attempt to replay or resend outstanding work.
func (p *Protocol) Closed(clean bool, code int, reason string) {
	if p.state != Ready && p.state != Disconnected {
		metrics.HandshakesFailed.WithLabelValues("network").Inc()
	}
	p.state = Disconnected
	p.batch = nil

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

// Deliver decodes one raw transport frame: keepalive and unknown outer
// types are no-ops, a maintenance error frame is swallowed, any other error
// frame is surfaced via OnError, and a data frame is decrypted, verified,
// and dispatched entity by entity.
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

	plaintext, err := pgpenvelope.DecryptVerify(blob, p.traderKey, p.exchangeKey)
	if err != nil {
		metrics.MessagesProcessed.WithLabelValues("user", "failure").Inc()
		p.emitError(err)
		return
	}

	entities, err := decodeEntities(plaintext)
	if err != nil {
		metrics.MessagesProcessed.WithLabelValues("user", "failure").Inc()
		p.emitError(err)
		return
	}
	metrics.MessagesProcessed.WithLabelValues("user", "success").Inc()

	for _, e := range entities {
		if p.handleHandshakeEntity(e) {
			return
		}
		switch e.Type {
		case entityLastNonce, entitySubscribed,
			EntityAccountState, EntityOpenPosition, EntityOpenPositionForcefullyClosed,
			EntityOrderPlaced, EntityOrderPlaceFailed, EntityOrderCancelled,
			EntityOrderForcefullyCancelled, EntityOrderCancelFailed, EntityAllOrdersCancelled,
			EntityCancelAllOrdersFailed, EntityOrderModified, EntityOrderModificationFailed,
			EntityOrderFilled, EntityTimerAdded, EntityTimerRejected, EntityTimerExpired,
			EntityTimerTriggered, EntityTimerUpdated, EntityTimerUpdateFailed,
			EntityTimerCancelled, EntityTimerCancelFailed, EntityInternalTransferReceived,
			EntityInternalTransferExecuted, EntityInternalTransferRejected:
		default:
			continue
		}
		p.listeners.Each(func(l Listener) {
			if l.OnMessage != nil {
				l.OnMessage(e)
			}
			l.dispatchTyped(e)
		})
	}
}

// handleHandshakeEntity processes a last_nonce or subscribed entity and
// reports whether array processing must stop (true only for last_nonce,
// per the handshake's "do not process subsequent entities" rule).
func (p *Protocol) handleHandshakeEntity(e Entity) bool {
	switch e.Type {
	case entityLastNonce:
		var payload lastNonceEntity
		if err := e.Decode(&payload); err != nil {
			p.emitError(err)
			return true
		}
		if NonceGroup(payload.NonceGroup) != p.nonceGroup {
			metrics.NonceValidations.WithLabelValues("invalid").Inc()
			return false
		}
		metrics.NonceValidations.WithLabelValues("valid").Inc()
		if p.state == AwaitingLastNonce {
			p.nonce.seed(payload.LastNonce)
			p.state = AwaitingSubscribed
			metrics.HandshakeDuration.WithLabelValues("init").Observe(time.Since(p.handshakeStart).Seconds())
			p.sendSubscribe(context.Background())
		}
		return true
	case entitySubscribed:
		var payload subscribedEntity
		if err := e.Decode(&payload); err != nil {
			p.emitError(err)
			return false
		}
		if NonceGroup(payload.MessageNonceGroup) != p.nonceGroup {
			return false
		}
		if p.state == AwaitingSubscribed {
			p.state = Ready
			metrics.HandshakeDuration.WithLabelValues("finalize").Observe(time.Since(p.handshakeStart).Seconds())
			metrics.HandshakesCompleted.WithLabelValues("success").Inc()
			p.listeners.Each(func(l Listener) {
				if l.OnReady != nil {
					l.OnReady()
				}
			})
		}
		return false
	default:
		return false
	}
}

func (p *Protocol) sendSubscribe(ctx context.Context) {
	fields := stamp(commandFields(command.Subscribe{}), p.accountID, p.nonceGroup, p.nonce.next())
	if err := p.sendWire(ctx, fields); err != nil {
		p.emitError(err)
	}
}

func (p *Protocol) emitError(err error) {
	p.listeners.Each(func(l Listener) {
		if l.OnError != nil {
			l.OnError(err)
		}
	})
}

// sendWire wraps fields as the singleton-array inner payload, signs and
// encrypts it to the exchange, frames it, and hands it to the transport.
func (p *Protocol) sendWire(ctx context.Context, fields map[string]interface{}) error {
	body, err := json.Marshal([]map[string]interface{}{fields})
	if err != nil {
		return err
	}
	armored, err := pgpenvelope.SignEncrypt(body, p.traderKey, p.exchangeKey)
	if err != nil {
		return err
	}
	framed, err := frame.Wrap(armored)
	if err != nil {
		return err
	}
	return p.sender.Send(ctx, framed)
}

func (p *Protocol) requireReady() error {
	if p.state != Ready {
		return ErrNotInitialized
	}
	return nil
}

func (p *Protocol) stampChildren(cmds []command.Command) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(cmds))
	for _, c := range cmds {
		out = append(out, stamp(commandFields(c), p.accountID, p.nonceGroup, p.nonce.next()))
	}
	return out
}

// submit validates cmd, stamps it, and either appends it to whichever batch
// mode is currently active or sends it immediately. This is the common path
// for PlaceOrder, CancelOrder, ModifyOrder, and CancelAllOrders.
func (p *Protocol) submit(ctx context.Context, cmd command.Command) error {
	if err := p.requireReady(); err != nil {
		return err
	}
	if err := cmd.Validate(); err != nil {
		return err
	}
	fields := stamp(commandFields(cmd), p.accountID, p.nonceGroup, p.nonce.next())
	if p.batch != nil {
		p.batch.children = append(p.batch.children, fields)
		return nil
	}
	return p.sendWire(ctx, fields)
}

// PlaceOrder validates and stamps c, then appends it to an active batch or
// sends it immediately.
func (p *Protocol) PlaceOrder(ctx context.Context, c command.PlaceOrder) error {
	return p.submit(ctx, c)
}

// CancelOrder validates and stamps c, then appends it to an active batch or
// sends it immediately.
func (p *Protocol) CancelOrder(ctx context.Context, c command.CancelOrder) error {
	return p.submit(ctx, c)
}

// ModifyOrder validates and stamps c, then appends it to an active batch or
// sends it immediately.
func (p *Protocol) ModifyOrder(ctx context.Context, c command.ModifyOrder) error {
	return p.submit(ctx, c)
}

// CancelAllOrders stamps a cancel_all_orders command, then appends it to an
// active batch or sends it immediately.
func (p *Protocol) CancelAllOrders(ctx context.Context) error {
	return p.submit(ctx, command.CancelAllOrders{})
}

// Batch validates and stamps every command in cmds and sends them as one
// standalone batch envelope, independent of any Start/Send batch mode.
func (p *Protocol) Batch(ctx context.Context, cmds []command.Command) error {
	if err := p.requireReady(); err != nil {
		return err
	}
	b := command.Batch{Commands: cmds}
	if err := b.Validate(); err != nil {
		return err
	}
	return p.sendWire(ctx, batchEnvelope(p.accountID, p.stampChildren(cmds)))
}

// StartBatch enters standard batch mode. It fails if any batch mode is
// already active.
func (p *Protocol) StartBatch() error {
	if err := p.requireReady(); err != nil {
		return err
	}
	if p.ActiveBatchMode() != BatchNone {
		return ErrBatchModeConflict
	}
	p.batch = &pendingBatch{mode: BatchStandard}
	return nil
}

// SendBatch sends the pending standard batch and clears batch mode. It
// fails if standard batch mode is not active or the batch is empty.
func (p *Protocol) SendBatch(ctx context.Context) error {
	if err := p.requireReady(); err != nil {
		return err
	}
	if p.ActiveBatchMode() != BatchStandard {
		return ErrNoActiveBatch
	}
	if len(p.batch.children) == 0 {
		return command.ErrEmptyBatch
	}
	envelope := batchEnvelope(p.accountID, p.batch.children)
	p.batch = nil
	return p.sendWire(ctx, envelope)
}

// TimeTriggeredBatch validates and stamps cmds, wraps them as a batch
// embedded in an add_timer envelope of its own, and sends it immediately.
func (p *Protocol) TimeTriggeredBatch(ctx context.Context, timerID, startTS, expirationTS int64, cmds []command.Command) error {
	if err := p.requireReady(); err != nil {
		return err
	}
	at := command.AddTimer{TimerID: timerID, StartTS: startTS, ExpirationTS: expirationTS, Commands: cmds}
	if err := at.Validate(); err != nil {
		return err
	}
	outerNonce := p.nonce.next()
	children := p.stampChildren(cmds)
	outer := stamp(map[string]interface{}{
		"type":                            "add_timer",
		"timer_id":                        timerID,
		"execution_start_timestamp":      startTS,
		"execution_expiration_timestamp": expirationTS,
		"command":                        batchEnvelope(p.accountID, children),
	}, p.accountID, p.nonceGroup, outerNonce)
	return p.sendWire(ctx, outer)
}

// StartTimeTriggeredBatch enters time-triggered-create batch mode, pre-
// stamping the add_timer envelope's own nonce so it precedes every child
// nonce stamped before SendTimeTriggeredBatch. It fails if any batch mode
// is already active.
func (p *Protocol) StartTimeTriggeredBatch(timerID, startTS, expirationTS int64) error {
	if err := p.requireReady(); err != nil {
		return err
	}
	if p.ActiveBatchMode() != BatchNone {
		return ErrBatchModeConflict
	}
	p.batch = &pendingBatch{
		mode:         BatchTimeTriggeredCreate,
		timerID:      timerID,
		startTS:      startTS,
		expirationTS: expirationTS,
		outerNonce:   p.nonce.next(),
	}
	return nil
}

// SendTimeTriggeredBatch sends the pending add_timer envelope built from
// the held timer window and accumulated children, and clears batch mode.
func (p *Protocol) SendTimeTriggeredBatch(ctx context.Context) error {
	if err := p.requireReady(); err != nil {
		return err
	}
	if p.ActiveBatchMode() != BatchTimeTriggeredCreate {
		return ErrNoActiveBatch
	}
	if len(p.batch.children) == 0 {
		return command.ErrEmptyBatch
	}
	b := p.batch
	outer := stamp(map[string]interface{}{
		"type":                            "add_timer",
		"timer_id":                        b.timerID,
		"execution_start_timestamp":      b.startTS,
		"execution_expiration_timestamp": b.expirationTS,
		"command":                        batchEnvelope(p.accountID, b.children),
	}, p.accountID, p.nonceGroup, b.outerNonce)
	p.batch = nil
	return p.sendWire(ctx, outer)
}

// UpdateTimeTriggeredBatch validates and sends a standalone update_timer
// envelope. At least one of newStartTS, newExpirationTS, or cmds must be
// non-empty.
func (p *Protocol) UpdateTimeTriggeredBatch(ctx context.Context, timerID int64, newStartTS, newExpirationTS *int64, cmds []command.Command) error {
	if err := p.requireReady(); err != nil {
		return err
	}
	ut := command.UpdateTimer{TimerID: timerID, NewStartTS: newStartTS, NewExpirationTS: newExpirationTS, NewCommands: cmds}
	if err := ut.Validate(); err != nil {
		return err
	}

	fields := map[string]interface{}{"type": "update_timer", "timer_id": timerID}
	if newStartTS != nil {
		fields["new_execution_start_timestamp"] = *newStartTS
	}
	if newExpirationTS != nil {
		fields["new_execution_expiration_timestamp"] = *newExpirationTS
	}
	if len(cmds) > 0 {
		fields["new_command"] = batchEnvelope(p.accountID, p.stampChildren(cmds))
	}
	return p.sendWire(ctx, stamp(fields, p.accountID, p.nonceGroup, p.nonce.next()))
}

// StartUpdateTimeTriggeredBatch enters time-triggered-update batch mode,
// holding the timer identifier and optional new timestamps and pre-
// stamping the update_timer envelope's own nonce so it precedes every
// child nonce stamped before SendUpdateTimeTriggeredBatch. It fails if any
// batch mode is already active.
func (p *Protocol) StartUpdateTimeTriggeredBatch(timerID int64, newStartTS, newExpirationTS *int64) error {
	if err := p.requireReady(); err != nil {
		return err
	}
	if p.ActiveBatchMode() != BatchNone {
		return ErrBatchModeConflict
	}
	p.batch = &pendingBatch{
		mode:            BatchTimeTriggeredUpdate,
		timerID:         timerID,
		newStartTS:      newStartTS,
		newExpirationTS: newExpirationTS,
		outerNonce:      p.nonce.next(),
	}
	return nil
}

// SendUpdateTimeTriggeredBatch sends the pending update_timer envelope and
// clears batch mode. It requires at least one of the held new timestamps or
// an accumulated replacement batch.
func (p *Protocol) SendUpdateTimeTriggeredBatch(ctx context.Context) error {
	if err := p.requireReady(); err != nil {
		return err
	}
	if p.ActiveBatchMode() != BatchTimeTriggeredUpdate {
		return ErrNoActiveBatch
	}
	b := p.batch
	if b.newStartTS == nil && b.newExpirationTS == nil && len(b.children) == 0 {
		return command.ErrNoUpdateFields
	}

	fields := map[string]interface{}{"type": "update_timer", "timer_id": b.timerID}
	if b.newStartTS != nil {
		fields["new_execution_start_timestamp"] = *b.newStartTS
	}
	if b.newExpirationTS != nil {
		fields["new_execution_expiration_timestamp"] = *b.newExpirationTS
	}
	if len(b.children) > 0 {
		fields["new_command"] = batchEnvelope(p.accountID, b.children)
	}
	stamped := stamp(fields, p.accountID, p.nonceGroup, b.outerNonce)
	p.batch = nil
	return p.sendWire(ctx, stamped)
}

// CancelTimeTriggeredBatch validates and sends a standalone cancel_timer
// command. It does not interact with any active batch mode.
func (p *Protocol) CancelTimeTriggeredBatch(ctx context.Context, timerID int64) error {
	if err := p.requireReady(); err != nil {
		return err
	}
	ct := command.CancelTimer{TimerID: timerID}
	if err := ct.Validate(); err != nil {
		return err
	}
	fields := stamp(commandFields(ct), p.accountID, p.nonceGroup, p.nonce.next())
	return p.sendWire(ctx, fields)
}

// ExecuteInternalTransfer validates and sends a standalone internal_transfer
// command.
func (p *Protocol) ExecuteInternalTransfer(ctx context.Context, destinationAccountID, amount string) error {
	if err := p.requireReady(); err != nil {
		return err
	}
	it := command.InternalTransfer{DestinationAccountID: destinationAccountID, Amount: amount}
	if err := it.Validate(); err != nil {
		return err
	}
	fields := stamp(commandFields(it), p.accountID, p.nonceGroup, p.nonce.next())
	return p.sendWire(ctx, fields)
}
