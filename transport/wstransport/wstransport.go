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

// Package wstransport is a reference gorilla/websocket-backed implementation
// of the transport.Inbound/Outbound contract, for integration tests and the
// clearbook-probe CLI. It is an external collaborator: the protocol core
// never imports it.
package wstransport

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/clearbook-project/clearbook/internal/logger"
	"github.com/clearbook-project/clearbook/transport"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// ErrClosed is returned by Send once the adapter has been closed.
var ErrClosed = errors.New("wstransport: adapter closed")

// Adapter dials one WebSocket URL and pumps frames to an Inbound core while
// serializing writes through a single dedicated goroutine, matching
// gorilla/websocket's single-writer requirement.
type Adapter struct {
	url     string
	connID  string
	dialer  *websocket.Dialer
	inbound transport.Inbound
	log     logger.Logger

	conn *websocket.Conn

	writeCh   chan writeRequest
	done      chan struct{}
	closeOnce sync.Once

	readTimeout time.Duration
}

type writeRequest struct {
	payload []byte
	errCh   chan error
}

// New creates an Adapter for url, delivering decoded frames to inbound. Each
// Adapter is tagged with a random connection ID so its log lines can be
// correlated across reconnects, since the core itself never persists any
// identity across a transport close.
func New(url string, inbound transport.Inbound) *Adapter {
	return &Adapter{
		url:         url,
		connID:      uuid.NewString(),
		dialer:      &websocket.Dialer{HandshakeTimeout: 30 * time.Second},
		inbound:     inbound,
		log:         logger.GetDefaultLogger(),
		readTimeout: 60 * time.Second,
	}
}

// Connect dials the WebSocket, starts the write and read pumps, and calls
// inbound.Opened once the connection is established.
func (a *Adapter) Connect(ctx context.Context) error {
	conn, resp, err := a.dialer.DialContext(ctx, a.url, nil)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("wstransport: dial failed (HTTP %d): %w", resp.StatusCode, err)
		}
		return fmt.Errorf("wstransport: dial failed: %w", err)
	}

	a.conn = conn
	a.writeCh = make(chan writeRequest)
	a.done = make(chan struct{})

	go a.writePump()
	go a.readPump()

	a.log.Info("websocket connected", logger.String("conn_id", a.connID), logger.String("url", a.url))
	a.inbound.Opened()
	return nil
}

// Send implements transport.Outbound: it hands payload to the write pump
// and waits for the write to complete or ctx to be cancelled.
func (a *Adapter) Send(ctx context.Context, payload []byte) error {
	req := writeRequest{payload: payload, errCh: make(chan error, 1)}

	select {
	case a.writeCh <- req:
	case <-ctx.Done():
		return ctx.Err()
	case <-a.done:
		return ErrClosed
	}

	select {
	case err := <-req.errCh:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// writePump is the sole goroutine allowed to call conn.WriteMessage,
// satisfying gorilla/websocket's single-writer requirement.
func (a *Adapter) writePump() {
	for {
		select {
		case req := <-a.writeCh:
			req.errCh <- a.conn.WriteMessage(websocket.TextMessage, req.payload)
		case <-a.done:
			return
		}
	}
}

// readPump is the sole reader; it delivers every inbound frame to the core
// and reports Closed once the connection ends.
func (a *Adapter) readPump() {
	for {
		if err := a.conn.SetReadDeadline(time.Now().Add(a.readTimeout)); err != nil {
			a.reportClosed(err)
			return
		}

		_, data, err := a.conn.ReadMessage()
		if err != nil {
			a.reportClosed(err)
			return
		}
		a.inbound.Deliver(data)
	}
}

func (a *Adapter) reportClosed(err error) {
	code := websocket.CloseNoStatusReceived
	clean := false
	if ce, ok := err.(*websocket.CloseError); ok {
		code = ce.Code
		clean = ce.Code == websocket.CloseNormalClosure || ce.Code == websocket.CloseGoingAway
	}
	a.log.Warn("websocket closed", logger.String("conn_id", a.connID), logger.Bool("clean", clean), logger.Error(err))
	a.inbound.Closed(clean, code, err.Error())
}

// Close sends a normal-closure control frame and tears down the connection.
// It is safe to call more than once.
func (a *Adapter) Close() error {
	var closeErr error
	a.closeOnce.Do(func() {
		if a.done != nil {
			close(a.done)
		}
		if a.conn == nil {
			return
		}
		_ = a.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		closeErr = a.conn.Close()
	})
	return closeErr
}
