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

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/clearbook-project/clearbook/config"
	"github.com/clearbook-project/clearbook/engine"
	"github.com/clearbook-project/clearbook/internal/health"
	"github.com/clearbook-project/clearbook/internal/logger"
	"github.com/clearbook-project/clearbook/market"
	"github.com/clearbook-project/clearbook/transport/wstransport"
	"github.com/clearbook-project/clearbook/userstream"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	configDir   string
	environment string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Connect to the exchange's market and user streams and print every dispatched event",
	RunE:  runProbe,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&configDir, "config-dir", "config", "directory containing <env>.yaml / default.yaml / config.yaml")
	runCmd.Flags().StringVar(&environment, "env", "", "environment name (defaults to CLEARBOOK_ENV or development)")
}

func runProbe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(config.LoaderOptions{ConfigDir: configDir, Environment: environment})
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	log := newLoggerFromConfig(cfg)

	exchangePub, err := os.ReadFile(cfg.Exchange.PublicKeyPath)
	if err != nil {
		return fmt.Errorf("read exchange public key: %w", err)
	}
	traderPriv, err := os.ReadFile(cfg.Trader.PrivateKeyPath)
	if err != nil {
		return fmt.Errorf("read trader private key: %w", err)
	}

	exchange, err := engine.NewExchangeDescriptor(cfg.Exchange.BaseURL, exchangePub)
	if err != nil {
		return fmt.Errorf("parse exchange descriptor: %w", err)
	}
	trader, err := engine.NewTraderIdentity(cfg.Trader.AccountID, traderPriv)
	if err != nil {
		return fmt.Errorf("parse trader identity: %w", err)
	}
	if err := trader.Unlock(config.TraderPassphrase(cfg)); err != nil {
		return fmt.Errorf("unlock trader key: %w", err)
	}

	eng := engine.New(exchange, trader, userstream.NonceGroup(cfg.Trader.NonceGroup))
	registerPrintListeners(eng, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	marketAdapter := wstransport.New(exchange.MarketStreamURL(), eng.MarketTransportAdapter())
	userAdapter := wstransport.New(exchange.UserStreamURL(), eng.UserTransportAdapter())
	eng.UserStream().BindSender(userAdapter)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return marketAdapter.Connect(gctx) })
	g.Go(func() error { return userAdapter.Connect(gctx) })
	if err := g.Wait(); err != nil {
		return fmt.Errorf("connect exchange streams: %w", err)
	}
	defer marketAdapter.Close()
	defer userAdapter.Close()

	var healthServer *health.Server
	if cfg.Health != nil && cfg.Health.Enabled {
		healthServer, err = health.StartHealthServer(cfg.Health.Port, eng.MarketTransportAdapter().Connected, func() string {
			return eng.UserStream().State().String()
		})
		if err != nil {
			return fmt.Errorf("start health server: %w", err)
		}
		log.Info(fmt.Sprintf("health server listening on :%d", cfg.Health.Port))
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Info("shutting down")
	if healthServer != nil {
		_ = healthServer.Stop(context.Background())
	}
	return nil
}

func newLoggerFromConfig(cfg *config.Config) logger.Logger {
	level := logger.InfoLevel
	if cfg.Logging != nil {
		switch cfg.Logging.Level {
		case "debug":
			level = logger.DebugLevel
		case "warn":
			level = logger.WarnLevel
		case "error":
			level = logger.ErrorLevel
		}
	}
	return logger.NewLogger(os.Stdout, level)
}

func registerPrintListeners(eng *engine.Engine, log logger.Logger) {
	eng.Market().AddListener(market.Listener{
		OnReady:      func() { log.Info("market stream ready") },
		OnDisconnect: func(reason string) { log.Warn("market stream disconnected: " + reason) },
		OnError:      func(err error) { log.Error("market stream error: " + err.Error()) },
		OnMessage:    func(msg market.Message) { printJSON(log, "market", msg) },
	})

	eng.UserStream().AddListener(userstream.Listener{
		OnReady:      func() { log.Info("user stream ready") },
		OnDisconnect: func(reason string) { log.Warn("user stream disconnected: " + reason) },
		OnError:      func(err error) { log.Error("user stream error: " + err.Error()) },
		OnMessage:    func(e userstream.Entity) { printJSON(log, "user", e) },
	})
}

func printJSON(log logger.Logger, stream string, v interface{}) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error(fmt.Sprintf("%s stream: failed to marshal event: %v", stream, err))
		return
	}
	fmt.Printf("[%s] %s\n", stream, string(b))
}
