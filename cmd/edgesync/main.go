/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package main runs the edgesync agent on an edge device.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/carverauto/edgesync/pkg/config"
	"github.com/carverauto/edgesync/pkg/docstore"
	"github.com/carverauto/edgesync/pkg/downloader"
	"github.com/carverauto/edgesync/pkg/lifecycle"
	"github.com/carverauto/edgesync/pkg/logger"
	"github.com/carverauto/edgesync/pkg/natsutil"
	"github.com/carverauto/edgesync/pkg/version"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	configPath := flag.String("config", "/etc/edgesync/edgesync.json", "Path to config file")
	showVersion := flag.Bool("version", false, "Print the version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.Full())

		return nil
	}

	ctx := context.Background()

	cfg := config.DefaultAgentConfig()

	cfgLoader := config.NewConfig(nil)
	if err := cfgLoader.LoadAndValidate(ctx, *configPath, &cfg); err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logConfig := cfg.Logging
	if logConfig == nil {
		logConfig = &logger.Config{
			Level:  "info",
			Output: "stdout",
		}
	}

	agentLogger, err := lifecycle.CreateComponentLogger("edgesync", logConfig)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	agentLogger.Info().
		Str("device_id", cfg.DeviceID).
		Str("user_id", cfg.UserID).
		Str("base_path", cfg.BasePath).
		Str("nats_url", cfg.NATS.URL).
		Str("version", version.Full()).
		Msg("Starting edgesync agent")

	d := downloader.New(downloader.Config{
		BasePath:     cfg.BasePath,
		UserID:       cfg.UserID,
		DeviceID:     cfg.DeviceID,
		RestartDelay: cfg.RestartDelay.Duration(),
	}, sessionFactory(&cfg, agentLogger), agentLogger)

	return lifecycle.RunUntilSignal(ctx, agentLogger, d)
}

func sessionFactory(cfg *config.AgentConfig, log logger.Logger) downloader.SessionFactory {
	sessionCfg := natsutil.Config{
		URL:  cfg.NATS.URL,
		Name: "edgesync-" + cfg.DeviceID,
		Credentials: natsutil.Credentials{
			CredsFile: cfg.NATS.CredsFile,
			JWT:       cfg.NATS.JWT,
			Seed:      cfg.NATS.Seed,
			Token:     cfg.NATS.Token,
		},
		Security: cfg.NATS.Security,
		Store: docstore.NATSConfig{
			Bucket:         cfg.NATS.Bucket,
			CreateBucket:   cfg.NATS.CreateBucket,
			RequestTimeout: cfg.NATS.RequestTimeout.Duration(),
			WatchBuffer:    cfg.WatchBuffer,
		},
		PingInterval:        cfg.NATS.PingInterval.Duration(),
		MaxPingsOutstanding: cfg.NATS.MaxPingsOutstanding,
	}

	return func(callbacks natsutil.Callbacks) downloader.Session {
		return natsutil.NewSession(sessionCfg, callbacks, log)
	}
}
