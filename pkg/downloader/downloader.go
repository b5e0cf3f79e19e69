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

// Package downloader keeps the services installed on the device in line with
// the installed_services collection of the device in the control plane.
package downloader

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/carverauto/edgesync/pkg/docstore"
	"github.com/carverauto/edgesync/pkg/installed"
	"github.com/carverauto/edgesync/pkg/logger"
	"github.com/carverauto/edgesync/pkg/natsutil"
)

// DefaultRestartDelay is the fixed delay before a triggered restart.
const DefaultRestartDelay = 500 * time.Millisecond

var errNoStore = errors.New("downloader is not started")

// Session is the connection the downloader runs on.
type Session interface {
	Connect(ctx context.Context) error
	Store() (docstore.Store, error)
	Close() error
}

// SessionFactory builds the session with the callbacks of the downloader.
type SessionFactory func(callbacks natsutil.Callbacks) Session

// Config holds the downloader settings.
type Config struct {
	BasePath     string
	UserID       string
	DeviceID     string
	RestartDelay time.Duration
}

// Downloader bootstraps the local services against the control plane and then
// applies the commands it receives through the change feed.
type Downloader struct {
	cfg        Config
	devicePath string
	session    Session
	logger     logger.Logger

	// mu is held exclusively by the bootstrap pass and shared by dispatches.
	mu       sync.RWMutex
	services keyedMutex
	tracked  *TrackedSet

	storeMu sync.RWMutex
	store   docstore.Store

	lifecycle sync.Mutex
	running   bool
	runCtx    context.Context
	feed      *feed

	restartMu    sync.Mutex
	restartTimer *time.Timer
}

// feed is one open subscription and its consumer goroutine.
type feed struct {
	sub      *docstore.Subscription
	done     chan struct{}
	stopping atomic.Bool
}

// New returns a stopped downloader.
func New(cfg Config, newSession SessionFactory, log logger.Logger) *Downloader {
	if log == nil {
		log = logger.NewTestLogger()
	}

	if cfg.RestartDelay <= 0 {
		cfg.RestartDelay = DefaultRestartDelay
	}

	d := &Downloader{
		cfg:        cfg,
		devicePath: installed.DevicePath(cfg.UserID, cfg.DeviceID),
		logger:     log,
		tracked:    NewTrackedSet(),
	}

	d.session = newSession(natsutil.Callbacks{
		OnClientInitialized: func(docstore.Store) {
			d.logger.Debug().Str("device", d.devicePath).Msg("Client initialized")
		},
		OnServerNotResponding: func(err error) {
			d.logger.Warn().Err(err).Msg("Server not responding, scheduling restart")
			d.scheduleRestart()
		},
		OnTokenExpired: func() {
			d.logger.Warn().Msg("Token expired, scheduling restart")
			d.scheduleRestart()
		},
	})

	return d
}

// Tracked exposes the tracked service set.
func (d *Downloader) Tracked() *TrackedSet { return d.tracked }

// DevicePath is the control plane document of the device.
func (d *Downloader) DevicePath() string { return d.devicePath }

func (d *Downloader) currentStore() (docstore.Store, error) {
	d.storeMu.RLock()
	defer d.storeMu.RUnlock()

	if d.store == nil {
		return nil, errNoStore
	}

	return d.store, nil
}

func (d *Downloader) setStore(store docstore.Store) {
	d.storeMu.Lock()
	d.store = store
	d.storeMu.Unlock()
}

// Run starts the downloader and keeps it running until ctx ends. Failed
// starts are retried after the restart delay.
func (d *Downloader) Run(ctx context.Context) error {
	if err := d.Start(ctx); err != nil {
		d.logger.Error().Err(err).Dur("retry_in", d.cfg.RestartDelay).Msg("Failed to start downloader")
		d.scheduleRestart()
	}

	<-ctx.Done()

	d.Stop()

	return nil
}

// Start connects, runs the bootstrap pass and opens the change feed.
func (d *Downloader) Start(ctx context.Context) error {
	d.lifecycle.Lock()
	defer d.lifecycle.Unlock()

	d.running = true
	d.runCtx = ctx

	return d.startLocked(ctx)
}

// Stop closes the change feed, waits for in-flight changes and closes the
// session. It is safe to call when not started.
func (d *Downloader) Stop() {
	d.cancelRestart()

	d.lifecycle.Lock()
	defer d.lifecycle.Unlock()

	d.running = false
	d.stopLocked()
}

// Restart stops and starts again with ctx.
func (d *Downloader) Restart(ctx context.Context) error {
	d.lifecycle.Lock()
	defer d.lifecycle.Unlock()

	d.running = true
	d.runCtx = ctx

	return d.restartLocked(ctx)
}

// restartLocked drops the current feed and session and starts over.
func (d *Downloader) restartLocked(ctx context.Context) error {
	d.logger.Info().Str("device", d.devicePath).Msg("Restarting downloader")

	d.stopLocked()

	return d.startLocked(ctx)
}

func (d *Downloader) startLocked(ctx context.Context) error {
	if d.feed != nil {
		return nil
	}

	if err := d.session.Connect(ctx); err != nil {
		d.closeSession()
		return fmt.Errorf("failed to connect: %w", err)
	}

	store, err := d.session.Store()
	if err != nil {
		d.closeSession()
		return err
	}

	d.setStore(store)

	if err := d.SyncLocalServices(ctx); err != nil {
		d.stopLocked()
		return err
	}

	sub, err := store.Watch(ctx, installed.ServicesCollection(d.devicePath))
	if err != nil {
		d.stopLocked()
		return fmt.Errorf("failed to watch installed services: %w", err)
	}

	d.feed = &feed{sub: sub, done: make(chan struct{})}

	go d.consume(ctx, d.feed)

	d.logger.Info().
		Str("device", d.devicePath).
		Int("tracked", d.tracked.Len()).
		Msg("Downloader started")

	return nil
}

func (d *Downloader) stopLocked() {
	if f := d.feed; f != nil {
		d.feed = nil

		f.stopping.Store(true)
		f.sub.Stop()
		<-f.done

		d.logger.Info().Str("device", d.devicePath).Msg("Downloader stopped")
	}

	d.setStore(nil)
	d.closeSession()
}

func (d *Downloader) closeSession() {
	if err := d.session.Close(); err != nil {
		d.logger.Warn().Err(err).Msg("Failed to close session")
	}
}

// consume hands batches to OnChange one at a time.
func (d *Downloader) consume(ctx context.Context, f *feed) {
	defer close(f.done)

	for batch := range f.sub.Batches() {
		d.OnChange(ctx, batch)
	}

	if !f.stopping.Load() && ctx.Err() == nil {
		d.logger.Warn().Msg("Change feed ended unexpectedly, scheduling restart")
		d.scheduleRestart()
	}
}

// scheduleRestart arms the restart timer unless one is already pending.
func (d *Downloader) scheduleRestart() {
	d.restartMu.Lock()
	defer d.restartMu.Unlock()

	if d.restartTimer != nil {
		return
	}

	d.restartTimer = time.AfterFunc(d.cfg.RestartDelay, d.restartFromTimer)
}

func (d *Downloader) cancelRestart() {
	d.restartMu.Lock()
	defer d.restartMu.Unlock()

	if d.restartTimer != nil {
		d.restartTimer.Stop()
		d.restartTimer = nil
	}
}

func (d *Downloader) restartFromTimer() {
	d.restartMu.Lock()
	d.restartTimer = nil
	d.restartMu.Unlock()

	d.lifecycle.Lock()
	defer d.lifecycle.Unlock()

	if !d.running || d.runCtx == nil || d.runCtx.Err() != nil {
		return
	}

	if err := d.restartLocked(d.runCtx); err != nil {
		d.logger.Error().Err(err).Dur("retry_in", d.cfg.RestartDelay).Msg("Restart failed")
		d.scheduleRestart()
	}
}
