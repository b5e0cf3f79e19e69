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

package natsutil

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/carverauto/edgesync/pkg/docstore"
	"github.com/carverauto/edgesync/pkg/logger"
	"github.com/carverauto/edgesync/pkg/models"
)

var (
	// ErrNotConnected is returned when the session has no live connection.
	ErrNotConnected = errors.New("session is not connected")

	errConnectionLost = errors.New("connection to NATS server lost")
)

// Callbacks are invoked by the session on connection events. Nil fields are skipped.
type Callbacks struct {
	// OnClientInitialized runs after a successful Connect with the live store.
	OnClientInitialized func(store docstore.Store)
	// OnServerNotResponding runs when the connection drops unexpectedly.
	OnServerNotResponding func(err error)
	// OnTokenExpired runs when the user JWT expires or the server reports it expired.
	OnTokenExpired func()
}

// Config holds the connection settings of a Session.
type Config struct {
	URL                 string
	Name                string
	Credentials         Credentials
	Security            *models.SecurityConfig
	Store               docstore.NATSConfig
	PingInterval        time.Duration
	MaxPingsOutstanding int
}

// Session is one NATS connection at a time plus the document store bound to it.
// Connect may be called again after Close.
type Session struct {
	cfg       Config
	callbacks Callbacks
	logger    logger.Logger

	mu   sync.Mutex
	conn *liveConn
}

type liveConn struct {
	nc      *nats.Conn
	store   *docstore.NATSStore
	expiry  *time.Timer
	closing atomic.Bool
	lost    atomic.Bool
	runID   string
}

// NewSession returns a disconnected session.
func NewSession(cfg Config, callbacks Callbacks, log logger.Logger) *Session {
	if log == nil {
		log = logger.NewTestLogger()
	}

	return &Session{cfg: cfg, callbacks: callbacks, logger: log}
}

// Connect dials the server, binds the document bucket and arms the token
// expiry timer. It is a no-op when already connected.
func (s *Session) Connect(ctx context.Context) error {
	store, err := s.connect(ctx)
	if err != nil || store == nil {
		return err
	}

	if s.callbacks.OnClientInitialized != nil {
		s.callbacks.OnClientInitialized(store)
	}

	return nil
}

// connect returns a nil store when the session was already connected.
func (s *Session) connect(ctx context.Context) (*docstore.NATSStore, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn != nil {
		return nil, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	auth, err := s.cfg.Credentials.resolve()
	if err != nil {
		return nil, err
	}

	lc := &liveConn{runID: uuid.NewString()}

	opts, err := s.options(lc, auth)
	if err != nil {
		return nil, err
	}

	nc, err := nats.Connect(s.cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		lc.closing.Store(true)
		nc.Close()

		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	store, err := docstore.NewNATSStore(ctx, js, s.cfg.Store, s.logger)
	if err != nil {
		lc.closing.Store(true)
		nc.Close()

		return nil, err
	}

	lc.nc = nc
	lc.store = store

	if !auth.expiresAt.IsZero() {
		lc.expiry = time.AfterFunc(time.Until(auth.expiresAt), func() {
			s.tokenExpired(lc)
		})
	}

	s.conn = lc

	event := s.logger.Info().
		Str("url", nc.ConnectedUrlRedacted()).
		Str("bucket", s.cfg.Store.Bucket).
		Str("run_id", lc.runID)

	if auth.userKey != "" {
		event = event.Str("user_key", auth.userKey)
	}

	if !auth.expiresAt.IsZero() {
		event = event.Time("expires_at", auth.expiresAt)
	}

	event.Msg("Connected to NATS")

	return store, nil
}

func (s *Session) options(lc *liveConn, auth *authInfo) ([]nats.Option, error) {
	name := s.cfg.Name
	if name == "" {
		name = "edgesync"
	}

	opts := []nats.Option{
		auth.option,
		nats.Name(name + "/" + lc.runID),
		// Reconnection is left to the owner of the session.
		nats.NoReconnect(),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			s.disconnected(lc, nc, err)
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			s.disconnected(lc, nc, nil)
		}),
		nats.ErrorHandler(func(_ *nats.Conn, _ *nats.Subscription, err error) {
			if errors.Is(err, nats.ErrAuthExpired) {
				s.tokenExpired(lc)
				return
			}

			s.logger.Warn().Err(err).Str("run_id", lc.runID).Msg("NATS async error")
		}),
	}

	if s.cfg.PingInterval > 0 {
		opts = append(opts, nats.PingInterval(s.cfg.PingInterval))
	}

	if s.cfg.MaxPingsOutstanding > 0 {
		opts = append(opts, nats.MaxPingsOutstanding(s.cfg.MaxPingsOutstanding))
	}

	if s.cfg.Store.RequestTimeout > 0 {
		opts = append(opts, nats.Timeout(s.cfg.Store.RequestTimeout))
	}

	if s.cfg.Security != nil && s.cfg.Security.Mode == models.SecurityModeMTLS {
		tlsConf, err := TLSConfig(s.cfg.Security)
		if err != nil {
			return nil, err
		}

		opts = append(opts, nats.Secure(tlsConf))
	}

	return opts, nil
}

// disconnected reports the first unexpected loss of lc. Events caused by
// Close are ignored.
func (s *Session) disconnected(lc *liveConn, nc *nats.Conn, err error) {
	if lc.closing.Load() || !lc.lost.CompareAndSwap(false, true) {
		return
	}

	if err == nil && nc != nil {
		err = nc.LastError()
	}

	if err == nil {
		err = errConnectionLost
	}

	s.logger.Warn().Err(err).Str("run_id", lc.runID).Msg("NATS server not responding")

	if s.callbacks.OnServerNotResponding != nil {
		s.callbacks.OnServerNotResponding(err)
	}
}

func (s *Session) tokenExpired(lc *liveConn) {
	if lc.closing.Load() {
		return
	}

	s.logger.Warn().Str("run_id", lc.runID).Msg("NATS user token expired")

	if s.callbacks.OnTokenExpired != nil {
		s.callbacks.OnTokenExpired()
	}
}

// Store returns the document store of the live connection.
func (s *Session) Store() (docstore.Store, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		return nil, ErrNotConnected
	}

	return s.conn.store, nil
}

// Close drops the connection. Callbacks are not invoked for it. Closing a
// disconnected session is a no-op.
func (s *Session) Close() error {
	s.mu.Lock()
	lc := s.conn
	s.conn = nil
	s.mu.Unlock()

	if lc == nil {
		return nil
	}

	lc.closing.Store(true)

	if lc.expiry != nil {
		lc.expiry.Stop()
	}

	if err := lc.store.Close(); err != nil {
		s.logger.Debug().Err(err).Msg("Failed to close document store")
	}

	lc.nc.Close()

	s.logger.Info().Str("run_id", lc.runID).Msg("Closed NATS connection")

	return nil
}
