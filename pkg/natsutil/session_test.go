package natsutil

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/edgesync/pkg/docstore"
	"github.com/carverauto/edgesync/pkg/logger"
	"github.com/carverauto/edgesync/pkg/models"
)

const testToken = "s3cr3t"

func runJetStreamServer(t *testing.T) *server.Server {
	t.Helper()

	srv, err := server.NewServer(&server.Options{
		Host:          "127.0.0.1",
		Port:          -1,
		JetStream:     true,
		StoreDir:      t.TempDir(),
		Authorization: testToken,
	})
	require.NoError(t, err)

	go srv.Start()

	if !srv.ReadyForConnections(10 * time.Second) {
		srv.Shutdown()
		t.Fatalf("embedded NATS server not ready for connections")
	}

	require.Eventually(t, func() bool {
		return srv.JetStreamEnabled()
	}, 5*time.Second, 50*time.Millisecond, "embedded NATS server not ready for JetStream")

	return srv
}

func testSessionConfig(url string) Config {
	return Config{
		URL:         url,
		Name:        "edgesync-test",
		Credentials: Credentials{Token: testToken},
		Store: docstore.NATSConfig{
			Bucket:         "edgesync",
			CreateBucket:   true,
			RequestTimeout: 5 * time.Second,
		},
		PingInterval:        100 * time.Millisecond,
		MaxPingsOutstanding: 2,
	}
}

func TestSessionConnectAndClose(t *testing.T) {
	t.Parallel()

	if testing.Short() {
		t.Skip("skipping embedded NATS test in short mode")
	}

	srv := runJetStreamServer(t)
	t.Cleanup(srv.Shutdown)

	var initialized, notResponding atomic.Int32

	sess := NewSession(testSessionConfig(srv.ClientURL()), Callbacks{
		OnClientInitialized:   func(docstore.Store) { initialized.Add(1) },
		OnServerNotResponding: func(error) { notResponding.Add(1) },
	}, logger.NewTestLogger())

	_, err := sess.Store()
	require.ErrorIs(t, err, ErrNotConnected)

	ctx := context.Background()
	require.NoError(t, sess.Connect(ctx))
	require.NoError(t, sess.Connect(ctx))
	assert.Equal(t, int32(1), initialized.Load())

	store, err := sess.Store()
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, "users/u/devices/d/installed_services/web", map[string]any{"status": "started"}))

	require.NoError(t, sess.Close())
	require.NoError(t, sess.Close())

	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, int32(0), notResponding.Load(), "intentional close must not report an outage")

	// A closed session can connect again and sees the same bucket.
	require.NoError(t, sess.Connect(ctx))
	t.Cleanup(func() { _ = sess.Close() })

	store, err = sess.Store()
	require.NoError(t, err)

	snap, err := store.Get(ctx, "users/u/devices/d/installed_services/web")
	require.NoError(t, err)
	assert.True(t, snap.Exists())
}

func TestSessionReportsServerLoss(t *testing.T) {
	t.Parallel()

	if testing.Short() {
		t.Skip("skipping embedded NATS test in short mode")
	}

	srv := runJetStreamServer(t)

	lost := make(chan error, 1)

	sess := NewSession(testSessionConfig(srv.ClientURL()), Callbacks{
		OnServerNotResponding: func(err error) {
			select {
			case lost <- err:
			default:
			}
		},
	}, logger.NewTestLogger())

	require.NoError(t, sess.Connect(context.Background()))
	t.Cleanup(func() { _ = sess.Close() })

	srv.Shutdown()

	select {
	case err := <-lost:
		require.Error(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server loss was not reported")
	}
}

func TestSessionConnectErrors(t *testing.T) {
	t.Parallel()

	if testing.Short() {
		t.Skip("skipping embedded NATS test in short mode")
	}

	srv := runJetStreamServer(t)
	t.Cleanup(srv.Shutdown)

	t.Run("no credentials", func(t *testing.T) {
		cfg := testSessionConfig(srv.ClientURL())
		cfg.Credentials = Credentials{}

		err := NewSession(cfg, Callbacks{}, nil).Connect(context.Background())
		require.ErrorIs(t, err, ErrNoCredentials)
	})

	t.Run("wrong token", func(t *testing.T) {
		cfg := testSessionConfig(srv.ClientURL())
		cfg.Credentials = Credentials{Token: "nope"}

		err := NewSession(cfg, Callbacks{}, nil).Connect(context.Background())
		require.Error(t, err)
	})

	t.Run("missing bucket", func(t *testing.T) {
		cfg := testSessionConfig(srv.ClientURL())
		cfg.Store.Bucket = "absent"
		cfg.Store.CreateBucket = false

		sess := NewSession(cfg, Callbacks{}, nil)
		require.Error(t, sess.Connect(context.Background()))

		_, err := sess.Store()
		require.ErrorIs(t, err, ErrNotConnected)
	})

	t.Run("canceled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := NewSession(testSessionConfig(srv.ClientURL()), Callbacks{}, nil).Connect(ctx)
		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestTokenExpiryCallback(t *testing.T) {
	t.Parallel()

	var expired atomic.Int32

	sess := NewSession(Config{}, Callbacks{OnTokenExpired: func() { expired.Add(1) }}, nil)
	lc := &liveConn{runID: "test"}

	sess.tokenExpired(lc)
	assert.Equal(t, int32(1), expired.Load())

	lc.closing.Store(true)
	sess.tokenExpired(lc)
	assert.Equal(t, int32(1), expired.Load())
}

func TestDisconnectedReportsOnce(t *testing.T) {
	t.Parallel()

	var reports []error

	sess := NewSession(Config{}, Callbacks{OnServerNotResponding: func(err error) { reports = append(reports, err) }}, nil)

	lc := &liveConn{runID: "test"}
	sess.disconnected(lc, nil, nil)
	sess.disconnected(lc, nil, assert.AnError)
	require.Len(t, reports, 1)
	require.ErrorIs(t, reports[0], errConnectionLost)

	closed := &liveConn{runID: "closed"}
	closed.closing.Store(true)
	sess.disconnected(closed, nil, assert.AnError)
	require.Len(t, reports, 1)
}

func TestTLSConfigRequiresMTLS(t *testing.T) {
	t.Parallel()

	_, err := TLSConfig(nil)
	require.ErrorIs(t, err, ErrMTLSRequired)

	_, err = TLSConfig(&models.SecurityConfig{Mode: models.SecurityModeNone})
	require.ErrorIs(t, err, ErrMTLSRequired)

	_, err = TLSConfig(&models.SecurityConfig{
		Mode: models.SecurityModeMTLS,
		TLS:  models.TLSConfig{CertFile: "/missing/cert.pem", KeyFile: "/missing/key.pem"},
	})
	require.Error(t, err)
}
