package docstore

import (
	"context"
	"testing"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/edgesync/pkg/logger"
)

func runJetStreamServer(t *testing.T) *server.Server {
	t.Helper()

	srv, err := server.NewServer(&server.Options{
		Host:      "127.0.0.1",
		Port:      -1,
		JetStream: true,
		StoreDir:  t.TempDir(),
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

	t.Cleanup(srv.Shutdown)

	return srv
}

func newTestNATSStore(t *testing.T, ctx context.Context) (*NATSStore, jetstream.KeyValue) {
	t.Helper()

	srv := runJetStreamServer(t)

	nc, err := nats.Connect(srv.ClientURL())
	require.NoError(t, err)
	t.Cleanup(nc.Close)

	js, err := jetstream.New(nc)
	require.NoError(t, err)

	_, err = NewNATSStore(ctx, js, NATSConfig{Bucket: "edgesync"}, logger.NewTestLogger())
	require.ErrorIs(t, err, jetstream.ErrBucketNotFound)

	store, err := NewNATSStore(ctx, js, NATSConfig{
		Bucket:         "edgesync",
		CreateBucket:   true,
		RequestTimeout: 5 * time.Second,
		WatchBuffer:    8,
	}, logger.NewTestLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	kv, err := js.KeyValue(ctx, "edgesync")
	require.NoError(t, err)

	return store, kv
}

func TestNATSStoreDocuments(t *testing.T) {
	t.Parallel()

	if testing.Short() {
		t.Skip("skipping embedded NATS test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, kv := newTestNATSStore(t, ctx)
	docPath := Join(testCollection, "web")

	snap, err := store.Get(ctx, docPath)
	require.NoError(t, err)
	assert.False(t, snap.Exists())

	require.ErrorIs(t, store.Update(ctx, docPath, map[string]any{"status": "x"}), ErrNotFound)

	require.NoError(t, store.Set(ctx, docPath, map[string]any{"version": "1.0", "status": "started"}))

	entry, err := kv.Get(ctx, "users.u.devices.d.installed_services.web")
	require.NoError(t, err)
	assert.JSONEq(t, `{"version":"1.0","status":"started"}`, string(entry.Value()))

	require.NoError(t, store.Update(ctx, docPath, map[string]any{"status": "downloaded"}))

	snap, err = store.Get(ctx, docPath)
	require.NoError(t, err)
	assert.JSONEq(t, `{"version":"1.0","status":"downloaded"}`, string(snap.Data))
	assert.Greater(t, snap.Revision, entry.Revision())

	require.NoError(t, store.Set(ctx, "services/web/versions/1.0", map[string]any{"compose": map[string]any{}}))

	snap, err = store.Get(ctx, "services/web/versions/1.0")
	require.NoError(t, err)
	assert.True(t, snap.Exists())

	require.NoError(t, store.Delete(ctx, docPath))
	require.NoError(t, store.Delete(ctx, docPath))

	snap, err = store.Get(ctx, docPath)
	require.NoError(t, err)
	assert.False(t, snap.Exists())

	require.NoError(t, store.Close())

	_, err = store.Get(ctx, docPath)
	require.ErrorIs(t, err, ErrClosed)
}

func TestNATSStoreWatch(t *testing.T) {
	t.Parallel()

	if testing.Short() {
		t.Skip("skipping embedded NATS test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, _ := newTestNATSStore(t, ctx)

	require.NoError(t, store.Set(ctx, Join(testCollection, "a"), map[string]any{"status": "started"}))
	require.NoError(t, store.Set(ctx, Join(testCollection, "b"), map[string]any{"status": "started"}))
	require.NoError(t, store.Set(ctx, Join(testCollection, "gone"), map[string]any{"status": "started"}))
	require.NoError(t, store.Delete(ctx, Join(testCollection, "gone")))
	require.NoError(t, store.Set(ctx, "users/u/devices/other/installed_services/c", map[string]any{}))

	sub, err := store.Watch(ctx, testCollection)
	require.NoError(t, err)

	initial := nextBatch(t, sub)
	require.Len(t, initial, 2)

	ids := []string{initial[0].Snapshot.ID(), initial[1].Snapshot.ID()}
	assert.ElementsMatch(t, []string{"a", "b"}, ids)

	for _, c := range initial {
		assert.Equal(t, ChangeAdded, c.Kind)
	}

	require.NoError(t, store.Update(ctx, Join(testCollection, "a"), map[string]any{"status": "to-be-updated"}))

	b := nextBatch(t, sub)
	require.Len(t, b, 1)
	assert.Equal(t, ChangeModified, b[0].Kind)
	assert.JSONEq(t, `{"status":"to-be-updated"}`, string(b[0].Snapshot.Data))

	require.NoError(t, store.Delete(ctx, Join(testCollection, "a")))

	b = nextBatch(t, sub)
	require.Len(t, b, 1)
	assert.Equal(t, ChangeRemoved, b[0].Kind)
	assert.False(t, b[0].Snapshot.Exists())

	require.NoError(t, store.Set(ctx, Join(testCollection, "a"), map[string]any{"status": "to-be-installed"}))

	b = nextBatch(t, sub)
	require.Len(t, b, 1)
	assert.Equal(t, ChangeAdded, b[0].Kind)

	sub.Stop()

	_, ok := <-sub.Batches()
	assert.False(t, ok)
}

func TestNATSStoreUpdateConflictRetries(t *testing.T) {
	t.Parallel()

	if testing.Short() {
		t.Skip("skipping embedded NATS test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, _ := newTestNATSStore(t, ctx)
	docPath := Join(testCollection, "web")

	require.NoError(t, store.Set(ctx, docPath, map[string]any{"version": "1", "status": "started", "n": 0}))

	done := make(chan error, 4)

	for i := 0; i < 4; i++ {
		go func() {
			done <- store.Update(ctx, docPath, map[string]any{"status": "downloaded"})
		}()
	}

	for i := 0; i < 4; i++ {
		require.NoError(t, <-done)
	}

	snap, err := store.Get(ctx, docPath)
	require.NoError(t, err)
	assert.JSONEq(t, `{"version":"1","status":"downloaded","n":0}`, string(snap.Data))
}
