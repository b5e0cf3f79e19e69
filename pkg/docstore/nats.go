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

package docstore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/carverauto/edgesync/pkg/logger"
)

const maxUpdateAttempts = 5

// NATSConfig configures a NATSStore.
type NATSConfig struct {
	Bucket         string
	CreateBucket   bool
	RequestTimeout time.Duration
	WatchBuffer    int
}

// NATSStore keeps documents as JSON values in a JetStream key-value bucket.
type NATSStore struct {
	kv     jetstream.KeyValue
	cfg    NATSConfig
	logger logger.Logger
	mu     sync.Mutex
	subs   map[*Subscription]struct{}
	closed bool
}

// NewNATSStore binds to the configured bucket, creating it when allowed.
func NewNATSStore(ctx context.Context, js jetstream.JetStream, cfg NATSConfig, log logger.Logger) (*NATSStore, error) {
	if log == nil {
		log = logger.NewTestLogger()
	}

	kv, err := js.KeyValue(ctx, cfg.Bucket)
	if errors.Is(err, jetstream.ErrBucketNotFound) && cfg.CreateBucket {
		log.Info().Str("bucket", cfg.Bucket).Msg("Creating document bucket")

		kv, err = js.CreateKeyValue(ctx, jetstream.KeyValueConfig{Bucket: cfg.Bucket})
	}

	if err != nil {
		return nil, fmt.Errorf("failed to bind KV bucket %s: %w", cfg.Bucket, err)
	}

	return newNATSStore(kv, cfg, log), nil
}

func newNATSStore(kv jetstream.KeyValue, cfg NATSConfig, log logger.Logger) *NATSStore {
	return &NATSStore{
		kv:     kv,
		cfg:    cfg,
		logger: log,
		subs:   make(map[*Subscription]struct{}),
	}
}

func (n *NATSStore) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if n.cfg.RequestTimeout <= 0 {
		return ctx, func() {}
	}

	return context.WithTimeout(ctx, n.cfg.RequestTimeout)
}

func (n *NATSStore) isClosed() bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	return n.closed
}

func (n *NATSStore) Get(ctx context.Context, docPath string) (Snapshot, error) {
	key, err := DocumentKey(docPath)
	if err != nil {
		return Snapshot{}, err
	}

	if n.isClosed() {
		return Snapshot{}, ErrClosed
	}

	ctx, cancel := n.requestContext(ctx)
	defer cancel()

	entry, err := n.kv.Get(ctx, key)
	if errors.Is(err, jetstream.ErrKeyNotFound) {
		return Snapshot{Path: docPath}, nil
	}

	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to get %s: %w", docPath, err)
	}

	return Snapshot{Path: docPath, Data: entry.Value(), Revision: entry.Revision()}, nil
}

func (n *NATSStore) Set(ctx context.Context, docPath string, doc any) error {
	key, err := DocumentKey(docPath)
	if err != nil {
		return err
	}

	data, err := encodeDocument(doc)
	if err != nil {
		return err
	}

	if n.isClosed() {
		return ErrClosed
	}

	ctx, cancel := n.requestContext(ctx)
	defer cancel()

	if _, err := n.kv.Put(ctx, key, data); err != nil {
		return fmt.Errorf("failed to put %s: %w", docPath, err)
	}

	return nil
}

// Update does a revision checked read-modify-write, retrying when another
// writer got in between.
func (n *NATSStore) Update(ctx context.Context, docPath string, fields map[string]any) error {
	key, err := DocumentKey(docPath)
	if err != nil {
		return err
	}

	if n.isClosed() {
		return ErrClosed
	}

	ctx, cancel := n.requestContext(ctx)
	defer cancel()

	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		entry, err := n.kv.Get(ctx, key)
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return fmt.Errorf("%w: %s", ErrNotFound, docPath)
		}

		if err != nil {
			return fmt.Errorf("failed to get %s: %w", docPath, err)
		}

		data, err := mergeFields(entry.Value(), fields)
		if err != nil {
			return err
		}

		_, err = n.kv.Update(ctx, key, data, entry.Revision())
		if err == nil {
			return nil
		}

		if !errors.Is(err, jetstream.ErrKeyExists) {
			return fmt.Errorf("failed to update %s: %w", docPath, err)
		}

		n.logger.Debug().Str("path", docPath).Int("attempt", attempt+1).Msg("Revision changed during update, retrying")
	}

	return fmt.Errorf("%w: %s", ErrConflict, docPath)
}

func (n *NATSStore) Delete(ctx context.Context, docPath string) error {
	key, err := DocumentKey(docPath)
	if err != nil {
		return err
	}

	if n.isClosed() {
		return ErrClosed
	}

	ctx, cancel := n.requestContext(ctx)
	defer cancel()

	err = n.kv.Delete(ctx, key)
	if err != nil && !errors.Is(err, jetstream.ErrKeyNotFound) {
		return fmt.Errorf("failed to delete %s: %w", docPath, err)
	}

	return nil
}

// Watch follows the keys directly under collection. The initial values are
// delivered as one batch of added changes; every later entry is its own batch.
func (n *NATSStore) Watch(ctx context.Context, collection string) (*Subscription, error) {
	prefix, err := CollectionKey(collection)
	if err != nil {
		return nil, err
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return nil, ErrClosed
	}

	sub, subCtx := newSubscription(ctx, n.cfg.WatchBuffer)

	watcher, err := n.kv.Watch(subCtx, prefix+keySeparator+"*")
	if err != nil {
		sub.cancel()
		return nil, fmt.Errorf("failed to watch %s: %w", collection, err)
	}

	n.subs[sub] = struct{}{}

	go n.handleWatchUpdates(subCtx, collection, prefix, watcher, sub)

	return sub, nil
}

// handleWatchUpdates converts watcher entries into batches until the
// subscription context ends or the watcher closes.
func (n *NATSStore) handleWatchUpdates(
	ctx context.Context, collection, prefix string, watcher jetstream.KeyWatcher, sub *Subscription) {
	defer func() {
		if err := watcher.Stop(); err != nil {
			n.logger.Debug().Err(err).Str("collection", collection).Msg("Failed to stop watcher")
		}

		n.mu.Lock()
		delete(n.subs, sub)
		n.mu.Unlock()

		sub.finish()
	}()

	live := make(map[string]struct{})
	initial := make(Batch, 0)
	replaying := true

	for {
		var entry jetstream.KeyValueEntry

		select {
		case <-ctx.Done():
			return
		case update, ok := <-watcher.Updates():
			if !ok {
				n.logger.Warn().Str("collection", collection).Msg("Watcher closed")
				return
			}

			entry = update
		}

		// nil marks the end of the initial values.
		if entry == nil {
			replaying = false

			if len(initial) > 0 && !sub.send(ctx, initial) {
				return
			}

			initial = nil

			continue
		}

		change, ok := n.changeFor(collection, prefix, entry, live)
		if !ok {
			continue
		}

		if replaying {
			if change.Kind != ChangeRemoved {
				change.Kind = ChangeAdded
				initial = append(initial, change)
			}

			continue
		}

		if !sub.send(ctx, Batch{change}) {
			return
		}
	}
}

func (n *NATSStore) changeFor(collection, prefix string, entry jetstream.KeyValueEntry, live map[string]struct{}) (Change, bool) {
	id, ok := childID(prefix, entry.Key())
	if !ok {
		return Change{}, false
	}

	snap := Snapshot{Path: Join(collection, id), Revision: entry.Revision()}

	switch entry.Operation() {
	case jetstream.KeyValueDelete, jetstream.KeyValuePurge:
		delete(live, id)

		return Change{Kind: ChangeRemoved, Snapshot: snap}, true
	case jetstream.KeyValuePut:
	}

	snap.Data = entry.Value()
	if snap.Data == nil {
		snap.Data = []byte{}
	}

	kind := ChangeAdded
	if _, seen := live[id]; seen {
		kind = ChangeModified
	}

	live[id] = struct{}{}

	return Change{Kind: kind, Snapshot: snap}, true
}

// Close stops every open subscription. The underlying connection is owned by
// the caller.
func (n *NATSStore) Close() error {
	n.mu.Lock()
	n.closed = true

	subs := make([]*Subscription, 0, len(n.subs))
	for sub := range n.subs {
		subs = append(subs, sub)
	}
	n.mu.Unlock()

	for _, sub := range subs {
		sub.Stop()
	}

	return nil
}

var _ Store = (*NATSStore)(nil)
