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
	"fmt"
	"sort"
	"sync"
)

type memoryDoc struct {
	data     []byte
	revision uint64
}

// MemoryStore is an in-process Store. It backs tests and local development.
type MemoryStore struct {
	mu       sync.Mutex
	docs     map[string]memoryDoc
	revision uint64
	watchers map[*memoryWatcher]struct{}
	buffer   int
	closed   bool
}

type memoryWatcher struct {
	prefix string
	mu     sync.Mutex
	queue  []Batch
	signal chan struct{}
}

// NewMemoryStore returns an empty store whose subscriptions buffer up to
// watchBuffer batches.
func NewMemoryStore(watchBuffer int) *MemoryStore {
	return &MemoryStore{
		docs:     make(map[string]memoryDoc),
		watchers: make(map[*memoryWatcher]struct{}),
		buffer:   watchBuffer,
	}
}

func (m *MemoryStore) Get(_ context.Context, docPath string) (Snapshot, error) {
	key, err := DocumentKey(docPath)
	if err != nil {
		return Snapshot{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return Snapshot{}, ErrClosed
	}

	doc, ok := m.docs[key]
	if !ok {
		return Snapshot{Path: docPath}, nil
	}

	return Snapshot{Path: docPath, Data: cloneBytes(doc.data), Revision: doc.revision}, nil
}

func (m *MemoryStore) Set(_ context.Context, docPath string, doc any) error {
	key, err := DocumentKey(docPath)
	if err != nil {
		return err
	}

	data, err := encodeDocument(doc)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}

	m.putLocked(docPath, key, data)

	return nil
}

func (m *MemoryStore) Update(_ context.Context, docPath string, fields map[string]any) error {
	key, err := DocumentKey(docPath)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}

	doc, ok := m.docs[key]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, docPath)
	}

	data, err := mergeFields(doc.data, fields)
	if err != nil {
		return err
	}

	m.putLocked(docPath, key, data)

	return nil
}

func (m *MemoryStore) Delete(_ context.Context, docPath string) error {
	key, err := DocumentKey(docPath)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}

	if _, ok := m.docs[key]; !ok {
		return nil
	}

	delete(m.docs, key)
	m.revision++
	m.notifyLocked(key, Change{Kind: ChangeRemoved, Snapshot: Snapshot{Path: docPath, Revision: m.revision}})

	return nil
}

// Watch delivers the current children of collection as one batch of added
// changes, then one batch per later change.
func (m *MemoryStore) Watch(ctx context.Context, collection string) (*Subscription, error) {
	prefix, err := CollectionKey(collection)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()

	if m.closed {
		m.mu.Unlock()
		return nil, ErrClosed
	}

	w := &memoryWatcher{prefix: prefix, signal: make(chan struct{}, 1)}

	initial := make(Batch, 0)
	keys := make([]string, 0, len(m.docs))

	for key := range m.docs {
		if _, ok := childID(prefix, key); ok {
			keys = append(keys, key)
		}
	}

	sort.Strings(keys)

	for _, key := range keys {
		id, _ := childID(prefix, key)
		doc := m.docs[key]
		initial = append(initial, Change{
			Kind:     ChangeAdded,
			Snapshot: Snapshot{Path: Join(collection, id), Data: cloneBytes(doc.data), Revision: doc.revision},
		})
	}

	if len(initial) > 0 {
		w.push(initial)
	}

	m.watchers[w] = struct{}{}
	m.mu.Unlock()

	sub, subCtx := newSubscription(ctx, m.buffer)

	go m.pump(subCtx, sub, w)

	return sub, nil
}

// Close ends every subscription and rejects further calls.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true

	for w := range m.watchers {
		delete(m.watchers, w)
		close(w.signal)
	}

	return nil
}

func (m *MemoryStore) pump(ctx context.Context, sub *Subscription, w *memoryWatcher) {
	defer sub.finish()
	defer m.removeWatcher(w)

	for {
		for _, b := range w.drain() {
			if !sub.send(ctx, b) {
				return
			}
		}

		select {
		case <-ctx.Done():
			return
		case _, ok := <-w.signal:
			if !ok {
				for _, b := range w.drain() {
					if !sub.send(ctx, b) {
						return
					}
				}

				return
			}
		}
	}
}

func (m *MemoryStore) removeWatcher(w *memoryWatcher) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.watchers[w]; ok {
		delete(m.watchers, w)
		close(w.signal)
	}
}

func (m *MemoryStore) putLocked(docPath, key string, data []byte) {
	_, existed := m.docs[key]

	m.revision++
	m.docs[key] = memoryDoc{data: data, revision: m.revision}

	kind := ChangeAdded
	if existed {
		kind = ChangeModified
	}

	m.notifyLocked(key, Change{
		Kind:     kind,
		Snapshot: Snapshot{Path: docPath, Data: cloneBytes(data), Revision: m.revision},
	})
}

func (m *MemoryStore) notifyLocked(key string, change Change) {
	for w := range m.watchers {
		if _, ok := childID(w.prefix, key); ok {
			w.push(Batch{change})
		}
	}
}

func (w *memoryWatcher) push(b Batch) {
	w.mu.Lock()
	w.queue = append(w.queue, b)
	w.mu.Unlock()

	select {
	case w.signal <- struct{}{}:
	default:
	}
}

func (w *memoryWatcher) drain() []Batch {
	w.mu.Lock()
	defer w.mu.Unlock()

	out := w.queue
	w.queue = nil

	return out
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}

	return append([]byte(nil), b...)
}

var _ Store = (*MemoryStore)(nil)
