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
	"sync"
)

// DefaultWatchBuffer is the number of batches a subscription holds before
// the producer blocks.
const DefaultWatchBuffer = 16

// Subscription is a live change feed. Batches are delivered in order on a
// single channel that is closed once the feed ends.
type Subscription struct {
	batches chan Batch
	cancel  context.CancelFunc
	done    chan struct{}
	once    sync.Once
}

func newSubscription(ctx context.Context, buffer int) (*Subscription, context.Context) {
	if buffer <= 0 {
		buffer = DefaultWatchBuffer
	}

	ctx, cancel := context.WithCancel(ctx)

	return &Subscription{
		batches: make(chan Batch, buffer),
		cancel:  cancel,
		done:    make(chan struct{}),
	}, ctx
}

// Batches returns the channel of change batches.
func (s *Subscription) Batches() <-chan Batch {
	return s.batches
}

// Done is closed when the producer has exited.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// Stop ends the feed and waits for the producer to exit. It is safe to call
// more than once.
func (s *Subscription) Stop() {
	s.once.Do(s.cancel)
	<-s.done
}

// send delivers b unless ctx ends first.
func (s *Subscription) send(ctx context.Context, b Batch) bool {
	select {
	case s.batches <- b:
		return true
	case <-ctx.Done():
		return false
	}
}

// finish is called by the producer goroutine on exit.
func (s *Subscription) finish() {
	close(s.batches)
	close(s.done)
}
