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

package downloader

import (
	"sort"
	"sync"
)

// TrackedSet is the set of service names the agent considers installed. It
// is rebuilt from the base path on every bootstrap pass.
type TrackedSet struct {
	mu    sync.Mutex
	names map[string]struct{}
}

func NewTrackedSet() *TrackedSet {
	return &TrackedSet{names: make(map[string]struct{})}
}

func (t *TrackedSet) Add(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.names[name] = struct{}{}
}

func (t *TrackedSet) Remove(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.names, name)
}

func (t *TrackedSet) Contains(name string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	_, ok := t.names[name]

	return ok
}

// Reset replaces the contents with names.
func (t *TrackedSet) Reset(names []string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.names = make(map[string]struct{}, len(names))
	for _, name := range names {
		t.names[name] = struct{}{}
	}
}

// Names returns the tracked names sorted.
func (t *TrackedSet) Names() []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]string, 0, len(t.names))
	for name := range t.names {
		out = append(out, name)
	}

	sort.Strings(out)

	return out
}

func (t *TrackedSet) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return len(t.names)
}
