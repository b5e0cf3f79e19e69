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

// Package docstore provides a document store with collection change feeds.
//
// Documents are JSON objects addressed by slash separated paths such as
// users/{user}/devices/{device}/installed_services/{service}. A collection is
// the path of a document parent, and watching it yields batches of changes to
// its direct children.
package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
)

// Store is a document store with a per-collection change feed.
type Store interface {
	// Get returns the snapshot at docPath. A missing document yields a
	// snapshot whose Exists reports false and a nil error.
	Get(ctx context.Context, docPath string) (Snapshot, error)
	// Set creates or overwrites the document with the JSON encoding of doc.
	Set(ctx context.Context, docPath string, doc any) error
	// Update replaces the named top-level fields of an existing document.
	Update(ctx context.Context, docPath string, fields map[string]any) error
	// Delete removes the document. Deleting a missing document is not an error.
	Delete(ctx context.Context, docPath string) error
	// Watch streams changes to the documents directly under collection.
	Watch(ctx context.Context, collection string) (*Subscription, error)
}

// Snapshot is a point in time read of one document.
type Snapshot struct {
	Path     string
	Data     json.RawMessage
	Revision uint64
}

// Exists reports whether the document existed when the snapshot was taken.
func (s Snapshot) Exists() bool {
	return s.Data != nil
}

// ID is the last segment of the document path.
func (s Snapshot) ID() string {
	return path.Base(s.Path)
}

// Decode unmarshals the document into v.
func (s Snapshot) Decode(v any) error {
	if !s.Exists() {
		return fmt.Errorf("%w: %s", ErrNotFound, s.Path)
	}

	return json.Unmarshal(s.Data, v)
}

// ChangeKind describes what happened to a document in a change feed.
type ChangeKind string

const (
	ChangeAdded    ChangeKind = "added"
	ChangeModified ChangeKind = "modified"
	ChangeRemoved  ChangeKind = "removed"
)

// Change is one document change. For removals the snapshot carries the path
// and no data.
type Change struct {
	Kind     ChangeKind
	Snapshot Snapshot
}

// Batch is a group of changes delivered together, in order.
type Batch []Change

// mergeFields overwrites top-level fields of the JSON object doc.
// Untouched fields keep their raw encoding.
func mergeFields(doc []byte, fields map[string]any) ([]byte, error) {
	obj := make(map[string]json.RawMessage)
	if err := json.Unmarshal(doc, &obj); err != nil {
		return nil, fmt.Errorf("%w: %w", errInvalidDocument, err)
	}

	for name, value := range fields {
		raw, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("failed to encode field %q: %w", name, err)
		}

		obj[name] = raw
	}

	return json.Marshal(obj)
}

func encodeDocument(doc any) ([]byte, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}

	if len(data) == 0 || data[0] != '{' {
		return nil, errInvalidDocument
	}

	return data, nil
}
