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

import "errors"

var (
	// ErrNotFound is returned by Update when the document does not exist.
	ErrNotFound = errors.New("document not found")
	// ErrInvalidPath is returned for document or collection paths that cannot be mapped to a key.
	ErrInvalidPath = errors.New("invalid document path")
	// ErrClosed is returned by a store after Close.
	ErrClosed = errors.New("store is closed")
	// ErrConflict is returned when a field update keeps losing a revision race.
	ErrConflict = errors.New("document update conflict")

	errInvalidDocument = errors.New("document is not a JSON object")
)
