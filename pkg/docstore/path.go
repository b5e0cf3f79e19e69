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
	"fmt"
	"strings"
)

const (
	pathSeparator = "/"
	keySeparator  = "."
)

// validSegment reports whether s can be used as a key token. Dots are
// accepted only when allowDots is set, for the last segment of a document.
func validSegment(s string, allowDots bool) bool {
	if s == "" {
		return false
	}

	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-', r == '_', r == '=':
		case r == '.' && allowDots:
		default:
			return false
		}
	}

	return !strings.HasPrefix(s, keySeparator) && !strings.HasSuffix(s, keySeparator)
}

// DocumentKey maps a document path to its store key.
func DocumentKey(docPath string) (string, error) {
	segments := strings.Split(docPath, pathSeparator)
	if len(segments) < 2 {
		return "", fmt.Errorf("%w: %q has no collection", ErrInvalidPath, docPath)
	}

	for i, seg := range segments {
		if !validSegment(seg, i == len(segments)-1) {
			return "", fmt.Errorf("%w: %q", ErrInvalidPath, docPath)
		}
	}

	return strings.Join(segments, keySeparator), nil
}

// CollectionKey maps a collection path to the key prefix of its documents.
func CollectionKey(collection string) (string, error) {
	segments := strings.Split(collection, pathSeparator)

	for _, seg := range segments {
		if !validSegment(seg, false) {
			return "", fmt.Errorf("%w: %q", ErrInvalidPath, collection)
		}
	}

	return strings.Join(segments, keySeparator), nil
}

// Join builds a path from segments.
func Join(segments ...string) string {
	return strings.Join(segments, pathSeparator)
}

// ValidID reports whether id can name a watched document.
func ValidID(id string) bool {
	return validSegment(id, false)
}

// childID returns the id of key inside the collection prefix, or false if key
// is not a direct child.
func childID(prefix, key string) (string, bool) {
	rest, ok := strings.CutPrefix(key, prefix+keySeparator)
	if !ok || rest == "" || strings.Contains(rest, keySeparator) {
		return "", false
	}

	return rest, true
}
