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

package config

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/carverauto/edgesync/pkg/logger"
)

var (
	// ErrUnknownField is returned when the config file carries a key the target struct does not define.
	ErrUnknownField = errors.New("unknown config field")

	errTrailingData = errors.New("unexpected data after the JSON document")
)

// FileConfigLoader decodes a local JSON file. Unknown keys are rejected so a
// misspelled setting does not silently fall back to its default.
type FileConfigLoader struct {
	logger logger.Logger
}

// NewFileConfigLoader returns a loader that logs through log.
func NewFileConfigLoader(log logger.Logger) *FileConfigLoader {
	if log == nil {
		log = logger.NewTestLogger()
	}

	return &FileConfigLoader{logger: log}
}

// Load implements ConfigLoader. A missing file leaves dst untouched and is not an error.
func (f *FileConfigLoader) Load(_ context.Context, path string, dst interface{}) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		f.logger.Info().Str("path", path).Msg("Config file not found, using defaults and environment")
		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to read file '%s': %w", path, err)
	}

	if err := decodeStrict(data, dst); err != nil {
		return fmt.Errorf("failed to decode '%s': %w", path, err)
	}

	f.logger.Debug().Str("path", path).Msg("Loaded config file")

	return nil
}

func decodeStrict(data []byte, dst interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		// encoding/json does not export a type for this case.
		if field, ok := strings.CutPrefix(err.Error(), "json: unknown field "); ok {
			return fmt.Errorf("%w: %s", ErrUnknownField, field)
		}

		return err
	}

	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return errTrailingData
	}

	return nil
}
