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

package logger

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		want    zerolog.Level
		wantErr bool
	}{
		{name: "default", config: Config{}, want: zerolog.InfoLevel},
		{name: "explicit", config: Config{Level: "warn"}, want: zerolog.WarnLevel},
		{name: "debug flag wins", config: Config{Level: "error", Debug: true}, want: zerolog.DebugLevel},
		{name: "invalid", config: Config{Level: "loud"}, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			level, err := ParseLevel(&tc.config)
			if tc.wantErr {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.want, level)
		})
	}
}

func TestDefaultConfigReadsEnvironment(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_OUTPUT", "stderr")
	t.Setenv("DEBUG", "yes")

	cfg := DefaultConfig()

	assert.Equal(t, "debug", cfg.Level)
	assert.Equal(t, "stderr", cfg.Output)
	assert.True(t, cfg.Debug)
}

func TestNewRejectsInvalidLevel(t *testing.T) {
	_, err := New(&Config{Level: "nope"})
	require.Error(t, err)

	log, err := New(&Config{Level: "error", Output: "stderr"})
	require.NoError(t, err)

	log.SetDebug(true)
	assert.NotNil(t, log.WithComponent("test"))
}

func TestNewTestLoggerDiscards(t *testing.T) {
	log := NewTestLogger()

	// Disabled events are nil and must be safe to use.
	log.Info().Str("key", "value").Msg("ignored")
	assert.Nil(t, log.Error())
}
