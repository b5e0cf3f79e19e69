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

package lifecycle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/edgesync/pkg/logger"
)

type runnerFunc func(ctx context.Context) error

func (f runnerFunc) Run(ctx context.Context) error { return f(ctx) }

var errRunnerFailed = errors.New("runner failed")

func TestRunUntilSignalStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	stopped := make(chan struct{})
	runner := runnerFunc(func(ctx context.Context) error {
		<-ctx.Done()
		close(stopped)

		return nil
	})

	done := make(chan error, 1)
	go func() { done <- RunUntilSignal(ctx, logger.NewTestLogger(), runner) }()

	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("RunUntilSignal did not return")
	}

	<-stopped
}

func TestRunUntilSignalReturnsRunnerError(t *testing.T) {
	failing := runnerFunc(func(context.Context) error { return errRunnerFailed })
	waiting := runnerFunc(func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	err := RunUntilSignal(context.Background(), logger.NewTestLogger(), failing, waiting)
	assert.ErrorIs(t, err, errRunnerFailed)
}

func TestCreateComponentLogger(t *testing.T) {
	log, err := CreateComponentLogger("downloader", &logger.Config{Level: "debug", Output: "stderr"})
	require.NoError(t, err)
	assert.NotNil(t, log)

	_, err = CreateComponentLogger("downloader", &logger.Config{Level: "bogus"})
	require.Error(t, err)
}
