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
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/carverauto/edgesync/pkg/logger"
)

// Runner is a long running component that blocks until ctx is canceled.
type Runner interface {
	Run(ctx context.Context) error
}

// RunUntilSignal runs every runner in its own goroutine and cancels them all on
// SIGINT/SIGTERM or when one of them returns an error.
func RunUntilSignal(ctx context.Context, log logger.Logger, runners ...Runner) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	for _, r := range runners {
		g.Go(func() error {
			return r.Run(gctx)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutdown requested")

		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	return nil
}
