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
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/carverauto/edgesync/pkg/docstore"
	"github.com/carverauto/edgesync/pkg/installed"
	"github.com/carverauto/edgesync/pkg/models"
)

const baseDirMode = 0o755

// SyncLocalServices is the bootstrap pass. Every service folder under the
// base path becomes tracked; services without a remote record are uploaded
// and a mismatch with an existing record is only reported.
func (d *Downloader) SyncLocalServices(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	store, err := d.currentStore()
	if err != nil {
		return err
	}

	names, err := d.localServiceNames()
	if err != nil {
		return err
	}

	d.tracked.Reset(names)

	d.logger.Info().Strs("services", names).Msg("Synchronizing local services")

	for _, name := range names {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		d.syncLocalService(ctx, store, name)
	}

	return nil
}

func (d *Downloader) syncLocalService(ctx context.Context, store docstore.Store, name string) {
	snap, err := store.Get(ctx, d.servicePath(name))
	if err != nil {
		d.logger.Error().Err(err).Str("service", name).Msg("Failed to read remote service")
		return
	}

	svc := d.service(store, name, snap)

	if !snap.Exists() {
		if err := svc.Upload(ctx); err != nil {
			d.logger.Error().Err(err).Str("service", name).Msg("Failed to upload local service")
		}

		return
	}

	if !svc.AreEqual(ctx) {
		d.logger.Warn().Str("service", name).Msg("Local service differs from the remote record")
	}
}

// localServiceNames lists the service folders, creating the base path if needed.
func (d *Downloader) localServiceNames() ([]string, error) {
	entries, err := os.ReadDir(d.cfg.BasePath)
	if errors.Is(err, os.ErrNotExist) {
		if err := os.MkdirAll(d.cfg.BasePath, baseDirMode); err != nil {
			return nil, fmt.Errorf("failed to create base path %s: %w", d.cfg.BasePath, err)
		}

		return []string{}, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to list base path %s: %w", d.cfg.BasePath, err)
	}

	names := make([]string, 0, len(entries))

	for _, entry := range entries {
		name := entry.Name()

		if !entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}

		if !docstore.ValidID(name) {
			d.logger.Warn().Str("service", name).Msg("Skipping folder that is not a valid service name")
			continue
		}

		names = append(names, name)
	}

	sort.Strings(names)

	return names, nil
}

// OnChange applies a batch of changes in order. Removed documents are ignored.
func (d *Downloader) OnChange(ctx context.Context, batch docstore.Batch) {
	for _, change := range batch {
		if change.Kind == docstore.ChangeRemoved {
			d.logger.Debug().Str("service", change.Snapshot.ID()).Msg("Ignoring removed record")
			continue
		}

		d.handleChange(ctx, change.Snapshot)
	}
}

func (d *Downloader) handleChange(ctx context.Context, snap docstore.Snapshot) {
	name := snap.ID()

	d.mu.RLock()
	defer d.mu.RUnlock()

	unlock := d.services.Lock(name)
	defer unlock()

	store, err := d.currentStore()
	if err != nil {
		d.logger.Error().Err(err).Str("service", name).Msg("Dropping change")
		return
	}

	remote := installed.NewRemoteService(name, d.devicePath, store, snap, d.logger)
	svc := installed.NewService(name, installed.NewLocalService(name, d.cfg.BasePath, d.logger), remote, d.logger)

	status, err := remote.Status()
	if err != nil {
		d.logger.Debug().Err(err).Str("service", name).Msg("Record has no status")
	}

	d.dispatch(ctx, svc, status)
}

func (d *Downloader) dispatch(ctx context.Context, svc *installed.Service, status models.ServiceStatus) {
	name := svc.Name()
	wasTracked := d.tracked.Contains(name)

	var err error

	switch status {
	case models.StatusToBeInstalled:
		if wasTracked {
			err = svc.Acknowledge(ctx)
		} else {
			err = svc.Install(ctx)
		}

		if err == nil {
			d.tracked.Add(name)
		} else if !wasTracked {
			d.tracked.Remove(name)
		}
	case models.StatusToBeReconfigured:
		err = svc.Reconfigure(ctx)
	case models.StatusToBeUpdated:
		err = svc.Update(ctx)
		if err == nil {
			d.tracked.Add(name)
		}
	case models.StatusToBeRemoved:
		svc.Remove(ctx)
		d.tracked.Remove(name)
	case models.StatusStarted, models.StatusDownloaded, models.StatusReconfigured,
		models.StatusUpdated, models.StatusUnknown:
		d.verify(ctx, svc)
	default:
		d.verify(ctx, svc)
	}

	if err != nil {
		d.logger.Error().Err(err).Str("service", name).Str("status", status.String()).Msg("Service operation failed")
	}
}

// verify reports drift without correcting it.
func (d *Downloader) verify(ctx context.Context, svc *installed.Service) {
	if !svc.AreEqual(ctx) {
		d.logger.Error().Str("service", svc.Name()).Msg("Installed service does not match the remote record")
	}
}

func (d *Downloader) servicePath(name string) string {
	return docstore.Join(installed.ServicesCollection(d.devicePath), name)
}

func (d *Downloader) service(store docstore.Store, name string, snap docstore.Snapshot) *installed.Service {
	return installed.NewService(name,
		installed.NewLocalService(name, d.cfg.BasePath, d.logger),
		installed.NewRemoteService(name, d.devicePath, store, snap, d.logger),
		d.logger)
}
