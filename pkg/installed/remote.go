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

package installed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/carverauto/edgesync/pkg/docstore"
	"github.com/carverauto/edgesync/pkg/logger"
	"github.com/carverauto/edgesync/pkg/models"
)

const installedServicesCollection = "installed_services"

// DevicePath is the document of a device owned by user.
func DevicePath(userID, deviceID string) string {
	return docstore.Join("users", userID, "devices", deviceID)
}

// ServicesCollection is the collection holding the installed service records of a device.
func ServicesCollection(devicePath string) string {
	return docstore.Join(devicePath, installedServicesCollection)
}

// MarketplacePath is the catalog document of one version of a service.
func MarketplacePath(name, version string) string {
	return docstore.Join("services", name, "versions", version)
}

type remoteRecord struct {
	Version string               `json:"version"`
	Status  models.ServiceStatus `json:"status"`
	Envs    models.Envs          `json:"envs"`
}

type marketplaceEntry struct {
	Compose map[string]any `json:"compose"`
}

// RemoteService is the control plane record of one service on one device,
// read from a snapshot taken by the caller.
type RemoteService struct {
	name    string
	docPath string
	store   docstore.Store
	fields  map[string]json.RawMessage
	logger  logger.Logger
}

// NewRemoteService binds the record of service name under devicePath. snap may
// be a snapshot of a missing document.
func NewRemoteService(name, devicePath string, store docstore.Store, snap docstore.Snapshot, log logger.Logger) *RemoteService {
	if log == nil {
		log = logger.NewTestLogger()
	}

	r := &RemoteService{
		name:    name,
		docPath: docstore.Join(ServicesCollection(devicePath), name),
		store:   store,
		logger:  log,
	}

	if snap.Exists() {
		if err := json.Unmarshal(snap.Data, &r.fields); err != nil {
			log.Warn().Err(err).Str("service", name).Msg("Remote service record is not an object")

			r.fields = nil
		}
	}

	return r
}

// Path is the document path of the record.
func (r *RemoteService) Path() string { return r.docPath }

func (r *RemoteService) field(name string, dst any) error {
	if len(r.fields) == 0 {
		return fmt.Errorf("%w: %s", ErrUnconfiguredRemoteService, r.docPath)
	}

	raw, ok := r.fields[name]
	if !ok {
		return fmt.Errorf("%w: %q not found in %s", ErrInvalidRemoteService, name, r.docPath)
	}

	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%w: %q in %s: %w", ErrInvalidRemoteService, name, r.docPath, err)
	}

	return nil
}

func (r *RemoteService) Version() (string, error) {
	var version string
	if err := r.field("version", &version); err != nil {
		return "", err
	}

	return version, nil
}

func (r *RemoteService) Status() (models.ServiceStatus, error) {
	var status models.ServiceStatus
	if err := r.field("status", &status); err != nil {
		return "", err
	}

	return status, nil
}

func (r *RemoteService) Envs() (models.Envs, error) {
	var envs models.Envs
	if err := r.field("envs", &envs); err != nil {
		return models.Envs{}, err
	}

	return envs, nil
}

// MarketplaceCompose returns the compose definition of version from the
// catalog. An empty version means the version of the record.
func (r *RemoteService) MarketplaceCompose(ctx context.Context, version string) (map[string]any, error) {
	if version == "" {
		v, err := r.Version()
		if err != nil {
			return nil, err
		}

		version = v
	}

	catalogPath := MarketplacePath(r.name, version)

	snap, err := r.store.Get(ctx, catalogPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", catalogPath, err)
	}

	if !snap.Exists() {
		return nil, fmt.Errorf("%w: %s not found in the marketplace", ErrInvalidRemoteService, catalogPath)
	}

	// Numbers keep their literal text so a label such as 2.0 is not written as 2.
	dec := json.NewDecoder(bytes.NewReader(snap.Data))
	dec.UseNumber()

	var entry marketplaceEntry
	if err := dec.Decode(&entry); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidRemoteService, catalogPath, err)
	}

	if entry.Compose == nil {
		return nil, fmt.Errorf("%w: %s has no compose", ErrInvalidRemoteService, catalogPath)
	}

	compose, _ := literalNumbers(entry.Compose).(map[string]any)

	return compose, nil
}

// Upload creates or overwrites the record. An empty status means started.
func (r *RemoteService) Upload(ctx context.Context, version string, envs models.Envs, status models.ServiceStatus) error {
	if status == "" {
		status = models.StatusStarted
	}

	if err := r.store.Set(ctx, r.docPath, remoteRecord{Version: version, Status: status, Envs: envs}); err != nil {
		return fmt.Errorf("failed to upload %s: %w", r.docPath, err)
	}

	r.logger.Debug().Str("service", r.name).Str("version", version).Str("status", status.String()).Msg("Uploaded service record")

	return nil
}

// UpdateStatus changes only the status field of the record.
func (r *RemoteService) UpdateStatus(ctx context.Context, status models.ServiceStatus) error {
	if err := r.store.Update(ctx, r.docPath, map[string]any{"status": status}); err != nil {
		return fmt.Errorf("failed to set status of %s: %w", r.docPath, err)
	}

	r.logger.Debug().Str("service", r.name).Str("status", status.String()).Msg("Updated service status")

	return nil
}

// Remove deletes the record.
func (r *RemoteService) Remove(ctx context.Context) error {
	if err := r.store.Delete(ctx, r.docPath); err != nil {
		return fmt.Errorf("failed to remove %s: %w", r.docPath, err)
	}

	return nil
}

// composeNumber is a catalog number rendered as a plain YAML scalar with its
// original text.
type composeNumber string

func (n composeNumber) MarshalYAML() (any, error) {
	tag := "!!int"
	if strings.ContainsAny(string(n), ".eE") {
		tag = "!!float"
	}

	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: string(n)}, nil
}

func literalNumbers(v any) any {
	switch value := v.(type) {
	case json.Number:
		return composeNumber(value)
	case map[string]any:
		for k, item := range value {
			value[k] = literalNumbers(item)
		}

		return value
	case []any:
		for i, item := range value {
			value[i] = literalNumbers(item)
		}

		return value
	default:
		return v
	}
}
