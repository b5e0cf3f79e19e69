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

// Package installed manages one installed service on both sides: the compose
// definition on disk and the record in the control plane.
package installed

//go:generate mockgen -destination=mock_installed.go -package=installed github.com/carverauto/edgesync/pkg/installed LocalState,RemoteState

import (
	"context"

	"github.com/carverauto/edgesync/pkg/models"
)

// LocalState is the on-disk side of an installed service.
type LocalState interface {
	Version() (string, error)
	Envs() (models.Envs, error)
	CreateFolder() error
	Remove() error
	WriteCompose(definition map[string]any) error
	WriteEnvs(envs models.Envs) error
}

// RemoteState is the control plane side of an installed service.
type RemoteState interface {
	Version() (string, error)
	Status() (models.ServiceStatus, error)
	Envs() (models.Envs, error)
	MarketplaceCompose(ctx context.Context, version string) (map[string]any, error)
	Upload(ctx context.Context, version string, envs models.Envs, status models.ServiceStatus) error
	UpdateStatus(ctx context.Context, status models.ServiceStatus) error
	Remove(ctx context.Context) error
}
