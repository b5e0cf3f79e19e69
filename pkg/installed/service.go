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
	"context"
	"errors"
	"fmt"

	"github.com/carverauto/edgesync/pkg/logger"
	"github.com/carverauto/edgesync/pkg/models"
)

// Service runs the install, reconfigure, update and remove flows of one
// service across its local and remote state. Outcomes are reported through
// the remote status; a failed flow leaves the status unknown.
type Service struct {
	name   string
	local  LocalState
	remote RemoteState
	logger logger.Logger
}

// NewService combines the two sides of service name.
func NewService(name string, local LocalState, remote RemoteState, log logger.Logger) *Service {
	if log == nil {
		log = logger.NewTestLogger()
	}

	return &Service{name: name, local: local, remote: remote, logger: log}
}

func (s *Service) Name() string { return s.name }

// AreEqual reports whether the local and remote versions and envs match.
// Errors count as a mismatch.
func (s *Service) AreEqual(context.Context) bool {
	localVersion, err := s.local.Version()
	if err != nil {
		s.logger.Error().Err(err).Str("service", s.name).Msg("Cannot compare service")
		return false
	}

	remoteVersion, err := s.remote.Version()
	if err != nil {
		s.logger.Error().Err(err).Str("service", s.name).Msg("Cannot compare service")
		return false
	}

	if localVersion != remoteVersion {
		s.logger.Warn().
			Str("service", s.name).
			Str("local_version", localVersion).
			Str("remote_version", remoteVersion).
			Msg("Local and remote versions are different")

		return false
	}

	localEnvs, err := s.local.Envs()
	if err != nil {
		s.logger.Error().Err(err).Str("service", s.name).Msg("Cannot compare service")
		return false
	}

	remoteEnvs, err := s.remote.Envs()
	if err != nil {
		s.logger.Error().Err(err).Str("service", s.name).Msg("Cannot compare service")
		return false
	}

	if !localEnvs.Equal(remoteEnvs) {
		s.logger.Warn().Str("service", s.name).Msg("Local and remote envs are different")
		return false
	}

	return true
}

// Upload publishes the local version and envs with status started. An
// invalid local service is logged and skipped.
func (s *Service) Upload(ctx context.Context) error {
	version, envs, err := s.localRecord()
	if errors.Is(err, ErrInvalidLocalService) {
		s.logger.Error().Err(err).Str("service", s.name).Msg("Upload skipped")
		return nil
	}

	if err != nil {
		return err
	}

	if err := s.remote.Upload(ctx, version, envs, models.StatusStarted); err != nil {
		return err
	}

	s.logger.Info().Str("service", s.name).Str("version", version).Msg("Service info uploaded")

	return nil
}

func (s *Service) localRecord() (string, models.Envs, error) {
	version, err := s.local.Version()
	if err != nil {
		return "", models.Envs{}, err
	}

	envs, err := s.local.Envs()
	if err != nil {
		return "", models.Envs{}, err
	}

	return version, envs, nil
}

// Install creates the service from the remote record and its catalog entry.
func (s *Service) Install(ctx context.Context) error {
	version, err := s.deploy(ctx)
	if err != nil {
		return s.fail(ctx, ErrInstallationFailed, err)
	}

	s.logger.Info().Str("service", s.name).Str("version", version).Msg("Service installed")

	if err := s.remote.UpdateStatus(ctx, models.StatusDownloaded); err != nil {
		return s.fail(ctx, ErrInstallationFailed, err)
	}

	return nil
}

// Acknowledge confirms an install request for a service already on disk. If
// the local definition no longer yields a version it falls back to Install.
func (s *Service) Acknowledge(ctx context.Context) error {
	version, err := s.local.Version()
	if err != nil {
		s.logger.Warn().Err(err).Str("service", s.name).Msg("Installed service is invalid, reinstalling")
		return s.Install(ctx)
	}

	if err := s.remote.UpdateStatus(ctx, models.StatusDownloaded); err != nil {
		return fmt.Errorf("%w: %w", ErrInstallationFailed, err)
	}

	s.logger.Info().Str("service", s.name).Str("version", version).Msg("Service already installed")

	return nil
}

// Reconfigure rewrites the env file from the remote envs.
func (s *Service) Reconfigure(ctx context.Context) error {
	envs, err := s.remote.Envs()
	if err == nil {
		err = s.local.WriteEnvs(envs)
	}

	if err != nil {
		return s.fail(ctx, ErrReconfigurationFailed, err)
	}

	s.logger.Info().Str("service", s.name).Msg("Service reconfigured")

	if err := s.remote.UpdateStatus(ctx, models.StatusReconfigured); err != nil {
		return s.fail(ctx, ErrReconfigurationFailed, err)
	}

	return nil
}

// Update replaces both definition files with the version now in the record.
func (s *Service) Update(ctx context.Context) error {
	version, err := s.deploy(ctx)
	if err != nil {
		return s.fail(ctx, ErrUpdateFailed, err)
	}

	s.logger.Info().Str("service", s.name).Str("version", version).Msg("Service updated")

	if err := s.remote.UpdateStatus(ctx, models.StatusUpdated); err != nil {
		return s.fail(ctx, ErrUpdateFailed, err)
	}

	return nil
}

// Remove deletes the local folder and the remote record. Failures are logged.
func (s *Service) Remove(ctx context.Context) {
	if err := s.local.Remove(); err != nil {
		s.logger.Error().Err(err).Str("service", s.name).Msg("Failed to remove local service")
	}

	if err := s.remote.Remove(ctx); err != nil {
		s.logger.Error().Err(err).Str("service", s.name).Msg("Failed to remove remote service")
	}

	s.logger.Info().Str("service", s.name).Msg("Service removed")
}

// deploy writes the compose and env files for the version in the record.
func (s *Service) deploy(ctx context.Context) (string, error) {
	if err := s.local.CreateFolder(); err != nil {
		return "", err
	}

	version, err := s.remote.Version()
	if err != nil {
		return "", err
	}

	compose, err := s.remote.MarketplaceCompose(ctx, version)
	if err != nil {
		return "", err
	}

	envs, err := s.remote.Envs()
	if err != nil {
		return "", err
	}

	if err := s.local.WriteCompose(compose); err != nil {
		return "", err
	}

	if err := s.local.WriteEnvs(envs); err != nil {
		return "", err
	}

	return version, nil
}

// fail marks the record unknown and wraps cause in kind.
func (s *Service) fail(ctx context.Context, kind, cause error) error {
	s.logger.Error().Err(cause).Str("service", s.name).Msg(kind.Error())

	if err := s.remote.UpdateStatus(ctx, models.StatusUnknown); err != nil {
		s.logger.Error().Err(err).Str("service", s.name).Msg("Failed to report unknown status")
	}

	return fmt.Errorf("%w: %w", kind, cause)
}
