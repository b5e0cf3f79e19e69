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

import "errors"

var (
	// ErrInvalidLocalService is returned when the local definition files are missing or unreadable.
	ErrInvalidLocalService = errors.New("invalid local service")
	// ErrInvalidComposeContent is returned for compose definitions without a version label.
	ErrInvalidComposeContent = errors.New("compose content has no version label")
	// ErrWrite is returned when a definition file cannot be written.
	ErrWrite = errors.New("failed to write service file")
	// ErrUnconfiguredRemoteService is returned when the remote record is missing or empty.
	ErrUnconfiguredRemoteService = errors.New("remote service is not configured")
	// ErrInvalidRemoteService is returned when the remote record or its catalog entry lacks a field.
	ErrInvalidRemoteService = errors.New("invalid remote service")

	ErrInstallationFailed    = errors.New("installation failed")
	ErrReconfigurationFailed = errors.New("reconfiguration failed")
	ErrUpdateFailed          = errors.New("update failed")
)
