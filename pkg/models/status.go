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

// Package models holds the data types shared by the edgesync packages.
package models

// ServiceStatus is the value of the status field of an installed service record.
type ServiceStatus string

const (
	StatusStarted      ServiceStatus = "started"
	StatusDownloaded   ServiceStatus = "downloaded"
	StatusReconfigured ServiceStatus = "reconfigured"
	StatusUpdated      ServiceStatus = "updated"
	StatusUnknown      ServiceStatus = "unknown"

	// Commands written by the control plane. The agent never sets these.
	StatusToBeInstalled    ServiceStatus = "to-be-installed"
	StatusToBeReconfigured ServiceStatus = "to-be-reconfigured"
	StatusToBeUpdated      ServiceStatus = "to-be-updated"
	StatusToBeRemoved      ServiceStatus = "to-be-removed"
)

// IsCommand reports whether the status is a to-be-* command issued by the control plane.
func (s ServiceStatus) IsCommand() bool {
	switch s {
	case StatusToBeInstalled, StatusToBeReconfigured, StatusToBeUpdated, StatusToBeRemoved:
		return true
	case StatusStarted, StatusDownloaded, StatusReconfigured, StatusUpdated, StatusUnknown:
		return false
	default:
		return false
	}
}

func (s ServiceStatus) String() string {
	return string(s)
}
