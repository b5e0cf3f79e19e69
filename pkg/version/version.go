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

// Package version carries the build identity of the edgesync binaries.
package version

// Set with -ldflags "-X github.com/carverauto/edgesync/pkg/version.version=..."
//
//nolint:gochecknoglobals // ldflags injection
var (
	version = "dev"
	buildID = "dev"
)

// Version returns the release the binary was built from.
func Version() string {
	return version
}

// BuildID returns the build identifier.
func BuildID() string {
	return buildID
}

// Full returns the version with its build identifier, as printed by -version.
func Full() string {
	if buildID == "" || buildID == version {
		return version
	}

	return version + " (build: " + buildID + ")"
}
