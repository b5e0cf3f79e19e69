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

package config

import (
	"errors"
	"time"

	"github.com/carverauto/edgesync/pkg/logger"
	"github.com/carverauto/edgesync/pkg/models"
)

var (
	ErrMissingDeviceID = errors.New("device_id is required")
	ErrMissingUserID   = errors.New("user_id is required")
	ErrMissingBasePath = errors.New("base_path is required")
	ErrMissingNATSURL  = errors.New("nats.url is required")
	errInvalidBuffer   = errors.New("watch_buffer must be positive")
	errInvalidDelay    = errors.New("restart_delay must not be negative")
)

const (
	DefaultBasePath            = "/opt/edgesync-services"
	DefaultBucket              = "edgesync"
	DefaultRestartDelay        = 500 * time.Millisecond
	DefaultRequestTimeout      = 10 * time.Second
	DefaultPingInterval        = 20 * time.Second
	DefaultMaxPingsOutstanding = 3
	DefaultWatchBuffer         = 16
)

// AgentConfig is the configuration of the edgesync agent.
type AgentConfig struct {
	BasePath     string          `json:"base_path"`
	UserID       string          `json:"user_id"`
	DeviceID     string          `json:"device_id"`
	RestartDelay models.Duration `json:"restart_delay"`
	WatchBuffer  int             `json:"watch_buffer"`
	Logging      *logger.Config  `json:"logging,omitempty"`
	NATS         NATSConfig      `json:"nats"`
}

// NATSConfig describes how the agent reaches the control plane.
type NATSConfig struct {
	URL          string `json:"url"`
	Bucket       string `json:"bucket"`
	CreateBucket bool   `json:"create_bucket"`

	// Credentials. CredsFile takes precedence over an inline JWT and seed,
	// which take precedence over Token.
	CredsFile string `json:"creds_file,omitempty"`
	JWT       string `json:"jwt,omitempty"`
	Seed      string `json:"seed,omitempty"`
	Token     string `json:"token,omitempty"`

	RequestTimeout      models.Duration        `json:"request_timeout"`
	PingInterval        models.Duration        `json:"ping_interval"`
	MaxPingsOutstanding int                    `json:"max_pings_outstanding"`
	Security            *models.SecurityConfig `json:"security,omitempty"`
}

// DefaultAgentConfig returns a configuration with every optional field set.
func DefaultAgentConfig() AgentConfig {
	return AgentConfig{
		BasePath:     DefaultBasePath,
		RestartDelay: models.Duration(DefaultRestartDelay),
		WatchBuffer:  DefaultWatchBuffer,
		NATS: NATSConfig{
			Bucket:              DefaultBucket,
			RequestTimeout:      models.Duration(DefaultRequestTimeout),
			PingInterval:        models.Duration(DefaultPingInterval),
			MaxPingsOutstanding: DefaultMaxPingsOutstanding,
		},
	}
}

// Validate implements Validator.
func (c *AgentConfig) Validate() error {
	switch {
	case c.DeviceID == "":
		return ErrMissingDeviceID
	case c.UserID == "":
		return ErrMissingUserID
	case c.BasePath == "":
		return ErrMissingBasePath
	case c.NATS.URL == "":
		return ErrMissingNATSURL
	case c.WatchBuffer <= 0:
		return errInvalidBuffer
	case c.RestartDelay < 0:
		return errInvalidDelay
	}

	if c.NATS.Bucket == "" {
		c.NATS.Bucket = DefaultBucket
	}

	return nil
}

// SecurityConfig exposes the NATS transport security for path normalization.
func (c *AgentConfig) SecurityConfig() *models.SecurityConfig {
	return c.NATS.Security
}
