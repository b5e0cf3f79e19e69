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

// Package config loads the agent configuration from a JSON file overlaid by environment variables.
package config

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"reflect"

	"github.com/carverauto/edgesync/pkg/logger"
	"github.com/carverauto/edgesync/pkg/models"
)

var (
	errInvalidConfigPtr = errors.New("config must be a non-nil pointer")
)

// DefaultEnvPrefix is prepended to every environment variable read by the env loader.
const DefaultEnvPrefix = "EDGESYNC_"

// ConfigLoader fills dst from a source identified by path.
type ConfigLoader interface {
	Load(ctx context.Context, path string, dst interface{}) error
}

// Validator is implemented by configurations that can check themselves after loading.
type Validator interface {
	Validate() error
}

// Config holds the configuration loading dependencies.
type Config struct {
	fileLoader ConfigLoader
	envLoader  ConfigLoader
	logger     logger.Logger
}

// NewConfig initializes a Config with the JSON file loader and the env overlay.
func NewConfig(log logger.Logger) *Config {
	if log == nil {
		log = logger.NewTestLogger()
	}

	return &Config{
		fileLoader: NewFileConfigLoader(log),
		envLoader:  NewEnvConfigLoader(log, DefaultEnvPrefix),
		logger:     log,
	}
}

// ValidateConfig validates a configuration if it implements Validator.
func ValidateConfig(cfg interface{}) error {
	v, ok := cfg.(Validator)
	if !ok {
		return nil
	}

	return v.Validate()
}

// LoadAndValidate loads the file at path (a missing file is allowed), applies
// environment overrides, normalizes TLS paths and validates the result.
func (c *Config) LoadAndValidate(ctx context.Context, path string, cfg interface{}) error {
	v := reflect.ValueOf(cfg)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return errInvalidConfigPtr
	}

	if path != "" {
		if err := c.fileLoader.Load(ctx, path, cfg); err != nil {
			return err
		}
	}

	if err := c.envLoader.Load(ctx, path, cfg); err != nil {
		return fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	if sec := securityOf(cfg); sec != nil {
		c.normalizeTLSPaths(&sec.TLS, sec.CertDir)
	}

	return ValidateConfig(cfg)
}

type securityHolder interface {
	SecurityConfig() *models.SecurityConfig
}

func securityOf(cfg interface{}) *models.SecurityConfig {
	holder, ok := cfg.(securityHolder)
	if !ok {
		return nil
	}

	return holder.SecurityConfig()
}

// normalizeTLSPaths adjusts TLS file paths based on the certificate directory.
func (c *Config) normalizeTLSPaths(tls *models.TLSConfig, certDir string) {
	if certDir == "" {
		return
	}

	for _, file := range []*string{&tls.CertFile, &tls.KeyFile, &tls.CAFile} {
		if *file != "" && !filepath.IsAbs(*file) {
			*file = filepath.Join(certDir, *file)
		}
	}

	c.logger.Debug().
		Str("cert_file", tls.CertFile).
		Str("key_file", tls.KeyFile).
		Str("ca_file", tls.CAFile).
		Msg("Normalized TLS paths")
}
