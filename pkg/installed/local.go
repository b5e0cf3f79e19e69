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
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/carverauto/edgesync/pkg/logger"
	"github.com/carverauto/edgesync/pkg/models"
)

const (
	ComposeFileName = "docker-compose.yaml"
	EnvFileName     = ".env"

	serviceFileMode = 0o644
	serviceDirMode  = 0o755
)

var (
	errNoVersionLabel = errors.New("version label not found")
	errInvalidLabels  = errors.New("labels must be a mapping or a list")
	errBlankEnvKey    = errors.New("env key is blank")
	errUnencodableEnv = errors.New("env entry cannot be written as a KEY=VALUE line")
)

// LocalService reads and writes the definition files of one service under
// <base>/<name>. Nothing is cached; every read goes to disk.
type LocalService struct {
	name   string
	folder string
	logger logger.Logger
}

// NewLocalService returns the local accessor of service name under basePath.
func NewLocalService(name, basePath string, log logger.Logger) *LocalService {
	if log == nil {
		log = logger.NewTestLogger()
	}

	return &LocalService{
		name:   name,
		folder: filepath.Join(basePath, name),
		logger: log,
	}
}

// Folder is the service directory.
func (l *LocalService) Folder() string { return l.folder }

func (l *LocalService) composePath() string { return filepath.Join(l.folder, ComposeFileName) }
func (l *LocalService) envPath() string     { return filepath.Join(l.folder, EnvFileName) }

// VersionLabel is the compose label holding the installed version of service name.
func VersionLabel(name string) string {
	return "com." + name + ".service.version"
}

// Version returns the version label of the service in its compose file.
func (l *LocalService) Version() (string, error) {
	data, err := os.ReadFile(l.composePath())
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrInvalidLocalService, l.composePath(), err)
	}

	version, err := composeVersion(data, l.name)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrInvalidLocalService, l.composePath(), err)
	}

	return version, nil
}

// Envs parses the env file. Each non-empty line is split on the first '=';
// a line without '=' is a key with an empty value. WriteEnvs refuses entries
// this format cannot read back unchanged.
func (l *LocalService) Envs() (models.Envs, error) {
	data, err := os.ReadFile(l.envPath())
	if err != nil {
		return models.Envs{}, fmt.Errorf("%w: %s: %w", ErrInvalidLocalService, l.envPath(), err)
	}

	var envs models.Envs

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSuffix(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		key, value, _ := strings.Cut(line, "=")
		envs.Set(key, models.StringValue(value))
	}

	if err := scanner.Err(); err != nil {
		return models.Envs{}, fmt.Errorf("%w: %s: %w", ErrInvalidLocalService, l.envPath(), err)
	}

	return envs, nil
}

// CreateFolder creates the service directory if needed.
func (l *LocalService) CreateFolder() error {
	if err := os.MkdirAll(l.folder, serviceDirMode); err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}

	l.logger.Debug().Str("service", l.name).Str("folder", l.folder).Msg("Service folder ready")

	return nil
}

// Remove deletes the service directory. A missing directory is not an error.
func (l *LocalService) Remove() error {
	if err := os.RemoveAll(l.folder); err != nil {
		return fmt.Errorf("failed to remove %s: %w", l.folder, err)
	}

	l.logger.Debug().Str("service", l.name).Msg("Service folder removed")

	return nil
}

// WriteCompose writes definition as YAML after checking that it carries the
// version label read back by Version.
func (l *LocalService) WriteCompose(definition map[string]any) error {
	data, err := yaml.Marshal(definition)
	if err != nil {
		return fmt.Errorf("%w: %w: %w", ErrWrite, ErrInvalidComposeContent, err)
	}

	version, err := composeVersion(data, l.name)
	if err != nil {
		return fmt.Errorf("%w: %w: %w", ErrWrite, ErrInvalidComposeContent, err)
	}

	if err := writeFileAtomic(l.composePath(), data); err != nil {
		return err
	}

	l.logger.Debug().Str("service", l.name).Str("version", version).Msg("Compose file written")

	return nil
}

// WriteEnvs writes one KEY=VALUE line per entry in insertion order. A key
// must be non-blank without '=' or line breaks, and a value must have no line
// breaks; anything else fails with ErrWrite before the file is touched.
func (l *LocalService) WriteEnvs(envs models.Envs) error {
	var buf bytes.Buffer

	for key, value := range envs.All() {
		if err := checkEnvEntry(key, value.String()); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrWrite, l.envPath(), err)
		}

		buf.WriteString(key)
		buf.WriteByte('=')
		buf.WriteString(value.String())
		buf.WriteByte('\n')
	}

	if err := writeFileAtomic(l.envPath(), buf.Bytes()); err != nil {
		return err
	}

	l.logger.Debug().Str("service", l.name).Int("envs", envs.Len()).Msg("Env file written")

	return nil
}

func checkEnvEntry(key, value string) error {
	switch {
	case strings.TrimSpace(key) == "":
		return errBlankEnvKey
	case strings.ContainsAny(key, "=\r\n"):
		return fmt.Errorf("%w: key %q", errUnencodableEnv, key)
	case strings.ContainsAny(value, "\r\n"):
		return fmt.Errorf("%w: value of %q", errUnencodableEnv, key)
	}

	return nil
}

// writeFileAtomic replaces path through a temporary file in the same directory.
func writeFileAtomic(path string, data []byte) error {
	dir, base := filepath.Split(path)

	tmp, err := os.CreateTemp(dir, "."+base+".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}

	tmpName := tmp.Name()

	cleanup := func(cause error) error {
		_ = tmp.Close()
		_ = os.Remove(tmpName)

		return fmt.Errorf("%w: %s: %w", ErrWrite, path, cause)
	}

	if _, err := tmp.Write(data); err != nil {
		return cleanup(err)
	}

	if err := tmp.Sync(); err != nil {
		return cleanup(err)
	}

	if err := tmp.Chmod(serviceFileMode); err != nil {
		return cleanup(err)
	}

	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("%w: %s: %w", ErrWrite, path, err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("%w: %s: %w", ErrWrite, path, err)
	}

	return nil
}

type composeFile struct {
	Services map[string]composeService `yaml:"services"`
}

type composeService struct {
	Labels composeLabels `yaml:"labels"`
}

// composeLabels accepts both the mapping and the "key=value" list form.
type composeLabels map[string]string

func (c *composeLabels) UnmarshalYAML(node *yaml.Node) error {
	labels := make(composeLabels)

	switch node.Kind {
	case yaml.MappingNode:
		for i := 0; i+1 < len(node.Content); i += 2 {
			key, value := node.Content[i], node.Content[i+1]
			if value.Kind == yaml.ScalarNode && value.Tag != "!!null" {
				labels[key.Value] = value.Value
			}
		}
	case yaml.SequenceNode:
		for _, item := range node.Content {
			if item.Kind != yaml.ScalarNode {
				continue
			}

			key, value, _ := strings.Cut(item.Value, "=")
			labels[key] = value
		}
	case yaml.ScalarNode:
		if node.Tag != "!!null" {
			return fmt.Errorf("%w: got %q", errInvalidLabels, node.Value)
		}
	case yaml.AliasNode:
		return c.UnmarshalYAML(node.Alias)
	case yaml.DocumentNode:
		return errInvalidLabels
	}

	*c = labels

	return nil
}

// composeVersion extracts services[name].labels[VersionLabel(name)].
func composeVersion(data []byte, name string) (string, error) {
	var file composeFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return "", err
	}

	version := file.Services[name].Labels[VersionLabel(name)]
	if version == "" {
		return "", fmt.Errorf("%w: %s", errNoVersionLabel, VersionLabel(name))
	}

	return version, nil
}
