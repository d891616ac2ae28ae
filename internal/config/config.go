/*
Copyright The ORAS Authors.
Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package config loads the YAML configuration file named on the command
// line into the structures cmd/armar wires into the storage and server
// layers.
package config

import (
	"os"

	"go.yaml.in/yaml/v3"

	"github.com/armar-oci/armar/internal/backend"
)

const defaultLocalPath = "/tmp/.armar"

// Server carries the server.* configuration keys.
type Server struct {
	Address string `yaml:"address"`
}

// Local carries the storage.local.* configuration keys.
type Local struct {
	Path string `yaml:"path"`
}

// Storage carries the storage.* configuration keys.
type Storage struct {
	S3    backend.S3Config `yaml:"s3"`
	Local Local            `yaml:"local"`
}

// Config is the full YAML document.
type Config struct {
	Server  Server  `yaml:"server"`
	Storage Storage `yaml:"storage"`
}

// LocalPath returns the configured cache root, defaulting to
// /tmp/.armar when unset.
func (c Config) LocalPath() string {
	if c.Storage.Local.Path == "" {
		return defaultLocalPath
	}
	return c.Storage.Local.Path
}

// Address returns the configured bind address, defaulting to 0.0.0.0.
func (c Config) Address() string {
	if c.Server.Address == "" {
		return "0.0.0.0"
	}
	return c.Server.Address
}

// Load reads and parses the YAML file at path.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
