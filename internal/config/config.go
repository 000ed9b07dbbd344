// Copyright 2026 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config reads and writes the bibfetch configuration file:
// which providers participate in federated searches, per-provider
// credentials, remembered search-form inputs, and the result list's
// sort order.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// SortOrder enumerates the result-list sort orders.
type SortOrder string

const (
	AuthorNewestTitle SortOrder = "AuthorNewestTitle"
	AuthorOldestTitle SortOrder = "AuthorOldestTitle"
	NewestAuthorTitle SortOrder = "NewestAuthorTitle"
	OldestAuthorTitle SortOrder = "OldestAuthorTitle"
)

// ZoteroCredentials holds the user's Zotero API access.
type ZoteroCredentials struct {
	UserID     string `yaml:"userId,omitempty"`
	PrivateKey string `yaml:"privateKey,omitempty"`
}

// Config is the persisted bibfetch configuration.
type Config struct {
	// Engines maps a provider's machine name to its enable flag
	// ("SearchEngineList-Enable<ProviderName>"). Providers without an
	// entry are enabled.
	Engines map[string]bool `yaml:"engines,omitempty"`

	// APIKeys maps a provider's machine name to its API key or token.
	APIKeys map[string]string `yaml:"apikeys,omitempty"`

	// Zotero holds the credentials obtained through the OAuth flow.
	Zotero ZoteroCredentials `yaml:"zotero,omitempty"`

	// FormDefaults remembers the last-used search-form input per
	// provider ("Search Engine <Provider>/<field>").
	FormDefaults map[string]map[string]string `yaml:"formDefaults,omitempty"`

	// SortOrder orders the result-list view.
	SortOrder SortOrder `yaml:"sortOrder,omitempty"`
}

// DefaultPath returns the per-user configuration file location.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "bibfetch", "config.yaml")
}

// Load reads a configuration file. A missing file yields an empty,
// valid configuration.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}
	cfg := &Config{}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the configuration, creating the directory as needed.
func (c *Config) Save(path string) error {
	if path == "" {
		path = DefaultPath()
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("config: create directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}

// EngineEnabled reports whether a provider participates in federated
// search; providers default to enabled.
func (c *Config) EngineEnabled(name string) bool {
	if c.Engines == nil {
		return true
	}
	enabled, ok := c.Engines[name]
	return !ok || enabled
}

// SetEngineEnabled stores a provider's enable flag.
func (c *Config) SetEngineEnabled(name string, enabled bool) {
	if c.Engines == nil {
		c.Engines = make(map[string]bool)
	}
	c.Engines[name] = enabled
}

// APIKey returns the provider's key, or "".
func (c *Config) APIKey(name string) string {
	return c.APIKeys[name]
}

// FormDefault returns a remembered form input.
func (c *Config) FormDefault(provider, field string) string {
	return c.FormDefaults[provider][field]
}

// SetFormDefault remembers a form input.
func (c *Config) SetFormDefault(provider, field, value string) {
	if c.FormDefaults == nil {
		c.FormDefaults = make(map[string]map[string]string)
	}
	if c.FormDefaults[provider] == nil {
		c.FormDefaults[provider] = make(map[string]string)
	}
	c.FormDefaults[provider][field] = value
}
