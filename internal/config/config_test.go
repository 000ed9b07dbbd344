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

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_MissingFileIsEmptyConfig(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope", "config.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !cfg.EngineEnabled("arXivorg") {
		t.Error("providers must default to enabled")
	}
	if cfg.APIKey("IEEEXplore") != "" {
		t.Error("unexpected API key")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bibfetch", "config.yaml")

	cfg := &Config{}
	cfg.SetEngineEnabled("JSTOR", false)
	cfg.SetEngineEnabled("PubMed", true)
	cfg.APIKeys = map[string]string{"SAONASAADS": "token123"}
	cfg.Zotero = ZoteroCredentials{UserID: "42", PrivateKey: "key"}
	cfg.SetFormDefault("arXivorg", "freeText", "hypercyclicity")
	cfg.SortOrder = NewestAuthorTitle

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.EngineEnabled("JSTOR") {
		t.Error("JSTOR should be disabled")
	}
	if !loaded.EngineEnabled("PubMed") || !loaded.EngineEnabled("Unlisted") {
		t.Error("enabled providers lost")
	}
	if got := loaded.APIKey("SAONASAADS"); got != "token123" {
		t.Errorf("api key = %q", got)
	}
	if loaded.Zotero.UserID != "42" || loaded.Zotero.PrivateKey != "key" {
		t.Errorf("zotero = %+v", loaded.Zotero)
	}
	if got := loaded.FormDefault("arXivorg", "freeText"); got != "hypercyclicity" {
		t.Errorf("form default = %q", got)
	}
	if loaded.SortOrder != NewestAuthorTitle {
		t.Errorf("sort order = %q", loaded.SortOrder)
	}
}

func TestLoad_RejectsBrokenYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(":\n\t- not yaml"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}
