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

package favicon

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kraklabs/bibfetch/pkg/httpclient"
)

// pngData is a minimal blob with the PNG signature; content beyond
// the magic does not matter for sniffing.
var pngData = append([]byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a}, make([]byte, 16)...)

// icoData carries the Microsoft icon magic.
var icoData = append([]byte{0x00, 0x00, 0x01, 0x00}, make([]byte, 16)...)

func TestLocate_DefaultFavIconLocation(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/favicon.ico", func(w http.ResponseWriter, r *http.Request) {
		w.Write(icoData)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><head></head><body>no icon link</body></html>"))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	cacheDir := t.TempDir()
	locator := New(httpclient.New(), cacheDir, server.URL, "", nil)
	path := <-locator.Locate(context.Background())
	if path == "" {
		t.Fatal("no icon located")
	}
	if !strings.HasSuffix(path, ".ico") {
		t.Errorf("path = %q, want .ico", path)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("icon file missing: %v", err)
	}
}

func TestLocate_LinkRelIcon(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/assets/icon.png", func(w http.ResponseWriter, r *http.Request) {
		w.Write(pngData)
	})
	mux.HandleFunc("/favicon.ico", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head><link rel="icon" href="/assets/icon.png"></head><body></body></html>`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	locator := New(httpclient.New(), t.TempDir(), server.URL, "", nil)
	path := <-locator.Locate(context.Background())
	if !strings.HasSuffix(path, ".png") {
		t.Errorf("path = %q, want .png", path)
	}
}

func TestLocate_CacheHitAndExpiry(t *testing.T) {
	var hits int
	mux := http.NewServeMux()
	mux.HandleFunc("/favicon.ico", func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write(icoData)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html></html>"))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	cacheDir := t.TempDir()

	// First locate fetches and caches.
	first := <-New(httpclient.New(), cacheDir, server.URL, "", nil).Locate(context.Background())
	if first == "" || hits != 1 {
		t.Fatalf("first locate: path %q, hits %d", first, hits)
	}

	// Second locate answers from cache without a request.
	second := <-New(httpclient.New(), cacheDir, server.URL, "", nil).Locate(context.Background())
	if second != first || hits != 1 {
		t.Errorf("second locate: path %q, hits %d, want cache hit", second, hits)
	}

	// An icon older than the expiry is deleted and re-fetched.
	old := time.Now().Add(-91 * 24 * time.Hour)
	if err := os.Chtimes(first, old, old); err != nil {
		t.Fatal(err)
	}
	third := <-New(httpclient.New(), cacheDir, server.URL, "", nil).Locate(context.Background())
	if third == "" || hits != 2 {
		t.Errorf("third locate: path %q, hits %d, want re-fetch", third, hits)
	}
}

func TestLocate_SuggestedURLFirst(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/special.png", func(w http.ResponseWriter, r *http.Request) {
		w.Write(pngData)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	locator := New(httpclient.New(), t.TempDir(), server.URL, server.URL+"/special.png", nil)
	path := <-locator.Locate(context.Background())
	if !strings.HasSuffix(path, ".png") {
		t.Errorf("path = %q, want the suggested icon", path)
	}
}

func TestFindIconLink(t *testing.T) {
	tests := []struct {
		html string
		want string
	}{
		{`<link rel="icon" href="/i.png">`, "/i.png"},
		{`<link rel="shortcut icon" href="fav.ico"/>`, "fav.ico"},
		{`<link rel="stylesheet" href="style.css">`, ""},
		{`<body>no links</body>`, ""},
	}
	for _, tt := range tests {
		if got := findIconLink([]byte(tt.html)); got != tt.want {
			t.Errorf("findIconLink(%q) = %q, want %q", tt.html, got, tt.want)
		}
	}
}

func TestLocate_NothingFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	cacheDir := t.TempDir()
	locator := New(httpclient.New(), cacheDir, server.URL, "", nil)
	if path := <-locator.Locate(context.Background()); path != "" {
		t.Errorf("path = %q, want empty", path)
	}
	if files, _ := filepath.Glob(filepath.Join(cacheDir, "*")); len(files) != 0 {
		t.Errorf("unexpected cache files %v", files)
	}
}
