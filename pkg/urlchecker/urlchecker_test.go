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

package urlchecker

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kraklabs/bibfetch/pkg/bibtex"
	"github.com/kraklabs/bibfetch/pkg/httpclient"
)

func collect(t *testing.T, results <-chan CheckResult) map[string]CheckResult {
	t.Helper()
	out := make(map[string]CheckResult)
	for r := range results {
		if _, dup := out[r.URL]; dup {
			t.Errorf("duplicate verdict for %s", r.URL)
		}
		out[r.URL] = r
	}
	return out
}

func entryWithURL(id, url string) *bibtex.Entry {
	e := bibtex.NewEntry(bibtex.TypeMisc, id)
	e.Set(bibtex.FieldURL, bibtex.Value{bibtex.VerbatimText(url)})
	return e
}

// S5: response classification.
func TestCheck_Classification(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/paper.pdf", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("%PDF-1.5 rest of document"))
	})
	mux.HandleFunc("/gone.pdf", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<!DOCTYPE HTML><html><body>Error 404 - document not found</body></html>"))
	})
	mux.HandleFunc("/page.html", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body>hello</body></html>"))
	})
	mux.HandleFunc("/script.ps", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("%!PS-Adobe-3.0"))
	})
	mux.HandleFunc("/empty", func(w http.ResponseWriter, r *http.Request) {})
	server := httptest.NewServer(mux)
	defer server.Close()

	entries := []*bibtex.Entry{
		entryWithURL("a", server.URL+"/paper.pdf"),
		entryWithURL("b", server.URL+"/gone.pdf"),
		entryWithURL("c", server.URL+"/page.html"),
		entryWithURL("d", server.URL+"/script.ps"),
		entryWithURL("e", server.URL+"/empty"),
	}

	checker := New(httpclient.New(), nil)
	results := collect(t, checker.Check(context.Background(), entries))

	expect := map[string]Status{
		server.URL + "/paper.pdf": URLValid,
		server.URL + "/gone.pdf":  Error404,
		server.URL + "/page.html": URLValid,
		server.URL + "/script.ps": URLValid,
		server.URL + "/empty":     UnknownError,
	}
	for url, want := range expect {
		got, ok := results[url]
		if !ok {
			t.Errorf("no verdict for %s", url)
			continue
		}
		if got.Status != want {
			t.Errorf("%s: status = %v, want %v", url, got.Status, want)
		}
	}
}

func TestCheck_NetworkErrorOnTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Second)
	}))
	defer server.Close()

	checker := New(httpclient.New(httpclient.WithTimeout(50*time.Millisecond)), nil)
	results := collect(t, checker.Check(context.Background(),
		[]*bibtex.Entry{entryWithURL("t", server.URL+"/slow.pdf")}))

	r, ok := results[server.URL+"/slow.pdf"]
	if !ok {
		t.Fatal("no verdict")
	}
	if r.Status != NetworkError {
		t.Errorf("status = %v, want network error", r.Status)
	}
}

func TestCheck_MismatchedExtension(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("plain text, neither PDF nor HTML"))
	}))
	defer server.Close()

	checker := New(httpclient.New(), nil)
	results := collect(t, checker.Check(context.Background(),
		[]*bibtex.Entry{entryWithURL("m", server.URL+"/file.pdf")}))
	if got := results[server.URL+"/file.pdf"].Status; got != UnexpectedFileType {
		t.Errorf("status = %v, want unexpected file type", got)
	}
}

// At most four requests run at once; all queued URLs still get a
// verdict.
func TestCheck_BoundedConcurrency(t *testing.T) {
	var inFlight, peak atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cur := inFlight.Add(1)
		for {
			old := peak.Load()
			if cur <= old || peak.CompareAndSwap(old, cur) {
				break
			}
		}
		time.Sleep(30 * time.Millisecond)
		inFlight.Add(-1)
		w.Write([]byte("<html><body>ok</body></html>"))
	}))
	defer server.Close()

	var entries []*bibtex.Entry
	for i := 0; i < 12; i++ {
		entries = append(entries, entryWithURL(
			strings.Repeat("x", i+1), server.URL+"/page"+strings.Repeat("x", i+1)))
	}

	checker := New(httpclient.New(), nil)
	results := collect(t, checker.Check(context.Background(), entries))
	if len(results) != 12 {
		t.Errorf("verdicts = %d, want 12", len(results))
	}
	if p := peak.Load(); p > 4 {
		t.Errorf("peak concurrency = %d, want <= 4", p)
	}
}

func TestEntryURLs(t *testing.T) {
	e := bibtex.NewEntry(bibtex.TypeArticle, "u1")
	e.Set(bibtex.FieldURL, bibtex.Value{bibtex.VerbatimText("https://example.com/a")})
	e.Set(bibtex.FieldDOI, bibtex.Value{bibtex.VerbatimText("10.1000/xyz")})
	e.Set(bibtex.FieldFile, bibtex.Value{bibtex.VerbatimText("https://example.com/f.pdf")})
	e.Set(bibtex.FieldLocalFile, bibtex.Value{bibtex.VerbatimText("/home/user/f.pdf")})

	urls := EntryURLs(e)
	want := map[string]bool{
		"https://example.com/a":          true,
		"https://dx.doi.org/10.1000/xyz": true,
		"https://example.com/f.pdf":      true,
	}
	if len(urls) != len(want) {
		t.Fatalf("urls = %v", urls)
	}
	for _, u := range urls {
		if !want[u] {
			t.Errorf("unexpected url %s", u)
		}
	}
}
