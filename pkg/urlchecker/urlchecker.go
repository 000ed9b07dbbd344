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

// Package urlchecker verifies the URLs referenced by bibliographic
// entries with bounded concurrency and classifies each response.
package urlchecker

import (
	"context"
	"log/slog"
	"net/url"
	"path"
	"regexp"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/kraklabs/bibfetch/pkg/bibtex"
	"github.com/kraklabs/bibfetch/pkg/httpclient"
)

// maxInFlight caps the number of simultaneous requests.
const maxInFlight = 4

// finishDebounce coalesces trailing completions before the result
// channel closes.
const finishDebounce = 100 * time.Millisecond

// sniffLimit is how many body bytes classification looks at.
const sniffLimit = 1024

// Status classifies one checked URL.
type Status int

const (
	// URLValid means filename and content agree and nothing looks
	// broken.
	URLValid Status = iota
	// UnexpectedFileType means the filename's extension does not
	// match the content.
	UnexpectedFileType
	// Error404 means the server answered with a not-found page.
	Error404
	// NetworkError means the request itself failed.
	NetworkError
	// UnknownError covers empty responses and other oddities.
	UnknownError
)

func (s Status) String() string {
	switch s {
	case URLValid:
		return "valid"
	case UnexpectedFileType:
		return "unexpected file type"
	case Error404:
		return "error 404"
	case NetworkError:
		return "network error"
	}
	return "unknown error"
}

// CheckResult is the verdict for one URL.
type CheckResult struct {
	URL     string
	Status  Status
	Message string
}

var error404RegExp = regexp.MustCompile(`\b404\b`)

// Checker probes URLs referenced by entries.
type Checker struct {
	client *httpclient.Client
	log    *slog.Logger
}

// New creates a Checker on the shared HTTP client.
func New(client *httpclient.Client, log *slog.Logger) *Checker {
	if log == nil {
		log = slog.Default()
	}
	return &Checker{client: client, log: log}
}

// EntryURLs collects the set of URLs referenced by an entry: its url
// values, its DOIs (as resolver URLs), and its file/localfile values
// that look like URLs.
func EntryURLs(entry *bibtex.Entry) []string {
	var urls []string
	seen := make(map[string]bool)
	add := func(u string) {
		u = strings.TrimSpace(u)
		if u != "" && !seen[u] {
			seen[u] = true
			urls = append(urls, u)
		}
	}
	for _, item := range entry.Get(bibtex.FieldURL) {
		add(item.Text())
	}
	for _, item := range entry.Get(bibtex.FieldDOI) {
		add("https://dx.doi.org/" + item.Text())
	}
	for _, field := range []string{bibtex.FieldFile, bibtex.FieldLocalFile} {
		for _, item := range entry.Get(field) {
			if text := item.Text(); strings.Contains(text, "://") {
				add(text)
			}
		}
	}
	return urls
}

// Check probes every URL referenced by the given entries,
// deduplicated across entries, with at most four requests in flight.
// Results stream on the returned channel; the channel closes after
// the last verdict plus a short debounce.
func (c *Checker) Check(ctx context.Context, entries []*bibtex.Entry) <-chan CheckResult {
	seen := make(map[string]bool)
	var queue []string
	for _, entry := range entries {
		for _, u := range EntryURLs(entry) {
			if !seen[u] {
				seen[u] = true
				queue = append(queue, u)
			}
		}
	}

	out := make(chan CheckResult, maxInFlight)
	go func() {
		defer func() {
			time.Sleep(finishDebounce)
			close(out)
		}()
		if len(queue) == 0 {
			return
		}

		sem := semaphore.NewWeighted(maxInFlight)
		var wg sync.WaitGroup
		for _, checkURL := range queue {
			if err := sem.Acquire(ctx, 1); err != nil {
				break
			}
			wg.Add(1)
			go func(checkURL string) {
				defer wg.Done()
				defer sem.Release(1)
				result := c.checkOne(ctx, checkURL)
				metricsURLChecked(result.Status)
				out <- result
			}(checkURL)
		}
		wg.Wait()
	}()
	return out
}

func (c *Checker) checkOne(ctx context.Context, checkURL string) CheckResult {
	resp, err := c.client.Get(ctx, checkURL, "")
	if err != nil {
		c.log.Warn("network error", "url", httpclient.RemoveAPIKey(checkURL), "err", err)
		return CheckResult{URL: checkURL, Status: NetworkError, Message: err.Error()}
	}

	data := resp.Body
	if len(data) > sniffLimit {
		data = data[:sniffLimit]
	}
	if len(data) == 0 {
		c.log.Warn("no data received", "url", httpclient.RemoveAPIKey(checkURL))
		return CheckResult{URL: checkURL, Status: UnknownError, Message: "No data received"}
	}

	filename := ""
	if u, err := url.Parse(checkURL); err == nil {
		filename = strings.ToLower(path.Base(u.Path))
		if filename == "." || filename == "/" {
			filename = ""
		}
	}
	filenameSuggestsHTML := filename == "" ||
		strings.HasSuffix(filename, ".html") || strings.HasSuffix(filename, ".htm") ||
		!strings.Contains(filename, ".")
	filenameSuggestsPDF := strings.HasSuffix(filename, ".pdf")
	filenameSuggestsPostScript := strings.HasSuffix(filename, ".ps")
	containsHTML := bytesContainsAny(data, "<!DOCTYPE HTML", "<!doctype html", "<html", "<HTML", "<body", "<BODY")
	containsPDF := strings.HasPrefix(string(data), "%PDF")
	containsPostScript := strings.HasPrefix(string(data), "%!")

	switch {
	case filenameSuggestsPDF && containsPDF:
		return CheckResult{URL: checkURL, Status: URLValid}
	case filenameSuggestsPostScript && containsPostScript:
		return CheckResult{URL: checkURL, Status: URLValid}
	case containsHTML:
		if error404RegExp.FindString(string(data)) != "" {
			c.log.Warn("error 404", "url", httpclient.RemoveAPIKey(checkURL))
			return CheckResult{URL: checkURL, Status: Error404, Message: "Got error 404"}
		}
		if filenameSuggestsHTML {
			return CheckResult{URL: checkURL, Status: URLValid}
		}
		return CheckResult{URL: checkURL, Status: UnexpectedFileType,
			Message: "Filename's extension does not match content"}
	case filenameSuggestsPDF != containsPDF:
		return CheckResult{URL: checkURL, Status: UnexpectedFileType,
			Message: "Filename's extension does not match content"}
	case filenameSuggestsPostScript != containsPostScript:
		return CheckResult{URL: checkURL, Status: UnexpectedFileType,
			Message: "Filename's extension does not match content"}
	default:
		return CheckResult{URL: checkURL, Status: URLValid}
	}
}

func bytesContainsAny(data []byte, needles ...string) bool {
	s := string(data)
	for _, needle := range needles {
		if strings.Contains(s, needle) {
			return true
		}
	}
	return false
}
