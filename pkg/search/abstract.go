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

package search

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"regexp"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kraklabs/bibfetch/pkg/bibtex"
	"github.com/kraklabs/bibfetch/pkg/httpclient"
)

// delayedStopDelay postpones the terminal event of a search that was
// refused immediately, so consumers wired up after Start still see it.
const delayedStopDelay = 500 * time.Millisecond

var nonAlphaNum = regexp.MustCompile(`[^a-zA-Z0-9]`)

// abstract carries the state and helpers shared by every provider.
// Concrete providers embed it and run their request chain in a single
// goroutine per search, so each chain stays strictly sequential.
type abstract struct {
	client *httpclient.Client
	log    *slog.Logger
	notify NotifyFunc

	label string
	name  string

	mu      sync.Mutex
	running bool
	events  chan Event

	canceled atomic.Bool

	curStep  int
	numSteps int
}

func newAbstract(label string, client *httpclient.Client, log *slog.Logger, notify NotifyFunc) abstract {
	if log == nil {
		log = slog.Default()
	}
	if notify == nil {
		notify = func(string, string, string, time.Duration) {}
	}
	return abstract{
		client: client,
		log:    log.With("provider", label),
		notify: notify,
		label:  label,
		name:   nonAlphaNum.ReplaceAllString(label, ""),
	}
}

func (a *abstract) Label() string { return a.label }
func (a *abstract) Name() string  { return a.name }

// Cancel sets the canceled flag; handleErrors observes it on the next
// response delivery.
func (a *abstract) Cancel() { a.canceled.Store(true) }

// begin transitions into the running state and allocates the event
// stream. numSteps is the initial step estimate for progress.
func (a *abstract) begin(numSteps int) (chan Event, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.running {
		return nil, ErrSearchInFlight
	}
	a.running = true
	a.canceled.Store(false)
	a.curStep = 0
	a.numSteps = numSteps
	a.events = make(chan Event, 16)
	a.events <- Progress{Current: 0, Total: numSteps}
	return a.events, nil
}

// stepDone advances the step counter and emits progress.
func (a *abstract) stepDone() {
	a.curStep++
	a.events <- Progress{Current: a.curStep, Total: a.numSteps}
}

// addSteps grows the step total (redirects, discovered per-item
// fetches) so the progress stays monotonically non-decreasing.
func (a *abstract) addSteps(n int) {
	a.numSteps += n
}

// publishEntry sanitizes an entry, stamps the provider label and
// forwards it to the consumer. It reports whether the entry was
// non-nil and thus published.
func (a *abstract) publishEntry(entry *bibtex.Entry) bool {
	if entry == nil {
		return false
	}
	sanitizeEntry(entry, a.label)
	metrics.entryFound(a.name)
	a.events <- EntryFound{Entry: entry}
	return true
}

// stopSearch emits the terminal event and closes the stream. Exactly
// one call per search.
func (a *abstract) stopSearch(result Result) {
	a.mu.Lock()
	if !a.running {
		a.mu.Unlock()
		return
	}
	a.running = false
	a.mu.Unlock()

	if result == ResultNoError {
		a.curStep = a.numSteps
		a.events <- Progress{Current: a.curStep, Total: a.numSteps}
	}
	metrics.searchStopped(a.name, result)
	a.events <- Stopped{Result: result}
	close(a.events)
}

// delayedStoppedSearch schedules a terminal emission shortly after a
// Start that refuses immediately (e.g. an empty query).
func (a *abstract) delayedStoppedSearch(result Result) {
	go func() {
		time.Sleep(delayedStopDelay)
		a.events <- Progress{Current: 1, Total: 1}
		a.stopSearch(result)
	}()
}

// handleErrors is the central response classifier. It returns true iff
// the response is usable; on false the terminal event has already been
// emitted. A non-nil redirect asks the caller to re-issue the request
// at the new location.
func (a *abstract) handleErrors(resp *httpclient.Response, err error) (ok bool, redirect *url.URL) {
	if a.canceled.Load() {
		a.log.Debug("search got cancelled")
		a.stopSearch(ResultCancelled)
		return false, nil
	}

	if err != nil {
		a.canceled.Store(true)
		result := classifyTransportError(err)
		a.log.Warn("search failed", "err", err, "result", result.String())
		a.notify("Searching '"+a.label+"' failed with error message:\n\n"+err.Error(),
			a.label, "bibfetch", 7*time.Second)
		a.stopSearch(result)
		return false, nil
	}

	if resp.StatusCode >= 400 {
		a.canceled.Store(true)
		result := ResultUnspecifiedError
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusProxyAuthRequired {
			result = ResultAuthorizationRequired
		}
		a.log.Warn("search failed", "status", resp.StatusCode,
			"url", httpclient.RemoveAPIKey(resp.URL.String()), "result", result.String())
		a.notify("Searching '"+a.label+"' failed for unknown reason.",
			a.label, "bibfetch", 7*time.Second)
		a.stopSearch(result)
		return false, nil
	}

	// The following are indicators of problems handled elsewhere, so
	// returning true is fine.
	if resp.Redirect != nil {
		a.log.Debug("redirection", "from", httpclient.RemoveAPIKey(resp.URL.String()),
			"to", httpclient.RemoveAPIKey(resp.Redirect.String()))
		return true, resp.Redirect
	}
	if len(resp.Body) == 0 {
		a.log.Warn("search returned no data", "url", httpclient.RemoveAPIKey(resp.URL.String()))
	}
	return true, nil
}

func classifyTransportError(err error) Result {
	if errors.Is(err, context.DeadlineExceeded) || os.IsTimeout(err) {
		return ResultNetworkError
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return ResultNetworkError
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ResultNetworkError
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return ResultNetworkError
	}
	return ResultUnspecifiedError
}
