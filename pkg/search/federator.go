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
	"log/slog"
	"sync"
	"time"

	"github.com/kraklabs/bibfetch/pkg/bibtex"
)

// FedEvent is one message of a federated search. The stream is: any
// number of FedEntry and FedProgress events, one FedProviderDone per
// provider, then exactly one FedFinished, then the channel closes.
type FedEvent interface{ isFedEvent() }

// FedEntry carries one entry with the provider that produced it.
type FedEntry struct {
	Provider string
	Entry    *bibtex.Entry
}

// FedProgress is the aggregate progress over all providers.
type FedProgress struct {
	Current int
	Total   int
}

// FedProviderDone reports one provider's terminal status.
type FedProviderDone struct {
	Provider string
	Result   Result
}

// FedFinished is emitted once, strictly after every provider's
// terminal event.
type FedFinished struct{}

func (FedEntry) isFedEvent()        {}
func (FedProgress) isFedEvent()     {}
func (FedProviderDone) isFedEvent() {}
func (FedFinished) isFedEvent()     {}

// Federator fans a single query out to every enabled provider,
// aggregates per-provider progress, routes found entries to the
// consumer and detects global completion. It holds no entry storage;
// emitted entries are owned by the consumer.
type Federator struct {
	providers []Provider
	log       *slog.Logger
}

// NewFederator creates a federator over the given providers. All
// providers are expected to share one HTTP client.
func NewFederator(log *slog.Logger, providers ...Provider) *Federator {
	if log == nil {
		log = slog.Default()
	}
	return &Federator{providers: providers, log: log}
}

// Providers returns the provider set in registration order.
func (f *Federator) Providers() []Provider { return f.providers }

// Cancel flags every provider's running search as canceled.
func (f *Federator) Cancel() {
	for _, p := range f.providers {
		p.Cancel()
	}
}

// Search submits one query to every provider and returns the merged
// event stream. Entries arrive interleaved by arrival time; ordering
// across providers is not guaranteed.
func (f *Federator) Search(ctx context.Context, query Query, maxResults int) <-chan FedEvent {
	out := make(chan FedEvent, 32)

	type progressState struct {
		current, total int
	}
	var (
		mu       sync.Mutex
		progress = make([]progressState, len(f.providers))
	)
	overall := func() FedProgress {
		var cur, total int
		for _, ps := range progress {
			cur += ps.current
			total += ps.total
		}
		return FedProgress{Current: cur, Total: total}
	}

	var wg sync.WaitGroup
	for i, p := range f.providers {
		events, err := p.Start(ctx, query, maxResults)
		if err != nil {
			f.log.Warn("provider refused to start", "provider", p.Label(), "err", err)
			out <- FedProviderDone{Provider: p.Label(), Result: ResultUnspecifiedError}
			continue
		}
		wg.Add(1)
		go func(idx int, provider Provider, events <-chan Event) {
			defer wg.Done()
			start := time.Now()
			for ev := range events {
				switch ev := ev.(type) {
				case EntryFound:
					out <- FedEntry{Provider: provider.Label(), Entry: ev.Entry}
				case Progress:
					// The send stays under the lock so aggregated
					// snapshots arrive in non-decreasing order.
					mu.Lock()
					progress[idx] = progressState{current: ev.Current, total: ev.Total}
					out <- overall()
					mu.Unlock()
				case Stopped:
					metricsSearchElapsed(provider.Name(), start)
					out <- FedProviderDone{Provider: provider.Label(), Result: ev.Result}
				}
			}
		}(i, p, events)
	}

	go func() {
		wg.Wait()
		out <- FedFinished{}
		close(out)
	}()
	return out
}

func metricsSearchElapsed(provider string, start time.Time) {
	metrics.searchFinished(provider, time.Since(start))
}
