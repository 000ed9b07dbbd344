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

// Package search implements the provider-federation engine: a uniform
// contract for scholarly search providers, the shared protocol
// helpers, the entry sanitizer, a declarative response-parser DSL, the
// provider fleet, and the federator that fans a query out to every
// enabled provider and streams normalized entries back.
package search

import (
	"context"
	"errors"
	"time"

	"github.com/kraklabs/bibfetch/pkg/bibtex"
)

// QueryKey enumerates the structured query fields.
type QueryKey int

const (
	QueryFreeText QueryKey = iota
	QueryTitle
	QueryAuthor
	QueryYear
)

// String returns the stable configuration name of a query key.
func (k QueryKey) String() string {
	switch k {
	case QueryFreeText:
		return "free"
	case QueryTitle:
		return "title"
	case QueryAuthor:
		return "author"
	case QueryYear:
		return "year"
	}
	return "unknown"
}

// Query maps query keys to user-entered strings. Raw DOIs, arXiv ids
// and ISBNs inside the free-text field are detected by the recognizers
// in ident.go; providers consult them where it matters.
type Query map[QueryKey]string

// Result is the terminal status of one provider search.
type Result int

const (
	// ResultNoError is a clean completion.
	ResultNoError Result = 0
	// ResultCancelled aliases ResultNoError: a user-requested stop is
	// not an error. May get redefined in the future.
	ResultCancelled Result = 0
	// ResultUnspecifiedError covers parse failures and malformed or
	// unexpected responses.
	ResultUnspecifiedError Result = 1
	// ResultAuthorizationRequired maps HTTP 401/407.
	ResultAuthorizationRequired Result = 2
	// ResultNetworkError covers unreachable hosts and timeouts.
	ResultNetworkError Result = 3
	// ResultInvalidArguments means the query lacked fields the
	// provider needs (e.g. WorldCat requires a title or an author).
	ResultInvalidArguments Result = 4
)

func (r Result) String() string {
	switch r {
	case ResultNoError:
		return "no error"
	case ResultUnspecifiedError:
		return "unspecified error"
	case ResultAuthorizationRequired:
		return "authorization required"
	case ResultNetworkError:
		return "network error"
	case ResultInvalidArguments:
		return "invalid arguments"
	}
	return "unknown"
}

// Event is one message emitted by a running search. The stream for a
// single Start call is: any number of EntryFound and Progress events,
// then exactly one Stopped, then the channel closes.
type Event interface{ isEvent() }

// EntryFound carries one sanitized entry.
type EntryFound struct {
	Entry *bibtex.Entry
}

// Progress reports the search's step counter. Total may grow while a
// search runs (redirects, discovered per-item fetches); Current never
// decreases.
type Progress struct {
	Current int
	Total   int
}

// Stopped is the terminal event of a search.
type Stopped struct {
	Result Result
}

func (EntryFound) isEvent() {}
func (Progress) isEvent()   {}
func (Stopped) isEvent()    {}

// ErrSearchInFlight is returned by Start while a previous search on
// the same provider has not yet reached its terminal event.
var ErrSearchInFlight = errors.New("search: a search is already in flight")

// Provider is the uniform contract every scholarly backend implements.
type Provider interface {
	// Label is the human-readable provider name, e.g. "arXiv.org".
	Label() string
	// Name is the stable machine name derived from the label by
	// dropping non-alphanumeric characters.
	Name() string
	// Homepage is the provider's website.
	Homepage() string
	// FavIconURL is where the provider's icon is expected; the favicon
	// locator uses it as a hint.
	FavIconURL() string

	// Start begins a multi-step search and returns its event stream.
	// It returns ErrSearchInFlight if a search is already running.
	Start(ctx context.Context, query Query, maxResults int) (<-chan Event, error)

	// Cancel flags the running search as canceled. In-flight responses
	// still arrive; the first one observed after the flag is set turns
	// into a Cancelled terminal event. No new requests are issued.
	Cancel()
}

// NotifyFunc delivers a best-effort user-visible notification (the
// desktop popup of the original UI). Implementations must not block;
// a nil or no-op function is fine.
type NotifyFunc func(text, title, icon string, timeout time.Duration)
