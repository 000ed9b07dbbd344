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
	"net/http"

	"github.com/kraklabs/bibfetch/pkg/bibtex"
	"github.com/kraklabs/bibfetch/pkg/httpclient"
)

// downloadRequest describes the single request of a Shape A provider.
type downloadRequest struct {
	URL         string
	Method      string // GET when empty
	ContentType string
	Body        []byte
	Headers     map[string]string
}

// simpleDownload is the common skeleton of providers whose whole
// protocol is one request answered with BibTeX text (DOI resolver,
// MR Lookup, Inspire-HEP, Bibsonomy, IngentaConnect). Concrete
// providers supply the request builder and optional entry fixups.
type simpleDownload struct {
	abstract
	homepage   string
	favIconURL string

	// prepare builds the request; returning nil refuses the search
	// with the given result via delayedStoppedSearch.
	prepare func(query Query, numResults int) (*downloadRequest, Result)
	// extract, when set, pulls the BibTeX text out of a body that
	// wraps it (e.g. MR Lookup's <pre> blocks).
	extract func(body string) string
	// fixup, when set, runs on each parsed entry before publication.
	fixup func(entry *bibtex.Entry)
}

func (s *simpleDownload) Homepage() string   { return s.homepage }
func (s *simpleDownload) FavIconURL() string { return s.favIconURL }

func (s *simpleDownload) Start(ctx context.Context, query Query, numResults int) (<-chan Event, error) {
	req, refuse := s.prepare(query, numResults)
	if req == nil {
		events, err := s.begin(1)
		if err != nil {
			return nil, err
		}
		s.delayedStoppedSearch(refuse)
		return events, nil
	}

	events, err := s.begin(1)
	if err != nil {
		return nil, err
	}
	go s.run(ctx, req)
	return events, nil
}

func (s *simpleDownload) run(ctx context.Context, req *downloadRequest) {
	resp, err := s.issue(ctx, req, "")
	s.stepDone()

	ok, redirect := s.handleErrors(resp, err)
	for ok && redirect != nil {
		// Follow a refused redirect manually so the step counter and
		// Referer chain stay honest.
		s.addSteps(1)
		prior := resp.URL.String()
		resp, err = s.client.GetWithHeaders(ctx, redirect.String(), prior, req.Headers)
		s.stepDone()
		ok, redirect = s.handleErrors(resp, err)
	}
	if !ok {
		return
	}

	bibTeX := resp.DecodeText()
	if s.extract != nil {
		bibTeX = s.extract(bibTeX)
	}
	if bibTeX == "" {
		// No hits is a clean completion.
		s.stopSearch(ResultNoError)
		return
	}

	entries, err := bibtex.Parse(bibTeX)
	if err != nil {
		s.log.Warn("response is not parseable BibTeX",
			"url", httpclient.RemoveAPIKey(resp.URL.String()), "err", err)
		s.stopSearch(ResultUnspecifiedError)
		return
	}
	for _, entry := range entries {
		if s.fixup != nil {
			s.fixup(entry)
		}
		s.publishEntry(entry)
	}
	s.stopSearch(ResultNoError)
}

func (s *simpleDownload) issue(ctx context.Context, req *downloadRequest, priorURL string) (*httpclient.Response, error) {
	if req.Method == http.MethodPost {
		headers := map[string]string{}
		for k, v := range req.Headers {
			headers[k] = v
		}
		if req.ContentType != "" {
			headers["Content-Type"] = req.ContentType
		}
		return s.client.PostWithHeaders(ctx, req.URL, req.Body, headers)
	}
	return s.client.GetWithHeaders(ctx, req.URL, priorURL, req.Headers)
}
