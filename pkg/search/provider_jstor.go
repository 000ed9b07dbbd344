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
	"strings"

	"github.com/kraklabs/bibfetch/pkg/bibtex"
)

const jstorBaseURL = "https://www.jstor.org/"

// JSTOR fetches citations from the JSTOR archive. The archive's
// result list is rendered by JavaScript, which a pure HTTP client
// cannot execute, so free-text search degrades to invalid arguments;
// queries that carry a DOI, a stable identifier or a stable URL go
// straight to the per-item citation export.
type JSTOR struct {
	abstract
}

// NewJSTOR creates the JSTOR provider.
func NewJSTOR(cfg ProviderConfig) *JSTOR {
	return &JSTOR{abstract: newAbstract("JSTOR", cfg.Client, cfg.Log, cfg.Notify)}
}

func (j *JSTOR) Homepage() string   { return "https://www.jstor.org/" }
func (j *JSTOR) FavIconURL() string { return "https://www.jstor.org/favicon.ico" }

// jstorIdentifiersFromQuery finds stable identifiers in the query:
// a 10.2307 DOI, a stable URL, or a bare numeric stable id.
func jstorIdentifiersFromQuery(query Query) []string {
	var ids []string
	seen := make(map[string]bool)
	add := func(id string) {
		id = strings.TrimSpace(id)
		if id != "" && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	for _, text := range query {
		if doi := ExtractDOI(text); doi != "" && strings.HasPrefix(doi, "10.2307/") {
			add(strings.TrimPrefix(doi, "10.2307/"))
		}
		if i := strings.Index(text, "jstor.org/stable/"); i >= 0 {
			rest := text[i+len("jstor.org/stable/"):]
			if j := strings.IndexAny(rest, " ?\"&"); j >= 0 {
				rest = rest[:j]
			}
			add(rest)
		}
	}
	return ids
}

// Start begins a JSTOR citation fetch.
func (j *JSTOR) Start(ctx context.Context, query Query, numResults int) (<-chan Event, error) {
	ids := jstorIdentifiersFromQuery(query)
	events, err := j.begin(2 + len(ids))
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		// Executing the result page's JavaScript is not possible
		// here; without a stable identifier the search cannot work.
		j.delayedStoppedSearch(ResultInvalidArguments)
		return events, nil
	}
	if len(ids) > numResults && numResults > 0 {
		ids = ids[:numResults]
	}
	go j.run(ctx, ids)
	return events, nil
}

func (j *JSTOR) run(ctx context.Context, ids []string) {
	// Step 1: fetch the start page to obtain session cookies, also
	// the ones set through <meta http-equiv="Set-Cookie">.
	resp, err := j.client.Get(ctx, jstorBaseURL, "")
	j.stepDone()
	ok, redirect := j.handleErrors(resp, err)
	for ok && redirect != nil {
		j.addSteps(1)
		resp, err = j.client.Get(ctx, redirect.String(), resp.URL.String())
		j.stepDone()
		ok, redirect = j.handleErrors(resp, err)
	}
	if !ok {
		return
	}
	j.client.CookieJar().MergeHTMLHeadCookies(resp.DecodeText(), resp.URL)
	j.stepDone()

	numFound := 0
	priorURL := resp.URL.String()
	for _, id := range ids {
		citationURL := jstorBaseURL + "citation/text/10.2307/" + id
		citResp, err := j.client.Get(ctx, citationURL, priorURL)
		j.stepDone()
		if ok, _ := j.handleErrors(citResp, err); !ok {
			return
		}
		priorURL = citResp.URL.String()

		entries, err := bibtex.Parse(citResp.DecodeText())
		if err != nil {
			j.log.Debug("skipping unparseable citation", "id", id, "err", err)
			continue
		}
		for _, entry := range entries {
			j.sanitizeJSTOREntry(entry)
			if j.publishEntry(entry) {
				numFound++
			}
		}
	}
	if numFound > 0 {
		j.stopSearch(ResultNoError)
	} else {
		j.stopSearch(ResultUnspecifiedError)
	}
}

var jstorStableURLPrefix = "https://www.jstor.org/stable/"

// sanitizeJSTOREntry derives ids and month information from JSTOR's
// own fields.
func (j *JSTOR) sanitizeJSTOREntry(entry *bibtex.Entry) {
	if doi := ExtractDOI(entry.ID); doi != "" {
		entry.Set(bibtex.FieldDOI, bibtex.Value{bibtex.VerbatimText(doi)})
	}

	if url := entry.Get(bibtex.FieldURL).Text(); strings.HasPrefix(url, jstorStableURLPrefix) {
		stable := strings.ReplaceAll(url[len(jstorStableURLPrefix):], ",", "")
		entry.ID = "jstor" + stable
		entry.Set("jstor_id", bibtex.Value{bibtex.VerbatimText(url[len(jstorStableURLPrefix):])})
	}

	// Guess the month from the beginning of jstor_formatteddate.
	if formatted := entry.Get("jstor_formatteddate").Text(); formatted != "" && !entry.Has(bibtex.FieldMonth) {
		first := strings.FieldsFunc(formatted, func(r rune) bool { return r == ' ' || r == ',' })
		if len(first) > 0 {
			if macro, ok := bibtex.MonthToMacro(first[0]); ok {
				entry.Set(bibtex.FieldMonth, bibtex.Value{macro})
			}
		}
	}
	entry.Remove("jstor_formatteddate")
}
