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
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/kraklabs/bibfetch/pkg/bibtex"
)

const scholarBaseURL = "https://scholar.google.com/"

// scholarBibLinkRegExp finds the per-result BibTeX export links that
// appear once citation export is enabled in the preferences.
var scholarBibLinkRegExp = regexp.MustCompile(`<a href="([^"]*scholar\.bib[^"]*)"`)

// GoogleScholar scrapes Google Scholar: enable BibTeX citation links
// through the preferences form, run the query, then fetch one
// scholar.bib export per result.
type GoogleScholar struct {
	abstract
}

// NewGoogleScholar creates the Google Scholar provider.
func NewGoogleScholar(cfg ProviderConfig) *GoogleScholar {
	return &GoogleScholar{abstract: newAbstract("Google Scholar", cfg.Client, cfg.Log, cfg.Notify)}
}

func (g *GoogleScholar) Homepage() string   { return "https://scholar.google.com/" }
func (g *GoogleScholar) FavIconURL() string { return "https://scholar.google.com/favicon.ico" }

func (g *GoogleScholar) buildQuery(query Query) string {
	var parts []string
	for _, frag := range SplitRespectingQuotationMarks(query[QueryFreeText]) {
		parts = append(parts, frag)
	}
	if title := query[QueryTitle]; title != "" {
		parts = append(parts, fmt.Sprintf("allintitle: %s", title))
	}
	for _, author := range SplitRespectingQuotationMarks(query[QueryAuthor]) {
		parts = append(parts, fmt.Sprintf(`author:%q`, author))
	}
	if year := query[QueryYear]; year != "" {
		parts = append(parts, year)
	}
	return strings.Join(parts, " ")
}

// Start begins the Google Scholar chain.
func (g *GoogleScholar) Start(ctx context.Context, query Query, numResults int) (<-chan Event, error) {
	scholarQuery := g.buildQuery(query)
	events, err := g.begin(3 + numResults)
	if err != nil {
		return nil, err
	}
	if scholarQuery == "" {
		g.delayedStoppedSearch(ResultInvalidArguments)
		return events, nil
	}
	go g.run(ctx, scholarQuery, numResults)
	return events, nil
}

func (g *GoogleScholar) run(ctx context.Context, scholarQuery string, numResults int) {
	// Step 1: fetch the start page (session cookies).
	resp, err := g.client.Get(ctx, scholarBaseURL, "")
	g.stepDone()
	if ok, _ := g.handleErrors(resp, err); !ok {
		return
	}

	// Step 2: enable BibTeX citation export through the preferences
	// form, keeping its hidden fields.
	settingsResp, err := g.client.Get(ctx, scholarBaseURL+"scholar_settings", resp.URL.String())
	g.stepDone()
	if ok, _ := g.handleErrors(settingsResp, err); !ok {
		return
	}
	form := FormParameters(settingsResp.DecodeText(), "<form ")
	form.Set("scis", "yes")
	form.Set("scisf", "4") // citation format: BibTeX

	prefsURL := scholarBaseURL + "scholar_setprefs?" + form.Encode()
	prefsResp, err := g.client.Get(ctx, prefsURL, settingsResp.URL.String())
	g.stepDone()
	if ok, _ := g.handleErrors(prefsResp, err); !ok {
		return
	}

	// Step 3: run the query.
	q := url.Values{}
	q.Set("q", scholarQuery)
	q.Set("hl", "en")
	q.Set("num", fmt.Sprintf("%d", numResults))
	searchResp, err := g.client.Get(ctx, scholarBaseURL+"scholar?"+q.Encode(), prefsResp.URL.String())
	g.stepDone()
	if ok, _ := g.handleErrors(searchResp, err); !ok {
		return
	}

	// Step 4: fetch one BibTeX export per result link.
	links := scholarBibLinkRegExp.FindAllStringSubmatch(searchResp.DecodeText(), -1)
	numFound := 0
	priorURL := searchResp.URL.String()
	for _, m := range links {
		if numFound >= numResults {
			break
		}
		ref, err := url.Parse(DecodeURL(m[1]))
		if err != nil {
			continue
		}
		bibURL := searchResp.URL.ResolveReference(ref).String()
		g.addSteps(1)
		bibResp, err := g.client.Get(ctx, bibURL, priorURL)
		g.stepDone()
		if ok, _ := g.handleErrors(bibResp, err); !ok {
			return
		}
		priorURL = bibResp.URL.String()

		entries, err := bibtex.Parse(bibResp.DecodeText())
		if err != nil {
			g.log.Debug("skipping unparseable citation export", "err", err)
			continue
		}
		for _, entry := range entries {
			if g.publishEntry(entry) {
				numFound++
			}
		}
	}
	g.stopSearch(ResultNoError)
}
