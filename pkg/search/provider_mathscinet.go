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

	"github.com/kraklabs/bibfetch/pkg/bibtex"
)

const (
	mathSciNetFormURL  = "https://mathscinet.ams.org/mathscinet/"
	mathSciNetQueryURL = "https://mathscinet.ams.org/mathscinet/search/publications.html?client=bibfetch"
	// The service rejects batch downloads beyond this size.
	mathSciNetMaxResults = 50
)

var mathSciNetCheckBoxRegExp = regexp.MustCompile(`<input class="hlCheckBox" type="checkbox" name="b" value="(\d+)"`)

// MathSciNet scrapes the AMS Mathematical Reviews search: fetch the
// query form, submit the search, then batch-download the matched
// reviews as BibTeX wrapped in <pre> blocks.
type MathSciNet struct {
	abstract
}

// NewMathSciNet creates the MathSciNet provider.
func NewMathSciNet(cfg ProviderConfig) *MathSciNet {
	return &MathSciNet{abstract: newAbstract("MathSciNet", cfg.Client, cfg.Log, cfg.Notify)}
}

func (m *MathSciNet) Homepage() string {
	return "https://mathscinet.ams.org/mathscinet/help/about.html"
}
func (m *MathSciNet) FavIconURL() string { return "https://mathscinet.ams.org/favicon.ico" }

func (m *MathSciNet) queryParameters(query Query) url.Values {
	params := url.Values{}
	index := 1
	addTerms := func(field, text string) {
		for _, element := range SplitRespectingQuotationMarks(text) {
			params.Set(fmt.Sprintf("pg%d", index), field)
			params.Set(fmt.Sprintf("s%d", index), element)
			index++
		}
	}
	addTerms("ALLF", query[QueryFreeText])
	addTerms("TI", query[QueryTitle])
	addTerms("ICN", query[QueryAuthor])

	if year := query[QueryYear]; year == "" {
		params.Set("dr", "all")
	} else {
		params.Set("dr", "pubyear")
		params.Set("yrop", "eq")
		params.Set("arg3", year)
	}

	// Join search terms with an AND operation.
	for i := 1; i < index; i++ {
		params.Set(fmt.Sprintf("co%d", i), "AND")
	}
	return params
}

// Start begins the three-step MathSciNet chain.
func (m *MathSciNet) Start(ctx context.Context, query Query, numResults int) (<-chan Event, error) {
	params := m.queryParameters(query)
	hasTerms := params.Get("s1") != ""
	events, err := m.begin(3)
	if err != nil {
		return nil, err
	}
	if !hasTerms {
		m.delayedStoppedSearch(ResultInvalidArguments)
		return events, nil
	}
	if numResults > mathSciNetMaxResults {
		numResults = mathSciNetMaxResults
	}
	go m.run(ctx, params, numResults)
	return events, nil
}

func (m *MathSciNet) run(ctx context.Context, params url.Values, numResults int) {
	// Step 1: fetch the query form (session cookies).
	resp, err := m.client.Get(ctx, mathSciNetFormURL, "")
	m.stepDone()
	if ok, _ := m.handleErrors(resp, err); !ok {
		return
	}

	// Step 2: issue the search with the query's parameters.
	searchURL := mathSciNetQueryURL + "&" + params.Encode()
	searchResp, err := m.client.Get(ctx, searchURL, resp.URL.String())
	m.stepDone()
	if ok, _ := m.handleErrors(searchResp, err); !ok {
		return
	}
	htmlText := searchResp.DecodeText()

	// Extract the batch-download form's hidden parameters and the
	// per-result checkboxes.
	form := FormParameters(htmlText, `<form name="batchDownload" action=`)
	batch := url.Values{}
	for _, param := range []string{"foo", "bdl", "reqargs", "batch_title"} {
		for _, value := range form[param] {
			batch.Add(param, value)
		}
	}
	batch.Set("fmt", "bibtex")

	count := 0
	for _, match := range mathSciNetCheckBoxRegExp.FindAllStringSubmatch(htmlText, -1) {
		if count >= numResults {
			break
		}
		batch.Add("b", match[1])
		count++
	}
	if count == 0 {
		m.stopSearch(ResultNoError)
		return
	}

	// Step 3: batch-download the BibTeX code.
	bibResp, err := m.client.Get(ctx, mathSciNetQueryURL+"&"+batch.Encode(), searchResp.URL.String())
	m.stepDone()
	if ok, _ := m.handleErrors(bibResp, err); !ok {
		return
	}

	bibTeX := extractPreBlocks(bibResp.DecodeText())
	entries, err := bibtex.Parse(bibTeX)
	hasEntry := false
	if err == nil {
		for _, entry := range entries {
			hasEntry = m.publishEntry(entry) || hasEntry
		}
	}
	if hasEntry {
		m.stopSearch(ResultNoError)
	} else {
		m.stopSearch(ResultUnspecifiedError)
	}
}
