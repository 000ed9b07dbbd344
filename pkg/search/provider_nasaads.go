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
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/kraklabs/bibfetch/pkg/bibtex"
	"github.com/kraklabs/bibfetch/pkg/httpclient"
)

const (
	adsAPISearchURL = "https://api.adsabs.harvard.edu/v1/search/query"
	adsAPIExportURL = "https://api.adsabs.harvard.edu/v1/export/bibtexabs"
)

// NASAADS drives the SAO/NASA Astrophysics Data System two-step
// chain: the search API finds bibcodes, the export API turns them
// into BibTeX. An API token is required.
type NASAADS struct {
	abstract
	apiKey string
}

// NewNASAADS creates the NASA ADS provider.
func NewNASAADS(cfg ProviderConfig) *NASAADS {
	return &NASAADS{
		abstract: newAbstract("SAO/NASA ADS", cfg.Client, cfg.Log, cfg.Notify),
		apiKey:   cfg.APIKey,
	}
}

func (n *NASAADS) Homepage() string   { return "https://ui.adsabs.harvard.edu/" }
func (n *NASAADS) FavIconURL() string { return "https://ui.adsabs.harvard.edu/favicon.ico" }

func (n *NASAADS) buildQuery(query Query) string {
	var clauses []string
	if free := query[QueryFreeText]; free != "" {
		clauses = append(clauses, free)
	}
	if title := query[QueryTitle]; title != "" {
		clauses = append(clauses, fmt.Sprintf("title:%q", title))
	}
	for _, author := range SplitRespectingQuotationMarks(query[QueryAuthor]) {
		clauses = append(clauses, fmt.Sprintf("author:%q", author))
	}
	if year := query[QueryYear]; year != "" {
		clauses = append(clauses, "year:"+year)
	}
	return strings.Join(clauses, " ")
}

// Start begins the search/export chain.
func (n *NASAADS) Start(ctx context.Context, query Query, numResults int) (<-chan Event, error) {
	adsQuery := n.buildQuery(query)
	events, err := n.begin(2)
	if err != nil {
		return nil, err
	}
	if n.apiKey == "" {
		n.delayedStoppedSearch(ResultAuthorizationRequired)
		return events, nil
	}
	if adsQuery == "" {
		n.delayedStoppedSearch(ResultInvalidArguments)
		return events, nil
	}
	go n.run(ctx, adsQuery, numResults)
	return events, nil
}

func (n *NASAADS) run(ctx context.Context, adsQuery string, numResults int) {
	authHeader := map[string]string{"Authorization": "Bearer " + n.apiKey}

	// Step 1: search for bibcodes
	q := url.Values{}
	q.Set("q", adsQuery)
	q.Set("fl", "bibcode")
	q.Set("rows", fmt.Sprintf("%d", numResults))
	resp, err := n.client.GetWithHeaders(ctx, adsAPISearchURL+"?"+q.Encode(), "", authHeader)
	n.stepDone()
	if ok, _ := n.handleErrors(resp, err); !ok {
		return
	}

	var bibcodes []string
	for _, doc := range gjson.GetBytes(resp.Body, "response.docs.#.bibcode").Array() {
		bibcodes = append(bibcodes, doc.String())
	}
	if len(bibcodes) == 0 {
		n.stopSearch(ResultNoError)
		return
	}

	// Step 2: export the bibcodes as BibTeX
	payload, _ := json.Marshal(map[string]any{"bibcode": bibcodes})
	headers := map[string]string{
		"Authorization": "Bearer " + n.apiKey,
		"Content-Type":  "application/json",
	}
	exportResp, err := n.client.PostWithHeaders(ctx, adsAPIExportURL, payload, headers)
	n.stepDone()
	if ok, _ := n.handleErrors(exportResp, err); !ok {
		return
	}

	bibTeX := gjson.GetBytes(exportResp.Body, "export").String()
	entries, err := bibtex.Parse(bibTeX)
	if err != nil {
		n.log.Warn("export is not parseable BibTeX",
			"url", httpclient.RemoveAPIKey(exportResp.URL.String()), "err", err)
		n.stopSearch(ResultUnspecifiedError)
		return
	}
	for _, entry := range entries {
		n.publishEntry(entry)
	}
	n.stopSearch(ResultNoError)
}
