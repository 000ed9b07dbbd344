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
	"strings"

	"github.com/antchfx/xmlquery"

	"github.com/kraklabs/bibfetch/pkg/bibtex"
	"github.com/kraklabs/bibfetch/pkg/httpclient"
)

const ieeeGatewayURL = "https://ieeexplore.ieee.org/gateway/ipsSearch.jsp"

// IEEEXplore queries the IEEE Xplore gateway, which answers a custom
// XML document format. The gateway reports authors as one
// semicolon-separated string; that string is re-parsed through the
// BibTeX name splitter before publication.
type IEEEXplore struct {
	abstract
}

// NewIEEEXplore creates the IEEE Xplore provider.
func NewIEEEXplore(cfg ProviderConfig) *IEEEXplore {
	return &IEEEXplore{abstract: newAbstract("IEEE Xplore", cfg.Client, cfg.Log, cfg.Notify)}
}

func (x *IEEEXplore) Homepage() string   { return "https://ieeexplore.ieee.org/" }
func (x *IEEEXplore) FavIconURL() string { return "https://ieeexplore.ieee.org/favicon.ico" }

func (x *IEEEXplore) buildQueryURL(query Query, numResults int) string {
	var queryText []string
	for _, fragment := range SplitRespectingQuotationMarks(query[QueryFreeText]) {
		queryText = append(queryText, fmt.Sprintf("%q", fragment))
	}
	if title := query[QueryTitle]; title != "" {
		queryText = append(queryText, fmt.Sprintf(`"Document Title":%q`, title))
	}
	for _, author := range SplitRespectingQuotationMarks(query[QueryAuthor]) {
		queryText = append(queryText, fmt.Sprintf(`Author:%q`, author))
	}
	if year := query[QueryYear]; year != "" {
		queryText = append(queryText, fmt.Sprintf(`"Publication Year":%q`, year))
	}

	q := url.Values{}
	q.Set("queryText", strings.Join(queryText, " AND "))
	q.Set("sortfield", "py")
	q.Set("sortorder", "desc")
	q.Set("hc", fmt.Sprintf("%d", numResults))
	q.Set("rs", "1")
	return ieeeGatewayURL + "?" + q.Encode()
}

// Start begins an IEEE Xplore gateway search.
func (x *IEEEXplore) Start(ctx context.Context, query Query, numResults int) (<-chan Event, error) {
	empty := true
	for _, text := range query {
		empty = empty && strings.TrimSpace(text) == ""
	}
	events, err := x.begin(1)
	if err != nil {
		return nil, err
	}
	if empty {
		x.delayedStoppedSearch(ResultInvalidArguments)
		return events, nil
	}

	queryURL := x.buildQueryURL(query, numResults)
	go func() {
		resp, err := x.client.Get(ctx, queryURL, "")
		x.stepDone()
		if ok, _ := x.handleErrors(resp, err); !ok {
			return
		}
		entries, err := ieeeGatewaySpec.ParseXML(resp.Body)
		if err != nil {
			x.log.Warn("failed to parse gateway XML",
				"url", httpclient.RemoveAPIKey(resp.URL.String()), "err", err)
			x.stopSearch(ResultUnspecifiedError)
			return
		}
		for _, entry := range entries {
			x.sanitizeAuthors(entry)
			x.publishEntry(entry)
		}
		x.stopSearch(ResultNoError)
	}()
	return events, nil
}

// sanitizeAuthors replaces the author field with the result of
// splitting the gateway's "x-author" string through the BibTeX name
// splitter (the collaborator's grammar, not a private one).
func (x *IEEEXplore) sanitizeAuthors(entry *bibtex.Entry) {
	xauthor := entry.Get("x-author")
	if xauthor == nil {
		return
	}
	var v bibtex.Value
	for _, person := range bibtex.SplitNames(xauthor.Text()) {
		v = append(v, person)
	}
	entry.Remove("x-author")
	if len(v) > 0 {
		entry.Remove(bibtex.FieldAuthor)
		entry.Set(bibtex.FieldAuthor, v)
	}
}

// ieeeGatewaySpec is the declarative parser for the gateway's
// <document> records.
var ieeeGatewaySpec = &XMLSpec{
	EntryPath: "//root/document",
	EntryType: func(entry *xmlquery.Node) bibtex.EntryType {
		if strings.Contains(strings.ToLower(XMLText(entry, "pubtype")), "conference") {
			return bibtex.TypeInProceedings
		}
		return bibtex.TypeArticle
	},
	EntryID: func(entry *xmlquery.Node) string {
		return "ieee" + XMLText(entry, "arnumber")
	},
	Fields: []XMLFieldRule{
		{Field: bibtex.FieldTitle, Path: "title", Transform: collapseSpace},
		{Field: "x-author", Path: "authors", Kind: KindVerbatim},
		{Field: bibtex.FieldJournal, Path: "pubtitle"},
		{Field: bibtex.FieldYear, Path: "py"},
		{Field: bibtex.FieldVolume, Path: "volume"},
		{Field: bibtex.FieldNumber, Path: "issue"},
		{Field: bibtex.FieldPages, Build: func(entry *xmlquery.Node) bibtex.Value {
			start, end := XMLText(entry, "spage"), XMLText(entry, "epage")
			if start == "" {
				return nil
			}
			pages := start
			if end != "" {
				pages += "–" + end
			}
			return bibtex.Value{bibtex.PlainText(pages)}
		}},
		{Field: bibtex.FieldDOI, Path: "doi", Kind: KindVerbatim},
		{Field: bibtex.FieldISSN, Path: "issn"},
		{Field: bibtex.FieldISBN, Path: "isbn"},
		{Field: bibtex.FieldAbstract, Path: "abstract"},
		{Field: bibtex.FieldURL, Path: "mdurl", Kind: KindVerbatim},
	},
}
