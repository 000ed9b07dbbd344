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

	"github.com/tidwall/gjson"

	"github.com/kraklabs/bibfetch/pkg/bibtex"
	"github.com/kraklabs/bibfetch/pkg/httpclient"
)

// GoogleBooks searches the Google Books volumes API. An ISBN found in
// the free-text field turns into an isbn: query.
type GoogleBooks struct {
	abstract
}

// NewGoogleBooks creates the Google Books provider.
func NewGoogleBooks(cfg ProviderConfig) *GoogleBooks {
	return &GoogleBooks{abstract: newAbstract("Google Books", cfg.Client, cfg.Log, cfg.Notify)}
}

func (g *GoogleBooks) Homepage() string   { return "https://books.google.com/" }
func (g *GoogleBooks) FavIconURL() string { return "https://books.google.com/favicon.ico" }

func (g *GoogleBooks) buildQueryURL(query Query, numResults int) string {
	var parts []string
	if isbn := LocateISBN(query[QueryFreeText]); isbn != "" {
		parts = append(parts, "isbn:"+isbn)
	} else {
		for _, frag := range SplitRespectingQuotationMarks(query[QueryFreeText]) {
			parts = append(parts, frag)
		}
		if title := query[QueryTitle]; title != "" {
			parts = append(parts, fmt.Sprintf("intitle:%q", title))
		}
		for _, author := range SplitRespectingQuotationMarks(query[QueryAuthor]) {
			parts = append(parts, fmt.Sprintf("inauthor:%q", author))
		}
	}
	if len(parts) == 0 {
		return ""
	}
	q := url.Values{}
	q.Set("q", strings.Join(parts, " "))
	q.Set("maxResults", fmt.Sprintf("%d", min(numResults, 40)))
	return "https://www.googleapis.com/books/v1/volumes?" + q.Encode()
}

// Start begins a Google Books search.
func (g *GoogleBooks) Start(ctx context.Context, query Query, numResults int) (<-chan Event, error) {
	queryURL := g.buildQueryURL(query, numResults)
	events, err := g.begin(1)
	if err != nil {
		return nil, err
	}
	if queryURL == "" {
		g.delayedStoppedSearch(ResultInvalidArguments)
		return events, nil
	}

	go func() {
		resp, err := g.client.Get(ctx, queryURL, "")
		g.stepDone()
		if ok, _ := g.handleErrors(resp, err); !ok {
			return
		}
		entries, err := googleBooksSpec.ParseJSON(resp.Body)
		if err != nil {
			g.log.Warn("failed to parse volumes JSON",
				"url", httpclient.RemoveAPIKey(resp.URL.String()), "err", err)
			g.stopSearch(ResultUnspecifiedError)
			return
		}
		for n, entry := range entries {
			if n >= numResults {
				break
			}
			g.publishEntry(entry)
		}
		g.stopSearch(ResultNoError)
	}()
	return events, nil
}

// googleBooksSpec is the declarative parser for volumes responses.
var googleBooksSpec = &JSONSpec{
	EntriesPath: "items",
	EntryType:   func(gjson.Result) bibtex.EntryType { return bibtex.TypeBook },
	EntryID: func(entry gjson.Result) string {
		for _, ident := range entry.Get("volumeInfo.industryIdentifiers").Array() {
			if ident.Get("type").String() == "ISBN_13" {
				return "isbn" + ident.Get("identifier").String()
			}
		}
		return "googlebooks" + entry.Get("id").String()
	},
	Fields: []JSONFieldRule{
		{Field: bibtex.FieldTitle, Path: "volumeInfo.title"},
		{Field: bibtex.FieldAuthor, Path: "volumeInfo.authors", Kind: KindPerson},
		{Field: bibtex.FieldPublisher, Path: "volumeInfo.publisher"},
		{Field: bibtex.FieldYear, Path: "volumeInfo.publishedDate", Transform: func(s string) string {
			if len(s) >= 4 {
				return s[:4]
			}
			return ""
		}},
		{Field: bibtex.FieldMonth, Path: "volumeInfo.publishedDate", Kind: KindMacroKey,
			Transform: func(s string) string {
				if len(s) >= 7 {
					if m, ok := bibtex.MonthToMacro(s[5:7]); ok {
						return string(m)
					}
				}
				return ""
			}},
		{Field: bibtex.FieldISBN, Kind: KindVerbatim, Build: func(entry gjson.Result) bibtex.Value {
			for _, ident := range entry.Get("volumeInfo.industryIdentifiers").Array() {
				if ident.Get("type").String() == "ISBN_13" {
					return bibtex.Value{bibtex.VerbatimText(ident.Get("identifier").String())}
				}
			}
			return nil
		}},
		{Field: bibtex.FieldURL, Path: "volumeInfo.infoLink", Kind: KindVerbatim},
		{Field: bibtex.FieldAbstract, Path: "volumeInfo.description"},
		{Field: bibtex.FieldKeywords, Path: "volumeInfo.categories", Kind: KindKeyword},
	},
}
