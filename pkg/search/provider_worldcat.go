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

// WorldCat queries OCLC WorldCat's SRU endpoint, which answers Dublin
// Core records. The SRU grammar needs a title or an author; a query
// with neither is refused as invalid arguments.
type WorldCat struct {
	abstract
	wsKey string
}

// NewWorldCat creates the OCLC WorldCat provider.
func NewWorldCat(cfg ProviderConfig) *WorldCat {
	return &WorldCat{
		abstract: newAbstract("OCLC WorldCat", cfg.Client, cfg.Log, cfg.Notify),
		wsKey:    cfg.APIKey,
	}
}

func (w *WorldCat) Homepage() string   { return "https://www.worldcat.org/" }
func (w *WorldCat) FavIconURL() string { return "https://www.worldcat.org/favicon.ico" }

// Start begins a WorldCat SRU search.
func (w *WorldCat) Start(ctx context.Context, query Query, numResults int) (<-chan Event, error) {
	events, err := w.begin(1)
	if err != nil {
		return nil, err
	}
	if w.wsKey == "" {
		w.delayedStoppedSearch(ResultAuthorizationRequired)
		return events, nil
	}

	var clauses []string
	if title := query[QueryTitle]; title != "" {
		clauses = append(clauses, fmt.Sprintf(`srw.ti all %q`, title))
	}
	if author := query[QueryAuthor]; author != "" {
		clauses = append(clauses, fmt.Sprintf(`srw.au all %q`, author))
	}
	if len(clauses) == 0 {
		// WorldCat requires a title or an author.
		w.delayedStoppedSearch(ResultInvalidArguments)
		return events, nil
	}
	if year := query[QueryYear]; year != "" {
		clauses = append(clauses, fmt.Sprintf(`srw.yr exact %q`, year))
	}

	q := url.Values{}
	q.Set("query", strings.Join(clauses, " and "))
	q.Set("recordSchema", "info:srw/schema/1/dc")
	q.Set("maximumRecords", fmt.Sprintf("%d", numResults))
	q.Set("wskey", w.wsKey)
	queryURL := "https://www.worldcat.org/webservices/catalog/search/worldcat/sru?" + q.Encode()

	go func() {
		resp, err := w.client.Get(ctx, queryURL, "")
		w.stepDone()
		if ok, _ := w.handleErrors(resp, err); !ok {
			return
		}
		entries, err := worldCatDCSpec.ParseXML(resp.Body)
		if err != nil {
			w.log.Warn("failed to parse SRU response",
				"url", httpclient.RemoveAPIKey(resp.URL.String()), "err", err)
			w.stopSearch(ResultUnspecifiedError)
			return
		}
		for _, entry := range entries {
			w.publishEntry(entry)
		}
		w.stopSearch(ResultNoError)
	}()
	return events, nil
}

// worldCatDCSpec is the declarative parser for SRU Dublin Core
// records.
var worldCatDCSpec = &XMLSpec{
	EntryPath: "//*[local-name()='records']/*[local-name()='record']//*[local-name()='oclcdcs']",
	EntryType: func(*xmlquery.Node) bibtex.EntryType { return bibtex.TypeBook },
	EntryID: func(entry *xmlquery.Node) string {
		return "oclc" + XMLText(entry, "*[local-name()='recordIdentifier']")
	},
	Fields: []XMLFieldRule{
		{Field: bibtex.FieldTitle, Path: "*[local-name()='title']", Transform: collapseSpace},
		{Field: bibtex.FieldAuthor, Build: func(entry *xmlquery.Node) bibtex.Value {
			var v bibtex.Value
			for _, name := range XMLTexts(entry, "*[local-name()='creator']") {
				v = append(v, bibtex.ParsePerson(name))
			}
			return v
		}},
		{Field: bibtex.FieldPublisher, Path: "*[local-name()='publisher']"},
		{Field: bibtex.FieldYear, Path: "*[local-name()='date']", Transform: func(s string) string {
			if m := generalYearRegExp.FindString(s); m != "" {
				return m
			}
			return ""
		}},
		{Field: bibtex.FieldISBN, Kind: KindVerbatim, Build: func(entry *xmlquery.Node) bibtex.Value {
			for _, ident := range XMLTexts(entry, "*[local-name()='identifier']") {
				if isbn := LocateISBN(ident); isbn != "" {
					return bibtex.Value{bibtex.VerbatimText(isbn)}
				}
			}
			return nil
		}},
		{Field: bibtex.FieldAbstract, Path: "*[local-name()='description']", Transform: collapseSpace},
	},
}
