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
	"net/url"
	"strings"

	"github.com/antchfx/xmlquery"

	"github.com/kraklabs/bibfetch/pkg/bibtex"
	"github.com/kraklabs/bibfetch/pkg/httpclient"
)

const isbnDBBooksURL = "https://isbndb.com/api/books.xml"

// ISBNdb looks up book metadata by ISBN or title through the ISBNdb
// XML API. An access key is required.
type ISBNdb struct {
	abstract
	accessKey string
}

// NewISBNdb creates the ISBNdb provider.
func NewISBNdb(cfg ProviderConfig) *ISBNdb {
	return &ISBNdb{
		abstract:  newAbstract("ISBNdb", cfg.Client, cfg.Log, cfg.Notify),
		accessKey: cfg.APIKey,
	}
}

func (i *ISBNdb) Homepage() string   { return "https://isbndb.com/" }
func (i *ISBNdb) FavIconURL() string { return "https://isbndb.com/images/favicon.ico" }

// Start begins an ISBNdb lookup.
func (i *ISBNdb) Start(ctx context.Context, query Query, numResults int) (<-chan Event, error) {
	events, err := i.begin(1)
	if err != nil {
		return nil, err
	}
	if i.accessKey == "" {
		i.delayedStoppedSearch(ResultAuthorizationRequired)
		return events, nil
	}

	q := url.Values{}
	q.Set("access_key", i.accessKey)
	if isbn := LocateISBN(query[QueryFreeText]); isbn != "" {
		q.Set("index1", "isbn")
		q.Set("value1", isbn)
	} else if title := query[QueryTitle]; title != "" {
		q.Set("index1", "title")
		q.Set("value1", title)
	} else if free := query[QueryFreeText]; free != "" {
		q.Set("index1", "full")
		q.Set("value1", free)
	} else {
		i.delayedStoppedSearch(ResultInvalidArguments)
		return events, nil
	}

	queryURL := isbnDBBooksURL + "?" + q.Encode()
	go func() {
		resp, err := i.client.Get(ctx, queryURL, "")
		i.stepDone()
		if ok, _ := i.handleErrors(resp, err); !ok {
			return
		}
		entries, err := isbnDBBookSpec.ParseXML(resp.Body)
		if err != nil {
			i.log.Warn("failed to parse book list",
				"url", httpclient.RemoveAPIKey(resp.URL.String()), "err", err)
			i.stopSearch(ResultUnspecifiedError)
			return
		}
		for n, entry := range entries {
			if n >= numResults {
				break
			}
			i.publishEntry(entry)
		}
		i.stopSearch(ResultNoError)
	}()
	return events, nil
}

// isbnDBBookSpec is the declarative parser for BookList responses.
var isbnDBBookSpec = &XMLSpec{
	EntryPath: "//ISBNdb/BookList/BookData",
	EntryType: func(*xmlquery.Node) bibtex.EntryType { return bibtex.TypeBook },
	EntryID: func(entry *xmlquery.Node) string {
		if isbn := XMLText(entry, "@isbn13"); isbn != "" {
			return "isbn" + isbn
		}
		return "isbn" + XMLText(entry, "@isbn")
	},
	Fields: []XMLFieldRule{
		{Field: bibtex.FieldTitle, Path: "Title", Transform: collapseSpace},
		{Field: bibtex.FieldAuthor, Build: func(entry *xmlquery.Node) bibtex.Value {
			var v bibtex.Value
			for _, person := range bibtex.SplitNames(XMLText(entry, "AuthorsText")) {
				v = append(v, person)
			}
			return v
		}},
		{Field: bibtex.FieldPublisher, Path: "PublisherText", Transform: func(s string) string {
			// "Publisher, City, Year" noise gets trimmed to the name.
			if i := strings.Index(s, ","); i > 0 {
				return strings.TrimSpace(s[:i])
			}
			return s
		}},
		{Field: bibtex.FieldISBN, Path: "@isbn13", Kind: KindVerbatim},
	},
}
