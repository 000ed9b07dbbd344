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

	"github.com/tidwall/gjson"

	"github.com/kraklabs/bibfetch/pkg/bibtex"
	"github.com/kraklabs/bibfetch/pkg/httpclient"
)

// unpaywallContactEMail identifies this client to the Unpaywall API,
// stored obfuscated.
var unpaywallContactEMail = httpclient.ReverseObfuscate([]byte("\xa4\xc9\x1d\x72\x07\x64\xbe\x90\x47\x34\x3f\x5d\x3a\x5b\x24\x48\xbd\xd6\x1b\x7a\xae\xdc\xbe\xd5\xe5\xa5\x8c\xe4\x17\x74\x98\xec\x6d\x08\x09\x6f\x08\x6a\x18\x71\x38\x5a"))

// Unpaywall resolves a DOI to its open-access locations, or searches
// titles when no DOI is in the query.
type Unpaywall struct {
	abstract
}

// NewUnpaywall creates the Unpaywall provider.
func NewUnpaywall(cfg ProviderConfig) *Unpaywall {
	return &Unpaywall{abstract: newAbstract("Unpaywall", cfg.Client, cfg.Log, cfg.Notify)}
}

func (u *Unpaywall) Homepage() string   { return "https://unpaywall.org/" }
func (u *Unpaywall) FavIconURL() string { return "https://unpaywall.org/favicon.ico" }

// Start begins an Unpaywall lookup or search.
func (u *Unpaywall) Start(ctx context.Context, query Query, numResults int) (<-chan Event, error) {
	queryURL, isSearch := "", false
	for _, text := range query {
		if doi := ExtractDOI(text); doi != "" {
			queryURL = "https://api.unpaywall.org/v2/" + doi + "?email=" + unpaywallContactEMail
			break
		}
	}
	if queryURL == "" {
		free := strings.TrimSpace(query[QueryFreeText] + " " + query[QueryTitle])
		if free != "" {
			queryURL = "https://api.unpaywall.org/v2/search/?query=" +
				url.QueryEscape(free) + "&email=" + unpaywallContactEMail
			isSearch = true
		}
	}

	events, err := u.begin(1)
	if err != nil {
		return nil, err
	}
	if queryURL == "" {
		u.delayedStoppedSearch(ResultInvalidArguments)
		return events, nil
	}

	go func() {
		resp, err := u.client.Get(ctx, queryURL, "")
		u.stepDone()
		if ok, _ := u.handleErrors(resp, err); !ok {
			return
		}
		spec := unpaywallSingleSpec
		if isSearch {
			spec = unpaywallSearchSpec
		}
		entries, err := spec.ParseJSON(resp.Body)
		if err != nil {
			u.log.Warn("failed to parse response JSON",
				"url", httpclient.RemoveAPIKey(resp.URL.String()), "err", err)
			u.stopSearch(ResultUnspecifiedError)
			return
		}
		for n, entry := range entries {
			if n >= numResults {
				break
			}
			u.publishEntry(entry)
		}
		u.stopSearch(ResultNoError)
	}()
	return events, nil
}

func unpaywallFields(prefix string) []JSONFieldRule {
	p := func(path string) string {
		if prefix == "" {
			return path
		}
		return prefix + "." + path
	}
	return []JSONFieldRule{
		{Field: bibtex.FieldTitle, Path: p("title")},
		{Field: bibtex.FieldDOI, Path: p("doi"), Kind: KindVerbatim},
		{Field: bibtex.FieldYear, Path: p("year")},
		{Field: bibtex.FieldJournal, Path: p("journal_name")},
		{Field: bibtex.FieldISSN, Path: p("journal_issns")},
		{Field: bibtex.FieldPublisher, Path: p("publisher")},
		{Field: bibtex.FieldAuthor, Build: func(entry gjson.Result) bibtex.Value {
			var v bibtex.Value
			for _, author := range entry.Get(p("z_authors")).Array() {
				v = append(v, bibtex.Person{
					First: author.Get("given").String(),
					Last:  author.Get("family").String(),
				})
			}
			return v
		}},
		{Field: bibtex.FieldURL, Path: p("best_oa_location.url"), Kind: KindVerbatim},
	}
}

var unpaywallSingleSpec = &JSONSpec{
	EntryType: func(entry gjson.Result) bibtex.EntryType {
		switch entry.Get("genre").String() {
		case "book", "monograph":
			return bibtex.TypeBook
		case "proceedings-article":
			return bibtex.TypeInProceedings
		case "journal-article":
			return bibtex.TypeArticle
		}
		return bibtex.TypeMisc
	},
	EntryID: func(entry gjson.Result) string { return entry.Get("doi").String() },
	Fields:  unpaywallFields(""),
}

var unpaywallSearchSpec = &JSONSpec{
	EntriesPath: "results",
	EntryType:   func(gjson.Result) bibtex.EntryType { return bibtex.TypeArticle },
	EntryID:     func(entry gjson.Result) string { return entry.Get("response.doi").String() },
	Fields:      unpaywallFields("response"),
}
