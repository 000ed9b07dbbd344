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

	"github.com/tidwall/gjson"

	"github.com/kraklabs/bibfetch/pkg/bibtex"
	"github.com/kraklabs/bibfetch/pkg/httpclient"
)

// RxivServer selects which preprint server a BioRxiv instance talks
// to; the API is shared between bioRxiv and medRxiv.
type RxivServer string

const (
	BioRxivServer RxivServer = "biorxiv"
	MedRxivServer RxivServer = "medrxiv"
)

// BioRxiv looks a preprint up by DOI through the bioRxiv/medRxiv
// details API.
type BioRxiv struct {
	abstract
	server RxivServer
}

// NewBioRxiv creates a bioRxiv or medRxiv provider depending on the
// server argument.
func NewBioRxiv(cfg ProviderConfig, server RxivServer) *BioRxiv {
	label := "bioRxiv"
	if server == MedRxivServer {
		label = "medRxiv"
	}
	return &BioRxiv{
		abstract: newAbstract(label, cfg.Client, cfg.Log, cfg.Notify),
		server:   server,
	}
}

func (b *BioRxiv) Homepage() string {
	if b.server == MedRxivServer {
		return "https://www.medrxiv.org/"
	}
	return "https://www.biorxiv.org/"
}

func (b *BioRxiv) FavIconURL() string { return b.Homepage() + "favicon.ico" }

// Start begins a preprint lookup; the query must contain a DOI.
func (b *BioRxiv) Start(ctx context.Context, query Query, _ int) (<-chan Event, error) {
	doi := ""
	for _, text := range query {
		if doi = ExtractDOI(text); doi != "" {
			break
		}
	}
	events, err := b.begin(1)
	if err != nil {
		return nil, err
	}
	if doi == "" {
		b.delayedStoppedSearch(ResultInvalidArguments)
		return events, nil
	}

	queryURL := fmt.Sprintf("https://api.biorxiv.org/details/%s/%s/na/json", b.server, doi)
	go func() {
		resp, err := b.client.Get(ctx, queryURL, "")
		b.stepDone()
		if ok, _ := b.handleErrors(resp, err); !ok {
			return
		}
		entries, err := rxivDetailsSpec.ParseJSON(resp.Body)
		if err != nil {
			b.log.Warn("failed to parse details JSON",
				"url", httpclient.RemoveAPIKey(resp.URL.String()), "err", err)
			b.stopSearch(ResultUnspecifiedError)
			return
		}
		// The collection lists one element per revision; the last one
		// is the most recent.
		if len(entries) > 0 {
			b.publishEntry(entries[len(entries)-1])
		}
		b.stopSearch(ResultNoError)
	}()
	return events, nil
}

// rxivDetailsSpec is the declarative parser for details responses.
var rxivDetailsSpec = &JSONSpec{
	EntriesPath: "collection",
	EntryType:   func(gjson.Result) bibtex.EntryType { return bibtex.TypeMisc },
	EntryID: func(entry gjson.Result) string {
		return entry.Get("doi").String()
	},
	Fields: []JSONFieldRule{
		{Field: bibtex.FieldTitle, Path: "title"},
		{Field: bibtex.FieldAuthor, Build: func(entry gjson.Result) bibtex.Value {
			var v bibtex.Value
			for _, person := range bibtex.SplitNames(entry.Get("authors").String()) {
				v = append(v, person)
			}
			return v
		}},
		{Field: bibtex.FieldDOI, Path: "doi", Kind: KindVerbatim},
		{Field: bibtex.FieldAbstract, Path: "abstract"},
		{Field: bibtex.FieldYear, Path: "date", Transform: func(s string) string {
			if len(s) >= 4 {
				return s[:4]
			}
			return ""
		}},
		{Field: bibtex.FieldMonth, Path: "date", Kind: KindMacroKey, Transform: func(s string) string {
			if len(s) >= 7 {
				if m, ok := bibtex.MonthToMacro(s[5:7]); ok {
					return string(m)
				}
			}
			return ""
		}},
		{Field: bibtex.FieldKeywords, Path: "category", Kind: KindKeyword},
		{Field: bibtex.FieldPublisher, Path: "server"},
	},
}
