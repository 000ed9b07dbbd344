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

// springerMetadataKey is the built-in API key for Springer's metadata
// service, stored obfuscated.
var springerMetadataKey = httpclient.ReverseObfuscate([]byte("\x3c\x4a\x82\xe3\x9b\xac\x07\x6a\x90\xf8\x33\x07\xb8\xdd\xa7\x94\xb4\xc3\x8c\xe8\x6c\x5f\x39\x4d\x73\x04\x97\xe3\x48\x3a\xd0\xe9\xdf\xbd\x02\x76\xc3\xae\xcf\xa9\x29\x41\xb3\xc3\x6d\x1d\x58\x6f"))

// SpringerLink queries Springer's metadata API, which answers PAM
// (PRISM Aggregator Message) XML.
type SpringerLink struct {
	abstract
	apiKey string
}

// NewSpringerLink creates the SpringerLink provider. A caller-supplied
// API key overrides the built-in one.
func NewSpringerLink(cfg ProviderConfig) *SpringerLink {
	key := cfg.APIKey
	if key == "" {
		key = springerMetadataKey
	}
	return &SpringerLink{
		abstract: newAbstract("SpringerLink", cfg.Client, cfg.Log, cfg.Notify),
		apiKey:   key,
	}
}

func (s *SpringerLink) Homepage() string   { return "https://link.springer.com/" }
func (s *SpringerLink) FavIconURL() string { return "https://link.springer.com/favicon.ico" }

func (s *SpringerLink) buildQueryURL(query Query, numResults int) string {
	var constraints []string
	for _, frag := range SplitRespectingQuotationMarks(query[QueryFreeText]) {
		constraints = append(constraints, frag)
	}
	for _, frag := range SplitRespectingQuotationMarks(query[QueryTitle]) {
		constraints = append(constraints, fmt.Sprintf("title:%s", frag))
	}
	for _, frag := range SplitRespectingQuotationMarks(query[QueryAuthor]) {
		constraints = append(constraints, fmt.Sprintf("name:%s", frag))
	}
	if year := query[QueryYear]; year != "" {
		constraints = append(constraints, fmt.Sprintf("year:%s", year))
	}

	q := url.Values{}
	q.Set("api_key", s.apiKey)
	q.Set("q", strings.Join(constraints, " "))
	q.Set("p", fmt.Sprintf("%d", numResults))
	return "https://api.springernature.com/metadata/pam?" + q.Encode()
}

// Start begins a SpringerLink metadata search.
func (s *SpringerLink) Start(ctx context.Context, query Query, numResults int) (<-chan Event, error) {
	empty := true
	for _, text := range query {
		empty = empty && strings.TrimSpace(text) == ""
	}
	events, err := s.begin(1)
	if err != nil {
		return nil, err
	}
	if empty {
		s.delayedStoppedSearch(ResultInvalidArguments)
		return events, nil
	}

	queryURL := s.buildQueryURL(query, numResults)
	go func() {
		resp, err := s.client.Get(ctx, queryURL, "")
		s.stepDone()
		if ok, _ := s.handleErrors(resp, err); !ok {
			return
		}
		entries, err := springerPAMSpec.ParseXML(resp.Body)
		if err != nil {
			s.log.Warn("failed to parse PAM response",
				"url", httpclient.RemoveAPIKey(resp.URL.String()), "err", err)
			s.stopSearch(ResultUnspecifiedError)
			return
		}
		for _, entry := range entries {
			s.publishEntry(entry)
		}
		s.stopSearch(ResultNoError)
	}()
	return events, nil
}

// springerPAMSpec is the declarative parser for PAM records. PRISM and
// Dublin Core elements are matched by local name so namespace prefixes
// in the response do not matter.
var springerPAMSpec = &XMLSpec{
	EntryPath: "//records//*[local-name()='article']",
	EntryType: func(entry *xmlquery.Node) bibtex.EntryType {
		if XMLText(entry, ".//*[local-name()='isbn']") != "" {
			return bibtex.TypeInBook
		}
		return bibtex.TypeArticle
	},
	EntryID: func(entry *xmlquery.Node) string {
		if doi := XMLText(entry, ".//*[local-name()='doi']"); doi != "" {
			return doi
		}
		return "springer:" + XMLText(entry, ".//*[local-name()='title']")
	},
	Fields: []XMLFieldRule{
		{Field: bibtex.FieldTitle, Path: ".//*[local-name()='title']", Transform: collapseSpace},
		{Field: bibtex.FieldAuthor, Build: func(entry *xmlquery.Node) bibtex.Value {
			var v bibtex.Value
			for _, name := range XMLTexts(entry, ".//*[local-name()='creator']") {
				v = append(v, bibtex.ParsePerson(name))
			}
			return v
		}},
		{Field: bibtex.FieldJournal, Path: ".//*[local-name()='publicationName']"},
		{Field: bibtex.FieldVolume, Path: ".//*[local-name()='volume']"},
		{Field: bibtex.FieldNumber, Path: ".//*[local-name()='number']"},
		{Field: bibtex.FieldDOI, Path: ".//*[local-name()='doi']", Kind: KindVerbatim},
		{Field: bibtex.FieldISSN, Path: ".//*[local-name()='issn']"},
		{Field: bibtex.FieldISBN, Path: ".//*[local-name()='isbn']"},
		{Field: bibtex.FieldPublisher, Path: ".//*[local-name()='publisher']"},
		{Field: bibtex.FieldAbstract, Path: ".//*[local-name()='body']", Transform: collapseSpace},
		{Field: bibtex.FieldYear, Path: ".//*[local-name()='publicationDate']", Transform: func(s string) string {
			if len(s) >= 4 {
				return s[:4]
			}
			return ""
		}},
		{Field: bibtex.FieldMonth, Path: ".//*[local-name()='publicationDate']", Kind: KindMacroKey,
			Transform: func(s string) string {
				if len(s) >= 7 {
					if m, ok := bibtex.MonthToMacro(s[5:7]); ok {
						return string(m)
					}
				}
				return ""
			}},
		{Field: bibtex.FieldPages, Build: func(entry *xmlquery.Node) bibtex.Value {
			start := XMLText(entry, ".//*[local-name()='startingPage']")
			end := XMLText(entry, ".//*[local-name()='endingPage']")
			if start == "" {
				return nil
			}
			pages := start
			if end != "" {
				pages += "–" + end
			}
			return bibtex.Value{bibtex.PlainText(pages)}
		}},
	},
}
