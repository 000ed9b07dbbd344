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

const zbMathHelperFilterURL = "https://oai.zbmath.org/v1/helper/filter"

// ZbMath queries the zbMATH Open OAI interface. Because the OAI filter
// matches loosely, entries are post-filtered against the user's title
// and free-text fragments before publication.
type ZbMath struct {
	abstract
}

// NewZbMath creates the zbMATH provider.
func NewZbMath(cfg ProviderConfig) *ZbMath {
	return &ZbMath{abstract: newAbstract("zbMATH Open", cfg.Client, cfg.Log, cfg.Notify)}
}

func (z *ZbMath) Homepage() string   { return "https://zbmath.org/" }
func (z *ZbMath) FavIconURL() string { return "https://zbmath.org/favicon.ico" }

func (z *ZbMath) filterString(query Query) string {
	var parts []string
	for _, frag := range SplitRespectingQuotationMarks(query[QueryAuthor]) {
		parts = append(parts, fmt.Sprintf("au:%q", frag))
	}
	for _, frag := range SplitRespectingQuotationMarks(query[QueryTitle]) {
		parts = append(parts, fmt.Sprintf("ti:%q", frag))
	}
	for _, frag := range SplitRespectingQuotationMarks(query[QueryFreeText]) {
		parts = append(parts, fmt.Sprintf("any:%q", frag))
	}
	if year := query[QueryYear]; year != "" {
		parts = append(parts, "py:"+year)
	}
	return strings.Join(parts, " and ")
}

// Start begins a zbMATH OAI search.
func (z *ZbMath) Start(ctx context.Context, query Query, numResults int) (<-chan Event, error) {
	filter := z.filterString(query)
	events, err := z.begin(1)
	if err != nil {
		return nil, err
	}
	if filter == "" {
		z.delayedStoppedSearch(ResultInvalidArguments)
		return events, nil
	}

	// Ensure the expected result count is within a reasonable range.
	if numResults < 1 {
		numResults = 1
	} else if numResults > 1024 {
		numResults = 1024
	}

	q := url.Values{}
	q.Set("metadataPrefix", "oai_zb_preview")
	q.Set("filter", filter)
	queryURL := zbMathHelperFilterURL + "?" + q.Encode()

	titleFragments := lowerAll(SplitRespectingQuotationMarks(query[QueryTitle]))
	freeTextFragments := lowerAll(SplitRespectingQuotationMarks(query[QueryFreeText]))

	go func() {
		resp, err := z.client.GetWithHeaders(ctx, queryURL, "", map[string]string{"Accept": "text/xml"})
		z.stepDone()
		if ok, _ := z.handleErrors(resp, err); !ok {
			return
		}
		entries, err := zbMathOAISpec.ParseXML(resp.Body)
		if err != nil {
			z.log.Warn("failed to parse OAI response",
				"url", httpclient.RemoveAPIKey(resp.URL.String()), "err", err)
			z.stopSearch(ResultUnspecifiedError)
			return
		}
		awaited := numResults
		for _, entry := range entries {
			title := strings.ToLower(entry.Get(bibtex.FieldTitle).Text())
			if !containsAll(title, titleFragments) || !containsAll(title, freeTextFragments) {
				continue
			}
			z.publishEntry(entry)
			awaited--
			if awaited <= 0 {
				break
			}
		}
		z.stopSearch(ResultNoError)
	}()
	return events, nil
}

func lowerAll(fragments []string) []string {
	out := make([]string, len(fragments))
	for i, f := range fragments {
		out[i] = strings.ToLower(strings.Trim(f, `"`))
	}
	return out
}

func containsAll(haystack string, needles []string) bool {
	for _, n := range needles {
		if !strings.Contains(haystack, n) {
			return false
		}
	}
	return true
}

// zbMathOAISpec is the declarative parser for oai_zb_preview records.
var zbMathOAISpec = &XMLSpec{
	EntryPath: "//*[local-name()='record']/*[local-name()='metadata']/*[local-name()='zbmath']",
	EntryType: func(entry *xmlquery.Node) bibtex.EntryType {
		if strings.Contains(strings.ToLower(XMLText(entry, "*[local-name()='document_type']")), "book") {
			return bibtex.TypeBook
		}
		return bibtex.TypeArticle
	},
	EntryID: func(entry *xmlquery.Node) string {
		return "zbMATH" + XMLText(entry, "*[local-name()='document_id']")
	},
	Fields: []XMLFieldRule{
		{Field: bibtex.FieldTitle, Path: "*[local-name()='document_title']", Transform: collapseSpace},
		{Field: bibtex.FieldAuthor, Build: func(entry *xmlquery.Node) bibtex.Value {
			var v bibtex.Value
			for _, name := range XMLTexts(entry, "*[local-name()='author']") {
				for _, person := range bibtex.SplitNames(name) {
					v = append(v, person)
				}
			}
			return v
		}},
		{Field: bibtex.FieldYear, Path: "*[local-name()='publication_year']"},
		{Field: bibtex.FieldJournal, Path: "*[local-name()='serial']/*[local-name()='serial_title']"},
		{Field: bibtex.FieldPublisher, Path: "*[local-name()='serial']/*[local-name()='serial_publisher']"},
		{Field: bibtex.FieldPages, Path: "*[local-name()='pagination']"},
		{Field: bibtex.FieldDOI, Path: "*[local-name()='doi']", Kind: KindVerbatim},
		{Field: bibtex.FieldKeywords, Path: "*[local-name()='keywords']/*[local-name()='keyword']", Kind: KindKeyword},
		{Field: "zbl", Path: "*[local-name()='zbl_id']", Kind: KindVerbatim},
	},
}
