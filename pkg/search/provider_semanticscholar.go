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
	"strings"

	"github.com/tidwall/gjson"

	"github.com/kraklabs/bibfetch/pkg/bibtex"
	"github.com/kraklabs/bibfetch/pkg/httpclient"
)

// SemanticScholar looks a paper up by DOI or arXiv identifier through
// the Semantic Scholar JSON API. Free-text search is not part of this
// provider's protocol; a query without a recognized identifier is
// refused.
type SemanticScholar struct {
	abstract
}

// NewSemanticScholar creates the Semantic Scholar provider.
func NewSemanticScholar(cfg ProviderConfig) *SemanticScholar {
	return &SemanticScholar{abstract: newAbstract("Semantic Scholar", cfg.Client, cfg.Log, cfg.Notify)}
}

func (s *SemanticScholar) Homepage() string { return "https://www.semanticscholar.org/" }
func (s *SemanticScholar) FavIconURL() string {
	return "https://www.semanticscholar.org/favicon.ico"
}

func (s *SemanticScholar) buildQueryURL(query Query) string {
	for _, text := range query {
		if doi := ExtractDOI(text); doi != "" {
			return "https://api.semanticscholar.org/v1/paper/" + doi
		}
	}
	for _, text := range query {
		if id := ExtractArXivID(text); id != "" {
			return "https://api.semanticscholar.org/v1/paper/arXiv:" + id
		}
	}
	return ""
}

// Start begins a Semantic Scholar lookup.
func (s *SemanticScholar) Start(ctx context.Context, query Query, _ int) (<-chan Event, error) {
	queryURL := s.buildQueryURL(query)
	events, err := s.begin(1)
	if err != nil {
		return nil, err
	}
	if queryURL == "" {
		s.delayedStoppedSearch(ResultInvalidArguments)
		return events, nil
	}

	go func() {
		resp, err := s.client.Get(ctx, queryURL, "")
		s.stepDone()
		if ok, _ := s.handleErrors(resp, err); !ok {
			return
		}
		entries, err := semanticScholarSpec.ParseJSON(resp.Body)
		if err != nil {
			s.log.Warn("failed to parse paper JSON",
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

// semanticScholarSpec is the declarative parser for /v1/paper
// responses (a single JSON object per paper).
var semanticScholarSpec = &JSONSpec{
	EntryType: func(entry gjson.Result) bibtex.EntryType {
		if entry.Get("venue").String() == "" {
			return bibtex.TypeMisc
		}
		return bibtex.TypeArticle
	},
	EntryID: func(entry gjson.Result) string {
		if doi := entry.Get("doi").String(); doi != "" {
			return doi
		}
		if arxiv := entry.Get("arxivId").String(); arxiv != "" {
			return "arXiv:" + arxiv
		}
		return entry.Get("paperId").String()
	},
	Fields: []JSONFieldRule{
		{Field: bibtex.FieldTitle, Path: "title"},
		{Field: bibtex.FieldAuthor, Path: "authors.#.name", Kind: KindPerson},
		{Field: bibtex.FieldYear, Path: "year"},
		{Field: bibtex.FieldJournal, Path: "venue"},
		{Field: bibtex.FieldDOI, Path: "doi", Kind: KindVerbatim},
		{Field: bibtex.FieldURL, Path: "url", Kind: KindVerbatim},
		{Field: bibtex.FieldAbstract, Path: "abstract"},
		{Field: "eprint", Path: "arxivId", Kind: KindVerbatim},
		{Field: "archiveprefix", Path: "arxivId", Kind: KindVerbatim,
			Transform: func(s string) string {
				if strings.TrimSpace(s) == "" {
					return ""
				}
				return "arXiv"
			}},
	},
}
