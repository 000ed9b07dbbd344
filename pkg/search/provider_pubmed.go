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
	"regexp"
	"strings"

	"github.com/antchfx/xmlquery"

	"github.com/kraklabs/bibfetch/pkg/bibtex"
	"github.com/kraklabs/bibfetch/pkg/httpclient"
)

const pubMedURLPrefix = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/"

// pmidRegExp auto-detects PMIDs (unique document identifiers) in free
// text search terms.
var pmidRegExp = regexp.MustCompile(`^[0-9]{6,}$`)

// PubMed drives the NCBI E-utilities two-step chain: eSearch turns the
// query into a PMID list, eFetch turns PMIDs into article XML.
type PubMed struct {
	abstract
}

// NewPubMed creates the PubMed provider.
func NewPubMed(cfg ProviderConfig) *PubMed {
	return &PubMed{abstract: newAbstract("PubMed", cfg.Client, cfg.Log, cfg.Notify)}
}

func (p *PubMed) Homepage() string   { return "https://pubmed.ncbi.nlm.nih.gov/" }
func (p *PubMed) FavIconURL() string { return "https://www.ncbi.nlm.nih.gov/favicon.ico" }

func (p *PubMed) buildQueryURL(query Query, numResults int) string {
	var fragments []string
	for _, word := range SplitRespectingQuotationMarks(query[QueryFreeText]) {
		if pmidRegExp.MatchString(word) {
			fragments = append(fragments, word)
		} else {
			fragments = append(fragments, word+"[All Fields]")
		}
	}
	for _, word := range SplitRespectingQuotationMarks(query[QueryYear]) {
		fragments = append(fragments, word)
	}
	for _, word := range SplitRespectingQuotationMarks(query[QueryTitle]) {
		fragments = append(fragments, word+"[Title]")
	}
	for _, word := range SplitRespectingQuotationMarks(query[QueryAuthor]) {
		fragments = append(fragments, word+"[Author]")
	}

	term := strings.Join(fragments, "+AND+")
	term = strings.ReplaceAll(term, `"`, "%22")
	return fmt.Sprintf("%sesearch.fcgi?db=pubmed&tool=bibfetch&term=%s&retstart=0&retmax=%d&retmode=xml",
		pubMedURLPrefix, term, numResults)
}

func (p *PubMed) buildFetchURL(pmids []string) string {
	return pubMedURLPrefix + "efetch.fcgi?retmode=xml&db=pubmed&id=" + strings.Join(pmids, ",")
}

// Start begins the two-step eSearch/eFetch chain.
func (p *PubMed) Start(ctx context.Context, query Query, numResults int) (<-chan Event, error) {
	empty := true
	for _, text := range query {
		empty = empty && strings.TrimSpace(text) == ""
	}
	events, err := p.begin(2)
	if err != nil {
		return nil, err
	}
	if empty {
		p.delayedStoppedSearch(ResultInvalidArguments)
		return events, nil
	}
	go p.run(ctx, query, numResults)
	return events, nil
}

func (p *PubMed) run(ctx context.Context, query Query, numResults int) {
	// Step 1: eSearch
	resp, err := p.client.Get(ctx, p.buildQueryURL(query, numResults), "")
	p.stepDone()
	if ok, _ := p.handleErrors(resp, err); !ok {
		return
	}

	result := resp.DecodeText()
	if strings.Contains(result, "<Count>0</Count>") {
		// Search resulted in no hits, and PubMed told so.
		p.stopSearch(ResultNoError)
		return
	}
	pmids := extractPubMedIDs(result)
	if len(pmids) == 0 {
		p.log.Warn("no ids in eSearch result",
			"url", httpclient.RemoveAPIKey(resp.URL.String()))
		p.stopSearch(ResultUnspecifiedError)
		return
	}

	// Step 2: eFetch full bibliographic details for the found PMIDs
	fetchResp, err := p.client.Get(ctx, p.buildFetchURL(pmids), resp.URL.String())
	p.stepDone()
	if ok, _ := p.handleErrors(fetchResp, err); !ok {
		return
	}

	entries, err := pubMedArticleSetSpec.ParseXML(fetchResp.Body)
	if err != nil || len(entries) == 0 {
		p.log.Warn("no articles in eFetch result",
			"url", httpclient.RemoveAPIKey(fetchResp.URL.String()), "err", err)
		p.stopSearch(ResultUnspecifiedError)
		return
	}
	for _, entry := range entries {
		p.publishEntry(entry)
	}
	p.stopSearch(ResultNoError)
}

// extractPubMedIDs pulls all <Id> values inside <IdList> without
// parsing the whole XML document.
func extractPubMedIDs(result string) []string {
	p1 := strings.Index(result, "<IdList>")
	if p1 < 0 {
		return nil
	}
	p2 := strings.Index(result[p1:], "</IdList>")
	if p2 < 0 {
		return nil
	}
	section := result[p1 : p1+p2]
	var ids []string
	for {
		p3 := strings.Index(section, "<Id>")
		if p3 < 0 {
			break
		}
		p4 := strings.Index(section[p3:], "</Id>")
		if p4 < 0 {
			break
		}
		ids = append(ids, strings.TrimSpace(section[p3+4:p3+p4]))
		section = section[p3+p4+5:]
	}
	return ids
}

// pubMedArticleSetSpec is the declarative parser for eFetch's
// PubmedArticleSet documents.
var pubMedArticleSetSpec = &XMLSpec{
	EntryPath: "//PubmedArticleSet/PubmedArticle",
	EntryType: func(*xmlquery.Node) bibtex.EntryType { return bibtex.TypeArticle },
	EntryID: func(entry *xmlquery.Node) string {
		return "pmid" + XMLText(entry, "MedlineCitation/PMID")
	},
	Fields: []XMLFieldRule{
		{Field: bibtex.FieldAbstract, Path: "MedlineCitation/Article/Abstract/AbstractText"},
		{Field: bibtex.FieldYear, Path: "MedlineCitation/Article/ArticleDate/Year"},
		{Field: bibtex.FieldMonth, Path: "MedlineCitation/Article/ArticleDate/Month", Kind: KindMacroKey,
			Transform: func(s string) string {
				if m, ok := bibtex.MonthToMacro(s); ok {
					return string(m)
				}
				return ""
			}},
		{Field: "pii", Path: "PubmedData/ArticleIdList/ArticleId[@IdType='pii']", Kind: KindVerbatim},
		{Field: "pmid", Path: "PubmedData/ArticleIdList/ArticleId[@IdType='pubmed']", Kind: KindVerbatim},
		{Field: bibtex.FieldDOI, Path: "PubmedData/ArticleIdList/ArticleId[@IdType='doi']", Kind: KindVerbatim},
		{Field: bibtex.FieldAuthor, Build: func(entry *xmlquery.Node) bibtex.Value {
			lastNames := XMLTexts(entry, "MedlineCitation/Article/AuthorList/Author/LastName")
			foreNames := XMLTexts(entry, "MedlineCitation/Article/AuthorList/Author/ForeName")
			var v bibtex.Value
			for i := 0; i < len(lastNames) && i < len(foreNames); i++ {
				v = append(v, bibtex.Person{First: foreNames[i], Last: lastNames[i]})
			}
			return v
		}},
		{Field: bibtex.FieldISSN, Path: "MedlineCitation/Article/Journal/ISSN"},
		{Field: bibtex.FieldVolume, Path: "MedlineCitation/Article/Journal/JournalIssue/Volume"},
		{Field: bibtex.FieldNumber, Path: "MedlineCitation/Article/Journal/JournalIssue/Issue"},
		{Field: bibtex.FieldPages, Path: "MedlineCitation/Article/Pagination/MedlinePgn"},
		{Field: bibtex.FieldTitle, Path: "MedlineCitation/Article/ArticleTitle"},
		{Field: bibtex.FieldJournal, Path: "MedlineCitation/Article/Journal/Title"},
	},
}
