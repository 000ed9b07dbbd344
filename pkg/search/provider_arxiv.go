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

const arXivQueryBaseURL = "https://export.arxiv.org/api/query?"

// ArXiv queries the arXiv.org Atom API. Entries come back as Atom
// <entry> elements; the free-text "journal reference" string is mined
// for structured journal/volume/pages/year fields with a ranked list
// of regular expressions.
type ArXiv struct {
	abstract
}

// NewArXiv creates the arXiv.org provider.
func NewArXiv(cfg ProviderConfig) *ArXiv {
	return &ArXiv{abstract: newAbstract("arXiv.org", cfg.Client, cfg.Log, cfg.Notify)}
}

func (a *ArXiv) Homepage() string   { return "https://arxiv.org/" }
func (a *ArXiv) FavIconURL() string { return "https://arxiv.org/favicon.ico" }

func (a *ArXiv) buildQueryURL(query Query, numResults int) string {
	var fragments []string
	for _, key := range []QueryKey{QueryFreeText, QueryTitle, QueryAuthor, QueryYear} {
		for _, frag := range SplitRespectingQuotationMarks(query[key]) {
			fragments = append(fragments, EncodeURL(frag))
		}
	}
	// Join search terms with an AND operation.
	return fmt.Sprintf(`%ssearch_query=all:"%s"&start=0&max_results=%d`,
		arXivQueryBaseURL, strings.Join(fragments, `"+AND+all:"`), numResults)
}

// Start begins an arXiv search (a single-request chain).
func (a *ArXiv) Start(ctx context.Context, query Query, numResults int) (<-chan Event, error) {
	hasQuery := false
	for _, text := range query {
		hasQuery = hasQuery || strings.TrimSpace(text) != ""
	}
	events, err := a.begin(1)
	if err != nil {
		return nil, err
	}
	if !hasQuery {
		a.delayedStoppedSearch(ResultInvalidArguments)
		return events, nil
	}

	queryURL := a.buildQueryURL(query, numResults)
	go func() {
		resp, err := a.client.Get(ctx, queryURL, "")
		a.stepDone()
		if ok, _ := a.handleErrors(resp, err); !ok {
			return
		}
		entries, err := parseArXivAtom(resp.Body)
		if err != nil {
			a.log.Warn("failed to parse Atom XML data",
				"url", httpclient.RemoveAPIKey(resp.URL.String()), "err", err)
			a.stopSearch(ResultUnspecifiedError)
			return
		}
		for _, entry := range entries {
			a.publishEntry(entry)
		}
		a.stopSearch(ResultNoError)
	}()
	return events, nil
}

var arXivIDFromURL = regexp.MustCompile(`abs/(([^/v]+/)?\d{4}[.0-9]*)(v(\d+))?$`)

// arXivAtomSpec is the declarative parser for arXiv's Atom feed.
var arXivAtomSpec = &XMLSpec{
	EntryPath: "//feed/entry",
	EntryType: func(*xmlquery.Node) bibtex.EntryType { return bibtex.TypeMisc },
	EntryID: func(entry *xmlquery.Node) string {
		m := arXivIDFromURL.FindStringSubmatch(XMLText(entry, "id"))
		if m == nil {
			return XMLText(entry, "id")
		}
		return "arXiv:" + m[1] + m[3]
	},
	Fields: []XMLFieldRule{
		{Field: bibtex.FieldAbstract, Path: "summary"},
		{Field: bibtex.FieldTitle, Path: "title", Transform: collapseSpace},
		{Field: bibtex.FieldAuthor, Build: func(entry *xmlquery.Node) bibtex.Value {
			var v bibtex.Value
			for _, name := range XMLTexts(entry, "author/name") {
				v = append(v, bibtex.ParsePerson(name))
			}
			return v
		}},
		{Field: bibtex.FieldYear, Path: "published", Transform: func(s string) string {
			if len(s) >= 4 {
				return s[:4]
			}
			return ""
		}},
		{Field: bibtex.FieldMonth, Path: "published", Kind: KindMacroKey, Transform: func(s string) string {
			if len(s) >= 7 {
				if m, ok := bibtex.MonthToMacro(s[5:7]); ok {
					return string(m)
				}
			}
			return ""
		}},
		{Field: "eprint", Path: "id", Kind: KindVerbatim, Transform: func(s string) string {
			if m := arXivIDFromURL.FindStringSubmatch(s); m != nil {
				return m[1]
			}
			return ""
		}},
		{Field: "archiveprefix", Path: "id", Kind: KindVerbatim, Transform: func(string) string { return "arXiv" }},
		{Field: "primaryclass", Path: "*[local-name()='primary_category']/@term", Kind: KindVerbatim},
		{Field: bibtex.FieldURL, Path: "id", Kind: KindVerbatim},
		{Field: bibtex.FieldDOI, Kind: KindVerbatim, Build: func(entry *xmlquery.Node) bibtex.Value {
			if doi := XMLText(entry, "*[local-name()='doi']"); doi != "" {
				return bibtex.Value{bibtex.VerbatimText(doi)}
			}
			// arXiv now assigns a DataCite DOI to every eprint.
			if m := arXivIDFromURL.FindStringSubmatch(XMLText(entry, "id")); m != nil {
				return bibtex.Value{bibtex.VerbatimText("10.48550/arXiv." + m[1])}
			}
			return nil
		}},
	},
}

func parseArXivAtom(data []byte) ([]*bibtex.Entry, error) {
	entries, err := arXivAtomSpec.ParseXML(data)
	if err != nil {
		return nil, err
	}
	doc, err := xmlquery.Parse(strings.NewReader(string(data)))
	if err != nil {
		return nil, err
	}
	nodes := xmlquery.Find(doc, "//feed/entry")
	for i, entry := range entries {
		if i < len(nodes) {
			evaluateJournalReference(XMLText(nodes[i], "*[local-name()='journal_ref']"), entry)
		}
	}
	return entries, nil
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// journalRefRegExps is the ranked pattern list for free-text journal
// references, most specific first. Named groups feed structured
// fields; the first matching pattern wins.
var journalRefRegExps = []*regexp.Regexp{
	// "New J. Phys. 10 (2008) 033023"
	regexp.MustCompile(`(?i)^(?P<journaltitle>[a-z][a-z. &(]+[a-z.)])\s*(?P<volume>\d+)\s+\((?P<year>\d{4})\)\s+(?P<pagestart>[0-9A-Z]+)(-{1,2}(?P<pageend>[0-9A-Z]+))?$`),
	// "The International Journal of Multimedia & Its Applications, 3(1), 2011"
	regexp.MustCompile(`(?i)^(?P<journaltitle>[a-z][a-z. &(]+[a-z)]),\s*(?P<volume>\d+)\((?P<number>\d+)\),\s*(?P<year>\d{4})$`),
	// "International Journal of Quantum Information, Vol. 1, No. 4 (2003) 427-441"
	regexp.MustCompile(`(?i)^(?P<journaltitle>[a-z][a-z. &(]+[a-z)]),\s+Vol\.?\s+(?P<volume>\d+),?\s+No\.?\s+(?P<number>\d+)\s+\((?P<year>\d{4})\),?\s+(pp\.\s+)?(?P<pagestart>\d+)(-{1,2}(?P<pageend>\d+))?$`),
	// "Scientometrics, volume 69, number 3, pp. 669-687, 2006"
	regexp.MustCompile(`(?i)^(?P<journaltitle>[a-z][a-z. &(]+[a-z)]),\s+volume\s+(?P<volume>\d+),\s+number\s+(?P<number>\d+),\s+pp\.\s+(?P<pagestart>\d+)(-{1,2}(?P<pageend>\d+))?,\s+(?P<year>\d{4})$`),
	// "Phys.Rev.Lett.85:5042-5045,2000"
	regexp.MustCompile(`(?i)^(?P<journaltitle>[a-z][a-z. &(]+[a-z.)]),?\s*(?P<volume>\d+)(\((?P<number>\d+)\))?:\s*(?P<pagestart>\d+)(\s*-{1,2}\s*(?P<pageend>\d+))?([, ]\s*\(?(?P<year>\d{4})\)?)?$`),
	// "Phys. Rev. A 71, 032339 (2005)"
	regexp.MustCompile(`^(?P<journaltitle>[a-zA-Z][a-zA-Z. &(]+[a-zA-Z)])\s+(vol\.\s+)?(?P<volume>\d+),\s+(?P<number>\d+)(\([A-Z]+\))?\s+\((?P<year>\d{4})\)\.?$`),
	// "Learned Publishing, 20(1) (January 2007) 16-22"
	regexp.MustCompile(`^(?P<journaltitle>[a-zA-Z][a-zA-Z. &(]+[a-zA-Z)]),\s+(?P<volume>\d+)\((?P<number>\d+)\)\s+(\(([A-Za-z]+\s+)?(?P<year>\d{4})\))?\s+(?P<pagestart>\d+)(-{1,2}(?P<pageend>\d+))?$`),
}

var (
	generalJournalRegExp = regexp.MustCompile(`(?i)^[a-z0-9]{0,3}[a-z. ]+`)
	generalYearRegExp    = regexp.MustCompile(`\b(18|19|20)\d{2}\b`)
	generalPagesRegExp   = regexp.MustCompile(`\b(?P<pagestart>[1-9]\d{0,2})\s*-+\s*(?P<pageend>[1-9]\d{0,2})\b`)
)

// evaluateJournalReference guesses journal, volume, number, pages and
// year from a free-text journal reference. The first pattern that
// matches the whole string wins; otherwise loose fallbacks fill in
// whatever they find.
func evaluateJournalReference(journal string, entry *bibtex.Entry) {
	journal = strings.TrimSpace(journal)
	if journal == "" {
		return
	}
	entry.Remove(bibtex.FieldJournal)

	setText := func(field, text string) {
		if text != "" {
			entry.Set(field, bibtex.Value{bibtex.PlainText(text)})
		}
	}

	for _, re := range journalRefRegExps {
		m := re.FindStringSubmatch(journal)
		if m == nil {
			continue
		}
		group := func(name string) string {
			for i, n := range re.SubexpNames() {
				if n == name && i < len(m) {
					return m[i]
				}
			}
			return ""
		}
		setText(bibtex.FieldJournal, group("journaltitle"))
		setText(bibtex.FieldVolume, group("volume"))
		setText(bibtex.FieldNumber, group("number"))
		if start := group("pagestart"); start != "" {
			pages := start
			if end := group("pageend"); end != "" {
				pages += "–" + end
			}
			setText(bibtex.FieldPages, pages)
		}
		setText(bibtex.FieldYear, group("year"))
		return
	}

	if m := generalJournalRegExp.FindString(journal); m != "" {
		setText(bibtex.FieldJournal, strings.TrimSpace(m))
	}
	if m := generalYearRegExp.FindString(journal); m != "" {
		setText(bibtex.FieldYear, m)
	}
	if m := generalPagesRegExp.FindStringSubmatch(journal); m != nil {
		pages := m[1]
		if m[2] != "" {
			pages += "–" + m[2]
		}
		setText(bibtex.FieldPages, pages)
	}
}
