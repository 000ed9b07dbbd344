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
	"regexp"
	"strings"

	"github.com/kraklabs/bibfetch/pkg/bibtex"
)

var doiURLRegExp = regexp.MustCompile(`(?:https?://)?(?:dx\.)?doi\.org/(10\.\d{4,}/[^\s"]+)`)

// sanitizeEntry normalizes one freshly parsed entry before it is
// emitted to the consumer. Per-field failures drop the field, never
// the entry.
func sanitizeEntry(entry *bibtex.Entry, providerLabel string) {
	// "description" is a common alias for the abstract.
	if entry.Has("description") && !entry.Has(bibtex.FieldAbstract) {
		entry.Rename("description", bibtex.FieldAbstract)
	}

	// Mathematical reviews put the full journal name into "fjournal".
	if fj := entry.Get("fjournal"); fj != nil {
		entry.Remove(bibtex.FieldJournal)
		entry.Remove("fjournal")
		entry.Set(bibtex.FieldJournal, fj)
	}

	moveDOIsFromURL(entry)

	// An entry id that is itself a DOI fills an empty doi field.
	if !entry.Has(bibtex.FieldDOI) {
		if doi := ExtractDOI(entry.ID); doi != "" {
			entry.Set(bibtex.FieldDOI, bibtex.Value{bibtex.VerbatimText(doi)})
		}
	}

	if entry.Has("bookauthor") && !entry.Has(bibtex.FieldAuthor) {
		entry.Rename("bookauthor", bibtex.FieldAuthor)
	}

	// A crossref that is only a macro reference points at an entry
	// that will not exist in the emitted result set.
	if cr := entry.Get(bibtex.FieldCrossRef); len(cr) == 1 {
		if _, isMacro := cr[0].(bibtex.MacroKey); isMacro {
			entry.Remove(bibtex.FieldCrossRef)
		}
	}

	sanitizeMonth(entry)

	// Fields that render to nothing carry no information.
	for _, field := range entry.Fields() {
		if strings.TrimSpace(entry.Get(field).Text()) == "" {
			entry.Remove(field)
		}
	}

	entry.Set(bibtex.FieldFetchedFrom, bibtex.Value{bibtex.VerbatimText(providerLabel)})
}

// moveDOIsFromURL strips doi.org resolver URLs out of the url field
// and files their DOIs under the doi field, deduplicating.
func moveDOIsFromURL(entry *bibtex.Entry) {
	urls := entry.Get(bibtex.FieldURL)
	if urls == nil {
		return
	}
	dois := entry.Get(bibtex.FieldDOI)
	var keptURLs bibtex.Value
	changed := false
	for _, item := range urls {
		m := doiURLRegExp.FindStringSubmatch(item.Text())
		if m == nil {
			keptURLs = append(keptURLs, item)
			continue
		}
		changed = true
		if !dois.ContainsText(m[1]) {
			dois = append(dois, bibtex.VerbatimText(m[1]))
		}
	}
	if !changed {
		return
	}
	if len(keptURLs) == 0 {
		entry.Remove(bibtex.FieldURL)
	} else {
		entry.Set(bibtex.FieldURL, keptURLs)
	}
	if len(dois) > 0 {
		entry.Set(bibtex.FieldDOI, dois)
	}
}

// sanitizeMonth maps a textual month to its macro key; failing that it
// keeps a comma-separated prefix (seasons like "Winter, late").
func sanitizeMonth(entry *bibtex.Entry) {
	v := entry.Get(bibtex.FieldMonth)
	if len(v) != 1 {
		return
	}
	pt, isPlain := v[0].(bibtex.PlainText)
	if !isPlain {
		return
	}
	text := string(pt)
	if macro, ok := bibtex.MonthToMacro(text); ok {
		entry.Set(bibtex.FieldMonth, bibtex.Value{macro})
		return
	}
	if i := strings.Index(text, ","); i > 0 {
		entry.Set(bibtex.FieldMonth, bibtex.Value{bibtex.PlainText(strings.TrimSpace(text[:i]))})
	}
}
