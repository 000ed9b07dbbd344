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

package main

import (
	"sort"
	"strings"

	"github.com/kraklabs/bibfetch/internal/config"
	"github.com/kraklabs/bibfetch/pkg/bibtex"
)

// sortEntries orders the collected result list the way the configured
// sort order asks: by first author, publication year (newest or
// oldest first) and title, in the chosen precedence.
func sortEntries(entries []*bibtex.Entry, order config.SortOrder) {
	firstAuthor := func(e *bibtex.Entry) string {
		v := e.Get(bibtex.FieldAuthor)
		if len(v) == 0 {
			return ""
		}
		if p, ok := v[0].(bibtex.Person); ok {
			return strings.ToLower(p.Last)
		}
		return strings.ToLower(v[0].Text())
	}
	year := func(e *bibtex.Entry) string { return e.Get(bibtex.FieldYear).Text() }
	title := func(e *bibtex.Entry) string {
		return strings.ToLower(e.Get(bibtex.FieldTitle).Text())
	}

	less := func(i, j int) bool {
		a, b := entries[i], entries[j]
		switch order {
		case config.AuthorOldestTitle:
			return firstNonZero(
				strings.Compare(firstAuthor(a), firstAuthor(b)),
				strings.Compare(year(a), year(b)),
				strings.Compare(title(a), title(b))) < 0
		case config.NewestAuthorTitle:
			return firstNonZero(
				strings.Compare(year(b), year(a)),
				strings.Compare(firstAuthor(a), firstAuthor(b)),
				strings.Compare(title(a), title(b))) < 0
		case config.OldestAuthorTitle:
			return firstNonZero(
				strings.Compare(year(a), year(b)),
				strings.Compare(firstAuthor(a), firstAuthor(b)),
				strings.Compare(title(a), title(b))) < 0
		default: // AuthorNewestTitle
			return firstNonZero(
				strings.Compare(firstAuthor(a), firstAuthor(b)),
				strings.Compare(year(b), year(a)),
				strings.Compare(title(a), title(b))) < 0
		}
	}
	sort.SliceStable(entries, less)
}

func firstNonZero(results ...int) int {
	for _, r := range results {
		if r != 0 {
			return r
		}
	}
	return 0
}
