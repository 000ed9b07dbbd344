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
)

// DOIRegExp matches a Digital Object Identifier.
var DOIRegExp = regexp.MustCompile(`10\.\d{4,}/[^\s"]+`)

// arXivRegExp matches modern and legacy arXiv identifiers, with an
// optional version suffix.
var arXivRegExp = regexp.MustCompile(`(?:arXiv:)?((?:\d{4}\.\d{4,5}|[a-z-]+(?:\.[A-Z]{2})?/\d{7})(?:v\d+)?)`)

// ExtractDOI returns the first DOI found in text, or "".
func ExtractDOI(text string) string {
	doi := DOIRegExp.FindString(text)
	// Trailing punctuation is usually sentence context, not DOI.
	return strings.TrimRight(doi, ".,;")
}

// ExtractArXivID returns the first arXiv identifier found in text,
// or "".
func ExtractArXivID(text string) string {
	m := arXivRegExp.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return m[1]
}

var isbnCandidateRegExp = regexp.MustCompile(`\b(97[89][ -]?)?(\d{1,6}[ -]?){3}[0-9Xx]\b`)

// LocateISBN finds the first checksum-valid ISBN-10 or ISBN-13 in the
// haystack and returns it with separators removed, or "".
func LocateISBN(haystack string) string {
	if haystack == "" {
		return ""
	}
	for _, match := range isbnCandidateRegExp.FindAllString(haystack, -1) {
		needle := strings.NewReplacer("-", "", " ", "").Replace(match)
		switch len(needle) {
		case 10:
			if isbn10ChecksumValid(needle) {
				return needle
			}
		case 13:
			if isbn13ChecksumValid(needle) {
				return needle
			}
		}
	}
	return ""
}

func isbn10ChecksumValid(needle string) bool {
	s, t := 0, 0
	for i := 0; i < 10; i++ {
		d := 0
		switch c := needle[i]; {
		case c == 'X' || c == 'x':
			d = 10
		case c >= '0' && c <= '9':
			d = int(c - '0')
		default:
			return false
		}
		t += d
		s += t
	}
	return s%11 == 0
}

func isbn13ChecksumValid(needle string) bool {
	s := 0
	for i := 0; i < 12; i++ {
		c := needle[i]
		if c < '0' || c > '9' {
			return false
		}
		d := int(c - '0')
		if i%2 == 0 {
			s += d
		} else {
			s += 3 * d
		}
	}
	last := needle[12]
	if last < '0' || last > '9' {
		return false
	}
	return (10-s%10)%10 == int(last-'0')
}
