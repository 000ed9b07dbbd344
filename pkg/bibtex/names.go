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

package bibtex

import "strings"

// ParsePerson splits a single name into a Person. Both the
// "Last, First" and the "First Middle Last" forms are understood; a
// trailing ", Jr." style component becomes the suffix.
func ParsePerson(name string) Person {
	name = strings.TrimSpace(name)
	if name == "" {
		return Person{}
	}

	if strings.Contains(name, ",") {
		parts := strings.SplitN(name, ",", 3)
		p := Person{
			Last:  strings.TrimSpace(parts[0]),
			First: strings.TrimSpace(parts[1]),
		}
		if len(parts) == 3 {
			// "Last, Suffix, First" is the classic BibTeX order
			p.Suffix = p.First
			p.First = strings.TrimSpace(parts[2])
		}
		return p
	}

	words := strings.Fields(name)
	if len(words) == 1 {
		return Person{Last: words[0]}
	}
	// Lower-case "particles" (van, von, de, ...) glue to the last name.
	lastStart := len(words) - 1
	for lastStart > 0 && isNameParticle(words[lastStart-1]) {
		lastStart--
	}
	return Person{
		First: strings.Join(words[:lastStart], " "),
		Last:  strings.Join(words[lastStart:], " "),
	}
}

func isNameParticle(word string) bool {
	switch strings.ToLower(word) {
	case "van", "von", "der", "de", "den", "la", "le", "di", "da", "del", "ter":
		return word == strings.ToLower(word)
	}
	return false
}

// SplitNames splits a multi-person string into persons. Separators are
// the BibTeX " and " keyword and semicolons; without either, a text with
// exactly one comma is read as a single "Last, First" name, and a text
// with more commas is split at every comma into a plain list of names.
func SplitNames(text string) []Person {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	var chunks []string
	switch {
	case strings.Contains(text, ";"):
		chunks = strings.Split(text, ";")
	case containsAndSeparator(text):
		chunks = splitOnAnd(text)
	case strings.Contains(text, ","):
		// Could be one "Last, First" or a comma list of full names.
		parts := strings.Split(text, ",")
		if len(parts) == 2 {
			return []Person{ParsePerson(text)}
		}
		chunks = parts
	default:
		chunks = []string{text}
	}

	persons := make([]Person, 0, len(chunks))
	for _, c := range chunks {
		if c = strings.TrimSpace(c); c != "" {
			persons = append(persons, ParsePerson(c))
		}
	}
	return persons
}

func containsAndSeparator(text string) bool {
	lower := strings.ToLower(text)
	return strings.Contains(lower, " and ")
}

func splitOnAnd(text string) []string {
	var out []string
	rest := text
	for {
		lower := strings.ToLower(rest)
		i := strings.Index(lower, " and ")
		if i < 0 {
			out = append(out, rest)
			return out
		}
		out = append(out, rest[:i])
		rest = rest[i+5:]
	}
}
