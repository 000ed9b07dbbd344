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

// Format renders entries back to BibTeX text. Field order follows each
// entry's insertion order; persons are joined with " and ", keywords
// with "; ", macro keys are emitted bare and everything else is braced.
func Format(entries []*Entry) string {
	var sb strings.Builder
	for i, e := range entries {
		if i > 0 {
			sb.WriteByte('\n')
		}
		formatEntry(&sb, e)
	}
	return sb.String()
}

func formatEntry(sb *strings.Builder, e *Entry) {
	sb.WriteByte('@')
	sb.WriteString(string(e.Type))
	sb.WriteByte('{')
	sb.WriteString(e.ID)
	sb.WriteString(",\n")
	for _, field := range e.Fields() {
		v := e.Get(field)
		if len(v) == 0 {
			continue
		}
		sb.WriteByte('\t')
		sb.WriteString(field)
		sb.WriteString(" = ")
		sb.WriteString(formatValue(v))
		sb.WriteString(",\n")
	}
	sb.WriteString("}\n")
}

func formatValue(v Value) string {
	// A single bare macro key is emitted without braces.
	if len(v) == 1 {
		if m, ok := v[0].(MacroKey); ok {
			return string(m)
		}
	}

	var persons []string
	var keywords []string
	var texts []string
	for _, item := range v {
		switch it := item.(type) {
		case Person:
			persons = append(persons, formatPerson(it))
		case Keyword:
			keywords = append(keywords, string(it))
		default:
			texts = append(texts, item.Text())
		}
	}
	switch {
	case len(persons) > 0:
		return "{" + strings.Join(persons, " and ") + "}"
	case len(keywords) > 0:
		return "{" + strings.Join(keywords, "; ") + "}"
	default:
		return "{" + strings.Join(texts, " ") + "}"
	}
}

func formatPerson(p Person) string {
	var sb strings.Builder
	sb.WriteString(p.Last)
	if p.Suffix != "" {
		sb.WriteString(", ")
		sb.WriteString(p.Suffix)
	}
	if p.First != "" {
		sb.WriteString(", ")
		sb.WriteString(p.First)
	}
	return sb.String()
}
