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

import (
	"strings"
	"testing"
)

func TestParse_SingleArticle(t *testing.T) {
	const input = `@article{smith2020,
	title = {A Study of Things},
	author = {Smith, John and Doe, Jane},
	year = {2020},
	month = apr,
	journal = "Journal of Things",
	volume = {42},
	doi = {10.1000/xyz123},
	keywords = {things, studies},
}`

	entries, err := Parse(input)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("Parse() returned %d entries, want 1", len(entries))
	}
	e := entries[0]
	if e.Type != TypeArticle {
		t.Errorf("entry type = %q, want article", e.Type)
	}
	if e.ID != "smith2020" {
		t.Errorf("entry id = %q, want smith2020", e.ID)
	}
	if got := e.Get(FieldTitle).Text(); got != "A Study of Things" {
		t.Errorf("title = %q", got)
	}

	authors := e.Get(FieldAuthor)
	if len(authors) != 2 {
		t.Fatalf("author count = %d, want 2", len(authors))
	}
	first, ok := authors[0].(Person)
	if !ok {
		t.Fatalf("author[0] is %T, want Person", authors[0])
	}
	if first.First != "John" || first.Last != "Smith" {
		t.Errorf("author[0] = %+v", first)
	}

	month := e.Get(FieldMonth)
	if len(month) != 1 {
		t.Fatalf("month value count = %d", len(month))
	}
	if m, ok := month[0].(MacroKey); !ok || m != "apr" {
		t.Errorf("month = %#v, want MacroKey apr", month[0])
	}

	doi := e.Get(FieldDOI)
	if _, ok := doi[0].(VerbatimText); !ok {
		t.Errorf("doi is %T, want VerbatimText", doi[0])
	}

	keywords := e.Get(FieldKeywords)
	if len(keywords) != 2 {
		t.Fatalf("keyword count = %d, want 2", len(keywords))
	}
	for _, k := range keywords {
		if _, ok := k.(Keyword); !ok {
			t.Errorf("keyword is %T, want Keyword", k)
		}
	}
}

func TestParse_StringMacroAndConcat(t *testing.T) {
	const input = `@string{jot = {Journal of Things}}
@article{a1,
	journal = jot,
	title = {Part One} # { and Two},
}`
	entries, err := Parse(input)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if got := entries[0].Get(FieldJournal).Text(); got != "Journal of Things" {
		t.Errorf("journal = %q", got)
	}
	if got := entries[0].Get(FieldTitle).Text(); got != "Part One and Two" {
		t.Errorf("title = %q", got)
	}
}

func TestParse_BareMacroReference(t *testing.T) {
	const input = `@article{a1,
	crossref = conferenceproceedings,
	journal = somejournalmacro,
	year = 2020,
}`
	entries, err := Parse(input)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	e := entries[0]

	// Unresolvable bare tokens stay typed as macro references.
	if m, ok := e.Get(FieldCrossRef)[0].(MacroKey); !ok || m != "conferenceproceedings" {
		t.Errorf("crossref = %#v, want MacroKey", e.Get(FieldCrossRef)[0])
	}
	if _, ok := e.Get(FieldJournal)[0].(MacroKey); !ok {
		t.Errorf("journal = %#v, want MacroKey", e.Get(FieldJournal)[0])
	}
	// Bare numbers are plain values, not macros.
	if _, ok := e.Get(FieldYear)[0].(PlainText); !ok {
		t.Errorf("year = %#v, want PlainText", e.Get(FieldYear)[0])
	}
}

func TestParse_SkipsCommentsAndMalformed(t *testing.T) {
	const input = `@comment{ignore me}
@article{broken
@book{ok1, title = {Good Book}, year = {1999}}`
	entries, err := Parse(input)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(entries) != 1 || entries[0].ID != "ok1" {
		t.Fatalf("entries = %+v, want only ok1", entries)
	}
}

func TestParse_EmptyInput(t *testing.T) {
	entries, err := Parse("no bibtex here")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("entries = %d, want 0", len(entries))
	}
}

// Round-trip: format(parse(text)) is stable up to whitespace and
// field ordering, which insertion order keeps fixed here.
func TestFormatParseRoundTrip(t *testing.T) {
	e := NewEntry(TypeArticle, "vlachou2015")
	e.Set(FieldTitle, Value{PlainText("Disjoint Hypercyclicity")})
	e.Set(FieldAuthor, Value{Person{First: "Vagia", Last: "Vlachou"}})
	e.Set(FieldYear, Value{PlainText("2015")})
	e.Set(FieldMonth, Value{MacroKey("apr")})
	e.Set(FieldDOI, Value{VerbatimText("10.48550/arXiv.1504.00141")})
	e.Set(FieldKeywords, Value{Keyword("operators"), Keyword("dynamics")})

	text := Format([]*Entry{e})
	parsed, err := Parse(text)
	if err != nil {
		t.Fatalf("Parse(Format()) error = %v", err)
	}
	if len(parsed) != 1 {
		t.Fatalf("round trip lost entries: %d", len(parsed))
	}
	got := parsed[0]
	if got.ID != e.ID || got.Type != e.Type {
		t.Errorf("id/type = %q/%q", got.ID, got.Type)
	}
	for _, field := range e.Fields() {
		want := e.Get(field).Text()
		have := got.Get(field).Text()
		if want != have {
			t.Errorf("field %s: got %q, want %q", field, have, want)
		}
	}
	if _, ok := got.Get(FieldMonth)[0].(MacroKey); !ok {
		t.Errorf("month did not survive as macro: %#v", got.Get(FieldMonth)[0])
	}

	// A second round trip must be byte-stable.
	if again := Format(parsed); again != text {
		t.Errorf("second round trip differs:\n%s\nvs\n%s", again, text)
	}
}

func TestSplitNames(t *testing.T) {
	tests := []struct {
		input string
		want  []Person
	}{
		{"Smith, John and Doe, Jane", []Person{{First: "John", Last: "Smith"}, {First: "Jane", Last: "Doe"}}},
		{"John Smith and Jane Doe", []Person{{First: "John", Last: "Smith"}, {First: "Jane", Last: "Doe"}}},
		{"A. Author; B. Writer", []Person{{First: "A.", Last: "Author"}, {First: "B.", Last: "Writer"}}},
		{"Ludwig van Beethoven", []Person{{First: "Ludwig", Last: "van Beethoven"}}},
		{"Vlachou, Vagia", []Person{{First: "Vagia", Last: "Vlachou"}}},
		{"", nil},
	}
	for _, tt := range tests {
		got := SplitNames(tt.input)
		if len(got) != len(tt.want) {
			t.Errorf("SplitNames(%q) = %v, want %v", tt.input, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("SplitNames(%q)[%d] = %+v, want %+v", tt.input, i, got[i], tt.want[i])
			}
		}
	}
}

func TestMonthToMacro(t *testing.T) {
	tests := []struct {
		input string
		want  string
		ok    bool
	}{
		{"September", "sep", true},
		{"sep", "sep", true},
		{"04", "apr", true},
		{"12", "dec", true},
		{"0", "", false},
		{"13", "", false},
		{"Winter", "", false},
		{"ma", "", false},
		{"may", "may", true},
	}
	for _, tt := range tests {
		got, ok := MonthToMacro(tt.input)
		if ok != tt.ok || string(got) != tt.want {
			t.Errorf("MonthToMacro(%q) = (%q, %v), want (%q, %v)", tt.input, got, ok, tt.want, tt.ok)
		}
	}
}

func TestEntryFieldOrder(t *testing.T) {
	e := NewEntry(TypeMisc, "x")
	e.Set("b", Value{PlainText("1")})
	e.Set("a", Value{PlainText("2")})
	e.Set("b", Value{PlainText("3")}) // replace keeps position
	if got := strings.Join(e.Fields(), ","); got != "b,a" {
		t.Errorf("field order = %s, want b,a", got)
	}
	e.Remove("b")
	if got := strings.Join(e.Fields(), ","); got != "a" {
		t.Errorf("field order after remove = %s, want a", got)
	}
}
