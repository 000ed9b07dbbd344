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
	"testing"

	"github.com/kraklabs/bibfetch/pkg/bibtex"
)

const arXivAtomFixture = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom" xmlns:arxiv="http://arxiv.org/schemas/atom">
  <title type="html">ArXiv Query: search_query=all:"hypercyclicity"</title>
  <entry>
    <id>http://arxiv.org/abs/1504.00141v1</id>
    <updated>2015-04-01T07:59:46Z</updated>
    <published>2015-04-01T07:59:46Z</published>
    <title>Disjoint Hypercyclicity for families of Taylor-type Operators</title>
    <summary>In this article we study disjoint hypercyclicity.</summary>
    <author>
      <name>Vagia Vlachou</name>
    </author>
    <arxiv:comment>17 pages</arxiv:comment>
    <link href="http://arxiv.org/abs/1504.00141v1" rel="alternate" type="text/html"/>
    <link title="pdf" href="http://arxiv.org/pdf/1504.00141v1" rel="related" type="application/pdf"/>
    <arxiv:primary_category xmlns:arxiv="http://arxiv.org/schemas/atom" term="math.CV" scheme="http://arxiv.org/schemas/atom"/>
    <category term="math.CV" scheme="http://arxiv.org/schemas/atom"/>
  </entry>
</feed>`

// S2: the arXiv Atom parse.
func TestParseArXivAtom(t *testing.T) {
	entries, err := parseArXivAtom([]byte(arXivAtomFixture))
	if err != nil {
		t.Fatalf("parseArXivAtom() error = %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("entry count = %d, want 1", len(entries))
	}
	e := entries[0]

	if e.Type != bibtex.TypeMisc {
		t.Errorf("type = %q, want misc", e.Type)
	}
	if e.ID != "arXiv:1504.00141v1" {
		t.Errorf("id = %q, want arXiv:1504.00141v1", e.ID)
	}
	if got := e.Get(bibtex.FieldTitle).Text(); got != "Disjoint Hypercyclicity for families of Taylor-type Operators" {
		t.Errorf("title = %q", got)
	}

	authors := e.Get(bibtex.FieldAuthor)
	if len(authors) != 1 {
		t.Fatalf("author count = %d", len(authors))
	}
	if p, ok := authors[0].(bibtex.Person); !ok || p.First != "Vagia" || p.Last != "Vlachou" {
		t.Errorf("author = %#v, want Person(Vagia, Vlachou)", authors[0])
	}

	if got := e.Get(bibtex.FieldYear).Text(); got != "2015" {
		t.Errorf("year = %q", got)
	}
	if m, ok := e.Get(bibtex.FieldMonth)[0].(bibtex.MacroKey); !ok || m != "apr" {
		t.Errorf("month = %#v, want MacroKey apr", e.Get(bibtex.FieldMonth))
	}
	if got := e.Get("eprint").Text(); got != "1504.00141" {
		t.Errorf("eprint = %q", got)
	}
	if got := e.Get("archiveprefix").Text(); got != "arXiv" {
		t.Errorf("archiveprefix = %q", got)
	}
	if got := e.Get("primaryclass").Text(); got != "math.CV" {
		t.Errorf("primaryclass = %q", got)
	}
	if got := e.Get(bibtex.FieldURL).Text(); got != "http://arxiv.org/abs/1504.00141v1" {
		t.Errorf("url = %q", got)
	}
	if got := e.Get(bibtex.FieldDOI).Text(); got != "10.48550/arXiv.1504.00141" {
		t.Errorf("doi = %q", got)
	}
}

func TestEvaluateJournalReference(t *testing.T) {
	tests := []struct {
		ref    string
		fields map[string]string
	}{
		{
			"New J. Phys. 10 (2008) 033023",
			map[string]string{"journal": "New J. Phys.", "volume": "10", "year": "2008", "pages": "033023"},
		},
		{
			"Scientometrics, volume 69, number 3, pp. 669-687, 2006",
			map[string]string{"journal": "Scientometrics", "volume": "69", "number": "3", "pages": "669–687", "year": "2006"},
		},
		{
			"JHEP0809:131,2008",
			map[string]string{"journal": "JHEP", "volume": "0809", "pages": "131", "year": "2008"},
		},
		{
			"The International Journal of Multimedia & Its Applications, 3(1), 2011",
			map[string]string{"journal": "The International Journal of Multimedia & Its Applications", "volume": "3", "number": "1", "year": "2011"},
		},
		{
			"Phys. Rev. A 71, 032339 (2005)",
			map[string]string{"journal": "Phys. Rev. A", "volume": "71", "number": "032339", "year": "2005"},
		},
	}
	for _, tt := range tests {
		e := bibtex.NewEntry(bibtex.TypeMisc, "x")
		evaluateJournalReference(tt.ref, e)
		for field, want := range tt.fields {
			if got := e.Get(field).Text(); got != want {
				t.Errorf("ref %q: field %s = %q, want %q", tt.ref, field, got, want)
			}
		}
	}
}

func TestArXivBuildQueryURL(t *testing.T) {
	a := NewArXiv(ProviderConfig{})
	got := a.buildQueryURL(Query{QueryFreeText: `quantum "information theory"`}, 10)
	want := `https://export.arxiv.org/api/query?search_query=all:"quantum"+AND+all:""information+theory""&start=0&max_results=10`
	if got != want {
		t.Errorf("buildQueryURL() =\n%s\nwant\n%s", got, want)
	}
}
