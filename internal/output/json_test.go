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

package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/kraklabs/bibfetch/pkg/bibtex"
	"github.com/kraklabs/bibfetch/pkg/urlchecker"
)

func sampleEntry() *bibtex.Entry {
	e := bibtex.NewEntry(bibtex.TypeArticle, "vlachou2015")
	e.Set(bibtex.FieldTitle, bibtex.Value{bibtex.PlainText("Disjoint Hypercyclicity")})
	e.Set(bibtex.FieldAuthor, bibtex.Value{bibtex.Person{First: "Vagia", Last: "Vlachou"}})
	e.Set(bibtex.FieldYear, bibtex.Value{bibtex.PlainText("2015")})
	e.Set(bibtex.FieldDOI, bibtex.Value{bibtex.VerbatimText("10.48550/arXiv.1504.00141")})
	e.Set(bibtex.FieldFetchedFrom, bibtex.Value{bibtex.VerbatimText("arXiv.org")})
	return e
}

func TestNewEntryRecord(t *testing.T) {
	record := NewEntryRecord(sampleEntry())

	if record.ID != "vlachou2015" {
		t.Errorf("id = %q", record.ID)
	}
	if record.Type != "article" {
		t.Errorf("type = %q", record.Type)
	}
	if record.Source != "arXiv.org" {
		t.Errorf("source = %q", record.Source)
	}
	if got := record.Fields["author"]; got != "Vagia Vlachou" {
		t.Errorf("author field = %q", got)
	}
	if got := record.Fields["doi"]; got != "10.48550/arXiv.1504.00141" {
		t.Errorf("doi field = %q", got)
	}
	if !strings.Contains(record.BibTeX, "@article{vlachou2015,") {
		t.Errorf("bibtex = %q", record.BibTeX)
	}
}

func TestSearchReportWrite(t *testing.T) {
	var buf bytes.Buffer
	report := NewSearchReport(
		[]*bibtex.Entry{sampleEntry()},
		map[string]string{"arXiv.org": "no error", "PubMed": "network error"},
	)
	if err := report.Write(&buf); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	got := buf.String()

	// Pretty-printed with 2-space indentation and a trailing newline.
	if !strings.Contains(got, "  \"entries\"") {
		t.Errorf("expected 2-space indentation, got: %s", got)
	}
	if !strings.HasSuffix(got, "}\n") {
		t.Errorf("expected trailing newline, got: %q", got)
	}
	if !strings.Contains(got, `"id": "vlachou2015"`) {
		t.Errorf("missing entry id: %s", got)
	}
	if !strings.Contains(got, `"PubMed": "network error"`) {
		t.Errorf("missing provider status: %s", got)
	}

	// The document must round-trip through a JSON decoder.
	var decoded SearchReport
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if len(decoded.Entries) != 1 || decoded.Entries[0].Source != "arXiv.org" {
		t.Errorf("decoded = %+v", decoded)
	}
}

func TestSearchReportEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := NewSearchReport(nil, nil).Write(&buf); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	var decoded SearchReport
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if len(decoded.Entries) != 0 || len(decoded.Providers) != 0 {
		t.Errorf("decoded = %+v, want empty report", decoded)
	}
	// Providers must be an object, not null, for downstream parsers.
	if strings.Contains(buf.String(), `"providers": null`) {
		t.Errorf("providers rendered as null: %s", buf.String())
	}
}

func TestURLReportWrite(t *testing.T) {
	var buf bytes.Buffer
	report := NewURLReport([]urlchecker.CheckResult{
		{URL: "https://example.com/ok.pdf", Status: urlchecker.URLValid},
		{URL: "https://example.com/gone.pdf", Status: urlchecker.Error404, Message: "Got error 404"},
	})
	if err := report.Write(&buf); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	got := buf.String()

	if !strings.Contains(got, `"url": "https://example.com/ok.pdf"`) {
		t.Errorf("missing first verdict: %s", got)
	}
	if !strings.Contains(got, `"status": "valid"`) {
		t.Errorf("missing status text: %s", got)
	}
	if !strings.Contains(got, `"status": "error 404"`) {
		t.Errorf("missing 404 status: %s", got)
	}
	if !strings.Contains(got, `"message": "Got error 404"`) {
		t.Errorf("missing message: %s", got)
	}

	var decoded URLReport
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if len(decoded) != 2 {
		t.Errorf("decoded %d verdicts, want 2", len(decoded))
	}
	// A clean verdict carries no message key.
	if strings.Contains(got, `"message": ""`) {
		t.Errorf("empty message not omitted: %s", got)
	}
}
