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

package assoc

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kraklabs/bibfetch/pkg/bibtex"
)

// S6: relative path between bibliography and document.
func TestRelativeFilename(t *testing.T) {
	tests := []struct {
		name     string
		document string
		base     string
		want     string
	}{
		{
			"same host",
			"https://example.com/documents/paper.pdf",
			"https://example.com/bibliography/all.bib",
			"../documents/paper.pdf",
		},
		{
			"different hosts",
			"https://other.com/documents/paper.pdf",
			"https://example.com/bibliography/all.bib",
			"https://other.com/documents/paper.pdf",
		},
		{
			"same directory",
			"file:///home/user/bib/paper.pdf",
			"file:///home/user/bib/all.bib",
			"paper.pdf",
		},
		{
			"invalid document",
			"",
			"https://example.com/all.bib",
			"",
		},
		{
			"missing base",
			"https://example.com/documents/paper.pdf",
			"",
			"https://example.com/documents/paper.pdf",
		},
	}
	for _, tt := range tests {
		if got := RelativeFilename(tt.document, tt.base); got != tt.want {
			t.Errorf("%s: RelativeFilename() = %q, want %q", tt.name, got, tt.want)
		}
	}
}

// A relative associate string never starts with a slash or a scheme
// unless the bases disagree (then it is the document's raw form).
func TestRelativeFilename_Shape(t *testing.T) {
	docs := []string{
		"https://example.com/a/b/c.pdf",
		"https://example.com/c.pdf",
	}
	for _, doc := range docs {
		got := RelativeFilename(doc, "https://example.com/bib/all.bib")
		if strings.HasPrefix(got, "/") || strings.Contains(got, "://") {
			t.Errorf("relative form %q looks absolute", got)
		}
	}
}

func TestAbsoluteFilename(t *testing.T) {
	tests := []struct {
		document string
		base     string
		want     string
	}{
		{"paper.pdf", "https://example.com/bib/all.bib", "https://example.com/bib/paper.pdf"},
		{"../docs/paper.pdf", "file:///home/u/bib/all.bib", "/home/u/docs/paper.pdf"},
		{"https://other.com/p.pdf", "https://example.com/bib/all.bib", "https://other.com/p.pdf"},
		{"", "https://example.com/bib/all.bib", ""},
	}
	for _, tt := range tests {
		if got := AbsoluteFilename(tt.document, tt.base); got != tt.want {
			t.Errorf("AbsoluteFilename(%q, %q) = %q, want %q", tt.document, tt.base, got, tt.want)
		}
	}
}

// The absolute associate string keeps the document's scheme (or is
// empty for an invalid document).
func TestComputeAssociateString_SchemeInvariant(t *testing.T) {
	docs := []string{"https://example.com/x.pdf", "file:///tmp/x.pdf", ""}
	for _, doc := range docs {
		got := ComputeAssociateString(doc, "https://example.com/bib/all.bib", Absolute)
		if got == "" {
			continue
		}
		if strings.Contains(doc, "://") && strings.Contains(got, "://") {
			if strings.SplitN(doc, ":", 2)[0] != strings.SplitN(got, ":", 2)[0] {
				t.Errorf("scheme changed: %q -> %q", doc, got)
			}
		}
	}
}

func TestComputeSourceDestinationURLs(t *testing.T) {
	srcAbs, target, err := ComputeSourceDestinationURLs(
		"file:///tmp/source/document.pdf", "smith2020",
		"file:///home/u/bib/all.bib", EntryID, "")
	if err != nil {
		t.Fatalf("error = %v", err)
	}
	if srcAbs != "file:///tmp/source/document.pdf" {
		t.Errorf("srcAbs = %q", srcAbs)
	}
	if target != "file:///home/u/bib/smith2020.pdf" {
		t.Errorf("target = %q", target)
	}

	// Extension defaults to html when missing.
	_, target, err = ComputeSourceDestinationURLs(
		"https://example.com/view", "smith2020",
		"https://example.com/bib/all.bib", EntryID, "")
	if err != nil {
		t.Fatalf("error = %v", err)
	}
	if !strings.HasSuffix(target, "/bib/smith2020.html") {
		t.Errorf("target = %q, want .../bib/smith2020.html", target)
	}
}

func TestCopyDocument(t *testing.T) {
	dir := t.TempDir()
	srcPath := filepath.Join(dir, "src", "paper.pdf")
	if err := os.MkdirAll(filepath.Dir(srcPath), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(srcPath, []byte("%PDF fake"), 0o644); err != nil {
		t.Fatal(err)
	}
	bibPath := filepath.Join(dir, "bib", "all.bib")
	if err := os.MkdirAll(filepath.Dir(bibPath), 0o755); err != nil {
		t.Fatal(err)
	}

	// None is a no-op returning the source.
	got, err := CopyDocument("file://"+srcPath, "e1", "file://"+bibPath, EntryID, None, "")
	if err != nil || got != "file://"+srcPath {
		t.Fatalf("None: got %q, err %v", got, err)
	}

	target, err := CopyDocument("file://"+srcPath, "e1", "file://"+bibPath, EntryID, Copy, "")
	if err != nil {
		t.Fatalf("Copy: error = %v", err)
	}
	copied := filepath.Join(dir, "bib", "e1.pdf")
	if !strings.HasSuffix(target, "/bib/e1.pdf") {
		t.Errorf("target = %q", target)
	}
	if _, err := os.Stat(copied); err != nil {
		t.Errorf("copied file missing: %v", err)
	}
	if _, err := os.Stat(srcPath); err != nil {
		t.Errorf("source vanished on copy: %v", err)
	}

	_, err = CopyDocument("file://"+srcPath, "e2", "file://"+bibPath, EntryID, Move, "")
	if err != nil {
		t.Fatalf("Move: error = %v", err)
	}
	if _, err := os.Stat(srcPath); !os.IsNotExist(err) {
		t.Errorf("source still present after move")
	}
	if _, err := os.Stat(filepath.Join(dir, "bib", "e2.pdf")); err != nil {
		t.Errorf("moved file missing: %v", err)
	}
}

func TestInsertURL(t *testing.T) {
	e := bibtex.NewEntry(bibtex.TypeArticle, "i1")
	got := InsertURL("https://example.com/documents/paper.pdf", e,
		"https://example.com/bibliography/all.bib", Relative)
	if got != "../documents/paper.pdf" {
		t.Fatalf("InsertURL() = %q", got)
	}
	if !e.Get(bibtex.FieldURL).ContainsText(got) {
		t.Errorf("url field = %v", e.Get(bibtex.FieldURL))
	}

	// Inserting again must not duplicate.
	InsertURL("https://example.com/documents/paper.pdf", e,
		"https://example.com/bibliography/all.bib", Relative)
	if n := len(e.Get(bibtex.FieldURL)); n != 1 {
		t.Errorf("url values = %d, want 1", n)
	}
}
