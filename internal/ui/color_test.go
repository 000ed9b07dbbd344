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

package ui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
)

// captureOutput redirects the package's terminal output into a buffer
// with colors disabled, so assertions see plain text.
func captureOutput(t *testing.T, fn func()) string {
	t.Helper()
	savedOutput := color.Output
	savedNoColor := color.NoColor
	defer func() {
		color.Output = savedOutput
		color.NoColor = savedNoColor
	}()

	var buf bytes.Buffer
	color.Output = &buf
	color.NoColor = true
	fn()
	return buf.String()
}

func TestInitColors(t *testing.T) {
	saved := color.NoColor
	defer func() { color.NoColor = saved }()

	InitColors(true)
	if !color.NoColor {
		t.Error("InitColors(true) did not disable colors")
	}
	InitColors(false)
	if color.NoColor != autoNoColor {
		t.Error("InitColors(false) did not restore the automatic NO_COLOR/TTY decision")
	}
}

func TestFoundEntry(t *testing.T) {
	got := captureOutput(t, func() {
		FoundEntry("arXiv.org", "arXiv:1504.00141v1")
	})
	if !strings.Contains(got, "arXiv:1504.00141v1") {
		t.Errorf("missing citation id: %q", got)
	}
	if !strings.Contains(got, "(arXiv.org)") {
		t.Errorf("missing provider label: %q", got)
	}
	if !strings.HasPrefix(got, "✓ ") {
		t.Errorf("missing checkmark prefix: %q", got)
	}
}

func TestProviderStatusLines(t *testing.T) {
	got := captureOutput(t, func() {
		ProviderFinished("OCLC WorldCat", "authorization required")
		ProviderWarning("JSTOR", "searching failed")
	})
	if !strings.Contains(got, "⚠ OCLC WorldCat finished: authorization required") {
		t.Errorf("ProviderFinished output: %q", got)
	}
	if !strings.Contains(got, "⚠ JSTOR: searching failed") {
		t.Errorf("ProviderWarning output: %q", got)
	}
}

func TestSummaries(t *testing.T) {
	got := captureOutput(t, func() {
		SearchSummary(17, 23)
		CheckSummary(9, 2)
	})
	if !strings.Contains(got, "17 entries from 23 providers") {
		t.Errorf("SearchSummary output: %q", got)
	}
	if !strings.Contains(got, "9 URLs checked, 2 problems") {
		t.Errorf("CheckSummary output: %q", got)
	}
}

func TestURLVerdictLines(t *testing.T) {
	got := captureOutput(t, func() {
		URLValid("https://example.com/ok.pdf")
		URLSuspect("https://example.com/odd.pdf", "content mismatch")
		URLBroken("https://example.com/gone.pdf", "error 404", "Got error 404")
	})
	if !strings.Contains(got, "✓ https://example.com/ok.pdf") {
		t.Errorf("URLValid output: %q", got)
	}
	if !strings.Contains(got, "⚠ https://example.com/odd.pdf: content mismatch") {
		t.Errorf("URLSuspect output: %q", got)
	}
	if !strings.Contains(got, "✗ https://example.com/gone.pdf: error 404 (Got error 404)") {
		t.Errorf("URLBroken output: %q", got)
	}
}

func TestIconAndZoteroLines(t *testing.T) {
	got := captureOutput(t, func() {
		IconLocated("/home/u/.cache/bibfetch/favicons/arxivorg.png")
		IconMissing()
		ZoteroAuthorized("42")
	})
	if !strings.Contains(got, "favicons/arxivorg.png") {
		t.Errorf("IconLocated output: %q", got)
	}
	if !strings.Contains(got, "✗ no icon found") {
		t.Errorf("IconMissing output: %q", got)
	}
	if !strings.Contains(got, "Authorized as Zotero user 42") {
		t.Errorf("ZoteroAuthorized output: %q", got)
	}
}

func TestInfoAndErrorf(t *testing.T) {
	got := captureOutput(t, func() {
		Info("Requesting Zotero authorization")
		Errorf("cannot read %s", "library.bib")
	})
	if !strings.Contains(got, "ℹ Requesting Zotero authorization") {
		t.Errorf("Info output: %q", got)
	}
	if !strings.Contains(got, "✗ cannot read library.bib") {
		t.Errorf("Errorf output: %q", got)
	}
}

func TestEmptyArguments(t *testing.T) {
	// Empty inputs must not panic and still produce the markers.
	got := captureOutput(t, func() {
		FoundEntry("", "")
		URLBroken("", "", "")
	})
	if !strings.Contains(got, "✓") || !strings.Contains(got, "✗") {
		t.Errorf("markers missing: %q", got)
	}
}
