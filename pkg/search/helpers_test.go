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
	"strings"
	"testing"
)

func TestSplitRespectingQuotationMarks(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"alpha beta gamma", []string{"alpha", "beta", "gamma"}},
		{`alpha "beta gamma" delta`, []string{"alpha", `"beta gamma"`, "delta"}},
		{`"only one"`, []string{`"only one"`}},
		{"  spaced   out  ", []string{"spaced", "out"}},
		{"", nil},
	}
	for _, tt := range tests {
		got := SplitRespectingQuotationMarks(tt.input)
		if strings.Join(got, "|") != strings.Join(tt.want, "|") {
			t.Errorf("SplitRespectingQuotationMarks(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

// Splitting is an inverse of joining with spaces for quoted-string
// input without embedded quotes.
func TestSplitRespectingQuotationMarks_JoinInverse(t *testing.T) {
	inputs := [][]string{
		{"plain", `"quoted words"`, "tail"},
		{`"a b"`, `"c d"`},
		{"x"},
	}
	for _, words := range inputs {
		joined := strings.Join(words, " ")
		got := SplitRespectingQuotationMarks(joined)
		if strings.Join(got, " ") != joined {
			t.Errorf("split(join(%v)) = %v", words, got)
		}
	}
}

func TestEncodeDecodeURL(t *testing.T) {
	if got := EncodeURL("a b&c=d"); got != "a+b%26c%3dd" {
		t.Errorf("EncodeURL = %q", got)
	}
	if got := DecodeURL("a+b%26c%3dd"); got != "a b&c=d" {
		t.Errorf("DecodeURL = %q", got)
	}
	if got := DecodeURL("x&amp;y"); got != "x&y" {
		t.Errorf("DecodeURL(&amp;) = %q", got)
	}
}

// decode(encode(s)) = s for strings of unreserved characters and
// spaces (spaces map to '+' and back to ' ').
func TestEncodeDecodeURL_Unreserved(t *testing.T) {
	for _, s := range []string{"abc", "A-Z_z.9~", "hello world", "a b c"} {
		encoded := EncodeURL(s)
		decoded := DecodeURL(encoded)
		if decoded != s {
			t.Errorf("decode(encode(%q)) = %q", s, decoded)
		}
	}
}

// S1: the ACM portal form probe.
func TestFormParameters_ACMQikSearch(t *testing.T) {
	const html = `<html><body>
<form name="qiksearch" action="search.cfm"><input type=hidden name=tok value=abc><input type=text name=q value=""></form>
</body></html>`
	params := FormParameters(html, `<form name="qiksearch"`)
	if len(params) != 2 {
		t.Fatalf("param count = %d (%v), want 2", len(params), params)
	}
	if got := params.Get("tok"); got != "abc" {
		t.Errorf("tok = %q, want abc", got)
	}
	if v, ok := params["q"]; !ok || v[0] != "" {
		t.Errorf("q = %v, want present and empty", v)
	}
}

func TestFormParameters_RadioCheckboxSelect(t *testing.T) {
	const html = `<form method="post" action="/go">
<input type="radio" name="mode" value="a">
<input type="radio" name="mode" value="b" checked>
<input type="checkbox" name="opt" value="x" checked="checked">
<input type="checkbox" name="opt" value="y">
<input type="checkbox" name="opt" value="z" checked>
<input type="image" name="decoration" value="nope">
<select name="fmt"><option value="plain">Plain</option><option value="bib" selected>BibTeX</option></select>
</form>`
	params := FormParameters(html, `<form method="post"`)

	if got := params.Get("mode"); got != "b" {
		t.Errorf("mode = %q, want b", got)
	}
	if got := strings.Join(params["opt"], ","); got != "x,z" {
		t.Errorf("opt = %q, want x,z", got)
	}
	if _, ok := params["decoration"]; ok {
		t.Error("image input must be ignored")
	}
	if got := params.Get("fmt"); got != "bib" {
		t.Errorf("fmt = %q, want bib", got)
	}
}

func TestFormParameters_MissingForm(t *testing.T) {
	params := FormParameters("<html>no form here</html>", "<form name=\"x\"")
	if len(params) != 0 {
		t.Errorf("params = %v, want empty", params)
	}
}

// Universal invariant: every returned pair traces back to a
// submit-visible control inside the form.
func TestFormParameters_OnlySubmitVisible(t *testing.T) {
	const html = `<form name="f" action="a">
<input type=hidden name=h value=1>
<input type=text name=t value=2>
<input type=submit name=s value=3>
<input type=radio name=r value=4>
<input type=checkbox name=c value=5>
</form>
<input type=hidden name=outside value=9>`
	params := FormParameters(html, `<form name="f"`)
	for key := range params {
		switch key {
		case "h", "t", "s":
		default:
			t.Errorf("unexpected key %q (unchecked or outside controls must not appear)", key)
		}
	}
}
