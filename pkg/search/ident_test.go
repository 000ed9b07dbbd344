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

import "testing"

func TestExtractDOI(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"10.1000/xyz123", "10.1000/xyz123"},
		{"see https://doi.org/10.48550/arXiv.1504.00141 for details", "10.48550/arXiv.1504.00141"},
		{"DOI: 10.1234/abc.def-5,", "10.1234/abc.def-5"},
		{"no identifier here", ""},
		{"10.12/too-short-prefix", ""},
	}
	for _, tt := range tests {
		if got := ExtractDOI(tt.input); got != tt.want {
			t.Errorf("ExtractDOI(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestExtractArXivID(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"arXiv:1504.00141v1", "1504.00141v1"},
		{"1504.00141", "1504.00141"},
		{"math/0403448v1", "math/0403448v1"},
		{"nothing", ""},
	}
	for _, tt := range tests {
		if got := ExtractArXivID(tt.input); got != tt.want {
			t.Errorf("ExtractArXivID(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestLocateISBN(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		// Valid ISBN-10 (The Art of Computer Programming, Vol. 1)
		{"ISBN 0-201-89683-4", "0201896834"},
		// Valid ISBN-13
		{"978-0-306-40615-7", "9780306406157"},
		// Invalid checksum
		{"0-201-89683-5", ""},
		{"978-0-306-40615-8", ""},
		{"plain text", ""},
		// X check digit
		{"080442957X", "080442957X"},
	}
	for _, tt := range tests {
		if got := LocateISBN(tt.input); got != tt.want {
			t.Errorf("LocateISBN(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
