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
	"strconv"
	"strings"
)

// MonthMacros are the twelve BibTeX month macro keys, in order.
var MonthMacros = [12]string{
	"jan", "feb", "mar", "apr", "may", "jun",
	"jul", "aug", "sep", "oct", "nov", "dec",
}

var monthNames = [12]string{
	"january", "february", "march", "april", "may", "june",
	"july", "august", "september", "october", "november", "december",
}

// IsMonthMacro reports whether key is one of the twelve month macros.
func IsMonthMacro(key string) bool {
	for _, m := range MonthMacros {
		if key == m {
			return true
		}
	}
	return false
}

// MonthToMacro maps a textual month to its macro key. Accepted inputs
// are full or prefix-abbreviated English month names (case-insensitive)
// and numeric months "1".."12" (also "01".."09"). The second return is
// false if no month was recognized.
func MonthToMacro(text string) (MacroKey, bool) {
	t := strings.ToLower(strings.TrimSpace(text))
	if t == "" {
		return "", false
	}
	if n, err := strconv.Atoi(t); err == nil {
		if n >= 1 && n <= 12 {
			return MacroKey(MonthMacros[n-1]), true
		}
		return "", false
	}
	if len(t) < 3 {
		return "", false
	}
	for i, name := range monthNames {
		if strings.HasPrefix(name, t) || strings.HasPrefix(t, name) {
			return MacroKey(MonthMacros[i]), true
		}
	}
	return "", false
}
