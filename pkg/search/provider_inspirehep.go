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
	"fmt"
	"net/url"
	"strings"
)

// InspireHEP queries the high-energy-physics literature database,
// whose API exports search results as BibTeX directly.
type InspireHEP struct {
	simpleDownload
}

// NewInspireHEP creates the Inspire-HEP provider.
func NewInspireHEP(cfg ProviderConfig) *InspireHEP {
	p := &InspireHEP{
		simpleDownload: simpleDownload{
			abstract:   newAbstract("Inspire-HEP", cfg.Client, cfg.Log, cfg.Notify),
			homepage:   "https://inspirehep.net/",
			favIconURL: "https://inspirehep.net/favicon.ico",
		},
	}
	p.prepare = func(query Query, numResults int) (*downloadRequest, Result) {
		var fragments []string
		appendTyped := func(prefix, text string) {
			for _, chunk := range SplitRespectingQuotationMarks(text) {
				fragments = append(fragments, prefix+" "+chunk)
			}
		}
		appendTyped("ft", query[QueryFreeText])
		appendTyped("d", query[QueryYear])
		appendTyped("t", query[QueryTitle])
		appendTyped("a", query[QueryAuthor])
		if len(fragments) == 0 {
			return nil, ResultInvalidArguments
		}
		q := strings.Join(fragments, " and ")
		return &downloadRequest{
			URL: fmt.Sprintf("https://inspirehep.net/api/literature?sort=mostrecent&size=%d&q=%s&format=bibtex",
				numResults, url.QueryEscape(q)),
		}, ResultNoError
	}
	return p
}
