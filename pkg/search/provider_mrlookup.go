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
	"net/url"
	"strings"
)

const mrLookupURLStem = "https://mathscinet.ams.org/mrlookup"

// MRLookup queries the AMS "MR Lookup" reference service, which
// answers an HTML page whose <pre> blocks hold BibTeX records.
type MRLookup struct {
	simpleDownload
}

// NewMRLookup creates the MR Lookup provider.
func NewMRLookup(cfg ProviderConfig) *MRLookup {
	p := &MRLookup{
		simpleDownload: simpleDownload{
			abstract:   newAbstract("MR Lookup", cfg.Client, cfg.Log, cfg.Notify),
			homepage:   mrLookupURLStem,
			favIconURL: "https://mathscinet.ams.org/favicon.ico",
		},
	}
	p.prepare = func(query Query, _ int) (*downloadRequest, Result) {
		q := url.Values{}
		q.Set("ti", query[QueryTitle])
		q.Set("au", query[QueryAuthor])
		if year := query[QueryYear]; year != "" {
			q.Set("year", year)
		}
		q.Set("format", "bibtex")
		return &downloadRequest{URL: mrLookupURLStem + "?" + q.Encode()}, ResultNoError
	}
	p.extract = extractPreBlocks
	return p
}

// extractPreBlocks concatenates the contents of all <pre> blocks of an
// HTML page, one block per line group.
func extractPreBlocks(htmlCode string) string {
	var sb strings.Builder
	p2 := 0
	for {
		p1 := strings.Index(htmlCode[p2:], "<pre>")
		if p1 < 0 {
			break
		}
		p1 += p2 + len("<pre>")
		end := strings.Index(htmlCode[p1:], "</pre>")
		if end < 0 {
			break
		}
		sb.WriteString(htmlCode[p1 : p1+end])
		sb.WriteByte('\n')
		p2 = p1 + end + len("</pre>")
	}
	return sb.String()
}
