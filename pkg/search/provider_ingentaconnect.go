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
	"strconv"
)

// IngentaConnect queries the IngentaConnect search endpoint with
// format=bib, which serves BibTeX without further steps.
type IngentaConnect struct {
	simpleDownload
}

// NewIngentaConnect creates the IngentaConnect provider.
func NewIngentaConnect(cfg ProviderConfig) *IngentaConnect {
	p := &IngentaConnect{
		simpleDownload: simpleDownload{
			abstract:   newAbstract("IngentaConnect", cfg.Client, cfg.Log, cfg.Notify),
			homepage:   "https://www.ingentaconnect.com/",
			favIconURL: "https://www.ingentaconnect.com/favicon.ico",
		},
	}
	p.prepare = func(query Query, numResults int) (*downloadRequest, Result) {
		q := url.Values{}
		q.Set("format", "bib")
		index := 1
		addChunks := func(option, text string) {
			for _, chunk := range SplitRespectingQuotationMarks(text) {
				if index > 1 {
					q.Set(fmt.Sprintf("operator%d", index), "AND")
				}
				q.Set(fmt.Sprintf("option%d", index), option)
				q.Set(fmt.Sprintf("value%d", index), chunk)
				index++
			}
		}
		addChunks("fulltext", query[QueryFreeText])
		addChunks("author", query[QueryAuthor])
		addChunks("title", query[QueryTitle])
		// The "year" field is not supported in IngentaConnect's search.
		if index == 1 {
			return nil, ResultInvalidArguments
		}
		q.Set("pageSize", strconv.Itoa(numResults))
		q.Set("sortDescending", "true")
		q.Set("subscribed", "false")
		q.Set("sortField", "default")
		return &downloadRequest{URL: "https://www.ingentaconnect.com/search?" + q.Encode()}, ResultNoError
	}
	return p
}
