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
	"strings"
)

// Bibsonomy queries the social bookmarking service's /bib/ endpoint,
// which serves plain BibTeX. An author-only query uses the dedicated
// author search.
type Bibsonomy struct {
	simpleDownload
}

// NewBibsonomy creates the Bibsonomy provider.
func NewBibsonomy(cfg ProviderConfig) *Bibsonomy {
	p := &Bibsonomy{
		simpleDownload: simpleDownload{
			abstract:   newAbstract("Bibsonomy", cfg.Client, cfg.Log, cfg.Notify),
			homepage:   "https://www.bibsonomy.org/",
			favIconURL: "https://www.bibsonomy.org/resources/image/favicon.png",
		},
	}
	p.prepare = func(query Query, numResults int) (*downloadRequest, Result) {
		hasFreeText := query[QueryFreeText] != ""
		hasTitle := query[QueryTitle] != ""
		hasAuthor := query[QueryAuthor] != ""
		hasYear := query[QueryYear] != ""
		if !hasFreeText && !hasTitle && !hasAuthor && !hasYear {
			return nil, ResultInvalidArguments
		}

		searchType := "search"
		if hasAuthor && !hasFreeText && !hasTitle && !hasYear {
			searchType = "author"
		}

		var fragments []string
		for _, key := range []QueryKey{QueryFreeText, QueryTitle, QueryAuthor, QueryYear} {
			if text := query[key]; text != "" {
				fragments = append(fragments, EncodeURL(text))
			}
		}
		return &downloadRequest{
			URL: fmt.Sprintf("https://www.bibsonomy.org/bib/%s/%s?items=%d",
				searchType, strings.Join(fragments, "%20"), numResults),
		}, ResultNoError
	}
	return p
}
