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

import "github.com/kraklabs/bibfetch/pkg/bibtex"

// DOI resolves a Digital Object Identifier straight to BibTeX through
// the dx.doi.org content negotiation. The query must contain a DOI
// somewhere; free-text searching is not something the resolver offers.
type DOI struct {
	simpleDownload
}

// NewDOI creates the DOI resolver provider.
func NewDOI(cfg ProviderConfig) *DOI {
	p := &DOI{
		simpleDownload: simpleDownload{
			abstract:   newAbstract("DOI", cfg.Client, cfg.Log, cfg.Notify),
			homepage:   "https://dx.doi.org/",
			favIconURL: "https://dx.doi.org/favicon.ico",
		},
	}
	p.prepare = func(query Query, _ int) (*downloadRequest, Result) {
		doi := ""
		for _, text := range query {
			if doi = ExtractDOI(text); doi != "" {
				break
			}
		}
		if doi == "" {
			return nil, ResultInvalidArguments
		}
		return &downloadRequest{
			URL:     "https://dx.doi.org/" + doi,
			Headers: map[string]string{"Accept": "text/bibliography; style=bibtex"},
		}, ResultNoError
	}
	p.fixup = func(entry *bibtex.Entry) {
		// The resolver tends to return one-line BibTeX without an id.
		if entry.ID == "" {
			if doi := entry.Get(bibtex.FieldDOI); doi != nil {
				entry.ID = doi.Text()
			}
		}
	}
	return p
}
