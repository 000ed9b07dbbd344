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
	"log/slog"

	"github.com/kraklabs/bibfetch/pkg/httpclient"
)

// ProviderConfig holds what a provider needs to operate: the shared
// HTTP client, logging, the notification hook, and provider-local
// credentials where the backend wants them.
type ProviderConfig struct {
	Client *httpclient.Client
	Log    *slog.Logger
	Notify NotifyFunc

	// APIKey authenticates against backends that require one
	// (NASA ADS, ISBNdb, OCLC WorldCat, SpringerLink).
	APIKey string
	// UserID is the per-user id some backends pair with the key
	// (Zotero).
	UserID string
}

// NewDefaultFleet instantiates every known provider. keys maps a
// provider's machine name (Provider.Name) to its API key; providers
// without an entry run unauthenticated or stay in their degraded mode.
func NewDefaultFleet(client *httpclient.Client, log *slog.Logger, notify NotifyFunc, keys map[string]string) []Provider {
	cfg := func(name string) ProviderConfig {
		return ProviderConfig{Client: client, Log: log, Notify: notify, APIKey: keys[name]}
	}
	return []Provider{
		NewACMPortal(cfg("ACMDigitalLibrary")),
		NewArXiv(cfg("arXivorg")),
		NewBibsonomy(cfg("Bibsonomy")),
		NewBioRxiv(cfg("bioRxiv"), BioRxivServer),
		NewBioRxiv(cfg("medRxiv"), MedRxivServer),
		NewDOI(cfg("DOI")),
		NewGoogleBooks(cfg("GoogleBooks")),
		NewGoogleScholar(cfg("GoogleScholar")),
		NewIDEASRePEc(cfg("IDEASRePEc")),
		NewIEEEXplore(cfg("IEEEXplore")),
		NewIngentaConnect(cfg("IngentaConnect")),
		NewInspireHEP(cfg("InspireHEP")),
		NewISBNdb(cfg("ISBNdb")),
		NewJSTOR(cfg("JSTOR")),
		NewMathSciNet(cfg("MathSciNet")),
		NewMRLookup(cfg("MRLookup")),
		NewNASAADS(cfg("SAONASAADS")),
		NewPubMed(cfg("PubMed")),
		NewSemanticScholar(cfg("SemanticScholar")),
		NewSpringerLink(cfg("SpringerLink")),
		NewUnpaywall(cfg("Unpaywall")),
		NewWorldCat(cfg("OCLCWorldCat")),
		NewZbMath(cfg("zbMATHOpen")),
	}
}
