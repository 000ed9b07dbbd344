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
	"context"
	"log/slog"

	"github.com/kraklabs/bibfetch/pkg/favicon"
	"github.com/kraklabs/bibfetch/pkg/httpclient"
)

// ProviderIcon locates a provider's icon through the favicon locator
// chain: the shared on-disk cache, the provider's suggested icon URL,
// and the homepage's <link rel="icon"> declaration. The returned
// channel delivers the icon file's path (or "" when every strategy
// failed), then closes.
func ProviderIcon(ctx context.Context, client *httpclient.Client, cacheDir string, p Provider, log *slog.Logger) <-chan string {
	return favicon.New(client, cacheDir, p.Homepage(), p.FavIconURL(), log).Locate(ctx)
}
