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

package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/pflag"

	"github.com/kraklabs/bibfetch/internal/errors"
	"github.com/kraklabs/bibfetch/internal/ui"
	"github.com/kraklabs/bibfetch/pkg/favicon"
	"github.com/kraklabs/bibfetch/pkg/httpclient"
)

// faviconCacheDir returns the shared icon cache below the user cache
// directory.
func faviconCacheDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "bibfetch", "favicons")
}

func runFavicon(args []string) {
	flags := pflag.NewFlagSet("favicon", pflag.ExitOnError)
	var (
		suggested = flags.String("suggest", "", "Suggested icon URL to try first")
		noColor   = flags.Bool("no-color", false, "Disable colored output")
		verbose   = flags.BoolP("verbose", "v", false, "Verbose logging")
		timeout   = flags.Duration("timeout", 30*time.Second, "Overall deadline")
	)
	_ = flags.Parse(args)
	ui.InitColors(*noColor)

	if flags.NArg() != 1 {
		errors.FatalError(errors.NewInputError(
			"Expected exactly one website URL",
			"favicon locates and caches the icon of one site",
			"Run: bibfetch favicon https://arxiv.org/"), false)
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	locator := favicon.New(httpclient.New(httpclient.WithLogger(log)),
		faviconCacheDir(), flags.Arg(0), *suggested, log)
	path := <-locator.Locate(ctx)
	if path == "" {
		ui.IconMissing()
		os.Exit(errors.ExitNotFound)
	}
	ui.IconLocated(path)
}
