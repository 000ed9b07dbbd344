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
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"runtime"
	"time"

	"github.com/spf13/pflag"

	"github.com/kraklabs/bibfetch/internal/config"
	"github.com/kraklabs/bibfetch/internal/errors"
	"github.com/kraklabs/bibfetch/internal/ui"
	"github.com/kraklabs/bibfetch/pkg/zotero"
)

// openBrowser launches the user's browser on the authorization URL,
// falling back to printing it.
func openBrowser(authURL string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", authURL)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", authURL)
	default:
		cmd = exec.Command("xdg-open", authURL)
	}
	if err := cmd.Start(); err != nil {
		fmt.Printf("Open this URL in your browser:\n\n  %s\n\n", authURL)
	}
	return nil
}

func runZoteroLogin(args []string, configPath string) {
	flags := pflag.NewFlagSet("zotero-login", pflag.ExitOnError)
	var (
		noColor = flags.Bool("no-color", false, "Disable colored output")
		timeout = flags.Duration("timeout", 5*time.Minute, "How long to wait for the browser authorization")
	)
	_ = flags.Parse(args)
	ui.InitColors(*noColor)

	cfg, err := config.Load(configPath)
	if err != nil {
		errors.FatalError(errors.NewConfigError(
			"Cannot read bibfetch configuration", err.Error(),
			"Fix or delete the configuration file", err), false)
	}

	ui.Info("Requesting Zotero authorization; your browser will open.")
	creds, err := zotero.Authorize(context.Background(), zotero.AuthorizeOptions{
		OpenURL: openBrowser,
		Timeout: *timeout,
		Log:     slog.Default(),
	})
	if err != nil {
		errors.FatalError(errors.NewAuthorizationError(
			"Zotero authorization failed", err.Error(),
			"Retry and grant bibfetch read access in the browser", err), false)
	}

	cfg.Zotero = config.ZoteroCredentials{UserID: creds.UserID, PrivateKey: creds.APIKey}
	if err := cfg.Save(configPath); err != nil {
		errors.FatalError(errors.NewConfigError(
			"Cannot store Zotero credentials", err.Error(),
			"Check permissions of the configuration directory", err), false)
	}
	ui.ZoteroAuthorized(creds.UserID)
	_ = os.Stdout.Sync()
}
