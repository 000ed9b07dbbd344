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

// Package main implements the bibfetch CLI for searching scholarly
// providers and checking bibliographies.
//
// Usage:
//
//	bibfetch search [--title T] [--author A] [--year Y] [free text]
//	bibfetch check-urls <file.bib>        Verify URLs referenced by entries
//	bibfetch favicon <url>                Locate and cache a site's icon
//	bibfetch zotero-login                 Obtain Zotero API credentials
package main

import (
	"flag"
	"fmt"
	"os"
)

// Version information (set via ldflags during build)
var (
	version = "dev"     // Version string
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

func main() {
	var (
		showVersion = flag.Bool("version", false, "Show version and exit")
		configPath  = flag.String("config", "", "Path to config.yaml (default: user config dir)")
	)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `bibfetch - federated bibliographic metadata fetcher

Usage:
  bibfetch <command> [options]

Commands:
  search        Search scholarly providers and print BibTeX
  check-urls    Verify the URLs referenced by a bibliography
  favicon       Locate and cache a website's icon
  zotero-login  Obtain Zotero API credentials via OAuth

Global Options:
  --config      Path to config.yaml
  --version     Show version and exit

Examples:
  bibfetch search --title "disjoint hypercyclicity" --max 10
  bibfetch search 10.1000/xyz123
  bibfetch search --json --providers arXivorg,PubMed quantum
  bibfetch check-urls library.bib
  bibfetch favicon https://arxiv.org/

Configuration:
  Provider enablement, API keys and Zotero credentials are read from
  the YAML configuration (default: ~/.config/bibfetch/config.yaml).

`)
	}

	flag.Parse()

	if *showVersion {
		fmt.Printf("bibfetch version %s\n", version)
		fmt.Printf("commit: %s\n", commit)
		fmt.Printf("built: %s\n", date)
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(1)
	}

	command := args[0]
	cmdArgs := args[1:]

	switch command {
	case "search":
		runSearch(cmdArgs, *configPath)
	case "check-urls":
		runCheckURLs(cmdArgs, *configPath)
	case "favicon":
		runFavicon(cmdArgs)
	case "zotero-login":
		runZoteroLogin(cmdArgs, *configPath)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		flag.Usage()
		os.Exit(1)
	}
}
