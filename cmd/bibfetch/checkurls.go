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
	"os/signal"
	"time"

	"github.com/spf13/pflag"

	"github.com/kraklabs/bibfetch/internal/errors"
	"github.com/kraklabs/bibfetch/internal/output"
	"github.com/kraklabs/bibfetch/internal/ui"
	"github.com/kraklabs/bibfetch/pkg/bibtex"
	"github.com/kraklabs/bibfetch/pkg/httpclient"
	"github.com/kraklabs/bibfetch/pkg/urlchecker"
)

func runCheckURLs(args []string, _ string) {
	flags := pflag.NewFlagSet("check-urls", pflag.ExitOnError)
	var (
		jsonOut = flags.Bool("json", false, "Output verdicts as JSON")
		noColor = flags.Bool("no-color", false, "Disable colored output")
		verbose = flags.BoolP("verbose", "v", false, "Verbose logging")
		timeout = flags.Duration("timeout", 5*time.Minute, "Overall deadline")
	)
	_ = flags.Parse(args)
	ui.InitColors(*noColor)

	if flags.NArg() != 1 {
		errors.FatalError(errors.NewInputError(
			"Expected exactly one bibliography file",
			"check-urls reads one BibTeX file and verifies the URLs its entries reference",
			"Run: bibfetch check-urls library.bib"), *jsonOut)
	}
	path := flags.Arg(0)

	data, err := os.ReadFile(path)
	if err != nil {
		errors.FatalError(errors.NewNotFoundError(
			"Cannot read bibliography", err.Error(),
			"Check the file path"), *jsonOut)
	}
	entries, err := bibtex.Parse(string(data))
	if err != nil {
		errors.FatalError(errors.NewInputError(
			"Bibliography is not parseable BibTeX", err.Error(),
			"Check the file's syntax"), *jsonOut)
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	checker := urlchecker.New(httpclient.New(httpclient.WithLogger(log)), log)

	var results []urlchecker.CheckResult
	broken := 0
	for result := range checker.Check(ctx, entries) {
		results = append(results, result)
		if *jsonOut {
			continue
		}
		switch result.Status {
		case urlchecker.URLValid:
			ui.URLValid(result.URL)
		case urlchecker.UnexpectedFileType:
			broken++
			ui.URLSuspect(result.URL, result.Message)
		default:
			broken++
			ui.URLBroken(result.URL, result.Status.String(), result.Message)
		}
	}

	if *jsonOut {
		if err := output.WriteURLReport(results); err != nil {
			errors.FatalError(err, true)
		}
		return
	}
	ui.CheckSummary(len(results), broken)
	if broken > 0 {
		os.Exit(errors.ExitNetwork)
	}
}
