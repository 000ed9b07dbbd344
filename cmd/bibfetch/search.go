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
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/kraklabs/bibfetch/internal/config"
	"github.com/kraklabs/bibfetch/internal/errors"
	"github.com/kraklabs/bibfetch/internal/output"
	"github.com/kraklabs/bibfetch/internal/ui"
	"github.com/kraklabs/bibfetch/pkg/bibtex"
	"github.com/kraklabs/bibfetch/pkg/httpclient"
	"github.com/kraklabs/bibfetch/pkg/search"
)

func runSearch(args []string, configPath string) {
	flags := pflag.NewFlagSet("search", pflag.ExitOnError)
	var (
		title      = flags.String("title", "", "Title search terms")
		author     = flags.String("author", "", "Author search terms")
		year       = flags.String("year", "", "Publication year")
		maxResults = flags.Int("max", 20, "Maximum results per provider")
		providers  = flags.String("providers", "", "Comma-separated provider names (default: all enabled)")
		jsonOut    = flags.Bool("json", false, "Output entries as JSON")
		noColor    = flags.Bool("no-color", false, "Disable colored output")
		verbose    = flags.BoolP("verbose", "v", false, "Verbose logging")
		timeout    = flags.Duration("timeout", 2*time.Minute, "Overall search deadline")
	)
	_ = flags.Parse(args)
	ui.InitColors(*noColor)

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	query := search.Query{}
	if free := strings.Join(flags.Args(), " "); free != "" {
		query[search.QueryFreeText] = free
	}
	if *title != "" {
		query[search.QueryTitle] = *title
	}
	if *author != "" {
		query[search.QueryAuthor] = *author
	}
	if *year != "" {
		query[search.QueryYear] = *year
	}
	if len(query) == 0 {
		errors.FatalError(errors.NewInputError(
			"Nothing to search for",
			"The query has no free text, title, author or year",
			"Pass search terms, e.g.: bibfetch search --author Knuth"), *jsonOut)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		errors.FatalError(errors.NewConfigError(
			"Cannot read bibfetch configuration", err.Error(),
			"Fix or delete the configuration file", err), *jsonOut)
	}

	client := httpclient.New(httpclient.WithLogger(log))
	notify := func(text, title, _ string, _ time.Duration) {
		if !*jsonOut {
			ui.ProviderWarning(title, strings.SplitN(text, "\n", 2)[0])
		}
	}

	fleet := search.NewDefaultFleet(client, log, notify, cfg.APIKeys)
	enabled := selectProviders(fleet, cfg, *providers)
	if len(enabled) == 0 {
		errors.FatalError(errors.NewInputError(
			"No providers selected",
			"Every requested provider is unknown or disabled",
			"Check --providers against 'engines' in the configuration"), *jsonOut)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	federator := search.NewFederator(log, enabled...)
	events := federator.Search(ctx, query, *maxResults)
	go func() {
		<-ctx.Done()
		federator.Cancel()
	}()

	var entries []*bibtex.Entry
	providerStatus := make(map[string]string)
	for ev := range events {
		switch ev := ev.(type) {
		case search.FedEntry:
			entries = append(entries, ev.Entry)
			if !*jsonOut {
				ui.FoundEntry(ev.Provider, ev.Entry.ID)
			}
		case search.FedProviderDone:
			providerStatus[ev.Provider] = ev.Result.String()
			if !*jsonOut && ev.Result != search.ResultNoError {
				ui.ProviderFinished(ev.Provider, ev.Result.String())
			}
		case search.FedFinished:
			// The channel closes right after this event.
		}
	}

	sortEntries(entries, cfg.SortOrder)

	if *jsonOut {
		if err := output.WriteSearchReport(entries, providerStatus); err != nil {
			errors.FatalError(err, true)
		}
		return
	}
	fmt.Println()
	fmt.Print(bibtex.Format(entries))
	ui.SearchSummary(len(entries), len(providerStatus))
}

// selectProviders applies the configuration's enable flags and the
// --providers override.
func selectProviders(fleet []search.Provider, cfg *config.Config, override string) []search.Provider {
	requested := map[string]bool{}
	if override != "" {
		for _, name := range strings.Split(override, ",") {
			requested[strings.TrimSpace(name)] = true
		}
	}
	var out []search.Provider
	for _, p := range fleet {
		if override != "" {
			if requested[p.Name()] {
				out = append(out, p)
			}
			continue
		}
		if cfg.EngineEnabled(p.Name()) {
			out = append(out, p)
		}
	}
	return out
}

