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

// Package output renders bibfetch's results as JSON for machine
// consumption (the --json mode of the CLI commands): federated search
// reports with their per-provider terminal statuses, and URL-check
// verdict lists.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/kraklabs/bibfetch/pkg/bibtex"
	"github.com/kraklabs/bibfetch/pkg/urlchecker"
)

// EntryRecord is one bibliographic entry flattened for JSON: the
// field map rendered to plain text plus the entry's canonical BibTeX
// form, so consumers can pick whichever representation they need.
type EntryRecord struct {
	ID     string            `json:"id"`
	Type   string            `json:"type"`
	Fields map[string]string `json:"fields"`
	BibTeX string            `json:"bibtex"`
	// Source is the provider that produced the entry (the
	// x-fetchedfrom field).
	Source string `json:"source,omitempty"`
}

// NewEntryRecord flattens one entry.
func NewEntryRecord(e *bibtex.Entry) EntryRecord {
	record := EntryRecord{
		ID:     e.ID,
		Type:   string(e.Type),
		Fields: make(map[string]string, e.Len()),
		BibTeX: bibtex.Format([]*bibtex.Entry{e}),
		Source: e.Get(bibtex.FieldFetchedFrom).Text(),
	}
	for _, field := range e.Fields() {
		record.Fields[field] = e.Get(field).Text()
	}
	return record
}

// SearchReport is the JSON document of one federated search: the
// collected entries plus every provider's terminal status.
type SearchReport struct {
	Entries   []EntryRecord     `json:"entries"`
	Providers map[string]string `json:"providers"`
}

// NewSearchReport builds a report from collected entries and the
// per-provider terminal statuses (provider label to status text).
func NewSearchReport(entries []*bibtex.Entry, providerStatus map[string]string) SearchReport {
	report := SearchReport{
		Entries:   make([]EntryRecord, 0, len(entries)),
		Providers: providerStatus,
	}
	if report.Providers == nil {
		report.Providers = map[string]string{}
	}
	for _, e := range entries {
		report.Entries = append(report.Entries, NewEntryRecord(e))
	}
	return report
}

// Write renders the report as pretty-printed JSON.
func (r SearchReport) Write(w io.Writer) error {
	return encode(w, r)
}

// WriteSearchReport renders a search report to stdout.
func WriteSearchReport(entries []*bibtex.Entry, providerStatus map[string]string) error {
	return NewSearchReport(entries, providerStatus).Write(os.Stdout)
}

// URLVerdict is one URL-check result flattened for JSON.
type URLVerdict struct {
	URL     string `json:"url"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// URLReport is the JSON document of one check-urls run.
type URLReport []URLVerdict

// NewURLReport flattens checker results in arrival order.
func NewURLReport(results []urlchecker.CheckResult) URLReport {
	report := make(URLReport, 0, len(results))
	for _, r := range results {
		report = append(report, URLVerdict{
			URL:     r.URL,
			Status:  r.Status.String(),
			Message: r.Message,
		})
	}
	return report
}

// Write renders the verdict list as pretty-printed JSON.
func (r URLReport) Write(w io.Writer) error {
	return encode(w, r)
}

// WriteURLReport renders a verdict list to stdout.
func WriteURLReport(results []urlchecker.CheckResult) error {
	return NewURLReport(results).Write(os.Stdout)
}

// encode writes pretty-printed JSON with 2-space indentation, the
// format every --json command emits.
func encode(w io.Writer, data any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		return fmt.Errorf("JSON encoding failed: %w", err)
	}
	return nil
}
