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

// Package ui renders bibfetch's terminal output: found entries as a
// search streams in, per-provider terminal statuses, URL-check
// verdicts and the closing summaries. Colors respect the --no-color
// flag and the NO_COLOR environment variable and are automatically
// disabled when the output is not a TTY (e.g. when piped).
//
// Color usage:
//   - Green: a found entry, a valid URL, a located icon
//   - Yellow: provider warnings, suspicious URLs
//   - Red: failed providers, broken URLs
//   - Cyan: summaries and neutral messages
//   - Dim: provider names next to entry ids
package ui

import "github.com/fatih/color"

// Pre-configured color instances for consistent CLI output.
//
// These are initialized at package load time and respect the global
// color.NoColor setting when called.
var (
	// Red is used for failed providers and broken URLs.
	Red = color.New(color.FgRed)

	// Yellow is used for provider warnings and suspicious URLs.
	Yellow = color.New(color.FgYellow)

	// Green is used for found entries and passing checks.
	Green = color.New(color.FgGreen)

	// Cyan is used for summaries and informational messages.
	Cyan = color.New(color.FgCyan)

	// Dim is used for less important details like provider names.
	Dim = color.New(color.Faint)
)

// InitColors configures global color output based on the noColor flag.
//
// This should be called early in main() after parsing flags. The
// fatih/color library already respects NO_COLOR automatically; this
// function adds explicit control via the CLI flag.
func InitColors(noColor bool) {
	color.NoColor = noColor || autoNoColor
}

// autoNoColor is the library's own NO_COLOR and TTY decision, taken at
// package load before any flag can override it.
var autoNoColor = color.NoColor

// FoundEntry reports one bibliographic entry as it arrives from a
// provider.
//
// Example output: "✓ arXiv:1504.00141v1  (arXiv.org)"
func FoundEntry(provider, citationID string) {
	_, _ = Green.Fprint(color.Output, "✓ "+citationID)
	_, _ = Dim.Fprintln(color.Output, "  ("+provider+")")
}

// ProviderFinished reports a provider's terminal status when it is
// anything other than a clean completion.
//
// Example output: "⚠ OCLC WorldCat finished: authorization required"
func ProviderFinished(provider, status string) {
	_, _ = Yellow.Fprintln(color.Output, "⚠ "+provider+" finished: "+status)
}

// ProviderWarning relays a provider's failure notification (the
// desktop-popup text of the original UI) to the terminal.
func ProviderWarning(provider, message string) {
	_, _ = Yellow.Fprintln(color.Output, "⚠ "+provider+": "+message)
}

// SearchSummary closes a federated search.
//
// Example output: "ℹ 17 entries from 23 providers"
func SearchSummary(numEntries, numProviders int) {
	_, _ = Cyan.Fprintf(color.Output, "ℹ %d entries from %d providers\n", numEntries, numProviders)
}

// URLValid reports a URL whose filename and content agree.
func URLValid(url string) {
	_, _ = Green.Fprintln(color.Output, "✓ "+url)
}

// URLSuspect reports a URL whose content does not match its filename.
func URLSuspect(url, message string) {
	_, _ = Yellow.Fprintln(color.Output, "⚠ "+url+": "+message)
}

// URLBroken reports an unreachable or dead URL.
//
// Example output: "✗ https://example.com/x.pdf: error 404 (Got error 404)"
func URLBroken(url, status, message string) {
	_, _ = Red.Fprintln(color.Output, "✗ "+url+": "+status+" ("+message+")")
}

// CheckSummary closes a URL-check run.
func CheckSummary(checked, broken int) {
	_, _ = Cyan.Fprintf(color.Output, "ℹ %d URLs checked, %d problems\n", checked, broken)
}

// IconLocated reports the cache path of a freshly located favicon.
func IconLocated(path string) {
	_, _ = Green.Fprintln(color.Output, "✓ "+path)
}

// IconMissing reports that every favicon strategy was exhausted.
func IconMissing() {
	_, _ = Red.Fprintln(color.Output, "✗ no icon found")
}

// ZoteroAuthorized reports a completed Zotero credential exchange.
func ZoteroAuthorized(userID string) {
	_, _ = Green.Fprintln(color.Output, "✓ Authorized as Zotero user "+userID)
}

// Info prints a neutral informational message.
func Info(msg string) {
	_, _ = Cyan.Fprintln(color.Output, "ℹ "+msg)
}

// Errorf prints a red error message.
func Errorf(format string, args ...any) {
	_, _ = Red.Fprintf(color.Output, "✗ "+format+"\n", args...)
}
