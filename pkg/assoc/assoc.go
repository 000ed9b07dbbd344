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

// Package assoc associates documents (PDFs, postscript files, web
// pages) with bibliographic entries: it computes the reference string
// to store in an entry, relative or absolute, and copies or moves the
// document next to the bibliography.
package assoc

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/kraklabs/bibfetch/pkg/bibtex"
)

// PathType selects how an associated document is referenced.
type PathType int

const (
	// Absolute stores the document's full URL or path.
	Absolute PathType = iota
	// Relative stores a path relative to the bibliography's location.
	Relative
)

// RenameOperation selects the target filename of a copy/move.
type RenameOperation int

const (
	// KeepName keeps the document's original filename.
	KeepName RenameOperation = iota
	// EntryID renames the document after the entry's citation id.
	EntryID
	// UserDefined uses a caller-provided filename.
	UserDefined
)

// MoveCopyOperation selects what happens to the source document.
type MoveCopyOperation int

const (
	// None leaves the document where it is.
	None MoveCopyOperation = iota
	// Copy duplicates the document next to the bibliography.
	Copy
	// Move relocates the document next to the bibliography.
	Move
)

// preferLocalFile renders a URL the way a reader wants to see it: a
// plain path for file URLs, the full URL otherwise.
func preferLocalFile(u *url.URL) string {
	if u.Scheme == "file" {
		return u.Path
	}
	if u.Scheme == "" && u.Host == "" {
		return u.Path
	}
	return u.String()
}

// RelativeFilename renders documentURL relative to baseURL. When the
// two disagree on scheme or host the document URL is returned
// unchanged; an invalid document URL yields an empty string.
func RelativeFilename(documentURL, baseURL string) string {
	doc, err := url.Parse(documentURL)
	if err != nil || documentURL == "" {
		// The document URL has to point to a file location or URL.
		return ""
	}
	base, err := url.Parse(baseURL)
	if err != nil || baseURL == "" || !base.IsAbs() && base.Scheme == "" {
		// The base URL has to be absolute and valid.
		return preferLocalFile(doc)
	}
	if doc.IsAbs() {
		if doc.Scheme != base.Scheme || (doc.Scheme != "file" && doc.Host != base.Host) {
			// Document URL and base URL do not match.
			return preferLocalFile(doc)
		}
	}

	resolved := base.ResolveReference(doc)
	baseDir := path.Dir(base.Path)
	rel, err := filepath.Rel(baseDir, resolved.Path)
	if err != nil {
		return preferLocalFile(doc)
	}
	return filepath.ToSlash(rel)
}

// AbsoluteFilename resolves documentURL against baseURL and renders
// it in its preferred-local form.
func AbsoluteFilename(documentURL, baseURL string) string {
	doc, err := url.Parse(documentURL)
	if err != nil || documentURL == "" {
		return ""
	}
	base, baseErr := url.Parse(baseURL)
	baseInvalid := baseErr != nil || baseURL == "" || (!base.IsAbs() && base.Scheme == "")
	if !doc.IsAbs() && baseInvalid {
		// A relative document URL needs a valid absolute base.
		return preferLocalFile(doc)
	}
	if doc.IsAbs() && !baseInvalid {
		if doc.Scheme != base.Scheme || (doc.Scheme != "file" && doc.Host != base.Host) {
			return preferLocalFile(doc)
		}
	}
	if doc.IsAbs() || baseInvalid {
		return preferLocalFile(doc)
	}
	return preferLocalFile(base.ResolveReference(doc))
}

// ComputeAssociateString renders the reference string for a document
// given the bibliography's URL and the requested path type.
func ComputeAssociateString(documentURL, bibliographyURL string, pathType PathType) string {
	if pathType == Absolute {
		return AbsoluteFilename(documentURL, bibliographyURL)
	}
	return RelativeFilename(documentURL, bibliographyURL)
}

// InsertURL stores the computed reference in the entry unless an
// equal value is already present. Local documents go under the
// localfile field, remote ones under url. The stored string is
// returned.
func InsertURL(documentURL string, entry *bibtex.Entry, bibliographyURL string, pathType PathType) string {
	finalURL := ComputeAssociateString(documentURL, bibliographyURL, pathType)
	if finalURL == "" {
		return ""
	}

	for _, field := range entry.Fields() {
		if entry.Get(field).ContainsText(finalURL) {
			return finalURL
		}
	}

	field := bibtex.FieldURL
	if doc, err := url.Parse(documentURL); err == nil && (doc.Scheme == "file" || doc.Scheme == "") {
		field = bibtex.FieldLocalFile
	}
	entry.Append(field, bibtex.VerbatimText(finalURL))
	return finalURL
}

// ComputeSourceDestinationURLs computes the absolute source URL and
// the copy/move target next to the bibliography. The target filename
// follows the rename operation; a missing extension defaults to
// "html".
func ComputeSourceDestinationURLs(sourceURL, entryID, bibliographyURL string, renameOperation RenameOperation, userDefinedFilename string) (srcAbs, target string, err error) {
	if entryID == "" && renameOperation == EntryID {
		// Without an entry id, keep the original name.
		renameOperation = KeepName
	}

	bib, err := url.Parse(bibliographyURL)
	if err != nil || bibliographyURL == "" {
		return "", "", fmt.Errorf("assoc: bibliography URL is not valid")
	}
	src, err := url.Parse(sourceURL)
	if err != nil {
		return "", "", fmt.Errorf("assoc: source URL is not valid: %w", err)
	}
	abs := src
	if !src.IsAbs() {
		abs = bib.ResolveReference(src)
	}

	filename := path.Base(abs.Path)
	if filename == "." || filename == "/" {
		filename = ""
	}
	suffix := strings.TrimPrefix(path.Ext(filename), ".")
	if suffix == "" {
		suffix = "html"
	}
	if filename == "" || renameOperation == EntryID {
		filename = entryID + "." + suffix
	}
	if filename == "" || renameOperation == UserDefined {
		filename = userDefinedFilename
	}

	targetURL := *bib
	targetURL.Path = path.Join(path.Dir(bib.Path), filename)
	return abs.String(), targetURL.String(), nil
}

// CopyDocument copies or moves a document next to the bibliography
// and returns the target URL. A None operation is a no-op returning
// the source URL. Both-local operations run on the filesystem; other
// combinations are not supported here.
func CopyDocument(sourceURL, entryID, bibliographyURL string, renameOperation RenameOperation, moveCopyOperation MoveCopyOperation, userDefinedFilename string) (string, error) {
	if moveCopyOperation == None {
		// Nothing to copy or move: the target equals the source.
		return sourceURL, nil
	}

	srcAbs, target, err := ComputeSourceDestinationURLs(sourceURL, entryID, bibliographyURL, renameOperation, userDefinedFilename)
	if err != nil {
		return "", err
	}

	srcParsed, _ := url.Parse(srcAbs)
	targetParsed, _ := url.Parse(target)
	if !isLocal(srcParsed) || !isLocal(targetParsed) {
		return "", fmt.Errorf("assoc: remote copy from %s to %s is not supported", srcAbs, target)
	}

	srcPath, targetPath := srcParsed.Path, targetParsed.Path
	_ = os.Remove(targetPath)
	if err := copyFile(srcPath, targetPath); err != nil {
		return "", err
	}
	if moveCopyOperation == Move {
		if err := os.Remove(srcPath); err != nil {
			return "", fmt.Errorf("assoc: remove source after move: %w", err)
		}
	}
	return target, nil
}

func isLocal(u *url.URL) bool {
	return u != nil && (u.Scheme == "file" || u.Scheme == "")
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("assoc: open source: %w", err)
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("assoc: create target: %w", err)
	}
	defer out.Close()
	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("assoc: copy: %w", err)
	}
	return out.Close()
}
