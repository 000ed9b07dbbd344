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

// Package bibtex holds the canonical bibliographic entry model and the
// textual BibTeX codec the rest of the system consumes.
//
// An Entry is a tagged record: an entry type (article, book, ...), a
// citation id, and an ordered mapping from field names to value lists.
// Each value item is one of five variants: plain text, verbatim text, a
// person name, a month-like macro key, or a keyword.
package bibtex

import "strings"

// EntryType classifies an entry (the "@article" part of BibTeX).
type EntryType string

// Entry types emitted by the provider fleet.
const (
	TypeArticle       EntryType = "article"
	TypeBook          EntryType = "book"
	TypeInBook        EntryType = "inbook"
	TypeInProceedings EntryType = "inproceedings"
	TypePhDThesis     EntryType = "phdthesis"
	TypeMastersThesis EntryType = "mastersthesis"
	TypeTechReport    EntryType = "techreport"
	TypeMisc          EntryType = "misc"
)

// Well-known field names.
const (
	FieldTitle     = "title"
	FieldAuthor    = "author"
	FieldEditor    = "editor"
	FieldYear      = "year"
	FieldMonth     = "month"
	FieldJournal   = "journal"
	FieldVolume    = "volume"
	FieldNumber    = "number"
	FieldPages     = "pages"
	FieldDOI       = "doi"
	FieldURL       = "url"
	FieldISSN      = "issn"
	FieldISBN      = "isbn"
	FieldPublisher = "publisher"
	FieldAbstract  = "abstract"
	FieldKeywords  = "keywords"
	FieldFile      = "file"
	FieldLocalFile = "localfile"
	FieldCrossRef  = "crossref"

	// FieldFetchedFrom names the provider an entry was retrieved from.
	FieldFetchedFrom = "x-fetchedfrom"
)

// ValueItem is the polymorphic unit stored under an entry field.
// Exactly five types implement it: PlainText, VerbatimText, Person,
// MacroKey, and Keyword.
type ValueItem interface {
	// Text renders the item as plain text, the way it would appear to a
	// reader (no BibTeX markup).
	Text() string

	isValueItem()
}

// PlainText is ordinary textual content.
type PlainText string

// VerbatimText is content that must never be touched by encoders
// (DOIs, URLs, file paths).
type VerbatimText string

// Person is a human name split into its components.
type Person struct {
	First  string
	Last   string
	Suffix string
}

// MacroKey references a BibTeX string macro, e.g. a month key.
type MacroKey string

// Keyword is a single entry in a keyword list.
type Keyword string

func (t PlainText) Text() string    { return string(t) }
func (t VerbatimText) Text() string { return string(t) }
func (k MacroKey) Text() string     { return string(k) }
func (k Keyword) Text() string      { return string(k) }

func (p Person) Text() string {
	var sb strings.Builder
	if p.First != "" {
		sb.WriteString(p.First)
		sb.WriteByte(' ')
	}
	sb.WriteString(p.Last)
	if p.Suffix != "" {
		sb.WriteString(", ")
		sb.WriteString(p.Suffix)
	}
	return sb.String()
}

func (PlainText) isValueItem()    {}
func (VerbatimText) isValueItem() {}
func (Person) isValueItem()       {}
func (MacroKey) isValueItem()     {}
func (Keyword) isValueItem()      {}

// Value is the ordered list of items stored under one field.
type Value []ValueItem

// Text renders a whole value the way PlainTextValue does: items joined
// by spaces, except persons which are joined by " and ".
func (v Value) Text() string {
	var sb strings.Builder
	for i, item := range v {
		if i > 0 {
			if _, ok := item.(Person); ok {
				sb.WriteString(" and ")
			} else {
				sb.WriteByte(' ')
			}
		}
		sb.WriteString(item.Text())
	}
	return sb.String()
}

// ContainsText reports whether any item of v renders to the given text.
func (v Value) ContainsText(text string) bool {
	for _, item := range v {
		if item.Text() == text {
			return true
		}
	}
	return false
}

// Entry is one bibliographic record. Field insertion order is
// preserved so formatted output stays stable.
type Entry struct {
	Type EntryType
	ID   string

	order  []string
	fields map[string]Value
}

// NewEntry creates an empty entry of the given type and citation id.
func NewEntry(entryType EntryType, id string) *Entry {
	return &Entry{
		Type:   entryType,
		ID:     id,
		fields: make(map[string]Value),
	}
}

// Set stores a value under a field name, replacing any previous value
// but keeping the field's original position in the insertion order.
func (e *Entry) Set(field string, value Value) {
	field = strings.ToLower(field)
	if _, exists := e.fields[field]; !exists {
		e.order = append(e.order, field)
	}
	e.fields[field] = value
}

// Append adds items to a field's value, creating the field if needed.
func (e *Entry) Append(field string, items ...ValueItem) {
	field = strings.ToLower(field)
	v := e.fields[field]
	if _, exists := e.fields[field]; !exists {
		e.order = append(e.order, field)
	}
	e.fields[field] = append(v, items...)
}

// Get returns the value under a field, or nil if absent.
func (e *Entry) Get(field string) Value {
	return e.fields[strings.ToLower(field)]
}

// Has reports whether a field is present.
func (e *Entry) Has(field string) bool {
	_, ok := e.fields[strings.ToLower(field)]
	return ok
}

// Remove deletes a field.
func (e *Entry) Remove(field string) {
	field = strings.ToLower(field)
	if _, ok := e.fields[field]; !ok {
		return
	}
	delete(e.fields, field)
	for i, name := range e.order {
		if name == field {
			e.order = append(e.order[:i], e.order[i+1:]...)
			break
		}
	}
}

// Rename moves the value of one field to another, dropping the source.
// A no-op if the source is absent.
func (e *Entry) Rename(from, to string) {
	if v := e.Get(from); v != nil {
		e.Remove(from)
		e.Set(to, v)
	}
}

// Fields returns the field names in insertion order.
func (e *Entry) Fields() []string {
	out := make([]string, len(e.order))
	copy(out, e.order)
	return out
}

// Len returns the number of fields.
func (e *Entry) Len() int { return len(e.order) }
