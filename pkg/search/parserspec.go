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
	"bytes"
	"fmt"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/tidwall/gjson"

	"github.com/kraklabs/bibfetch/pkg/bibtex"
)

// The declarative parser specs: each XML or JSON provider describes
// its response as a list of field rules ("field x comes from this
// XPath / JSON path, as this value kind, through this transform")
// instead of hand-written walking code. Onboarding a new provider is
// mostly writing such a spec.

// ValueKind selects which value-item variant a field rule produces.
type ValueKind int

const (
	KindPlainText ValueKind = iota
	KindVerbatim
	KindMacroKey
	KindKeyword
	KindPerson
)

func makeItems(kind ValueKind, texts []string) bibtex.Value {
	v := make(bibtex.Value, 0, len(texts))
	for _, t := range texts {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		switch kind {
		case KindVerbatim:
			v = append(v, bibtex.VerbatimText(t))
		case KindMacroKey:
			v = append(v, bibtex.MacroKey(t))
		case KindKeyword:
			v = append(v, bibtex.Keyword(t))
		case KindPerson:
			v = append(v, bibtex.ParsePerson(t))
		default:
			v = append(v, bibtex.PlainText(t))
		}
	}
	return v
}

// XMLFieldRule maps one XPath expression (relative to an entry node)
// to one entry field.
type XMLFieldRule struct {
	Field string
	Path  string
	Kind  ValueKind
	// Transform rewrites each matched text before it becomes a value
	// item; returning "" drops the match.
	Transform func(string) string
	// Build overrides the whole rule with custom extraction (multiple
	// paths, paired lists such as author fore/last names).
	Build func(entry *xmlquery.Node) bibtex.Value
}

// XMLSpec is a declarative parser for one provider's XML responses.
type XMLSpec struct {
	// EntryPath selects the entry nodes, e.g.
	// "//PubmedArticleSet/PubmedArticle".
	EntryPath string
	// EntryType yields the entry type for a node; nil means article.
	EntryType func(entry *xmlquery.Node) bibtex.EntryType
	// EntryID yields the citation id for a node.
	EntryID func(entry *xmlquery.Node) string
	Fields  []XMLFieldRule
}

// ParseXML runs a declarative spec over an XML document.
func (spec *XMLSpec) ParseXML(data []byte) ([]*bibtex.Entry, error) {
	doc, err := xmlquery.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("search: parse XML: %w", err)
	}
	nodes, err := xmlquery.QueryAll(doc, spec.EntryPath)
	if err != nil {
		return nil, fmt.Errorf("search: entry path %q: %w", spec.EntryPath, err)
	}

	entries := make([]*bibtex.Entry, 0, len(nodes))
	for _, node := range nodes {
		entryType := bibtex.TypeArticle
		if spec.EntryType != nil {
			entryType = spec.EntryType(node)
		}
		entry := bibtex.NewEntry(entryType, spec.EntryID(node))
		for _, rule := range spec.Fields {
			var value bibtex.Value
			if rule.Build != nil {
				value = rule.Build(node)
			} else {
				texts := XMLTexts(node, rule.Path)
				if rule.Transform != nil {
					transformed := texts[:0]
					for _, t := range texts {
						if t = rule.Transform(t); t != "" {
							transformed = append(transformed, t)
						}
					}
					texts = transformed
				}
				value = makeItems(rule.Kind, texts)
			}
			if len(value) > 0 {
				entry.Set(rule.Field, value)
			}
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// XMLText evaluates an XPath below node and returns the first match's
// inner text, or "".
func XMLText(node *xmlquery.Node, path string) string {
	found := xmlquery.FindOne(node, path)
	if found == nil {
		return ""
	}
	return strings.TrimSpace(found.InnerText())
}

// XMLTexts evaluates an XPath below node and returns all matches'
// inner texts.
func XMLTexts(node *xmlquery.Node, path string) []string {
	var texts []string
	for _, n := range xmlquery.Find(node, path) {
		if t := strings.TrimSpace(n.InnerText()); t != "" {
			texts = append(texts, t)
		}
	}
	return texts
}

// JSONFieldRule maps one gjson path (relative to an entry value) to
// one entry field.
type JSONFieldRule struct {
	Field     string
	Path      string
	Kind      ValueKind
	Transform func(string) string
	Build     func(entry gjson.Result) bibtex.Value
}

// JSONSpec is a declarative parser for one provider's JSON responses.
type JSONSpec struct {
	// EntriesPath selects the array of entries; "" means the document
	// root is a single entry.
	EntriesPath string
	EntryType   func(entry gjson.Result) bibtex.EntryType
	EntryID     func(entry gjson.Result) string
	Fields      []JSONFieldRule
}

// ParseJSON runs a declarative spec over a JSON document.
func (spec *JSONSpec) ParseJSON(data []byte) ([]*bibtex.Entry, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("search: response is not valid JSON")
	}
	root := gjson.ParseBytes(data)

	var items []gjson.Result
	if spec.EntriesPath == "" {
		items = []gjson.Result{root}
	} else {
		arr := root.Get(spec.EntriesPath)
		if !arr.Exists() {
			return nil, nil
		}
		items = arr.Array()
	}

	entries := make([]*bibtex.Entry, 0, len(items))
	for _, item := range items {
		entryType := bibtex.TypeArticle
		if spec.EntryType != nil {
			entryType = spec.EntryType(item)
		}
		entry := bibtex.NewEntry(entryType, spec.EntryID(item))
		for _, rule := range spec.Fields {
			var value bibtex.Value
			if rule.Build != nil {
				value = rule.Build(item)
			} else {
				texts := jsonTexts(item, rule.Path)
				if rule.Transform != nil {
					transformed := texts[:0]
					for _, t := range texts {
						if t = rule.Transform(t); t != "" {
							transformed = append(transformed, t)
						}
					}
					texts = transformed
				}
				value = makeItems(rule.Kind, texts)
			}
			if len(value) > 0 {
				entry.Set(rule.Field, value)
			}
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func jsonTexts(item gjson.Result, path string) []string {
	r := item.Get(path)
	if !r.Exists() {
		return nil
	}
	if r.IsArray() {
		var texts []string
		for _, e := range r.Array() {
			if s := strings.TrimSpace(e.String()); s != "" {
				texts = append(texts, s)
			}
		}
		return texts
	}
	if s := strings.TrimSpace(r.String()); s != "" {
		return []string{s}
	}
	return nil
}
