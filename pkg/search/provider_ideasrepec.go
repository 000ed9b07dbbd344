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
	"context"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/kraklabs/bibfetch/pkg/bibtex"
)

const (
	ideasSearchBaseURL = "https://ideas.repec.org/cgi-bin/htsearch?cmd=Search%21&form=extended&m=all&fmt=url&wm=wrd&sp=1&sy=1&dt=range"
	ideasRefsURL       = "https://ideas.repec.org/cgi-bin/refs.cgi"
)

var (
	ideasYearRegExp            = regexp.MustCompile(`^(19|20)[0-9]{2}$`)
	ideasPublicationLinkRegExp = regexp.MustCompile(`"/[a-z](/[^"]+){1,6}[.]html`)
)

// IDEASRePEc scrapes the IDEAS (RePEc) economics database: a search
// page lists publication pages, each publication page carries a
// citation-export form whose BibTeX output mode is forced.
type IDEASRePEc struct {
	abstract
}

// NewIDEASRePEc creates the IDEAS (RePEc) provider.
func NewIDEASRePEc(cfg ProviderConfig) *IDEASRePEc {
	return &IDEASRePEc{abstract: newAbstract("IDEAS (RePEc)", cfg.Client, cfg.Log, cfg.Notify)}
}

func (i *IDEASRePEc) Homepage() string   { return "https://ideas.repec.org/" }
func (i *IDEASRePEc) FavIconURL() string { return "https://ideas.repec.org/favicon.ico" }

func (i *IDEASRePEc) buildQueryURL(query Query, numResults int) string {
	hasFreeText := query[QueryFreeText] != ""
	hasTitle := query[QueryTitle] != ""
	hasAuthor := query[QueryAuthor] != ""
	hasYear := ideasYearRegExp.MatchString(query[QueryYear])

	// Search the whole record by default.
	fieldWF := "4BFF"
	var fieldQ, fieldDB, fieldDE string
	switch {
	case hasAuthor && !hasFreeText && !hasTitle:
		// Only the author field is used: search explicitly for author.
		fieldWF = "000F"
		fieldQ = query[QueryAuthor]
	case !hasAuthor && !hasFreeText && hasTitle:
		fieldWF = "00F0"
		fieldQ = query[QueryTitle]
	default:
		fieldQ = strings.TrimSpace(query[QueryFreeText] + " " + query[QueryTitle] + " " + query[QueryAuthor])
	}
	if hasYear {
		fieldDB = "01/01/" + query[QueryYear]
		fieldDE = "31/12/" + query[QueryYear]
	}

	q := url.Values{}
	q.Set("ps", strconv.Itoa(numResults))
	q.Set("db", fieldDB)
	q.Set("de", fieldDE)
	q.Set("q", fieldQ)
	q.Set("wf", fieldWF)
	return ideasSearchBaseURL + "&" + q.Encode()
}

// Start begins the IDEAS chain: result list, then one publication
// page plus one refs.cgi POST per hit.
func (i *IDEASRePEc) Start(ctx context.Context, query Query, numResults int) (<-chan Event, error) {
	hasQuery := false
	for _, text := range query {
		hasQuery = hasQuery || strings.TrimSpace(text) != ""
	}
	events, err := i.begin(2*numResults + 1)
	if err != nil {
		return nil, err
	}
	if !hasQuery {
		i.delayedStoppedSearch(ResultInvalidArguments)
		return events, nil
	}
	go i.run(ctx, query, numResults)
	return events, nil
}

func (i *IDEASRePEc) run(ctx context.Context, query Query, numResults int) {
	resp, err := i.client.Get(ctx, i.buildQueryURL(query, numResults), "")
	i.stepDone()
	ok, redirect := i.handleErrors(resp, err)
	for ok && redirect != nil {
		// Redirection to another URL
		i.addSteps(1)
		resp, err = i.client.Get(ctx, redirect.String(), resp.URL.String())
		i.stepDone()
		ok, redirect = i.handleErrors(resp, err)
	}
	if !ok {
		return
	}

	htmlCode := resp.DecodeText()
	links := extractIdeasPublicationLinks(htmlCode, resp.URL)
	if len(links) == 0 {
		i.stopSearch(ResultNoError)
		return
	}
	i.addSteps(2 * len(links))

	priorURL := resp.URL.String()
	for _, publicationLink := range links {
		pubResp, err := i.client.Get(ctx, publicationLink, priorURL)
		i.stepDone()
		if ok, _ := i.handleErrors(pubResp, err); !ok {
			return
		}
		priorURL = pubResp.URL.String()
		pubHTML := pubResp.DecodeText()

		// An associated document may be offered through the
		// get_doc.pl download form.
		downloadURL := ""
		if strings.Contains(pubHTML, `<FORM METHOD=GET ACTION="/cgi-bin/get_doc.pl"`) {
			downloadForm := FormParameters(pubHTML, `<FORM METHOD=GET ACTION="/cgi-bin/get_doc.pl"`)
			downloadURL = downloadForm.Get("url")
		}

		form := FormParameters(pubHTML, `<form method="post" action="/cgi-bin/refs.cgi"`)
		form.Set("output", "2") // enforce BibTeX output

		refsResp, err := i.client.Post(ctx, ideasRefsURL,
			"application/x-www-form-urlencoded", []byte(form.Encode()))
		i.stepDone()
		if ok, _ := i.handleErrors(refsResp, err); !ok {
			return
		}

		entries, err := bibtex.Parse(refsResp.DecodeText())
		if err != nil {
			i.log.Debug("skipping unparseable refs output", "err", err)
			continue
		}
		for _, entry := range entries {
			if downloadURL != "" {
				// There is an external document associated with this
				// entry.
				entry.Append(bibtex.FieldURL, bibtex.VerbatimText(downloadURL))
			}
			i.publishEntry(entry)
		}
	}
	i.stopSearch(ResultNoError)
}

// extractIdeasPublicationLinks collects the publication-detail links
// of the result list's <ol> section, resolved against the page URL.
func extractIdeasPublicationLinks(htmlCode string, base *url.URL) []string {
	ol1 := strings.Index(htmlCode, " results for ")
	if ol1 < 0 {
		return nil
	}
	ol2 := strings.Index(htmlCode[ol1:], "</ol>")
	if ol2 < 0 {
		return nil
	}
	section := htmlCode[ol1 : ol1+ol2+5]

	seen := make(map[string]bool)
	var links []string
	for _, match := range ideasPublicationLinkRegExp.FindAllString(section, -1) {
		ref, err := url.Parse(strings.TrimPrefix(match, `"`))
		if err != nil {
			continue
		}
		resolved := base.ResolveReference(ref).String()
		if !seen[resolved] {
			seen[resolved] = true
			links = append(links, resolved)
		}
	}
	return links
}
