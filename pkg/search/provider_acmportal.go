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
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/kraklabs/bibfetch/pkg/bibtex"
	"github.com/kraklabs/bibfetch/pkg/httpclient"
)

const acmPortalBaseURL = "https://dl.acm.org/"

// acmResultRegExp collects per-result identifiers and session tokens
// from the result list HTML.
var acmResultRegExp = regexp.MustCompile(`(?i)<a [^>]+\?id=([0-9]+)\.([0-9]+)[^>]*CFID=([0-9]+)[^>]*CFTOKEN=([0-9]+)`)

// acmHTMLEncodedChar matches numeric HTML character references that
// ACM leaves inside exported BibTeX.
var acmHTMLEncodedChar = regexp.MustCompile(`&#(\d+);`)

// ACMPortal scrapes the ACM Digital Library: fetch the portal start
// page, extract and submit the "qiksearch" form, walk the result
// pages, then fetch one BibTeX export per result.
type ACMPortal struct {
	abstract
}

// NewACMPortal creates the ACM Digital Library provider.
func NewACMPortal(cfg ProviderConfig) *ACMPortal {
	return &ACMPortal{abstract: newAbstract("ACM Digital Library", cfg.Client, cfg.Log, cfg.Notify)}
}

func (a *ACMPortal) Homepage() string   { return "https://dl.acm.org/" }
func (a *ACMPortal) FavIconURL() string { return "https://dl.acm.org/favicon.ico" }

// Start begins the three-step portal chain.
func (a *ACMPortal) Start(ctx context.Context, query Query, numResults int) (<-chan Event, error) {
	var terms []string
	for _, key := range []QueryKey{QueryFreeText, QueryTitle, QueryAuthor, QueryYear} {
		if text := strings.TrimSpace(query[key]); text != "" {
			terms = append(terms, text)
		}
	}
	events, err := a.begin(numResults + 2)
	if err != nil {
		return nil, err
	}
	if len(terms) == 0 {
		a.delayedStoppedSearch(ResultInvalidArguments)
		return events, nil
	}
	go a.run(ctx, strings.Join(terms, " "), numResults)
	return events, nil
}

func (a *ACMPortal) run(ctx context.Context, joinedQuery string, numResults int) {
	// Step 1: fetch the start page and extract the search form.
	resp, err := a.client.Get(ctx, acmPortalBaseURL, "")
	a.stepDone()
	if ok, _ := a.handleErrors(resp, err); !ok {
		return
	}
	htmlSource := resp.DecodeText()

	action := extractACMFormAction(htmlSource)
	if action == "" {
		a.log.Warn("could not extract form from start page")
		a.notify("Searching '"+a.label+"' failed: could not extract form from ACM's start page.",
			a.label, "bibfetch", 7*time.Second)
		a.stopSearch(ResultUnspecifiedError)
		return
	}

	// Step 2: submit the search form and walk result pages.
	body := strings.Join(strings.Fields(fmt.Sprintf("Go=&query=%s", joinedQuery)), " ")
	searchResp, err := a.client.Post(ctx, acmPortalBaseURL+action,
		"application/x-www-form-urlencoded", []byte(body))
	a.stepDone()
	if ok, _ := a.handleErrors(searchResp, err); !ok {
		return
	}

	var bibTeXURLs []string
	currentSearchPosition := 1
	for {
		html := searchResp.DecodeText()
		for _, m := range acmResultRegExp.FindAllStringSubmatch(html, -1) {
			bibTeXURLs = append(bibTeXURLs, fmt.Sprintf(
				"%sdownformats.cfm?id=%s&parent_id=%s&expformat=bibtex&CFID=%s&CFTOKEN=%s",
				acmPortalBaseURL, m[2], m[1], m[3], m[4]))
		}
		if currentSearchPosition+20 >= numResults {
			break
		}
		// Another result page exists; bump the start position by 20.
		currentSearchPosition += 20
		pageURL := *searchResp.URL
		q := pageURL.Query()
		q.Set("start", strconv.Itoa(currentSearchPosition))
		pageURL.RawQuery = q.Encode()

		a.addSteps(1)
		searchResp, err = a.client.Get(ctx, pageURL.String(), searchResp.URL.String())
		a.stepDone()
		var ok bool
		if ok, _ = a.handleErrors(searchResp, err); !ok {
			return
		}
	}

	if len(bibTeXURLs) == 0 {
		a.stopSearch(ResultNoError)
		return
	}

	// Step 3: fetch one BibTeX export per collected result.
	numFound := 0
	priorURL := searchResp.URL.String()
	for _, exportURL := range bibTeXURLs {
		if numFound >= numResults {
			break
		}
		exportResp, err := a.client.Get(ctx, exportURL, priorURL)
		a.stepDone()
		if ok, _ := a.handleErrors(exportResp, err); !ok {
			return
		}
		priorURL = exportResp.URL.String()

		code := decodeACMCharacterReferences(exportResp.DecodeText())
		entries, err := bibtex.Parse(code)
		if err != nil {
			a.log.Debug("skipping unparseable export",
				"url", httpclient.RemoveAPIKey(exportResp.URL.String()), "err", err)
			continue
		}
		for _, entry := range entries {
			// ACM's Digital Library uses "issue" instead of "number".
			entry.Rename("issue", bibtex.FieldNumber)
			if a.publishEntry(entry) {
				numFound++
			}
		}
	}
	a.stopSearch(ResultNoError)
}

// extractACMFormAction pulls the action URL out of the qiksearch form
// on the portal's start page.
func extractACMFormAction(htmlSource string) string {
	p1 := strings.Index(htmlSource, `<form name="qiksearch"`)
	if p1 < 0 {
		return ""
	}
	p2 := strings.Index(htmlSource[p1:], "action=")
	if p2 < 0 {
		return ""
	}
	p2 += p1 + len("action=") + 1
	p3 := strings.Index(htmlSource[p2:], `"`)
	if p3 < 0 {
		return ""
	}
	return DecodeURL(htmlSource[p2 : p2+p3])
}

// decodeACMCharacterReferences resolves numeric HTML character
// references left in exported BibTeX code.
func decodeACMCharacterReferences(code string) string {
	return acmHTMLEncodedChar.ReplaceAllStringFunc(code, func(m string) string {
		n, err := strconv.Atoi(m[2 : len(m)-1])
		if err != nil || n <= 0 {
			return m
		}
		return string(rune(n))
	})
}
