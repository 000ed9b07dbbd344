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

// Package favicon locates a website's icon through a chain of
// strategies: the on-disk cache, the conventional /favicon.ico
// location, and a <link rel="icon"> scan of the site's HTML. Located
// icons are cached on disk with a time-based expiry.
package favicon

import (
	"bytes"
	"context"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/kraklabs/bibfetch/pkg/httpclient"
)

// cacheMaxAge is how long a cached icon stays valid; older files are
// deleted and re-fetched.
const cacheMaxAge = 90 * 24 * time.Hour

// debounceDelay coalesces the result emission so consumers receive
// one notification per successful locate.
const debounceDelay = 100 * time.Millisecond

// htmlScanLimit bounds how much of a page is searched for icon links;
// favicon information sits within the first 16K of HTML code.
const htmlScanLimit = 16384

var invalidFileNameChars = regexp.MustCompile(`(?i)[^-a-z0-9_]`)

type urlType int

const (
	urlTypeCache urlType = iota
	urlTypeFavIcon
	urlTypeWebsite
)

type typedURL struct {
	urlType urlType
	url     string
}

// Locator finds and caches one site's icon.
type Locator struct {
	client   *httpclient.Client
	log      *slog.Logger
	cacheDir string

	stack        []typedURL
	fileNameStem string
	originalURLs string
}

// New creates a Locator for a website. suggestedFavIconURL, when
// non-empty, is tried before the conventional strategies.
func New(client *httpclient.Client, cacheDir, webpageURL, suggestedFavIconURL string, log *slog.Logger) *Locator {
	if log == nil {
		log = slog.Default()
	}
	stem := strings.TrimPrefix(strings.TrimPrefix(webpageURL, "https://"), "http://")
	stem = invalidFileNameChars.ReplaceAllString(stem, "")

	l := &Locator{
		client:       client,
		log:          log,
		cacheDir:     cacheDir,
		fileNameStem: filepath.Join(cacheDir, stem),
	}

	// The stack pops last-in first, so push in reverse priority.
	if webpageURL != "" {
		if u, err := url.Parse(webpageURL); err == nil {
			def := *u
			def.Path = "/favicon.ico"
			def.RawQuery = ""
			l.stack = append(l.stack, typedURL{urlTypeWebsite, webpageURL})
			l.stack = append(l.stack, typedURL{urlTypeFavIcon, def.String()})
			l.originalURLs = httpclient.RemoveAPIKey(webpageURL)
		}
	}
	if suggestedFavIconURL != "" {
		l.stack = append(l.stack, typedURL{urlTypeFavIcon, suggestedFavIconURL})
		if l.originalURLs != "" {
			l.originalURLs += " and "
		}
		l.originalURLs += httpclient.RemoveAPIKey(suggestedFavIconURL)
	}
	l.stack = append(l.stack, typedURL{urlTypeCache, ""})
	return l
}

// Locate runs the strategy chain and returns a channel that delivers
// the path of the located icon file, debounced, then closes. An empty
// string means every strategy was exhausted.
func (l *Locator) Locate(ctx context.Context) <-chan string {
	out := make(chan string, 1)
	go func() {
		defer close(out)
		path := l.processStack(ctx)
		if path == "" {
			l.log.Warn("all methods to locate favicon exhausted, giving up",
				"urls", l.originalURLs)
		}
		// One debounced notification per locate.
		time.Sleep(debounceDelay)
		out <- path
	}()
	return out
}

func (l *Locator) processStack(ctx context.Context) string {
	_ = os.MkdirAll(l.cacheDir, 0o755)

	for len(l.stack) > 0 {
		cur := l.stack[len(l.stack)-1]
		l.stack = l.stack[:len(l.stack)-1]

		switch cur.urlType {
		case urlTypeCache:
			if path := l.fromCache(); path != "" {
				return path
			}
		case urlTypeFavIcon:
			if path := l.fromFavIconURL(ctx, cur.url); path != "" {
				return path
			}
		case urlTypeWebsite:
			if iconURL := l.scanWebsite(ctx, cur.url); iconURL != "" {
				l.stack = append(l.stack, typedURL{urlTypeFavIcon, iconURL})
			}
		}
	}
	return ""
}

// fromCache returns a cached icon that is younger than the expiry;
// older files are deleted so the chain re-fetches them.
func (l *Locator) fromCache() string {
	for _, extension := range []string{".png", ".ico"} {
		fileName := l.fileNameStem + extension
		fi, err := os.Stat(fileName)
		if err != nil {
			continue
		}
		if time.Since(fi.ModTime()) > cacheMaxAge {
			_ = os.Remove(fileName)
			continue
		}
		l.log.Debug("found cached favicon", "urls", l.originalURLs, "file", fileName)
		return fileName
	}
	return ""
}

// fromFavIconURL downloads a candidate icon and stores it if the
// content sniffs as PNG or ICO.
func (l *Locator) fromFavIconURL(ctx context.Context, favIconURL string) string {
	l.log.Debug("requesting favicon", "url", httpclient.RemoveAPIKey(favIconURL))
	resp, err := l.client.Get(ctx, favIconURL, "")
	if err != nil || resp.StatusCode >= 400 {
		return ""
	}
	iconData := resp.Body
	if len(iconData) <= 10 {
		// Unlikely that an icon is this small, must be an error.
		l.log.Warn("received invalid favicon data", "url", httpclient.RemoveAPIKey(favIconURL))
		return ""
	}

	extension := ""
	switch {
	case len(iconData) > 4 && iconData[1] == 'P' && iconData[2] == 'N' && iconData[3] == 'G':
		extension = ".png"
	case len(iconData) > 4 && iconData[0] == 0x00 && iconData[1] == 0x00 && iconData[2] == 0x01 && iconData[3] == 0x00:
		extension = ".ico"
	case iconData[0] == '<':
		l.log.Warn("received XML or HTML data instead of an icon",
			"url", httpclient.RemoveAPIKey(favIconURL))
		return ""
	default:
		l.log.Warn("favicon is of unknown format", "url", httpclient.RemoveAPIKey(favIconURL))
		return ""
	}

	fileName := l.fileNameStem + extension
	if err := os.WriteFile(fileName, iconData, 0o644); err != nil {
		l.log.Warn("could not save favicon", "file", fileName, "err", err)
		return ""
	}
	l.log.Debug("got favicon", "url", httpclient.RemoveAPIKey(favIconURL), "file", fileName)
	return fileName
}

// scanWebsite fetches the site's HTML and looks for an icon link,
// resolved against the page URL.
func (l *Locator) scanWebsite(ctx context.Context, pageURL string) string {
	resp, err := l.client.Get(ctx, pageURL, "")
	if err != nil || resp.StatusCode >= 400 {
		return ""
	}
	body := resp.Body
	if len(body) > htmlScanLimit {
		body = body[:htmlScanLimit]
	}

	href := findIconLink(body)
	if href == "" {
		return ""
	}
	base := resp.URL
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	resolved := base.ResolveReference(ref).String()
	l.log.Debug("found favicon link in HTML", "icon", resolved,
		"page", httpclient.RemoveAPIKey(pageURL))
	return resolved
}

// findIconLink tokenizes HTML and returns the href of the first
// <link rel="icon"> or <link rel="shortcut icon"> element.
func findIconLink(body []byte) string {
	tokenizer := html.NewTokenizer(bytes.NewReader(body))
	for {
		tokenType := tokenizer.Next()
		if tokenType == html.ErrorToken {
			return ""
		}
		if tokenType != html.StartTagToken && tokenType != html.SelfClosingTagToken {
			continue
		}
		name, hasAttr := tokenizer.TagName()
		if string(name) != "link" || !hasAttr {
			continue
		}
		rel, href := "", ""
		for {
			key, val, more := tokenizer.TagAttr()
			switch string(key) {
			case "rel":
				rel = strings.ToLower(string(val))
			case "href":
				href = string(val)
			}
			if !more {
				break
			}
		}
		if (rel == "icon" || rel == "shortcut icon") && href != "" {
			return href
		}
	}
}
