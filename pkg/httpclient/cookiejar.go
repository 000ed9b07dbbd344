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

package httpclient

import (
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"regexp"
	"strings"
)

// HTTPEquivCookieJar wraps the standard cookie jar with an extension
// for sites that set cookies through HTML instead of HTTP headers:
//
//	<meta http-equiv="Set-Cookie" content="K=V; path=/">
//
// Some publisher portals gate their search forms this way.
type HTTPEquivCookieJar struct {
	Jar *cookiejar.Jar
}

var _ http.CookieJar = (*HTTPEquivCookieJar)(nil)

func (j *HTTPEquivCookieJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.Jar.SetCookies(u, cookies)
}

func (j *HTTPEquivCookieJar) Cookies(u *url.URL) []*http.Cookie {
	return j.Jar.Cookies(u)
}

var cookieContentRegExp = regexp.MustCompile(`(?i)^([^"=; ]+)=([^"=; ]+).*\bpath=([^"=; ]+)`)

// MergeHTMLHeadCookies scans an HTML body for a Set-Cookie meta tag
// and, if one is found, stores the cookie under the given URL.
func (j *HTTPEquivCookieJar) MergeHTMLHeadCookies(html string, u *url.URL) {
	lower := strings.ToLower(html)
	p1 := strings.Index(lower, `http-equiv="set-cookie"`)
	if p1 < 5 {
		return
	}
	p1 = strings.LastIndex(lower[:p1], "<meta")
	if p1 < 0 {
		return
	}
	rel := strings.Index(lower[p1:], `content="`)
	if rel < 0 {
		return
	}
	p1 += rel + len(`content="`)
	end := p1 + 256
	if end > len(html) {
		end = len(html)
	}
	m := cookieContentRegExp.FindStringSubmatch(html[p1:end])
	if m == nil {
		return
	}
	j.Jar.SetCookies(u, []*http.Cookie{{Name: m[1], Value: m[2], Path: m[3]}})
}
