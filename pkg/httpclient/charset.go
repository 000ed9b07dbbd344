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
	"mime"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// DecodeText converts a response body to a UTF-8 string, honoring the
// charset in the Content-Type header when present. Bodies that are
// already valid UTF-8 pass through; otherwise windows-1252 is assumed,
// matching the Accept-Charset list the client advertises.
func (r *Response) DecodeText() string {
	body := r.Body
	cs := ""
	if ct := r.Header.Get("Content-Type"); ct != "" {
		if _, params, err := mime.ParseMediaType(ct); err == nil {
			cs = strings.ToLower(params["charset"])
		}
	}

	switch cs {
	case "", "utf-8", "utf8", "us-ascii", "ascii":
		if utf8.Valid(body) {
			return string(body)
		}
	case "utf-16", "utf-16le", "utf-16be":
		dec := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder()
		if cs == "utf-16be" {
			dec = unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewDecoder()
		}
		if out, _, err := transform.Bytes(dec, body); err == nil {
			return string(out)
		}
	case "iso-8859-1", "latin1":
		if out, _, err := transform.Bytes(charmap.ISO8859_1.NewDecoder(), body); err == nil {
			return string(out)
		}
	case "iso-8859-15":
		if out, _, err := transform.Bytes(charmap.ISO8859_15.NewDecoder(), body); err == nil {
			return string(out)
		}
	}

	// Fallback covering both a wrong header and the common legacy case.
	if utf8.Valid(body) {
		return string(body)
	}
	out, _, err := transform.Bytes(charmap.Windows1252.NewDecoder(), body)
	if err != nil {
		return string(body)
	}
	return string(out)
}
