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
	"net/url"
	"strings"
)

// apiKeyParams are query parameter names whose values must never reach
// log output.
var apiKeyParams = map[string]bool{
	"key":        true,
	"api_key":    true,
	"apikey":     true,
	"wskey":      true,
	"access_key": true,
	"email":      true,
}

// RemoveAPIKey returns a display form of rawURL with API-key-carrying
// query parameters redacted to "XXXX". Use it before logging any
// provider URL.
func RemoveAPIKey(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	q := u.Query()
	changed := false
	for name := range q {
		if apiKeyParams[strings.ToLower(name)] {
			q.Set(name, "XXXX")
			changed = true
		}
	}
	if !changed {
		return rawURL
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// ReverseObfuscate decodes a byte sequence produced by the build-time
// obfuscation of embedded API keys: characters are stored back to
// front, each as a pair of bytes whose XOR is the character.
func ReverseObfuscate(data []byte) string {
	if len(data) == 0 || len(data)%2 != 0 {
		return ""
	}
	out := make([]byte, 0, len(data)/2)
	for p := len(data) - 1; p >= 1; p -= 2 {
		out = append(out, data[p]^data[p-1])
	}
	return string(out)
}

// Obfuscate is the inverse of ReverseObfuscate; it exists so tests and
// tooling can produce embeddable key material.
func Obfuscate(s string, mask []byte) []byte {
	out := make([]byte, 0, len(s)*2)
	for i := len(s) - 1; i >= 0; i-- {
		m := byte(0x5a)
		if len(mask) > 0 {
			m = mask[i%len(mask)]
		}
		out = append(out, m, s[i]^m)
	}
	return out
}
