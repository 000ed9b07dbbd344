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

// Package zotero drives the OAuth1 three-legged credential exchange
// against Zotero. The flow ends with a (userId, apiKey) pair the
// caller stores in its configuration; this package persists nothing.
package zotero

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/dghubble/oauth1"

	"github.com/kraklabs/bibfetch/pkg/httpclient"
)

const (
	requestTokenURL = "https://www.zotero.org/oauth/request"
	authorizeURL    = "https://www.zotero.org/oauth/authorize"
	accessTokenURL  = "https://www.zotero.org/oauth/access"

	callbackPath = "/bibfetch-zotero-oauth"
)

// App-specific OAuth1 client credentials, stored obfuscated.
var (
	clientKey    = httpclient.ReverseObfuscate([]byte("\x53\x62\xf3\xc5\x27\x44\x66\x53\xa7\x92\x0d\x3d\x13\x21\xd3\xb1\x8a\xbd\x19\x7c\x5e\x66\x96\xf2\x0f\x6c\xe9\xd8\x82\xe3\x37\x03\x0a\x33\x17\x76\x70\x43\x6c\x0a"))
	clientSecret = httpclient.ReverseObfuscate([]byte("\x12\x73\x3e\x0c\x18\x7b\x8e\xba\x6d\x5d\x10\x28\xd4\xec\x91\xf4\x20\x15\xf3\xc2\x3a\x09\xa2\xc0\xa1\xc0\x96\xf5\xf3\xc4\x10\x22\x94\xf2\x96\xa6\x66\x02\x0d\x34"))
)

// Credentials is the outcome of a successful authorization.
type Credentials struct {
	UserID string
	APIKey string
}

// AuthorizeOptions tunes the interactive flow.
type AuthorizeOptions struct {
	// OpenURL presents the authorization URL to the user (e.g. by
	// launching a browser). Required.
	OpenURL func(authURL string) error
	// Timeout bounds the wait for the user to finish; zero means
	// five minutes.
	Timeout time.Duration
	Log     *slog.Logger
}

// Authorize performs the three-legged OAuth1 flow: obtain temporary
// credentials, direct the user's browser to Zotero's authorization
// page (read-only library access), capture the verifier on a
// short-lived loopback HTTP server, and exchange it for the access
// token. Zotero's access token doubles as the API key; the user id is
// then looked up through Zotero's keys endpoint.
func Authorize(ctx context.Context, opts AuthorizeOptions) (*Credentials, error) {
	if opts.OpenURL == nil {
		return nil, fmt.Errorf("zotero: OpenURL callback is required")
	}
	log := opts.Log
	if log == nil {
		log = slog.Default()
	}
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 5 * time.Minute
	}

	// Loopback server on a random unprivileged port.
	port := 1025 + rand.Intn(64508)
	listener, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
	if err != nil {
		// The random port may be taken; let the OS pick instead.
		listener, err = net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return nil, fmt.Errorf("zotero: start loopback server: %w", err)
		}
	}
	defer listener.Close()
	callbackURL := fmt.Sprintf("http://%s%s", listener.Addr().String(), callbackPath)

	config := &oauth1.Config{
		ConsumerKey:    clientKey,
		ConsumerSecret: clientSecret,
		CallbackURL:    callbackURL,
		Endpoint: oauth1.Endpoint{
			RequestTokenURL: requestTokenURL,
			AuthorizeURL:    authorizeURL,
			AccessTokenURL:  accessTokenURL,
		},
	}

	requestToken, requestSecret, err := config.RequestToken()
	if err != nil {
		return nil, fmt.Errorf("zotero: request temporary credentials: %w", err)
	}

	authURL, err := config.AuthorizationURL(requestToken)
	if err != nil {
		return nil, fmt.Errorf("zotero: build authorization URL: %w", err)
	}
	q := authURL.Query()
	q.Set("name", "bibfetch")
	q.Set("library_access", "1")
	q.Set("notes_access", "0")
	q.Set("write_access", "0")
	q.Set("all_groups", "read")
	authURL.RawQuery = q.Encode()

	verifierCh := make(chan string, 1)
	server := &http.Server{Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != callbackPath {
			http.NotFound(w, r)
			return
		}
		verifier := r.URL.Query().Get("oauth_verifier")
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, "<html><head><title>bibfetch authorized to use Zotero</title></head>"+
			"<body><p>bibfetch got successfully authorized to read your Zotero database.</p></body></html>")
		select {
		case verifierCh <- verifier:
		default:
		}
	})}
	go func() { _ = server.Serve(listener) }()
	defer server.Close()

	if err := opts.OpenURL(authURL.String()); err != nil {
		return nil, fmt.Errorf("zotero: open authorization URL: %w", err)
	}

	var verifier string
	select {
	case verifier = <-verifierCh:
	case <-time.After(timeout):
		return nil, fmt.Errorf("zotero: timed out waiting for authorization")
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if verifier == "" {
		return nil, fmt.Errorf("zotero: authorization was denied")
	}

	accessToken, _, err := config.AccessToken(requestToken, requestSecret, verifier)
	if err != nil {
		return nil, fmt.Errorf("zotero: exchange for access token: %w", err)
	}
	log.Info("OAuth authorization flow finished successfully")

	userID, err := lookupUserID(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	return &Credentials{UserID: userID, APIKey: accessToken}, nil
}

// lookupUserID asks the Zotero API which user the key belongs to.
// Zotero reports the id as an extra parameter of the token response,
// but the keys endpoint is the documented, stable way to obtain it.
func lookupUserID(ctx context.Context, apiKey string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		"https://api.zotero.org/keys/"+url.PathEscape(apiKey), nil)
	if err != nil {
		return "", fmt.Errorf("zotero: build key lookup: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("zotero: key lookup: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("zotero: key lookup answered status %d", resp.StatusCode)
	}
	var payload struct {
		UserID int64 `json:"userID"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("zotero: parse key lookup: %w", err)
	}
	return fmt.Sprintf("%d", payload.UserID), nil
}
