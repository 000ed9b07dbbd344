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
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kraklabs/bibfetch/pkg/httpclient"
)

func testClient() *httpclient.Client {
	return httpclient.New()
}

// testDownloadProvider builds a Shape A provider against a test
// server, exercising the shared single-download skeleton.
func testDownloadProvider(label, serverURL string) *simpleDownload {
	p := &simpleDownload{
		abstract:   newAbstract(label, testClient(), nil, nil),
		homepage:   serverURL,
		favIconURL: serverURL + "/favicon.ico",
	}
	p.prepare = func(query Query, _ int) (*downloadRequest, Result) {
		if query[QueryFreeText] == "" {
			return nil, ResultInvalidArguments
		}
		return &downloadRequest{URL: serverURL}, ResultNoError
	}
	return p
}

func drain(t *testing.T, events <-chan Event) (entries int, terminal *Stopped) {
	t.Helper()
	for ev := range events {
		switch ev := ev.(type) {
		case EntryFound:
			entries++
			if terminal != nil {
				t.Error("entry after terminal event")
			}
		case Stopped:
			if terminal != nil {
				t.Error("second terminal event")
			}
			s := ev
			terminal = &s
		}
	}
	if terminal == nil {
		t.Fatal("stream closed without terminal event")
	}
	return entries, terminal
}

func TestSimpleDownload_EmitsEntriesAndTerminal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("@article{a1, title = {T}, year = {2020}}\n@book{b1, title = {U}}"))
	}))
	defer server.Close()

	p := testDownloadProvider("Test Shape A", server.URL)
	events, err := p.Start(context.Background(), Query{QueryFreeText: "x"}, 10)
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	entries, terminal := drain(t, events)
	if entries != 2 {
		t.Errorf("entries = %d, want 2", entries)
	}
	if terminal.Result != ResultNoError {
		t.Errorf("result = %v, want no error", terminal.Result)
	}
}

func TestSimpleDownload_RefusesEmptyQuery(t *testing.T) {
	p := testDownloadProvider("Test Refuse", "http://unused.invalid")
	events, err := p.Start(context.Background(), Query{}, 10)
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	_, terminal := drain(t, events)
	if terminal.Result != ResultInvalidArguments {
		t.Errorf("result = %v, want invalid arguments", terminal.Result)
	}
}

func TestStart_RejectsSecondSearchInFlight(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		w.Write([]byte("@misc{m1, title = {X}}"))
	}))
	defer server.Close()

	p := testDownloadProvider("Test Busy", server.URL)
	events, err := p.Start(context.Background(), Query{QueryFreeText: "x"}, 1)
	if err != nil {
		t.Fatalf("first Start() error = %v", err)
	}
	if _, err := p.Start(context.Background(), Query{QueryFreeText: "y"}, 1); err != ErrSearchInFlight {
		t.Errorf("second Start() error = %v, want ErrSearchInFlight", err)
	}
	close(release)
	drain(t, events)
}

func TestHandleErrors_MapsStatusCodes(t *testing.T) {
	tests := []struct {
		status int
		want   Result
	}{
		{http.StatusUnauthorized, ResultAuthorizationRequired},
		{http.StatusProxyAuthRequired, ResultAuthorizationRequired},
		{http.StatusNotFound, ResultUnspecifiedError},
		{http.StatusInternalServerError, ResultUnspecifiedError},
	}
	for _, tt := range tests {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
		}))
		p := testDownloadProvider("Test Status", server.URL)
		events, err := p.Start(context.Background(), Query{QueryFreeText: "x"}, 1)
		if err != nil {
			t.Fatalf("Start() error = %v", err)
		}
		_, terminal := drain(t, events)
		if terminal.Result != tt.want {
			t.Errorf("status %d: result = %v, want %v", tt.status, terminal.Result, tt.want)
		}
		server.Close()
	}
}

// S7: federation with cancellation. Provider A answers immediately;
// provider B's request is still pending when cancel arrives. The
// consumer receives A's entries, one terminal per provider, then one
// Finished.
func TestFederator_Cancellation(t *testing.T) {
	fastServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("@article{fast1, title = {Fast Result}, year = {2021}}"))
	}))
	defer fastServer.Close()

	var slowStarted atomic.Bool
	slowRelease := make(chan struct{})
	slowServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		slowStarted.Store(true)
		<-slowRelease
		w.Write([]byte("@article{slow1, title = {Slow Result}}"))
	}))
	defer slowServer.Close()

	providerA := testDownloadProvider("Fast Provider", fastServer.URL)
	providerB := testDownloadProvider("Slow Provider", slowServer.URL)

	federator := NewFederator(nil, providerA, providerB)
	events := federator.Search(context.Background(), Query{QueryFreeText: "x"}, 5)

	// Cancel once A is done and B's request is in flight.
	var aEntrySeen atomic.Bool
	go func() {
		for !slowStarted.Load() || !aEntrySeen.Load() {
			time.Sleep(5 * time.Millisecond)
		}
		time.Sleep(20 * time.Millisecond)
		federator.Cancel()
		close(slowRelease)
	}()

	var (
		entriesFromA int
		terminals    = map[string]Result{}
		finished     bool
		afterFinish  int
	)
	for ev := range events {
		if finished {
			afterFinish++
		}
		switch ev := ev.(type) {
		case FedEntry:
			if ev.Provider == "Fast Provider" {
				entriesFromA++
				aEntrySeen.Store(true)
			} else {
				t.Errorf("unexpected entry from %s", ev.Provider)
			}
		case FedProviderDone:
			if _, dup := terminals[ev.Provider]; dup {
				t.Errorf("second terminal for %s", ev.Provider)
			}
			terminals[ev.Provider] = ev.Result
		case FedFinished:
			finished = true
		}
	}
	if !finished {
		t.Fatal("no Finished event")
	}
	if afterFinish != 0 {
		t.Errorf("%d events after Finished", afterFinish)
	}
	if entriesFromA != 1 {
		t.Errorf("entries from A = %d, want 1", entriesFromA)
	}
	if len(terminals) != 2 {
		t.Fatalf("terminals = %v, want one per provider", terminals)
	}
	if terminals["Fast Provider"] != ResultNoError {
		t.Errorf("A result = %v, want no error", terminals["Fast Provider"])
	}
	if terminals["Slow Provider"] != ResultCancelled {
		t.Errorf("B result = %v, want cancelled", terminals["Slow Provider"])
	}
}

func TestFederator_AggregatesProgress(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("@misc{m1, title = {X}}"))
	}))
	defer server.Close()

	federator := NewFederator(nil,
		testDownloadProvider("P1", server.URL),
		testDownloadProvider("P2", server.URL))
	events := federator.Search(context.Background(), Query{QueryFreeText: "x"}, 1)

	lastProgress := FedProgress{}
	for ev := range events {
		if p, ok := ev.(FedProgress); ok {
			if p.Current < lastProgress.Current {
				t.Errorf("progress went backwards: %+v after %+v", p, lastProgress)
			}
			lastProgress = p
		}
	}
	if lastProgress.Current != lastProgress.Total || lastProgress.Total == 0 {
		t.Errorf("final progress = %+v, want complete", lastProgress)
	}
}
