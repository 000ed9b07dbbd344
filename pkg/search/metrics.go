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
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// metricsSearch holds Prometheus metrics for the federation engine.
type metricsSearch struct {
	once sync.Once

	entriesFound    *prometheus.CounterVec
	searchesStopped *prometheus.CounterVec
	searchDuration  *prometheus.HistogramVec
}

var metrics metricsSearch

func (m *metricsSearch) init() {
	m.once.Do(func() {
		m.entriesFound = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bibfetch_search_entries_total",
			Help: "Bibliographic entries emitted, per provider",
		}, []string{"provider"})
		m.searchesStopped = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bibfetch_search_stopped_total",
			Help: "Terminal search events, per provider and result code",
		}, []string{"provider", "result"})
		m.searchDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "bibfetch_search_seconds",
			Help:    "Wall time of one provider search from start to terminal event",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"provider"})

		prometheus.MustRegister(m.entriesFound, m.searchesStopped, m.searchDuration)
	})
}

func (m *metricsSearch) entryFound(provider string) {
	m.init()
	m.entriesFound.WithLabelValues(provider).Inc()
}

func (m *metricsSearch) searchStopped(provider string, result Result) {
	m.init()
	m.searchesStopped.WithLabelValues(provider, strconv.Itoa(int(result))).Inc()
}

func (m *metricsSearch) searchFinished(provider string, elapsed time.Duration) {
	m.init()
	m.searchDuration.WithLabelValues(provider).Observe(elapsed.Seconds())
}
