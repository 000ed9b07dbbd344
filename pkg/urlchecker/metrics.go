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

package urlchecker

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

type metricsURLChecker struct {
	once    sync.Once
	checked *prometheus.CounterVec
}

var urlMetrics metricsURLChecker

func (m *metricsURLChecker) init() {
	m.once.Do(func() {
		m.checked = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bibfetch_urlcheck_total",
			Help: "URL checks performed, per verdict",
		}, []string{"status"})
		prometheus.MustRegister(m.checked)
	})
}

func metricsURLChecked(status Status) {
	urlMetrics.init()
	urlMetrics.checked.WithLabelValues(status.String()).Inc()
}
